package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/information-sharing-networks/https-app/internal/logger"
	"github.com/information-sharing-networks/https-app/internal/response"
)

// MaxRequestSizeHeader tells clients the configured body limit. It is set on every response.
const MaxRequestSizeHeader = "X-Max-Request-Size"

// RequestSizeLimit caps request bodies at maxBytes.
//
// A declared Content-Length above the limit is rejected before the handler runs. Bodies without
// a (truthful) length are wrapped in http.MaxBytesReader, and the body parsers turn the read
// error into a 413.
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	limit := strconv.FormatInt(maxBytes, 10)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(MaxRequestSizeHeader, limit)

			if !hasBody(r) {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > maxBytes {
				logger.ContextWithLogAttrs(r.Context(), slog.Int64("content_length", r.ContentLength))
				response.RespondWithError(w, r, response.NewRequestTooLargeError(
					fmt.Sprintf("request body is %d bytes, the limit is %d bytes", r.ContentLength, maxBytes),
				))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeaders sets the browser hardening headers.
// Strict-Transport-Security is only sent when production is true so local certificates are not pinned.
func SecurityHeaders(production bool) func(http.Handler) http.Handler {
	headers := map[string]string{
		"X-Content-Type-Options":       "nosniff",
		"X-Frame-Options":              "SAMEORIGIN",
		"X-Dns-Prefetch-Control":       "off",
		"Referrer-Policy":              "no-referrer",
		"Cross-Origin-Opener-Policy":   "same-origin",
		"Cross-Origin-Resource-Policy": "same-origin",
	}
	if production {
		headers["Strict-Transport-Security"] = "max-age=31536000; includeSubDomains"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for k, v := range headers {
				h.Set(k, v)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit applies a process wide token bucket of requestsPerSecond with the given burst.
// requestsPerSecond <= 0 disables it.
//
// Rejected requests get a 429 envelope and a Retry-After header.
func RateLimit(requestsPerSecond int32, burst int32) func(http.Handler) http.Handler {
	if requestsPerSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst))
	retryAfter := strconv.Itoa(int(math.Max(1, math.Ceil(1/float64(requestsPerSecond)))))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			logger.ContextWithLogAttrs(r.Context(),
				slog.String("component", "RateLimit"),
				slog.String("remote_addr", r.RemoteAddr),
			)
			w.Header().Set("Retry-After", retryAfter)
			response.RespondWithError(w, r, response.NewRateLimitError("too many requests, try again later"))
		})
	}
}
