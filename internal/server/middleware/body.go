package middleware

// body.go holds the helpers shared by the JSON and url encoded body parsers.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/information-sharing-networks/https-app/internal/response"
)

type parsedBodyKey struct{}

type parsedBody struct {
	value any
}

// Body returns the value decoded by ParseJSON or ParseURLEncoded.
//
// JSON bodies decode to map[string]any, []any or the JSON scalar types (numbers as json.Number).
// URL encoded bodies decode to map[string]any. ok is false when no parser handled the request.
func Body(r *http.Request) (value any, ok bool) {
	pb, ok := r.Context().Value(parsedBodyKey{}).(*parsedBody)
	if !ok {
		return nil, false
	}
	return pb.value, true
}

func withParsedBody(r *http.Request, value any, raw []byte) *http.Request {
	ctx := context.WithValue(r.Context(), parsedBodyKey{}, &parsedBody{value: value})
	r = r.WithContext(ctx)

	// handlers can still decode the body into their own types
	r.Body = io.NopCloser(bytes.NewReader(raw))
	r.ContentLength = int64(len(raw))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(raw)), nil
	}
	return r
}

func alreadyParsed(r *http.Request) bool {
	_, ok := Body(r)
	return ok
}

// hasBody reports whether the request carries a body (chunked bodies have ContentLength -1).
func hasBody(r *http.Request) bool {
	return r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0
}

// matchMediaType returns the charset parameter (lower case) and whether the request Content-Type is mediaType.
func matchMediaType(r *http.Request, mediaType string) (charset string, ok bool) {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return "", false
	}
	mt, params, err := mime.ParseMediaType(ct)
	if err != nil || mt != mediaType {
		return "", false
	}
	return params["charset"], true
}

// DefaultBodyLimit is the body size accepted by the parsers when no limit is configured (100kb).
const DefaultBodyLimit int64 = 100 * 1024

// readBody reads the whole body, at most limit bytes, mapping size limit failures to a 413 error.
// A tighter limit set earlier in the chain (RequestSizeLimit) still applies.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultBodyLimit
	}
	if r.ContentLength > limit {
		return nil, response.NewRequestTooLargeError(
			fmt.Sprintf("request body size (%d bytes) exceeds maximum allowed size (%d bytes)", r.ContentLength, limit),
		)
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, response.NewRequestTooLargeError(
				fmt.Sprintf("request body exceeds maximum allowed size (%d bytes)", maxBytesErr.Limit),
			)
		}
		return nil, response.WrapMalformedRequestError(err, "failed to read request body")
	}
	return raw, nil
}
