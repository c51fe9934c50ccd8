package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/information-sharing-networks/https-app/internal/logger"
	"github.com/information-sharing-networks/https-app/internal/response"
)

// DefaultParameterLimit is the maximum number of parameters accepted in a url encoded body.
const DefaultParameterLimit = 1000

type URLEncodedOptions struct {
	// Extended expands bracket notation (a[b][c]=1, a[]=1) into nested maps and slices.
	// When false the body decodes to a flat map.
	Extended bool

	// ParameterLimit is the maximum number of parameters. Zero means DefaultParameterLimit.
	ParameterLimit int

	// Limit is the maximum body size in bytes. Zero means DefaultBodyLimit.
	Limit int64
}

// ParseURLEncoded returns a middleware that parses application/x-www-form-urlencoded request bodies.
//
// Requests without a body, with another content type, or already handled by ParseJSON are passed through.
//
// The parsed values populate r.PostForm (so r.PostFormValue works) and the decoded
// map is available with Body(r); DecodeForm decodes the form into a struct.
//
// Errors are reported with the response envelope:
//   - 400 when the body is not valid url encoding
//   - 413 when the body is too large or has too many parameters
//   - 415 when the charset is not utf-8
func ParseURLEncoded(opts URLEncodedOptions) func(http.Handler) http.Handler {
	limit := opts.ParameterLimit
	if limit <= 0 {
		limit = DefaultParameterLimit
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if alreadyParsed(r) || !hasBody(r) {
				next.ServeHTTP(w, r)
				return
			}

			charset, ok := matchMediaType(r, "application/x-www-form-urlencoded")
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if charset != "" && !strings.EqualFold(charset, "utf-8") {
				response.RespondWithError(w, r, response.NewUnsupportedMediaTypeError(
					fmt.Sprintf("unsupported charset %q", strings.ToUpper(charset)),
				))
				return
			}

			raw, err := readBody(w, r, opts.Limit)
			if err != nil {
				response.RespondWithError(w, r, err)
				return
			}

			pairs, err := parseFormPairs(string(raw), limit)
			if err != nil {
				logger.ContextWithLogAttrs(r.Context(), slog.String("body_parser", "urlencoded"))
				response.RespondWithError(w, r, err)
				return
			}

			var value map[string]any
			if opts.Extended {
				value = expandForm(pairs)
			} else {
				value = flattenForm(pairs)
			}

			postForm := make(url.Values, len(pairs))
			for _, p := range pairs {
				postForm.Add(p.key, p.value)
			}

			r = withParsedBody(r, value, raw)
			r.PostForm = postForm

			next.ServeHTTP(w, r)
		})
	}
}

type formPair struct {
	key   string
	value string
}

// parseFormPairs splits a url encoded body into key/value pairs, keeping their order.
//
// Unlike url.ParseQuery only '&' separates pairs; a key without '=' gets an empty value.
func parseFormPairs(body string, limit int) ([]formPair, error) {
	if body == "" {
		return nil, nil
	}

	if count := strings.Count(body, "&") + 1; count > limit {
		return nil, response.NewTooManyParametersError(
			fmt.Sprintf("too many parameters (limit %d)", limit),
		)
	}

	var pairs []formPair
	for _, part := range strings.Split(body, "&") {
		if part == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(part, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, response.WrapMalformedRequestError(err, "invalid url encoded body")
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, response.WrapMalformedRequestError(err, "invalid url encoded body")
		}
		if key == "" {
			continue
		}
		pairs = append(pairs, formPair{key: key, value: value})
	}
	return pairs, nil
}

// flattenForm maps each key to its value, or to a []string when the key is repeated.
func flattenForm(pairs []formPair) map[string]any {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		switch existing := out[p.key].(type) {
		case nil:
			out[p.key] = p.value
		case string:
			out[p.key] = []string{existing, p.value}
		case []string:
			out[p.key] = append(existing, p.value)
		}
	}
	return out
}
