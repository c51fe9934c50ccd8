package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"

	"github.com/information-sharing-networks/https-app/internal/logger"
	"github.com/information-sharing-networks/https-app/internal/response"
)

type JSONOptions struct {
	// Limit is the maximum body size in bytes. Zero means DefaultBodyLimit.
	Limit int64
}

// ParseJSON returns a middleware that parses application/json request bodies.
//
// Requests without a body or with another content type are passed through untouched.
// The parser is strict: only objects and arrays are accepted at the top level.
// An empty body decodes to an empty object.
//
// Bodies are UTF-8 unless the charset parameter names UTF-16 or UTF-32, which are transcoded.
//
// Errors are reported with the response envelope:
//   - 400 when the body is not valid JSON (or is a top level scalar)
//   - 413 when the body exceeds opts.Limit (or the limit set by RequestSizeLimit)
//   - 415 when the charset is not one of utf-8, utf-16 or utf-32
//
// The decoded value is available with Body(r), and r.Body is replaced with a fresh
// reader over the original bytes.
func ParseJSON(opts JSONOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if alreadyParsed(r) || !hasBody(r) {
				next.ServeHTTP(w, r)
				return
			}

			charset, ok := matchMediaType(r, "application/json")
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			enc, ok := jsonCharset(charset)
			if !ok {
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

			text := raw
			if enc != nil {
				if text, err = enc.NewDecoder().Bytes(raw); err != nil {
					logger.ContextWithLogAttrs(r.Context(), slog.String("body_parser", "json"))
					response.RespondWithError(w, r, response.WrapMalformedRequestError(err, "invalid "+strings.ToUpper(charset)+" body"))
					return
				}
			}

			value, err := decodeStrictJSON(text)
			if err != nil {
				logger.ContextWithLogAttrs(r.Context(), slog.String("body_parser", "json"))
				response.RespondWithError(w, r, err)
				return
			}

			next.ServeHTTP(w, withParsedBody(r, value, raw))
		})
	}
}

// jsonCharset returns the decoder for charset, nil for UTF-8 (no transcoding needed).
// ok is false for charsets the parser does not accept.
// UTF-16 and UTF-32 without an explicit byte order honour a BOM and default to little endian.
func jsonCharset(charset string) (enc encoding.Encoding, ok bool) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		return nil, true
	case "utf-16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), true
	case "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), true
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), true
	case "utf-32":
		return utf32.UTF32(utf32.LittleEndian, utf32.UseBOM), true
	case "utf-32le":
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), true
	case "utf-32be":
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), true
	default:
		return nil, false
	}
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return map[string]any{}, nil
	}

	if trimmed[0] != '{' && trimmed[0] != '[' {
		return nil, response.NewMalformedRequestError(
			fmt.Sprintf("invalid JSON: unexpected token %q, body must be an object or array", trimmed[0]),
		)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, response.WrapMalformedRequestError(err, "invalid JSON")
	}
	if err := dec.Decode(new(any)); err != io.EOF {
		return nil, response.NewMalformedRequestError("invalid JSON: unexpected data after top-level value")
	}
	return value, nil
}
