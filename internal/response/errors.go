package response

// errors.go defines the error codes returned to API clients

import (
	"fmt"
	"net/http"
)

// AppError represents a structured error that can be reported to the client.
type AppError struct {
	// code is the application error code
	code ErrorCode

	// message is a human-readable error message, safe to return to the client
	message string

	// wrapped is the optional underlying error (logged, never returned to the client)
	wrapped error
}

func (e *AppError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *AppError) Code() ErrorCode { return e.code }
func (e *AppError) Message() string { return e.message }
func (e *AppError) Unwrap() error   { return e.wrapped }
func (e *AppError) StatusCode() int { return e.code.StatusCode() }

// ErrorCode classifies errors returned by the server.
//
//   - 7000-7999 technical errors: the request could not be processed (bad body, too large etc).
//   - 8000-8999 functional errors: the request was understood but cannot be served.
type ErrorCode int

const (
	// ErrCodeMalformedRequest is used when the request body cannot be parsed (invalid JSON, bad url encoding)
	ErrCodeMalformedRequest ErrorCode = 7001

	// ErrCodeUnsupportedMediaType is used when the body uses an unsupported charset
	ErrCodeUnsupportedMediaType ErrorCode = 7002

	// ErrCodeRequestTooLarge is used when the request body exceeds the configured limit
	ErrCodeRequestTooLarge ErrorCode = 7003

	// ErrCodeTooManyParameters is used when a url encoded body has more parameters than allowed
	ErrCodeTooManyParameters ErrorCode = 7004

	// ErrCodeRateLimitExceeded is used by the rate limit middleware
	ErrCodeRateLimitExceeded ErrorCode = 7005

	// ErrCodeInternalError is used when an unexpected server side error occurs
	ErrCodeInternalError ErrorCode = 7006

	// ErrCodeNotFound is used when the requested resource does not exist
	ErrCodeNotFound ErrorCode = 8001
)

// StatusCode returns the HTTP status used for the code.
func (c ErrorCode) StatusCode() int {
	switch c {
	case ErrCodeMalformedRequest:
		return http.StatusBadRequest
	case ErrCodeUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case ErrCodeRequestTooLarge, ErrCodeTooManyParameters:
		return http.StatusRequestEntityTooLarge
	case ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// NewMalformedRequestError creates an error for request bodies that cannot be parsed.
func NewMalformedRequestError(msg string) error {
	return &AppError{code: ErrCodeMalformedRequest, message: msg}
}

// WrapMalformedRequestError wraps a parser error as a malformed request error.
func WrapMalformedRequestError(err error, msg string) error {
	return &AppError{code: ErrCodeMalformedRequest, message: msg, wrapped: err}
}

// NewUnsupportedMediaTypeError creates an error for unsupported content types or charsets.
func NewUnsupportedMediaTypeError(msg string) error {
	return &AppError{code: ErrCodeUnsupportedMediaType, message: msg}
}

// NewRequestTooLargeError creates a request too large error.
// Use this when the request body exceeds the maximum allowed size.
func NewRequestTooLargeError(msg string) error {
	return &AppError{code: ErrCodeRequestTooLarge, message: msg}
}

// NewTooManyParametersError is used when a url encoded body exceeds the parameter limit.
func NewTooManyParametersError(msg string) error {
	return &AppError{code: ErrCodeTooManyParameters, message: msg}
}

// NewRateLimitError creates a rate limit exceeded error.
func NewRateLimitError(msg string) error {
	return &AppError{code: ErrCodeRateLimitExceeded, message: msg}
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(msg string) error {
	return &AppError{code: ErrCodeNotFound, message: msg}
}

// WrapInternalError wraps an unexpected failure.
// The message returned to the client is replaced by a generic one, the wrapped error is only logged.
func WrapInternalError(err error, msg string) error {
	return &AppError{code: ErrCodeInternalError, message: msg, wrapped: err}
}
