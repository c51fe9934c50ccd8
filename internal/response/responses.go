// Package response defines the JSON envelope returned by API handlers and helpers to write it.
//
// Every JSON response has the shape
//
//	{"success": true, "data": {...}}
//	{"success": false, "message": "..."}
//
// Handlers registered by the route collaborator are expected to follow the same contract.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/information-sharing-networks/https-app/internal/logger"
)

// APIResponse is the response envelope.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK wraps data in a successful response.
func OK[T any](data T) APIResponse[T] {
	return APIResponse[T]{Success: true, Data: &data}
}

// Fail creates an unsuccessful response without data.
func Fail(message string) APIResponse[struct{}] {
	return APIResponse[struct{}]{Success: false, Message: message}
}

// RespondWithError sends an error envelope.
//
// The full error is logged server-side; the client only gets the sanitized message.
// Errors that are not *AppError are reported as internal errors.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := http.StatusInternalServerError
	message := "internal error"

	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code() != ErrCodeInternalError {
		statusCode = appErr.StatusCode()
		message = appErr.Message()
	}

	reqLogger := logger.ContextRequestLogger(r.Context())
	attrs := []any{
		slog.String("error", err.Error()),
		slog.Int("status_code", statusCode),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	}
	if appErr == nil {
		attrs = append(attrs, slog.String("error_type", fmt.Sprintf("%T", err)))
	}
	if statusCode >= http.StatusInternalServerError {
		reqLogger.Error("Request failed", attrs...)
	} else {
		reqLogger.Warn("Request failed", attrs...)
	}

	RespondWithJSONPayload(w, statusCode, Fail(message))
}

// RespondWithJSONPayload sends a JSON response with the given status code
func RespondWithJSONPayload(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			// headers are already written, log only
			slog.Error("Failed to encode JSON response",
				slog.String("error", err.Error()),
			)
		}
	}
}

// RespondWithStatusCodeOnly sends a response with only a status code (no body)
func RespondWithStatusCodeOnly(w http.ResponseWriter, statusCode int) {
	w.WriteHeader(statusCode)
}
