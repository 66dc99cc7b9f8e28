package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/utafrali/EcommerceGo/pkg/errors"
	"github.com/utafrali/EcommerceGo/pkg/logger"
	"github.com/utafrali/EcommerceGo/pkg/validator"
)

// ErrorEnvelope is the body of every non-2xx response.
type ErrorEnvelope struct {
	Error *ErrorResponse `json:"error"`
}

// ErrorResponse describes a failed request.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err onto a status and error envelope. Validation errors
// become 400 with per-field messages, AppErrors use their own status, and
// everything else is a 500 whose detail stays in the log. Server-side
// failures are logged here, once, with the request-scoped logger when the
// logging middleware installed one.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}
	requestID := logger.CorrelationIDFromContext(r.Context())

	resp := &ErrorResponse{RequestID: requestID}
	status := http.StatusInternalServerError

	var valErr *validator.ValidationError
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &valErr):
		status = http.StatusBadRequest
		resp.Code = "INVALID_INPUT"
		resp.Message = "request validation failed"
		resp.Fields = valErr.Fields()
	case errors.As(err, &appErr):
		status = appErr.Status
		resp.Code = appErr.Code
		resp.Message = appErr.Message
		resp.Fields = appErr.Fields
	case errors.Is(err, apperrors.ErrInvalidInput):
		status = http.StatusBadRequest
		resp.Code = "INVALID_INPUT"
		resp.Message = err.Error()
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
		resp.Code = "NOT_FOUND"
		resp.Message = "resource not found"
	case errors.Is(err, apperrors.ErrServiceUnavail):
		status = http.StatusServiceUnavailable
		resp.Code = "SERVICE_UNAVAILABLE"
		resp.Message = "service temporarily unavailable"
	default:
		resp.Code = "INTERNAL_ERROR"
		resp.Message = "an internal error occurred"
	}

	if status >= http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.Int("status", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, ErrorEnvelope{Error: resp})
}
