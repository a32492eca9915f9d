package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/calendar-core/internal/application"
	"github.com/example/calendar-core/internal/resize"
)

var (
	errBadRequestBody   = errors.New("request body is not valid JSON")
	errInvalidEventID   = errors.New("event id is missing or invalid")
	errInvalidCalendar  = errors.New("calendar id is missing or invalid")
	errInvalidDay       = errors.New("day must be formatted as YYYY-MM-DD")
	errInvalidTimestamp = errors.New("timestamps must be RFC 3339")
)

// Stable machine readable error codes surfaced alongside messages.
const (
	codeMalformedInput   = "MALFORMED_INPUT"
	codeNotFound         = "NOT_FOUND"
	codeAlreadyExists    = "ALREADY_EXISTS"
	codeReadOnly         = "READ_ONLY"
	codeValidationFailed = "VALIDATION_FAILED"
	codeInternal         = "INTERNAL_ERROR"
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeMalformed reports a request the server could not even parse. Garbage
// input is always rejected outright instead of being coerced.
func (r responder) writeMalformed(ctx context.Context, w http.ResponseWriter, err error) {
	message := "request is malformed"
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
	}
	r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
		ErrorCode: codeMalformedInput,
		Message:   message,
	})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
			ErrorCode: codeInternal,
			Message:   "unknown error",
		})
		return
	}

	if reason := resize.ReasonFor(err); reason != "" {
		status := http.StatusUnprocessableEntity
		if reason == resize.ReasonNotResizable {
			status = http.StatusConflict
		}
		r.writeJSON(ctx, w, status, errorResponse{
			ErrorCode: string(reason),
			Message:   resizeMessage(reason),
		})
		return
	}

	switch {
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{
			ErrorCode: codeNotFound,
			Message:   "the requested resource was not found",
		})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: codeAlreadyExists,
			Message:   "a resource with this identifier already exists",
		})
	case errors.Is(err, application.ErrReadOnly):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: codeReadOnly,
			Message:   "this event is read only and cannot be modified",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				ErrorCode: codeValidationFailed,
				Message:   "the request contains invalid fields",
				Errors:    vErr.FieldErrors,
			})
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
			ErrorCode: codeInternal,
			Message:   "an internal error occurred",
		})
	}
}

func resizeMessage(reason resize.Reason) string {
	switch reason {
	case resize.ReasonNotResizable:
		return "this entry cannot be resized"
	case resize.ReasonInvalidOrder:
		return "start must be before end"
	case resize.ReasonDurationTooShort:
		return "events must be at least 15 minutes long"
	default:
		return "resize rejected"
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
