package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/calendar-core/internal/logging"
	"github.com/example/calendar-core/internal/resize"
)

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrReadOnly):
		return "read_only"
	case errors.Is(err, resize.ErrNotResizable):
		return "not_resizable"
	case errors.Is(err, resize.ErrInvalidOrder):
		return "invalid_order"
	case errors.Is(err, resize.ErrDurationTooShort):
		return "duration_too_short"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
