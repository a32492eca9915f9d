package event

import (
	"errors"
	"strings"
	"time"

	"github.com/example/calendar-core/internal/recurrence"
)

// Source identifies where a calendar entry originates. It is a closed set so
// resizability and rendering rules can switch over it exhaustively.
type Source int

const (
	// SourceEvent is a regular calendar event created in the calendar module.
	SourceEvent Source = iota
	// SourceTask is a task deadline projected onto the calendar.
	SourceTask
	// SourceExternal is an entry synchronized from an external calendar.
	SourceExternal
)

// ErrUnknownSource indicates a source label outside the supported set.
var ErrUnknownSource = errors.New("event: unknown source type")

// ParseSource converts a transport label into a Source.
func ParseSource(value string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "event":
		return SourceEvent, nil
	case "task":
		return SourceTask, nil
	case "external":
		return SourceExternal, nil
	default:
		return SourceEvent, ErrUnknownSource
	}
}

// String returns the transport label for the source.
func (s Source) String() string {
	switch s {
	case SourceTask:
		return "task"
	case SourceExternal:
		return "external"
	case SourceEvent:
		fallthrough
	default:
		return "event"
	}
}

// Event is a calendar entry as owned by the surrounding application. The
// scheduling core only reads it; all timestamps are UTC instants.
type Event struct {
	ID         string
	CalendarID string
	Title      string
	Start      time.Time
	End        time.Time
	AllDay     bool
	Source     Source
	ReadOnly   bool
	Recurrence recurrence.Rule
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Duration returns the event length.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Overlaps reports whether the half-open ranges [aStart, aEnd) and
// [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// ErrMalformedTimestamp indicates an instant string that could not be parsed.
// Boundaries must reject it instead of letting corrupt geometry propagate.
var ErrMalformedTimestamp = errors.New("event: malformed timestamp")

// ParseInstant parses an ISO-8601 instant into a UTC time. An empty string is
// malformed; callers that allow absent values check before parsing.
func ParseInstant(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrMalformedTimestamp
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC(), nil
	}
	return time.Time{}, ErrMalformedTimestamp
}

// FormatInstant renders an instant in the wire format used across the API.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
