package persistence

import (
	"context"
	"time"

	"github.com/example/calendar-core/internal/event"
)

// EventFilter narrows event queries. From and To describe a half-open window:
// an event matches when it overlaps [From, To).
type EventFilter struct {
	CalendarID string
	From       *time.Time
	To         *time.Time
}

// EventRepository stores calendar events.
type EventRepository interface {
	CreateEvent(ctx context.Context, ev event.Event) error
	UpdateEvent(ctx context.Context, ev event.Event) error
	// UpdateEventWindow rewrites only the boundaries that are non-nil,
	// leaving the other one untouched. This is the commit path for
	// single-edge resizes.
	UpdateEventWindow(ctx context.Context, id string, start, end *time.Time, updatedAt time.Time) error
	GetEvent(ctx context.Context, id string) (event.Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]event.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}
