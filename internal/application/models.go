package application

import (
	"time"

	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/recurrence"
	"github.com/example/calendar-core/internal/resize"
	"github.com/example/calendar-core/internal/timegrid"
)

// EventInput captures caller provided event fields.
type EventInput struct {
	CalendarID string
	Title      string
	Start      time.Time
	End        time.Time
	AllDay     bool
	Source     event.Source
	ReadOnly   bool
	Recurrence recurrence.Rule
}

// CreateEventParams wraps the data required to create an event.
type CreateEventParams struct {
	Input EventInput
}

// UpdateEventParams wraps the data required to update an existing event.
type UpdateEventParams struct {
	EventID string
	Input   EventInput
}

// ListEventsParams narrows event listings to a calendar and optional window.
type ListEventsParams struct {
	CalendarID string
	From       *time.Time
	To         *time.Time
}

// ResizeEventParams describes a drag release on one event edge.
type ResizeEventParams struct {
	EventID string
	Target  time.Time
	Edge    resize.Edge
	// PreserveTime keeps the dragged edge's original time of day and takes
	// only the date from the target. All-day events always preserve time.
	PreserveTime bool
}

// DayLayoutParams identifies the day to lay out for a calendar.
type DayLayoutParams struct {
	CalendarID string
	Day        time.Time
}

// DayLayout is the render-ready view of one calendar day. Recurring events
// appear as expanded instances.
type DayLayout struct {
	Day          time.Time
	TimedEvents  []timegrid.PositionedEvent
	AllDayEvents []event.Event
}

// PreviewOccurrencesParams wraps a rule evaluation request from the event form.
type PreviewOccurrencesParams struct {
	Start time.Time
	Rule  recurrence.Rule
	Limit int
}

// PreviewResult carries the projected occurrence instants and the summary
// token rendering of the rule.
type PreviewResult struct {
	Occurrences []time.Time
	Summary     string
}
