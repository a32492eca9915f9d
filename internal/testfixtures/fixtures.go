package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/recurrence"
)

var eventCounter uint64

var referenceTime = time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
// It is a Monday morning, which keeps weekday based recurrence fixtures easy
// to reason about.
func ReferenceTime() time.Time {
	return referenceTime
}

// EventOption configures a generated event fixture.
type EventOption func(*event.Event)

func newEvent() event.Event {
	idx := atomic.AddUint64(&eventCounter, 1)
	start := referenceTime.Add(time.Duration(idx) * time.Hour)
	created := referenceTime.Add(-24 * time.Hour)
	return event.Event{
		ID:         fmt.Sprintf("evt-%03d", idx),
		CalendarID: "cal-001",
		Title:      fmt.Sprintf("Event %03d", idx),
		Start:      start,
		End:        start.Add(time.Hour),
		Source:     event.SourceEvent,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

// NewEvent returns a deterministic one hour event fixture with optional
// overrides applied in order.
func NewEvent(opts ...EventOption) event.Event {
	fixture := newEvent()
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithID overrides the generated event ID.
func WithID(id string) EventOption {
	return func(ev *event.Event) { ev.ID = id }
}

// WithCalendar overrides the calendar the event belongs to.
func WithCalendar(calendarID string) EventOption {
	return func(ev *event.Event) { ev.CalendarID = calendarID }
}

// WithTitle overrides the generated title.
func WithTitle(title string) EventOption {
	return func(ev *event.Event) { ev.Title = title }
}

// WithWindow overrides the event's start and end.
func WithWindow(start, end time.Time) EventOption {
	return func(ev *event.Event) {
		ev.Start = start
		ev.End = end
	}
}

// WithAllDay marks the event as all-day spanning the given number of days
// from the reference date.
func WithAllDay(days int) EventOption {
	return func(ev *event.Event) {
		ev.AllDay = true
		dayStart := time.Date(referenceTime.Year(), referenceTime.Month(), referenceTime.Day(), 0, 0, 0, 0, time.UTC)
		ev.Start = dayStart
		ev.End = dayStart.AddDate(0, 0, days)
	}
}

// WithSource overrides the event source.
func WithSource(source event.Source) EventOption {
	return func(ev *event.Event) { ev.Source = source }
}

// WithReadOnly marks the event read only.
func WithReadOnly() EventOption {
	return func(ev *event.Event) { ev.ReadOnly = true }
}

// WithRecurrence attaches a recurrence rule.
func WithRecurrence(rule recurrence.Rule) EventOption {
	return func(ev *event.Event) { ev.Recurrence = rule }
}
