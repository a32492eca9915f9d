// Package ics renders calendar events as an iCalendar feed for external
// subscribers.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/recurrence"
)

// maxFeedInstances bounds how many instances one recurring event contributes
// to a feed window.
const maxFeedInstances = 500

// Exporter serializes events into iCalendar documents. Recurring events are
// flattened into per-instance VEVENTs so subscribers need no RRULE support.
type Exporter struct {
	expander *recurrence.Expander
	prodID   string
}

// NewExporter constructs an Exporter. The expander decides which timezone
// occurrence instants are computed in.
func NewExporter(expander *recurrence.Expander) *Exporter {
	return &Exporter{
		expander: expander,
		prodID:   "-//calendar-core//feed//EN",
	}
}

// Feed renders the events overlapping the half-open window [from, to) as an
// iCalendar document.
func (e *Exporter) Feed(events []event.Event, from, to time.Time) (string, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(e.prodID)

	for _, ev := range events {
		if ev.Recurrence.IsRecurring() {
			if err := e.addRecurring(cal, ev, from, to); err != nil {
				return "", err
			}
			continue
		}
		if !event.Overlaps(ev.Start, ev.End, from, to) {
			continue
		}
		addInstance(cal, ev, ev.ID, ev.Start, ev.End)
	}

	return cal.Serialize(), nil
}

func (e *Exporter) addRecurring(cal *ical.Calendar, ev event.Event, from, to time.Time) error {
	duration := ev.Duration()
	occurrences, err := e.expander.OccurrencesBetween(ev.Start, ev.Recurrence, from.Add(-duration), to, maxFeedInstances)
	if err != nil {
		return fmt.Errorf("failed to expand event %s: %w", ev.ID, err)
	}

	for i, occurrence := range occurrences {
		uid := fmt.Sprintf("%s-%d", ev.ID, i)
		addInstance(cal, ev, uid, occurrence, occurrence.Add(duration))
	}
	return nil
}

func addInstance(cal *ical.Calendar, ev event.Event, uid string, start, end time.Time) {
	entry := cal.AddEvent(uid)
	entry.SetSummary(ev.Title)
	entry.SetDtStampTime(ev.UpdatedAt.UTC())
	entry.SetCreatedTime(ev.CreatedAt.UTC())
	entry.SetModifiedAt(ev.UpdatedAt.UTC())

	if ev.AllDay {
		entry.SetAllDayStartAt(start.UTC())
		entry.SetAllDayEndAt(end.UTC())
		return
	}
	entry.SetStartAt(start.UTC())
	entry.SetEndAt(end.UTC())
}
