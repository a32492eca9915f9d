package timegrid

import (
	"testing"
	"time"

	"github.com/example/calendar-core/internal/event"
)

var day = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

func timed(id string, startHour, startMin, endHour, endMin int) event.Event {
	return event.Event{
		ID:         id,
		CalendarID: "cal-1",
		Start:      time.Date(2024, time.March, 4, startHour, startMin, 0, 0, time.UTC),
		End:        time.Date(2024, time.March, 4, endHour, endMin, 0, 0, time.UTC),
	}
}

func positionFor(t *testing.T, positioned []PositionedEvent, id string) PositionedEvent {
	t.Helper()
	for _, p := range positioned {
		if p.Event.ID == id {
			return p
		}
	}
	t.Fatalf("no positioned event with id %q", id)
	return PositionedEvent{}
}

func TestGrid_VisibleEventsForDay(t *testing.T) {
	t.Parallel()

	grid := NewGrid(Config{})

	events := []event.Event{
		timed("in-day", 9, 0, 10, 0),
		{
			ID:     "all-day",
			AllDay: true,
			Start:  day,
			End:    day.Add(24 * time.Hour),
		},
		{
			ID:    "previous-day",
			Start: day.Add(-10 * time.Hour),
			End:   day.Add(-8 * time.Hour),
		},
		{
			ID:    "ends-at-midnight",
			Start: day.Add(-2 * time.Hour),
			End:   day,
		},
		{
			ID:    "spans-midnight",
			Start: day.Add(-2 * time.Hour),
			End:   day.Add(3 * time.Hour),
		},
	}

	visible := grid.VisibleEventsForDay(events, day)
	if len(visible) != 2 {
		t.Fatalf("expected 2 visible events, got %d", len(visible))
	}
	ids := map[string]bool{}
	for _, ev := range visible {
		ids[ev.ID] = true
	}
	if !ids["in-day"] || !ids["spans-midnight"] {
		t.Fatalf("unexpected visible set: %v", ids)
	}

	allDay := grid.AllDayEventsForDay(events, day)
	if len(allDay) != 1 || allDay[0].ID != "all-day" {
		t.Fatalf("expected the all-day lane to hold all-day, got %v", allDay)
	}
}

func TestGrid_LayoutDay_Geometry(t *testing.T) {
	t.Parallel()

	grid := NewGrid(Config{})

	t.Run("positions follow minutes since midnight", func(t *testing.T) {
		t.Parallel()

		positioned := grid.LayoutDay([]event.Event{timed("a", 9, 30, 11, 0)}, day)
		if len(positioned) != 1 {
			t.Fatalf("expected 1 positioned event, got %d", len(positioned))
		}
		got := positioned[0]
		if got.Top != 570.0/60*DefaultHourHeight {
			t.Errorf("top = %v, want %v", got.Top, 570.0/60*DefaultHourHeight)
		}
		if got.Height != 90.0 {
			t.Errorf("height = %v, want 90", got.Height)
		}
		if got.Column != 0 || got.TotalColumns != 1 {
			t.Errorf("column/total = %d/%d, want 0/1", got.Column, got.TotalColumns)
		}
	})

	t.Run("short events are floored to the minimum height", func(t *testing.T) {
		t.Parallel()

		positioned := grid.LayoutDay([]event.Event{timed("tiny", 9, 0, 9, 5)}, day)
		if got := positioned[0].Height; got != DefaultMinEventHeight {
			t.Errorf("height = %v, want %v", got, DefaultMinEventHeight)
		}
	})

	t.Run("multi-day events are clamped to the day", func(t *testing.T) {
		t.Parallel()

		ev := event.Event{
			ID:    "spanning",
			Start: day.Add(-6 * time.Hour),
			End:   day.Add(30 * time.Hour),
		}
		positioned := grid.LayoutDay([]event.Event{ev}, day)
		got := positioned[0]
		if got.Top != 0 {
			t.Errorf("top = %v, want 0", got.Top)
		}
		if got.Height != 1440.0 {
			t.Errorf("height = %v, want 1440", got.Height)
		}
	})

	t.Run("custom hour height scales geometry", func(t *testing.T) {
		t.Parallel()

		compact := NewGrid(Config{HourHeight: 30})
		positioned := compact.LayoutDay([]event.Event{timed("a", 10, 0, 12, 0)}, day)
		got := positioned[0]
		if got.Top != 300 {
			t.Errorf("top = %v, want 300", got.Top)
		}
		if got.Height != 60 {
			t.Errorf("height = %v, want 60", got.Height)
		}
	})
}

func TestGrid_LayoutDay_ColumnPacking(t *testing.T) {
	t.Parallel()

	grid := NewGrid(Config{})

	t.Run("back to back events share column zero", func(t *testing.T) {
		t.Parallel()

		positioned := grid.LayoutDay([]event.Event{
			timed("first", 9, 0, 10, 0),
			timed("second", 10, 0, 11, 0),
		}, day)

		for _, p := range positioned {
			if p.Column != 0 {
				t.Errorf("%s column = %d, want 0", p.Event.ID, p.Column)
			}
			if p.TotalColumns != 1 {
				t.Errorf("%s totalColumns = %d, want 1", p.Event.ID, p.TotalColumns)
			}
		}
	})

	t.Run("cascading overlaps open three columns in one group", func(t *testing.T) {
		t.Parallel()

		positioned := grid.LayoutDay([]event.Event{
			timed("long", 9, 0, 10, 30),
			timed("middle", 10, 0, 11, 0),
			timed("inner", 10, 15, 10, 45),
		}, day)

		columns := map[int]bool{}
		for _, p := range positioned {
			columns[p.Column] = true
			if p.TotalColumns != 3 {
				t.Errorf("%s totalColumns = %d, want 3", p.Event.ID, p.TotalColumns)
			}
		}
		if len(columns) != 3 {
			t.Errorf("expected 3 distinct columns, got %v", columns)
		}
	})

	t.Run("overlapping pairs always occupy distinct columns", func(t *testing.T) {
		t.Parallel()

		positioned := grid.LayoutDay([]event.Event{
			timed("a", 9, 0, 12, 0),
			timed("b", 9, 30, 10, 30),
			timed("c", 10, 0, 11, 0),
			timed("d", 11, 30, 12, 30),
		}, day)

		for i := range positioned {
			for j := i + 1; j < len(positioned); j++ {
				p, q := positioned[i], positioned[j]
				if event.Overlaps(p.Event.Start, p.Event.End, q.Event.Start, q.Event.End) && p.Column == q.Column {
					t.Errorf("%s and %s overlap but share column %d", p.Event.ID, q.Event.ID, p.Column)
				}
			}
		}
	})

	t.Run("longer event wins the leftmost column on a tied start", func(t *testing.T) {
		t.Parallel()

		positioned := grid.LayoutDay([]event.Event{
			timed("short", 9, 0, 9, 30),
			timed("long", 9, 0, 11, 0),
		}, day)

		if got := positionFor(t, positioned, "long"); got.Column != 0 {
			t.Errorf("long column = %d, want 0", got.Column)
		}
		if got := positionFor(t, positioned, "short"); got.Column != 1 {
			t.Errorf("short column = %d, want 1", got.Column)
		}
	})

	t.Run("group totals stay local to each overlap group", func(t *testing.T) {
		t.Parallel()

		positioned := grid.LayoutDay([]event.Event{
			timed("m1", 9, 0, 10, 0),
			timed("m2", 9, 30, 10, 30),
			timed("solo", 14, 0, 15, 0),
		}, day)

		if got := positionFor(t, positioned, "m1"); got.TotalColumns != 2 {
			t.Errorf("m1 totalColumns = %d, want 2", got.TotalColumns)
		}
		if got := positionFor(t, positioned, "solo"); got.TotalColumns != 1 {
			t.Errorf("solo totalColumns = %d, want 1", got.TotalColumns)
		}
		if got := positionFor(t, positioned, "solo"); got.Column != 0 {
			t.Errorf("solo column = %d, want 0", got.Column)
		}
	})

	t.Run("column freed by an earlier end is reused", func(t *testing.T) {
		t.Parallel()

		positioned := grid.LayoutDay([]event.Event{
			timed("a", 9, 0, 10, 0),
			timed("b", 9, 0, 9, 30),
			timed("c", 9, 30, 10, 0),
		}, day)

		if got := positionFor(t, positioned, "c"); got.Column != 1 {
			t.Errorf("c column = %d, want 1 (reusing b's lane)", got.Column)
		}
		for _, p := range positioned {
			if p.TotalColumns != 2 {
				t.Errorf("%s totalColumns = %d, want 2", p.Event.ID, p.TotalColumns)
			}
		}
	})
}
