package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/persistence"
	"github.com/example/calendar-core/internal/recurrence"
)

func newTestRepository(t *testing.T) *EventRepository {
	t.Helper()

	pool, err := NewConnectionPool(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := Migrate(context.Background(), pool); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return NewEventRepository(pool)
}

func sampleEvent(id string) event.Event {
	created := time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)
	return event.Event{
		ID:         id,
		CalendarID: "cal-1",
		Title:      "Weekly sync",
		Start:      time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC),
		End:        time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC),
		Source:     event.SourceEvent,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func TestEventRepository_CreateAndGet(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	until := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	ev := sampleEvent("evt-1")
	ev.Recurrence = recurrence.Rule{
		Type:     recurrence.TypeWeekly,
		Interval: 2,
		Weekdays: []time.Weekday{time.Monday, time.Friday},
		Until:    &until,
	}

	if err := repo.CreateEvent(ctx, ev); err != nil {
		t.Fatalf("CreateEvent returned error: %v", err)
	}

	got, err := repo.GetEvent(ctx, "evt-1")
	if err != nil {
		t.Fatalf("GetEvent returned error: %v", err)
	}
	if got.Title != ev.Title || got.CalendarID != ev.CalendarID {
		t.Errorf("got %+v, want title/calendar from %+v", got, ev)
	}
	if !got.Start.Equal(ev.Start) || !got.End.Equal(ev.End) {
		t.Errorf("window = %v..%v, want %v..%v", got.Start, got.End, ev.Start, ev.End)
	}
	if got.Recurrence.Type != recurrence.TypeWeekly || got.Recurrence.Interval != 2 {
		t.Errorf("recurrence = %+v, want weekly interval 2", got.Recurrence)
	}
	if len(got.Recurrence.Weekdays) != 2 {
		t.Errorf("weekdays = %v, want 2 entries", got.Recurrence.Weekdays)
	}
	if got.Recurrence.Until == nil || !got.Recurrence.Until.Equal(until) {
		t.Errorf("until = %v, want %v", got.Recurrence.Until, until)
	}
}

func TestEventRepository_CreateDuplicate(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.CreateEvent(ctx, sampleEvent("evt-1")); err != nil {
		t.Fatalf("CreateEvent returned error: %v", err)
	}
	if err := repo.CreateEvent(ctx, sampleEvent("evt-1")); !errors.Is(err, persistence.ErrDuplicate) {
		t.Errorf("err = %v, want %v", err, persistence.ErrDuplicate)
	}
}

func TestEventRepository_GetMissing(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)

	if _, err := repo.GetEvent(context.Background(), "nope"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("err = %v, want %v", err, persistence.ErrNotFound)
	}
}

func TestEventRepository_UpdateEventWindow(t *testing.T) {
	t.Parallel()

	t.Run("updates only the provided boundary", func(t *testing.T) {
		t.Parallel()

		repo := newTestRepository(t)
		ctx := context.Background()

		ev := sampleEvent("evt-1")
		if err := repo.CreateEvent(ctx, ev); err != nil {
			t.Fatalf("CreateEvent returned error: %v", err)
		}

		newEnd := ev.End.Add(30 * time.Minute)
		stamp := time.Date(2024, time.March, 4, 12, 0, 0, 0, time.UTC)
		if err := repo.UpdateEventWindow(ctx, "evt-1", nil, &newEnd, stamp); err != nil {
			t.Fatalf("UpdateEventWindow returned error: %v", err)
		}

		got, err := repo.GetEvent(ctx, "evt-1")
		if err != nil {
			t.Fatalf("GetEvent returned error: %v", err)
		}
		if !got.Start.Equal(ev.Start) {
			t.Errorf("start = %v, want untouched %v", got.Start, ev.Start)
		}
		if !got.End.Equal(newEnd) {
			t.Errorf("end = %v, want %v", got.End, newEnd)
		}
		if !got.UpdatedAt.Equal(stamp) {
			t.Errorf("updatedAt = %v, want %v", got.UpdatedAt, stamp)
		}
	})

	t.Run("inverted window is rejected by the schema", func(t *testing.T) {
		t.Parallel()

		repo := newTestRepository(t)
		ctx := context.Background()

		ev := sampleEvent("evt-1")
		if err := repo.CreateEvent(ctx, ev); err != nil {
			t.Fatalf("CreateEvent returned error: %v", err)
		}

		badStart := ev.End.Add(time.Hour)
		err := repo.UpdateEventWindow(ctx, "evt-1", &badStart, nil, time.Now())
		if !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Errorf("err = %v, want %v", err, persistence.ErrConstraintViolation)
		}
	})

	t.Run("missing event reports not found", func(t *testing.T) {
		t.Parallel()

		repo := newTestRepository(t)

		start := time.Now()
		err := repo.UpdateEventWindow(context.Background(), "nope", &start, nil, time.Now())
		if !errors.Is(err, persistence.ErrNotFound) {
			t.Errorf("err = %v, want %v", err, persistence.ErrNotFound)
		}
	})
}

func TestEventRepository_ListEvents(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	window := func(id string, calendarID string, startHour, endHour int) event.Event {
		ev := sampleEvent(id)
		ev.CalendarID = calendarID
		ev.Start = time.Date(2024, time.March, 4, startHour, 0, 0, 0, time.UTC)
		ev.End = time.Date(2024, time.March, 4, endHour, 0, 0, 0, time.UTC)
		return ev
	}

	for _, ev := range []event.Event{
		window("evt-a", "cal-1", 9, 10),
		window("evt-b", "cal-1", 14, 15),
		window("evt-c", "cal-2", 9, 10),
	} {
		if err := repo.CreateEvent(ctx, ev); err != nil {
			t.Fatalf("CreateEvent(%s) returned error: %v", ev.ID, err)
		}
	}

	t.Run("filters by calendar", func(t *testing.T) {
		got, err := repo.ListEvents(ctx, persistence.EventFilter{CalendarID: "cal-1"})
		if err != nil {
			t.Fatalf("ListEvents returned error: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d events, want 2", len(got))
		}
		if got[0].ID != "evt-a" || got[1].ID != "evt-b" {
			t.Errorf("order = %s, %s, want evt-a, evt-b", got[0].ID, got[1].ID)
		}
	})

	t.Run("window filter keeps overlapping events only", func(t *testing.T) {
		from := time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)
		to := time.Date(2024, time.March, 4, 16, 0, 0, 0, time.UTC)
		got, err := repo.ListEvents(ctx, persistence.EventFilter{CalendarID: "cal-1", From: &from, To: &to})
		if err != nil {
			t.Fatalf("ListEvents returned error: %v", err)
		}
		if len(got) != 1 || got[0].ID != "evt-b" {
			t.Errorf("got %v, want just evt-b", got)
		}
	})
}

func TestEventRepository_DeleteEvent(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.CreateEvent(ctx, sampleEvent("evt-1")); err != nil {
		t.Fatalf("CreateEvent returned error: %v", err)
	}
	if err := repo.DeleteEvent(ctx, "evt-1"); err != nil {
		t.Fatalf("DeleteEvent returned error: %v", err)
	}
	if _, err := repo.GetEvent(ctx, "evt-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("err = %v, want %v", err, persistence.ErrNotFound)
	}
	if err := repo.DeleteEvent(ctx, "evt-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("second delete err = %v, want %v", err, persistence.ErrNotFound)
	}
}
