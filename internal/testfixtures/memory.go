package testfixtures

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/persistence"
)

// MemoryEventRepository is an in-memory event store matching the behavior of
// the SQLite repository, including its sentinel errors and list ordering.
type MemoryEventRepository struct {
	mu     sync.RWMutex
	events map[string]event.Event
}

// NewMemoryEventRepository returns an empty in-memory repository.
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{events: make(map[string]event.Event)}
}

// Seed inserts fixtures directly, bypassing duplicate checks.
func (r *MemoryEventRepository) Seed(events ...event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range events {
		r.events[ev.ID] = ev
	}
}

// CreateEvent inserts a new event.
func (r *MemoryEventRepository) CreateEvent(_ context.Context, ev event.Event) error {
	if ev.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if !ev.Start.Before(ev.End) {
		return persistence.ErrConstraintViolation
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.events[ev.ID]; exists {
		return persistence.ErrDuplicate
	}
	r.events[ev.ID] = ev
	return nil
}

// UpdateEvent rewrites an existing event.
func (r *MemoryEventRepository) UpdateEvent(_ context.Context, ev event.Event) error {
	if !ev.Start.Before(ev.End) {
		return persistence.ErrConstraintViolation
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.events[ev.ID]; !exists {
		return persistence.ErrNotFound
	}
	r.events[ev.ID] = ev
	return nil
}

// UpdateEventWindow rewrites only the provided boundaries, enforcing the same
// ordering constraint the SQLite schema carries.
func (r *MemoryEventRepository) UpdateEventWindow(_ context.Context, id string, start, end *time.Time, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev, exists := r.events[id]
	if !exists {
		return persistence.ErrNotFound
	}

	updated := ev
	if start != nil {
		updated.Start = start.UTC()
	}
	if end != nil {
		updated.End = end.UTC()
	}
	if !updated.Start.Before(updated.End) {
		return persistence.ErrConstraintViolation
	}
	updated.UpdatedAt = updatedAt.UTC()

	r.events[id] = updated
	return nil
}

// GetEvent retrieves an event by ID.
func (r *MemoryEventRepository) GetEvent(_ context.Context, id string) (event.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ev, exists := r.events[id]
	if !exists {
		return event.Event{}, persistence.ErrNotFound
	}
	return ev, nil
}

// ListEvents lists events matching the filter, ordered by start time then ID.
func (r *MemoryEventRepository) ListEvents(_ context.Context, filter persistence.EventFilter) ([]event.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []event.Event
	for _, ev := range r.events {
		if filter.CalendarID != "" && ev.CalendarID != filter.CalendarID {
			continue
		}
		if filter.From != nil && !ev.End.After(*filter.From) {
			continue
		}
		if filter.To != nil && !ev.Start.Before(*filter.To) {
			continue
		}
		out = append(out, ev)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteEvent removes an event by ID.
func (r *MemoryEventRepository) DeleteEvent(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[id]; !exists {
		return persistence.ErrNotFound
	}
	delete(r.events, id)
	return nil
}
