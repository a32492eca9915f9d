package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/persistence"
	"github.com/example/calendar-core/internal/recurrence"
	"github.com/example/calendar-core/internal/resize"
	"github.com/example/calendar-core/internal/timegrid"
)

// EventRepository captures the persistence interactions needed by the service.
type EventRepository interface {
	CreateEvent(ctx context.Context, ev event.Event) error
	UpdateEvent(ctx context.Context, ev event.Event) error
	UpdateEventWindow(ctx context.Context, id string, start, end *time.Time, updatedAt time.Time) error
	GetEvent(ctx context.Context, id string) (event.Event, error)
	ListEvents(ctx context.Context, filter persistence.EventFilter) ([]event.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// DefaultPreviewLimit caps occurrence previews when the caller does not ask
// for fewer.
const DefaultPreviewLimit = 100

// maxDayInstances bounds how many instances of one recurring event can land
// on a single day layout.
const maxDayInstances = 100

// EventServiceOptions carries the tunables the service does not derive itself.
type EventServiceOptions struct {
	Location     *time.Location
	SnapMinutes  int
	PreviewLimit int
	Logger       *slog.Logger
}

// EventService orchestrates validation, layout and persistence for calendar
// events.
type EventService struct {
	events       EventRepository
	grid         *timegrid.Grid
	expander     *recurrence.Expander
	location     *time.Location
	snapMinutes  int
	previewLimit int
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewEventService wires dependencies for event operations.
func NewEventService(events EventRepository, grid *timegrid.Grid, expander *recurrence.Expander, idGenerator func() string, now func() time.Time, opts EventServiceOptions) *EventService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.SnapMinutes <= 0 {
		opts.SnapMinutes = resize.DefaultSnapMinutes
	}
	if opts.PreviewLimit <= 0 {
		opts.PreviewLimit = DefaultPreviewLimit
	}
	return &EventService{
		events:       events,
		grid:         grid,
		expander:     expander,
		location:     opts.Location,
		snapMinutes:  opts.SnapMinutes,
		previewLimit: opts.PreviewLimit,
		idGenerator:  idGenerator,
		now:          now,
		logger:       opts.Logger,
	}
}

// CreateEvent validates the request before delegating to persistence.
func (s *EventService) CreateEvent(ctx context.Context, params CreateEventParams) (event.Event, error) {
	if s == nil {
		return event.Event{}, fmt.Errorf("EventService is nil")
	}

	input := params.Input

	vErr := &ValidationError{}
	validateEventCore(input, vErr)
	if vErr.HasErrors() {
		return event.Event{}, vErr
	}

	createdAt := s.now().UTC()
	ev := event.Event{
		ID:         s.idGenerator(),
		CalendarID: input.CalendarID,
		Title:      strings.TrimSpace(input.Title),
		Start:      input.Start.UTC(),
		End:        input.End.UTC(),
		AllDay:     input.AllDay,
		Source:     input.Source,
		ReadOnly:   input.ReadOnly,
		Recurrence: input.Recurrence,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}

	if s.events == nil {
		return ev, nil
	}

	if err := s.events.CreateEvent(ctx, ev); err != nil {
		mapped := mapEventRepoError(err)
		serviceLogger(ctx, s.logger, "events", "create", "event_id", ev.ID).
			Error("event create failed", "error_kind", ErrorKind(mapped))
		return event.Event{}, mapped
	}

	serviceLogger(ctx, s.logger, "events", "create", "event_id", ev.ID, "calendar_id", ev.CalendarID).
		Info("event created")
	return ev, nil
}

// GetEvent retrieves a single event.
func (s *EventService) GetEvent(ctx context.Context, id string) (event.Event, error) {
	if s == nil || s.events == nil {
		return event.Event{}, fmt.Errorf("event repository not configured")
	}

	ev, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return event.Event{}, mapEventRepoError(err)
	}
	return ev, nil
}

// UpdateEvent applies validation before rewriting an existing event. Read-only
// events reject edits entirely.
func (s *EventService) UpdateEvent(ctx context.Context, params UpdateEventParams) (event.Event, error) {
	if s == nil || s.events == nil {
		return event.Event{}, fmt.Errorf("event repository not configured")
	}

	existing, err := s.events.GetEvent(ctx, params.EventID)
	if err != nil {
		return event.Event{}, mapEventRepoError(err)
	}
	if existing.ReadOnly {
		return event.Event{}, ErrReadOnly
	}

	input := params.Input

	vErr := &ValidationError{}
	validateEventCore(input, vErr)
	if vErr.HasErrors() {
		return event.Event{}, vErr
	}

	updated := existing
	updated.CalendarID = input.CalendarID
	updated.Title = strings.TrimSpace(input.Title)
	updated.Start = input.Start.UTC()
	updated.End = input.End.UTC()
	updated.AllDay = input.AllDay
	updated.Source = input.Source
	updated.Recurrence = input.Recurrence
	updated.UpdatedAt = s.now().UTC()

	if err := s.events.UpdateEvent(ctx, updated); err != nil {
		return event.Event{}, mapEventRepoError(err)
	}

	return updated, nil
}

// DeleteEvent removes an event. Read-only events cannot be deleted.
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	if s == nil || s.events == nil {
		return fmt.Errorf("event repository not configured")
	}

	existing, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return mapEventRepoError(err)
	}
	if existing.ReadOnly {
		return ErrReadOnly
	}

	if err := s.events.DeleteEvent(ctx, id); err != nil {
		return mapEventRepoError(err)
	}

	serviceLogger(ctx, s.logger, "events", "delete", "event_id", id).Info("event deleted")
	return nil
}

// ListEvents enumerates events for a calendar, optionally narrowed to a window.
func (s *EventService) ListEvents(ctx context.Context, params ListEventsParams) ([]event.Event, error) {
	if s == nil || s.events == nil {
		return nil, fmt.Errorf("event repository not configured")
	}

	events, err := s.events.ListEvents(ctx, persistence.EventFilter{
		CalendarID: params.CalendarID,
		From:       params.From,
		To:         params.To,
	})
	if err != nil {
		return nil, mapEventRepoError(err)
	}
	return events, nil
}

// DayLayout computes the render-ready view of one calendar day: timed events
// as pixel geometry and all-day events as a separate lane. Recurring events
// are expanded into the day before layout.
func (s *EventService) DayLayout(ctx context.Context, params DayLayoutParams) (DayLayout, error) {
	if s == nil || s.events == nil {
		return DayLayout{}, fmt.Errorf("event repository not configured")
	}
	if s.grid == nil || s.expander == nil {
		return DayLayout{}, fmt.Errorf("layout dependencies not configured")
	}

	dayStart := s.startOfDay(params.Day)
	dayEnd := dayStart.Add(24 * time.Hour)

	// Recurring masters can be anchored long before the requested day, so
	// the window filter only bounds the upper side.
	events, err := s.events.ListEvents(ctx, persistence.EventFilter{
		CalendarID: params.CalendarID,
		To:         &dayEnd,
	})
	if err != nil {
		return DayLayout{}, mapEventRepoError(err)
	}

	expanded, err := s.expandIntoWindow(events, dayStart, dayEnd)
	if err != nil {
		return DayLayout{}, err
	}

	return DayLayout{
		Day:          dayStart,
		TimedEvents:  s.grid.LayoutDay(expanded, dayStart),
		AllDayEvents: s.grid.AllDayEventsForDay(expanded, dayStart),
	}, nil
}

// ResizeEvent validates a drag release and commits the surviving boundary.
// Nothing is persisted when the proposal is rejected.
func (s *EventService) ResizeEvent(ctx context.Context, params ResizeEventParams) (event.Event, error) {
	if s == nil || s.events == nil {
		return event.Event{}, fmt.Errorf("event repository not configured")
	}

	existing, err := s.events.GetEvent(ctx, params.EventID)
	if err != nil {
		return event.Event{}, mapEventRepoError(err)
	}

	preserveTime := params.PreserveTime || existing.AllDay
	update, err := resize.BuildResizeUpdate(existing, params.Target, params.Edge, preserveTime, s.snapMinutes)
	if err != nil {
		serviceLogger(ctx, s.logger, "events", "resize", "event_id", params.EventID).
			Info("resize rejected", "reason", string(resize.ReasonFor(err)))
		return event.Event{}, err
	}

	updatedAt := s.now().UTC()
	if err := s.events.UpdateEventWindow(ctx, params.EventID, update.Start, update.End, updatedAt); err != nil {
		return event.Event{}, mapEventRepoError(err)
	}

	if update.Start != nil {
		existing.Start = update.Start.UTC()
	}
	if update.End != nil {
		existing.End = update.End.UTC()
	}
	existing.UpdatedAt = updatedAt

	return existing, nil
}

// PreviewOccurrences projects a rule's next occurrences for the event form,
// without touching persistence.
func (s *EventService) PreviewOccurrences(params PreviewOccurrencesParams) (PreviewResult, error) {
	if s == nil || s.expander == nil {
		return PreviewResult{}, fmt.Errorf("expander not configured")
	}

	limit := params.Limit
	if limit <= 0 || limit > s.previewLimit {
		limit = s.previewLimit
	}

	occurrences, err := s.expander.Occurrences(params.Start, params.Rule, limit)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("recurrence", ruleErrorMessage(err))
		return PreviewResult{}, vErr
	}

	return PreviewResult{
		Occurrences: occurrences,
		Summary:     recurrence.Describe(params.Rule, nil),
	}, nil
}

func (s *EventService) expandIntoWindow(events []event.Event, from, to time.Time) ([]event.Event, error) {
	expanded := make([]event.Event, 0, len(events))
	for _, ev := range events {
		if !ev.Recurrence.IsRecurring() {
			expanded = append(expanded, ev)
			continue
		}

		duration := ev.Duration()
		occurrences, err := s.expander.OccurrencesBetween(ev.Start, ev.Recurrence, from.Add(-duration), to, maxDayInstances)
		if err != nil {
			return nil, fmt.Errorf("failed to expand event %s: %w", ev.ID, err)
		}
		for _, occurrence := range occurrences {
			instance := ev
			instance.Start = occurrence
			instance.End = occurrence.Add(duration)
			expanded = append(expanded, instance)
		}
	}
	return expanded, nil
}

func (s *EventService) startOfDay(t time.Time) time.Time {
	local := t.In(s.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location)
}

func validateEventCore(input EventInput, vErr *ValidationError) {
	if strings.TrimSpace(input.CalendarID) == "" {
		vErr.add("calendar_id", "calendar_id is required")
	}

	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}

	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "end is required")
	}

	if !input.Start.IsZero() && !input.End.IsZero() {
		if !input.Start.Before(input.End) {
			vErr.add("time", "start must be before end")
		} else if input.End.Sub(input.Start) < resize.MinimumDuration(event.Event{Source: input.Source}) {
			vErr.add("time", "events must be at least 15 minutes long")
		}
	}

	if input.Recurrence.IsRecurring() {
		if err := input.Recurrence.Validate(); err != nil {
			vErr.add("recurrence", ruleErrorMessage(err))
		}
	}
}

func ruleErrorMessage(err error) string {
	switch {
	case errors.Is(err, recurrence.ErrInvalidType):
		return "repetition type is not supported"
	case errors.Is(err, recurrence.ErrInvalidInterval):
		return fmt.Sprintf("interval must be between %d and %d", recurrence.MinInterval, recurrence.MaxInterval)
	case errors.Is(err, recurrence.ErrInvalidWeekday):
		return "weekdays must be between Sunday and Saturday"
	case errors.Is(err, recurrence.ErrWeekdaysNotAllowed):
		return "weekday selection requires a weekly repetition"
	default:
		return "recurrence rule is invalid"
	}
}

func mapEventRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		return vErr
	}
	return err
}
