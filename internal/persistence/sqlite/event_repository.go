package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/persistence"
	"github.com/example/calendar-core/internal/recurrence"
)

// Timestamps are stored as RFC 3339 UTC strings so the window filters can
// compare them lexicographically.
const timeLayout = time.RFC3339

// EventRepository implements persistence.EventRepository using SQLite.
type EventRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const eventColumns = `id, calendar_id, title, start_time, end_time, all_day,
	source_type, read_only, recurrence_type, recurrence_interval,
	recurrence_days, recurrence_end, created_at, updated_at`

// CreateEvent inserts a new event.
func (r *EventRepository) CreateEvent(ctx context.Context, ev event.Event) error {
	if ev.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO calendar_events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var until sql.NullString
	if ev.Recurrence.Until != nil {
		until.String = ev.Recurrence.Until.UTC().Format(timeLayout)
		until.Valid = true
	}

	_, err := r.helper.Exec(ctx, query,
		ev.ID,
		ev.CalendarID,
		ev.Title,
		ev.Start.UTC().Format(timeLayout),
		ev.End.UTC().Format(timeLayout),
		boolToInt(ev.AllDay),
		ev.Source.String(),
		boolToInt(ev.ReadOnly),
		ev.Recurrence.Type.String(),
		ev.Recurrence.Interval,
		encodeWeekdays(ev.Recurrence.Weekdays),
		until,
		ev.CreatedAt.UTC().Format(timeLayout),
		ev.UpdatedAt.UTC().Format(timeLayout),
	)
	return r.mapper.MapError(err)
}

// UpdateEvent rewrites all mutable fields of an existing event.
func (r *EventRepository) UpdateEvent(ctx context.Context, ev event.Event) error {
	if ev.ID == "" {
		return persistence.ErrNotFound
	}

	query := `
		UPDATE calendar_events
		SET calendar_id = ?, title = ?, start_time = ?, end_time = ?, all_day = ?,
			source_type = ?, read_only = ?, recurrence_type = ?,
			recurrence_interval = ?, recurrence_days = ?, recurrence_end = ?,
			updated_at = ?
		WHERE id = ?
	`

	var until sql.NullString
	if ev.Recurrence.Until != nil {
		until.String = ev.Recurrence.Until.UTC().Format(timeLayout)
		until.Valid = true
	}

	result, err := r.helper.Exec(ctx, query,
		ev.CalendarID,
		ev.Title,
		ev.Start.UTC().Format(timeLayout),
		ev.End.UTC().Format(timeLayout),
		boolToInt(ev.AllDay),
		ev.Source.String(),
		boolToInt(ev.ReadOnly),
		ev.Recurrence.Type.String(),
		ev.Recurrence.Interval,
		encodeWeekdays(ev.Recurrence.Weekdays),
		until,
		ev.UpdatedAt.UTC().Format(timeLayout),
		ev.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return r.requireRow(result)
}

// UpdateEventWindow rewrites only the provided boundaries. The CHECK
// constraint on the table rejects a write that would invert the order, so a
// racing edit cannot slip an inverted window through.
func (r *EventRepository) UpdateEventWindow(ctx context.Context, id string, start, end *time.Time, updatedAt time.Time) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	if start == nil && end == nil {
		return nil
	}

	sets := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	if start != nil {
		sets = append(sets, "start_time = ?")
		args = append(args, start.UTC().Format(timeLayout))
	}
	if end != nil {
		sets = append(sets, "end_time = ?")
		args = append(args, end.UTC().Format(timeLayout))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, updatedAt.UTC().Format(timeLayout), id)

	query := "UPDATE calendar_events SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	result, err := r.helper.Exec(ctx, query, args...)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return r.requireRow(result)
}

// GetEvent retrieves an event by ID.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (event.Event, error) {
	if id == "" {
		return event.Event{}, persistence.ErrNotFound
	}

	query := "SELECT " + eventColumns + " FROM calendar_events WHERE id = ?"
	row := r.helper.QueryRow(ctx, query, id)

	ev, err := scanEvent(row)
	if err != nil {
		return event.Event{}, r.mapper.MapError(err)
	}
	return ev, nil
}

// ListEvents lists events matching the filter, ordered by start time then ID.
func (r *EventRepository) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]event.Event, error) {
	query := "SELECT " + eventColumns + " FROM calendar_events"

	var conditions []string
	var args []interface{}

	if filter.CalendarID != "" {
		conditions = append(conditions, "calendar_id = ?")
		args = append(args, filter.CalendarID)
	}
	if filter.From != nil {
		conditions = append(conditions, "end_time > ?")
		args = append(args, filter.From.UTC().Format(timeLayout))
	}
	if filter.To != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, filter.To.UTC().Format(timeLayout))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return events, nil
}

// DeleteEvent removes an event by ID.
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, "DELETE FROM calendar_events WHERE id = ?", id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return r.requireRow(result)
}

func (r *EventRepository) requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (event.Event, error) {
	var ev event.Event
	var startStr, endStr, createdStr, updatedStr string
	var allDay, readOnly int
	var sourceStr, recurrenceTypeStr, daysStr string
	var until sql.NullString

	err := row.Scan(
		&ev.ID,
		&ev.CalendarID,
		&ev.Title,
		&startStr,
		&endStr,
		&allDay,
		&sourceStr,
		&readOnly,
		&recurrenceTypeStr,
		&ev.Recurrence.Interval,
		&daysStr,
		&until,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return event.Event{}, err
	}

	ev.AllDay = allDay != 0
	ev.ReadOnly = readOnly != 0

	if ev.Source, err = event.ParseSource(sourceStr); err != nil {
		return event.Event{}, fmt.Errorf("failed to parse source_type: %w", err)
	}
	if ev.Recurrence.Type, err = recurrence.ParseType(recurrenceTypeStr); err != nil {
		return event.Event{}, fmt.Errorf("failed to parse recurrence_type: %w", err)
	}
	if ev.Recurrence.Weekdays, err = decodeWeekdays(daysStr); err != nil {
		return event.Event{}, fmt.Errorf("failed to parse recurrence_days: %w", err)
	}
	if until.Valid {
		parsed, err := time.Parse(timeLayout, until.String)
		if err != nil {
			return event.Event{}, fmt.Errorf("failed to parse recurrence_end: %w", err)
		}
		parsed = parsed.UTC()
		ev.Recurrence.Until = &parsed
	}

	if ev.Start, err = parseStoredTime(startStr, "start_time"); err != nil {
		return event.Event{}, err
	}
	if ev.End, err = parseStoredTime(endStr, "end_time"); err != nil {
		return event.Event{}, err
	}
	if ev.CreatedAt, err = parseStoredTime(createdStr, "created_at"); err != nil {
		return event.Event{}, err
	}
	if ev.UpdatedAt, err = parseStoredTime(updatedStr, "updated_at"); err != nil {
		return event.Event{}, err
	}

	return ev, nil
}

func parseStoredTime(value, column string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return t.UTC(), nil
}

// encodeWeekdays stores the weekday set as a CSV of 0..6 (Sunday first).
func encodeWeekdays(days []time.Weekday) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, len(days))
	for i, day := range days {
		parts[i] = strconv.Itoa(int(day))
	}
	return strings.Join(parts, ",")
}

func decodeWeekdays(value string) ([]time.Weekday, error) {
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	days := make([]time.Weekday, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		days = append(days, time.Weekday(n))
	}
	return days, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
