package http

import "context"

type contextKey string

const (
	eventIDContextKey    contextKey = "event_id"
	calendarIDContextKey contextKey = "calendar_id"
)

// ContextWithEventID injects the event identifier resolved from the request path.
func ContextWithEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, eventIDContextKey, eventID)
}

// EventIDFromContext extracts an event identifier previously associated with the context.
func EventIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(eventIDContextKey).(string)
	return id, ok
}

// ContextWithCalendarID injects the calendar identifier resolved from the request path.
func ContextWithCalendarID(ctx context.Context, calendarID string) context.Context {
	return context.WithValue(ctx, calendarIDContextKey, calendarID)
}

// CalendarIDFromContext extracts a calendar identifier previously associated with the context.
func CalendarIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(calendarIDContextKey).(string)
	return id, ok
}
