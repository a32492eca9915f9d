// Package http provides HTTP handlers and middleware for the calendar API.
//
// The router exposes the following endpoints:
//   - POST /events, GET /events?calendar_id=&from=&to=: event creation and
//     listing, exchanging the `eventDTO` payload defined in event_handler.go.
//   - GET /events/{id}, PUT /events/{id}, DELETE /events/{id}: single event
//     operations. Read-only events reject mutation with error code READ_ONLY.
//   - POST /events/{id}/resize: validates a drag release against one event
//     edge and commits the surviving boundary. Rejections carry the stable
//     codes NOT_RESIZABLE, INVALID_ORDER and DURATION_TOO_SHORT.
//   - POST /recurrence/preview: projects a rule's upcoming occurrences for
//     the event form without persisting anything.
//   - GET /calendars/{id}/layout?day=YYYY-MM-DD: one day of the calendar as
//     positioned pixel geometry plus the all-day lane.
//   - GET /calendars/{id}/feed.ics: the calendar as an iCalendar document
//     with recurring events flattened into per-instance entries.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
