package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/calendar-core/internal/application"
	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/recurrence"
	"github.com/example/calendar-core/internal/resize"
)

type eventService interface {
	CreateEvent(ctx context.Context, params application.CreateEventParams) (event.Event, error)
	GetEvent(ctx context.Context, id string) (event.Event, error)
	UpdateEvent(ctx context.Context, params application.UpdateEventParams) (event.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context, params application.ListEventsParams) ([]event.Event, error)
	ResizeEvent(ctx context.Context, params application.ResizeEventParams) (event.Event, error)
}

// EventHandler serves the /events endpoints.
type EventHandler struct {
	service   eventService
	responder responder
}

// NewEventHandler wires the event endpoints to the application service.
func NewEventHandler(service eventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{service: service, responder: newResponder(logger)}
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeMalformed(r.Context(), w, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeMalformed(r.Context(), w, err)
		return
	}

	created, err := h.service.CreateEvent(r.Context(), application.CreateEventParams{Input: input})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEventDTO(created))
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeMalformed(r.Context(), w, errInvalidEventID)
		return
	}

	found, err := h.service.GetEvent(r.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventDTO(found))
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeMalformed(r.Context(), w, errInvalidEventID)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeMalformed(r.Context(), w, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeMalformed(r.Context(), w, err)
		return
	}

	updated, err := h.service.UpdateEvent(r.Context(), application.UpdateEventParams{
		EventID: eventID,
		Input:   input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventDTO(updated))
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeMalformed(r.Context(), w, errInvalidEventID)
		return
	}

	if err := h.service.DeleteEvent(r.Context(), eventID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	params := application.ListEventsParams{
		CalendarID: strings.TrimSpace(r.URL.Query().Get("calendar_id")),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		ts, err := event.ParseInstant(raw)
		if err != nil {
			h.responder.writeMalformed(r.Context(), w, errInvalidTimestamp)
			return
		}
		params.From = &ts
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		ts, err := event.ParseInstant(raw)
		if err != nil {
			h.responder.writeMalformed(r.Context(), w, errInvalidTimestamp)
			return
		}
		params.To = &ts
	}

	events, err := h.service.ListEvents(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEventsResponse{Events: toEventDTOs(events)})
}

func (h *EventHandler) Resize(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeMalformed(r.Context(), w, errInvalidEventID)
		return
	}

	var req resizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeMalformed(r.Context(), w, errBadRequestBody)
		return
	}

	target, err := event.ParseInstant(req.Target)
	if err != nil {
		h.responder.writeMalformed(r.Context(), w, errInvalidTimestamp)
		return
	}

	edge, err := resize.ParseEdge(req.Edge)
	if err != nil {
		h.responder.writeMalformed(r.Context(), w, fmt.Errorf("edge must be start or end"))
		return
	}

	resized, err := h.service.ResizeEvent(r.Context(), application.ResizeEventParams{
		EventID:      eventID,
		Target:       target,
		Edge:         edge,
		PreserveTime: req.PreserveTime,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	// Only the dragged boundary is reported back; the client keeps the rest.
	resp := resizeResponse{UpdatedAt: event.FormatInstant(resized.UpdatedAt)}
	if edge == resize.EdgeStart {
		start := event.FormatInstant(resized.Start)
		resp.StartTime = &start
	} else {
		end := event.FormatInstant(resized.End)
		resp.EndTime = &end
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

type eventRequest struct {
	CalendarID string         `json:"calendar_id"`
	Title      string         `json:"title"`
	Start      string         `json:"start"`
	End        string         `json:"end"`
	AllDay     bool           `json:"all_day"`
	Source     string         `json:"source"`
	ReadOnly   bool           `json:"read_only"`
	Recurrence *recurrenceDTO `json:"recurrence"`
}

func (r eventRequest) toInput() (application.EventInput, error) {
	start, err := event.ParseInstant(r.Start)
	if err != nil {
		return application.EventInput{}, fmt.Errorf("start: %w", errInvalidTimestamp)
	}
	end, err := event.ParseInstant(r.End)
	if err != nil {
		return application.EventInput{}, fmt.Errorf("end: %w", errInvalidTimestamp)
	}

	source := event.SourceEvent
	if strings.TrimSpace(r.Source) != "" {
		source, err = event.ParseSource(r.Source)
		if err != nil {
			return application.EventInput{}, fmt.Errorf("source must be event, task or external")
		}
	}

	var rule recurrence.Rule
	if r.Recurrence != nil {
		rule, err = r.Recurrence.toRule()
		if err != nil {
			return application.EventInput{}, err
		}
	}

	return application.EventInput{
		CalendarID: strings.TrimSpace(r.CalendarID),
		Title:      r.Title,
		Start:      start,
		End:        end,
		AllDay:     r.AllDay,
		Source:     source,
		ReadOnly:   r.ReadOnly,
		Recurrence: rule,
	}, nil
}

type resizeRequest struct {
	Target       string `json:"target"`
	Edge         string `json:"edge"`
	PreserveTime bool   `json:"preserve_time"`
}

type resizeResponse struct {
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	UpdatedAt string  `json:"updated_at"`
}

type recurrenceDTO struct {
	Type     string `json:"type"`
	Interval int    `json:"interval"`
	Weekdays []int  `json:"weekdays,omitempty"`
	EndDate  string `json:"end_date,omitempty"`
}

func (r recurrenceDTO) toRule() (recurrence.Rule, error) {
	ruleType, err := recurrence.ParseType(r.Type)
	if err != nil {
		return recurrence.Rule{}, fmt.Errorf("recurrence type %q is not supported", r.Type)
	}

	rule := recurrence.Rule{Type: ruleType, Interval: r.Interval}
	if ruleType == recurrence.TypeNone {
		return rule, nil
	}
	if rule.Interval == 0 {
		rule.Interval = 1
	}

	for _, day := range r.Weekdays {
		rule.Weekdays = append(rule.Weekdays, time.Weekday(day))
	}

	if raw := strings.TrimSpace(r.EndDate); raw != "" {
		until, err := parseEndDate(raw)
		if err != nil {
			return recurrence.Rule{}, err
		}
		rule.Until = &until
	}

	return rule, nil
}

// parseEndDate accepts a full timestamp or a bare date. A bare date means the
// whole day stays in range.
func parseEndDate(raw string) (time.Time, error) {
	if ts, err := event.ParseInstant(raw); err == nil {
		return ts, nil
	}
	if day, err := time.Parse("2006-01-02", raw); err == nil {
		return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("end_date: %w", errInvalidTimestamp)
}

type listEventsResponse struct {
	Events []eventDTO `json:"events"`
}

type eventDTO struct {
	ID         string         `json:"id"`
	CalendarID string         `json:"calendar_id"`
	Title      string         `json:"title"`
	Start      string         `json:"start"`
	End        string         `json:"end"`
	AllDay     bool           `json:"all_day"`
	Source     string         `json:"source"`
	ReadOnly   bool           `json:"read_only"`
	Recurrence *recurrenceDTO `json:"recurrence,omitempty"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
}

func toEventDTO(ev event.Event) eventDTO {
	dto := eventDTO{
		ID:         ev.ID,
		CalendarID: ev.CalendarID,
		Title:      ev.Title,
		Start:      event.FormatInstant(ev.Start),
		End:        event.FormatInstant(ev.End),
		AllDay:     ev.AllDay,
		Source:     ev.Source.String(),
		ReadOnly:   ev.ReadOnly,
		CreatedAt:  event.FormatInstant(ev.CreatedAt),
		UpdatedAt:  event.FormatInstant(ev.UpdatedAt),
	}

	if ev.Recurrence.IsRecurring() {
		rec := recurrenceDTO{
			Type:     ev.Recurrence.Type.String(),
			Interval: ev.Recurrence.Interval,
		}
		for _, day := range ev.Recurrence.Weekdays {
			rec.Weekdays = append(rec.Weekdays, int(day))
		}
		if ev.Recurrence.Until != nil {
			rec.EndDate = event.FormatInstant(*ev.Recurrence.Until)
		}
		dto.Recurrence = &rec
	}

	return dto
}

func toEventDTOs(events []event.Event) []eventDTO {
	if len(events) == 0 {
		return nil
	}
	out := make([]eventDTO, 0, len(events))
	for _, ev := range events {
		out = append(out, toEventDTO(ev))
	}
	return out
}
