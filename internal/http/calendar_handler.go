package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/calendar-core/internal/application"
	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/ics"
	"github.com/example/calendar-core/internal/timegrid"
)

// Feed windows default to a quarter behind and ahead of now.
const feedWindow = 90 * 24 * time.Hour

type calendarService interface {
	DayLayout(ctx context.Context, params application.DayLayoutParams) (application.DayLayout, error)
	ListEvents(ctx context.Context, params application.ListEventsParams) ([]event.Event, error)
}

// CalendarHandler serves the per-calendar views: the day layout and the
// iCalendar feed.
type CalendarHandler struct {
	service   calendarService
	exporter  *ics.Exporter
	now       func() time.Time
	responder responder
}

// NewCalendarHandler wires the calendar endpoints.
func NewCalendarHandler(service calendarService, exporter *ics.Exporter, now func() time.Time, logger *slog.Logger) *CalendarHandler {
	if now == nil {
		now = time.Now
	}
	return &CalendarHandler{
		service:   service,
		exporter:  exporter,
		now:       now,
		responder: newResponder(logger),
	}
}

// Layout renders one day of a calendar as positioned geometry.
func (h *CalendarHandler) Layout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	calendarID, ok := CalendarIDFromContext(r.Context())
	if !ok || strings.TrimSpace(calendarID) == "" {
		h.responder.writeMalformed(r.Context(), w, errInvalidCalendar)
		return
	}

	day, err := time.Parse("2006-01-02", strings.TrimSpace(r.URL.Query().Get("day")))
	if err != nil {
		h.responder.writeMalformed(r.Context(), w, errInvalidDay)
		return
	}

	layout, err := h.service.DayLayout(r.Context(), application.DayLayoutParams{
		CalendarID: calendarID,
		Day:        day,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDayLayoutDTO(layout))
}

// Feed renders the calendar as an iCalendar document.
func (h *CalendarHandler) Feed(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil || h.exporter == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	calendarID, ok := CalendarIDFromContext(r.Context())
	if !ok || strings.TrimSpace(calendarID) == "" {
		h.responder.writeMalformed(r.Context(), w, errInvalidCalendar)
		return
	}

	events, err := h.service.ListEvents(r.Context(), application.ListEventsParams{CalendarID: calendarID})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	now := h.now()
	feed, err := h.exporter.Feed(events, now.Add(-feedWindow), now.Add(feedWindow))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(feed)); err != nil {
		h.responder.loggerFor(r.Context()).ErrorContext(r.Context(), "failed to write feed", "error", err)
	}
}

type dayLayoutResponse struct {
	Day          string               `json:"day"`
	TimedEvents  []positionedEventDTO `json:"timed_events"`
	AllDayEvents []eventDTO           `json:"all_day_events,omitempty"`
}

type positionedEventDTO struct {
	Event        eventDTO `json:"event"`
	Top          float64  `json:"top"`
	Height       float64  `json:"height"`
	Column       int      `json:"column"`
	TotalColumns int      `json:"total_columns"`
}

func toDayLayoutDTO(layout application.DayLayout) dayLayoutResponse {
	return dayLayoutResponse{
		Day:          layout.Day.Format("2006-01-02"),
		TimedEvents:  toPositionedDTOs(layout.TimedEvents),
		AllDayEvents: toEventDTOs(layout.AllDayEvents),
	}
}

func toPositionedDTOs(positioned []timegrid.PositionedEvent) []positionedEventDTO {
	out := make([]positionedEventDTO, 0, len(positioned))
	for _, p := range positioned {
		out = append(out, positionedEventDTO{
			Event:        toEventDTO(p.Event),
			Top:          p.Top,
			Height:       p.Height,
			Column:       p.Column,
			TotalColumns: p.TotalColumns,
		})
	}
	return out
}
