package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/calendar-core/internal/application"
	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/ics"
	"github.com/example/calendar-core/internal/recurrence"
	"github.com/example/calendar-core/internal/testfixtures"
	"github.com/example/calendar-core/internal/timegrid"
)

func newTestRouter(t *testing.T) (http.Handler, *testfixtures.MemoryEventRepository) {
	t.Helper()

	repo := testfixtures.NewMemoryEventRepository()
	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator("evt")
	grid := timegrid.NewGrid(timegrid.Config{})
	expander := recurrence.NewExpander(time.UTC)
	service := application.NewEventService(repo, grid, expander, ids.NextFunc(), clock.NowFunc(), application.EventServiceOptions{})
	exporter := ics.NewExporter(expander)

	router := NewRouter(RouterConfig{
		Events:     NewEventHandler(service, nil),
		Calendars:  NewCalendarHandler(service, exporter, clock.NowFunc(), nil),
		Recurrence: NewRecurrenceHandler(service, nil),
	})
	return router, repo
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) errorResponse {
	t.Helper()

	var resp errorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response %q: %v", recorder.Body.String(), err)
	}
	return resp
}

func TestEventHandler_Create(t *testing.T) {
	t.Parallel()

	t.Run("creates an event", func(t *testing.T) {
		t.Parallel()
		router, _ := newTestRouter(t)

		recorder := doJSON(t, router, http.MethodPost, "/events", `{
			"calendar_id": "cal-001",
			"title": "Planning",
			"start": "2024-03-04T09:00:00Z",
			"end": "2024-03-04T10:00:00Z"
		}`)

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}

		var dto eventDTO
		if err := json.Unmarshal(recorder.Body.Bytes(), &dto); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if dto.ID == "" {
			t.Fatalf("expected a generated ID in the response")
		}
		if dto.Start != "2024-03-04T09:00:00Z" {
			t.Fatalf("unexpected start %q", dto.Start)
		}
	})

	t.Run("rejects a body that is not JSON", func(t *testing.T) {
		t.Parallel()
		router, _ := newTestRouter(t)

		recorder := doJSON(t, router, http.MethodPost, "/events", `{not json`)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
		if resp := decodeError(t, recorder); resp.ErrorCode != codeMalformedInput {
			t.Fatalf("expected %s, got %s", codeMalformedInput, resp.ErrorCode)
		}
	})

	t.Run("rejects garbage timestamps outright", func(t *testing.T) {
		t.Parallel()
		router, _ := newTestRouter(t)

		recorder := doJSON(t, router, http.MethodPost, "/events", `{
			"calendar_id": "cal-001",
			"title": "Planning",
			"start": "not-a-time",
			"end": "2024-03-04T10:00:00Z"
		}`)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
		if resp := decodeError(t, recorder); resp.ErrorCode != codeMalformedInput {
			t.Fatalf("expected %s, got %s", codeMalformedInput, resp.ErrorCode)
		}
	})

	t.Run("surfaces field errors for invalid input", func(t *testing.T) {
		t.Parallel()
		router, _ := newTestRouter(t)

		recorder := doJSON(t, router, http.MethodPost, "/events", `{
			"calendar_id": "cal-001",
			"title": "  ",
			"start": "2024-03-04T10:00:00Z",
			"end": "2024-03-04T09:00:00Z"
		}`)

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d: %s", recorder.Code, recorder.Body.String())
		}
		resp := decodeError(t, recorder)
		if resp.ErrorCode != codeValidationFailed {
			t.Fatalf("expected %s, got %s", codeValidationFailed, resp.ErrorCode)
		}
		if _, ok := resp.Errors["title"]; !ok {
			t.Fatalf("expected a title field error, got %v", resp.Errors)
		}
		if _, ok := resp.Errors["time"]; !ok {
			t.Fatalf("expected a time field error, got %v", resp.Errors)
		}
	})
}

func TestEventHandler_GetAndUpdate(t *testing.T) {
	t.Parallel()

	day := testfixtures.ReferenceTime()

	t.Run("returns 404 for a missing event", func(t *testing.T) {
		t.Parallel()
		router, _ := newTestRouter(t)

		recorder := doJSON(t, router, http.MethodGet, "/events/missing", "")

		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", recorder.Code)
		}
		if resp := decodeError(t, recorder); resp.ErrorCode != codeNotFound {
			t.Fatalf("expected %s, got %s", codeNotFound, resp.ErrorCode)
		}
	})

	t.Run("rejects updates to read-only events", func(t *testing.T) {
		t.Parallel()
		router, repo := newTestRouter(t)
		repo.Seed(testfixtures.NewEvent(
			testfixtures.WithID("evt-ro"),
			testfixtures.WithWindow(day, day.Add(time.Hour)),
			testfixtures.WithReadOnly(),
		))

		recorder := doJSON(t, router, http.MethodPut, "/events/evt-ro", `{
			"calendar_id": "cal-001",
			"title": "Renamed",
			"start": "2024-03-04T09:00:00Z",
			"end": "2024-03-04T10:00:00Z"
		}`)

		if recorder.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", recorder.Code)
		}
		if resp := decodeError(t, recorder); resp.ErrorCode != codeReadOnly {
			t.Fatalf("expected %s, got %s", codeReadOnly, resp.ErrorCode)
		}
	})
}

func TestEventHandler_Resize(t *testing.T) {
	t.Parallel()

	day := testfixtures.ReferenceTime()

	t.Run("commits a snapped end drag", func(t *testing.T) {
		t.Parallel()
		router, repo := newTestRouter(t)
		repo.Seed(testfixtures.NewEvent(
			testfixtures.WithID("evt-resize"),
			testfixtures.WithWindow(day, day.Add(time.Hour)),
		))

		recorder := doJSON(t, router, http.MethodPost, "/events/evt-resize/resize", `{
			"target": "2024-03-04T11:07:00Z",
			"edge": "end"
		}`)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		var resp resizeResponse
		if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.EndTime == nil || *resp.EndTime != "2024-03-04T11:00:00Z" {
			t.Fatalf("expected snapped end, got %v", resp.EndTime)
		}
		if resp.StartTime != nil {
			t.Fatalf("only the dragged boundary should be reported, got start %v", resp.StartTime)
		}
	})

	t.Run("reports tasks as not resizable", func(t *testing.T) {
		t.Parallel()
		router, repo := newTestRouter(t)
		repo.Seed(testfixtures.NewEvent(
			testfixtures.WithID("evt-task"),
			testfixtures.WithWindow(day, day.Add(time.Hour)),
			testfixtures.WithSource(event.SourceTask),
		))

		recorder := doJSON(t, router, http.MethodPost, "/events/evt-task/resize", `{
			"target": "2024-03-04T12:00:00Z",
			"edge": "end"
		}`)

		if recorder.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", recorder.Code)
		}
		if resp := decodeError(t, recorder); resp.ErrorCode != "NOT_RESIZABLE" {
			t.Fatalf("expected NOT_RESIZABLE, got %s", resp.ErrorCode)
		}
	})

	t.Run("reports an inverted drag", func(t *testing.T) {
		t.Parallel()
		router, repo := newTestRouter(t)
		repo.Seed(testfixtures.NewEvent(
			testfixtures.WithID("evt-order"),
			testfixtures.WithWindow(day, day.Add(time.Hour)),
		))

		recorder := doJSON(t, router, http.MethodPost, "/events/evt-order/resize", `{
			"target": "2024-03-04T12:00:00Z",
			"edge": "start"
		}`)

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", recorder.Code)
		}
		if resp := decodeError(t, recorder); resp.ErrorCode != "INVALID_ORDER" {
			t.Fatalf("expected INVALID_ORDER, got %s", resp.ErrorCode)
		}
	})

	t.Run("rejects an unknown edge label", func(t *testing.T) {
		t.Parallel()
		router, repo := newTestRouter(t)
		repo.Seed(testfixtures.NewEvent(
			testfixtures.WithID("evt-edge"),
			testfixtures.WithWindow(day, day.Add(time.Hour)),
		))

		recorder := doJSON(t, router, http.MethodPost, "/events/evt-edge/resize", `{
			"target": "2024-03-04T12:00:00Z",
			"edge": "middle"
		}`)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
	})
}

func TestRecurrenceHandler_Preview(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodPost, "/recurrence/preview", `{
		"start": "2024-03-04T09:00:00Z",
		"rule": {"type": "daily", "interval": 1},
		"limit": 3
	}`)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var resp previewResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Occurrences) != 3 {
		t.Fatalf("expected 3 occurrences, got %d", len(resp.Occurrences))
	}
	if resp.Occurrences[1] != "2024-03-05T09:00:00Z" {
		t.Fatalf("unexpected second occurrence %q", resp.Occurrences[1])
	}
}

func TestCalendarHandler_Layout(t *testing.T) {
	t.Parallel()

	day := testfixtures.ReferenceTime()

	router, repo := newTestRouter(t)
	repo.Seed(
		testfixtures.NewEvent(
			testfixtures.WithID("evt-timed"),
			testfixtures.WithWindow(day.Add(30*time.Minute), day.Add(90*time.Minute)),
		),
		testfixtures.NewEvent(
			testfixtures.WithID("evt-allday"),
			testfixtures.WithAllDay(1),
		),
	)

	recorder := doJSON(t, router, http.MethodGet, "/calendars/cal-001/layout?day=2024-03-04", "")

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var resp dayLayoutResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Day != "2024-03-04" {
		t.Fatalf("unexpected day %q", resp.Day)
	}
	if len(resp.TimedEvents) != 1 || resp.TimedEvents[0].Event.ID != "evt-timed" {
		t.Fatalf("expected evt-timed in the grid, got %v", resp.TimedEvents)
	}
	// 09:30 on the default 60px grid.
	if resp.TimedEvents[0].Top != 570 {
		t.Fatalf("expected top 570, got %v", resp.TimedEvents[0].Top)
	}
	if len(resp.AllDayEvents) != 1 || resp.AllDayEvents[0].ID != "evt-allday" {
		t.Fatalf("expected evt-allday in the all-day lane, got %v", resp.AllDayEvents)
	}

	t.Run("rejects a malformed day", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodGet, "/calendars/cal-001/layout?day=03-04-2024", "")
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
	})
}

func TestCalendarHandler_Feed(t *testing.T) {
	t.Parallel()

	day := testfixtures.ReferenceTime()

	router, repo := newTestRouter(t)
	repo.Seed(testfixtures.NewEvent(
		testfixtures.WithID("evt-feed"),
		testfixtures.WithTitle("Weekly sync"),
		testfixtures.WithWindow(day, day.Add(time.Hour)),
	))

	recorder := doJSON(t, router, http.MethodGet, "/calendars/cal-001/feed.ics", "")

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if ct := recorder.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, "BEGIN:VCALENDAR") {
		t.Fatalf("expected an iCalendar document, got %q", body)
	}
	if !strings.Contains(body, "Weekly sync") {
		t.Fatalf("expected the event summary in the feed, got %q", body)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodPatch, "/events", "")
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", recorder.Code)
	}
	if allow := recorder.Header().Get("Allow"); !strings.Contains(allow, http.MethodPost) {
		t.Fatalf("expected Allow header to list POST, got %q", allow)
	}
}
