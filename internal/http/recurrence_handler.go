package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/calendar-core/internal/application"
	"github.com/example/calendar-core/internal/event"
)

type previewService interface {
	PreviewOccurrences(params application.PreviewOccurrencesParams) (application.PreviewResult, error)
}

// RecurrenceHandler serves recurrence previews for the event form.
type RecurrenceHandler struct {
	service   previewService
	responder responder
}

// NewRecurrenceHandler wires the recurrence endpoints.
func NewRecurrenceHandler(service previewService, logger *slog.Logger) *RecurrenceHandler {
	return &RecurrenceHandler{service: service, responder: newResponder(logger)}
}

// Preview projects a rule's upcoming occurrences without persisting anything.
func (h *RecurrenceHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeMalformed(r.Context(), w, errBadRequestBody)
		return
	}

	start, err := event.ParseInstant(req.Start)
	if err != nil {
		h.responder.writeMalformed(r.Context(), w, errInvalidTimestamp)
		return
	}

	rule, err := req.Rule.toRule()
	if err != nil {
		h.responder.writeMalformed(r.Context(), w, err)
		return
	}

	result, err := h.service.PreviewOccurrences(application.PreviewOccurrencesParams{
		Start: start,
		Rule:  rule,
		Limit: req.Limit,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	occurrences := make([]string, 0, len(result.Occurrences))
	for _, occurrence := range result.Occurrences {
		occurrences = append(occurrences, event.FormatInstant(occurrence))
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, previewResponse{
		Occurrences: occurrences,
		Summary:     result.Summary,
	})
}

type previewRequest struct {
	Start string        `json:"start"`
	Rule  recurrenceDTO `json:"rule"`
	Limit int           `json:"limit"`
}

type previewResponse struct {
	Occurrences []string `json:"occurrences"`
	Summary     string   `json:"summary"`
}
