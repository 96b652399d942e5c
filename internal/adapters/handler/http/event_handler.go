package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
)

type EventHandler struct {
	service ports.PollService
}

func NewEventHandler(service ports.PollService) *EventHandler {
	return &EventHandler{
		service: service,
	}
}

type eventRequest struct {
	ID    string    `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Note  string    `json:"note"`
}

func (h *EventHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.GetEvents(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// PostEvents godoc
// @Summary      Replaces the events of a poll
// @Description  Entries with a known id update that event, the others are created. Stored events missing from the body are deleted and their votes dropped.
// @Tags         events
// @Accept       json
// @Success      200
// @Failure      400
// @Failure      403
// @Router       /api/poll/{id}/events [post]
func (h *EventHandler) PostEvents(w http.ResponseWriter, r *http.Request) {
	var req []eventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input := make([]ports.EventInput, 0, len(req))
	for _, e := range req {
		// An id that does not parse cannot match a stored event.
		id, err := uuid.Parse(e.ID)
		if err != nil {
			id = uuid.Nil
		}
		input = append(input, ports.EventInput{ID: id, Start: e.Start, End: e.End, Note: e.Note})
	}

	events, err := h.service.PostEvents(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}
