package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
)

type ParticipantHandler struct {
	service ports.PollService
}

func NewParticipantHandler(service ports.PollService) *ParticipantHandler {
	return &ParticipantHandler{
		service: service,
	}
}

type participantRequest struct {
	Name                       string      `json:"name"`
	Mail                       string      `json:"mail"`
	Token                      string      `json:"token"`
	Participation              []uuid.UUID `json:"participation"`
	IndeterminateParticipation []uuid.UUID `json:"indeterminate_participation"`
}

func (req participantRequest) input() ports.ParticipantInput {
	return ports.ParticipantInput{
		Name:                       req.Name,
		Mail:                       req.Mail,
		Token:                      req.Token,
		Participation:              req.Participation,
		IndeterminateParticipation: req.IndeterminateParticipation,
	}
}

func (h *ParticipantHandler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.service.GetParticipants(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, participants)
}

// Participate godoc
// @Summary      Answers a poll
// @Description  Creates a participation. The token falls back to the Participant-Token header when the body has none.
// @Tags         participate
// @Accept       json
// @Success      201
// @Failure      400
// @Failure      404
// @Router       /api/poll/{id}/participate [post]
func (h *ParticipantHandler) Participate(w http.ResponseWriter, r *http.Request) {
	var req participantRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		req.Token = tokenFrom(r)
	}

	participant, err := h.service.PostParticipation(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, participant)
}

func (h *ParticipantHandler) EditParticipation(w http.ResponseWriter, r *http.Request) {
	pollID, participantID := chi.URLParam(r, "id"), chi.URLParam(r, "participant")
	if err := h.authorize(r, pollID, participantID); err != nil {
		writeError(w, r, err)
		return
	}

	var req participantRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	participant, err := h.service.EditParticipation(r.Context(), pollID, participantID, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, participant)
}

func (h *ParticipantHandler) DeleteParticipation(w http.ResponseWriter, r *http.Request) {
	pollID, participantID := chi.URLParam(r, "id"), chi.URLParam(r, "participant")
	if err := h.authorize(r, pollID, participantID); err != nil {
		writeError(w, r, err)
		return
	}

	participant, err := h.service.DeleteParticipation(r.Context(), pollID, participantID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, participant)
}

// authorize lets the participant who owns the entry or the poll admin through.
func (h *ParticipantHandler) authorize(r *http.Request, pollID, participantID string) error {
	participant, err := h.service.GetParticipant(r.Context(), pollID, participantID)
	if err != nil {
		return err
	}
	token := tokenFrom(r)
	if domain.TokensEqual(participant.Token, token) {
		return nil
	}

	admin, err := h.service.IsAdmin(r.Context(), pollID, token)
	if err != nil {
		return err
	}
	if !admin {
		return domain.ErrForbidden
	}
	return nil
}
