package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
)

type PollHandler struct {
	service ports.PollService
}

func NewPollHandler(service ports.PollService) *PollHandler {
	return &PollHandler{
		service: service,
	}
}

type pollRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Settings    json.RawMessage `json:"settings"`
	AdminToken  string          `json:"admin_token"`
	AdminMail   string          `json:"admin_mail"`
}

func (req pollRequest) input() ports.PollInput {
	return ports.PollInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Settings:    req.Settings,
		AdminToken:  req.AdminToken,
		AdminMail:   req.AdminMail,
	}
}

type mailRequest struct {
	Token string `json:"token"`
	Mail  string `json:"mail"`
}

type mailResponse struct {
	Updated int64 `json:"updated"`
}

// GetPolls godoc
// @Summary      Lists the polls of a token
// @Description  Returns every poll the token administers or participates in. Pass stats=true to include event and participant counts.
// @Tags         poll
// @Success      200
// @Router       /api/poll [get]
func (h *PollHandler) GetPolls(w http.ResponseWriter, r *http.Request) {
	withStats, _ := strconv.ParseBool(r.URL.Query().Get("stats"))

	polls, err := h.service.GetPolls(r.Context(), tokenFrom(r), withStats)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, polls)
}

func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.service.GetPoll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, poll)
}

func (h *PollHandler) IsAdmin(w http.ResponseWriter, r *http.Request) {
	ok, err := h.service.IsAdmin(r.Context(), chi.URLParam(r, "id"), tokenFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok)
}

func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req pollRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	poll, err := h.service.PostPoll(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, poll)
}

func (h *PollHandler) UpdatePoll(w http.ResponseWriter, r *http.Request) {
	var req pollRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	poll, err := h.service.PutPoll(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, poll)
}

func (h *PollHandler) ClonePoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.service.ClonePoll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, poll)
}

// DeletePoll godoc
// @Summary      Deletes a poll
// @Description  Deletes the poll with its events and participants. Requires the admin token.
// @Tags         poll
// @Success      200
// @Failure      403
// @Failure      404
// @Router       /api/poll/{id} [delete]
func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.service.DeletePoll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, poll)
}

// BookEvents godoc
// @Summary      Books a poll
// @Description  Stores the chosen events and mails every participant that left an address. Body is an array of event ids.
// @Tags         poll
// @Accept       json
// @Success      200
// @Failure      403
// @Router       /api/poll/{id}/book [post]
func (h *PollHandler) BookEvents(w http.ResponseWriter, r *http.Request) {
	var raw []string
	if !decodeJSON(w, r, &raw) {
		return
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			writeError(w, r, domain.ErrInvalidID)
			return
		}
		ids = append(ids, id)
	}

	poll, err := h.service.BookEvents(r.Context(), chi.URLParam(r, "id"), ids)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, poll)
}

func (h *PollHandler) SetMail(w http.ResponseWriter, r *http.Request) {
	var req mailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.service.SetMail(r.Context(), ports.MailInput{Token: req.Token, Mail: req.Mail})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mailResponse{Updated: updated})
}
