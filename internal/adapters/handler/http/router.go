package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
)

func NewHandler(service ports.PollService, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	pollHandler := NewPollHandler(service)
	eventHandler := NewEventHandler(service)
	participantHandler := NewParticipantHandler(service)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/poll", func(r chi.Router) {
		r.Get("/", pollHandler.GetPolls)
		r.Post("/", pollHandler.CreatePoll)
		r.Put("/mail", pollHandler.SetMail)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", pollHandler.GetPoll)
			r.Get("/admin", pollHandler.IsAdmin)
			r.Get("/events", eventHandler.GetEvents)

			r.Get("/participate", participantHandler.GetParticipants)
			r.Post("/participate", participantHandler.Participate)
			r.Put("/participate/{participant}", participantHandler.EditParticipation)
			r.Delete("/participate/{participant}", participantHandler.DeleteParticipation)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin(service))
				r.Put("/", pollHandler.UpdatePoll)
				r.Delete("/", pollHandler.DeletePoll)
				r.Post("/clone", pollHandler.ClonePoll)
				r.Post("/events", eventHandler.PostEvents)
				r.Post("/book", pollHandler.BookEvents)
			})
		})
	})

	return r
}
