package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
	"github.com/vncsmyrnk/meetpoll/internal/logging"
)

// TokenHeader carries the caller's admin or participant token.
const TokenHeader = "Participant-Token"

func tokenFrom(r *http.Request) string {
	return r.Header.Get(TokenHeader)
}

// requestLogger stores a logger tagged with the request id in the request
// context. It must run after middleware.RequestID.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger.With("request_id", middleware.GetReqID(r.Context()))
			next.ServeHTTP(w, r.WithContext(logging.ContextWithLogger(r.Context(), l)))
		})
	}
}

// requireAdmin rejects requests whose token is not the admin token of the
// poll in the {id} url parameter.
func requireAdmin(service ports.PollService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := service.IsAdmin(r.Context(), chi.URLParam(r, "id"), tokenFrom(r))
			if err != nil {
				writeError(w, r, err)
				return
			}
			if !ok {
				writeError(w, r, domain.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
