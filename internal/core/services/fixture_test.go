package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/meetpoll/internal/adapters/mail"
	"github.com/vncsmyrnk/meetpoll/internal/adapters/mail/mailtest"
	"github.com/vncsmyrnk/meetpoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
)

const testAdminToken = "admin-token"

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	svc          *pollService
	store        *memory.Store
	polls        ports.PollRepository
	events       ports.EventRepository
	participants ports.ParticipantRepository
	mailer       *mailtest.Recorder
	dispatcher   *mail.Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		store:        store,
		polls:        memory.NewPollRepository(store),
		events:       memory.NewEventRepository(store),
		participants: memory.NewParticipantRepository(store),
		mailer:       &mailtest.Recorder{},
	}
	f.dispatcher = mail.NewDispatcher(f.mailer, discard, time.Second)
	f.build()
	t.Cleanup(f.dispatcher.Wait)
	return f
}

// build (re)creates the service over the fixture's current repositories.
func (f *fixture) build() {
	f.svc = NewPollService(f.polls, f.events, f.participants, f.dispatcher, discard).(*pollService)
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
}

func (f *fixture) createPoll(t *testing.T, adminMail string) *domain.ReadPoll {
	t.Helper()
	poll, err := f.svc.PostPoll(context.Background(), ports.PollInput{
		Title:      "Team offsite",
		Location:   "Lisbon",
		AdminToken: testAdminToken,
		AdminMail:  adminMail,
	})
	require.NoError(t, err)
	return poll
}

func slot(day int) ports.EventInput {
	start := time.Date(2026, 3, day, 9, 0, 0, 0, time.UTC)
	return ports.EventInput{Start: start, End: start.Add(2 * time.Hour)}
}

func (f *fixture) setEvents(t *testing.T, pollID uuid.UUID, events ...ports.EventInput) []*domain.Event {
	t.Helper()
	result, err := f.svc.PostEvents(context.Background(), pollID.String(), events)
	require.NoError(t, err)
	return result
}

func (f *fixture) participate(t *testing.T, pollID uuid.UUID, name, token, mail string, yes, maybe []uuid.UUID) *domain.Participant {
	t.Helper()
	p, err := f.svc.PostParticipation(context.Background(), pollID.String(), ports.ParticipantInput{
		Name:                       name,
		Mail:                       mail,
		Token:                      token,
		Participation:              yes,
		IndeterminateParticipation: maybe,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) participant(t *testing.T, id uuid.UUID) *domain.Participant {
	t.Helper()
	p, err := f.participants.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func ids(events ...*domain.Event) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(events))
	for _, e := range events {
		out = append(out, e.ID)
	}
	return out
}

func keep(e *domain.Event) ports.EventInput {
	return ports.EventInput{ID: e.ID, Start: e.Start, End: e.End, Note: e.Note}
}
