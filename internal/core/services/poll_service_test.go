package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
	"github.com/vncsmyrnk/meetpoll/internal/logging"
)

func TestPostPollHidesAdminFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.createPoll(t, "admin@example.com")
	fetched, err := f.svc.GetPoll(ctx, created.ID.String())
	require.NoError(t, err)

	raw, err := json.Marshal(fetched)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "admin_token")
	assert.NotContains(t, string(raw), "admin_mail")
	assert.NotContains(t, string(raw), testAdminToken)

	stored, err := f.polls.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, testAdminToken, stored.AdminToken)
	assert.Equal(t, "admin@example.com", stored.AdminMail)
	assert.Empty(t, stored.BookedEvents)
}

func TestPostPollValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		input ports.PollInput
		field string
	}{
		{"missing title", ports.PollInput{AdminToken: "t"}, "title"},
		{"missing token", ports.PollInput{Title: "x"}, "admin_token"},
		{"bad mail", ports.PollInput{Title: "x", AdminToken: "t", AdminMail: "nope"}, "admin_mail"},
		{"settings not an object", ports.PollInput{Title: "x", AdminToken: "t", Settings: json.RawMessage(`[1]`)}, "settings"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.PostPoll(context.Background(), tt.input)
			var vErr *domain.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.FieldErrors, tt.field)
		})
	}

	polls, _, _ := f.store.Len()
	assert.Zero(t, polls)
}

func TestGetPollErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetPoll(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = f.svc.GetPoll(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrPollNotFound)
}

func TestPutPoll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.createPoll(t, "")

	t.Run("missing poll is not created", func(t *testing.T) {
		_, err := f.svc.PutPoll(ctx, uuid.NewString(), ports.PollInput{Title: "Ghost"})
		assert.ErrorIs(t, err, domain.ErrPollNotFound)

		polls, _, _ := f.store.Len()
		assert.Equal(t, 1, polls)
	})

	t.Run("replaces mutable fields and keeps the admin token", func(t *testing.T) {
		updated, err := f.svc.PutPoll(ctx, created.ID.String(), ports.PollInput{
			Title:      "Team retreat",
			AdminToken: "someone-else",
			AdminMail:  "new@example.com",
			Settings:   json.RawMessage(`{"hideParticipants":true}`),
		})
		require.NoError(t, err)
		assert.Equal(t, "Team retreat", updated.Title)
		assert.Empty(t, updated.Location)

		stored, err := f.polls.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, testAdminToken, stored.AdminToken)
		assert.Equal(t, "new@example.com", stored.AdminMail)
		assert.JSONEq(t, `{"hideParticipants":true}`, string(stored.Settings))
	})
}

func TestClonePoll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	source := f.createPoll(t, "admin@example.com")
	events := f.setEvents(t, source.ID, slot(1), slot(2), slot(3))
	f.participate(t, source.ID, "Ann", "ann", "", ids(events[0]), nil)
	_, err := f.svc.BookEvents(ctx, source.ID.String(), ids(events[0]))
	require.NoError(t, err)

	clone, err := f.svc.ClonePoll(ctx, source.ID.String())
	require.NoError(t, err)
	assert.NotEqual(t, source.ID, clone.ID)
	assert.Equal(t, "Team offsite (clone)", clone.Title)
	assert.Equal(t, "Lisbon", clone.Location)
	assert.Empty(t, clone.BookedEvents)

	cloned, err := f.svc.GetEvents(ctx, clone.ID.String())
	require.NoError(t, err)
	require.Len(t, cloned, 3)
	for i, e := range cloned {
		assert.NotEqual(t, events[i].ID, e.ID)
		assert.Equal(t, clone.ID, e.PollID)
		assert.True(t, events[i].Start.Equal(e.Start))
	}

	original, err := f.svc.GetEvents(ctx, source.ID.String())
	require.NoError(t, err)
	assert.Len(t, original, 3)

	participants, err := f.svc.GetParticipants(ctx, clone.ID.String())
	require.NoError(t, err)
	assert.Empty(t, participants)

	_, err = f.svc.ClonePoll(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrPollNotFound)
}

func TestDeletePoll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	keepPoll := f.createPoll(t, "")
	f.setEvents(t, keepPoll.ID, slot(1))

	poll := f.createPoll(t, "")
	events := f.setEvents(t, poll.ID, slot(1), slot(2))
	f.participate(t, poll.ID, "Ann", "ann", "", ids(events...), nil)

	deleted, err := f.svc.DeletePoll(ctx, poll.ID.String())
	require.NoError(t, err)
	assert.Equal(t, poll.ID, deleted.ID)

	polls, storedEvents, participants := f.store.Len()
	assert.Equal(t, 1, polls)
	assert.Equal(t, 1, storedEvents)
	assert.Equal(t, 0, participants)

	_, err = f.svc.DeletePoll(ctx, poll.ID.String())
	assert.ErrorIs(t, err, domain.ErrPollNotFound)
}

// crashingParticipants fails DeleteByPoll until it is re-armed.
type crashingParticipants struct {
	ports.ParticipantRepository
	crash bool
}

func (r *crashingParticipants) DeleteByPoll(ctx context.Context, pollID uuid.UUID) (int64, error) {
	if r.crash {
		return 0, errors.New("connection reset")
	}
	return r.ParticipantRepository.DeleteByPoll(ctx, pollID)
}

func TestDeletePollCanBeRetriedAfterCrash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	poll := f.createPoll(t, "")
	events := f.setEvents(t, poll.ID, slot(1))
	f.participate(t, poll.ID, "Ann", "ann", "", ids(events...), nil)

	crashing := &crashingParticipants{ParticipantRepository: f.participants, crash: true}
	f.participants = crashing
	f.build()

	_, err := f.svc.DeletePoll(ctx, poll.ID.String())
	require.ErrorContains(t, err, "connection reset")

	// the poll is still there, its events are already gone
	polls, storedEvents, participants := f.store.Len()
	assert.Equal(t, 1, polls)
	assert.Equal(t, 0, storedEvents)
	assert.Equal(t, 1, participants)

	listed, err := f.svc.GetParticipants(ctx, poll.ID.String())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Empty(t, listed[0].Participation)

	crashing.crash = false
	_, err = f.svc.DeletePoll(ctx, poll.ID.String())
	require.NoError(t, err)

	polls, storedEvents, participants = f.store.Len()
	assert.Zero(t, polls+storedEvents+participants)
}

func TestGetPolls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	administered := f.createPoll(t, "")
	other, err := f.svc.PostPoll(ctx, ports.PollInput{Title: "Other", AdminToken: "other-admin"})
	require.NoError(t, err)
	unrelated, err := f.svc.PostPoll(ctx, ports.PollInput{Title: "Unrelated", AdminToken: "third"})
	require.NoError(t, err)

	events := f.setEvents(t, other.ID, slot(1), slot(2))
	// the admin also answered their own poll, and someone else's twice
	f.participate(t, administered.ID, "Me", testAdminToken, "", nil, nil)
	f.participate(t, other.ID, "Me", testAdminToken, "", ids(events[0]), nil)
	f.participate(t, other.ID, "Me again", testAdminToken, "", nil, nil)

	t.Run("union without duplicates", func(t *testing.T) {
		polls, err := f.svc.GetPolls(ctx, testAdminToken, false)
		require.NoError(t, err)
		require.Len(t, polls, 2)
		assert.Equal(t, administered.ID, polls[0].ID)
		assert.Equal(t, other.ID, polls[1].ID)
		assert.Nil(t, polls[0].Events)
		for _, p := range polls {
			assert.NotEqual(t, unrelated.ID, p.ID)
		}
	})

	t.Run("stats", func(t *testing.T) {
		polls, err := f.svc.GetPolls(ctx, testAdminToken, true)
		require.NoError(t, err)
		require.Len(t, polls, 2)
		require.NotNil(t, polls[1].Events)
		assert.Equal(t, int64(2), *polls[1].Events)
		assert.Equal(t, int64(2), *polls[1].Participants)
	})

	t.Run("empty token matches nothing", func(t *testing.T) {
		polls, err := f.svc.GetPolls(ctx, "", true)
		require.NoError(t, err)
		assert.Empty(t, polls)
	})
}

func TestIsAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	poll := f.createPoll(t, "")

	ok, err := f.svc.IsAdmin(ctx, poll.ID.String(), testAdminToken)
	require.NoError(t, err)
	assert.True(t, ok)

	for _, token := range []string{"", "admin", testAdminToken + " "} {
		ok, err := f.svc.IsAdmin(ctx, poll.ID.String(), token)
		require.NoError(t, err)
		assert.False(t, ok, "token %q", token)
	}

	_, err = f.svc.IsAdmin(ctx, uuid.NewString(), testAdminToken)
	assert.ErrorIs(t, err, domain.ErrPollNotFound)

	_, err = f.svc.IsAdmin(ctx, "42", testAdminToken)
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestServiceLogsKeepServiceAttribute(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	requestLogger := slog.New(slog.NewJSONHandler(&buf, nil)).With("request_id", "req-1")
	ctx := logging.ContextWithLogger(context.Background(), requestLogger)

	_, err := f.svc.PostPoll(ctx, ports.PollInput{Title: "Standup", AdminToken: testAdminToken})
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "poll", entry["service"])
	assert.Equal(t, "post_poll", entry["operation"])
	assert.Equal(t, "poll created", entry["msg"])
}
