package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/meetpoll/internal/adapters/mail"
	"github.com/vncsmyrnk/meetpoll/internal/adapters/mail/mailtest"
	"github.com/vncsmyrnk/meetpoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
	"github.com/vncsmyrnk/meetpoll/internal/core/services"
)

const adminToken = "admin-secret"

type testApp struct {
	Server     *httptest.Server
	Client     *http.Client
	Mailer     *mailtest.Recorder
	Dispatcher *mail.Dispatcher
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.NewStore()
	recorder := &mailtest.Recorder{}
	dispatcher := mail.NewDispatcher(recorder, logger, time.Second)
	service := services.NewPollService(
		memory.NewPollRepository(store),
		memory.NewEventRepository(store),
		memory.NewParticipantRepository(store),
		dispatcher,
		logger,
	)

	server := httptest.NewServer(NewHandler(service, logger))
	t.Cleanup(server.Close)

	return &testApp{
		Server:     server,
		Client:     server.Client(),
		Mailer:     recorder,
		Dispatcher: dispatcher,
	}
}

func (app *testApp) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, app.Server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}

	resp, err := app.Client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (app *testApp) createPoll(t *testing.T) domain.ReadPoll {
	t.Helper()
	resp := app.do(t, http.MethodPost, "/api/poll", "", map[string]any{
		"title":       "Quarterly review",
		"location":    "Room 4",
		"admin_token": adminToken,
		"admin_mail":  "admin@example.com",
		"settings":    map[string]any{"anonymous": false},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[domain.ReadPoll](t, resp)
}

func (app *testApp) postEvents(t *testing.T, pollID uuid.UUID, events []map[string]any) []domain.Event {
	t.Helper()
	resp := app.do(t, http.MethodPost, fmt.Sprintf("/api/poll/%s/events", pollID), adminToken, events)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[[]domain.Event](t, resp)
}

func slot(day int) map[string]any {
	start := time.Date(2026, 6, day, 9, 0, 0, 0, time.UTC)
	return map[string]any{"start": start, "end": start.Add(time.Hour)}
}

func TestHealthz(t *testing.T) {
	app := setupTestApp(t)

	resp := app.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPollFlow(t *testing.T) {
	app := setupTestApp(t)

	// create, then read without admin fields
	created := app.createPoll(t)
	assert.NotEqual(t, uuid.Nil, created.ID)

	resp := app.do(t, http.MethodGet, "/api/poll/"+created.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw := decode[map[string]any](t, resp)
	assert.Equal(t, "Quarterly review", raw["title"])
	assert.NotContains(t, raw, "admin_token")
	assert.NotContains(t, raw, "admin_mail")

	// admin check
	resp = app.do(t, http.MethodGet, "/api/poll/"+created.ID.String()+"/admin", adminToken, nil)
	assert.True(t, decode[bool](t, resp))
	resp = app.do(t, http.MethodGet, "/api/poll/"+created.ID.String()+"/admin", "nope", nil)
	assert.False(t, decode[bool](t, resp))

	// events
	events := app.postEvents(t, created.ID, []map[string]any{slot(2), slot(1)})
	require.Len(t, events, 2)
	assert.True(t, events[0].Start.Before(events[1].Start))

	// participate
	resp = app.do(t, http.MethodPost, "/api/poll/"+created.ID.String()+"/participate", "", map[string]any{
		"name":                        "Ann",
		"mail":                        "ann@example.com",
		"token":                       "ann-token",
		"participation":               []uuid.UUID{events[0].ID},
		"indeterminate_participation": []uuid.UUID{events[1].ID},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	participant := decode[map[string]any](t, resp)
	assert.NotContains(t, participant, "token")

	app.Dispatcher.Wait()
	assert.Len(t, app.Mailer.To("admin@example.com"), 1)
	assert.Len(t, app.Mailer.To("ann@example.com"), 1)

	resp = app.do(t, http.MethodGet, "/api/poll/"+created.ID.String()+"/participate", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	populated := decode[[]domain.PopulatedParticipant](t, resp)
	require.Len(t, populated, 1)
	require.Len(t, populated[0].Participation, 1)
	assert.Equal(t, events[0].ID, populated[0].Participation[0].ID)

	// listing by participant token with stats
	resp = app.do(t, http.MethodGet, "/api/poll?stats=true", "ann-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed := decode[[]domain.StatsPoll](t, resp)
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].Events)
	assert.Equal(t, int64(2), *listed[0].Events)
	assert.Equal(t, int64(1), *listed[0].Participants)

	// booking
	resp = app.do(t, http.MethodPost, "/api/poll/"+created.ID.String()+"/book", adminToken, []string{events[0].ID.String()})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	booked := decode[domain.ReadPoll](t, resp)
	assert.Equal(t, []uuid.UUID{events[0].ID}, booked.BookedEvents)

	app.Dispatcher.Wait()
	assert.Len(t, app.Mailer.To("ann@example.com"), 2)

	// delete
	resp = app.do(t, http.MethodDelete, "/api/poll/"+created.ID.String(), adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = app.do(t, http.MethodGet, "/api/poll/"+created.ID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = app.do(t, http.MethodGet, "/api/poll/"+created.ID.String()+"/participate", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminRoutesRequireAdminToken(t *testing.T) {
	app := setupTestApp(t)
	poll := app.createPoll(t)
	base := "/api/poll/" + poll.ID.String()

	tests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPut, base, map[string]any{"title": "x"}},
		{http.MethodDelete, base, nil},
		{http.MethodPost, base + "/clone", nil},
		{http.MethodPost, base + "/events", []map[string]any{slot(1)}},
		{http.MethodPost, base + "/book", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp := app.do(t, tt.method, tt.path, "wrong", tt.body)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)

			resp = app.do(t, tt.method, tt.path, "", tt.body)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}

	resp := app.do(t, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Quarterly review", decode[domain.ReadPoll](t, resp).Title)
}

func TestUpdateAndClonePoll(t *testing.T) {
	app := setupTestApp(t)
	poll := app.createPoll(t)
	base := "/api/poll/" + poll.ID.String()
	app.postEvents(t, poll.ID, []map[string]any{slot(1)})

	resp := app.do(t, http.MethodPut, base, adminToken, map[string]any{"title": "Annual review"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Annual review", decode[domain.ReadPoll](t, resp).Title)

	resp = app.do(t, http.MethodPost, base+"/clone", adminToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	clone := decode[domain.ReadPoll](t, resp)
	assert.Equal(t, "Annual review (clone)", clone.Title)

	resp = app.do(t, http.MethodGet, "/api/poll/"+clone.ID.String()+"/events", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.Event](t, resp), 1)

	// the clone keeps the admin token
	resp = app.do(t, http.MethodGet, "/api/poll/"+clone.ID.String()+"/admin", adminToken, nil)
	assert.True(t, decode[bool](t, resp))
}

func TestParticipationOwnership(t *testing.T) {
	app := setupTestApp(t)
	poll := app.createPoll(t)
	base := "/api/poll/" + poll.ID.String()

	resp := app.do(t, http.MethodPost, base+"/participate", "bob-token", map[string]any{"name": "Bob"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	bob := decode[domain.Participant](t, resp)
	path := base + "/participate/" + bob.ID.String()

	resp = app.do(t, http.MethodPut, path, "mallory", map[string]any{"name": "Mallory"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = app.do(t, http.MethodPut, path, "bob-token", map[string]any{"name": "Robert"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Robert", decode[domain.Participant](t, resp).Name)

	resp = app.do(t, http.MethodDelete, path, "mallory", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = app.do(t, http.MethodDelete, path, adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = app.do(t, http.MethodDelete, path, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestErrorMapping(t *testing.T) {
	app := setupTestApp(t)
	poll := app.createPoll(t)

	t.Run("invalid id", func(t *testing.T) {
		resp := app.do(t, http.MethodGet, "/api/poll/not-a-uuid", "", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing poll", func(t *testing.T) {
		resp := app.do(t, http.MethodGet, "/api/poll/"+uuid.NewString(), "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "poll not found", decode[errorResponse](t, resp).Error)
	})

	t.Run("validation", func(t *testing.T) {
		resp := app.do(t, http.MethodPost, "/api/poll", "", map[string]any{"title": ""})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decode[errorResponse](t, resp)
		assert.Contains(t, body.Fields, "title")
		assert.Contains(t, body.Fields, "admin_token")
	})

	t.Run("malformed body", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, app.Server.URL+"/api/poll", bytes.NewBufferString("{"))
		require.NoError(t, err)
		resp, err := app.Client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("vote on unknown event", func(t *testing.T) {
		resp := app.do(t, http.MethodPost, "/api/poll/"+poll.ID.String()+"/participate", "", map[string]any{
			"name":          "Ann",
			"token":         "t",
			"participation": []uuid.UUID{uuid.New()},
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("book with malformed id", func(t *testing.T) {
		resp := app.do(t, http.MethodPost, "/api/poll/"+poll.ID.String()+"/book", adminToken, []string{"x"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestSetMail(t *testing.T) {
	app := setupTestApp(t)
	first := app.createPoll(t)
	second := app.createPoll(t)

	for _, p := range []domain.ReadPoll{first, second} {
		resp := app.do(t, http.MethodPost, "/api/poll/"+p.ID.String()+"/participate", "", map[string]any{"name": "Ann", "token": "shared"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := app.do(t, http.MethodPut, "/api/poll/mail", "", map[string]any{"token": "shared", "mail": "ann@example.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(2), decode[mailResponse](t, resp).Updated)
}
