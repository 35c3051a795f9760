package lfg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	v1 "github.com/fireteam-lab/fireteam/internal/api/v1"
	httperr "github.com/fireteam-lab/fireteam/internal/core/errors"
	"github.com/fireteam-lab/fireteam/internal/core/storage"
	"github.com/fireteam-lab/fireteam/internal/core/storage/memory"
	"github.com/fireteam-lab/fireteam/internal/guild"
	"github.com/fireteam-lab/fireteam/internal/views"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)

type testEnv struct {
	router  *gin.Engine
	backend *memory.Store

	mu    sync.Mutex
	sinks map[string]*views.MemorySink
}

func (env *testEnv) sink(channelID string) *views.MemorySink {
	env.mu.Lock()
	defer env.mu.Unlock()
	s, ok := env.sinks[channelID]
	if !ok {
		s = views.NewMemorySink()
		env.sinks[channelID] = s
	}
	return s
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{backend: memory.New(), sinks: map[string]*views.MemorySink{}}
	layout, err := guild.ParseLayout([]byte("default:\n  channels:\n    - id: lfg\n"))
	require.NoError(t, err)

	app := guild.New(context.Background(), guild.Options{
		Layout: layout,
		Stores: func(string) (storage.Store, error) { return env.backend, nil },
		Sinks:  func(id string) views.MessageSink { return env.sink(id) },
		Clock:  clockwork.NewFakeClockAt(testNow),
	})
	t.Cleanup(func() { _ = app.Close() })
	_, err = app.AddGuild(context.Background(), "g1")
	require.NoError(t, err)

	svc := NewService(app, 1, time.Hour)
	svc.nowFn = func() time.Time { return testNow }
	env.router = gin.New()
	svc.RegisterRoutes(env.router)
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)
	return resp
}

func (env *testEnv) create(t *testing.T, activity string, offset time.Duration) v1.EventResponse {
	t.Helper()
	resp := env.do(t, http.MethodPost, "/v1/guilds/g1/events", v1.CreateEventRequest{
		Creator:       v1.Member{ID: "1", Name: "saint"},
		Activity:      activity,
		ScheduledTime: testNow.Add(offset),
		Description:   "test run",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[v1.EventResponse](t, resp)
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func requireError(t *testing.T, resp *httptest.ResponseRecorder, status int, errorType string) httperr.ErrorResponse {
	t.Helper()
	require.Equal(t, status, resp.Code, resp.Body.String())
	errResp := decode[httperr.ErrorResponse](t, resp)
	require.Equal(t, errorType, errResp.ErrorType)
	return errResp
}

func TestCreateAndGet(t *testing.T) {
	env := newTestEnv(t)

	created := env.create(t, "vog", 2*time.Hour)
	assert.Equal(t, "vog1", created.ID)
	assert.Equal(t, 6, created.GroupSize)
	assert.Equal(t, []v1.Member{{ID: "1", Name: "saint"}}, created.Confirmed)

	resp := env.do(t, http.MethodGet, "/v1/guilds/g1/events/vog1", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "test run", decode[v1.EventResponse](t, resp).Description)

	require.Eventually(t, func() bool { return len(env.sink("lfg").Views()) == 1 }, time.Second, time.Millisecond)
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/v1/guilds/g1/events", "not json")
	requireError(t, resp, http.StatusBadRequest, httperr.HttpInvalidRequestError)

	resp = env.do(t, http.MethodPost, "/v1/guilds/g1/events", v1.CreateEventRequest{
		Creator: v1.Member{ID: "1"}, Activity: "nope", ScheduledTime: testNow,
	})
	requireError(t, resp, http.StatusBadRequest, httperr.HttpInvalidRequestError)

	resp = env.do(t, http.MethodPost, "/v1/guilds/g1/events", `{"description":"`+strings.Repeat("x", 2048)+`"}`)
	requireError(t, resp, http.StatusRequestEntityTooLarge, httperr.HttpInvalidRequestError)
}

func TestListFiltersByType(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, "gambit", 3*time.Hour)
	env.create(t, "vog", 2*time.Hour)
	env.create(t, "pit", time.Hour)

	resp := env.do(t, http.MethodGet, "/v1/guilds/g1/events", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	all := decode[map[string][]v1.EventResponse](t, resp)["events"]
	require.Len(t, all, 3)
	assert.Equal(t, []string{"pit1", "vog1", "gambit1"}, []string{all[0].ID, all[1].ID, all[2].ID})

	resp = env.do(t, http.MethodGet, "/v1/guilds/g1/events?type=raid&type=dungeon", nil)
	filtered := decode[map[string][]v1.EventResponse](t, resp)["events"]
	require.Len(t, filtered, 2)

	resp = env.do(t, http.MethodGet, "/v1/guilds/g1/events?type=bogus", nil)
	requireError(t, resp, http.StatusBadRequest, httperr.HttpInvalidRequestError)
}

func TestJoinAndLeave(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, "vog", 2*time.Hour)
	member := v1.Member{ID: "2", Name: "osiris"}

	resp := env.do(t, http.MethodPost, "/v1/guilds/g1/events/vog1/join", v1.JoinRequest{Member: member, Kind: "alt"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []v1.Member{member}, decode[v1.EventResponse](t, resp).Alternates)

	resp = env.do(t, http.MethodPost, "/v1/guilds/g1/events/vog1/join", v1.JoinRequest{Member: member})
	requireError(t, resp, http.StatusConflict, httperr.HttpAlreadyInEventError)

	resp = env.do(t, http.MethodPost, "/v1/guilds/g1/events/vog1/leave", v1.LeaveRequest{MemberID: "2"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[v1.EventResponse](t, resp).Alternates)

	resp = env.do(t, http.MethodPost, "/v1/guilds/g1/events/vog1/leave", v1.LeaveRequest{MemberID: "2"})
	requireError(t, resp, http.StatusConflict, httperr.HttpNotInEventError)

	resp = env.do(t, http.MethodPost, "/v1/guilds/g1/events/vog9/join", v1.JoinRequest{Member: member})
	requireError(t, resp, http.StatusNotFound, httperr.HttpNotFoundError)
}

func TestEditFields(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, "lw", 2*time.Hour)

	tests := []struct {
		req   v1.EditRequest
		check func(*testing.T, v1.EventResponse)
	}{
		{v1.EditRequest{Field: "time", Value: "2026-09-02T20:00:00Z"}, func(t *testing.T, e v1.EventResponse) {
			assert.True(t, time.Date(2026, 9, 2, 20, 0, 0, 0, time.UTC).Equal(e.ScheduledTime))
		}},
		{v1.EditRequest{Field: "description", Value: "riven"}, func(t *testing.T, e v1.EventResponse) {
			assert.Equal(t, "riven", e.Description)
		}},
		{v1.EditRequest{Field: "group_size", Value: "4"}, func(t *testing.T, e v1.EventResponse) {
			assert.Equal(t, 4, e.GroupSize)
		}},
		{v1.EditRequest{Field: "recurring", Value: "true"}, func(t *testing.T, e v1.EventResponse) {
			assert.True(t, e.Recurring)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.req.Field, func(t *testing.T) {
			resp := env.do(t, http.MethodPatch, "/v1/guilds/g1/events/lw1", tt.req)
			require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
			tt.check(t, decode[v1.EventResponse](t, resp))
		})
	}

	resp := env.do(t, http.MethodPatch, "/v1/guilds/g1/events/lw1", v1.EditRequest{Field: "creator", Value: "x"})
	requireError(t, resp, http.StatusBadRequest, httperr.HttpInvalidRequestError)
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, "dsc", time.Hour)

	resp := env.do(t, http.MethodDelete, "/v1/guilds/g1/events/dsc1", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "dsc1", decode[v1.EventResponse](t, resp).ID)

	resp = env.do(t, http.MethodGet, "/v1/guilds/g1/events/dsc1", nil)
	requireError(t, resp, http.StatusNotFound, httperr.HttpNotFoundError)
}

func TestUnknownGuildAndBadID(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/v1/guilds/nope/events", nil)
	requireError(t, resp, http.StatusNotFound, httperr.HttpGuildNotFoundError)

	resp = env.do(t, http.MethodGet, "/v1/guilds/g1/events/vog0", nil)
	requireError(t, resp, http.StatusBadRequest, httperr.HttpInvalidRequestError)
}

func TestPersistenceFailureReturnsCommittedEvent(t *testing.T) {
	env := newTestEnv(t)
	env.backend.FailSaves(errors.New("disk full"))

	resp := env.do(t, http.MethodPost, "/v1/guilds/g1/events", v1.CreateEventRequest{
		Creator: v1.Member{ID: "1"}, Activity: "vog", ScheduledTime: testNow.Add(time.Hour),
	})
	errResp := requireError(t, resp, http.StatusInternalServerError, httperr.HttpPersistenceFailedError)
	details, ok := errResp.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "vog1", details["event"].(map[string]interface{})["id"])

	resp = env.do(t, http.MethodGet, "/v1/guilds/g1/events/vog1", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestInteractions(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, "vog", 2*time.Hour)

	resp := env.do(t, http.MethodPost, "/v1/guilds/g1/interactions", v1.Interaction{Type: v1.InteractionPing})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "pong", decode[v1.InteractionResponse](t, resp).Type)

	member := v1.Member{ID: "5", Name: "ikora"}
	resp = env.do(t, http.MethodPost, "/v1/guilds/g1/interactions",
		v1.Interaction{Type: v1.InteractionComponent, CustomID: "maybe:vog1", Member: member})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	got := decode[v1.InteractionResponse](t, resp)
	assert.Equal(t, "Joined vog1 as maybe", got.Message)
	require.NotNil(t, got.Event)
	assert.Equal(t, []v1.Member{member}, got.Event.Maybe)

	resp = env.do(t, http.MethodPost, "/v1/guilds/g1/interactions",
		v1.Interaction{Type: v1.InteractionComponent, CustomID: "leave:vog1", Member: member})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Left vog1", decode[v1.InteractionResponse](t, resp).Message)

	resp = env.do(t, http.MethodPost, "/v1/guilds/g1/interactions",
		v1.Interaction{Type: v1.InteractionComponent, CustomID: "kick:vog1", Member: member})
	requireError(t, resp, http.StatusBadRequest, httperr.HttpInvalidRequestError)

	resp = env.do(t, http.MethodPost, "/v1/guilds/g1/interactions", v1.Interaction{Type: "modal"})
	requireError(t, resp, http.StatusBadRequest, httperr.HttpInvalidRequestError)
}

func TestTrackMessage(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, "vog", 2*time.Hour)

	side := env.sink("side")
	handle, err := side.Create(context.Background(), views.RenderedView{Content: "placeholder"})
	require.NoError(t, err)

	resp := env.do(t, http.MethodPost, "/v1/guilds/g1/events/vog1/tracked",
		v1.TrackRequest{ChannelID: "side", MessageID: string(handle)})
	require.Equal(t, http.StatusAccepted, resp.Code, resp.Body.String())
	require.Len(t, side.Views(), 1)
	assert.Equal(t, "vog1", side.Views()[0].Embed.Fields[2].Value)

	resp = env.do(t, http.MethodPost, "/v1/guilds/g1/events/vog1/tracked",
		v1.TrackRequest{ChannelID: "side", MessageID: "missing"})
	requireError(t, resp, http.StatusBadGateway, httperr.HttpInternalError)

	resp = env.do(t, http.MethodPost, "/v1/guilds/g1/events/vog7/tracked",
		v1.TrackRequest{ChannelID: "side", MessageID: string(handle)})
	requireError(t, resp, http.StatusNotFound, httperr.HttpNotFoundError)
}

func TestCalendar(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, "vog", 2*time.Hour)

	resp := env.do(t, http.MethodGet, "/v1/guilds/g1/events.ics", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Body.String(), "UID:g1-vog1@fireteam")
	assert.Contains(t, resp.Body.String(), "DTSTART:20260901T200000Z")
}
