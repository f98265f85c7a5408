package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/cah-server/internal/archive"
	"github.com/DoyleJ11/cah-server/internal/cards"
	"github.com/DoyleJ11/cah-server/internal/config"
	"github.com/DoyleJ11/cah-server/internal/lobby"
	"github.com/DoyleJ11/cah-server/internal/types"
)

type fakeRounds struct {
	recs  []archive.RoundRecord
	err   error
	asked int
}

func (f *fakeRounds) Recent(_ context.Context, n int) ([]archive.RoundRecord, error) {
	f.asked = n
	return f.recs, f.err
}

func newLobby(t *testing.T) *lobby.Lobby {
	t.Helper()
	src, err := cards.Default()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return lobby.NewLobby(ctx, lobby.Options{Source: src})
}

func serve(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := serve(SetupRoutes(newLobby(t), config.Config{}, nil, nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSession_EmptyLobby(t *testing.T) {
	l := newLobby(t)
	rec := serve(SetupRoutes(l, config.Config{}, nil, nil), "/api/session")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 0, got.Clients)
	assert.False(t, got.Game.IsActive)
	assert.Equal(t, "lobby", got.Game.Phase)
	assert.Empty(t, got.Players)
}

func TestSession_ShowsConnectedPlayers(t *testing.T) {
	l := newLobby(t)
	out := make(chan types.ServerMessage, 4)
	reply := make(chan lobby.Joined, 1)
	require.True(t, l.Send(context.Background(), lobby.Connect{ConnID: "c1", Outbox: out, Reply: reply}))
	joined := <-reply

	rec := serve(SetupRoutes(l, config.Config{}, nil, nil), "/api/session")
	require.Equal(t, http.StatusOK, rec.Code)

	var got sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Clients)
	require.Len(t, got.Players, 1)
	assert.Equal(t, joined.PlayerID, got.Players[0].PlayerID)
	assert.True(t, got.Players[0].Host)
}

func TestSession_StoppedLobby(t *testing.T) {
	l := newLobby(t)
	require.True(t, l.Send(context.Background(), lobby.Shutdown{}))
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("lobby did not stop")
	}

	rec := serve(SetupRoutes(l, config.Config{}, nil, nil), "/api/session")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRounds(t *testing.T) {
	decided := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rounds := &fakeRounds{recs: []archive.RoundRecord{{
		ID: "r1", Prompt: "Why?", Pick: 1, JudgeID: "a", WinnerID: "b",
		Cards: []string{"Because."}, Submissions: 2, DecidedAt: decided,
	}}}
	h := SetupRoutes(newLobby(t), config.Config{}, nil, rounds)

	rec := serve(h, "/api/rounds?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, rounds.asked)
	assert.JSONEq(t, `[{"id":"r1","prompt":"Why?","pick":1,"judgeID":"a","winnerID":"b",
		"cards":["Because."],"submissions":2,"decidedAt":"2024-05-01T12:00:00Z"}]`, rec.Body.String())

	serve(h, "/api/rounds?limit=100000")
	assert.Equal(t, maxRoundsLimit, rounds.asked)

	serve(h, "/api/rounds")
	assert.Equal(t, defaultRoundsLimit, rounds.asked)
}

func TestRounds_Errors(t *testing.T) {
	rounds := &fakeRounds{err: errors.New("db down")}
	h := SetupRoutes(newLobby(t), config.Config{}, nil, rounds)

	assert.Equal(t, http.StatusBadRequest, serve(h, "/api/rounds?limit=abc").Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, "/api/rounds?limit=0").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(h, "/api/rounds").Code)
}

func TestRounds_NotMountedWithoutArchive(t *testing.T) {
	rec := serve(SetupRoutes(newLobby(t), config.Config{}, nil, nil), "/api/rounds")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRounds_EmptyListIsArray(t *testing.T) {
	h := SetupRoutes(newLobby(t), config.Config{}, nil, &fakeRounds{})
	rec := serve(h, "/api/rounds")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
