package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/cah-server/internal/deck"
)

func TestJoin_FirstPlayerIsHost(t *testing.T) {
	s := newTestState(t, testSource(1, 20, 1), "A", "B")

	assert.True(t, s.Players["A"].IsHost)
	assert.False(t, s.Players["B"].IsHost)
	assert.Equal(t, []string{"A", "B"}, s.Order)
}

func TestJoin_UnknownTokenIsNewPlayer(t *testing.T) {
	s := NewState(testSource(1, 20, 1), nil, Rules{})

	res, events, err := s.Join("not-a-player")
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.False(t, res.Returning)
	assert.NotEqual(t, "not-a-player", res.Player.ID)
	assert.NotEmpty(t, res.Player.ID)
}

func TestJoin_GeneratedIDsAreUnique(t *testing.T) {
	s := NewState(testSource(1, 20, 1), nil, Rules{})
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		res, _, err := s.Join("")
		require.NoError(t, err)
		require.False(t, seen[res.Player.ID], "duplicate id %s", res.Player.ID)
		seen[res.Player.ID] = true
	}
}

func TestReconnect_RestoresHandAndSeat(t *testing.T) {
	s := startedState(t, "A", "B", "C", "D")
	_, err := Apply(s, Command{Type: CmdPlayCards, PlayerID: "D", Indices: []int{0}})
	require.NoError(t, err)
	_, err = Apply(s, Command{Type: CmdSelectWinner, PlayerID: "A", WinnerID: "D"})
	require.NoError(t, err)

	hand := append([]string(nil), s.Players["D"].Hand...)
	won := append([]string(nil), s.Players["D"].WonPrompts...)

	assert.False(t, s.Disconnect("D"))
	assert.False(t, s.Players["D"].IsConnected)

	res, _, err := s.Join("D")
	require.NoError(t, err)
	assert.True(t, res.Returning)
	assert.True(t, res.Player.IsConnected)
	assert.Equal(t, hand, res.Player.Hand)
	assert.Equal(t, won, res.Player.WonPrompts)
	assert.Equal(t, []string{"A", "B", "C", "D"}, s.Order)
	assert.Equal(t, "D", s.Successor("C"))
}

func TestRotation_IncludesDisconnectedPlayers(t *testing.T) {
	s := startedState(t, "A", "B", "C")
	s.Disconnect("B")

	_, err := Apply(s, Command{Type: CmdPlayCards, PlayerID: "C", Indices: []int{0}})
	require.NoError(t, err)
	_, err = Apply(s, Command{Type: CmdSelectWinner, PlayerID: "A", WinnerID: "C"})
	require.NoError(t, err)

	assert.Equal(t, "B", s.Round.JudgeID)
}

func TestDisconnect_LastPlayerTearsDown(t *testing.T) {
	s := startedState(t, "A", "B")

	assert.False(t, s.Disconnect("A"))
	assert.True(t, s.Disconnect("B"))

	assert.Empty(t, s.Players)
	assert.Empty(t, s.Order)
	assert.False(t, s.Active)
	assert.Equal(t, PhaseLobby, s.Round.Phase)
	assert.Zero(t, s.Deck.ResponsesLeft())
}

func TestDisconnect_UnknownPlayer(t *testing.T) {
	s := newTestState(t, testSource(1, 20, 1), "A")
	assert.False(t, s.Disconnect("Z"))
	assert.True(t, s.Players["A"].IsConnected)
}

func TestTeardown_NextJoinerIsHost(t *testing.T) {
	s := newTestState(t, testSource(1, 20, 1), "A", "B", "C")
	s.Disconnect("A")
	s.Disconnect("B")
	s.Disconnect("C")

	s.newID = func() string { return "E" }
	res, _, err := s.Join("A")
	require.NoError(t, err)
	assert.False(t, res.Returning, "old tokens die with the session")
	assert.True(t, res.Player.IsHost)
}

func TestJoin_LateJoinerGetsHand(t *testing.T) {
	s := startedState(t, "A", "B")
	_, err := Apply(s, Command{Type: CmdPlayCards, PlayerID: "B", Indices: []int{0}})
	require.NoError(t, err)
	require.Equal(t, PhaseAwaitingJudgment, s.Round.Phase)

	s.newID = func() string { return "C" }
	res, events, err := s.Join("")
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Len(t, res.Player.Hand, DefaultHandSize)
	assert.False(t, res.Player.IsHost)
	assert.Equal(t, PhaseAwaitingSubmissions, s.Round.Phase)
}

func TestJoin_LateJoinerExhaustsDeck(t *testing.T) {
	s := newTestState(t, testSource(3, 15, 1), "A", "B")
	_, err := Apply(s, Command{Type: CmdStartGame, PlayerID: "A"})
	require.NoError(t, err)

	s.newID = func() string { return "C" }
	_, events, err := s.Join("")
	require.ErrorIs(t, err, deck.ErrDeckExhausted)
	assert.True(t, ContainsEvent(events, EvtSessionHalted))
	assert.Equal(t, PhaseHalted, s.Round.Phase)
}

func TestSuccessor(t *testing.T) {
	cases := []struct {
		name  string
		order []string
		id    string
		want  string
	}{
		{"middle", []string{"A", "B", "C"}, "B", "C"},
		{"wraps", []string{"A", "B", "C"}, "C", "A"},
		{"single player", []string{"A"}, "A", "A"},
		{"unknown falls back to first", []string{"A", "B"}, "Z", "A"},
		{"empty", nil, "A", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, nextInOrder(tc.order, tc.id))
		})
	}
}
