package engine

import "fmt"

type JoinResult struct {
	Player    *Player
	Returning bool
}

// Join resolves a connecting client to a player. A token naming a known
// player re-attaches to that player; anything else, including an empty or
// stale token, creates a new one at the end of the turn order.
//
// A player who joins a running game is dealt a hand right away. If the deck
// can't cover it the session halts and the halt event is returned.
func (s *State) Join(token string) (JoinResult, []Event, error) {
	if p := s.Players[token]; token != "" && p != nil {
		p.IsConnected = true
		return JoinResult{Player: p, Returning: true}, nil, nil
	}

	p := &Player{
		ID:          s.newID(),
		IsHost:      len(s.Order) == 0,
		IsConnected: true,
		Hand:        []string{},
		WonPrompts:  []string{},
	}
	s.Players[p.ID] = p
	s.Order = append(s.Order, p.ID)

	if !s.Active || s.Round.Phase == PhaseHalted {
		return JoinResult{Player: p}, nil, nil
	}

	hand, err := s.Deck.DealResponses(s.Rules.HandSize)
	if err != nil {
		events, herr := s.halt(fmt.Errorf("dealing to late joiner %s: %w", p.ID, err))
		return JoinResult{Player: p}, events, herr
	}
	p.Hand = hand
	// Someone new owes a submission, so the round is open again.
	if s.Round.Phase == PhaseAwaitingJudgment {
		s.Round.Phase = PhaseAwaitingSubmissions
	}
	return JoinResult{Player: p}, nil, nil
}

// Disconnect marks the player as gone. When nobody is left connected the
// whole session is torn down and torndown is true.
func (s *State) Disconnect(playerID string) (torndown bool) {
	p := s.Players[playerID]
	if p == nil {
		return false
	}
	p.IsConnected = false
	if s.ConnectedCount() > 0 {
		return false
	}
	s.reset()
	return true
}
