package engine

import (
	"errors"

	"github.com/google/uuid"

	"github.com/DoyleJ11/cah-server/internal/cards"
	"github.com/DoyleJ11/cah-server/internal/deck"
)

const DefaultHandSize = 7

// NewState returns an empty session in the lobby. d may be nil.
func NewState(src cards.Source, d *deck.Deck, rules Rules) *State {
	if d == nil {
		d = deck.New(nil)
	}
	if rules.HandSize <= 0 {
		rules.HandSize = DefaultHandSize
	}
	return &State{
		Players: map[string]*Player{},
		Order:   []string{},
		Deck:    d,
		Source:  src,
		Round:   Round{Phase: PhaseLobby},
		Rules:   rules,
		newID:   uuid.NewString,
	}
}

// reset discards every player and the live deck, keeping the card source and
// rules for the next session.
func (s *State) reset() {
	s.Players = map[string]*Player{}
	s.Order = []string{}
	s.Deck.Reset()
	s.Round = Round{Phase: PhaseLobby}
	s.Active = false
}

// AllSubmitted reports whether every non-judge has a submission in the
// current round.
func AllSubmitted(s *State) bool {
	return len(s.Order) > 1 && len(s.Round.Submissions) >= len(s.Order)-1
}

// IsInvalidTransition reports whether err is an ordinary rejection of a
// client action, as opposed to a session-level failure.
func IsInvalidTransition(err error) bool {
	switch {
	case errors.Is(err, ErrWrongPhase),
		errors.Is(err, ErrNotHost),
		errors.Is(err, ErrNotJudge),
		errors.Is(err, ErrJudgeCannotPlay),
		errors.Is(err, ErrAlreadySubmitted),
		errors.Is(err, ErrWrongCardCount),
		errors.Is(err, ErrBadCardIndex),
		errors.Is(err, ErrUnknownPlayer),
		errors.Is(err, ErrNoSubmission),
		errors.Is(err, ErrSessionHalted),
		errors.Is(err, ErrUnsupportedCommand):
		return true
	}
	return false
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

func (s *State) ConnectedCount() int {
	n := 0
	for _, p := range s.Players {
		if p.IsConnected {
			n++
		}
	}
	return n
}
