package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/DoyleJ11/cah-server/internal/cards"
	"github.com/DoyleJ11/cah-server/internal/deck"
)

var ErrWrongPhase = errors.New("action not allowed in this phase")
var ErrNotHost = errors.New("only the host can start the game")
var ErrNotJudge = errors.New("only the judge can pick a winner")
var ErrJudgeCannotPlay = errors.New("the judge does not play cards")
var ErrAlreadySubmitted = errors.New("already submitted this round")
var ErrWrongCardCount = errors.New("wrong number of cards")
var ErrBadCardIndex = errors.New("bad card index")
var ErrUnknownPlayer = errors.New("unknown player")
var ErrNoSubmission = errors.New("player has no submission this round")
var ErrSessionHalted = errors.New("session halted")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Phase string

const (
	PhaseLobby               Phase = "lobby"
	PhaseDealing             Phase = "dealing"
	PhaseAwaitingSubmissions Phase = "awaitingSubmissions"
	PhaseAwaitingJudgment    Phase = "awaitingJudgment"
	PhaseHalted              Phase = "halted"
)

type Player struct {
	ID          string
	IsHost      bool
	IsConnected bool
	Hand        []string
	WonPrompts  []string
}

type Submission struct {
	PlayerID string
	Cards    []string
}

type Round struct {
	Phase       Phase
	JudgeID     string
	Prompt      cards.PromptCard
	Submissions []Submission
}

type Rules struct {
	HandSize int
}

// State is the whole game session. Order is the turn order; Players is keyed
// by the same IDs.
type State struct {
	Players map[string]*Player
	Order   []string
	Deck    *deck.Deck
	Source  cards.Source
	Round   Round
	Active  bool
	Rules   Rules

	newID func() string
}

type CommandType string

const (
	CmdStartGame    CommandType = "StartGame"
	CmdPlayCards    CommandType = "PlayCards"
	CmdSelectWinner CommandType = "SelectWinner"
)

/*
	CmdStartGame    -> EvtGameStarted                      (or EvtSessionHalted)
	CmdPlayCards    -> EvtCardsPlayed -> EvtHandUpdated [-> EvtAllSubmitted]
	CmdSelectWinner -> EvtRoundWon -> EvtPromptWon        [-> EvtSessionHalted]
*/

// Command is a validated client intent. PlayerID is always the sender as
// resolved by the registry, never a value taken from the payload.
type Command struct {
	Type     CommandType
	PlayerID string
	Indices  []int
	WinnerID string
}

type EventType string

const (
	EvtGameStarted   EventType = "GameStarted"
	EvtCardsPlayed   EventType = "CardsPlayed"
	EvtHandUpdated   EventType = "HandUpdated"
	EvtAllSubmitted  EventType = "AllSubmitted"
	EvtRoundWon      EventType = "RoundWon"
	EvtPromptWon     EventType = "PromptWon"
	EvtSessionHalted EventType = "SessionHalted"
)

// Event describes one applied transition. For EvtRoundWon, Prompt is the card
// that was just won, JudgeID the judge who picked it and Submitted how many
// players had played.
type Event struct {
	Type      EventType
	PlayerID  string
	JudgeID   string
	Cards     []string
	Prompt    cards.PromptCard
	Submitted int
	Err       error
}

// Apply validates cmd against s and mutates s in place. A rejected command
// returns an error and leaves s untouched. Running out of cards is the one
// case that returns both events (the halt) and an error wrapping
// deck.ErrDeckExhausted.
func Apply(s *State, cmd Command) ([]Event, error) {
	if s.Round.Phase == PhaseHalted {
		return nil, ErrSessionHalted
	}
	p := s.Players[cmd.PlayerID]
	if p == nil {
		return nil, ErrUnknownPlayer
	}

	switch cmd.Type {
	case CmdStartGame:
		return startGame(s, p)
	case CmdPlayCards:
		return playCards(s, p, cmd.Indices)
	case CmdSelectWinner:
		return selectWinner(s, p, cmd.WinnerID)
	default:
		return nil, ErrUnsupportedCommand
	}
}

func startGame(s *State, p *Player) ([]Event, error) {
	if s.Round.Phase != PhaseLobby {
		return nil, ErrWrongPhase
	}
	if !p.IsHost {
		return nil, ErrNotHost
	}

	s.Round.Phase = PhaseDealing
	s.Deck.ShuffleAndLoad(s.Source)

	// Check the whole deal up front so no player ends up with a partial hand.
	need := s.Rules.HandSize * len(s.Order)
	if s.Deck.ResponsesLeft() < need || s.Deck.PromptsLeft() < 1 {
		return s.halt(fmt.Errorf("dealing %d white cards to %d players: %w", need, len(s.Order), deck.ErrDeckExhausted))
	}

	for _, id := range s.Order {
		hand, _ := s.Deck.DealResponses(s.Rules.HandSize)
		s.Players[id].Hand = hand
	}
	prompt, _ := s.Deck.DealPrompt()

	s.Active = true
	s.Round = Round{
		Phase:   PhaseAwaitingSubmissions,
		JudgeID: p.ID,
		Prompt:  prompt,
	}
	return []Event{{Type: EvtGameStarted, JudgeID: p.ID, Prompt: prompt}}, nil
}

func playCards(s *State, p *Player, indices []int) ([]Event, error) {
	if s.Round.Phase != PhaseAwaitingSubmissions {
		return nil, ErrWrongPhase
	}
	if p.ID == s.Round.JudgeID {
		return nil, ErrJudgeCannotPlay
	}
	if hasSubmitted(s.Round, p.ID) {
		return nil, ErrAlreadySubmitted
	}
	if len(indices) != s.Round.Prompt.Pick {
		return nil, ErrWrongCardCount
	}
	if !validIndices(p.Hand, indices) {
		return nil, ErrBadCardIndex
	}
	if s.Deck.ResponsesLeft() < len(indices) {
		return s.halt(fmt.Errorf("refilling hand of %s: %w", p.ID, deck.ErrDeckExhausted))
	}

	played := make([]string, len(indices))
	for i, ix := range indices {
		played[i] = p.Hand[ix]
	}
	fresh, _ := s.Deck.DealResponses(len(indices))
	for i, ix := range indices {
		p.Hand[ix] = fresh[i]
	}
	s.Round.Submissions = append(s.Round.Submissions, Submission{PlayerID: p.ID, Cards: played})

	events := []Event{
		{Type: EvtCardsPlayed, PlayerID: p.ID, Cards: played},
		{Type: EvtHandUpdated, PlayerID: p.ID},
	}
	if AllSubmitted(s) {
		s.Round.Phase = PhaseAwaitingJudgment
		events = append(events, Event{Type: EvtAllSubmitted})
	}
	return events, nil
}

func selectWinner(s *State, judge *Player, winnerID string) ([]Event, error) {
	if s.Round.Phase != PhaseAwaitingSubmissions && s.Round.Phase != PhaseAwaitingJudgment {
		return nil, ErrWrongPhase
	}
	if judge.ID != s.Round.JudgeID {
		return nil, ErrNotJudge
	}
	winner := s.Players[winnerID]
	if winner == nil {
		return nil, ErrUnknownPlayer
	}
	sub, ok := submissionOf(s.Round, winnerID)
	if !ok {
		return nil, ErrNoSubmission
	}

	won := s.Round.Prompt
	winner.WonPrompts = append(winner.WonPrompts, won.Text)
	events := []Event{
		{Type: EvtRoundWon, PlayerID: winnerID, JudgeID: judge.ID, Cards: sub.Cards, Prompt: won, Submitted: len(s.Round.Submissions)},
		{Type: EvtPromptWon, PlayerID: winnerID},
	}

	s.Round.Phase = PhaseDealing
	s.Round.JudgeID = s.Successor(judge.ID)
	s.Round.Submissions = nil

	prompt, err := s.Deck.DealPrompt()
	if err != nil {
		halted, herr := s.halt(fmt.Errorf("dealing next black card: %w", err))
		return append(events, halted...), herr
	}
	s.Round.Prompt = prompt
	s.Round.Phase = PhaseAwaitingSubmissions
	return events, nil
}

// halt puts the session into its terminal state. Only teardown leaves it.
func (s *State) halt(err error) ([]Event, error) {
	s.Round.Phase = PhaseHalted
	return []Event{{Type: EvtSessionHalted, Err: err}}, err
}

func hasSubmitted(r Round, id string) bool {
	_, ok := submissionOf(r, id)
	return ok
}

func submissionOf(r Round, id string) (Submission, bool) {
	for _, sub := range r.Submissions {
		if sub.PlayerID == id {
			return sub, true
		}
	}
	return Submission{}, false
}

func validIndices(hand []string, indices []int) bool {
	seen := make([]int, 0, len(indices))
	for _, ix := range indices {
		if ix < 0 || ix >= len(hand) || slices.Contains(seen, ix) {
			return false
		}
		seen = append(seen, ix)
	}
	return true
}
