package lobby

import (
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/cah-server/internal/archive"
	"github.com/DoyleJ11/cah-server/internal/deck"
	"github.com/DoyleJ11/cah-server/internal/engine"
	"github.com/DoyleJ11/cah-server/internal/types"
)

const codeDeckExhausted = "deckExhausted"

// deliver turns engine events into outbound messages.
//
//	GameStarted   -> startGame to everyone, each with their own hand
//	CardsPlayed   -> whitePlayed to everyone
//	HandUpdated   -> whiteCardUpdate to the submitter
//	RoundWon      -> nextPlayer to everyone
//	PromptWon     -> wonBlack to the winner
//	SessionHalted -> gameError to everyone
func (l *Lobby) deliver(events []engine.Event) {
	s := l.state
	for _, ev := range events {
		switch ev.Type {
		case engine.EvtGameStarted:
			for connID, c := range l.clients {
				hand := clone(s.Players[c.playerID].Hand)
				l.send(connID, c, types.GameStart(ev.JudgeID, ev.Prompt, hand))
			}
			l.log.Info("game started", zap.String("judge", ev.JudgeID), zap.Int("players", len(s.Order)))

		case engine.EvtCardsPlayed:
			l.broadcast(types.WhitePlayed(ev.PlayerID, clone(ev.Cards)))

		case engine.EvtHandUpdated:
			l.sendTo(ev.PlayerID, types.WhiteCardUpdate(clone(s.Players[ev.PlayerID].Hand)))

		case engine.EvtAllSubmitted:
			l.log.Debug("all cards in", zap.String("judge", s.Round.JudgeID))

		case engine.EvtRoundWon:
			l.broadcast(types.NextPlayer(gameView(s), types.Winner{
				BlackCard:  ev.Prompt.Text,
				WhiteCards: clone(ev.Cards),
			}))
			l.record(ev)
			l.log.Info("round won",
				zap.String("winner", ev.PlayerID),
				zap.String("judge", ev.JudgeID),
				zap.String("nextJudge", s.Round.JudgeID))

		case engine.EvtPromptWon:
			l.sendTo(ev.PlayerID, types.WonBlack(clone(s.Players[ev.PlayerID].WonPrompts)))

		case engine.EvtSessionHalted:
			code := "sessionHalted"
			if errors.Is(ev.Err, deck.ErrDeckExhausted) {
				code = codeDeckExhausted
			}
			l.broadcast(types.GameError(code, ev.Err.Error()))
		}
	}
}

func (l *Lobby) record(ev engine.Event) {
	if l.recorder == nil {
		return
	}
	l.recorder.Enqueue(archive.RoundResult{
		ID:          uuid.NewString(),
		Prompt:      ev.Prompt.Text,
		Pick:        ev.Prompt.Pick,
		JudgeID:     ev.JudgeID,
		WinnerID:    ev.PlayerID,
		Cards:       clone(ev.Cards),
		Submissions: ev.Submitted,
		DecidedAt:   time.Now().UTC(),
	})
}

// sendTo delivers to the player's open connection, if there is one.
func (l *Lobby) sendTo(playerID string, msg types.ServerMessage) {
	connID, ok := l.byPlayer[playerID]
	if !ok {
		return
	}
	if c := l.clients[connID]; c != nil {
		l.send(connID, c, msg)
	}
}

func (l *Lobby) broadcast(msg types.ServerMessage) {
	for connID, c := range l.clients {
		l.send(connID, c, msg)
	}
}

func (l *Lobby) send(connID string, c *client, msg types.ServerMessage) {
	if slices.Contains(l.dropped, connID) {
		return
	}
	select {
	case c.outbox <- msg:
		//ok
	default:
		// Client is slow/full - drop them once this message is processed.
		l.log.Warn("dropping slow client", zap.String("conn", connID), zap.String("player", c.playerID))
		l.dropped = append(l.dropped, connID)
	}
}

func (l *Lobby) flushDropped() {
	for _, connID := range l.dropped {
		l.detach(connID)
	}
	l.dropped = l.dropped[:0]
}

func gameView(s *engine.State) types.Game {
	g := types.Game{
		IsActive:   s.Active,
		Phase:      string(s.Round.Phase),
		PlayerTurn: s.Round.JudgeID,
		InPlayCards: types.InPlay{
			WhiteCards: make([]types.Played, 0, len(s.Round.Submissions)),
		},
	}
	if s.Active {
		prompt := s.Round.Prompt
		g.InPlayCards.BlackCard = &prompt
	}
	for _, sub := range s.Round.Submissions {
		g.InPlayCards.WhiteCards = append(g.InPlayCards.WhiteCards, types.Played{
			PlayerID: sub.PlayerID,
			Cards:    clone(sub.Cards),
		})
	}
	return g
}

func playerView(p *engine.Player) types.Player {
	return types.Player{
		PlayerID:    p.ID,
		Host:        p.IsHost,
		IsConnected: p.IsConnected,
		BlackCards:  clone(p.WonPrompts),
		WhiteCards:  clone(p.Hand),
	}
}

// clone copies a slice that is about to leave the loop goroutine. Hands are
// edited in place, so a queued message must never share their backing array.
func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func rejectCode(err error) string {
	switch {
	case errors.Is(err, engine.ErrWrongPhase):
		return "wrongPhase"
	case errors.Is(err, engine.ErrNotHost):
		return "notHost"
	case errors.Is(err, engine.ErrNotJudge):
		return "notJudge"
	case errors.Is(err, engine.ErrJudgeCannotPlay):
		return "judgeCannotPlay"
	case errors.Is(err, engine.ErrAlreadySubmitted):
		return "alreadySubmitted"
	case errors.Is(err, engine.ErrWrongCardCount):
		return "wrongCardCount"
	case errors.Is(err, engine.ErrBadCardIndex):
		return "badCardIndex"
	case errors.Is(err, engine.ErrNoSubmission):
		return "noSubmission"
	case errors.Is(err, engine.ErrSessionHalted):
		return "sessionHalted"
	case errors.Is(err, ErrWrongPlayer):
		return "wrongPlayer"
	default:
		return "invalid"
	}
}
