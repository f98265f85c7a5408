package lobby

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/cah-server/internal/archive"
	"github.com/DoyleJ11/cah-server/internal/cards"
	"github.com/DoyleJ11/cah-server/internal/deck"
	"github.com/DoyleJ11/cah-server/internal/engine"
	"github.com/DoyleJ11/cah-server/internal/types"
)

var ErrWrongPlayer = errors.New("payload names a different player")

type Msg interface{ isLobbyMsg() }

// Connect attaches a connection. Token is the reconnect token the client
// presented, empty if none. Reply, if set, must have room for one value.
type Connect struct {
	ConnID string
	Token  string
	Outbox chan types.ServerMessage
	Reply  chan Joined
}

func (Connect) isLobbyMsg() {}

type Joined struct {
	PlayerID  string
	Returning bool
}

type Leave struct{ ConnID string }

func (Leave) isLobbyMsg() {}

type FromClient struct {
	ConnID string
	Msg    types.ClientMessage
}

func (FromClient) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// View is a copy of the session safe to read outside the loop.
type View struct {
	NumClients    int
	Game          types.Game
	Players       []types.Player
	PromptsLeft   int
	ResponsesLeft int
}

// RoundRecorder receives finished rounds. archive.Recorder satisfies it.
type RoundRecorder interface {
	Enqueue(res archive.RoundResult) bool
}

type Options struct {
	Source           cards.Source
	Rules            engine.Rules
	Deck             *deck.Deck
	Recorder         RoundRecorder
	Logger           *zap.Logger
	NotifyRejections bool
}

type client struct {
	playerID string
	outbox   chan types.ServerMessage
}

// Lobby owns the one game session. Every read and write of the session
// happens on the loop goroutine.
type Lobby struct {
	inbox    chan Msg
	state    *engine.State
	clients  map[string]*client // connID -> client
	byPlayer map[string]string  // playerID -> connID
	dropped  []string
	recorder RoundRecorder
	notify   bool
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewLobby(parent context.Context, opts Options) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	l := &Lobby{
		inbox:    make(chan Msg, 64), // Small buffer
		state:    engine.NewState(opts.Source, opts.Deck, opts.Rules),
		clients:  make(map[string]*client),
		byPlayer: make(map[string]string),
		recorder: opts.Recorder,
		notify:   opts.NotifyRejections,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Connect:
				l.connect(msg)

			case Leave:
				l.detach(msg.ConnID)

			case FromClient:
				l.fromClient(msg)

			case GetState:
				msg.Reply <- l.view()

			case Shutdown:
				l.shutdown()
				return
			}
			l.flushDropped()
		}
	}
}

func (l *Lobby) connect(msg Connect) {
	res, events, err := l.state.Join(msg.Token)
	p := res.Player

	// One open connection per player: a reconnect replaces the old socket.
	if old, ok := l.byPlayer[p.ID]; ok && old != msg.ConnID {
		if c := l.clients[old]; c != nil {
			close(c.outbox)
			delete(l.clients, old)
		}
	}
	l.clients[msg.ConnID] = &client{playerID: p.ID, outbox: msg.Outbox}
	l.byPlayer[p.ID] = msg.ConnID

	if msg.Reply != nil {
		msg.Reply <- Joined{PlayerID: p.ID, Returning: res.Returning}
	}
	l.log.Info("player connected",
		zap.String("conn", msg.ConnID),
		zap.String("player", p.ID),
		zap.Bool("returning", res.Returning),
		zap.Bool("host", p.IsHost))

	if res.Returning {
		l.sendTo(p.ID, types.ReturnUser(gameView(l.state), playerView(p)))
	} else {
		l.sendTo(p.ID, types.UserInit(playerView(p)))
		if l.state.Active && l.state.Round.Phase != engine.PhaseHalted {
			l.sendTo(p.ID, types.GameStart(l.state.Round.JudgeID, l.state.Round.Prompt, clone(p.Hand)))
		}
	}
	if l.state.Round.Phase == engine.PhaseHalted && len(events) == 0 {
		l.sendTo(p.ID, types.GameError(codeDeckExhausted, "the deck has run out of cards"))
	}

	l.deliver(events)
	if err != nil {
		l.log.Warn("join failed to deal a hand", zap.String("player", p.ID), zap.Error(err))
	}
}

// detach removes a connection. The player is only marked disconnected if
// this was still their current connection.
func (l *Lobby) detach(connID string) {
	c := l.clients[connID]
	if c == nil {
		return
	}
	close(c.outbox)
	delete(l.clients, connID)

	if l.byPlayer[c.playerID] != connID {
		return
	}
	delete(l.byPlayer, c.playerID)

	torndown := l.state.Disconnect(c.playerID)
	l.log.Info("player disconnected", zap.String("conn", connID), zap.String("player", c.playerID))
	if torndown {
		l.log.Info("last player left, session reset")
	}
}

func (l *Lobby) fromClient(msg FromClient) {
	c := l.clients[msg.ConnID]
	if c == nil {
		l.log.Debug("message from unknown connection", zap.String("conn", msg.ConnID))
		return
	}

	cmd, err := toEngineCommand(c.playerID, msg.Msg)
	if err != nil {
		l.reject(c.playerID, err)
		return
	}
	if cmd.Type == "" {
		return
	}

	events, err := engine.Apply(l.state, cmd)
	l.deliver(events)
	if err == nil {
		return
	}
	if engine.IsInvalidTransition(err) {
		l.reject(c.playerID, err)
		return
	}
	l.log.Error("session halted", zap.String("player", c.playerID), zap.Error(err))
}

func (l *Lobby) reject(playerID string, err error) {
	l.log.Debug("rejected action", zap.String("player", playerID), zap.Error(err))
	if l.notify {
		l.sendTo(playerID, types.Rejected(rejectCode(err), err.Error()))
	}
}

// toEngineCommand maps a wire message onto a command for the sender. A zero
// Command with no error means there is nothing to apply.
func toEngineCommand(sender string, m types.ClientMessage) (engine.Command, error) {
	switch msg := m.(type) {
	case types.StartGame:
		return engine.Command{Type: engine.CmdStartGame, PlayerID: sender}, nil
	case types.PlayCard:
		if msg.PlayerID != "" && msg.PlayerID != sender {
			return engine.Command{}, ErrWrongPlayer
		}
		return engine.Command{Type: engine.CmdPlayCards, PlayerID: sender, Indices: msg.Cards}, nil
	case types.SelectWinner:
		if msg.PlayerTurn != "" && msg.PlayerTurn != sender {
			return engine.Command{}, engine.ErrNotJudge
		}
		return engine.Command{Type: engine.CmdSelectWinner, PlayerID: sender, WinnerID: msg.PlayerID}, nil
	default:
		// verifyUser only matters during the handshake
		return engine.Command{}, nil
	}
}

func (l *Lobby) view() View {
	v := View{
		NumClients:    len(l.clients),
		Game:          gameView(l.state),
		Players:       make([]types.Player, 0, len(l.state.Order)),
		PromptsLeft:   l.state.Deck.PromptsLeft(),
		ResponsesLeft: l.state.Deck.ResponsesLeft(),
	}
	for _, id := range l.state.Order {
		v.Players = append(v.Players, playerView(l.state.Players[id]))
	}
	return v
}

func (l *Lobby) shutdown() {
	for id, c := range l.clients {
		close(c.outbox) // Tell client no more messages
		delete(l.clients, id)
	}
	clear(l.byPlayer)
	l.cancel()
}

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Send delivers m to the loop, giving up once the lobby has stopped.
func (l *Lobby) Send(ctx context.Context, m Msg) bool {
	if l.ctx.Err() != nil {
		return false
	}
	select {
	case l.inbox <- m:
		return true
	case <-l.ctx.Done():
		return false
	case <-ctx.Done():
		return false
	}
}

func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }

// State asks the loop for a View.
func (l *Lobby) State(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if !l.Send(ctx, GetState{Reply: reply}) {
		return View{}, context.Canceled
	}
	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return View{}, ctx.Err()
	case <-l.ctx.Done():
		return View{}, context.Canceled
	}
}
