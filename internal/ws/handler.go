package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/cah-server/internal/config"
	"github.com/DoyleJ11/cah-server/internal/lobby"
	"github.com/DoyleJ11/cah-server/internal/types"
)

// Handler upgrades the request and attaches the socket to the lobby.
//
// A returning client passes its token as the websocket subprotocol or as the
// token query parameter. A client that sends neither is asked with checkUser
// and has cfg.HandshakeTimeout to answer with verifyUser before it is seated
// as a new player.
func Handler(l *lobby.Lobby, cfg config.Config, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		token, fromProtocol := tokenFrom(r)

		opts := &websocket.AcceptOptions{OriginPatterns: cfg.AllowedOrigins}
		if fromProtocol {
			// Browsers fail the upgrade unless the offered protocol is echoed.
			opts.Subprotocols = []string{token}
		}
		conn, err := websocket.Accept(w, r, opts)
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()
		log := log.With(zap.String("conn", connID))

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		frames := make(chan []byte)
		go readFrames(ctx, conn, frames, log)

		var pending []byte
		if token == "" {
			var ok bool
			token, pending, ok = handshake(ctx, conn, frames, cfg)
			if !ok {
				return
			}
		}

		out := make(chan types.ServerMessage, cfg.OutboxSize)
		reply := make(chan lobby.Joined, 1)
		if !l.Send(ctx, lobby.Connect{ConnID: connID, Token: token, Outbox: out, Reply: reply}) {
			return
		}
		defer l.Send(context.Background(), lobby.Leave{ConnID: connID})

		var joined lobby.Joined
		select {
		case joined = <-reply:
		case <-l.Done():
			return
		case <-ctx.Done():
			return
		}
		log.Debug("attached", zap.String("player", joined.PlayerID), zap.Bool("returning", joined.Returning))

		// Writer goroutine
		go func() {
			defer cancel()
			for msg := range out {
				data, err := types.Encode(msg)
				if err != nil {
					log.Error("encode failed", zap.String("type", string(msg.Type)), zap.Error(err))
					continue
				}
				if err := write(ctx, conn, data, cfg.WriteTimeout); err != nil {
					log.Debug("write failed", zap.Error(err))
					return
				}
			}
			// The lobby closed the outbox, so this socket is finished.
			conn.Close(websocket.StatusNormalClosure, "session closed")
		}()

		if pending != nil {
			forward(ctx, l, connID, pending, log)
		}
		// Reader loop
		for data := range frames {
			forward(ctx, l, connID, data, log)
		}
	}
}

// tokenFrom reports the reconnect token and whether it came in as a
// subprotocol.
func tokenFrom(r *http.Request) (string, bool) {
	if h := r.Header.Get("Sec-WebSocket-Protocol"); h != "" {
		first, _, _ := strings.Cut(h, ",")
		if first = strings.TrimSpace(first); first != "" && first != "null" {
			return first, true
		}
	}
	return r.URL.Query().Get("token"), false
}

// handshake asks an anonymous client for its token. A frame that is not
// verifyUser is handed back as pending so it is processed after the join.
func handshake(ctx context.Context, conn *websocket.Conn, frames <-chan []byte, cfg config.Config) (token string, pending []byte, ok bool) {
	data, err := types.Encode(types.CheckUser())
	if err != nil {
		return "", nil, false
	}
	if err := write(ctx, conn, data, cfg.WriteTimeout); err != nil {
		return "", nil, false
	}

	timer := time.NewTimer(cfg.HandshakeTimeout)
	defer timer.Stop()
	select {
	case frame, open := <-frames:
		if !open {
			return "", nil, false
		}
		m, err := types.DecodeClient(frame)
		if err == nil {
			if v, isVerify := m.(types.VerifyUser); isVerify {
				return v.Token, nil, true
			}
		}
		return "", frame, true
	case <-timer.C:
		return "", nil, true
	case <-ctx.Done():
		return "", nil, false
	}
}

func forward(ctx context.Context, l *lobby.Lobby, connID string, data []byte, log *zap.Logger) {
	m, err := types.DecodeClient(data)
	if err != nil {
		log.Debug("ignoring malformed message", zap.Error(err))
		return
	}
	l.Send(ctx, lobby.FromClient{ConnID: connID, Msg: m})
}

// readFrames feeds inbound frames to the handler until the socket fails.
func readFrames(ctx context.Context, conn *websocket.Conn, frames chan<- []byte, log *zap.Logger) {
	defer close(frames)
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			// Treat clean close/going-away as normal
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if !errors.Is(err, context.Canceled) {
					log.Debug("read failed", zap.Error(err))
				}
			}
			return
		}
		select {
		case frames <- data:
		case <-ctx.Done():
			return
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, data []byte, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
