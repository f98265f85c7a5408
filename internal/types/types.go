package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DoyleJ11/cah-server/internal/cards"
)

var ErrMalformedMessage = errors.New("malformed message")

// Every frame on the socket, in both directions, is {"type": ..., "payload": ...}.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Client -> Server

const (
	TypeStartGame    = "startGame"
	TypePlayCard     = "playCard"
	TypeSelectWinner = "selectWinner"
	TypeVerifyUser   = "verifyUser"
)

// ClientMessage is one of StartGame, PlayCard, SelectWinner or VerifyUser.
type ClientMessage interface{ isClientMessage() }

type StartGame struct{}

type PlayCard struct {
	PlayerID string `json:"playerID"`
	Cards    []int  `json:"cards"`
}

type SelectWinner struct {
	PlayerID   string           `json:"playerID"`   // winner
	PlayerTurn string           `json:"playerTurn"` // judge
	BlackCard  cards.PromptCard `json:"blackCard"`
	Cards      []string         `json:"cards"`
}

type VerifyUser struct {
	Token string
}

func (StartGame) isClientMessage()    {}
func (PlayCard) isClientMessage()     {}
func (SelectWinner) isClientMessage() {}
func (VerifyUser) isClientMessage()   {}

// DecodeClient parses one inbound frame. Bad JSON, an unknown type or a
// payload of the wrong shape all come back as ErrMalformedMessage.
func DecodeClient(data []byte) (ClientMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch env.Type {
	case TypeStartGame:
		return StartGame{}, nil

	case TypePlayCard:
		var m PlayCard
		if err := decodePayload(env.Payload, &m); err != nil {
			return nil, err
		}
		if m.Cards == nil {
			return nil, fmt.Errorf("%w: playCard without cards", ErrMalformedMessage)
		}
		return m, nil

	case TypeSelectWinner:
		var m SelectWinner
		if err := decodePayload(env.Payload, &m); err != nil {
			return nil, err
		}
		if m.PlayerID == "" {
			return nil, fmt.Errorf("%w: selectWinner without a winner", ErrMalformedMessage)
		}
		return m, nil

	case TypeVerifyUser:
		var token *string
		if err := decodePayload(env.Payload, &token); err != nil {
			return nil, err
		}
		if token == nil {
			return VerifyUser{}, nil
		}
		return VerifyUser{Token: *token}, nil

	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformedMessage, env.Type)
	}
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		raw = []byte("null")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return nil
}

// EncodeClient is the client side of DecodeClient, used by tests and tools.
func EncodeClient(m ClientMessage) ([]byte, error) {
	var env struct {
		Type    string `json:"type"`
		Payload any    `json:"payload"`
	}
	switch msg := m.(type) {
	case StartGame:
		env.Type = TypeStartGame
	case PlayCard:
		env.Type, env.Payload = TypePlayCard, msg
	case SelectWinner:
		env.Type, env.Payload = TypeSelectWinner, msg
	case VerifyUser:
		env.Type, env.Payload = TypeVerifyUser, msg.Token
	default:
		return nil, fmt.Errorf("%w: %T", ErrMalformedMessage, m)
	}
	return json.Marshal(env)
}
