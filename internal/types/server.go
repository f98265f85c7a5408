package types

import (
	"encoding/json"
	"fmt"

	"github.com/DoyleJ11/cah-server/internal/cards"
)

// Server -> Client

type ServerMessageType string

const (
	TypeUserInit        ServerMessageType = "userInit"
	TypeReturnUser      ServerMessageType = "returnUser"
	TypeGameStart       ServerMessageType = "startGame"
	TypeWhitePlayed     ServerMessageType = "whitePlayed"
	TypeWhiteCardUpdate ServerMessageType = "whiteCardUpdate"
	TypeNextPlayer      ServerMessageType = "nextPlayer"
	TypeWonBlack        ServerMessageType = "wonBlack"
	TypeCheckUser       ServerMessageType = "checkUser"
	TypeGameError       ServerMessageType = "gameError"
	TypeRejected        ServerMessageType = "rejected"
)

type ServerMessage struct {
	Type    ServerMessageType `json:"type"`
	Payload any               `json:"payload"`
}

type Player struct {
	PlayerID    string   `json:"playerID"`
	Host        bool     `json:"host"`
	IsConnected bool     `json:"isConnected"`
	BlackCards  []string `json:"blackCards"`
	WhiteCards  []string `json:"whiteCards"`
}

type Played struct {
	PlayerID string   `json:"playerID"`
	Cards    []string `json:"cards"`
}

type InPlay struct {
	BlackCard  *cards.PromptCard `json:"blackCard"`
	WhiteCards []Played          `json:"whiteCards"`
}

type Game struct {
	IsActive    bool   `json:"isActive"`
	Phase       string `json:"phase"`
	PlayerTurn  string `json:"playerTurn"`
	InPlayCards InPlay `json:"inPlayCards"`
}

type ReturnUserPayload struct {
	Game   Game   `json:"game"`
	Player Player `json:"player"`
}

type GameStartPayload struct {
	PlayerTurn string           `json:"playerTurn"`
	BlackCard  cards.PromptCard `json:"blackCard"`
	WhiteCards []string         `json:"whiteCards"`
}

type WhitePlayedPayload struct {
	WhiteCards []Played `json:"whiteCards"`
}

type Winner struct {
	BlackCard  string   `json:"blackCard"`
	WhiteCards []string `json:"whiteCards"`
}

type NextPlayerPayload struct {
	Game   Game   `json:"game"`
	Winner Winner `json:"winner"`
}

type WonBlackPayload struct {
	BlackCards []string `json:"blackCards"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func UserInit(p Player) ServerMessage {
	return ServerMessage{Type: TypeUserInit, Payload: p}
}

func ReturnUser(g Game, p Player) ServerMessage {
	return ServerMessage{Type: TypeReturnUser, Payload: ReturnUserPayload{Game: g, Player: p}}
}

func GameStart(judge string, prompt cards.PromptCard, hand []string) ServerMessage {
	return ServerMessage{Type: TypeGameStart, Payload: GameStartPayload{PlayerTurn: judge, BlackCard: prompt, WhiteCards: hand}}
}

func WhitePlayed(playerID string, played []string) ServerMessage {
	return ServerMessage{Type: TypeWhitePlayed, Payload: WhitePlayedPayload{
		WhiteCards: []Played{{PlayerID: playerID, Cards: played}},
	}}
}

func WhiteCardUpdate(hand []string) ServerMessage {
	return ServerMessage{Type: TypeWhiteCardUpdate, Payload: hand}
}

func NextPlayer(g Game, w Winner) ServerMessage {
	return ServerMessage{Type: TypeNextPlayer, Payload: NextPlayerPayload{Game: g, Winner: w}}
}

func WonBlack(won []string) ServerMessage {
	return ServerMessage{Type: TypeWonBlack, Payload: WonBlackPayload{BlackCards: won}}
}

func CheckUser() ServerMessage {
	return ServerMessage{Type: TypeCheckUser}
}

func GameError(code, message string) ServerMessage {
	return ServerMessage{Type: TypeGameError, Payload: ErrorPayload{Code: code, Message: message}}
}

func Rejected(code, message string) ServerMessage {
	return ServerMessage{Type: TypeRejected, Payload: ErrorPayload{Code: code, Message: message}}
}

func Encode(m ServerMessage) ([]byte, error) {
	return json.Marshal(m)
}

// DecodeServer parses an outbound frame back into its typed payload.
func DecodeServer(data []byte) (ServerMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ServerMessage{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	t := ServerMessageType(env.Type)

	var err error
	var payload any
	switch t {
	case TypeUserInit:
		payload, err = decodeAs[Player](env.Payload)
	case TypeReturnUser:
		payload, err = decodeAs[ReturnUserPayload](env.Payload)
	case TypeGameStart:
		payload, err = decodeAs[GameStartPayload](env.Payload)
	case TypeWhitePlayed:
		payload, err = decodeAs[WhitePlayedPayload](env.Payload)
	case TypeWhiteCardUpdate:
		payload, err = decodeAs[[]string](env.Payload)
	case TypeNextPlayer:
		payload, err = decodeAs[NextPlayerPayload](env.Payload)
	case TypeWonBlack:
		payload, err = decodeAs[WonBlackPayload](env.Payload)
	case TypeGameError, TypeRejected:
		payload, err = decodeAs[ErrorPayload](env.Payload)
	case TypeCheckUser:
	default:
		return ServerMessage{}, fmt.Errorf("%w: unknown type %q", ErrMalformedMessage, env.Type)
	}
	if err != nil {
		return ServerMessage{}, err
	}
	return ServerMessage{Type: t, Payload: payload}, nil
}

func decodeAs[T any](raw json.RawMessage) (T, error) {
	var v T
	err := decodePayload(raw, &v)
	return v, err
}
