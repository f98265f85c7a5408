// Package types documents the websocket protocol for client authors. The Go
// definitions live in internal/types.
package types

// Every frame is {"type": string, "payload": any}.

// Client -> Server
// verifyUser:
//   payload: string | null // reconnect token, null for a new player
//
// startGame: {} // host only, once
//
// playCard:
//   playerID: string // must be the sender
//   cards: number[]  // indices into the sender's hand, exactly blackCard.pick of them
//
// selectWinner: // judge only
//   playerID: string   // winner
//   playerTurn: string // the judge, must be the sender
//   blackCard: { text: string, pick: number }
//   cards: string[]

// Server -> Client
// checkUser: null // sent when the socket carried no token; answer with verifyUser
//
// userInit: Player
//
// returnUser:
//   game: Game
//   player: Player
//
// startGame:
//   playerTurn: string // judge
//   blackCard: { text: string, pick: number }
//   whiteCards: string[] // the receiver's own hand
//
// whitePlayed:
//   whiteCards: [{ playerID: string, cards: string[] }]
//
// whiteCardUpdate: string[] // the receiver's refilled hand
//
// nextPlayer:
//   game: Game
//   winner: { blackCard: string, whiteCards: string[] }
//
// wonBlack:
//   blackCards: string[] // every prompt the receiver has won
//
// gameError: // the session can't go on, e.g. code "deckExhausted"
//   code: string
//   message: string
//
// rejected: // only when NOTIFY_REJECTIONS is on
//   code: string
//   message: string
