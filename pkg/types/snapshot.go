package types

// Player:
//   playerID: string // also the reconnect token
//   host: boolean
//   isConnected: boolean
//   blackCards: string[] // prompts won
//   whiteCards: string[] // hand
//
// Game:
//   isActive: boolean
//   phase: "lobby" | "dealing" | "awaitingSubmissions" | "awaitingJudgment" | "halted"
//   playerTurn: string // judge
//   inPlayCards:
//     blackCard: { text: string, pick: number } | null
//     whiteCards: [{ playerID: string, cards: string[] }]
