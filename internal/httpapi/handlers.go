package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/DoyleJ11/cah-server/internal/archive"
	"github.com/DoyleJ11/cah-server/internal/lobby"
	"github.com/DoyleJ11/cah-server/internal/types"
)

const (
	defaultRoundsLimit = 20
	maxRoundsLimit     = 200
)

// RoundLister reads back archived rounds. archive.PostgresSink satisfies it.
type RoundLister interface {
	Recent(ctx context.Context, n int) ([]archive.RoundRecord, error)
}

type sessionResponse struct {
	Clients   int            `json:"clients"`
	Game      types.Game     `json:"game"`
	Players   []types.Player `json:"players"`
	BlackLeft int            `json:"blackCardsLeft"`
	WhiteLeft int            `json:"whiteCardsLeft"`
}

func Session(l *lobby.Lobby, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := l.State(r.Context())
		if err != nil {
			log.Warn("session state unavailable", zap.Error(err))
			http.Error(w, "session unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{
			Clients:   v.NumClients,
			Game:      v.Game,
			Players:   v.Players,
			BlackLeft: v.PromptsLeft,
			WhiteLeft: v.ResponsesLeft,
		})
	}
}

// Rounds lists the most recent archived rounds, newest first.
func Rounds(rounds RoundLister, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultRoundsLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				http.Error(w, "bad limit", http.StatusBadRequest)
				return
			}
			limit = min(n, maxRoundsLimit)
		}

		recs, err := rounds.Recent(r.Context(), limit)
		if err != nil {
			log.Error("listing rounds", zap.Error(err))
			http.Error(w, "failed to list rounds", http.StatusInternalServerError)
			return
		}
		if recs == nil {
			recs = []archive.RoundRecord{}
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
