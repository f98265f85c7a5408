package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/cah-server/internal/config"
	"github.com/DoyleJ11/cah-server/internal/lobby"
	"github.com/DoyleJ11/cah-server/internal/ws"
)

// SetupRoutes builds the router. rounds may be nil when no archive database
// is configured; /api/rounds is then not mounted.
func SetupRoutes(l *lobby.Lobby, cfg config.Config, log *zap.Logger, rounds RoundLister) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(l, cfg, log.Named("ws")))

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", Session(l, log))
		if rounds != nil {
			r.Get("/rounds", Rounds(rounds, log))
		}
	})
	return r
}
