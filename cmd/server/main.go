package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/cah-server/internal/archive"
	"github.com/DoyleJ11/cah-server/internal/cards"
	"github.com/DoyleJ11/cah-server/internal/config"
	"github.com/DoyleJ11/cah-server/internal/engine"
	"github.com/DoyleJ11/cah-server/internal/httpapi"
	"github.com/DoyleJ11/cah-server/internal/lobby"
	"github.com/DoyleJ11/cah-server/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := loadCards(cfg.CardsFile)
	if err != nil {
		return err
	}
	logger.Info("cards loaded", zap.Int("black", len(src.Prompts)), zap.Int("white", len(src.Responses)))

	sinks, rounds, err := openSinks(cfg, logger)
	if err != nil {
		return err
	}
	var rec *archive.Recorder
	if len(sinks) > 0 {
		rec = archive.NewRecorder(logger.Named("archive"), 0, sinks...)
		defer func() { err = multierr.Append(err, rec.Close()) }()
	}

	opts := lobby.Options{
		Source:           src,
		Rules:            engine.Rules{HandSize: cfg.HandSize},
		Logger:           logger.Named("lobby"),
		NotifyRejections: cfg.NotifyRejections,
	}
	if rec != nil {
		opts.Recorder = rec
	}
	l := lobby.NewLobby(ctx, opts)

	// Build the router *with* the lobby injected
	var lister httpapi.RoundLister
	if rounds != nil {
		lister = rounds
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.SetupRoutes(l, cfg, logger, lister),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		l.Send(shutdownCtx, lobby.Shutdown{})
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func loadCards(path string) (cards.Source, error) {
	if path == "" {
		return cards.Default()
	}
	return cards.Load(path)
}

// openSinks connects the configured archive backends. The postgres sink is
// also returned on its own so the HTTP layer can list recent rounds.
func openSinks(cfg config.Config, logger *zap.Logger) ([]archive.Sink, *archive.PostgresSink, error) {
	var sinks []archive.Sink
	var pg *archive.PostgresSink

	if cfg.DatabaseURL != "" {
		var err error
		pg, err = archive.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, pg)
		logger.Info("archiving rounds to postgres")
	}
	if cfg.NATSURL != "" {
		nc, err := archive.ConnectNATS(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			for _, s := range sinks {
				err = multierr.Append(err, s.Close())
			}
			return nil, nil, err
		}
		sinks = append(sinks, nc)
		logger.Info("publishing rounds to nats", zap.String("subject", cfg.NATSSubject))
	}
	return sinks, pg, nil
}
