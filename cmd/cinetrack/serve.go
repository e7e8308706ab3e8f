package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cinetrack/cinetrack/internal/api"
	"github.com/cinetrack/cinetrack/internal/config"
	"github.com/cinetrack/cinetrack/internal/health"
	"github.com/cinetrack/cinetrack/internal/startup"
	"github.com/cinetrack/cinetrack/internal/websocket"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			return runServer(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Override the configured port")
	return cmd
}

func runServer(parent context.Context, cfg *config.Config) error {
	log := newLogger(cfg, true)
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting cinetrack")

	dbManager, err := openDatabase(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize database")
		return err
	}
	defer dbManager.Close()

	hub := websocket.NewHub(log.Logger)
	go hub.Run()
	defer hub.Stop()

	log.SetBroadcastHub(hub)

	server, err := api.NewServer(dbManager, hub, cfg, log.Logger)
	if err != nil {
		return err
	}
	server.SetLogsProvider(log)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The catalog may come up after us; the server runs either way and the
	// health registry carries the failure.
	go func() {
		err := startup.Retry(ctx, "catalog probe", startup.DefaultRetryConfig(), server.Metadata().Probe, log.Logger)
		if err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("catalog unreachable, adds and refreshes will fail until it recovers")
			server.Health().SetError(health.CategoryCatalog, "tmdb", err.Error())
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.Server.Address())
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped unexpectedly")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
		return err
	}

	log.Info().Msg("server stopped")
	return nil
}
