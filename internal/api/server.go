// Package api assembles the HTTP server: middleware, the per-domain route
// groups and the developer-mode switch.
//
//nolint:revive // Package name 'api' is intentionally generic for the HTTP API layer
package api

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	securitymw "github.com/cinetrack/cinetrack/internal/api/middleware"
	"github.com/cinetrack/cinetrack/internal/api/ratelimit"
	"github.com/cinetrack/cinetrack/internal/auth"
	"github.com/cinetrack/cinetrack/internal/config"
	"github.com/cinetrack/cinetrack/internal/database"
	"github.com/cinetrack/cinetrack/internal/health"
	"github.com/cinetrack/cinetrack/internal/metadata"
	"github.com/cinetrack/cinetrack/internal/metadata/mock"
	"github.com/cinetrack/cinetrack/internal/metadata/tmdb"
	"github.com/cinetrack/cinetrack/internal/reclassify"
	"github.com/cinetrack/cinetrack/internal/scheduler"
	"github.com/cinetrack/cinetrack/internal/scheduler/tasks"
	"github.com/cinetrack/cinetrack/internal/watcher"
	"github.com/cinetrack/cinetrack/internal/watchlist"
	"github.com/cinetrack/cinetrack/internal/websocket"
)

// Server is the cinetrack HTTP server.
type Server struct {
	echo      *echo.Echo
	dbManager *database.Manager
	hub       *websocket.Hub
	logger    zerolog.Logger
	cfg       *config.Config
	startTime time.Time

	authService      *auth.Service
	metadataService  *metadata.Service
	realTMDBClient   metadata.TMDBClient
	localStore       *watchlist.LocalStore
	remoteStore      *watchlist.RemoteStore
	watchlistStore   *watchlist.Store
	watchlistService *watchlist.Service
	reclassifyJob    *reclassify.Job
	scheduler        *scheduler.Scheduler
	healthService    *health.Service
	limiter          *ratelimit.Limiter
	fileWatcher      *watcher.Watcher
	logsProvider     LogsProvider
}

// NewServer wires every service onto dbManager and cfg. hub may be nil, in
// which case no events are pushed to clients.
func NewServer(dbManager *database.Manager, hub *websocket.Hub, cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:        e,
		dbManager:   dbManager,
		hub:         hub,
		logger:      logger,
		cfg:         cfg,
		startTime:   time.Now(),
		authService: auth.NewService(cfg.Auth.JWTSecret),
		limiter:     ratelimit.New(cfg.Server.MutationsPerMinute),
	}

	if err := s.initServices(); err != nil {
		return nil, err
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

func (s *Server) initServices() error {
	// The configured client is what dev mode switches back to.
	if s.cfg.TMDB.Mock {
		s.realTMDBClient = mock.NewTMDBClient()
	} else {
		s.realTMDBClient = tmdb.NewClient(s.cfg.TMDB, s.logger)
	}
	s.metadataService = metadata.NewServiceWithClient(s.realTMDBClient, s.cfg.TMDB, s.logger)

	s.localStore = watchlist.NewLocalStore(afero.NewOsFs(), s.cfg.Storage.DataDir)
	s.remoteStore = watchlist.NewRemoteStore(s.dbManager.Conn())
	s.watchlistStore = watchlist.NewStore(s.localStore, s.remoteStore, s.logger)

	var broadcaster watchlist.Broadcaster
	if s.hub != nil {
		broadcaster = s.hub
	}
	s.watchlistService = watchlist.NewService(s.watchlistStore, s.metadataService, broadcaster, s.cfg.TMDB.Region, s.logger)

	s.healthService = health.NewService(s.logger)
	if s.hub != nil {
		s.healthService.SetBroadcaster(s.hub)
	}
	s.registerHealthChecks()

	s.reclassifyJob = reclassify.NewJob(s.watchlistStore, s.watchlistService, s.cfg.Reclassify.BatchSize, s.logger)

	sched, err := scheduler.New(s.logger)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	s.scheduler = sched
	if err := tasks.RegisterReclassifyTask(sched, s.reclassifyJob, s.healthService, s.cfg.Reclassify, s.logger); err != nil {
		return fmt.Errorf("failed to register reclassify task: %w", err)
	}

	if s.hub != nil {
		s.hub.SetDevModeHandler(s.setDevMode)
		s.hub.SetFocusHandler(s.watchlistService.Invalidate)
	}
	return nil
}

func (s *Server) registerHealthChecks() {
	s.healthService.RegisterCheck(health.CategoryDatabase, "sqlite", "Signed-in watch lists", func(ctx context.Context) error {
		return s.dbManager.Conn().PingContext(ctx)
	})
	s.healthService.RegisterCheck(health.CategoryCatalog, "tmdb", "TMDB", s.metadataService.Probe)
	s.healthService.RegisterCheck(health.CategoryStorage, "local", "Local watch list", func(ctx context.Context) error {
		_, err := s.localStore.List(ctx, watchlist.LocalUserID)
		return err
	})
}

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(securitymw.SecurityHeaders())

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("requestId", v.RequestID).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Debug().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

// SetLogsProvider exposes recent log entries and the log file.
func (s *Server) SetLogsProvider(provider LogsProvider) {
	s.logsProvider = provider
}

// Echo returns the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Scheduler returns the task scheduler.
func (s *Server) Scheduler() *scheduler.Scheduler {
	return s.scheduler
}

// Health returns the health registry.
func (s *Server) Health() *health.Service {
	return s.healthService
}

// Watchlist returns the watch list service.
func (s *Server) Watchlist() *watchlist.Service {
	return s.watchlistService
}

// ReclassifyJob returns the reclassification job.
func (s *Server) ReclassifyJob() *reclassify.Job {
	return s.reclassifyJob
}

// Metadata returns the catalog service.
func (s *Server) Metadata() *metadata.Service {
	return s.metadataService
}

// Start runs background work and serves HTTP on address until Shutdown.
func (s *Server) Start(address string) error {
	if err := s.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	if s.cfg.Storage.WatchFile {
		w, err := watchlist.WatchLocalFile(s.localStore, s.watchlistService, s.logger)
		if err != nil {
			s.logger.Warn().Err(err).Str("dir", filepath.Dir(s.localStore.Path())).Msg("Local watchlist file watching disabled")
		} else {
			s.fileWatcher = w
		}
	}

	go s.healthService.RunChecks(context.Background(), "")

	s.logger.Info().Str("address", address).Msg("Starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown stops background work and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.fileWatcher != nil {
		if err := s.fileWatcher.Stop(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to stop file watcher")
		}
	}
	if err := s.scheduler.Stop(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to stop scheduler")
	}
	s.metadataService.Close()
	return s.echo.Shutdown(ctx)
}
