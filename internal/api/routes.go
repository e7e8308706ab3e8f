package api

import (
	securitymw "github.com/cinetrack/cinetrack/internal/api/middleware"
	"github.com/cinetrack/cinetrack/internal/health"
	"github.com/cinetrack/cinetrack/internal/metadata"
	"github.com/cinetrack/cinetrack/internal/reclassify"
	"github.com/cinetrack/cinetrack/internal/scheduler"
	"github.com/cinetrack/cinetrack/internal/watchlist"
)

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	// Every /api/v1 route resolves the caller first. No token is the local
	// user; an invalid token is rejected.
	api := s.echo.Group("/api/v1",
		s.authService.Identity(),
		s.limiter.Middleware(),
		securitymw.RequireJSON(),
	)

	api.GET("/status", s.getStatus)

	watchlist.NewHandlers(s.watchlistService).RegisterRoutes(api.Group("/watchlist"))
	metadata.NewHandlers(s.metadataService).RegisterRoutes(api.Group("/metadata"))
	reclassify.NewHandlers(s.reclassifyJob).RegisterRoutes(api.Group("/jobs"))
	scheduler.NewHandlers(s.scheduler).RegisterRoutes(api.Group("/scheduler"))

	system := api.Group("/system")
	health.NewHandlers(s.healthService).RegisterRoutes(system.Group("/health"))
	NewLogsHandlers(s).RegisterRoutes(system.Group("/logs"))
	system.GET("/devmode", s.getDevMode)
	system.PUT("/devmode", s.putDevMode)

	if s.hub != nil {
		s.echo.GET("/ws", s.hub.HandleWebSocket, s.authService.Identity())
	}
}
