package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinetrack/cinetrack/internal/config"
)

// StatusResponse describes the running server.
type StatusResponse struct {
	Version          string `json:"version"`
	StartTime        string `json:"startTime"`
	Uptime           string `json:"uptime"`
	DevMode          bool   `json:"devMode"`
	AuthEnabled      bool   `json:"authEnabled"`
	CatalogReady     bool   `json:"catalogReady"`
	Region           string `json:"region"`
	ConnectedClients int    `json:"connectedClients"`
	HasHealthIssues  bool   `json:"hasHealthIssues"`
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// getStatus reports version, uptime and the state of dependencies.
// GET /api/v1/status
func (s *Server) getStatus(c echo.Context) error {
	resp := StatusResponse{
		Version:         config.Version,
		StartTime:       s.startTime.Format(time.RFC3339),
		Uptime:          time.Since(s.startTime).Round(time.Second).String(),
		DevMode:         s.dbManager.IsDevMode(),
		AuthEnabled:     s.authService.Enabled(),
		CatalogReady:    s.metadataService.IsConfigured(),
		Region:          s.watchlistService.Region(),
		HasHealthIssues: s.healthService.GetSummary().HasIssues,
	}
	if s.hub != nil {
		resp.ConnectedClients = s.hub.ClientCount()
	}
	return c.JSON(http.StatusOK, resp)
}
