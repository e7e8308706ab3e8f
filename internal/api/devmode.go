package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinetrack/cinetrack/internal/auth"
	"github.com/cinetrack/cinetrack/internal/metadata/mock"
)

// DevModeInput is the body of a developer mode change.
type DevModeInput struct {
	Enabled bool `json:"enabled"`
}

// setDevMode switches the signed-in store to a scratch database and the
// catalog to the offline mock, or back.
func (s *Server) setDevMode(enabled bool) error {
	if err := s.dbManager.SetDevMode(enabled); err != nil {
		return err
	}

	s.switchMetadataClients(enabled)
	s.updateServicesDB()
	s.watchlistService.InvalidateAll()

	s.logger.Info().Bool("enabled", enabled).Msg("Developer mode changed")
	return nil
}

func (s *Server) switchMetadataClients(devMode bool) {
	if devMode {
		s.logger.Info().Msg("Switching to mock catalog")
		s.metadataService.SetClient(mock.NewTMDBClient())
	} else {
		s.logger.Info().Msg("Switching to configured catalog")
		s.metadataService.SetClient(s.realTMDBClient)
	}
}

// updateServicesDB points every database-backed service at the current
// connection. Call after switching databases.
func (s *Server) updateServicesDB() {
	s.remoteStore.SetDB(s.dbManager.Conn())
}

// getDevMode reports whether developer mode is on.
// GET /api/v1/system/devmode
func (s *Server) getDevMode(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"enabled": s.dbManager.IsDevMode()})
}

// putDevMode toggles developer mode. Only the local user may change it.
// PUT /api/v1/system/devmode
func (s *Server) putDevMode(c echo.Context) error {
	if auth.UserID(c) != auth.LocalUserID {
		return echo.NewHTTPError(http.StatusForbidden, "developer mode can only be changed by the local user")
	}

	var input DevModeInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.setDevMode(input.Enabled); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if s.hub != nil {
		s.hub.Broadcast("devmode:changed", map[string]interface{}{"enabled": input.Enabled})
	}
	return c.JSON(http.StatusOK, map[string]bool{"enabled": input.Enabled})
}
