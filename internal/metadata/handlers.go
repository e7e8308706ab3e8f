package metadata

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cinetrack/cinetrack/internal/classify"
	"github.com/cinetrack/cinetrack/internal/media"
)

// Handlers provides HTTP handlers for catalog lookups.
type Handlers struct {
	service *Service
}

// NewHandlers creates new metadata handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the metadata routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/status", h.GetStatus)
	g.GET("/movie/:id/release-dates", h.GetReleaseDates)
	g.GET("/:type/:id", h.GetDetails)
	g.DELETE("/cache", h.ClearCache)
}

// GetStatus reports whether the catalog is reachable with the current key.
// GET /api/v1/metadata/status
func (h *Handlers) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"configured": h.service.IsConfigured(),
		"region":     h.service.DefaultRegion(),
	})
}

// GetDetails returns pruned catalog details for a title.
// GET /api/v1/metadata/:type/:id?region=
func (h *Handlers) GetDetails(c echo.Context) error {
	mediaType, err := media.ParseType(c.Param("type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	region := h.region(c)
	details, err := h.service.Details(c.Request().Context(), id, mediaType, region)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, media.Prune(details, region))
}

// GetReleaseDates returns the regional theatrical and digital dates of a movie.
// GET /api/v1/metadata/movie/:id/release-dates?region=
func (h *Handlers) GetReleaseDates(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	resp, err := h.service.ReleaseDates(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	dates := classify.ExtractReleaseDates(resp, h.region(c))
	return c.JSON(http.StatusOK, map[string]string{
		"theatrical":  dates.Theatrical,
		"digital":     dates.Digital,
		"digitalNote": dates.DigitalNote,
	})
}

// ClearCache drops all cached catalog responses.
// DELETE /api/v1/metadata/cache
func (h *Handlers) ClearCache(c echo.Context) error {
	h.service.ClearCache()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handlers) region(c echo.Context) string {
	if r := c.QueryParam("region"); r != "" {
		return media.NormalizeRegion(r)
	}
	return h.service.DefaultRegion()
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "metadata provider not configured")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "title not found")
	}
	return echo.NewHTTPError(http.StatusBadGateway, err.Error())
}
