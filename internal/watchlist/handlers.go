package watchlist

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cinetrack/cinetrack/internal/auth"
	"github.com/cinetrack/cinetrack/internal/media"
	"github.com/cinetrack/cinetrack/internal/metadata"
)

// Handlers provides HTTP handlers for watch list operations.
type Handlers struct {
	service *Service
}

// NewHandlers creates new watch list handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the watch list routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Add)
	g.POST("/invalidate", h.Invalidate)

	item := g.Group("/:type/:externalId")
	item.GET("", h.Get)
	item.DELETE("", h.Remove)
	item.PUT("/status", h.ChangeStatus)
	item.PUT("/metadata", h.UpdateMetadata)
	item.PUT("/release-date", h.SetReleaseDate)
	item.POST("/watched", h.itemAction(h.service.MarkWatched))
	item.POST("/unwatched", h.itemAction(h.service.MarkUnwatched))
	item.POST("/library", h.itemAction(h.service.MoveToLibrary))
	item.POST("/drop", h.itemAction(h.service.Drop))
	item.POST("/restore", h.itemAction(h.service.Restore))
	item.POST("/dismiss", h.itemAction(h.service.DismissFromUpcoming))
	item.POST("/upcoming", h.itemAction(h.service.RestoreToUpcoming))
	item.POST("/refresh", h.itemAction(h.service.Refresh))
	item.POST("/seasons/:season/watched", h.MarkSeasonWatched)
	item.DELETE("/seasons/:season/watched", h.MarkSeasonUnwatched)
}

// AddInput is the body of an add request.
type AddInput struct {
	ExternalID int    `json:"externalId"`
	Type       string `json:"type"`
}

// StatusInput is the body of a status change.
type StatusInput struct {
	Status media.Status `json:"status"`
}

// ReleaseDateInput is the body of a manual release date change. An empty
// date clears the override.
type ReleaseDateInput struct {
	Date string `json:"date"`
}

// List returns the caller's watch list.
// GET /api/v1/watchlist
func (h *Handlers) List(c echo.Context) error {
	items, err := h.service.List(c.Request().Context(), auth.UserID(c))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

// Add adds a title to the caller's watch list.
// POST /api/v1/watchlist
func (h *Handlers) Add(c echo.Context) error {
	var input AddInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if input.ExternalID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "externalId is required")
	}
	t, err := media.ParseType(input.Type)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item, err := h.service.Add(c.Request().Context(), auth.UserID(c), input.ExternalID, t)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, item)
}

// Invalidate drops the caller's cached list.
// POST /api/v1/watchlist/invalidate
func (h *Handlers) Invalidate(c echo.Context) error {
	h.service.Invalidate(auth.UserID(c))
	return c.NoContent(http.StatusNoContent)
}

// Get returns one item.
// GET /api/v1/watchlist/:type/:externalId
func (h *Handlers) Get(c echo.Context) error {
	t, id, err := itemParams(c)
	if err != nil {
		return err
	}
	item, err := h.service.Get(c.Request().Context(), auth.UserID(c), id, t)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, item)
}

// Remove deletes an item.
// DELETE /api/v1/watchlist/:type/:externalId
func (h *Handlers) Remove(c echo.Context) error {
	t, id, err := itemParams(c)
	if err != nil {
		return err
	}
	if err := h.service.Remove(c.Request().Context(), auth.UserID(c), id, t); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangeStatus sets an item's status.
// PUT /api/v1/watchlist/:type/:externalId/status
func (h *Handlers) ChangeStatus(c echo.Context) error {
	t, id, err := itemParams(c)
	if err != nil {
		return err
	}
	var input StatusInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item, err := h.service.ChangeStatus(c.Request().Context(), auth.UserID(c), id, t, input.Status)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, item)
}

// UpdateMetadata replaces an item's metadata snapshot.
// PUT /api/v1/watchlist/:type/:externalId/metadata
func (h *Handlers) UpdateMetadata(c echo.Context) error {
	t, id, err := itemParams(c)
	if err != nil {
		return err
	}
	var input media.Metadata
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item, err := h.service.UpdateMetadata(c.Request().Context(), auth.UserID(c), id, t, input)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, item)
}

// SetReleaseDate sets or clears a manual digital release date.
// PUT /api/v1/watchlist/:type/:externalId/release-date
func (h *Handlers) SetReleaseDate(c echo.Context) error {
	t, id, err := itemParams(c)
	if err != nil {
		return err
	}
	var input ReleaseDateInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item, err := h.service.SetManualReleaseDate(c.Request().Context(), auth.UserID(c), id, t, input.Date)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, item)
}

// MarkSeasonWatched records progress through a season.
// POST /api/v1/watchlist/:type/:externalId/seasons/:season/watched
func (h *Handlers) MarkSeasonWatched(c echo.Context) error {
	return h.seasonAction(c, h.service.MarkSeasonWatched)
}

// MarkSeasonUnwatched rolls progress back before a season.
// DELETE /api/v1/watchlist/:type/:externalId/seasons/:season/watched
func (h *Handlers) MarkSeasonUnwatched(c echo.Context) error {
	return h.seasonAction(c, h.service.MarkSeasonUnwatched)
}

type itemOp func(ctx context.Context, userID string, externalID int, t media.Type) (*Item, error)

// itemAction adapts a parameterless item operation to a handler.
func (h *Handlers) itemAction(op itemOp) echo.HandlerFunc {
	return func(c echo.Context) error {
		t, id, err := itemParams(c)
		if err != nil {
			return err
		}
		item, err := op(c.Request().Context(), auth.UserID(c), id, t)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(http.StatusOK, item)
	}
}

func (h *Handlers) seasonAction(c echo.Context, op func(ctx context.Context, userID string, externalID int, t media.Type, season int) (*Item, error)) error {
	t, id, err := itemParams(c)
	if err != nil {
		return err
	}
	season, err := strconv.Atoi(c.Param("season"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid season")
	}

	item, err := op(c.Request().Context(), auth.UserID(c), id, t, season)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, item)
}

func itemParams(c echo.Context) (media.Type, int, error) {
	t, err := media.ParseType(c.Param("type"))
	if err != nil {
		return "", 0, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	id, err := strconv.Atoi(c.Param("externalId"))
	if err != nil || id <= 0 {
		return "", 0, echo.NewHTTPError(http.StatusBadRequest, "invalid externalId")
	}
	return t, id, nil
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrItemNotFound), errors.Is(err, metadata.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case IsClientError(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, metadata.ErrNotConfigured):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ErrFetchFailed):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
