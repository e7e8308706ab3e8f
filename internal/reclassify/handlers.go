package reclassify

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers exposes the job over HTTP.
type Handlers struct {
	job *Job
}

// NewHandlers creates new reclassification handlers.
func NewHandlers(job *Job) *Handlers {
	return &Handlers{job: job}
}

// RegisterRoutes registers the job routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.POST("/reclassify", h.Run)
}

// Run runs one batch and returns its summary. A run cut short by the
// request ending still reports the items it got through.
// POST /api/v1/jobs/reclassify
func (h *Handlers) Run(c echo.Context) error {
	summary, err := h.job.Run(c.Request().Context())
	if errors.Is(err, ErrAlreadyRunning) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return c.JSON(http.StatusOK, summary)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, summary)
}
