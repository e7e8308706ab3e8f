// Package reclassify re-runs status classification for items whose status
// can still change without user action, e.g. a movie waiting for its
// streaming release or a show between seasons.
package reclassify

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinetrack/cinetrack/internal/media"
	"github.com/cinetrack/cinetrack/internal/watchlist"
)

// DefaultBatchSize bounds how many items one run touches.
const DefaultBatchSize = 10

var ErrAlreadyRunning = errors.New("reclassification already running")

// ItemLister selects the items a run considers.
type ItemLister interface {
	ListActive(ctx context.Context, limit int) ([]watchlist.Item, error)
}

// Refresher fetches fresh metadata for one item and classifies it again.
type Refresher interface {
	Refresh(ctx context.Context, userID string, externalID int, t media.Type) (*watchlist.Item, error)
}

// ItemResult is the outcome for one item.
type ItemResult struct {
	ID         string       `json:"id"`
	UserID     string       `json:"userId"`
	ExternalID int          `json:"externalId"`
	Type       media.Type   `json:"type"`
	OldStatus  media.Status `json:"oldStatus"`
	NewStatus  media.Status `json:"newStatus,omitempty"`
	Success    bool         `json:"success"`
	Error      string       `json:"error,omitempty"`
}

// Summary is the result of one run.
type Summary struct {
	Processed int           `json:"processed"`
	Changed   int           `json:"changed"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
	Results   []ItemResult  `json:"results"`
	// Incomplete is set when the run stopped before the end of its batch.
	Incomplete bool `json:"incomplete,omitempty"`
}

// Job reclassifies the least recently updated active items.
type Job struct {
	items     ItemLister
	refresher Refresher
	batchSize int
	running   atomic.Bool
	logger    zerolog.Logger
}

// NewJob creates a job. A batchSize of zero or less uses DefaultBatchSize.
func NewJob(items ItemLister, refresher Refresher, batchSize int, logger zerolog.Logger) *Job {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Job{
		items:     items,
		refresher: refresher,
		batchSize: batchSize,
		logger:    logger.With().Str("component", "reclassify").Logger(),
	}
}

// BatchSize returns the maximum number of items per run.
func (j *Job) BatchSize() int {
	return j.batchSize
}

// Run processes one batch. Items are refreshed one at a time; a failed item
// is recorded in the summary and the batch continues. Run stops early only
// when ctx is done.
func (j *Job) Run(ctx context.Context) (Summary, error) {
	if !j.running.CompareAndSwap(false, true) {
		return Summary{}, ErrAlreadyRunning
	}
	defer j.running.Store(false)

	start := time.Now()
	summary := Summary{Results: []ItemResult{}}

	items, err := j.items.ListActive(ctx, j.batchSize)
	if err != nil {
		return summary, err
	}
	j.logger.Info().Int("count", len(items)).Msg("Reclassifying active items")

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			summary.Incomplete = true
			return summary, err
		}

		res := ItemResult{
			ID:         item.ID,
			UserID:     item.UserID,
			ExternalID: item.ExternalID,
			Type:       item.Type,
			OldStatus:  item.Status,
		}

		updated, err := j.refresher.Refresh(ctx, item.UserID, item.ExternalID, item.Type)
		if err != nil {
			res.Error = err.Error()
			summary.Failed++
			j.logger.Warn().Err(err).
				Str("userId", item.UserID).
				Int("externalId", item.ExternalID).
				Str("type", string(item.Type)).
				Msg("Failed to reclassify item")
		} else {
			res.Success = true
			res.NewStatus = updated.Status
			if updated.Status != item.Status {
				summary.Changed++
				j.logger.Info().
					Int("externalId", item.ExternalID).
					Str("from", string(item.Status)).
					Str("to", string(updated.Status)).
					Msg("Status changed")
			}
		}

		summary.Processed++
		summary.Results = append(summary.Results, res)
	}

	summary.Duration = time.Since(start)
	j.logger.Info().
		Int("processed", summary.Processed).
		Int("changed", summary.Changed).
		Int("failed", summary.Failed).
		Dur("duration", summary.Duration).
		Msg("Reclassification finished")
	return summary, nil
}
