// Package tasks binds application jobs to the scheduler.
package tasks

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cinetrack/cinetrack/internal/config"
	"github.com/cinetrack/cinetrack/internal/health"
	"github.com/cinetrack/cinetrack/internal/reclassify"
	"github.com/cinetrack/cinetrack/internal/scheduler"
)

// ReclassifyTaskID identifies the reclassification task.
const ReclassifyTaskID = "reclassify"

// Runner runs one reclassification batch.
type Runner interface {
	Run(ctx context.Context) (reclassify.Summary, error)
}

// ReclassifyTask handles scheduled reclassification of active items.
type ReclassifyTask struct {
	job    Runner
	health *health.Service
	logger zerolog.Logger
}

// NewReclassifyTask creates a new reclassification task. healthService may
// be nil.
func NewReclassifyTask(job Runner, healthService *health.Service, logger zerolog.Logger) *ReclassifyTask {
	if healthService != nil {
		healthService.RegisterItem(health.CategoryJobs, ReclassifyTaskID, "Reclassify Watchlist")
	}
	return &ReclassifyTask{
		job:    job,
		health: healthService,
		logger: logger.With().Str("task", ReclassifyTaskID).Logger(),
	}
}

// Run executes one batch. Per-item failures are logged but do not fail the
// task; only a batch that could not run at all does.
func (t *ReclassifyTask) Run(ctx context.Context) error {
	summary, err := t.job.Run(ctx)
	if err != nil {
		t.logger.Error().Err(err).Msg("Reclassification batch failed")
		t.report(health.StatusError, err.Error())
		return err
	}
	if summary.Failed > 0 {
		t.logger.Warn().
			Int("failed", summary.Failed).
			Int("processed", summary.Processed).
			Msg("Some items could not be reclassified")
		t.report(health.StatusWarning, fmt.Sprintf("%d of %d items could not be reclassified", summary.Failed, summary.Processed))
		return nil
	}
	t.report(health.StatusOK, "")
	return nil
}

func (t *ReclassifyTask) report(status health.HealthStatus, message string) {
	if t.health == nil {
		return
	}
	switch status {
	case health.StatusError:
		t.health.SetError(health.CategoryJobs, ReclassifyTaskID, message)
	case health.StatusWarning:
		t.health.SetWarning(health.CategoryJobs, ReclassifyTaskID, message)
	default:
		t.health.ClearStatus(health.CategoryJobs, ReclassifyTaskID)
	}
}

// RegisterReclassifyTask registers the reclassification task with the
// scheduler.
func RegisterReclassifyTask(sched *scheduler.Scheduler, job Runner, healthService *health.Service, cfg config.ReclassifyConfig, logger zerolog.Logger) error {
	task := NewReclassifyTask(job, healthService, logger)

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          ReclassifyTaskID,
		Name:        "Reclassify Watchlist",
		Description: "Refreshes metadata and status for coming soon, on OTT, ongoing and returning items",
		Cron:        cfg.Cron,
		RunOnStart:  cfg.RunOnStart,
		Func:        task.Run,
	})
}
