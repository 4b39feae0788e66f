package usecase

import (
	"context"
	"log/slog"
	"time"

	"EcoAware/internal/ports"
)

// Scheduler wires the interval driver with batch analysis of a watchlist.
type Scheduler struct {
	driver    ports.Scheduler
	pipeline  *Pipeline
	watchlist []string
	logger    *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring watchlist runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, watchlist []string, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, watchlist: watchlist, logger: logger}
}

// Start registers the watchlist run with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil || len(s.watchlist) == 0 {
		return nil
	}

	job := func(trigger time.Time) {
		batch, err := s.pipeline.AnalyzeBatch(ctx, s.watchlist)
		if s.logger == nil {
			return
		}
		if err != nil {
			s.logger.Error("watchlist run failed", "trigger", trigger, "error", err)
			return
		}
		s.logger.Info("watchlist run finished", "run_id", batch.RunID, "trigger", trigger,
			"listings", len(batch.Reports), "failed", batch.Failed())
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
