package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/amishk599/jobpipe/internal/model"
)

// Runner performs one pipeline run.
type Runner interface {
	Run(ctx context.Context) (model.RunReport, error)
}

// Purger drops stored jobs older than the retention window.
type Purger interface {
	Purge(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Scheduler owns the main loop: ticks on an interval, applies retention and
// then runs the pipeline.
type Scheduler struct {
	runner    Runner
	purger    Purger
	interval  time.Duration
	retention time.Duration
	logger    *slog.Logger
}

// NewScheduler creates a scheduler that runs the pipeline at the given
// interval. A nil purger or zero retention disables the purge step.
func NewScheduler(runner Runner, purger Purger, interval, retention time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:    runner,
		purger:    purger,
		interval:  interval,
		retention: retention,
		logger:    logger,
	}
}

// Run starts the loop. It runs one immediate cycle, then ticks on the
// configured interval. It returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler",
		"interval", s.interval.String(),
		"retention", s.retention.String(),
	)

	s.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.interval):
			s.cycle(ctx)
		}
	}
}

// cycle purges expired jobs, then runs the pipeline. Failures are logged and
// the loop carries on; the next tick retries.
func (s *Scheduler) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	if s.purger != nil && s.retention > 0 {
		n, err := s.purger.Purge(ctx, s.retention)
		if err != nil {
			s.logger.Error("purge failed", "error", err)
		} else if n > 0 {
			s.logger.Info("purged expired jobs", "removed", n, "older_than", s.retention.String())
		}
	}

	if _, err := s.runner.Run(ctx); err != nil {
		s.logger.Error("pipeline run failed", "error", err)
	}
}
