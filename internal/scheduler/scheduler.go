package scheduler

import (
	"context"
	"log/slog"
	"time"
)

const defaultRunTimeout = 2 * time.Minute

// Refresher is a unit of periodic background work.
type Refresher interface {
	Refresh(ctx context.Context) error
}

type Scheduler struct {
	name       string
	refresher  Refresher
	interval   time.Duration
	runTimeout time.Duration
	logger     *slog.Logger
}

func NewScheduler(name string, refresher Refresher, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		name:       name,
		refresher:  refresher,
		interval:   interval,
		runTimeout: defaultRunTimeout,
		logger:     logger.With("job", name),
	}
}

// Start runs the refresher immediately and then on every tick. It blocks
// until ctx is cancelled and returns ctx.Err().
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.run(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	if err := s.refresher.Refresh(runCtx); err != nil {
		s.logger.Error("scheduled run failed", "error", err)
	}
}
