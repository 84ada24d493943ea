package offerjob

import (
	"context"
	"errors"
	"time"

	"github.com/card-offer-notifier/internal/domain"
	"go.uber.org/zap"
)

type jobRunner interface {
	Run(ctx context.Context) (*domain.JobSummary, error)
}

// Scheduler runs the job on a fixed interval. Runs never overlap: the next
// tick is only considered after the current run returns.
type Scheduler struct {
	runner     jobRunner
	interval   time.Duration
	runOnStart bool
	log        *zap.Logger
}

func NewScheduler(runner jobRunner, interval time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{runner: runner, interval: interval, log: log}
}

// WithRunOnStart makes Start run once immediately instead of waiting for
// the first tick.
func (s *Scheduler) WithRunOnStart(v bool) *Scheduler {
	s.runOnStart = v
	return s
}

// Start blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("offer job scheduler started", zap.Duration("interval", s.interval))
	if s.runOnStart {
		s.tick(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("offer job scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	_, err := s.runner.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrJobRunning):
		s.log.Info("offer job already running, skipping tick")
	default:
		s.log.Error("scheduled offer job failed", zap.Error(err))
	}
}
