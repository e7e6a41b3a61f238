package integrity

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

type Runner interface {
	RunExclusive(ctx context.Context, opts Options) (*Report, error)
}

// Scheduler triggers a full run on a fixed interval. A tick that cannot take
// the run lock is skipped.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	options  Options
	logger   *slog.Logger
}

type SchedulerOption func(*Scheduler)

func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func WithRunOptions(opts Options) SchedulerOption {
	return func(s *Scheduler) {
		s.options = opts
	}
}

func NewScheduler(runner Runner, interval time.Duration, opts ...SchedulerOption) (*Scheduler, error) {
	if runner == nil {
		return nil, errors.New("runner is required")
	}
	if interval <= 0 {
		return nil, errors.New("interval must be positive")
	}
	s := &Scheduler{
		runner:   runner,
		interval: interval,
		options:  DefaultOptions(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start blocks, running on every tick until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "integrity scheduler started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "integrity scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick performs one scheduled run.
func (s *Scheduler) Tick(ctx context.Context) {
	report, err := s.runner.RunExclusive(ctx, s.options)
	switch {
	case errors.Is(err, ErrRunInProgress):
		s.logger.InfoContext(ctx, "scheduled integrity run skipped, another run holds the lock")
	case err != nil:
		s.logger.ErrorContext(ctx, "scheduled integrity run failed", "error", err)
	case report != nil && report.Detections != nil:
		s.logger.InfoContext(ctx, "scheduled integrity run completed",
			"anomalies_detected", report.Detections.TotalDetected,
			"departments_scored", len(report.TrustScores),
		)
	}
}
