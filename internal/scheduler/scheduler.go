package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/go-co-op/gocron/v2"
)

type taskFn func(ctx context.Context) error

// Scheduler runs periodic jobs. A job that is still running when its next
// tick arrives is rescheduled rather than run twice.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

func New(logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{scheduler: scheduler, logger: logger}, nil
}

func (s *Scheduler) Start() {
	s.scheduler.Start()
}

func (s *Scheduler) Stop() {
	if err := s.scheduler.Shutdown(); err != nil {
		s.logger.Warn("scheduler shutdown failed", "err", err)
	}
}

// NewIntervalJob registers fn to run every interval.
func (s *Scheduler) NewIntervalJob(name string, fn taskFn, interval time.Duration, startImmediately bool) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	opts := []gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if startImmediately {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	if _, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.taskWithRecover(fn, name)),
		opts...,
	); err != nil {
		s.logger.Error("scheduler creating job error", "job", name, "err", err)
		return fmt.Errorf("create job %s: %w", name, err)
	}
	return nil
}

func (s *Scheduler) taskWithRecover(fn taskFn, jobName string) func(ctx context.Context) {
	return func(ctx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error(
					"panic recovered in scheduler job",
					"job", jobName,
					"panic", r,
					"stacktrace", string(debug.Stack()),
				)
			}
		}()

		s.logger.Debug("job start", "job", jobName)
		if err := fn(ctx); err != nil {
			s.logger.Error("job failed", "job", jobName, "err", err)
			return
		}
		s.logger.Debug("job completed", "job", jobName)
	}
}
