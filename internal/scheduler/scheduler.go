// Package scheduler runs background jobs such as the daily snapshot recorder.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"valuator/internal/logger"

	"github.com/go-co-op/gocron/v2"
)

// TaskFn is the body of a scheduled job.
type TaskFn func(ctx context.Context) error

// Scheduler wraps gocron with singleton jobs and panic recovery.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// New creates a stopped scheduler. Call Start to begin running jobs.
func New(opts ...gocron.SchedulerOption) (*Scheduler, error) {
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

func (s *Scheduler) Start() {
	s.scheduler.Start()
}

// Stop waits for running jobs and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.scheduler.Jobs())
}

// AddIntervalJob runs fn every interval.
func (s *Scheduler) AddIntervalJob(name string, fn TaskFn, interval time.Duration, startImmediately bool) error {
	return s.createJob(gocron.DurationJob(interval), name, fn, startImmediately)
}

// AddCronJob runs fn on a five-field crontab.
func (s *Scheduler) AddCronJob(name string, fn TaskFn, crontab string, startImmediately bool) error {
	return s.createJob(gocron.CronJob(crontab, false), name, fn, startImmediately)
}

func (s *Scheduler) createJob(def gocron.JobDefinition, name string, fn TaskFn, startImmediately bool) error {
	opts := []gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if startImmediately {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	if _, err := s.scheduler.NewJob(def, gocron.NewTask(withRecover(name, fn)), opts...); err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}
	return nil
}

func withRecover(name string, fn TaskFn) func(ctx context.Context) {
	log := logger.Named("scheduler")
	return func(ctx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("Panic recovered in scheduled job",
					"job", name,
					"panic", r,
					"stacktrace", string(debug.Stack()),
				)
			}
		}()

		start := time.Now()
		log.Infow("Job started", "job", name)
		if err := fn(ctx); err != nil {
			log.Errorw("Job failed", "job", name, "error", err, "duration", time.Since(start))
			return
		}
		log.Infow("Job completed", "job", name, "duration", time.Since(start))
	}
}
