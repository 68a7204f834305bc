package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestScheduler(t *testing.T) {
	t.Run("runs_job_immediately", func(t *testing.T) {
		s, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		ran := make(chan struct{}, 1)
		err = s.AddIntervalJob("tick", func(ctx context.Context) error {
			select {
			case ran <- struct{}{}:
			default:
			}
			return nil
		}, time.Hour, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		s.Start()
		defer s.Stop()

		select {
		case <-ran:
		case <-time.After(5 * time.Second):
			t.Fatal("job did not run")
		}
	})

	t.Run("recovers_from_panics_and_errors", func(t *testing.T) {
		done := make(chan struct{})
		task := withRecover("boom", func(ctx context.Context) error {
			defer close(done)
			panic("boom")
		})
		task(context.Background())
		<-done

		withRecover("fails", func(ctx context.Context) error {
			return errors.New("nope")
		})(context.Background())
	})

	t.Run("rejects_invalid_crontab", func(t *testing.T) {
		s, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer s.Stop()

		if err := s.AddCronJob("bad", func(ctx context.Context) error { return nil }, "not a cron", false); err == nil {
			t.Error("expected error for invalid crontab")
		}
		if err := s.AddCronJob("daily", func(ctx context.Context) error { return nil }, "5 0 * * *", false); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if s.Jobs() != 1 {
			t.Errorf("expected 1 job, got %d", s.Jobs())
		}
	})
}
