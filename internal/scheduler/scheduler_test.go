package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewPanicsOnZeroInterval(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("zero interval must panic")
		}
	}()
	New(Options{}, zerolog.Nop())
}

func TestRunOnStart(t *testing.T) {
	var cycles atomic.Int32
	s := New(Options{Interval: time.Hour, RunOnStart: true}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(context.Context, time.Time) error {
			cycles.Add(1)
			cancel()
			return nil
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	if cycles.Load() != 1 {
		t.Fatalf("cycles = %d, want 1", cycles.Load())
	}
}

func TestPeriodicCyclesContinueAfterFailure(t *testing.T) {
	var cycles atomic.Int32
	s := New(Options{Interval: 20 * time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_ = s.Run(ctx, func(context.Context, time.Time) error {
		if cycles.Add(1) == 1 {
			return errors.New("transient failure")
		}
		return nil
	})

	if cycles.Load() < 2 {
		t.Fatalf("cycles = %d, want at least 2 (loop survives a failure)", cycles.Load())
	}
}

func TestStartupDelayHonoursCancellation(t *testing.T) {
	s := New(Options{Interval: time.Hour, StartupDelay: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Run(ctx, func(context.Context, time.Time) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestAlignedBucketsTruncate(t *testing.T) {
	s := New(Options{Interval: time.Hour, AlignToDay: true}, zerolog.Nop())

	now := time.Date(2023, 5, 1, 10, 37, 12, 0, time.UTC)
	next := s.nextCycle(now)
	if !next.Equal(time.Date(2023, 5, 1, 11, 0, 0, 0, time.UTC)) {
		t.Fatalf("next cycle = %v, want top of the hour", next)
	}
	if got := s.bucket(next); !got.Equal(next) {
		t.Fatalf("bucket = %v, want %v", got, next)
	}
}
