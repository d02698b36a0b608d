package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RunFunc is invoked for every analysis cycle with the cycle's bucket start.
type RunFunc func(ctx context.Context, bucket time.Time) error

// Options tune the re-analysis cadence.
type Options struct {
	Interval     time.Duration
	AlignToDay   bool // snap cycle starts to interval boundaries (UTC)
	StartupDelay time.Duration
	RunOnStart   bool // run one cycle immediately before waiting
}

// Scheduler drives periodic re-analysis runs.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Run blocks, invoking run each cycle until ctx is cancelled. A failing cycle
// is logged and the loop continues.
func (s *Scheduler) Run(ctx context.Context, run RunFunc) error {
	if s.opts.StartupDelay > 0 {
		if err := sleep(ctx, s.opts.StartupDelay); err != nil {
			return err
		}
	}

	if s.opts.RunOnStart {
		s.execute(ctx, run, s.bucket(time.Now().UTC()))
	}

	next := s.nextCycle(time.Now().UTC())
	for {
		delay := time.Until(next)
		if delay < 0 {
			next = s.nextCycle(time.Now().UTC())
			delay = time.Until(next)
		}

		s.logger.Debug().Time("next_cycle", next).Msg("waiting for next analysis cycle")
		if err := sleep(ctx, delay); err != nil {
			return err
		}

		s.execute(ctx, run, s.bucket(next))
		next = next.Add(s.opts.Interval)
	}
}

func (s *Scheduler) execute(ctx context.Context, run RunFunc, bucket time.Time) {
	s.logger.Info().Time("bucket", bucket).Msg("starting analysis cycle")
	if err := run(ctx, bucket); err != nil {
		s.logger.Error().Err(err).Time("bucket", bucket).Msg("analysis cycle failed")
	}
}

func (s *Scheduler) nextCycle(now time.Time) time.Time {
	if !s.opts.AlignToDay {
		return now.Add(s.opts.Interval)
	}
	bucket := now.Truncate(s.opts.Interval)
	if !bucket.After(now) {
		bucket = bucket.Add(s.opts.Interval)
	}
	return bucket
}

func (s *Scheduler) bucket(t time.Time) time.Time {
	if !s.opts.AlignToDay {
		return t
	}
	return t.Truncate(s.opts.Interval)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
