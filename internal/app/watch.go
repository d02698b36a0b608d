package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"deform-watch/internal/scheduler"
)

// Watch runs the analysis on an aligned interval until interrupted.
func (a *App) Watch(ctx context.Context, opts AnalyzeOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Watch.Interval,
		AlignToDay:   a.Config.Watch.AlignToDay,
		StartupDelay: a.Config.Watch.StartupDelay,
		RunOnStart:   a.Config.Watch.RunOnStart,
	}, a.Logger)

	a.Logger.Info().
		Dur("interval", a.Config.Watch.Interval).
		Msg("starting periodic re-analysis")

	err := sched.Run(ctx, func(runCtx context.Context, bucket time.Time) error {
		return a.Analyze(runCtx, opts)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("watch terminated with error")
		return err
	}

	a.Logger.Info().Msg("watch stopped")
	return nil
}
