package service

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"deform-watch/internal/alerting"
	"deform-watch/internal/analysis"
	"deform-watch/internal/catalog"
	"deform-watch/internal/config"
	"deform-watch/internal/storage"
)

// Service orchestrates one analysis run: metadata in, grouped engine
// execution, alert evaluation.
type Service struct {
	cfg      *config.Config
	store    storage.EpochStore
	notifier alerting.Notifier
	logger   zerolog.Logger
}

// New constructs the analysis service. notifier may be nil (alerts off).
func New(cfg *config.Config, store storage.EpochStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		logger:   logger.With().Str("component", "service").Logger(),
	}
}

// RunOptions select what one analysis run covers.
type RunOptions struct {
	Filter storage.QueryFilter

	DoOffsets  bool
	DoDetrend  bool
	DoOutliers bool

	// ApplyDeformation includes "D" events in the offset flag set.
	ApplyDeformation bool
}

// Summary reports what a run consumed and produced.
type Summary struct {
	Result *analysis.RunResult

	Epochs        int
	Events        int
	Models        int
	SkippedEvents []catalog.EntryError
	SkippedModels []catalog.EntryError
	Alerts        []alerting.Notification
}

// Run executes one closed-batch analysis. Only a fully empty epoch batch
// terminates the run (analysis.ErrNoData); malformed catalog entries and
// per-group failures are recorded in the summary and processing continues.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	if s.store == nil {
		return nil, storage.ErrNotConfigured
	}

	summary := &Summary{}

	events, skippedEvents, err := s.loadEvents(opts)
	if err != nil {
		return nil, err
	}
	summary.Events = len(events)
	summary.SkippedEvents = skippedEvents

	models, skippedModels, err := s.loadModels(opts)
	if err != nil {
		return nil, err
	}
	summary.Models = len(models)
	summary.SkippedModels = skippedModels

	for _, entry := range skippedEvents {
		s.logger.Warn().Str("entry", entry.Entry).Str("reason", entry.Reason).Msg("event entry skipped")
	}
	for _, entry := range skippedModels {
		s.logger.Warn().Str("entry", entry.Entry).Str("reason", entry.Reason).Msg("reference model skipped")
	}

	epochs, err := s.store.ListEpochs(ctx, opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("list epochs: %w", err)
	}
	summary.Epochs = len(epochs)
	if len(epochs) == 0 {
		return nil, analysis.ErrNoData
	}

	engine := analysis.NewEngine(analysis.Params{
		DoOffsets:         opts.DoOffsets,
		DoDetrend:         opts.DoDetrend,
		DoOutliers:        opts.DoOutliers,
		AllowedFlags:      analysis.DefaultFlags(opts.ApplyDeformation),
		OutlierThreshold:  s.cfg.Analysis.OutlierThreshold,
		OutlierMinSamples: s.cfg.Analysis.OutlierMinSamples,
		Workers:           s.cfg.Analysis.Workers,
	}, s.logger)

	result, err := engine.Run(ctx, epochs, events, models)
	if err != nil {
		return nil, err
	}
	summary.Result = result

	for _, ge := range result.Errors {
		s.logger.Error().Err(ge.Err).Str("group", ge.Key.String()).Msg("group analysis failed")
	}

	if s.cfg.Alerting.Enabled {
		summary.Alerts = alerting.Breaches(result.Groups, s.cfg.Alerting.ThresholdMM)
		s.dispatchAlerts(ctx, summary.Alerts)
	}

	s.logger.Info().
		Int("epochs", summary.Epochs).
		Int("groups", len(result.Groups)).
		Int("failed_groups", len(result.Errors)).
		Int("alerts", len(summary.Alerts)).
		Msg("analysis run complete")

	return summary, nil
}

func (s *Service) loadEvents(opts RunOptions) ([]analysis.Event, []catalog.EntryError, error) {
	if !opts.DoOffsets {
		return nil, nil, nil
	}
	path := s.cfg.Metadata.Events
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.logger.Warn().Str("file", path).Msg("event catalog not found; offsets will be zero")
		return nil, nil, nil
	}
	return catalog.LoadEvents(path, s.logger)
}

func (s *Service) loadModels(opts RunOptions) (map[string]analysis.ReferenceModel, []catalog.EntryError, error) {
	if !opts.DoDetrend {
		return nil, nil, nil
	}
	path := s.cfg.Metadata.Stable
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.logger.Warn().Str("file", path).Msg("reference models not found; detrend unavailable")
		return nil, nil, nil
	}
	return catalog.LoadReferenceModels(path, s.logger)
}

func (s *Service) dispatchAlerts(ctx context.Context, notes []alerting.Notification) {
	if s.notifier == nil || len(notes) == 0 {
		return
	}
	for _, note := range notes {
		if err := s.notifier.Notify(ctx, note); err != nil {
			s.logger.Error().Err(err).
				Str("station", note.Station).
				Msg("failed to dispatch alert")
		}
	}
}
