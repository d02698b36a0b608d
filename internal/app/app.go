package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"deform-watch/internal/alerting"
	"deform-watch/internal/config"
	"deform-watch/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) openStore(ctx context.Context) (storage.EpochStore, func(), error) {
	var store storage.EpochStore
	var err error

	switch a.Config.Database.Driver {
	case "postgres":
		store, err = storage.OpenPostgres(ctx, a.Config.Database)
	default:
		store, err = storage.OpenSQLite(a.Config.Database.Path)
	}
	if err != nil {
		return nil, nil, err
	}

	closer := func() {
		if cerr := store.Close(); cerr != nil {
			a.Logger.Error().Err(cerr).Msg("failed to close epoch store")
		}
	}
	return store, closer, nil
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

// AnalyzeOptions hold parameters for one analysis run.
type AnalyzeOptions struct {
	Stations []string
	Frames   []string
	From     *time.Time
	To       *time.Time

	// Analyses is the subset to run: offsets, detrend, outliers. Empty means
	// all three.
	Analyses []string

	ApplyDeformation bool

	WideCSV string
	LongCSV string
}

// ExportOptions configure the epoch/chart export command.
type ExportOptions struct {
	Stations []string
	Frames   []string
	From     *time.Time
	To       *time.Time

	EpochCSV  string
	GeoCSV    string
	ChartPNG  string
	MaxPoints int

	// Chart selection (required with ChartPNG).
	ChartStation string
	ChartFrame   string
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit    int
	Stations []string
	Frames   []string
}

// IngestOptions configure the position ingest job.
type IngestOptions struct {
	CSVPath string
	Frame   string
	DryRun  bool
}
