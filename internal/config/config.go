package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"deform-watch/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Metadata MetadataConfig `mapstructure:"metadata"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Alerting AlertingConfig `mapstructure:"alerting"`
	Export   ExportConfig   `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig selects and configures the epoch store backend.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite | postgres
	Path            string        `mapstructure:"path"`   // sqlite file
	DSN             string        `mapstructure:"dsn"`    // postgres
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// MetadataConfig points at the catalog files.
type MetadataConfig struct {
	Events string `mapstructure:"events"` // events.yaml (step discontinuities)
	Stable string `mapstructure:"stable"` // stable.yaml (reference models)
}

// AnalysisConfig tunes the time-series engine.
type AnalysisConfig struct {
	OutlierThreshold   float64 `mapstructure:"outlier_threshold"`
	OutlierMinSamples  int     `mapstructure:"outlier_min_samples"`
	IncludeDeformation bool    `mapstructure:"include_deformation"`
	Workers            int     `mapstructure:"workers"`
}

// WatchConfig governs the periodic re-analysis loop.
type WatchConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	AlignToDay   bool          `mapstructure:"align_to_day"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
	RunOnStart   bool          `mapstructure:"run_on_start"`
}

// AlertingConfig defines displacement alert thresholds and routing.
type AlertingConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	ThresholdMM float64        `mapstructure:"threshold_mm"`
	Channels    []string       `mapstructure:"channels"`
	Telegram    TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the Telegram alert channel.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets output sink behaviour.
type ExportConfig struct {
	OutputDir      string `mapstructure:"output_dir"`
	MaxChartPoints int    `mapstructure:"max_chart_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DEFORMWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "deformwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "deform-watch.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("metadata.events", "metadata/events.yaml")
	v.SetDefault("metadata.stable", "metadata/stable.yaml")

	v.SetDefault("analysis.outlier_threshold", 3.5)
	v.SetDefault("analysis.outlier_min_samples", 5)
	v.SetDefault("analysis.include_deformation", false)
	v.SetDefault("analysis.workers", 4)

	v.SetDefault("watch.interval", "24h")
	v.SetDefault("watch.align_to_day", true)
	v.SetDefault("watch.startup_delay", "0s")
	v.SetDefault("watch.run_on_start", true)

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.threshold_mm", 20.0)
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.output_dir", "outputs")
	v.SetDefault("export.max_chart_points", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		return fmt.Errorf("database.path is required for the sqlite driver")
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for the postgres driver")
	}
	if c.Analysis.OutlierThreshold <= 0 {
		return fmt.Errorf("analysis.outlier_threshold must be greater than zero")
	}
	if c.Analysis.OutlierMinSamples < 2 {
		return fmt.Errorf("analysis.outlier_min_samples must be at least 2")
	}
	if c.Analysis.Workers <= 0 {
		return fmt.Errorf("analysis.workers must be greater than zero")
	}
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be greater than zero")
	}
	if c.Alerting.ThresholdMM < 0 {
		return fmt.Errorf("alerting.threshold_mm cannot be negative")
	}
	if c.Export.MaxChartPoints <= 0 {
		return fmt.Errorf("export.max_chart_points must be greater than zero")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required when telegram is enabled")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}

// ResolveMaxChartPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxChartPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxChartPoints
}
