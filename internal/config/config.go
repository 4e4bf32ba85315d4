// Package config loads and validates the application configuration from a
// YAML file. Validation happens once at load; the configuration is
// immutable afterward.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cdtdelta/logguard/internal/risk"
)

// BusinessHours is the half-open [Start, End) in-hours interval.
type BusinessHours struct {
	Start        int  `yaml:"start"`
	End          int  `yaml:"end"`
	WeekdaysOnly bool `yaml:"weekdays_only"`
}

// Risk configures the scoring engine.
type Risk struct {
	Weights            risk.Weights `yaml:"weights"`
	RapidWindowSeconds int          `yaml:"rapid_window_seconds"`
	RapidThreshold     int          `yaml:"rapid_threshold"`
}

// Source configures the raw event source and the scan window.
type Source struct {
	Path            string `yaml:"path"`
	BatchSize       int    `yaml:"batch_size"`
	LookbackMinutes int    `yaml:"lookback_minutes"`
	LookbackDays    int    `yaml:"lookback_days"`
}

// Export configures output file paths; empty paths disable that output.
type Export struct {
	JSONPath     string `yaml:"json_path"`
	CSVPath      string `yaml:"csv_path"`
	FeaturesPath string `yaml:"features_path"`
}

// Database configures the optional relational store.
type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Log configures the zap logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the full application configuration.
type Config struct {
	BusinessHours BusinessHours `yaml:"business_hours"`
	Risk          Risk          `yaml:"risk"`
	Source        Source        `yaml:"source"`
	Export        Export        `yaml:"export"`
	Database      Database      `yaml:"database"`
	Log           Log           `yaml:"log"`
}

// Default returns the stock configuration.
func Default() Config {
	rc := risk.DefaultConfig()
	return Config{
		BusinessHours: BusinessHours{
			Start:        rc.BusinessHoursStart,
			End:          rc.BusinessHoursEnd,
			WeekdaysOnly: rc.WeekdaysOnly,
		},
		Risk: Risk{
			Weights:            rc.Weights,
			RapidWindowSeconds: int(rc.RapidWindow / time.Second),
			RapidThreshold:     rc.RapidThreshold,
		},
		Source: Source{
			BatchSize:    512,
			LookbackDays: 7,
		},
		Database: Database{Driver: "sqlite", DSN: "session_logs.db"},
		Log:      Log{Level: "info", Format: "console"},
	}
}

// Load reads a YAML config file on top of defaults and validates the
// result. An empty path returns the validated defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration. Construction-time validation is the
// only fatal failure mode in the system.
func (c Config) Validate() error {
	if err := c.RiskConfig().Validate(); err != nil {
		return err
	}
	switch c.Database.Driver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid database driver: %s", c.Database.Driver)
	}
	if c.Source.BatchSize < 0 {
		return fmt.Errorf("invalid source batch size: %d", c.Source.BatchSize)
	}
	if c.Source.LookbackMinutes < 0 || c.Source.LookbackDays < 0 {
		return fmt.Errorf("lookback window must be non-negative")
	}
	return nil
}

// RiskConfig maps the configuration onto the engine's config type.
func (c Config) RiskConfig() risk.Config {
	return risk.Config{
		BusinessHoursStart: c.BusinessHours.Start,
		BusinessHoursEnd:   c.BusinessHours.End,
		WeekdaysOnly:       c.BusinessHours.WeekdaysOnly,
		Weights:            c.Risk.Weights,
		RapidWindow:        time.Duration(c.Risk.RapidWindowSeconds) * time.Second,
		RapidThreshold:     c.Risk.RapidThreshold,
	}
}

// Cutoff computes the scan cutoff from the lookback settings relative to
// now. Minutes take precedence over days when both are set.
func (c Config) Cutoff(now time.Time) time.Time {
	if c.Source.LookbackMinutes > 0 {
		return now.Add(-time.Duration(c.Source.LookbackMinutes) * time.Minute)
	}
	if c.Source.LookbackDays > 0 {
		return now.AddDate(0, 0, -c.Source.LookbackDays)
	}
	return now.AddDate(0, 0, -7)
}
