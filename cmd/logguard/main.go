// Command logguard scans a Windows Security-log export for logon activity,
// scores each event for risk, and writes the results to files and an
// optional relational store.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cdtdelta/logguard/internal/config"
	"github.com/cdtdelta/logguard/internal/database"
	"github.com/cdtdelta/logguard/internal/export"
	"github.com/cdtdelta/logguard/internal/pipeline"
	"github.com/cdtdelta/logguard/internal/query"
	"github.com/cdtdelta/logguard/internal/risk"
	"github.com/cdtdelta/logguard/internal/source"
)

// highRiskScore is the score at or above which a stored record is
// surfaced by the stats report.
const highRiskScore = 3.0

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		sourcePath = flag.String("source", "", "path to JSONL event file (overrides config)")
		minutes    = flag.Int("minutes", 0, "lookback window in minutes (overrides config)")
		days       = flag.Int("days", 0, "lookback window in days (overrides config)")
		stats      = flag.Bool("stats", false, "report statistics over the stored session logs and exit")
	)
	flag.Parse()

	if err := run(*configPath, *sourcePath, *minutes, *days, *stats); err != nil {
		fmt.Fprintf(os.Stderr, "logguard: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, sourcePath string, minutes, days int, stats bool) error {
	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if sourcePath != "" {
		cfg.Source.Path = sourcePath
	}
	if minutes > 0 {
		cfg.Source.LookbackMinutes = minutes
	}
	if days > 0 {
		cfg.Source.LookbackDays = days
	}
	if dsn := os.Getenv("LOGGUARD_DB_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	if stats {
		if cfg.Database.DSN == "" {
			return fmt.Errorf("no database configured: set database.dsn or LOGGUARD_DB_DSN")
		}
		store, err := database.OpenStore(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer store.Close()
		return reportStats(store, log)
	}

	if cfg.Source.Path == "" {
		return fmt.Errorf("no source file: set -source or source.path in the config")
	}

	engine, err := risk.NewEngine(cfg.RiskConfig(), log)
	if err != nil {
		return err
	}

	src, err := source.Open(cfg.Source.Path, cfg.Source.BatchSize)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer src.Close()

	cutoff := cfg.Cutoff(time.Now().UTC())
	log.Info("starting scan",
		zap.String("source", cfg.Source.Path),
		zap.Time("cutoff", cutoff))

	res := pipeline.New(engine, log).Run(src, cutoff)
	if res.ReadErr != nil {
		log.Warn("source read failed mid-scan, continuing with partial results",
			zap.Error(res.ReadErr))
	}
	if n := src.Skipped(); n > 0 {
		log.Warn("skipped undecodable source lines", zap.Int("lines", n))
	}

	events := append(res.Logons, res.Logoffs...)

	if path := cfg.Export.JSONPath; path != "" {
		if err := export.WriteJSON(path, events); err != nil {
			return fmt.Errorf("writing JSON export: %w", err)
		}
		log.Info("wrote JSON export", zap.String("path", path))
	}
	if path := cfg.Export.CSVPath; path != "" {
		if err := export.WriteSessionLogsCSV(path, events); err != nil {
			return fmt.Errorf("writing CSV export: %w", err)
		}
		log.Info("wrote CSV export", zap.String("path", path))
	}
	if path := cfg.Export.FeaturesPath; path != "" {
		if err := export.WriteFeaturesCSV(path, res.Logons); err != nil {
			return fmt.Errorf("writing features export: %w", err)
		}
		log.Info("wrote features export", zap.String("path", path))
	}

	if cfg.Database.DSN != "" {
		store, err := database.OpenStore(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer store.Close()

		inserted, err := store.InsertSessionLogs(events, func(done int) {
			log.Info("insert progress", zap.Int("events", done))
		})
		if err != nil {
			return fmt.Errorf("inserting session logs: %w", err)
		}
		log.Info("stored session logs",
			zap.Int("inserted", inserted),
			zap.String("driver", cfg.Database.Driver))
	}

	log.Info("scan complete",
		zap.String("scan_id", res.ScanID),
		zap.Int("logons", len(res.Logons)),
		zap.Int("logoffs", len(res.Logoffs)),
		zap.Int("discarded", res.Discarded),
		zap.Int("filtered", res.Filtered),
		zap.Int("malformed", res.Malformed),
		zap.Int("orphan_logoffs", res.OrphanLogoffs))
	return nil
}

// reportStats summarizes what the store holds: record totals, the
// risk-score distribution, rapid-login counts, and the highest-risk
// records.
func reportStats(store database.Store, log *zap.Logger) error {
	total, err := store.CountSessionLogs()
	if err != nil {
		return fmt.Errorf("counting session logs: %w", err)
	}

	features, err := store.QueryFeatures()
	if err != nil {
		return fmt.Errorf("querying features: %w", err)
	}
	rapid := 0
	for _, f := range features {
		if f.IsRapidLogin {
			rapid++
		}
	}

	log.Info("session log statistics",
		zap.Int64("total_records", total),
		zap.Int("logon_records", len(features)),
		zap.Int("rapid_logins", rapid))

	dist, err := store.RiskDistribution()
	if err != nil {
		return fmt.Errorf("querying risk distribution: %w", err)
	}
	for score, count := range dist {
		log.Info("risk score bucket",
			zap.Float64("score", score), zap.Int64("events", count))
	}

	risky, err := store.QuerySessionLogs(
		query.Simple("risk_score", query.GreaterOrEqual, highRiskScore),
		"timestamp", 10)
	if err != nil {
		return fmt.Errorf("querying high-risk records: %w", err)
	}
	for _, r := range risky {
		log.Info("high risk event",
			zap.String("timestamp", r.Timestamp),
			zap.String("user", r.User),
			zap.Float64("risk_score", r.RiskScore),
			zap.Strings("risk_factors", r.RiskFactors))
	}
	return nil
}

func newLogger(cfg config.Log) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.Encoding = "console"
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
