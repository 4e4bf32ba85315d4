package database

import (
	"github.com/cdtdelta/logguard/internal/export"
	"github.com/cdtdelta/logguard/internal/model"
	"github.com/cdtdelta/logguard/internal/query"
)

// Store defines the persistence operations the application needs. Callers
// depend on this interface, not on a concrete backend.
type Store interface {
	// InsertSessionLogs inserts a batch of scored events inside a single
	// transaction. The onProgress callback, if non-nil, is called every
	// insertBatchStep events with the running count.
	InsertSessionLogs(events []*model.LogEvent, onProgress func(int)) (int, error)

	// QuerySessionLogs returns stored records matching the predicate,
	// which may be nil for all rows. orderBy must be an ExportFields
	// column name or empty; limit <= 0 means no limit.
	QuerySessionLogs(pred *query.Predicate, orderBy string, limit int) ([]export.Record, error)

	// CountSessionLogs returns the total number of stored records.
	CountSessionLogs() (int64, error)

	// QueryFeatures returns the anomaly-model projection of every stored
	// logon record.
	QueryFeatures() ([]export.FeatureRow, error)

	// RiskDistribution returns record counts grouped by risk score.
	RiskDistribution() (map[float64]int64, error)

	// Migrate ensures every ExportFields column exists, adding missing
	// ones for databases created by older versions.
	Migrate() error

	// Lifecycle
	Close() error
	Path() string
}
