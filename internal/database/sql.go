// Package database persists scored session logs to a relational store,
// with SQLite and PostgreSQL backends behind a shared dialect interface.
package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/cdtdelta/logguard/internal/export"
	"github.com/cdtdelta/logguard/internal/model"
	"github.com/cdtdelta/logguard/internal/query"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Columns indexed when creating a new database.
var DefaultIndexFields = []string{"user", "timestamp", "status", "risk_score"}

// insertBatchStep is how often the batch-insert progress callback fires.
const insertBatchStep = 10000

// SQLStore implements Store over a database/sql connection and a Dialect.
type SQLStore struct {
	path    string
	conn    *sql.DB
	dialect Dialect
}

// openSQL opens a connection, verifies it, and ensures the schema exists.
func openSQL(d Dialect, pathOrConnStr string) (*SQLStore, error) {
	conn, err := sql.Open(d.DriverName(), d.DSN(pathOrConnStr))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	db := &SQLStore{path: pathOrConnStr, conn: conn, dialect: d}

	if err := db.createSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	if err := db.Migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *SQLStore) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Path returns the file path or connection string of the database.
func (db *SQLStore) Path() string {
	return db.path
}

// Conn returns the underlying *sql.DB for advanced usage.
func (db *SQLStore) Conn() *sql.DB {
	return db.conn
}

// createSchema builds the session_logs table and default indexes.
func (db *SQLStore) createSchema() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(db.dialect.CreateTableSQL()); err != nil {
		return fmt.Errorf("creating session_logs table: %w", err)
	}

	for _, field := range DefaultIndexFields {
		ddl := db.dialect.CreateIndexSQL(field+"_idx", "session_logs", field)
		if _, err := tx.Exec(ddl); err != nil {
			return fmt.Errorf("creating index on %s: %w", field, err)
		}
	}

	return tx.Commit()
}

// Migrate adds any ExportFields columns missing from an existing table,
// so databases created by older versions keep working.
func (db *SQLStore) Migrate() error {
	for _, col := range model.ExportFields {
		var count int
		err := db.conn.QueryRow(
			db.dialect.SchemaCheckColumnSQL("session_logs", col),
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("checking column %s: %w", col, err)
		}
		if count == 0 {
			if _, err := db.conn.Exec(db.dialect.AddColumnSQL("session_logs", col)); err != nil {
				return fmt.Errorf("adding column %s: %w", col, err)
			}
		}
	}
	return nil
}

// InsertSessionLogs inserts a batch of events inside a single transaction.
// The onProgress callback is called every insertBatchStep events; pass nil
// if you don't need progress updates.
func (db *SQLStore) InsertSessionLogs(events []*model.LogEvent, onProgress func(int)) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(db.dialect.InsertSQL())
	if err != nil {
		return 0, fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, e := range events {
		if _, err := stmt.Exec(db.insertArgs(e)...); err != nil {
			return inserted, fmt.Errorf("inserting event %d: %w", inserted+1, err)
		}
		inserted++
		if onProgress != nil && inserted%insertBatchStep == 0 {
			onProgress(inserted)
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("committing transaction: %w", err)
	}
	return inserted, nil
}

// insertArgs flattens an event into insert parameters, in
// model.ExportFields order. Optional fields travel as SQL NULL.
func (db *SQLStore) insertArgs(e *model.LogEvent) []interface{} {
	san := db.dialect.SanitizeText

	var failureReason interface{}
	if e.FailureReason != nil {
		failureReason = san(*e.FailureReason)
	}
	var duration interface{}
	if e.SessionDuration != nil {
		duration = *e.SessionDuration
	}

	return []interface{}{
		e.Timestamp,
		e.Kind.ExportType(),
		san(e.User),
		san(e.Domain),
		san(e.UserSID),
		san(e.SessionID),
		e.LogonType,
		e.Status,
		san(e.SourceIP),
		san(e.Workstation),
		failureReason,
		duration,
		strings.Join(e.RiskFactors, ","),
		e.RiskScore,
		e.DayOfWeek,
		e.HourOfDay,
		e.IsBusinessHours,
		e.EventID,
		e.Category,
	}
}

// QuerySessionLogs returns stored records matching the predicate.
func (db *SQLStore) QuerySessionLogs(pred *query.Predicate, orderBy string, limit int) ([]export.Record, error) {
	cols := make([]string, len(model.ExportFields))
	for i, f := range model.ExportFields {
		cols[i] = db.dialect.QuoteColumn(f)
	}

	q := "SELECT " + strings.Join(cols, ", ") + " FROM session_logs"

	where, args := pred.WhereClause(db.dialect)
	if where != "" {
		q += " WHERE " + where
	}
	if orderBy != "" {
		if !query.IsValidField(orderBy) {
			return nil, fmt.Errorf("invalid order column: %s", orderBy)
		}
		q += " ORDER BY " + db.dialect.QuoteColumn(orderBy)
	}
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying session logs: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// CountSessionLogs returns the total number of stored records.
func (db *SQLStore) CountSessionLogs() (int64, error) {
	var count int64
	err := db.conn.QueryRow("SELECT COUNT(id) FROM session_logs").Scan(&count)
	return count, err
}

// QueryFeatures returns the anomaly-model projection of stored logon rows.
func (db *SQLStore) QueryFeatures() ([]export.FeatureRow, error) {
	q := "SELECT timestamp, " + db.dialect.QuoteColumn("user") +
		", status, risk_factors, is_business_hours, risk_score, logon_type, source_ip" +
		" FROM session_logs WHERE event_type = " + db.dialect.Placeholder(1)

	rows, err := db.conn.Query(q, "Logon")
	if err != nil {
		return nil, fmt.Errorf("querying features: %w", err)
	}
	defer rows.Close()

	var features []export.FeatureRow
	for rows.Next() {
		var fr export.FeatureRow
		var factors sql.NullString
		var sourceIP sql.NullString
		err := rows.Scan(&fr.Timestamp, &fr.User, &fr.Status, &factors,
			&fr.IsBusinessHours, &fr.RiskScore, &fr.LogonType, &sourceIP)
		if err != nil {
			return nil, fmt.Errorf("scanning feature row: %w", err)
		}
		fr.IsRapidLogin = strings.Contains(factors.String, "rapid_login_attempts")
		fr.SourceIP = sourceIP.String
		features = append(features, fr)
	}
	return features, rows.Err()
}

// RiskDistribution returns record counts grouped by risk score.
func (db *SQLStore) RiskDistribution() (map[float64]int64, error) {
	rows, err := db.conn.Query(
		"SELECT risk_score, COUNT(id) FROM session_logs GROUP BY risk_score")
	if err != nil {
		return nil, fmt.Errorf("querying risk distribution: %w", err)
	}
	defer rows.Close()

	dist := make(map[float64]int64)
	for rows.Next() {
		var score float64
		var count int64
		if err := rows.Scan(&score, &count); err != nil {
			return nil, fmt.Errorf("scanning distribution row: %w", err)
		}
		dist[score] = count
	}
	return dist, rows.Err()
}

// scanRecords converts sql.Rows into export records, handling nullable
// duration and failure-reason columns.
func scanRecords(rows *sql.Rows) ([]export.Record, error) {
	var records []export.Record
	for rows.Next() {
		var r export.Record
		var reason sql.NullString
		var duration sql.NullFloat64
		var factors sql.NullString

		err := rows.Scan(
			&r.Timestamp, &r.EventType, &r.User, &r.Domain, &r.UserSID,
			&r.LogonID, &r.LogonType, &r.Status, &r.SourceIP, &r.Workstation,
			&reason, &duration, &factors, &r.RiskScore,
			&r.DayOfWeek, &r.HourOfDay, &r.IsBusinessHours,
			&r.EventID, &r.EventCategory,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		if reason.Valid {
			v := reason.String
			r.FailureReason = &v
		}
		if duration.Valid {
			v := duration.Float64
			r.SessionDuration = &v
		}
		if factors.String != "" {
			r.RiskFactors = strings.Split(factors.String, ",")
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
