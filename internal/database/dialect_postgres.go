package database

import (
	"fmt"
	"strings"
)

// pgReservedColumns are session_logs columns that collide with PostgreSQL
// reserved words and need quoting.
var pgReservedColumns = map[string]bool{
	"user": true,
}

// PostgresDialect implements Dialect for PostgreSQL databases.
type PostgresDialect struct{}

func (d *PostgresDialect) DriverName() string              { return "pgx" }
func (d *PostgresDialect) DSN(pathOrConnStr string) string { return pathOrConnStr }

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

// SanitizeText strips null bytes. PostgreSQL rejects them with "invalid
// byte sequence for encoding UTF8".
func (d *PostgresDialect) SanitizeText(s string) string {
	if strings.ContainsRune(s, '\x00') {
		return strings.ReplaceAll(s, "\x00", "")
	}
	return s
}

func (d *PostgresDialect) QuoteColumn(name string) string {
	if pgReservedColumns[name] {
		return `"` + name + `"`
	}
	return name
}

func (d *PostgresDialect) CreateTableSQL() string {
	return `CREATE TABLE IF NOT EXISTS session_logs (
		id SERIAL PRIMARY KEY,
		timestamp TEXT,
		event_type TEXT,
		"user" TEXT,
		domain TEXT,
		user_sid TEXT,
		logon_id TEXT,
		logon_type TEXT,
		status TEXT,
		source_ip TEXT,
		workstation_name TEXT,
		failure_reason TEXT,
		session_duration DOUBLE PRECISION,
		risk_factors TEXT,
		risk_score DOUBLE PRECISION,
		day_of_week TEXT,
		hour_of_day INT,
		is_business_hours BOOLEAN,
		event_id INT,
		event_task_category INT
	)`
}

func (d *PostgresDialect) CreateIndexSQL(indexName, tableName, column string) string {
	return fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
		indexName, tableName, d.QuoteColumn(column))
}

func (d *PostgresDialect) SchemaCheckColumnSQL(table, column string) string {
	return fmt.Sprintf(
		"SELECT COUNT(*) FROM information_schema.columns WHERE table_name='%s' AND column_name='%s'",
		table, column)
}

func (d *PostgresDialect) AddColumnSQL(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT", table, d.QuoteColumn(column))
}

func (d *PostgresDialect) InsertSQL() string {
	return `INSERT INTO session_logs (
		timestamp, event_type, "user", domain, user_sid,
		logon_id, logon_type, status, source_ip, workstation_name,
		failure_reason, session_duration, risk_factors, risk_score,
		day_of_week, hour_of_day, is_business_hours, event_id, event_task_category
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
}
