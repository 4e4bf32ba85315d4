package database

import "fmt"

// SQLiteDialect implements Dialect for SQLite databases.
type SQLiteDialect struct{}

func (d *SQLiteDialect) DriverName() string              { return "sqlite" }
func (d *SQLiteDialect) DSN(pathOrConnStr string) string { return pathOrConnStr }
func (d *SQLiteDialect) Placeholder(index int) string    { return "?" }
func (d *SQLiteDialect) SanitizeText(s string) string    { return s }
func (d *SQLiteDialect) QuoteColumn(name string) string  { return name }

func (d *SQLiteDialect) CreateTableSQL() string {
	return `CREATE TABLE IF NOT EXISTS session_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT,
		event_type TEXT,
		user TEXT,
		domain TEXT,
		user_sid TEXT,
		logon_id TEXT,
		logon_type TEXT,
		status TEXT,
		source_ip TEXT,
		workstation_name TEXT,
		failure_reason TEXT,
		session_duration REAL,
		risk_factors TEXT,
		risk_score REAL,
		day_of_week TEXT,
		hour_of_day INT,
		is_business_hours BOOLEAN,
		event_id INT,
		event_task_category INT
	)`
}

func (d *SQLiteDialect) CreateIndexSQL(indexName, tableName, column string) string {
	return fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON %s (\"%s\")", indexName, tableName, column)
}

func (d *SQLiteDialect) SchemaCheckColumnSQL(table, column string) string {
	return fmt.Sprintf(
		"SELECT COUNT(*) FROM pragma_table_info('%s') WHERE name='%s'", table, column)
}

func (d *SQLiteDialect) AddColumnSQL(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN \"%s\" TEXT", table, column)
}

func (d *SQLiteDialect) InsertSQL() string {
	return `INSERT INTO session_logs (
		timestamp, event_type, user, domain, user_sid,
		logon_id, logon_type, status, source_ip, workstation_name,
		failure_reason, session_duration, risk_factors, risk_score,
		day_of_week, hour_of_day, is_business_hours, event_id, event_task_category
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
}
