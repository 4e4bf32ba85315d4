package database

// Dialect abstracts all backend-specific SQL generation. Each backend
// (SQLite, PostgreSQL) implements this interface; the store itself is
// backend-agnostic. Placeholder matches query.Placeholders through Go
// structural typing, so a Dialect also serves the query builder.
type Dialect interface {
	// DriverName returns the database/sql driver name.
	DriverName() string

	// DSN returns the data source name for opening a connection. For
	// SQLite this is the file path; for PostgreSQL a connection string.
	DSN(pathOrConnStr string) string

	// Placeholder returns the parameter placeholder for the given
	// 1-based index. SQLite: "?", PostgreSQL: "$1", "$2", ...
	Placeholder(index int) string

	// CreateTableSQL returns the DDL for the session_logs table.
	CreateTableSQL() string

	// CreateIndexSQL returns DDL to create an index on a column.
	CreateIndexSQL(indexName, tableName, column string) string

	// SchemaCheckColumnSQL returns a query counting how many times a
	// column appears in a table's schema. Used for migration checks.
	SchemaCheckColumnSQL(table, column string) string

	// AddColumnSQL returns DDL adding a missing text column.
	AddColumnSQL(table, column string) string

	// InsertSQL returns the parameterized INSERT for one session log row,
	// with one placeholder per model.ExportFields column.
	InsertSQL() string

	// SanitizeText adjusts a string value for the backend. PostgreSQL
	// rejects null bytes that SQLite stores without complaint.
	SanitizeText(s string) string

	// QuoteColumn returns the column name quoted for the dialect.
	// PostgreSQL wraps reserved words ("user") in double quotes; SQLite
	// returns the name unchanged.
	QuoteColumn(name string) string
}
