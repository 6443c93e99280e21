// Package adapter provides database adapter interfaces for riskline's
// analytics engine.
//
// This package contains the public contract that all database adapters must
// implement. Concrete adapter implementations are in pkg/adapters/
// subdirectories.
package adapter

import (
	"context"
	"database/sql"
)

// Config holds connection configuration for an adapter.
type Config struct {
	Type string `koanf:"type"` // duckdb, postgres

	// File-based databases (DuckDB)
	Path string `koanf:"path"` // file path, empty for in-memory

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`

	// Common
	Schema string `koanf:"schema"`

	// Additional driver-specific options (e.g. sslmode for postgres)
	Options map[string]string `koanf:"options"`
}

// Column describes a single column of a table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// Metadata describes a table's shape.
type Metadata struct {
	Schema   string
	Name     string
	Columns  []Column
	RowCount int64
}

// Rows wraps sql.Rows so callers don't import database/sql directly.
type Rows struct {
	*sql.Rows
}

// LoadOptions controls delimited-text ingestion.
type LoadOptions struct {
	// Delimiter is the field separator. Defaults to "|" when empty, matching
	// the raw policy extracts riskline is built around.
	Delimiter string
	// Header indicates whether the first line carries column names.
	Header bool
}

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows (e.g., CREATE, UPDATE).
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// GetTableMetadata retrieves metadata for a specified table.
	GetTableMetadata(ctx context.Context, table string) (*Metadata, error)

	// LoadDelimited loads a delimited text file into a table, replacing the
	// table if it already exists. The schema is inferred by the database.
	LoadDelimited(ctx context.Context, tableName, filePath string, opts LoadOptions) error
}
