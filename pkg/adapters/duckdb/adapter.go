// Package duckdb provides the DuckDB database adapter riskline uses as its
// analytics engine.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/riskline-labs/riskline/pkg/adapter"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

func init() {
	adapter.Register("duckdb", func(logger *slog.Logger) adapter.Adapter {
		return New(logger)
	})
}

// Connect establishes a connection to DuckDB.
// An empty path opens an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = cfg.Database
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// GetTableMetadata retrieves metadata for a specified table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	return a.GetTableMetadataCommon(ctx, table, "main", func(int) string { return "?" })
}

// LoadDelimited loads a delimited text file into a table. DuckDB infers the
// schema from the file; sample_size=-1 forces a full scan so sparse columns
// are typed from all rows rather than an unlucky prefix.
func (a *Adapter) LoadDelimited(ctx context.Context, tableName, filePath string, opts adapter.LoadOptions) error {
	if a.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	delim := opts.Delimiter
	if delim == "" {
		delim = "|"
	}

	//nolint:gosec // Table name is validated by caller; path and delimiter are quoted
	query := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv('%s', delim='%s', header=%t, sample_size=-1)",
		tableName,
		escapeSingleQuotes(absPath),
		escapeSingleQuotes(delim),
		opts.Header,
	)

	a.Logger.Debug("loading delimited file", slog.String("table", tableName), slog.String("path", absPath))

	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to load delimited file: %w", err)
	}
	return nil
}

// ExportCSV writes a table or query result to a CSV file using DuckDB's COPY.
func (a *Adapter) ExportCSV(ctx context.Context, tableName, filePath string) error {
	if a.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	//nolint:gosec // Table name is validated by caller; path is quoted
	query := fmt.Sprintf(
		"COPY %s TO '%s' (HEADER, DELIMITER ',')",
		tableName,
		escapeSingleQuotes(absPath),
	)

	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to export CSV: %w", err)
	}
	return nil
}

func escapeSingleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Ensure Adapter implements adapter.Adapter interface.
var _ adapter.Adapter = (*Adapter)(nil)
