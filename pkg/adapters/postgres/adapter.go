// Package postgres provides a PostgreSQL adapter used as a warehouse export
// target for cleaned policy tables.
package postgres

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/riskline-labs/riskline/pkg/adapter"
)

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
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
	adapter.Register("postgres", func(logger *slog.Logger) adapter.Adapter {
		return New(logger)
	})
}

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := buildPostgresDSN(cfg)

	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if cfg.Options != nil {
		if mode, ok := cfg.Options["sslmode"]; ok {
			sslmode = mode
		}
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}

	return dsn
}

// GetTableMetadata retrieves metadata for a specified table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	return a.GetTableMetadataCommon(ctx, table, "public", func(n int) string {
		return fmt.Sprintf("$%d", n)
	})
}

// LoadDelimited loads a delimited text file into a table.
// All columns are created as TEXT for robustness; Postgres is an export
// target here, not the analysis engine, so typed inference is not needed.
func (a *Adapter) LoadDelimited(ctx context.Context, tableName, filePath string, opts adapter.LoadOptions) error {
	if a.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	file, err := os.Open(absPath) //nolint:gosec // absPath is derived from user-provided filePath, which is expected
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	delim := opts.Delimiter
	if delim == "" {
		delim = "|"
	}

	reader := csv.NewReader(file)
	reader.Comma = rune(delim[0])
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	if !opts.Header {
		return fmt.Errorf("postgres adapter requires a header row")
	}

	if err := a.createTextTable(ctx, tableName, headers); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	if err := a.insertRows(ctx, tableName, headers, reader); err != nil {
		return fmt.Errorf("failed to insert data: %w", err)
	}

	return nil
}

// createTextTable creates or replaces a table with all TEXT columns.
func (a *Adapter) createTextTable(ctx context.Context, tableName string, columns []string) error {
	dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName)
	if _, err := a.DB.ExecContext(ctx, dropSQL); err != nil {
		return err
	}

	colDefs := make([]string, 0, len(columns))
	for _, col := range columns {
		colDefs = append(colDefs, fmt.Sprintf("%s TEXT", sanitizeIdentifier(col)))
	}

	//nolint:gosec // Column names are sanitized above
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", tableName, strings.Join(colDefs, ", "))
	_, err := a.DB.ExecContext(ctx, createSQL)
	return err
}

// insertRows loads the remaining CSV records with batched multi-row inserts.
func (a *Adapter) insertRows(ctx context.Context, tableName string, headers []string, reader *csv.Reader) error {
	const batchSize = 500

	cols := make([]string, len(headers))
	for i, h := range headers {
		cols[i] = sanitizeIdentifier(h)
	}
	colList := strings.Join(cols, ", ")

	batch := make([][]string, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		var sb strings.Builder
		args := make([]any, 0, len(batch)*len(cols))
		fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", tableName, colList)
		for i, record := range batch {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(")
			for j, val := range record {
				if j > 0 {
					sb.WriteString(", ")
				}
				fmt.Fprintf(&sb, "$%d", len(args)+1)
				if val == "" {
					args = append(args, nil)
				} else {
					args = append(args, val)
				}
			}
			sb.WriteString(")")
		}
		if _, err := a.DB.ExecContext(ctx, sb.String(), args...); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read record: %w", err)
		}
		batch = append(batch, record)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	return flush()
}

var identifierPattern = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// sanitizeIdentifier makes a string safe to use as a SQL identifier.
func sanitizeIdentifier(s string) string {
	safe := identifierPattern.ReplaceAllString(s, "_")
	if safe == "" || (safe[0] >= '0' && safe[0] <= '9') {
		safe = "_" + safe
	}
	return strings.ToLower(safe)
}

// Ensure Adapter implements adapter.Adapter interface.
var _ adapter.Adapter = (*Adapter)(nil)
