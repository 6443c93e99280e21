// Package engine orchestrates riskline's analysis pipeline: ingesting raw
// policy extracts into DuckDB, profiling and cleaning them, and computing
// trend and segment statistics.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/riskline-labs/riskline/internal/state"
	"github.com/riskline-labs/riskline/pkg/adapter"
)

// DefaultTable is the table raw extracts are ingested into.
const DefaultTable = "policies"

// Engine coordinates the analytics database and the state store.
type Engine struct {
	// Database adapter (lazy initialized)
	db          adapter.Adapter
	dbConfig    adapter.Config
	dbConnected bool
	dbMu        sync.Mutex

	logger      *slog.Logger
	store       state.Store
	environment string
	table       string
}

// Config holds engine configuration.
type Config struct {
	// AdapterConfig describes the analytics database connection.
	AdapterConfig adapter.Config
	// StatePath is the path to the SQLite state database.
	StatePath string
	// Environment is the current environment (dev, staging, prod).
	Environment string
	// Table is the policy table name (defaults to DefaultTable).
	Table string
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// New creates a new engine with a lazy database connection.
// The database adapter connects on first use.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	logger.Debug("initializing engine",
		slog.String("environment", cfg.Environment),
		slog.String("adapter", cfg.AdapterConfig.Type))

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate state store: %w", err)
	}

	env := cfg.Environment
	if env == "" {
		env = "dev"
	}

	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}

	dbConfig := cfg.AdapterConfig
	if dbConfig.Type == "" {
		dbConfig.Type = "duckdb"
	}

	return &Engine{
		dbConfig:    dbConfig,
		logger:      logger,
		store:       store,
		environment: env,
		table:       table,
	}, nil
}

// ensureDBConnected connects the database adapter on first use.
func (e *Engine) ensureDBConnected(ctx context.Context) error {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	if e.dbConnected {
		return nil
	}

	db, err := adapter.NewAdapter(e.dbConfig, e.logger)
	if err != nil {
		return err
	}
	if err := db.Connect(ctx, e.dbConfig); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", e.dbConfig.Type, err)
	}

	e.db = db
	e.dbConnected = true
	return nil
}

// DB returns the connected adapter, connecting if necessary.
// Used by the query REPL and the report generator.
func (e *Engine) DB(ctx context.Context) (adapter.Adapter, error) {
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}
	return e.db, nil
}

// Store returns the state store.
func (e *Engine) Store() state.Store {
	return e.store
}

// Table returns the configured policy table name.
func (e *Engine) Table() string {
	return e.table
}

// Environment returns the configured environment name.
func (e *Engine) Environment() string {
	return e.environment
}

// Close releases the database connection and the state store.
func (e *Engine) Close() error {
	var firstErr error

	e.dbMu.Lock()
	if e.dbConnected {
		if err := e.db.Close(); err != nil {
			firstErr = err
		}
		e.dbConnected = false
	}
	e.dbMu.Unlock()

	if err := e.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// trackRun wraps fn with run bookkeeping in the state store. The run is
// completed as failed when fn returns an error.
func (e *Engine) trackRun(kind state.RunKind, fn func(runID string) error) error {
	run, err := e.store.CreateRun(kind, e.environment)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	if err := fn(run.ID); err != nil {
		if cerr := e.store.CompleteRun(run.ID, state.RunStatusFailed, err.Error()); cerr != nil {
			e.logger.Debug("failed to mark run failed", slog.String("run_id", run.ID), slog.Any("error", cerr))
		}
		return err
	}

	if err := e.store.CompleteRun(run.ID, state.RunStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}
