package engine

// ingest.go - raw extract loading and snapshot recording

import (
	"context"
	"fmt"
	"os"

	"github.com/riskline-labs/riskline/internal/snapshot"
	"github.com/riskline-labs/riskline/internal/state"
	"github.com/riskline-labs/riskline/pkg/adapter"
)

// IngestOptions controls extract loading.
type IngestOptions struct {
	// Path is the raw extract file.
	Path string
	// Delimiter is the field separator (default "|").
	Delimiter string
	// Table overrides the engine's configured table name.
	Table string
	// SnapshotsDir is where YAML metafiles are written; empty disables
	// metafile output (the state store still records the snapshot).
	SnapshotsDir string
}

// IngestResult reports what was loaded.
type IngestResult struct {
	Table        string
	Rows         int64
	Columns      int64
	Snapshot     *state.Snapshot
	MetafilePath string
	// Reused is true when the content hash was already recorded.
	Reused bool
}

// Ingest loads a raw pipe-delimited extract into the policy table and
// records a content-addressed snapshot of the dataset version.
func (e *Engine) Ingest(ctx context.Context, opts IngestOptions) (*IngestResult, error) {
	if _, err := os.Stat(opts.Path); err != nil {
		return nil, fmt.Errorf("extract file not found: %s", opts.Path)
	}

	table := opts.Table
	if table == "" {
		table = e.table
	}

	var result *IngestResult
	err := e.trackRun(state.RunKindIngest, func(string) error {
		if err := e.ensureDBConnected(ctx); err != nil {
			return err
		}

		hash, err := snapshot.HashFile(opts.Path)
		if err != nil {
			return err
		}

		existing, err := e.store.GetSnapshotByHash(hash)
		if err != nil {
			return err
		}

		e.logger.Debug("loading extract", "path", opts.Path, "table", table)

		if err := e.db.LoadDelimited(ctx, table, opts.Path, adapter.LoadOptions{
			Delimiter: opts.Delimiter,
			Header:    true,
		}); err != nil {
			return err
		}

		meta, err := e.db.GetTableMetadata(ctx, table)
		if err != nil {
			return fmt.Errorf("failed to inspect loaded table: %w", err)
		}

		snap := existing
		reused := existing != nil
		if snap == nil {
			snap, err = e.store.RecordSnapshot(&state.Snapshot{
				Hash:       hash,
				SourcePath: opts.Path,
				Table:      table,
				Rows:       meta.RowCount,
				Columns:    int64(len(meta.Columns)),
			})
			if err != nil {
				return err
			}
		}

		var metafilePath string
		if opts.SnapshotsDir != "" {
			metafilePath, err = snapshot.Write(opts.SnapshotsDir, &snapshot.Metafile{
				Source:    opts.Path,
				SHA256:    hash,
				Table:     table,
				Rows:      meta.RowCount,
				Columns:   int64(len(meta.Columns)),
				CreatedAt: snap.CreatedAt,
			})
			if err != nil {
				return err
			}
		}

		result = &IngestResult{
			Table:        table,
			Rows:         meta.RowCount,
			Columns:      int64(len(meta.Columns)),
			Snapshot:     snap,
			MetafilePath: metafilePath,
			Reused:       reused,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CSVExporter is implemented by adapters that can write tables to CSV
// natively (DuckDB's COPY).
type CSVExporter interface {
	ExportCSV(ctx context.Context, tableName, filePath string) error
}

// ExportCSV writes a table to a CSV file.
func (e *Engine) ExportCSV(ctx context.Context, table, path string) error {
	if err := e.ensureDBConnected(ctx); err != nil {
		return err
	}

	exporter, ok := e.db.(CSVExporter)
	if !ok {
		return fmt.Errorf("adapter %s does not support CSV export", e.dbConfig.Type)
	}

	e.logger.Debug("exporting table to CSV", "table", table, "path", path)
	return exporter.ExportCSV(ctx, table, path)
}
