package engine

// export.go - warehouse export of cleaned tables

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/riskline-labs/riskline/internal/state"
	"github.com/riskline-labs/riskline/pkg/adapter"
)

// Export copies a table from the analytics database to another adapter
// target (e.g. a Postgres warehouse). The transfer stages through a
// temporary CSV because the two databases share no wire protocol.
func (e *Engine) Export(ctx context.Context, table string, targetCfg adapter.Config) error {
	if table == "" {
		table = e.table
	}

	return e.trackRun(state.RunKindExport, func(string) error {
		if err := e.ensureDBConnected(ctx); err != nil {
			return err
		}

		target, err := adapter.NewAdapter(targetCfg, e.logger)
		if err != nil {
			return err
		}
		if err := target.Connect(ctx, targetCfg); err != nil {
			return fmt.Errorf("failed to connect to export target: %w", err)
		}
		defer func() { _ = target.Close() }()

		tmpDir, err := os.MkdirTemp("", "riskline-export-")
		if err != nil {
			return fmt.Errorf("failed to create staging directory: %w", err)
		}
		defer func() { _ = os.RemoveAll(tmpDir) }()

		stagingPath := filepath.Join(tmpDir, table+".csv")
		if err := e.ExportCSV(ctx, table, stagingPath); err != nil {
			return err
		}

		e.logger.Debug("loading staged CSV into target", "table", table, "target", targetCfg.Type)

		if err := target.LoadDelimited(ctx, table, stagingPath, adapter.LoadOptions{
			Delimiter: ",",
			Header:    true,
		}); err != nil {
			return fmt.Errorf("failed to load into export target: %w", err)
		}
		return nil
	})
}
