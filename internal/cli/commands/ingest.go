package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskline-labs/riskline/internal/engine"
)

// NewIngestCommand creates the ingest command.
func NewIngestCommand() *cobra.Command {
	var exportPath string

	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Load a raw policy extract into the analytics database",
		Long: `Load a pipe-delimited policy extract into DuckDB with schema inference.

Each ingest records a content-addressed snapshot of the dataset: the file's
SHA-256, row and column counts are stored in the state database and written
as a YAML metafile under the snapshots directory, so dataset versions can be
tracked alongside the code.`,
		Example: `  # Ingest the extract configured in riskline.yaml
  riskline ingest

  # Ingest an explicit file
  riskline ingest data/MachineLearningRating_v3.txt

  # Ingest and export a normalized CSV copy
  riskline ingest --export data/policies.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			path := cmdCtx.Cfg.Dataset.Path
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no extract file given: set dataset.path or pass a file argument")
			}

			r := cmdCtx.Renderer
			start := time.Now()

			result, err := cmdCtx.Engine.Ingest(cmd.Context(), engine.IngestOptions{
				Path:         path,
				Delimiter:    cmdCtx.Cfg.Dataset.Delimiter,
				SnapshotsDir: cmdCtx.Cfg.SnapshotsDir,
			})
			if err != nil {
				return fmt.Errorf("ingest failed: %w", err)
			}

			r.Successf("Loaded %s into %s (%d rows, %d columns)", path, result.Table, result.Rows, result.Columns)
			if result.Reused {
				r.Printf("Snapshot %s already recorded (unchanged content)\n", shortHash(result.Snapshot.Hash))
			} else {
				r.Printf("Recorded snapshot %s\n", shortHash(result.Snapshot.Hash))
			}
			if result.MetafilePath != "" {
				r.Printf("Metafile: %s\n", result.MetafilePath)
			}

			if exportPath != "" {
				if err := cmdCtx.Engine.ExportCSV(cmd.Context(), result.Table, exportPath); err != nil {
					return fmt.Errorf("CSV export failed: %w", err)
				}
				r.Printf("Exported CSV copy to %s\n", exportPath)
			}

			r.Printf("Completed in %s\n", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&exportPath, "export", "", "Also write a comma-separated CSV copy to this path")

	return cmd
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
