package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	var (
		table   string
		csvPath string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a table to CSV or to the configured warehouse",
		Long: `Export a table from the analytics database.

With --csv, the table is written to a comma-separated file. Otherwise the
table is pushed to the export target configured in riskline.yaml (for
example a Postgres warehouse), staged through a temporary CSV.`,
		Example: `  # Write the cleaned table as CSV
  riskline export --export-table policies_clean --csv out/policies_clean.csv

  # Push the cleaned table to the configured warehouse
  riskline export --export-table policies_clean`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			r := cmdCtx.Renderer
			exportTable := table
			if exportTable == "" {
				exportTable = cmdCtx.Cfg.Dataset.Table
			}

			start := time.Now()

			if csvPath != "" {
				if err := cmdCtx.Engine.ExportCSV(cmd.Context(), exportTable, csvPath); err != nil {
					return fmt.Errorf("CSV export failed: %w", err)
				}
				r.Successf("Exported %s to %s", exportTable, csvPath)
				r.Printf("Completed in %s\n", time.Since(start).Round(time.Millisecond))
				return nil
			}

			if cmdCtx.Cfg.Export == nil {
				return fmt.Errorf("no export target configured: set export.type in riskline.yaml or use --csv")
			}

			if err := cmdCtx.Engine.Export(cmd.Context(), exportTable, *cmdCtx.Cfg.Export); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			r.Successf("Exported %s to %s target", exportTable, cmdCtx.Cfg.Export.Type)
			r.Printf("Completed in %s\n", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&table, "export-table", "", "Table to export (default: configured dataset table)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Write to this CSV file instead of the warehouse target")

	return cmd
}
