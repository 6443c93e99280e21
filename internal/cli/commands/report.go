package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/riskline-labs/riskline/internal/engine"
	"github.com/riskline-labs/riskline/internal/report"
)

// NewReportCommand creates the report command.
func NewReportCommand() *cobra.Command {
	var (
		table    string
		segment  string
		group    string
		category string
		outDir   string
		serve    bool
		watch    bool
		port     int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the portfolio analysis as an HTML report",
		Long: `Render the full portfolio analysis as a standalone HTML page with inline
SVG charts: monthly trends, distributions, segment comparisons and the
correlation matrix.

With --serve, the report is served over HTTP instead of written to disk.
Adding --watch re-ingests the raw extract and rebuilds the page whenever
the extract file changes.`,
		Example: `  # Write the report to the configured report directory
  riskline report

  # Report over the cleaned table
  riskline report --report-table policies_clean

  # Serve with live rebuild on extract changes
  riskline report --serve --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			cfg := cmdCtx.Cfg
			dir := outDir
			if dir == "" {
				dir = cfg.ReportDir
			}

			opts := report.Options{
				Table:          table,
				TimeColumn:     cfg.Dataset.TimeColumn,
				PremiumColumn:  cfg.Dataset.PremiumColumn,
				ClaimsColumn:   cfg.Dataset.ClaimsColumn,
				SegmentColumn:  segment,
				GroupColumn:    group,
				CategoryColumn: category,
				OutputDir:      dir,
			}

			gen, err := report.NewGenerator(cmdCtx.Engine, opts, cmdCtx.Logger)
			if err != nil {
				return err
			}

			if !serve {
				path, err := gen.Build(cmd.Context())
				if err != nil {
					return fmt.Errorf("report generation failed: %w", err)
				}
				cmdCtx.Renderer.Successf("Report written to %s", path)
				return nil
			}

			serverCfg := report.ServerConfig{
				Generator: gen,
				Port:      port,
				Logger:    cmdCtx.Logger,
			}
			if watch {
				if cfg.Dataset.Path == "" {
					return fmt.Errorf("--watch needs dataset.path to be configured")
				}
				serverCfg.WatchPath = cfg.Dataset.Path
				serverCfg.Reingest = func(ctx context.Context) error {
					_, err := cmdCtx.Engine.Ingest(ctx, engine.IngestOptions{
						Path:         cfg.Dataset.Path,
						Delimiter:    cfg.Dataset.Delimiter,
						SnapshotsDir: cfg.SnapshotsDir,
					})
					return err
				}
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigChan
				cancel()
			}()

			return report.NewServer(serverCfg).Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&table, "report-table", "", "Table to report on (default: configured dataset table)")
	cmd.Flags().StringVar(&segment, "segment", "", "Segment column for per-segment sections (default Province)")
	cmd.Flags().StringVar(&group, "group", "", "Group column for the premium/claims scatter (default PostalCode)")
	cmd.Flags().StringVar(&category, "category", "", "Category column for the cross tabulation (default CoverType)")
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (default: configured report directory)")
	cmd.Flags().BoolVar(&serve, "serve", false, "Serve the report over HTTP instead of writing it")
	cmd.Flags().BoolVar(&watch, "watch", false, "With --serve, rebuild when the raw extract changes")
	cmd.Flags().IntVar(&port, "port", 8490, "Port for --serve")

	return cmd
}
