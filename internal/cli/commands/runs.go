package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show pipeline run history",
		Long:  `List recorded pipeline runs (ingest, clean, export, report) from the state database, newest first.`,
		Example: `  # Last 20 runs
  riskline runs

  # Last 5 runs as JSON
  riskline runs --limit 5 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			runs, err := cmdCtx.Engine.Store().ListRuns(limit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			r := cmdCtx.Renderer
			if len(runs) == 0 {
				r.Println("No runs recorded yet")
				return nil
			}

			r.Header(1, "Run History")
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				duration := "-"
				if run.CompletedAt != nil {
					duration = run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
				}
				errMsg := run.Error
				if len(errMsg) > 40 {
					errMsg = errMsg[:37] + "..."
				}
				rows = append(rows, []string{
					shortHash(run.ID),
					string(run.Kind),
					run.Environment,
					string(run.Status),
					run.StartedAt.Format(time.RFC3339),
					duration,
					errMsg,
				})
			}
			r.Table([]string{"ID", "Kind", "Env", "Status", "Started", "Duration", "Error"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")

	return cmd
}
