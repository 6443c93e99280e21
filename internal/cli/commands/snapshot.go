package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// NewSnapshotsCommand creates the snapshots command.
func NewSnapshotsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Show recorded dataset snapshots",
		Long: `List content-addressed dataset snapshots, newest first.

A snapshot is recorded on each ingest of previously unseen content: the
extract's SHA-256, row and column counts, and where it was loaded from.`,
		Example: `  # Recent snapshots
  riskline snapshots

  # All snapshot metadata as JSON
  riskline snapshots -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			snaps, err := cmdCtx.Engine.Store().ListSnapshots(limit)
			if err != nil {
				return fmt.Errorf("failed to list snapshots: %w", err)
			}

			r := cmdCtx.Renderer
			if len(snaps) == 0 {
				r.Println("No snapshots recorded yet. Run 'riskline ingest' first.")
				return nil
			}

			r.Header(1, "Dataset Snapshots")
			rows := make([][]string, 0, len(snaps))
			for _, s := range snaps {
				rows = append(rows, []string{
					shortHash(s.Hash),
					s.Table,
					strconv.FormatInt(s.Rows, 10),
					strconv.FormatInt(s.Columns, 10),
					s.SourcePath,
					s.CreatedAt.Format(time.RFC3339),
				})
			}
			r.Table([]string{"Hash", "Table", "Rows", "Columns", "Source", "Created"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of snapshots to show")

	return cmd
}
