package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, buildDate, gitCommit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "riskline %s\n", version)
			fmt.Fprintln(out, "Insurance Portfolio Analytics Engine built with Go and DuckDB")
			if buildDate != "unknown" {
				fmt.Fprintf(out, "Built:  %s\n", buildDate)
			}
			if gitCommit != "unknown" {
				fmt.Fprintf(out, "Commit: %s\n", gitCommit)
			}
		},
	}
}
