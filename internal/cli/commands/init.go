package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const configTemplate = `# riskline project configuration
dataset:
  path: data/policies.txt
  delimiter: "|"
  table: policies
  time_column: TransactionMonth
  premium_column: TotalPremium
  claims_column: TotalClaims

clean:
  missing_threshold: 0.5
  skew_threshold: 1.0
  iqr_multiplier: 1.5

target:
  type: duckdb
  path: .riskline/analytics.db

state_path: .riskline/state.db
snapshots_dir: .riskline/snapshots
report_dir: .riskline/report

environment: dev
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new riskline project",
		Long: `Initialize a new riskline project with default configuration.

This creates:
  - riskline.yaml configuration file
  - data/ directory for raw extracts
  - .riskline/ directory for the state database and snapshots`,
		Example: `  # Initialize in current directory
  riskline init

  # Initialize in a new directory
  riskline init my-project

  # Force overwrite existing config
  riskline init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			r := NewCommandContextWithoutEngine(cmd).Renderer

			if dir != "." {
				if err := os.MkdirAll(dir, 0o750); err != nil {
					return fmt.Errorf("failed to create directory %s: %w", dir, err)
				}
			}

			configPath := filepath.Join(dir, "riskline.yaml")
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("riskline.yaml already exists. Use --force to overwrite")
			}

			if err := os.WriteFile(configPath, []byte(configTemplate), 0o644); err != nil { //nolint:gosec // project config is not sensitive
				return fmt.Errorf("failed to write config: %w", err)
			}

			for _, sub := range []string{"data", ".riskline"} {
				if err := os.MkdirAll(filepath.Join(dir, sub), 0o750); err != nil {
					return fmt.Errorf("failed to create %s directory: %w", sub, err)
				}
			}

			r.Successf("Initialized riskline project in %s", dir)
			r.Println("Next: drop a raw extract into data/ and run 'riskline ingest'")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}
