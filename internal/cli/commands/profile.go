package commands

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/riskline-labs/riskline/internal/engine"
)

// NewProfileCommand creates the profile command.
func NewProfileCommand() *cobra.Command {
	var (
		table string
		iqrK  float64
	)

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Profile data quality of the policy table",
		Long: `Profile the ingested policy table: schema, descriptive statistics for
numeric columns, frequency summaries for categorical columns, missing-value
counts and IQR outlier fences.`,
		Example: `  # Profile the configured table
  riskline profile

  # Profile the cleaned table
  riskline profile --profile-table policies_clean

  # Wider outlier fences
  riskline profile --iqr-multiplier 3.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			profile, err := cmdCtx.Engine.Profile(cmd.Context(), engine.ProfileOptions{
				Table:         table,
				IQRMultiplier: iqrK,
			})
			if err != nil {
				return fmt.Errorf("profiling failed: %w", err)
			}

			r := cmdCtx.Renderer
			r.Header(1, fmt.Sprintf("Data Quality: %s", profile.Table))
			r.Printf("Rows: %d  Columns: %d\n", profile.RowCount, len(profile.Schema))

			r.Header(2, "Schema")
			schemaRows := make([][]string, 0, len(profile.Schema))
			for _, col := range profile.Schema {
				schemaRows = append(schemaRows, []string{
					col.Name, col.Type, string(col.Class), strconv.FormatBool(col.Nullable),
				})
			}
			r.Table([]string{"Column", "Type", "Class", "Nullable"}, schemaRows)

			if len(profile.Numeric) > 0 {
				r.Header(2, "Numeric Statistics")
				numRows := make([][]string, 0, len(profile.Numeric))
				for _, s := range profile.Numeric {
					numRows = append(numRows, []string{
						s.Column,
						strconv.FormatInt(s.Count, 10),
						formatFloat(s.Mean),
						formatFloat(s.StdDev),
						formatFloat(s.Min),
						formatFloat(s.P25),
						formatFloat(s.Median),
						formatFloat(s.P75),
						formatFloat(s.Max),
						formatFloat(s.Skewness),
					})
				}
				r.Table([]string{"Column", "Count", "Mean", "StdDev", "Min", "P25", "Median", "P75", "Max", "Skew"}, numRows)
			}

			if len(profile.Categorical) > 0 {
				r.Header(2, "Categorical Summaries")
				catRows := make([][]string, 0, len(profile.Categorical))
				for _, s := range profile.Categorical {
					catRows = append(catRows, []string{
						s.Column,
						strconv.FormatInt(s.DistinctCount, 10),
						s.Mode,
						strconv.FormatInt(s.ModeCount, 10),
					})
				}
				r.Table([]string{"Column", "Distinct", "Mode", "Mode Count"}, catRows)
			}

			if len(profile.Missing) > 0 {
				r.Header(2, "Missing Values")
				missRows := make([][]string, 0, len(profile.Missing))
				for _, m := range profile.Missing {
					missRows = append(missRows, []string{
						m.Column,
						strconv.FormatInt(m.NullCount, 10),
						fmt.Sprintf("%.2f%%", m.Percent()),
					})
				}
				r.Table([]string{"Column", "Nulls", "Missing"}, missRows)
			} else {
				r.Header(2, "Missing Values")
				r.Println("No missing values detected")
			}

			if len(profile.Outliers) > 0 {
				r.Header(2, "Outliers (IQR fences)")
				outRows := make([][]string, 0, len(profile.Outliers))
				for _, o := range profile.Outliers {
					outRows = append(outRows, []string{
						o.Column,
						formatFloat(o.LowerBound),
						formatFloat(o.UpperBound),
						strconv.FormatInt(o.Count, 10),
					})
				}
				r.Table([]string{"Column", "Lower", "Upper", "Outside"}, outRows)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&table, "profile-table", "", "Table to profile (default: configured dataset table)")
	cmd.Flags().Float64Var(&iqrK, "iqr-multiplier", 0, "IQR fence multiplier (default 1.5)")

	return cmd
}

// formatFloat renders statistics compactly; NaN shows as a dash.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e12 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
