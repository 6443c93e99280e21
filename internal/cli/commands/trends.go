package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/riskline-labs/riskline/internal/engine"
)

// NewTrendsCommand creates the trends command.
func NewTrendsCommand() *cobra.Command {
	var (
		table   string
		segment string
	)

	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Monthly premium and claims trends",
		Long: `Aggregate the policy table into a month-end premium/claims series with
month-over-month percentage changes and loss ratios.

With --segment, the premium series is additionally grouped by that column
(for example per province).`,
		Example: `  # Portfolio-level monthly series
  riskline trends

  # Trends over the cleaned table
  riskline trends --trend-table policies_clean

  # Premium per province per month
  riskline trends --segment Province`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			r := cmdCtx.Renderer
			opts := engine.TrendOptions{
				Table:         table,
				TimeColumn:    cmdCtx.Cfg.Dataset.TimeColumn,
				PremiumColumn: cmdCtx.Cfg.Dataset.PremiumColumn,
				ClaimsColumn:  cmdCtx.Cfg.Dataset.ClaimsColumn,
				Segment:       segment,
			}

			points, err := cmdCtx.Engine.MonthlyTrends(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("trend aggregation failed: %w", err)
			}
			if len(points) == 0 {
				r.Println("No trend data: check the time column and table")
				return nil
			}

			r.Header(1, "Monthly Trends")
			rows := make([][]string, 0, len(points))
			for _, p := range points {
				rows = append(rows, []string{
					p.Month.Format("2006-01"),
					formatFloat(p.TotalPremium),
					formatFloat(p.TotalClaims),
					formatPercent(p.PremiumChange),
					formatPercent(p.ClaimsChange),
					formatRatio(p.LossRatio),
				})
			}
			r.Table([]string{"Month", "Premium", "Claims", "Premium Δ%", "Claims Δ%", "Loss Ratio"}, rows)

			if segment != "" {
				segPoints, err := cmdCtx.Engine.SegmentTrends(cmd.Context(), opts)
				if err != nil {
					return fmt.Errorf("segment trend aggregation failed: %w", err)
				}

				r.Header(2, fmt.Sprintf("Premium by %s", segment))
				segRows := make([][]string, 0, len(segPoints))
				for _, p := range segPoints {
					segRows = append(segRows, []string{
						p.Segment,
						p.Month.Format("2006-01"),
						formatFloat(p.TotalPremium),
					})
				}
				r.Table([]string{segment, "Month", "Premium"}, segRows)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&table, "trend-table", "", "Table to aggregate (default: configured dataset table)")
	cmd.Flags().StringVar(&segment, "segment", "", "Also break premium down by this column")

	return cmd
}

func formatPercent(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%+.2f%%", *v*100)
}

func formatRatio(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}
