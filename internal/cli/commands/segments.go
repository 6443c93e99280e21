package commands

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"
)

// NewSegmentsCommand creates the segments command.
func NewSegmentsCommand() *cobra.Command {
	var (
		table      string
		keyColumn  string
		crossTab   string
		bivariate  bool
		correlate  bool
		corrCols   []string
		measureCol string
	)

	cmd := &cobra.Command{
		Use:   "segments",
		Short: "Segment comparisons across geographies and categories",
		Long: `Compare premium and claims across segments of the portfolio.

By default, premium distribution statistics are computed per segment key
(count, mean, median, min, max). Additional views:

  --bivariate   per-group premium/claims means with their correlation
                across groups (e.g. per postal code)
  --cross-tab   row counts per (segment, category) pair
  --correlate   pairwise correlation matrix over numeric columns`,
		Example: `  # Premium stats per province
  riskline segments --key Province

  # Postal-code premium vs claims relationship
  riskline segments --key PostalCode --bivariate

  # Cover type mix per province
  riskline segments --key Province --cross-tab CoverType

  # Correlation matrix over selected measures
  riskline segments --correlate --columns TotalPremium,TotalClaims,CustomValueEstimate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			r := cmdCtx.Renderer
			ctx := cmd.Context()
			eng := cmdCtx.Engine

			premium := cmdCtx.Cfg.Dataset.PremiumColumn
			claims := cmdCtx.Cfg.Dataset.ClaimsColumn
			measure := measureCol
			if measure == "" {
				measure = premium
			}

			if correlate {
				matrix, err := eng.Correlations(ctx, table, corrCols)
				if err != nil {
					return fmt.Errorf("correlation failed: %w", err)
				}

				r.Header(1, "Correlation Matrix")
				headers := append([]string{""}, matrix.Columns...)
				rows := make([][]string, 0, len(matrix.Columns))
				for i, col := range matrix.Columns {
					row := make([]string, 0, len(matrix.Columns)+1)
					row = append(row, col)
					for j := range matrix.Columns {
						row = append(row, formatCorr(matrix.Values[i][j]))
					}
					rows = append(rows, row)
				}
				r.Table(headers, rows)
				return nil
			}

			if keyColumn == "" {
				return fmt.Errorf("--key is required (e.g. --key Province)")
			}

			if bivariate {
				result, err := eng.Bivariate(ctx, table, keyColumn, premium, claims)
				if err != nil {
					return fmt.Errorf("bivariate analysis failed: %w", err)
				}

				r.Header(1, fmt.Sprintf("Premium vs Claims by %s", keyColumn))
				rows := make([][]string, 0, len(result.Groups))
				for _, g := range result.Groups {
					rows = append(rows, []string{
						g.Key, formatFloat(g.MeanPremium), formatFloat(g.MeanClaims),
					})
				}
				r.Table([]string{keyColumn, "Mean Premium", "Mean Claims"}, rows)
				r.Printf("Correlation across %d groups: %s\n", len(result.Groups), formatCorr(result.Correlation))
				return nil
			}

			if crossTab != "" {
				entries, err := eng.CrossTab(ctx, table, keyColumn, crossTab)
				if err != nil {
					return fmt.Errorf("cross tabulation failed: %w", err)
				}

				r.Header(1, fmt.Sprintf("%s by %s", crossTab, keyColumn))
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						e.Key, e.Category, strconv.FormatInt(e.Count, 10),
					})
				}
				r.Table([]string{keyColumn, crossTab, "Policies"}, rows)
				return nil
			}

			stats, err := eng.SegmentStats(ctx, table, keyColumn, measure)
			if err != nil {
				return fmt.Errorf("segment stats failed: %w", err)
			}

			r.Header(1, fmt.Sprintf("%s by %s", measure, keyColumn))
			rows := make([][]string, 0, len(stats))
			for _, g := range stats {
				rows = append(rows, []string{
					g.Key,
					strconv.FormatInt(g.Count, 10),
					formatFloat(g.Mean),
					formatFloat(g.Median),
					formatFloat(g.Min),
					formatFloat(g.Max),
				})
			}
			r.Table([]string{keyColumn, "Count", "Mean", "Median", "Min", "Max"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&table, "segment-table", "", "Table to analyze (default: configured dataset table)")
	cmd.Flags().StringVar(&keyColumn, "key", "", "Segment key column (e.g. Province, PostalCode)")
	cmd.Flags().StringVar(&measureCol, "measure", "", "Measure column for per-segment stats (default: premium column)")
	cmd.Flags().StringVar(&crossTab, "cross-tab", "", "Cross-tabulate the key against this categorical column")
	cmd.Flags().BoolVar(&bivariate, "bivariate", false, "Per-group premium/claims means and their correlation")
	cmd.Flags().BoolVar(&correlate, "correlate", false, "Pairwise correlation matrix over numeric columns")
	cmd.Flags().StringSliceVar(&corrCols, "columns", nil, "Columns for --correlate (default: all numeric)")

	return cmd
}

func formatCorr(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
