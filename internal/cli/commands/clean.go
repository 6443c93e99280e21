package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskline-labs/riskline/internal/engine"
)

// NewCleanCommand creates the clean command.
func NewCleanCommand() *cobra.Command {
	var (
		targetTable      string
		missingThreshold float64
		skewThreshold    float64
		iqrK             float64
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Build a cleaned copy of the policy table",
		Long: `Build a cleaned copy of the policy table in three steps:

  1. Drop columns whose missing fraction exceeds the threshold.
  2. Impute remaining nulls: mode for categoricals, median for skewed
     numerics, mean otherwise.
  3. Cap numeric outliers to their IQR fences, recomputed after imputation.

The source table is never modified.`,
		Example: `  # Clean with configured thresholds
  riskline clean

  # Keep sparser columns and widen the fences
  riskline clean --missing-threshold 0.8 --iqr-multiplier 3.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			opts := engine.CleanOptions{
				TargetTable:      targetTable,
				MissingThreshold: missingThreshold,
				SkewThreshold:    skewThreshold,
				IQRMultiplier:    iqrK,
			}
			if opts.TargetTable == "" {
				opts.TargetTable = cmdCtx.Cfg.Clean.TargetTable
			}
			if opts.MissingThreshold == 0 {
				opts.MissingThreshold = cmdCtx.Cfg.Clean.MissingThreshold
			}
			if opts.SkewThreshold == 0 {
				opts.SkewThreshold = cmdCtx.Cfg.Clean.SkewThreshold
			}
			if opts.IQRMultiplier == 0 {
				opts.IQRMultiplier = cmdCtx.Cfg.Clean.IQRMultiplier
			}

			start := time.Now()
			result, err := cmdCtx.Engine.Clean(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("cleaning failed: %w", err)
			}

			r := cmdCtx.Renderer
			r.Successf("Cleaned %s into %s (%d rows)", result.SourceTable, result.TargetTable, result.Rows)

			if len(result.DroppedColumns) > 0 {
				r.Printf("Dropped %d columns: %s\n", len(result.DroppedColumns), strings.Join(result.DroppedColumns, ", "))
			} else {
				r.Println("No columns dropped")
			}

			if len(result.Imputations) > 0 {
				r.Header(2, "Imputations")
				rows := make([][]string, 0, len(result.Imputations))
				for _, imp := range result.Imputations {
					rows = append(rows, []string{
						imp.Column, string(imp.Method), strconv.FormatInt(imp.Nulls, 10),
					})
				}
				r.Table([]string{"Column", "Method", "Nulls Filled"}, rows)
			}

			if len(result.Capped) > 0 {
				r.Header(2, "Outlier Capping")
				rows := make([][]string, 0, len(result.Capped))
				for _, c := range result.Capped {
					rows = append(rows, []string{
						c.Column,
						formatFloat(c.LowerBound),
						formatFloat(c.UpperBound),
						strconv.FormatInt(c.Capped, 10),
					})
				}
				r.Table([]string{"Column", "Lower", "Upper", "Capped"}, rows)
			}

			r.Printf("Completed in %s\n", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&targetTable, "target-table", "", "Name for the cleaned table (default: <table>_clean)")
	cmd.Flags().Float64Var(&missingThreshold, "missing-threshold", 0, "Drop columns with missing fraction above this (default 0.5)")
	cmd.Flags().Float64Var(&skewThreshold, "skew-threshold", 0, "Use median imputation when |skewness| exceeds this (default 1.0)")
	cmd.Flags().Float64Var(&iqrK, "iqr-multiplier", 0, "IQR fence multiplier for capping (default 1.5)")

	return cmd
}
