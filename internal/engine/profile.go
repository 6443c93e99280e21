package engine

// profile.go - data quality profiling: schema, statistics, missing values, outliers

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/riskline-labs/riskline/internal/analysis"
	"github.com/riskline-labs/riskline/internal/dataset"
)

// profileConcurrency bounds parallel per-column queries against DuckDB.
const profileConcurrency = 4

// ProfileOptions controls profiling.
type ProfileOptions struct {
	// Table overrides the engine's configured table name.
	Table string
	// IQRMultiplier is the outlier fence multiplier (default 1.5).
	IQRMultiplier float64
}

// Profile computes the full data quality report for a table.
func (e *Engine) Profile(ctx context.Context, opts ProfileOptions) (*dataset.Profile, error) {
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}

	table := opts.Table
	if table == "" {
		table = e.table
	}
	k := opts.IQRMultiplier
	if k == 0 {
		k = 1.5
	}

	meta, err := e.db.GetTableMetadata(ctx, table)
	if err != nil {
		return nil, err
	}

	profile := &dataset.Profile{
		Table:    table,
		RowCount: meta.RowCount,
		Schema:   dataset.SchemaFromMetadata(meta),
	}

	numeric := profile.NumericColumns()
	categorical := profile.CategoricalColumns()

	// Pre-sized result slices keep output in schema order without locking.
	numericOut := make([]*dataset.NumericSummary, len(numeric))
	outlierOut := make([]*dataset.OutlierSummary, len(numeric))
	categoricalOut := make([]*dataset.CategoricalSummary, len(categorical))
	missingOut := make([]*dataset.MissingSummary, len(profile.Schema))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(profileConcurrency)

	for i, col := range numeric {
		g.Go(func() error {
			summary, err := e.describeColumn(gctx, table, col)
			if err != nil {
				return err
			}
			numericOut[i] = summary
			return nil
		})
		g.Go(func() error {
			summary, err := e.outlierColumn(gctx, table, col, k)
			if err != nil {
				return err
			}
			outlierOut[i] = summary
			return nil
		})
	}

	for i, col := range categorical {
		g.Go(func() error {
			summary, err := e.categoricalColumn(gctx, table, col)
			if err != nil {
				return err
			}
			categoricalOut[i] = summary
			return nil
		})
	}

	for i, col := range profile.Schema {
		g.Go(func() error {
			summary, err := e.missingColumn(gctx, table, col.Name)
			if err != nil {
				return err
			}
			missingOut[i] = summary
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, s := range numericOut {
		if s != nil {
			profile.Numeric = append(profile.Numeric, *s)
		}
	}
	for _, s := range categoricalOut {
		if s != nil {
			profile.Categorical = append(profile.Categorical, *s)
		}
	}
	for _, s := range missingOut {
		if s != nil && s.NullCount > 0 {
			profile.Missing = append(profile.Missing, *s)
		}
	}
	for _, s := range outlierOut {
		if s != nil {
			profile.Outliers = append(profile.Outliers, *s)
		}
	}

	return profile, nil
}

func (e *Engine) describeColumn(ctx context.Context, table, col string) (*dataset.NumericSummary, error) {
	rows, err := e.db.Query(ctx, analysis.DescribeQuery(table, col))
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", col, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var count sql.NullInt64
	stats := make([]sql.NullFloat64, 9)
	if err := rows.Scan(&count, &stats[0], &stats[1], &stats[2], &stats[3],
		&stats[4], &stats[5], &stats[6], &stats[7], &stats[8]); err != nil {
		return nil, fmt.Errorf("failed to scan statistics for %s: %w", col, err)
	}

	return &dataset.NumericSummary{
		Column:   col,
		Count:    count.Int64,
		Mean:     nullToNaN(stats[0]),
		StdDev:   nullToNaN(stats[1]),
		Variance: nullToNaN(stats[2]),
		Min:      nullToNaN(stats[3]),
		P25:      nullToNaN(stats[4]),
		Median:   nullToNaN(stats[5]),
		P75:      nullToNaN(stats[6]),
		Max:      nullToNaN(stats[7]),
		Skewness: nullToNaN(stats[8]),
	}, nil
}

func (e *Engine) missingColumn(ctx context.Context, table, col string) (*dataset.MissingSummary, error) {
	rows, err := e.db.Query(ctx, analysis.MissingQuery(table, col))
	if err != nil {
		return nil, fmt.Errorf("failed to count nulls in %s: %w", col, err)
	}
	defer func() { _ = rows.Close() }()

	summary := &dataset.MissingSummary{Column: col}
	if rows.Next() {
		if err := rows.Scan(&summary.NullCount, &summary.RowCount); err != nil {
			return nil, fmt.Errorf("failed to scan null count for %s: %w", col, err)
		}
	}
	return summary, rows.Err()
}

func (e *Engine) categoricalColumn(ctx context.Context, table, col string) (*dataset.CategoricalSummary, error) {
	summary := &dataset.CategoricalSummary{Column: col}

	rows, err := e.db.Query(ctx, analysis.DistinctCountQuery(table, col))
	if err != nil {
		return nil, fmt.Errorf("failed to count distinct values in %s: %w", col, err)
	}
	if rows.Next() {
		if err := rows.Scan(&summary.DistinctCount); err != nil {
			_ = rows.Close()
			return nil, err
		}
	}
	_ = rows.Close()

	rows, err = e.db.Query(ctx, analysis.ModeQuery(table, col))
	if err != nil {
		return nil, fmt.Errorf("failed to compute mode of %s: %w", col, err)
	}
	defer func() { _ = rows.Close() }()

	if rows.Next() {
		var mode sql.NullString
		if err := rows.Scan(&mode, &summary.ModeCount); err != nil {
			return nil, err
		}
		summary.Mode = mode.String
	}
	return summary, rows.Err()
}

func (e *Engine) outlierColumn(ctx context.Context, table, col string, k float64) (*dataset.OutlierSummary, error) {
	lower, upper, err := e.outlierBounds(ctx, table, col, k)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(lower) || math.IsNaN(upper) {
		// All-null column: no fences, no outliers.
		return &dataset.OutlierSummary{Column: col, LowerBound: lower, UpperBound: upper}, nil
	}

	rows, err := e.db.Query(ctx, analysis.OutlierCountQuery(table, col, lower, upper))
	if err != nil {
		return nil, fmt.Errorf("failed to count outliers in %s: %w", col, err)
	}
	defer func() { _ = rows.Close() }()

	summary := &dataset.OutlierSummary{Column: col, LowerBound: lower, UpperBound: upper}
	if rows.Next() {
		if err := rows.Scan(&summary.Count); err != nil {
			return nil, err
		}
	}
	return summary, rows.Err()
}

func (e *Engine) outlierBounds(ctx context.Context, table, col string, k float64) (float64, float64, error) {
	rows, err := e.db.Query(ctx, analysis.OutlierBoundsQuery(table, col, k))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute IQR bounds for %s: %w", col, err)
	}
	defer func() { _ = rows.Close() }()

	var lower, upper sql.NullFloat64
	if rows.Next() {
		if err := rows.Scan(&lower, &upper); err != nil {
			return 0, 0, err
		}
	}
	return nullToNaN(lower), nullToNaN(upper), rows.Err()
}

func nullToNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
