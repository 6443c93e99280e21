package engine

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riskline-labs/riskline/internal/analysis"
)

// SampleColumn fetches up to limit non-null values of a numeric column for
// Go-side binning (histograms, boxplots).
func (e *Engine) SampleColumn(ctx context.Context, table, column string, limit int) ([]float64, error) {
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}
	if table == "" {
		table = e.table
	}

	rows, err := e.db.Query(ctx, analysis.SampleColumnQuery(table, column, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to sample %s: %w", column, err)
	}
	defer func() { _ = rows.Close() }()

	var out []float64
	for rows.Next() {
		var v sql.NullFloat64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan sample from %s: %w", column, err)
		}
		if v.Valid {
			out = append(out, v.Float64)
		}
	}
	return out, rows.Err()
}

// ValueCounts returns the most frequent values of a column, descending.
func (e *Engine) ValueCounts(ctx context.Context, table, column string, limit int) ([]ValueCount, error) {
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}
	if table == "" {
		table = e.table
	}

	rows, err := e.db.Query(ctx, analysis.ValueCountsQuery(table, column, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to count values of %s: %w", column, err)
	}
	defer func() { _ = rows.Close() }()

	var out []ValueCount
	for rows.Next() {
		var vc ValueCount
		if err := rows.Scan(&vc.Value, &vc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan value count for %s: %w", column, err)
		}
		out = append(out, vc)
	}
	return out, rows.Err()
}

// ValueCount is one value of a categorical column with its frequency.
type ValueCount struct {
	Value string
	Count int64
}
