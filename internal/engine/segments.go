package engine

// segments.go - geographic and categorical segment comparisons

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riskline-labs/riskline/internal/analysis"
	"github.com/riskline-labs/riskline/internal/dataset"
)

// GroupMeans is the per-group mean of two measures, e.g. mean premium and
// mean claims per postal code.
type GroupMeans struct {
	Key         string
	MeanPremium float64
	MeanClaims  float64
}

// BivariateResult pairs the group means with the Pearson correlation of the
// two mean series across groups.
type BivariateResult struct {
	Groups      []GroupMeans
	Correlation float64
}

// GroupStats is the distribution of a measure within one group.
type GroupStats struct {
	Key    string
	Count  int64
	Mean   float64
	Median float64
	Min    float64
	Max    float64
}

// CrossTabEntry counts rows for one (group, category) pair.
type CrossTabEntry struct {
	Key      string
	Category string
	Count    int64
}

// CorrelationMatrix holds pairwise Pearson correlations between columns.
type CorrelationMatrix struct {
	Columns []string
	// Values[i][j] is corr(Columns[i], Columns[j]); NaN when undefined.
	Values [][]float64
}

// Bivariate computes per-group means of premium and claims and the
// correlation between the two group-mean series.
func (e *Engine) Bivariate(ctx context.Context, table, keyColumn, premiumColumn, claimsColumn string) (*BivariateResult, error) {
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}
	if table == "" {
		table = e.table
	}

	query := analysis.GroupMeansQuery(table, keyColumn, premiumColumn, claimsColumn)
	rows, err := e.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to compute group means: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := &BivariateResult{}
	var premiums, claims []float64
	for rows.Next() {
		var g GroupMeans
		var p, c sql.NullFloat64
		if err := rows.Scan(&g.Key, &p, &c); err != nil {
			return nil, fmt.Errorf("failed to scan group means: %w", err)
		}
		if !p.Valid || !c.Valid {
			continue
		}
		g.MeanPremium = p.Float64
		g.MeanClaims = c.Float64
		result.Groups = append(result.Groups, g)
		premiums = append(premiums, g.MeanPremium)
		claims = append(claims, g.MeanClaims)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group means: %w", err)
	}

	result.Correlation = analysis.Pearson(premiums, claims)
	return result, nil
}

// SegmentStats computes the distribution of a measure per group
// (e.g. premium stats per province).
func (e *Engine) SegmentStats(ctx context.Context, table, keyColumn, measure string) ([]GroupStats, error) {
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}
	if table == "" {
		table = e.table
	}

	rows, err := e.db.Query(ctx, analysis.GroupStatsQuery(table, keyColumn, measure))
	if err != nil {
		return nil, fmt.Errorf("failed to compute segment stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []GroupStats
	for rows.Next() {
		var g GroupStats
		var mean, median, minV, maxV sql.NullFloat64
		if err := rows.Scan(&g.Key, &g.Count, &mean, &median, &minV, &maxV); err != nil {
			return nil, fmt.Errorf("failed to scan segment stats: %w", err)
		}
		g.Mean = mean.Float64
		g.Median = median.Float64
		g.Min = minV.Float64
		g.Max = maxV.Float64
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating segment stats: %w", err)
	}
	return out, nil
}

// CrossTab counts rows per (group, category) pair, e.g. cover type counts
// per province.
func (e *Engine) CrossTab(ctx context.Context, table, keyColumn, categoryColumn string) ([]CrossTabEntry, error) {
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}
	if table == "" {
		table = e.table
	}

	rows, err := e.db.Query(ctx, analysis.CrossTabQuery(table, keyColumn, categoryColumn))
	if err != nil {
		return nil, fmt.Errorf("failed to compute cross tabulation: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []CrossTabEntry
	for rows.Next() {
		var entry CrossTabEntry
		if err := rows.Scan(&entry.Key, &entry.Category, &entry.Count); err != nil {
			return nil, fmt.Errorf("failed to scan cross tabulation: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cross tabulation: %w", err)
	}
	return out, nil
}

// Correlations computes the pairwise correlation matrix over the given
// numeric columns. When columns is empty, all numeric columns are used.
func (e *Engine) Correlations(ctx context.Context, table string, columns []string) (*CorrelationMatrix, error) {
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}
	if table == "" {
		table = e.table
	}

	if len(columns) == 0 {
		meta, err := e.db.GetTableMetadata(ctx, table)
		if err != nil {
			return nil, err
		}
		for _, col := range meta.Columns {
			if dataset.Classify(col.Type) == dataset.Numeric {
				columns = append(columns, col.Name)
			}
		}
	}
	if len(columns) < 2 {
		return nil, fmt.Errorf("correlation needs at least 2 numeric columns, got %d", len(columns))
	}

	matrix := &CorrelationMatrix{Columns: columns}
	matrix.Values = make([][]float64, len(columns))
	for i := range matrix.Values {
		matrix.Values[i] = make([]float64, len(columns))
	}

	for i := range columns {
		matrix.Values[i][i] = 1
		for j := i + 1; j < len(columns); j++ {
			r, err := e.pairCorrelation(ctx, table, columns[i], columns[j])
			if err != nil {
				return nil, err
			}
			matrix.Values[i][j] = r
			matrix.Values[j][i] = r
		}
	}
	return matrix, nil
}

func (e *Engine) pairCorrelation(ctx context.Context, table, a, b string) (float64, error) {
	rows, err := e.db.Query(ctx, analysis.CorrQuery(table, a, b))
	if err != nil {
		return 0, fmt.Errorf("failed to correlate %s with %s: %w", a, b, err)
	}
	defer func() { _ = rows.Close() }()

	var r sql.NullFloat64
	if rows.Next() {
		if err := rows.Scan(&r); err != nil {
			return 0, err
		}
	}
	return nullToNaN(r), rows.Err()
}
