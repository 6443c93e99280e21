package engine

// clean.go - missing-value handling and outlier capping

import (
	"context"
	"fmt"
	"math"

	"github.com/riskline-labs/riskline/internal/analysis"
	"github.com/riskline-labs/riskline/internal/dataset"
	"github.com/riskline-labs/riskline/internal/state"
)

// CleanOptions controls the cleaning pipeline.
type CleanOptions struct {
	// SourceTable defaults to the engine's configured table.
	SourceTable string
	// TargetTable defaults to "<source>_clean".
	TargetTable string
	// MissingThreshold drops columns whose missing fraction exceeds it
	// (default 0.5). Fully-null columns are always dropped.
	MissingThreshold float64
	// SkewThreshold switches numeric imputation from mean to median when
	// |skewness| exceeds it (default 1).
	SkewThreshold float64
	// IQRMultiplier is the outlier fence multiplier (default 1.5).
	IQRMultiplier float64
}

// ImputeMethod names a fill strategy.
type ImputeMethod string

const (
	ImputeMode   ImputeMethod = "mode"
	ImputeMean   ImputeMethod = "mean"
	ImputeMedian ImputeMethod = "median"
)

// Imputation records one filled column.
type Imputation struct {
	Column string
	Method ImputeMethod
	Nulls  int64
}

// CappedColumn records outlier capping applied to one column.
type CappedColumn struct {
	Column     string
	LowerBound float64
	UpperBound float64
	Capped     int64
}

// CleanResult reports what the cleaning pipeline did.
type CleanResult struct {
	SourceTable    string
	TargetTable    string
	Rows           int64
	DroppedColumns []string
	Imputations    []Imputation
	Capped         []CappedColumn
}

// Clean builds a cleaned copy of the policy table in three fixed steps:
// drop columns with excessive missingness, impute remaining nulls (mode for
// categoricals, mean or median by skewness for numerics), then cap numeric
// outliers to their IQR fences. The source table is left untouched.
func (e *Engine) Clean(ctx context.Context, opts CleanOptions) (*CleanResult, error) {
	source := opts.SourceTable
	if source == "" {
		source = e.table
	}
	target := opts.TargetTable
	if target == "" {
		target = source + "_clean"
	}
	threshold := opts.MissingThreshold
	if threshold == 0 {
		threshold = 0.5
	}
	skewThreshold := opts.SkewThreshold
	if skewThreshold == 0 {
		skewThreshold = 1
	}
	k := opts.IQRMultiplier
	if k == 0 {
		k = 1.5
	}

	var result *CleanResult
	err := e.trackRun(state.RunKindClean, func(string) error {
		if err := e.ensureDBConnected(ctx); err != nil {
			return err
		}

		profile, err := e.Profile(ctx, ProfileOptions{Table: source, IQRMultiplier: k})
		if err != nil {
			return err
		}

		res, err := e.clean(ctx, profile, source, target, threshold, skewThreshold, k)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) clean(ctx context.Context, profile *dataset.Profile, source, target string, threshold, skewThreshold, k float64) (*CleanResult, error) {
	result := &CleanResult{SourceTable: source, TargetTable: target}

	missing := make(map[string]dataset.MissingSummary, len(profile.Missing))
	for _, m := range profile.Missing {
		missing[m.Column] = m
	}
	skew := make(map[string]float64, len(profile.Numeric))
	for _, n := range profile.Numeric {
		skew[n.Column] = n.Skewness
	}

	// Step 1: decide which columns survive.
	drop := make(map[string]bool)
	for _, m := range profile.Missing {
		if frac := m.Fraction(); frac > threshold || frac == 1 {
			drop[m.Column] = true
			result.DroppedColumns = append(result.DroppedColumns, m.Column)
		}
	}
	if len(drop) == len(profile.Schema) {
		return nil, fmt.Errorf("all %d columns exceed the missing threshold", len(drop))
	}

	// Step 2: imputation expressions for the staging table.
	var exprs []string
	for _, col := range profile.Schema {
		if drop[col.Name] {
			continue
		}

		m, hasNulls := missing[col.Name]
		if !hasNulls || m.NullCount == 0 {
			exprs = append(exprs, analysis.QuoteIdent(col.Name))
			continue
		}

		switch col.Class {
		case dataset.Categorical:
			exprs = append(exprs, analysis.ImputeExpr(source, col.Name, "mode"))
			result.Imputations = append(result.Imputations, Imputation{
				Column: col.Name, Method: ImputeMode, Nulls: m.NullCount,
			})
		case dataset.Numeric:
			method := ImputeMean
			statFunc := "avg"
			if s, ok := skew[col.Name]; ok && !math.IsNaN(s) && math.Abs(s) > skewThreshold {
				method = ImputeMedian
				statFunc = "median"
			}
			exprs = append(exprs, analysis.ImputeExpr(source, col.Name, statFunc))
			result.Imputations = append(result.Imputations, Imputation{
				Column: col.Name, Method: method, Nulls: m.NullCount,
			})
		default:
			// Datetime and other columns pass through; trend queries
			// filter nulls themselves.
			exprs = append(exprs, analysis.QuoteIdent(col.Name))
		}
	}

	staging := target + "_staging"
	if err := e.db.Exec(ctx, analysis.CreateTableAs(staging, exprs, source)); err != nil {
		return nil, fmt.Errorf("failed to build staging table: %w", err)
	}
	defer func() {
		_ = e.db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", staging))
	}()

	// Step 3: cap numeric outliers, with fences recomputed on the imputed
	// data so fills don't land outside their own fences.
	var capExprs []string
	for _, col := range profile.Schema {
		if drop[col.Name] {
			continue
		}
		if col.Class != dataset.Numeric {
			capExprs = append(capExprs, analysis.QuoteIdent(col.Name))
			continue
		}

		lower, upper, err := e.outlierBounds(ctx, staging, col.Name, k)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(lower) || math.IsNaN(upper) {
			capExprs = append(capExprs, analysis.QuoteIdent(col.Name))
			continue
		}

		var capped int64
		rows, err := e.db.Query(ctx, analysis.OutlierCountQuery(staging, col.Name, lower, upper))
		if err != nil {
			return nil, err
		}
		if rows.Next() {
			if err := rows.Scan(&capped); err != nil {
				_ = rows.Close()
				return nil, err
			}
		}
		_ = rows.Close()

		capExprs = append(capExprs, analysis.CapExpr(col.Name, lower, upper))
		result.Capped = append(result.Capped, CappedColumn{
			Column: col.Name, LowerBound: lower, UpperBound: upper, Capped: capped,
		})
	}

	if err := e.db.Exec(ctx, analysis.CreateTableAs(target, capExprs, staging)); err != nil {
		return nil, fmt.Errorf("failed to build cleaned table: %w", err)
	}

	meta, err := e.db.GetTableMetadata(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect cleaned table: %w", err)
	}
	result.Rows = meta.RowCount

	return result, nil
}
