package engine

// trends.go - monthly premium/claims aggregation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riskline-labs/riskline/internal/analysis"
)

// TrendOptions selects the columns driving the monthly aggregation.
type TrendOptions struct {
	Table         string // defaults to the engine's table
	TimeColumn    string // defaults to "TransactionMonth"
	PremiumColumn string // defaults to "TotalPremium"
	ClaimsColumn  string // defaults to "TotalClaims"
	// Segment groups the premium series by this column when set
	// (e.g. Province).
	Segment string
}

func (o *TrendOptions) applyDefaults(table string) {
	if o.Table == "" {
		o.Table = table
	}
	if o.TimeColumn == "" {
		o.TimeColumn = "TransactionMonth"
	}
	if o.PremiumColumn == "" {
		o.PremiumColumn = "TotalPremium"
	}
	if o.ClaimsColumn == "" {
		o.ClaimsColumn = "TotalClaims"
	}
}

// TrendPoint is one month of aggregated premium and claims. Change fields
// are nil for the first month; LossRatio is nil for months with zero premium.
type TrendPoint struct {
	Month         time.Time
	TotalPremium  float64
	TotalClaims   float64
	PremiumChange *float64
	ClaimsChange  *float64
	LossRatio     *float64
}

// SegmentTrendPoint is one month of premium for one segment.
type SegmentTrendPoint struct {
	Segment      string
	Month        time.Time
	TotalPremium float64
}

// MonthlyTrends aggregates the policy table into a month-end premium/claims
// series with month-over-month changes and loss ratios.
func (e *Engine) MonthlyTrends(ctx context.Context, opts TrendOptions) ([]TrendPoint, error) {
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}
	opts.applyDefaults(e.table)

	query := analysis.MonthlyTrendQuery(opts.Table, opts.TimeColumn, opts.PremiumColumn, opts.ClaimsColumn)
	rows, err := e.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly trends: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var points []TrendPoint
	for rows.Next() {
		var p TrendPoint
		var premiumChange, claimsChange, lossRatio sql.NullFloat64
		if err := rows.Scan(&p.Month, &p.TotalPremium, &p.TotalClaims,
			&premiumChange, &claimsChange, &lossRatio); err != nil {
			return nil, fmt.Errorf("failed to scan trend row: %w", err)
		}
		p.PremiumChange = nullToPtr(premiumChange)
		p.ClaimsChange = nullToPtr(claimsChange)
		p.LossRatio = nullToPtr(lossRatio)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trend rows: %w", err)
	}

	return points, nil
}

// SegmentTrends aggregates monthly premium per segment (e.g. per province).
func (e *Engine) SegmentTrends(ctx context.Context, opts TrendOptions) ([]SegmentTrendPoint, error) {
	if opts.Segment == "" {
		return nil, fmt.Errorf("segment column is required")
	}
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}
	opts.applyDefaults(e.table)

	query := analysis.SegmentTrendQuery(opts.Table, opts.TimeColumn, opts.PremiumColumn, opts.Segment)
	rows, err := e.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate segment trends: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var points []SegmentTrendPoint
	for rows.Next() {
		var p SegmentTrendPoint
		if err := rows.Scan(&p.Segment, &p.Month, &p.TotalPremium); err != nil {
			return nil, fmt.Errorf("failed to scan segment trend row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating segment trend rows: %w", err)
	}

	return points, nil
}

func nullToPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
