// Package report renders the portfolio analysis as a standalone HTML page
// with inline SVG charts, and can serve it with live rebuild on data changes.
package report

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/riskline-labs/riskline/internal/dataset"
	"github.com/riskline-labs/riskline/internal/engine"
	"github.com/riskline-labs/riskline/internal/state"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	// sampleLimit caps how many values are pulled per column for binning.
	sampleLimit = 50000
	// histogramBins matches the default bin count of the charts.
	histogramBins = 30
	// maxDistributionCharts caps histogram/boxplot pairs on the page.
	maxDistributionCharts = 6
	// maxCategoryCharts caps categorical frequency charts.
	maxCategoryCharts = 4
	// maxCategoryCardinality skips high-cardinality columns like postal codes.
	maxCategoryCardinality = 20
)

// Options selects the tables and columns the report covers.
type Options struct {
	// Table is the table to report on (typically the cleaned table).
	Table string
	// TimeColumn, PremiumColumn and ClaimsColumn drive the trend section.
	TimeColumn    string
	PremiumColumn string
	ClaimsColumn  string
	// SegmentColumn drives per-segment trends and stats (default Province).
	SegmentColumn string
	// GroupColumn drives the bivariate premium/claims scatter
	// (default PostalCode).
	GroupColumn string
	// CategoryColumn is cross-tabulated against the segment column
	// (default CoverType).
	CategoryColumn string
	// OutputDir is where index.html is written.
	OutputDir string
}

func (o *Options) applyDefaults() {
	if o.TimeColumn == "" {
		o.TimeColumn = "TransactionMonth"
	}
	if o.PremiumColumn == "" {
		o.PremiumColumn = "TotalPremium"
	}
	if o.ClaimsColumn == "" {
		o.ClaimsColumn = "TotalClaims"
	}
	if o.SegmentColumn == "" {
		o.SegmentColumn = "Province"
	}
	if o.GroupColumn == "" {
		o.GroupColumn = "PostalCode"
	}
	if o.CategoryColumn == "" {
		o.CategoryColumn = "CoverType"
	}
}

// Generator builds the HTML report from the analytics database.
type Generator struct {
	eng    *engine.Engine
	opts   Options
	logger *slog.Logger
	tmpl   *template.Template
}

// NamedChart is a chart with its section label.
type NamedChart struct {
	Name  string
	Chart template.HTML
}

// Data is everything the report template renders.
type Data struct {
	GeneratedAt time.Time
	Environment string
	Table       string

	Profile *dataset.Profile

	Trends            []engine.TrendPoint
	TrendChart        template.HTML
	SegmentColumn     string
	SegmentTrendChart template.HTML

	Histograms []NamedChart
	BoxPlots   []NamedChart

	GroupColumn   string
	Bivariate     *engine.BivariateResult
	ScatterChart  template.HTML
	GroupStats    []engine.GroupStats
	PremiumColumn string

	CategoryColumn string
	CrossTab       []engine.CrossTabEntry
	CategoryCharts []NamedChart

	CorrelationChart template.HTML
}

// NewGenerator creates a report generator for the engine.
func NewGenerator(eng *engine.Engine, opts Options, logger *slog.Logger) (*Generator, error) {
	opts.applyDefaults()
	if opts.Table == "" {
		opts.Table = eng.Table()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tmpl, err := template.New("report.html.tmpl").Funcs(template.FuncMap{
		"money":   formatMoney,
		"num":     formatNumber,
		"pct":     formatPct,
		"ratio":   formatRatioPtr,
		"change":  formatChangePtr,
		"month":   func(t time.Time) string { return t.Format("2006-01") },
		"hasData": func(n int) bool { return n > 0 },
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}

	return &Generator{eng: eng, opts: opts, logger: logger, tmpl: tmpl}, nil
}

// Build collects the report data, renders the template and writes
// index.html under OutputDir. Returns the written path.
func (g *Generator) Build(ctx context.Context) (string, error) {
	run, err := g.eng.Store().CreateRun(state.RunKindReport, g.eng.Environment())
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}

	path, err := g.build(ctx)
	if err != nil {
		_ = g.eng.Store().CompleteRun(run.ID, state.RunStatusFailed, err.Error())
		return "", err
	}
	if err := g.eng.Store().CompleteRun(run.ID, state.RunStatusCompleted, ""); err != nil {
		return "", fmt.Errorf("failed to complete run: %w", err)
	}
	return path, nil
}

func (g *Generator) build(ctx context.Context) (string, error) {
	data, err := g.collect(ctx)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	if err := os.MkdirAll(g.opts.OutputDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(g.opts.OutputDir, "index.html")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { //nolint:gosec // report is meant to be shared
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	g.logger.Debug("report written", slog.String("path", path), slog.Int("bytes", buf.Len()))
	return path, nil
}

// Render renders the report to memory without touching disk or run history.
// Used by the dev server.
func (g *Generator) Render(ctx context.Context) ([]byte, error) {
	data, err := g.collect(ctx)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) collect(ctx context.Context) (*Data, error) {
	opts := g.opts
	data := &Data{
		GeneratedAt:    time.Now(),
		Environment:    g.eng.Environment(),
		Table:          opts.Table,
		SegmentColumn:  opts.SegmentColumn,
		GroupColumn:    opts.GroupColumn,
		CategoryColumn: opts.CategoryColumn,
		PremiumColumn:  opts.PremiumColumn,
	}

	profile, err := g.eng.Profile(ctx, engine.ProfileOptions{Table: opts.Table})
	if err != nil {
		return nil, err
	}
	data.Profile = profile

	trendOpts := engine.TrendOptions{
		Table:         opts.Table,
		TimeColumn:    opts.TimeColumn,
		PremiumColumn: opts.PremiumColumn,
		ClaimsColumn:  opts.ClaimsColumn,
		Segment:       opts.SegmentColumn,
	}

	if hasColumn(profile, opts.TimeColumn) {
		trends, err := g.eng.MonthlyTrends(ctx, trendOpts)
		if err != nil {
			return nil, err
		}
		data.Trends = trends
		data.TrendChart = TrendSVG(trends)

		if hasColumn(profile, opts.SegmentColumn) {
			segTrends, err := g.eng.SegmentTrends(ctx, trendOpts)
			if err != nil {
				return nil, err
			}
			data.SegmentTrendChart = SegmentTrendSVG(segTrends)
		}
	}

	if err := g.collectDistributions(ctx, profile, data); err != nil {
		return nil, err
	}

	if hasColumn(profile, opts.GroupColumn) {
		bivar, err := g.eng.Bivariate(ctx, opts.Table, opts.GroupColumn, opts.PremiumColumn, opts.ClaimsColumn)
		if err != nil {
			return nil, err
		}
		data.Bivariate = bivar

		xs := make([]float64, 0, len(bivar.Groups))
		ys := make([]float64, 0, len(bivar.Groups))
		for _, grp := range bivar.Groups {
			xs = append(xs, grp.MeanPremium)
			ys = append(ys, grp.MeanClaims)
		}
		data.ScatterChart = ScatterSVG(xs, ys, chartPalette[4])
	}

	if hasColumn(profile, opts.SegmentColumn) {
		stats, err := g.eng.SegmentStats(ctx, opts.Table, opts.SegmentColumn, opts.PremiumColumn)
		if err != nil {
			return nil, err
		}
		data.GroupStats = stats

		if hasColumn(profile, opts.CategoryColumn) {
			crossTab, err := g.eng.CrossTab(ctx, opts.Table, opts.SegmentColumn, opts.CategoryColumn)
			if err != nil {
				return nil, err
			}
			data.CrossTab = crossTab
		}
	}

	if err := g.collectCategories(ctx, profile, data); err != nil {
		return nil, err
	}

	if len(profile.NumericColumns()) >= 2 {
		matrix, err := g.eng.Correlations(ctx, opts.Table, nil)
		if err != nil {
			return nil, err
		}
		data.CorrelationChart = HeatmapSVG(matrix.Columns, matrix.Values)
	}

	return data, nil
}

// collectDistributions samples numeric columns for histograms and boxplots.
// Measure columns come first so premium and claims are always charted.
func (g *Generator) collectDistributions(ctx context.Context, profile *dataset.Profile, data *Data) error {
	cols := orderedNumericColumns(profile, g.opts.PremiumColumn, g.opts.ClaimsColumn)
	if len(cols) > maxDistributionCharts {
		cols = cols[:maxDistributionCharts]
	}

	for i, col := range cols {
		values, err := g.eng.SampleColumn(ctx, g.opts.Table, col, sampleLimit)
		if err != nil {
			return err
		}
		color := chartPalette[i%len(chartPalette)]
		data.Histograms = append(data.Histograms, NamedChart{
			Name:  col,
			Chart: HistogramSVG(values, histogramBins, color),
		})
		data.BoxPlots = append(data.BoxPlots, NamedChart{
			Name:  col,
			Chart: BoxPlotSVG(values),
		})
	}
	return nil
}

// collectCategories charts the frequency of low-cardinality categoricals.
func (g *Generator) collectCategories(ctx context.Context, profile *dataset.Profile, data *Data) error {
	for i, summary := range profile.Categorical {
		if len(data.CategoryCharts) >= maxCategoryCharts {
			break
		}
		if summary.DistinctCount == 0 || summary.DistinctCount > maxCategoryCardinality {
			continue
		}
		counts, err := g.eng.ValueCounts(ctx, g.opts.Table, summary.Column, maxCategoryCardinality)
		if err != nil {
			return err
		}
		data.CategoryCharts = append(data.CategoryCharts, NamedChart{
			Name:  summary.Column,
			Chart: BarSVG(counts, chartPalette[i%len(chartPalette)]),
		})
	}
	return nil
}

func orderedNumericColumns(profile *dataset.Profile, first ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, col := range first {
		if hasColumn(profile, col) && dataset.Classify(columnType(profile, col)) == dataset.Numeric && !seen[col] {
			out = append(out, col)
			seen[col] = true
		}
	}
	for _, col := range profile.NumericColumns() {
		if !seen[col] {
			out = append(out, col)
			seen[col] = true
		}
	}
	return out
}

func hasColumn(profile *dataset.Profile, name string) bool {
	for _, col := range profile.Schema {
		if col.Name == name {
			return true
		}
	}
	return false
}

func columnType(profile *dataset.Profile, name string) string {
	for _, col := range profile.Schema {
		if col.Name == name {
			return col.Type
		}
	}
	return ""
}

func formatMoney(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return tick(v)
}

func formatNumber(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e12 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatPct(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 2, 64) + "%"
}

func formatRatioPtr(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}

func formatChangePtr(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%+.2f%%", *v*100)
}
