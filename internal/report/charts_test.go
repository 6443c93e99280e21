package report

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/riskline-labs/riskline/internal/engine"
)

func TestTick(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{math.NaN(), "-"},
		{0, "0"},
		{0.1234, "0.12"},
		{42, "42"},
		{9500, "9500"},
		{12500, "12.5k"},
		{2500000, "2.5M"},
		{3000000000, "3.0B"},
		{-12500, "-12.5k"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tick(tt.v); got != tt.want {
				t.Errorf("tick(%v) = %q, want %q", tt.v, got, tt.want)
			}
		})
	}
}

func TestScale(t *testing.T) {
	s := newScale(0, 10, 100, 200, false)
	if got := s.at(0); got != 100 {
		t.Errorf("at(0) = %v, want 100", got)
	}
	if got := s.at(10); got != 200 {
		t.Errorf("at(10) = %v, want 200", got)
	}
	if got := s.at(5); got != 150 {
		t.Errorf("at(5) = %v, want 150", got)
	}

	inv := newScale(0, 10, 100, 200, true)
	if got := inv.at(0); got != 200 {
		t.Errorf("inverted at(0) = %v, want 200", got)
	}

	// A degenerate domain must not divide by zero.
	flat := newScale(5, 5, 0, 100, false)
	if got := flat.at(5); got != 50 {
		t.Errorf("degenerate at(5) = %v, want midpoint 50", got)
	}
}

func TestCorrColor(t *testing.T) {
	if got := corrColor(math.NaN()); got != "#e2e8f0" {
		t.Errorf("NaN color = %s, want gray", got)
	}
	if got := corrColor(0); got != "#ffffff" {
		t.Errorf("zero correlation = %s, want white", got)
	}
	if !strings.HasPrefix(corrColor(1), "#ff") {
		t.Errorf("positive correlation should ramp to red, got %s", corrColor(1))
	}
	if !strings.HasSuffix(corrColor(-1), "ff") {
		t.Errorf("negative correlation should ramp to blue, got %s", corrColor(-1))
	}
	// Out-of-range values are clamped, not wrapped.
	if corrColor(3) != corrColor(1) {
		t.Error("correlation above 1 should clamp to 1")
	}
}

func TestHistogramSVG(t *testing.T) {
	if got := HistogramSVG(nil, 10, chartPalette[0]); !strings.Contains(string(got), "no data") {
		t.Errorf("empty input should render the placeholder, got %s", got)
	}

	values := []float64{1, 2, 2, 3, 3, 3, 4, 10}
	svg := string(HistogramSVG(values, 5, chartPalette[0]))
	if !strings.Contains(svg, "<svg") || !strings.Contains(svg, "</svg>") {
		t.Fatal("histogram is not a complete SVG document")
	}
	if n := strings.Count(svg, "<rect"); n != 5 {
		t.Errorf("histogram has %d bars, want 5", n)
	}
}

func TestBoxPlotSVG(t *testing.T) {
	if got := BoxPlotSVG(nil); !strings.Contains(string(got), "no data") {
		t.Errorf("empty input should render the placeholder, got %s", got)
	}

	// One value far outside the fences shows up in the outlier label.
	values := []float64{10, 11, 12, 13, 14, 15, 500}
	svg := string(BoxPlotSVG(values))
	if !strings.Contains(svg, "1 outside fences") {
		t.Errorf("box plot missing outlier annotation:\n%s", svg)
	}
}

func TestScatterSVG(t *testing.T) {
	if got := ScatterSVG([]float64{1}, []float64{1, 2}, chartPalette[0]); !strings.Contains(string(got), "no data") {
		t.Error("mismatched series lengths should render the placeholder")
	}

	svg := string(ScatterSVG([]float64{1, 2, 3}, []float64{4, 5, 6}, chartPalette[0]))
	if n := strings.Count(svg, "<circle"); n != 3 {
		t.Errorf("scatter has %d points, want 3", n)
	}
}

func TestHeatmapSVG(t *testing.T) {
	cols := []string{"TotalPremium", "TotalClaims"}
	values := [][]float64{
		{1, 0.42},
		{0.42, 1},
	}
	svg := string(HeatmapSVG(cols, values))
	if n := strings.Count(svg, "<rect"); n != 4 {
		t.Errorf("heatmap has %d cells, want 4", n)
	}
	if !strings.Contains(svg, "0.42") {
		t.Error("heatmap missing cell value labels")
	}

	// NaN cells render without a value label.
	nan := string(HeatmapSVG([]string{"a", "b"}, [][]float64{{1, math.NaN()}, {math.NaN(), 1}}))
	if strings.Contains(nan, "NaN") {
		t.Error("NaN cells must not print NaN")
	}
	if !strings.Contains(nan, "#e2e8f0") {
		t.Error("NaN cells should use the gray fill")
	}
}

func TestTrendSVG(t *testing.T) {
	month := func(m time.Month) time.Time {
		return time.Date(2015, m, 31, 0, 0, 0, 0, time.UTC)
	}
	points := []engine.TrendPoint{
		{Month: month(time.January), TotalPremium: 310, TotalClaims: 50},
		{Month: month(time.February), TotalPremium: 335, TotalClaims: 110},
		{Month: month(time.March), TotalPremium: 305, TotalClaims: 40},
	}

	svg := string(TrendSVG(points))
	if n := strings.Count(svg, "<path"); n != 2 {
		t.Errorf("trend chart has %d lines, want premium and claims", n)
	}
	if !strings.Contains(svg, "2015-01") {
		t.Error("trend chart missing month labels")
	}
	for _, legend := range []string{"Premium", "Claims"} {
		if !strings.Contains(svg, legend) {
			t.Errorf("trend chart missing %s legend entry", legend)
		}
	}
}

func TestSegmentTrendSVG(t *testing.T) {
	base := time.Date(2015, 1, 31, 0, 0, 0, 0, time.UTC)
	points := []engine.SegmentTrendPoint{
		{Segment: "Gauteng", Month: base, TotalPremium: 200},
		{Segment: "Gauteng", Month: base.AddDate(0, 1, 0), TotalPremium: 220},
		{Segment: "Western Cape", Month: base, TotalPremium: 90},
		{Segment: "Western Cape", Month: base.AddDate(0, 1, 0), TotalPremium: 95},
	}

	svg := string(SegmentTrendSVG(points))
	if n := strings.Count(svg, "<path"); n != 2 {
		t.Errorf("segment chart has %d lines, want one per segment", n)
	}
	if !strings.Contains(svg, "Gauteng") || !strings.Contains(svg, "Western Cape") {
		t.Error("segment chart missing legend labels")
	}
}

func TestBarSVG_EscapesLabels(t *testing.T) {
	counts := []engine.ValueCount{
		{Value: `<script>alert(1)</script>`, Count: 3},
		{Value: "Own Damage", Count: 7},
	}
	svg := string(BarSVG(counts, chartPalette[0]))
	if strings.Contains(svg, "<script>") {
		t.Fatal("bar chart label was not escaped")
	}
	if !strings.Contains(svg, "Own Damage") {
		t.Error("bar chart missing plain label")
	}
	if n := strings.Count(svg, "<rect"); n != 2 {
		t.Errorf("bar chart has %d bars, want 2", n)
	}
}
