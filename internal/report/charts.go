package report

// charts.go - SVG chart rendering for the HTML report

import (
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"

	"github.com/riskline-labs/riskline/internal/analysis"
	"github.com/riskline-labs/riskline/internal/engine"
)

const (
	chartWidth   = 680
	chartHeight  = 320
	marginLeft   = 70
	marginRight  = 20
	marginTop    = 20
	marginBottom = 50
)

var chartPalette = []string{"#2563eb", "#dc2626", "#16a34a", "#d97706", "#7c3aed", "#0891b2", "#be185d", "#4d7c0f", "#b45309"}

// scale maps a data value into pixel space.
type scale struct {
	min, max   float64
	lo, hi     float64
	invertAxis bool
}

func newScale(min, max, lo, hi float64, invert bool) scale {
	if max == min {
		// Degenerate domain: pad so everything lands mid-range.
		min--
		max++
	}
	return scale{min: min, max: max, lo: lo, hi: hi, invertAxis: invert}
}

func (s scale) at(v float64) float64 {
	frac := (v - s.min) / (s.max - s.min)
	if s.invertAxis {
		frac = 1 - frac
	}
	return s.lo + frac*(s.hi-s.lo)
}

// HistogramSVG renders an equal-width histogram of the sampled values.
func HistogramSVG(values []float64, bins int, color string) template.HTML {
	hist := analysis.Histogram(values, bins)
	if hist == nil {
		return emptyChart("no data")
	}

	maxCount := 0
	for _, b := range hist {
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}
	if maxCount == 0 {
		return emptyChart("no data")
	}

	x := newScale(hist[0].Lower, hist[len(hist)-1].Upper, marginLeft, chartWidth-marginRight, false)
	y := newScale(0, float64(maxCount), chartHeight-marginBottom, marginTop, false)

	var b strings.Builder
	openSVG(&b)
	drawAxes(&b)

	for _, bin := range hist {
		x0 := x.at(bin.Lower)
		x1 := x.at(bin.Upper)
		y0 := y.at(float64(bin.Count))
		base := float64(chartHeight - marginBottom)
		fmt.Fprintf(&b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" fill-opacity="0.8"><title>[%s, %s): %d</title></rect>`,
			x0, y0, math.Max(x1-x0-1, 1), base-y0, color, tick(bin.Lower), tick(bin.Upper), bin.Count)
	}

	drawXTicks(&b, x, 5)
	drawYTicks(&b, y, 4)
	closeSVG(&b)
	return template.HTML(b.String()) //nolint:gosec // numeric SVG built from owned data
}

// BoxPlotSVG renders a horizontal box-and-whisker plot with IQR fences.
func BoxPlotSVG(values []float64) template.HTML {
	if len(values) == 0 {
		return emptyChart("no data")
	}

	q1 := analysis.Quantile(values, 0.25)
	med := analysis.Median(values)
	q3 := analysis.Quantile(values, 0.75)
	loFence, hiFence := analysis.IQRBounds(values, 1.5)

	// Whiskers extend to the most extreme values inside the fences.
	whiskLo, whiskHi := math.Inf(1), math.Inf(-1)
	outliers := 0
	for _, v := range values {
		if v < loFence || v > hiFence {
			outliers++
			continue
		}
		if v < whiskLo {
			whiskLo = v
		}
		if v > whiskHi {
			whiskHi = v
		}
	}
	if math.IsInf(whiskLo, 1) {
		whiskLo, whiskHi = q1, q3
	}

	const height = 160
	x := newScale(whiskLo, whiskHi, marginLeft, chartWidth-marginRight, false)
	mid := float64(height) / 2
	boxTop := mid - 30
	boxH := 60.0

	var b strings.Builder
	fmt.Fprintf(&b, `<svg viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg" class="chart">`, chartWidth, height)

	// Whisker line and caps
	fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#475569"/>`, x.at(whiskLo), mid, x.at(whiskHi), mid)
	for _, v := range []float64{whiskLo, whiskHi} {
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#475569"/>`, x.at(v), mid-15, x.at(v), mid+15)
	}

	// Box and median
	fmt.Fprintf(&b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="#bfdbfe" stroke="#2563eb"><title>Q1 %s, median %s, Q3 %s</title></rect>`,
		x.at(q1), boxTop, math.Max(x.at(q3)-x.at(q1), 1), boxH, tick(q1), tick(med), tick(q3))
	fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#1d4ed8" stroke-width="2"/>`, x.at(med), boxTop, x.at(med), boxTop+boxH)

	for _, v := range []float64{whiskLo, med, whiskHi} {
		fmt.Fprintf(&b, `<text x="%.1f" y="%d" text-anchor="middle" class="tick">%s</text>`, x.at(v), height-8, tick(v))
	}
	if outliers > 0 {
		fmt.Fprintf(&b, `<text x="%d" y="16" text-anchor="end" class="tick">%d outside fences</text>`, chartWidth-marginRight, outliers)
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()) //nolint:gosec // numeric SVG built from owned data
}

// ScatterSVG renders a scatter plot of paired values.
func ScatterSVG(xs, ys []float64, color string) template.HTML {
	if len(xs) == 0 || len(xs) != len(ys) {
		return emptyChart("no data")
	}

	xMin, xMax := minMax(xs)
	yMin, yMax := minMax(ys)
	x := newScale(xMin, xMax, marginLeft, chartWidth-marginRight, false)
	y := newScale(yMin, yMax, chartHeight-marginBottom, marginTop, false)

	var b strings.Builder
	openSVG(&b)
	drawAxes(&b)

	for i := range xs {
		fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s" fill-opacity="0.5"/>`, x.at(xs[i]), y.at(ys[i]), color)
	}

	drawXTicks(&b, x, 5)
	drawYTicks(&b, y, 4)
	closeSVG(&b)
	return template.HTML(b.String()) //nolint:gosec // numeric SVG built from owned data
}

// HeatmapSVG renders a correlation matrix as a colored grid. Values are
// expected in [-1, 1]; NaN cells render gray.
func HeatmapSVG(columns []string, values [][]float64) template.HTML {
	n := len(columns)
	if n == 0 || len(values) != n {
		return emptyChart("no data")
	}

	const labelSpace = 140
	cell := 36.0
	width := labelSpace + int(cell)*n + marginRight
	height := labelSpace + int(cell)*n + 10

	var b strings.Builder
	fmt.Fprintf(&b, `<svg viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg" class="chart">`, width, height)

	for i, row := range values {
		for j, v := range row {
			cx := float64(labelSpace) + float64(j)*cell
			cy := float64(labelSpace) + float64(i)*cell
			fmt.Fprintf(&b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" stroke="#fff"><title>%s vs %s: %s</title></rect>`,
				cx, cy, cell, cell, corrColor(v), columns[i], columns[j], tick(v))
			if !math.IsNaN(v) {
				fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" text-anchor="middle" class="cell">%.2f</text>`,
					cx+cell/2, cy+cell/2+4, v)
			}
		}
	}

	for i, col := range columns {
		label := truncateLabel(col, 18)
		// Row label
		fmt.Fprintf(&b, `<text x="%d" y="%.1f" text-anchor="end" class="tick">%s</text>`,
			labelSpace-6, float64(labelSpace)+float64(i)*cell+cell/2+4, template.HTMLEscapeString(label))
		// Column label, rotated
		cx := float64(labelSpace) + float64(i)*cell + cell/2
		fmt.Fprintf(&b, `<text x="%.1f" y="%d" text-anchor="end" class="tick" transform="rotate(-45 %.1f %d)">%s</text>`,
			cx, labelSpace-6, cx, labelSpace-6, template.HTMLEscapeString(label))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()) //nolint:gosec // labels are escaped above
}

// TrendSVG renders the monthly premium and claims series as two lines.
func TrendSVG(points []engine.TrendPoint) template.HTML {
	if len(points) == 0 {
		return emptyChart("no data")
	}

	var yMin, yMax float64 = math.Inf(1), math.Inf(-1)
	for _, p := range points {
		yMin = math.Min(yMin, math.Min(p.TotalPremium, p.TotalClaims))
		yMax = math.Max(yMax, math.Max(p.TotalPremium, p.TotalClaims))
	}

	x := newScale(0, float64(len(points)-1), marginLeft, chartWidth-marginRight, false)
	y := newScale(math.Min(yMin, 0), yMax, chartHeight-marginBottom, marginTop, false)

	var b strings.Builder
	openSVG(&b)
	drawAxes(&b)

	line := func(value func(engine.TrendPoint) float64, color, name string) {
		var path strings.Builder
		for i, p := range points {
			cmd := "L"
			if i == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&path, "%s%.1f %.1f ", cmd, x.at(float64(i)), y.at(value(p)))
		}
		fmt.Fprintf(&b, `<path d="%s" fill="none" stroke="%s" stroke-width="2"><title>%s</title></path>`,
			strings.TrimSpace(path.String()), color, name)
	}
	line(func(p engine.TrendPoint) float64 { return p.TotalPremium }, chartPalette[0], "Total premium")
	line(func(p engine.TrendPoint) float64 { return p.TotalClaims }, chartPalette[1], "Total claims")

	// Month labels on a thinned axis
	step := 1
	if len(points) > 8 {
		step = len(points) / 8
	}
	for i := 0; i < len(points); i += step {
		fmt.Fprintf(&b, `<text x="%.1f" y="%d" text-anchor="middle" class="tick">%s</text>`,
			x.at(float64(i)), chartHeight-marginBottom+18, points[i].Month.Format("2006-01"))
	}
	drawYTicks(&b, y, 4)

	// Legend
	fmt.Fprintf(&b, `<rect x="%d" y="%d" width="10" height="10" fill="%s"/><text x="%d" y="%d" class="tick">Premium</text>`,
		marginLeft+8, marginTop, chartPalette[0], marginLeft+22, marginTop+9)
	fmt.Fprintf(&b, `<rect x="%d" y="%d" width="10" height="10" fill="%s"/><text x="%d" y="%d" class="tick">Claims</text>`,
		marginLeft+90, marginTop, chartPalette[1], marginLeft+104, marginTop+9)

	closeSVG(&b)
	return template.HTML(b.String()) //nolint:gosec // numeric SVG built from owned data
}

// SegmentTrendSVG renders one premium line per segment.
func SegmentTrendSVG(points []engine.SegmentTrendPoint) template.HTML {
	if len(points) == 0 {
		return emptyChart("no data")
	}

	// Group by segment, preserving first-seen order.
	var segments []string
	bySegment := make(map[string][]engine.SegmentTrendPoint)
	monthSet := make(map[string]struct{})
	for _, p := range points {
		if _, ok := bySegment[p.Segment]; !ok {
			segments = append(segments, p.Segment)
		}
		bySegment[p.Segment] = append(bySegment[p.Segment], p)
		monthSet[p.Month.Format("2006-01")] = struct{}{}
	}

	var yMax float64
	for _, p := range points {
		yMax = math.Max(yMax, p.TotalPremium)
	}
	months := len(monthSet)
	if months < 2 {
		months = 2
	}

	x := newScale(0, float64(months-1), marginLeft, chartWidth-marginRight, false)
	y := newScale(0, yMax, chartHeight-marginBottom, marginTop, false)

	var b strings.Builder
	openSVG(&b)
	drawAxes(&b)

	for si, seg := range segments {
		color := chartPalette[si%len(chartPalette)]
		series := bySegment[seg]
		var path strings.Builder
		for i, p := range series {
			cmd := "L"
			if i == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&path, "%s%.1f %.1f ", cmd, x.at(float64(i)), y.at(p.TotalPremium))
		}
		fmt.Fprintf(&b, `<path d="%s" fill="none" stroke="%s" stroke-width="1.5"><title>%s</title></path>`,
			strings.TrimSpace(path.String()), color, template.HTMLEscapeString(seg))

		// Legend entries wrap across two rows.
		lx := marginLeft + 8 + (si%4)*140
		ly := marginTop + (si/4)*14
		fmt.Fprintf(&b, `<rect x="%d" y="%d" width="10" height="10" fill="%s"/><text x="%d" y="%d" class="tick">%s</text>`,
			lx, ly, color, lx+14, ly+9, template.HTMLEscapeString(truncateLabel(seg, 16)))
	}

	drawYTicks(&b, y, 4)
	closeSVG(&b)
	return template.HTML(b.String()) //nolint:gosec // labels are escaped above
}

// BarSVG renders a horizontal bar chart of labeled counts.
func BarSVG(counts []engine.ValueCount, color string) template.HTML {
	if len(counts) == 0 {
		return emptyChart("no data")
	}

	var maxCount int64
	for _, c := range counts {
		if c.Count > maxCount {
			maxCount = c.Count
		}
	}
	if maxCount == 0 {
		return emptyChart("no data")
	}

	const labelSpace = 160
	barH := 22
	gap := 6
	height := marginTop + len(counts)*(barH+gap) + 10

	x := newScale(0, float64(maxCount), labelSpace, chartWidth-marginRight, false)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg" class="chart">`, chartWidth, height)

	for i, c := range counts {
		yTop := marginTop + i*(barH+gap)
		fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%.1f" height="%d" fill="%s" fill-opacity="0.85"><title>%s: %d</title></rect>`,
			labelSpace, yTop, math.Max(x.at(float64(c.Count))-float64(labelSpace), 1), barH, color,
			template.HTMLEscapeString(c.Value), c.Count)
		fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="end" class="tick">%s</text>`,
			labelSpace-6, yTop+barH/2+4, template.HTMLEscapeString(truncateLabel(c.Value, 22)))
		fmt.Fprintf(&b, `<text x="%.1f" y="%d" class="tick">%d</text>`,
			x.at(float64(c.Count))+4, yTop+barH/2+4, c.Count)
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()) //nolint:gosec // labels are escaped above
}

func openSVG(b *strings.Builder) {
	fmt.Fprintf(b, `<svg viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg" class="chart">`, chartWidth, chartHeight)
}

func closeSVG(b *strings.Builder) {
	b.WriteString("</svg>")
}

func drawAxes(b *strings.Builder) {
	fmt.Fprintf(b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#94a3b8"/>`,
		marginLeft, chartHeight-marginBottom, chartWidth-marginRight, chartHeight-marginBottom)
	fmt.Fprintf(b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#94a3b8"/>`,
		marginLeft, marginTop, marginLeft, chartHeight-marginBottom)
}

func drawXTicks(b *strings.Builder, s scale, n int) {
	for i := 0; i <= n; i++ {
		v := s.min + float64(i)*(s.max-s.min)/float64(n)
		fmt.Fprintf(b, `<text x="%.1f" y="%d" text-anchor="middle" class="tick">%s</text>`,
			s.at(v), chartHeight-marginBottom+18, tick(v))
	}
}

func drawYTicks(b *strings.Builder, s scale, n int) {
	for i := 0; i <= n; i++ {
		v := s.min + float64(i)*(s.max-s.min)/float64(n)
		fmt.Fprintf(b, `<text x="%d" y="%.1f" text-anchor="end" class="tick">%s</text>`,
			marginLeft-6, s.at(v)+4, tick(v))
	}
}

func emptyChart(msg string) template.HTML {
	return template.HTML(fmt.Sprintf(
		`<svg viewBox="0 0 %d 80" xmlns="http://www.w3.org/2000/svg" class="chart"><text x="%d" y="45" text-anchor="middle" class="tick">%s</text></svg>`,
		chartWidth, chartWidth/2, template.HTMLEscapeString(msg))) //nolint:gosec // message is escaped
}

// tick formats an axis value compactly, abbreviating thousands and millions.
func tick(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	abs := math.Abs(v)
	switch {
	case abs >= 1e9:
		return strconv.FormatFloat(v/1e9, 'f', 1, 64) + "B"
	case abs >= 1e6:
		return strconv.FormatFloat(v/1e6, 'f', 1, 64) + "M"
	case abs >= 1e4:
		return strconv.FormatFloat(v/1e3, 'f', 1, 64) + "k"
	case abs >= 10 || abs == 0 || v == math.Trunc(v):
		return strconv.FormatFloat(v, 'f', 0, 64)
	default:
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
}

// corrColor maps a correlation in [-1, 1] to a blue-white-red ramp.
func corrColor(v float64) string {
	if math.IsNaN(v) {
		return "#e2e8f0"
	}
	v = analysis.Clamp(v, -1, 1)
	if v >= 0 {
		// white -> red
		g := int(255 * (1 - v*0.75))
		return fmt.Sprintf("#ff%02x%02x", g, g)
	}
	// white -> blue
	g := int(255 * (1 + v*0.75))
	return fmt.Sprintf("#%02x%02xff", g, g)
}

func minMax(xs []float64) (float64, float64) {
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}

func truncateLabel(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
