// Package analysis contains the numeric helpers and SQL builders behind
// riskline's profiling, cleaning and trend computations.
//
// The heavy lifting happens in DuckDB; the Go-side helpers here post-process
// fetched vectors (histogram binning, chart scaling) and mirror the SQL
// aggregates so both paths can be tested against each other.
package analysis

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean of xs, or NaN for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Variance returns the sample variance of xs (n-1 denominator).
func Variance(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return math.NaN()
	}
	m := Mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return sum / float64(n-1)
}

// StdDev returns the sample standard deviation of xs.
func StdDev(xs []float64) float64 {
	return math.Sqrt(Variance(xs))
}

// Quantile returns the q-th quantile (0 <= q <= 1) of xs using linear
// interpolation between closest ranks. xs does not need to be sorted.
func Quantile(xs []float64, q float64) float64 {
	n := len(xs)
	if n == 0 || q < 0 || q > 1 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)

	if n == 1 {
		return sorted[0]
	}

	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Median returns the 0.5 quantile of xs.
func Median(xs []float64) float64 {
	return Quantile(xs, 0.5)
}

// Skewness returns the adjusted Fisher-Pearson skewness coefficient, the
// same statistic DuckDB's skewness() and pandas' skew() report. Requires at
// least 3 values and nonzero spread.
func Skewness(xs []float64) float64 {
	n := float64(len(xs))
	if n < 3 {
		return math.NaN()
	}
	m := Mean(xs)
	var m2, m3 float64
	for _, x := range xs {
		d := x - m
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= n
	m3 /= n
	if m2 == 0 {
		return math.NaN()
	}
	g1 := m3 / math.Pow(m2, 1.5)
	return g1 * math.Sqrt(n*(n-1)) / (n - 2)
}

// Pearson returns the Pearson correlation coefficient between xs and ys.
// The slices must have equal length; returns NaN when either side has no
// spread or fewer than 2 points.
func Pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n != len(ys) || n < 2 {
		return math.NaN()
	}
	mx, my := Mean(xs), Mean(ys)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	return sxy / math.Sqrt(sxx*syy)
}

// IQRBounds returns the lower and upper outlier fences for xs using the
// interquartile range: [Q1 - k*IQR, Q3 + k*IQR].
func IQRBounds(xs []float64, k float64) (lower, upper float64) {
	q1 := Quantile(xs, 0.25)
	q3 := Quantile(xs, 0.75)
	iqr := q3 - q1
	return q1 - k*iqr, q3 + k*iqr
}

// Clamp caps x to the inclusive [lo, hi] range.
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// HistogramBin is a single bin of a histogram.
type HistogramBin struct {
	Lower float64
	Upper float64
	Count int
}

// Histogram buckets xs into the given number of equal-width bins across
// [min, max]. Values equal to max land in the last bin. Returns nil for
// empty input or non-positive bin counts.
func Histogram(xs []float64, bins int) []HistogramBin {
	if len(xs) == 0 || bins <= 0 {
		return nil
	}

	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}

	out := make([]HistogramBin, bins)
	width := (hi - lo) / float64(bins)
	if width == 0 {
		// All values identical: one bin holds everything.
		out[0] = HistogramBin{Lower: lo, Upper: hi, Count: len(xs)}
		for i := 1; i < bins; i++ {
			out[i] = HistogramBin{Lower: lo, Upper: hi}
		}
		return out
	}

	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	for _, x := range xs {
		idx := int((x - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		out[idx].Count++
	}
	return out
}

// PctChange returns the relative change series of xs: out[i] = (xs[i] -
// xs[i-1]) / xs[i-1]. The first element is NaN, as is any element whose
// predecessor is zero.
func PctChange(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		if i == 0 || xs[i-1] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (xs[i] - xs[i-1]) / xs[i-1]
	}
	return out
}
