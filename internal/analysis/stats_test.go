package analysis

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) <= tol
}

func TestMean(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		want float64
	}{
		{"empty", nil, math.NaN()},
		{"single", []float64{5}, 5},
		{"simple", []float64{1, 2, 3, 4}, 2.5},
		{"negative", []float64{-2, 2}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mean(tt.xs)
			if !almostEqual(got, tt.want, 1e-12) {
				t.Errorf("Mean(%v) = %v, want %v", tt.xs, got, tt.want)
			}
		})
	}
}

func TestVarianceAndStdDev(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	// Sample variance with n-1 denominator.
	wantVar := 32.0 / 7.0
	if got := Variance(xs); !almostEqual(got, wantVar, 1e-12) {
		t.Errorf("Variance = %v, want %v", got, wantVar)
	}
	if got := StdDev(xs); !almostEqual(got, math.Sqrt(wantVar), 1e-12) {
		t.Errorf("StdDev = %v, want %v", got, math.Sqrt(wantVar))
	}

	if got := Variance([]float64{1}); !math.IsNaN(got) {
		t.Errorf("Variance of single value = %v, want NaN", got)
	}
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		q    float64
		want float64
	}{
		{"empty", nil, 0.5, math.NaN()},
		{"out of range", []float64{1, 2}, 1.5, math.NaN()},
		{"single", []float64{7}, 0.25, 7},
		{"median even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"median odd", []float64{3, 1, 2}, 0.5, 2},
		{"q1 interpolated", []float64{1, 2, 3, 4}, 0.25, 1.75},
		{"q3 interpolated", []float64{1, 2, 3, 4}, 0.75, 3.25},
		{"min", []float64{5, 1, 3}, 0, 1},
		{"max", []float64{5, 1, 3}, 1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Quantile(tt.xs, tt.q)
			if !almostEqual(got, tt.want, 1e-12) {
				t.Errorf("Quantile(%v, %v) = %v, want %v", tt.xs, tt.q, got, tt.want)
			}
		})
	}
}

func TestSkewness(t *testing.T) {
	// Symmetric data has zero skewness.
	if got := Skewness([]float64{1, 2, 3, 4, 5}); !almostEqual(got, 0, 1e-12) {
		t.Errorf("Skewness of symmetric data = %v, want 0", got)
	}

	// Right-skewed data is positive. Value cross-checked against pandas
	// skew() for the same vector.
	xs := []float64{1, 1, 1, 2, 10}
	got := Skewness(xs)
	if got <= 0 {
		t.Errorf("Skewness of right-skewed data = %v, want > 0", got)
	}
	if !almostEqual(got, 2.171285, 1e-5) {
		t.Errorf("Skewness = %v, want 2.171285", got)
	}

	if got := Skewness([]float64{1, 2}); !math.IsNaN(got) {
		t.Errorf("Skewness of 2 values = %v, want NaN", got)
	}
	if got := Skewness([]float64{3, 3, 3, 3}); !math.IsNaN(got) {
		t.Errorf("Skewness of constant data = %v, want NaN", got)
	}
}

func TestPearson(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		ys   []float64
		want float64
	}{
		{"perfect positive", []float64{1, 2, 3}, []float64{2, 4, 6}, 1},
		{"perfect negative", []float64{1, 2, 3}, []float64{6, 4, 2}, -1},
		{"no spread", []float64{1, 2, 3}, []float64{5, 5, 5}, math.NaN()},
		{"length mismatch", []float64{1, 2}, []float64{1}, math.NaN()},
		{"too short", []float64{1}, []float64{1}, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Pearson(tt.xs, tt.ys)
			if !almostEqual(got, tt.want, 1e-12) {
				t.Errorf("Pearson = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIQRBounds(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	// Q1 = 1.75, Q3 = 3.25, IQR = 1.5
	lower, upper := IQRBounds(xs, 1.5)
	if !almostEqual(lower, 1.75-2.25, 1e-12) {
		t.Errorf("lower = %v, want %v", lower, -0.5)
	}
	if !almostEqual(upper, 3.25+2.25, 1e-12) {
		t.Errorf("upper = %v, want %v", upper, 5.5)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 10); got != 5 {
		t.Errorf("Clamp(5, 0, 10) = %v, want 5", got)
	}
	if got := Clamp(-1, 0, 10); got != 0 {
		t.Errorf("Clamp(-1, 0, 10) = %v, want 0", got)
	}
	if got := Clamp(11, 0, 10); got != 10 {
		t.Errorf("Clamp(11, 0, 10) = %v, want 10", got)
	}
}

func TestHistogram(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		if got := Histogram(nil, 5); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("zero bins", func(t *testing.T) {
		if got := Histogram([]float64{1, 2}, 0); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("max lands in last bin", func(t *testing.T) {
		bins := Histogram([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 5)
		if len(bins) != 5 {
			t.Fatalf("expected 5 bins, got %d", len(bins))
		}
		if bins[4].Count != 3 {
			// 8, 9 and the max value 10
			t.Errorf("last bin count = %d, want 3", bins[4].Count)
		}
		total := 0
		for _, b := range bins {
			total += b.Count
		}
		if total != 11 {
			t.Errorf("total count = %d, want 11", total)
		}
	})

	t.Run("identical values", func(t *testing.T) {
		bins := Histogram([]float64{3, 3, 3}, 4)
		if len(bins) != 4 {
			t.Fatalf("expected 4 bins, got %d", len(bins))
		}
		if bins[0].Count != 3 {
			t.Errorf("first bin count = %d, want 3", bins[0].Count)
		}
		for i := 1; i < 4; i++ {
			if bins[i].Count != 0 {
				t.Errorf("bin %d count = %d, want 0", i, bins[i].Count)
			}
		}
	})
}

func TestPctChange(t *testing.T) {
	got := PctChange([]float64{100, 110, 99, 0, 50})
	if !math.IsNaN(got[0]) {
		t.Errorf("first element = %v, want NaN", got[0])
	}
	if !almostEqual(got[1], 0.1, 1e-12) {
		t.Errorf("got[1] = %v, want 0.1", got[1])
	}
	if !almostEqual(got[2], -0.1, 1e-12) {
		t.Errorf("got[2] = %v, want -0.1", got[2])
	}
	if !almostEqual(got[3], -1, 1e-12) {
		t.Errorf("got[3] = %v, want -1", got[3])
	}
	// Predecessor is zero.
	if !math.IsNaN(got[4]) {
		t.Errorf("got[4] = %v, want NaN", got[4])
	}
}
