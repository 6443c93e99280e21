//go:build integration

// Package engine integration tests run the full pipeline against an
// in-memory DuckDB. Run with: go test -tags=integration ./internal/engine/
package engine

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/riskline-labs/riskline/internal/state"
	"github.com/riskline-labs/riskline/pkg/adapter"

	_ "github.com/riskline-labs/riskline/pkg/adapters/duckdb"
)

// testExtract is a small pipe-delimited policy extract covering three months,
// three provinces, a sparse column, a missing claims value, and one premium
// outlier.
const testExtract = `PolicyID|TransactionMonth|Province|PostalCode|CoverType|TotalPremium|TotalClaims|SparseNote
1|2015-01-15|Gauteng|2000|Own Damage|100|0|
2|2015-01-20|Gauteng|2000|Windscreen|120|50|
3|2015-01-31|Western Cape|8000|Own Damage|90|0|reviewed
4|2015-02-10|Gauteng|2191|Own Damage|110|30|
5|2015-02-12|Western Cape|8000|Windscreen|95|0|
6|2015-02-20|KwaZulu-Natal|4000|Own Damage|130|80|
7|2015-03-05|Gauteng|2191|Windscreen|105|0|
8|2015-03-09|Western Cape|7700|Own Damage|85|40|
9|2015-03-15|KwaZulu-Natal|4000|Own Damage|140||
10|2015-03-25|Gauteng|2000|Own Damage|5000|2500|
`

func setupIntegrationEngine(t *testing.T) (*Engine, string) {
	t.Helper()

	tmpDir := t.TempDir()
	extractPath := filepath.Join(tmpDir, "extract.txt")
	if err := os.WriteFile(extractPath, []byte(testExtract), 0o644); err != nil {
		t.Fatalf("failed to write extract: %v", err)
	}

	eng, err := New(Config{
		AdapterConfig: adapter.Config{Type: "duckdb"},
		StatePath:     filepath.Join(tmpDir, "state.db"),
		Environment:   "test",
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })

	return eng, extractPath
}

func TestIntegration_Ingest(t *testing.T) {
	eng, extractPath := setupIntegrationEngine(t)
	ctx := context.Background()

	res, err := eng.Ingest(ctx, IngestOptions{Path: extractPath, Delimiter: "|"})
	if err != nil {
		t.Fatalf("Ingest() failed: %v", err)
	}
	if res.Rows != 10 {
		t.Errorf("rows = %d, want 10", res.Rows)
	}
	if res.Columns != 8 {
		t.Errorf("columns = %d, want 8", res.Columns)
	}
	if res.Reused {
		t.Error("first ingest should not report a reused snapshot")
	}
	if res.Snapshot == nil || len(res.Snapshot.Hash) != 64 {
		t.Fatalf("ingest did not record a snapshot: %+v", res.Snapshot)
	}

	// Re-ingesting the identical file reuses the snapshot.
	again, err := eng.Ingest(ctx, IngestOptions{Path: extractPath, Delimiter: "|"})
	if err != nil {
		t.Fatalf("second Ingest() failed: %v", err)
	}
	if !again.Reused {
		t.Error("identical content should reuse the recorded snapshot")
	}
	if again.Snapshot.Hash != res.Snapshot.Hash {
		t.Error("snapshot hash changed for identical content")
	}

	runs, err := eng.Store().ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 recorded runs, got %d", len(runs))
	}
	if runs[0].Kind != state.RunKindIngest || runs[0].Status != state.RunStatusCompleted {
		t.Errorf("unexpected run record: kind=%s status=%s", runs[0].Kind, runs[0].Status)
	}
}

func TestIntegration_Profile(t *testing.T) {
	eng, extractPath := setupIntegrationEngine(t)
	ctx := context.Background()

	if _, err := eng.Ingest(ctx, IngestOptions{Path: extractPath, Delimiter: "|"}); err != nil {
		t.Fatalf("Ingest() failed: %v", err)
	}

	profile, err := eng.Profile(ctx, ProfileOptions{})
	if err != nil {
		t.Fatalf("Profile() failed: %v", err)
	}
	if profile.RowCount != 10 {
		t.Errorf("row count = %d, want 10", profile.RowCount)
	}

	found := false
	for _, n := range profile.Numeric {
		if n.Column == "TotalPremium" {
			found = true
			if n.Count != 10 {
				t.Errorf("TotalPremium count = %d, want 10", n.Count)
			}
			if n.Min != 85 || n.Max != 5000 {
				t.Errorf("TotalPremium range = [%v, %v], want [85, 5000]", n.Min, n.Max)
			}
			if math.IsNaN(n.Skewness) {
				t.Error("TotalPremium skewness should be defined")
			}
		}
	}
	if !found {
		t.Fatal("TotalPremium missing from numeric summaries")
	}

	missingCols := make(map[string]int64)
	for _, m := range profile.Missing {
		missingCols[m.Column] = m.NullCount
	}
	if missingCols["SparseNote"] != 9 {
		t.Errorf("SparseNote nulls = %d, want 9", missingCols["SparseNote"])
	}
	if missingCols["TotalClaims"] != 1 {
		t.Errorf("TotalClaims nulls = %d, want 1", missingCols["TotalClaims"])
	}

	outlierFound := false
	for _, o := range profile.Outliers {
		if o.Column == "TotalPremium" && o.Count >= 1 {
			outlierFound = true
		}
	}
	if !outlierFound {
		t.Error("the 5000 premium should be flagged as an IQR outlier")
	}
}

func TestIntegration_Clean(t *testing.T) {
	eng, extractPath := setupIntegrationEngine(t)
	ctx := context.Background()

	if _, err := eng.Ingest(ctx, IngestOptions{Path: extractPath, Delimiter: "|"}); err != nil {
		t.Fatalf("Ingest() failed: %v", err)
	}

	res, err := eng.Clean(ctx, CleanOptions{})
	if err != nil {
		t.Fatalf("Clean() failed: %v", err)
	}
	if res.TargetTable != "policies_clean" {
		t.Errorf("target table = %s, want policies_clean", res.TargetTable)
	}
	if res.Rows != 10 {
		t.Errorf("cleaned rows = %d, want 10", res.Rows)
	}

	// SparseNote is 90% missing and must be dropped.
	dropped := false
	for _, col := range res.DroppedColumns {
		if col == "SparseNote" {
			dropped = true
		}
	}
	if !dropped {
		t.Errorf("SparseNote should be dropped, got %v", res.DroppedColumns)
	}

	imputed := false
	for _, imp := range res.Imputations {
		if imp.Column == "TotalClaims" {
			imputed = true
			if imp.Nulls != 1 {
				t.Errorf("TotalClaims imputed nulls = %d, want 1", imp.Nulls)
			}
		}
	}
	if !imputed {
		t.Error("TotalClaims should be imputed")
	}

	capped := false
	for _, c := range res.Capped {
		if c.Column == "TotalPremium" && c.Capped >= 1 {
			capped = true
		}
	}
	if !capped {
		t.Error("TotalPremium outlier should be capped")
	}

	// The cleaned table has no remaining nulls in the surviving columns.
	profile, err := eng.Profile(ctx, ProfileOptions{Table: res.TargetTable})
	if err != nil {
		t.Fatalf("Profile(clean) failed: %v", err)
	}
	for _, m := range profile.Missing {
		t.Errorf("cleaned table still has %d nulls in %s", m.NullCount, m.Column)
	}
}

func TestIntegration_MonthlyTrends(t *testing.T) {
	eng, extractPath := setupIntegrationEngine(t)
	ctx := context.Background()

	if _, err := eng.Ingest(ctx, IngestOptions{Path: extractPath, Delimiter: "|"}); err != nil {
		t.Fatalf("Ingest() failed: %v", err)
	}

	points, err := eng.MonthlyTrends(ctx, TrendOptions{})
	if err != nil {
		t.Fatalf("MonthlyTrends() failed: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 monthly points, got %d", len(points))
	}

	jan, feb := points[0], points[1]
	if jan.TotalPremium != 310 {
		t.Errorf("January premium = %v, want 310", jan.TotalPremium)
	}
	if jan.PremiumChange != nil {
		t.Error("first month must have no premium change")
	}
	if jan.LossRatio == nil || math.Abs(*jan.LossRatio-50.0/310.0) > 1e-9 {
		t.Errorf("January loss ratio = %v, want %v", jan.LossRatio, 50.0/310.0)
	}
	if feb.TotalPremium != 335 {
		t.Errorf("February premium = %v, want 335", feb.TotalPremium)
	}
	wantChange := (335.0 - 310.0) / 310.0
	if feb.PremiumChange == nil || math.Abs(*feb.PremiumChange-wantChange) > 1e-9 {
		t.Errorf("February premium change = %v, want %v", feb.PremiumChange, wantChange)
	}
	if !points[0].Month.Before(points[1].Month) || !points[1].Month.Before(points[2].Month) {
		t.Error("monthly points are not in time order")
	}

	segments, err := eng.SegmentTrends(ctx, TrendOptions{Segment: "Province"})
	if err != nil {
		t.Fatalf("SegmentTrends() failed: %v", err)
	}
	gauteng := false
	for _, p := range segments {
		if p.Segment == "Gauteng" {
			gauteng = true
		}
	}
	if !gauteng {
		t.Error("segment trends missing Gauteng series")
	}
}

func TestIntegration_Segments(t *testing.T) {
	eng, extractPath := setupIntegrationEngine(t)
	ctx := context.Background()

	if _, err := eng.Ingest(ctx, IngestOptions{Path: extractPath, Delimiter: "|"}); err != nil {
		t.Fatalf("Ingest() failed: %v", err)
	}

	bi, err := eng.Bivariate(ctx, "", "PostalCode", "TotalPremium", "TotalClaims")
	if err != nil {
		t.Fatalf("Bivariate() failed: %v", err)
	}
	if len(bi.Groups) != 5 {
		t.Errorf("postal code groups = %d, want 5", len(bi.Groups))
	}

	stats, err := eng.SegmentStats(ctx, "", "Province", "TotalPremium")
	if err != nil {
		t.Fatalf("SegmentStats() failed: %v", err)
	}
	if len(stats) != 3 {
		t.Fatalf("province groups = %d, want 3", len(stats))
	}
	for _, s := range stats {
		if s.Key == "Gauteng" && s.Count != 5 {
			t.Errorf("Gauteng count = %d, want 5", s.Count)
		}
	}

	xt, err := eng.CrossTab(ctx, "", "Province", "CoverType")
	if err != nil {
		t.Fatalf("CrossTab() failed: %v", err)
	}
	var total int64
	for _, e := range xt {
		total += e.Count
	}
	if total != 10 {
		t.Errorf("cross-tab counts sum to %d, want 10", total)
	}

	matrix, err := eng.Correlations(ctx, "", []string{"TotalPremium", "TotalClaims"})
	if err != nil {
		t.Fatalf("Correlations() failed: %v", err)
	}
	if matrix.Values[0][0] != 1 || matrix.Values[1][1] != 1 {
		t.Error("correlation matrix diagonal should be 1")
	}
	if matrix.Values[0][1] != matrix.Values[1][0] {
		t.Error("correlation matrix should be symmetric")
	}
}

func TestIntegration_ExportAndSamples(t *testing.T) {
	eng, extractPath := setupIntegrationEngine(t)
	ctx := context.Background()

	if _, err := eng.Ingest(ctx, IngestOptions{Path: extractPath, Delimiter: "|"}); err != nil {
		t.Fatalf("Ingest() failed: %v", err)
	}

	csvPath := filepath.Join(t.TempDir(), "out.csv")
	if err := eng.ExportCSV(ctx, "policies", csvPath); err != nil {
		t.Fatalf("ExportCSV() failed: %v", err)
	}
	raw, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("failed to read exported CSV: %v", err)
	}
	if !strings.Contains(string(raw), "PolicyID") {
		t.Error("exported CSV missing header row")
	}
	if lines := strings.Count(strings.TrimSpace(string(raw)), "\n"); lines != 10 {
		t.Errorf("exported CSV has %d data lines, want 10", lines)
	}

	sample, err := eng.SampleColumn(ctx, "policies", "TotalPremium", 5)
	if err != nil {
		t.Fatalf("SampleColumn() failed: %v", err)
	}
	if len(sample) != 5 {
		t.Errorf("sample size = %d, want 5", len(sample))
	}

	counts, err := eng.ValueCounts(ctx, "policies", "CoverType", 10)
	if err != nil {
		t.Fatalf("ValueCounts() failed: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 cover types, got %d", len(counts))
	}
	if counts[0].Value != "Own Damage" || counts[0].Count != 7 {
		t.Errorf("top cover type = %s (%d), want Own Damage (7)", counts[0].Value, counts[0].Count)
	}
}
