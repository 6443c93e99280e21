package analysis

import (
	"strings"
	"testing"
)

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "TotalPremium", `"TotalPremium"`},
		{"embedded quote", `weird"name`, `"weird""name"`},
		{"spaces", "Cover Type", `"Cover Type"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuoteIdent(tt.in); got != tt.want {
				t.Errorf("QuoteIdent(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDescribeQuery(t *testing.T) {
	q := DescribeQuery("policies", "TotalPremium")
	for _, want := range []string{
		`count("TotalPremium")`,
		`avg("TotalPremium")`,
		`stddev_samp("TotalPremium")`,
		`var_samp("TotalPremium")`,
		`quantile_cont("TotalPremium", 0.25)`,
		`median("TotalPremium")`,
		`quantile_cont("TotalPremium", 0.75)`,
		`skewness("TotalPremium")`,
		"FROM policies",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("DescribeQuery missing %q in:\n%s", want, q)
		}
	}
}

func TestMissingQuery(t *testing.T) {
	q := MissingQuery("policies", "Gender")
	want := `SELECT count(*) - count("Gender"), count(*) FROM policies`
	if q != want {
		t.Errorf("MissingQuery = %q, want %q", q, want)
	}
}

func TestModeQuery(t *testing.T) {
	q := ModeQuery("policies", "Province")
	for _, want := range []string{`WHERE "Province" IS NOT NULL`, "ORDER BY freq DESC", "LIMIT 1"} {
		if !strings.Contains(q, want) {
			t.Errorf("ModeQuery missing %q in:\n%s", want, q)
		}
	}
}

func TestOutlierBoundsQuery(t *testing.T) {
	q := OutlierBoundsQuery("policies", "TotalClaims", 1.5)
	if !strings.Contains(q, `quantile_cont("TotalClaims", 0.25) - 1.5 *`) {
		t.Errorf("lower fence missing in:\n%s", q)
	}
	if !strings.Contains(q, `quantile_cont("TotalClaims", 0.75) + 1.5 *`) {
		t.Errorf("upper fence missing in:\n%s", q)
	}
}

func TestOutlierCountQuery(t *testing.T) {
	q := OutlierCountQuery("policies", "TotalClaims", -10, 250)
	want := `SELECT count(*) FROM policies WHERE "TotalClaims" < -10 OR "TotalClaims" > 250`
	if q != want {
		t.Errorf("OutlierCountQuery = %q, want %q", q, want)
	}
}

func TestImputeExpr(t *testing.T) {
	tests := []struct {
		name     string
		statFunc string
		want     string
	}{
		{"mode", "mode", `coalesce("Gender", (SELECT mode("Gender") FROM policies)) AS "Gender"`},
		{"mean", "avg", `coalesce("Gender", (SELECT avg("Gender") FROM policies)) AS "Gender"`},
		{"median", "median", `coalesce("Gender", (SELECT median("Gender") FROM policies)) AS "Gender"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ImputeExpr("policies", "Gender", tt.statFunc); got != tt.want {
				t.Errorf("ImputeExpr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCapExpr(t *testing.T) {
	got := CapExpr("TotalPremium", -5, 120)
	want := `least(greatest("TotalPremium", -5), 120) AS "TotalPremium"`
	if got != want {
		t.Errorf("CapExpr = %q, want %q", got, want)
	}
}

func TestCreateTableAs(t *testing.T) {
	got := CreateTableAs("policies_clean", []string{`"A"`, `"B"`}, "policies_staging")
	want := `CREATE OR REPLACE TABLE policies_clean AS SELECT "A", "B" FROM policies_staging`
	if got != want {
		t.Errorf("CreateTableAs = %q, want %q", got, want)
	}
}

func TestMonthlyTrendQuery(t *testing.T) {
	q := MonthlyTrendQuery("policies", "TransactionMonth", "TotalPremium", "TotalClaims")
	for _, want := range []string{
		`last_day(CAST("TransactionMonth" AS DATE)) AS month`,
		`sum("TotalPremium") AS total_premium`,
		`sum("TotalClaims") AS total_claims`,
		"lag(total_premium) OVER w",
		"total_claims / nullif(total_premium, 0) AS loss_ratio",
		"WINDOW w AS (ORDER BY month)",
		`WHERE "TransactionMonth" IS NOT NULL`,
	} {
		if !strings.Contains(q, want) {
			t.Errorf("MonthlyTrendQuery missing %q in:\n%s", want, q)
		}
	}
}

func TestSegmentTrendQuery(t *testing.T) {
	q := SegmentTrendQuery("policies", "TransactionMonth", "TotalPremium", "Province")
	for _, want := range []string{
		`"Province" AS segment`,
		`last_day(CAST("TransactionMonth" AS DATE)) AS month`,
		`AND "Province" IS NOT NULL`,
		"GROUP BY 1, 2",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("SegmentTrendQuery missing %q in:\n%s", want, q)
		}
	}
}

func TestGroupMeansQuery(t *testing.T) {
	q := GroupMeansQuery("policies", "PostalCode", "TotalPremium", "TotalClaims")
	for _, want := range []string{
		`SELECT "PostalCode", avg("TotalPremium"), avg("TotalClaims")`,
		`WHERE "PostalCode" IS NOT NULL`,
		`GROUP BY "PostalCode"`,
	} {
		if !strings.Contains(q, want) {
			t.Errorf("GroupMeansQuery missing %q in:\n%s", want, q)
		}
	}
}

func TestCorrQuery(t *testing.T) {
	got := CorrQuery("policies", "TotalPremium", "TotalClaims")
	want := `SELECT corr("TotalPremium", "TotalClaims") FROM policies`
	if got != want {
		t.Errorf("CorrQuery = %q, want %q", got, want)
	}
}

func TestValueCountsQuery(t *testing.T) {
	q := ValueCountsQuery("policies", "CoverType", 10)
	if !strings.Contains(q, "LIMIT 10") {
		t.Errorf("ValueCountsQuery missing limit in:\n%s", q)
	}
	if !strings.Contains(q, "ORDER BY freq DESC") {
		t.Errorf("ValueCountsQuery missing ordering in:\n%s", q)
	}
}

func TestCrossTabQuery(t *testing.T) {
	q := CrossTabQuery("policies", "Province", "CoverType")
	for _, want := range []string{
		`SELECT "Province", "CoverType", count(*) AS freq`,
		`WHERE "Province" IS NOT NULL AND "CoverType" IS NOT NULL`,
	} {
		if !strings.Contains(q, want) {
			t.Errorf("CrossTabQuery missing %q in:\n%s", want, q)
		}
	}
}

func TestSampleColumnQuery(t *testing.T) {
	got := SampleColumnQuery("policies", "TotalPremium", 500)
	want := `SELECT "TotalPremium" FROM policies WHERE "TotalPremium" IS NOT NULL LIMIT 500`
	if got != want {
		t.Errorf("SampleColumnQuery = %q, want %q", got, want)
	}
}
