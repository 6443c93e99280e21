package analysis

// sqlgen.go - SQL builders for the DuckDB-side analysis queries

import (
	"fmt"
	"strings"
)

// QuoteIdent quotes a SQL identifier with double quotes, escaping any
// embedded quotes. Raw policy extracts frequently carry column names with
// mixed case, so everything is quoted.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// DescribeQuery returns the per-column descriptive statistics query for a
// numeric column: count, mean, stddev, variance, min, quartiles, max and
// skewness, all computed by DuckDB aggregates.
func DescribeQuery(table, column string) string {
	c := QuoteIdent(column)
	return fmt.Sprintf(`SELECT
	count(%[1]s),
	avg(%[1]s),
	stddev_samp(%[1]s),
	var_samp(%[1]s),
	min(%[1]s),
	quantile_cont(%[1]s, 0.25),
	median(%[1]s),
	quantile_cont(%[1]s, 0.75),
	max(%[1]s),
	skewness(%[1]s)
FROM %[2]s`, c, table)
}

// MissingQuery returns the null count and total row count for a column.
func MissingQuery(table, column string) string {
	c := QuoteIdent(column)
	return fmt.Sprintf("SELECT count(*) - count(%s), count(*) FROM %s", c, table)
}

// ModeQuery returns the most frequent non-null value of a column together
// with its frequency.
func ModeQuery(table, column string) string {
	c := QuoteIdent(column)
	return fmt.Sprintf(`SELECT %[1]s, count(*) AS freq
FROM %[2]s
WHERE %[1]s IS NOT NULL
GROUP BY %[1]s
ORDER BY freq DESC, %[1]s
LIMIT 1`, c, table)
}

// DistinctCountQuery returns the distinct non-null value count of a column.
func DistinctCountQuery(table, column string) string {
	return fmt.Sprintf("SELECT count(DISTINCT %s) FROM %s", QuoteIdent(column), table)
}

// OutlierBoundsQuery returns the IQR fences for a numeric column:
// Q1 - k*IQR and Q3 + k*IQR.
func OutlierBoundsQuery(table, column string, k float64) string {
	c := QuoteIdent(column)
	return fmt.Sprintf(`SELECT
	quantile_cont(%[1]s, 0.25) - %[3]g * (quantile_cont(%[1]s, 0.75) - quantile_cont(%[1]s, 0.25)),
	quantile_cont(%[1]s, 0.75) + %[3]g * (quantile_cont(%[1]s, 0.75) - quantile_cont(%[1]s, 0.25))
FROM %[2]s`, c, table, k)
}

// OutlierCountQuery counts values outside the given fences.
func OutlierCountQuery(table, column string, lower, upper float64) string {
	c := QuoteIdent(column)
	return fmt.Sprintf("SELECT count(*) FROM %s WHERE %s < %g OR %s > %g", table, c, lower, c, upper)
}

// ImputeExpr returns the SELECT expression that fills nulls in a column with
// the given statistic subquery (mode, mean or median of the source column).
func ImputeExpr(table, column, statFunc string) string {
	c := QuoteIdent(column)
	return fmt.Sprintf("coalesce(%[1]s, (SELECT %[3]s(%[1]s) FROM %[2]s)) AS %[1]s", c, table, statFunc)
}

// CapExpr returns the SELECT expression that clamps a numeric column to the
// inclusive [lower, upper] range.
func CapExpr(column string, lower, upper float64) string {
	c := QuoteIdent(column)
	return fmt.Sprintf("least(greatest(%s, %g), %g) AS %s", c, lower, upper, c)
}

// CreateTableAs builds a CREATE OR REPLACE TABLE ... AS SELECT statement
// from a list of column expressions.
func CreateTableAs(target string, exprs []string, source string) string {
	return fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT %s FROM %s",
		target, strings.Join(exprs, ", "), source)
}

// MonthlyTrendQuery aggregates premium and claims by month-end bucket with
// month-over-month percent change and loss ratio. The first month's change
// columns are NULL, as is the loss ratio for months with zero premium.
func MonthlyTrendQuery(table, timeColumn, premiumColumn, claimsColumn string) string {
	t := QuoteIdent(timeColumn)
	p := QuoteIdent(premiumColumn)
	c := QuoteIdent(claimsColumn)
	return fmt.Sprintf(`WITH monthly AS (
	SELECT
		last_day(CAST(%[1]s AS DATE)) AS month,
		sum(%[2]s) AS total_premium,
		sum(%[3]s) AS total_claims
	FROM %[4]s
	WHERE %[1]s IS NOT NULL
	GROUP BY 1
)
SELECT
	month,
	total_premium,
	total_claims,
	(total_premium - lag(total_premium) OVER w) / nullif(lag(total_premium) OVER w, 0) AS premium_change,
	(total_claims - lag(total_claims) OVER w) / nullif(lag(total_claims) OVER w, 0) AS claims_change,
	total_claims / nullif(total_premium, 0) AS loss_ratio
FROM monthly
WINDOW w AS (ORDER BY month)
ORDER BY month`, t, p, c, table)
}

// SegmentTrendQuery aggregates monthly premium per segment of the given
// grouping column (e.g. Province).
func SegmentTrendQuery(table, timeColumn, premiumColumn, segmentColumn string) string {
	t := QuoteIdent(timeColumn)
	p := QuoteIdent(premiumColumn)
	s := QuoteIdent(segmentColumn)
	return fmt.Sprintf(`SELECT
	%[3]s AS segment,
	last_day(CAST(%[1]s AS DATE)) AS month,
	sum(%[2]s) AS total_premium
FROM %[4]s
WHERE %[1]s IS NOT NULL AND %[3]s IS NOT NULL
GROUP BY 1, 2
ORDER BY 1, 2`, t, p, s, table)
}

// GroupMeansQuery computes per-group means of two measures, e.g. mean
// premium and mean claims per postal code.
func GroupMeansQuery(table, keyColumn, measureA, measureB string) string {
	k := QuoteIdent(keyColumn)
	a := QuoteIdent(measureA)
	b := QuoteIdent(measureB)
	return fmt.Sprintf(`SELECT %[1]s, avg(%[2]s), avg(%[3]s)
FROM %[4]s
WHERE %[1]s IS NOT NULL
GROUP BY %[1]s
ORDER BY %[1]s`, k, a, b, table)
}

// CorrQuery computes the Pearson correlation between two numeric columns.
func CorrQuery(table, columnA, columnB string) string {
	return fmt.Sprintf("SELECT corr(%s, %s) FROM %s",
		QuoteIdent(columnA), QuoteIdent(columnB), table)
}

// ValueCountsQuery returns the most frequent values of a column, descending.
func ValueCountsQuery(table, column string, limit int) string {
	c := QuoteIdent(column)
	return fmt.Sprintf(`SELECT %[1]s, count(*) AS freq
FROM %[2]s
WHERE %[1]s IS NOT NULL
GROUP BY %[1]s
ORDER BY freq DESC, %[1]s
LIMIT %[3]d`, c, table, limit)
}

// GroupStatsQuery returns distribution statistics of a measure per group,
// used for the province premium comparison.
func GroupStatsQuery(table, keyColumn, measure string) string {
	k := QuoteIdent(keyColumn)
	m := QuoteIdent(measure)
	return fmt.Sprintf(`SELECT
	%[1]s,
	count(%[2]s),
	avg(%[2]s),
	median(%[2]s),
	min(%[2]s),
	max(%[2]s)
FROM %[3]s
WHERE %[1]s IS NOT NULL
GROUP BY %[1]s
ORDER BY %[1]s`, k, m, table)
}

// CrossTabQuery counts rows per (group, category) pair, e.g. cover type per
// province.
func CrossTabQuery(table, keyColumn, categoryColumn string) string {
	k := QuoteIdent(keyColumn)
	c := QuoteIdent(categoryColumn)
	return fmt.Sprintf(`SELECT %[1]s, %[2]s, count(*) AS freq
FROM %[3]s
WHERE %[1]s IS NOT NULL AND %[2]s IS NOT NULL
GROUP BY %[1]s, %[2]s
ORDER BY %[1]s, freq DESC`, k, c, table)
}

// SampleColumnQuery fetches up to limit non-null values of a numeric column
// for Go-side binning (histograms, boxplots).
func SampleColumnQuery(table, column string, limit int) string {
	c := QuoteIdent(column)
	return fmt.Sprintf("SELECT %[1]s FROM %[2]s WHERE %[1]s IS NOT NULL LIMIT %[3]d", c, table, limit)
}
