// Package dataset defines the schema and profile types riskline computes
// over an ingested policy table.
package dataset

import (
	"strings"

	"github.com/riskline-labs/riskline/pkg/adapter"
)

// TypeClass buckets database column types into the classes the analysis
// pipeline cares about.
type TypeClass string

const (
	// Numeric columns get descriptive statistics, skewness-driven
	// imputation and IQR capping.
	Numeric TypeClass = "numeric"
	// Categorical columns get mode imputation and frequency summaries.
	Categorical TypeClass = "categorical"
	// Datetime columns drive trend bucketing.
	Datetime TypeClass = "datetime"
	// Other covers types the pipeline passes through untouched.
	Other TypeClass = "other"
)

// Classify maps a database type name to a TypeClass. Matching is prefix-based
// because DuckDB reports parameterized types like DECIMAL(18,2).
func Classify(dbType string) TypeClass {
	t := strings.ToUpper(strings.TrimSpace(dbType))
	switch {
	case hasAnyPrefix(t, "TINYINT", "SMALLINT", "INTEGER", "BIGINT", "HUGEINT",
		"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT",
		"FLOAT", "REAL", "DOUBLE", "DECIMAL", "NUMERIC"):
		return Numeric
	case hasAnyPrefix(t, "DATE", "TIME", "TIMESTAMP", "INTERVAL"):
		return Datetime
	case hasAnyPrefix(t, "VARCHAR", "CHAR", "TEXT", "STRING", "ENUM", "UUID", "BOOLEAN", "BOOL"):
		return Categorical
	default:
		return Other
	}
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// ColumnSchema is one row of the data-structure report.
type ColumnSchema struct {
	Name     string
	Type     string
	Class    TypeClass
	Nullable bool
	Position int
}

// SchemaFromMetadata converts adapter metadata into the classified schema.
func SchemaFromMetadata(meta *adapter.Metadata) []ColumnSchema {
	out := make([]ColumnSchema, 0, len(meta.Columns))
	for _, col := range meta.Columns {
		out = append(out, ColumnSchema{
			Name:     col.Name,
			Type:     col.Type,
			Class:    Classify(col.Type),
			Nullable: col.Nullable,
			Position: col.Position,
		})
	}
	return out
}

// NumericSummary holds descriptive statistics for one numeric column.
type NumericSummary struct {
	Column   string
	Count    int64
	Mean     float64
	StdDev   float64
	Variance float64
	Min      float64
	P25      float64
	Median   float64
	P75      float64
	Max      float64
	Skewness float64
}

// CategoricalSummary holds frequency statistics for one categorical column.
type CategoricalSummary struct {
	Column        string
	DistinctCount int64
	Mode          string
	ModeCount     int64
}

// MissingSummary reports null counts for one column.
type MissingSummary struct {
	Column    string
	NullCount int64
	RowCount  int64
}

// Percent returns the missing fraction as a percentage.
func (m MissingSummary) Percent() float64 {
	if m.RowCount == 0 {
		return 0
	}
	return float64(m.NullCount) / float64(m.RowCount) * 100
}

// Fraction returns the missing fraction in [0, 1].
func (m MissingSummary) Fraction() float64 {
	if m.RowCount == 0 {
		return 0
	}
	return float64(m.NullCount) / float64(m.RowCount)
}

// OutlierSummary reports IQR fences and the count of values outside them.
type OutlierSummary struct {
	Column     string
	LowerBound float64
	UpperBound float64
	Count      int64
}

// Profile is the complete quality report for a table.
type Profile struct {
	Table       string
	RowCount    int64
	Schema      []ColumnSchema
	Numeric     []NumericSummary
	Categorical []CategoricalSummary
	Missing     []MissingSummary
	Outliers    []OutlierSummary
}

// NumericColumns returns the names of numeric columns in schema order.
func (p *Profile) NumericColumns() []string {
	var out []string
	for _, col := range p.Schema {
		if col.Class == Numeric {
			out = append(out, col.Name)
		}
	}
	return out
}

// CategoricalColumns returns the names of categorical columns in schema order.
func (p *Profile) CategoricalColumns() []string {
	var out []string
	for _, col := range p.Schema {
		if col.Class == Categorical {
			out = append(out, col.Name)
		}
	}
	return out
}
