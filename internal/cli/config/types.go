// Package config loads riskline's layered configuration: defaults, then
// riskline.yaml, then RISKLINE_ environment variables, then CLI flags.
package config

import (
	"github.com/riskline-labs/riskline/pkg/adapter"
)

// DatasetConfig describes the raw extract and its canonical columns.
type DatasetConfig struct {
	// Path is the raw extract file (pipe-delimited policy transactions).
	Path string `koanf:"path"`
	// Delimiter is the field separator in the extract (default "|").
	Delimiter string `koanf:"delimiter"`
	// Table is the DuckDB table the extract loads into.
	Table string `koanf:"table"`
	// TimeColumn is the event-time column driving trend bucketing.
	TimeColumn string `koanf:"time_column"`
	// PremiumColumn and ClaimsColumn are the measures the trend and
	// segment analyses aggregate.
	PremiumColumn string `koanf:"premium_column"`
	ClaimsColumn  string `koanf:"claims_column"`
}

// CleanConfig tunes the cleaning pipeline.
type CleanConfig struct {
	// MissingThreshold drops columns whose missing fraction exceeds it.
	MissingThreshold float64 `koanf:"missing_threshold"`
	// SkewThreshold switches numeric imputation from mean to median.
	SkewThreshold float64 `koanf:"skew_threshold"`
	// IQRMultiplier is the outlier fence multiplier.
	IQRMultiplier float64 `koanf:"iqr_multiplier"`
	// TargetTable is the cleaned table name (default "<table>_clean").
	TargetTable string `koanf:"target_table"`
}

// Config is the full CLI configuration.
type Config struct {
	Dataset DatasetConfig `koanf:"dataset"`
	Clean   CleanConfig   `koanf:"clean"`

	// Target is the analytics database (default in-memory DuckDB).
	Target adapter.Config `koanf:"target"`
	// Export is the optional warehouse target for cleaned tables.
	Export *adapter.Config `koanf:"export"`

	StatePath    string `koanf:"state_path"`
	SnapshotsDir string `koanf:"snapshots_dir"`
	ReportDir    string `koanf:"report_dir"`

	Environment  string `koanf:"environment"`
	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`
}

// Default configuration values.
const (
	DefaultStateFile    = ".riskline/state.db"
	DefaultSnapshotsDir = ".riskline/snapshots"
	DefaultReportDir    = ".riskline/report"
	DefaultTable        = "policies"
	DefaultDelimiter    = "|"
	DefaultTimeColumn   = "TransactionMonth"
	DefaultPremium      = "TotalPremium"
	DefaultClaims       = "TotalClaims"
	DefaultEnv          = "dev"
	DefaultOutput       = "auto"
)
