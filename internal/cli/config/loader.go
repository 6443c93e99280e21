package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Package-level koanf instance and config file tracking.
var (
	k              = koanf.New(".")
	configFileUsed string
)

// findConfigFile finds the config file to use.
// Priority: explicit path > riskline.yaml > riskline.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"riskline.yaml", "riskline.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// GetConfigFileUsed returns the config file loaded by the last LoadConfig call.
func GetConfigFileUsed() string {
	return configFileUsed
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"dataset.delimiter":      DefaultDelimiter,
		"dataset.table":          DefaultTable,
		"dataset.time_column":    DefaultTimeColumn,
		"dataset.premium_column": DefaultPremium,
		"dataset.claims_column":  DefaultClaims,
		"clean.missing_threshold": 0.5,
		"clean.skew_threshold":    1.0,
		"clean.iqr_multiplier":    1.5,
		"target.type":             "duckdb",
		"state_path":              DefaultStateFile,
		"snapshots_dir":           DefaultSnapshotsDir,
		"report_dir":              DefaultReportDir,
		"environment":             DefaultEnv,
		"verbose":                 false,
		"output":                  DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables (RISKLINE_ prefix).
	// Double underscore separates nesting levels so single underscores
	// survive in key names: RISKLINE_DATASET__TIME_COLUMN -> dataset.time_column
	if err := k.Load(env.Provider("RISKLINE_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "RISKLINE_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			switch f.Name {
			case "data":
				return "dataset.path", posflag.FlagVal(flags, f)
			case "table":
				return "dataset.table", posflag.FlagVal(flags, f)
			case "database":
				return "target.path", posflag.FlagVal(flags, f)
			case "state":
				return "state_path", posflag.FlagVal(flags, f)
			case "env":
				return "environment", posflag.FlagVal(flags, f)
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &cfg, nil
}

// configKey stores the loaded config in a command context.
type configKey struct{}

// WithConfig returns a context carrying the config.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// GetConfig retrieves the config from the context. Returns an empty config
// when none was loaded (help/completion paths).
func GetConfig(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey{}).(*Config); ok {
		return cfg
	}
	return &Config{}
}

// loggerKey stores the logger in a command context.
type loggerKey struct{}

// WithLogger returns a context carrying the logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the context, falling back to discard.
func GetLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.New(slog.DiscardHandler)
}

// NewLogger builds the CLI logger: debug level to stderr when verbose,
// discard otherwise.
func NewLogger(verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}
