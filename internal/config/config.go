// Package config loads process configuration for the report processor
// from a YAML file with environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tjfontaine/reportpipe/internal/metrics/registry"
)

type Config struct {
	Source    SourceConfig    `koanf:"source"`
	Output    OutputConfig    `koanf:"output"`
	Defaults  DefaultsConfig  `koanf:"defaults"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Reports   []ReportConfig  `koanf:"reports"`
}

type SourceConfig struct {
	// Type selects the report source: "sqlite".
	Type string `koanf:"type"`
	// Path is the SQLite database path.
	Path string `koanf:"path"`
}

type OutputConfig struct {
	// Format selects the renderer: "json" or "csv".
	Format string `koanf:"format"`
}

type DefaultsConfig struct {
	// PivotColumnLimit caps pivot columns unless the request overrides.
	PivotColumnLimit int `koanf:"pivot_column_limit"`
	// LabelSeparator joins and splits hierarchical labels.
	LabelSeparator string `koanf:"label_separator"`
}

type TelemetryConfig struct {
	Enabled bool `koanf:"enabled"`
}

// ReportConfig declares the derived metrics of one report.
type ReportConfig struct {
	Name    string            `koanf:"name"`
	Metrics []registry.Config `koanf:"metrics"`
}

// Load reads the YAML config at path (if it exists) and applies
// REPORTPIPE_-prefixed environment overrides, then defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider("REPORTPIPE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "REPORTPIPE_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment overrides: %w", err)
	}

	// Default values
	if !k.Exists("source.type") {
		k.Set("source.type", "sqlite")
	}
	if !k.Exists("source.path") {
		k.Set("source.path", "./data/reports.db")
	}
	if !k.Exists("output.format") {
		k.Set("output.format", "json")
	}
	if !k.Exists("defaults.pivot_column_limit") {
		k.Set("defaults.pivot_column_limit", 10)
	}
	if !k.Exists("defaults.label_separator") {
		k.Set("defaults.label_separator", ">")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// MetricConfigs returns the per-report metric declarations keyed by
// report name.
func (c *Config) MetricConfigs() map[string][]registry.Config {
	out := make(map[string][]registry.Config, len(c.Reports))
	for _, r := range c.Reports {
		out[r.Name] = r.Metrics
	}
	return out
}
