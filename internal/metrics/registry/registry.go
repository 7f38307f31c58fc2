// Package registry provides metric capability factory registration and
// the per-report metric provider built from configuration.
//
// Metric packages register themselves via init():
//
//	func init() {
//	    registry.Register(registry.Factory{
//	        Type:        "quotient",
//	        Description: "ratio of two raw columns",
//	        Create:      newQuotientFromConfig,
//	    })
//	}
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tjfontaine/reportpipe/internal/core/ports"
)

// Config describes one derived metric of a report.
type Config struct {
	// Type selects the registered factory (e.g. "quotient").
	Type string `koanf:"type"`
	// Column is the derived column the metric writes.
	Column string `koanf:"column"`
	// Options carries factory-specific settings.
	Options map[string]any `koanf:"options"`
}

// Factory creates metric capabilities of one type from configuration.
type Factory struct {
	Type        string
	Description string
	Create      func(cfg Config) (ports.Metric, error)
}

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register registers a metric factory. It panics on an empty type, a
// missing Create function, or a duplicate registration.
func Register(f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if f.Type == "" {
		panic("metric factory type cannot be empty")
	}
	if f.Create == nil {
		panic(fmt.Sprintf("metric factory %q must have a Create function", f.Type))
	}
	if _, exists := factories[f.Type]; exists {
		panic(fmt.Sprintf("metric factory %q already registered", f.Type))
	}
	factories[f.Type] = f
}

// Lookup returns the factory for a metric type.
func Lookup(metricType string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := factories[metricType]
	return f, ok
}

// Types returns the registered metric types, sorted.
func Types() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for t := range factories {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Build resolves a list of metric configs into capabilities.
func Build(cfgs []Config) ([]ports.Metric, error) {
	var out []ports.Metric
	for _, cfg := range cfgs {
		f, ok := Lookup(cfg.Type)
		if !ok {
			return nil, fmt.Errorf("unknown metric type %q (registered: %v)", cfg.Type, Types())
		}
		m, err := f.Create(cfg)
		if err != nil {
			return nil, fmt.Errorf("create metric %q: %w", cfg.Column, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// Provider is a ports.MetricProvider backed by per-report metric
// configuration, resolved eagerly at construction.
type Provider struct {
	reports map[string][]ports.Metric
}

// NewProvider builds a provider from report name → metric configs.
func NewProvider(reports map[string][]Config) (*Provider, error) {
	resolved := make(map[string][]ports.Metric, len(reports))
	for name, cfgs := range reports {
		ms, err := Build(cfgs)
		if err != nil {
			return nil, fmt.Errorf("report %q: %w", name, err)
		}
		resolved[name] = ms
	}
	return &Provider{reports: resolved}, nil
}

// MetricsFor returns the metrics declared for a report. Unknown reports
// have no derived metrics.
func (p *Provider) MetricsFor(report string) []ports.Metric {
	return p.reports[report]
}

var _ ports.MetricProvider = (*Provider)(nil)
