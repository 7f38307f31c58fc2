package runtime

import (
	"fmt"
	"log/slog"

	"github.com/tjfontaine/reportpipe/internal/adapters/render/csvout"
	"github.com/tjfontaine/reportpipe/internal/adapters/render/jsonout"
	"github.com/tjfontaine/reportpipe/internal/adapters/source/sqlite"
	"github.com/tjfontaine/reportpipe/internal/core/ports"
	"github.com/tjfontaine/reportpipe/internal/metrics/registry"
	"github.com/tjfontaine/reportpipe/internal/pipeline"
)

// Option is a functional option for configuring a Processor.
type Option func(*Processor) error

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		p.logger = logger
		return nil
	}
}

// WithSource sets the report source.
func WithSource(source ports.Source) Option {
	return func(p *Processor) error {
		p.source = source
		return nil
	}
}

// WithSQLiteSource loads raw report trees from a SQLite database.
func WithSQLiteSource(path string) Option {
	return func(p *Processor) error {
		src, err := sqlite.New(path)
		if err != nil {
			return fmt.Errorf("create sqlite source: %w", err)
		}
		p.source = src
		return nil
	}
}

// WithRenderer sets the output renderer.
func WithRenderer(r ports.Renderer) Option {
	return func(p *Processor) error {
		p.renderer = r
		return nil
	}
}

// WithJSONRenderer renders results as indented JSON (the default).
func WithJSONRenderer() Option {
	return func(p *Processor) error {
		p.renderer = jsonout.New()
		return nil
	}
}

// WithCSVRenderer renders results as CSV.
func WithCSVRenderer() Option {
	return func(p *Processor) error {
		p.renderer = csvout.New()
		return nil
	}
}

// WithMetricProvider sets the per-report derived metric registry.
func WithMetricProvider(mp ports.MetricProvider) Option {
	return func(p *Processor) error {
		p.metrics = mp
		return nil
	}
}

// WithMetricConfigs builds the metric provider from per-report metric
// configuration.
func WithMetricConfigs(reports map[string][]registry.Config) Option {
	return func(p *Processor) error {
		provider, err := registry.NewProvider(reports)
		if err != nil {
			return fmt.Errorf("build metric provider: %w", err)
		}
		p.metrics = provider
		return nil
	}
}

// WithDefaults sets the pipeline stage defaults.
func WithDefaults(d pipeline.Defaults) Option {
	return func(p *Processor) error {
		p.defaults = d
		return nil
	}
}

func defaultRenderer() ports.Renderer {
	return jsonout.New()
}
