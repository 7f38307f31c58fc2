// Package runtime provides the Processor composition root: it wires a
// report source, metric provider, renderer, and pipeline together for
// callers that embed the post-processor or run it from the CLI.
package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tjfontaine/reportpipe/internal/core/domain"
	"github.com/tjfontaine/reportpipe/internal/core/ports"
	"github.com/tjfontaine/reportpipe/internal/metrics"
	"github.com/tjfontaine/reportpipe/internal/params"
	"github.com/tjfontaine/reportpipe/internal/pipeline"
)

// Processor runs the post-processing pipeline for reports served by a
// source. It holds no per-request state: each request owns its tree
// exclusively from Load to Render.
type Processor struct {
	logger   *slog.Logger
	source   ports.Source
	renderer ports.Renderer
	metrics  ports.MetricProvider
	defaults pipeline.Defaults
}

// emptyProvider is the default metric provider: no derived metrics.
type emptyProvider struct{}

func (emptyProvider) MetricsFor(string) []ports.Metric { return nil }

// New creates a Processor with the given options. A source is required;
// the renderer defaults to JSON and the metric provider to none.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		logger:  slog.Default(),
		metrics: emptyProvider{},
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}
	if p.source == nil {
		return nil, fmt.Errorf("report source required (use WithSource or WithSQLiteSource)")
	}
	if p.renderer == nil {
		p.renderer = defaultRenderer()
	}
	return p, nil
}

// Process loads the report's raw tree and runs the pipeline, returning
// the processed tree for callers that do their own serialization.
func (p *Processor) Process(ctx context.Context, report string, values map[string]any) (domain.Node, error) {
	requestID := uuid.NewString()
	logger := p.logger.With(
		slog.String("request_id", requestID),
		slog.String("report", report),
	)

	req, err := params.New(values)
	if err != nil {
		return nil, err
	}

	node, err := p.source.Load(ctx, report)
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}

	engine := metrics.NewEngine(p.metrics.MetricsFor(report), logger)
	pl := pipeline.New(engine, logger, p.defaults)

	logger.Info("processing report", slog.Int("params", len(values)))
	out, err := pl.Process(ctx, node, req)
	if err != nil {
		logger.Error("pipeline failed", slog.String("error", err.Error()))
		return nil, err
	}
	return out, nil
}

// Run processes the report and renders the result to w.
func (p *Processor) Run(ctx context.Context, report string, values map[string]any, w io.Writer) error {
	node, err := p.Process(ctx, report, values)
	if err != nil {
		return err
	}
	return p.renderer.Render(w, node)
}
