package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tjfontaine/reportpipe/internal/core/domain"
	"github.com/tjfontaine/reportpipe/internal/filters"
	"github.com/tjfontaine/reportpipe/internal/metrics"
	"github.com/tjfontaine/reportpipe/internal/params"
	"github.com/tjfontaine/reportpipe/internal/reshape"
)

const tracerName = "github.com/tjfontaine/reportpipe/internal/pipeline"

// Defaults carries the process-level stage defaults a request can
// override.
type Defaults struct {
	// PivotColumnLimit caps pivot columns when the request does not say.
	PivotColumnLimit int
	// LabelSeparator joins and splits hierarchical labels.
	LabelSeparator string
}

// Pipeline applies the fixed stage sequence to one request's tree.
type Pipeline struct {
	engine   *metrics.Engine
	adapter  *filters.Adapter
	logger   *slog.Logger
	tracer   trace.Tracer
	defaults Defaults
}

// New creates a pipeline bound to the request's metric engine.
func New(engine *metrics.Engine, logger *slog.Logger, defaults Defaults) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if defaults.PivotColumnLimit == 0 {
		defaults.PivotColumnLimit = 10
	}
	if defaults.LabelSeparator == "" {
		defaults.LabelSeparator = reshape.DefaultLabelSeparator
	}
	return &Pipeline{
		engine:   engine,
		adapter:  filters.NewAdapter(engine, logger),
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
		defaults: defaults,
	}
}

type stage struct {
	name string
	run  func(ctx context.Context, n domain.Node, req *params.Request) error
}

// Process runs every stage in order and returns the resulting tree. The
// input tree is mutated in place; callers must not reuse it on failure.
func (p *Pipeline) Process(ctx context.Context, n domain.Node, req *params.Request) (domain.Node, error) {
	stages := []stage{
		{"pivot", p.applyPivot},
		{"flatten", p.applyFlatten},
		{"totals", p.applyTotals},
		{"generic_filters", p.applyGenericFilters},
		{"queue_label_unescape", p.queueLabelUnescape},
		{"replay_queued", p.replayQueued},
		{"column_prune", p.applyColumnPrune},
		{"label_select", p.applyLabelSelect},
		{"format_metrics", p.applyFormatting},
	}

	for _, s := range stages {
		stageCtx, span := p.tracer.Start(ctx, "pipeline."+s.name,
			trace.WithAttributes(attribute.String("pipeline.stage", s.name)))
		err := s.run(stageCtx, n, req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return nil, &domain.PipelineError{
				Stage: s.name,
				Kind:  domain.ClassifyError(err),
				Err:   err,
			}
		}
		span.End()
	}
	return n, nil
}

func (p *Pipeline) applyPivot(ctx context.Context, n domain.Node, req *params.Request) error {
	if req.String("pivotBy", "") == "" {
		return nil
	}
	column := req.String("pivotByColumn", "")
	if column == "" {
		if ms := p.engine.Metrics(); len(ms) > 0 {
			column = ms[0].Name()
		}
	}
	if column == "" {
		return fmt.Errorf("pivotBy requested but no pivot column available")
	}
	pivot := &reshape.Pivot{
		Column:      column,
		ColumnLimit: req.Int("pivotByColumnLimit", p.defaults.PivotColumnLimit),
		Engine:      p.engine,
	}
	return pivot.Apply(n)
}

func (p *Pipeline) applyFlatten(ctx context.Context, n domain.Node, req *params.Request) error {
	if !req.Bool("flat", false) {
		return nil
	}
	flatten := &reshape.Flatten{
		Separator:            req.String("flat_separator", p.defaults.LabelSeparator),
		IncludeAggregateRows: req.Bool("include_aggregate_rows", false),
	}
	return flatten.Apply(n)
}

func (p *Pipeline) applyTotals(ctx context.Context, n domain.Node, req *params.Request) error {
	if !req.Bool("totals", true) {
		return nil
	}
	return reshape.Totals{}.Apply(n)
}

func (p *Pipeline) applyGenericFilters(ctx context.Context, n domain.Node, req *params.Request) error {
	if req.Bool("disable_generic_filters", false) {
		return nil
	}
	chain := p.adapter.FromRequest(req)
	if len(chain) == 0 {
		return nil
	}
	names := make([]string, len(chain))
	for i, f := range chain {
		names[i] = f.Name()
	}
	p.logger.Debug("running generic filters", slog.Any("chain", names))
	return p.adapter.Apply(n, chain)
}

// queueLabelUnescape defers the markup-safety decoding of labels until
// replay, so earlier consumers see labels exactly as produced.
func (p *Pipeline) queueLabelUnescape(ctx context.Context, n domain.Node, req *params.Request) error {
	domain.Enqueue(n, reshape.UnescapeLabelsOp())
	return nil
}

func (p *Pipeline) replayQueued(ctx context.Context, n domain.Node, req *params.Request) error {
	if req.Bool("disable_queued_filters", false) {
		return nil
	}
	return domain.Replay(n)
}

func (p *Pipeline) applyColumnPrune(ctx context.Context, n domain.Node, req *params.Request) error {
	prune := &reshape.ColumnPrune{
		Hide: req.ColumnList("hideColumns"),
		Show: req.ColumnList("showColumns"),
	}
	return prune.Apply(n)
}

func (p *Pipeline) applyLabelSelect(ctx context.Context, n domain.Node, req *params.Request) error {
	if !req.Has("label") {
		return nil
	}
	selector := &reshape.LabelSelector{
		Labels:    req.StringSlice("label"),
		AddIndex:  req.Bool("labelFilterAddLabelIndex", false),
		Separator: p.defaults.LabelSeparator,
	}
	return selector.Apply(n)
}

// applyFormatting computes then formats processed metrics. When the
// caller wants raw values for intermediate use (formatMetrics=0), the
// formatting pass is enqueued instead and runs at the next replay,
// typically inside the renderer.
func (p *Pipeline) applyFormatting(ctx context.Context, n domain.Node, req *params.Request) error {
	if err := p.engine.Compute(n); err != nil {
		return err
	}
	if !req.Bool("formatMetrics", true) {
		domain.Enqueue(n, domain.Operation{
			Name: "format-metrics",
			Fn:   p.engine.FormatTable,
		})
		return nil
	}
	return p.engine.Format(n)
}
