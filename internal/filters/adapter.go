package filters

import (
	"fmt"
	"log/slog"

	"github.com/tjfontaine/reportpipe/internal/core/domain"
	"github.com/tjfontaine/reportpipe/internal/core/ports"
	"github.com/tjfontaine/reportpipe/internal/metrics"
	"github.com/tjfontaine/reportpipe/internal/params"
)

// Adapter resolves the generic filter chain from request parameters and
// applies it across a tree. Before a chain runs against a table, any
// processed-metric column it references is realized on that table (and
// only that table) so the chain operates on real values.
type Adapter struct {
	engine *metrics.Engine
	logger *slog.Logger
}

// NewAdapter creates a filter adapter bound to the request's metric
// engine.
func NewAdapter(engine *metrics.Engine, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{engine: engine, logger: logger}
}

// FromRequest resolves the enabled filters in registration order. When
// the request selects rows by label, ranking filters are left out.
func (a *Adapter) FromRequest(req *params.Request) []ports.Filter {
	labelled := req.Has("label")
	var chain []ports.Filter
	for _, f := range registeredFactories() {
		if labelled && f.Ranking {
			continue
		}
		filter, ok := f.FromRequest(req)
		if !ok {
			continue
		}
		chain = append(chain, filter)
	}
	return chain
}

// Apply runs the chain against every table of the node.
func (a *Adapter) Apply(n domain.Node, chain []ports.Filter) error {
	if len(chain) == 0 {
		return nil
	}
	return domain.Apply(n, domain.Operation{
		Name: "generic-filters",
		Fn: func(t *domain.Table) error {
			if a.referencesMetric(t, chain) {
				if err := a.engine.ComputeTable(t); err != nil {
					return err
				}
			}
			for _, f := range chain {
				if err := f.Apply(t); err != nil {
					return fmt.Errorf("filter %s: %w", f.Name(), err)
				}
				a.logger.Debug("generic filter applied",
					slog.String("filter", f.Name()),
					slog.Int("rows", len(t.Rows)))
			}
			return nil
		},
	})
}

func (a *Adapter) referencesMetric(t *domain.Table, chain []ports.Filter) bool {
	for _, f := range chain {
		for _, col := range f.Columns() {
			if a.engine.HasMetric(t, col) {
				return true
			}
		}
	}
	return false
}
