// Package metrics implements the processed-metric engine: lazy,
// memoized computation and formatting of derived columns across a
// result tree.
package metrics

import (
	"log/slog"

	"github.com/tjfontaine/reportpipe/internal/core/domain"
	"github.com/tjfontaine/reportpipe/internal/core/ports"
)

// Engine computes and formats processed metrics. It carries the
// report-level metric set for the request; each table may add its own
// extras through the ExtraProcessedMetrics metadata.
type Engine struct {
	metrics []ports.Metric
	logger  *slog.Logger
}

// NewEngine creates an engine for the report-level metric set.
func NewEngine(reportMetrics []ports.Metric, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{metrics: reportMetrics, logger: logger}
}

// Metrics returns the report-level metric set.
func (e *Engine) Metrics() []ports.Metric {
	return e.metrics
}

// available returns the union of the table's own extra metrics and the
// report-level set, extras first, deduplicated by column name.
func (e *Engine) available(t *domain.Table) []ports.Metric {
	var out []ports.Metric
	seen := make(map[string]bool)
	if raw, ok := t.Metadata[domain.MetadataExtraProcessedMetrics]; ok {
		if extras, ok := raw.([]ports.Metric); ok {
			for _, m := range extras {
				if !seen[m.Name()] {
					seen[m.Name()] = true
					out = append(out, m)
				}
			}
		}
	}
	for _, m := range e.metrics {
		if !seen[m.Name()] {
			seen[m.Name()] = true
			out = append(out, m)
		}
	}
	return out
}

// HasMetric reports whether the column is a processed metric available
// on the table.
func (e *Engine) HasMetric(t *domain.Table, column string) bool {
	for _, m := range e.available(t) {
		if m.Name() == column {
			return true
		}
	}
	return false
}

// Compute computes processed metrics for the node. On a collection the
// pass propagates to every entry.
func (e *Engine) Compute(n domain.Node) error {
	switch v := n.(type) {
	case *domain.Table:
		return e.computeTable(v, 0, true)
	case *domain.Collection:
		for _, label := range v.Labels() {
			entry, _ := v.Get(label)
			if err := e.Compute(entry); err != nil {
				return err
			}
		}
	}
	return nil
}

// ComputeTable computes processed metrics for a single table without
// descending into its subtables. The generic filter adapter uses this to
// realize values on just the node a filter will run against.
func (e *Engine) ComputeTable(t *domain.Table) error {
	return e.computeTable(t, 0, false)
}

func (e *Engine) computeTable(t *domain.Table, depth int, recurse bool) error {
	if depth > domain.MaxTreeDepth {
		return domain.ErrTreeTooDeep
	}
	if t.Flag(domain.MetadataProcessedMetricsComputed) {
		return nil
	}
	available := e.available(t)
	if len(available) == 0 {
		return nil
	}

	// Set before iterating so a metric's own hooks cannot re-enter the
	// compute pass on this table.
	t.SetFlag(domain.MetadataProcessedMetricsComputed)

	for _, m := range available {
		if !m.BeforeCompute(t) {
			continue
		}
		for _, r := range t.Rows {
			if r.HasColumn(m.Name()) {
				continue
			}
			v, err := m.Compute(r)
			if err != nil {
				return &domain.MetricError{Metric: m.Name(), Err: err}
			}
			r.SetColumn(m.Name(), v)
		}
		t.EnsureColumn(m.Name())
	}

	if !recurse {
		return nil
	}
	for _, r := range t.Rows {
		if r.Subtable == nil {
			continue
		}
		if err := e.computeTable(r.Subtable, depth+1, true); err != nil {
			return err
		}
	}
	return nil
}

// Format replaces raw metric values with their display strings. On a
// collection the pass propagates to every entry.
func (e *Engine) Format(n domain.Node) error {
	switch v := n.(type) {
	case *domain.Table:
		return e.FormatTable(v)
	case *domain.Collection:
		for _, label := range v.Labels() {
			entry, _ := v.Get(label)
			if err := e.Format(entry); err != nil {
				return err
			}
		}
	}
	return nil
}

// FormatTable formats the table and, unconditionally, every owned
// subtable. Each table's own formatted flag guards repetition.
func (e *Engine) FormatTable(t *domain.Table) error {
	return e.formatTable(t, 0)
}

func (e *Engine) formatTable(t *domain.Table, depth int) error {
	if depth > domain.MaxTreeDepth {
		return domain.ErrTreeTooDeep
	}
	if !t.Flag(domain.MetadataProcessedMetricsFormatted) {
		t.SetFlag(domain.MetadataProcessedMetricsFormatted)
		for _, m := range e.available(t) {
			for _, r := range t.Rows {
				raw, ok := r.Column(m.Name())
				if !ok {
					continue
				}
				num, ok := domain.NumericValue(raw)
				if !ok {
					continue
				}
				s, err := m.Format(num)
				if err != nil {
					return &domain.MetricError{Metric: m.Name(), Err: err}
				}
				r.SetColumn(m.Name(), s)
			}
		}
	}
	for _, r := range t.Rows {
		if r.Subtable == nil {
			continue
		}
		if err := e.formatTable(r.Subtable, depth+1); err != nil {
			return err
		}
	}
	return nil
}
