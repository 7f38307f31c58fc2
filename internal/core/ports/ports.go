// Package ports defines the interfaces between the post-processing core
// and its collaborators: metric capabilities, generic filters, report
// sources, and renderers.
package ports

import (
	"context"
	"io"

	"github.com/tjfontaine/reportpipe/internal/core/domain"
)

// Metric is the capability a report supplies for each derived column.
// The engine computes raw numeric values first and replaces them with
// display strings in a separate formatting pass.
type Metric interface {
	// Name returns the column this metric writes.
	Name() string

	// BeforeCompute runs once per table before any row is computed. It
	// may mutate the table (e.g. to cache state on rows). Returning
	// false skips this metric for this table only.
	BeforeCompute(t *domain.Table) bool

	// Compute derives the raw value from the row's existing columns.
	Compute(r *domain.Row) (float64, error)

	// Format renders a raw value as its display string.
	Format(v float64) (string, error)
}

// MetricProvider supplies the derived metrics declared for a report.
// This is the report registry collaborator, consumed opaquely.
type MetricProvider interface {
	MetricsFor(report string) []Metric
}

// Filter is a named, parameterized generic table operation (sort, limit,
// truncate, search).
type Filter interface {
	// Name returns the filter's identifier.
	Name() string

	// Columns reports the column names the filter reads, so the adapter
	// can realize processed metrics before it runs.
	Columns() []string

	// Apply transforms the table in place.
	Apply(t *domain.Table) error
}

// Source produces the raw tree for a report. This is the query engine
// collaborator; the core never computes raw metrics itself.
type Source interface {
	Load(ctx context.Context, report string) (domain.Node, error)
}

// Renderer serializes a processed tree. Renderers replay any still
// queued operations (e.g. deferred formatting) before writing.
type Renderer interface {
	Render(w io.Writer, n domain.Node) error
}
