// Package domain defines the tree-shaped tabular result model shared by
// every pipeline stage: rows, tables, labeled collections, and the
// traversal and queuing primitives the stages are built on.
package domain

// LabelColumn is the designated column holding a row's label.
const LabelColumn = "label"

// Table metadata keys.
const (
	// MetadataExtraProcessedMetrics holds the metric capability handles
	// ([]ports.Metric, stored opaquely) attached by the producer.
	MetadataExtraProcessedMetrics = "extra_processed_metrics"

	// MetadataProcessedMetricsComputed marks a table whose processed
	// metrics have been computed. The flag covers this table only, never
	// its subtables.
	MetadataProcessedMetricsComputed = "processed_metrics_computed"

	// MetadataProcessedMetricsFormatted marks a table whose processed
	// metrics have been formatted for display.
	MetadataProcessedMetricsFormatted = "processed_metrics_formatted"

	// MetadataTotals holds the per-table numeric column totals
	// (map[string]float64) attached by the totals stage.
	MetadataTotals = "totals"
)

// MaxTreeDepth bounds subtable nesting. Deeper trees (including cyclic
// ones, which present as unbounded depth) are producer bugs and fail the
// request rather than being silently truncated.
const MaxTreeDepth = 64

// Row metadata keys.
const (
	// RowMetadataLabelIndex carries the 1-based position of the request
	// label that matched this row during label selection.
	RowMetadataLabelIndex = "label_index"
)

// Row is a single table row: a column→value mapping, optional per-row
// metadata, and at most one owned subtable.
type Row struct {
	Columns  map[string]any
	Metadata map[string]any
	Subtable *Table
}

// NewRow returns an empty row.
func NewRow() *Row {
	return &Row{Columns: make(map[string]any)}
}

// Label returns the row's label column as a string, or "" if unset.
func (r *Row) Label() string {
	if v, ok := r.Columns[LabelColumn]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Column returns the named column value.
func (r *Row) Column(name string) (any, bool) {
	v, ok := r.Columns[name]
	return v, ok
}

// HasColumn reports whether the row carries a value for the column.
func (r *Row) HasColumn(name string) bool {
	_, ok := r.Columns[name]
	return ok
}

// SetColumn sets a column value.
func (r *Row) SetColumn(name string, v any) {
	if r.Columns == nil {
		r.Columns = make(map[string]any)
	}
	r.Columns[name] = v
}

// DeleteColumn removes a column value.
func (r *Row) DeleteColumn(name string) {
	delete(r.Columns, name)
}

// SetMetadata sets a per-row metadata entry.
func (r *Row) SetMetadata(key string, v any) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = v
}

// CloneWithoutSubtable returns a copy of the row's columns and metadata
// with no subtable reference. Subtable ownership is exclusive, so copies
// never share the original's subtable.
func (r *Row) CloneWithoutSubtable() *Row {
	out := &Row{Columns: make(map[string]any, len(r.Columns))}
	for k, v := range r.Columns {
		out.Columns[k] = v
	}
	if len(r.Metadata) > 0 {
		out.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// Table is an ordered sequence of rows plus table-level metadata and a
// queue of deferred operations. Row order is semantically meaningful (it
// encodes rank), as is column order.
type Table struct {
	Rows     []*Row
	Columns  []string
	Metadata map[string]any

	queue []Operation
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{Metadata: make(map[string]any)}
}

// AddRow appends a row and merges any new column names into the table's
// column order.
func (t *Table) AddRow(r *Row) {
	t.Rows = append(t.Rows, r)
	for _, name := range []string{LabelColumn} {
		if r.HasColumn(name) {
			t.EnsureColumn(name)
		}
	}
	for name := range r.Columns {
		if name != LabelColumn {
			t.EnsureColumn(name)
		}
	}
}

// EnsureColumn appends the column name to the table's column order if it
// is not already present.
func (t *Table) EnsureColumn(name string) {
	for _, c := range t.Columns {
		if c == name {
			return
		}
	}
	t.Columns = append(t.Columns, name)
}

// DeleteColumn removes the column from the table's order and from every
// direct row. Subtables are untouched.
func (t *Table) DeleteColumn(name string) {
	for i, c := range t.Columns {
		if c == name {
			t.Columns = append(t.Columns[:i], t.Columns[i+1:]...)
			break
		}
	}
	for _, r := range t.Rows {
		r.DeleteColumn(name)
	}
}

// Flag reports whether a boolean metadata flag is set.
func (t *Table) Flag(key string) bool {
	if t.Metadata == nil {
		return false
	}
	v, ok := t.Metadata[key].(bool)
	return ok && v
}

// SetFlag sets a boolean metadata flag.
func (t *Table) SetFlag(key string) {
	t.SetMetadata(key, true)
}

// SetMetadata sets a table-level metadata entry.
func (t *Table) SetMetadata(key string, v any) {
	if t.Metadata == nil {
		t.Metadata = make(map[string]any)
	}
	t.Metadata[key] = v
}

// EachTable walks this table and every owned subtable depth-first in
// pre-order, failing with ErrTreeTooDeep past MaxTreeDepth.
func (t *Table) EachTable(fn func(*Table) error) error {
	return t.eachTable(0, fn)
}

func (t *Table) eachTable(depth int, fn func(*Table) error) error {
	if depth > MaxTreeDepth {
		return ErrTreeTooDeep
	}
	if err := fn(t); err != nil {
		return err
	}
	for _, r := range t.Rows {
		if r.Subtable == nil {
			continue
		}
		if err := r.Subtable.eachTable(depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// EachRow walks every row of this table and its subtables depth-first in
// pre-order.
func (t *Table) EachRow(fn func(*Row) error) error {
	return t.EachTable(func(sub *Table) error {
		for _, r := range sub.Rows {
			if err := fn(r); err != nil {
				return err
			}
		}
		return nil
	})
}

// NumericValue converts a cell value to float64. It accepts the numeric
// types produced by sources and by JSON decoding; strings (formatted
// metrics included) are not numeric.
func NumericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
