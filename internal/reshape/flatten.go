package reshape

import (
	"github.com/tjfontaine/reportpipe/internal/core/domain"
)

// DefaultLabelSeparator joins ancestor labels when flattening and splits
// label selection paths.
const DefaultLabelSeparator = ">"

// Flatten converts a tree into a single-level table. Each emitted row's
// label is the separator-joined chain of its ancestors' labels. With
// IncludeAggregateRows set, every internal node also emits a synthetic
// row for its own aggregate before its children; otherwise only true
// leaves appear. Row order is a stable depth-first pre-order of the
// original tree.
type Flatten struct {
	Separator            string
	IncludeAggregateRows bool
}

// Apply flattens every table of the node.
func (f *Flatten) Apply(n domain.Node) error {
	return domain.Apply(n, domain.Operation{Name: "flatten", Fn: f.flattenTable})
}

func (f *Flatten) flattenTable(t *domain.Table) error {
	sep := f.Separator
	if sep == "" {
		sep = DefaultLabelSeparator
	}

	var flat []*domain.Row
	var walk func(cur *domain.Table, prefix string, depth int) error
	walk = func(cur *domain.Table, prefix string, depth int) error {
		if depth > domain.MaxTreeDepth {
			return domain.ErrTreeTooDeep
		}
		for _, r := range cur.Rows {
			label := r.Label()
			if prefix != "" {
				label = prefix + sep + r.Label()
			}
			if r.Subtable == nil {
				out := r.CloneWithoutSubtable()
				out.SetColumn(domain.LabelColumn, label)
				flat = append(flat, out)
				continue
			}
			if f.IncludeAggregateRows {
				out := r.CloneWithoutSubtable()
				out.SetColumn(domain.LabelColumn, label)
				flat = append(flat, out)
			}
			if err := walk(r.Subtable, label, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(t, "", 0); err != nil {
		return err
	}

	t.Rows = nil
	for _, r := range flat {
		t.AddRow(r)
	}
	return nil
}
