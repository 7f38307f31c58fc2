// Package filters implements the closed set of generic table filters
// (sort, limit, truncate, search) and the adapter that resolves them
// from request parameters.
package filters

import (
	"sort"
	"strings"

	"github.com/tjfontaine/reportpipe/internal/core/domain"
	"github.com/tjfontaine/reportpipe/internal/core/ports"
)

// DefaultOthersLabel labels the aggregate row produced by Truncate.
const DefaultOthersLabel = "Others"

// SortByColumn orders rows by one column, numerically when both values
// are numeric and lexically otherwise. The sort is stable so ties keep
// their producer order.
type SortByColumn struct {
	Column     string
	Descending bool
}

func (f *SortByColumn) Name() string      { return "sort" }
func (f *SortByColumn) Columns() []string { return []string{f.Column} }

func (f *SortByColumn) Apply(t *domain.Table) error {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		less := rowLess(t.Rows[i], t.Rows[j], f.Column)
		if f.Descending {
			return rowLess(t.Rows[j], t.Rows[i], f.Column)
		}
		return less
	})
	return nil
}

func rowLess(a, b *domain.Row, column string) bool {
	av, aok := a.Column(column)
	bv, bok := b.Column(column)
	if !aok || !bok {
		// Rows missing the column sort last.
		return aok && !bok
	}
	an, aNum := domain.NumericValue(av)
	bn, bNum := domain.NumericValue(bv)
	if aNum && bNum {
		return an < bn
	}
	return toString(av) < toString(bv)
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LimitOffset keeps a window of rows. A negative limit keeps everything
// past the offset.
type LimitOffset struct {
	Offset int
	Limit  int
}

func (f *LimitOffset) Name() string      { return "limit" }
func (f *LimitOffset) Columns() []string { return nil }

func (f *LimitOffset) Apply(t *domain.Table) error {
	start := f.Offset
	if start < 0 {
		start = 0
	}
	if start >= len(t.Rows) {
		t.Rows = nil
		return nil
	}
	end := len(t.Rows)
	if f.Limit >= 0 && start+f.Limit < end {
		end = start + f.Limit
	}
	t.Rows = t.Rows[start:end]
	return nil
}

// Truncate keeps the first Limit rows and folds the remainder into a
// single aggregate row whose numeric columns are the sums of the folded
// rows. Folded subtables are discarded.
type Truncate struct {
	Limit       int
	OthersLabel string
}

func (f *Truncate) Name() string      { return "truncate" }
func (f *Truncate) Columns() []string { return nil }

func (f *Truncate) Apply(t *domain.Table) error {
	if f.Limit < 0 || len(t.Rows) <= f.Limit {
		return nil
	}
	label := f.OthersLabel
	if label == "" {
		label = DefaultOthersLabel
	}

	others := domain.NewRow()
	others.SetColumn(domain.LabelColumn, label)
	sums := make(map[string]float64)
	var order []string
	for _, r := range t.Rows[f.Limit:] {
		for col, v := range r.Columns {
			if col == domain.LabelColumn {
				continue
			}
			if n, ok := domain.NumericValue(v); ok {
				if _, seen := sums[col]; !seen {
					order = append(order, col)
				}
				sums[col] += n
			}
		}
	}
	sort.Strings(order)
	for _, col := range order {
		others.SetColumn(col, sums[col])
	}

	t.Rows = append(t.Rows[:f.Limit:f.Limit], others)
	return nil
}

// Search keeps rows whose column contains the pattern, case
// insensitively. The column defaults to the label.
type Search struct {
	Column  string
	Pattern string
}

func (f *Search) Name() string { return "search" }

func (f *Search) Columns() []string {
	return []string{f.column()}
}

func (f *Search) column() string {
	if f.Column == "" {
		return domain.LabelColumn
	}
	return f.Column
}

func (f *Search) Apply(t *domain.Table) error {
	pattern := strings.ToLower(f.Pattern)
	kept := t.Rows[:0]
	for _, r := range t.Rows {
		v, ok := r.Column(f.column())
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(toString(v)), pattern) {
			kept = append(kept, r)
		}
	}
	t.Rows = kept
	return nil
}

var (
	_ ports.Filter = (*SortByColumn)(nil)
	_ ports.Filter = (*LimitOffset)(nil)
	_ ports.Filter = (*Truncate)(nil)
	_ ports.Filter = (*Search)(nil)
)
