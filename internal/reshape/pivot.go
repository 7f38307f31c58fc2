// Package reshape implements the structural reshaping stages: pivot,
// flatten, totals, column pruning, and label selection.
package reshape

import (
	"fmt"
	"sort"

	"github.com/tjfontaine/reportpipe/internal/core/domain"
	"github.com/tjfontaine/reportpipe/internal/metrics"
)

// Pivot rewrites a two-level tree into a matrix: one row per top-level
// label, one column per distinct subtable label, each cell holding the
// chosen metric's value. Columns beyond the limit are folded into an
// overflow bucket.
type Pivot struct {
	// Column is the metric column whose values fill the cells.
	Column string
	// ColumnLimit caps the distinct pivot columns; -1 means unlimited.
	ColumnLimit int
	// OthersLabel names the overflow column.
	OthersLabel string
	// Aggregate folds the overflow cells of one row. Defaults to sum.
	Aggregate func(values []float64) float64

	Engine *metrics.Engine
}

// Apply pivots every table of the node. Processed metrics are computed
// across the whole table first: pivoted cells are rendered from metric
// values, which must exist and still be raw.
func (p *Pivot) Apply(n domain.Node) error {
	if p.Column == "" {
		return fmt.Errorf("pivot requires a metric column")
	}
	if err := p.Engine.Compute(n); err != nil {
		return err
	}
	return domain.Apply(n, domain.Operation{Name: "pivot", Fn: p.pivotTable})
}

func (p *Pivot) pivotTable(t *domain.Table) error {
	type cellRow struct {
		label string
		cells map[string]float64
	}

	var pivoted []cellRow
	colTotals := make(map[string]float64)
	var colOrder []string
	for _, r := range t.Rows {
		pr := cellRow{label: r.Label(), cells: make(map[string]float64)}
		if r.Subtable != nil {
			for _, sr := range r.Subtable.Rows {
				col := sr.Label()
				if col == "" {
					continue
				}
				v, _ := domain.NumericValue(sr.Columns[p.Column])
				if _, seen := colTotals[col]; !seen {
					colOrder = append(colOrder, col)
				}
				pr.cells[col] = v
				colTotals[col] += v
			}
		}
		pivoted = append(pivoted, pr)
	}

	keep, overflow := p.splitColumns(colOrder, colTotals)

	aggregate := p.Aggregate
	if aggregate == nil {
		aggregate = sum
	}
	othersLabel := p.OthersLabel
	if othersLabel == "" {
		othersLabel = "Others"
	}

	rows := make([]*domain.Row, 0, len(pivoted))
	for _, pr := range pivoted {
		out := domain.NewRow()
		out.SetColumn(domain.LabelColumn, pr.label)
		for _, col := range keep {
			if v, ok := pr.cells[col]; ok {
				out.SetColumn(col, v)
			}
		}
		if len(overflow) > 0 {
			var folded []float64
			for _, col := range overflow {
				if v, ok := pr.cells[col]; ok {
					folded = append(folded, v)
				}
			}
			out.SetColumn(othersLabel, aggregate(folded))
		}
		rows = append(rows, out)
	}

	t.Rows = rows
	t.Columns = append([]string{domain.LabelColumn}, keep...)
	if len(overflow) > 0 {
		t.Columns = append(t.Columns, othersLabel)
	}
	return nil
}

// splitColumns keeps the highest-total columns within the limit, in
// their original order, and returns the rest as overflow.
func (p *Pivot) splitColumns(order []string, totals map[string]float64) (keep, overflow []string) {
	if p.ColumnLimit < 0 || len(order) <= p.ColumnLimit {
		return order, nil
	}
	ranked := make([]string, len(order))
	copy(ranked, order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return totals[ranked[i]] > totals[ranked[j]]
	})
	kept := make(map[string]bool, p.ColumnLimit)
	for _, col := range ranked[:p.ColumnLimit] {
		kept[col] = true
	}
	for _, col := range order {
		if kept[col] {
			keep = append(keep, col)
		} else {
			overflow = append(overflow, col)
		}
	}
	return keep, overflow
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
