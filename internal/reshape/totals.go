package reshape

import (
	"github.com/tjfontaine/reportpipe/internal/core/domain"
)

// Totals sums each numeric column across a table's direct rows and
// attaches the result as metadata, never as a visible row. Renderers opt
// in to displaying it. Subtables keep their own totals out of scope.
type Totals struct{}

// Apply computes totals for every top-level table of the node.
func (Totals) Apply(n domain.Node) error {
	return domain.Apply(n, domain.Operation{
		Name: "totals",
		Fn: func(t *domain.Table) error {
			sums := make(map[string]float64)
			for _, r := range t.Rows {
				for col, v := range r.Columns {
					if col == domain.LabelColumn {
						continue
					}
					if num, ok := domain.NumericValue(v); ok {
						sums[col] += num
					}
				}
			}
			if len(sums) > 0 {
				t.SetMetadata(domain.MetadataTotals, sums)
			}
			return nil
		},
	})
}
