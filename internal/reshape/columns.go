package reshape

import (
	"github.com/tjfontaine/reportpipe/internal/core/domain"
)

// ColumnPrune removes columns by name. The hide list is applied first,
// then the show whitelist; supplying both is resolved by that fixed
// precedence rather than treated as an error. The label column is never
// pruned. Pruning descends into subtables.
type ColumnPrune struct {
	Hide []string
	Show []string
}

// Apply prunes every table of the node.
func (p *ColumnPrune) Apply(n domain.Node) error {
	if len(p.Hide) == 0 && len(p.Show) == 0 {
		return nil
	}
	return domain.Apply(n, domain.Operation{
		Name: "column-prune",
		Fn: func(t *domain.Table) error {
			return t.EachTable(p.pruneTable)
		},
	})
}

func (p *ColumnPrune) pruneTable(t *domain.Table) error {
	for _, name := range p.Hide {
		if name == domain.LabelColumn {
			continue
		}
		t.DeleteColumn(name)
	}
	if len(p.Show) > 0 {
		show := make(map[string]bool, len(p.Show))
		for _, name := range p.Show {
			show[name] = true
		}
		existing := make([]string, len(t.Columns))
		copy(existing, t.Columns)
		for _, name := range existing {
			if name == domain.LabelColumn || show[name] {
				continue
			}
			t.DeleteColumn(name)
		}
	}
	return nil
}
