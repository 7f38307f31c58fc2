package reshape

import (
	"html"
	"strings"

	"github.com/tjfontaine/reportpipe/internal/core/domain"
)

// LabelSelector extracts the rows identified by hierarchical label
// paths. Each requested value is unescaped from the markup-safety
// encoding applied upstream, then split on the separator into a walk
// down the tree: exact label equality at each level, descending through
// the matched row's subtable. Paths with no match are omitted silently.
type LabelSelector struct {
	Labels []string
	// AddIndex attaches each matched row's 1-based request position as
	// row metadata so callers can correlate results to their query.
	AddIndex  bool
	Separator string
}

// Apply replaces every table of the node with its selected rows, in
// request order.
func (s *LabelSelector) Apply(n domain.Node) error {
	return domain.Apply(n, domain.Operation{Name: "label-select", Fn: s.selectRows})
}

func (s *LabelSelector) selectRows(t *domain.Table) error {
	sep := s.Separator
	if sep == "" {
		sep = DefaultLabelSeparator
	}

	var matched []*domain.Row
	for i, raw := range s.Labels {
		path := parseLabelPath(raw, sep)
		if len(path) == 0 {
			continue
		}
		row := walkLabelPath(t, path)
		if row == nil {
			continue
		}
		if s.AddIndex {
			row.SetMetadata(domain.RowMetadataLabelIndex, i+1)
		}
		matched = append(matched, row)
	}
	t.Rows = matched
	return nil
}

func parseLabelPath(raw, sep string) []string {
	unescaped := UnescapeLabel(raw)
	var path []string
	for _, seg := range strings.Split(unescaped, sep) {
		if seg = strings.TrimSpace(seg); seg != "" {
			path = append(path, seg)
		}
	}
	return path
}

func walkLabelPath(t *domain.Table, path []string) *domain.Row {
	cur := t
	for i, seg := range path {
		var found *domain.Row
		for _, r := range cur.Rows {
			if r.Label() == seg {
				found = r
				break
			}
		}
		if found == nil {
			return nil
		}
		if i == len(path)-1 {
			return found
		}
		if found.Subtable == nil {
			return nil
		}
		cur = found.Subtable
	}
	return nil
}

// UnescapeLabel reverses the HTML entity encoding applied to labels for
// markup safety upstream.
func UnescapeLabel(label string) string {
	return html.UnescapeString(label)
}

// UnescapeLabelsOp returns the queued operation that unescapes every
// row label in a tree. The pipeline enqueues it so the decoding runs
// just before the response is serialized, after any raw-value
// consumers.
func UnescapeLabelsOp() domain.Operation {
	return domain.Operation{
		Name: "unescape-labels",
		Fn: func(t *domain.Table) error {
			return t.EachRow(func(r *domain.Row) error {
				if v, ok := r.Column(domain.LabelColumn); ok {
					if s, ok := v.(string); ok {
						r.SetColumn(domain.LabelColumn, UnescapeLabel(s))
					}
				}
				return nil
			})
		},
	}
}
