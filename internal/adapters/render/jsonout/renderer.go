// Package jsonout renders a processed tree as JSON.
package jsonout

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tjfontaine/reportpipe/internal/core/domain"
	"github.com/tjfontaine/reportpipe/internal/core/ports"
)

// Renderer writes a tree as an indented JSON document. Any operations
// still queued on the tree (e.g. deferred metric formatting) are
// replayed first.
type Renderer struct {
	// Indent is the indentation string; empty emits compact JSON.
	Indent string
}

// New returns a renderer with two-space indentation.
func New() *Renderer {
	return &Renderer{Indent: "  "}
}

// Render serializes the node.
func (r *Renderer) Render(w io.Writer, n domain.Node) error {
	if err := domain.Replay(n); err != nil {
		return fmt.Errorf("replay queued operations: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", r.Indent)
	return enc.Encode(encodeNode(n))
}

func encodeNode(n domain.Node) any {
	switch v := n.(type) {
	case *domain.Table:
		return encodeTable(v)
	case *domain.Collection:
		entries := make([]map[string]any, 0, v.Len())
		for _, label := range v.Labels() {
			entry, _ := v.Get(label)
			entries = append(entries, map[string]any{
				"label": label,
				"table": encodeNode(entry),
			})
		}
		return entries
	default:
		return nil
	}
}

func encodeTable(t *domain.Table) map[string]any {
	doc := map[string]any{
		"rows": encodeRows(t.Rows),
	}
	if len(t.Columns) > 0 {
		doc["columns"] = t.Columns
	}
	if totals, ok := t.Metadata[domain.MetadataTotals].(map[string]float64); ok {
		doc["totals"] = totals
	}
	return doc
}

func encodeRows(rows []*domain.Row) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		doc := make(map[string]any, len(r.Columns)+2)
		for k, v := range r.Columns {
			doc[k] = v
		}
		if idx, ok := r.Metadata[domain.RowMetadataLabelIndex]; ok {
			doc["labelIndex"] = idx
		}
		if r.Subtable != nil {
			doc["subtable"] = encodeRows(r.Subtable.Rows)
		}
		out = append(out, doc)
	}
	return out
}

var _ ports.Renderer = (*Renderer)(nil)
