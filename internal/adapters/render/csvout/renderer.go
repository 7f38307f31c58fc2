// Package csvout renders a processed tree as CSV.
package csvout

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/tjfontaine/reportpipe/internal/core/domain"
	"github.com/tjfontaine/reportpipe/internal/core/ports"
)

// Renderer writes the top-level rows of a tree as CSV in table column
// order. Collections emit a leading "segment" column; subtables are not
// descended (flatten the tree first for a full export). Queued
// operations are replayed before writing.
type Renderer struct{}

// New returns a CSV renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render serializes the node.
func (r *Renderer) Render(w io.Writer, n domain.Node) error {
	if err := domain.Replay(n); err != nil {
		return fmt.Errorf("replay queued operations: %w", err)
	}
	cw := csv.NewWriter(w)
	defer cw.Flush()

	switch v := n.(type) {
	case *domain.Table:
		if err := writeHeader(cw, nil, v.Columns); err != nil {
			return err
		}
		return writeRows(cw, "", false, v)
	case *domain.Collection:
		columns := collectionColumns(v)
		if err := writeHeader(cw, []string{"segment"}, columns); err != nil {
			return err
		}
		for _, label := range v.Labels() {
			entry, _ := v.Get(label)
			t, ok := entry.(*domain.Table)
			if !ok {
				return fmt.Errorf("nested collections are not exportable as CSV")
			}
			// Cells follow the shared header, not each table's own order.
			shaped := &domain.Table{Rows: t.Rows, Columns: columns, Metadata: t.Metadata}
			if err := writeRows(cw, label, true, shaped); err != nil {
				return err
			}
		}
		return cw.Error()
	default:
		return nil
	}
}

func collectionColumns(c *domain.Collection) []string {
	var columns []string
	seen := make(map[string]bool)
	for _, label := range c.Labels() {
		entry, _ := c.Get(label)
		if t, ok := entry.(*domain.Table); ok {
			for _, col := range t.Columns {
				if !seen[col] {
					seen[col] = true
					columns = append(columns, col)
				}
			}
		}
	}
	return columns
}

func writeHeader(cw *csv.Writer, prefix, columns []string) error {
	return cw.Write(append(prefix, columns...))
}

func writeRows(cw *csv.Writer, segment string, withSegment bool, t *domain.Table) error {
	for _, row := range t.Rows {
		record := make([]string, 0, len(t.Columns)+1)
		if withSegment {
			record = append(record, segment)
		}
		for _, col := range t.Columns {
			record = append(record, cell(row.Columns[col]))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func cell(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case bool:
		return strconv.FormatBool(n)
	default:
		return fmt.Sprintf("%v", n)
	}
}

var _ ports.Renderer = (*Renderer)(nil)
