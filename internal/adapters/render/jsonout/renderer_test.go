package jsonout

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/tjfontaine/reportpipe/internal/core/domain"
)

func sampleTable() *domain.Table {
	t := domain.NewTable()
	a := domain.NewRow()
	a.SetColumn(domain.LabelColumn, "A")
	a.SetColumn("visits", 10.0)
	sub := domain.NewTable()
	b := domain.NewRow()
	b.SetColumn(domain.LabelColumn, "B")
	b.SetColumn("visits", 5.0)
	sub.AddRow(b)
	a.Subtable = sub
	t.AddRow(a)
	return t
}

func render(t *testing.T, n domain.Node) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	if err := New().Render(&buf, n); err != nil {
		t.Fatalf("Render: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	return doc
}

func TestRenderTable(t *testing.T) {
	doc := render(t, sampleTable())

	rows := doc["rows"].([]any)
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	row := rows[0].(map[string]any)
	if row["label"] != "A" || row["visits"] != 10.0 {
		t.Errorf("row columns missing: %v", row)
	}
	sub := row["subtable"].([]any)
	if len(sub) != 1 || sub[0].(map[string]any)["label"] != "B" {
		t.Errorf("subtable missing: %v", row["subtable"])
	}
	columns := doc["columns"].([]any)
	if columns[0] != "label" {
		t.Errorf("column order must start with label, got %v", columns)
	}
}

func TestRenderTotals(t *testing.T) {
	tbl := sampleTable()
	tbl.SetMetadata(domain.MetadataTotals, map[string]float64{"visits": 10.0})
	doc := render(t, tbl)
	totals := doc["totals"].(map[string]any)
	if totals["visits"] != 10.0 {
		t.Errorf("expected totals in output, got %v", doc["totals"])
	}
}

func TestRenderLabelIndex(t *testing.T) {
	tbl := sampleTable()
	tbl.Rows[0].SetMetadata(domain.RowMetadataLabelIndex, 1)
	doc := render(t, tbl)
	row := doc["rows"].([]any)[0].(map[string]any)
	if row["labelIndex"] != 1.0 {
		t.Errorf("expected labelIndex 1, got %v", row["labelIndex"])
	}
}

func TestRenderReplaysQueuedOperations(t *testing.T) {
	tbl := sampleTable()
	domain.Enqueue(tbl, domain.Operation{
		Name: "mark",
		Fn: func(t *domain.Table) error {
			t.Rows[0].SetColumn("marked", true)
			return nil
		},
	})

	doc := render(t, tbl)
	row := doc["rows"].([]any)[0].(map[string]any)
	if row["marked"] != true {
		t.Error("queued operations must run before serialization")
	}
	if domain.QueueLen(tbl) != 0 {
		t.Error("queue must be drained")
	}
}

func TestRenderCollection(t *testing.T) {
	coll := domain.NewCollection()
	coll.Set("2026-01", sampleTable())
	coll.Set("2026-02", sampleTable())

	var buf bytes.Buffer
	if err := New().Render(&buf, coll); err != nil {
		t.Fatalf("Render: %v", err)
	}
	var entries []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entries); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected two entries, got %d", len(entries))
	}
	if entries[0]["label"] != "2026-01" || entries[1]["label"] != "2026-02" {
		t.Errorf("entry order must follow collection order: %v %v",
			entries[0]["label"], entries[1]["label"])
	}
}

func TestRenderCompact(t *testing.T) {
	var buf bytes.Buffer
	r := &Renderer{}
	if err := r.Render(&buf, sampleTable()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Count(strings.TrimSpace(buf.String()), "\n") != 0 {
		t.Error("empty indent must emit a single line")
	}
}
