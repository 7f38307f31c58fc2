package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tjfontaine/reportpipe/internal/core/domain"
)

func openSource(t *testing.T) *Source {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "reports.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTable() *domain.Table {
	tbl := domain.NewTable()
	a := domain.NewRow()
	a.SetColumn(domain.LabelColumn, "A")
	a.SetColumn("visits", 10.0)
	sub := domain.NewTable()
	b := domain.NewRow()
	b.SetColumn(domain.LabelColumn, "B")
	b.SetColumn("visits", 5.0)
	sub.AddRow(b)
	a.Subtable = sub
	tbl.AddRow(a)

	c := domain.NewRow()
	c.SetColumn(domain.LabelColumn, "C")
	c.SetColumn("visits", 3.0)
	tbl.AddRow(c)
	return tbl
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openSource(t)
	ctx := context.Background()

	if err := s.SaveTable(ctx, "referrers", "", sampleTable()); err != nil {
		t.Fatalf("SaveTable: %v", err)
	}
	n, err := s.Load(ctx, "referrers")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tbl, ok := n.(*domain.Table)
	if !ok {
		t.Fatalf("expected a table, got %T", n)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}
	if tbl.Rows[0].Label() != "A" || tbl.Rows[1].Label() != "C" {
		t.Errorf("row order must survive, got %q %q",
			tbl.Rows[0].Label(), tbl.Rows[1].Label())
	}
	if v, _ := tbl.Rows[0].Column("visits"); v != 10.0 {
		t.Errorf("expected visits 10, got %v", v)
	}
	sub := tbl.Rows[0].Subtable
	if sub == nil || len(sub.Rows) != 1 || sub.Rows[0].Label() != "B" {
		t.Fatalf("subtable not restored: %+v", sub)
	}
}

func TestSaveReplacesPreviousRows(t *testing.T) {
	s := openSource(t)
	ctx := context.Background()

	if err := s.SaveTable(ctx, "referrers", "", sampleTable()); err != nil {
		t.Fatalf("first save: %v", err)
	}
	replacement := domain.NewTable()
	r := domain.NewRow()
	r.SetColumn(domain.LabelColumn, "only")
	replacement.AddRow(r)
	if err := s.SaveTable(ctx, "referrers", "", replacement); err != nil {
		t.Fatalf("second save: %v", err)
	}

	n, err := s.Load(ctx, "referrers")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tbl := n.(*domain.Table)
	if len(tbl.Rows) != 1 || tbl.Rows[0].Label() != "only" {
		t.Errorf("save must replace previous rows, got %d rows", len(tbl.Rows))
	}
}

func TestLoadSegmentsAsCollection(t *testing.T) {
	s := openSource(t)
	ctx := context.Background()

	for _, seg := range []string{"2026-02", "2026-01"} {
		if err := s.SaveTable(ctx, "referrers", seg, sampleTable()); err != nil {
			t.Fatalf("SaveTable %s: %v", seg, err)
		}
	}
	n, err := s.Load(ctx, "referrers")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	coll, ok := n.(*domain.Collection)
	if !ok {
		t.Fatalf("expected a collection, got %T", n)
	}
	labels := coll.Labels()
	if len(labels) != 2 || labels[0] != "2026-01" || labels[1] != "2026-02" {
		t.Errorf("segments must be ordered by label, got %v", labels)
	}
	entry, _ := coll.Get("2026-01")
	if tbl := entry.(*domain.Table); len(tbl.Rows) != 2 {
		t.Errorf("segment table not restored, got %d rows", len(tbl.Rows))
	}
}

func TestLoadUnknownReport(t *testing.T) {
	s := openSource(t)
	n, err := s.Load(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tbl, ok := n.(*domain.Table)
	if !ok || len(tbl.Rows) != 0 {
		t.Errorf("unknown report must load as an empty table, got %T", n)
	}
}

func TestReportsAreIsolated(t *testing.T) {
	s := openSource(t)
	ctx := context.Background()

	if err := s.SaveTable(ctx, "referrers", "", sampleTable()); err != nil {
		t.Fatalf("SaveTable: %v", err)
	}
	n, err := s.Load(ctx, "pages")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl := n.(*domain.Table); len(tbl.Rows) != 0 {
		t.Errorf("reports must not leak into each other, got %d rows", len(tbl.Rows))
	}
}
