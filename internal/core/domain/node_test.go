package domain

import (
	"errors"
	"testing"
)

func labelledTable(label string) *Table {
	tbl := NewTable()
	r := NewRow()
	r.SetColumn(LabelColumn, label)
	tbl.AddRow(r)
	return tbl
}

func TestApplyTable(t *testing.T) {
	tbl := NewTable()
	calls := 0
	op := Operation{Name: "count", Fn: func(got *Table) error {
		calls++
		if got != tbl {
			t.Error("operation must receive the table itself")
		}
		return nil
	}}
	if err := Apply(tbl, op); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected exactly one call, got %d", calls)
	}
}

func TestApplyCollectionPropagates(t *testing.T) {
	coll := NewCollection()
	coll.Set("2026-01", labelledTable("a"))
	coll.Set("2026-02", labelledTable("b"))

	var seen []string
	op := Operation{Name: "collect", Fn: func(tbl *Table) error {
		seen = append(seen, tbl.Rows[0].Label())
		return nil
	}}
	if err := Apply(coll, op); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Errorf("expected entry order [a b], got %v", seen)
	}
}

func TestApplyNestedCollection(t *testing.T) {
	inner := NewCollection()
	inner.Set("x", labelledTable("leaf"))
	outer := NewCollection()
	outer.Set("2026", inner)

	calls := 0
	op := Operation{Name: "count", Fn: func(*Table) error {
		calls++
		return nil
	}}
	if err := Apply(outer, op); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected one table visit, got %d", calls)
	}
}

func TestReplayFIFO(t *testing.T) {
	tbl := NewTable()
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		Enqueue(tbl, Operation{Name: name, Fn: func(*Table) error {
			order = append(order, name)
			return nil
		}})
	}
	if QueueLen(tbl) != 3 {
		t.Fatalf("expected 3 queued operations, got %d", QueueLen(tbl))
	}
	if err := Replay(tbl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if QueueLen(tbl) != 0 {
		t.Error("replay must clear the queue")
	}
	want := []string{"first", "second", "third"}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

func TestReplayRunsOperationsEnqueuedDuringReplay(t *testing.T) {
	tbl := NewTable()
	var order []string
	Enqueue(tbl, Operation{Name: "outer", Fn: func(inner *Table) error {
		order = append(order, "outer")
		Enqueue(inner, Operation{Name: "nested", Fn: func(*Table) error {
			order = append(order, "nested")
			return nil
		}})
		return nil
	}})
	if err := Replay(tbl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 || order[1] != "nested" {
		t.Errorf("expected nested operation to run in the same drain, got %v", order)
	}
}

func TestReplayAbortsOnError(t *testing.T) {
	tbl := NewTable()
	boom := errors.New("boom")
	ran := false
	Enqueue(tbl, Operation{Name: "fail", Fn: func(*Table) error { return boom }})
	Enqueue(tbl, Operation{Name: "after", Fn: func(*Table) error {
		ran = true
		return nil
	}})
	if err := Replay(tbl); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if ran {
		t.Error("operations after a failure must not run")
	}
}

func TestReplayCollection(t *testing.T) {
	coll := NewCollection()
	a := labelledTable("a")
	b := labelledTable("b")
	coll.Set("2026-01", a)
	coll.Set("2026-02", b)

	var seen []string
	Enqueue(coll, Operation{Name: "mark", Fn: func(tbl *Table) error {
		seen = append(seen, tbl.Rows[0].Label())
		return nil
	}})
	// One entry carries its own queued operation too.
	Enqueue(a, Operation{Name: "own", Fn: func(*Table) error {
		seen = append(seen, "a-own")
		return nil
	}})

	if err := Replay(coll); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a", "b", "a-own"}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, seen)
		}
	}
}
