package reshape

import (
	"testing"

	"github.com/tjfontaine/reportpipe/internal/core/domain"
	"github.com/tjfontaine/reportpipe/internal/core/ports"
	"github.com/tjfontaine/reportpipe/internal/metrics"
)

func row(cols map[string]any) *domain.Row {
	r := domain.NewRow()
	for k, v := range cols {
		r.SetColumn(k, v)
	}
	return r
}

func table(rows ...*domain.Row) *domain.Table {
	t := domain.NewTable()
	for _, r := range rows {
		t.AddRow(r)
	}
	return t
}

// keywordsByEngine builds a two-level tree: search engines at the top,
// keywords per engine below.
func keywordsByEngine() *domain.Table {
	google := row(map[string]any{"label": "Google", "visits": 30.0})
	google.Subtable = table(
		row(map[string]any{"label": "go", "visits": 20.0}),
		row(map[string]any{"label": "pipelines", "visits": 10.0}),
	)
	bing := row(map[string]any{"label": "Bing", "visits": 5.0})
	bing.Subtable = table(
		row(map[string]any{"label": "go", "visits": 2.0}),
		row(map[string]any{"label": "tables", "visits": 3.0}),
	)
	return table(google, bing)
}

func TestPivotBasic(t *testing.T) {
	tbl := keywordsByEngine()
	p := &Pivot{Column: "visits", ColumnLimit: -1, Engine: metrics.NewEngine(nil, nil)}
	if err := p.Apply(tbl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 pivoted rows, got %d", len(tbl.Rows))
	}
	google := tbl.Rows[0]
	if google.Label() != "Google" {
		t.Fatalf("row order must be preserved, got %q", google.Label())
	}
	if v, _ := google.Column("go"); v != 20.0 {
		t.Errorf("expected cell go=20, got %v", v)
	}
	if v, _ := google.Column("pipelines"); v != 10.0 {
		t.Errorf("expected cell pipelines=10, got %v", v)
	}
	bing := tbl.Rows[1]
	if v, _ := bing.Column("tables"); v != 3.0 {
		t.Errorf("expected cell tables=3, got %v", v)
	}
	if bing.HasColumn("pipelines") {
		t.Error("cells absent from a row's subtable must stay absent")
	}

	want := []string{"label", "go", "pipelines", "tables"}
	if len(tbl.Columns) != len(want) {
		t.Fatalf("expected columns %v, got %v", want, tbl.Columns)
	}
	for i := range want {
		if tbl.Columns[i] != want[i] {
			t.Fatalf("expected columns %v, got %v", want, tbl.Columns)
		}
	}
}

func TestPivotColumnLimitFoldsOverflow(t *testing.T) {
	tbl := keywordsByEngine()
	p := &Pivot{Column: "visits", ColumnLimit: 1, Engine: metrics.NewEngine(nil, nil)}
	if err := p.Apply(tbl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// "go" has the highest total (22); the rest folds into Others.
	google := tbl.Rows[0]
	if v, _ := google.Column("go"); v != 20.0 {
		t.Errorf("top column must be kept, got %v", v)
	}
	if v, _ := google.Column("Others"); v != 10.0 {
		t.Errorf("expected Google overflow 10, got %v", v)
	}
	bing := tbl.Rows[1]
	if v, _ := bing.Column("Others"); v != 3.0 {
		t.Errorf("expected Bing overflow 3, got %v", v)
	}
}

func TestPivotCustomAggregate(t *testing.T) {
	tbl := keywordsByEngine()
	max := func(values []float64) float64 {
		var m float64
		for _, v := range values {
			if v > m {
				m = v
			}
		}
		return m
	}
	p := &Pivot{Column: "visits", ColumnLimit: 0, Aggregate: max, Engine: metrics.NewEngine(nil, nil)}
	if err := p.Apply(tbl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := tbl.Rows[0].Column("Others"); v != 20.0 {
		t.Errorf("expected max aggregation 20, got %v", v)
	}
}

func TestPivotRequiresColumn(t *testing.T) {
	p := &Pivot{Engine: metrics.NewEngine(nil, nil)}
	if err := p.Apply(domain.NewTable()); err == nil {
		t.Error("expected error for missing pivot column")
	}
}

func TestPivotComputesProcessedMetricsFirst(t *testing.T) {
	google := row(map[string]any{"label": "Google"})
	google.Subtable = table(
		row(map[string]any{"label": "go", "bounces": 4.0, "visits": 10.0}),
	)
	tbl := table(google)

	engine := metrics.NewEngine([]ports.Metric{&metrics.Quotient{
		ColumnName:  "bounceRate",
		Numerator:   "bounces",
		Denominator: "visits",
	}}, nil)
	p := &Pivot{Column: "bounceRate", ColumnLimit: -1, Engine: engine}
	if err := p.Apply(tbl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := tbl.Rows[0].Column("go"); v != 0.4 {
		t.Errorf("pivot cells must carry the computed metric, got %v", v)
	}
}
