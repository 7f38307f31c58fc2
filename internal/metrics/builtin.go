package metrics

import (
	"fmt"
	"strconv"

	"github.com/tjfontaine/reportpipe/internal/core/domain"
	"github.com/tjfontaine/reportpipe/internal/core/ports"
	"github.com/tjfontaine/reportpipe/internal/metrics/registry"
)

func init() {
	registry.Register(registry.Factory{
		Type:        "quotient",
		Description: "ratio of two raw columns, optionally rendered as a percentage",
		Create:      newQuotientFromConfig,
	})
}

// Quotient derives a column as the ratio of two existing raw columns,
// e.g. bounce rate = bounces / visits rendered as "40%".
type Quotient struct {
	ColumnName  string
	Numerator   string
	Denominator string
	AsPercent   bool
	Precision   int
}

// Name returns the derived column name.
func (q *Quotient) Name() string { return q.ColumnName }

// BeforeCompute accepts every table.
func (q *Quotient) BeforeCompute(t *domain.Table) bool { return true }

// Compute divides the numerator column by the denominator column. A
// missing or zero denominator yields 0 rather than an error: absent
// traffic is an empty rate, not a failure.
func (q *Quotient) Compute(r *domain.Row) (float64, error) {
	num, _ := domain.NumericValue(r.Columns[q.Numerator])
	den, ok := domain.NumericValue(r.Columns[q.Denominator])
	if !ok || den == 0 {
		return 0, nil
	}
	return num / den, nil
}

// Format renders the raw ratio for display.
func (q *Quotient) Format(v float64) (string, error) {
	if q.AsPercent {
		return strconv.FormatFloat(v*100, 'f', q.Precision, 64) + "%", nil
	}
	return strconv.FormatFloat(v, 'f', q.Precision, 64), nil
}

var _ ports.Metric = (*Quotient)(nil)

func newQuotientFromConfig(cfg registry.Config) (ports.Metric, error) {
	if cfg.Column == "" {
		return nil, fmt.Errorf("quotient metric requires a column name")
	}
	q := &Quotient{ColumnName: cfg.Column}
	if v, ok := cfg.Options["numerator"].(string); ok {
		q.Numerator = v
	}
	if v, ok := cfg.Options["denominator"].(string); ok {
		q.Denominator = v
	}
	if q.Numerator == "" || q.Denominator == "" {
		return nil, fmt.Errorf("quotient metric %q requires numerator and denominator options", cfg.Column)
	}
	if v, ok := cfg.Options["as_percent"].(bool); ok {
		q.AsPercent = v
	}
	switch v := cfg.Options["precision"].(type) {
	case int:
		q.Precision = v
	case float64:
		q.Precision = int(v)
	}
	return q, nil
}
