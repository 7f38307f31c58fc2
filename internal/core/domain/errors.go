package domain

import (
	"errors"
	"fmt"
)

// ErrTreeTooDeep is returned when traversal exceeds MaxTreeDepth. It
// indicates a malformed (or cyclic) tree from the upstream producer.
var ErrTreeTooDeep = errors.New("tree exceeds maximum nesting depth")

// ErrorKind categorizes a pipeline failure.
type ErrorKind string

const (
	// KindConfig indicates an unresolvable parameter combination.
	KindConfig ErrorKind = "config"
	// KindMetric indicates a metric capability's compute or format hook
	// failed. A partially derived table is unsafe to serve, so these
	// abort the whole request.
	KindMetric ErrorKind = "metric"
	// KindTraversal indicates a malformed input tree (excessive depth or
	// a cycle presenting as one).
	KindTraversal ErrorKind = "traversal"
)

// PipelineError is the single typed failure result a pipeline invocation
// can produce. No partial table is ever returned alongside one.
type PipelineError struct {
	Stage string
	Kind  ErrorKind
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %s error: %v", e.Stage, e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// MetricError wraps a failure from a metric capability hook, recording
// which metric raised it.
type MetricError struct {
	Metric string
	Err    error
}

func (e *MetricError) Error() string {
	return fmt.Sprintf("metric %s: %v", e.Metric, e.Err)
}

func (e *MetricError) Unwrap() error {
	return e.Err
}

// ClassifyError maps an error to its pipeline error kind.
func ClassifyError(err error) ErrorKind {
	var me *MetricError
	switch {
	case errors.As(err, &me):
		return KindMetric
	case errors.Is(err, ErrTreeTooDeep):
		return KindTraversal
	default:
		return KindConfig
	}
}
