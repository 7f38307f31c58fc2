// Package pipeline orchestrates the report post-processing stages.
//
// Given the raw tree produced by the query engine and the request's
// parameters, the pipeline applies a fixed, order-dependent sequence of
// reshaping and metric-computation stages and returns the tree a
// renderer serializes. Each stage is independently toggleable by its
// request parameter; the order itself is never configurable:
//
//	pivot → flatten → totals → generic filters → enqueue label
//	unescaping → replay queued operations → column pruning → label
//	selection → metric formatting (immediate or enqueued)
//
// The ordering is load-bearing: reshaping must precede metric
// computation for the derived values to be meaningful, and computation
// must precede any ranking that reads derived columns. A stage failure
// aborts the remaining stages and surfaces as a single typed
// *domain.PipelineError; no partial table is ever returned.
package pipeline
