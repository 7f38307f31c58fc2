// Package reportpipe provides the public API for embedding the report
// post-processor. This is the stable API for external consumers.
package reportpipe

import (
	"github.com/tjfontaine/reportpipe/internal/runtime"
)

// Processor runs the post-processing pipeline for reports.
// See internal/runtime.Processor for full documentation.
type Processor = runtime.Processor

// Option is a functional option for configuring a Processor.
type Option = runtime.Option

// New creates a new Processor with the given options.
// Example:
//
//	proc, err := reportpipe.New(
//	    reportpipe.WithSQLiteSource("./data/reports.db"),
//	    reportpipe.WithJSONRenderer(),
//	)
var New = runtime.New

// Configuration options
var (
	// Sources
	WithSource       = runtime.WithSource
	WithSQLiteSource = runtime.WithSQLiteSource

	// Renderers
	WithRenderer     = runtime.WithRenderer
	WithJSONRenderer = runtime.WithJSONRenderer
	WithCSVRenderer  = runtime.WithCSVRenderer

	// Metrics
	WithMetricProvider = runtime.WithMetricProvider
	WithMetricConfigs  = runtime.WithMetricConfigs

	// Advanced options
	WithLogger   = runtime.WithLogger
	WithDefaults = runtime.WithDefaults
)
