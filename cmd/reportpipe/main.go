// Command reportpipe runs the post-processing pipeline for one report
// and writes the rendered result to stdout.
//
// Usage:
//
//	reportpipe -config config.yaml -report referrers key=value ...
//
// Request parameters are passed as key=value arguments; a repeated key
// (e.g. label=A label=B) collects into a list.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/tjfontaine/reportpipe/internal/config"
	"github.com/tjfontaine/reportpipe/internal/pipeline"
	"github.com/tjfontaine/reportpipe/internal/telemetry"
	"github.com/tjfontaine/reportpipe/pkg/reportpipe"

	// Register built-in metric capabilities.
	_ "github.com/tjfontaine/reportpipe/internal/metrics"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	report := flag.String("report", "", "report to process")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *report == "" {
		log.Fatal("missing required -report flag")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init("reportpipe", logger)
		if err != nil {
			log.Fatalf("Failed to initialize tracer: %v", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
			}
		}()
	}

	values, err := parseParams(flag.Args())
	if err != nil {
		log.Fatalf("Invalid request parameter: %v", err)
	}

	proc, err := reportpipe.New(
		reportpipe.WithLogger(logger),
		reportpipe.WithSQLiteSource(cfg.Source.Path),
		rendererOption(cfg.Output.Format),
		reportpipe.WithMetricConfigs(cfg.MetricConfigs()),
		reportpipe.WithDefaults(pipeline.Defaults{
			PivotColumnLimit: cfg.Defaults.PivotColumnLimit,
			LabelSeparator:   cfg.Defaults.LabelSeparator,
		}),
	)
	if err != nil {
		log.Fatalf("Failed to create processor: %v", err)
	}

	if err := proc.Run(context.Background(), *report, values, os.Stdout); err != nil {
		log.Fatalf("Processing failed: %v", err)
	}
}

// parseParams collects key=value arguments; repeated keys build lists.
func parseParams(args []string) (map[string]any, error) {
	values := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		switch existing := values[key].(type) {
		case nil:
			values[key] = value
		case string:
			values[key] = []string{existing, value}
		case []string:
			values[key] = append(existing, value)
		}
	}
	return values, nil
}

func rendererOption(format string) reportpipe.Option {
	if format == "csv" {
		return reportpipe.WithCSVRenderer()
	}
	return reportpipe.WithJSONRenderer()
}
