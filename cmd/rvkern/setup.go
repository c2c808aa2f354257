package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/oisee/rv32-kernels/pkg/config"
	"github.com/oisee/rv32-kernels/pkg/telemetry"
)

// app carries state shared by all subcommands once the root pre-run has
// loaded the configuration.
type app struct {
	configPath  string
	logLevel    string
	logFormat   string
	trace       string
	metricsFile string

	cfg      *config.Config
	logger   *slog.Logger
	metrics  *telemetry.Metrics
	shutdown telemetry.ShutdownFunc
}

// setup loads the config file, applies global flag overrides and builds the
// logger, metrics and tracer provider.
func (a *app) setup(cmd *cobra.Command, stderr io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}
	if flags.Changed("trace") {
		cfg.Telemetry.Trace = a.trace
	}
	if flags.Changed("metrics-file") {
		cfg.Telemetry.MetricsFile = a.metricsFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	opts := &slog.HandlerOptions{Level: cfg.Level()}
	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(stderr, opts)
	} else {
		h = slog.NewTextHandler(stderr, opts)
	}
	a.logger = slog.New(h)
	slog.SetDefault(a.logger)

	a.metrics = telemetry.NewMetrics()

	shutdown, err := telemetry.SetupTracing(cfg.Telemetry.Trace, stderr)
	if err != nil {
		return err
	}
	a.shutdown = shutdown
	return nil
}

// finish flushes spans and writes the metrics textfile.
func (a *app) finish(ctx context.Context) error {
	var firstErr error
	if a.shutdown != nil {
		if err := a.shutdown(ctx); err != nil {
			firstErr = fmt.Errorf("shutdown tracing: %w", err)
		}
	}
	if a.cfg != nil && a.metrics != nil && a.cfg.Telemetry.MetricsFile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.Telemetry.MetricsFile); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
