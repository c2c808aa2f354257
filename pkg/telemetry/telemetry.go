// Package telemetry wires OpenTelemetry tracing and Prometheus metrics for
// the harness and the sweep.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName is the tracer name used by every package.
const InstrumentationName = "github.com/oisee/rv32-kernels"

// ErrUnknownExporter is returned for an unsupported trace exporter name.
var ErrUnknownExporter = errors.New("unknown trace exporter")

// ShutdownFunc flushes and stops a provider.
type ShutdownFunc func(context.Context) error

// SetupTracing installs a global tracer provider. "none" (or empty) keeps
// the no-op provider; "stdout" pretty-prints spans to w.
func SetupTracing(exporter string, w io.Writer) (ShutdownFunc, error) {
	switch exporter {
	case "", "none":
		return func(context.Context) error { return nil }, nil
	case "stdout":
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		)
		otel.SetTracerProvider(tp)
		return tp.Shutdown, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, exporter)
	}
}

// Tracer returns the package tracer from tp, or from the global provider
// when tp is nil.
func Tracer(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(InstrumentationName)
}

// Metrics holds the Prometheus instruments on a private registry.
type Metrics struct {
	Registry          *prometheus.Registry
	SuiteRuns         *prometheus.CounterVec
	SuiteCycles       *prometheus.HistogramVec
	SuiteInstructions *prometheus.HistogramVec
	SweepInputs       prometheus.Counter
	SweepFindings     *prometheus.CounterVec
}

// NewMetrics registers all instruments on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		SuiteRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rvkern_suite_runs_total",
			Help: "Harness suite runs by outcome.",
		}, []string{"suite", "status"}),
		SuiteCycles: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rvkern_suite_cycles",
			Help:    "Cycle counter delta per suite run.",
			Buckets: prometheus.ExponentialBuckets(64, 4, 12),
		}, []string{"suite", "source"}),
		SuiteInstructions: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rvkern_suite_instructions",
			Help:    "Retired instruction delta per suite run.",
			Buckets: prometheus.ExponentialBuckets(64, 4, 12),
		}, []string{"suite", "source"}),
		SweepInputs: f.NewCounter(prometheus.CounterOpts{
			Name: "rvkern_sweep_inputs_total",
			Help: "Inputs checked by the exhaustive sweep.",
		}),
		SweepFindings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rvkern_sweep_findings_total",
			Help: "Property violations found by the sweep.",
		}, []string{"property"}),
	}
}

// WriteTextfile dumps all metrics in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
