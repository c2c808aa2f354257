// Package harness runs the kernel test suites under the cycle and
// instruction counters and reports the results.
package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/oisee/rv32-kernels/pkg/hanoi"
	"github.com/oisee/rv32-kernels/pkg/perf"
	"github.com/oisee/rv32-kernels/pkg/telemetry"
)

// ErrUnknownSuite is returned when Run is asked for a suite that is not registered.
var ErrUnknownSuite = errors.New("unknown suite")

// SuiteResult is the outcome of one suite run.
type SuiteResult struct {
	Name   string
	Title  string
	Passed bool
	Cases  []CaseResult
	Sample perf.Sample
}

// Report collects suite results in run order.
type Report struct {
	Suites []SuiteResult
}

// Passed reports whether every suite passed.
func (r *Report) Passed() bool {
	for _, s := range r.Suites {
		if !s.Passed {
			return false
		}
	}
	return true
}

// Option customizes a Runner.
type Option func(*Runner)

// WithCounters sets the counter source. Defaults to perf.Auto.
func WithCounters(src perf.Source) Option {
	return func(r *Runner) { r.counters = src }
}

// WithLogger sets the runner logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithMetrics records suite outcomes and counter samples.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Runner) { r.tracer = telemetry.Tracer(tp) }
}

// WithGenerator adds a Hanoi generator checked by the hanoi suite.
func WithGenerator(name string, gen hanoi.Generator) Option {
	return func(r *Runner) { r.generators = append(r.generators, NamedGenerator{name, gen}) }
}

// Runner executes registered suites.
type Runner struct {
	counters   perf.Source
	logger     *slog.Logger
	metrics    *telemetry.Metrics
	tracer     trace.Tracer
	generators []NamedGenerator
	suites     map[string]Suite
	order      []string
}

// NewRunner creates a runner with the hanoi, rsqrt and distance suites.
// The hanoi suite always checks the Gray-code generator first.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger:     slog.Default(),
		generators: []NamedGenerator{{"gray", hanoi.Generate}},
		suites:     make(map[string]Suite),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.counters == nil {
		r.counters = perf.Auto(r.logger)
	}
	if r.tracer == nil {
		r.tracer = telemetry.Tracer(nil)
	}

	r.Register(HanoiSuite(r.generators))
	r.Register(RSqrtSuite())
	r.Register(DistanceSuite())
	return r
}

// Register adds or replaces a suite.
func (r *Runner) Register(s Suite) {
	if _, ok := r.suites[s.Name]; !ok {
		r.order = append(r.order, s.Name)
	}
	r.suites[s.Name] = s
}

// Names returns registered suite names in registration order.
func (r *Runner) Names() []string {
	return append([]string(nil), r.order...)
}

// Run executes the named suites, or all of them when names is empty.
// A failing suite is reported, not returned as an error.
func (r *Runner) Run(ctx context.Context, names ...string) (*Report, error) {
	if len(names) == 0 {
		names = r.order
	}
	for _, n := range names {
		if _, ok := r.suites[n]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSuite, n)
		}
	}

	rep := &Report{}
	for _, n := range names {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		res, err := r.runSuite(ctx, r.suites[n])
		if err != nil {
			return rep, fmt.Errorf("suite %s: %w", n, err)
		}
		rep.Suites = append(rep.Suites, res)
	}
	return rep, nil
}

func (r *Runner) runSuite(ctx context.Context, s Suite) (SuiteResult, error) {
	_, span := r.tracer.Start(ctx, "harness."+s.Name)
	defer span.End()

	var cases []CaseResult
	sample, err := perf.Measure(r.counters, func() { cases = s.Run() })
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return SuiteResult{}, err
	}

	res := SuiteResult{Name: s.Name, Title: s.Title, Passed: true, Cases: cases, Sample: sample}
	failed := 0
	for _, c := range cases {
		if !c.Passed {
			res.Passed = false
			failed++
		}
	}

	status := "passed"
	if !res.Passed {
		status = "failed"
		span.SetStatus(codes.Error, fmt.Sprintf("%d cases failed", failed))
	}
	span.SetAttributes(
		attribute.String("suite.status", status),
		attribute.Int("suite.cases", len(cases)),
		attribute.Int64("perf.cycles", int64(sample.Cycles)),
		attribute.Int64("perf.instret", int64(sample.Instret)),
		attribute.String("perf.source", sample.Source),
	)

	if r.metrics != nil {
		r.metrics.SuiteRuns.WithLabelValues(s.Name, status).Inc()
		r.metrics.SuiteCycles.WithLabelValues(s.Name, sample.Source).Observe(float64(sample.Cycles))
		r.metrics.SuiteInstructions.WithLabelValues(s.Name, sample.Source).Observe(float64(sample.Instret))
	}

	level := slog.LevelInfo
	if !res.Passed {
		level = slog.LevelError
	}
	r.logger.Log(ctx, level, "suite finished",
		slog.String("suite", s.Name),
		slog.String("status", status),
		slog.Int("cases", len(cases)),
		slog.Int("failed", failed),
		slog.Uint64("cycles", sample.Cycles),
		slog.Uint64("instret", sample.Instret),
		slog.String("counters", sample.Source))
	return res, nil
}
