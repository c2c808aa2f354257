package harness

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/oisee/rv32-kernels/pkg/hanoi"
	"github.com/oisee/rv32-kernels/pkg/perf"
	"github.com/oisee/rv32-kernels/pkg/telemetry"
)

// stepCounters advances by a fixed step on every read.
type stepCounters struct {
	cycles, instret uint64
}

func (c *stepCounters) Name() string { return "fake" }

func (c *stepCounters) Cycles() uint64 {
	c.cycles += 100
	return c.cycles
}

func (c *stepCounters) Instret() uint64 {
	c.instret += 40
	return c.instret
}

func (c *stepCounters) Close() error { return nil }

func fakeSource() perf.Source {
	return func() (perf.Counters, error) { return &stepCounters{}, nil }
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRunner(opts ...Option) *Runner {
	base := []Option{WithCounters(fakeSource()), WithLogger(quietLogger())}
	return NewRunner(append(base, opts...)...)
}

// swapped moves the smallest disk A to C where disk 2 should go A to B.
func swapped(moves *[hanoi.NumMoves]hanoi.Move) {
	hanoi.Generate(moves)
	moves[1].Disk = 1
	moves[1].To = 'C'
}

func TestRunAllPass(t *testing.T) {
	r := newTestRunner(WithGenerator("reference", hanoi.Reference))
	rep, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, rep.Suites, 3)
	assert.True(t, rep.Passed())
	assert.Equal(t, []string{"hanoi", "rsqrt", "distance"}, r.Names())

	h := rep.Suites[0]
	require.Len(t, h.Cases, 2)
	assert.Equal(t, "gray", h.Cases[0].Name)
	assert.Equal(t, "reference", h.Cases[1].Name)

	for _, s := range rep.Suites {
		assert.Equal(t, "fake", s.Sample.Source)
		assert.Equal(t, uint64(100), s.Sample.Cycles)
		assert.Equal(t, uint64(40), s.Sample.Instret)
	}
	assert.Len(t, rep.Suites[1].Cases, 16)
	assert.Len(t, rep.Suites[2].Cases, 4)
}

func TestRunSelected(t *testing.T) {
	rep, err := newTestRunner().Run(context.Background(), "distance", "hanoi")
	require.NoError(t, err)
	require.Len(t, rep.Suites, 2)
	assert.Equal(t, "distance", rep.Suites[0].Name)
	assert.Equal(t, "hanoi", rep.Suites[1].Name)
}

func TestRunUnknownSuite(t *testing.T) {
	_, err := newTestRunner().Run(context.Background(), "hanoi", "bogus")
	assert.True(t, errors.Is(err, ErrUnknownSuite))
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestRunner().Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunCounterError(t *testing.T) {
	broken := func() (perf.Counters, error) { return nil, perf.ErrUnsupported }
	r := NewRunner(WithCounters(broken), WithLogger(quietLogger()))
	_, err := r.Run(context.Background(), "rsqrt")
	assert.True(t, errors.Is(err, perf.ErrUnsupported))
}

func TestRunHanoiMismatch(t *testing.T) {
	r := newTestRunner(WithGenerator("swapped", swapped))
	rep, err := r.Run(context.Background(), "hanoi")
	require.NoError(t, err)

	assert.False(t, rep.Passed())
	c := rep.Suites[0].Cases[1]
	assert.False(t, c.Passed)
	require.NotNil(t, c.Mismatch)
	assert.Equal(t, 1, c.Mismatch.Index)
	assert.Equal(t, uint32(2), c.Mismatch.Expected.Disk)
	assert.Equal(t, uint32(1), c.Mismatch.Observed.Disk)

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, rep))
	out := buf.String()
	assert.Contains(t, out, "=== Hanoi Tests ===")
	assert.Contains(t, out, "  gray: PASSED")
	assert.Contains(t, out, "  swapped: FAILED at move 2")
	assert.Contains(t, out, "    Expected disk: 2")
	assert.Contains(t, out, "    Observed disk: 1")
	assert.Contains(t, out, "    Expected to: B")
	assert.Contains(t, out, "    Observed to: C")
	assert.Contains(t, out, "Some tests failed.")
}

func TestPrintPassed(t *testing.T) {
	rep, err := newTestRunner().Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, rep))
	out := buf.String()
	for _, title := range []string{"Hanoi", "Fast RSqrt", "Fast Distance 3D"} {
		assert.Contains(t, out, "=== "+title+" Tests ===")
		assert.Contains(t, out, "=== "+title+" Test Completed ===")
	}
	assert.Contains(t, out, "  rsqrt(9): PASSED")
	assert.Contains(t, out, "  distance(3, 4, 12): PASSED")
	assert.Contains(t, out, "  Cycles: 100")
	assert.Contains(t, out, "  Instructions: 40")
	assert.Contains(t, out, "All tests passed.")
}

func TestPrintLiteralFailure(t *testing.T) {
	rep := &Report{Suites: []SuiteResult{{
		Name: "rsqrt", Title: "Fast RSqrt",
		Cases: []CaseResult{literal("rsqrt(4)", 32767, 32768)},
	}}}
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, rep))
	assert.Contains(t, buf.String(), "  rsqrt(4): FAILED\n    Expected: 32768\n    Observed: 32767\n")
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestPrintWriteError(t *testing.T) {
	rep, err := newTestRunner().Run(context.Background(), "distance")
	require.NoError(t, err)
	assert.ErrorIs(t, Print(failWriter{}, rep), io.ErrClosedPipe)
}

func TestRunMetrics(t *testing.T) {
	m := telemetry.NewMetrics()
	r := newTestRunner(WithMetrics(m), WithGenerator("swapped", swapped))
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SuiteRuns.WithLabelValues("hanoi", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SuiteRuns.WithLabelValues("rsqrt", "passed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SuiteRuns.WithLabelValues("distance", "passed")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.SuiteCycles))
}

func TestRunSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	_, err := newTestRunner(WithTracerProvider(tp)).Run(context.Background())
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 3)
	names := make([]string, len(spans))
	for i, s := range spans {
		names[i] = s.Name()
	}
	assert.Equal(t, []string{"harness.hanoi", "harness.rsqrt", "harness.distance"}, names)
}

func TestRegisterReplaces(t *testing.T) {
	r := newTestRunner()
	r.Register(Suite{Name: "rsqrt", Title: "Stub", Run: func() []CaseResult { return nil }})
	assert.Equal(t, []string{"hanoi", "rsqrt", "distance"}, r.Names())

	rep, err := r.Run(context.Background(), "rsqrt")
	require.NoError(t, err)
	assert.Equal(t, "Stub", rep.Suites[0].Title)
	assert.True(t, rep.Passed())
}
