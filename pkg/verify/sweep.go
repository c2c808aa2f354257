package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/oisee/rv32-kernels/pkg/result"
	"github.com/oisee/rv32-kernels/pkg/telemetry"
)

// ErrInvalidRange is returned for an empty or inverted sweep range.
var ErrInvalidRange = errors.New("invalid sweep range")

// Config holds sweep configuration.
type Config struct {
	Lo, Hi      uint32 // inclusive range
	Chunk       uint32 // inputs per task
	Workers     int    // defaults to NumCPU
	Bounds      Bounds
	MaxFindings int    // findings kept in the report; 0 keeps all
	Checkpoint  string // optional gob file for resume
}

// Option customizes a sweep.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *telemetry.Metrics
	tracer  trace.Tracer
}

// WithLogger sets the sweep logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records checked inputs and findings.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracer = telemetry.Tracer(tp) }
}

// maxChunks bounds the task queue.
const maxChunks = 1 << 20

// numChunks returns how many chunks cover [lo, hi].
func numChunks(lo, hi, chunk uint32) uint64 {
	return (uint64(hi)-uint64(lo))/uint64(chunk) + 1
}

// chunkRange returns the inclusive bounds of chunk i.
func chunkRange(lo, hi, chunk, i uint32) (uint32, uint32) {
	start := uint64(lo) + uint64(i)*uint64(chunk)
	end := start + uint64(chunk) - 1
	if end > uint64(hi) {
		end = uint64(hi)
	}
	return uint32(start), uint32(end)
}

// Sweep checks every input in [cfg.Lo, cfg.Hi] in parallel. When a
// checkpoint path is set, chunks finished by an earlier run are skipped and
// progress is saved after each chunk. A cancelled context stops the sweep
// after saving and returns the context error.
func Sweep(ctx context.Context, cfg Config, opts ...Option) (*result.Report, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = telemetry.Tracer(nil)
	}

	if cfg.Hi < cfg.Lo {
		return nil, fmt.Errorf("%w: lo %d above hi %d", ErrInvalidRange, cfg.Lo, cfg.Hi)
	}
	if cfg.Chunk == 0 {
		return nil, fmt.Errorf("%w: zero chunk size", ErrInvalidRange)
	}
	total := numChunks(cfg.Lo, cfg.Hi, cfg.Chunk)
	if total > maxChunks {
		return nil, fmt.Errorf("%w: %d chunks, raise the chunk size", ErrInvalidRange, total)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	ctx, span := o.tracer.Start(ctx, "verify.Sweep", trace.WithAttributes(
		attribute.Int64("sweep.lo", int64(cfg.Lo)),
		attribute.Int64("sweep.hi", int64(cfg.Hi)),
		attribute.Int("sweep.workers", cfg.Workers),
	))
	defer span.End()

	tbl := result.NewTable(cfg.MaxFindings)
	done := make(map[uint32]bool)
	var checked atomic.Int64

	if cfg.Checkpoint != "" {
		ckpt, err := result.LoadCheckpoint(cfg.Checkpoint)
		if err != nil {
			return nil, fmt.Errorf("load checkpoint: %w", err)
		}
		switch {
		case ckpt == nil:
		case !ckpt.Matches(cfg.Lo, cfg.Hi, cfg.Chunk):
			o.logger.Warn("checkpoint is for a different range, starting over",
				slog.String("path", cfg.Checkpoint))
		default:
			for _, i := range ckpt.Completed {
				done[i] = true
			}
			checked.Store(ckpt.Checked)
			tbl.Merge(ckpt.Findings, ckpt.Counts)
			o.logger.Info("resuming sweep",
				slog.Int("completed_chunks", len(done)),
				slog.Int64("checked", ckpt.Checked))
		}
	}

	pending := make(chan uint32, total)
	for i := uint32(0); uint64(i) < total; i++ {
		if !done[i] {
			pending <- i
		}
	}
	close(pending)

	var mu sync.Mutex
	save := func() error {
		if cfg.Checkpoint == "" {
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		completed := make([]uint32, 0, len(done))
		for i := range done {
			completed = append(completed, i)
		}
		return result.SaveCheckpoint(cfg.Checkpoint, &result.Checkpoint{
			Lo: cfg.Lo, Hi: cfg.Hi, Chunk: cfg.Chunk,
			Completed: completed,
			Checked:   checked.Load(),
			Findings:  tbl.Findings(),
			Counts:    tbl.Counts(),
		})
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Workers; w++ {
		g.Go(func() error {
			for i := range pending {
				if err := gctx.Err(); err != nil {
					return err
				}
				lo, hi := chunkRange(cfg.Lo, cfg.Hi, cfg.Chunk, i)
				before := tbl.Total()
				for x := uint64(lo); x <= uint64(hi); x++ {
					CheckInput(uint32(x), cfg.Bounds, tbl)
				}
				n := int64(hi) - int64(lo) + 1
				checked.Add(n)
				if o.metrics != nil {
					o.metrics.SweepInputs.Add(float64(n))
				}

				mu.Lock()
				done[i] = true
				mu.Unlock()
				if err := save(); err != nil {
					return fmt.Errorf("save checkpoint: %w", err)
				}

				o.logger.Debug("chunk done",
					slog.Uint64("chunk", uint64(i)),
					slog.Uint64("lo", uint64(lo)),
					slog.Uint64("hi", uint64(hi)),
					slog.Int64("findings", tbl.Total()-before))
			}
			return nil
		})
	}
	err := g.Wait()

	counts := tbl.Counts()
	if o.metrics != nil {
		for prop, n := range counts {
			o.metrics.SweepFindings.WithLabelValues(prop).Add(float64(n))
		}
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if serr := save(); serr != nil {
				err = errors.Join(err, serr)
			}
		}
		return nil, fmt.Errorf("sweep: %w", err)
	}

	rep := &result.Report{
		Lo:       cfg.Lo,
		Hi:       cfg.Hi,
		Checked:  checked.Load(),
		Counts:   counts,
		Findings: tbl.Findings(),
	}
	span.SetAttributes(
		attribute.Int64("sweep.checked", rep.Checked),
		attribute.Int64("sweep.findings", tbl.Total()),
	)
	o.logger.Info("sweep finished",
		slog.Int64("checked", rep.Checked),
		slog.Int64("findings", tbl.Total()),
		slog.Duration("elapsed", time.Since(start).Round(time.Millisecond)))
	return rep, nil
}
