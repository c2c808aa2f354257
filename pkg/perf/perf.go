// Package perf provides the cycle and instruction counters used to measure
// kernel runs. Counters only observe; they never influence the kernels.
package perf

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// ErrUnsupported is returned when hardware counters are not available.
var ErrUnsupported = errors.New("hardware counters not supported")

// Counters exposes a monotonic cycle count and a retired-instruction count.
// Implementations may be bound to the OS thread that opened them.
type Counters interface {
	Name() string
	Cycles() uint64
	Instret() uint64
	Close() error
}

// Source opens a fresh set of counters on the calling OS thread.
type Source func() (Counters, error)

// Sample is the counter delta across one measured call.
type Sample struct {
	Source  string
	Cycles  uint64
	Instret uint64
}

// Measure runs fn on a locked OS thread between two counter reads.
func Measure(src Source, fn func()) (Sample, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	c, err := src()
	if err != nil {
		return Sample{}, fmt.Errorf("open counters: %w", err)
	}
	defer c.Close()

	startCycles, startInstret := c.Cycles(), c.Instret()
	fn()
	endCycles, endInstret := c.Cycles(), c.Instret()

	return Sample{
		Source:  c.Name(),
		Cycles:  endCycles - startCycles,
		Instret: endInstret - startInstret,
	}, nil
}

// Auto returns a Source that prefers hardware counters and falls back to
// the monotonic clock. The fallback is logged once.
func Auto(logger *slog.Logger) Source {
	if logger == nil {
		logger = slog.Default()
	}
	var once sync.Once
	return func() (Counters, error) {
		c, err := Hardware()
		if err == nil {
			return c, nil
		}
		once.Do(func() {
			logger.Warn("hardware counters unavailable, using monotonic clock",
				slog.String("error", err.Error()))
		})
		return Clock()
	}
}

type clockCounters struct {
	start time.Time
}

// Clock returns counters backed by the monotonic clock: Cycles reports
// elapsed nanoseconds and Instret is always zero.
func Clock() (Counters, error) {
	return &clockCounters{start: time.Now()}, nil
}

func (c *clockCounters) Name() string { return "clock" }

func (c *clockCounters) Cycles() uint64 {
	return uint64(time.Since(c.start).Nanoseconds())
}

func (c *clockCounters) Instret() uint64 { return 0 }

func (c *clockCounters) Close() error { return nil }
