package perf

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounters struct {
	cycles, instret uint64
	closed          bool
}

func (f *fakeCounters) Name() string { return "fake" }

func (f *fakeCounters) Cycles() uint64 {
	f.cycles += 10
	return f.cycles
}

func (f *fakeCounters) Instret() uint64 {
	f.instret += 3
	return f.instret
}

func (f *fakeCounters) Close() error {
	f.closed = true
	return nil
}

func TestMeasureDelta(t *testing.T) {
	fake := &fakeCounters{}
	called := false
	s, err := Measure(func() (Counters, error) { return fake, nil }, func() { called = true })
	require.NoError(t, err)

	assert.True(t, called)
	assert.True(t, fake.closed, "counters must be closed after measuring")
	assert.Equal(t, "fake", s.Source)
	assert.Equal(t, uint64(10), s.Cycles)
	assert.Equal(t, uint64(3), s.Instret)
}

func TestMeasureOpenError(t *testing.T) {
	_, err := Measure(func() (Counters, error) { return nil, ErrUnsupported }, func() {
		t.Fatal("fn must not run when counters fail to open")
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestClockMonotonic(t *testing.T) {
	c, err := Clock()
	require.NoError(t, err)
	defer c.Close()

	a := c.Cycles()
	time.Sleep(time.Millisecond)
	b := c.Cycles()
	assert.Greater(t, b, a)
	assert.Zero(t, c.Instret())
	assert.Equal(t, "clock", c.Name())
}

func TestAutoAlwaysOpens(t *testing.T) {
	src := Auto(nil)
	c, err := src()
	require.NoError(t, err)
	defer c.Close()
	assert.Contains(t, []string{"clock", "perf_event"}, c.Name())
}

func TestHardwareWhenAvailable(t *testing.T) {
	c, err := Hardware()
	if err != nil {
		t.Skipf("hardware counters unavailable: %v", err)
	}
	defer c.Close()

	s, err := Measure(func() (Counters, error) { return Hardware() }, func() {
		x := 0
		for i := 0; i < 10000; i++ {
			x += i
		}
		_ = x
	})
	require.NoError(t, err)
	assert.Equal(t, "perf_event", s.Source)
}
