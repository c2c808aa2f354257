//go:build linux

package perf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

type hardwareCounters struct {
	cycles  int
	instret int
}

// Hardware opens user-space CPU cycle and retired-instruction counters for
// the calling thread via perf_event_open.
func Hardware() (Counters, error) {
	cycles, err := openEvent(unix.PERF_COUNT_HW_CPU_CYCLES)
	if err != nil {
		return nil, fmt.Errorf("cycles: %w", err)
	}
	instret, err := openEvent(unix.PERF_COUNT_HW_INSTRUCTIONS)
	if err != nil {
		unix.Close(cycles)
		return nil, fmt.Errorf("instructions: %w", err)
	}
	return &hardwareCounters{cycles: cycles, instret: instret}, nil
}

func openEvent(config uint64) (int, error) {
	attr := unix.PerfEventAttr{
		Type:   unix.PERF_TYPE_HARDWARE,
		Size:   uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
		Config: config,
		Bits:   unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv,
	}
	fd, err := unix.PerfEventOpen(&attr, 0, -1, -1, unix.PERF_FLAG_FD_CLOEXEC)
	if err != nil {
		if errors.Is(err, unix.ENOENT) || errors.Is(err, unix.EACCES) ||
			errors.Is(err, unix.EPERM) || errors.Is(err, unix.ENOSYS) {
			return -1, fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		return -1, err
	}
	return fd, nil
}

func readEvent(fd int) uint64 {
	var buf [8]byte
	if n, err := unix.Read(fd, buf[:]); err != nil || n != len(buf) {
		return 0
	}
	return binary.NativeEndian.Uint64(buf[:])
}

func (h *hardwareCounters) Name() string { return "perf_event" }

func (h *hardwareCounters) Cycles() uint64 { return readEvent(h.cycles) }

func (h *hardwareCounters) Instret() uint64 { return readEvent(h.instret) }

func (h *hardwareCounters) Close() error {
	return errors.Join(unix.Close(h.cycles), unix.Close(h.instret))
}
