//go:build !linux

package perf

// Hardware is only implemented on Linux.
func Hardware() (Counters, error) {
	return nil, ErrUnsupported
}
