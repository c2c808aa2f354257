// Package fixed implements division-free fixed-point kernels scaled by 2^16:
// a table-driven reciprocal square root with one Newton-Raphson step, and a
// 3D distance approximation built on it.
package fixed

import (
	"math"
	"math/bits"
)

// Shift is the number of fractional bits; Scale is 1.0 in fixed point.
const (
	Shift = 16
	Scale = 1 << Shift
)

// table[e] = round(2^16 / sqrt(2^e)), the initial estimate for inputs whose
// most significant set bit is e.
var table = [32]uint32{
	65536, 46341, 32768, 23170, 16384, // 2^0  .. 2^4
	11585, 8192, 5793, 4096, 2896, // 2^5  .. 2^9
	2048, 1448, 1024, 724, 512, // 2^10 .. 2^14
	362, 256, 181, 128, 90, // 2^15 .. 2^19
	64, 45, 32, 23, 16, // 2^20 .. 2^24
	11, 8, 6, 4, 3, // 2^25 .. 2^29
	2, 1, // 2^30, 2^31
}

// Table returns a copy of the initial-estimate lookup table.
func Table() [32]uint32 {
	return table
}

// RSqrt returns approximately 2^16 / sqrt(x). RSqrt(0) is defined as 0.
//
// The estimate is table[exp] linearly interpolated toward table[exp+1],
// followed by exactly one Newton-Raphson step
// y' = y * (3 - x*y^2) / 2 in 2^16 fixed point. Products are taken in
// 64 bits and truncated back, so the result is bit-exact on any target.
func RSqrt(x uint32) uint32 {
	if x == 0 {
		return 0
	}

	exp := uint(31 - bits.LeadingZeros32(x))

	y := table[exp]
	var yNext uint32
	if exp < 31 {
		yNext = table[exp+1]
	}

	// frac = (x - 2^exp) / 2^exp in 2^16 fixed point
	delta := y - yNext
	frac := uint32(((uint64(x) - 1<<exp) << Shift) >> exp)
	interp := uint32((uint64(delta) * uint64(frac)) >> Shift)
	y -= interp

	y2 := uint32(uint64(y) * uint64(y))
	xy2 := uint32((uint64(x) * uint64(y2)) >> Shift)

	return uint32((uint64(y) * uint64(3<<Shift-xy2)) >> (Shift + 1))
}

// Distance3D approximates sqrt(dx^2 + dy^2 + dz^2) as d2 * RSqrt(d2) >> 16.
//
// When the squared length does not fit in 32 bits it is shifted right by 16
// before the lookup and the result is not rescaled, so very long vectors come
// back compressed by a factor of 256.
func Distance3D(dx, dy, dz int32) uint32 {
	d2 := square(dx) + square(dy) + square(dz)
	if d2 > math.MaxUint32 {
		d2 >>= Shift
	}
	inv := RSqrt(uint32(d2))
	return uint32((d2 * uint64(inv)) >> Shift)
}

func square(v int32) uint64 {
	w := int64(v)
	return uint64(w * w)
}

// ToFloat converts a 2^16-scaled value to float64.
func ToFloat(v uint32) float64 {
	return float64(v) / Scale
}

// Exact is the floating-point reference 2^16 / sqrt(x); Exact(0) is 0 to
// match the RSqrt sentinel.
func Exact(x uint32) float64 {
	if x == 0 {
		return 0
	}
	return Scale / math.Sqrt(float64(x))
}
