package fixed

import (
	"math"
	"testing"
)

// TestRSqrtLiterals checks bit-exact outputs for known inputs.
func TestRSqrtLiterals(t *testing.T) {
	tests := []struct {
		x, want uint32
	}{
		{0, 0},
		{1, 98304},
		{4, 32768},
		{9, 21829},
		{16, 16384},
		{100, 6534},
		{255, 4104},
		{65536, 256},
	}
	for _, tc := range tests {
		if got := RSqrt(tc.x); got != tc.want {
			t.Errorf("RSqrt(%d) = %d, want %d", tc.x, got, tc.want)
		}
	}
}

func TestDistance3DLiterals(t *testing.T) {
	tests := []struct {
		dx, dy, dz int32
		want       uint32
	}{
		{3, 4, 12, 12},
		{100, 0, 0, 99},
		{1000, 2000, 4000, 4486},
		{12345, 6789, 1011, 9132},
		{0, 0, 0, 0},
		{1, 0, 0, 1},
		{-3, -4, -12, 12},
		// squared length above 2^32: compressed by 2^16 before lookup
		{65535, 65535, 65535, 440},
		{math.MinInt32, math.MinInt32, math.MinInt32, 0},
	}
	for _, tc := range tests {
		if got := Distance3D(tc.dx, tc.dy, tc.dz); got != tc.want {
			t.Errorf("Distance3D(%d, %d, %d) = %d, want %d", tc.dx, tc.dy, tc.dz, got, tc.want)
		}
	}
}

func TestDistance3DSignAndOrder(t *testing.T) {
	vecs := [][3]int32{{3, 4, 12}, {1000, 2000, 4000}, {12345, 6789, 1011}, {7, 0, 9}}
	for _, v := range vecs {
		want := Distance3D(v[0], v[1], v[2])
		perms := [][3]int32{
			{-v[0], v[1], v[2]},
			{v[0], -v[1], -v[2]},
			{v[2], v[0], v[1]},
			{v[1], v[2], v[0]},
		}
		for _, p := range perms {
			if got := Distance3D(p[0], p[1], p[2]); got != want {
				t.Errorf("Distance3D%v = %d, want %d (same as %v)", p, got, want, v)
			}
		}
	}
}

// TestTableValues verifies each entry is within one unit of 2^16 / sqrt(2^e).
// Entry 19 is 90 (90.51 truncated), so exact rounding is not assumed.
func TestTableValues(t *testing.T) {
	tbl := Table()
	for e := range tbl {
		exact := Scale / math.Sqrt(math.Ldexp(1, e))
		if d := math.Abs(float64(tbl[e]) - exact); d >= 1 {
			t.Errorf("table[%d] = %d, exact %.3f", e, tbl[e], exact)
		}
		if e > 0 && tbl[e] >= tbl[e-1] {
			t.Errorf("table[%d] = %d not below table[%d] = %d", e, tbl[e], e-1, tbl[e-1])
		}
	}
}

func TestTableIsCopy(t *testing.T) {
	tbl := Table()
	tbl[4] = 0
	if RSqrt(16) != 16384 {
		t.Fatal("modifying the returned table changed RSqrt")
	}
}

// TestRSqrtMonotone checks the estimate never rises by more than one unit.
// Truncation in the Newton step produces isolated one-unit upticks.
func TestRSqrtMonotone(t *testing.T) {
	prev := RSqrt(1)
	for x := uint32(2); x < 1<<20; x++ {
		cur := RSqrt(x)
		if cur > prev+1 {
			t.Fatalf("RSqrt(%d) = %d > RSqrt(%d) = %d + 1", x, cur, x-1, prev)
		}
		prev = cur
	}
}

func TestRSqrtMonotoneAcrossExponents(t *testing.T) {
	for e := uint(1); e < 32; e++ {
		p := uint32(1) << e
		below, at := RSqrt(p-1), RSqrt(p)
		if at > below+1 {
			t.Errorf("RSqrt(2^%d) = %d rises above RSqrt(2^%d-1) = %d", e, at, e, below)
		}
	}
}

func TestRSqrtRelativeError(t *testing.T) {
	for x := uint32(2); x < 1<<16; x++ {
		want := Exact(x)
		rel := math.Abs(float64(RSqrt(x))-want) / want
		if rel > 0.0075 {
			t.Fatalf("RSqrt(%d) = %d, exact %.3f, relative error %.5f", x, RSqrt(x), want, rel)
		}
	}
}

func TestRSqrtAbsoluteErrorLargeInputs(t *testing.T) {
	for x := uint64(1 << 16); x < 1<<32; x += 65521 {
		got := RSqrt(uint32(x))
		want := Exact(uint32(x))
		if d := math.Abs(float64(got) - want); d > 2 {
			t.Fatalf("RSqrt(%d) = %d, exact %.3f, off by %.3f", x, got, want, d)
		}
	}
}

// TestRSqrtScale checks RSqrt(4x) is close to RSqrt(x)/2.
func TestRSqrtScale(t *testing.T) {
	for x := uint32(2); x < 1<<30; x += 4099 {
		quarter := float64(RSqrt(4*x))
		half := float64(RSqrt(x)) / 2
		if d := math.Abs(quarter - half); d > 2 {
			t.Fatalf("RSqrt(4*%d) = %.0f, RSqrt(%d)/2 = %.1f", x, quarter, x, half)
		}
	}
}

func TestRSqrtTopOfRange(t *testing.T) {
	for _, x := range []uint32{1 << 30, 1<<31 - 1, 1 << 31, 3 << 30, math.MaxUint32} {
		got := RSqrt(x)
		if got == 0 || got > 2 {
			t.Errorf("RSqrt(%d) = %d, want 1 or 2", x, got)
		}
	}
}

func TestToFloatAndExact(t *testing.T) {
	if ToFloat(Scale) != 1 {
		t.Errorf("ToFloat(Scale) = %f", ToFloat(Scale))
	}
	if ToFloat(RSqrt(16)) != 0.25 {
		t.Errorf("ToFloat(RSqrt(16)) = %f, want 0.25", ToFloat(RSqrt(16)))
	}
	if Exact(0) != 0 || Exact(4) != 32768 {
		t.Errorf("Exact(0) = %f, Exact(4) = %f", Exact(0), Exact(4))
	}
}

func BenchmarkRSqrt(b *testing.B) {
	var sink uint32
	for i := 0; i < b.N; i++ {
		sink += RSqrt(uint32(i) | 1)
	}
	_ = sink
}

func BenchmarkDistance3D(b *testing.B) {
	var sink uint32
	for i := 0; i < b.N; i++ {
		sink += Distance3D(int32(i), 6789, 1011)
	}
	_ = sink
}
