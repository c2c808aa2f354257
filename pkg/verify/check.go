// Package verify checks the fixed-point kernels against their properties,
// first on fixed test vectors and then exhaustively over an input range.
package verify

import (
	"fmt"
	"math"

	"github.com/oisee/rv32-kernels/pkg/fixed"
	"github.com/oisee/rv32-kernels/pkg/result"
)

// Property names used in findings.
const (
	PropSoftExact     = "soft_exact"     // RSqrtSoft differs from RSqrt
	PropMonotone      = "monotone"       // RSqrt(x) rises above RSqrt(x-1) + slack
	PropError         = "error"          // outside both absolute and relative bounds
	PropScale         = "scale"          // RSqrt(4x) far from RSqrt(x)/2
	PropDistanceExact = "distance_exact" // Distance3DSoft differs from Distance3D
)

// Bounds are the tolerances applied to every input.
type Bounds struct {
	MonotoneSlack uint32
	MaxAbsError   float64
	MaxRelError   float64
	ScaleSlack    float64
}

// DefaultBounds hold for every x >= 2.
var DefaultBounds = Bounds{
	MonotoneSlack: 1,
	MaxAbsError:   2,
	MaxRelError:   0.0075,
	ScaleSlack:    2,
}

// TestVectors are inputs checked by QuickCheck: the literal cases, every
// power of two with its neighbours, and the top of the range. 1 is left
// out: RSqrt(1) is 1.5 because y*y wraps to zero in 32 bits.
var TestVectors = func() []uint32 {
	v := []uint32{9, 100, 255, 5312, 65535, 1<<32 - 1}
	for e := uint(1); e < 32; e++ {
		p := uint32(1) << e
		if p > 2 {
			v = append(v, p-1)
		}
		v = append(v, p, p+1)
	}
	return v
}()

// CheckInput records every property of x that does not hold.
func CheckInput(x uint32, b Bounds, tbl *result.Table) {
	got := fixed.RSqrt(x)

	if soft := fixed.RSqrtSoft(x); soft != got {
		tbl.Add(result.Finding{
			Property: PropSoftExact, Input: x, Got: soft,
			Want: fmt.Sprintf("%d", got),
		})
	}

	if x == 0 {
		if got != 0 {
			tbl.Add(result.Finding{Property: PropError, Input: x, Got: got, Want: "0"})
		}
		return
	}

	if x > 1 {
		prev := fixed.RSqrt(x - 1)
		if got > prev+b.MonotoneSlack {
			tbl.Add(result.Finding{
				Property: PropMonotone, Input: x, Got: got,
				Want: fmt.Sprintf("<= %d", prev+b.MonotoneSlack),
			})
		}
	}

	exact := fixed.Exact(x)
	abs := math.Abs(float64(got) - exact)
	if abs > b.MaxAbsError && abs/exact > b.MaxRelError {
		tbl.Add(result.Finding{
			Property: PropError, Input: x, Got: got,
			Want:   fmt.Sprintf("%.3f", exact),
			Detail: fmt.Sprintf("abs %.3f rel %.5f", abs, abs/exact),
		})
	}

	if x < 1<<30 {
		quarter := fixed.RSqrt(4 * x)
		half := float64(got) / 2
		if math.Abs(float64(quarter)-half) > b.ScaleSlack {
			tbl.Add(result.Finding{
				Property: PropScale, Input: x, Got: quarter,
				Want: fmt.Sprintf("%.1f", half),
			})
		}
	}
}

// QuickCheck runs CheckInput over TestVectors.
func QuickCheck(b Bounds) []result.Finding {
	tbl := result.NewTable(0)
	for _, x := range TestVectors {
		CheckInput(x, b, tbl)
	}
	return tbl.Findings()
}
