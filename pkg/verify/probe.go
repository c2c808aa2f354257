package verify

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/oisee/rv32-kernels/pkg/fixed"
	"github.com/oisee/rv32-kernels/pkg/result"
)

// ProbeConfig holds random Distance3D probing configuration.
type ProbeConfig struct {
	Samples     int
	Seed        uint64
	Limit       int32 // components are drawn from [-Limit, Limit]
	MaxFindings int
}

// ProbeReport summarizes Distance3D accuracy on random vectors. Accuracy is
// reported, not enforced; only native/soft disagreement is a finding.
type ProbeReport struct {
	Samples  int
	MaxRel   float64
	MeanRel  float64
	Worst    [3]int32
	Findings []result.Finding
}

// Probe draws seeded random vectors, compares Distance3D against the
// floating-point length and against Distance3DSoft.
func Probe(cfg ProbeConfig) ProbeReport {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0xDEADBEEF))
	tbl := result.NewTable(cfg.MaxFindings)
	limit := int64(cfg.Limit)
	if limit <= 0 {
		limit = 1
	}

	draw := func() int32 {
		return int32(rng.Int64N(2*limit+1) - limit)
	}

	rep := ProbeReport{Samples: cfg.Samples}
	var sum float64
	var n int
	for i := 0; i < cfg.Samples; i++ {
		dx, dy, dz := draw(), draw(), draw()
		got := fixed.Distance3D(dx, dy, dz)
		if soft := fixed.Distance3DSoft(dx, dy, dz); soft != got {
			tbl.Add(result.Finding{
				Property: PropDistanceExact, Got: soft,
				Want:   fmt.Sprintf("%d", got),
				Detail: fmt.Sprintf("(%d, %d, %d)", dx, dy, dz),
			})
		}

		fx, fy, fz := float64(dx), float64(dy), float64(dz)
		exact := math.Sqrt(fx*fx + fy*fy + fz*fz)
		if exact == 0 {
			continue
		}
		rel := math.Abs(float64(got)-exact) / exact
		sum += rel
		n++
		if rel > rep.MaxRel {
			rep.MaxRel = rel
			rep.Worst = [3]int32{dx, dy, dz}
		}
	}
	if n > 0 {
		rep.MeanRel = sum / float64(n)
	}
	rep.Findings = tbl.Findings()
	return rep
}
