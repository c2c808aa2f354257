package harness

import (
	"fmt"

	"github.com/oisee/rv32-kernels/pkg/fixed"
	"github.com/oisee/rv32-kernels/pkg/hanoi"
)

// CaseResult is the outcome of one check inside a suite.
type CaseResult struct {
	Name   string
	Passed bool
	Got    string
	Want   string
	// Mismatch is set for failed Hanoi cases.
	Mismatch *hanoi.Mismatch
}

// Suite is a named group of kernel checks.
type Suite struct {
	Name  string
	Title string
	Run   func() []CaseResult
}

// NamedGenerator pairs a Hanoi generator with a label for reports.
type NamedGenerator struct {
	Name string
	Gen  hanoi.Generator
}

// HanoiSuite checks every generator against the optimal sequence.
func HanoiSuite(gens []NamedGenerator) Suite {
	return Suite{
		Name:  "hanoi",
		Title: "Hanoi",
		Run: func() []CaseResult {
			out := make([]CaseResult, 0, len(gens))
			for _, g := range gens {
				var moves [hanoi.NumMoves]hanoi.Move
				g.Gen(&moves)
				c := CaseResult{Name: g.Name, Want: fmt.Sprint(hanoi.Expected), Got: fmt.Sprint(moves)}
				if m, ok := hanoi.Compare(hanoi.Expected, moves); ok {
					c.Passed = true
				} else {
					c.Mismatch = &m
				}
				out = append(out, c)
			}
			return out
		},
	}
}

type rsqrtCase struct {
	x, want uint32
}

var rsqrtCases = []rsqrtCase{
	{0, 0},
	{1, 98304},
	{4, 32768},
	{9, 21829},
	{16, 16384},
	{100, 6534},
	{255, 4104},
	{65536, 256},
}

// RSqrtSuite checks RSqrt and RSqrtSoft against known outputs.
func RSqrtSuite() Suite {
	return Suite{
		Name:  "rsqrt",
		Title: "Fast RSqrt",
		Run: func() []CaseResult {
			out := make([]CaseResult, 0, 2*len(rsqrtCases))
			for _, tc := range rsqrtCases {
				out = append(out,
					literal(fmt.Sprintf("rsqrt(%d)", tc.x), fixed.RSqrt(tc.x), tc.want),
					literal(fmt.Sprintf("rsqrt_soft(%d)", tc.x), fixed.RSqrtSoft(tc.x), tc.want),
				)
			}
			return out
		},
	}
}

type distanceCase struct {
	dx, dy, dz int32
	want       uint32
}

var distanceCases = []distanceCase{
	{3, 4, 12, 12},
	{100, 0, 0, 99},
	{1000, 2000, 4000, 4486},
	{12345, 6789, 1011, 9132},
}

// DistanceSuite checks Distance3D against known outputs.
func DistanceSuite() Suite {
	return Suite{
		Name:  "distance",
		Title: "Fast Distance 3D",
		Run: func() []CaseResult {
			out := make([]CaseResult, 0, len(distanceCases))
			for _, tc := range distanceCases {
				name := fmt.Sprintf("distance(%d, %d, %d)", tc.dx, tc.dy, tc.dz)
				out = append(out, literal(name, fixed.Distance3D(tc.dx, tc.dy, tc.dz), tc.want))
			}
			return out
		},
	}
}

func literal(name string, got, want uint32) CaseResult {
	return CaseResult{
		Name:   name,
		Passed: got == want,
		Got:    fmt.Sprint(got),
		Want:   fmt.Sprint(want),
	}
}
