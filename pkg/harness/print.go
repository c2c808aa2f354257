package harness

import (
	"fmt"
	"io"
)

// errWriter keeps the first write error so Print can check once at the end.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

// Print writes the human-readable report, one block per suite.
func Print(w io.Writer, rep *Report) error {
	ew := &errWriter{w: w}
	for _, s := range rep.Suites {
		ew.printf("\n=== %s Tests ===\n\n", s.Title)
		for _, c := range s.Cases {
			printCase(ew, c)
		}
		ew.printf("  Cycles: %d\n", s.Sample.Cycles)
		ew.printf("  Instructions: %d\n", s.Sample.Instret)
		ew.printf("\n=== %s Test Completed ===\n", s.Title)
	}
	if rep.Passed() {
		ew.printf("\nAll tests passed.\n")
	} else {
		ew.printf("\nSome tests failed.\n")
	}
	return ew.err
}

func printCase(ew *errWriter, c CaseResult) {
	if c.Passed {
		ew.printf("  %s: PASSED\n", c.Name)
		return
	}
	if m := c.Mismatch; m != nil {
		ew.printf("  %s: FAILED at move %d\n", c.Name, m.Index+1)
		ew.printf("    Expected disk: %d\n", m.Expected.Disk)
		ew.printf("    Observed disk: %d\n", m.Observed.Disk)
		ew.printf("    Expected from: %c\n", m.Expected.From)
		ew.printf("    Observed from: %c\n", m.Observed.From)
		ew.printf("    Expected to: %c\n", m.Expected.To)
		ew.printf("    Observed to: %c\n", m.Observed.To)
		return
	}
	ew.printf("  %s: FAILED\n", c.Name)
	ew.printf("    Expected: %s\n", c.Want)
	ew.printf("    Observed: %s\n", c.Got)
}
