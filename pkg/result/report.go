package result

import (
	"encoding/json"
	"fmt"
	"io"
)

// Report is the persisted outcome of a sweep.
type Report struct {
	Lo       uint32           `json:"lo"`
	Hi       uint32           `json:"hi"`
	Checked  int64            `json:"checked"`
	Counts   map[string]int64 `json:"counts"`
	Findings []Finding        `json:"findings"`
}

// Passed reports whether no property failed.
func (r *Report) Passed() bool {
	for _, n := range r.Counts {
		if n > 0 {
			return false
		}
	}
	return true
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// ReadJSON reads a report written by WriteJSON.
func ReadJSON(r io.Reader) (*Report, error) {
	var rep Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	if rep.Lo > rep.Hi {
		return nil, fmt.Errorf("decode report: lo %d above hi %d", rep.Lo, rep.Hi)
	}
	return &rep, nil
}
