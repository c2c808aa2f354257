package result

import (
	"sort"
	"sync"
)

// Finding is one input where a kernel property does not hold.
type Finding struct {
	Property string `json:"property"`
	Input    uint32 `json:"input"`
	Got      uint32 `json:"got"`
	Want     string `json:"want"`
	Detail   string `json:"detail,omitempty"`
}

// Table collects findings from concurrent workers. Only the first Limit
// findings are kept; counts keep growing past the limit.
type Table struct {
	mu       sync.Mutex
	limit    int
	findings []Finding
	counts   map[string]int64
}

// NewTable creates an empty table. limit <= 0 keeps every finding.
func NewTable(limit int) *Table {
	return &Table{limit: limit, counts: make(map[string]int64)}
}

// Add records a finding.
func (t *Table) Add(f Finding) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[f.Property]++
	if t.limit <= 0 || len(t.findings) < t.limit {
		t.findings = append(t.findings, f)
	}
}

// Findings returns a copy of the kept findings, sorted by property then input.
func (t *Table) Findings() []Finding {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Finding, len(t.findings))
	copy(out, t.findings)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Property != out[j].Property {
			return out[i].Property < out[j].Property
		}
		return out[i].Input < out[j].Input
	})
	return out
}

// Counts returns the number of findings per property, including dropped ones.
func (t *Table) Counts() map[string]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int64, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

// Len returns the number of kept findings.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.findings)
}

// Total returns the number of findings seen, kept or not.
func (t *Table) Total() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var n int64
	for _, v := range t.counts {
		n += v
	}
	return n
}

// Merge adds previously saved findings and counts, e.g. from a checkpoint.
func (t *Table) Merge(findings []Finding, counts map[string]int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, v := range counts {
		t.counts[k] += v
	}
	for _, f := range findings {
		if t.limit > 0 && len(t.findings) >= t.limit {
			break
		}
		t.findings = append(t.findings, f)
	}
}
