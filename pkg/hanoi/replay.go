package hanoi

import (
	"errors"
	"fmt"
)

// ErrIllegalMove is returned by Replay for a move that breaks the rules.
var ErrIllegalMove = errors.New("illegal move")

// Replay applies moves to the starting position (all disks on A, largest at
// the bottom) and returns the final peg of every disk. It rejects a move of
// a disk that is not on top of its source peg, or onto a smaller disk.
func Replay(moves []Move) (PegState, error) {
	var stacks [3][]Disk
	stacks[PegA] = []Disk{Disk2, Disk1, Disk0}

	for i, m := range moves {
		if m.Disk < 1 || m.Disk > NumDisks {
			return PegState{}, fmt.Errorf("move %d %s: no such disk: %w", i+1, m, ErrIllegalMove)
		}
		disk := Disk(m.Disk - 1)
		from, ok := PegFromLetter(m.From)
		if !ok {
			return PegState{}, fmt.Errorf("move %d %s: bad source peg: %w", i+1, m, ErrIllegalMove)
		}
		to, ok := PegFromLetter(m.To)
		if !ok || to == from {
			return PegState{}, fmt.Errorf("move %d %s: bad target peg: %w", i+1, m, ErrIllegalMove)
		}

		src := stacks[from]
		if len(src) == 0 || src[len(src)-1] != disk {
			return PegState{}, fmt.Errorf("move %d %s: disk not on top of %c: %w", i+1, m, m.From, ErrIllegalMove)
		}
		dst := stacks[to]
		if len(dst) > 0 && dst[len(dst)-1] < disk {
			return PegState{}, fmt.Errorf("move %d %s: onto smaller disk: %w", i+1, m, ErrIllegalMove)
		}

		stacks[from] = src[:len(src)-1]
		stacks[to] = append(dst, disk)
	}

	var state PegState
	for peg, stack := range stacks {
		for _, d := range stack {
			state[d] = Peg(peg)
		}
	}
	return state, nil
}

// Solved reports whether every disk is on peg C.
func Solved(s PegState) bool {
	for _, p := range s {
		if p != PegC {
			return false
		}
	}
	return true
}

// MoveCounts returns how many times each disk moves in the sequence.
func MoveCounts(moves []Move) [NumDisks]int {
	var counts [NumDisks]int
	for _, m := range moves {
		if m.Disk >= 1 && m.Disk <= NumDisks {
			counts[m.Disk-1]++
		}
	}
	return counts
}
