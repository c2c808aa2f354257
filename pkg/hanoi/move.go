package hanoi

import "fmt"

// NumDisks is the fixed problem size handled by the generator.
const NumDisks = 3

// NumMoves is the length of the optimal solution: 2^NumDisks - 1.
const NumMoves = 1<<NumDisks - 1

// Peg is a peg position, 0..2. Peg 0 is labelled 'A'.
type Peg uint8

const (
	PegA Peg = iota
	PegB
	PegC
)

// Letter returns the peg label 'A'..'C'.
func (p Peg) Letter() byte {
	return 'A' + byte(p)
}

func (p Peg) String() string {
	return string(rune(p.Letter()))
}

// PegFromLetter maps a label back to its position.
func PegFromLetter(c byte) (Peg, bool) {
	if c < 'A' || c > 'C' {
		return 0, false
	}
	return Peg(c - 'A'), true
}

// Disk identifies one of the three disks. Disk0 is the smallest.
// The set is closed: the Gray-code change selects exactly one of them.
type Disk uint8

const (
	Disk0 Disk = iota
	Disk1
	Disk2
)

// Number returns the 1-indexed disk number used in moves (1 = smallest).
func (d Disk) Number() uint32 {
	return uint32(d) + 1
}

// Move is a single step of the solution.
type Move struct {
	Disk uint32 // 1 = smallest
	From byte   // 'A'..'C'
	To   byte   // 'A'..'C'
}

func (m Move) String() string {
	return fmt.Sprintf("(%d,%c,%c)", m.Disk, m.From, m.To)
}

// Generator fills moves with a complete solution.
type Generator func(moves *[NumMoves]Move)

// Expected is the unique optimal solution moving all disks from A to C.
var Expected = [NumMoves]Move{
	{1, 'A', 'C'},
	{2, 'A', 'B'},
	{1, 'C', 'B'},
	{3, 'A', 'C'},
	{1, 'B', 'A'},
	{2, 'B', 'C'},
	{1, 'A', 'C'},
}

// Mismatch describes the first position where two solutions differ.
type Mismatch struct {
	Index    int // 0-based
	Expected Move
	Observed Move
}

// Compare returns the first mismatch between expected and observed.
// ok is true when the sequences are identical.
func Compare(expected, observed [NumMoves]Move) (Mismatch, bool) {
	for i := range expected {
		if expected[i] != observed[i] {
			return Mismatch{Index: i, Expected: expected[i], Observed: observed[i]}, false
		}
	}
	return Mismatch{}, true
}
