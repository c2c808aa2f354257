package hanoi

// PegState maps each disk to the peg it currently sits on.
type PegState [NumDisks]Peg

// GenerateMoves returns the optimal move sequence for three disks.
func GenerateMoves() [NumMoves]Move {
	var moves [NumMoves]Move
	Generate(&moves)
	return moves
}

// Generate is the Gray-code solver in Generator form. Each move is derived
// in O(1) from the step number and the current peg of the smallest disk;
// there is no recursion and no stack simulation.
func Generate(moves *[NumMoves]Move) {
	var pos PegState // all disks start on A

	for n := uint32(1); n <= NumMoves; n++ {
		disk := diskFor(GrayChange(n))

		from := pos[disk]
		var to Peg
		if disk == Disk0 {
			// smallest disk rotates A -> C -> B -> A
			to = from + 2
			if to >= 3 {
				to -= 3
			}
		} else {
			// the only peg holding neither this disk nor the smallest one
			to = 3 - from - pos[Disk0]
		}

		moves[n-1] = Move{
			Disk: disk.Number(),
			From: from.Letter(),
			To:   to.Letter(),
		}
		pos[disk] = to
	}
}

// Reference solves the puzzle with the classical recursion. It exists to
// cross-check Generate and is not used by the kernel itself.
func Reference(moves *[NumMoves]Move) {
	i := 0
	var solve func(n uint32, from, to, spare Peg)
	solve = func(n uint32, from, to, spare Peg) {
		if n == 0 {
			return
		}
		solve(n-1, from, spare, to)
		moves[i] = Move{Disk: n, From: from.Letter(), To: to.Letter()}
		i++
		solve(n-1, spare, to, from)
	}
	solve(NumDisks, PegA, PegC, PegB)
}
