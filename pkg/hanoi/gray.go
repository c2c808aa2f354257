package hanoi

// Gray converts a binary number to its reflected binary (Gray) code.
func Gray(v uint32) uint32 {
	return v ^ (v >> 1)
}

// GrayChange returns the single bit that flips between Gray(n-1) and Gray(n).
// n must be at least 1.
func GrayChange(n uint32) uint32 {
	return Gray(n) ^ Gray(n-1)
}

// diskFor selects the disk for a Gray-code change. Only bits 0..2 can be
// set for n <= NumMoves, so anything above bit 1 is the largest disk.
func diskFor(changed uint32) Disk {
	switch {
	case changed&1 != 0:
		return Disk0
	case changed&2 != 0:
		return Disk1
	default:
		return Disk2
	}
}
