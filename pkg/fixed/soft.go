package fixed

// Software-only variants for targets without a multiplier or a
// leading-zero instruction (RV32I). Results are bit-identical to RSqrt and
// Distance3D for every input.

// CLZ32 counts leading zero bits with a fixed binary search.
func CLZ32(x uint32) int {
	if x == 0 {
		return 32
	}
	n := 0
	if x&0xFFFF0000 == 0 {
		n += 16
		x <<= 16
	}
	if x&0xFF000000 == 0 {
		n += 8
		x <<= 8
	}
	if x&0xF0000000 == 0 {
		n += 4
		x <<= 4
	}
	if x&0xC0000000 == 0 {
		n += 2
		x <<= 2
	}
	if x&0x80000000 == 0 {
		n++
	}
	return n
}

// Mul64 multiplies with shifts and adds, wrapping modulo 2^64.
func Mul64(a, b uint64) uint64 {
	var r uint64
	for b != 0 {
		if b&1 != 0 {
			r += a
		}
		a <<= 1
		b >>= 1
	}
	return r
}

// RSqrtSoft is RSqrt without hardware multiply or count-leading-zeros.
func RSqrtSoft(x uint32) uint32 {
	if x == 0 {
		return 0
	}

	exp := uint(31 - CLZ32(x))

	y := table[exp]
	var yNext uint32
	if exp < 31 {
		yNext = table[exp+1]
	}

	delta := y - yNext
	frac := uint32(((uint64(x) - 1<<exp) << Shift) >> exp)
	interp := uint32(Mul64(uint64(delta), uint64(frac)) >> Shift)
	y -= interp

	y2 := uint32(Mul64(uint64(y), uint64(y)))
	xy2 := uint32(Mul64(uint64(x), uint64(y2)) >> Shift)

	return uint32(Mul64(uint64(y), uint64(3<<Shift-xy2)) >> (Shift + 1))
}

// Distance3DSoft is Distance3D built on RSqrtSoft and Mul64.
func Distance3DSoft(dx, dy, dz int32) uint32 {
	d2 := softSquare(dx) + softSquare(dy) + softSquare(dz)
	if d2 > 0xFFFFFFFF {
		d2 >>= Shift
	}
	inv := RSqrtSoft(uint32(d2))
	return uint32(Mul64(d2, uint64(inv)) >> Shift)
}

func softSquare(v int32) uint64 {
	w := uint64(int64(v))
	return Mul64(w, w)
}
