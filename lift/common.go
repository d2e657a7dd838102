package lift

import (
	"math/bits"

	"github.com/sarchlab/aarch64run/arch"
	"github.com/sarchlab/aarch64run/ir"
)

// Flag bit positions, matching cpu.FlagN/FlagZ/FlagC/FlagV.
const (
	flagN = uint64(1) << 3
	flagZ = uint64(1) << 2
	flagC = uint64(1) << 1
	flagV = uint64(1) << 0
)

// gprType returns the GPR width type an sf bit selects.
func gprType(sf bool) ir.Type {
	if sf {
		return ir.U64
	}
	return ir.U32
}

// gpr builds an operand reading/writing r at width t.
func gpr(t ir.Type, r arch.Reg) ir.Operand { return ir.Gpr{Type: t, Reg: r} }

// onesMask returns a count-bit field of 1s at the low end of a size-bit
// value (count and size both in [1,64]).
func onesMask(count, size int) uint64 {
	if count >= size {
		if size == 64 {
			return ^uint64(0)
		}
		return (uint64(1) << size) - 1
	}
	return (uint64(1) << count) - 1
}

// rotateRight rotates the low size bits of v right by amount positions.
func rotateRight(v uint64, amount, size int) uint64 {
	amount %= size
	if amount == 0 {
		return v & onesMask(size, size)
	}
	m := onesMask(size, size)
	v &= m
	return ((v >> uint(amount)) | (v << uint(size-amount))) & m
}

// decodeLogicalImmediate implements the ARM architecture's
// DecodeBitMasks algorithm restricted to the logical-immediate use: it
// rejects the reserved all-ones S field the architecture disallows only
// for this form. datasize is the operation width (32 or 64).
func decodeLogicalImmediate(n bool, imms, immr uint8, datasize int) (uint64, bool) {
	nBit := 0
	if n {
		nBit = 1
	}
	combined := (nBit << 6) | int(^imms&0x3f)
	length := bits.Len8(uint8(combined)) - 1
	if length < 1 {
		return 0, false
	}
	size := 1 << uint(length)
	levels := size - 1
	r := int(immr) & levels
	s := int(imms) & levels
	if s == levels {
		return 0, false
	}
	elem := onesMask(s+1, size)
	rotated := rotateRight(elem, r, size)
	reps := datasize / size
	var wmask uint64
	for i := 0; i < reps; i++ {
		wmask |= rotated << uint(i*size)
	}
	return wmask, true
}

// bitfieldFieldWidth returns the width of the field SBFM/BFM/UBFM move,
// for the common non-wrapping case (immr <= imms). AArch64 also defines
// a wrap-around case (immr > imms) used by some rotate idioms; this
// lifter treats that rarer case as spanning the full register rather
// than failing, which is not bit-exact but keeps the instruction
// recognized instead of fatal.
func bitfieldFieldWidth(immr, imms uint8, size int) int {
	width := int(imms) - int(immr) + 1
	if width <= 0 {
		width = size
	}
	return width
}

// extendSourceType returns the narrow type an ExtendType field reads
// from a register before widening.
func extendSourceType(e arch.ExtendType) ir.Type {
	switch e {
	case arch.ExtendUXTB:
		return ir.U8
	case arch.ExtendUXTH:
		return ir.U16
	case arch.ExtendUXTW:
		return ir.U32
	case arch.ExtendUXTX:
		return ir.U64
	case arch.ExtendSXTB:
		return ir.I8
	case arch.ExtendSXTH:
		return ir.I16
	case arch.ExtendSXTW:
		return ir.I32
	default: // ExtendSXTX
		return ir.I64
	}
}

func extendIsSigned(e arch.ExtendType) bool {
	return e == arch.ExtendSXTB || e == arch.ExtendSXTH || e == arch.ExtendSXTW || e == arch.ExtendSXTX
}

// materializeExtend builds the IR for extending r per e, then shifting
// left by amount, at destination width t.
func materializeExtend(t ir.Type, e arch.ExtendType, amount uint8, r arch.Reg) ir.Node {
	narrow := gpr(extendSourceType(e), r)
	var widened ir.Node
	if extendIsSigned(e) {
		widened = ir.SextCast{Type: t, Operand: narrow}
	} else {
		widened = ir.ZextCast{Type: t, Operand: narrow}
	}
	if amount == 0 {
		return widened
	}
	return ir.LShl{Type: t, Lhs: ir.Ir{Node: widened}, Rhs: ir.ImmU64(uint64(amount))}
}

// materializeShift builds the IR for shifting r by amount per the
// AArch64 shift-type encoding, at width t.
func materializeShift(t ir.Type, st arch.ShiftType, amount uint8, r arch.Reg) ir.Node {
	src := gpr(t, r)
	switch st {
	case arch.ShiftLSL:
		return ir.LShl{Type: t, Lhs: src, Rhs: ir.ImmU64(uint64(amount))}
	case arch.ShiftLSR:
		return ir.LShr{Type: t, Lhs: src, Rhs: ir.ImmU64(uint64(amount))}
	case arch.ShiftASR:
		return ir.AShr{Type: t, Lhs: src, Rhs: ir.ImmU64(uint64(amount))}
	default: // arch.ShiftROR
		return ir.Rotr{Type: t, Lhs: src, Rhs: ir.ImmU64(uint64(amount))}
	}
}

// bit01Else wraps a Bool-valued comparison into a U64 value that is
// whenTrue or whenFalse depending on cond; pureCompareFlags and
// conditionOperand use it to combine flag bits with plain bitwise
// arithmetic instead of a dedicated boolean-algebra node set.
func bit01Else(cond ir.Node, whenTrue, whenFalse uint64) ir.Operand {
	return ir.Ir{Node: ir.If{Type: ir.U64, Cond: ir.Ir{Node: cond}, Then: ir.ImmU64(whenTrue), Else: ir.ImmU64(whenFalse)}}
}

// bit01 is bit01Else specialized to the common true->1/false->0 case.
func bit01(cond ir.Node) ir.Operand {
	return bit01Else(cond, 1, 0)
}

// conditionOperand builds a Bool operand equivalent to
// cpu.CPU.CheckCond(cond), expressed purely in terms of the packed NZCV
// Flag word so it can be used inside If nodes the lifter emits for
// conditional selects and conditional branches.
func conditionOperand(cond arch.Cond) ir.Operand {
	flagBit := func(mask uint64) ir.Operand {
		return ir.Ir{Node: ir.CmpNe{
			Type: ir.U64,
			Lhs:  ir.Ir{Node: ir.And{Type: ir.U64, Lhs: ir.Flag{}, Rhs: ir.ImmU64(mask)}},
			Rhs:  ir.ImmU64(0),
		}}
	}
	notFlagBit := func(mask uint64) ir.Operand {
		return ir.Ir{Node: ir.CmpEq{
			Type: ir.U64,
			Lhs:  ir.Ir{Node: ir.And{Type: ir.U64, Lhs: ir.Flag{}, Rhs: ir.ImmU64(mask)}},
			Rhs:  ir.ImmU64(0),
		}}
	}
	switch cond {
	case arch.CondEQ:
		return flagBit(flagZ)
	case arch.CondNE:
		return notFlagBit(flagZ)
	case arch.CondCS:
		return flagBit(flagC)
	case arch.CondCC:
		return notFlagBit(flagC)
	case arch.CondMI:
		return flagBit(flagN)
	case arch.CondPL:
		return notFlagBit(flagN)
	case arch.CondVS:
		return flagBit(flagV)
	case arch.CondVC:
		return notFlagBit(flagV)
	case arch.CondHI:
		masked := ir.Ir{Node: ir.And{Type: ir.U64, Lhs: ir.Flag{}, Rhs: ir.ImmU64(flagC | flagZ)}}
		return ir.Ir{Node: ir.CmpEq{Type: ir.U64, Lhs: masked, Rhs: ir.ImmU64(flagC)}}
	case arch.CondLS:
		masked := ir.Ir{Node: ir.And{Type: ir.U64, Lhs: ir.Flag{}, Rhs: ir.ImmU64(flagC | flagZ)}}
		return ir.Ir{Node: ir.CmpNe{Type: ir.U64, Lhs: masked, Rhs: ir.ImmU64(flagC)}}
	case arch.CondGE, arch.CondLT:
		nBit := ir.Ir{Node: ir.And{Type: ir.U64, Lhs: ir.Ir{Node: ir.LShr{Type: ir.U64, Lhs: ir.Flag{}, Rhs: ir.ImmU64(3)}}, Rhs: ir.ImmU64(1)}}
		vBit := ir.Ir{Node: ir.And{Type: ir.U64, Lhs: ir.Flag{}, Rhs: ir.ImmU64(1)}}
		xorNV := ir.Ir{Node: ir.Xor{Type: ir.U64, Lhs: nBit, Rhs: vBit}}
		if cond == arch.CondGE {
			return ir.Ir{Node: ir.CmpEq{Type: ir.U64, Lhs: xorNV, Rhs: ir.ImmU64(0)}}
		}
		return ir.Ir{Node: ir.CmpNe{Type: ir.U64, Lhs: xorNV, Rhs: ir.ImmU64(0)}}
	case arch.CondGT, arch.CondLE:
		nBit := ir.Ir{Node: ir.And{Type: ir.U64, Lhs: ir.Ir{Node: ir.LShr{Type: ir.U64, Lhs: ir.Flag{}, Rhs: ir.ImmU64(3)}}, Rhs: ir.ImmU64(1)}}
		vBit := ir.Ir{Node: ir.And{Type: ir.U64, Lhs: ir.Flag{}, Rhs: ir.ImmU64(1)}}
		xorNV := ir.Ir{Node: ir.Xor{Type: ir.U64, Lhs: nBit, Rhs: vBit}}
		zBit := ir.Ir{Node: ir.And{Type: ir.U64, Lhs: ir.Ir{Node: ir.LShr{Type: ir.U64, Lhs: ir.Flag{}, Rhs: ir.ImmU64(2)}}, Rhs: ir.ImmU64(1)}}
		combined := ir.Ir{Node: ir.Or{Type: ir.U64, Lhs: zBit, Rhs: xorNV}}
		if cond == arch.CondGT {
			return ir.Ir{Node: ir.CmpEq{Type: ir.U64, Lhs: combined, Rhs: ir.ImmU64(0)}}
		}
		return ir.Ir{Node: ir.CmpNe{Type: ir.U64, Lhs: combined, Rhs: ir.ImmU64(0)}}
	default: // AL, NV
		return ir.ImmBool(true)
	}
}

// widenTo64 zero-extends a t-width 0/1 operand to U64 for flag-word
// packing; a no-op when t is already U64.
func widenTo64(t ir.Type, op ir.Operand) ir.Operand {
	if t == ir.U64 {
		return op
	}
	return ir.Ir{Node: ir.ZextCast{Type: ir.U64, Operand: op}}
}

// pureCompareFlags computes, as a U64 operand, the packed NZCV word
// cpu.AArch64FlagPolicy's AddCarry/SubCarry would set for lhs OP rhs at
// width t — expressed as a side-effect-free expression instead of the
// FlagPolicy side effect Addc/Subc carry, so CCMP/CCMN can select
// between it and the instruction's literal NZCV field at runtime.
func pureCompareFlags(sub bool, t ir.Type, lhs, rhs ir.Operand) ir.Operand {
	signShift := ir.ImmU64(uint64(t.Bitwidth() - 1))
	signOf := func(op ir.Operand) ir.Operand {
		shifted := ir.Ir{Node: ir.LShr{Type: t, Lhs: op, Rhs: signShift}}
		return ir.Ir{Node: ir.And{Type: t, Lhs: shifted, Rhs: ir.Immediate{Type: t, Value: 1}}}
	}

	var result ir.Node
	if sub {
		result = ir.Sub{Type: t, Lhs: lhs, Rhs: rhs}
	} else {
		result = ir.Add{Type: t, Lhs: lhs, Rhs: rhs}
	}
	resultOp := ir.Ir{Node: result}

	nBit := signOf(resultOp)
	zBit := bit01(ir.CmpEq{Type: t, Lhs: resultOp, Rhs: ir.Immediate{Type: t, Value: 0}})

	var cBit ir.Operand
	if sub {
		// carry means "no borrow": lhs >= rhs, unsigned.
		cBit = bit01Else(ir.CmpLt{Type: t, Lhs: lhs, Rhs: rhs}, 0, 1)
	} else {
		// carry means unsigned wraparound: the sum is less than either operand.
		cBit = bit01(ir.CmpLt{Type: t, Lhs: resultOp, Rhs: lhs})
	}

	signL := signOf(lhs)
	signR := signOf(rhs)
	xorLR := ir.Ir{Node: ir.Xor{Type: t, Lhs: signL, Rhs: signR}}
	xorResL := ir.Ir{Node: ir.Xor{Type: t, Lhs: nBit, Rhs: signL}}
	var overflowGate ir.Operand
	if sub {
		overflowGate = xorLR
	} else {
		overflowGate = ir.Ir{Node: ir.Xor{Type: t, Lhs: xorLR, Rhs: ir.Immediate{Type: t, Value: 1}}}
	}
	vBit := ir.Ir{Node: ir.And{Type: t, Lhs: overflowGate, Rhs: xorResL}}

	n64 := widenTo64(t, nBit)
	z64 := zBit
	c64 := cBit
	v64 := widenTo64(t, vBit)

	packed := ir.Or{
		Type: ir.U64,
		Lhs: ir.Ir{Node: ir.Or{
			Type: ir.U64,
			Lhs:  ir.Ir{Node: ir.LShl{Type: ir.U64, Lhs: n64, Rhs: ir.ImmU64(3)}},
			Rhs:  ir.Ir{Node: ir.LShl{Type: ir.U64, Lhs: z64, Rhs: ir.ImmU64(2)}},
		}},
		Rhs: ir.Ir{Node: ir.Or{
			Type: ir.U64,
			Lhs:  ir.Ir{Node: ir.LShl{Type: ir.U64, Lhs: c64, Rhs: ir.ImmU64(1)}},
			Rhs:  v64,
		}},
	}
	return ir.Ir{Node: packed}
}
