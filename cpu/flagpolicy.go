package cpu

import "github.com/sarchlab/aarch64run/ir"

// Flag bit positions within the packed NZCV word, matching how
// Component E's Flag operand documents the layout.
const (
	FlagN = uint64(1) << 3
	FlagZ = uint64(1) << 2
	FlagC = uint64(1) << 1
	FlagV = uint64(1) << 0
)

// FlagPolicy computes and stores NZCV given the operands of an S-form
// arithmetic or logical instruction. It is an interface, not a fixed
// function, so tests can substitute a stub policy that records calls
// instead of computing real AArch64 flags.
type FlagPolicy interface {
	// AddCarry updates NZCV for an add of lhs+rhs at the given width,
	// matching ADDS/CMN/ADCS semantics.
	AddCarry(t ir.Type, lhs, rhs uint64, c *CPU)
	// SubCarry updates NZCV for a subtract of lhs-rhs at the given
	// width, matching SUBS/CMP/SBCS semantics.
	SubCarry(t ir.Type, lhs, rhs uint64, c *CPU)
	// SetLogicFlags updates NZ from result and clears CV, matching
	// ANDS/TST/BICS semantics.
	SetLogicFlags(t ir.Type, result uint64, c *CPU)
}

// AArch64FlagPolicy is the default FlagPolicy, computing NZCV exactly as
// the architecture specifies for ADDS/SUBS/ANDS-family instructions.
type AArch64FlagPolicy struct{}

func mask(t ir.Type) uint64 {
	w := t.Bitwidth()
	if w == 64 {
		return ^uint64(0)
	}
	return (uint64(1) << w) - 1
}

func signBit(t ir.Type) uint64 {
	return uint64(1) << (t.Bitwidth() - 1)
}

func (AArch64FlagPolicy) AddCarry(t ir.Type, lhs, rhs uint64, c *CPU) {
	m := mask(t)
	l, r := lhs&m, rhs&m
	sum := (l + r) & m
	carry := l+r > m
	signL := l&signBit(t) != 0
	signR := r&signBit(t) != 0
	signSum := sum&signBit(t) != 0
	overflow := signL == signR && signSum != signL

	c.SetNZCV(sum&signBit(t) != 0, sum == 0, carry, overflow)
}

func (AArch64FlagPolicy) SubCarry(t ir.Type, lhs, rhs uint64, c *CPU) {
	m := mask(t)
	l, r := lhs&m, rhs&m
	diff := (l - r) & m
	borrow := l >= r // AArch64 carry-out on subtract is "no borrow"
	signL := l&signBit(t) != 0
	signR := r&signBit(t) != 0
	signDiff := diff&signBit(t) != 0
	overflow := signL != signR && signDiff != signL

	c.SetNZCV(diff&signBit(t) != 0, diff == 0, borrow, overflow)
}

func (AArch64FlagPolicy) SetLogicFlags(t ir.Type, result uint64, c *CPU) {
	m := mask(t)
	r := result & m
	c.SetNZCV(r&signBit(t) != 0, r == 0, false, false)
}
