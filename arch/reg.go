// Package arch names the AArch64 architectural state the decoder,
// lifter, IR, and CPU all need to agree on: register identifiers,
// condition codes, and the shift/extend kinds that appear in register
// operands. It has no dependencies so every other package can import it
// without creating a cycle.
package arch

import "fmt"

// Reg identifies a general-purpose register. The decoder resolves raw
// 5-bit register fields to a Reg rather than handing the lifter a bare
// index, so the lifter can branch on semantic role (XZR reads as zero
// and discards writes; SP does not) without re-deriving it from context.
type Reg uint8

// General-purpose register identifiers. X0..X30 double as W0..W30 in
// 32-bit contexts; the width lives on the IR type, not the register id.
const (
	X0 Reg = iota
	X1
	X2
	X3
	X4
	X5
	X6
	X7
	X8
	X9
	X10
	X11
	X12
	X13
	X14
	X15
	X16
	X17
	X18
	X19
	X20
	X21
	X22
	X23
	X24
	X25
	X26
	X27
	X28
	X29
	X30
	// XZR is the zero register: architectural index 31 when the encoding
	// treats it as a source/destination rather than the stack pointer.
	XZR
	// SP is the stack pointer: architectural index 31 when the encoding
	// treats it as the stack pointer rather than the zero register.
	SP
)

func (r Reg) String() string {
	switch {
	case r <= X30:
		return fmt.Sprintf("X%d", r)
	case r == XZR:
		return "XZR"
	case r == SP:
		return "SP"
	default:
		return fmt.Sprintf("Reg(%d)", uint8(r))
	}
}

// FromIndex resolves a raw 5-bit register field to a Reg. spMeaning31
// selects which architectural register index 31 denotes in the encoding
// being decoded: AArch64 overloads bit pattern 11111 as either the zero
// register or the stack pointer depending on the instruction.
func FromIndex(idx uint8, spMeaning31 bool) Reg {
	if idx == 31 {
		if spMeaning31 {
			return SP
		}
		return XZR
	}
	return Reg(idx)
}

// VReg identifies a 128-bit vector/floating-point register (V0..V31),
// whose low bits alias Q/D/S/H/B views depending on the instruction's
// element size.
type VReg uint8

// Vector/floating-point register identifiers.
const (
	V0 VReg = iota
	V1
	V2
	V3
	V4
	V5
	V6
	V7
	V8
	V9
	V10
	V11
	V12
	V13
	V14
	V15
	V16
	V17
	V18
	V19
	V20
	V21
	V22
	V23
	V24
	V25
	V26
	V27
	V28
	V29
	V30
	V31
)

func (v VReg) String() string {
	return fmt.Sprintf("V%d", uint8(v))
}

// VRegFromIndex resolves a raw 5-bit vector register field.
func VRegFromIndex(idx uint8) VReg {
	return VReg(idx & 0x1F)
}
