// Package codegen compiles the typed IR (package ir) into closures over
// CPU state: CompiledCode for expressions, plus statement and block
// compilers that turn a lifted ir.BasicBlock into one executable unit.
// A small peephole table is applied before generic per-width lowering,
// mirroring the interpreter codegen design the teacher's own emulator
// never needed (the teacher interprets AArch64 straight into register
// writes; this package exists because the lifter now sits between
// decode and execution).
package codegen

import (
	"math"

	"github.com/sarchlab/aarch64run/cpu"
	"github.com/sarchlab/aarch64run/ir"
)

// Value is the 128-bit tagged scratch word every compiled expression
// produces. Lo carries every scalar result (bool, integer, or the raw
// bits of a float); Hi is only meaningful for a 128-bit vector result.
// Accessors reinterpret Lo/Hi rather than converting, matching the
// "tagged scratch word" contract: a result is produced once, at its
// declared type, and read back through whichever accessor the caller's
// own type expects.
type Value struct {
	Type   ir.Type
	Lo, Hi uint64
}

// Bool reads a Bool-typed Value.
func (v Value) Bool() bool { return v.Lo&1 != 0 }

// U8, U16, U32, U64 reinterpret Lo as the named unsigned width.
func (v Value) U8() uint8   { return uint8(v.Lo) }
func (v Value) U16() uint16 { return uint16(v.Lo) }
func (v Value) U32() uint32 { return uint32(v.Lo) }
func (v Value) U64() uint64 { return v.Lo }

// I8, I16, I32, I64 reinterpret Lo as the named signed width.
func (v Value) I8() int8   { return int8(v.Lo) }
func (v Value) I16() int16 { return int16(v.Lo) }
func (v Value) I32() int32 { return int32(v.Lo) }
func (v Value) I64() int64 { return int64(v.Lo) }

// F32, F64 reinterpret Lo's low bits as an IEEE float.
func (v Value) F32() float32 { return math.Float32frombits(uint32(v.Lo)) }
func (v Value) F64() float64 { return math.Float64frombits(v.Lo) }

// Lane128 reinterprets the full scratch word as a vector/FPR payload.
func (v Value) Lane128() cpu.Lane128 { return cpu.Lane128{Lo: v.Lo, Hi: v.Hi} }

// fromBool, fromU64, fromLane128 build scratch words for the handful of
// leaf/cast producers that don't go through the generic per-width table.
func fromBool(b bool) Value {
	if b {
		return Value{Type: ir.Bool, Lo: 1}
	}
	return Value{Type: ir.Bool, Lo: 0}
}

func fromU64(t ir.Type, v uint64) Value { return Value{Type: t, Lo: maskTo(t, v)} }

func fromLane128(t ir.Type, l cpu.Lane128) Value { return Value{Type: t, Lo: l.Lo, Hi: l.Hi} }

// maskTo truncates v to t's scalar bit width, leaving Bool/Void/vector
// values untouched (Bool is always stored as exactly 0 or 1 by its
// producers; vector values carry their own width in Hi/Lo together).
func maskTo(t ir.Type, v uint64) uint64 {
	if t == ir.Bool || t == ir.Void || t.IsVector() {
		return v
	}
	w := t.Bitwidth()
	if w == 64 {
		return v
	}
	return v & ((uint64(1) << uint(w)) - 1)
}

// signExtend sign-extends the low bitwidth(t) bits of v to a full int64,
// used by AShr and the signed Div/compare paths.
func signExtend(t ir.Type, v uint64) int64 {
	w := uint(t.Bitwidth())
	shift := 64 - w
	return int64(v<<shift) >> shift
}
