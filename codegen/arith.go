package codegen

import (
	"fmt"
	"math"

	"github.com/sarchlab/aarch64run/cpu"
	"github.com/sarchlab/aarch64run/ir"
)

type binOp func(t ir.Type, lhs, rhs uint64) uint64

func opAdd(t ir.Type, lhs, rhs uint64) uint64 { return maskTo(t, lhs+rhs) }
func opSub(t ir.Type, lhs, rhs uint64) uint64 { return maskTo(t, lhs-rhs) }
func opMul(t ir.Type, lhs, rhs uint64) uint64 { return maskTo(t, lhs*rhs) }
func opAnd(t ir.Type, lhs, rhs uint64) uint64 { return maskTo(t, lhs&rhs) }
func opOr(t ir.Type, lhs, rhs uint64) uint64  { return maskTo(t, lhs|rhs) }
func opXor(t ir.Type, lhs, rhs uint64) uint64 { return maskTo(t, lhs^rhs) }

// compileArith and compileBitwise both just mask the raw uint64 result
// to the node's declared width; two's-complement wrapping arithmetic and
// bitwise ops don't otherwise care whether the type is signed.
func compileArith(t ir.Type, lhsOp, rhsOp ir.Operand, op binOp) CompiledCode {
	lhs, rhs := compileOperand(lhsOp), compileOperand(rhsOp)
	return func(c *cpu.CPU) Value {
		return fromU64(t, op(t, lhs(c).U64(), rhs(c).U64()))
	}
}

func compileBitwise(t ir.Type, lhsOp, rhsOp ir.Operand, op binOp) CompiledCode {
	lhs, rhs := compileOperand(lhsOp), compileOperand(rhsOp)
	return func(c *cpu.CPU) Value {
		return fromU64(t, op(t, lhs(c).U64(), rhs(c).U64()))
	}
}

func compileNot(t ir.Type, operandExpr ir.Operand) CompiledCode {
	x := compileOperand(operandExpr)
	return func(c *cpu.CPU) Value { return fromU64(t, maskTo(t, ^x(c).U64())) }
}

// compileDiv implements AArch64 SDIV/UDIV semantics: division by zero
// yields zero rather than trapping. Float operands perform IEEE
// division instead.
func compileDiv(t ir.Type, lhsOp, rhsOp ir.Operand) CompiledCode {
	lhs, rhs := compileOperand(lhsOp), compileOperand(rhsOp)

	if t.IsFloat() {
		if t == ir.F32 {
			return func(c *cpu.CPU) Value {
				r := lhs(c).F32() / rhs(c).F32()
				return Value{Type: t, Lo: uint64(math.Float32bits(r))}
			}
		}
		return func(c *cpu.CPU) Value {
			r := lhs(c).F64() / rhs(c).F64()
			return Value{Type: t, Lo: math.Float64bits(r)}
		}
	}

	if t.IsSigned() {
		return func(c *cpu.CPU) Value {
			l := signExtend(t, lhs(c).U64())
			r := signExtend(t, rhs(c).U64())
			if r == 0 {
				return fromU64(t, 0)
			}
			return fromU64(t, uint64(l/r))
		}
	}
	return func(c *cpu.CPU) Value {
		l, r := lhs(c).U64(), rhs(c).U64()
		if r == 0 {
			return fromU64(t, 0)
		}
		return fromU64(t, l/r)
	}
}

// compileCarry evaluates the plain Add/Sub result while also invoking
// the CPU's FlagPolicy, matching ADDS/CMN/ADCS (sub=false) and
// SUBS/CMP/SBCS (sub=true).
func compileCarry(t ir.Type, lhsOp, rhsOp ir.Operand, sub bool) CompiledCode {
	lhs, rhs := compileOperand(lhsOp), compileOperand(rhsOp)
	return func(c *cpu.CPU) Value {
		l, r := lhs(c).U64(), rhs(c).U64()
		if sub {
			c.FlagPolicy().SubCarry(t, l, r, c)
			return fromU64(t, opSub(t, l, r))
		}
		c.FlagPolicy().AddCarry(t, l, r, c)
		return fromU64(t, opAdd(t, l, r))
	}
}

// compileLogicFlags evaluates the already-computed bitwise Operand and
// additionally invokes SetLogicFlags on the result, matching
// ANDS/TST/BICS.
func compileLogicFlags(t ir.Type, operandExpr ir.Operand) CompiledCode {
	x := compileOperand(operandExpr)
	return func(c *cpu.CPU) Value {
		v := x(c)
		c.FlagPolicy().SetLogicFlags(t, v.U64(), c)
		return v
	}
}

type shiftOp func(t ir.Type, v uint64, amount uint) uint64

func shiftLogicalLeft(t ir.Type, v uint64, amount uint) uint64 {
	return maskTo(t, v<<amount)
}

func shiftLogicalRight(t ir.Type, v uint64, amount uint) uint64 {
	return maskTo(t, maskTo(t, v)>>amount)
}

func shiftArithRight(t ir.Type, v uint64, amount uint) uint64 {
	return maskTo(t, uint64(signExtend(t, v)>>amount))
}

func shiftRotateRight(t ir.Type, v uint64, amount uint) uint64 {
	w := uint(t.Bitwidth())
	x := maskTo(t, v)
	amount %= w
	if amount == 0 {
		return x
	}
	return maskTo(t, (x>>amount)|(x<<(w-amount)))
}

// compileShift reduces the shift amount modulo the operand's bit width,
// matching AArch64 LSLV/LSRV/ASRV/RORV.
func compileShift(t ir.Type, lhsOp, rhsOp ir.Operand, op shiftOp) CompiledCode {
	lhs, rhs := compileOperand(lhsOp), compileOperand(rhsOp)
	w := uint(t.Bitwidth())
	return func(c *cpu.CPU) Value {
		amount := uint(rhs(c).U64()) % w
		return fromU64(t, op(t, lhs(c).U64(), amount))
	}
}

// compileLoad reads Type-sized, little-endian bytes at Addr. A fault
// (address outside every mapped region) is fatal: it panics with the
// underlying *cpu.BadMemory rather than returning an error, since
// CompiledCode has no error channel and an unmapped access means the
// translated program itself is broken.
func compileLoad(t ir.Type, addrOp ir.Operand) CompiledCode {
	addr := compileOperand(addrOp)
	return func(c *cpu.CPU) Value {
		frame := c.Mem(addr(c).U64())
		switch t {
		case ir.Bool:
			v, err := frame.ReadU8()
			mustLoad(err)
			return fromBool(v&1 != 0)
		case ir.U8, ir.I8:
			v, err := frame.ReadU8()
			mustLoad(err)
			return fromU64(t, uint64(v))
		case ir.U16, ir.I16:
			v, err := frame.ReadU16()
			mustLoad(err)
			return fromU64(t, uint64(v))
		case ir.U32, ir.I32, ir.F32:
			v, err := frame.ReadU32()
			mustLoad(err)
			return fromU64(t, uint64(v))
		case ir.U64, ir.I64, ir.F64:
			v, err := frame.ReadU64()
			mustLoad(err)
			return fromU64(t, v)
		default:
			if t.IsVector() {
				buf := make([]byte, t.VectorLanes()*uint8(t.VectorElem().Bitwidth()/8))
				mustLoad(frame.Read(buf))
				return fromLane128(t, lane128FromBytes(buf))
			}
			panic(fmt.Sprintf("codegen: Load has no lowering for %v", t))
		}
	}
}

func mustLoad(err error) {
	if err != nil {
		panic(err)
	}
}

func lane128FromBytes(buf []byte) cpu.Lane128 {
	var l cpu.Lane128
	for i := 0; i < len(buf) && i < 8; i++ {
		l.Lo |= uint64(buf[i]) << (8 * i)
	}
	for i := 8; i < len(buf) && i < 16; i++ {
		l.Hi |= uint64(buf[i]) << (8 * (i - 8))
	}
	return l
}

func compileZextCast(t ir.Type, operandExpr ir.Operand) CompiledCode {
	x := compileOperand(operandExpr)
	return func(c *cpu.CPU) Value { return fromU64(t, x(c).U64()) }
}

func compileSextCast(t ir.Type, operandExpr ir.Operand) CompiledCode {
	x := compileOperand(operandExpr)
	return func(c *cpu.CPU) Value {
		src := x(c)
		return fromU64(t, uint64(signExtend(src.Type, src.U64())))
	}
}

func compileBitCast(t ir.Type, operandExpr ir.Operand) CompiledCode {
	x := compileOperand(operandExpr)
	return func(c *cpu.CPU) Value {
		src := x(c)
		return Value{Type: t, Lo: src.Lo, Hi: src.Hi}
	}
}

func compileIf(t ir.Type, condOp, thenOp, elseOp ir.Operand) CompiledCode {
	cond := compileOperand(condOp)
	thenC := compileOperand(thenOp)
	elseC := compileOperand(elseOp)
	return func(c *cpu.CPU) Value {
		if cond(c).Bool() {
			return thenC(c)
		}
		return elseC(c)
	}
}

type cmpOp func(t ir.Type, lhs, rhs uint64) bool

func cmpEq(t ir.Type, lhs, rhs uint64) bool { return maskTo(t, lhs) == maskTo(t, rhs) }
func cmpNe(t ir.Type, lhs, rhs uint64) bool { return maskTo(t, lhs) != maskTo(t, rhs) }

// cmpGt and cmpLt honor the operands' declared signedness, matching
// ir.CmpGt/CmpLt's own documented contract: I* compares signed, U*
// compares unsigned.
func cmpGt(t ir.Type, lhs, rhs uint64) bool {
	if t.IsSigned() {
		return signExtend(t, lhs) > signExtend(t, rhs)
	}
	return maskTo(t, lhs) > maskTo(t, rhs)
}

func cmpLt(t ir.Type, lhs, rhs uint64) bool {
	if t.IsSigned() {
		return signExtend(t, lhs) < signExtend(t, rhs)
	}
	return maskTo(t, lhs) < maskTo(t, rhs)
}

// compileCompare infers the shared operand type from Lhs since
// CmpEq/CmpNe/CmpGt/CmpLt's own GetType always reports Bool.
func compileCompare(lhsOp, rhsOp ir.Operand, op cmpOp) CompiledCode {
	lhs, rhs := compileOperand(lhsOp), compileOperand(rhsOp)
	t := lhsOp.GetType()
	return func(c *cpu.CPU) Value {
		return fromBool(op(t, lhs(c).U64(), rhs(c).U64()))
	}
}
