package codegen

import (
	"fmt"

	"github.com/sarchlab/aarch64run/cpu"
	"github.com/sarchlab/aarch64run/ir"
)

// Compile walks one IR expression and returns the closure that
// evaluates it. The peephole table runs first, in the order listed
// below (order matters: later rules assume earlier ones already
// handled their shape); anything the peephole table doesn't match
// falls through to generic per-node-kind, per-width lowering.
func Compile(n ir.Node) CompiledCode {
	if code, ok := peephole(n); ok {
		return code
	}
	return compileGeneric(n)
}

func asImmediate(op ir.Operand) (ir.Immediate, bool) {
	imm, ok := op.(ir.Immediate)
	return imm, ok
}

func isIp(op ir.Operand) bool {
	_, ok := op.(ir.Ip)
	return ok
}

// peephole implements spec-mandated rules 1-9. It reports ok=false when
// n doesn't match any rule's shape, so the caller falls back to generic
// lowering.
func peephole(n ir.Node) (CompiledCode, bool) {
	switch node := n.(type) {
	case ir.Add:
		if node.Type == ir.U64 && isIp(node.Lhs) {
			if imm, ok := asImmediate(node.Rhs); ok {
				switch imm.Type {
				case ir.I64: // rule 1
					k := int64(imm.Value)
					return func(c *cpu.CPU) Value {
						return fromU64(ir.U64, uint64(int64(c.Ip())+k))
					}, true
				case ir.U64: // rule 2
					k := imm.Value
					return func(c *cpu.CPU) Value { return fromU64(ir.U64, c.Ip()+k) }, true
				}
			}
		}

	case ir.Value:
		if embedded, ok := node.Operand.(ir.Ir); ok { // rule 3
			return Compile(embedded.Node), true
		}
		if imm, ok := asImmediate(node.Operand); ok { // rule 4
			v := fromU64(imm.Type, imm.Value)
			return func(*cpu.CPU) Value { return v }, true
		}
		if g, ok := node.Operand.(ir.Gpr); ok { // rule 5
			t, r := g.Type, g.Reg
			return func(c *cpu.CPU) Value { return fromU64(t, c.Gpr.Read(r)) }, true
		}

	case ir.LShr:
		if imm, ok := asImmediate(node.Rhs); ok { // rule 6
			x := compileOperand(node.Lhs)
			t := node.Type
			k := uint(imm.Value) % uint(t.Bitwidth())
			return func(c *cpu.CPU) Value {
				v := x(c).U64()
				return fromU64(t, v>>k)
			}, true
		}

	case ir.And:
		if node.Type == ir.U64 {
			if _, ok := node.Lhs.(ir.Flag); ok { // rule 7
				if imm, ok := asImmediate(node.Rhs); ok && imm.Type == ir.U64 {
					k := imm.Value
					return func(c *cpu.CPU) Value { return fromU64(ir.U64, c.Flag()&k) }, true
				}
			}
		}
		if l, lok := asImmediate(node.Lhs); lok {
			if r, rok := asImmediate(node.Rhs); rok { // rule 8
				v := fromU64(node.Type, l.Value&r.Value)
				return func(*cpu.CPU) Value { return v }, true
			}
		}

	case ir.If:
		if imm, ok := asImmediate(node.Cond); ok && imm.Type == ir.Bool { // rule 9
			if imm.Value != 0 {
				return compileOperand(node.Then), true
			}
			return compileOperand(node.Else), true
		}
	}
	return nil, false
}

func compileGeneric(n ir.Node) CompiledCode {
	switch node := n.(type) {
	case ir.Add:
		return compileArith(node.Type, node.Lhs, node.Rhs, opAdd)
	case ir.Sub:
		return compileArith(node.Type, node.Lhs, node.Rhs, opSub)
	case ir.Mul:
		return compileArith(node.Type, node.Lhs, node.Rhs, opMul)
	case ir.Div:
		return compileDiv(node.Type, node.Lhs, node.Rhs)

	case ir.Addc:
		return compileCarry(node.Type, node.Lhs, node.Rhs, false)
	case ir.Subc:
		return compileCarry(node.Type, node.Lhs, node.Rhs, true)
	case ir.LogicFlags:
		return compileLogicFlags(node.Type, node.Operand)

	case ir.And:
		return compileBitwise(node.Type, node.Lhs, node.Rhs, opAnd)
	case ir.Or:
		return compileBitwise(node.Type, node.Lhs, node.Rhs, opOr)
	case ir.Xor:
		return compileBitwise(node.Type, node.Lhs, node.Rhs, opXor)
	case ir.Not:
		return compileNot(node.Type, node.Operand)

	case ir.LShl:
		return compileShift(node.Type, node.Lhs, node.Rhs, shiftLogicalLeft)
	case ir.LShr:
		return compileShift(node.Type, node.Lhs, node.Rhs, shiftLogicalRight)
	case ir.AShr:
		return compileShift(node.Type, node.Lhs, node.Rhs, shiftArithRight)
	case ir.Rotr:
		return compileShift(node.Type, node.Lhs, node.Rhs, shiftRotateRight)

	case ir.Load:
		return compileLoad(node.Type, node.Addr)

	case ir.ZextCast:
		return compileZextCast(node.Type, node.Operand)
	case ir.SextCast:
		return compileSextCast(node.Type, node.Operand)
	case ir.BitCast:
		return compileBitCast(node.Type, node.Operand)

	case ir.If:
		return compileIf(node.Type, node.Cond, node.Then, node.Else)

	case ir.Value:
		return compileOperand(node.Operand)

	case ir.Nop:
		return func(*cpu.CPU) Value { return Value{Type: ir.Void} }

	case ir.CmpEq:
		return compileCompare(node.Lhs, node.Rhs, cmpEq)
	case ir.CmpNe:
		return compileCompare(node.Lhs, node.Rhs, cmpNe)
	case ir.CmpGt:
		return compileCompare(node.Lhs, node.Rhs, cmpGt)
	case ir.CmpLt:
		return compileCompare(node.Lhs, node.Rhs, cmpLt)

	default:
		panic(fmt.Sprintf("codegen: unhandled node %T", n))
	}
}
