package lift

import (
	"fmt"

	"github.com/sarchlab/aarch64run/arch"
	"github.com/sarchlab/aarch64run/insts"
	"github.com/sarchlab/aarch64run/ir"
)

// liftBranch handles unconditional/conditional branches, compare-and-
// branch, test-and-branch, register branches, and the exception/hint
// family (SVC, NOP and friends). Every case sets ip itself; none falls
// through to the generic +4 advance liftALU/liftLoadStore share.
func liftBranch(inst insts.Instruction, b *ir.BasicBlock) error {
	switch v := inst.(type) {
	case insts.B:
		b.Append(ir.WriteIp{Value: ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmI64(v.Operands.Imm)}})

	case insts.Bl:
		b.Append(ir.WriteGpr{Reg: arch.X30, Value: ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmU64(4)}})
		b.Append(ir.WriteIp{Value: ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmI64(v.Operands.Imm)}})

	case insts.BCond:
		taken := ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmI64(v.Operands.Imm)}
		fallthru := ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmU64(4)}
		node := ir.If{Type: ir.U64, Cond: conditionOperand(v.Operands.Cond), Then: ir.Ir{Node: taken}, Else: ir.Ir{Node: fallthru}}
		b.Append(ir.WriteIp{Value: node})

	case insts.Cbz:
		liftCompareBranch(b, v.Operands, false)
	case insts.Cbnz:
		liftCompareBranch(b, v.Operands, true)

	case insts.Tbz:
		liftTestBranch(b, v.Operands, false)
	case insts.Tbnz:
		liftTestBranch(b, v.Operands, true)

	case insts.Br:
		b.Append(ir.WriteIp{Value: ir.Value{Type: ir.U64, Operand: gpr(ir.U64, v.Operands.Rn)}})
		return nil

	case insts.Blr:
		// The link value (ip+4) is written first, then the branch target
		// is read from Rn. BLR X30 — an unusual call-through-the-link-
		// register idiom — would observe the just-written link value
		// rather than the original one; not expected from a compiler.
		b.Append(ir.WriteGpr{Reg: arch.X30, Value: ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmU64(4)}})
		b.Append(ir.WriteIp{Value: ir.Value{Type: ir.U64, Operand: gpr(ir.U64, v.Operands.Rn)}})
		return nil

	case insts.Ret:
		b.Append(ir.WriteIp{Value: ir.Value{Type: ir.U64, Operand: gpr(ir.U64, v.Operands.Rn)}})
		return nil

	case insts.Svc:
		// The executor recognizes insts.Svc ahead of compiling its block
		// and delegates to the syscall shim directly; the IR carries only
		// a diagnostic marker plus the normal ip advance.
		diagnostic(b, "svc")
		advanceIp(b)
		return nil

	case insts.Nop:
		diagnostic(b, "hint")
		advanceIp(b)
		return nil

	default:
		trap(b, fmt.Sprintf("%T", inst))
		return nil
	}
	return nil
}

func liftCompareBranch(b *ir.BasicBlock, rec insts.CompareBranchRecord, notZero bool) {
	t := gprType(rec.Sf)
	var cond ir.Node
	if notZero {
		cond = ir.CmpNe{Type: t, Lhs: gpr(t, rec.Rt), Rhs: ir.Immediate{Type: t, Value: 0}}
	} else {
		cond = ir.CmpEq{Type: t, Lhs: gpr(t, rec.Rt), Rhs: ir.Immediate{Type: t, Value: 0}}
	}
	taken := ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmI64(rec.Imm)}
	fallthru := ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmU64(4)}
	node := ir.If{Type: ir.U64, Cond: ir.Ir{Node: cond}, Then: ir.Ir{Node: taken}, Else: ir.Ir{Node: fallthru}}
	b.Append(ir.WriteIp{Value: node})
}

func liftTestBranch(b *ir.BasicBlock, rec insts.TestBranchRecord, notZero bool) {
	masked := ir.And{Type: ir.U64, Lhs: gpr(ir.U64, rec.Rt), Rhs: ir.ImmU64(uint64(1) << rec.Bit)}
	var cond ir.Node
	if notZero {
		cond = ir.CmpNe{Type: ir.U64, Lhs: ir.Ir{Node: masked}, Rhs: ir.ImmU64(0)}
	} else {
		cond = ir.CmpEq{Type: ir.U64, Lhs: ir.Ir{Node: masked}, Rhs: ir.ImmU64(0)}
	}
	taken := ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmI64(rec.Imm)}
	fallthru := ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmU64(4)}
	node := ir.If{Type: ir.U64, Cond: ir.Ir{Node: cond}, Then: ir.Ir{Node: taken}, Else: ir.Ir{Node: fallthru}}
	b.Append(ir.WriteIp{Value: node})
}
