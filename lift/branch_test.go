package lift_test

import (
	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/aarch64run/arch"
	"github.com/sarchlab/aarch64run/insts"
	"github.com/sarchlab/aarch64run/ir"
	"github.com/sarchlab/aarch64run/lift"
)

var _ = Describe("liftBranch", func() {
	var b *ir.BasicBlock

	BeforeEach(func() {
		b = ir.NewBasicBlock(0x1000)
	})

	It("lifts B .+8 to a direct ip write with no +4 fallthrough", func() {
		inst := insts.B{Operands: insts.BranchImmRecord{Imm: 8}}
		Expect(lift.Lift(inst, b)).To(Succeed())

		want := []ir.Statement{
			ir.WriteIp{Value: ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmI64(8)}},
		}
		Expect(cmp.Diff(want, b.Stmts)).To(BeEmpty())
	})

	It("lifts BL to save the link register before branching", func() {
		inst := insts.Bl{Operands: insts.BranchImmRecord{Imm: 0x100}}
		Expect(lift.Lift(inst, b)).To(Succeed())

		want := []ir.Statement{
			ir.WriteGpr{Reg: arch.X30, Value: ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmU64(4)}},
			ir.WriteIp{Value: ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmI64(0x100)}},
		}
		Expect(cmp.Diff(want, b.Stmts)).To(BeEmpty())
	})

	It("lifts RET to a plain ip-from-register write with no implicit +4", func() {
		inst := insts.Ret{Operands: insts.BranchRegRecord{Rn: arch.X30}}
		Expect(lift.Lift(inst, b)).To(Succeed())

		want := []ir.Statement{
			ir.WriteIp{Value: ir.Value{Type: ir.U64, Operand: ir.Gpr{Type: ir.U64, Reg: arch.X30}}},
		}
		Expect(cmp.Diff(want, b.Stmts)).To(BeEmpty())
	})

	It("lifts BLR to write the link register before reading the branch target", func() {
		inst := insts.Blr{Operands: insts.BranchRegRecord{Rn: arch.X1}}
		Expect(lift.Lift(inst, b)).To(Succeed())

		Expect(b.Stmts).To(HaveLen(2))
		_, ok := b.Stmts[0].(ir.WriteGpr)
		Expect(ok).To(BeTrue())
		Expect(b.Stmts[0].(ir.WriteGpr).Reg).To(Equal(arch.X30))
		_, ok = b.Stmts[1].(ir.WriteIp)
		Expect(ok).To(BeTrue())
	})

	It("lifts B.cond to an If selecting between the two ip candidates", func() {
		inst := insts.BCond{Operands: insts.CondBranchRecord{Imm: 16, Cond: arch.CondNE}}
		Expect(lift.Lift(inst, b)).To(Succeed())

		Expect(b.Stmts).To(HaveLen(1))
		write, ok := b.Stmts[0].(ir.WriteIp)
		Expect(ok).To(BeTrue())
		ifNode, ok := write.Value.(ir.If)
		Expect(ok).To(BeTrue())
		Expect(ifNode.Type).To(Equal(ir.U64))
	})

	It("lifts CBZ to branch on an equals-zero comparison of Rt", func() {
		inst := insts.Cbz{Operands: insts.CompareBranchRecord{Sf: false, Imm: 20, Rt: arch.X0}}
		Expect(lift.Lift(inst, b)).To(Succeed())

		write, ok := b.Stmts[0].(ir.WriteIp)
		Expect(ok).To(BeTrue())
		ifNode, ok := write.Value.(ir.If)
		Expect(ok).To(BeTrue())
		cond, ok := ifNode.Cond.(ir.Ir).Node.(ir.CmpEq)
		Expect(ok).To(BeTrue())
		Expect(cond.Type).To(Equal(ir.U32))
	})

	It("lifts TBNZ to branch on a single masked bit of Rt", func() {
		inst := insts.Tbnz{Operands: insts.TestBranchRecord{Bit: 5, Imm: 12, Rt: arch.X3}}
		Expect(lift.Lift(inst, b)).To(Succeed())

		write, ok := b.Stmts[0].(ir.WriteIp)
		Expect(ok).To(BeTrue())
		ifNode, ok := write.Value.(ir.If)
		Expect(ok).To(BeTrue())
		cond, ok := ifNode.Cond.(ir.Ir).Node.(ir.CmpNe)
		Expect(ok).To(BeTrue())
		masked, ok := cond.Lhs.(ir.Ir).Node.(ir.And)
		Expect(ok).To(BeTrue())
		Expect(masked.Rhs.(ir.Immediate).Value).To(Equal(uint64(1) << 5))
	})

	It("lifts SVC to a diagnostic marker plus the normal ip advance", func() {
		inst := insts.Svc{Operands: insts.ExceptionRecord{Imm16: 0}}
		Expect(lift.Lift(inst, b)).To(Succeed())

		want := []ir.Statement{
			ir.Eval{Node: ir.Nop{Diagnostic: "svc"}},
			ir.WriteIp{Value: ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmU64(4)}},
		}
		Expect(cmp.Diff(want, b.Stmts)).To(BeEmpty())
	})
})
