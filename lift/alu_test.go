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

var _ = Describe("liftALU", func() {
	var b *ir.BasicBlock

	BeforeEach(func() {
		b = ir.NewBasicBlock(0x1000)
	})

	It("lifts ADD X1, X1, #1 to a plain Add plus ip+=4", func() {
		inst := insts.AddImm{Operands: insts.AddSubImmRecord{
			Sf: true, Shift: false, Imm12: 1, Rn: arch.X1, Rd: arch.X1,
		}}
		Expect(lift.Lift(inst, b)).To(Succeed())

		want := []ir.Statement{
			ir.WriteGpr{Reg: arch.X1, Value: ir.Add{
				Type: ir.U64,
				Lhs:  ir.Gpr{Type: ir.U64, Reg: arch.X1},
				Rhs:  ir.Immediate{Type: ir.U64, Value: 1},
			}},
			ir.WriteIp{Value: ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmU64(4)}},
		}
		Expect(cmp.Diff(want, b.Stmts)).To(BeEmpty())
	})

	It("lifts CMP X0, X1 (SUBS XZR, X0, X1) to a flag-setting Subc", func() {
		inst := insts.SubsShiftedReg{Operands: insts.ShiftedRegRecord{
			Sf: true, ShiftType: arch.ShiftLSL, Imm6: 0, Rm: arch.X1, Rn: arch.X0, Rd: arch.XZR,
		}}
		Expect(lift.Lift(inst, b)).To(Succeed())

		want := []ir.Statement{
			ir.WriteGpr{Reg: arch.XZR, Value: ir.Subc{
				Type: ir.U64,
				Lhs:  ir.Gpr{Type: ir.U64, Reg: arch.X0},
				Rhs: ir.Ir{Node: ir.LShl{
					Type: ir.U64,
					Lhs:  ir.Gpr{Type: ir.U64, Reg: arch.X1},
					Rhs:  ir.ImmU64(0),
				}},
			}},
			ir.WriteIp{Value: ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmU64(4)}},
		}
		Expect(cmp.Diff(want, b.Stmts)).To(BeEmpty())
	})

	It("lifts MOVZ X0, #0x2A to a plain immediate write", func() {
		inst := insts.Movz{Operands: insts.MoveWideRecord{Sf: true, Hw: 0, Imm16: 42, Rd: arch.X0}}
		Expect(lift.Lift(inst, b)).To(Succeed())

		want := []ir.Statement{
			ir.WriteGpr{Reg: arch.X0, Value: ir.Value{
				Type:    ir.U64,
				Operand: ir.Immediate{Type: ir.U64, Value: 42},
			}},
			ir.WriteIp{Value: ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmU64(4)}},
		}
		Expect(cmp.Diff(want, b.Stmts)).To(BeEmpty())
	})

	It("lifts ANDS to a LogicFlags-wrapped bitwise And", func() {
		inst := insts.AndsImm{Operands: insts.LogicalImmRecord{
			Sf: true, N: false, Immr: 0, Imms: 0, Rn: arch.X2, Rd: arch.X3,
		}}
		Expect(lift.Lift(inst, b)).To(Succeed())

		Expect(b.Stmts).To(HaveLen(2))
		write, ok := b.Stmts[0].(ir.WriteGpr)
		Expect(ok).To(BeTrue())
		Expect(write.Reg).To(Equal(arch.X3))
		lf, ok := write.Value.(ir.LogicFlags)
		Expect(ok).To(BeTrue())
		Expect(lf.Type).To(Equal(ir.U64))
	})

	It("lifts CCMP into a single WriteFlag selecting computed flags vs the literal NZCV", func() {
		inst := insts.CcmpImm{Operands: insts.CondCompareImmRecord{
			Sf: true, Imm5: 3, Cond: arch.CondEQ, Rn: arch.X4, Nzcv: 0b0100,
		}}
		Expect(lift.Lift(inst, b)).To(Succeed())

		Expect(b.Stmts).To(HaveLen(2))
		wf, ok := b.Stmts[0].(ir.WriteFlag)
		Expect(ok).To(BeTrue())
		ifNode, ok := wf.Value.(ir.If)
		Expect(ok).To(BeTrue())
		Expect(ifNode.Type).To(Equal(ir.U64))
		elseImm, ok := ifNode.Else.(ir.Immediate)
		Expect(ok).To(BeTrue())
		Expect(elseImm.Value).To(Equal(uint64(0b0100)))
	})

	It("lifts UBFM into a rotate-then-mask sequence", func() {
		inst := insts.Ubfm{Operands: insts.BitfieldRecord{
			Sf: true, N: true, Immr: 4, Imms: 11, Rn: arch.X5, Rd: arch.X6,
		}}
		Expect(lift.Lift(inst, b)).To(Succeed())

		Expect(b.Stmts).To(HaveLen(2))
		write, ok := b.Stmts[0].(ir.WriteGpr)
		Expect(ok).To(BeTrue())
		Expect(write.Reg).To(Equal(arch.X6))
		_, ok = write.Value.(ir.And)
		Expect(ok).To(BeTrue())
	})

	It("lifts an extended-register ADD with the extend materialized before the add", func() {
		inst := insts.AddExtendedReg{Operands: insts.ExtendedRegRecord{
			Sf: true, ExtendType: arch.ExtendUXTW, Imm3: 2, Rm: arch.X7, Rn: arch.X8, Rd: arch.X9,
		}}
		Expect(lift.Lift(inst, b)).To(Succeed())

		write, ok := b.Stmts[0].(ir.WriteGpr)
		Expect(ok).To(BeTrue())
		add, ok := write.Value.(ir.Add)
		Expect(ok).To(BeTrue())
		shifted, ok := add.Rhs.(ir.Ir).Node.(ir.LShl)
		Expect(ok).To(BeTrue())
		_, ok = shifted.Lhs.(ir.Ir).Node.(ir.ZextCast)
		Expect(ok).To(BeTrue())
	})

	It("rejects a reserved logical-immediate encoding without advancing ip twice", func() {
		inst := insts.AndImm{Operands: insts.LogicalImmRecord{
			Sf: true, N: true, Immr: 0, Imms: 63, Rn: arch.X0, Rd: arch.X1,
		}}
		Expect(lift.Lift(inst, b)).To(Succeed())

		Expect(b.Stmts).To(HaveLen(2))
		_, ok := b.Stmts[0].(ir.Eval)
		Expect(ok).To(BeTrue())
		_, ok = b.Stmts[1].(ir.WriteIp)
		Expect(ok).To(BeTrue())
	})
})
