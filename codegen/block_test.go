package codegen_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/aarch64run/arch"
	"github.com/sarchlab/aarch64run/codegen"
	"github.com/sarchlab/aarch64run/cpu"
	"github.com/sarchlab/aarch64run/ir"
)

var _ = Describe("CompileBlock", func() {
	var c *cpu.CPU

	BeforeEach(func() {
		c = cpu.New(cpu.NewMemory())
	})

	It("replays ADD X1, X1, #1 end to end, incrementing X1 and ip", func() {
		b := ir.NewBasicBlock(0x1000)
		b.Append(
			ir.WriteGpr{Reg: arch.X1, Value: ir.Add{
				Type: ir.U64,
				Lhs:  ir.Gpr{Type: ir.U64, Reg: arch.X1},
				Rhs:  ir.Immediate{Type: ir.U64, Value: 1},
			}},
			ir.WriteIp{Value: ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmU64(4)}},
		)

		c.SetIp(0x1000)
		c.Gpr.Write(arch.X1, 41)

		codegen.CompileBlock(b)(c)

		Expect(c.Gpr.Read(arch.X1)).To(Equal(uint64(42)))
		Expect(c.Ip()).To(Equal(uint64(0x1004)))
	})

	It("replays a SUBS-driven branch: CMP then B.EQ taken", func() {
		b := ir.NewBasicBlock(0x2000)
		b.Append(
			ir.WriteGpr{Reg: arch.XZR, Value: ir.Subc{
				Type: ir.U64,
				Lhs:  ir.Gpr{Type: ir.U64, Reg: arch.X0},
				Rhs:  ir.Gpr{Type: ir.U64, Reg: arch.X1},
			}},
			ir.WriteIp{Value: ir.If{
				Type: ir.U64,
				Cond: ir.Ir{Node: ir.CmpNe{
					Type: ir.U64,
					Lhs:  ir.Ir{Node: ir.And{Type: ir.U64, Lhs: ir.Flag{}, Rhs: ir.ImmU64(cpu.FlagZ)}},
					Rhs:  ir.ImmU64(0),
				}},
				Then: ir.Ir{Node: ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmI64(16)}},
				Else: ir.Ir{Node: ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmU64(4)}},
			}},
		)

		c.SetIp(0x2000)
		c.Gpr.Write(arch.X0, 7)
		c.Gpr.Write(arch.X1, 7)

		codegen.CompileBlock(b)(c)

		Expect(c.Ip()).To(Equal(uint64(0x2010)))
	})
})
