package codegen_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/aarch64run/arch"
	"github.com/sarchlab/aarch64run/codegen"
	"github.com/sarchlab/aarch64run/cpu"
	"github.com/sarchlab/aarch64run/ir"
)

// stubFlagPolicy records the last call made to it, letting tests observe
// Addc/Subc/LogicFlags' side effects without depending on real NZCV math.
type stubFlagPolicy struct {
	lastCall string
	lastT    ir.Type
	lastLhs  uint64
	lastRhs  uint64
}

func (s *stubFlagPolicy) AddCarry(t ir.Type, lhs, rhs uint64, c *cpu.CPU) {
	s.lastCall, s.lastT, s.lastLhs, s.lastRhs = "add", t, lhs, rhs
}

func (s *stubFlagPolicy) SubCarry(t ir.Type, lhs, rhs uint64, c *cpu.CPU) {
	s.lastCall, s.lastT, s.lastLhs, s.lastRhs = "sub", t, lhs, rhs
}

func (s *stubFlagPolicy) SetLogicFlags(t ir.Type, result uint64, c *cpu.CPU) {
	s.lastCall, s.lastT, s.lastLhs = "logic", t, result
}

var _ = Describe("Compile generic lowering", func() {
	var c *cpu.CPU

	BeforeEach(func() {
		c = cpu.New(cpu.NewMemory())
	})

	Describe("wrapping arithmetic", func() {
		It("wraps Add at the declared width", func() {
			node := ir.Add{Type: ir.U8, Lhs: ir.Immediate{Type: ir.U8, Value: 0xFF}, Rhs: ir.Immediate{Type: ir.U8, Value: 2}}
			Expect(codegen.Compile(node)(c).U8()).To(Equal(uint8(1)))
		})

		It("wraps Sub at the declared width", func() {
			node := ir.Sub{Type: ir.U16, Lhs: ir.Immediate{Type: ir.U16, Value: 0}, Rhs: ir.Immediate{Type: ir.U16, Value: 1}}
			Expect(codegen.Compile(node)(c).U16()).To(Equal(uint16(0xFFFF)))
		})

		It("multiplies and masks to the declared width", func() {
			node := ir.Mul{Type: ir.U32, Lhs: ir.Immediate{Type: ir.U32, Value: 0x10000}, Rhs: ir.Immediate{Type: ir.U32, Value: 0x10000}}
			Expect(codegen.Compile(node)(c).U32()).To(Equal(uint32(0)))
		})
	})

	Describe("Div", func() {
		It("performs unsigned division", func() {
			node := ir.Div{Type: ir.U32, Lhs: ir.Immediate{Type: ir.U32, Value: 10}, Rhs: ir.Immediate{Type: ir.U32, Value: 3}}
			Expect(codegen.Compile(node)(c).U32()).To(Equal(uint32(3)))
		})

		It("performs signed division honoring sign", func() {
			node := ir.Div{Type: ir.I32, Lhs: ir.Immediate{Type: ir.I32, Value: uint64(int32(-10))}, Rhs: ir.Immediate{Type: ir.I32, Value: 3}}
			Expect(codegen.Compile(node)(c).I32()).To(Equal(int32(-3)))
		})

		It("yields zero dividing by zero, matching SDIV/UDIV", func() {
			node := ir.Div{Type: ir.U64, Lhs: ir.Immediate{Type: ir.U64, Value: 99}, Rhs: ir.Immediate{Type: ir.U64, Value: 0}}
			Expect(codegen.Compile(node)(c).U64()).To(Equal(uint64(0)))

			signedNode := ir.Div{Type: ir.I64, Lhs: ir.Immediate{Type: ir.I64, Value: uint64(int64(-5))}, Rhs: ir.Immediate{Type: ir.I64, Value: 0}}
			Expect(codegen.Compile(signedNode)(c).I64()).To(Equal(int64(0)))
		})
	})

	Describe("flag-policy side effects", func() {
		var stub *stubFlagPolicy

		BeforeEach(func() {
			stub = &stubFlagPolicy{}
			c.SetFlagPolicy(stub)
		})

		It("invokes AddCarry for Addc and still returns the wrapped sum", func() {
			node := ir.Addc{Type: ir.U32, Lhs: ir.Immediate{Type: ir.U32, Value: 1}, Rhs: ir.Immediate{Type: ir.U32, Value: 2}}
			Expect(codegen.Compile(node)(c).U32()).To(Equal(uint32(3)))
			Expect(stub.lastCall).To(Equal("add"))
		})

		It("invokes SubCarry for Subc", func() {
			node := ir.Subc{Type: ir.U32, Lhs: ir.Immediate{Type: ir.U32, Value: 5}, Rhs: ir.Immediate{Type: ir.U32, Value: 2}}
			Expect(codegen.Compile(node)(c).U32()).To(Equal(uint32(3)))
			Expect(stub.lastCall).To(Equal("sub"))
		})

		It("invokes SetLogicFlags for LogicFlags without recomputing the bitwise result", func() {
			and := ir.And{Type: ir.U32, Lhs: ir.Immediate{Type: ir.U32, Value: 0xF}, Rhs: ir.Immediate{Type: ir.U32, Value: 0x3}}
			node := ir.LogicFlags{Type: ir.U32, Operand: ir.Ir{Node: and}}
			Expect(codegen.Compile(node)(c).U32()).To(Equal(uint32(3)))
			Expect(stub.lastCall).To(Equal("logic"))
			Expect(stub.lastLhs).To(Equal(uint64(3)))
		})
	})

	Describe("shifts", func() {
		It("reduces the shift amount modulo the operand width", func() {
			node := ir.LShl{Type: ir.U8, Lhs: ir.Immediate{Type: ir.U8, Value: 1}, Rhs: ir.Immediate{Type: ir.U8, Value: 9}}
			Expect(codegen.Compile(node)(c).U8()).To(Equal(uint8(2)))
		})

		It("arithmetic-shifts a negative signed value preserving the sign bit", func() {
			node := ir.AShr{Type: ir.I8, Lhs: ir.Immediate{Type: ir.I8, Value: uint64(uint8(0x80))}, Rhs: ir.Immediate{Type: ir.I8, Value: 4}}
			Expect(codegen.Compile(node)(c).I8()).To(Equal(int8(-8)))
		})

		It("rotates right within the declared width", func() {
			node := ir.Rotr{Type: ir.U8, Lhs: ir.Immediate{Type: ir.U8, Value: 0x01}, Rhs: ir.Immediate{Type: ir.U8, Value: 1}}
			Expect(codegen.Compile(node)(c).U8()).To(Equal(uint8(0x80)))
		})
	})

	Describe("casts", func() {
		It("zero-extends", func() {
			node := ir.ZextCast{Type: ir.U64, Operand: ir.Immediate{Type: ir.U32, Value: 0xFFFFFFFF}}
			Expect(codegen.Compile(node)(c).U64()).To(Equal(uint64(0xFFFFFFFF)))
		})

		It("sign-extends based on the source's declared width", func() {
			node := ir.SextCast{Type: ir.U64, Operand: ir.Immediate{Type: ir.I32, Value: uint64(uint32(0xFFFFFFFF))}}
			Expect(codegen.Compile(node)(c).U64()).To(Equal(uint64(0xFFFFFFFFFFFFFFFF)))
		})

		It("bit-casts without numeric conversion", func() {
			node := ir.BitCast{Type: ir.F32, Operand: ir.Immediate{Type: ir.U32, Value: 0x3F800000}}
			Expect(codegen.Compile(node)(c).F32()).To(Equal(float32(1.0)))
		})
	})

	Describe("compares", func() {
		It("compares Gt signed when the type is signed", func() {
			node := ir.CmpGt{Type: ir.I8, Lhs: ir.Immediate{Type: ir.I8, Value: uint64(uint8(0xFF))}, Rhs: ir.Immediate{Type: ir.I8, Value: 0}}
			Expect(codegen.Compile(node)(c).Bool()).To(BeFalse()) // -1 > 0 is false
		})

		It("compares Gt unsigned when the type is unsigned", func() {
			node := ir.CmpGt{Type: ir.U8, Lhs: ir.Immediate{Type: ir.U8, Value: 0xFF}, Rhs: ir.Immediate{Type: ir.U8, Value: 0}}
			Expect(codegen.Compile(node)(c).Bool()).To(BeTrue())
		})

		It("evaluates CmpEq/CmpNe", func() {
			eq := ir.CmpEq{Type: ir.U32, Lhs: ir.Immediate{Type: ir.U32, Value: 5}, Rhs: ir.Immediate{Type: ir.U32, Value: 5}}
			Expect(codegen.Compile(eq)(c).Bool()).To(BeTrue())
			ne := ir.CmpNe{Type: ir.U32, Lhs: ir.Immediate{Type: ir.U32, Value: 5}, Rhs: ir.Immediate{Type: ir.U32, Value: 6}}
			Expect(codegen.Compile(ne)(c).Bool()).To(BeTrue())
		})
	})

	Describe("memory", func() {
		It("round-trips a Load after a WriteMem through the same block", func() {
			mem := cpu.NewMemory()
			mem.MapZero(0x4000, 0x100)
			c = cpu.New(mem)

			b := ir.NewBasicBlock(0x1000)
			b.Append(ir.WriteMem{
				Type:  ir.U32,
				Addr:  ir.Immediate{Type: ir.U64, Value: 0x4010},
				Value: ir.Immediate{Type: ir.U32, Value: 0xDEADBEEF},
			})
			b.Append(ir.WriteGpr{
				Reg: arch.X0,
				Value: ir.Load{
					Type: ir.U32,
					Addr: ir.Immediate{Type: ir.U64, Value: 0x4010},
				},
			})
			codegen.CompileBlock(b)(c)

			Expect(c.Gpr.Read(arch.X0)).To(Equal(uint64(0xDEADBEEF)))
		})

		It("panics on an unmapped access", func() {
			mem := cpu.NewMemory()
			c = cpu.New(mem)
			node := ir.Load{Type: ir.U64, Addr: ir.Immediate{Type: ir.U64, Value: 0x9999}}
			Expect(func() { codegen.Compile(node)(c) }).To(Panic())
		})
	})
})
