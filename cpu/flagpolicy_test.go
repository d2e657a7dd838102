package cpu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/aarch64run/arch"
	"github.com/sarchlab/aarch64run/cpu"
	"github.com/sarchlab/aarch64run/ir"
)

var _ = Describe("AArch64FlagPolicy", func() {
	var (
		c      *cpu.CPU
		policy cpu.AArch64FlagPolicy
	)

	BeforeEach(func() {
		c = cpu.New(cpu.NewMemory())
		policy = cpu.AArch64FlagPolicy{}
	})

	Describe("AddCarry", func() {
		It("sets Z on a zero result", func() {
			policy.AddCarry(ir.U32, 1, 0xffffffff, c)
			Expect(c.Z()).To(BeTrue())
			Expect(c.C()).To(BeTrue())
		})

		It("sets V on signed overflow", func() {
			policy.AddCarry(ir.I32, 0x7fffffff, 1, c)
			Expect(c.V()).To(BeTrue())
			Expect(c.N()).To(BeTrue())
		})

		It("does not set carry when the sum fits", func() {
			policy.AddCarry(ir.U32, 1, 1, c)
			Expect(c.C()).To(BeFalse())
			Expect(c.Z()).To(BeFalse())
		})
	})

	Describe("SubCarry", func() {
		It("sets carry (no borrow) when lhs >= rhs", func() {
			policy.SubCarry(ir.U32, 5, 3, c)
			Expect(c.C()).To(BeTrue())
			Expect(c.Z()).To(BeFalse())
		})

		It("clears carry (borrow) when lhs < rhs", func() {
			policy.SubCarry(ir.U32, 3, 5, c)
			Expect(c.C()).To(BeFalse())
		})

		It("sets Z when the operands are equal", func() {
			policy.SubCarry(ir.U64, 42, 42, c)
			Expect(c.Z()).To(BeTrue())
		})
	})

	Describe("SetLogicFlags", func() {
		It("always clears C and V", func() {
			c.SetNZCV(true, false, true, true)
			policy.SetLogicFlags(ir.U32, 0x80000000, c)
			Expect(c.C()).To(BeFalse())
			Expect(c.V()).To(BeFalse())
			Expect(c.N()).To(BeTrue())
		})
	})
})

var _ = Describe("CPU.CheckCond", func() {
	var c *cpu.CPU

	BeforeEach(func() {
		c = cpu.New(cpu.NewMemory())
	})

	It("evaluates EQ/NE from Z", func() {
		c.SetNZCV(false, true, false, false)
		Expect(c.CheckCond(arch.CondEQ)).To(BeTrue())
		Expect(c.CheckCond(arch.CondNE)).To(BeFalse())
	})

	It("evaluates GT from N, Z, and V together", func() {
		c.SetNZCV(false, false, false, false)
		Expect(c.CheckCond(arch.CondGT)).To(BeTrue())
	})

	It("treats AL and NV as always-true", func() {
		c.SetNZCV(false, false, false, false)
		Expect(c.CheckCond(arch.CondAL)).To(BeTrue())
		Expect(c.CheckCond(arch.CondNV)).To(BeTrue())
	})
})
