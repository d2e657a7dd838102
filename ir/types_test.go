package ir_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/aarch64run/ir"
)

var _ = Describe("Type", func() {
	It("reports scalar bit widths", func() {
		Expect(ir.U8.Bitwidth()).To(Equal(8))
		Expect(ir.I16.Bitwidth()).To(Equal(16))
		Expect(ir.U32.Bitwidth()).To(Equal(32))
		Expect(ir.I64.Bitwidth()).To(Equal(64))
		Expect(ir.F64.Bitwidth()).To(Equal(64))
	})

	It("interns vector types so equal shapes compare equal", func() {
		a := ir.VectorType(ir.U32, 4)
		b := ir.VectorType(ir.U32, 4)
		c := ir.VectorType(ir.U16, 8)

		Expect(a).To(Equal(b))
		Expect(a).NotTo(Equal(c))
		Expect(a.IsVector()).To(BeTrue())
		Expect(a.VectorElem()).To(Equal(ir.U32))
		Expect(a.VectorLanes()).To(Equal(uint8(4)))
	})

	It("classifies signedness and floatness", func() {
		Expect(ir.I32.IsSigned()).To(BeTrue())
		Expect(ir.U32.IsSigned()).To(BeFalse())
		Expect(ir.F32.IsFloat()).To(BeTrue())
		Expect(ir.U32.IsFloat()).To(BeFalse())
	})
})

var _ = Describe("Operand leaves", func() {
	It("report their declared type", func() {
		Expect(ir.ImmU64(42).GetType()).To(Equal(ir.U64))
		Expect(ir.Ip{}.GetType()).To(Equal(ir.U64))
		Expect(ir.Flag{}.GetType()).To(Equal(ir.U64))

		nested := ir.Ir{Node: ir.Add{Type: ir.U32, Lhs: ir.ImmU64(1), Rhs: ir.ImmU64(2)}}
		Expect(nested.GetType()).To(Equal(ir.U32))

		dbg := ir.Dbg{Label: "x", Operand: ir.ImmBool(true)}
		Expect(dbg.GetType()).To(Equal(ir.Bool))
	})
})
