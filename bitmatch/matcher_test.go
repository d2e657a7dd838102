package bitmatch_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/aarch64run/bitmatch"
)

var _ = Describe("Matcher", func() {
	It("dispatches to the first rule whose fixed bits match", func() {
		m := bitmatch.New[string]()
		m.Bind("xxxxxxxx_xxxxxxxx_xxxxxxxx_xx100010", func(word uint32) string { return "dp-imm" })
		m.Bind("xxxxxxxx_xxxxxxxx_xxxxxxxx_xxxxxxxx", func(word uint32) string { return "catch-all" })

		got, ok := m.Handle(0b00000000_00000000_00000000_00100010)
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal("dp-imm"))
	})

	It("returns false when nothing matches", func() {
		m := bitmatch.New[int]()
		m.Bind("11111111_11111111_11111111_11111111", func(word uint32) int { return 1 })

		_, ok := m.Handle(0)
		Expect(ok).To(BeFalse())
	})

	It("earlier registration wins on overlap", func() {
		m := bitmatch.New[int]()
		m.Bind("xxxxxxxx_xxxxxxxx_xxxxxxxx_xxxxxxxx", func(word uint32) int { return 1 })
		m.Bind("00000000_00000000_00000000_00000000", func(word uint32) int { return 2 })

		got, ok := m.Handle(0)
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(1))
	})

	It("panics on a malformed pattern", func() {
		m := bitmatch.New[int]()
		Expect(func() {
			m.Bind("too_short", func(word uint32) int { return 0 })
		}).To(Panic())
	})

	DescribeTable("Field.Extract reads the declared half-open bit range",
		func(lo, hi uint8, word uint32, want uint32) {
			f := bitmatch.Field{Lo: lo, Hi: hi}
			Expect(f.Extract(word)).To(Equal(want))
		},
		Entry("low nibble", uint8(0), uint8(4), uint32(0xABCD), uint32(0xD)),
		Entry("imm12-like field", uint8(10), uint8(22), uint32(0x91000421), uint32(1)),
		Entry("top bit", uint8(31), uint8(32), uint32(0x80000000), uint32(1)),
	)
})
