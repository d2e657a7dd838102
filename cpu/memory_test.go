package cpu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/aarch64run/cpu"
)

var _ = Describe("Memory", func() {
	var mem *cpu.Memory

	BeforeEach(func() {
		mem = cpu.NewMemory()
		mem.Map(0x1000, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08})
		mem.MapZero(0x2000, 16)
	})

	It("round-trips typed little-endian access", func() {
		f := mem.Frame(0x1000)
		v32, err := f.ReadU32()
		Expect(err).NotTo(HaveOccurred())
		Expect(v32).To(Equal(uint32(0x04030201)))

		Expect(mem.Frame(0x1004).WriteU32(0)).NotTo(HaveOccurred())
		v64, err := mem.Frame(0x1000).ReadU64()
		Expect(err).NotTo(HaveOccurred())
		Expect(v64).To(Equal(uint64(0x04030201)))
	})

	It("reads zero-initialized BSS-style regions", func() {
		v, err := mem.Frame(0x2008).ReadU64()
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint64(0)))
	})

	It("rejects accesses outside every mapped region", func() {
		_, err := mem.Frame(0x9999).ReadU8()
		Expect(err).To(HaveOccurred())
		var bad *cpu.BadMemory
		Expect(err).To(BeAssignableToTypeOf(bad))
	})

	It("rejects accesses that straddle the end of a region", func() {
		_, err := mem.Frame(0x1006).ReadU32()
		Expect(err).To(HaveOccurred())
	})

	It("supports bulk read and write", func() {
		buf := make([]byte, 4)
		Expect(mem.Frame(0x1000).Read(buf)).NotTo(HaveOccurred())
		Expect(buf).To(Equal([]byte{0x01, 0x02, 0x03, 0x04}))

		Expect(mem.Frame(0x2000).Write([]byte{0xaa, 0xbb})).NotTo(HaveOccurred())
		v, _ := mem.Frame(0x2000).ReadU16()
		Expect(v).To(Equal(uint16(0xbbaa)))
	})
})
