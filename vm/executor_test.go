package vm_test

import (
	"bytes"
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/xid"

	"github.com/sarchlab/aarch64run/arch"
	"github.com/sarchlab/aarch64run/vm"
)

// fakeImage is a synthetic Image assembled directly from named byte
// regions, standing in for loader.Image so these tests don't depend on
// a real ELF file on disk.
type fakeImage struct {
	names []string
	addrs map[string]uint64
	data  map[string][]byte
	entry uint64
}

func newFakeImage(entry uint64) *fakeImage {
	return &fakeImage{addrs: map[string]uint64{}, data: map[string][]byte{}, entry: entry}
}

func (f *fakeImage) withWords(name string, addr uint64, words ...uint32) *fakeImage {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return f.withBytes(name, addr, buf)
}

func (f *fakeImage) withBytes(name string, addr uint64, data []byte) *fakeImage {
	f.names = append(f.names, name)
	f.addrs[name] = addr
	f.data[name] = data
	return f
}

func (f *fakeImage) Sections() []string        { return f.names }
func (f *fakeImage) SectionAddr(n string) uint64 { return f.addrs[n] }
func (f *fakeImage) SectionData(n string) []byte { return f.data[n] }
func (f *fakeImage) EntryPoint() uint64          { return f.entry }

var _ = Describe("Executor", func() {
	It("steps a single ADD instruction and advances ip", func() {
		img := newFakeImage(0x1000).withWords("text", 0x1000, 0x91000421) // ADD X1, X1, #1
		e := vm.NewExecutor(img)
		e.CPU().Gpr.Write(arch.X1, 41)

		result := e.Step()

		Expect(result.Err).NotTo(HaveOccurred())
		Expect(result.Exited).To(BeFalse())
		Expect(e.CPU().Gpr.Read(arch.X1)).To(Equal(uint64(42)))
		Expect(e.CPU().Ip()).To(Equal(uint64(0x1004)))
	})

	It("reuses the compiled block on a second visit to the same ip", func() {
		img := newFakeImage(0x2000).withWords("text", 0x2000, 0x91000421)
		e := vm.NewExecutor(img)

		e.CPU().Gpr.Write(arch.X1, 0)
		e.Step()
		Expect(e.CPU().Gpr.Read(arch.X1)).To(Equal(uint64(1)))

		e.CPU().SetIp(0x2000)
		e.Step()
		Expect(e.CPU().Gpr.Read(arch.X1)).To(Equal(uint64(2)))
	})

	It("runs to completion via exit_group", func() {
		img := newFakeImage(0x3000).withWords("text", 0x3000,
			0xd2800bc8, // MOVZ X8, #0x5e
			0xd28000e0, // MOVZ X0, #7
			0xd4000001, // SVC #0
		)
		e := vm.NewExecutor(img)

		code, err := e.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(code).To(Equal(int64(7)))
	})

	It("writes to stdout via the write syscall then exits", func() {
		img := newFakeImage(0x4000).
			withWords("text", 0x4000,
				0xd28c0001, // MOVZ X1, #0x6000
				0xd2800042, // MOVZ X2, #2
				0xd2800020, // MOVZ X0, #1
				0xd2800808, // MOVZ X8, #0x40 (write)
				0xd4000001, // SVC #0
				0xd2800bc8, // MOVZ X8, #0x5e (exit_group)
				0xd2800000, // MOVZ X0, #0
				0xd4000001, // SVC #0
			).
			withBytes("data", 0x6000, []byte("hi"))

		var out bytes.Buffer
		e := vm.NewExecutor(img, vm.WithStdout(&out))

		code, err := e.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(code).To(Equal(int64(0)))
		Expect(out.String()).To(Equal("hi"))
	})

	It("surfaces an unknown syscall as a fatal error", func() {
		img := newFakeImage(0x7000).withWords("text", 0x7000,
			0xd2803be8, // MOVZ X8, #0x1df (an unrecognized syscall number)
			0xd4000001, // SVC #0
		)
		e := vm.NewExecutor(img)

		_, err := e.Run()

		Expect(err).To(HaveOccurred())
		var unknown *vm.UnknownSyscallError
		Expect(err).To(BeAssignableToTypeOf(unknown))
	})

	It("invokes the block trace callback once per compiled block, not per step", func() {
		img := newFakeImage(0x2100).withWords("text", 0x2100, 0x91000421)
		var traced []uint64
		e := vm.NewExecutor(img, vm.WithBlockTrace(func(ip uint64, id xid.ID) {
			traced = append(traced, ip)
			Expect(id.String()).NotTo(BeEmpty())
		}))

		e.Step()
		e.CPU().SetIp(0x2100)
		e.Step()

		Expect(traced).To(Equal([]uint64{0x2100}))
	})

	It("reports a bad memory access rather than panicking out of Step", func() {
		img := newFakeImage(0x8000).withWords("text", 0x8000, 0xb9400000) // LDR W0, [X0]
		e := vm.NewExecutor(img)
		e.CPU().Gpr.Write(arch.X0, 0xdeadbeef)

		result := e.Step()

		Expect(result.Err).To(HaveOccurred())
		var bad *vm.BadMemoryError
		Expect(result.Err).To(BeAssignableToTypeOf(bad))
	})
})
