package loader_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/aarch64run/loader"
)

var _ = Describe("Image", func() {
	var tempDir, elfPath string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "elf-image-test")
		Expect(err).NotTo(HaveOccurred())
		elfPath = filepath.Join(tempDir, "test.elf")
		createMinimalARM64ELF(elfPath, 0x400000, 0x400080, []byte{
			0x40, 0x05, 0x80, 0xd2, // mov x0, #42
			0xc0, 0x03, 0x5f, 0xd6, // ret
		})
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	It("exposes the program's entry point", func() {
		prog, err := loader.Load(elfPath)
		Expect(err).NotTo(HaveOccurred())

		img := loader.NewImage(prog)
		Expect(img.EntryPoint()).To(Equal(prog.EntryPoint))
	})

	It("names each loaded segment and exposes its address and bytes", func() {
		prog, err := loader.Load(elfPath)
		Expect(err).NotTo(HaveOccurred())

		img := loader.NewImage(prog)
		names := img.Sections()
		Expect(names).To(HaveLen(len(prog.Segments)))

		for i, name := range names {
			Expect(img.SectionAddr(name)).To(Equal(prog.Segments[i].VirtAddr))
			Expect(img.SectionData(name)).To(Equal(prog.Segments[i].Data))
		}
	})

	It("panics on an unknown section name", func() {
		prog, err := loader.Load(elfPath)
		Expect(err).NotTo(HaveOccurred())
		img := loader.NewImage(prog)

		Expect(func() { img.SectionAddr("nope") }).To(Panic())
		Expect(func() { img.SectionData("nope") }).To(Panic())
	})
})
