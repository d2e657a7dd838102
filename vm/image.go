package vm

// Image is the binary the executor runs: a named collection of
// sections, each with a virtual base address and raw bytes. The core
// makes no assumption about where an Image comes from — loader.Image
// (built on debug/elf, via loader.NewImage) is the only implementation
// today — so tests can substitute a synthetic Image built directly from
// assembled bytes.
type Image interface {
	// Sections lists every section name this image carries.
	Sections() []string
	// SectionAddr returns the virtual base address of the named
	// section. It panics if the name is not one Sections returned.
	SectionAddr(name string) uint64
	// SectionData returns the named section's raw bytes.
	SectionData(name string) []byte
	// EntryPoint returns the virtual address execution should start at.
	EntryPoint() uint64
}
