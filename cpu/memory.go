package cpu

import (
	"encoding/binary"
	"fmt"
)

// BadMemory is returned whenever an access falls outside every mapped
// region. AArch64 programs that fault this way are killed, not
// recovered from, so callers generally turn this into a fatal log line
// rather than unwinding gracefully.
type BadMemory struct {
	Addr uint64
	Size int
}

func (e *BadMemory) Error() string {
	return fmt.Sprintf("cpu: unmapped memory access at 0x%x (size %d)", e.Addr, e.Size)
}

type region struct {
	base uint64
	data []byte
}

// Memory is a flat, byte-addressed address space assembled out of
// discrete mapped regions (ELF segments, a zeroed BSS, a stack). It does
// not implement page protection; any mapped byte is readable and
// writable, matching the emulator's single-process trust model.
type Memory struct {
	regions []region
}

// NewMemory returns an address space with nothing mapped.
func NewMemory() *Memory {
	return &Memory{}
}

// Map installs a copy of data at base. Overlapping maps are rejected by
// the loader, not by Memory itself, so this never merges or checks
// against existing regions beyond appending.
func (m *Memory) Map(base uint64, data []byte) {
	owned := make([]byte, len(data))
	copy(owned, data)
	m.regions = append(m.regions, region{base: base, data: owned})
}

// MapZero installs a zero-filled region of size bytes at base, used for
// BSS and the initial stack.
func (m *Memory) MapZero(base, size uint64) {
	m.Map(base, make([]byte, size))
}

func (m *Memory) find(addr uint64, size int) ([]byte, int, error) {
	for i := range m.regions {
		r := &m.regions[i]
		if addr < r.base {
			continue
		}
		off := addr - r.base
		if off > uint64(len(r.data)) {
			continue
		}
		end := off + uint64(size)
		if end > uint64(len(r.data)) {
			continue
		}
		return r.data, int(off), nil
	}
	return nil, 0, &BadMemory{Addr: addr, Size: size}
}

// Frame returns a cursor over this address space positioned at addr.
func (m *Memory) Frame(addr uint64) MemFrame {
	return MemFrame{mem: m, addr: addr}
}

// MemFrame is a cursor into a Memory at a fixed address, offering typed
// little-endian access. It is what Component E's Load node and the
// lifter's WriteMem statement ultimately call through.
type MemFrame struct {
	mem  *Memory
	addr uint64
}

func (f MemFrame) Addr() uint64 { return f.addr }

func (f MemFrame) ReadU8() (uint8, error) {
	data, off, err := f.mem.find(f.addr, 1)
	if err != nil {
		return 0, err
	}
	return data[off], nil
}

func (f MemFrame) ReadU16() (uint16, error) {
	data, off, err := f.mem.find(f.addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(data[off:]), nil
}

func (f MemFrame) ReadU32() (uint32, error) {
	data, off, err := f.mem.find(f.addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data[off:]), nil
}

func (f MemFrame) ReadU64() (uint64, error) {
	data, off, err := f.mem.find(f.addr, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(data[off:]), nil
}

func (f MemFrame) WriteU8(v uint8) error {
	data, off, err := f.mem.find(f.addr, 1)
	if err != nil {
		return err
	}
	data[off] = v
	return nil
}

func (f MemFrame) WriteU16(v uint16) error {
	data, off, err := f.mem.find(f.addr, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(data[off:], v)
	return nil
}

func (f MemFrame) WriteU32(v uint32) error {
	data, off, err := f.mem.find(f.addr, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(data[off:], v)
	return nil
}

func (f MemFrame) WriteU64(v uint64) error {
	data, off, err := f.mem.find(f.addr, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(data[off:], v)
	return nil
}

// Read fills buf from memory starting at this frame's address.
func (f MemFrame) Read(buf []byte) error {
	data, off, err := f.mem.find(f.addr, len(buf))
	if err != nil {
		return err
	}
	copy(buf, data[off:])
	return nil
}

// Write copies buf into memory starting at this frame's address.
func (f MemFrame) Write(buf []byte) error {
	data, off, err := f.mem.find(f.addr, len(buf))
	if err != nil {
		return err
	}
	copy(data[off:], buf)
	return nil
}
