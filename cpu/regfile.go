// Package cpu owns the AArch64 virtual machine's architectural state: the
// general-purpose and vector register files, the flag word and its
// pluggable update policy, the program counter, and flat byte-addressed
// memory with typed access. It has no knowledge of decoding, lifting, or
// codegen — those are built on top of it.
package cpu

import (
	"fmt"
	"strings"

	"github.com/sarchlab/aarch64run/arch"
)

// Lane128 is a 128-bit SIMD/FP register value, stored as two 64-bit
// halves (Lo holds bits [63:0], Hi holds bits [127:64]).
type Lane128 struct {
	Lo, Hi uint64
}

// RegFile holds the 31 addressable general-purpose registers and the
// stack pointer. X31 never appears here: the decoder already resolved it
// to either XZR (handled as a constant zero, writes discarded) or SP
// (its own field), so the lifter and codegen never need to special-case
// index 31 again.
type RegFile struct {
	X  [31]uint64 // X0..X30
	SP uint64
}

// Read returns the value of r. XZR always reads as zero.
func (f *RegFile) Read(r arch.Reg) uint64 {
	switch {
	case r <= arch.X30:
		return f.X[r]
	case r == arch.XZR:
		return 0
	case r == arch.SP:
		return f.SP
	default:
		panic(fmt.Sprintf("cpu: invalid register %v", r))
	}
}

// Write stores value into r. Writes to XZR are silently discarded.
func (f *RegFile) Write(r arch.Reg, value uint64) {
	switch {
	case r <= arch.X30:
		f.X[r] = value
	case r == arch.XZR:
		// discarded by design
	case r == arch.SP:
		f.SP = value
	default:
		panic(fmt.Sprintf("cpu: invalid register %v", r))
	}
}

// FprFile holds the 32 vector/floating-point registers.
type FprFile struct {
	V [32]Lane128
}

func (f *FprFile) Read(r arch.VReg) Lane128 {
	return f.V[r]
}

func (f *FprFile) Write(r arch.VReg, value Lane128) {
	f.V[r] = value
}

// RegByName resolves the syscall shim's register aliases ("x8", "sp",
// "xzr", case-insensitively) to a Reg. It is not used by the decoder or
// lifter, which always work with already-resolved arch.Reg values.
func RegByName(name string) (arch.Reg, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "sp":
		return arch.SP, true
	case "xzr", "wzr":
		return arch.XZR, true
	}
	if len(n) >= 2 && (n[0] == 'x' || n[0] == 'w') {
		var idx int
		if _, err := fmt.Sscanf(n[1:], "%d", &idx); err == nil && idx >= 0 && idx <= 30 {
			return arch.Reg(idx), true
		}
	}
	return 0, false
}
