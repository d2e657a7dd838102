package cpu

import "github.com/sarchlab/aarch64run/arch"

// CPU is the complete architectural state codegen's compiled closures
// read and mutate: the register files, the program counter, the packed
// NZCV flag word, the flag-update policy, and memory.
type CPU struct {
	Gpr RegFile
	Fpr FprFile

	ip   uint64
	flag uint64

	policy FlagPolicy
	memory *Memory
}

// New returns a CPU with zeroed registers, the default AArch64 flag
// policy, and the given memory.
func New(memory *Memory) *CPU {
	return &CPU{
		policy: AArch64FlagPolicy{},
		memory: memory,
	}
}

// Ip returns the current program counter.
func (c *CPU) Ip() uint64 { return c.ip }

// SetIp overwrites the program counter.
func (c *CPU) SetIp(v uint64) { c.ip = v }

// Flag returns the raw packed NZCV word (see FlagN/FlagZ/FlagC/FlagV).
func (c *CPU) Flag() uint64 { return c.flag }

// SetFlag overwrites the raw packed NZCV word.
func (c *CPU) SetFlag(v uint64) { c.flag = v }

// SetNZCV packs and stores the four condition flags.
func (c *CPU) SetNZCV(n, z, carry, v bool) {
	var word uint64
	if n {
		word |= FlagN
	}
	if z {
		word |= FlagZ
	}
	if carry {
		word |= FlagC
	}
	if v {
		word |= FlagV
	}
	c.flag = word
}

// N, Z, C, V read the individual condition flags out of the packed word.
func (c *CPU) N() bool { return c.flag&FlagN != 0 }
func (c *CPU) Z() bool { return c.flag&FlagZ != 0 }
func (c *CPU) C() bool { return c.flag&FlagC != 0 }
func (c *CPU) V() bool { return c.flag&FlagV != 0 }

// FlagPolicy returns the policy used to update NZCV. Tests substitute a
// stub policy by constructing a CPU and calling SetFlagPolicy directly.
func (c *CPU) FlagPolicy() FlagPolicy { return c.policy }

// SetFlagPolicy replaces the flag-update policy, letting tests observe
// or fake AArch64 condition-flag computation without real arithmetic.
func (c *CPU) SetFlagPolicy(p FlagPolicy) { c.policy = p }

// Mem returns a cursor into memory at addr.
func (c *CPU) Mem(addr uint64) MemFrame { return c.memory.Frame(addr) }

// CheckCond evaluates an AArch64 condition code against the current
// flags, matching the architecture's condition table exactly (including
// that 0b1111, NV, always evaluates true like AL).
func (c *CPU) CheckCond(cond arch.Cond) bool {
	switch cond {
	case arch.CondEQ:
		return c.Z()
	case arch.CondNE:
		return !c.Z()
	case arch.CondCS:
		return c.C()
	case arch.CondCC:
		return !c.C()
	case arch.CondMI:
		return c.N()
	case arch.CondPL:
		return !c.N()
	case arch.CondVS:
		return c.V()
	case arch.CondVC:
		return !c.V()
	case arch.CondHI:
		return c.C() && !c.Z()
	case arch.CondLS:
		return !c.C() || c.Z()
	case arch.CondGE:
		return c.N() == c.V()
	case arch.CondLT:
		return c.N() != c.V()
	case arch.CondGT:
		return !c.Z() && c.N() == c.V()
	case arch.CondLE:
		return c.Z() || c.N() != c.V()
	case arch.CondAL, arch.CondNV:
		return true
	default:
		return true
	}
}
