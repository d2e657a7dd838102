package ir

import "github.com/sarchlab/aarch64run/arch"

// Operand is a leaf value an expression Node (or the lifter, directly)
// can reference: a register, an immediate, the program counter, the flag
// word, a nested expression, or a debug/vm-info annotation. GetType
// always returns the leaf's declared type, matching the invariant that
// lets codegen trust a leaf's type without re-deriving it.
type Operand interface {
	GetType() Type
	operand()
}

// Gpr reads or writes a general-purpose register at the given width.
// Reads of XZR always yield zero and writes to it are discarded — that
// policy lives in the lifter/codegen, not here; this leaf just names the
// register and the width the access is made at.
type Gpr struct {
	Type Type
	Reg  arch.Reg
}

func (g Gpr) GetType() Type { return g.Type }
func (Gpr) operand()        {}

// Fpr reads or writes a vector/floating-point register at the given
// width (which may be a scalar float type or a Vector type).
type Fpr struct {
	Type Type
	Reg  arch.VReg
}

func (f Fpr) GetType() Type { return f.Type }
func (Fpr) operand()        {}

// Immediate is a constant value of the declared type, stored canonically
// as its 64-bit bit pattern.
type Immediate struct {
	Type  Type
	Value uint64
}

func (i Immediate) GetType() Type { return i.Type }
func (Immediate) operand()        {}

// ImmU64 builds a U64-typed immediate.
func ImmU64(v uint64) Immediate { return Immediate{Type: U64, Value: v} }

// ImmI64 builds an I64-typed immediate from a signed value.
func ImmI64(v int64) Immediate { return Immediate{Type: I64, Value: uint64(v)} }

// ImmBool builds a Bool-typed immediate.
func ImmBool(v bool) Immediate {
	if v {
		return Immediate{Type: Bool, Value: 1}
	}
	return Immediate{Type: Bool, Value: 0}
}

// Ip reads or writes the program counter. Always U64.
type Ip struct{}

func (Ip) GetType() Type { return U64 }
func (Ip) operand()      {}

// Flag reads or writes the raw NZCV flag word, packed as
// N<<3 | Z<<2 | C<<1 | V. Always U64.
type Flag struct{}

func (Flag) GetType() Type { return U64 }
func (Flag) operand()      {}

// Ir embeds an expression Node as an operand, letting the lifter build
// deep expressions (e.g. a shifted register operand feeding an Add) out
// of the same Node vocabulary used for statements.
type Ir struct {
	Node Node
}

func (n Ir) GetType() Type { return n.Node.GetType() }
func (Ir) operand()        {}

// VoidIr embeds a Void-typed expression (most commonly a trap/diagnostic
// node) as a standalone statement operand.
type VoidIr struct {
	Node Node
}

func (VoidIr) GetType() Type { return Void }
func (VoidIr) operand()      {}

// Dbg wraps another operand with a human-readable label, purely for
// diagnostics; it is transparent to codegen, which unwraps it before
// lowering.
type Dbg struct {
	Label   string
	Operand Operand
}

func (d Dbg) GetType() Type { return d.Operand.GetType() }
func (Dbg) operand()        {}

// VmInfoKind selects which piece of ambient interpreter state a VmInfo
// leaf reads.
type VmInfoKind uint8

// Recognized VmInfo queries.
const (
	// VmInfoInstructionCount yields the number of instructions the
	// executor has retired so far, as a U64.
	VmInfoInstructionCount VmInfoKind = iota
)

// VmInfo reads ambient interpreter/host state that isn't part of
// architectural CPU state (e.g. diagnostics counters).
type VmInfo struct {
	Kind VmInfoKind
}

func (VmInfo) GetType() Type { return U64 }
func (VmInfo) operand()      {}
