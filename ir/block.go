package ir

import "github.com/sarchlab/aarch64run/arch"

// Statement is one side-effecting action in a BasicBlock: a write to a
// GPR, FPR, the flag word, the program counter, or memory, or a bare
// expression evaluated for its side effects alone (a trap, a hinted
// no-op, or the flag-policy effect baked into Addc/Subc).
type Statement interface {
	stmt()
}

// WriteGpr assigns Value to a general-purpose register. Writes to XZR
// are discarded by the lifter's convention, not enforced here.
type WriteGpr struct {
	Reg   arch.Reg
	Value Node
}

func (WriteGpr) stmt() {}

// WriteFpr assigns Value to a vector/floating-point register.
type WriteFpr struct {
	Reg   arch.VReg
	Value Node
}

func (WriteFpr) stmt() {}

// WriteIp assigns Value to the program counter.
type WriteIp struct {
	Value Node
}

func (WriteIp) stmt() {}

// WriteFlag assigns Value to the raw NZCV flag word.
type WriteFlag struct {
	Value Node
}

func (WriteFlag) stmt() {}

// WriteMem stores Value (of the given Type's width) to memory at Addr.
type WriteMem struct {
	Type  Type
	Addr  Node
	Value Node
}

func (WriteMem) stmt() {}

// Eval evaluates Node purely for its side effects (a trap diagnostic, a
// hinted no-op, or an Addc/Subc whose flag-policy side effect matters
// but whose value is discarded).
type Eval struct {
	Node Node
}

func (Eval) stmt() {}

// BasicBlock is the ordered sequence of IR statements the lifter appends
// to while translating one or more sequentially decoded AArch64
// instructions, up to the next control transfer.
type BasicBlock struct {
	// StartIP is the address of the first instruction lifted into this
	// block, used as the block cache key by the executor.
	StartIP uint64
	Stmts   []Statement
}

// NewBasicBlock creates an empty block starting at ip.
func NewBasicBlock(ip uint64) *BasicBlock {
	return &BasicBlock{StartIP: ip}
}

// Append adds statements to the block in order.
func (b *BasicBlock) Append(stmts ...Statement) {
	b.Stmts = append(b.Stmts, stmts...)
}
