// Package insts decodes 32-bit AArch64 code words into a tagged sum of
// instruction variants, each carrying a plain operand record naming the
// raw fields the encoding committed to the word. Decoding never
// interprets those fields further (e.g. a logical-immediate's N/immr/imms
// triplet is not expanded into its 64-bit value here) so that
// re-encoding a variant's record and fixed bits always reproduces the
// original word.
package insts

import "github.com/sarchlab/aarch64run/arch"

// WritebackMode describes how a load/store addressing mode updates its
// base register.
type WritebackMode uint8

const (
	NoWriteback WritebackMode = iota
	PreIndex
	PostIndex
)

// AddSubImmRecord backs ADD/SUB/ADDS/SUBS (immediate). Imm12 is shifted
// left by 12 when Shift is set, per the architecture's `sh` bit.
type AddSubImmRecord struct {
	Sf     bool
	Shift  bool
	Imm12  uint16
	Rn, Rd arch.Reg
}

// LogicalImmRecord backs AND/ORR/EOR/ANDS (immediate). The raw N/Immr/
// Imms triplet is kept undecoded; turning it into a 64-bit mask is the
// lifter's job (DecodeBitMasks), not the decoder's.
type LogicalImmRecord struct {
	Sf             bool
	N              bool
	Immr, Imms     uint8
	Rn, Rd         arch.Reg
}

// MoveWideRecord backs MOVN/MOVZ/MOVK. Hw*16 is the shift applied to
// Imm16.
type MoveWideRecord struct {
	Sf    bool
	Hw    uint8
	Imm16 uint16
	Rd    arch.Reg
}

// PCRelRecord backs ADR/ADRP. Imm is the already-assembled, signed
// immhi:immlo value (page-shifted by 12 for ADRP is applied by the
// lifter, not stored here).
type PCRelRecord struct {
	Imm int64
	Rd  arch.Reg
}

// BitfieldRecord backs SBFM/BFM/UBFM.
type BitfieldRecord struct {
	Sf             bool
	N              bool
	Immr, Imms     uint8
	Rn, Rd         arch.Reg
}

// ExtractRecord backs EXTR.
type ExtractRecord struct {
	Sf           bool
	Rm, Rn, Rd   arch.Reg
	Imms         uint8
}

// ShiftedRegRecord backs the shifted-register forms of ADD/SUB/logical
// (register).
type ShiftedRegRecord struct {
	Sf         bool
	ShiftType  arch.ShiftType
	Imm6       uint8
	N          bool // logical-only: invert Rm before the operation
	Rm, Rn, Rd arch.Reg
}

// ExtendedRegRecord backs the extended-register forms of ADD/SUB.
type ExtendedRegRecord struct {
	Sf         bool
	ExtendType arch.ExtendType
	Imm3       uint8
	Rm, Rn, Rd arch.Reg
}

// CondSelectRecord backs CSEL/CSINC/CSINV/CSNEG.
type CondSelectRecord struct {
	Sf         bool
	Rm, Rn, Rd arch.Reg
	Cond       arch.Cond
}

// CondCompareImmRecord backs CCMP/CCMN (immediate).
type CondCompareImmRecord struct {
	Sf   bool
	Imm5 uint8
	Cond arch.Cond
	Rn   arch.Reg
	Nzcv uint8
}

// CondCompareRegRecord backs CCMP/CCMN (register).
type CondCompareRegRecord struct {
	Sf   bool
	Rm   arch.Reg
	Cond arch.Cond
	Rn   arch.Reg
	Nzcv uint8
}

// DataProc2SrcRecord backs UDIV/SDIV/LSLV/LSRV/ASRV/RORV.
type DataProc2SrcRecord struct {
	Sf         bool
	Rm, Rn, Rd arch.Reg
}

// DataProc3SrcRecord backs MADD/MSUB.
type DataProc3SrcRecord struct {
	Sf             bool
	Rm, Ra, Rn, Rd arch.Reg
}

// BranchImmRecord backs B/BL. Imm is already sign-extended and shifted
// left by 2.
type BranchImmRecord struct {
	Imm int64
}

// CondBranchRecord backs B.cond.
type CondBranchRecord struct {
	Imm  int64
	Cond arch.Cond
}

// CompareBranchRecord backs CBZ/CBNZ.
type CompareBranchRecord struct {
	Sf  bool
	Imm int64
	Rt  arch.Reg
}

// TestBranchRecord backs TBZ/TBNZ.
type TestBranchRecord struct {
	Bit uint8
	Imm int64
	Rt  arch.Reg
}

// BranchRegRecord backs BR/BLR/RET.
type BranchRegRecord struct {
	Rn arch.Reg
}

// ExceptionRecord backs SVC (and the other exception-generating
// mnemonics recognized but not lifted).
type ExceptionRecord struct {
	Imm16 uint16
}

// LoadStoreImmRecord backs the unsigned-offset, pre-index, post-index,
// and unscaled-offset immediate addressing forms of LDR/STR/LDRB/STRB/
// LDRH/STRH and their sign-extending loads.
type LoadStoreImmRecord struct {
	SizeBits   uint8 // 8, 16, 32, or 64: width of the memory access
	Is64       bool  // destination is a 64-bit GPR (for sign-extending loads)
	SignExtend bool
	Load       bool
	Writeback  WritebackMode
	Offset     int64
	Rn, Rt     arch.Reg
}

// LoadStoreRegOffsetRecord backs the register-offset addressing form
// (LDR/STR Xt, [Xn, Xm{, extend {amount}}]).
type LoadStoreRegOffsetRecord struct {
	SizeBits   uint8
	Is64       bool
	SignExtend bool
	Load       bool
	Extend     arch.ExtendType
	ShiftApplied bool
	Rn, Rt, Rm arch.Reg
}

// LoadStorePairRecord backs LDP/STP.
type LoadStorePairRecord struct {
	Is64       bool
	SignedLoad bool
	Load       bool
	Writeback  WritebackMode
	Offset     int64
	Rn, Rt, Rt2 arch.Reg
}

// LoadStoreLiteralRecord backs LDR (literal).
type LoadStoreLiteralRecord struct {
	Is64   bool
	Offset int64
	Rt     arch.Reg
}

// FprLoadStoreImmRecord backs LDR/STR for D and Q registers (moves
// only; SIMD arithmetic is recognized at decode but never lifted, per
// the integer/control-only lift scope).
type FprLoadStoreImmRecord struct {
	Width     uint8 // 64 or 128
	Load      bool
	Writeback WritebackMode
	Offset    int64
	Rn        arch.Reg
	Rt        arch.VReg
}
