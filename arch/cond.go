package arch

// Cond is a 4-bit AArch64 condition code, as it appears in B.cond, CSEL
// and friends, and CCMP/CCMN.
type Cond uint8

// AArch64 condition codes.
const (
	CondEQ Cond = 0x0 // Z == 1
	CondNE Cond = 0x1 // Z == 0
	CondCS Cond = 0x2 // C == 1 (alias HS)
	CondCC Cond = 0x3 // C == 0 (alias LO)
	CondMI Cond = 0x4 // N == 1
	CondPL Cond = 0x5 // N == 0
	CondVS Cond = 0x6 // V == 1
	CondVC Cond = 0x7 // V == 0
	CondHI Cond = 0x8 // C == 1 && Z == 0
	CondLS Cond = 0x9 // !(C == 1 && Z == 0)
	CondGE Cond = 0xA // N == V
	CondLT Cond = 0xB // N != V
	CondGT Cond = 0xC // Z == 0 && N == V
	CondLE Cond = 0xD // !(Z == 0 && N == V)
	CondAL Cond = 0xE // always
	CondNV Cond = 0xF // always (reserved mnemonic, same behavior as AL)
)

// ShiftType is the two-bit shift kind carried by shifted-register data
// processing encodings.
type ShiftType uint8

// Shift kinds for shifted-register operands.
const (
	ShiftLSL ShiftType = 0
	ShiftLSR ShiftType = 1
	ShiftASR ShiftType = 2
	ShiftROR ShiftType = 3 // only legal on logical (register); reserved elsewhere
)

// ExtendType is the three-bit extend kind carried by extended-register
// data processing and load/store-with-register-offset encodings.
type ExtendType uint8

// Extend kinds for extended-register operands.
const (
	ExtendUXTB ExtendType = 0
	ExtendUXTH ExtendType = 1
	ExtendUXTW ExtendType = 2
	ExtendUXTX ExtendType = 3
	ExtendSXTB ExtendType = 4
	ExtendSXTH ExtendType = 5
	ExtendSXTW ExtendType = 6
	ExtendSXTX ExtendType = 7
)
