package insts

import "github.com/sarchlab/aarch64run/arch"

// Fixed mask/base pairs for the Branches, Exception Generating and
// System Instructions class (ARM ARM C4.1.66). Checked in order; each
// test isolates exactly the bits the architecture fixes for that
// mnemonic group.
const (
	maskB, baseB         = 0xfc000000, 0x14000000
	maskBL, baseBL       = 0xfc000000, 0x94000000
	maskBCond, baseBCond = 0xff000010, 0x54000000
	maskCB, baseCBZ      = 0x7f000000, 0x34000000
	baseCBNZ             = 0x35000000
	maskTB, baseTBZ      = 0x7f000000, 0x36000000
	baseTBNZ             = 0x37000000
	maskBrReg, baseBrReg = 0xfe1ffc1f, 0xd61f0000
	maskExcTop, baseExc  = 0xffe00000, 0xd4000000
)

func decodeBranch(word uint32, ip uint64) (Instruction, error) {
	switch {
	case word&maskB == baseB:
		return decodeUncondBranchImm(word, false), nil
	case word&maskBL == baseBL:
		return decodeUncondBranchImm(word, true), nil
	case word&maskBCond == baseBCond:
		return decodeCondBranch(word), nil
	case word&maskCB == baseCBZ:
		return decodeCompareBranch(word, false), nil
	case word&maskCB == baseCBNZ:
		return decodeCompareBranch(word, true), nil
	case word&maskTB == baseTBZ:
		return decodeTestBranch(word, false), nil
	case word&maskTB == baseTBNZ:
		return decodeTestBranch(word, true), nil
	case word&maskBrReg == baseBrReg:
		return decodeUncondBranchReg(word, ip)
	case word&maskExcTop == baseExc, hintEncodings[word]:
		return decodeExceptionOrSystem(word, ip)
	}
	return nil, &UnknownInstruction{Word: word, Ip: ip}
}

func decodeUncondBranchImm(word uint32, link bool) Instruction {
	raw := int64(word & 0x03ffffff)
	imm := signExtend(raw<<2, 28)

	rec := BranchImmRecord{Imm: imm}
	if link {
		return Bl{Operands: rec}
	}
	return B{Operands: rec}
}

func decodeCondBranch(word uint32) Instruction {
	raw := int64((word >> 5) & 0x7ffff)
	imm := signExtend(raw<<2, 21)
	cond := arch.Cond(word & 0xf)
	return BCond{Operands: CondBranchRecord{Imm: imm, Cond: cond}}
}

func decodeCompareBranch(word uint32, notZero bool) Instruction {
	sf := fSf.Extract(word) == 1
	raw := int64((word >> 5) & 0x7ffff)
	imm := signExtend(raw<<2, 21)
	rt := gpr(fRd.Extract(word), false)

	rec := CompareBranchRecord{Sf: sf, Imm: imm, Rt: rt}
	if notZero {
		return Cbnz{Operands: rec}
	}
	return Cbz{Operands: rec}
}

func decodeTestBranch(word uint32, notZero bool) Instruction {
	b5 := (word >> 31) & 1
	b40 := (word >> 19) & 0x1f
	bit := uint8(b5<<5 | b40)
	raw := int64((word >> 5) & 0x3fff)
	imm := signExtend(raw<<2, 16)
	rt := gpr(fRd.Extract(word), false)

	rec := TestBranchRecord{Bit: bit, Imm: imm, Rt: rt}
	if notZero {
		return Tbnz{Operands: rec}
	}
	return Tbz{Operands: rec}
}

func decodeUncondBranchReg(word uint32, ip uint64) (Instruction, error) {
	opc := (word >> 21) & 0xf
	rn := gpr(fRn.Extract(word), false)
	rec := BranchRegRecord{Rn: rn}
	switch opc {
	case 0x0:
		return Br{Operands: rec}, nil
	case 0x1:
		return Blr{Operands: rec}, nil
	case 0x2:
		return Ret{Operands: rec}, nil
	default:
		// ERET, DRPS, and the pointer-authenticated BR/BLR/RET forms are
		// recognized but not lifted.
		return nil, &UnknownInstruction{Word: word, Ip: ip}
	}
}

// hintEncodings lists the bits[11:5] CRm:op2 values of the HINT space
// this emulator treats as plain no-ops, keyed by their full known
// encoding for clarity.
var hintEncodings = map[uint32]bool{
	0xd503201f: true, // NOP
	0xd503203f: true, // YIELD
	0xd503205f: true, // WFE
	0xd503207f: true, // WFI
	0xd503209f: true, // SEV
	0xd50320bf: true, // SEVL
}

func decodeExceptionOrSystem(word uint32, ip uint64) (Instruction, error) {
	opc := (word >> 21) & 0x7
	ll := word & 0x3
	if opc == 0 && ll == 0x1 {
		imm16 := uint16((word >> 5) & 0xffff)
		return Svc{Operands: ExceptionRecord{Imm16: imm16}}, nil
	}
	if hintEncodings[word] {
		return Nop{}, nil
	}
	return nil, &UnknownInstruction{Word: word, Ip: ip}
}
