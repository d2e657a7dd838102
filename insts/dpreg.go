package insts

import (
	"github.com/sarchlab/aarch64run/arch"
	"github.com/sarchlab/aarch64run/bitmatch"
)

// decodeDPReg handles the Data Processing (Register) class (ARM ARM
// C4.1.65). Sub-classes are distinguished by fixed bits in [30:21],
// tested directly rather than through a bitmatch.Matcher: there are few
// enough groups, and several straddle a single bit (extended vs shifted
// register) that reads more clearly as an explicit branch than as an
// extra pattern table.
func decodeDPReg(word uint32, ip uint64) (Instruction, error) {
	bit28to24 := (word >> 24) & 0x1f
	bit21 := (word >> 21) & 1

	switch {
	case bit28to24 == 0x0a:
		return decodeLogicalShiftedReg(word, ip)
	case bit28to24 == 0x0b && bit21 == 0:
		return decodeAddSubShiftedReg(word, ip)
	case bit28to24 == 0x0b && bit21 == 1:
		return decodeAddSubExtendedReg(word), nil
	case bit28to24 == 0x1a && (word>>21)&0x1ff == 0x0d4:
		return decodeCondSelect(word), nil
	case bit28to24 == 0x1a && (word>>21)&0x1ff == 0x1d2 && (word>>11)&1 == 0:
		return decodeCondCompareReg(word), nil
	case bit28to24 == 0x1a && (word>>21)&0x1ff == 0x1d2 && (word>>11)&1 == 1:
		return decodeCondCompareImm(word), nil
	case bit28to24 == 0x1a && (word>>21)&0x1ff == 0x0d6:
		return decodeDataProc2Src(word), nil
	case bit28to24 == 0x1b:
		return decodeDataProc3Src(word), nil
	}
	return nil, &UnknownInstruction{Word: word, Ip: ip}
}

func decodeLogicalShiftedReg(word uint32, ip uint64) (Instruction, error) {
	sf := fSf.Extract(word) == 1
	opc := (word >> 29) & 0x3
	shiftType := arch.ShiftType((word >> 22) & 0x3)
	n := (word>>21)&1 == 1
	imm6 := uint8((word >> 10) & 0x3f)
	if !sf && imm6&0x20 != 0 {
		return nil, &ReservedEncoding{Word: word, Ip: ip, Reason: "logical (shifted register): imm6 bit 5 reserved when sf=0"}
	}
	rm := gpr(fRm.Extract(word), false)
	rn := gpr(fRn.Extract(word), false)
	rd := gpr(fRd.Extract(word), false)

	rec := ShiftedRegRecord{Sf: sf, ShiftType: shiftType, Imm6: imm6, N: n, Rm: rm, Rn: rn, Rd: rd}
	switch {
	case opc == 0x0 && !n:
		return AndShiftedReg{Operands: rec}, nil
	case opc == 0x0 && n:
		return BicShiftedReg{Operands: rec}, nil
	case opc == 0x1 && !n:
		return OrrShiftedReg{Operands: rec}, nil
	case opc == 0x1 && n:
		return OrnShiftedReg{Operands: rec}, nil
	case opc == 0x2 && !n:
		return EorShiftedReg{Operands: rec}, nil
	case opc == 0x2 && n:
		return EonShiftedReg{Operands: rec}, nil
	case opc == 0x3 && !n:
		return AndsShiftedReg{Operands: rec}, nil
	default:
		return BicsShiftedReg{Operands: rec}, nil
	}
}

func decodeAddSubShiftedReg(word uint32, ip uint64) (Instruction, error) {
	sf := fSf.Extract(word) == 1
	op := (word>>30)&1 == 1
	s := (word>>29)&1 == 1
	shiftType := arch.ShiftType((word >> 22) & 0x3)
	if shiftType == arch.ShiftROR {
		return nil, &ReservedEncoding{Word: word, Ip: ip, Reason: "add/sub (shifted register): ROR is reserved"}
	}
	imm6 := uint8((word >> 10) & 0x3f)
	if !sf && imm6&0x20 != 0 {
		return nil, &ReservedEncoding{Word: word, Ip: ip, Reason: "add/sub (shifted register): imm6 bit 5 reserved when sf=0"}
	}
	rm := gpr(fRm.Extract(word), false)
	rn := gpr(fRn.Extract(word), false)
	rd := gpr(fRd.Extract(word), false)

	rec := ShiftedRegRecord{Sf: sf, ShiftType: shiftType, Imm6: imm6, Rm: rm, Rn: rn, Rd: rd}
	switch {
	case !op && !s:
		return AddShiftedReg{Operands: rec}, nil
	case !op && s:
		return AddsShiftedReg{Operands: rec}, nil
	case op && !s:
		return SubShiftedReg{Operands: rec}, nil
	default:
		return SubsShiftedReg{Operands: rec}, nil
	}
}

func decodeAddSubExtendedReg(word uint32) Instruction {
	sf := fSf.Extract(word) == 1
	op := (word>>30)&1 == 1
	s := (word>>29)&1 == 1
	extend := arch.ExtendType((word >> 13) & 0x7)
	imm3 := uint8((word >> 10) & 0x7)
	rm := gpr(fRm.Extract(word), false)
	rn := gpr(fRn.Extract(word), true)
	rd := gpr(fRd.Extract(word), !s)

	rec := ExtendedRegRecord{Sf: sf, ExtendType: extend, Imm3: imm3, Rm: rm, Rn: rn, Rd: rd}
	switch {
	case !op && !s:
		return AddExtendedReg{Operands: rec}
	case !op && s:
		return AddsExtendedReg{Operands: rec}
	case op && !s:
		return SubExtendedReg{Operands: rec}
	default:
		return SubsExtendedReg{Operands: rec}
	}
}

func decodeCondSelect(word uint32) Instruction {
	sf := fSf.Extract(word) == 1
	op := (word>>30)&1 == 1
	op2 := (word >> 10) & 0x3
	rm := gpr(fRm.Extract(word), false)
	rn := gpr(fRn.Extract(word), false)
	rd := gpr(fRd.Extract(word), false)
	cond := arch.Cond((word >> 12) & 0xf)

	rec := CondSelectRecord{Sf: sf, Rm: rm, Rn: rn, Rd: rd, Cond: cond}
	switch {
	case !op && op2 == 0:
		return Csel{Operands: rec}
	case !op && op2 == 1:
		return Csinc{Operands: rec}
	case op && op2 == 0:
		return Csinv{Operands: rec}
	default:
		return Csneg{Operands: rec}
	}
}

func decodeCondCompareImm(word uint32) Instruction {
	sf := fSf.Extract(word) == 1
	op := (word>>30)&1 == 1
	imm5 := uint8((word >> 16) & 0x1f)
	cond := arch.Cond((word >> 12) & 0xf)
	rn := gpr(fRn.Extract(word), false)
	nzcv := uint8(word & 0xf)

	rec := CondCompareImmRecord{Sf: sf, Imm5: imm5, Cond: cond, Rn: rn, Nzcv: nzcv}
	if op {
		return CcmpImm{Operands: rec}
	}
	return CcmnImm{Operands: rec}
}

func decodeCondCompareReg(word uint32) Instruction {
	sf := fSf.Extract(word) == 1
	op := (word>>30)&1 == 1
	rm := gpr(fRm.Extract(word), false)
	cond := arch.Cond((word >> 12) & 0xf)
	rn := gpr(fRn.Extract(word), false)
	nzcv := uint8(word & 0xf)

	rec := CondCompareRegRecord{Sf: sf, Rm: rm, Cond: cond, Rn: rn, Nzcv: nzcv}
	if op {
		return CcmpReg{Operands: rec}
	}
	return CcmnReg{Operands: rec}
}

func decodeDataProc2Src(word uint32) Instruction {
	sf := fSf.Extract(word) == 1
	opcode := (word >> 10) & 0x3f
	rm := gpr(fRm.Extract(word), false)
	rn := gpr(fRn.Extract(word), false)
	rd := gpr(fRd.Extract(word), false)

	rec := DataProc2SrcRecord{Sf: sf, Rm: rm, Rn: rn, Rd: rd}
	switch opcode {
	case 0x02:
		return Udiv{Operands: rec}
	case 0x03:
		return Sdiv{Operands: rec}
	case 0x08:
		return Lslv{Operands: rec}
	case 0x09:
		return Lsrv{Operands: rec}
	case 0x0a:
		return Asrv{Operands: rec}
	default:
		return Rorv{Operands: rec}
	}
}

func decodeDataProc3Src(word uint32) Instruction {
	sf := fSf.Extract(word) == 1
	o0 := (word>>15)&1 == 1
	rm := gpr(fRm.Extract(word), false)
	ra := gpr((bitmatch.Field{Lo: 10, Hi: 15}).Extract(word), false)
	rn := gpr(fRn.Extract(word), false)
	rd := gpr(fRd.Extract(word), false)

	rec := DataProc3SrcRecord{Sf: sf, Rm: rm, Ra: ra, Rn: rn, Rd: rd}
	if o0 {
		return Msub{Operands: rec}
	}
	return Madd{Operands: rec}
}
