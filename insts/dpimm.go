package insts

import (
	"github.com/sarchlab/aarch64run/arch"
	"github.com/sarchlab/aarch64run/bitmatch"
)

var (
	dpImmSubclass = bitmatch.New[dpImmKind]()
)

type dpImmKind uint8

const (
	dpImmPCRel dpImmKind = iota
	dpImmAddSub
	dpImmAddSubTags
	dpImmLogical
	dpImmMoveWide
	dpImmBitfield
	dpImmExtract
)

func init() {
	// Routed on bits [25:23], the "op0" field of the Data Processing --
	// Immediate class (ARM ARM C4.1.64). Only these three bits are
	// pinned; everything else is a wildcard for this dispatch.
	dpImmSubclass.Bind("xxxxxx000xxxxxxxxxxxxxxxxxxxxxxx", func(uint32) dpImmKind { return dpImmPCRel })
	dpImmSubclass.Bind("xxxxxx001xxxxxxxxxxxxxxxxxxxxxxx", func(uint32) dpImmKind { return dpImmPCRel })
	dpImmSubclass.Bind("xxxxxx010xxxxxxxxxxxxxxxxxxxxxxx", func(uint32) dpImmKind { return dpImmAddSub })
	dpImmSubclass.Bind("xxxxxx011xxxxxxxxxxxxxxxxxxxxxxx", func(uint32) dpImmKind { return dpImmAddSubTags })
	dpImmSubclass.Bind("xxxxxx100xxxxxxxxxxxxxxxxxxxxxxx", func(uint32) dpImmKind { return dpImmLogical })
	dpImmSubclass.Bind("xxxxxx101xxxxxxxxxxxxxxxxxxxxxxx", func(uint32) dpImmKind { return dpImmMoveWide })
	dpImmSubclass.Bind("xxxxxx110xxxxxxxxxxxxxxxxxxxxxxx", func(uint32) dpImmKind { return dpImmBitfield })
	dpImmSubclass.Bind("xxxxxx111xxxxxxxxxxxxxxxxxxxxxxx", func(uint32) dpImmKind { return dpImmExtract })
}

var (
	fSf     = bitmatch.Field{Lo: 31, Hi: 32}
	fRd     = bitmatch.Field{Lo: 0, Hi: 5}
	fRn     = bitmatch.Field{Lo: 5, Hi: 10}
	fRm     = bitmatch.Field{Lo: 16, Hi: 21}
)

func gpr(idx uint32, spMeaning31 bool) arch.Reg {
	return arch.FromIndex(uint8(idx), spMeaning31)
}

func decodeDPImm(word uint32, ip uint64) (Instruction, error) {
	kind, _ := dpImmSubclass.Handle(word)
	switch kind {
	case dpImmPCRel:
		return decodePCRel(word), nil
	case dpImmAddSub:
		return decodeAddSubImm(word), nil
	case dpImmAddSubTags:
		return nil, &UnknownInstruction{Word: word, Ip: ip}
	case dpImmLogical:
		return decodeLogicalImm(word, ip)
	case dpImmMoveWide:
		return decodeMoveWide(word, ip)
	case dpImmBitfield:
		return decodeBitfield(word, ip)
	case dpImmExtract:
		return decodeExtract(word, ip)
	}
	return nil, &UnknownInstruction{Word: word, Ip: ip}
}

func decodePCRel(word uint32) Instruction {
	op := (word>>31)&1 == 1
	immlo := int64((word >> 29) & 0x3)
	immhi := int64((word >> 5) & 0x7ffff)
	raw := (immhi << 2) | immlo
	imm := signExtend(raw, 21)
	rd := gpr((bitmatch.Field{Lo: 0, Hi: 5}).Extract(word), false)

	rec := PCRelRecord{Imm: imm, Rd: rd}
	if op {
		return Adrp{Operands: rec}
	}
	return Adr{Operands: rec}
}

func decodeAddSubImm(word uint32) Instruction {
	sf := fSf.Extract(word) == 1
	op := (word>>30)&1 == 1
	s := (word>>29)&1 == 1
	shift := (word>>22)&1 == 1
	imm12 := uint16((word >> 10) & 0xfff)
	rn := gpr(fRn.Extract(word), true)
	rd := gpr(fRd.Extract(word), !s)

	rec := AddSubImmRecord{Sf: sf, Shift: shift, Imm12: imm12, Rn: rn, Rd: rd}
	switch {
	case !op && !s:
		return AddImm{Operands: rec}
	case !op && s:
		return AddsImm{Operands: rec}
	case op && !s:
		return SubImm{Operands: rec}
	default:
		return SubsImm{Operands: rec}
	}
}

func decodeLogicalImm(word uint32, ip uint64) (Instruction, error) {
	sf := fSf.Extract(word) == 1
	opc := (word >> 29) & 0x3
	n := (word>>22)&1 == 1
	if !sf && n {
		return nil, &ReservedEncoding{Word: word, Ip: ip, Reason: "logical (immediate): N must be 0 when sf=0"}
	}
	immr := uint8((word >> 16) & 0x3f)
	imms := uint8((word >> 10) & 0x3f)
	rn := gpr(fRn.Extract(word), false)
	rd := gpr(fRd.Extract(word), opc != 0x3)

	rec := LogicalImmRecord{Sf: sf, N: n, Immr: immr, Imms: imms, Rn: rn, Rd: rd}
	switch opc {
	case 0x0:
		return AndImm{Operands: rec}, nil
	case 0x1:
		return OrrImm{Operands: rec}, nil
	case 0x2:
		return EorImm{Operands: rec}, nil
	default:
		return AndsImm{Operands: rec}, nil
	}
}

func decodeMoveWide(word uint32, ip uint64) (Instruction, error) {
	sf := fSf.Extract(word) == 1
	opc := (word >> 29) & 0x3
	if opc == 0x1 {
		return nil, &ReservedEncoding{Word: word, Ip: ip, Reason: "move wide: opc=01 is reserved"}
	}
	hw := uint8((word >> 21) & 0x3)
	if !sf && hw > 1 {
		return nil, &ReservedEncoding{Word: word, Ip: ip, Reason: "move wide: hw>0b01 requires sf=1"}
	}
	imm16 := uint16((word >> 5) & 0xffff)
	rd := gpr(fRd.Extract(word), false)

	rec := MoveWideRecord{Sf: sf, Hw: hw, Imm16: imm16, Rd: rd}
	switch opc {
	case 0x0:
		return Movn{Operands: rec}, nil
	case 0x2:
		return Movz{Operands: rec}, nil
	default:
		return Movk{Operands: rec}, nil
	}
}

func decodeBitfield(word uint32, ip uint64) (Instruction, error) {
	sf := fSf.Extract(word) == 1
	opc := (word >> 29) & 0x3
	if opc == 0x3 {
		return nil, &ReservedEncoding{Word: word, Ip: ip, Reason: "bitfield: opc=11 is reserved"}
	}
	n := (word>>22)&1 == 1
	if sf != n {
		return nil, &ReservedEncoding{Word: word, Ip: ip, Reason: "bitfield: sf must equal N"}
	}
	immr := uint8((word >> 16) & 0x3f)
	imms := uint8((word >> 10) & 0x3f)
	rn := gpr(fRn.Extract(word), false)
	rd := gpr(fRd.Extract(word), false)

	rec := BitfieldRecord{Sf: sf, N: n, Immr: immr, Imms: imms, Rn: rn, Rd: rd}
	switch opc {
	case 0x0:
		return Sbfm{Operands: rec}, nil
	case 0x1:
		return Bfm{Operands: rec}, nil
	default:
		return Ubfm{Operands: rec}, nil
	}
}

func decodeExtract(word uint32, ip uint64) (Instruction, error) {
	sf := fSf.Extract(word) == 1
	n := (word>>22)&1 == 1
	if sf != n {
		return nil, &ReservedEncoding{Word: word, Ip: ip, Reason: "extr: sf must equal N"}
	}
	imms := uint8((word >> 10) & 0x3f)
	if !sf && imms&0x20 != 0 {
		return nil, &ReservedEncoding{Word: word, Ip: ip, Reason: "extr: imms bit 5 reserved when sf=0"}
	}
	rm := gpr(fRm.Extract(word), false)
	rn := gpr(fRn.Extract(word), false)
	rd := gpr(fRd.Extract(word), false)

	return Extr{Operands: ExtractRecord{Sf: sf, Rm: rm, Rn: rn, Rd: rd, Imms: imms}}, nil
}

// signExtend sign-extends the low bits-wide value in raw to int64.
func signExtend(raw int64, bits uint) int64 {
	shift := 64 - bits
	return (raw << shift) >> shift
}
