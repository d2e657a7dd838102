package insts

import (
	"github.com/sarchlab/aarch64run/arch"
	"github.com/sarchlab/aarch64run/bitmatch"
)

// decodeLoadStore handles the Loads and Stores class (ARM ARM C4.1.67).
// Sub-families are distinguished by bits[29:27]: 111 selects the
// single-register immediate/register-offset forms, 101 selects LDP/STP,
// 011 selects the PC-relative literal form.
func decodeLoadStore(word uint32, ip uint64) (Instruction, error) {
	switch (word >> 27) & 0x7 {
	case 0x7:
		return decodeLoadStoreSingle(word, ip)
	case 0x5:
		return decodeLoadStorePair(word, ip)
	case 0x3:
		return decodeLoadStoreLiteral(word, ip)
	}
	return nil, &UnknownInstruction{Word: word, Ip: ip}
}

func decodeLoadStoreSingle(word uint32, ip uint64) (Instruction, error) {
	size := (word >> 30) & 0x3
	v := (word>>26)&1 == 1
	opc := (word >> 22) & 0x3
	load := opc&0x1 == 1 || opc == 0x2 || opc == 0x3
	if opc == 0 {
		load = false
	}

	addrClass := (word >> 24) & 0x3
	rn := gpr(fRn.Extract(word), true)

	if v {
		return decodeFprLoadStoreSingle(word, size, opc, addrClass, rn, ip)
	}

	sizeBits, is64 := loadSizeFor(size, opc)
	signExt := opc == 0x2 || opc == 0x3

	switch addrClass {
	case 0x1: // unsigned immediate, scaled by access size
		imm12 := int64((word >> 10) & 0xfff)
		offset := imm12 << shiftForSize(sizeBits)
		rt := gpr(fRd.Extract(word), false)
		rec := LoadStoreImmRecord{SizeBits: sizeBits, Is64: is64, SignExtend: signExt, Load: load, Writeback: NoWriteback, Offset: offset, Rn: rn, Rt: rt}
		return ldrOrStr(rec, load), nil
	case 0x0:
		if (word>>21)&1 == 1 && (word>>10)&0x3 == 0x2 {
			return decodeLoadStoreRegOffset(word, sizeBits, is64, signExt, load), nil
		}
		imm9 := signExtend(int64((word>>12)&0x1ff), 9)
		rt := gpr(fRd.Extract(word), false)
		var wb WritebackMode
		switch (word >> 10) & 0x3 {
		case 0x1:
			wb = PostIndex
		case 0x3:
			wb = PreIndex
		default:
			wb = NoWriteback
		}
		rec := LoadStoreImmRecord{SizeBits: sizeBits, Is64: is64, SignExtend: signExt, Load: load, Writeback: wb, Offset: imm9, Rn: rn, Rt: rt}
		return ldrOrStr(rec, load), nil
	}
	return nil, &UnknownInstruction{Word: word, Ip: ip}
}

func loadSizeFor(size, opc uint32) (sizeBits uint8, is64 bool) {
	switch size {
	case 0x0:
		return 8, opc == 0x2
	case 0x1:
		return 16, opc == 0x2
	case 0x2:
		return 32, opc == 0x2
	default:
		return 64, true
	}
}

func shiftForSize(sizeBits uint8) uint {
	switch sizeBits {
	case 8:
		return 0
	case 16:
		return 1
	case 32:
		return 2
	default:
		return 3
	}
}

func ldrOrStr(rec LoadStoreImmRecord, load bool) Instruction {
	if load {
		return Ldr{Operands: rec}
	}
	return Str{Operands: rec}
}

func decodeLoadStoreRegOffset(word uint32, sizeBits uint8, is64, signExt, load bool) Instruction {
	rm := gpr(fRm.Extract(word), false)
	extend := arch.ExtendType((word >> 13) & 0x7)
	shiftApplied := (word>>12)&1 == 1
	rn := gpr(fRn.Extract(word), true)
	rt := gpr(fRd.Extract(word), false)

	rec := LoadStoreRegOffsetRecord{SizeBits: sizeBits, Is64: is64, SignExtend: signExt, Load: load, Extend: extend, ShiftApplied: shiftApplied, Rn: rn, Rt: rt, Rm: rm}
	if load {
		return LdrRegOffset{Operands: rec}
	}
	return StrRegOffset{Operands: rec}
}

func decodeFprLoadStoreSingle(word uint32, size, opc, addrClass uint32, rn arch.Reg, ip uint64) (Instruction, error) {
	var width uint8
	switch {
	case size == 0x3 && opc&0x2 == 0:
		width = 64
	case size == 0x0 && opc&0x2 != 0:
		width = 128
	default:
		return nil, &UnknownInstruction{Word: word, Ip: ip}
	}
	load := opc&0x1 == 1
	rt := arch.VRegFromIndex(uint8(fRd.Extract(word)))

	if addrClass != 0x1 {
		return nil, &UnknownInstruction{Word: word, Ip: ip}
	}
	imm12 := int64((word >> 10) & 0xfff)
	scale := uint(3) // 64-bit (D register) accesses are scaled by 8
	if width == 128 {
		scale = 4 // 128-bit (Q register) accesses are scaled by 16
	}
	rec := FprLoadStoreImmRecord{Width: width, Load: load, Writeback: NoWriteback, Offset: imm12 << scale, Rn: rn, Rt: rt}
	if load {
		return LdrFpr{Operands: rec}, nil
	}
	return StrFpr{Operands: rec}, nil
}

// decodeLoadStorePair handles LDP/STP (ARM ARM C4.1.67), distinguished by
// the (opc, V, L) 3-tuple: opc selects the element width (and, at
// opc==0b01, the memory-tagging STGP/sign-extending LDPSW split), V
// selects the integer register file versus the SIMD&FP one, and L
// selects load versus store.
func decodeLoadStorePair(word uint32, ip uint64) (Instruction, error) {
	opc := (word >> 30) & 0x3
	v := (word>>26)&1 == 1
	l := (word>>22)&1 == 1
	addrClass := (word >> 23) & 0x3
	var wb WritebackMode
	switch addrClass {
	case 0x1:
		wb = PostIndex
	case 0x2:
		wb = NoWriteback
	case 0x3:
		wb = PreIndex
	default:
		return nil, &UnknownInstruction{Word: word, Ip: ip}
	}

	if v {
		// SIMD&FP LDP/STP (V register pair): a distinct variant from the
		// integer form below, not a reinterpretation of it; not in scope.
		return nil, &UnknownInstruction{Word: word, Ip: ip}
	}

	var is64, signedLoad bool
	switch opc {
	case 0x0:
		is64 = false
	case 0x1:
		if !l {
			// STGP (memory tagging extension store pair), not in scope.
			return nil, &UnknownInstruction{Word: word, Ip: ip}
		}
		is64, signedLoad = true, true // LDPSW: 32-bit elements, sign-extended into 64-bit Rt/Rt2
	case 0x2:
		is64 = true
	default:
		return nil, &UnknownInstruction{Word: word, Ip: ip}
	}

	scale := uint(2)
	if is64 && !signedLoad {
		scale = 3
	}
	imm7 := signExtend(int64((word>>15)&0x7f), 7) << scale
	rt2 := gpr((bitmatch.Field{Lo: 10, Hi: 15}).Extract(word), false)
	rn := gpr(fRn.Extract(word), true)
	rt := gpr(fRd.Extract(word), false)

	rec := LoadStorePairRecord{Is64: is64, SignedLoad: signedLoad, Load: l, Writeback: wb, Offset: imm7, Rn: rn, Rt: rt, Rt2: rt2}
	if l {
		return Ldp{Operands: rec}, nil
	}
	return Stp{Operands: rec}, nil
}

func decodeLoadStoreLiteral(word uint32, ip uint64) (Instruction, error) {
	opc := (word >> 30) & 0x3
	if (word>>26)&1 == 1 {
		return nil, &UnknownInstruction{Word: word, Ip: ip} // FP/SIMD literal load, not in scope
	}
	if opc != 0x0 && opc != 0x1 {
		return nil, &UnknownInstruction{Word: word, Ip: ip}
	}
	raw := int64((word >> 5) & 0x7ffff)
	offset := signExtend(raw<<2, 21)
	rt := gpr(fRd.Extract(word), false)
	return LdrLiteral{Operands: LoadStoreLiteralRecord{Is64: opc == 0x1, Offset: offset, Rt: rt}}, nil
}
