package lift

import (
	"fmt"

	"github.com/sarchlab/aarch64run/arch"
	"github.com/sarchlab/aarch64run/insts"
	"github.com/sarchlab/aarch64run/ir"
)

// liftALU handles every data-processing (immediate and register)
// variant: add/sub, logical, move-wide, PC-relative, bitfield/extract,
// conditional select/compare, shift, and multiply-accumulate.
func liftALU(inst insts.Instruction, b *ir.BasicBlock) error {
	switch v := inst.(type) {
	case insts.AddImm:
		liftAddSubImm(b, v.Operands, false, false)
	case insts.SubImm:
		liftAddSubImm(b, v.Operands, true, false)
	case insts.AddsImm:
		liftAddSubImm(b, v.Operands, false, true)
	case insts.SubsImm:
		liftAddSubImm(b, v.Operands, true, true)

	case insts.AndImm:
		liftLogicalImm(b, v.Operands, bitwiseAnd, false)
	case insts.OrrImm:
		liftLogicalImm(b, v.Operands, bitwiseOr, false)
	case insts.EorImm:
		liftLogicalImm(b, v.Operands, bitwiseXor, false)
	case insts.AndsImm:
		liftLogicalImm(b, v.Operands, bitwiseAnd, true)

	case insts.Movz:
		liftMoveWide(b, v.Operands, moveZ)
	case insts.Movn:
		liftMoveWide(b, v.Operands, moveN)
	case insts.Movk:
		liftMoveWide(b, v.Operands, moveK)

	case insts.Adr:
		liftPCRel(b, v.Operands, false)
	case insts.Adrp:
		liftPCRel(b, v.Operands, true)

	case insts.Ubfm:
		liftBitfield(b, v.Operands, bfUnsigned)
	case insts.Sbfm:
		liftBitfield(b, v.Operands, bfSigned)
	case insts.Bfm:
		liftBitfield(b, v.Operands, bfInsert)
	case insts.Extr:
		liftExtract(b, v.Operands)

	case insts.AddShiftedReg:
		liftAddSubShifted(b, v.Operands, false, false)
	case insts.SubShiftedReg:
		liftAddSubShifted(b, v.Operands, true, false)
	case insts.AddsShiftedReg:
		liftAddSubShifted(b, v.Operands, false, true)
	case insts.SubsShiftedReg:
		liftAddSubShifted(b, v.Operands, true, true)

	case insts.AddExtendedReg:
		liftAddSubExtended(b, v.Operands, false, false)
	case insts.SubExtendedReg:
		liftAddSubExtended(b, v.Operands, true, false)
	case insts.AddsExtendedReg:
		liftAddSubExtended(b, v.Operands, false, true)
	case insts.SubsExtendedReg:
		liftAddSubExtended(b, v.Operands, true, true)

	case insts.AndShiftedReg:
		liftLogicalShifted(b, v.Operands, logicalAnd, false)
	case insts.OrrShiftedReg:
		liftLogicalShifted(b, v.Operands, logicalOrr, false)
	case insts.OrnShiftedReg:
		liftLogicalShifted(b, v.Operands, logicalOrn, false)
	case insts.EorShiftedReg:
		liftLogicalShifted(b, v.Operands, logicalEor, false)
	case insts.EonShiftedReg:
		liftLogicalShifted(b, v.Operands, logicalEon, false)
	case insts.BicShiftedReg:
		liftLogicalShifted(b, v.Operands, logicalBic, false)
	case insts.AndsShiftedReg:
		liftLogicalShifted(b, v.Operands, logicalAnd, true)
	case insts.BicsShiftedReg:
		liftLogicalShifted(b, v.Operands, logicalBic, true)

	case insts.Csel:
		liftCondSelect(b, v.Operands, selPlain)
	case insts.Csinc:
		liftCondSelect(b, v.Operands, selInc)
	case insts.Csinv:
		liftCondSelect(b, v.Operands, selInv)
	case insts.Csneg:
		liftCondSelect(b, v.Operands, selNeg)

	case insts.CcmpImm:
		liftCondCompareImm(b, v.Operands, true)
	case insts.CcmnImm:
		liftCondCompareImm(b, v.Operands, false)
	case insts.CcmpReg:
		liftCondCompareReg(b, v.Operands, true)
	case insts.CcmnReg:
		liftCondCompareReg(b, v.Operands, false)

	case insts.Udiv:
		liftDivide(b, v.Operands, false)
	case insts.Sdiv:
		liftDivide(b, v.Operands, true)
	case insts.Lslv:
		liftShiftReg(b, v.Operands, arch.ShiftLSL)
	case insts.Lsrv:
		liftShiftReg(b, v.Operands, arch.ShiftLSR)
	case insts.Asrv:
		liftShiftReg(b, v.Operands, arch.ShiftASR)
	case insts.Rorv:
		liftShiftReg(b, v.Operands, arch.ShiftROR)

	case insts.Madd:
		liftMulAdd(b, v.Operands, false)
	case insts.Msub:
		liftMulAdd(b, v.Operands, true)

	default:
		trap(b, fmt.Sprintf("%T", inst))
		return nil
	}
	advanceIp(b)
	return nil
}

func liftAddSubImm(b *ir.BasicBlock, rec insts.AddSubImmRecord, isSub, setFlags bool) {
	t := gprType(rec.Sf)
	imm := uint64(rec.Imm12)
	if rec.Shift {
		imm <<= 12
	}
	lhs := gpr(t, rec.Rn)
	rhs := ir.Immediate{Type: t, Value: imm}
	var node ir.Node
	switch {
	case isSub && setFlags:
		node = ir.Subc{Type: t, Lhs: lhs, Rhs: rhs}
	case isSub:
		node = ir.Sub{Type: t, Lhs: lhs, Rhs: rhs}
	case setFlags:
		node = ir.Addc{Type: t, Lhs: lhs, Rhs: rhs}
	default:
		node = ir.Add{Type: t, Lhs: lhs, Rhs: rhs}
	}
	b.Append(ir.WriteGpr{Reg: rec.Rd, Value: node})
}

func liftAddSubShifted(b *ir.BasicBlock, rec insts.ShiftedRegRecord, isSub, setFlags bool) {
	t := gprType(rec.Sf)
	lhs := gpr(t, rec.Rn)
	rhs := ir.Ir{Node: materializeShift(t, rec.ShiftType, rec.Imm6, rec.Rm)}
	var node ir.Node
	switch {
	case isSub && setFlags:
		node = ir.Subc{Type: t, Lhs: lhs, Rhs: rhs}
	case isSub:
		node = ir.Sub{Type: t, Lhs: lhs, Rhs: rhs}
	case setFlags:
		node = ir.Addc{Type: t, Lhs: lhs, Rhs: rhs}
	default:
		node = ir.Add{Type: t, Lhs: lhs, Rhs: rhs}
	}
	b.Append(ir.WriteGpr{Reg: rec.Rd, Value: node})
}

func liftAddSubExtended(b *ir.BasicBlock, rec insts.ExtendedRegRecord, isSub, setFlags bool) {
	t := gprType(rec.Sf)
	lhs := gpr(t, rec.Rn)
	rhs := ir.Ir{Node: materializeExtend(t, rec.ExtendType, rec.Imm3, rec.Rm)}
	var node ir.Node
	switch {
	case isSub && setFlags:
		node = ir.Subc{Type: t, Lhs: lhs, Rhs: rhs}
	case isSub:
		node = ir.Sub{Type: t, Lhs: lhs, Rhs: rhs}
	case setFlags:
		node = ir.Addc{Type: t, Lhs: lhs, Rhs: rhs}
	default:
		node = ir.Add{Type: t, Lhs: lhs, Rhs: rhs}
	}
	b.Append(ir.WriteGpr{Reg: rec.Rd, Value: node})
}

type bitwiseKind uint8

const (
	bitwiseAnd bitwiseKind = iota
	bitwiseOr
	bitwiseXor
)

func liftLogicalImm(b *ir.BasicBlock, rec insts.LogicalImmRecord, op bitwiseKind, setFlags bool) {
	t := gprType(rec.Sf)
	size := t.Bitwidth()
	mask, ok := decodeLogicalImmediate(rec.N, rec.Imms, rec.Immr, size)
	if !ok {
		diagnostic(b, "logical-immediate reserved encoding")
		return
	}
	lhs := gpr(t, rec.Rn)
	rhs := ir.Immediate{Type: t, Value: mask}
	var bitwise ir.Node
	switch op {
	case bitwiseOr:
		bitwise = ir.Or{Type: t, Lhs: lhs, Rhs: rhs}
	case bitwiseXor:
		bitwise = ir.Xor{Type: t, Lhs: lhs, Rhs: rhs}
	default:
		bitwise = ir.And{Type: t, Lhs: lhs, Rhs: rhs}
	}
	if setFlags {
		b.Append(ir.WriteGpr{Reg: rec.Rd, Value: ir.LogicFlags{Type: t, Operand: ir.Ir{Node: bitwise}}})
	} else {
		b.Append(ir.WriteGpr{Reg: rec.Rd, Value: bitwise})
	}
}

type logicalKind uint8

const (
	logicalAnd logicalKind = iota
	logicalOrr
	logicalOrn
	logicalEor
	logicalEon
	logicalBic
)

func liftLogicalShifted(b *ir.BasicBlock, rec insts.ShiftedRegRecord, kind logicalKind, setFlags bool) {
	t := gprType(rec.Sf)
	rhs := ir.Ir{Node: materializeShift(t, rec.ShiftType, rec.Imm6, rec.Rm)}
	if kind == logicalOrn || kind == logicalEon || kind == logicalBic {
		rhs = ir.Ir{Node: ir.Not{Type: t, Operand: rhs}}
	}
	lhs := gpr(t, rec.Rn)
	var bitwise ir.Node
	switch kind {
	case logicalOrr, logicalOrn:
		bitwise = ir.Or{Type: t, Lhs: lhs, Rhs: rhs}
	case logicalEor, logicalEon:
		bitwise = ir.Xor{Type: t, Lhs: lhs, Rhs: rhs}
	default: // logicalAnd, logicalBic
		bitwise = ir.And{Type: t, Lhs: lhs, Rhs: rhs}
	}
	if setFlags {
		b.Append(ir.WriteGpr{Reg: rec.Rd, Value: ir.LogicFlags{Type: t, Operand: ir.Ir{Node: bitwise}}})
	} else {
		b.Append(ir.WriteGpr{Reg: rec.Rd, Value: bitwise})
	}
}

type moveKind uint8

const (
	moveZ moveKind = iota
	moveN
	moveK
)

func liftMoveWide(b *ir.BasicBlock, rec insts.MoveWideRecord, kind moveKind) {
	t := gprType(rec.Sf)
	shift := uint(rec.Hw) * 16
	imm := uint64(rec.Imm16) << shift

	switch kind {
	case moveZ:
		b.Append(ir.WriteGpr{Reg: rec.Rd, Value: ir.Value{Type: t, Operand: ir.Immediate{Type: t, Value: imm}}})
	case moveN:
		b.Append(ir.WriteGpr{Reg: rec.Rd, Value: ir.Not{Type: t, Operand: ir.Immediate{Type: t, Value: imm}}})
	case moveK:
		clearMask := ^(uint64(0xffff) << shift)
		kept := ir.And{Type: t, Lhs: gpr(t, rec.Rd), Rhs: ir.Immediate{Type: t, Value: clearMask}}
		merged := ir.Or{Type: t, Lhs: ir.Ir{Node: kept}, Rhs: ir.Immediate{Type: t, Value: imm}}
		b.Append(ir.WriteGpr{Reg: rec.Rd, Value: merged})
	}
}

func liftPCRel(b *ir.BasicBlock, rec insts.PCRelRecord, page bool) {
	if !page {
		node := ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmI64(rec.Imm)}
		b.Append(ir.WriteGpr{Reg: rec.Rd, Value: node})
		return
	}
	aligned := ir.And{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmU64(^uint64(0xfff))}
	node := ir.Add{Type: ir.U64, Lhs: ir.Ir{Node: aligned}, Rhs: ir.ImmI64(rec.Imm << 12)}
	b.Append(ir.WriteGpr{Reg: rec.Rd, Value: node})
}

type bitfieldKind uint8

const (
	bfUnsigned bitfieldKind = iota
	bfSigned
	bfInsert
)

func liftBitfield(b *ir.BasicBlock, rec insts.BitfieldRecord, kind bitfieldKind) {
	t := gprType(rec.Sf)
	size := t.Bitwidth()
	width := bitfieldFieldWidth(rec.Immr, rec.Imms, size)
	fieldMask := onesMask(width, size)

	rotated := ir.Rotr{Type: t, Lhs: gpr(t, rec.Rn), Rhs: ir.ImmU64(uint64(rec.Immr))}
	bot := ir.And{Type: t, Lhs: ir.Ir{Node: rotated}, Rhs: ir.Immediate{Type: t, Value: fieldMask}}

	switch kind {
	case bfUnsigned:
		b.Append(ir.WriteGpr{Reg: rec.Rd, Value: bot})
	case bfSigned:
		shiftAmt := uint64(size - width)
		shl := ir.LShl{Type: t, Lhs: ir.Ir{Node: bot}, Rhs: ir.ImmU64(shiftAmt)}
		ashr := ir.AShr{Type: t, Lhs: ir.Ir{Node: shl}, Rhs: ir.ImmU64(shiftAmt)}
		b.Append(ir.WriteGpr{Reg: rec.Rd, Value: ashr})
	case bfInsert:
		kept := ir.And{Type: t, Lhs: gpr(t, rec.Rd), Rhs: ir.Immediate{Type: t, Value: ^fieldMask}}
		merged := ir.Or{Type: t, Lhs: ir.Ir{Node: kept}, Rhs: ir.Ir{Node: bot}}
		b.Append(ir.WriteGpr{Reg: rec.Rd, Value: merged})
	}
}

func liftExtract(b *ir.BasicBlock, rec insts.ExtractRecord) {
	t := gprType(rec.Sf)
	size := t.Bitwidth()
	imms := int(rec.Imms)
	if imms == 0 {
		b.Append(ir.WriteGpr{Reg: rec.Rd, Value: ir.Value{Type: t, Operand: gpr(t, rec.Rm)}})
		return
	}
	lo := ir.LShr{Type: t, Lhs: gpr(t, rec.Rm), Rhs: ir.ImmU64(uint64(imms))}
	hi := ir.LShl{Type: t, Lhs: gpr(t, rec.Rn), Rhs: ir.ImmU64(uint64(size - imms))}
	merged := ir.Or{Type: t, Lhs: ir.Ir{Node: lo}, Rhs: ir.Ir{Node: hi}}
	b.Append(ir.WriteGpr{Reg: rec.Rd, Value: merged})
}

type selectKind uint8

const (
	selPlain selectKind = iota
	selInc
	selInv
	selNeg
)

func liftCondSelect(b *ir.BasicBlock, rec insts.CondSelectRecord, kind selectKind) {
	t := gprType(rec.Sf)
	trueVal := gpr(t, rec.Rn)
	var falseVal ir.Operand
	switch kind {
	case selPlain:
		falseVal = gpr(t, rec.Rm)
	case selInc:
		falseVal = ir.Ir{Node: ir.Add{Type: t, Lhs: gpr(t, rec.Rm), Rhs: ir.Immediate{Type: t, Value: 1}}}
	case selInv:
		falseVal = ir.Ir{Node: ir.Not{Type: t, Operand: gpr(t, rec.Rm)}}
	case selNeg:
		falseVal = ir.Ir{Node: ir.Sub{Type: t, Lhs: ir.Immediate{Type: t, Value: 0}, Rhs: gpr(t, rec.Rm)}}
	}
	node := ir.If{Type: t, Cond: conditionOperand(rec.Cond), Then: trueVal, Else: falseVal}
	b.Append(ir.WriteGpr{Reg: rec.Rd, Value: node})
}

func liftCondCompareImm(b *ir.BasicBlock, rec insts.CondCompareImmRecord, isSub bool) {
	t := gprType(rec.Sf)
	lhs := gpr(t, rec.Rn)
	rhs := ir.Immediate{Type: t, Value: uint64(rec.Imm5)}
	liftCondCompare(b, rec.Cond, t, lhs, rhs, rec.Nzcv, isSub)
}

func liftCondCompareReg(b *ir.BasicBlock, rec insts.CondCompareRegRecord, isSub bool) {
	t := gprType(rec.Sf)
	lhs := gpr(t, rec.Rn)
	rhs := gpr(t, rec.Rm)
	liftCondCompare(b, rec.Cond, t, lhs, rhs, rec.Nzcv, isSub)
}

func liftCondCompare(b *ir.BasicBlock, cond arch.Cond, t ir.Type, lhs, rhs ir.Operand, nzcv uint8, isSub bool) {
	computed := pureCompareFlags(isSub, t, lhs, rhs)
	literal := ir.ImmU64(uint64(nzcv))
	node := ir.If{Type: ir.U64, Cond: conditionOperand(cond), Then: computed, Else: literal}
	b.Append(ir.WriteFlag{Value: node})
}

func liftDivide(b *ir.BasicBlock, rec insts.DataProc2SrcRecord, signed bool) {
	t := gprType(rec.Sf)
	if signed {
		t = signedOf(t)
	}
	node := ir.Div{Type: t, Lhs: gpr(t, rec.Rn), Rhs: gpr(t, rec.Rm)}
	b.Append(ir.WriteGpr{Reg: rec.Rd, Value: node})
}

func signedOf(t ir.Type) ir.Type {
	if t == ir.U64 {
		return ir.I64
	}
	return ir.I32
}

func liftShiftReg(b *ir.BasicBlock, rec insts.DataProc2SrcRecord, st arch.ShiftType) {
	t := gprType(rec.Sf)
	lhs := gpr(t, rec.Rn)
	rhs := gpr(t, rec.Rm)
	var node ir.Node
	switch st {
	case arch.ShiftLSL:
		node = ir.LShl{Type: t, Lhs: lhs, Rhs: rhs}
	case arch.ShiftLSR:
		node = ir.LShr{Type: t, Lhs: lhs, Rhs: rhs}
	case arch.ShiftASR:
		node = ir.AShr{Type: t, Lhs: lhs, Rhs: rhs}
	default:
		node = ir.Rotr{Type: t, Lhs: lhs, Rhs: rhs}
	}
	b.Append(ir.WriteGpr{Reg: rec.Rd, Value: node})
}

func liftMulAdd(b *ir.BasicBlock, rec insts.DataProc3SrcRecord, sub bool) {
	t := gprType(rec.Sf)
	mul := ir.Mul{Type: t, Lhs: gpr(t, rec.Rn), Rhs: gpr(t, rec.Rm)}
	var node ir.Node
	if sub {
		node = ir.Sub{Type: t, Lhs: gpr(t, rec.Ra), Rhs: ir.Ir{Node: mul}}
	} else {
		node = ir.Add{Type: t, Lhs: gpr(t, rec.Ra), Rhs: ir.Ir{Node: mul}}
	}
	b.Append(ir.WriteGpr{Reg: rec.Rd, Value: node})
}
