package lift

import (
	"fmt"
	"math/bits"

	"github.com/sarchlab/aarch64run/arch"
	"github.com/sarchlab/aarch64run/insts"
	"github.com/sarchlab/aarch64run/ir"
)

// liftLoadStore handles every memory-access variant: scaled/unscaled
// immediate, register-offset, pair, PC-relative literal, and the D/Q
// register move forms. Every case falls through to the shared +4 ip
// advance; none of these are control transfers.
func liftLoadStore(inst insts.Instruction, b *ir.BasicBlock) error {
	switch v := inst.(type) {
	case insts.Ldr:
		liftLdrStrImm(b, v.Operands)
	case insts.Str:
		liftLdrStrImm(b, v.Operands)
	case insts.LdrRegOffset:
		liftLdrStrRegOffset(b, v.Operands)
	case insts.StrRegOffset:
		liftLdrStrRegOffset(b, v.Operands)
	case insts.Ldp:
		liftLdpStp(b, v.Operands)
	case insts.Stp:
		liftLdpStp(b, v.Operands)
	case insts.LdrLiteral:
		liftLdrLiteral(b, v.Operands)
	case insts.LdrFpr:
		liftFprLoadStore(b, v.Operands)
	case insts.StrFpr:
		liftFprLoadStore(b, v.Operands)

	default:
		trap(b, fmt.Sprintf("%T", inst))
		return nil
	}
	advanceIp(b)
	return nil
}

// elemType maps a memory access width in bits to its IR scalar type.
func elemType(sizeBits uint8) ir.Type {
	switch sizeBits {
	case 8:
		return ir.U8
	case 16:
		return ir.U16
	case 32:
		return ir.U32
	default:
		return ir.U64
	}
}

// loadStoreAddress builds the address the access itself uses, plus an
// optional writeback statement, for the three immediate addressing
// modes. Both NoWriteback and PreIndex use Rn+offset as the access
// address; PostIndex uses plain Rn and defers the +offset to the
// writeback. The caller must append the returned load/store statement
// before the writeback statement so the access reads Rn's value prior
// to the update.
func loadStoreAddress(rn arch.Reg, offset int64, wb insts.WritebackMode) (ir.Node, ir.Statement) {
	base := gpr(ir.U64, rn)
	switch wb {
	case insts.PreIndex:
		addr := ir.Add{Type: ir.U64, Lhs: base, Rhs: ir.ImmI64(offset)}
		return addr, ir.WriteGpr{Reg: rn, Value: addr}
	case insts.PostIndex:
		updated := ir.Add{Type: ir.U64, Lhs: base, Rhs: ir.ImmI64(offset)}
		return ir.Value{Type: ir.U64, Operand: base}, ir.WriteGpr{Reg: rn, Value: updated}
	default: // NoWriteback
		if offset == 0 {
			return ir.Value{Type: ir.U64, Operand: base}, nil
		}
		return ir.Add{Type: ir.U64, Lhs: base, Rhs: ir.ImmI64(offset)}, nil
	}
}

func liftLdrStrImm(b *ir.BasicBlock, rec insts.LoadStoreImmRecord) {
	addr, wb := loadStoreAddress(rec.Rn, rec.Offset, rec.Writeback)
	et := elemType(rec.SizeBits)

	if rec.Load {
		loaded := ir.Load{Type: et, Addr: ir.Ir{Node: addr}}
		destType := gprType(rec.Is64)
		var value ir.Node
		switch {
		case destType == et:
			value = loaded
		case rec.SignExtend:
			value = ir.SextCast{Type: destType, Operand: ir.Ir{Node: loaded}}
		default:
			value = ir.ZextCast{Type: destType, Operand: ir.Ir{Node: loaded}}
		}
		b.Append(ir.WriteGpr{Reg: rec.Rt, Value: value})
	} else {
		val := ir.Value{Type: et, Operand: gpr(et, rec.Rt)}
		b.Append(ir.WriteMem{Type: et, Addr: addr, Value: val})
	}

	if wb != nil {
		b.Append(wb)
	}
}

// byteShiftFor returns the log2 of a memory access's byte width, the
// amount a register-offset address's index register is shifted by
// when its addressing mode applies the access-size scale.
func byteShiftFor(sizeBits uint8) uint8 {
	return uint8(bits.TrailingZeros8(sizeBits / 8))
}

func liftLdrStrRegOffset(b *ir.BasicBlock, rec insts.LoadStoreRegOffsetRecord) {
	var shiftAmt uint8
	if rec.ShiftApplied {
		shiftAmt = byteShiftFor(rec.SizeBits)
	}
	offset := materializeExtend(ir.U64, rec.Extend, shiftAmt, rec.Rm)
	addr := ir.Add{Type: ir.U64, Lhs: gpr(ir.U64, rec.Rn), Rhs: ir.Ir{Node: offset}}
	et := elemType(rec.SizeBits)

	if rec.Load {
		loaded := ir.Load{Type: et, Addr: ir.Ir{Node: addr}}
		destType := gprType(rec.Is64)
		var value ir.Node
		switch {
		case destType == et:
			value = loaded
		case rec.SignExtend:
			value = ir.SextCast{Type: destType, Operand: ir.Ir{Node: loaded}}
		default:
			value = ir.ZextCast{Type: destType, Operand: ir.Ir{Node: loaded}}
		}
		b.Append(ir.WriteGpr{Reg: rec.Rt, Value: value})
	} else {
		val := ir.Value{Type: et, Operand: gpr(et, rec.Rt)}
		b.Append(ir.WriteMem{Type: et, Addr: addr, Value: val})
	}
}

func liftLdpStp(b *ir.BasicBlock, rec insts.LoadStorePairRecord) {
	// LDPSW (Is64 && SignedLoad) reads 32-bit memory elements and
	// sign-extends each into its 64-bit Rt/Rt2 below; the element width
	// tracks SignedLoad, not the destination register width.
	et := ir.U32
	elemBytes := uint64(4)
	if rec.Is64 && !rec.SignedLoad {
		et = ir.U64
		elemBytes = 8
	}
	addr, wb := loadStoreAddress(rec.Rn, rec.Offset, rec.Writeback)
	addr2 := ir.Add{Type: ir.U64, Lhs: ir.Ir{Node: addr}, Rhs: ir.ImmU64(elemBytes)}

	if rec.Load {
		load1 := ir.Load{Type: et, Addr: ir.Ir{Node: addr}}
		load2 := ir.Load{Type: et, Addr: ir.Ir{Node: addr2}}
		if rec.SignedLoad {
			v1 := ir.SextCast{Type: ir.U64, Operand: ir.Ir{Node: load1}}
			v2 := ir.SextCast{Type: ir.U64, Operand: ir.Ir{Node: load2}}
			b.Append(ir.WriteGpr{Reg: rec.Rt, Value: v1})
			b.Append(ir.WriteGpr{Reg: rec.Rt2, Value: v2})
		} else {
			b.Append(ir.WriteGpr{Reg: rec.Rt, Value: load1})
			b.Append(ir.WriteGpr{Reg: rec.Rt2, Value: load2})
		}
	} else {
		val1 := ir.Value{Type: et, Operand: gpr(et, rec.Rt)}
		val2 := ir.Value{Type: et, Operand: gpr(et, rec.Rt2)}
		b.Append(ir.WriteMem{Type: et, Addr: addr, Value: val1})
		b.Append(ir.WriteMem{Type: et, Addr: addr2, Value: val2})
	}

	if wb != nil {
		b.Append(wb)
	}
}

func liftLdrLiteral(b *ir.BasicBlock, rec insts.LoadStoreLiteralRecord) {
	addr := ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmI64(rec.Offset)}
	et := gprType(rec.Is64)
	loaded := ir.Load{Type: et, Addr: ir.Ir{Node: addr}}
	b.Append(ir.WriteGpr{Reg: rec.Rt, Value: loaded})
}

// fprWidthType maps an FPR load/store's declared bit width to the raw
// (non-arithmetic) IR type it moves; these are plain bit-pattern moves,
// never floating-point arithmetic, so integer/vector types carry the
// bits rather than F32/F64.
func fprWidthType(width uint8) ir.Type {
	switch width {
	case 32:
		return ir.U32
	case 64:
		return ir.U64
	default:
		return ir.VectorType(ir.U8, 16)
	}
}

func liftFprLoadStore(b *ir.BasicBlock, rec insts.FprLoadStoreImmRecord) {
	addr, wb := loadStoreAddress(rec.Rn, rec.Offset, rec.Writeback)
	t := fprWidthType(rec.Width)

	if rec.Load {
		loaded := ir.Load{Type: t, Addr: ir.Ir{Node: addr}}
		b.Append(ir.WriteFpr{Reg: rec.Rt, Value: loaded})
	} else {
		val := ir.Value{Type: t, Operand: ir.Fpr{Type: t, Reg: rec.Rt}}
		b.Append(ir.WriteMem{Type: t, Addr: addr, Value: val})
	}

	if wb != nil {
		b.Append(wb)
	}
}
