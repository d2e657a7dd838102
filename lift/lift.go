// Package lift translates decoded AArch64 instructions into the typed
// IR the interpreter codegen compiles. Each family of instructions gets
// its own file (alu.go, branch.go, load_store.go), mirroring the split
// the teacher emulator used for its own ALU/BranchUnit/LoadStoreUnit.
// Unlike the teacher, a lift function never mutates CPU state directly —
// it only appends IR statements describing that mutation, so the same
// translation can be compiled once and replayed many times.
package lift

import (
	"fmt"

	"github.com/sarchlab/aarch64run/insts"
	"github.com/sarchlab/aarch64run/ir"
)

// Unimplemented is returned when the decoder recognized an encoding but
// this package has no translation for it. It is fatal at the executor
// level, not recovered here.
type Unimplemented struct {
	Variant string
}

func (e *Unimplemented) Error() string {
	return fmt.Sprintf("lift: unimplemented variant %s", e.Variant)
}

// advanceIp appends the default "ip += 4" statement every non-branch
// instruction ends with.
func advanceIp(b *ir.BasicBlock) {
	b.Append(ir.WriteIp{Value: ir.Add{Type: ir.U64, Lhs: ir.Ip{}, Rhs: ir.ImmU64(4)}})
}

// diagnostic appends a trap no-op for a recognized-but-uncovered case
// without touching ip; the caller is still responsible for advancing
// ip itself afterward.
func diagnostic(b *ir.BasicBlock, variant string) {
	b.Append(ir.Eval{Node: ir.Nop{Diagnostic: variant}})
}

// trap is diagnostic followed by the default ip advance, for the
// top-level "entirely unrecognized variant" case where Lift returns
// immediately afterward.
func trap(b *ir.BasicBlock, variant string) {
	diagnostic(b, variant)
	advanceIp(b)
}

// Lift translates one decoded instruction into the IR statements
// appended to b. It never advances ip implicitly on the caller's
// behalf — every branch below is responsible for ip itself, including
// the default +4 case.
func Lift(inst insts.Instruction, b *ir.BasicBlock) error {
	switch v := inst.(type) {
	case insts.AddImm, insts.SubImm, insts.AddsImm, insts.SubsImm,
		insts.AndImm, insts.OrrImm, insts.EorImm, insts.AndsImm,
		insts.Movn, insts.Movz, insts.Movk,
		insts.Adr, insts.Adrp,
		insts.Sbfm, insts.Bfm, insts.Ubfm, insts.Extr,
		insts.AddShiftedReg, insts.SubShiftedReg, insts.AddsShiftedReg, insts.SubsShiftedReg,
		insts.AddExtendedReg, insts.SubExtendedReg, insts.AddsExtendedReg, insts.SubsExtendedReg,
		insts.AndShiftedReg, insts.OrrShiftedReg, insts.OrnShiftedReg,
		insts.EorShiftedReg, insts.EonShiftedReg, insts.BicShiftedReg,
		insts.AndsShiftedReg, insts.BicsShiftedReg,
		insts.Csel, insts.Csinc, insts.Csinv, insts.Csneg,
		insts.CcmpImm, insts.CcmnImm, insts.CcmpReg, insts.CcmnReg,
		insts.Udiv, insts.Sdiv, insts.Lslv, insts.Lsrv, insts.Asrv, insts.Rorv,
		insts.Madd, insts.Msub:
		return liftALU(v, b)

	case insts.B, insts.Bl, insts.BCond, insts.Cbz, insts.Cbnz,
		insts.Tbz, insts.Tbnz, insts.Br, insts.Blr, insts.Ret,
		insts.Svc, insts.Nop:
		return liftBranch(v, b)

	case insts.Ldr, insts.Str, insts.LdrRegOffset, insts.StrRegOffset,
		insts.Ldp, insts.Stp, insts.LdrLiteral, insts.LdrFpr, insts.StrFpr:
		return liftLoadStore(v, b)

	default:
		trap(b, fmt.Sprintf("%T", inst))
		return nil
	}
}
