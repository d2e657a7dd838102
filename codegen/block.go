package codegen

import (
	"fmt"

	"github.com/sarchlab/aarch64run/cpu"
	"github.com/sarchlab/aarch64run/ir"
)

// CompiledBlock is the fully compiled form of one ir.BasicBlock: given
// the current CPU state, it performs every statement's effect in order.
type CompiledBlock func(*cpu.CPU)

// CompileStatement compiles one IR statement into the CPU mutation it
// performs.
func CompileStatement(s ir.Statement) CompiledBlock {
	switch st := s.(type) {
	case ir.WriteGpr:
		value := Compile(st.Value)
		reg := st.Reg
		return func(c *cpu.CPU) { c.Gpr.Write(reg, value(c).U64()) }

	case ir.WriteFpr:
		value := Compile(st.Value)
		reg := st.Reg
		return func(c *cpu.CPU) { c.Fpr.Write(reg, value(c).Lane128()) }

	case ir.WriteIp:
		value := Compile(st.Value)
		return func(c *cpu.CPU) { c.SetIp(value(c).U64()) }

	case ir.WriteFlag:
		value := Compile(st.Value)
		return func(c *cpu.CPU) { c.SetFlag(value(c).U64()) }

	case ir.WriteMem:
		addr := Compile(st.Addr)
		value := Compile(st.Value)
		t := st.Type
		return func(c *cpu.CPU) {
			a := addr(c).U64()
			v := value(c)
			mustLoad(writeMem(c.Mem(a), t, v))
		}

	case ir.Eval:
		expr := Compile(st.Node)
		return func(c *cpu.CPU) { expr(c) }

	default:
		panic(fmt.Sprintf("codegen: unhandled statement %T", s))
	}
}

// writeMem stores v's bits at frame, at the width t declares.
func writeMem(frame cpu.MemFrame, t ir.Type, v Value) error {
	switch t {
	case ir.Bool:
		if v.Bool() {
			return frame.WriteU8(1)
		}
		return frame.WriteU8(0)
	case ir.U8, ir.I8:
		return frame.WriteU8(v.U8())
	case ir.U16, ir.I16:
		return frame.WriteU16(v.U16())
	case ir.U32, ir.I32, ir.F32:
		return frame.WriteU32(v.U32())
	case ir.U64, ir.I64, ir.F64:
		return frame.WriteU64(v.U64())
	default:
		if t.IsVector() {
			l := v.Lane128()
			buf := make([]byte, t.VectorLanes()*uint8(t.VectorElem().Bitwidth()/8))
			bytesFromLane128(l, buf)
			return frame.Write(buf)
		}
		panic(fmt.Sprintf("codegen: WriteMem has no lowering for %v", t))
	}
}

func bytesFromLane128(l cpu.Lane128, buf []byte) {
	for i := 0; i < len(buf) && i < 8; i++ {
		buf[i] = byte(l.Lo >> (8 * i))
	}
	for i := 8; i < len(buf) && i < 16; i++ {
		buf[i] = byte(l.Hi >> (8 * (i - 8)))
	}
}

// CompileBlock compiles every statement in b once and returns a single
// closure that replays them, in order, against the CPU it's given. The
// returned closure does not re-walk the IR tree on each invocation.
func CompileBlock(b *ir.BasicBlock) CompiledBlock {
	stmts := make([]CompiledBlock, len(b.Stmts))
	for i, s := range b.Stmts {
		stmts[i] = CompileStatement(s)
	}
	return func(c *cpu.CPU) {
		for _, s := range stmts {
			s(c)
		}
	}
}
