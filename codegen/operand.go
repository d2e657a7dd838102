package codegen

import (
	"fmt"

	"github.com/sarchlab/aarch64run/cpu"
	"github.com/sarchlab/aarch64run/ir"
)

// CompiledCode is a compiled expression: given the current CPU state, it
// returns the scratch Value it evaluates to. Gpr/Fpr/Load reads observe
// whatever state earlier statements in the same block already wrote,
// since a block's statements run in order against one shared *cpu.CPU.
type CompiledCode func(*cpu.CPU) Value

// compileOperand compiles a leaf. Ir/VoidIr recurse into Compile so a
// deeply nested expression (e.g. a shifted register operand) compiles
// to a single closure chain with no re-walking of the tree per call.
func compileOperand(op ir.Operand) CompiledCode {
	switch o := op.(type) {
	case ir.Gpr:
		t, r := o.Type, o.Reg
		return func(c *cpu.CPU) Value { return fromU64(t, c.Gpr.Read(r)) }

	case ir.Fpr:
		t, r := o.Type, o.Reg
		return func(c *cpu.CPU) Value { return fromLane128(t, c.Fpr.Read(r)) }

	case ir.Immediate:
		v := fromU64(o.Type, o.Value)
		return func(*cpu.CPU) Value { return v }

	case ir.Ip:
		return func(c *cpu.CPU) Value { return fromU64(ir.U64, c.Ip()) }

	case ir.Flag:
		return func(c *cpu.CPU) Value { return fromU64(ir.U64, c.Flag()) }

	case ir.Ir:
		return Compile(o.Node)

	case ir.VoidIr:
		return Compile(o.Node)

	case ir.Dbg:
		inner := compileOperand(o.Operand)
		return inner

	case ir.VmInfo:
		panic(fmt.Sprintf("codegen: VmInfo kind %d has no interpreter source yet", o.Kind))

	default:
		panic(fmt.Sprintf("codegen: unhandled operand %T", op))
	}
}
