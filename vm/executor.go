// Package vm assembles the decoder, lifter, and codegen into a runnable
// machine: CPU state, flat memory built from an Image, the SVC shim, and
// the fetch/decode/lift/compile/run loop. It mirrors the teacher's
// emu.Emulator in shape (functional options, Step/Run, a StepResult) but
// replaces its direct interpret-and-mutate execution with the
// compile-once, replay-many pipeline the rest of this module builds.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/xid"

	"github.com/sarchlab/aarch64run/arch"
	"github.com/sarchlab/aarch64run/codegen"
	"github.com/sarchlab/aarch64run/cpu"
	"github.com/sarchlab/aarch64run/insts"
	"github.com/sarchlab/aarch64run/ir"
	"github.com/sarchlab/aarch64run/lift"
)

// gprArgs are the AArch64 Linux syscall argument registers X0-X5;
// gprArg8 (X8) carries the syscall number and, after the call, X0 (the
// first entry of gprArgs) carries the return value.
var gprArgs = [6]arch.Reg{arch.X0, arch.X1, arch.X2, arch.X3, arch.X4, arch.X5}

const gprArg8 = arch.X8

// DefaultStackTop and DefaultStackSize match loader's own ELF-loading
// defaults, so a binary built without an explicit stack request behaves
// the same whether it's run through loader.Load or a synthetic Image.
const (
	DefaultStackTop  = 0x7ffffffff000
	DefaultStackSize = 8 * 1024 * 1024
)

// StepResult reports the outcome of one Executor.Step call.
type StepResult struct {
	// Exited is true once an exit_group syscall has terminated the run.
	Exited bool
	// ExitCode is the guest-supplied status, valid only if Exited.
	ExitCode int64
	// Err is set on a fatal condition: a decode failure, an
	// unimplemented lift, a bad memory access, or an unknown syscall.
	Err error
}

// Executor ties fetch, decode, lift, compile, and execute into a single
// loop over one Image, with a block cache so a given ip's instruction
// sequence is decoded and compiled at most once.
type Executor struct {
	cpu       *cpu.CPU
	decoder   *insts.Decoder
	cache     *blockCache
	interrupt InterruptModel

	stdout io.Writer
	stderr io.Writer

	instructionCount uint64
	maxInstructions  uint64

	stackTop uint64

	onBlockCompiled func(ip uint64, id xid.ID)
}

// ExecutorOption configures an Executor at construction time.
type ExecutorOption func(*Executor)

// WithStdout directs syscall write(fd=1) output to w.
func WithStdout(w io.Writer) ExecutorOption {
	return func(e *Executor) { e.stdout = w }
}

// WithStderr directs syscall write(fd=2) output to w.
func WithStderr(w io.Writer) ExecutorOption {
	return func(e *Executor) { e.stderr = w }
}

// WithInterruptModel overrides the default Linux AArch64 syscall shim.
func WithInterruptModel(m InterruptModel) ExecutorOption {
	return func(e *Executor) { e.interrupt = m }
}

// WithMaxInstructions caps how many instructions Run will execute before
// giving up. Zero (the default) means no limit.
func WithMaxInstructions(max uint64) ExecutorOption {
	return func(e *Executor) { e.maxInstructions = max }
}

// WithStackTop overrides the address the initial stack pointer is set
// to; the stack grows down from here.
func WithStackTop(top uint64) ExecutorOption {
	return func(e *Executor) { e.stackTop = top }
}

// WithBlockTrace registers a callback invoked every time the executor
// compiles a fresh basic block (a block-cache miss), passing the block's
// starting ip and the xid.ID tag it was cached under. It is never called
// again for that ip once cached, so a CLI's -v flag can use it to log
// exactly the blocks that were actually compiled, not every instruction
// stepped.
func WithBlockTrace(fn func(ip uint64, id xid.ID)) ExecutorOption {
	return func(e *Executor) { e.onBlockCompiled = fn }
}

// NewExecutor maps img's sections into a fresh address space, sets up
// the initial stack and entry ip, and returns an Executor ready to Step
// or Run. Options are applied before the stack is mapped, so
// WithStackTop takes effect on the mapping NewExecutor performs.
func NewExecutor(img Image, opts ...ExecutorOption) *Executor {
	e := &Executor{
		decoder:  insts.NewDecoder(),
		cache:    newBlockCache(),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		stackTop: DefaultStackTop,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.interrupt == nil {
		e.interrupt = NewLinuxInterruptModel(e.stdout, e.stderr)
	}

	mem := cpu.NewMemory()
	for _, name := range img.Sections() {
		mem.Map(img.SectionAddr(name), img.SectionData(name))
	}
	mem.MapZero(e.stackTop-DefaultStackSize, DefaultStackSize)

	e.cpu = cpu.New(mem)
	e.cpu.SetIp(img.EntryPoint())
	e.cpu.Gpr.SP = e.stackTop

	return e
}

// CPU exposes the underlying architectural state, mainly for tests that
// want to assert on register/memory contents after a Run.
func (e *Executor) CPU() *cpu.CPU { return e.cpu }

// InstructionCount returns how many instructions Step has executed.
func (e *Executor) InstructionCount() uint64 { return e.instructionCount }

// Step executes exactly one instruction: the basic block cached (or
// freshly compiled) at the current ip runs exactly one statement group,
// since every lifted block corresponds to one instruction (§3's
// lifecycle: decode one word, lift it, compile it, execute it, repeat).
func (e *Executor) Step() StepResult {
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: fmt.Errorf("vm: max instructions reached")}
	}

	ip := e.cpu.Ip()

	var word [4]byte
	if err := e.cpu.Mem(ip).Read(word[:]); err != nil {
		return StepResult{Err: &BadMemoryError{Addr: ip, Size: 4}}
	}

	inst, err := e.decoder.Decode(word, ip)
	if err != nil {
		return StepResult{Err: err}
	}

	if _, ok := inst.(insts.Svc); ok {
		return e.executeSvc(ip)
	}

	result := e.runBlock(ip, inst)
	e.instructionCount++
	return result
}

// runBlock looks up or compiles the block starting at ip and executes it.
func (e *Executor) runBlock(ip uint64, inst insts.Instruction) (result StepResult) {
	defer func() {
		if r := recover(); r != nil {
			result = stepResultFromPanic(r)
		}
	}()

	code, _, ok := e.cache.lookup(ip)
	if !ok {
		b := ir.NewBasicBlock(ip)
		if err := lift.Lift(inst, b); err != nil {
			return StepResult{Err: err}
		}
		code = codegen.CompileBlock(b)
		id := e.cache.insert(ip, code)
		if e.onBlockCompiled != nil {
			e.onBlockCompiled(ip, id)
		}
	}

	code(e.cpu)
	return StepResult{}
}

// executeSvc handles an SVC instruction directly, bypassing lift/codegen
// entirely: the syscall shim reads and writes CPU state through the same
// *cpu.CPU the compiled blocks use, then the executor advances ip itself
// since no IR was ever emitted for this instruction.
func (e *Executor) executeSvc(ip uint64) (result StepResult) {
	defer func() {
		if r := recover(); r != nil {
			result = stepResultFromPanic(r)
		}
	}()

	args := SyscallArgs{
		Number: e.cpu.Gpr.Read(gprArg8),
		Ip:     ip,
	}
	for i := range args.Arg {
		args.Arg[i] = e.cpu.Gpr.Read(gprArgs[i])
	}
	args.ReadMem = func(addr uint64, buf []byte) error { return e.cpu.Mem(addr).Read(buf) }
	args.WriteMem = func(addr uint64, buf []byte) error { return e.cpu.Mem(addr).Write(buf) }

	res := e.interrupt.Syscall(args)
	e.instructionCount++

	if res.Exited {
		return StepResult{Exited: true, ExitCode: res.ExitCode}
	}

	e.cpu.Gpr.Write(gprArgs[0], res.Value)
	e.cpu.SetIp(ip + 4)
	return StepResult{}
}

// stepResultFromPanic turns a codegen/load-store panic (*cpu.BadMemory)
// or a syscall shim panic (*UnknownSyscallError) into a StepResult,
// since neither CompiledCode nor InterruptModel has an error return
// channel of its own.
func stepResultFromPanic(r interface{}) StepResult {
	switch v := r.(type) {
	case *cpu.BadMemory:
		return StepResult{Err: &BadMemoryError{Addr: v.Addr, Size: v.Size}}
	case error:
		return StepResult{Err: v}
	default:
		return StepResult{Err: fmt.Errorf("vm: %v", v)}
	}
}

// Run steps until the program exits or a fatal error occurs, returning
// the guest exit code (or -1 on error, matching the teacher's
// Emulator.Run).
func (e *Executor) Run() (int64, error) {
	for {
		result := e.Step()
		if result.Exited {
			return result.ExitCode, nil
		}
		if result.Err != nil {
			return -1, result.Err
		}
	}
}
