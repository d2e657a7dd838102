package vm

import "fmt"

// BadMemoryError wraps a fatal out-of-bounds memory access surfaced by
// the codegen layer's panic-on-fault contract.
type BadMemoryError struct {
	Addr uint64
	Size int
}

func (e *BadMemoryError) Error() string {
	return fmt.Sprintf("vm: bad memory access at 0x%x (size %d)", e.Addr, e.Size)
}

// DivByZeroError would wrap an integer divide-by-zero, but AArch64
// SDIV/UDIV's own zero-divisor-yields-zero semantics mean the
// interpreter never raises it: codegen.compileDiv never panics. It is
// kept so callers can type-switch on the full §7 error taxonomy without
// the executor needing to special-case its absence.
type DivByZeroError struct {
	Ip uint64
}

func (e *DivByZeroError) Error() string {
	return fmt.Sprintf("vm: integer division by zero at ip=0x%x", e.Ip)
}

// UnknownSyscallError is raised when the syscall shim sees a number it
// doesn't recognize in X8.
type UnknownSyscallError struct {
	Number uint64
	Ip     uint64
}

func (e *UnknownSyscallError) Error() string {
	return fmt.Sprintf("vm: unknown syscall 0x%x at ip=0x%x", e.Number, e.Ip)
}

// UnimplementedError wraps a lift.Unimplemented surfaced up through the
// executor, with the ip of the offending instruction attached.
type UnimplementedError struct {
	Variant string
	Ip      uint64
}

func (e *UnimplementedError) Error() string {
	return fmt.Sprintf("vm: unimplemented variant %s at ip=0x%x", e.Variant, e.Ip)
}
