package vm

import (
	"io"

	"golang.org/x/sys/unix"
)

// AArch64 Linux syscall numbers the shim recognizes. These are the
// subset a statically linked, single-threaded binary actually issues
// during early startup and simple I/O; anything else is fatal.
const (
	SyscallWrite         uint64 = 0x40
	SyscallFlock         uint64 = 0x49
	SyscallExitGroup     uint64 = 0x5e
	SyscallSetTidAddress uint64 = 0x60
	SyscallSigaltstack   uint64 = 0x84
	SyscallGetuid        uint64 = 0xae
	SyscallGeteuid       uint64 = 0xaf
	SyscallGetgid        uint64 = 0xb0
	SyscallGetegid       uint64 = 0xb1
	SyscallBrk           uint64 = 0xd6
)

// SyscallResult is what handling one SVC produces: either a return
// value for X0, or a signal that the program has exited.
type SyscallResult struct {
	Exited   bool
	ExitCode int64
	Value    uint64
}

// SyscallArgs is the AArch64 Linux syscall calling convention view of
// CPU state the interrupt model needs: the number in X8, arguments in
// X0-X5, plus a way to read and write guest memory for buffer-passing
// syscalls like write(2).
type SyscallArgs struct {
	Number   uint64
	Ip       uint64
	Arg      [6]uint64
	ReadMem  func(addr uint64, buf []byte) error
	WriteMem func(addr uint64, buf []byte) error
}

// InterruptModel handles the SVC instruction: the executor hands it the
// register-file view of a syscall and gets back either a return value
// or a termination signal. Tests substitute a fake to assert on what
// the executor would have asked the guest's environment to do, without
// a real stdout.
type InterruptModel interface {
	Syscall(args SyscallArgs) SyscallResult
}

// LinuxInterruptModel implements the fixed syscall table a statically
// linked AArch64 Linux binary needs to run to completion: stdout writes,
// the identity syscalls a libc startup path probes, and brk/TLS/signal
// setup calls treated as no-ops. Anything else is fatal.
type LinuxInterruptModel struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewLinuxInterruptModel returns a model writing fd 1 and fd 2 to the
// given writers.
func NewLinuxInterruptModel(stdout, stderr io.Writer) *LinuxInterruptModel {
	return &LinuxInterruptModel{Stdout: stdout, Stderr: stderr}
}

// Syscall dispatches on args.Number per the fixed table. An unrecognized
// number is reported via UnknownSyscallError rather than ENOSYS, since
// this shim never intends to grow wide enough for ENOSYS to be the
// right signal: the caller should treat it as fatal.
func (m *LinuxInterruptModel) Syscall(args SyscallArgs) SyscallResult {
	switch args.Number {
	case SyscallWrite:
		return m.write(args)
	case SyscallFlock, SyscallSetTidAddress, SyscallSigaltstack, SyscallBrk:
		return SyscallResult{Value: 0}
	case SyscallGetuid, SyscallGeteuid, SyscallGetgid, SyscallGetegid:
		return SyscallResult{Value: 0}
	case SyscallExitGroup:
		return SyscallResult{Exited: true, ExitCode: int64(args.Arg[0])}
	default:
		panic(&UnknownSyscallError{Number: args.Number, Ip: args.Ip})
	}
}

func (m *LinuxInterruptModel) write(args SyscallArgs) SyscallResult {
	fd, addr, count := args.Arg[0], args.Arg[1], args.Arg[2]

	var w io.Writer
	switch fd {
	case 1:
		w = m.Stdout
	case 2:
		w = m.Stderr
	default:
		return SyscallResult{Value: negErrno(unix.EBADF)}
	}

	buf := make([]byte, count)
	if err := args.ReadMem(addr, buf); err != nil {
		return SyscallResult{Value: negErrno(unix.EIO)}
	}

	n, err := w.Write(buf)
	if err != nil {
		return SyscallResult{Value: negErrno(unix.EIO)}
	}
	return SyscallResult{Value: uint64(n)}
}

// negErrno returns errno as the two's-complement value Linux syscalls
// return on failure.
func negErrno(errno unix.Errno) uint64 {
	return uint64(-int64(errno))
}
