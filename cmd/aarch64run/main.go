// Command aarch64run loads a statically linked AArch64 Linux ELF binary and
// runs it to completion through the decode/lift/compile pipeline.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/xid"

	"github.com/sarchlab/aarch64run/loader"
	"github.com/sarchlab/aarch64run/vm"
)

var (
	verbose         = flag.Bool("v", false, "Verbose output")
	maxInstructions = flag.Uint64("max-instr", 0, "max instructions to execute (0 = unlimited)")
	stackTop        = flag.Uint64("stack-top", vm.DefaultStackTop, "initial stack top address")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: aarch64run [options] <program.elf>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Entry point: 0x%x\n", prog.EntryPoint)
		fmt.Printf("Segments: %d\n", len(prog.Segments))
	}

	opts := []vm.ExecutorOption{
		vm.WithMaxInstructions(*maxInstructions),
		vm.WithStackTop(*stackTop),
	}
	if *verbose {
		opts = append(opts, vm.WithBlockTrace(func(ip uint64, id xid.ID) {
			fmt.Fprintf(os.Stderr, "compiled block ip=0x%x id=%s\n", ip, id)
		}))
	}

	img := loader.NewImage(prog)
	executor := vm.NewExecutor(img, opts...)

	exitCode, err := executor.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("\nProgram: %s\n", programPath)
		fmt.Printf("Exit code: %d\n", exitCode)
		fmt.Printf("Instructions executed: %d\n", executor.InstructionCount())
	}

	os.Exit(int(exitCode))
}
