// Command aarch64run is the module's entry point.
//
// For the full CLI, use: go run ./cmd/aarch64run
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("aarch64run - AArch64 user-mode dynamic binary translator")
	fmt.Println("")
	fmt.Println("Usage: aarch64run [options] <program.elf>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -v            Verbose output")
	fmt.Println("  -max-instr    Max instructions to execute (0 = unlimited)")
	fmt.Println("  -stack-top    Initial stack top address")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/aarch64run' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/aarch64run' instead.")
	}
}
