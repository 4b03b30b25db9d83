package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"frisbee/codegen"
)

type disasmCmd struct{}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "Disassemble a compiled bytecode file" }
func (*disasmCmd) Usage() string {
	return `disasm <program.bytecode>:
  Print the constants, metadata and instruction listing of the bytecode.
`
}
func (d *disasmCmd) SetFlags(f *flag.FlagSet) {}

func (d *disasmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}

	program, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	listing, err := codegen.Disassemble(program)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Disassemble error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Print(listing)
	return subcommands.ExitSuccess
}
