package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"frisbee/codegen"
	"frisbee/vm"
)

type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute a compiled bytecode file" }
func (*runCmd) Usage() string {
	return `run <program.bytecode>:
  Load the bytecode and run it until the system is quiescent.
  A *.frisbee file is compiled in-memory first.
`
}
func (r *runCmd) SetFlags(f *flag.FlagSet) {}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	path := args[0]

	var program []byte
	if strings.HasSuffix(path, ".frisbee") {
		aggregate, wp, err := loadAndVerify(path)
		if err != nil {
			reportCompileError(err, wp)
			return subcommands.ExitFailure
		}
		program = codegen.Generate(aggregate)
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
			return subcommands.ExitFailure
		}
		program = data
	}

	machine, err := vm.Load(program, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to load bytecode: %v\n", err)
		return subcommands.ExitFailure
	}

	// std::get_input reads interactive lines through readline
	input, err := readline.New("> ")
	if err == nil {
		defer input.Close()
		machine.Input = input.Readline
	}

	if err := machine.Run(); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
