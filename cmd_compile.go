package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"frisbee/codegen"
	"frisbee/loader"
	"frisbee/semantics"
)

// loadAndVerify runs the front half of the pipeline: transitive load,
// then semantic analysis to the verified aggregate.
func loadAndVerify(entryPath string) (*semantics.ProgramAggregate, *loader.WholeProgram, error) {
	fsLoader, mainModule, err := loader.EntryPathToLoaderAndMainModule(entryPath)
	if err != nil {
		return nil, nil, err
	}
	wp, err := loader.LoadProgram(fsLoader, mainModule)
	if err != nil {
		return nil, nil, err
	}
	aggregate, err := semantics.Analyze(wp)
	if err != nil {
		return nil, wp, err
	}
	return aggregate, wp, nil
}

// bytecodePath derives the output path of a compiled program.
func bytecodePath(entryPath string) string {
	return strings.TrimSuffix(entryPath, ".frisbee") + ".frisbee.bytecode"
}

type compileCmd struct {
	output string
}

func (*compileCmd) Name() string     { return "compile" }
func (*compileCmd) Synopsis() string { return "Compile a Frisbee program to bytecode" }
func (*compileCmd) Usage() string {
	return `compile <main.frisbee>:
  Compile the program rooted at the given main module to a bytecode file.
`
}

func (cmd *compileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.output, "o", "", "output path for the bytecode (defaults next to the main module)")
}

func (cmd *compileCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	entryPath := args[0]

	aggregate, wp, err := loadAndVerify(entryPath)
	if err != nil {
		reportCompileError(err, wp)
		return subcommands.ExitFailure
	}

	program := codegen.Generate(aggregate)

	output := cmd.output
	if output == "" {
		output = bytecodePath(entryPath)
	}
	if err := os.WriteFile(output, program, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to write bytecode: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
