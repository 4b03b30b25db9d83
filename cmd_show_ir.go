package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"frisbee/semantics"
)

type showIRCmd struct{}

func (*showIRCmd) Name() string     { return "show-ir" }
func (*showIRCmd) Synopsis() string { return "Show the verified intermediate form of a program" }
func (*showIRCmd) Usage() string {
	return `show-ir <main.frisbee>:
  Load and verify the program, then print every function's typed IR.
`
}
func (s *showIRCmd) SetFlags(f *flag.FlagSet) {}

func (s *showIRCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}

	aggregate, wp, err := loadAndVerify(args[0])
	if err != nil {
		reportCompileError(err, wp)
		return subcommands.ExitFailure
	}
	fmt.Print(semantics.FormatAggregate(aggregate))
	return subcommands.ExitSuccess
}
