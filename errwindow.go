package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"frisbee/loader"
	"frisbee/parser"
	"frisbee/scanner"
	"frisbee/semantics"
	"frisbee/symbols"
)

// positionCoordinates converts a byte offset into 0-based (line, column).
func positionCoordinates(source string, offset int) (int, int) {
	line, column := 0, 0
	for i, char := range source {
		if i >= offset {
			break
		}
		if char == '\n' {
			line++
			column = 0
		} else {
			column++
		}
	}
	return line, column
}

// showErrorWindow prints the offending source line with a caret pointing
// at the error position, then the message.
func showErrorWindow(source string, module symbols.ModuleAlias, offset int, message string) {
	line, column := positionCoordinates(source, offset)

	errTitle := color.New(color.FgRed, color.Bold)
	errTitle.Fprintf(os.Stderr, "💥 Error at line %d (in %s):\n", line, module)

	lines := strings.Split(source, "\n")
	if line > 0 && line-1 < len(lines) {
		fmt.Fprintln(os.Stderr, lines[line-1])
	}
	if line < len(lines) {
		fmt.Fprintln(os.Stderr, lines[line])
	}

	spaces := strings.Repeat(" ", column)
	caret := color.New(color.FgYellow)
	caret.Fprintf(os.Stderr, "%s^\n", spaces)
	fmt.Fprintf(os.Stderr, "%s%s\n", spaces, message)
}

// reportCompileError renders any error the compile pipeline produces,
// attaching a source window whenever a position is available.
func reportCompileError(err error, wp *loader.WholeProgram) {
	switch e := err.(type) {
	case loader.LoadError:
		switch inner := e.Err.(type) {
		case scanner.Error:
			showErrorWindow(e.Source, e.Module, inner.Offset, inner.Message)
		case parser.Error:
			message := inner.Message
			if inner.Expected != "" {
				message = fmt.Sprintf("%s (expected token <%s>)", inner.Message, inner.Expected)
			}
			showErrorWindow(e.Source, e.Module, inner.Offset(), message)
		default:
			fmt.Fprintf(os.Stderr, "💥 %v\n", e)
		}
	case semantics.ErrorWithModule:
		if wp != nil {
			if module, ok := wp.Modules[e.Module]; ok {
				showErrorWindow(module.Contents, e.Module, e.Err.At, e.Err.Message)
				return
			}
		}
		fmt.Fprintf(os.Stderr, "💥 %v\n", e)
	default:
		fmt.Fprintf(os.Stderr, "💥 %v\n", err)
	}
}
