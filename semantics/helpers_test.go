package semantics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"frisbee/loader"
	"frisbee/symbols"
)

// loadMain loads a program from in-memory sources with `main` as the main
// module.
func loadMain(t *testing.T, sources map[string]string) *loader.WholeProgram {
	t.Helper()
	wp, err := loader.LoadProgram(loader.MapLoader(sources), symbols.NewAlias("main"))
	require.NoError(t, err)
	return wp
}

// analyzeMain runs the whole semantic pipeline over in-memory sources.
func analyzeMain(t *testing.T, sources map[string]string) (*ProgramAggregate, error) {
	t.Helper()
	return Analyze(loadMain(t, sources))
}

// analyzeSource analyzes a single-module program.
func analyzeSource(t *testing.T, source string) (*ProgramAggregate, error) {
	t.Helper()
	return analyzeMain(t, map[string]string{"main": source})
}

// requireAnalyzeOK asserts the program verifies cleanly.
func requireAnalyzeOK(t *testing.T, source string) *ProgramAggregate {
	t.Helper()
	aggregate, err := analyzeSource(t, source)
	require.NoError(t, err)
	return aggregate
}

// requireAnalyzeFails asserts verification fails and returns the message.
func requireAnalyzeFails(t *testing.T, source string) string {
	t.Helper()
	_, err := analyzeSource(t, source)
	require.Error(t, err)
	return err.Error()
}
