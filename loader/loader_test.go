package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frisbee/symbols"
)

func TestTransitiveLoad(t *testing.T) {
	// sub.nested is imported twice but must only be loaded once
	sources := MapLoader{
		"main": `
from lib import helper;
from sub.nested import deep;
fun void main() {}
`,
		"lib": `
from sub.nested import deep;
fun void helper() {}
class Helper2 {}
`,
		"sub.nested": `
fun void deep() {}
`,
	}

	wp, err := LoadProgram(sources, symbols.NewAlias("main"))
	require.NoError(t, err)

	assert.Len(t, wp.Modules, 3)
	assert.Contains(t, wp.Modules, symbols.NewAlias("main"))
	assert.Contains(t, wp.Modules, symbols.NewAlias("lib"))
	assert.Contains(t, wp.Modules, symbols.NewAlias("sub", "nested"))
}

func TestMissingModuleFails(t *testing.T) {
	sources := MapLoader{
		"main": `
from nowhere import something;
fun void main() {}
`,
	}
	_, err := LoadProgram(sources, symbols.NewAlias("main"))
	require.Error(t, err)

	loadErr, ok := err.(LoadError)
	require.True(t, ok)
	assert.Equal(t, symbols.NewAlias("nowhere"), loadErr.Module)
}

func TestScanErrorCarriesSource(t *testing.T) {
	sources := MapLoader{"main": `fun void main() { Int?? x; }`}
	_, err := LoadProgram(sources, symbols.NewAlias("main"))
	require.Error(t, err)

	loadErr, ok := err.(LoadError)
	require.True(t, ok)
	assert.Equal(t, symbols.NewAlias("main"), loadErr.Module)
	assert.NotEmpty(t, loadErr.Source)
}

func TestEntryPathSplit(t *testing.T) {
	fsLoader, mainModule, err := EntryPathToLoaderAndMainModule("examples/demo/main.frisbee")
	require.NoError(t, err)
	assert.Equal(t, "examples/demo", fsLoader.Workdir)
	assert.Equal(t, symbols.NewAlias("main"), mainModule)

	_, _, err = EntryPathToLoaderAndMainModule("program.txt")
	assert.Error(t, err)
}
