package semantics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frisbee/loader"
	"frisbee/symbols"
)

func TestResolverMappings(t *testing.T) {
	wp := loadMain(t, map[string]string{
		"main": `
from mod import somefun;

class SomeType {}
fun void main() {}
`,
		"mod": `
fun void somefun() {}
`,
	})

	resolver, err := NewNameResolver(wp)
	require.NoError(t, err)

	mainAlias := symbols.NewAlias("main")
	modAlias := symbols.NewAlias("mod")

	typeSymbol, err := resolver.TypenamesResolver(mainAlias)("SomeType")
	require.NoError(t, err)
	assert.Equal(t, symbols.NewType(mainAlias, "SomeType"), typeSymbol)

	// the imported function resolves to its defining module from both sides
	fromMain, err := resolver.FunctionsResolver(mainAlias)("somefun")
	require.NoError(t, err)
	assert.Equal(t, symbols.NewFunc(modAlias, "somefun"), fromMain)

	fromMod, err := resolver.FunctionsResolver(modAlias)("somefun")
	require.NoError(t, err)
	assert.Equal(t, fromMain, fromMod)

	_, err = resolver.FunctionsResolver(mainAlias)("unknown")
	assert.Error(t, err)
}

func TestImportOfMissingSymbol(t *testing.T) {
	wp := loadMain(t, map[string]string{
		"main": `
from mod import missing;
fun void main() {}
`,
		"mod": `
fun void somefun() {}
`,
	})
	_, err := NewNameResolver(wp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestDuplicateSymbolInModule(t *testing.T) {
	wp := loadMain(t, map[string]string{
		"main": `
from mod import somefun;

fun void somefun() {}
fun void main() {}
`,
		"mod": `
fun void somefun() {}
`,
	})
	_, err := NewNameResolver(wp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already introduced in this module")
}

func TestImportCollidingWithStdlib(t *testing.T) {
	wp := loadMain(t, map[string]string{
		"main": `
from mod import println;
fun void main() {}
`,
		"mod": `
fun void println() {}
`,
	})
	_, err := NewNameResolver(wp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stdlib")
}

func TestSelfImportRejectedByLoader(t *testing.T) {
	sources := loader.MapLoader(map[string]string{
		"main": `
from main import helper;

fun void helper() {}
fun void main() {}
`,
	})
	_, err := loader.LoadProgram(sources, symbols.NewAlias("main"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "importing itself")
}
