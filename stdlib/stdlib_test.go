package stdlib

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frisbee/symbols"
	"frisbee/types"
)

func TestNamesAreSorted(t *testing.T) {
	names := Names()
	assert.True(t, sort.StringsAreSorted(names))
	assert.Len(t, names, 22)
}

func TestEverySymbolHasAnIndex(t *testing.T) {
	for _, name := range Names() {
		index, ok := Index(symbols.SymbolFunc(name))
		require.True(t, ok, "symbol %s has no index", name)
		assert.Equal(t, name, Names()[index])
	}

	_, ok := Index(symbols.SymbolFunc("std::nope"))
	assert.False(t, ok)
}

func TestFunctionSignatures(t *testing.T) {
	signature, ok := FunctionSignature("range")
	require.True(t, ok)
	assert.Len(t, signature.Args, 2)
	assert.True(t, signature.Ret.Equal(types.ListOf(types.Int)))

	signature, ok = FunctionSignature("get_input")
	require.True(t, ok)
	assert.Empty(t, signature.Args)
	assert.True(t, signature.Ret.Equal(types.String))

	_, ok = FunctionSignature("missing")
	assert.False(t, ok)

	assert.True(t, IsFunction("print"))
	assert.True(t, IsFunction("println"))
	assert.False(t, IsFunction("len"))
}

func TestMethodSignatures(t *testing.T) {
	signature, ok := MethodSignature(types.String, "find")
	require.True(t, ok)
	assert.Len(t, signature.Args, 1)
	assert.True(t, signature.Ret.Equal(types.MaybeOf(types.Int)))

	signature, ok = MethodSignature(types.ListOf(types.Bool), "push")
	require.True(t, ok)
	require.Len(t, signature.Args, 1)
	assert.True(t, signature.Args[0].Equal(types.Bool))
	assert.True(t, signature.Ret.IsVoid())

	signature, ok = MethodSignature(types.ListOf(types.Float), "pop")
	require.True(t, ok)
	assert.True(t, signature.Ret.Equal(types.Float))

	signature, ok = MethodSignature(types.Float, "ceil")
	require.True(t, ok)
	assert.True(t, signature.Ret.Equal(types.Int))

	_, ok = MethodSignature(types.Int, "push")
	assert.False(t, ok)
	_, ok = MethodSignature(types.Bool, "abs")
	assert.False(t, ok)
}
