package semantics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frisbee/symbols"
	"frisbee/types"
)

func TestEntryPointRequired(t *testing.T) {
	_, err := analyzeSource(t, `fun void not_main() {}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "main")
}

func TestEntryPointMustReturnVoid(t *testing.T) {
	_, err := analyzeSource(t, `fun Int main() { return 1; }`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "void")
}

func TestMethodsGetImplicitThis(t *testing.T) {
	aggregate := requireAnalyzeOK(t, `
class Point {
    Int x;
    Int y;

    fun Point(Int x, Int y) { @x = x; @y = y; }
    fun Int sum() { return @x + @y; }
}
fun void main() {}
`)

	pointType := symbols.NewType(symbols.NewAlias("main"), "Point")

	sum := aggregate.Functions[pointType.Method("sum")]
	require.NotNil(t, sum)
	require.Equal(t, 1, sum.Args.Len())
	assert.Equal(t, "this", sum.Args.Names()[0])
	assert.True(t, sum.Args.Types()[0].Equal(types.CustomOf(string(pointType))))

	// the constructor takes no implicit this: it creates the object
	constructor := aggregate.Functions[pointType.Constructor()]
	require.NotNil(t, constructor)
	assert.True(t, constructor.IsConstructor)
	require.Equal(t, 2, constructor.Args.Len())
	assert.Equal(t, []string{"x", "y"}, constructor.Args.Names())
}

func TestDefaultConstructorSynthesized(t *testing.T) {
	aggregate := requireAnalyzeOK(t, `
class Pair {
    Int first;
    String second;
}
fun void main() {
    Pair p = Pair(1, "one");
    println(p.second);
}
`)

	pairType := symbols.NewType(symbols.NewAlias("main"), "Pair")
	constructor := aggregate.Functions[pairType.Constructor()]
	require.NotNil(t, constructor)
	assert.True(t, constructor.IsConstructor)

	// parameters mirror the fields in declaration order
	assert.Equal(t, []string{"first", "second"}, constructor.Args.Names())
	assert.True(t, constructor.Args.Types()[0].Equal(types.Int))
	assert.True(t, constructor.Args.Types()[1].Equal(types.String))
}

func TestConstructorBodyIsBracketedByAllocateAndReturn(t *testing.T) {
	aggregate := requireAnalyzeOK(t, `
class Box {
    Int value;
    fun Box(Int value) { @value = value; }
}
fun void main() {}
`)

	boxType := symbols.NewType(symbols.NewAlias("main"), "Box")
	constructor := aggregate.Functions[boxType.Constructor()]
	require.NotEmpty(t, constructor.Body)

	first, ok := constructor.Body[0].(VAssignLocal)
	require.True(t, ok, "constructor must start with the implicit allocation")
	assert.Equal(t, "this", first.Name)
	_, isAllocate := first.Value.Expr.(VAllocate)
	assert.True(t, isAllocate)

	last, ok := constructor.Body[len(constructor.Body)-1].(VReturn)
	require.True(t, ok, "constructor must end with a return")
	getVar, isGetVar := last.Value.Expr.(VGetVar)
	require.True(t, isGetVar)
	assert.Equal(t, "this", getVar.Name)
}

func TestTypedFieldsPreserveOrder(t *testing.T) {
	fields := TypedFields{}
	fields.Add("c", types.Int)
	fields.Add("a", types.String)
	fields.Add("b", types.Bool)

	assert.Equal(t, []string{"c", "a", "b"}, fields.Names())

	fieldType, index, ok := fields.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, index)
	assert.True(t, fieldType.Equal(types.String))

	_, _, ok = fields.Get("missing")
	assert.False(t, ok)
}

func TestDuplicateFieldNameRejected(t *testing.T) {
	_, err := analyzeSource(t, `
class P {
    Int a;
    Bool a;
}
fun void main() {}
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than once")
}

func TestCrossModuleTypes(t *testing.T) {
	aggregate, err := analyzeMain(t, map[string]string{
		"main": `
from shapes import Point;

fun Int use() {
    Point p = Point(1, 2);
    return p.x;
}
fun void main() {}
`,
		"shapes": `
class Point {
    Int x;
    Int y;
}
`,
	})
	require.NoError(t, err)

	shapesPoint := symbols.NewType(symbols.NewAlias("shapes"), "Point")
	assert.Contains(t, aggregate.Types, shapesPoint)

	// every custom type referenced by any verified type is a key in Types
	useFn := aggregate.Functions[symbols.NewFunc(symbols.NewAlias("main"), "use")]
	require.NotNil(t, useFn)
	for _, local := range useFn.Locals {
		if local.Type.Kind == types.KindCustom {
			assert.Contains(t, aggregate.Types, symbols.SymbolType(local.Type.Name))
		}
	}
}
