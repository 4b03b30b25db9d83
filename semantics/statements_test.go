package semantics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frisbee/symbols"
	"frisbee/types"
)

func TestHelloWorldVerifies(t *testing.T) {
	requireAnalyzeOK(t, `fun void main() { println("hi"); }`)
}

func TestUninitializedVariableRead(t *testing.T) {
	message := requireAnalyzeFails(t, `
fun Int main2() { Int a; return a; }
fun void main() {}
`)
	assert.Contains(t, message, "might be uninitialized")
}

func TestInitializationThroughBothBranches(t *testing.T) {
	requireAnalyzeOK(t, `
fun Int pick(Bool flag) {
    Int a;
    if flag { a = 1; } else { a = 2; }
    return a;
}
fun void main() {}
`)

	// one branch is not enough
	message := requireAnalyzeFails(t, `
fun Int pick(Bool flag) {
    Int a;
    if flag { a = 1; }
    return a;
}
fun void main() {}
`)
	assert.Contains(t, message, "might be uninitialized")
}

func TestWhileDoesNotInitialize(t *testing.T) {
	message := requireAnalyzeFails(t, `
fun Int f() {
    Int a;
    while false { a = 1; }
    return a;
}
fun void main() {}
`)
	assert.Contains(t, message, "might be uninitialized")
}

func TestReturnGuarantee(t *testing.T) {
	message := requireAnalyzeFails(t, `
fun Int f() { if true { return 1; } }
fun void main() {}
`)
	assert.Contains(t, message, "not guaranteed to return")

	requireAnalyzeOK(t, `
fun Int f() { if true { return 1; } else { return 2; } }
fun void main() {}
`)

	// void functions get the implicit return
	requireAnalyzeOK(t, `
fun void f() { if true { println("x"); } }
fun void main() {}
`)
}

func TestConstructorFieldInitialization(t *testing.T) {
	message := requireAnalyzeFails(t, `
class P {
    Int a;
    Int b;
    fun P() { @a = 1; }
}
fun void main() {}
`)
	assert.Contains(t, message, "constructor does not initialize field `b`")

	requireAnalyzeOK(t, `
class P {
    Int a;
    Int b;
    fun P() { @a = 1; @b = 2; }
}
fun void main() {}
`)
}

func TestConstructorMustReturnVoid(t *testing.T) {
	message := requireAnalyzeFails(t, `
class P {
    Int a;
    fun P() { @a = 1; return 5; }
}
fun void main() {}
`)
	assert.Contains(t, message, "constructor must return void")
}

func TestBreakContinueOutsideLoop(t *testing.T) {
	assert.Contains(t, requireAnalyzeFails(t, `
fun void main() { break; }
`), "`break` outside loop")

	assert.Contains(t, requireAnalyzeFails(t, `
fun void main() { continue; }
`), "`continue` outside loop")

	requireAnalyzeOK(t, `
fun void main() {
    while true {
        if true { break; }
        continue;
    }
}
`)
}

func TestVariableShadowingRejected(t *testing.T) {
	message := requireAnalyzeFails(t, `
fun void main() {
    Int a = 1;
    Bool a = true;
}
`)
	assert.Contains(t, message, "already defined")
}

func TestScopedRedeclarationAllowed(t *testing.T) {
	requireAnalyzeOK(t, `
fun void main() {
    if true { Int a = 1; println(a.to_string()); }
    if true { Int a = 2; println(a.to_string()); }
}
`)
}

func TestForeachDesugarsToWhile(t *testing.T) {
	aggregate := requireAnalyzeOK(t, `
fun void main() {
    foreach i in range(0, 3) {
        println(i.to_string());
    }
}
`)

	mainFn := aggregate.Functions[symbols.NewFunc(symbols.NewAlias("main"), "main")]
	require.NotNil(t, mainFn)

	// three muffled locals plus the loop rewritten as while
	localNames := map[string]bool{}
	for _, local := range mainFn.Locals {
		localNames[local.Name] = true
	}
	assert.True(t, localNames["i"], "item local missing")
	assert.True(t, localNames["i@index"], "index local missing")
	assert.True(t, localNames["i@iterable"], "iterable local missing")

	hasWhile := false
	for _, stmt := range mainFn.Body {
		if _, ok := stmt.(VWhile); ok {
			hasWhile = true
		}
	}
	assert.True(t, hasWhile, "foreach must lower to a while loop")
}

func TestNilRules(t *testing.T) {
	requireAnalyzeOK(t, `
fun void main() {
    Int? x = nil;
    String? name = "hello";
}
`)

	assert.Contains(t, requireAnalyzeFails(t, `
fun void main() { Int x = nil; }
`), "nil")

	// nil equality with a maybe is a legal Bool expression
	requireAnalyzeOK(t, `
fun void main() {
    Int? x = nil;
    Bool b = x == nil;
    Bool c = nil != x;
    Bool d = x == 3;
}
`)

	assert.Contains(t, requireAnalyzeFails(t, `
fun void main() {
    Int x = 5;
    Bool b = x == nil;
}
`), "maybe")
}

func TestMaybeIsNotItsPayload(t *testing.T) {
	message := requireAnalyzeFails(t, `
fun void main() {
    Int? a = 1;
    Int b = a;
}
`)
	assert.Contains(t, message, "expected type")
}

func TestElvisOperator(t *testing.T) {
	requireAnalyzeOK(t, `
fun void main() {
    Int? x = nil;
    Int y = x ?: 0;
    Int? z = x ?: 3;
    String s = (x ?: -1).to_string();
}
`)

	assert.Contains(t, requireAnalyzeFails(t, `
fun void main() {
    Int? x = nil;
    Float y = x ?: 0.5;
}
`), "expected type")

	assert.Contains(t, requireAnalyzeFails(t, `
fun void main() {
    Int x = 5;
    Int y = x ?: 0;
}
`), "maybe")
}

func TestMaybeMethodRequiresQuestionDot(t *testing.T) {
	message := requireAnalyzeFails(t, `
class P {
    Int a;
    fun Int get() { return @a; }
}
fun void main() {
    P? p = nil;
    p.get();
}
`)
	assert.Contains(t, message, "?.")

	aggregate := requireAnalyzeOK(t, `
class P {
    Int a;
    fun Int get() { return @a; }
}
fun void main() {
    P? p = nil;
    Int? result = p ?. get();
}
`)
	require.NotNil(t, aggregate)
}

func TestThisOutsideMethod(t *testing.T) {
	assert.Contains(t, requireAnalyzeFails(t, `
fun void main() { this; }
`), "this")

	assert.Contains(t, requireAnalyzeFails(t, `
fun void main() { @field; }
`), "own field")
}

func TestCallArityAndTypes(t *testing.T) {
	assert.Contains(t, requireAnalyzeFails(t, `
fun Int add(Int a, Int b) { return a + b; }
fun void main() { add(1); }
`), "expects 2 arguments")

	assert.Contains(t, requireAnalyzeFails(t, `
fun Int add(Int a, Int b) { return a + b; }
fun void main() { add(1, "two"); }
`), "expected type")
}

func TestCallFunctionReturnTypesMatchCallee(t *testing.T) {
	aggregate := requireAnalyzeOK(t, `
fun Int add(Int a, Int b) { return a + b; }
fun void main() { Int x = add(1, 2); println(x.to_string()); }
`)

	addSymbol := symbols.NewFunc(symbols.NewAlias("main"), "add")
	addFn := aggregate.Functions[addSymbol]

	var checkExpr func(e VExprTyped)
	var checkStmts func(stmts []VStatement)
	checkExpr = func(e VExprTyped) {
		if call, ok := e.Expr.(VCallFunction); ok && call.Name == addSymbol {
			assert.True(t, call.ReturnType.Equal(addFn.ReturnType),
				"call return type must match callee signature")
		}
	}
	checkStmts = func(stmts []VStatement) {
		for _, stmt := range stmts {
			switch s := stmt.(type) {
			case VAssignLocal:
				checkExpr(s.Value)
			case VExpression:
				checkExpr(s.Inner)
			}
		}
	}
	mainFn := aggregate.Functions[symbols.NewFunc(symbols.NewAlias("main"), "main")]
	checkStmts(mainFn.Body)
}

func TestSpawnAndSendRules(t *testing.T) {
	requireAnalyzeOK(t, `
active A {
    Int n;
    fun A() { @n = 0; }
    fun void tick() { @n = @n + 1; }
}
fun void main() {
    A a = spawn A();
    a ! tick();
    a ! tick();
}
`)

	assert.Contains(t, requireAnalyzeFails(t, `
class P { Int a; }
fun void main() { P p = spawn P(1); }
`), "spawn")

	assert.Contains(t, requireAnalyzeFails(t, `
active A {
    fun A() {}
    fun void tick() {}
}
fun void main() { A a = A(); }
`), "spawn")

	// direct calls on active references are banned; only sends are legal
	assert.Contains(t, requireAnalyzeFails(t, `
active A {
    fun A() {}
    fun Int get() { return 1; }
}
fun void main() {
    A a = spawn A();
    a.get();
}
`), "send")
}

func TestActiveMethodsUseCurrentActive(t *testing.T) {
	aggregate := requireAnalyzeOK(t, `
active Counter {
    Int value;
    fun Counter() { @value = 0; }
    fun void tick() { @value = @value + 1; }
}
fun void main() {}
`)

	counterType := symbols.NewType(symbols.NewAlias("main"), "Counter")
	tick := aggregate.Functions[counterType.Method("tick")]
	require.NotNil(t, tick)

	// no implicit this argument for active methods
	assert.Equal(t, 0, tick.Args.Len())

	// @value writes go to the running active object
	require.NotEmpty(t, tick.Body)
	assign, ok := tick.Body[0].(VAssignToField)
	require.True(t, ok, "expected a field assignment, got %T", tick.Body[0])
	_, isCurrent := assign.Object.Expr.(VCurrentActive)
	assert.True(t, isCurrent)
}

func TestListRules(t *testing.T) {
	requireAnalyzeOK(t, `
fun void main() {
    [Int] empty = [];
    [Int] items = [1, 2, 3];
    Int first = items[0];
    Int last = items[-1];
    items[0] = 5;
    items.push(4);
    Int popped = items.pop();
    [Int] joined = items + [7, 8];
}
`)

	assert.Contains(t, requireAnalyzeFails(t, `
fun void main() { [1, true]; }
`), "same type")

	assert.Contains(t, requireAnalyzeFails(t, `
fun void main() { []; }
`), "empty list")
}

func TestTupleRules(t *testing.T) {
	requireAnalyzeOK(t, `
fun void main() {
    (Int, String) pair = (1, "one");
    Int first = pair[0];
    String second = pair[1];
    pair[0] = 2;
}
`)

	assert.Contains(t, requireAnalyzeFails(t, `
fun void main() {
    (Int, String) pair = (1, "one");
    pair[5];
}
`), "out of bounds")

	assert.Contains(t, requireAnalyzeFails(t, `
fun void main() {
    (Int, String) pair = (1, "one");
    Int i = 0;
    pair[i];
}
`), "literal")
}

func TestAssignToTemporaryRejected(t *testing.T) {
	message := requireAnalyzeFails(t, `
fun Int f() { return 1; }
fun void main() { f() = 5; }
`)
	assert.Contains(t, message, "temporary")
}

func TestLocalsExcludeArguments(t *testing.T) {
	aggregate := requireAnalyzeOK(t, `
fun Int add(Int a, Int b) {
    Int total = a + b;
    return total;
}
fun void main() {}
`)
	addFn := aggregate.Functions[symbols.NewFunc(symbols.NewAlias("main"), "add")]
	require.Len(t, addFn.Locals, 1)
	assert.Equal(t, "total", addFn.Locals[0].Name)
	assert.True(t, addFn.Locals[0].Type.Equal(types.Int))
}
