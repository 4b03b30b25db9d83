package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"frisbee/ast"
	"frisbee/scanner"
	"frisbee/token"
	"frisbee/types"
)

// ignorePositions drops byte spans from comparisons, so tests assert tree
// shape only.
var ignorePositions = []cmp.Option{
	cmpopts.IgnoreTypes(ast.Span{}),
	cmpopts.IgnoreTypes(ast.StmtAt{}),
}

func parseExprFrom(t *testing.T, source string) ast.Expr {
	t.Helper()
	tokens, err := scanner.New(source).Scan()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	expr, err := Make(tokens).ParseExpr()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return expr
}

func parseStatementFrom(t *testing.T, source string) ast.Statement {
	t.Helper()
	tokens, err := scanner.New(source).Scan()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	stmt, err := Make(tokens).ParseStatement()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return stmt
}

func parseFileFrom(t *testing.T, source string) ast.FileAst {
	t.Helper()
	tokens, err := scanner.New(source).Scan()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	file, err := Make(tokens).ParseTopLevel()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return file
}

func expectExpr(t *testing.T, source string, expected ast.Expr) {
	t.Helper()
	got := parseExprFrom(t, source)
	if diff := cmp.Diff(expected, got, ignorePositions...); diff != "" {
		t.Errorf("parsed expression mismatch for %q (-want +got):\n%s", source, diff)
	}
}

func parseTypeFrom(t *testing.T, source string) types.Type {
	t.Helper()
	tokens, err := scanner.New(source).Scan()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	parsed, err := Make(tokens).ParseType()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return parsed
}

func TestParseTypes(t *testing.T) {
	tests := []struct {
		source   string
		expected types.Type
	}{
		{"Int", types.Int},
		{"Float", types.Float},
		{"Bool", types.Bool},
		{"String", types.String},
		{"Point", types.CustomOf("Point")},
		{"[Int]", types.ListOf(types.Int)},
		{"(Int, String)", types.TupleOf(types.Int, types.String)},
		{"(Int)", types.Int}, // singleton collapses
		{"Int?", types.MaybeOf(types.Int)},
		{"Int? ?", types.MaybeOf(types.MaybeOf(types.Int))},
		{"[(Int, Bool)]", types.ListOf(types.TupleOf(types.Int, types.Bool))},
	}
	for _, tt := range tests {
		got := parseTypeFrom(t, tt.source)
		if !got.Equal(tt.expected) {
			t.Errorf("ParseType(%q) = %s, want %s", tt.source, got, tt.expected)
		}
	}
}

func TestEmptyTupleTypeRejected(t *testing.T) {
	tokens, err := scanner.New("()").Scan()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if _, err := Make(tokens).ParseType(); err == nil {
		t.Error("expected error for empty tuple type")
	}
}

func TestBinaryPrecedence(t *testing.T) {
	expectExpr(t, "1 + 2 * 3", ast.BinaryExpr{
		Op:   ast.OpPlus,
		Left: ast.IntLiteral{Value: 1},
		Right: ast.BinaryExpr{
			Op:    ast.OpMultiply,
			Left:  ast.IntLiteral{Value: 2},
			Right: ast.IntLiteral{Value: 3},
		},
	})

	expectExpr(t, "1 < 2 == true", ast.BinaryExpr{
		Op: ast.OpIsEqual,
		Left: ast.BinaryExpr{
			Op:    ast.OpLess,
			Left:  ast.IntLiteral{Value: 1},
			Right: ast.IntLiteral{Value: 2},
		},
		Right: ast.BoolLiteral{Value: true},
	})

	expectExpr(t, "a or b and c", ast.BinaryExpr{
		Op:   ast.OpOr,
		Left: ast.Identifier{Name: "a"},
		Right: ast.BinaryExpr{
			Op:    ast.OpAnd,
			Left:  ast.Identifier{Name: "b"},
			Right: ast.Identifier{Name: "c"},
		},
	})
}

func TestUnaryExpressions(t *testing.T) {
	expectExpr(t, "-x", ast.UnaryExpr{Op: ast.OpNegate, Operand: ast.Identifier{Name: "x"}})
	expectExpr(t, "not flag", ast.UnaryExpr{Op: ast.OpNot, Operand: ast.Identifier{Name: "flag"}})
}

func TestPostfixChain(t *testing.T) {
	expectExpr(t, "obj.field", ast.FieldAccess{
		Object: ast.Identifier{Name: "obj"},
		Field:  "field",
	})

	expectExpr(t, "obj.method(1)", ast.MethodCall{
		Object: ast.Identifier{Name: "obj"},
		Method: "method",
		Args:   []ast.Expr{ast.IntLiteral{Value: 1}},
	})

	expectExpr(t, "items[0].name", ast.FieldAccess{
		Object: ast.ListAccess{
			List:  ast.Identifier{Name: "items"},
			Index: ast.IntLiteral{Value: 0},
		},
		Field: "name",
	})

	expectExpr(t, "f(1, 2)", ast.FunctionCall{
		Function: "f",
		Args:     []ast.Expr{ast.IntLiteral{Value: 1}, ast.IntLiteral{Value: 2}},
	})

	expectExpr(t, "@helper(x)", ast.OwnMethodCall{
		Method: "helper",
		Args:   []ast.Expr{ast.Identifier{Name: "x"}},
	})
}

func TestChainedCallsRejected(t *testing.T) {
	tokens, err := scanner.New("f()()").Scan()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if _, err := Make(tokens).ParseExpr(); err == nil {
		t.Error("expected error for chained function calls")
	}
}

func TestGroupAndTuple(t *testing.T) {
	expectExpr(t, "(1 + 2)", ast.BinaryExpr{
		Op:    ast.OpPlus,
		Left:  ast.IntLiteral{Value: 1},
		Right: ast.IntLiteral{Value: 2},
	})

	expectExpr(t, "(1, true)", ast.TupleValue{
		Items: []ast.Expr{ast.IntLiteral{Value: 1}, ast.BoolLiteral{Value: true}},
	})

	// trailing comma is allowed and a singleton collapses
	expectExpr(t, "(1, true,)", ast.TupleValue{
		Items: []ast.Expr{ast.IntLiteral{Value: 1}, ast.BoolLiteral{Value: true}},
	})
	expectExpr(t, "(1,)", ast.IntLiteral{Value: 1})
}

func TestListLiteralAndConstructors(t *testing.T) {
	expectExpr(t, "[1, 2, 3]", ast.ListValue{
		Items: []ast.Expr{
			ast.IntLiteral{Value: 1}, ast.IntLiteral{Value: 2}, ast.IntLiteral{Value: 3},
		},
	})

	expectExpr(t, "Point(1, 2)", ast.NewClassInstance{
		Typename: "Point",
		Args:     []ast.Expr{ast.IntLiteral{Value: 1}, ast.IntLiteral{Value: 2}},
	})

	expectExpr(t, "spawn Worker()", ast.SpawnActive{
		Typename: "Worker",
		Args:     []ast.Expr{},
	})
}

func TestMaybeOperators(t *testing.T) {
	expectExpr(t, "x ?: 0", ast.BinaryExpr{
		Op:    ast.OpElvis,
		Left:  ast.Identifier{Name: "x"},
		Right: ast.IntLiteral{Value: 0},
	})

	expectExpr(t, "x ?. describe()", ast.MaybeMethodCall{
		Object: ast.Identifier{Name: "x"},
		Method: "describe",
		Args:   []ast.Expr{},
	})
}

func TestStatements(t *testing.T) {
	stmt := parseStatementFrom(t, "Int a = 5;")
	expected := ast.VarDeclAssign{Type: types.Int, Name: "a", Value: ast.IntLiteral{Value: 5}}
	if diff := cmp.Diff(ast.Statement(expected), stmt, ignorePositions...); diff != "" {
		t.Errorf("var decl mismatch (-want +got):\n%s", diff)
	}

	stmt = parseStatementFrom(t, "a = 5;")
	assign := ast.Assign{Left: ast.Identifier{Name: "a"}, Right: ast.IntLiteral{Value: 5}}
	if diff := cmp.Diff(ast.Statement(assign), stmt, ignorePositions...); diff != "" {
		t.Errorf("assign mismatch (-want +got):\n%s", diff)
	}

	stmt = parseStatementFrom(t, "counter ! tick(1);")
	send := ast.SendMessage{
		Active: ast.Identifier{Name: "counter"},
		Method: "tick",
		Args:   []ast.Expr{ast.IntLiteral{Value: 1}},
	}
	if diff := cmp.Diff(ast.Statement(send), stmt, ignorePositions...); diff != "" {
		t.Errorf("send mismatch (-want +got):\n%s", diff)
	}
}

func TestIfElifElseStatement(t *testing.T) {
	stmt := parseStatementFrom(t, "if a { return 1; } elif b { return 2; } else { return 3; }")
	ifElse, ok := stmt.(ast.IfElse)
	if !ok {
		t.Fatalf("expected IfElse, got %T", stmt)
	}
	if len(ifElse.Elifs) != 1 || len(ifElse.ElseBody) != 1 || len(ifElse.IfBody) != 1 {
		t.Errorf("unexpected if/elif/else shape: %+v", ifElse)
	}
}

func TestLoopStatements(t *testing.T) {
	stmt := parseStatementFrom(t, "while x < 10 { x = x + 1; }")
	if _, ok := stmt.(ast.While); !ok {
		t.Fatalf("expected While, got %T", stmt)
	}

	stmt = parseStatementFrom(t, "foreach item in items { print(item); }")
	foreach, ok := stmt.(ast.Foreach)
	if !ok {
		t.Fatalf("expected Foreach, got %T", stmt)
	}
	if foreach.ItemName != "item" {
		t.Errorf("foreach item name = %q", foreach.ItemName)
	}
}

func TestTopLevel(t *testing.T) {
	source := `
from sub.mod import SomeType, helper;

class Point {
    Int x;
    Int y;

    fun Point(Int x, Int y) { @x = x; @y = y; }
    fun Int sum() { return @x + @y; }
}

active Counter {
    Int value;

    fun Counter() { @value = 0; }
    fun void tick() { @value = @value + 1; }
}

fun void main() {}
`
	file := parseFileFrom(t, source)

	if len(file.Imports) != 1 {
		t.Fatalf("expected 1 import, got %d", len(file.Imports))
	}
	imp := file.Imports[0]
	if diff := cmp.Diff([]string{"sub", "mod"}, imp.ModulePath); diff != "" {
		t.Errorf("module path mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"SomeType"}, imp.Typenames); diff != "" {
		t.Errorf("imported types mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"helper"}, imp.Functions); diff != "" {
		t.Errorf("imported functions mismatch:\n%s", diff)
	}

	if len(file.Types) != 2 {
		t.Fatalf("expected 2 types, got %d", len(file.Types))
	}
	point := file.Types[0]
	if point.IsActive || point.Name != "Point" || len(point.Fields) != 2 || len(point.Methods) != 2 {
		t.Errorf("unexpected Point declaration: %+v", point)
	}
	// the constructor carries the class name
	if point.Methods[0].Name != "Point" {
		t.Errorf("expected constructor named Point, got %q", point.Methods[0].Name)
	}

	counter := file.Types[1]
	if !counter.IsActive || counter.Name != "Counter" {
		t.Errorf("unexpected Counter declaration: %+v", counter)
	}

	if len(file.Functions) != 1 || file.Functions[0].Name != "main" {
		t.Errorf("unexpected functions: %+v", file.Functions)
	}
	if file.Functions[0].ReturnType != nil {
		t.Errorf("void must parse as absent return type")
	}
}

func TestTopLevelJunkRejected(t *testing.T) {
	tokens, err := scanner.New("5 + 5;").Scan()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if _, err := Make(tokens).ParseTopLevel(); err == nil {
		t.Error("expected error for junk at top level")
	}
}

func TestParseErrorCarriesToken(t *testing.T) {
	tokens, err := scanner.New("fun Int f( {").Scan()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	_, parseErr := Make(tokens).ParseTopLevel()
	if parseErr == nil {
		t.Fatal("expected a parse error")
	}
	structured, ok := parseErr.(Error)
	if !ok {
		t.Fatalf("expected parser.Error, got %T", parseErr)
	}
	if structured.At.Kind == token.EOF && structured.At.First == 0 {
		t.Errorf("error should carry a positioned token: %+v", structured)
	}
}
