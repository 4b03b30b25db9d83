package semantics

import (
	"fmt"

	"frisbee/ast"
	"frisbee/symbols"
)

// Error is a semantic failure tied to a byte position in the module source.
type Error struct {
	Message string
	At      int
}

func (e Error) Error() string {
	return fmt.Sprintf("semantic error at byte %d: %s", e.At, e.Message)
}

// Offset returns the byte position for windowed display.
func (e Error) Offset() int {
	return e.At
}

// ErrorWithModule attaches the module alias where the failure occurred, so
// the driver can render it against the right source.
type ErrorWithModule struct {
	Module symbols.ModuleAlias
	Err    Error
}

func (e ErrorWithModule) Error() string {
	return fmt.Sprintf("in module %s: %v", e.Module, e.Err)
}

func exprError(expr ast.Expr, format string, args ...any) error {
	first, _ := expr.Pos()
	return Error{Message: fmt.Sprintf(format, args...), At: first}
}

func stmtError(stmt ast.Statement, format string, args ...any) error {
	return Error{Message: fmt.Sprintf(format, args...), At: stmt.Pos()}
}
