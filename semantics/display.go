package semantics

import (
	"fmt"
	"sort"
	"strings"

	"frisbee/symbols"
)

// FormatFunction renders one verified function in a readable intermediate
// form, for the `show-ir` command.
func FormatFunction(fn *RawFunction) string {
	var b strings.Builder

	args := make([]string, 0, fn.Args.Len())
	for i, name := range fn.Args.Names() {
		args = append(args, fmt.Sprintf("%s %s", fn.Args.Types()[i], name))
	}
	fmt.Fprintf(&b, "fun %s %s(%s)\n", fn.ReturnType, fn.Name, strings.Join(args, ", "))
	for _, local := range fn.Locals {
		fmt.Fprintf(&b, "    local %s %s\n", local.Type, local.Name)
	}
	for _, stmt := range fn.Body {
		writeStatement(&b, stmt, 1)
	}
	return b.String()
}

// FormatAggregate renders every function of the aggregate, sorted by name.
func FormatAggregate(aggregate *ProgramAggregate) string {
	names := make([]symbols.SymbolFunc, 0, len(aggregate.Functions))
	for name := range aggregate.Functions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	var b strings.Builder
	for _, name := range names {
		b.WriteString(FormatFunction(aggregate.Functions[name]))
		b.WriteString("\n")
	}
	return b.String()
}

func indentOf(level int) string {
	return strings.Repeat("    ", level)
}

func writeStatement(b *strings.Builder, stmt VStatement, level int) {
	indent := indentOf(level)
	switch s := stmt.(type) {
	case VIfElse:
		fmt.Fprintf(b, "%sif %s {\n", indent, formatExpr(s.Condition))
		for _, inner := range s.IfBody {
			writeStatement(b, inner, level+1)
		}
		if len(s.ElseBody) > 0 {
			fmt.Fprintf(b, "%s} else {\n", indent)
			for _, inner := range s.ElseBody {
				writeStatement(b, inner, level+1)
			}
		}
		fmt.Fprintf(b, "%s}\n", indent)
	case VWhile:
		fmt.Fprintf(b, "%swhile %s {\n", indent, formatExpr(s.Condition))
		for _, inner := range s.Body {
			writeStatement(b, inner, level+1)
		}
		fmt.Fprintf(b, "%s}\n", indent)
	case VBreak:
		fmt.Fprintf(b, "%sbreak\n", indent)
	case VContinue:
		fmt.Fprintf(b, "%scontinue\n", indent)
	case VReturn:
		fmt.Fprintf(b, "%sreturn %s\n", indent, formatExpr(s.Value))
	case VAssignLocal:
		fmt.Fprintf(b, "%s%s%s = %s\n", indent, s.Name, formatIndexes(s.TupleIndexes), formatExpr(s.Value))
	case VAssignToField:
		fmt.Fprintf(b, "%s%s.%s%s = %s\n",
			indent, formatExpr(s.Object), s.Field, formatIndexes(s.TupleIndexes), formatExpr(s.Value))
	case VAssignToList:
		fmt.Fprintf(b, "%s%s[%s]%s = %s\n",
			indent, formatExpr(s.List), formatExpr(s.Index), formatIndexes(s.TupleIndexes), formatExpr(s.Value))
	case VSendMessage:
		fmt.Fprintf(b, "%s%s ! %s(%s)\n", indent, formatExpr(s.Active), s.Method, formatExprs(s.Args))
	case VExpression:
		fmt.Fprintf(b, "%s%s\n", indent, formatExpr(s.Inner))
	}
}

func formatIndexes(indexes []int) string {
	var b strings.Builder
	for _, i := range indexes {
		fmt.Fprintf(&b, "[%d]", i)
	}
	return b.String()
}

func formatExprs(exprs []VExprTyped) string {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		parts = append(parts, formatExpr(e))
	}
	return strings.Join(parts, ", ")
}

func formatExpr(e VExprTyped) string {
	switch expr := e.Expr.(type) {
	case VInt:
		return fmt.Sprintf("%d", expr.Value)
	case VFloat:
		return fmt.Sprintf("%v", expr.Value)
	case VBool:
		return fmt.Sprintf("%v", expr.Value)
	case VString:
		return fmt.Sprintf("%q", expr.Value)
	case VDummy:
		return fmt.Sprintf("@dummy(%s)", expr.Of)
	case VCompareMaybe:
		if expr.Right == nil {
			return fmt.Sprintf("@comp_maybe(%s = nil)", formatExpr(*expr.Left))
		}
		return fmt.Sprintf("@comp_maybe(%s = %s)", formatExpr(*expr.Left), formatExpr(*expr.Right))
	case VGetVar:
		return expr.Name
	case VAccessTupleItem:
		return fmt.Sprintf("%s[%d]", formatExpr(*expr.Tuple), expr.Index)
	case VTupleValue:
		return fmt.Sprintf("(%s)", formatExprs(expr.Items))
	case VListValue:
		return fmt.Sprintf("[%s]", formatExprs(expr.Items))
	case VApplyOp:
		if len(expr.Operands) == 1 {
			return fmt.Sprintf("(%s %s)", expr.Operator, formatExpr(expr.Operands[0]))
		}
		return fmt.Sprintf("(%s %s %s)", formatExpr(expr.Operands[0]), expr.Operator, formatExpr(expr.Operands[1]))
	case VTernaryOp:
		return fmt.Sprintf("(%s ? %s : %s)",
			formatExpr(*expr.Condition), formatExpr(*expr.IfTrue), formatExpr(*expr.IfFalse))
	case VCallFunction:
		return fmt.Sprintf("%s(%s)", expr.Name, formatExprs(expr.Args))
	case VAccessField:
		return fmt.Sprintf("%s.%s", formatExpr(*expr.Object), expr.Field)
	case VAccessListItem:
		return fmt.Sprintf("%s[%s]", formatExpr(*expr.List), formatExpr(*expr.Index))
	case VAllocate:
		return fmt.Sprintf("@allocate(%s)", expr.Typename)
	case VSpawn:
		return fmt.Sprintf("spawn %s(%s)", expr.Typename, formatExprs(expr.Args))
	case VCurrentActive:
		return "this"
	case VCurrentActiveField:
		return "@" + expr.Field
	}
	return "<?>"
}
