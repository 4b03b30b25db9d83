package semantics

import (
	"fmt"

	"frisbee/ast"
	"frisbee/symbols"
	"frisbee/types"
)

// calculateUnaryOp dispatches a prefix operator on the operand type.
func calculateUnaryOp(op ast.UnaryOp, operand VExprTyped) (VExprTyped, error) {
	var exact RawOperator
	switch {
	case op == ast.OpNegate && operand.Type.Kind == types.KindInt:
		exact = UnaryNegateInt
	case op == ast.OpNegate && operand.Type.Kind == types.KindFloat:
		exact = UnaryNegateFloat
	case op == ast.OpNot && operand.Type.Kind == types.KindBool:
		exact = UnaryNegateBool
	default:
		return VExprTyped{}, fmt.Errorf("can't apply %s to %s type", op, operand.Type)
	}
	return VExprTyped{
		Expr: VApplyOp{Operator: exact, Operands: []VExprTyped{operand}},
		Type: operand.Type,
	}, nil
}

func wrapBinary(op RawOperator, left, right VExprTyped, result types.Type) VExprTyped {
	return VExprTyped{
		Expr: VApplyOp{Operator: op, Operands: []VExprTyped{left, right}},
		Type: result,
	}
}

// notOf wraps a Bool expression in a boolean negate.
func notOf(inner VExprTyped) VExprTyped {
	return VExprTyped{
		Expr: VApplyOp{Operator: UnaryNegateBool, Operands: []VExprTyped{inner}},
		Type: types.Bool,
	}
}

// calculateBinaryOp dispatches a binary operator on equal operand types.
// `>=`, `<=` and `!=` lower to negations of `<`, `>` and `==`; `+` covers
// Int, Float, String concatenation and list append.
func calculateBinaryOp(op ast.BinaryOp, left, right VExprTyped) (VExprTyped, error) {
	opError := fmt.Errorf("cant apply %s to %s and %s", op, left.Type, right.Type)

	sameTypes := func() error {
		if !left.Type.Equal(right.Type) {
			return opError
		}
		return nil
	}
	intOrFloat := func(intOp, floatOp RawOperator) (RawOperator, error) {
		if err := sameTypes(); err != nil {
			return 0, err
		}
		switch left.Type.Kind {
		case types.KindInt:
			return intOp, nil
		case types.KindFloat:
			return floatOp, nil
		}
		return 0, opError
	}

	switch op {
	case ast.OpPlus:
		if err := sameTypes(); err != nil {
			return VExprTyped{}, err
		}
		switch left.Type.Kind {
		case types.KindInt:
			return wrapBinary(AddInts, left, right, types.Int), nil
		case types.KindFloat:
			return wrapBinary(AddFloats, left, right, types.Float), nil
		case types.KindString:
			return wrapBinary(AddStrings, left, right, types.String), nil
		case types.KindList:
			// list append runs as a native runner, like the std methods
			return VExprTyped{
				Expr: VCallFunction{
					Name:       symbols.NewStdMethod(left.Type, "concat"),
					ReturnType: left.Type,
					Args:       []VExprTyped{left, right},
				},
				Type: left.Type,
			}, nil
		}
		return VExprTyped{}, opError

	case ast.OpMinus:
		exact, err := intOrFloat(SubInts, SubFloats)
		if err != nil {
			return VExprTyped{}, err
		}
		return wrapBinary(exact, left, right, left.Type), nil
	case ast.OpMultiply:
		exact, err := intOrFloat(MulInts, MulFloats)
		if err != nil {
			return VExprTyped{}, err
		}
		return wrapBinary(exact, left, right, left.Type), nil
	case ast.OpDivide:
		exact, err := intOrFloat(DivInts, DivFloats)
		if err != nil {
			return VExprTyped{}, err
		}
		return wrapBinary(exact, left, right, left.Type), nil

	case ast.OpGreater:
		exact, err := intOrFloat(GreaterInts, GreaterFloats)
		if err != nil {
			return VExprTyped{}, err
		}
		return wrapBinary(exact, left, right, types.Bool), nil
	case ast.OpLess:
		exact, err := intOrFloat(LessInts, LessFloats)
		if err != nil {
			return VExprTyped{}, err
		}
		return wrapBinary(exact, left, right, types.Bool), nil
	case ast.OpGreaterEqual:
		exact, err := intOrFloat(LessInts, LessFloats)
		if err != nil {
			return VExprTyped{}, err
		}
		return notOf(wrapBinary(exact, left, right, types.Bool)), nil
	case ast.OpLessEqual:
		exact, err := intOrFloat(GreaterInts, GreaterFloats)
		if err != nil {
			return VExprTyped{}, err
		}
		return notOf(wrapBinary(exact, left, right, types.Bool)), nil

	case ast.OpIsEqual:
		if err := sameTypes(); err != nil {
			return VExprTyped{}, err
		}
		exact, ok := equalityOperator(left.Type)
		if !ok {
			return VExprTyped{}, opError
		}
		return wrapBinary(exact, left, right, types.Bool), nil
	case ast.OpIsNotEqual:
		inner, err := calculateBinaryOp(ast.OpIsEqual, left, right)
		if err != nil {
			return VExprTyped{}, err
		}
		return notOf(inner), nil

	case ast.OpAnd:
		if left.Type.Kind != types.KindBool {
			return VExprTyped{}, opError
		}
		if err := sameTypes(); err != nil {
			return VExprTyped{}, err
		}
		return wrapBinary(AndBools, left, right, types.Bool), nil
	case ast.OpOr:
		if left.Type.Kind != types.KindBool {
			return VExprTyped{}, opError
		}
		if err := sameTypes(); err != nil {
			return VExprTyped{}, err
		}
		return wrapBinary(OrBools, left, right, types.Bool), nil
	}

	return VExprTyped{}, opError
}

// equalityOperator picks the equality RawOperator for a single-word
// primitive type.
func equalityOperator(t types.Type) (RawOperator, bool) {
	switch t.Kind {
	case types.KindInt:
		return EqualInts, true
	case types.KindFloat:
		return EqualFloats, true
	case types.KindBool:
		return EqualBools, true
	case types.KindString:
		return EqualStrings, true
	}
	return 0, false
}
