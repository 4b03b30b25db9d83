package semantics

import (
	"fmt"
	"strconv"

	"frisbee/ast"
	"frisbee/stdlib"
	"frisbee/symbols"
	"frisbee/types"
)

// tempLocal is a synthesized local the statement verifier materializes
// before the statement whose expression required it (the maybe operators
// evaluate their receiver exactly once through such a temporary).
type tempLocal struct {
	name  string
	value VExprTyped
}

// ExpressionsVerifier types and lowers a single expression tree. One
// instance lives per statement; the temps it accumulates are drained by the
// statement verifier.
type ExpressionsVerifier struct {
	fn        *RawFunction
	aggregate *ProgramAggregate
	locals    *LocalVariables
	insights  *Insights

	typeResolver func(string) (symbols.SymbolType, error)
	funcResolver func(string) (symbols.SymbolFunc, error)

	requiredTemps []tempLocal
	tempCounter   *int
}

// adopt checks a calculated value against the expected type. A concrete T
// is adopted into an expected Maybe(T) by prefixing the present flag; any
// other mismatch is an error.
func adopt(expected *types.Type, value VExprTyped) (VExprTyped, error) {
	if expected == nil || expected.Equal(value.Type) {
		return value, nil
	}
	if expected.Kind == types.KindMaybe && expected.Inner.Equal(value.Type) {
		return wrapIntoMaybe(value), nil
	}
	return VExprTyped{}, fmt.Errorf("expected type `%s` but got `%s`", expected, value.Type)
}

// wrapIntoMaybe lifts a concrete value into the (flag, payload) layout of
// its Maybe type.
func wrapIntoMaybe(value VExprTyped) VExprTyped {
	flag := VExprTyped{Expr: VBool{Value: true}, Type: types.Bool}
	return VExprTyped{
		Expr: VTupleValue{Items: []VExprTyped{flag, value}},
		Type: types.MaybeOf(value.Type),
	}
}

// nilValueOf builds the canonical empty value of Maybe(inner): a false flag
// followed by the zeroed payload.
func nilValueOf(inner types.Type) VExprTyped {
	flag := VExprTyped{Expr: VBool{Value: false}, Type: types.Bool}
	payload := VExprTyped{Expr: VDummy{Of: inner}, Type: inner}
	return VExprTyped{
		Expr: VTupleValue{Items: []VExprTyped{flag, payload}},
		Type: types.MaybeOf(inner),
	}
}

// makeTemp registers a synthesized local holding value and returns the
// variable read that replaces it. The `@` in the name keeps it out of the
// user namespace.
func (v *ExpressionsVerifier) makeTemp(prefix string, value VExprTyped) (VExprTyped, error) {
	*v.tempCounter++
	name := prefix + "@" + strconv.Itoa(*v.tempCounter)
	realName, err := v.locals.AddVariable(name, value.Type)
	if err != nil {
		return VExprTyped{}, err
	}
	v.requiredTemps = append(v.requiredTemps, tempLocal{name: realName, value: value})
	return VExprTyped{Expr: VGetVar{Name: realName}, Type: value.Type}, nil
}

func (v *ExpressionsVerifier) isActiveMethodScope() bool {
	return v.fn.MethodOf != "" && v.aggregate.Types[v.fn.MethodOf].IsActive
}

// Calculate types the expression against the (optional) expected type and
// lowers it to typed IR.
func (v *ExpressionsVerifier) Calculate(expr ast.Expr, expected *types.Type) (VExprTyped, error) {
	adopted := func(value VExprTyped, err error) (VExprTyped, error) {
		if err != nil {
			return VExprTyped{}, err
		}
		result, err := adopt(expected, value)
		if err != nil {
			return VExprTyped{}, exprError(expr, "%v", err)
		}
		return result, nil
	}

	switch e := expr.(type) {
	case ast.IntLiteral:
		return adopted(VExprTyped{Expr: VInt{Value: e.Value}, Type: types.Int}, nil)
	case ast.FloatLiteral:
		return adopted(VExprTyped{Expr: VFloat{Value: e.Value}, Type: types.Float}, nil)
	case ast.BoolLiteral:
		return adopted(VExprTyped{Expr: VBool{Value: e.Value}, Type: types.Bool}, nil)
	case ast.StringLiteral:
		return adopted(VExprTyped{Expr: VString{Value: e.Value}, Type: types.String}, nil)

	case ast.NilLiteral:
		if expected == nil {
			return VExprTyped{}, exprError(expr, "`nil` is only allowed where a maybe type is expected")
		}
		if expected.Kind != types.KindMaybe {
			return VExprTyped{}, exprError(expr, "`nil` is only allowed for maybe types (expected `%s`)", expected)
		}
		return nilValueOf(*expected.Inner), nil

	case ast.This:
		if v.fn.MethodOf == "" {
			return VExprTyped{}, exprError(expr, "using `this` is not allowed outside of methods")
		}
		objType := types.CustomOf(string(v.fn.MethodOf))
		if v.isActiveMethodScope() {
			return adopted(VExprTyped{Expr: VCurrentActive{}, Type: objType}, nil)
		}
		return adopted(VExprTyped{Expr: VGetVar{Name: "this"}, Type: objType}, nil)

	case ast.Identifier:
		varType, realName, err := v.locals.GetVariable(e.Name)
		if err != nil {
			return VExprTyped{}, exprError(expr, "%v", err)
		}
		if v.insights.IsUninitialized(realName) {
			return VExprTyped{}, exprError(expr, "variable `%s` might be uninitialized here", e.Name)
		}
		return adopted(VExprTyped{Expr: VGetVar{Name: realName}, Type: varType}, nil)

	case ast.UnaryExpr:
		operand, err := v.Calculate(e.Operand, nil)
		if err != nil {
			return VExprTyped{}, err
		}
		result, err := calculateUnaryOp(e.Op, operand)
		if err != nil {
			return VExprTyped{}, exprError(expr, "%v", err)
		}
		return adopted(result, nil)

	case ast.BinaryExpr:
		return v.calculateBinary(e, expected)

	case ast.ListAccess:
		return v.calculateAccessByIndex(e, expected)

	case ast.ListValue:
		return v.calculateListValue(e, expected)

	case ast.TupleValue:
		return v.calculateTupleValue(e, expected)

	case ast.FunctionCall:
		if stdlib.IsFunction(e.Function) {
			signature, _ := stdlib.FunctionSignature(e.Function)
			return v.calculateCall(expr, symbols.NewStdFunc(e.Function), signature.Args, signature.Ret, e.Args, nil, expected)
		}
		funcSymbol, err := v.funcResolver(e.Function)
		if err != nil {
			return VExprTyped{}, exprError(expr, "%v", err)
		}
		called := v.aggregate.Functions[funcSymbol]
		return v.calculateCall(expr, called.Name, called.Args.Types(), called.ReturnType, e.Args, nil, expected)

	case ast.MethodCall:
		return v.calculateMethodCall(e, expected)

	case ast.MaybeMethodCall:
		return v.calculateMaybeMethodCall(e, expected)

	case ast.OwnMethodCall:
		if v.fn.MethodOf == "" {
			return VExprTyped{}, exprError(expr, "calling own method outside of method scope")
		}
		method, err := v.resolveMethod(v.fn.MethodOf, e.Method, expr)
		if err != nil {
			return VExprTyped{}, err
		}
		if v.isActiveMethodScope() {
			return v.calculateCall(expr, method.Name, method.Args.Types(), method.ReturnType, e.Args, nil, expected)
		}
		this := VExprTyped{Expr: VGetVar{Name: "this"}, Type: types.CustomOf(string(v.fn.MethodOf))}
		return v.calculateCall(expr, method.Name, method.Args.Types()[1:], method.ReturnType, e.Args, &this, expected)

	case ast.FieldAccess:
		object, err := v.Calculate(e.Object, nil)
		if err != nil {
			return VExprTyped{}, err
		}
		return v.calculateFieldAccess(expr, object, e.Field, expected)

	case ast.OwnFieldAccess:
		if v.fn.MethodOf == "" {
			return VExprTyped{}, exprError(expr, "accessing own field outside of method scope")
		}
		if v.fn.IsConstructor && !v.insights.IsOwnFieldInitialized(e.Field) {
			return VExprTyped{}, exprError(expr, "own field `%s` might be uninitialized here", e.Field)
		}
		fieldType, _, ok := v.aggregate.Types[v.fn.MethodOf].Fields.Get(e.Field)
		if !ok {
			return VExprTyped{}, exprError(expr, "no field `%s` in type %s", e.Field, v.fn.MethodOf)
		}
		if v.isActiveMethodScope() {
			return adopted(VExprTyped{
				Expr: VCurrentActiveField{ActiveType: v.fn.MethodOf, Field: e.Field},
				Type: fieldType,
			}, nil)
		}
		this := VExprTyped{Expr: VGetVar{Name: "this"}, Type: types.CustomOf(string(v.fn.MethodOf))}
		return adopted(VExprTyped{
			Expr: VAccessField{Object: &this, Field: e.Field},
			Type: fieldType,
		}, nil)

	case ast.NewClassInstance:
		typeSymbol, err := v.typeResolver(e.Typename)
		if err != nil {
			return VExprTyped{}, exprError(expr, "%v", err)
		}
		classType := v.aggregate.Types[typeSymbol]
		if classType.IsActive {
			return VExprTyped{}, exprError(expr, "active type %s must be spawned, not created", e.Typename)
		}
		constructor := v.aggregate.Functions[typeSymbol.Constructor()]
		return v.calculateCall(expr, constructor.Name, constructor.Args.Types(), constructor.ReturnType, e.Args, nil, expected)

	case ast.SpawnActive:
		typeSymbol, err := v.typeResolver(e.Typename)
		if err != nil {
			return VExprTyped{}, exprError(expr, "%v", err)
		}
		classType := v.aggregate.Types[typeSymbol]
		if !classType.IsActive {
			return VExprTyped{}, exprError(expr, "cant spawn passive type %s", e.Typename)
		}
		constructor := v.aggregate.Functions[typeSymbol.Constructor()]
		args, err := v.calculateArgs(expr, constructor.ShortName, constructor.Args.Types(), e.Args)
		if err != nil {
			return VExprTyped{}, err
		}
		return adopted(VExprTyped{
			Expr: VSpawn{Typename: typeSymbol, Args: args},
			Type: types.CustomOf(string(typeSymbol)),
		}, nil)
	}

	return VExprTyped{}, exprError(expr, "can't verify expression")
}

func (v *ExpressionsVerifier) resolveMethod(
	t symbols.SymbolType,
	method string,
	at ast.Expr,
) (*RawFunction, error) {
	raw, ok := v.aggregate.Functions[t.Method(method)]
	if !ok {
		return nil, exprError(at, "no method `%s` in type %s", method, t)
	}
	return raw, nil
}

// calculateArgs checks arity and argument types against a callee signature.
func (v *ExpressionsVerifier) calculateArgs(
	original ast.Expr,
	calleeName string,
	expectedArgs []types.Type,
	given []ast.Expr,
) ([]VExprTyped, error) {
	if len(given) != len(expectedArgs) {
		return nil, exprError(original,
			"function `%s` expects %d arguments, but %d given",
			calleeName, len(expectedArgs), len(given))
	}
	args := make([]VExprTyped, 0, len(given))
	for i, arg := range given {
		expected := expectedArgs[i]
		calculated, err := v.Calculate(arg, &expected)
		if err != nil {
			return nil, err
		}
		args = append(args, calculated)
	}
	return args, nil
}

func (v *ExpressionsVerifier) calculateCall(
	original ast.Expr,
	name symbols.SymbolFunc,
	expectedArgs []types.Type,
	returnType types.Type,
	given []ast.Expr,
	implicitThis *VExprTyped,
	expected *types.Type,
) (VExprTyped, error) {
	args, err := v.calculateArgs(original, string(name), expectedArgs, given)
	if err != nil {
		return VExprTyped{}, err
	}
	if implicitThis != nil {
		args = append([]VExprTyped{*implicitThis}, args...)
	}
	call := VExprTyped{
		Expr: VCallFunction{Name: name, ReturnType: returnType, Args: args},
		Type: returnType,
	}
	result, err := adopt(expected, call)
	if err != nil {
		return VExprTyped{}, exprError(original, "%v", err)
	}
	return result, nil
}

func (v *ExpressionsVerifier) calculateMethodCall(e ast.MethodCall, expected *types.Type) (VExprTyped, error) {
	object, err := v.Calculate(e.Object, nil)
	if err != nil {
		return VExprTyped{}, err
	}

	switch object.Type.Kind {
	case types.KindTuple:
		return VExprTyped{}, exprError(e, "tuples have no methods")
	case types.KindMaybe:
		return VExprTyped{}, exprError(e, "use ?. operator to access methods for maybe type")
	case types.KindCustom:
		typeSymbol := symbols.SymbolType(object.Type.Name)
		if v.aggregate.Types[typeSymbol].IsActive {
			if _, isCurrent := object.Expr.(VCurrentActive); isCurrent {
				method, err := v.resolveMethod(typeSymbol, e.Method, e)
				if err != nil {
					return VExprTyped{}, err
				}
				return v.calculateCall(e, method.Name, method.Args.Types(), method.ReturnType, e.Args, nil, expected)
			}
			return VExprTyped{}, exprError(e, "only `!` send is allowed on active object references")
		}
		method, err := v.resolveMethod(typeSymbol, e.Method, e)
		if err != nil {
			return VExprTyped{}, err
		}
		if method.IsConstructor {
			return VExprTyped{}, exprError(e, "constructor can't be called as a method")
		}
		return v.calculateCall(e, method.Name, method.Args.Types()[1:], method.ReturnType, e.Args, &object, expected)
	default:
		signature, ok := stdlib.MethodSignature(object.Type, e.Method)
		if !ok {
			return VExprTyped{}, exprError(e, "no method `%s` for type %s", e.Method, object.Type)
		}
		return v.calculateCall(e, symbols.NewStdMethod(object.Type, e.Method), signature.Args, signature.Ret, e.Args, &object, expected)
	}
}

func (v *ExpressionsVerifier) calculateMaybeMethodCall(e ast.MaybeMethodCall, expected *types.Type) (VExprTyped, error) {
	object, err := v.Calculate(e.Object, nil)
	if err != nil {
		return VExprTyped{}, err
	}
	if object.Type.Kind != types.KindMaybe {
		return VExprTyped{}, exprError(e, "?. operator requires a maybe value (got `%s`)", object.Type)
	}
	inner := *object.Type.Inner
	if inner.Kind != types.KindCustom {
		return VExprTyped{}, exprError(e, "?. methods are only supported for custom types (got `%s`)", inner)
	}
	typeSymbol := symbols.SymbolType(inner.Name)
	if v.aggregate.Types[typeSymbol].IsActive {
		return VExprTyped{}, exprError(e, "only `!` send is allowed on active object references")
	}
	method, err := v.resolveMethod(typeSymbol, e.Method, e)
	if err != nil {
		return VExprTyped{}, err
	}
	if method.ReturnType.IsVoid() {
		return VExprTyped{}, exprError(e, "?. requires method `%s` to return a value", e.Method)
	}

	temp, err := v.makeTemp("maybe", object)
	if err != nil {
		return VExprTyped{}, exprError(e, "%v", err)
	}
	tempCopy := temp
	flag := VExprTyped{Expr: VAccessTupleItem{Tuple: &temp, Index: 0}, Type: types.Bool}
	payload := VExprTyped{Expr: VAccessTupleItem{Tuple: &tempCopy, Index: 1}, Type: inner}

	args, err := v.calculateArgs(e, string(method.Name), method.Args.Types()[1:], e.Args)
	if err != nil {
		return VExprTyped{}, err
	}
	args = append([]VExprTyped{payload}, args...)

	call := VExprTyped{
		Expr: VCallFunction{Name: method.Name, ReturnType: method.ReturnType, Args: args},
		Type: method.ReturnType,
	}
	present := wrapIntoMaybe(call)
	absent := nilValueOf(method.ReturnType)

	result := VExprTyped{
		Expr: VTernaryOp{Condition: &flag, IfTrue: &present, IfFalse: &absent},
		Type: types.MaybeOf(method.ReturnType),
	}
	final, err := adopt(expected, result)
	if err != nil {
		return VExprTyped{}, exprError(e, "%v", err)
	}
	return final, nil
}

func (v *ExpressionsVerifier) calculateBinary(e ast.BinaryExpr, expected *types.Type) (VExprTyped, error) {
	if e.Op == ast.OpElvis {
		return v.calculateElvis(e, expected)
	}
	isEquality := e.Op == ast.OpIsEqual || e.Op == ast.OpIsNotEqual
	_, leftIsNil := e.Left.(ast.NilLiteral)
	_, rightIsNil := e.Right.(ast.NilLiteral)
	if isEquality && (leftIsNil || rightIsNil) {
		result, err := v.calculateNilComparison(e, leftIsNil, rightIsNil)
		if err != nil {
			return VExprTyped{}, err
		}
		final, err := adopt(expected, result)
		if err != nil {
			return VExprTyped{}, exprError(e, "%v", err)
		}
		return final, nil
	}

	left, err := v.Calculate(e.Left, nil)
	if err != nil {
		return VExprTyped{}, err
	}
	right, err := v.Calculate(e.Right, nil)
	if err != nil {
		return VExprTyped{}, err
	}

	var result VExprTyped
	if isEquality && (left.Type.Kind == types.KindMaybe || right.Type.Kind == types.KindMaybe) {
		result, err = v.calculateMaybeComparison(e, left, right)
	} else {
		result, err = calculateBinaryOp(e.Op, left, right)
		if err != nil {
			err = exprError(e, "%v", err)
		}
	}
	if err != nil {
		return VExprTyped{}, err
	}
	final, err := adopt(expected, result)
	if err != nil {
		return VExprTyped{}, exprError(e, "%v", err)
	}
	return final, nil
}

// calculateElvis lowers `x ?: d`: the receiver is evaluated once into a
// temp, the flag selects between the payload and the default.
func (v *ExpressionsVerifier) calculateElvis(e ast.BinaryExpr, expected *types.Type) (VExprTyped, error) {
	left, err := v.Calculate(e.Left, nil)
	if err != nil {
		return VExprTyped{}, err
	}
	if left.Type.Kind != types.KindMaybe {
		return VExprTyped{}, exprError(e, "?: operator requires a maybe value (got `%s`)", left.Type)
	}
	inner := *left.Type.Inner

	right, err := v.Calculate(e.Right, &inner)
	if err != nil {
		return VExprTyped{}, err
	}

	temp, err := v.makeTemp("elvis", left)
	if err != nil {
		return VExprTyped{}, exprError(e, "%v", err)
	}
	tempCopy := temp
	flag := VExprTyped{Expr: VAccessTupleItem{Tuple: &temp, Index: 0}, Type: types.Bool}
	payload := VExprTyped{Expr: VAccessTupleItem{Tuple: &tempCopy, Index: 1}, Type: inner}

	result := VExprTyped{
		Expr: VTernaryOp{Condition: &flag, IfTrue: &payload, IfFalse: &right},
		Type: inner,
	}
	final, err := adopt(expected, result)
	if err != nil {
		return VExprTyped{}, exprError(e, "%v", err)
	}
	return final, nil
}

// calculateNilComparison handles `== / !=` where one side is the nil
// literal: the other side must be a maybe value.
func (v *ExpressionsVerifier) calculateNilComparison(e ast.BinaryExpr, leftIsNil, rightIsNil bool) (VExprTyped, error) {
	if leftIsNil && rightIsNil {
		return VExprTyped{}, exprError(e, "can't compare nil against nil")
	}

	other := e.Left
	if leftIsNil {
		other = e.Right
	}
	value, err := v.Calculate(other, nil)
	if err != nil {
		return VExprTyped{}, err
	}
	if value.Type.Kind != types.KindMaybe {
		return VExprTyped{}, exprError(e, "only maybe values can be compared against nil (got `%s`)", value.Type)
	}
	result := VExprTyped{Expr: VCompareMaybe{Left: &value}, Type: types.Bool}
	if e.Op == ast.OpIsNotEqual {
		result = notOf(result)
	}
	return result, nil
}

// calculateMaybeComparison handles `== / !=` between a maybe value and its
// concrete payload type.
func (v *ExpressionsVerifier) calculateMaybeComparison(e ast.BinaryExpr, left, right VExprTyped) (VExprTyped, error) {
	leftMaybe := left.Type.Kind == types.KindMaybe
	rightMaybe := right.Type.Kind == types.KindMaybe
	if leftMaybe && rightMaybe {
		return VExprTyped{}, exprError(e, "can't compare two maybe values; compare against nil or a concrete value")
	}

	maybe, concrete := left, right
	if rightMaybe {
		maybe, concrete = right, left
	}
	if !maybe.Type.Inner.Equal(concrete.Type) {
		return VExprTyped{}, exprError(e, "cant compare `%s` and `%s`", maybe.Type, concrete.Type)
	}
	eqOp, ok := equalityOperator(concrete.Type)
	if !ok {
		return VExprTyped{}, exprError(e, "type `%s` does not support equality", concrete.Type)
	}
	result := VExprTyped{
		Expr: VCompareMaybe{Left: &maybe, Right: &concrete, EqOp: eqOp},
		Type: types.Bool,
	}
	if e.Op == ast.OpIsNotEqual {
		result = notOf(result)
	}
	return result, nil
}

func (v *ExpressionsVerifier) calculateFieldAccess(
	original ast.Expr,
	object VExprTyped,
	field string,
	expected *types.Type,
) (VExprTyped, error) {
	if object.Type.Kind != types.KindCustom {
		return VExprTyped{}, exprError(original, "accessing fields for type %s is prohibited", object.Type)
	}
	typeSymbol := symbols.SymbolType(object.Type.Name)
	definition := v.aggregate.Types[typeSymbol]

	fieldType, _, ok := definition.Fields.Get(field)
	if !ok {
		return VExprTyped{}, exprError(original, "no field `%s` in type %s", field, typeSymbol)
	}

	if definition.IsActive {
		if _, isCurrent := object.Expr.(VCurrentActive); isCurrent {
			result := VExprTyped{Expr: VCurrentActiveField{ActiveType: typeSymbol, Field: field}, Type: fieldType}
			final, err := adopt(expected, result)
			if err != nil {
				return VExprTyped{}, exprError(original, "%v", err)
			}
			return final, nil
		}
		return VExprTyped{}, exprError(original, "only `!` send is allowed on active object references")
	}

	result := VExprTyped{Expr: VAccessField{Object: &object, Field: field}, Type: fieldType}
	final, err := adopt(expected, result)
	if err != nil {
		return VExprTyped{}, exprError(original, "%v", err)
	}
	return final, nil
}

func (v *ExpressionsVerifier) calculateAccessByIndex(e ast.ListAccess, expected *types.Type) (VExprTyped, error) {
	object, err := v.Calculate(e.List, nil)
	if err != nil {
		return VExprTyped{}, err
	}

	switch object.Type.Kind {
	case types.KindTuple:
		index, isLiteral := e.Index.(ast.IntLiteral)
		if !isLiteral {
			return VExprTyped{}, exprError(e.Index, "only integer literal allowed in tuple access")
		}
		if index.Value < 0 || index.Value >= int64(len(object.Type.Items)) {
			return VExprTyped{}, exprError(e.Index,
				"index of tuple is out of bounds (must be between 0 and %d)", len(object.Type.Items)-1)
		}
		itemType := object.Type.Items[index.Value]
		result := VExprTyped{
			Expr: VAccessTupleItem{Tuple: &object, Index: int(index.Value)},
			Type: itemType,
		}
		final, err := adopt(expected, result)
		if err != nil {
			return VExprTyped{}, exprError(e, "%v", err)
		}
		return final, nil

	case types.KindList:
		intType := types.Int
		index, err := v.Calculate(e.Index, &intType)
		if err != nil {
			return VExprTyped{}, err
		}
		result := VExprTyped{
			Expr: VAccessListItem{List: &object, Index: &index},
			Type: *object.Type.Inner,
		}
		final, err := adopt(expected, result)
		if err != nil {
			return VExprTyped{}, exprError(e, "%v", err)
		}
		return final, nil
	}

	return VExprTyped{}, exprError(e.List, "only lists and tuples implement index access (got %s)", object.Type)
}

func (v *ExpressionsVerifier) calculateListValue(e ast.ListValue, expected *types.Type) (VExprTyped, error) {
	if expected != nil && expected.Kind == types.KindMaybe {
		inner, err := v.calculateListValue(e, expected.Inner)
		if err != nil {
			return VExprTyped{}, err
		}
		return wrapIntoMaybe(inner), nil
	}
	if len(e.Items) == 0 {
		if expected == nil {
			return VExprTyped{}, exprError(e, "can't figure out the type of an empty list here")
		}
		if expected.Kind != types.KindList {
			return VExprTyped{}, exprError(e, "unexpected list value (expected `%s`)", expected)
		}
		return VExprTyped{
			Expr: VListValue{ItemType: *expected.Inner},
			Type: *expected,
		}, nil
	}

	var expectedItem *types.Type
	if expected != nil {
		if expected.Kind != types.KindList {
			return VExprTyped{}, exprError(e, "unexpected list value (expected `%s`)", expected)
		}
		expectedItem = expected.Inner
	}

	items := make([]VExprTyped, 0, len(e.Items))
	for _, item := range e.Items {
		calculated, err := v.Calculate(item, expectedItem)
		if err != nil {
			return VExprTyped{}, err
		}
		items = append(items, calculated)
	}

	for i := 1; i < len(items); i++ {
		if !items[i-1].Type.Equal(items[i].Type) {
			return VExprTyped{}, exprError(e,
				"all items in list must be of same type, but both %s and %s are found",
				items[i-1].Type, items[i].Type)
		}
	}

	itemType := items[0].Type
	if expectedItem != nil {
		itemType = *expectedItem
	}
	return VExprTyped{
		Expr: VListValue{ItemType: itemType, Items: items},
		Type: types.ListOf(itemType),
	}, nil
}

func (v *ExpressionsVerifier) calculateTupleValue(e ast.TupleValue, expected *types.Type) (VExprTyped, error) {
	if expected != nil && expected.Kind == types.KindMaybe && expected.Inner.Kind == types.KindTuple {
		inner, err := v.calculateTupleValue(e, expected.Inner)
		if err != nil {
			return VExprTyped{}, err
		}
		return wrapIntoMaybe(inner), nil
	}
	if expected == nil {
		items := make([]VExprTyped, 0, len(e.Items))
		itemTypes := make([]types.Type, 0, len(e.Items))
		for _, item := range e.Items {
			calculated, err := v.Calculate(item, nil)
			if err != nil {
				return VExprTyped{}, err
			}
			items = append(items, calculated)
			itemTypes = append(itemTypes, calculated.Type)
		}
		return VExprTyped{
			Expr: VTupleValue{Items: items},
			Type: types.TupleOf(itemTypes...),
		}, nil
	}

	if expected.Kind != types.KindTuple || len(expected.Items) != len(e.Items) {
		return VExprTyped{}, exprError(e, "unexpected tuple value (expected `%s`)", expected)
	}
	items := make([]VExprTyped, 0, len(e.Items))
	for i, item := range e.Items {
		itemType := expected.Items[i]
		calculated, err := v.Calculate(item, &itemType)
		if err != nil {
			return VExprTyped{}, err
		}
		items = append(items, calculated)
	}
	return VExprTyped{
		Expr: VTupleValue{Items: items},
		Type: *expected,
	}, nil
}
