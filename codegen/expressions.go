package codegen

import (
	"fmt"

	"frisbee/opcode"
	"frisbee/semantics"
	"frisbee/stdlib"
	"frisbee/symbols"
	"frisbee/types"
)

// operatorOpcodes maps each typed primitive operation to its opcode.
var operatorOpcodes = map[semantics.RawOperator]byte{
	semantics.UnaryNegateInt: opcode.NEGATE_INT,
	semantics.AddInts:        opcode.ADD_INT,
	semantics.SubInts:        opcode.SUB_INT,
	semantics.MulInts:        opcode.MUL_INT,
	semantics.DivInts:        opcode.DIV_INT,
	semantics.GreaterInts:    opcode.GREATER_INT,
	semantics.LessInts:       opcode.LESS_INT,
	semantics.EqualInts:      opcode.EQ_INT,

	semantics.UnaryNegateFloat: opcode.NEGATE_FLOAT,
	semantics.AddFloats:        opcode.ADD_FLOAT,
	semantics.SubFloats:        opcode.SUB_FLOAT,
	semantics.MulFloats:        opcode.MUL_FLOAT,
	semantics.DivFloats:        opcode.DIV_FLOAT,
	semantics.GreaterFloats:    opcode.GREATER_FLOAT,
	semantics.LessFloats:       opcode.LESS_FLOAT,
	semantics.EqualFloats:      opcode.EQ_FLOAT,

	semantics.UnaryNegateBool: opcode.NEGATE_BOOL,
	semantics.EqualBools:      opcode.EQ_BOOL,
	semantics.AndBools:        opcode.AND_BOOL,
	semantics.OrBools:         opcode.OR_BOOL,

	semantics.EqualStrings: opcode.EQ_STRINGS,
	semantics.AddStrings:   opcode.ADD_STRINGS,
}

// StdFunctionIndex resolves a std symbol to its native runner index.
func StdFunctionIndex(symbol symbols.SymbolFunc) byte {
	index, ok := stdlib.Index(symbol)
	if !ok {
		panic(fmt.Sprintf("no std function %s found", symbol))
	}
	return byte(index)
}

// pushExpr emits the instructions leaving the expression's value on the
// stack top.
func (g *BytecodeGenerator) pushExpr(expr semantics.VExprTyped) {
	switch e := expr.Expr.(type) {
	case semantics.VInt:
		if e.Value >= 0 && e.Value <= 255 {
			g.push(opcode.LOAD_SMALL_INT)
			g.push(byte(e.Value))
		} else {
			g.push(opcode.LOAD_CONST)
			g.pushConstant(IntConstant(e.Value))
		}
	case semantics.VFloat:
		g.push(opcode.LOAD_CONST)
		g.pushConstant(FloatConstant(e.Value))
	case semantics.VString:
		g.push(opcode.LOAD_CONST)
		g.pushConstant(StringConstant(e.Value))
	case semantics.VBool:
		if e.Value {
			g.push(opcode.LOAD_TRUE)
		} else {
			g.push(opcode.LOAD_FALSE)
		}

	case semantics.VDummy:
		g.pushReserve(e.Of)

	case semantics.VApplyOp:
		for _, operand := range e.Operands {
			g.pushExpr(operand)
		}
		g.push(operatorOpcodes[e.Operator])

	case semantics.VTernaryOp:
		g.pushExpr(*e.Condition)
		g.push(opcode.JUMP_IF_FALSE)
		skipIfTrue := g.pushPlaceholder()

		g.pushExpr(*e.IfTrue)
		g.push(opcode.JUMP)
		skipIfFalse := g.pushPlaceholder()
		g.fillPlaceholder(skipIfTrue)

		g.pushExpr(*e.IfFalse)
		g.fillPlaceholder(skipIfFalse)

	case semantics.VCompareMaybe:
		g.pushCompareMaybe(e)

	case semantics.VGetVar:
		g.pushGetLocal(e.Name)

	case semantics.VCallFunction:
		if !e.Name.IsStd() {
			g.pushReserve(e.ReturnType)
		}
		argsSize := 0
		for _, arg := range e.Args {
			g.pushExpr(arg)
			argsSize += TypeSize(arg.Type)
		}
		if e.Name.IsStd() {
			g.push(opcode.CALL_STD)
			g.push(byte(argsSize))
			g.push(0)
			g.push(StdFunctionIndex(e.Name))
		} else {
			g.push(opcode.CALL)
			g.push(byte(argsSize))
			g.pushFunctionPlaceholder(e.Name)
		}

	case semantics.VTupleValue:
		// tuples are just their components laid out contiguously
		for _, item := range e.Items {
			g.pushExpr(item)
		}

	case semantics.VListValue:
		for _, item := range e.Items {
			g.pushExpr(item)
		}
		kind := g.listKinds.GetOrInsert(e.ItemType)
		g.push(opcode.ALLOCATE_LIST)
		g.push(byte(kind))
		g.push(byte(len(e.Items)))

	case semantics.VAccessTupleItem:
		tupleType := e.Tuple.Type
		itemType := TypeFromTuple(tupleType, e.Index)
		g.pushReserve(itemType)
		g.pushExpr(*e.Tuple)

		g.push(opcode.GET_TUPLE_ITEM)
		g.pushTypeSize(tupleType)
		g.push(byte(TupleOffset(tupleType, []int{e.Index})))
		g.pushTypeSize(itemType)

	case semantics.VAccessField:
		objectType := symbols.SymbolType(e.Object.Type.Name)
		g.pushExpr(*e.Object)
		g.push(opcode.GET_OBJ_FIELD)
		g.push(byte(g.typesMeta.Get(objectType).FieldOffsets[e.Field]))
		g.push(byte(g.typesMeta.Get(objectType).FieldSizes[e.Field]))

	case semantics.VAccessListItem:
		g.pushExpr(*e.Index)
		g.pushExpr(*e.List)
		g.push(opcode.GET_LIST_ITEM)

	case semantics.VAllocate:
		g.push(opcode.ALLOCATE)
		g.push(byte(g.typesMeta.Index(e.Typename)))

	case semantics.VSpawn:
		g.push(opcode.RESERVE)
		g.push(1)
		for _, arg := range e.Args {
			g.pushExpr(arg)
		}
		g.push(opcode.SPAWN)
		g.push(byte(g.typesMeta.Index(e.Typename)))
		g.pushFunctionPlaceholder(e.Typename.Constructor())

	case semantics.VCurrentActive:
		g.push(opcode.CURRENT_ACTIVE)

	case semantics.VCurrentActiveField:
		g.push(opcode.GET_CURRENT_ACTIVE_FIELD)
		g.push(byte(g.typesMeta.Get(e.ActiveType).FieldOffsets[e.Field]))
		g.push(byte(g.typesMeta.Get(e.ActiveType).FieldSizes[e.Field]))

	default:
		panic(fmt.Sprintf("cannot emit expression %T", expr.Expr))
	}
}

// pushCompareMaybe emits maybe equality. Against nil the present flag is
// extracted and negated; against a concrete value the flag is ANDed with
// the payload equality.
func (g *BytecodeGenerator) pushCompareMaybe(e semantics.VCompareMaybe) {
	if e.Right == nil {
		g.pushReserve(types.Bool)
		g.pushExpr(*e.Left)
		g.push(opcode.GET_TUPLE_ITEM)
		g.pushTypeSize(e.Left.Type)
		g.push(0)
		g.push(1)
		g.push(opcode.NEGATE_BOOL)
		return
	}

	// stack after operands: flag, payload, concrete
	g.pushExpr(*e.Left)
	g.pushExpr(*e.Right)
	g.push(operatorOpcodes[e.EqOp])
	g.push(opcode.AND_BOOL)
}
