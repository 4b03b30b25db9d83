package codegen

import (
	"frisbee/opcode"
	"frisbee/semantics"
	"frisbee/symbols"
)

// pushStatement emits one statement. Break jumps escape to the enclosing
// loop, so their placeholders are returned upward until a loop fills them;
// loopStart carries the position of the enclosing loop's condition for
// `continue`.
func (g *BytecodeGenerator) pushStatement(statement semantics.VStatement, loopStart *int) []JumpPlaceholder {
	var outerBreaks []JumpPlaceholder

	switch s := statement.(type) {
	case semantics.VExpression:
		g.pushExpr(s.Inner)
		g.pushPop(s.Inner.Type)

	case semantics.VAssignLocal:
		g.pushExpr(s.Value)
		g.pushSetLocal(s.Name, s.TupleIndexes)

	case semantics.VAssignToField:
		g.pushAssignToField(s)

	case semantics.VAssignToList:
		listMeta := s.List.Type
		itemType := *listMeta.Inner
		// value sits below index and list so the heap write pops the
		// pointer last
		g.pushExpr(s.Value)
		g.pushExpr(s.Index)
		g.pushExpr(s.List)
		g.push(opcode.SET_LIST_ITEM)
		g.push(byte(TupleOffset(itemType, s.TupleIndexes)))
		g.push(byte(TupleSubitemSize(itemType, s.TupleIndexes)))

	case semantics.VReturn:
		g.pushExpr(s.Value)
		g.pushSetReturn()
		g.push(opcode.RETURN)

	case semantics.VIfElse:
		g.pushExpr(s.Condition)
		g.push(opcode.JUMP_IF_FALSE)
		skipIfBody := g.pushPlaceholder()

		for _, inner := range s.IfBody {
			outerBreaks = append(outerBreaks, g.pushStatement(inner, loopStart)...)
		}

		if len(s.ElseBody) == 0 {
			g.fillPlaceholder(skipIfBody)
			break
		}

		g.push(opcode.JUMP)
		skipElseBody := g.pushPlaceholder()
		g.fillPlaceholder(skipIfBody)

		for _, inner := range s.ElseBody {
			outerBreaks = append(outerBreaks, g.pushStatement(inner, loopStart)...)
		}
		g.fillPlaceholder(skipElseBody)

	case semantics.VWhile:
		startPos := g.position()
		g.pushExpr(s.Condition)

		g.push(opcode.JUMP_IF_FALSE)
		skipLoop := g.pushPlaceholder()

		var loopBreaks []JumpPlaceholder
		for _, inner := range s.Body {
			loopBreaks = append(loopBreaks, g.pushStatement(inner, &startPos)...)
		}
		g.push(opcode.JUMP_BACK)
		jumpBack := g.pushPlaceholder()
		g.fillPlaceholderBackward(jumpBack, startPos)

		g.fillPlaceholder(skipLoop)
		for _, breakPlaceholder := range loopBreaks {
			g.fillPlaceholder(breakPlaceholder)
		}

	case semantics.VBreak:
		g.push(opcode.JUMP)
		outerBreaks = append(outerBreaks, g.pushPlaceholder())

	case semantics.VContinue:
		g.push(opcode.JUMP_BACK)
		jumpBack := g.pushPlaceholder()
		g.fillPlaceholderBackward(jumpBack, *loopStart)

	case semantics.VSendMessage:
		g.pushExpr(s.Active)
		argsSize := 0
		for _, arg := range s.Args {
			g.pushExpr(arg)
			argsSize += TypeSize(arg.Type)
		}
		g.push(opcode.SEND)
		g.push(byte(argsSize))
		g.pushFunctionPlaceholder(s.Method)
	}

	return outerBreaks
}

// pushAssignToField writes a value into an object field (or a tuple
// component of it). Writes into the running active object's own storage
// use the dedicated opcode instead of a heap pointer.
func (g *BytecodeGenerator) pushAssignToField(s semantics.VAssignToField) {
	objectType := symbols.SymbolType(s.Object.Type.Name)
	meta := g.typesMeta.Get(objectType)
	fieldType := meta.FieldTypes[s.Field]
	offset := meta.FieldOffsets[s.Field] + TupleOffset(fieldType, s.TupleIndexes)
	size := TupleSubitemSize(fieldType, s.TupleIndexes)

	if _, isCurrent := s.Object.Expr.(semantics.VCurrentActive); isCurrent && meta.IsActive {
		g.pushExpr(s.Value)
		g.push(opcode.SET_CURRENT_ACTIVE_FIELD)
		g.push(byte(offset))
		g.push(byte(size))
		return
	}

	// value is pushed below the pointer so the write pops the pointer last
	g.pushExpr(s.Value)
	g.pushExpr(s.Object)
	g.push(opcode.SET_OBJ_FIELD)
	g.push(byte(offset))
	g.push(byte(size))
}
