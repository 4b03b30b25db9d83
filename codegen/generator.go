package codegen

import (
	"encoding/binary"

	"frisbee/opcode"
	"frisbee/semantics"
	"frisbee/symbols"
	"frisbee/types"
)

// CallPlaceholder remembers where a 2-byte call target must be patched
// once the absolute position of every function is known.
type CallPlaceholder struct {
	Position int
	Target   symbols.SymbolFunc
}

// FunctionBytecode is the emission result for one function.
type FunctionBytecode struct {
	Bytecode         []byte
	CallPlaceholders []CallPlaceholder
}

// JumpPlaceholder reserves two bytes for a forward or backward jump delta.
type JumpPlaceholder struct {
	position int
}

// BytecodeGenerator emits the instruction stream of a single function. The
// frame layout it works against is [return slot][arguments][locals]; the
// return slot lives at local offset 0.
type BytecodeGenerator struct {
	typesMeta *TypesTable
	listKinds *ListKindsTable
	constants *ConstantsTable

	locals      map[string]int
	localsTypes map[string]types.Type
	localsSize  int
	returnType  types.Type

	bytecode FunctionBytecode
}

// NewBytecodeGenerator lays out the frame of the given function: the
// return slot first, then arguments, then every local in first-declaration
// order.
func NewBytecodeGenerator(
	typesMeta *TypesTable,
	listKinds *ListKindsTable,
	constants *ConstantsTable,
	fn *semantics.RawFunction,
) *BytecodeGenerator {
	g := &BytecodeGenerator{
		typesMeta:   typesMeta,
		listKinds:   listKinds,
		constants:   constants,
		locals:      map[string]int{},
		localsTypes: map[string]types.Type{},
		returnType:  fn.ReturnType,
	}

	offset := TypeSize(fn.ReturnType)
	for i, name := range fn.Args.Names() {
		argType := fn.Args.Types()[i]
		g.locals[name] = offset
		g.localsTypes[name] = argType
		offset += TypeSize(argType)
	}
	for _, local := range fn.Locals {
		g.locals[local.Name] = offset
		g.localsTypes[local.Name] = local.Type
		g.localsSize += TypeSize(local.Type)
		offset += TypeSize(local.Type)
	}
	return g
}

func (g *BytecodeGenerator) push(b byte) {
	g.bytecode.Bytecode = append(g.bytecode.Bytecode, b)
}

func (g *BytecodeGenerator) pushTypeSize(t types.Type) {
	g.push(byte(TypeSize(t)))
}

func (g *BytecodeGenerator) pushConstant(c Constant) {
	g.push(g.constants.GetIndex(c))
}

func (g *BytecodeGenerator) pushGetLocal(name string) {
	g.push(opcode.GET_LOCAL)
	g.push(byte(g.locals[name]))
	g.pushTypeSize(g.localsTypes[name])
}

func (g *BytecodeGenerator) pushSetLocal(name string, tupleIndexes []int) {
	localType := g.localsTypes[name]
	g.push(opcode.SET_LOCAL)
	g.push(byte(g.locals[name] + TupleOffset(localType, tupleIndexes)))
	g.push(byte(TupleSubitemSize(localType, tupleIndexes)))
}

// pushSetReturn writes the value on top of the stack into the frame's
// return slot at local offset 0.
func (g *BytecodeGenerator) pushSetReturn() {
	g.push(opcode.SET_LOCAL)
	g.push(0)
	g.pushTypeSize(g.returnType)
}

func (g *BytecodeGenerator) pushReserve(t types.Type) {
	if size := TypeSize(t); size > 0 {
		g.push(opcode.RESERVE)
		g.push(byte(size))
	}
}

func (g *BytecodeGenerator) pushPop(t types.Type) {
	if size := TypeSize(t); size > 0 {
		g.push(opcode.POP)
		g.push(byte(size))
	}
}

// pushFunctionPlaceholder reserves the 2-byte call target of a function
// and records it for the fixup pass.
func (g *BytecodeGenerator) pushFunctionPlaceholder(target symbols.SymbolFunc) {
	g.bytecode.CallPlaceholders = append(g.bytecode.CallPlaceholders, CallPlaceholder{
		Position: len(g.bytecode.Bytecode),
		Target:   target,
	})
	g.push(0)
	g.push(0)
}

// pushPlaceholder reserves two bytes for a jump delta filled later.
func (g *BytecodeGenerator) pushPlaceholder() JumpPlaceholder {
	placeholder := JumpPlaceholder{position: g.position()}
	g.push(0)
	g.push(0)
	return placeholder
}

func (g *BytecodeGenerator) position() int {
	return len(g.bytecode.Bytecode)
}

// fillPlaceholder writes the forward delta from just past the placeholder
// to the current position.
func (g *BytecodeGenerator) fillPlaceholder(placeholder JumpPlaceholder) {
	diff := uint16(g.position() - placeholder.position - 2)
	binary.BigEndian.PutUint16(g.bytecode.Bytecode[placeholder.position:], diff)
}

// fillPlaceholderBackward writes the backward delta from just past the
// placeholder to jumpTo.
func (g *BytecodeGenerator) fillPlaceholderBackward(placeholder JumpPlaceholder, jumpTo int) {
	diff := uint16(placeholder.position - jumpTo + 2)
	binary.BigEndian.PutUint16(g.bytecode.Bytecode[placeholder.position:], diff)
}

// Generate emits the whole function: the upfront locals reservation, then
// every statement.
func (g *BytecodeGenerator) Generate(fn *semantics.RawFunction) FunctionBytecode {
	if g.localsSize > 0 {
		g.push(opcode.RESERVE)
		g.push(byte(g.localsSize))
	}
	for _, statement := range fn.Body {
		if breaks := g.pushStatement(statement, nil); len(breaks) > 0 {
			panic("break placeholder escaped its loop, semantics failed")
		}
	}
	return g.bytecode
}
