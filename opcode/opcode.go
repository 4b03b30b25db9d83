// Package opcode defines the byte-wide instruction space of the virtual
// machine, the number of immediate bytes each opcode carries, and the
// constant-pool tag bytes. The generator and the VM share these tables so
// the two sides of the bytecode boundary cannot drift apart.
package opcode

// iota generates a distinct byte for each opcode
const (
	LOAD_TRUE byte = iota
	LOAD_FALSE
	NEGATE_INT
	ADD_INT
	SUB_INT
	MUL_INT
	DIV_INT
	GREATER_INT
	LESS_INT
	EQ_INT
	NEGATE_FLOAT
	ADD_FLOAT
	SUB_FLOAT
	MUL_FLOAT
	DIV_FLOAT
	GREATER_FLOAT
	LESS_FLOAT
	EQ_FLOAT
	NEGATE_BOOL
	EQ_BOOL
	AND_BOOL
	OR_BOOL
	ADD_STRINGS
	EQ_STRINGS
	GET_LIST_ITEM
	RETURN

	ALLOCATE // type index

	RESERVE // words
	POP     // words

	LOAD_CONST     // constant index
	LOAD_SMALL_INT // the value itself

	ALLOCATE_LIST // list kind + items count

	JUMP          // forward delta (2 bytes)
	JUMP_BACK     // backward delta (2 bytes)
	JUMP_IF_FALSE // forward delta (2 bytes)

	SET_LOCAL // offset + size
	GET_LOCAL // offset + size

	SET_OBJ_FIELD // offset from pointer + size
	GET_OBJ_FIELD // offset from pointer + size

	SET_LIST_ITEM // offset inside item + size

	GET_TUPLE_ITEM // tuple size + offset + item size

	CALL     // args size + function position (2 bytes)
	CALL_STD // args size + zero + std runner index

	SPAWN // type index + constructor position (2 bytes)
	SEND  // args size + method position (2 bytes)

	CURRENT_ACTIVE
	GET_CURRENT_ACTIVE_FIELD // offset + size
	SET_CURRENT_ACTIVE_FIELD // offset + size
)

// definition records the display name and immediate-argument byte count of
// one opcode.
type definition struct {
	name string
	args int
}

var definitions = [...]definition{
	LOAD_TRUE:     {"LOAD_TRUE", 0},
	LOAD_FALSE:    {"LOAD_FALSE", 0},
	NEGATE_INT:    {"NEGATE_INT", 0},
	ADD_INT:       {"ADD_INT", 0},
	SUB_INT:       {"SUB_INT", 0},
	MUL_INT:       {"MUL_INT", 0},
	DIV_INT:       {"DIV_INT", 0},
	GREATER_INT:   {"GREATER_INT", 0},
	LESS_INT:      {"LESS_INT", 0},
	EQ_INT:        {"EQ_INT", 0},
	NEGATE_FLOAT:  {"NEGATE_FLOAT", 0},
	ADD_FLOAT:     {"ADD_FLOAT", 0},
	SUB_FLOAT:     {"SUB_FLOAT", 0},
	MUL_FLOAT:     {"MUL_FLOAT", 0},
	DIV_FLOAT:     {"DIV_FLOAT", 0},
	GREATER_FLOAT: {"GREATER_FLOAT", 0},
	LESS_FLOAT:    {"LESS_FLOAT", 0},
	EQ_FLOAT:      {"EQ_FLOAT", 0},
	NEGATE_BOOL:   {"NEGATE_BOOL", 0},
	EQ_BOOL:       {"EQ_BOOL", 0},
	AND_BOOL:      {"AND_BOOL", 0},
	OR_BOOL:       {"OR_BOOL", 0},
	ADD_STRINGS:   {"ADD_STRINGS", 0},
	EQ_STRINGS:    {"EQ_STRINGS", 0},
	GET_LIST_ITEM: {"GET_LIST_ITEM", 0},
	RETURN:        {"RETURN", 0},

	ALLOCATE: {"ALLOCATE", 1},
	RESERVE:  {"RESERVE", 1},
	POP:      {"POP", 1},

	LOAD_CONST:     {"LOAD_CONST", 1},
	LOAD_SMALL_INT: {"LOAD_SMALL_INT", 1},

	ALLOCATE_LIST: {"ALLOCATE_LIST", 2},

	JUMP:          {"JUMP", 2},
	JUMP_BACK:     {"JUMP_BACK", 2},
	JUMP_IF_FALSE: {"JUMP_IF_FALSE", 2},

	SET_LOCAL: {"SET_LOCAL", 2},
	GET_LOCAL: {"GET_LOCAL", 2},

	SET_OBJ_FIELD: {"SET_OBJ_FIELD", 2},
	GET_OBJ_FIELD: {"GET_OBJ_FIELD", 2},

	SET_LIST_ITEM: {"SET_LIST_ITEM", 2},

	GET_TUPLE_ITEM: {"GET_TUPLE_ITEM", 3},

	CALL:     {"CALL", 3},
	CALL_STD: {"CALL_STD", 3},

	SPAWN: {"SPAWN", 3},
	SEND:  {"SEND", 3},

	CURRENT_ACTIVE:           {"CURRENT_ACTIVE", 0},
	GET_CURRENT_ACTIVE_FIELD: {"GET_CURRENT_ACTIVE_FIELD", 2},
	SET_CURRENT_ACTIVE_FIELD: {"SET_CURRENT_ACTIVE_FIELD", 2},
}

// ArgsCount returns the number of immediate bytes the opcode carries.
func ArgsCount(op byte) int {
	return definitions[op].args
}

// Name returns the display name of the opcode.
func Name(op byte) string {
	return definitions[op].name
}

// IsKnown reports whether the byte is a defined opcode.
func IsKnown(op byte) bool {
	return int(op) < len(definitions)
}

// Tags of the serialized constants section.
const (
	CONST_INT_FLAG    byte = 1
	CONST_FLOAT_FLAG  byte = 2
	CONST_STRING_FLAG byte = 3
	CONST_END_FLAG    byte = 0xFF
)

// HeaderByte is the section framing byte; sections are fenced by two of
// them.
const HeaderByte byte = 0xFF
