package opcode

import (
	"testing"
)

func TestEveryOpcodeHasADefinition(t *testing.T) {
	for op := byte(0); IsKnown(op); op++ {
		if Name(op) == "" {
			t.Errorf("opcode %d has no display name", op)
		}
		if args := ArgsCount(op); args < 0 || args > 4 {
			t.Errorf("opcode %s has an impossible immediate count %d", Name(op), args)
		}
	}
}

func TestRepresentativeWidths(t *testing.T) {
	tests := []struct {
		op   byte
		args int
	}{
		{LOAD_TRUE, 0},
		{ADD_INT, 0},
		{RETURN, 0},
		{LOAD_CONST, 1},
		{LOAD_SMALL_INT, 1},
		{RESERVE, 1},
		{GET_LOCAL, 2},
		{SET_OBJ_FIELD, 2},
		{JUMP_IF_FALSE, 2},
		{GET_TUPLE_ITEM, 3},
		{CALL, 3},
		{CALL_STD, 3},
		{SPAWN, 3},
		{SEND, 3},
		{CURRENT_ACTIVE, 0},
	}
	for _, tt := range tests {
		if got := ArgsCount(tt.op); got != tt.args {
			t.Errorf("%s has %d immediate bytes, want %d", Name(tt.op), got, tt.args)
		}
	}
}

func TestConstantFlagsAreDistinct(t *testing.T) {
	flags := map[byte]bool{
		CONST_INT_FLAG:    true,
		CONST_FLOAT_FLAG:  true,
		CONST_STRING_FLAG: true,
		CONST_END_FLAG:    true,
	}
	if len(flags) != 4 {
		t.Error("constant flags must be distinct")
	}
}
