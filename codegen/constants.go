package codegen

import (
	"encoding/binary"
	"math"

	"frisbee/opcode"
)

// ConstantKind tags a pooled constant.
type ConstantKind int

const (
	ConstInt ConstantKind = iota
	ConstFloat
	ConstString
)

// Constant is one entry of the constants pool.
type Constant struct {
	Kind  ConstantKind
	Int   int64
	Float float64
	Str   string
}

func IntConstant(i int64) Constant      { return Constant{Kind: ConstInt, Int: i} }
func FloatConstant(f float64) Constant  { return Constant{Kind: ConstFloat, Float: f} }
func StringConstant(s string) Constant  { return Constant{Kind: ConstString, Str: s} }

// ConstantsTable deduplicates constants by structural equality and hands
// out their pool indexes.
type ConstantsTable struct {
	constants []Constant
}

func NewConstantsTable() *ConstantsTable {
	return &ConstantsTable{}
}

// GetIndex returns the pool index of the constant, adding it on first use.
func (t *ConstantsTable) GetIndex(c Constant) byte {
	for i, existing := range t.constants {
		if existing == c {
			return byte(i)
		}
	}
	t.constants = append(t.constants, c)
	return byte(len(t.constants) - 1)
}

// Serialize emits the tagged constant stream: one flag byte per constant,
// then the payload (8 big-endian bytes for numbers; a 2-byte length plus
// raw bytes for strings), closed by the end flag.
func (t *ConstantsTable) Serialize() []byte {
	var res []byte
	for _, c := range t.constants {
		switch c.Kind {
		case ConstInt:
			res = append(res, opcode.CONST_INT_FLAG)
			res = binary.BigEndian.AppendUint64(res, uint64(c.Int))
		case ConstFloat:
			res = append(res, opcode.CONST_FLOAT_FLAG)
			res = binary.BigEndian.AppendUint64(res, math.Float64bits(c.Float))
		case ConstString:
			res = append(res, opcode.CONST_STRING_FLAG)
			res = binary.BigEndian.AppendUint16(res, uint16(len(c.Str)))
			res = append(res, []byte(c.Str)...)
		}
	}
	res = append(res, opcode.CONST_END_FLAG)
	return res
}
