// Package codegen lowers the verified aggregate into the final bytecode
// image: a constants pool, metadata blocks for types, list kinds and
// functions, and one instruction stream per function, assembled with the
// call fixup pass.
package codegen

import (
	"fmt"

	"frisbee/types"
)

// TypeSize is the byte-size of a type expressed in machine words: every
// scalar and reference takes one word, tuples take the sum of their
// components, and a maybe adds the flag word in front of its payload.
func TypeSize(t types.Type) int {
	switch t.Kind {
	case types.KindTuple:
		size := 0
		for _, item := range t.Items {
			size += TypeSize(item)
		}
		return size
	case types.KindMaybe:
		return 1 + TypeSize(*t.Inner)
	default:
		return 1
	}
}

// TypeFromTuple resolves component i of a tuple-like type. For a maybe,
// index 0 is the Bool flag and index 1 the payload.
func TypeFromTuple(t types.Type, i int) types.Type {
	switch t.Kind {
	case types.KindTuple:
		return t.Items[i]
	case types.KindMaybe:
		switch i {
		case 0:
			return types.Bool
		case 1:
			return *t.Inner
		}
		panic(fmt.Sprintf("accessing maybe with wrong index %d, semantics failed", i))
	}
	panic("tuple access on non-tuple type, semantics failed")
}

// TupleOffset computes the word offset of the component selected by the
// index path: the sum of the sizes of all preceding components. The maybe
// flag sits at offset 0, the payload at offset 1.
func TupleOffset(t types.Type, indexes []int) int {
	if len(indexes) == 0 {
		return 0
	}
	current := indexes[0]

	switch t.Kind {
	case types.KindTuple:
		offset := 0
		for i := 0; i < current; i++ {
			offset += TypeSize(t.Items[i])
		}
		return offset + TupleOffset(t.Items[current], indexes[1:])
	case types.KindMaybe:
		switch current {
		case 0:
			if len(indexes) != 1 {
				panic("accessing inners of the maybe flag")
			}
			return 0
		case 1:
			return 1 + TupleOffset(*t.Inner, indexes[1:])
		}
		panic(fmt.Sprintf("maybe indexes must be 0 or 1, but got %d", current))
	}
	return 0
}

// TupleSubitemSize is the size of the component the index path selects.
func TupleSubitemSize(t types.Type, indexes []int) int {
	if len(indexes) == 0 {
		return TypeSize(t)
	}
	return TupleSubitemSize(TypeFromTuple(t, indexes[0]), indexes[1:])
}

// isPointerWord reports whether a value of this type is a heap reference.
// Active custom types are registry indexes, passed by identity, so they are
// not pointers.
func isPointerWord(t types.Type, isActive func(name string) bool) bool {
	switch t.Kind {
	case types.KindString, types.KindList:
		return true
	case types.KindCustom:
		return !isActive(t.Name)
	}
	return false
}

// PointersMapForType lists the word offsets within a value of this type
// that hold heap references.
func PointersMapForType(t types.Type, isActive func(name string) bool) []int {
	return pointersAt(t, isActive, 0)
}

// PointersMapForSequence lists heap-reference offsets within a contiguous
// sequence of typed values (object fields, function arguments).
func PointersMapForSequence(sequence []types.Type, isActive func(name string) bool) []int {
	var pointers []int
	offset := 0
	for _, t := range sequence {
		pointers = append(pointers, pointersAt(t, isActive, offset)...)
		offset += TypeSize(t)
	}
	return pointers
}

func pointersAt(t types.Type, isActive func(name string) bool, base int) []int {
	switch t.Kind {
	case types.KindTuple:
		var pointers []int
		offset := base
		for _, item := range t.Items {
			pointers = append(pointers, pointersAt(item, isActive, offset)...)
			offset += TypeSize(item)
		}
		return pointers
	case types.KindMaybe:
		return pointersAt(*t.Inner, isActive, base+1)
	default:
		if isPointerWord(t, isActive) {
			return []int{base}
		}
		return nil
	}
}
