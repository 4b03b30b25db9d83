// Package types defines the type tree shared by every compilation stage.
// A Type is either one of the primitives, a List/Tuple/Maybe wrapper, or a
// Custom (user-defined) type identified by name. The parsed form holds the
// short name written in the source; after name resolution the name is the
// fully qualified "<module>::<Typename>" symbol.
package types

import (
	"strings"
)

type TypeKind int

const (
	KindInt TypeKind = iota
	KindFloat
	KindBool
	KindString
	KindList
	KindTuple
	KindMaybe
	KindCustom
)

// Type is a value type in a program. Inner is set for List and Maybe,
// Items for Tuple, Name for Custom.
type Type struct {
	Kind  TypeKind
	Inner *Type
	Items []Type
	Name  string
}

var (
	Int    = Type{Kind: KindInt}
	Float  = Type{Kind: KindFloat}
	Bool   = Type{Kind: KindBool}
	String = Type{Kind: KindString}
)

// Void is the empty tuple, used as the return type of `void` functions.
func Void() Type {
	return Type{Kind: KindTuple}
}

func ListOf(item Type) Type {
	inner := item
	return Type{Kind: KindList, Inner: &inner}
}

func TupleOf(items ...Type) Type {
	return Type{Kind: KindTuple, Items: items}
}

func MaybeOf(inner Type) Type {
	i := inner
	return Type{Kind: KindMaybe, Inner: &i}
}

func CustomOf(name string) Type {
	return Type{Kind: KindCustom, Name: name}
}

// IsVoid reports whether t is the empty tuple.
func (t Type) IsVoid() bool {
	return t.Kind == KindTuple && len(t.Items) == 0
}

// Equal reports structural equality of two types.
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindList, KindMaybe:
		return t.Inner.Equal(*other.Inner)
	case KindTuple:
		if len(t.Items) != len(other.Items) {
			return false
		}
		for i := range t.Items {
			if !t.Items[i].Equal(other.Items[i]) {
				return false
			}
		}
		return true
	case KindCustom:
		return t.Name == other.Name
	default:
		return true
	}
}

// String renders the type the way it is written in source: `[T]` for lists,
// `(T1, T2)` for tuples, `T?` for maybes.
func (t Type) String() string {
	switch t.Kind {
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindBool:
		return "Bool"
	case KindString:
		return "String"
	case KindList:
		return "[" + t.Inner.String() + "]"
	case KindTuple:
		items := make([]string, len(t.Items))
		for i, item := range t.Items {
			items[i] = item.String()
		}
		return "(" + strings.Join(items, ", ") + ")"
	case KindMaybe:
		return t.Inner.String() + "?"
	case KindCustom:
		return t.Name
	}
	return "<unknown>"
}

// Mapper resolves a short custom type name to its fully qualified symbol.
type Mapper func(name string) (string, error)

// VerifyParsed walks a parsed type and maps every Custom name through the
// given resolver, producing the verified form of the same type.
func VerifyParsed(t Type, mapper Mapper) (Type, error) {
	switch t.Kind {
	case KindList, KindMaybe:
		inner, err := VerifyParsed(*t.Inner, mapper)
		if err != nil {
			return Type{}, err
		}
		if t.Kind == KindList {
			return ListOf(inner), nil
		}
		return MaybeOf(inner), nil
	case KindTuple:
		items := make([]Type, len(t.Items))
		for i, item := range t.Items {
			verified, err := VerifyParsed(item, mapper)
			if err != nil {
				return Type{}, err
			}
			items[i] = verified
		}
		return Type{Kind: KindTuple, Items: items}, nil
	case KindCustom:
		qualified, err := mapper(t.Name)
		if err != nil {
			return Type{}, err
		}
		return CustomOf(qualified), nil
	default:
		return t, nil
	}
}
