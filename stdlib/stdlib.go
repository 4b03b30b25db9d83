// Package stdlib declares the fixed standard library surface: free
// functions, per-type methods, and the index every std symbol gets in the
// VM's native runner table. The semantic verifier uses the signatures, the
// bytecode generator uses the indexes, and the VM registers its runners
// against the same sorted name list so the two stay aligned.
package stdlib

import (
	"sort"

	"frisbee/symbols"
	"frisbee/types"
)

// Signature is the argument list and return type of a std function or
// method. For methods, the receiver is not part of Args.
type Signature struct {
	Args []types.Type
	Ret  types.Type
}

// FunctionSignature looks up a std free function by its short name.
func FunctionSignature(name string) (Signature, bool) {
	switch name {
	case "print", "println":
		return Signature{Args: []types.Type{types.String}, Ret: types.Void()}, true
	case "range":
		return Signature{Args: []types.Type{types.Int, types.Int}, Ret: types.ListOf(types.Int)}, true
	case "get_input":
		return Signature{Args: nil, Ret: types.String}, true
	}
	return Signature{}, false
}

// IsFunction reports whether name is a std free function. Imported names
// must not collide with these.
func IsFunction(name string) bool {
	_, ok := FunctionSignature(name)
	return ok
}

// MethodSignature looks up a std method on a primitive or list receiver.
func MethodSignature(receiver types.Type, name string) (Signature, bool) {
	switch receiver.Kind {
	case types.KindBool:
		if name == "to_string" {
			return Signature{Ret: types.String}, true
		}
	case types.KindInt:
		switch name {
		case "to_float":
			return Signature{Ret: types.Float}, true
		case "to_string":
			return Signature{Ret: types.String}, true
		case "abs":
			return Signature{Ret: types.Int}, true
		}
	case types.KindFloat:
		switch name {
		case "to_string":
			return Signature{Ret: types.String}, true
		case "abs":
			return Signature{Ret: types.Float}, true
		case "ceil", "floor", "round":
			return Signature{Ret: types.Int}, true
		}
	case types.KindString:
		switch name {
		case "len":
			return Signature{Ret: types.Int}, true
		case "is_empty":
			return Signature{Ret: types.Bool}, true
		case "find":
			return Signature{Args: []types.Type{types.String}, Ret: types.MaybeOf(types.Int)}, true
		case "contains":
			return Signature{Args: []types.Type{types.String}, Ret: types.Bool}, true
		}
	case types.KindList:
		switch name {
		case "push":
			return Signature{Args: []types.Type{*receiver.Inner}, Ret: types.Void()}, true
		case "pop":
			return Signature{Ret: *receiver.Inner}, true
		case "len":
			return Signature{Ret: types.Int}, true
		case "is_empty":
			return Signature{Ret: types.Bool}, true
		}
	}
	return Signature{}, false
}

// ListOfIntsKind is the canonical list-kind index of `[Int]`: the list
// metadata table always starts with it so `std::range` can allocate its
// result without a lookup.
const ListOfIntsKind = 0

// symbolNames is the unsorted list of every std symbol.
var symbolNames = []string{
	"std::print",
	"std::println",
	"std::range",
	"std::get_input",
	"std::Bool::to_string",
	"std::Int::to_float",
	"std::Int::to_string",
	"std::Int::abs",
	"std::Float::to_string",
	"std::Float::abs",
	"std::Float::ceil",
	"std::Float::floor",
	"std::Float::round",
	"std::String::len",
	"std::String::is_empty",
	"std::String::find",
	"std::String::contains",
	"std::List::push",
	"std::List::pop",
	"std::List::len",
	"std::List::is_empty",

	// not user-callable: backs the `+` operator on lists
	"std::List::concat",
}

var sortedNames []string

func init() {
	sortedNames = append(sortedNames, symbolNames...)
	sort.Strings(sortedNames)
}

// Names returns every std symbol name in the canonical (sorted) order used
// to index the native runner table.
func Names() []string {
	return sortedNames
}

// Index returns the runner-table index of a std symbol.
func Index(symbol symbols.SymbolFunc) (int, bool) {
	i := sort.SearchStrings(sortedNames, string(symbol))
	if i < len(sortedNames) && sortedNames[i] == string(symbol) {
		return i, true
	}
	return 0, false
}
