// Package symbols holds the identifiers that survive across module
// boundaries: module aliases and the fully qualified names of types and
// functions. Both symbol kinds are plain strings underneath so they compare
// structurally and sort lexicographically.
package symbols

import (
	"fmt"
	"strings"

	"frisbee/types"
)

// ModuleAlias is the identity key of a module: the dotted import path
// (`sub.mod` for `from sub.mod import …`).
type ModuleAlias string

// NewAlias joins the components of an import path into an alias.
func NewAlias(path ...string) ModuleAlias {
	for _, subpath := range path {
		if strings.Contains(subpath, ".") {
			panic("parsing went wrong leading to dot in module alias subpath")
		}
	}
	return ModuleAlias(strings.Join(path, "."))
}

// Path splits the alias back into its components.
func (a ModuleAlias) Path() []string {
	return strings.Split(string(a), ".")
}

func (a ModuleAlias) String() string {
	return string(a)
}

// SymbolType is a fully qualified type name: "<module>::<Typename>".
type SymbolType string

// SymbolFunc is a fully qualified function name: "<module>::<fn>",
// "<module>::<Type>::<method>" or "std::…".
type SymbolFunc string

// NewType builds the qualified symbol of a type declared in a module.
func NewType(alias ModuleAlias, name string) SymbolType {
	return SymbolType(fmt.Sprintf("%s::%s", alias, name))
}

// NewFunc builds the qualified symbol of a free function declared in a module.
func NewFunc(alias ModuleAlias, name string) SymbolFunc {
	return SymbolFunc(fmt.Sprintf("%s::%s", alias, name))
}

// NewStdFunc builds the symbol of a standard-library function.
func NewStdFunc(name string) SymbolFunc {
	return SymbolFunc("std::" + name)
}

// NewStdMethod builds the symbol of a standard-library method on a primitive
// or list type. Panics for types that have no std methods.
func NewStdMethod(t types.Type, name string) SymbolFunc {
	switch t.Kind {
	case types.KindInt:
		return SymbolFunc("std::Int::" + name)
	case types.KindFloat:
		return SymbolFunc("std::Float::" + name)
	case types.KindBool:
		return SymbolFunc("std::Bool::" + name)
	case types.KindString:
		return SymbolFunc("std::String::" + name)
	case types.KindList:
		return SymbolFunc("std::List::" + name)
	}
	panic(fmt.Sprintf("cant create std method %s for %s type", name, t))
}

// Method builds the qualified symbol of a method on this type. The
// constructor is the method named after the type's short name.
func (t SymbolType) Method(method string) SymbolFunc {
	return SymbolFunc(fmt.Sprintf("%s::%s", t, method))
}

// Constructor returns the symbol of this type's constructor.
func (t SymbolType) Constructor() SymbolFunc {
	return t.Method(t.ShortName())
}

// ShortName returns the type name without the module qualifier.
func (t SymbolType) ShortName() string {
	parts := strings.Split(string(t), "::")
	return parts[len(parts)-1]
}

func (t SymbolType) String() string {
	return string(t)
}

// IsStd reports whether the function is a standard-library symbol.
func (f SymbolFunc) IsStd() bool {
	return strings.HasPrefix(string(f), "std::")
}

func (f SymbolFunc) String() string {
	return string(f)
}
