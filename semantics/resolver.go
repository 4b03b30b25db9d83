package semantics

import (
	"fmt"

	"frisbee/loader"
	"frisbee/stdlib"
	"frisbee/symbols"
)

// NameResolver holds, per module, the mapping from short names to fully
// qualified symbols: locally declared names plus imported ones.
type NameResolver struct {
	typenames map[symbols.ModuleAlias]map[string]symbols.SymbolType
	functions map[symbols.ModuleAlias]map[string]symbols.SymbolFunc
}

// origin is a (declaring module, short name) pair used while building the
// per-module mappings.
type origin struct {
	module symbols.ModuleAlias
	name   string
}

func typenameOrigins(module *loader.Module) []origin {
	var origins []origin
	for _, class := range module.Ast.Types {
		origins = append(origins, origin{module.Alias, class.Name})
	}
	for _, imp := range module.Ast.Imports {
		imported := symbols.NewAlias(imp.ModulePath...)
		for _, typename := range imp.Typenames {
			origins = append(origins, origin{imported, typename})
		}
	}
	return origins
}

func functionOrigins(module *loader.Module) []origin {
	var origins []origin
	for _, fn := range module.Ast.Functions {
		origins = append(origins, origin{module.Alias, fn.Name})
	}
	for _, imp := range module.Ast.Imports {
		imported := symbols.NewAlias(imp.ModulePath...)
		for _, funcname := range imp.Functions {
			origins = append(origins, origin{imported, funcname})
		}
	}
	return origins
}

// NewNameResolver builds and validates the resolver for a loaded program.
func NewNameResolver(wp *loader.WholeProgram) (*NameResolver, error) {
	resolver := &NameResolver{
		typenames: map[symbols.ModuleAlias]map[string]symbols.SymbolType{},
		functions: map[symbols.ModuleAlias]map[string]symbols.SymbolFunc{},
	}

	for alias, module := range wp.Modules {
		if err := checkModuleDoesNotImportItself(module); err != nil {
			return nil, err
		}

		typenames := map[string]symbols.SymbolType{}
		for _, o := range typenameOrigins(module) {
			if _, seen := typenames[o.name]; seen {
				return nil, ErrorWithModule{Module: alias, Err: Error{
					Message: fmt.Sprintf("%s is already introduced in this module", o.name),
				}}
			}
			typenames[o.name] = symbols.NewType(o.module, o.name)
		}

		functions := map[string]symbols.SymbolFunc{}
		for _, o := range functionOrigins(module) {
			if _, seen := functions[o.name]; seen {
				return nil, ErrorWithModule{Module: alias, Err: Error{
					Message: fmt.Sprintf("%s is already introduced in this module", o.name),
				}}
			}
			functions[o.name] = symbols.NewFunc(o.module, o.name)
		}

		resolver.typenames[alias] = typenames
		resolver.functions[alias] = functions
	}

	if err := resolver.validate(wp); err != nil {
		return nil, err
	}
	return resolver, nil
}

func checkModuleDoesNotImportItself(module *loader.Module) error {
	for _, imp := range module.Ast.Imports {
		if symbols.NewAlias(imp.ModulePath...) == module.Alias {
			return ErrorWithModule{Module: module.Alias, Err: Error{
				Message: fmt.Sprintf("module %s is importing itself", module.Alias),
				At:      imp.At,
			}}
		}
	}
	return nil
}

// validate checks that every imported symbol exists in its source module
// and that imported function names do not shadow the standard library.
func (r *NameResolver) validate(wp *loader.WholeProgram) error {
	for alias, module := range wp.Modules {
		for _, imp := range module.Ast.Imports {
			imported := symbols.NewAlias(imp.ModulePath...)

			for _, funcname := range imp.Functions {
				if stdlib.IsFunction(funcname) {
					return ErrorWithModule{Module: alias, Err: Error{
						Message: fmt.Sprintf("function %s is already defined in stdlib", funcname),
						At:      imp.At,
					}}
				}
				if _, ok := r.functions[imported][funcname]; !ok {
					return ErrorWithModule{Module: alias, Err: Error{
						Message: fmt.Sprintf("imported function %s is not defined in module %s", funcname, imported),
						At:      imp.At,
					}}
				}
			}
			for _, typename := range imp.Typenames {
				if _, ok := r.typenames[imported][typename]; !ok {
					return ErrorWithModule{Module: alias, Err: Error{
						Message: fmt.Sprintf("imported type %s is not defined in module %s", typename, imported),
						At:      imp.At,
					}}
				}
			}
		}
	}
	return nil
}

// TypenamesResolver returns the closure mapping a short type name to its
// qualified symbol within the given module.
func (r *NameResolver) TypenamesResolver(alias symbols.ModuleAlias) func(string) (symbols.SymbolType, error) {
	return func(name string) (symbols.SymbolType, error) {
		if typename, ok := r.typenames[alias][name]; ok {
			return typename, nil
		}
		return "", fmt.Errorf("type `%s` not found in module %s", name, alias)
	}
}

// FunctionsResolver returns the closure mapping a short function name to
// its qualified symbol within the given module.
func (r *NameResolver) FunctionsResolver(alias symbols.ModuleAlias) func(string) (symbols.SymbolFunc, error) {
	return func(name string) (symbols.SymbolFunc, error) {
		if function, ok := r.functions[alias][name]; ok {
			return function, nil
		}
		return "", fmt.Errorf("function `%s` not found in module %s", name, alias)
	}
}
