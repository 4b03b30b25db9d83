package semantics

import (
	"fmt"
	"sort"

	"frisbee/ast"
	"frisbee/loader"
	"frisbee/symbols"
	"frisbee/types"
)

// ProgramAggregate is the flattened, fully qualified program: every class
// and function of every module plus the entry symbol. TypeOrder preserves
// type insertion order for stable metadata layout downstream.
type ProgramAggregate struct {
	Types     map[symbols.SymbolType]*CustomType
	TypeOrder []symbols.SymbolType
	Functions map[symbols.SymbolFunc]*RawFunction
	Entry     symbols.SymbolFunc
}

// Type returns the definition of a verified custom type; the verifier
// guarantees presence for every SymbolType it produces.
func (a *ProgramAggregate) Type(name symbols.SymbolType) *CustomType {
	return a.Types[name]
}

// AddDefaultConstructors augments every class lacking an explicit
// constructor with the default one: its parameters mirror the fields in
// declaration order and its body assigns every field from the same-named
// parameter.
func AddDefaultConstructors(wp *loader.WholeProgram) {
	for _, module := range wp.Modules {
		for i := range module.Ast.Types {
			addDefaultConstructor(&module.Ast.Types[i])
		}
	}
}

func addDefaultConstructor(class *ast.ClassDecl) {
	for _, method := range class.Methods {
		if method.Name == class.Name {
			return
		}
	}

	statements := make([]ast.Statement, 0, len(class.Fields))
	for _, field := range class.Fields {
		statements = append(statements, ast.Assign{
			StmtAt: ast.StmtAt{At: class.At},
			Left:   ast.OwnFieldAccess{Field: field.Name},
			Right:  ast.Identifier{Name: field.Name},
		})
	}
	rettype := types.CustomOf(class.Name)
	constructor := ast.FunctionDecl{
		At:         class.At,
		ReturnType: &rettype,
		Name:       class.Name,
		Args:       append([]ast.TypedName{}, class.Fields...),
		Statements: statements,
	}
	class.Methods = append(class.Methods, constructor)
}

// sortedAliases gives a deterministic module walk order.
func sortedAliases(wp *loader.WholeProgram) []symbols.ModuleAlias {
	aliases := make([]symbols.ModuleAlias, 0, len(wp.Modules))
	for alias := range wp.Modules {
		aliases = append(aliases, alias)
	}
	sort.Slice(aliases, func(i, j int) bool { return aliases[i] < aliases[j] })
	return aliases
}

func verifyTypedNames(
	items []ast.TypedName,
	resolver func(string) (symbols.SymbolType, error),
) (TypedFields, error) {
	fields := TypedFields{}
	mapper := func(name string) (string, error) {
		qualified, err := resolver(name)
		return string(qualified), err
	}
	for _, item := range items {
		if _, _, dup := fields.Get(item.Name); dup {
			return fields, fmt.Errorf("name `%s` is used more than once", item.Name)
		}
		verified, err := types.VerifyParsed(item.Type, mapper)
		if err != nil {
			return fields, err
		}
		fields.Add(item.Name, verified)
	}
	return fields, nil
}

// CreateBasicAggregate builds the aggregate skeleton containing only the
// verified types of every module.
func CreateBasicAggregate(wp *loader.WholeProgram, resolver *NameResolver) (*ProgramAggregate, error) {
	aggregate := &ProgramAggregate{
		Types:     map[symbols.SymbolType]*CustomType{},
		Functions: map[symbols.SymbolFunc]*RawFunction{},
		Entry:     symbols.NewFunc(wp.MainModule, "main"),
	}

	for _, alias := range sortedAliases(wp) {
		module := wp.Modules[alias]
		typeResolver := resolver.TypenamesResolver(alias)

		for _, class := range module.Ast.Types {
			fullName := symbols.NewType(alias, class.Name)
			fields, err := verifyTypedNames(class.Fields, typeResolver)
			if err != nil {
				return nil, ErrorWithModule{Module: alias, Err: Error{Message: err.Error(), At: class.At}}
			}
			aggregate.Types[fullName] = &CustomType{
				Name:     fullName,
				IsActive: class.IsActive,
				Fields:   fields,
			}
			aggregate.TypeOrder = append(aggregate.TypeOrder, fullName)
		}
	}
	return aggregate, nil
}

// FillAggregateWithFuncs registers every method and free function of every
// module into the aggregate and returns the mapping back to the parsed
// declarations, which the statement verifier consumes.
//
// Methods get the implicit `this` argument prepended unless they are
// constructors or belong to an active class; active objects are reached
// through the worker that runs them, not through an argument.
func FillAggregateWithFuncs(
	wp *loader.WholeProgram,
	aggregate *ProgramAggregate,
	resolver *NameResolver,
) (map[symbols.SymbolFunc]*ast.FunctionDecl, error) {
	parsedDecls := map[symbols.SymbolFunc]*ast.FunctionDecl{}

	for _, alias := range sortedAliases(wp) {
		module := wp.Modules[alias]
		typeResolver := resolver.TypenamesResolver(alias)

		returnType := func(t *types.Type) (types.Type, error) {
			if t == nil {
				return types.Void(), nil
			}
			mapper := func(name string) (string, error) {
				qualified, err := typeResolver(name)
				return string(qualified), err
			}
			return types.VerifyParsed(*t, mapper)
		}

		for ti := range module.Ast.Types {
			class := &module.Ast.Types[ti]
			typeFullName := symbols.NewType(alias, class.Name)

			for mi := range class.Methods {
				method := &class.Methods[mi]
				methodFullName := typeFullName.Method(method.Name)
				if _, defined := aggregate.Functions[methodFullName]; defined {
					return nil, ErrorWithModule{Module: alias, Err: Error{
						Message: fmt.Sprintf("method %s defined twice in %s", method.Name, class.Name),
						At:      method.At,
					}}
				}

				rettype, err := returnType(method.ReturnType)
				if err != nil {
					return nil, ErrorWithModule{Module: alias, Err: Error{Message: err.Error(), At: method.At}}
				}
				args, err := verifyTypedNames(method.Args, typeResolver)
				if err != nil {
					return nil, ErrorWithModule{Module: alias, Err: Error{Message: err.Error(), At: method.At}}
				}

				isConstructor := method.Name == class.Name
				if !isConstructor && !class.IsActive {
					args.Prepend("this", types.CustomOf(string(typeFullName)))
				}

				aggregate.Functions[methodFullName] = &RawFunction{
					Name:          methodFullName,
					ReturnType:    rettype,
					Args:          args,
					ShortName:     method.Name,
					MethodOf:      typeFullName,
					IsConstructor: isConstructor,
					DefinedAt:     alias,
				}
				parsedDecls[methodFullName] = method
			}
		}

		for fi := range module.Ast.Functions {
			function := &module.Ast.Functions[fi]
			fullName := symbols.NewFunc(alias, function.Name)

			rettype, err := returnType(function.ReturnType)
			if err != nil {
				return nil, ErrorWithModule{Module: alias, Err: Error{Message: err.Error(), At: function.At}}
			}
			args, err := verifyTypedNames(function.Args, typeResolver)
			if err != nil {
				return nil, ErrorWithModule{Module: alias, Err: Error{Message: err.Error(), At: function.At}}
			}

			// No redefinition check here: the resolver already did one.
			aggregate.Functions[fullName] = &RawFunction{
				Name:       fullName,
				ReturnType: rettype,
				Args:       args,
				ShortName:  function.Name,
				DefinedAt:  alias,
			}
			parsedDecls[fullName] = function
		}
	}

	entry, defined := aggregate.Functions[aggregate.Entry]
	if !defined {
		return nil, ErrorWithModule{Module: wp.MainModule, Err: Error{
			Message: fmt.Sprintf("main function is not defined in module %s", wp.MainModule),
		}}
	}
	if !entry.ReturnType.IsVoid() {
		return nil, ErrorWithModule{Module: wp.MainModule, Err: Error{
			Message: "main function must return void",
		}}
	}

	return parsedDecls, nil
}
