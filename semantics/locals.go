package semantics

import (
	"fmt"
	"strconv"

	"frisbee/types"
)

type localBinding struct {
	realName string
	varType  types.Type
}

// LocalVariables is the scoped symbol table of one function body. Entering
// a block opens a scope and leaving drops every name added in it. A name
// redeclared after its scope was dropped is uniquified by suffix, so every
// entry of the final locals list is distinct.
type LocalVariables struct {
	current map[string]localBinding
	used    map[string]int
	order   []LocalVar
	scopes  [][]string
}

// NewLocalVariables seeds the table with the function arguments; arguments
// occupy the head of the frame and are not part of the locals list.
func NewLocalVariables(args *TypedFields) *LocalVariables {
	locals := &LocalVariables{
		current: map[string]localBinding{},
		used:    map[string]int{},
		scopes:  [][]string{{}},
	}
	for i, name := range args.Names() {
		locals.current[name] = localBinding{realName: name, varType: args.Types()[i]}
		locals.used[name] = 1
	}
	return locals
}

// AddVariable declares a new local in the current scope and returns the
// (possibly uniquified) name it is stored under. Shadowing a visible name
// is rejected.
func (l *LocalVariables) AddVariable(name string, t types.Type) (string, error) {
	if _, visible := l.current[name]; visible {
		return "", fmt.Errorf("variable `%s` was already defined before", name)
	}

	realName := name
	if count := l.used[name]; count > 0 {
		realName = name + "@" + strconv.Itoa(count)
	}
	l.used[name]++

	l.current[name] = localBinding{realName: realName, varType: t}
	l.order = append(l.order, LocalVar{Name: realName, Type: t})
	top := len(l.scopes) - 1
	l.scopes[top] = append(l.scopes[top], name)
	return realName, nil
}

// GetVariable resolves a visible name to its type and storage name.
func (l *LocalVariables) GetVariable(name string) (types.Type, string, error) {
	binding, ok := l.current[name]
	if !ok {
		return types.Type{}, "", fmt.Errorf("variable `%s` not defined", name)
	}
	return binding.varType, binding.realName, nil
}

func (l *LocalVariables) StartScope() {
	l.scopes = append(l.scopes, nil)
}

func (l *LocalVariables) DropScope() {
	top := len(l.scopes) - 1
	for _, name := range l.scopes[top] {
		delete(l.current, name)
	}
	l.scopes = l.scopes[:top]
}

// AllLocals returns every local declared over the function body, in the
// order first declared, arguments excluded.
func (l *LocalVariables) AllLocals() []LocalVar {
	return l.order
}
