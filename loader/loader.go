// Package loader resolves module aliases to source text and drives the
// transitive load: scan and parse the main module, then every module its
// imports mention, until the queue empties.
package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"frisbee/ast"
	"frisbee/parser"
	"frisbee/scanner"
	"frisbee/symbols"
)

// ModuleLoader resolves a module alias to its source text. Implementations
// decide where modules live (filesystem, memory, …).
type ModuleLoader interface {
	LoadModule(alias symbols.ModuleAlias) (string, error)
}

// FileSystemLoader resolves aliases below a working directory: alias
// `sub.mod` maps to `<workdir>/sub/mod.frisbee`.
type FileSystemLoader struct {
	Workdir string
}

func (l FileSystemLoader) LoadModule(alias symbols.ModuleAlias) (string, error) {
	parts := append([]string{l.Workdir}, alias.Path()...)
	path := filepath.Join(parts...) + ".frisbee"
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// MapLoader serves modules from an in-memory map, keyed by alias. Used by
// tests and by callers that already hold the sources.
type MapLoader map[string]string

func (l MapLoader) LoadModule(alias symbols.ModuleAlias) (string, error) {
	source, ok := l[string(alias)]
	if !ok {
		return "", fmt.Errorf("module %s not found", alias)
	}
	return source, nil
}

// Module is one loaded and parsed module.
type Module struct {
	Alias    symbols.ModuleAlias
	Contents string
	Ast      ast.FileAst
}

// WholeProgram is the set of all transitively loaded modules plus the main
// module alias.
type WholeProgram struct {
	MainModule symbols.ModuleAlias
	Modules    map[symbols.ModuleAlias]*Module
}

// LoadError wraps a failure in any stage of loading a single module,
// together with the already-loaded source so the caller can render an
// error window.
type LoadError struct {
	Module symbols.ModuleAlias
	Source string
	Err    error
}

func (e LoadError) Error() string {
	return fmt.Sprintf("in module %s: %v", e.Module, e.Err)
}

// EntryPathToLoaderAndMainModule splits a `path/to/main.frisbee` entry path
// into a filesystem loader rooted at its directory and the main module
// alias.
func EntryPathToLoaderAndMainModule(entryPath string) (FileSystemLoader, symbols.ModuleAlias, error) {
	if filepath.Ext(entryPath) != ".frisbee" {
		return FileSystemLoader{}, "", fmt.Errorf("only *.frisbee files are allowed, got %s", entryPath)
	}
	workdir := filepath.Dir(entryPath)
	stem := filepath.Base(entryPath)
	stem = stem[:len(stem)-len(".frisbee")]
	return FileSystemLoader{Workdir: workdir}, symbols.NewAlias(stem), nil
}

func parseContents(contents string) (ast.FileAst, error) {
	tokens, err := scanner.New(contents).Scan()
	if err != nil {
		return ast.FileAst{}, err
	}
	return parser.Make(tokens).ParseTopLevel()
}

// LoadProgram loads the main module and, transitively, every imported
// module. Scan and parse failures abort the load and come back as a
// LoadError carrying the offending module alias and its source.
func LoadProgram(loader ModuleLoader, mainModule symbols.ModuleAlias) (*WholeProgram, error) {
	wp := &WholeProgram{
		MainModule: mainModule,
		Modules:    map[symbols.ModuleAlias]*Module{},
	}

	queue := []symbols.ModuleAlias{mainModule}
	for len(queue) > 0 {
		alias := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if _, loaded := wp.Modules[alias]; loaded {
			continue
		}

		contents, err := loader.LoadModule(alias)
		if err != nil {
			return nil, LoadError{Module: alias, Err: err}
		}

		fileAst, err := parseContents(contents)
		if err != nil {
			return nil, LoadError{Module: alias, Source: contents, Err: err}
		}

		for _, imp := range fileAst.Imports {
			imported := symbols.NewAlias(imp.ModulePath...)
			if imported == alias {
				return nil, LoadError{
					Module: alias,
					Source: contents,
					Err:    fmt.Errorf("module %s is importing itself", alias),
				}
			}
			queue = append(queue, imported)
		}

		wp.Modules[alias] = &Module{Alias: alias, Contents: contents, Ast: fileAst}
	}
	return wp, nil
}
