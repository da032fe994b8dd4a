// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package module implements DANA's import resolution: a search path of
// source directories, load-once caching, cycle detection, and the
// private/public namespace split every loaded module gets.
package module

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dana-lang/dana/pkg/ast"
	"github.com/dana-lang/dana/pkg/errs"
	"github.com/dana-lang/dana/pkg/parser"
)

// Status is a Module's place in the loader's lifecycle.
type Status int

const (
	StatusLoading Status = iota
	StatusLoaded
	StatusFailed
)

// Module is one imported `.na` source file's resolved state: its parsed
// program plus the two namespaces the interpreter populates while
// executing it at module scope.
type Module struct {
	Name    string
	Path    string
	Program *ast.Program
	Status  Status

	// Private holds every module-scope binding; Public holds the subset
	// re-exported under the module's `public` namespace. The interpreter
	// fills both while executing Program at load time; the loader itself
	// never inspects bindings, only caches and wires the Module value.
	Private map[string]any
	Public  map[string]any
}

// Executor runs a freshly parsed module's top-level statements, populating
// its Private/Public namespaces. The loader is built without a dependency
// on pkg/interpreter; the interpreter supplies this callback when it
// constructs a Loader, closing the dependency cycle at wiring time instead
// of at import time.
type Executor func(mod *Module) error

// Loader resolves import names against SearchPaths, loading each distinct
// module at most once. Concurrent imports of the same name are
// serialized; nothing is reloaded once cached, matching the write-once
// contract a running program expects from its own imports.
type Loader struct {
	SearchPaths []string
	Execute     Executor

	mu       sync.Mutex
	cache    map[string]*Module
	chain    []string // names currently being loaded, in order, for cycle reporting
	chainSet map[string]bool
}

// NewLoader constructs a Loader over searchPaths. Execute may be set
// afterward (the interpreter does so once it exists); Load errors if
// called with Execute still nil.
func NewLoader(searchPaths []string) *Loader {
	return &Loader{
		SearchPaths: searchPaths,
		cache:       make(map[string]*Module),
		chainSet:    make(map[string]bool),
	}
}

// Load resolves name to a source file, parses and executes it exactly
// once, and returns the cached Module on every subsequent call. A cycle
// (name already on the in-progress import chain) is reported with the
// full chain from the outermost import down to name.
func (l *Loader) Load(name string) (*Module, error) {
	l.mu.Lock()

	if mod, ok := l.cache[name]; ok {
		l.mu.Unlock()
		if mod.Status == StatusFailed {
			return nil, errs.New(errs.KindName, "ImportError", fmt.Sprintf("module %q previously failed to load", name), ast.Location{})
		}
		return mod, nil
	}

	if l.chainSet[name] {
		chain := append(append([]string{}, l.chain...), name)
		l.mu.Unlock()
		return nil, errs.New(errs.KindName, "ImportError",
			fmt.Sprintf("import cycle detected: %s", strings.Join(chain, " -> ")), ast.Location{})
	}

	l.chain = append(l.chain, name)
	l.chainSet[name] = true
	l.mu.Unlock()

	mod, err := l.loadOnce(name)

	l.mu.Lock()
	l.chain = l.chain[:len(l.chain)-1]
	delete(l.chainSet, name)
	if mod != nil {
		l.cache[name] = mod
	}
	l.mu.Unlock()

	return mod, err
}

func (l *Loader) loadOnce(name string) (*Module, error) {
	path, err := l.resolve(name)
	if err != nil {
		return &Module{Name: name, Status: StatusFailed}, err
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return &Module{Name: name, Path: path, Status: StatusFailed},
			errs.Wrap(errs.KindName, "ImportError", fmt.Sprintf("reading module %q: %v", name, err), ast.Location{}, err)
	}

	result := parser.Parse(string(src))
	if !result.IsValid() {
		return &Module{Name: name, Path: path, Status: StatusFailed},
			errs.New(errs.KindSyntax, "SyntaxError", fmt.Sprintf("module %q failed to parse: %s", name, result.Errors[0].Message), ast.Location{})
	}

	mod := &Module{
		Name:    name,
		Path:    path,
		Program: result.Program,
		Status:  StatusLoading,
		Private: make(map[string]any),
		Public:  make(map[string]any),
	}

	if l.Execute == nil {
		return &Module{Name: name, Path: path, Status: StatusFailed},
			fmt.Errorf("module loader has no Executor wired; cannot run module %q", name)
	}
	if err := l.Execute(mod); err != nil {
		mod.Status = StatusFailed
		return mod, err
	}

	mod.Status = StatusLoaded
	return mod, nil
}

// resolve turns an import name (dotted or slash-separated) into a `.na`
// file under one of the loader's search paths.
func (l *Loader) resolve(name string) (string, error) {
	rel := strings.ReplaceAll(name, ".", string(filepath.Separator)) + ".na"
	for _, dir := range l.SearchPaths {
		candidate := filepath.Join(dir, rel)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("module %q not found in search path %v", name, l.SearchPaths)
}

// Loaded returns the cached module for name without attempting to load
// it, for diagnostics (e.g. a REPL `:modules` command).
func (l *Loader) Loaded(name string) (*Module, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	mod, ok := l.cache[name]
	return mod, ok
}

// Clear drops every cached module. Tests use this to get a clean loader
// between cases without reconstructing SearchPaths/Execute.
func (l *Loader) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]*Module)
	l.chain = nil
	l.chainSet = make(map[string]bool)
}
