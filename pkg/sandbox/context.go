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

// Package sandbox implements DANA's SandboxContext: the nested,
// scope-partitioned variable store the interpreter reads and writes
// through, plus the auto-scoping rules that resolve an unqualified name.
package sandbox

import (
	"strings"
	"sync"

	"github.com/dana-lang/dana/pkg/ast"
	"github.com/dana-lang/dana/pkg/errs"
)

// Scope is one of the four disjoint namespaces.
type Scope string

const (
	ScopeLocal   Scope = "local"
	ScopePrivate Scope = "private"
	ScopePublic  Scope = "public"
	ScopeSystem  Scope = "system"
)

var systemScope = struct {
	mu     sync.RWMutex
	values map[string]any
}{values: make(map[string]any)}

// Context is the evaluation state threaded through interpretation. Each
// function call frame gets its own Context with Parent pointing at the
// enclosing frame; private/public/system are shared with the owning
// module rather than copied per frame.
type Context struct {
	Parent *Context

	local   map[string]any
	private map[string]any // shared across the defining module's frames
	public  map[string]any // shared across the defining module's frames

	// moduleMu guards private/public: every frame of a module shares one
	// instance (like the maps themselves), since user calls run eagerly on
	// their own pool worker and two frames of the same module can read or
	// write these maps at the same time.
	moduleMu *sync.RWMutex

	// ModuleName identifies the module this context's private/public maps
	// belong to, used by the `public` write-access rule (only the
	// defining module may write its own public names).
	ModuleName string

	// InFunction is true for frames introduced by a function call, as
	// opposed to a module's top-level frame; it changes the default
	// unscoped-write target (local vs. private, rule §4.3.3).
	InFunction bool

	// PromiseDepth counts enclosing DANA function calls: 0 at module top
	// level, incremented once per NewFunctionFrame. Every DANA call goes
	// through the promise limiter, so this doubles as the nesting-depth
	// counter the limiter's MaxNestingDepth caps.
	PromiseDepth int

	resources map[string]any
	systemLLM any

	// activeException is the exception bound by the innermost enclosing
	// except handler, consulted by a bare `raise` (re-raise). It is not
	// inherited from Parent: a handler nested inside another handler's
	// body re-raises its own exception, not the outer one.
	activeException *errs.DanaException
}

// NewModuleContext creates the top-level context for a freshly loaded
// module.
func NewModuleContext(moduleName string) *Context {
	return NewModuleContextWithMaps(moduleName, make(map[string]any), make(map[string]any))
}

// NewModuleContextWithMaps creates a module's top-level context backed by
// the given private/public maps instead of fresh ones, so a caller
// holding those maps (the module loader, caching a Module's Private/
// Public fields) observes writes made while executing the module without
// a separate copy-back step.
func NewModuleContextWithMaps(moduleName string, private, public map[string]any) *Context {
	return &Context{
		local:      make(map[string]any),
		private:    private,
		public:     public,
		moduleMu:   &sync.RWMutex{},
		ModuleName: moduleName,
		resources:  make(map[string]any),
	}
}

// NewFunctionFrame creates a child frame for a function call, sharing the
// parent's private/public maps and module identity but starting with a
// fresh local frame.
func (c *Context) NewFunctionFrame() *Context {
	return &Context{
		Parent:       c,
		local:        make(map[string]any),
		private:      c.private,
		public:       c.public,
		moduleMu:     c.moduleMu,
		ModuleName:   c.ModuleName,
		InFunction:   true,
		PromiseDepth: c.PromiseDepth + 1,
		resources:    c.resources,
		systemLLM:    c.systemLLM,
	}
}

// SetSystemLLMResource records the process-wide system LLM resource
// reference, visible to every context via GetSystemLLMResource.
func (c *Context) SetSystemLLMResource(res any) { c.systemLLM = res }

// GetSystemLLMResource returns the system LLM resource, if one is configured.
func (c *Context) GetSystemLLMResource() any {
	if c.systemLLM != nil {
		return c.systemLLM
	}
	if c.Parent != nil {
		return c.Parent.GetSystemLLMResource()
	}
	return nil
}

// GetResources returns the context's attached resource handles.
func (c *Context) GetResources() map[string]any { return c.resources }

// AttachResource registers a named resource handle visible from this
// context and its descendants.
func (c *Context) AttachResource(name string, handle any) { c.resources[name] = handle }

// collapseLocal strips a redundant leading "local." prefix (auto-scoping
// rule 5).
func collapseLocal(path string) string {
	return strings.TrimPrefix(path, "local.")
}

// Resolve looks up name (scope, possibly empty, and dotted path) for a
// read, applying the auto-scoping rules:
//  1. an explicit scope prefix is used verbatim;
//  2. inside a function, unscoped names search local first, then the
//     owning module's private, public, and system scopes;
//  3. at module top level, unscoped reads default to local (which is
//     empty at top level unless something wrote to it, so this falls
//     through to private/public/system the same way).
func (c *Context) Resolve(scope, path string) (any, bool) {
	path = collapseLocal(path)
	if scope != "" {
		return c.get(Scope(scope), path)
	}
	if v, ok := c.lookupLocalChain(path); ok {
		return v, true
	}
	if v, ok := c.get(ScopePrivate, path); ok {
		return v, true
	}
	if v, ok := c.get(ScopePublic, path); ok {
		return v, true
	}
	return c.get(ScopeSystem, path)
}

func (c *Context) lookupLocalChain(path string) (any, bool) {
	for frame := c; frame != nil; frame = frame.Parent {
		if v, ok := frame.local[path]; ok {
			return v, true
		}
		if !frame.InFunction {
			break
		}
	}
	return nil, false
}

func (c *Context) get(scope Scope, path string) (any, bool) {
	switch scope {
	case ScopeLocal:
		return c.lookupLocalChain(path)
	case ScopePrivate:
		c.moduleMu.RLock()
		defer c.moduleMu.RUnlock()
		v, ok := c.private[path]
		return v, ok
	case ScopePublic:
		c.moduleMu.RLock()
		defer c.moduleMu.RUnlock()
		v, ok := c.public[path]
		return v, ok
	case ScopeSystem:
		systemScope.mu.RLock()
		defer systemScope.mu.RUnlock()
		v, ok := systemScope.values[path]
		return v, ok
	}
	return nil, false
}

// Assign writes value at the resolved scope path, applying rule 3 of
// auto-scoping for the default target: local inside a function body,
// private at module top level. Writing to system from user code is
// rejected by Assign; use SetSystem for the designated internal setters.
func (c *Context) Assign(scope, path string, value any, loc ast.Location) *errs.DanaException {
	path = collapseLocal(path)
	s := Scope(scope)
	if scope == "" {
		if c.InFunction {
			s = ScopeLocal
		} else {
			s = ScopePrivate
		}
	}
	switch s {
	case ScopeLocal:
		c.local[path] = value
	case ScopePrivate:
		c.moduleMu.Lock()
		c.private[path] = value
		c.moduleMu.Unlock()
	case ScopePublic:
		if !c.canWritePublic() {
			return errs.New(errs.KindName, "ScopeError", "cannot write to another module's public scope", loc)
		}
		c.moduleMu.Lock()
		c.public[path] = value
		c.moduleMu.Unlock()
	case ScopeSystem:
		return errs.ScopeViolation(path, loc)
	}
	return nil
}

// canWritePublic is always true today: public writes only ever originate
// from code executing within the module that owns this context. The hook
// exists so a future cross-module call path has a single place to add a
// module-identity check.
func (c *Context) canWritePublic() bool { return true }

// BindLocal writes name directly into this frame's local map, bypassing
// scope-resolution rules — used for an except handler's `as name` binding,
// which is always a plain local regardless of function/module position.
func (c *Context) BindLocal(name string, value any) { c.local[name] = value }

// UnbindLocal removes name from this frame's local map; an except
// handler calls this on exit so the bound exception name doesn't leak
// past the handler body.
func (c *Context) UnbindLocal(name string) { delete(c.local, name) }

// SetActiveException records the exception a bare `raise` re-raises
// while executing an except handler's body.
func (c *Context) SetActiveException(e *errs.DanaException) { c.activeException = e }

// ActiveException returns the exception a bare `raise` would re-raise, if any.
func (c *Context) ActiveException() (*errs.DanaException, bool) {
	return c.activeException, c.activeException != nil
}

// ClearActiveException resets the bare-raise target, called when an
// except handler body finishes.
func (c *Context) ClearActiveException() { c.activeException = nil }

// SetSystem is the designated internal setter for the system scope; it
// bypasses the user-facing write restriction Assign enforces.
func SetSystem(path string, value any) {
	systemScope.mu.Lock()
	defer systemScope.mu.Unlock()
	systemScope.values[path] = value
}

// ClearSystem resets the system scope; used for test isolation.
func ClearSystem() {
	systemScope.mu.Lock()
	defer systemScope.mu.Unlock()
	systemScope.values = make(map[string]any)
}
