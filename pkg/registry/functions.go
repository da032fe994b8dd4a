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

package registry

import "fmt"

// Namespace is one of the function registry's five buckets.
type Namespace string

const (
	NamespaceLocal   Namespace = "local"
	NamespacePrivate Namespace = "private"
	NamespacePublic  Namespace = "public"
	NamespaceSystem  Namespace = "system"
	NamespaceCore    Namespace = "core"
)

// FunctionKind distinguishes a DANA-defined function from a host-native one.
type FunctionKind string

const (
	FunctionDana   FunctionKind = "dana"
	FunctionPython FunctionKind = "python"
)

// FunctionEntry is one registered callable plus its resolution metadata.
type FunctionEntry struct {
	Name              string
	Namespace         Namespace
	Kind              FunctionKind
	Callable          any // *ast.FunctionDefinition for dana, a Go func for python
	Overwrite         bool
	TrustedForContext bool // if true, receives the SandboxContext as its first argument
	Metadata          map[string]any
}

func funcKey(ns Namespace, name string) string { return string(ns) + ":" + name }

// FunctionRegistry is the two-level (namespace, name) index spec §4.6
// describes.
type FunctionRegistry struct {
	base *BaseRegistry[*FunctionEntry]
}

// NewFunctionRegistry creates an empty function registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{base: NewBaseRegistry[*FunctionEntry]()}
}

// Register adds entry, honoring its Overwrite flag: entries without it
// reject a collision the way struct registration does.
func (r *FunctionRegistry) Register(entry *FunctionEntry) error {
	key := funcKey(entry.Namespace, entry.Name)
	if entry.Overwrite {
		return r.base.RegisterOverwrite(key, entry)
	}
	if err := r.base.Register(key, entry); err != nil {
		return fmt.Errorf("function %s:%s: %w", entry.Namespace, entry.Name, err)
	}
	return nil
}

// Get looks up a function by its exact (namespace, name) pair.
func (r *FunctionRegistry) Get(ns Namespace, name string) (*FunctionEntry, bool) {
	return r.base.Get(funcKey(ns, name))
}

// Resolve implements unqualified-call precedence: private, then public,
// then core, then system. The private and public buckets are one set per
// registry, shared by every module loaded into it; they are not keyed by
// module, so Resolve does not tell one module's entries from another's.
func (r *FunctionRegistry) Resolve(name string) (*FunctionEntry, bool) {
	for _, ns := range []Namespace{NamespacePrivate, NamespacePublic, NamespaceCore, NamespaceSystem} {
		if e, ok := r.Get(ns, name); ok {
			return e, true
		}
	}
	return nil, false
}

// ResolveQualified resolves a `ns:f(...)` call, consulting only ns.
func (r *FunctionRegistry) ResolveQualified(ns Namespace, name string) (*FunctionEntry, bool) {
	return r.Get(ns, name)
}

// List returns every registered function entry.
func (r *FunctionRegistry) List() []*FunctionEntry { return r.base.List() }
