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

import "github.com/dana-lang/dana/pkg/types"

// TypeRegistry holds every registered struct/agent/resource descriptor,
// independent of category — struct, agent, and resource names share one
// namespace so a resource can never collide with a struct of the same
// name.
type TypeRegistry struct {
	base *BaseRegistry[*types.TypeDescriptor]
}

// NewTypeRegistry creates an empty type registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{base: NewBaseRegistry[*types.TypeDescriptor]()}
}

// Register adds t, treating re-registration of an identical definition as
// a no-op and rejecting a conflicting redefinition.
func (r *TypeRegistry) Register(t *types.TypeDescriptor) error {
	return r.base.RegisterIdempotent(t.Name, t, func(existing, next *types.TypeDescriptor) bool {
		return existing.SameShape(next)
	})
}

// Get looks up a type descriptor by name.
func (r *TypeRegistry) Get(name string) (*types.TypeDescriptor, bool) { return r.base.Get(name) }

// List returns every registered type descriptor.
func (r *TypeRegistry) List() []*types.TypeDescriptor { return r.base.List() }

// Count returns the number of registered types.
func (r *TypeRegistry) Count() int { return r.base.Count() }
