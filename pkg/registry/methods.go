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

import "github.com/dana-lang/dana/pkg/ast"

func methodKey(typeName, methodName string) string { return typeName + "." + methodName }

// MethodRegistry keys methods by (type_name, method_name), separate from
// FunctionRegistry since method dispatch never consults module namespaces.
type MethodRegistry struct {
	base *BaseRegistry[*ast.FunctionDefinition]
}

// NewMethodRegistry creates an empty method registry.
func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{base: NewBaseRegistry[*ast.FunctionDefinition]()}
}

// Register adds a method, replacing any prior registration for the same
// (type, method) pair — redefining a method in a later struct/agent body
// is expected, not an error.
func (r *MethodRegistry) Register(typeName, methodName string, fn *ast.FunctionDefinition) {
	_ = r.base.RegisterOverwrite(methodKey(typeName, methodName), fn)
}

// Get looks up a method defined directly on typeName (no parent walk —
// that is TypeDescriptor.Method's job, for user-defined methods only;
// built-in agent method slots are dispatched by the interpreter).
func (r *MethodRegistry) Get(typeName, methodName string) (*ast.FunctionDefinition, bool) {
	return r.base.Get(methodKey(typeName, methodName))
}
