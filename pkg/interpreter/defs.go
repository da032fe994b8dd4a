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

package interpreter

import (
	"fmt"

	"github.com/dana-lang/dana/pkg/ast"
	"github.com/dana-lang/dana/pkg/errs"
	"github.com/dana-lang/dana/pkg/registry"
	"github.com/dana-lang/dana/pkg/types"
)

func toFieldSpecs(fields []ast.Field) []types.FieldSpec {
	out := make([]types.FieldSpec, len(fields))
	for idx, f := range fields {
		out[idx] = types.FieldSpec{Name: f.Name, Type: f.Type, Default: f.Default, Comment: f.Comment}
	}
	return out
}

func toMethodMap(methods []ast.FunctionDefinition) map[string]*ast.FunctionDefinition {
	if len(methods) == 0 {
		return nil
	}
	out := make(map[string]*ast.FunctionDefinition, len(methods))
	for idx := range methods {
		out[methods[idx].Name] = &methods[idx]
	}
	return out
}

func (i *Interpreter) resolveParent(name string, loc ast.Location) (*types.TypeDescriptor, *errs.DanaException) {
	if name == "" {
		return nil, nil
	}
	parent, ok := i.Types.Get(name)
	if !ok {
		return nil, errs.New(errs.KindName, "NameError", fmt.Sprintf("undefined parent type %q", name), loc)
	}
	return parent, nil
}

func (i *Interpreter) defStruct(n *ast.StructDefinition) *errs.DanaException {
	parent, derr := i.resolveParent(n.Parent, n.Loc())
	if derr != nil {
		return derr
	}
	td := types.NewStructType(n.Name, toFieldSpecs(n.Fields), parent, n.Docstring)
	if err := i.Types.Register(td); err != nil {
		return errs.New(errs.KindType, "TypeError", err.Error(), n.Loc())
	}
	return nil
}

func (i *Interpreter) defAgent(n *ast.AgentDefinition) *errs.DanaException {
	parent, derr := i.resolveParent(n.Parent, n.Loc())
	if derr != nil {
		return derr
	}
	methods := toMethodMap(n.Methods)
	td := types.NewAgentType(n.Name, toFieldSpecs(n.Fields), methods, parent, n.Docstring)
	if err := i.Types.Register(td); err != nil {
		return errs.New(errs.KindType, "TypeError", err.Error(), n.Loc())
	}
	i.registerMethods(n.Name, methods)
	return nil
}

func (i *Interpreter) defResource(n *ast.ResourceDefinition) *errs.DanaException {
	parent, derr := i.resolveParent(n.Parent, n.Loc())
	if derr != nil {
		return derr
	}
	methods := toMethodMap(n.Methods)
	td := types.NewResourceType(n.Name, toFieldSpecs(n.Fields), methods, parent, n.Docstring)
	if err := i.Types.Register(td); err != nil {
		return errs.New(errs.KindType, "TypeError", err.Error(), n.Loc())
	}
	i.registerMethods(n.Name, methods)
	return nil
}

// registerMethods mirrors an agent/resource body's inline methods into the
// MethodRegistry, which exists to serve a future `def Type.method(...)`
// extension syntax; TypeDescriptor.Method already resolves inline methods
// directly; this keeps the registry populated and queryable the same way.
func (i *Interpreter) registerMethods(typeName string, methods map[string]*ast.FunctionDefinition) {
	for name, fn := range methods {
		i.Methods.Register(typeName, name, fn)
	}
}

// defFunction registers a top-level `def` as a private, module-scoped
// function. DANA has no `@public`-style decorator syntax implemented by
// the parser yet (FunctionDefinition.Decorators is always empty), so every
// top-level function is private to its defining module until an explicit
// export mechanism exists.
func (i *Interpreter) defFunction(n *ast.FunctionDefinition) *errs.DanaException {
	entry := &registry.FunctionEntry{
		Name:      n.Name,
		Namespace: registry.NamespacePrivate,
		Kind:      registry.FunctionDana,
		Callable:  n,
	}
	if err := i.Functions.Register(entry); err != nil {
		return errs.New(errs.KindType, "TypeError", err.Error(), n.Loc())
	}
	return nil
}
