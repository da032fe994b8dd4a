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

// Package types models DANA's type system: struct/agent/resource type
// descriptors and the instances constructed from them.
package types

import (
	"fmt"

	"github.com/dana-lang/dana/pkg/ast"
)

// FieldSpec is one ordered field of a TypeDescriptor.
type FieldSpec struct {
	Name    string
	Type    string
	Default ast.Expr // nil if required
	Comment string
}

// Category distinguishes the three defined-type kinds. All three share the
// same field/inheritance machinery; Category only changes what gets
// auto-prepended and which instance struct the registry constructs.
type Category int

const (
	CategoryStruct Category = iota
	CategoryAgent
	CategoryResource
)

func (c Category) String() string {
	switch c {
	case CategoryAgent:
		return "agent"
	case CategoryResource:
		return "resource"
	default:
		return "struct"
	}
}

// AgentMethodNames are the built-in method slots every AgentType carries,
// overridable by a same-named user-defined method.
var AgentMethodNames = []string{"plan", "solve", "remember", "recall", "reason", "chat"}

// TypeDescriptor describes one struct/agent/resource type.
type TypeDescriptor struct {
	Name      string
	Category  Category
	Fields    []FieldSpec
	Parent    *TypeDescriptor
	Docstring string

	// Methods holds user-defined methods declared on an agent/resource
	// body, keyed by name. Built-in agent method slots not present here
	// fall back to the interpreter's built-in implementation
	// (pkg/interpreter/agent_builtins.go).
	Methods map[string]*ast.FunctionDefinition
}

// NewStructType builds a plain struct descriptor.
func NewStructType(name string, fields []FieldSpec, parent *TypeDescriptor, doc string) *TypeDescriptor {
	return &TypeDescriptor{Name: name, Category: CategoryStruct, Fields: fields, Parent: parent, Docstring: doc}
}

// stateField is auto-prepended to every AgentType/ResourceType.
var stateField = FieldSpec{
	Name:    "state",
	Type:    "str",
	Default: &ast.LiteralExpression{Kind: ast.LiteralString, Value: "CREATED"},
}

// NewAgentType builds an agent descriptor, auto-prepending the `state`
// field every agent instance carries.
func NewAgentType(name string, fields []FieldSpec, methods map[string]*ast.FunctionDefinition, parent *TypeDescriptor, doc string) *TypeDescriptor {
	all := append([]FieldSpec{stateField}, fields...)
	return &TypeDescriptor{Name: name, Category: CategoryAgent, Fields: all, Parent: parent, Docstring: doc, Methods: methods}
}

// NewResourceType builds a resource descriptor, auto-prepending `state`
// the same way NewAgentType does; resource instances are additionally
// lifecycle-capable (pkg/resource).
func NewResourceType(name string, fields []FieldSpec, methods map[string]*ast.FunctionDefinition, parent *TypeDescriptor, doc string) *TypeDescriptor {
	all := append([]FieldSpec{stateField}, fields...)
	return &TypeDescriptor{Name: name, Category: CategoryResource, Fields: all, Parent: parent, Docstring: doc, Methods: methods}
}

// AllFields returns the descriptor's own fields preceded by its parent
// chain's fields, outermost ancestor first.
func (t *TypeDescriptor) AllFields() []FieldSpec {
	if t.Parent == nil {
		return t.Fields
	}
	return append(t.Parent.AllFields(), t.Fields...)
}

// FieldType returns the declared type name for field, searching the
// parent chain, and whether it was found.
func (t *TypeDescriptor) FieldType(field string) (string, bool) {
	for _, f := range t.AllFields() {
		if f.Name == field {
			return f.Type, true
		}
	}
	return "", false
}

// SameShape reports whether other has an identical field set (name, type,
// and default-presence) to t — used to decide whether a re-registration
// is an idempotent no-op or a conflicting redefinition.
func (t *TypeDescriptor) SameShape(other *TypeDescriptor) bool {
	a, b := t.AllFields(), other.AllFields()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Type != b[i].Type || (a[i].Default == nil) != (b[i].Default == nil) {
			return false
		}
	}
	return true
}

// Method looks up a user-defined method by name, searching the parent
// chain; returns nil, false if none is defined (the caller falls back to
// a built-in default for agent method slots).
func (t *TypeDescriptor) Method(name string) (*ast.FunctionDefinition, bool) {
	if t.Methods != nil {
		if m, ok := t.Methods[name]; ok {
			return m, true
		}
	}
	if t.Parent != nil {
		return t.Parent.Method(name)
	}
	return nil, false
}

// Instance is the common shape of StructInstance/AgentInstance/
// ResourceInstance: a type descriptor plus its field values. Concrete
// instance kinds embed Instance and add their own extra state.
type Instance struct {
	Type   *TypeDescriptor
	Values map[string]any
}

// Get reads a field value.
func (i *Instance) Get(field string) (any, bool) {
	v, ok := i.Values[field]
	return v, ok
}

// Set writes a field value.
func (i *Instance) Set(field string, value any) {
	if i.Values == nil {
		i.Values = make(map[string]any)
	}
	i.Values[field] = value
}

// String renders the canonical `TypeName(field=value, ...)` text form
// used by the coercion engine's to_text rule for struct-like values.
func (i *Instance) String() string {
	s := i.Type.Name + "("
	for idx, f := range i.Type.AllFields() {
		if idx > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s=%v", f.Name, i.Values[f.Name])
	}
	return s + ")"
}

// StructInstance is a plain struct value.
type StructInstance struct {
	Instance
}

// NewStructInstance wraps values as given. It applies no field defaults:
// the caller supplies every field, default expressions already evaluated.
func NewStructInstance(t *TypeDescriptor, values map[string]any) *StructInstance {
	return &StructInstance{Instance: Instance{Type: t, Values: values}}
}

// ConversationTurn is one exchange in an agent's lazily-initialized
// conversation memory.
type ConversationTurn struct {
	UserInput     string
	AgentResponse string
}

// AgentInstance extends Instance with per-instance memory, conversation
// history, and a slot for an LLM resource reference. None of this
// state is persisted unless a host wires its own storage.
type AgentInstance struct {
	Instance
	Memory       map[string]any
	Conversation []ConversationTurn
	LLMResource  any // not assigned anywhere in this module; any avoids an import cycle
}

// NewAgentInstance constructs an AgentInstance.
func NewAgentInstance(t *TypeDescriptor, values map[string]any) *AgentInstance {
	return &AgentInstance{Instance: Instance{Type: t, Values: values}, Memory: make(map[string]any)}
}

// Remember stores a value under key in the agent's private memory.
func (a *AgentInstance) Remember(key string, value any) { a.Memory[key] = value }

// Recall retrieves a value from the agent's private memory.
func (a *AgentInstance) Recall(key string) (any, bool) {
	v, ok := a.Memory[key]
	return v, ok
}

// RecordTurn appends one conversation exchange, keeping at most the most
// recent maxTurns.
func (a *AgentInstance) RecordTurn(userInput, agentResponse string, maxTurns int) {
	a.Conversation = append(a.Conversation, ConversationTurn{UserInput: userInput, AgentResponse: agentResponse})
	if len(a.Conversation) > maxTurns {
		a.Conversation = a.Conversation[len(a.Conversation)-maxTurns:]
	}
}

// ResourceInstance extends Instance with a pluggable backend and a
// lifecycle state managed by pkg/resource.
type ResourceInstance struct {
	Instance
	Backend any    // set to a resource.Backend implementation
	State   string // mirrors the `state` field; kept in sync by pkg/resource
}

// NewResourceInstance constructs a ResourceInstance in the CREATED state.
func NewResourceInstance(t *TypeDescriptor, values map[string]any) *ResourceInstance {
	if values == nil {
		values = make(map[string]any)
	}
	values["state"] = "CREATED"
	return &ResourceInstance{Instance: Instance{Type: t, Values: values}, State: "CREATED"}
}
