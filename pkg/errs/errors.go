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

// Package errs implements DANA's uniform error model: a single
// DanaException type discriminated by Kind, carrying the Location it
// originated at and a traceback of frames gathered as it propagates.
package errs

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dana-lang/dana/pkg/ast"
)

// Kind is the error taxonomy. It is a classification, not a user-facing
// type name: two exceptions of Kind Type can carry different Type strings
// ("TypeError", "ZeroDivisionError" is Kind State, etc).
type Kind string

const (
	KindSyntax    Kind = "SyntaxError"
	KindName      Kind = "NameError"
	KindType      Kind = "TypeError"
	KindState     Kind = "StateError"
	KindCoercion  Kind = "CoercionError"
	KindResource  Kind = "ResourceError"
	KindTimeout   Kind = "TimeoutError"
	KindCancelled Kind = "CancelledError"
	KindDana      Kind = "DanaError"
	KindFatal     Kind = "Fatal"
)

// Frame is one entry of a DanaException's traceback.
type Frame struct {
	Function string
	Location ast.Location
}

// DanaException is the uniform catchable error raised by the interpreter
// and coercion engine. Kind groups it into the error taxonomy; Type is the
// discriminating name a `try/except TypeName` or `e.type` observes (e.g.
// "ZeroDivisionError", "CoercionError", a user `raise`d custom name).
type DanaException struct {
	ID         string
	Kind       Kind
	Type       string
	Message    string
	Location  ast.Location
	Traceback []Frame
	Original  error // wrapped cause, if any
	Fatal     bool  // non-catchable: registry/parser invariant violation
}

func New(kind Kind, typ, message string, loc ast.Location) *DanaException {
	if typ == "" {
		typ = string(kind)
	}
	return &DanaException{
		ID:       uuid.NewString(),
		Kind:     kind,
		Type:     typ,
		Message:  message,
		Location: loc,
		Fatal:    kind == KindFatal,
	}
}

func Wrap(kind Kind, typ, message string, loc ast.Location, cause error) *DanaException {
	e := New(kind, typ, message, loc)
	e.Original = cause
	return e
}

func (e *DanaException) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DanaException) Unwrap() error { return e.Original }

// PushFrame records one more stack frame as the exception propagates
// upward through nested function calls.
func (e *DanaException) PushFrame(function string, loc ast.Location) {
	e.Traceback = append(e.Traceback, Frame{Function: function, Location: loc})
}

// Format renders the user-visible multi-line error form:
//
//	Type: message
//	  at line L, col C: <source excerpt>
//	  <caret>
func Format(e *DanaException) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", e.Type, e.Message)
	if !e.Location.Zero() {
		fmt.Fprintf(&sb, "  at line %d, col %d: %s\n", e.Location.Line, e.Location.Column, e.Location.Excerpt)
		sb.WriteString("  ")
		for i := 1; i < e.Location.Column; i++ {
			sb.WriteByte(' ')
		}
		sb.WriteString("^\n")
	}
	return sb.String()
}

// ZeroDivision builds the canonical div-by-zero exception. The Type is
// exactly "ZeroDivisionError", not a generic "StateError" string.
func ZeroDivision(loc ast.Location) *DanaException {
	return New(KindState, "ZeroDivisionError", "division by zero", loc)
}

// ScopeViolation builds the exception raised when user code writes to
// the `system` scope, which is read-only to DANA programs.
func ScopeViolation(name string, loc ast.Location) *DanaException {
	return New(KindName, "ScopeError", fmt.Sprintf("cannot write to system scope: %q", name), loc)
}

// Undefined builds the exception for an unresolved identifier.
func Undefined(name string, loc ast.Location) *DanaException {
	return New(KindName, "NameError", fmt.Sprintf("undefined name %q", name), loc)
}
