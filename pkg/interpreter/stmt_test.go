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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dana-lang/dana/pkg/ast"
)

func TestWhileLoopAccumulates(t *testing.T) {
	interp := newTestInterpreter(t)
	prog := program(
		assign(ident("total"), intLit(0)),
		assign(ident("n"), intLit(0)),
		&ast.WhileLoop{
			Condition: &ast.BinaryExpression{Left: ident("n"), Op: ast.OpLt, Right: intLit(5)},
			Body: []ast.Stmt{
				assign(ident("total"), &ast.BinaryExpression{Left: ident("total"), Op: ast.OpAdd, Right: ident("n")}),
				assign(ident("n"), &ast.BinaryExpression{Left: ident("n"), Op: ast.OpAdd, Right: intLit(1)}),
			},
		},
		exprStmt(ident("total")),
	)

	value, derr := interp.Run(prog, "m")
	require.Nil(t, derr)
	assert.Equal(t, int64(10), value)
}

func TestForLoopOverList(t *testing.T) {
	interp := newTestInterpreter(t)
	prog := program(
		assign(ident("xs"), &ast.ListExpression{Elements: []ast.Expr{intLit(1), intLit(2), intLit(3)}}),
		assign(ident("total"), intLit(0)),
		&ast.ForLoop{
			Target:   "v",
			Iterable: ident("xs"),
			Body: []ast.Stmt{
				assign(ident("total"), &ast.BinaryExpression{Left: ident("total"), Op: ast.OpAdd, Right: ident("v")}),
			},
		},
		exprStmt(ident("total")),
	)

	value, derr := interp.Run(prog, "m")
	require.Nil(t, derr)
	assert.Equal(t, int64(6), value)
}

func TestTryExceptCatchesRaisedValue(t *testing.T) {
	interp := newTestInterpreter(t)
	prog := program(
		&ast.TryExcept{
			Body: []ast.Stmt{
				&ast.Raise{Value: strLit("boom")},
			},
			Handlers: []ast.ExceptHandler{
				{BindName: "e", Body: []ast.Stmt{exprStmt(strLit("recovered"))}},
			},
		},
	)

	value, derr := interp.Run(prog, "m")
	require.Nil(t, derr)
	assert.Equal(t, "recovered", value)
}

func TestTryExceptTypeFilterSkipsMismatch(t *testing.T) {
	interp := newTestInterpreter(t)
	prog := program(
		&ast.TryExcept{
			Body: []ast.Stmt{
				exprStmt(&ast.BinaryExpression{Left: intLit(1), Op: ast.OpDiv, Right: intLit(0)}),
			},
			Handlers: []ast.ExceptHandler{
				{TypeFilter: "KeyError", Body: []ast.Stmt{exprStmt(strLit("wrong handler"))}},
			},
		},
	)

	_, derr := interp.Run(prog, "m")
	require.NotNil(t, derr)
	assert.Equal(t, "ZeroDivisionError", derr.Type)
}

func TestBareRaiseReRaisesActiveException(t *testing.T) {
	interp := newTestInterpreter(t)
	prog := program(
		&ast.TryExcept{
			Body: []ast.Stmt{
				&ast.Raise{Value: strLit("original")},
			},
			Handlers: []ast.ExceptHandler{
				{BindName: "e", Body: []ast.Stmt{&ast.Raise{}}},
			},
		},
	)

	_, derr := interp.Run(prog, "m")
	require.NotNil(t, derr)
	assert.Equal(t, "original", derr.Message)
}

func TestStructDefinitionAndFieldAccess(t *testing.T) {
	interp := newTestInterpreter(t)
	prog := program(
		&ast.StructDefinition{
			Name: "Point",
			Fields: []ast.Field{
				{Name: "x", Type: "int"},
				{Name: "y", Type: "int", Default: intLit(0)},
			},
		},
		assign(ident("p"), &ast.FunctionCall{Name: "Point", Args: []ast.Arg{{Value: intLit(3)}}}),
		exprStmt(&ast.MemberAccess{Receiver: ident("p"), Field: "y"}),
	)

	value, derr := interp.Run(prog, "m")
	require.Nil(t, derr)
	assert.Equal(t, int64(0), value)
}

func TestStructConstructionMissingRequiredFieldErrors(t *testing.T) {
	interp := newTestInterpreter(t)
	prog := program(
		&ast.StructDefinition{
			Name:   "Point",
			Fields: []ast.Field{{Name: "x", Type: "int"}},
		},
		exprStmt(&ast.FunctionCall{Name: "Point"}),
	)

	_, derr := interp.Run(prog, "m")
	require.NotNil(t, derr)
	assert.Equal(t, "TypeError", derr.Type)
}

func TestFieldAssignmentMutatesInstance(t *testing.T) {
	interp := newTestInterpreter(t)
	prog := program(
		&ast.StructDefinition{
			Name:   "Counter",
			Fields: []ast.Field{{Name: "n", Type: "int", Default: intLit(0)}},
		},
		assign(ident("c"), &ast.FunctionCall{Name: "Counter"}),
		assign(&ast.MemberAccess{Receiver: ident("c"), Field: "n"}, intLit(7)),
		exprStmt(&ast.MemberAccess{Receiver: ident("c"), Field: "n"}),
	)

	value, derr := interp.Run(prog, "m")
	require.Nil(t, derr)
	assert.Equal(t, int64(7), value)
}
