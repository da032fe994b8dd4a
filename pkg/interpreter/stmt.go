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
	"github.com/dana-lang/dana/pkg/ast"
	"github.com/dana-lang/dana/pkg/coercion"
	"github.com/dana-lang/dana/pkg/errs"
	"github.com/dana-lang/dana/pkg/sandbox"
)

// ctrl signals a Return statement unwinding through enclosing blocks; it
// is distinct from an exception (*errs.DanaException), which unwinds the
// same way but is catchable by a try/except in its path.
type ctrl struct {
	Value any
}

// execStmts runs stmts in order, returning the value of the last
// ExprStmt executed (the REPL/module trailing-expression convention), a
// non-nil ctrl if a Return was hit, or a non-nil exception if one
// propagated out uncaught.
func (i *Interpreter) execStmts(stmts []ast.Stmt, ctx *sandbox.Context, frame string) (any, *ctrl, *errs.DanaException) {
	var last any
	for _, s := range stmts {
		value, c, derr := i.execStmt(s, ctx, frame)
		if derr != nil {
			return nil, nil, derr
		}
		if c != nil {
			return nil, c, nil
		}
		if _, ok := s.(*ast.ExprStmt); ok {
			last = value
		}
	}
	return last, nil, nil
}

func (i *Interpreter) execStmt(s ast.Stmt, ctx *sandbox.Context, frame string) (any, *ctrl, *errs.DanaException) {
	switch n := s.(type) {
	case *ast.ExprStmt:
		v, derr := i.eval(n.Value, ctx)
		return v, nil, derr

	case *ast.Assignment:
		return nil, nil, i.execAssignment(n, ctx)

	case *ast.Conditional:
		return i.execConditional(n, ctx, frame)

	case *ast.WhileLoop:
		return i.execWhile(n, ctx, frame)

	case *ast.ForLoop:
		return i.execFor(n, ctx, frame)

	case *ast.TryExcept:
		return i.execTry(n, ctx, frame)

	case *ast.Raise:
		return nil, nil, i.execRaise(n, ctx)

	case *ast.Return:
		if n.Value == nil {
			return nil, &ctrl{}, nil
		}
		v, derr := i.eval(n.Value, ctx)
		if derr != nil {
			return nil, nil, derr
		}
		return nil, &ctrl{Value: v}, nil

	case *ast.StructDefinition:
		return nil, nil, i.defStruct(n)
	case *ast.AgentDefinition:
		return nil, nil, i.defAgent(n)
	case *ast.ResourceDefinition:
		return nil, nil, i.defResource(n)
	case *ast.FunctionDefinition:
		return nil, nil, i.defFunction(n)

	case *ast.ImportStatement:
		return nil, nil, i.execImport(n, ctx)

	default:
		return nil, nil, errs.New(errs.KindFatal, "Fatal", "unhandled statement node", s.Loc())
	}
}

func (i *Interpreter) execAssignment(n *ast.Assignment, ctx *sandbox.Context) *errs.DanaException {
	value, derr := i.eval(n.Value, ctx)
	if derr != nil {
		return derr
	}
	switch target := n.Target.(type) {
	case *ast.Identifier:
		return ctx.Assign(target.Scope, target.Path, value, n.Loc())
	case *ast.MemberAccess:
		recv, derr := i.eval(target.Receiver, ctx)
		if derr != nil {
			return derr
		}
		recv, derr = i.resolveValue(recv, n.Loc())
		if derr != nil {
			return derr
		}
		return i.assignField(recv, target.Field, value, n.Loc())
	case *ast.IndexExpression:
		recv, derr := i.eval(target.Receiver, ctx)
		if derr != nil {
			return derr
		}
		recv, derr = i.resolveValue(recv, n.Loc())
		if derr != nil {
			return derr
		}
		idx, derr := i.eval(target.Index, ctx)
		if derr != nil {
			return derr
		}
		idx, derr = i.resolveValue(idx, n.Loc())
		if derr != nil {
			return derr
		}
		return i.assignIndex(recv, idx, value, n.Loc())
	default:
		return errs.New(errs.KindType, "TypeError", "invalid assignment target", n.Loc())
	}
}

func (i *Interpreter) execConditional(n *ast.Conditional, ctx *sandbox.Context, frame string) (any, *ctrl, *errs.DanaException) {
	cond, derr := i.eval(n.Condition, ctx)
	if derr != nil {
		return nil, nil, derr
	}
	cond, derr = i.resolveValue(cond, n.Loc())
	if derr != nil {
		return nil, nil, derr
	}
	if coercion.Truthy(cond) {
		return i.execStmts(n.Body, ctx, frame)
	}
	return i.execStmts(n.ElseBody, ctx, frame)
}

func (i *Interpreter) execWhile(n *ast.WhileLoop, ctx *sandbox.Context, frame string) (any, *ctrl, *errs.DanaException) {
	for {
		cond, derr := i.eval(n.Condition, ctx)
		if derr != nil {
			return nil, nil, derr
		}
		cond, derr = i.resolveValue(cond, n.Loc())
		if derr != nil {
			return nil, nil, derr
		}
		if !coercion.Truthy(cond) {
			return nil, nil, nil
		}
		_, c, derr := i.execStmts(n.Body, ctx, frame)
		if derr != nil {
			return nil, nil, derr
		}
		if c != nil {
			return nil, c, nil
		}
	}
}

func (i *Interpreter) execFor(n *ast.ForLoop, ctx *sandbox.Context, frame string) (any, *ctrl, *errs.DanaException) {
	iterable, derr := i.eval(n.Iterable, ctx)
	if derr != nil {
		return nil, nil, derr
	}
	iterable, derr = i.resolveValue(iterable, n.Loc())
	if derr != nil {
		return nil, nil, derr
	}
	items, derr := i.iterate(iterable, n.Loc())
	if derr != nil {
		return nil, nil, derr
	}
	for _, item := range items {
		if derr := ctx.Assign("", n.Target, item, n.Loc()); derr != nil {
			return nil, nil, derr
		}
		_, c, derr := i.execStmts(n.Body, ctx, frame)
		if derr != nil {
			return nil, nil, derr
		}
		if c != nil {
			return nil, c, nil
		}
	}
	return nil, nil, nil
}

func (i *Interpreter) execTry(n *ast.TryExcept, ctx *sandbox.Context, frame string) (any, *ctrl, *errs.DanaException) {
	value, c, derr := i.execStmts(n.Body, ctx, frame)
	if derr == nil {
		return value, c, nil
	}
	for _, h := range n.Handlers {
		if h.TypeFilter != "" && h.TypeFilter != derr.Type {
			continue
		}
		if h.BindName != "" {
			ctx.BindLocal(h.BindName, derr)
			defer ctx.UnbindLocal(h.BindName)
		}
		prevException, hadPrev := ctx.ActiveException()
		ctx.SetActiveException(derr)
		v, hc, herr := i.execStmts(h.Body, ctx, frame)
		if hadPrev {
			ctx.SetActiveException(prevException)
		} else {
			ctx.ClearActiveException()
		}
		return v, hc, herr
	}
	return nil, nil, derr
}

func (i *Interpreter) execRaise(n *ast.Raise, ctx *sandbox.Context) *errs.DanaException {
	if n.Value == nil {
		if active, ok := ctx.ActiveException(); ok {
			return active
		}
		return errs.New(errs.KindDana, "DanaError", "bare raise outside an except handler", n.Loc())
	}
	value, derr := i.eval(n.Value, ctx)
	if derr != nil {
		return derr
	}
	value, derr = i.resolveValue(value, n.Loc())
	if derr != nil {
		return derr
	}
	return i.toException(value, n.Loc())
}

func (i *Interpreter) execImport(n *ast.ImportStatement, ctx *sandbox.Context) *errs.DanaException {
	if i.Loader == nil {
		return errs.New(errs.KindFatal, "Fatal", "import statement with no module loader configured", n.Loc())
	}
	mod, err := i.Loader.Load(n.Module)
	if err != nil {
		if de, ok := err.(*errs.DanaException); ok {
			return de
		}
		return errs.Wrap(errs.KindName, "ImportError", err.Error(), n.Loc(), err)
	}
	name := n.Module
	if n.Alias != "" {
		name = n.Alias
	}
	ctx.Assign("", name, mod.Public, n.Loc())
	return nil
}
