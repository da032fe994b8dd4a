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
	"github.com/dana-lang/dana/pkg/coercion"
	"github.com/dana-lang/dana/pkg/concurrency"
	"github.com/dana-lang/dana/pkg/corelib"
	"github.com/dana-lang/dana/pkg/errs"
	"github.com/dana-lang/dana/pkg/sandbox"
	"github.com/dana-lang/dana/pkg/types"
)

// fieldGetter is satisfied by *types.StructInstance/AgentInstance/
// ResourceInstance via their embedded Instance.
type fieldGetter interface {
	Get(field string) (any, bool)
}

// fieldSetter is satisfied the same way, for attribute writes.
type fieldSetter interface {
	Set(field string, value any)
}

func (i *Interpreter) eval(e ast.Expr, ctx *sandbox.Context) (any, *errs.DanaException) {
	switch n := e.(type) {
	case *ast.Identifier:
		return i.evalIdentifier(n, ctx)

	case *ast.LiteralExpression:
		return n.Value, nil

	case *ast.ListExpression:
		items := make([]any, len(n.Elements))
		for idx, el := range n.Elements {
			v, derr := i.eval(el, ctx)
			if derr != nil {
				return nil, derr
			}
			items[idx] = v
		}
		return items, nil

	case *ast.DictExpression:
		out := make(map[string]any, len(n.Entries))
		for _, entry := range n.Entries {
			k, derr := i.eval(entry.Key, ctx)
			if derr != nil {
				return nil, derr
			}
			v, derr := i.eval(entry.Value, ctx)
			if derr != nil {
				return nil, derr
			}
			out[coercion.ToText(k)] = v
		}
		return out, nil

	case *ast.SetExpression:
		set := corelib.NewSet()
		for _, el := range n.Elements {
			v, derr := i.eval(el, ctx)
			if derr != nil {
				return nil, derr
			}
			set.Add(v)
		}
		return set, nil

	case *ast.TupleExpression:
		items := make(corelib.Tuple, len(n.Elements))
		for idx, el := range n.Elements {
			v, derr := i.eval(el, ctx)
			if derr != nil {
				return nil, derr
			}
			items[idx] = v
		}
		return items, nil

	case *ast.FStringExpression:
		var s string
		for _, part := range n.Parts {
			if part.Expr == nil {
				s += part.Text
				continue
			}
			v, derr := i.eval(part.Expr, ctx)
			if derr != nil {
				return nil, derr
			}
			s += coercion.ToText(v)
		}
		return s, nil

	case *ast.BinaryExpression:
		return i.evalBinary(n, ctx)

	case *ast.UnaryExpression:
		return i.evalUnary(n, ctx)

	case *ast.FunctionCall:
		return i.evalCall(n, ctx)

	case *ast.MemberAccess:
		return i.evalMemberAccess(n, ctx)

	case *ast.IndexExpression:
		return i.evalIndex(n, ctx)

	case *ast.PipelineExpression:
		return i.evalPipeline(n, ctx)

	default:
		return nil, errs.New(errs.KindFatal, "Fatal", "unhandled expression node", e.Loc())
	}
}

func (i *Interpreter) evalIdentifier(n *ast.Identifier, ctx *sandbox.Context) (any, *errs.DanaException) {
	if v, ok := ctx.Resolve(n.Scope, n.Path); ok {
		return i.resolveValue(v, n.Loc())
	}
	if n.Scope == "" {
		if entry, ok := i.Functions.Resolve(n.Path); ok {
			return &funcValue{interp: i, entry: entry}, nil
		}
	}
	return nil, errs.Undefined(n.Path, n.Loc())
}

// resolveValue forces a promise observed at a read, per the observation
// points spec names for variable reads.
func (i *Interpreter) resolveValue(v any, loc ast.Location) (any, *errs.DanaException) {
	resolved, err := concurrency.ResolveIfPromise(v)
	if err != nil {
		if de, ok := err.(*errs.DanaException); ok {
			return nil, de
		}
		return nil, errs.Wrap(errs.KindCancelled, "CancelledError", err.Error(), loc, err)
	}
	return resolved, nil
}

func (i *Interpreter) evalBinary(n *ast.BinaryExpression, ctx *sandbox.Context) (any, *errs.DanaException) {
	if n.Op == ast.OpAnd || n.Op == ast.OpOr {
		left, derr := i.eval(n.Left, ctx)
		if derr != nil {
			return nil, derr
		}
		left, derr = i.resolveValue(left, n.Loc())
		if derr != nil {
			return nil, derr
		}
		truthy := coercion.Truthy(left)
		if n.Op == ast.OpAnd && !truthy {
			return left, nil
		}
		if n.Op == ast.OpOr && truthy {
			return left, nil
		}
		right, derr := i.eval(n.Right, ctx)
		if derr != nil {
			return nil, derr
		}
		return i.resolveValue(right, n.Loc())
	}

	left, derr := i.eval(n.Left, ctx)
	if derr != nil {
		return nil, derr
	}
	left, derr = i.resolveValue(left, n.Loc())
	if derr != nil {
		return nil, derr
	}
	right, derr := i.eval(n.Right, ctx)
	if derr != nil {
		return nil, derr
	}
	right, derr = i.resolveValue(right, n.Loc())
	if derr != nil {
		return nil, derr
	}

	switch n.Op {
	case ast.OpAdd:
		return i.Coercion.Add(left, right, n.Loc())
	case ast.OpSub:
		return i.Coercion.Sub(left, right, n.Loc())
	case ast.OpMul:
		return i.Coercion.Mul(left, right, n.Loc())
	case ast.OpDiv:
		return i.Coercion.Div(left, right, n.Loc())
	case ast.OpMod:
		return i.Coercion.Mod(left, right, n.Loc())
	case ast.OpEq:
		return i.Coercion.Equal(left, right), nil
	case ast.OpNeq:
		return !i.Coercion.Equal(left, right), nil
	case ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		cmp, derr := i.Coercion.Compare(left, right, n.Loc())
		if derr != nil {
			return nil, derr
		}
		switch n.Op {
		case ast.OpLt:
			return cmp < 0, nil
		case ast.OpGt:
			return cmp > 0, nil
		case ast.OpLe:
			return cmp <= 0, nil
		default:
			return cmp >= 0, nil
		}
	case ast.OpIn:
		return i.evalContains(left, right, n.Loc())
	default:
		return nil, errs.New(errs.KindType, "TypeError", fmt.Sprintf("unsupported operator %q", n.Op), n.Loc())
	}
}

func (i *Interpreter) evalContains(needle, haystack any, loc ast.Location) (any, *errs.DanaException) {
	switch h := haystack.(type) {
	case []any:
		for _, item := range h {
			if i.Coercion.Equal(needle, item) {
				return true, nil
			}
		}
		return false, nil
	case corelib.Tuple:
		for _, item := range h {
			if i.Coercion.Equal(needle, item) {
				return true, nil
			}
		}
		return false, nil
	case *corelib.Set:
		return h.Contains(needle), nil
	case map[string]any:
		_, ok := h[coercion.ToText(needle)]
		return ok, nil
	case string:
		sub, ok := needle.(string)
		if !ok {
			return nil, errs.New(errs.KindType, "TypeError", "right-hand side of 'in' a string requires a string operand", loc)
		}
		return containsSubstring(h, sub), nil
	default:
		return nil, errs.New(errs.KindType, "TypeError", fmt.Sprintf("%T is not a container", haystack), loc)
	}
}

func containsSubstring(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	for idx := 0; idx+len(needle) <= len(haystack); idx++ {
		if haystack[idx:idx+len(needle)] == needle {
			return true
		}
	}
	return false
}

func (i *Interpreter) evalUnary(n *ast.UnaryExpression, ctx *sandbox.Context) (any, *errs.DanaException) {
	v, derr := i.eval(n.Operand, ctx)
	if derr != nil {
		return nil, derr
	}
	v, derr = i.resolveValue(v, n.Loc())
	if derr != nil {
		return nil, derr
	}
	switch n.Op {
	case ast.UnaryNot:
		return !coercion.Truthy(v), nil
	case ast.UnaryNeg:
		switch x := v.(type) {
		case int64:
			return -x, nil
		case int:
			return int64(-x), nil
		case float64:
			return -x, nil
		default:
			return nil, errs.New(errs.KindType, "TypeError", fmt.Sprintf("bad operand type for unary -: %T", v), n.Loc())
		}
	default:
		return nil, errs.New(errs.KindType, "TypeError", fmt.Sprintf("unsupported unary operator %q", n.Op), n.Loc())
	}
}

func (i *Interpreter) evalMemberAccess(n *ast.MemberAccess, ctx *sandbox.Context) (any, *errs.DanaException) {
	recv, derr := i.eval(n.Receiver, ctx)
	if derr != nil {
		return nil, derr
	}
	recv, derr = i.resolveValue(recv, n.Loc())
	if derr != nil {
		return nil, derr
	}
	switch r := recv.(type) {
	case fieldGetter:
		v, ok := r.Get(n.Field)
		if !ok {
			return nil, errs.New(errs.KindName, "AttributeError", fmt.Sprintf("no such field %q", n.Field), n.Loc())
		}
		return v, nil
	case map[string]any:
		v, ok := r[n.Field]
		if !ok {
			return nil, errs.New(errs.KindName, "AttributeError", fmt.Sprintf("no such key %q", n.Field), n.Loc())
		}
		return v, nil
	default:
		return nil, errs.New(errs.KindType, "TypeError", fmt.Sprintf("%T has no attribute %q", recv, n.Field), n.Loc())
	}
}

func (i *Interpreter) assignField(recv any, field string, value any, loc ast.Location) *errs.DanaException {
	setter, ok := recv.(fieldSetter)
	if !ok {
		return errs.New(errs.KindType, "TypeError", fmt.Sprintf("%T does not support field assignment", recv), loc)
	}
	setter.Set(field, value)
	return nil
}

func normalizeIndex(idx, length int) int {
	if idx < 0 {
		return length + idx
	}
	return idx
}

func (i *Interpreter) evalIndex(n *ast.IndexExpression, ctx *sandbox.Context) (any, *errs.DanaException) {
	recv, derr := i.eval(n.Receiver, ctx)
	if derr != nil {
		return nil, derr
	}
	recv, derr = i.resolveValue(recv, n.Loc())
	if derr != nil {
		return nil, derr
	}
	idx, derr := i.eval(n.Index, ctx)
	if derr != nil {
		return nil, derr
	}
	idx, derr = i.resolveValue(idx, n.Loc())
	if derr != nil {
		return nil, derr
	}

	switch r := recv.(type) {
	case []any:
		return indexSlice(r, idx, n.Loc())
	case corelib.Tuple:
		return indexSlice([]any(r), idx, n.Loc())
	case map[string]any:
		key, ok := idx.(string)
		if !ok {
			return nil, errs.New(errs.KindType, "TypeError", "dict index must be a string", n.Loc())
		}
		v, found := r[key]
		if !found {
			return nil, errs.New(errs.KindName, "KeyError", fmt.Sprintf("key %q not found", key), n.Loc())
		}
		return v, nil
	case string:
		ii, ok := idx.(int64)
		if !ok {
			return nil, errs.New(errs.KindType, "TypeError", "string index must be an int", n.Loc())
		}
		runes := []rune(r)
		pos := normalizeIndex(int(ii), len(runes))
		if pos < 0 || pos >= len(runes) {
			return nil, errs.New(errs.KindState, "IndexError", "string index out of range", n.Loc())
		}
		return string(runes[pos]), nil
	default:
		return nil, errs.New(errs.KindType, "TypeError", fmt.Sprintf("%T is not subscriptable", recv), n.Loc())
	}
}

func indexSlice(items []any, idx any, loc ast.Location) (any, *errs.DanaException) {
	ii, ok := idx.(int64)
	if !ok {
		return nil, errs.New(errs.KindType, "TypeError", "list index must be an int", loc)
	}
	pos := normalizeIndex(int(ii), len(items))
	if pos < 0 || pos >= len(items) {
		return nil, errs.New(errs.KindState, "IndexError", "list index out of range", loc)
	}
	return items[pos], nil
}

func (i *Interpreter) assignIndex(recv, idx, value any, loc ast.Location) *errs.DanaException {
	switch r := recv.(type) {
	case []any:
		ii, ok := idx.(int64)
		if !ok {
			return errs.New(errs.KindType, "TypeError", "list index must be an int", loc)
		}
		pos := normalizeIndex(int(ii), len(r))
		if pos < 0 || pos >= len(r) {
			return errs.New(errs.KindState, "IndexError", "list index out of range", loc)
		}
		r[pos] = value
		return nil
	case map[string]any:
		key, ok := idx.(string)
		if !ok {
			return errs.New(errs.KindType, "TypeError", "dict index must be a string", loc)
		}
		r[key] = value
		return nil
	case corelib.Tuple:
		return errs.New(errs.KindType, "TypeError", "tuples are immutable", loc)
	default:
		return errs.New(errs.KindType, "TypeError", fmt.Sprintf("%T does not support index assignment", recv), loc)
	}
}

func (i *Interpreter) iterate(iterable any, loc ast.Location) ([]any, *errs.DanaException) {
	switch v := iterable.(type) {
	case []any:
		return v, nil
	case corelib.Tuple:
		return []any(v), nil
	case *corelib.Set:
		return v.Items(), nil
	case map[string]any:
		out := make([]any, 0, len(v))
		for k := range v {
			out = append(out, k)
		}
		return out, nil
	case string:
		out := make([]any, 0, len(v))
		for _, r := range v {
			out = append(out, string(r))
		}
		return out, nil
	default:
		return nil, errs.New(errs.KindType, "TypeError", fmt.Sprintf("%T is not iterable", iterable), loc)
	}
}

func (i *Interpreter) evalPipeline(n *ast.PipelineExpression, ctx *sandbox.Context) (any, *errs.DanaException) {
	left, derr := i.eval(n.Left, ctx)
	if derr != nil {
		return nil, derr
	}
	right, derr := i.eval(n.Right, ctx)
	if derr != nil {
		return nil, derr
	}
	lc, derr := i.asCallable(left, n.Loc())
	if derr != nil {
		return nil, derr
	}
	rc, derr := i.asCallable(right, n.Loc())
	if derr != nil {
		return nil, derr
	}
	return corelib.Compose(lc, rc), nil
}

func (i *Interpreter) asCallable(v any, loc ast.Location) (corelib.Callable, *errs.DanaException) {
	if c, ok := v.(corelib.Callable); ok {
		return c, nil
	}
	return nil, errs.New(errs.KindType, "TypeError", fmt.Sprintf("%T is not callable", v), loc)
}

func (i *Interpreter) toException(value any, loc ast.Location) *errs.DanaException {
	switch v := value.(type) {
	case *errs.DanaException:
		return v
	case string:
		return errs.New(errs.KindDana, "DanaError", v, loc)
	case *types.StructInstance:
		return errs.New(errs.KindDana, v.Type.Name, exceptionMessage(v), loc)
	case *types.AgentInstance:
		return errs.New(errs.KindDana, v.Type.Name, exceptionMessage(v), loc)
	case *types.ResourceInstance:
		return errs.New(errs.KindDana, v.Type.Name, exceptionMessage(v), loc)
	default:
		return errs.New(errs.KindDana, "DanaError", coercion.ToText(value), loc)
	}
}

// exceptionMessage prefers an instance's "message" field, falling back to
// its canonical to_text rendering when the type declares none.
func exceptionMessage(g fieldGetter) string {
	if m, ok := g.Get("message"); ok {
		return coercion.ToText(m)
	}
	return coercion.ToText(g)
}
