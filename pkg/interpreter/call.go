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
	"github.com/dana-lang/dana/pkg/concurrency"
	"github.com/dana-lang/dana/pkg/corelib"
	"github.com/dana-lang/dana/pkg/errs"
	"github.com/dana-lang/dana/pkg/registry"
	"github.com/dana-lang/dana/pkg/sandbox"
	"github.com/dana-lang/dana/pkg/types"
)

// funcValue lets a resolved FunctionRegistry entry flow through the
// interpreter as an ordinary value — assigned to a variable, passed as an
// argument, or composed into a pipeline with `|`.
type funcValue struct {
	interp *Interpreter
	entry  *registry.FunctionEntry
}

func (f *funcValue) Call(ctx *sandbox.Context, args []any, opts map[string]any, loc ast.Location) (any, *errs.DanaException) {
	return f.interp.invoke(f.entry, ctx, args, opts, loc, nil)
}

func (i *Interpreter) evalArgs(n *ast.FunctionCall, ctx *sandbox.Context) ([]any, map[string]any, *errs.DanaException) {
	var positional []any
	opts := map[string]any{}
	for _, a := range n.Args {
		v, derr := i.eval(a.Value, ctx)
		if derr != nil {
			return nil, nil, derr
		}
		v, derr = i.resolveValue(v, n.Loc())
		if derr != nil {
			return nil, nil, derr
		}
		if a.Name == "" {
			positional = append(positional, v)
		} else {
			opts[a.Name] = v
		}
	}
	return positional, opts, nil
}

func (i *Interpreter) evalCall(n *ast.FunctionCall, ctx *sandbox.Context) (any, *errs.DanaException) {
	args, opts, derr := i.evalArgs(n, ctx)
	if derr != nil {
		return nil, derr
	}

	if n.Receiver != nil {
		recv, derr := i.eval(n.Receiver, ctx)
		if derr != nil {
			return nil, derr
		}
		recv, derr = i.resolveValue(recv, n.Loc())
		if derr != nil {
			return nil, derr
		}
		return i.evalMethodCall(recv, n.Name, ctx, args, opts, n.Loc())
	}

	// A bare name may be a local variable holding a callable (a function
	// passed as an argument, or a pipeline), checked before the function
	// registry so shadowing works the way auto-scoped variable lookup does
	// everywhere else.
	if v, ok := ctx.Resolve("", n.Name); ok {
		if c, ok := v.(corelib.Callable); ok {
			return c.Call(ctx, args, opts, n.Loc())
		}
	}

	// A call against a registered type name constructs an instance rather
	// than invoking a function; checked before the function registry since
	// struct/agent/resource names and function names share no namespace
	// but a call site can't otherwise tell them apart.
	if td, ok := i.Types.Get(n.Name); ok {
		return i.construct(td, ctx, args, opts, n.Loc())
	}

	entry, ok := i.Functions.Resolve(n.Name)
	if !ok {
		return nil, errs.New(errs.KindName, "NameError", fmt.Sprintf("undefined function %q", n.Name), n.Loc())
	}
	return i.invoke(entry, ctx, args, opts, n.Loc(), nil)
}

// construct builds a new instance of td, filling fields by name from opts
// first, then by declaration order from the remaining positional args,
// then from the field's default expression, erroring if a required field
// is left unset.
func (i *Interpreter) construct(td *types.TypeDescriptor, ctx *sandbox.Context, args []any, opts map[string]any, loc ast.Location) (any, *errs.DanaException) {
	fields := td.AllFields()
	values := make(map[string]any, len(fields))
	posIdx := 0
	for _, f := range fields {
		if v, ok := opts[f.Name]; ok {
			values[f.Name] = v
			continue
		}
		if posIdx < len(args) {
			values[f.Name] = args[posIdx]
			posIdx++
			continue
		}
		if f.Default != nil {
			v, derr := i.eval(f.Default, ctx)
			if derr != nil {
				return nil, derr
			}
			values[f.Name] = v
			continue
		}
		return nil, errs.New(errs.KindType, "TypeError", fmt.Sprintf("%s() missing required field %q", td.Name, f.Name), loc)
	}

	switch td.Category {
	case types.CategoryAgent:
		return types.NewAgentInstance(td, values), nil
	case types.CategoryResource:
		return types.NewResourceInstance(td, values), nil
	default:
		return types.NewStructInstance(td, values), nil
	}
}

// invoke dispatches entry: a python (host) entry runs synchronously on the
// calling goroutine, while a dana entry runs through the promise limiter
// so user-defined calls participate in DANA's eager concurrency model.
func (i *Interpreter) invoke(entry *registry.FunctionEntry, ctx *sandbox.Context, args []any, opts map[string]any, loc ast.Location, self any) (any, *errs.DanaException) {
	switch entry.Kind {
	case registry.FunctionPython:
		callable, ok := entry.Callable.(corelib.Callable)
		if !ok {
			return nil, errs.New(errs.KindFatal, "Fatal", fmt.Sprintf("function %q has a malformed registration", entry.Name), loc)
		}
		return callable.Call(ctx, args, opts, loc)

	case registry.FunctionDana:
		fn, ok := entry.Callable.(*ast.FunctionDefinition)
		if !ok {
			return nil, errs.New(errs.KindFatal, "Fatal", fmt.Sprintf("function %q has a malformed registration", entry.Name), loc)
		}
		return i.callDanaFunction(fn, ctx, args, opts, loc, self)

	default:
		return nil, errs.New(errs.KindFatal, "Fatal", fmt.Sprintf("unknown function kind %q", entry.Kind), loc)
	}
}

// callDanaFunction binds fn's parameters into a fresh frame off ctx and
// runs its body through the promise limiter, so every user-defined call is
// eager by default: it starts on its own goroutine immediately and the
// caller blocks only when it actually observes the result.
func (i *Interpreter) callDanaFunction(fn *ast.FunctionDefinition, ctx *sandbox.Context, args []any, opts map[string]any, loc ast.Location, self any) (any, *errs.DanaException) {
	frame := ctx.NewFunctionFrame()
	if self != nil {
		frame.BindLocal("self", self)
	}

	for idx, p := range fn.Params {
		optVal, hasOpt := opts[p.Name]
		switch {
		case idx < len(args):
			frame.BindLocal(p.Name, args[idx])
		case hasOpt:
			frame.BindLocal(p.Name, optVal)
		case p.Default != nil:
			v, derr := i.eval(p.Default, frame)
			if derr != nil {
				return nil, derr
			}
			frame.BindLocal(p.Name, v)
		default:
			return nil, errs.New(errs.KindType, "TypeError",
				fmt.Sprintf("%s() missing required argument %q", fn.Name, p.Name), loc)
		}
	}

	compute := func() (any, error) {
		value, ctrl, derr := i.execStmts(fn.Body, frame, fn.Name)
		if derr != nil {
			derr.PushFrame(fn.Name, loc)
			return nil, derr
		}
		if ctrl != nil {
			return ctrl.Value, nil
		}
		return value, nil
	}

	result := i.Limiter.CreatePromiseAtDepth(frame.PromiseDepth, compute, i.submit)
	return unwrapPromiseResult(result, loc)
}

// unwrapPromiseResult converts the limiter's *concurrency.ResolvedError
// sentinel back into a *errs.DanaException, preserving it unwrapped if it
// already was one.
func unwrapPromiseResult(result any, loc ast.Location) (any, *errs.DanaException) {
	re, ok := result.(*concurrency.ResolvedError)
	if !ok {
		return result, nil
	}
	if de, ok := re.Err.(*errs.DanaException); ok {
		return nil, de
	}
	return nil, errs.Wrap(errs.KindFatal, "Fatal", re.Err.Error(), loc, re.Err)
}

// resourceLifecycleMethods are dispatched straight to pkg/resource rather
// than looked up as a user-defined or corelib method.
var resourceLifecycleMethods = map[string]bool{
	"initialize": true, "start": true, "stop": true, "cleanup": true,
}

func (i *Interpreter) evalMethodCall(recv any, name string, ctx *sandbox.Context, args []any, opts map[string]any, loc ast.Location) (any, *errs.DanaException) {
	switch r := recv.(type) {
	case *types.StructInstance:
		return i.callUserMethod(r.Type, r, name, ctx, args, opts, loc)

	case *types.AgentInstance:
		if fn, ok := r.Type.Method(name); ok {
			return i.callDanaFunction(fn, ctx, args, opts, loc, r)
		}
		if methodFn, ok := i.Methods.Get(r.Type.Name, name); ok {
			return i.callDanaFunction(methodFn, ctx, args, opts, loc, r)
		}
		for _, builtin := range types.AgentMethodNames {
			if builtin == name {
				return i.builtinAgentMethod(name, r, ctx, args, opts, loc)
			}
		}
		return nil, errs.New(errs.KindName, "AttributeError", fmt.Sprintf("agent %s has no method %q", r.Type.Name, name), loc)

	case *types.ResourceInstance:
		if fn, ok := r.Type.Method(name); ok {
			return i.callDanaFunction(fn, ctx, args, opts, loc, r)
		}
		if methodFn, ok := i.Methods.Get(r.Type.Name, name); ok {
			return i.callDanaFunction(methodFn, ctx, args, opts, loc, r)
		}
		if resourceLifecycleMethods[name] {
			return i.resourceMethod(name, r, loc)
		}
		return nil, errs.New(errs.KindName, "AttributeError", fmt.Sprintf("resource %s has no method %q", r.Type.Name, name), loc)

	case corelib.Callable:
		if name == "call" {
			return r.Call(ctx, args, opts, loc)
		}
		return nil, errs.New(errs.KindName, "AttributeError", fmt.Sprintf("callable has no method %q", name), loc)

	default:
		return nil, errs.New(errs.KindType, "TypeError", fmt.Sprintf("%T has no methods", recv), loc)
	}
}

func (i *Interpreter) callUserMethod(td *types.TypeDescriptor, self any, name string, ctx *sandbox.Context, args []any, opts map[string]any, loc ast.Location) (any, *errs.DanaException) {
	if fn, ok := td.Method(name); ok {
		return i.callDanaFunction(fn, ctx, args, opts, loc, self)
	}
	if methodFn, ok := i.Methods.Get(td.Name, name); ok {
		return i.callDanaFunction(methodFn, ctx, args, opts, loc, self)
	}
	return nil, errs.New(errs.KindName, "AttributeError", fmt.Sprintf("%s has no method %q", td.Name, name), loc)
}

func (i *Interpreter) resourceMethod(name string, inst *types.ResourceInstance, loc ast.Location) (any, *errs.DanaException) {
	mgr := i.managers.managerFor(inst)
	var derr *errs.DanaException
	switch name {
	case "initialize":
		derr = mgr.Initialize()
	case "start":
		derr = mgr.Start()
	case "stop":
		derr = mgr.Stop()
	case "cleanup":
		derr = mgr.Cleanup()
	default:
		return nil, errs.New(errs.KindName, "AttributeError", fmt.Sprintf("resource %s has no method %q", inst.Type.Name, name), loc)
	}
	if derr != nil {
		i.Metrics.RecordResourceError(inst.Type.Name, name)
		return nil, derr
	}
	i.Metrics.RecordResourceTransition(inst.Type.Name, inst.State)
	return nil, nil
}
