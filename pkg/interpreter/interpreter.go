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

// Package interpreter implements DANA's tree-walking evaluator: the
// statement/expression dispatch loop that drives the AST against the
// sandbox context, coercion engine, registries, and concurrency layer.
package interpreter

import (
	"github.com/dana-lang/dana/pkg/ast"
	"github.com/dana-lang/dana/pkg/coercion"
	"github.com/dana-lang/dana/pkg/concurrency"
	"github.com/dana-lang/dana/pkg/corelib"
	"github.com/dana-lang/dana/pkg/errs"
	"github.com/dana-lang/dana/pkg/metrics"
	"github.com/dana-lang/dana/pkg/module"
	"github.com/dana-lang/dana/pkg/registry"
	"github.com/dana-lang/dana/pkg/sandbox"
)

// Interpreter bundles every registry and engine the evaluator consults.
// One Interpreter serves an entire process; each loaded module gets its
// own sandbox.Context sharing these registries.
type Interpreter struct {
	Types     *registry.TypeRegistry
	Functions *registry.FunctionRegistry
	Methods   *registry.MethodRegistry
	Coercion  *coercion.Engine
	Limiter   *concurrency.PromiseLimiter
	Loader    *module.Loader
	Metrics   *metrics.Metrics
	Pool      *concurrency.WorkerPool

	managers *resourceManagers
}

// Config collects the knobs New needs. A nil Limiter or Pool picks the
// process-wide default; Strategy is used as given, so its zero value is
// StrategyNone. Metrics is optional — a nil value is an
// inert no-op receiver, so a caller that doesn't build a *metrics.Metrics
// pays nothing for it.
type Config struct {
	Strategy coercion.Strategy
	Limiter  *concurrency.PromiseLimiter
	Loader   *module.Loader
	Metrics  *metrics.Metrics
	Pool     *concurrency.WorkerPool
}

// New builds an Interpreter with fresh registries, registers the core
// builtins (pkg/corelib) into the function registry, and — if cfg.Loader
// is set — wires the loader's Executor back to this interpreter so
// imported modules actually run.
func New(cfg Config) (*Interpreter, error) {
	types := registry.NewTypeRegistry()
	functions := registry.NewFunctionRegistry()
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = concurrency.GlobalPromiseLimiter()
	}
	pool := cfg.Pool
	if pool == nil {
		pool = concurrency.GlobalWorkerPool()
	}

	interp := &Interpreter{
		Types:     types,
		Functions: functions,
		Methods:   registry.NewMethodRegistry(),
		Coercion:  coercion.New(cfg.Strategy, types),
		Limiter:   limiter,
		Loader:    cfg.Loader,
		Metrics:   cfg.Metrics,
		Pool:      pool,
		managers:  newResourceManagers(),
	}

	deps := corelib.ReasonDeps{Types: types, Strategy: cfg.Strategy}
	if err := corelib.RegisterAll(functions, deps); err != nil {
		return nil, err
	}

	if cfg.Loader != nil {
		cfg.Loader.Execute = func(mod *module.Module) error {
			ctx := sandbox.NewModuleContextWithMaps(mod.Name, mod.Private, mod.Public)
			_, _, derr := interp.ExecProgram(mod.Program, ctx, mod.Name)
			if derr != nil {
				return derr
			}
			return nil
		}
	}

	return interp, nil
}

// submit dispatches a promise's computation onto the bounded worker
// pool (default size = runtime.NumCPU()); Submit blocks the calling
// goroutine only long enough to acquire a free worker slot.
func (i *Interpreter) submit(task func()) { i.Pool.Submit(task) }

// ExecProgram runs every top-level statement of program against ctx,
// returning the value of the final expression statement (REPL display
// convention) alongside any uncaught exception.
func (i *Interpreter) ExecProgram(program *ast.Program, ctx *sandbox.Context, frame string) (any, *ctrl, *errs.DanaException) {
	return i.execStmts(program.Statements, ctx, frame)
}

// Run is the convenience entry point for a freshly loaded top-level
// module: it builds a module context, executes program, and formats any
// uncaught exception's traceback with the module name as its outermost
// frame.
func (i *Interpreter) Run(program *ast.Program, moduleName string) (any, *errs.DanaException) {
	ctx := sandbox.NewModuleContext(moduleName)
	value, _, derr := i.ExecProgram(program, ctx, moduleName)
	if derr != nil {
		derr.PushFrame(moduleName, program.Loc())
		return nil, derr
	}
	// The trailing expression's value crosses out of the interpreter here
	// (REPL display, or the caller embedding Dana), which is itself an
	// observation point: the caller never sees an unresolved promise.
	value, derr = i.resolveValue(value, program.Loc())
	if derr != nil {
		derr.PushFrame(moduleName, program.Loc())
		return nil, derr
	}
	return value, nil
}
