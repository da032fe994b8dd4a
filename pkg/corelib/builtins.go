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

// Package corelib implements DANA's core built-in functions: print,
// log/log_level, reason, the primitive/container type constructors, and
// pipeline composition over callables. Grounded on
// original_source/opendxa/dana/sandbox/interpreter/functions/core's
// print/log/log_level split, adapted to DANA's registry/coercion/resource
// stack.
package corelib

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/dana-lang/dana/pkg/ast"
	"github.com/dana-lang/dana/pkg/coercion"
	"github.com/dana-lang/dana/pkg/errs"
	"github.com/dana-lang/dana/pkg/llmresource"
	"github.com/dana-lang/dana/pkg/logger"
	"github.com/dana-lang/dana/pkg/registry"
	"github.com/dana-lang/dana/pkg/sandbox"
)

// Func is the shape every core builtin implements: positional args in
// call order, keyword/option arguments by name, the caller's context
// (trusted builtins use it for scope-aware logging and the system LLM
// resource), and the call-site Location for error attribution.
type Func func(ctx *sandbox.Context, args []any, opts map[string]any, loc ast.Location) (any, *errs.DanaException)

// Callable is the uniform invocable value `f(...)`, `|` composition, and
// the function registry all operate on: a DANA function, a host Func, or
// a *Pipeline.
type Callable interface {
	Call(ctx *sandbox.Context, args []any, opts map[string]any, loc ast.Location) (any, *errs.DanaException)
}

// funcAdapter lets a bare Func satisfy Callable.
type funcAdapter Func

func (f funcAdapter) Call(ctx *sandbox.Context, args []any, opts map[string]any, loc ast.Location) (any, *errs.DanaException) {
	return f(ctx, args, opts, loc)
}

// AsCallable wraps fn so it satisfies Callable.
func AsCallable(fn Func) Callable { return funcAdapter(fn) }

// Pipeline is the value `f | g` produces: applying it runs f then feeds
// f's result as g's sole argument. Composition itself never creates a
// promise; whichever of f/g does is free to.
type Pipeline struct {
	stages []Callable
}

// Compose builds a Pipeline from f then g, flattening either one that is
// itself a Pipeline so `(f | g) | h` and `f | (g | h)` produce the same stage list.
func Compose(f, g Callable) *Pipeline {
	stages := []Callable{f}
	if p, ok := f.(*Pipeline); ok {
		stages = p.stages
	}
	if p, ok := g.(*Pipeline); ok {
		stages = append(stages, p.stages...)
	} else {
		stages = append(stages, g)
	}
	return &Pipeline{stages: stages}
}

// Call runs the pipeline's stages in order, passing each stage's single
// return value as the next stage's sole argument.
func (p *Pipeline) Call(ctx *sandbox.Context, args []any, opts map[string]any, loc ast.Location) (any, *errs.DanaException) {
	var result any
	var derr *errs.DanaException
	current := args
	for i, stage := range p.stages {
		result, derr = stage.Call(ctx, current, opts, loc)
		if derr != nil {
			return nil, derr
		}
		if i < len(p.stages)-1 {
			current = []any{result}
		}
	}
	return result, nil
}

// Print implements the `print` builtin: positional args are rendered via
// coercion.ToText, joined with a single space, and written to stdout.
// Unlike `log`, print never goes through the logger or scope filter.
func Print(_ *sandbox.Context, args []any, _ map[string]any, _ ast.Location) (any, *errs.DanaException) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = coercion.ToText(a)
	}
	fmt.Fprintln(os.Stdout, strings.Join(parts, " "))
	return nil, nil
}

// scopeForContext picks the log scope a call site defaults to when it
// doesn't name one explicitly: local inside a function body, private at
// module top level, matching the auto-scoping default-write rule.
func scopeForContext(ctx *sandbox.Context) logger.ScopeLevel {
	if ctx != nil && ctx.InFunction {
		return logger.ScopeLocal
	}
	return logger.ScopePrivate
}

// Log implements the `log(message, level?)` builtin.
func Log(ctx *sandbox.Context, args []any, opts map[string]any, loc ast.Location) (any, *errs.DanaException) {
	if len(args) < 1 {
		return nil, errs.New(errs.KindType, "TypeError", "log() requires a message argument", loc)
	}
	message := coercion.ToText(args[0])

	levelStr := "info"
	if len(args) >= 2 {
		levelStr = coercion.ToText(args[1])
	} else if v, ok := opts["level"]; ok {
		levelStr = coercion.ToText(v)
	}

	level, err := parseLevel(levelStr)
	if err != nil {
		return nil, errs.New(errs.KindType, "ValueError", err.Error(), loc)
	}

	scope := scopeForContext(ctx)
	if v, ok := opts["scope"]; ok {
		if s, serr := logger.ParseScopeLevel(coercion.ToText(v)); serr == nil {
			scope = s
		}
	}

	logger.Log(level, scope, message)
	return nil, nil
}

// LogLevel implements the `log_level(level)` builtin, changing the
// process-wide minimum log level at runtime.
func LogLevel(_ *sandbox.Context, args []any, opts map[string]any, loc ast.Location) (any, *errs.DanaException) {
	levelStr := ""
	if len(args) >= 1 {
		levelStr = coercion.ToText(args[0])
	} else if v, ok := opts["level"]; ok {
		levelStr = coercion.ToText(v)
	}
	level, err := parseLevel(levelStr)
	if err != nil {
		return nil, errs.New(errs.KindType, "ValueError", err.Error(), loc)
	}
	logger.SetLevel(level)
	return nil, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", s)
	}
}

// ReasonDeps bundles what `reason()` needs beyond a single call's
// arguments: the type registry (for expected_type coercion) and the
// coercion strategy in effect.
type ReasonDeps struct {
	Types    *registry.TypeRegistry
	Strategy coercion.Strategy
}

// NewReason builds the `reason(prompt, options?, use_mock?)` builtin
// bound to deps.
func NewReason(deps ReasonDeps) Func {
	engine := coercion.New(deps.Strategy, deps.Types)
	return func(ctx *sandbox.Context, args []any, opts map[string]any, loc ast.Location) (any, *errs.DanaException) {
		if len(args) < 1 {
			return nil, errs.New(errs.KindType, "TypeError", "reason() requires a prompt argument", loc)
		}
		prompt, ok := args[0].(string)
		if !ok {
			return nil, errs.New(errs.KindType, "TypeError", "reason() prompt must be a string", loc)
		}

		useMock := mockLLMEnabled()
		if v, present := opts["use_mock"]; present {
			useMock = coercion.Truthy(v)
		}

		backend := resolveLLM(ctx, useMock)

		completeOpts := map[string]any{"temperature": 0.7}
		for _, key := range []string{"temperature", "max_tokens", "system_message", "format"} {
			if v, present := opts[key]; present {
				completeOpts[key] = v
			}
		}
		for key, v := range opts {
			switch key {
			case "temperature", "max_tokens", "system_message", "format", "expected_type", "use_mock":
				continue
			default:
				completeOpts[key] = v // named context variables, never `system.*`
			}
		}

		raw, err := backend.Complete(prompt, completeOpts)
		if err != nil {
			return nil, errs.Wrap(errs.KindResource, "ResourceError", fmt.Sprintf("reason() call failed: %v", err), loc, err)
		}

		if expectedType, ok := opts["expected_type"].(string); ok && expectedType != "" {
			value, derr := engine.CoerceToType(raw, expectedType, loc)
			if derr != nil {
				return nil, derr
			}
			return value, nil
		}
		return raw, nil
	}
}

// mockLLMEnabled reports the DANA_MOCK_LLM environment toggle.
func mockLLMEnabled() bool {
	return strings.EqualFold(os.Getenv("DANA_MOCK_LLM"), "true")
}

func resolveLLM(ctx *sandbox.Context, useMock bool) llmresource.Resource {
	if !useMock && ctx != nil {
		if res := ctx.GetSystemLLMResource(); res != nil {
			if r, ok := res.(llmresource.Resource); ok {
				return r
			}
		}
	}
	return llmresource.Wrap(&llmresource.MockBackend{})
}

// Str/Int/Float/Bool/List/Dict/SetFn/TupleFn implement the primitive and
// container type constructors §4.6 names. Each accepts zero arguments
// (returning the type's empty or zero value) or one argument to convert;
// only the first argument is read.

func Str(_ *sandbox.Context, args []any, _ map[string]any, loc ast.Location) (any, *errs.DanaException) {
	if len(args) == 0 {
		return "", nil
	}
	return coercion.ToText(args[0]), nil
}

func Int(_ *sandbox.Context, args []any, _ map[string]any, loc ast.Location) (any, *errs.DanaException) {
	if len(args) == 0 {
		return int64(0), nil
	}
	switch v := args[0].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, errs.New(errs.KindCoercion, "ValueError", fmt.Sprintf("cannot convert %q to int", v), loc)
		}
		return n, nil
	default:
		return nil, errs.New(errs.KindType, "TypeError", fmt.Sprintf("cannot convert %T to int", v), loc)
	}
}

func Float(_ *sandbox.Context, args []any, _ map[string]any, loc ast.Location) (any, *errs.DanaException) {
	if len(args) == 0 {
		return 0.0, nil
	}
	switch v := args[0].(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, errs.New(errs.KindCoercion, "ValueError", fmt.Sprintf("cannot convert %q to float", v), loc)
		}
		return f, nil
	default:
		return nil, errs.New(errs.KindType, "TypeError", fmt.Sprintf("cannot convert %T to float", v), loc)
	}
}

func Bool(_ *sandbox.Context, args []any, _ map[string]any, _ ast.Location) (any, *errs.DanaException) {
	if len(args) == 0 {
		return false, nil
	}
	return coercion.Truthy(args[0]), nil
}

func List(_ *sandbox.Context, args []any, _ map[string]any, loc ast.Location) (any, *errs.DanaException) {
	if len(args) == 0 {
		return []any{}, nil
	}
	if items, ok := toSlice(args[0]); ok {
		return append([]any{}, items...), nil
	}
	return nil, errs.New(errs.KindType, "TypeError", fmt.Sprintf("cannot convert %T to list", args[0]), loc)
}

func TupleFn(_ *sandbox.Context, args []any, _ map[string]any, loc ast.Location) (any, *errs.DanaException) {
	if len(args) == 0 {
		return Tuple{}, nil
	}
	if items, ok := toSlice(args[0]); ok {
		return Tuple(append([]any{}, items...)), nil
	}
	return nil, errs.New(errs.KindType, "TypeError", fmt.Sprintf("cannot convert %T to tuple", args[0]), loc)
}

func SetFn(_ *sandbox.Context, args []any, _ map[string]any, loc ast.Location) (any, *errs.DanaException) {
	if len(args) == 0 {
		return NewSet(), nil
	}
	items, ok := toSlice(args[0])
	if !ok {
		return nil, errs.New(errs.KindType, "TypeError", fmt.Sprintf("cannot convert %T to set", args[0]), loc)
	}
	return NewSet(items...), nil
}

func Dict(_ *sandbox.Context, args []any, _ map[string]any, loc ast.Location) (any, *errs.DanaException) {
	if len(args) == 0 {
		return map[string]any{}, nil
	}
	m, ok := args[0].(map[string]any)
	if !ok {
		return nil, errs.New(errs.KindType, "TypeError", fmt.Sprintf("cannot convert %T to dict", args[0]), loc)
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out, nil
}

// RegisterAll registers every core builtin into funcs under the `core`
// namespace, trusted (they receive the SandboxContext) since print/log/
// reason all need scope- or resource-aware behavior.
func RegisterAll(funcs *registry.FunctionRegistry, deps ReasonDeps) error {
	entries := map[string]Func{
		"print":     Print,
		"log":       Log,
		"log_level": LogLevel,
		"reason":    NewReason(deps),
		"str":       Str,
		"int":       Int,
		"float":     Float,
		"bool":      Bool,
		"list":      List,
		"dict":      Dict,
		"set":       SetFn,
		"tuple":     TupleFn,
	}
	for name, fn := range entries {
		entry := &registry.FunctionEntry{
			Name:              name,
			Namespace:         registry.NamespaceCore,
			Kind:              registry.FunctionPython,
			Callable:          AsCallable(fn),
			TrustedForContext: true,
		}
		if err := funcs.Register(entry); err != nil {
			return fmt.Errorf("registering core builtin %q: %w", name, err)
		}
	}
	return nil
}
