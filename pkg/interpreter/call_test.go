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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dana-lang/dana/pkg/ast"
	"github.com/dana-lang/dana/pkg/coercion"
	"github.com/dana-lang/dana/pkg/concurrency"
	"github.com/dana-lang/dana/pkg/metrics"
)

func TestUserFunctionCallReturnsValue(t *testing.T) {
	interp := newTestInterpreter(t)
	prog := program(
		&ast.FunctionDefinition{
			Name:   "square",
			Params: []ast.Param{{Name: "n"}},
			Body: []ast.Stmt{
				&ast.Return{Value: &ast.BinaryExpression{Left: ident("n"), Op: ast.OpMul, Right: ident("n")}},
			},
		},
		exprStmt(&ast.FunctionCall{Name: "square", Args: []ast.Arg{{Value: intLit(6)}}}),
	)

	value, derr := interp.Run(prog, "m")
	require.Nil(t, derr)
	assert.Equal(t, int64(36), value)
}

func TestUserFunctionUsesParamDefault(t *testing.T) {
	interp := newTestInterpreter(t)
	prog := program(
		&ast.FunctionDefinition{
			Name:   "greet",
			Params: []ast.Param{{Name: "who", Default: strLit("world")}},
			Body: []ast.Stmt{
				&ast.Return{Value: &ast.BinaryExpression{Left: strLit("hello "), Op: ast.OpAdd, Right: ident("who")}},
			},
		},
		exprStmt(&ast.FunctionCall{Name: "greet"}),
	)

	value, derr := interp.Run(prog, "m")
	require.Nil(t, derr)
	assert.Equal(t, "hello world", value)
}

func TestUserFunctionMissingArgErrors(t *testing.T) {
	interp := newTestInterpreter(t)
	prog := program(
		&ast.FunctionDefinition{
			Name:   "needsArg",
			Params: []ast.Param{{Name: "n"}},
			Body:   []ast.Stmt{&ast.Return{Value: ident("n")}},
		},
		exprStmt(&ast.FunctionCall{Name: "needsArg"}),
	)

	_, derr := interp.Run(prog, "m")
	require.NotNil(t, derr)
	assert.Equal(t, "TypeError", derr.Type)
}

func TestPipelineComposesUserFunctions(t *testing.T) {
	interp := newTestInterpreter(t)
	prog := program(
		&ast.FunctionDefinition{
			Name:   "inc",
			Params: []ast.Param{{Name: "n"}},
			Body:   []ast.Stmt{&ast.Return{Value: &ast.BinaryExpression{Left: ident("n"), Op: ast.OpAdd, Right: intLit(1)}}},
		},
		&ast.FunctionDefinition{
			Name:   "double",
			Params: []ast.Param{{Name: "n"}},
			Body:   []ast.Stmt{&ast.Return{Value: &ast.BinaryExpression{Left: ident("n"), Op: ast.OpMul, Right: intLit(2)}}},
		},
		assign(ident("pipeline"), &ast.PipelineExpression{Left: ident("inc"), Right: ident("double")}),
		exprStmt(&ast.FunctionCall{Receiver: nil, Name: "pipeline", Args: []ast.Arg{{Value: intLit(3)}}}),
	)

	value, derr := interp.Run(prog, "m")
	require.Nil(t, derr)
	assert.Equal(t, int64(8), value)
}

func TestResourceLifecycleTransitions(t *testing.T) {
	interp := newTestInterpreter(t)
	prog := program(
		&ast.ResourceDefinition{Name: "DB"},
		assign(ident("db"), &ast.FunctionCall{Name: "DB"}),
		exprStmt(&ast.FunctionCall{Receiver: ident("db"), Name: "initialize"}),
		exprStmt(&ast.FunctionCall{Receiver: ident("db"), Name: "start"}),
		exprStmt(&ast.MemberAccess{Receiver: ident("db"), Field: "state"}),
	)

	value, derr := interp.Run(prog, "m")
	require.Nil(t, derr)
	assert.Equal(t, "RUNNING", value)
}

func TestResourceLifecycleViolationErrors(t *testing.T) {
	interp := newTestInterpreter(t)
	prog := program(
		&ast.ResourceDefinition{Name: "DB"},
		assign(ident("db"), &ast.FunctionCall{Name: "DB"}),
		exprStmt(&ast.FunctionCall{Receiver: ident("db"), Name: "stop"}),
	)

	_, derr := interp.Run(prog, "m")
	require.NotNil(t, derr)
	assert.Equal(t, "StateError", string(derr.Kind))
}

func scrapeMetrics(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestResourceLifecycleTransitionRecordsMetric(t *testing.T) {
	m := metrics.New(nil)
	interp, err := New(Config{Strategy: coercion.StrategyEnhanced, Metrics: m})
	require.NoError(t, err)

	prog := program(
		&ast.ResourceDefinition{Name: "DB"},
		assign(ident("db"), &ast.FunctionCall{Name: "DB"}),
		exprStmt(&ast.FunctionCall{Receiver: ident("db"), Name: "initialize"}),
	)
	_, derr := interp.Run(prog, "m")
	require.Nil(t, derr)

	assert.Contains(t, scrapeMetrics(t, m), `dana_resource_transitions_total{state="INITIALIZED",type="DB"} 1`)
}

func TestResourceLifecycleViolationRecordsErrorMetric(t *testing.T) {
	m := metrics.New(nil)
	interp, err := New(Config{Strategy: coercion.StrategyEnhanced, Metrics: m})
	require.NoError(t, err)

	prog := program(
		&ast.ResourceDefinition{Name: "DB"},
		assign(ident("db"), &ast.FunctionCall{Name: "DB"}),
		exprStmt(&ast.FunctionCall{Receiver: ident("db"), Name: "stop"}),
	)
	_, derr := interp.Run(prog, "m")
	require.NotNil(t, derr)

	assert.Contains(t, scrapeMetrics(t, m), `dana_resource_errors_total{method="stop",type="DB"} 1`)
}

func TestAgentBuiltinRememberRecall(t *testing.T) {
	interp := newTestInterpreter(t)
	prog := program(
		&ast.AgentDefinition{Name: "Helper"},
		assign(ident("a"), &ast.FunctionCall{Name: "Helper"}),
		exprStmt(&ast.FunctionCall{Receiver: ident("a"), Name: "remember", Args: []ast.Arg{{Value: strLit("task")}, {Value: strLit("ship it")}}}),
		exprStmt(&ast.FunctionCall{Receiver: ident("a"), Name: "recall", Args: []ast.Arg{{Value: strLit("task")}}}),
	)

	value, derr := interp.Run(prog, "m")
	require.Nil(t, derr)
	assert.Equal(t, "ship it", value)
}

func TestRecursiveCallBeyondNestingDepthFallsBackSynchronously(t *testing.T) {
	limiter := concurrency.NewPromiseLimiter(64, 2, time.Second, 5, time.Second)
	interp, err := New(Config{Strategy: coercion.StrategyEnhanced, Limiter: limiter})
	require.NoError(t, err)

	prog := program(
		&ast.FunctionDefinition{
			Name:   "count",
			Params: []ast.Param{{Name: "n"}},
			Body: []ast.Stmt{
				&ast.Conditional{
					Condition: &ast.BinaryExpression{Left: ident("n"), Op: ast.OpLe, Right: intLit(0)},
					Body:      []ast.Stmt{&ast.Return{Value: intLit(0)}},
				},
				&ast.Return{Value: &ast.BinaryExpression{
					Left: intLit(1), Op: ast.OpAdd,
					Right: &ast.FunctionCall{Name: "count", Args: []ast.Arg{{Value: &ast.BinaryExpression{
						Left: ident("n"), Op: ast.OpSub, Right: intLit(1),
					}}}},
				}},
			},
		},
		exprStmt(&ast.FunctionCall{Name: "count", Args: []ast.Arg{{Value: intLit(5)}}}),
	)

	value, derr := interp.Run(prog, "m")
	require.Nil(t, derr)
	assert.Equal(t, int64(5), value)
	assert.Positive(t, limiter.Statistics().SynchronousFallbacks,
		"recursion past MaxNestingDepth must fall back synchronously rather than ignore depth")
}

func TestAgentBuiltinSolveUsesMockReasonBackend(t *testing.T) {
	t.Setenv("DANA_MOCK_LLM", "true")
	interp := newTestInterpreter(t)
	prog := program(
		&ast.AgentDefinition{Name: "Helper"},
		assign(ident("a"), &ast.FunctionCall{Name: "Helper"}),
		exprStmt(&ast.FunctionCall{Receiver: ident("a"), Name: "solve", Args: []ast.Arg{{Value: strLit("should I proceed?")}}}),
	)

	value, derr := interp.Run(prog, "m")
	require.Nil(t, derr)
	assert.Equal(t, "yes", value)
}
