package corelib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dana-lang/dana/pkg/ast"
	"github.com/dana-lang/dana/pkg/coercion"
	"github.com/dana-lang/dana/pkg/errs"
	"github.com/dana-lang/dana/pkg/registry"
	"github.com/dana-lang/dana/pkg/sandbox"
)

func TestReason_MockYesNo(t *testing.T) {
	t.Setenv("DANA_MOCK_LLM", "true")
	deps := ReasonDeps{Types: registry.NewTypeRegistry(), Strategy: coercion.StrategyEnhanced}
	reason := NewReason(deps)
	ctx := sandbox.NewModuleContext("m")

	result, derr := reason(ctx, []any{"should I proceed?"}, map[string]any{}, ast.Location{})
	require.Nil(t, derr)
	assert.Equal(t, "yes", result)
}

func TestReason_RequiresPrompt(t *testing.T) {
	deps := ReasonDeps{Types: registry.NewTypeRegistry(), Strategy: coercion.StrategyEnhanced}
	reason := NewReason(deps)
	ctx := sandbox.NewModuleContext("m")

	_, derr := reason(ctx, nil, map[string]any{}, ast.Location{})
	require.NotNil(t, derr)
	assert.Equal(t, "TypeError", derr.Type)
}

func TestInt_ConvertsString(t *testing.T) {
	ctx := sandbox.NewModuleContext("m")
	v, derr := Int(ctx, []any{"42"}, nil, ast.Location{})
	require.Nil(t, derr)
	assert.EqualValues(t, 42, v)
}

func TestSetFn_Dedupes(t *testing.T) {
	ctx := sandbox.NewModuleContext("m")
	v, derr := SetFn(ctx, []any{[]any{1, 2, 2, 3}}, nil, ast.Location{})
	require.Nil(t, derr)
	set, ok := v.(*Set)
	require.True(t, ok)
	assert.Equal(t, 3, set.Len())
}

func TestPipeline_ComposesInOrder(t *testing.T) {
	ctx := sandbox.NewModuleContext("m")

	inc := AsCallable(Func(func(_ *sandbox.Context, args []any, _ map[string]any, _ ast.Location) (any, *errs.DanaException) {
		return args[0].(int64) + 1, nil
	}))
	double := AsCallable(Func(func(_ *sandbox.Context, args []any, _ map[string]any, _ ast.Location) (any, *errs.DanaException) {
		return args[0].(int64) * 2, nil
	}))

	pipeline := Compose(inc, double)
	result, derr := pipeline.Call(ctx, []any{int64(3)}, nil, ast.Location{})
	require.Nil(t, derr)
	assert.EqualValues(t, 8, result) // (3+1)*2
}

func TestPipeline_FlattensNested(t *testing.T) {
	ctx := sandbox.NewModuleContext("m")

	inc := AsCallable(Func(func(_ *sandbox.Context, args []any, _ map[string]any, _ ast.Location) (any, *errs.DanaException) {
		return args[0].(int64) + 1, nil
	}))

	nested := Compose(Compose(inc, inc), inc)
	require.Len(t, nested.stages, 3)

	result, derr := nested.Call(ctx, []any{int64(0)}, nil, ast.Location{})
	require.Nil(t, derr)
	assert.EqualValues(t, 3, result)
}
