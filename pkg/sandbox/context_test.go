package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dana-lang/dana/pkg/ast"
)

func newCtx(t *testing.T) *Context {
	t.Cleanup(ClearSystem)
	return NewModuleContext("m")
}

func TestResolveUnscopedPrefersLocalOverPrivate(t *testing.T) {
	c := newCtx(t)
	c.local["x"] = "local-val"
	c.private["x"] = "private-val"

	v, ok := c.Resolve("", "x")
	require.True(t, ok)
	assert.Equal(t, "local-val", v)
}

func TestResolveFallsThroughPrivatePublicSystem(t *testing.T) {
	c := newCtx(t)
	c.public["y"] = "public-val"

	v, ok := c.Resolve("", "y")
	require.True(t, ok)
	assert.Equal(t, "public-val", v)

	SetSystem("z", "system-val")
	v, ok = c.Resolve("", "z")
	require.True(t, ok)
	assert.Equal(t, "system-val", v)
}

func TestResolveMissingReturnsFalse(t *testing.T) {
	c := newCtx(t)
	_, ok := c.Resolve("", "nope")
	assert.False(t, ok)
}

func TestResolveExplicitScopeBypassesAutoscoping(t *testing.T) {
	c := newCtx(t)
	c.local["x"] = "local-val"
	c.private["x"] = "private-val"

	v, ok := c.Resolve("private", "x")
	require.True(t, ok)
	assert.Equal(t, "private-val", v)
}

func TestResolveCollapsesLocalPrefix(t *testing.T) {
	c := newCtx(t)
	c.local["x"] = 1
	v, ok := c.Resolve("", "local.x")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestAssignDefaultsToLocalInFunctionFrame(t *testing.T) {
	c := newCtx(t)
	frame := c.NewFunctionFrame()
	derr := frame.Assign("", "n", 5, ast.Location{})
	require.Nil(t, derr)

	v, ok := frame.local["n"]
	assert.True(t, ok)
	assert.Equal(t, 5, v)
}

func TestAssignDefaultsToPrivateAtModuleTopLevel(t *testing.T) {
	c := newCtx(t)
	derr := c.Assign("", "n", 5, ast.Location{})
	require.Nil(t, derr)

	v, ok := c.private["n"]
	assert.True(t, ok)
	assert.Equal(t, 5, v)
}

func TestAssignSystemScopeRejected(t *testing.T) {
	c := newCtx(t)
	derr := c.Assign("system", "n", 5, ast.Location{})
	require.NotNil(t, derr)
	assert.Equal(t, "ScopeError", derr.Type)
}

func TestAssignPublicWritesSharedMap(t *testing.T) {
	c := newCtx(t)
	derr := c.Assign("public", "cfg", "value", ast.Location{})
	require.Nil(t, derr)
	assert.Equal(t, "value", c.public["cfg"])
}

func TestFunctionFrameSharesPrivatePublicNotLocal(t *testing.T) {
	c := newCtx(t)
	c.private["shared"] = 1
	frame := c.NewFunctionFrame()

	v, ok := frame.get(ScopePrivate, "shared")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	frame.local["onlyframe"] = true
	_, ok = c.local["onlyframe"]
	assert.False(t, ok)
}

func TestLookupLocalChainStopsAtModuleBoundary(t *testing.T) {
	c := newCtx(t)
	c.local["moduleVar"] = "top"
	frame := c.NewFunctionFrame()

	_, ok := frame.lookupLocalChain("moduleVar")
	assert.False(t, ok, "a function frame must not see the enclosing module frame's locals")
}

func TestNestedFunctionFramesChainLocals(t *testing.T) {
	c := newCtx(t)
	outer := c.NewFunctionFrame()
	outer.local["n"] = 1
	inner := outer.NewFunctionFrame()

	v, ok := inner.lookupLocalChain("n")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestBindAndUnbindLocal(t *testing.T) {
	c := newCtx(t)
	c.BindLocal("e", "boom")
	v, ok := c.local["e"]
	require.True(t, ok)
	assert.Equal(t, "boom", v)

	c.UnbindLocal("e")
	_, ok = c.local["e"]
	assert.False(t, ok)
}

func TestActiveExceptionAbsentAfterSettingNil(t *testing.T) {
	c := newCtx(t)
	c.SetActiveException(nil)
	_, ok := c.ActiveException()
	assert.False(t, ok)
}

func TestAttachAndGetResources(t *testing.T) {
	c := newCtx(t)
	c.AttachResource("db", "handle")
	assert.Equal(t, "handle", c.GetResources()["db"])
}

func TestSystemLLMResourceInheritedFromParent(t *testing.T) {
	c := newCtx(t)
	c.SetSystemLLMResource("root-llm")
	frame := c.NewFunctionFrame()
	assert.Equal(t, "root-llm", frame.GetSystemLLMResource())
}

func TestModuleContextWithMapsSharesBackingMaps(t *testing.T) {
	private := map[string]any{}
	public := map[string]any{}
	c := NewModuleContextWithMaps("m", private, public)
	c.private["x"] = 1
	assert.Equal(t, 1, private["x"])
}
