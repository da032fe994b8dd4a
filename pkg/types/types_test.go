package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "struct", CategoryStruct.String())
	assert.Equal(t, "agent", CategoryAgent.String())
	assert.Equal(t, "resource", CategoryResource.String())
}

func TestNewAgentTypePrependsStateField(t *testing.T) {
	at := NewAgentType("Helper", []FieldSpec{{Name: "name", Type: "str"}}, nil, nil, "")
	require.Len(t, at.Fields, 2)
	assert.Equal(t, "state", at.Fields[0].Name)
	assert.Equal(t, "name", at.Fields[1].Name)
}

func TestNewResourceTypePrependsStateField(t *testing.T) {
	rt := NewResourceType("DB", []FieldSpec{{Name: "dsn", Type: "str"}}, nil, nil, "")
	require.Len(t, rt.Fields, 2)
	assert.Equal(t, "state", rt.Fields[0].Name)
}

func TestAllFieldsWalksParentChainOutermostFirst(t *testing.T) {
	base := NewStructType("Base", []FieldSpec{{Name: "id", Type: "int"}}, nil, "")
	mid := NewStructType("Mid", []FieldSpec{{Name: "name", Type: "str"}}, base, "")
	leaf := NewStructType("Leaf", []FieldSpec{{Name: "extra", Type: "int"}}, mid, "")

	fields := leaf.AllFields()
	require.Len(t, fields, 3)
	assert.Equal(t, []string{"id", "name", "extra"}, []string{fields[0].Name, fields[1].Name, fields[2].Name})
}

func TestFieldTypeSearchesParentChain(t *testing.T) {
	base := NewStructType("Base", []FieldSpec{{Name: "id", Type: "int"}}, nil, "")
	leaf := NewStructType("Leaf", nil, base, "")

	typ, ok := leaf.FieldType("id")
	assert.True(t, ok)
	assert.Equal(t, "int", typ)

	_, ok = leaf.FieldType("missing")
	assert.False(t, ok)
}

func TestSameShapeIdenticalFields(t *testing.T) {
	a := NewStructType("A", []FieldSpec{{Name: "x", Type: "int"}}, nil, "")
	b := NewStructType("A", []FieldSpec{{Name: "x", Type: "int"}}, nil, "")
	assert.True(t, a.SameShape(b))
}

func TestSameShapeDiffersOnFieldCount(t *testing.T) {
	a := NewStructType("A", []FieldSpec{{Name: "x", Type: "int"}}, nil, "")
	b := NewStructType("A", []FieldSpec{{Name: "x", Type: "int"}, {Name: "y", Type: "int"}}, nil, "")
	assert.False(t, a.SameShape(b))
}

func TestSameShapeMatchesWhenBothDefaultsNil(t *testing.T) {
	a := NewStructType("A", []FieldSpec{{Name: "x", Type: "int"}}, nil, "")
	b := NewStructType("A", []FieldSpec{{Name: "x", Type: "int", Default: nil}}, nil, "")
	// both nil default -- same shape
	assert.True(t, a.SameShape(b))
}

func TestMethodMissingFromWholeParentChain(t *testing.T) {
	base := &TypeDescriptor{Name: "Base"}
	leaf := &TypeDescriptor{Name: "Leaf", Parent: base}
	_, ok := leaf.Method("greet")
	assert.False(t, ok)
}

func TestInstanceGetSet(t *testing.T) {
	i := &Instance{Type: &TypeDescriptor{Name: "T"}}
	_, ok := i.Get("x")
	assert.False(t, ok)

	i.Set("x", 42)
	v, ok := i.Get("x")
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestInstanceStringRendersFieldsInOrder(t *testing.T) {
	td := NewStructType("Point", []FieldSpec{{Name: "x", Type: "int"}, {Name: "y", Type: "int"}}, nil, "")
	inst := NewStructInstance(td, map[string]any{"x": 1, "y": 2})
	assert.Equal(t, "Point(x=1, y=2)", inst.String())
}

func TestNewAgentInstanceInitializesMemory(t *testing.T) {
	at := NewAgentType("Helper", nil, nil, nil, "")
	a := NewAgentInstance(at, nil)
	assert.NotNil(t, a.Memory)
}

func TestAgentInstanceRememberRecall(t *testing.T) {
	a := NewAgentInstance(NewAgentType("Helper", nil, nil, nil, ""), nil)
	a.Remember("task", "ship it")

	v, ok := a.Recall("task")
	assert.True(t, ok)
	assert.Equal(t, "ship it", v)

	_, ok = a.Recall("missing")
	assert.False(t, ok)
}

func TestAgentInstanceRecordTurnTrimsToMaxTurns(t *testing.T) {
	a := NewAgentInstance(NewAgentType("Helper", nil, nil, nil, ""), nil)
	a.RecordTurn("hi", "hello", 2)
	a.RecordTurn("how are you", "good", 2)
	a.RecordTurn("bye", "goodbye", 2)

	require.Len(t, a.Conversation, 2)
	assert.Equal(t, "how are you", a.Conversation[0].UserInput)
	assert.Equal(t, "bye", a.Conversation[1].UserInput)
}

func TestNewResourceInstanceStartsCreated(t *testing.T) {
	rt := NewResourceType("DB", nil, nil, nil, "")
	r := NewResourceInstance(rt, nil)
	assert.Equal(t, "CREATED", r.State)
	v, ok := r.Get("state")
	assert.True(t, ok)
	assert.Equal(t, "CREATED", v)
}

func TestNewResourceInstancePreservesGivenValues(t *testing.T) {
	rt := NewResourceType("DB", []FieldSpec{{Name: "dsn", Type: "str"}}, nil, nil, "")
	r := NewResourceInstance(rt, map[string]any{"dsn": "postgres://"})
	v, ok := r.Get("dsn")
	assert.True(t, ok)
	assert.Equal(t, "postgres://", v)
}
