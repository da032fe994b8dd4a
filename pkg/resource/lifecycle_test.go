package resource

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dana-lang/dana/pkg/types"
)

type fakeBackend struct {
	initErr    error
	cleanupErr error
	initCalls  int
	cleanCalls int
}

func (f *fakeBackend) Initialize() error {
	f.initCalls++
	return f.initErr
}

func (f *fakeBackend) Cleanup() error {
	f.cleanCalls++
	return f.cleanupErr
}

func newInstance() *types.ResourceInstance {
	rt := types.NewResourceType("DB", nil, nil, nil, "")
	return types.NewResourceInstance(rt, nil)
}

func TestInitializeTransitionsToInitialized(t *testing.T) {
	inst := newInstance()
	m := NewManager(inst, nil)

	derr := m.Initialize()
	require.Nil(t, derr)
	assert.Equal(t, string(Initialized), inst.State)
	v, _ := inst.Get("state")
	assert.Equal(t, string(Initialized), v)
}

func TestInitializeFromNonCreatedErrors(t *testing.T) {
	inst := newInstance()
	m := NewManager(inst, nil)
	require.Nil(t, m.Initialize())

	derr := m.Initialize()
	require.NotNil(t, derr)
	assert.Equal(t, "StateError", derr.Type)
}

func TestInitializeCallsBackend(t *testing.T) {
	backend := &fakeBackend{}
	m := NewManager(newInstance(), backend)
	require.Nil(t, m.Initialize())
	assert.Equal(t, 1, backend.initCalls)
}

func TestInitializeWrapsBackendError(t *testing.T) {
	backend := &fakeBackend{initErr: errors.New("conn refused")}
	m := NewManager(newInstance(), backend)

	derr := m.Initialize()
	require.NotNil(t, derr)
	assert.Equal(t, "ResourceError", derr.Type)
}

func TestStartFromCreatedImplicitlyInitializes(t *testing.T) {
	inst := newInstance()
	m := NewManager(inst, nil)

	derr := m.Start()
	require.Nil(t, derr)
	assert.Equal(t, string(Running), inst.State)
}

func TestStartFromRunningErrors(t *testing.T) {
	m := NewManager(newInstance(), nil)
	require.Nil(t, m.Start())

	derr := m.Start()
	require.NotNil(t, derr)
	assert.Equal(t, "StateError", derr.Type)
}

func TestStopFromRunningTransitionsToStopped(t *testing.T) {
	inst := newInstance()
	m := NewManager(inst, nil)
	require.Nil(t, m.Start())

	derr := m.Stop()
	require.Nil(t, derr)
	assert.Equal(t, string(Stopped), inst.State)
}

func TestStopFromCreatedErrors(t *testing.T) {
	m := NewManager(newInstance(), nil)
	derr := m.Stop()
	require.NotNil(t, derr)
	assert.Equal(t, "StateError", derr.Type)
}

func TestCleanupFromAnyStateTerminates(t *testing.T) {
	inst := newInstance()
	m := NewManager(inst, nil)

	derr := m.Cleanup()
	require.Nil(t, derr)
	assert.Equal(t, string(Terminated), inst.State)
}

func TestCleanupIsIdempotent(t *testing.T) {
	m := NewManager(newInstance(), nil)
	require.Nil(t, m.Cleanup())

	derr := m.Cleanup()
	assert.Nil(t, derr)
}

func TestCleanupWrapsBackendError(t *testing.T) {
	backend := &fakeBackend{cleanupErr: errors.New("disconnect failed")}
	m := NewManager(newInstance(), backend)

	derr := m.Cleanup()
	require.NotNil(t, derr)
	assert.Equal(t, "ResourceError", derr.Type)
}

func TestInitializeAfterCleanupIsResourceError(t *testing.T) {
	m := NewManager(newInstance(), nil)
	require.Nil(t, m.Cleanup())

	derr := m.Initialize()
	require.NotNil(t, derr)
	assert.Equal(t, "ResourceError", derr.Type)
}

func TestStartAfterCleanupIsResourceError(t *testing.T) {
	m := NewManager(newInstance(), nil)
	require.Nil(t, m.Cleanup())

	derr := m.Start()
	require.NotNil(t, derr)
	assert.Equal(t, "ResourceError", derr.Type)
}

func TestStopAfterCleanupIsResourceError(t *testing.T) {
	inst := newInstance()
	m := NewManager(inst, nil)
	require.Nil(t, m.Start())
	require.Nil(t, m.Cleanup())

	derr := m.Stop()
	require.NotNil(t, derr)
	assert.Equal(t, "ResourceError", derr.Type)
}

func TestEnterExitScopeDelegateToStartStop(t *testing.T) {
	inst := newInstance()
	m := NewManager(inst, nil)

	require.Nil(t, m.EnterScope())
	assert.Equal(t, string(Running), inst.State)

	require.Nil(t, m.ExitScope())
	assert.Equal(t, string(Stopped), inst.State)
}
