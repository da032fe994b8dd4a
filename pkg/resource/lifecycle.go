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

// Package resource implements the resource lifecycle state machine and
// the backend contract a ResourceInstance's attached backend satisfies.
package resource

import (
	"fmt"
	"sync"

	"github.com/dana-lang/dana/pkg/ast"
	"github.com/dana-lang/dana/pkg/errs"
	"github.com/dana-lang/dana/pkg/types"
)

// State is one of the five lifecycle states every ResourceInstance
// occupies at all times.
type State string

const (
	Created     State = "CREATED"
	Initialized State = "INITIALIZED"
	Running     State = "RUNNING"
	Stopped     State = "STOPPED"
	Terminated  State = "TERMINATED"
)

// Backend is the opaque object a ResourceInstance may attach; only the
// methods actually relevant to the resource's kind need be implemented,
// discovered via the optional interfaces below.
type Backend interface {
	Initialize() error
	Cleanup() error
}

// Queryable backends serve ad hoc query calls.
type Queryable interface {
	Query(request any) (any, error)
}

// Chattable backends serve LLM-style chat_completion calls.
type Chattable interface {
	Chat(messages []map[string]string, systemPrompt string) (string, error)
}

// Completable backends serve single-turn text completion.
type Completable interface {
	Complete(prompt string, opts map[string]any) (string, error)
}

// Embeddable backends produce vector embeddings.
type Embeddable interface {
	Embed(text string, opts map[string]any) ([]float64, error)
}

// Manager drives one ResourceInstance's lifecycle transitions, keeping
// the instance's `state` field in sync with the internal state machine.
// Instances are assumed single-owner: Manager serializes transitions with
// a mutex rather than asserting the caller never calls concurrently.
type Manager struct {
	mu       sync.Mutex
	instance *types.ResourceInstance
	backend  Backend
}

// NewManager wraps instance, attaching backend if the instance declares
// one (backend may be nil for resources with no native counterpart).
func NewManager(instance *types.ResourceInstance, backend Backend) *Manager {
	m := &Manager{instance: instance, backend: backend}
	instance.Backend = backend
	return m
}

func (m *Manager) setState(s State) {
	m.instance.State = string(s)
	m.instance.Set("state", string(s))
}

// Initialize transitions CREATED -> INITIALIZED, acquiring backend
// handles. Calling it from any other state is a state-machine violation.
func (m *Manager) Initialize() *errs.DanaException {
	m.mu.Lock()
	defer m.mu.Unlock()
	if State(m.instance.State) == Terminated {
		return terminatedError("initialize")
	}
	if State(m.instance.State) != Created {
		return stateError(m.instance.State, "initialize")
	}
	if m.backend != nil {
		if err := m.backend.Initialize(); err != nil {
			return errs.Wrap(errs.KindResource, "ResourceError", fmt.Sprintf("backend initialize failed: %v", err), ast.Location{}, err)
		}
	}
	m.setState(Initialized)
	return nil
}

// Start transitions INITIALIZED -> RUNNING, implicitly calling Initialize
// first when starting directly from CREATED.
func (m *Manager) Start() *errs.DanaException {
	m.mu.Lock()
	cur := State(m.instance.State)
	m.mu.Unlock()

	if cur == Terminated {
		return terminatedError("start")
	}

	if cur == Created {
		if derr := m.Initialize(); derr != nil {
			return derr
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if State(m.instance.State) != Initialized {
		return stateError(m.instance.State, "start")
	}
	m.setState(Running)
	return nil
}

// Stop transitions RUNNING -> STOPPED, quiescing in-flight work. The
// backend contract has no dedicated stop hook; quiescing is the
// interpreter's responsibility (draining outstanding calls against this
// instance before observing Stop's completion).
func (m *Manager) Stop() *errs.DanaException {
	m.mu.Lock()
	defer m.mu.Unlock()
	if State(m.instance.State) == Terminated {
		return terminatedError("stop")
	}
	if State(m.instance.State) != Running {
		return stateError(m.instance.State, "stop")
	}
	m.setState(Stopped)
	return nil
}

// Cleanup transitions any state to TERMINATED, releasing all resources.
// It is idempotent: calling it again on an already-terminated instance
// is a no-op, not an error.
func (m *Manager) Cleanup() *errs.DanaException {
	m.mu.Lock()
	defer m.mu.Unlock()
	if State(m.instance.State) == Terminated {
		return nil
	}
	if m.backend != nil {
		if err := m.backend.Cleanup(); err != nil {
			return errs.Wrap(errs.KindResource, "ResourceError", fmt.Sprintf("backend cleanup failed: %v", err), ast.Location{}, err)
		}
	}
	m.setState(Terminated)
	return nil
}

// EnterScope implements the scoped-acquisition entry point: invoke
// start().
func (m *Manager) EnterScope() *errs.DanaException { return m.Start() }

// ExitScope implements the scoped-acquisition exit point: invoke stop().
func (m *Manager) ExitScope() *errs.DanaException { return m.Stop() }

func stateError(current State, method string) *errs.DanaException {
	return errs.New(errs.KindState, "StateError",
		fmt.Sprintf("cannot call %s() from state %s", method, current), ast.Location{})
}

// terminatedError is returned instead of stateError once an instance has
// been cleaned up: a terminated resource rejects every further method
// call as a resource-level failure, not an ordinary state-machine one.
func terminatedError(method string) *errs.DanaException {
	return errs.New(errs.KindResource, "ResourceError",
		fmt.Sprintf("cannot call %s() on a terminated resource", method), ast.Location{})
}
