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
	"sync"

	"github.com/dana-lang/dana/pkg/resource"
	"github.com/dana-lang/dana/pkg/types"
)

// resourceManagers keeps exactly one lifecycle Manager per live
// ResourceInstance, created on first method call against that instance.
type resourceManagers struct {
	mu         sync.Mutex
	byInstance map[*types.ResourceInstance]*resource.Manager
}

func newResourceManagers() *resourceManagers {
	return &resourceManagers{byInstance: make(map[*types.ResourceInstance]*resource.Manager)}
}

// managerFor returns inst's Manager, constructing it on first use. The
// Manager wraps inst.Backend when the resource instance already carries one
// satisfying resource.Backend; a plain DANA-declared resource has none and
// runs its lifecycle methods against a nil backend.
func (m *resourceManagers) managerFor(inst *types.ResourceInstance) *resource.Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mgr, ok := m.byInstance[inst]; ok {
		return mgr
	}
	var backend resource.Backend
	if b, ok := inst.Backend.(resource.Backend); ok {
		backend = b
	}
	mgr := resource.NewManager(inst, backend)
	m.byInstance[inst] = mgr
	return mgr
}
