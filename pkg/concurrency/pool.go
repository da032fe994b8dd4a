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

package concurrency

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// WorkerPool is the bounded pool that backs every EagerPromise's submit
// callback. Submit blocks the calling goroutine only long enough to
// acquire a worker slot; the task then runs on errgroup.Group inside a
// wrapper that recovers a panic in the task and returns it as the
// goroutine's error instead of crashing the process.
type WorkerPool struct {
	sem  *semaphore.Weighted
	eg   *errgroup.Group
	size int
}

// NewWorkerPool constructs a pool bounded to size concurrent workers.
// size <= 0 defaults to runtime.NumCPU().
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &WorkerPool{
		sem:  semaphore.NewWeighted(int64(size)),
		eg:   &errgroup.Group{},
		size: size,
	}
}

// Size reports the pool's worker-count bound.
func (p *WorkerPool) Size() int { return p.size }

// Submit acquires a worker slot (blocking if all are busy) and runs task
// on it. A panic inside task is recovered and surfaced through Wait
// rather than taking down the process; it does not reach the task's
// caller directly, since Submit itself never blocks on task's result.
func (p *WorkerPool) Submit(task func()) {
	if err := p.sem.Acquire(context.Background(), 1); err != nil {
		task()
		return
	}
	p.eg.Go(func() (err error) {
		defer p.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in promise worker: %v", r)
			}
		}()
		task()
		return nil
	})
}

// Wait blocks until every task submitted so far has completed and
// returns the first error (including a recovered panic), if any. Tests
// and graceful shutdown use this; ordinary interpreter operation never
// calls it, since the pool is long-lived for the process.
func (p *WorkerPool) Wait() error { return p.eg.Wait() }

var (
	globalPool     *WorkerPool
	globalPoolOnce sync.Once
	globalPoolMu   sync.RWMutex
)

// GlobalWorkerPool returns the process-wide default pool, sized to
// runtime.NumCPU(), constructing it on first use.
func GlobalWorkerPool() *WorkerPool {
	globalPoolOnce.Do(func() {
		globalPoolMu.Lock()
		globalPool = NewWorkerPool(0)
		globalPoolMu.Unlock()
	})
	globalPoolMu.RLock()
	defer globalPoolMu.RUnlock()
	return globalPool
}

// SetGlobalWorkerPool overrides the process-wide default, primarily for
// tests that need a differently-sized pool.
func SetGlobalWorkerPool(p *WorkerPool) {
	globalPoolMu.Lock()
	defer globalPoolMu.Unlock()
	globalPool = p
}
