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

// Package concurrency implements DANA's promise model: EagerPromise,
// LazyPromise, and the process-wide PromiseLimiter that governs them.
package concurrency

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// State is a Promise's lifecycle state.
type State int

const (
	StatePending State = iota
	StateResolved
	StateRejected
	StateCancelled
)

// Promise is the shared contract EagerPromise and LazyPromise implement.
type Promise interface {
	// Resolve blocks until the promise has a value, memoizing the result
	// (or the cached error/cancellation) for subsequent calls.
	Resolve() (any, error)
	State() State
	Cancel()
	ID() string
}

// base holds the fields common to both promise kinds.
type base struct {
	id        string
	mu        sync.Mutex
	cond      *sync.Cond
	state     State
	value     any
	err       error
	cancelled bool
	compute   func() (any, error)
	done      bool
	callbacks []func(any, error)
}

func newBase(compute func() (any, error)) *base {
	b := &base{id: uuid.NewString(), compute: compute}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// deliver stores the computed result, wakes waiters, and fires any
// completion callbacks registered before resolution; callback errors are
// logged and swallowed, never propagated to the caller.
func (b *base) deliver(value any, err error) {
	b.mu.Lock()
	if b.cancelled {
		b.mu.Unlock()
		return
	}
	b.value, b.err = value, err
	if err != nil {
		b.state = StateRejected
	} else {
		b.state = StateResolved
	}
	b.done = true
	cbs := b.callbacks
	b.mu.Unlock()
	b.cond.Broadcast()

	for _, cb := range cbs {
		runCallback(cb, value, err)
	}
}

func runCallback(cb func(any, error), value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("promise completion callback panicked", "panic", r)
		}
	}()
	cb(value, err)
}

// OnComplete registers a callback invoked once the promise settles. If it
// has already settled, the callback fires immediately.
func (b *base) OnComplete(cb func(any, error)) {
	b.mu.Lock()
	if b.done {
		value, err := b.value, b.err
		b.mu.Unlock()
		runCallback(cb, value, err)
		return
	}
	b.callbacks = append(b.callbacks, cb)
	b.mu.Unlock()
}

func (b *base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *base) ID() string { return b.id }

// Cancel transitions the promise to the terminal cancelled state.
// Observation after cancellation raises a CancelledError (see
// errs.KindCancelled, raised by the caller that observes State() ==
// StateCancelled).
func (b *base) Cancel() {
	b.mu.Lock()
	if b.done {
		b.mu.Unlock()
		return
	}
	err := &LimiterError{msg: "promise cancelled"}
	b.cancelled = true
	b.state = StateCancelled
	b.err = err
	b.done = true
	cbs := b.callbacks
	b.mu.Unlock()
	b.cond.Broadcast()

	for _, cb := range cbs {
		runCallback(cb, nil, err)
	}
}

func (b *base) wait() (any, error) {
	b.mu.Lock()
	for !b.done {
		b.cond.Wait()
	}
	value, err := b.value, b.err
	b.mu.Unlock()
	return value, err
}

// EagerPromise starts its computation at creation time via the supplied
// submit function (typically a worker-pool dispatch); resolution blocks
// only if the computation hasn't finished by the time it's observed.
type EagerPromise struct {
	*base
}

// NewEagerPromise creates a Promise and immediately submits compute to
// run via submit (e.g. `go func() { ... }` or a pool's Submit method). A
// panic inside compute is recovered and delivered as the promise's
// rejection, so a worker-pool panic never leaves the promise pending
// forever.
func NewEagerPromise(compute func() (any, error), submit func(func())) *EagerPromise {
	b := newBase(compute)
	p := &EagerPromise{base: b}
	submit(func() {
		value, err := safeCompute(compute)
		b.deliver(value, err)
	})
	return p
}

func safeCompute(compute func() (any, error)) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in promise body: %v", r)
		}
	}()
	return compute()
}

// Resolve blocks until the eagerly-started computation completes.
func (p *EagerPromise) Resolve() (any, error) { return p.wait() }

// LazyPromise defers its computation until the first Resolve call.
type LazyPromise struct {
	*base
	startOnce sync.Once
}

// NewLazyPromise creates a Promise whose computation does not begin until
// first observed.
func NewLazyPromise(compute func() (any, error)) *LazyPromise {
	return &LazyPromise{base: newBase(compute)}
}

// Resolve runs the computation on first call (synchronously, on the
// calling goroutine) and memoizes the result for subsequent calls.
func (p *LazyPromise) Resolve() (any, error) {
	p.startOnce.Do(func() {
		value, err := p.compute()
		p.deliver(value, err)
	})
	return p.wait()
}
