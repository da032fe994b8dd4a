package concurrency

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkerPoolDefaultsSizeToNumCPU(t *testing.T) {
	p := NewWorkerPool(0)
	assert.Positive(t, p.Size())
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	p := NewWorkerPool(2)
	var current, maxSeen int64
	release := make(chan struct{})

	for i := 0; i < 5; i++ {
		p.Submit(func() {
			n := atomic.AddInt64(&current, 1)
			for {
				old := atomic.LoadInt64(&maxSeen)
				if n <= old || atomic.CompareAndSwapInt64(&maxSeen, old, n) {
					break
				}
			}
			<-release
			atomic.AddInt64(&current, -1)
		})
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	require.NoError(t, p.Wait())
	assert.LessOrEqual(t, atomic.LoadInt64(&maxSeen), int64(2))
}

func TestWorkerPoolSubmitRunsTask(t *testing.T) {
	p := NewWorkerPool(1)
	done := make(chan struct{})
	p.Submit(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("submitted task never ran")
	}
}

func TestWorkerPoolRecoversPanic(t *testing.T) {
	p := NewWorkerPool(1)
	p.Submit(func() { panic("boom") })

	err := p.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestGlobalWorkerPoolOverride(t *testing.T) {
	custom := NewWorkerPool(1)
	SetGlobalWorkerPool(custom)
	assert.Same(t, custom, GlobalWorkerPool())
}
