package concurrency

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goSubmit(task func()) { go task() }

func TestCanCreateRespectsNestingDepth(t *testing.T) {
	l := NewPromiseLimiter(10, 2, time.Second, 5, time.Second)
	assert.True(t, l.CanCreate(2))
	assert.False(t, l.CanCreate(3))
}

func TestCreatePromiseReturnsLivePromiseOnSuccessPath(t *testing.T) {
	l := NewPromiseLimiter(10, 8, time.Second, 5, time.Second)
	result := l.CreatePromise(func() (any, error) { return 7, nil }, goSubmit)

	p, ok := result.(Promise)
	require.True(t, ok, "CreatePromise must hand back a live promise, not an already-resolved value")
	value, err := p.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 7, value)
}

func TestCreatePromiseIncrementsCreatedCounter(t *testing.T) {
	l := NewPromiseLimiter(10, 8, time.Second, 5, time.Second)
	p := l.CreatePromise(func() (any, error) { return 1, nil }, goSubmit).(Promise)
	p.Resolve()
	stats := l.Statistics()
	assert.Equal(t, int64(1), stats.PromisesCreated)
}

func TestCreatePromiseFallsBackSynchronouslyAtDepthLimit(t *testing.T) {
	l := NewPromiseLimiter(10, 0, time.Second, 5, time.Second)
	var ran bool
	result := l.CreatePromiseAtDepth(1, func() (any, error) {
		ran = true
		return "sync", nil
	}, goSubmit)

	assert.True(t, ran)
	assert.Equal(t, "sync", result)
	assert.Equal(t, int64(1), l.Statistics().SynchronousFallbacks)
}

func TestCreatePromiseWrapsErrorInResolvedErrorOnObservation(t *testing.T) {
	l := NewPromiseLimiter(10, 8, time.Second, 5, time.Second)
	wantErr := errors.New("boom")
	result := l.CreatePromise(func() (any, error) { return nil, wantErr }, goSubmit)

	p, ok := result.(Promise)
	require.True(t, ok)
	_, err := p.Resolve()
	assert.Equal(t, wantErr, err)
}

func TestCreatePromiseOverlapsTwoBodies(t *testing.T) {
	l := NewPromiseLimiter(10, 8, time.Second, 5, time.Second)
	started := make(chan struct{}, 2)

	slow := func() (any, error) {
		started <- struct{}{}
		time.Sleep(30 * time.Millisecond)
		return "a", nil
	}
	other := func() (any, error) {
		started <- struct{}{}
		return "b", nil
	}

	pa := l.CreatePromise(slow, goSubmit).(Promise)
	pb := l.CreatePromise(other, goSubmit).(Promise)

	// Both bodies must have been dispatched before either is observed;
	// CreatePromise returning a live promise (not blocking on compute) is
	// what makes this possible.
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("both promise bodies should have started without either being observed")
		}
	}

	vb, err := pb.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "b", vb)

	va, err := pa.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "a", va)
}

func TestCreatePromiseTimeoutCancelsPromise(t *testing.T) {
	l := NewPromiseLimiter(10, 8, 10*time.Millisecond, 5, time.Second)
	result := l.CreatePromise(func() (any, error) {
		time.Sleep(100 * time.Millisecond)
		return "late", nil
	}, goSubmit)

	p, ok := result.(Promise)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		return p.State() == StateCancelled
	}, time.Second, time.Millisecond, "promise should be cancelled once its timeout elapses")
	assert.Equal(t, int64(1), l.Statistics().TimeoutEvents)
}

func TestCircuitBreakerTripsAfterThreshold(t *testing.T) {
	l := NewPromiseLimiter(10, 8, time.Second, 2, time.Minute)
	failing := func() (any, error) { return nil, errors.New("fail") }

	resolveBoth(t, l.CreatePromise(failing, goSubmit), l.CreatePromise(failing, goSubmit))

	assert.False(t, l.CanCreate(0), "breaker should trip after reaching the failure threshold")
}

func resolveBoth(t *testing.T, results ...any) {
	t.Helper()
	for _, r := range results {
		p, ok := r.(Promise)
		require.True(t, ok)
		p.Resolve()
	}
}

func TestResetCircuitBreakerClosesBreaker(t *testing.T) {
	l := NewPromiseLimiter(10, 8, time.Second, 1, time.Minute)
	resolveBoth(t, l.CreatePromise(func() (any, error) { return nil, errors.New("fail") }, goSubmit))
	require.False(t, l.CanCreate(0))

	l.ResetCircuitBreaker()
	assert.True(t, l.CanCreate(0))
}

func TestResetStatisticsZeroesCounters(t *testing.T) {
	l := NewPromiseLimiter(10, 8, time.Second, 5, time.Second)
	resolveBoth(t, l.CreatePromise(func() (any, error) { return 1, nil }, goSubmit))
	l.ResetStatistics()

	stats := l.Statistics()
	assert.Zero(t, stats.PromisesCreated)
	assert.Zero(t, stats.SynchronousFallbacks)
}

func TestIsHealthyTrueWithNoActivity(t *testing.T) {
	l := NewPromiseLimiter(10, 8, time.Second, 5, time.Second)
	assert.True(t, l.IsHealthy())
}

func TestIsHealthyFalseOnHighFallbackRate(t *testing.T) {
	l := NewPromiseLimiter(10, 0, time.Second, 5, time.Second)
	for i := 0; i < 3; i++ {
		l.CreatePromiseAtDepth(1, func() (any, error) { return 1, nil }, goSubmit)
	}
	assert.False(t, l.IsHealthy(), "every call past a depth-0 cap falls back, so fallback rate must read unhealthy")
}

func TestGlobalPromiseLimiterOverride(t *testing.T) {
	custom := NewPromiseLimiter(1, 1, time.Second, 1, time.Second)
	SetGlobalPromiseLimiter(custom)
	assert.Same(t, custom, GlobalPromiseLimiter())
}
