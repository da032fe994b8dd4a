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

// Package metrics exposes Prometheus gauges/counters for the runtime's
// own concurrency primitive and resource lifecycle, the ambient
// instrumentation every `dana` process carries regardless of whether it
// talks to any particular agent framework.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dana-lang/dana/pkg/concurrency"
)

// Metrics holds the promise-pool and resource-lifecycle instrumentation
// for one process. A nil *Metrics is a valid, inert no-op receiver, the
// same convention the teacher's observability package uses, so callers
// never need a feature-flag check at every call site.
type Metrics struct {
	registry *prometheus.Registry
	limiter  *concurrency.PromiseLimiter

	promisesCreated     prometheus.CounterFunc
	promisesOutstanding prometheus.GaugeFunc
	promiseFallbacks    prometheus.CounterFunc
	promiseTimeouts     prometheus.CounterFunc
	promiseFailures     prometheus.CounterFunc
	unhealthy           prometheus.GaugeFunc

	resourceTransitions *prometheus.CounterVec
	resourceErrors      *prometheus.CounterVec
}

// New builds a Metrics instance wired to limiter's live Statistics().
// Pass nil for limiter to instrument none of the promise-pool gauges
// (the resource counters still work, fed by RecordResourceTransition).
func New(limiter *concurrency.PromiseLimiter) *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry(), limiter: limiter}

	if limiter != nil {
		m.promisesCreated = prometheus.NewCounterFunc(
			prometheus.CounterOpts{Namespace: "dana", Subsystem: "promise", Name: "created_total", Help: "Total promises created by the limiter."},
			func() float64 { return float64(limiter.Statistics().PromisesCreated) },
		)
		m.promisesOutstanding = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Namespace: "dana", Subsystem: "promise", Name: "outstanding", Help: "Promises currently running."},
			func() float64 { return float64(limiter.Statistics().OutstandingPromises) },
		)
		m.promiseFallbacks = prometheus.NewCounterFunc(
			prometheus.CounterOpts{Namespace: "dana", Subsystem: "promise", Name: "synchronous_fallbacks_total", Help: "Promise creations that fell back to synchronous execution."},
			func() float64 { return float64(limiter.Statistics().SynchronousFallbacks) },
		)
		m.promiseTimeouts = prometheus.NewCounterFunc(
			prometheus.CounterOpts{Namespace: "dana", Subsystem: "promise", Name: "timeouts_total", Help: "Promises that exceeded the limiter's timeout."},
			func() float64 { return float64(limiter.Statistics().TimeoutEvents) },
		)
		m.promiseFailures = prometheus.NewCounterFunc(
			prometheus.CounterOpts{Namespace: "dana", Subsystem: "promise", Name: "failures_total", Help: "Promise computations that returned an error."},
			func() float64 { return float64(limiter.Statistics().FailureEvents) },
		)
		m.unhealthy = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Namespace: "dana", Subsystem: "promise", Name: "unhealthy", Help: "1 if the limiter's fallback or timeout rate has crossed IsHealthy's threshold."},
			func() float64 {
				if limiter.IsHealthy() {
					return 0
				}
				return 1
			},
		)
		m.registry.MustRegister(m.promisesCreated, m.promisesOutstanding, m.promiseFallbacks,
			m.promiseTimeouts, m.promiseFailures, m.unhealthy)
	}

	m.resourceTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "dana", Subsystem: "resource", Name: "transitions_total", Help: "Resource lifecycle transitions by resulting state."},
		[]string{"type", "state"},
	)
	m.resourceErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "dana", Subsystem: "resource", Name: "errors_total", Help: "Resource lifecycle transitions rejected as a state-machine violation."},
		[]string{"type", "method"},
	)
	m.registry.MustRegister(m.resourceTransitions, m.resourceErrors)

	return m
}

// RecordResourceTransition records a successful lifecycle transition of
// a resource of the given type into newState.
func (m *Metrics) RecordResourceTransition(resourceType, newState string) {
	if m == nil {
		return
	}
	m.resourceTransitions.WithLabelValues(resourceType, newState).Inc()
}

// RecordResourceError records a rejected lifecycle transition (a call
// against a resource already outside the state the method requires).
func (m *Metrics) RecordResourceError(resourceType, method string) {
	if m == nil {
		return
	}
	m.resourceErrors.WithLabelValues(resourceType, method).Inc()
}

// Handler serves the Prometheus text exposition format. A nil Metrics
// serves 503, matching the teacher's "metrics disabled" convention.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry, nil if m is nil.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
