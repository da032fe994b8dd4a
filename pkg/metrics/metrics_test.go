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

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dana-lang/dana/pkg/concurrency"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestNewWithLimiterExposesPromiseGauges(t *testing.T) {
	limiter := concurrency.NewPromiseLimiter(4, 2, time.Second, 3, time.Second)
	m := New(limiter)

	body := scrape(t, m)
	assert.Contains(t, body, "dana_promise_created_total")
	assert.Contains(t, body, "dana_promise_outstanding")
	assert.Contains(t, body, "dana_promise_unhealthy")
}

func TestNewWithNilLimiterOmitsPromiseGauges(t *testing.T) {
	m := New(nil)

	body := scrape(t, m)
	assert.False(t, strings.Contains(body, "dana_promise_created_total"))
}

func TestRecordResourceTransitionIncrementsCounter(t *testing.T) {
	m := New(nil)
	m.RecordResourceTransition("Database", "RUNNING")

	body := scrape(t, m)
	assert.Contains(t, body, `dana_resource_transitions_total{state="RUNNING",type="Database"} 1`)
}

func TestRecordResourceErrorIncrementsCounter(t *testing.T) {
	m := New(nil)
	m.RecordResourceError("Database", "stop")

	body := scrape(t, m)
	assert.Contains(t, body, `dana_resource_errors_total{method="stop",type="Database"} 1`)
}

func TestNilMetricsIsInert(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordResourceTransition("Database", "RUNNING")
		m.RecordResourceError("Database", "stop")
	})
	assert.Nil(t, m.Registry())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
