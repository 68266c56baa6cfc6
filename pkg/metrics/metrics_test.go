package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg, reg)

	m.ObservePreviewRows("new", 3)
	m.ObservePreviewRows("duplicate", 1)
	m.ObservePreviewRows("suspect", 0)
	m.ObserveBatch("ok")
	m.ObserveBatch("failed")
	m.ObserveBatch("failed")
	m.ObserveCacheHits(4)
	m.ObserveCommit(7)
	m.SetPoolStats(10, 6, 4)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.previewRows.WithLabelValues("new")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.categorizerBatches.WithLabelValues("failed")))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.committedRows))
	assert.Equal(t, float64(6), testutil.ToFloat64(m.poolIdleConns))
}

func TestMetrics_Handler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg, reg)
	m.ObserveHTTP(http.MethodPost, "/api/import/preview", http.StatusOK, 120*time.Millisecond)
	m.ObserveLLMCall("ok", 2*time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `household_budget_http_requests_total{code="200",method="POST",route="/api/import/preview"} 1`)
	assert.Contains(t, body, "household_budget_llm_call_duration_seconds_count")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObservePreviewRows("new", 1)
		m.ObserveBatch("ok")
		m.ObserveCacheHits(1)
		m.ObserveLLMCall("ok", time.Second)
		m.ObserveCommit(1)
		m.ObserveHTTP("GET", "/", 200, time.Millisecond)
		m.SetPoolStats(1, 1, 0)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
