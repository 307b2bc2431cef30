package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	m := New()

	m.ObserveOperation("submit", nil)
	m.ObserveOperation("submit", nil)
	m.ObserveOperation("resolve", errors.New("conflict"))
	m.ObserveAnalysis("classifier")
	m.ObserveFallback("timeout")
	m.ObserveAdapterDuration(150 * time.Millisecond)
	m.ObserveCacheHit()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("submit", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("resolve", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Analyses.WithLabelValues("classifier")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveOperation("submit", nil)
		m.ObserveAnalysis("classifier")
		m.ObserveFallback("absent")
		m.ObserveAdapterDuration(time.Second)
		m.ObserveCacheHit()
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveAnalysis("adapter:anthropic")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `incident_analyst_analyses_total{source="adapter:anthropic"} 1`)
}
