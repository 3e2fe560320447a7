package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.SamplesIngested(3)
	m.SamplesIngested(2)
	m.InstanceCloned()
	m.Saved("Finalized")
	m.Saved("In Progress")
	m.Saved("Finalized")
	m.ObserveRequest("/api/v1/tasks", http.MethodGet, http.StatusOK, 5*time.Millisecond)

	assert.Equal(t, float64(5), testutil.ToFloat64(m.samplesIngested))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.instancesCloned))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.saves.WithLabelValues("Finalized")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/v1/tasks", "GET", "200")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SamplesIngested(1)
		m.InstanceCloned()
		m.Saved("Finalized")
		m.ObserveRequest("/", "GET", 200, time.Second)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.InstanceCloned()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "annotator_instances_cloned_total 1")
}
