package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveAndServe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveItem("seoul-diocese", OutcomeCreated, 1.2)
	m.ObserveItem("seoul-diocese", OutcomeCreated, 0.8)
	m.ObserveItem("seoul-diocese", OutcomeDuplicate, 0.1)
	m.ObserveLinks("seoul-diocese", 12)
	m.ObserveSweep("completed", 120)
	m.TaskStarted()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ItemsTotal.WithLabelValues("seoul-diocese", OutcomeCreated)))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.LinksDiscoveredTotal.WithLabelValues("seoul-diocese")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksRunning))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ecclesia_ingest_items_total")
	assert.Contains(t, string(body), "ecclesia_ingest_sweeps_total")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveItem("x", OutcomeFailed, 1)
	m.ObserveLinks("x", 1)
	m.ObserveSweep("completed", 1)
	m.TaskStarted()
	m.TaskFinished()
}

func TestNewMetrics_PrivateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(nil)
		NewMetrics(nil)
	})
}
