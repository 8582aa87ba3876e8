package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) })
}

func TestObserveOperation(t *testing.T) {
	m := NewNop()

	m.ObserveOperation("recompute", "applied", time.Now())
	m.ObserveOperation("recompute", "applied", time.Now())
	m.ObserveOperation("recompute", "not_found", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("recompute", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("recompute", "not_found")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.OperationDuration))
}

func TestHandler(t *testing.T) {
	m := NewNop()
	m.AggregationAnomalies.WithLabelValues("season").Inc()
	m.RowsSeeded.WithLabelValues("episode").Add(12)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `watchstate_aggregation_anomalies_total{tier="season"} 1`))
	assert.True(t, strings.Contains(body, `watchstate_rows_seeded_total{tier="episode"} 12`))
}
