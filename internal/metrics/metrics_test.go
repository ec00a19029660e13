package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/logger"
)

func init() {
	logger.Init(false, false, true)
}

func TestPromSinkCounters(t *testing.T) {
	s := NewPromSink()

	labels := Labels{"site_id": "site1"}
	s.IncCounter(MetricHeartbeat, labels)
	s.IncCounter(MetricHeartbeat, labels)

	vec := s.counters[MetricHeartbeat]
	assert.Equal(t, 2.0, testutil.ToFloat64(vec.WithLabelValues("site1")))
}

func TestPromSinkOutcomeLabels(t *testing.T) {
	s := NewPromSink()

	s.IncCounter(MetricPollOutcomes, Labels{"site_id": "site1", "outcome": "delta"})
	s.IncCounter(MetricPollOutcomes, Labels{"site_id": "site1", "outcome": "error"})
	s.IncCounter(MetricPollOutcomes, Labels{"site_id": "site1", "outcome": "error"})

	vec := s.counters[MetricPollOutcomes]
	assert.Equal(t, 1.0, testutil.ToFloat64(vec.WithLabelValues("site1", "delta")))
	assert.Equal(t, 2.0, testutil.ToFloat64(vec.WithLabelValues("site1", "error")))
}

func TestPromSinkGauge(t *testing.T) {
	s := NewPromSink()

	s.SetGauge(MetricExporterUp, 1, Labels{"site_id": "site1"})
	assert.Equal(t, 1.0, testutil.ToFloat64(s.gauges[MetricExporterUp].WithLabelValues("site1")))

	s.SetGauge(MetricExporterUp, 0, Labels{"site_id": "site1"})
	assert.Zero(t, testutil.ToFloat64(s.gauges[MetricExporterUp].WithLabelValues("site1")))
}

func TestPromSinkUnknownMetricIsNoop(t *testing.T) {
	s := NewPromSink()

	// Must not panic or register anything new.
	s.IncCounter("no_such_counter", nil)
	s.SetGauge("no_such_gauge", 1, nil)
	s.Observe("no_such_histogram", 1, nil)
}

func TestPromSinkScrapeEndpoint(t *testing.T) {
	s := NewPromSink()
	s.IncCounter(MetricHeartbeat, Labels{"site_id": "site1"})
	s.Observe(MetricAPILatency, 0.25, Labels{"site_id": "site1"})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.True(t, strings.Contains(body, MetricHeartbeat))
	assert.True(t, strings.Contains(body, MetricAPILatency))
	assert.True(t, strings.Contains(body, MetricBuildInfo), "build info is always exported")
}

func TestMockSinkKeying(t *testing.T) {
	s := NewMockSink()

	s.IncCounter("c", Labels{"a": "1", "b": "2"})
	s.IncCounter("c", Labels{"b": "2", "a": "1"})

	assert.Equal(t, 2.0, s.CounterValue("c", Labels{"a": "1", "b": "2"}),
		"label order must not matter")
}
