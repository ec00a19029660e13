package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/logger"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/version"
)

// PromSink implements Sink on a dedicated Prometheus registry.
type PromSink struct {
	registry   *prometheus.Registry
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

func NewPromSink() *PromSink {
	registry := prometheus.NewRegistry()

	heartbeat := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricHeartbeat,
		Help: "Poll loop iterations, incremented regardless of outcome.",
	}, []string{"site_id"})

	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricPollOutcomes,
		Help: "Poll outcomes by classification.",
	}, []string{"site_id", "outcome"})

	up := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: MetricExporterUp,
		Help: "Whether the last poll of the site succeeded and is fresh.",
	}, []string{"site_id"})

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    MetricAPILatency,
		Help:    "Duration of a single device poll attempt.",
		Buckets: prometheus.DefBuckets,
	}, []string{"site_id"})

	buildInfo := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricBuildInfo,
		Help: "Build information, always 1.",
		ConstLabels: prometheus.Labels{
			"version": version.Version,
			"commit":  version.Commit,
		},
	})
	buildInfo.Inc()

	registry.MustRegister(heartbeat, outcomes, up, latency, buildInfo)

	return &PromSink{
		registry: registry,
		counters: map[string]*prometheus.CounterVec{
			MetricHeartbeat:    heartbeat,
			MetricPollOutcomes: outcomes,
		},
		gauges: map[string]*prometheus.GaugeVec{
			MetricExporterUp: up,
		},
		histograms: map[string]*prometheus.HistogramVec{
			MetricAPILatency: latency,
		},
	}
}

func (s *PromSink) IncCounter(name string, labels Labels) {
	vec, ok := s.counters[name]
	if !ok {
		logger.Warn().Str("metric", name).Msg("unknown counter")
		return
	}
	vec.With(prometheus.Labels(labels)).Inc()
}

func (s *PromSink) SetGauge(name string, value float64, labels Labels) {
	vec, ok := s.gauges[name]
	if !ok {
		logger.Warn().Str("metric", name).Msg("unknown gauge")
		return
	}
	vec.With(prometheus.Labels(labels)).Set(value)
}

func (s *PromSink) Observe(name string, value float64, labels Labels) {
	vec, ok := s.histograms[name]
	if !ok {
		logger.Warn().Str("metric", name).Msg("unknown histogram")
		return
	}
	vec.With(prometheus.Labels(labels)).Observe(value)
}

// Handler returns the scrape endpoint handler for the sink's registry.
func (s *PromSink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
