package metrics

// Labels is the label set attached to a single metric update.
type Labels map[string]string

// Sink records counters, gauges and histogram observations. The poll
// engine only depends on this interface; the Prometheus wiring lives
// behind it.
type Sink interface {
	IncCounter(name string, labels Labels)
	SetGauge(name string, value float64, labels Labels)
	Observe(name string, value float64, labels Labels)
}

// Metric names understood by the default sink.
const (
	MetricHeartbeat    = "powerwall_heartbeat_total"
	MetricPollOutcomes = "powerwall_poll_outcomes_total"
	MetricExporterUp   = "powerwall_exporter_up"
	MetricAPILatency   = "powerwall_api_latency_seconds"
	MetricBuildInfo    = "powerwall_build_info"
)
