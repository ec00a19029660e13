package metrics

import (
	"sort"
	"strings"
	"sync"
)

// MockSink is an in-memory Sink for tests.
type MockSink struct {
	mu           sync.Mutex
	counters     map[string]float64
	gauges       map[string]float64
	observations map[string][]float64
}

func NewMockSink() *MockSink {
	return &MockSink{
		counters:     make(map[string]float64),
		gauges:       make(map[string]float64),
		observations: make(map[string][]float64),
	}
}

func key(name string, labels Labels) string {
	if len(labels) == 0 {
		return name
	}

	pairs := make([]string, 0, len(labels))
	for k, v := range labels {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)

	return name + "{" + strings.Join(pairs, ",") + "}"
}

func (s *MockSink) IncCounter(name string, labels Labels) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key(name, labels)]++
}

func (s *MockSink) SetGauge(name string, value float64, labels Labels) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gauges[key(name, labels)] = value
}

func (s *MockSink) Observe(name string, value float64, labels Labels) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(name, labels)
	s.observations[k] = append(s.observations[k], value)
}

// CounterValue returns the current value of a counter, 0 if never incremented.
func (s *MockSink) CounterValue(name string, labels Labels) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[key(name, labels)]
}

// GaugeValue returns the last value set on a gauge and whether it was ever set.
func (s *MockSink) GaugeValue(name string, labels Labels) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.gauges[key(name, labels)]
	return v, ok
}

// ObservationCount returns how many observations a histogram received.
func (s *MockSink) ObservationCount(name string, labels Labels) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observations[key(name, labels)])
}
