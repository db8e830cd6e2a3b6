package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ClassifierMetrics tracks calls to the vision model per protocol phase.
type ClassifierMetrics struct {
	Calls    *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Fallback prometheus.Counter
}

// NewClassifierMetrics creates and registers the classifier collectors.
func NewClassifierMetrics(registry prometheus.Registerer) (*ClassifierMetrics, error) {
	m := &ClassifierMetrics{}
	if err := register(registry, m); err != nil {
		return nil, fmt.Errorf("failed to register classifier metrics: %w", err)
	}
	return m, nil
}

func (m *ClassifierMetrics) initMetrics() {
	m.Calls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "birdeye_classifier_calls_total",
		Help: "Classifier calls by phase and outcome (parsed, malformed, error).",
	}, []string{"phase", "outcome"})
	m.Duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "birdeye_classifier_call_duration_seconds",
		Help:    "Duration of classifier calls by phase.",
		Buckets: durationBuckets,
	}, []string{"phase"})
	m.Fallback = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "birdeye_identification_fallbacks_total",
		Help: "Identifications that ended in the unknown-species fallback result.",
	})
}

// RecordCall counts one classifier exchange. Safe on a nil receiver.
func (m *ClassifierMetrics) RecordCall(phase, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.Calls.WithLabelValues(phase, outcome).Inc()
	m.Duration.WithLabelValues(phase).Observe(seconds)
}

// RecordFallback counts one fallback result. Safe on a nil receiver.
func (m *ClassifierMetrics) RecordFallback() {
	if m == nil {
		return
	}
	m.Fallback.Inc()
}

// Describe implements prometheus.Collector.
func (m *ClassifierMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.Calls.Describe(ch)
	m.Duration.Describe(ch)
	m.Fallback.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *ClassifierMetrics) Collect(ch chan<- prometheus.Metric) {
	m.Calls.Collect(ch)
	m.Duration.Collect(ch)
	m.Fallback.Collect(ch)
}
