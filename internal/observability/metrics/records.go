package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// RecordsMetrics tracks record store operations.
type RecordsMetrics struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// NewRecordsMetrics creates and registers the record store collectors.
func NewRecordsMetrics(registry prometheus.Registerer) (*RecordsMetrics, error) {
	m := &RecordsMetrics{}
	if err := register(registry, m); err != nil {
		return nil, fmt.Errorf("failed to register records metrics: %w", err)
	}
	return m, nil
}

func (m *RecordsMetrics) initMetrics() {
	m.Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "birdeye_records_operations_total",
		Help: "Record store operations by operation, backend and outcome.",
	}, []string{"op", "backend", "outcome"})
	m.Duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "birdeye_records_operation_duration_seconds",
		Help:    "Duration of record store operations.",
		Buckets: durationBuckets,
	}, []string{"op", "backend"})
}

// RecordOperation counts one store operation. Safe on a nil receiver.
func (m *RecordsMetrics) RecordOperation(op, backend string, err error, seconds float64) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.Operations.WithLabelValues(op, backend, outcome).Inc()
	m.Duration.WithLabelValues(op, backend).Observe(seconds)
}

// Describe implements prometheus.Collector.
func (m *RecordsMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.Operations.Describe(ch)
	m.Duration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *RecordsMetrics) Collect(ch chan<- prometheus.Metric) {
	m.Operations.Collect(ch)
	m.Duration.Collect(ch)
}
