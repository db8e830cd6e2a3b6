package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// GeocodeMetrics tracks reverse geocoding lookups.
type GeocodeMetrics struct {
	Lookups  *prometheus.CounterVec
	Duration prometheus.Histogram
}

// NewGeocodeMetrics creates and registers the geocoding collectors.
func NewGeocodeMetrics(registry prometheus.Registerer) (*GeocodeMetrics, error) {
	m := &GeocodeMetrics{}
	if err := register(registry, m); err != nil {
		return nil, fmt.Errorf("failed to register geocode metrics: %w", err)
	}
	return m, nil
}

func (m *GeocodeMetrics) initMetrics() {
	m.Lookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "birdeye_geocode_lookups_total",
		Help: "Reverse geocoding lookups by outcome.",
	}, []string{"outcome"})
	m.Duration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "birdeye_geocode_lookup_duration_seconds",
		Help:    "Duration of reverse geocoding lookups.",
		Buckets: durationBuckets,
	})
}

// RecordLookup counts one lookup. Safe on a nil receiver.
func (m *GeocodeMetrics) RecordLookup(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(outcome).Inc()
	m.Duration.Observe(seconds)
}

// Describe implements prometheus.Collector.
func (m *GeocodeMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.Lookups.Describe(ch)
	m.Duration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *GeocodeMetrics) Collect(ch chan<- prometheus.Metric) {
	m.Lookups.Collect(ch)
	m.Duration.Collect(ch)
}
