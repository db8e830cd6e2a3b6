// Package observability holds the Prometheus registry and the metric sets
// of every birdeye component.
package observability

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/birdeye-app/birdeye/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry    *prometheus.Registry
	Geocode     *metrics.GeocodeMetrics
	Classifier  *metrics.ClassifierMetrics
	Pipeline    *metrics.PipelineMetrics
	Records     *metrics.RecordsMetrics
	Leaderboard *metrics.LeaderboardMetrics
}

// NewMetrics creates a registry and initializes all metric collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	geocodeMetrics, err := metrics.NewGeocodeMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocode metrics: %w", err)
	}

	classifierMetrics, err := metrics.NewClassifierMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier metrics: %w", err)
	}

	pipelineMetrics, err := metrics.NewPipelineMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	recordsMetrics, err := metrics.NewRecordsMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create records metrics: %w", err)
	}

	leaderboardMetrics, err := metrics.NewLeaderboardMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create leaderboard metrics: %w", err)
	}

	return &Metrics{
		registry:    registry,
		Geocode:     geocodeMetrics,
		Classifier:  classifierMetrics,
		Pipeline:    pipelineMetrics,
		Records:     recordsMetrics,
		Leaderboard: leaderboardMetrics,
	}, nil
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
