package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// LeaderboardMetrics tracks leaderboard recomputation and cache freshness.
type LeaderboardMetrics struct {
	Recomputes prometheus.Counter
	CacheHits  prometheus.Counter
	CacheAge   prometheus.Gauge
}

// NewLeaderboardMetrics creates and registers the leaderboard collectors.
func NewLeaderboardMetrics(registry prometheus.Registerer) (*LeaderboardMetrics, error) {
	m := &LeaderboardMetrics{}
	if err := register(registry, m); err != nil {
		return nil, fmt.Errorf("failed to register leaderboard metrics: %w", err)
	}
	return m, nil
}

func (m *LeaderboardMetrics) initMetrics() {
	m.Recomputes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "birdeye_leaderboard_recomputes_total",
		Help: "Leaderboard aggregations computed from the record store.",
	})
	m.CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "birdeye_leaderboard_cache_hits_total",
		Help: "Leaderboard requests served from cache.",
	})
	m.CacheAge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "birdeye_leaderboard_cache_age_seconds",
		Help: "Age of the leaderboard last served.",
	})
}

// RecordServe notes a served leaderboard. Safe on a nil receiver.
func (m *LeaderboardMetrics) RecordServe(cached bool, ageSeconds float64) {
	if m == nil {
		return
	}
	if cached {
		m.CacheHits.Inc()
	} else {
		m.Recomputes.Inc()
	}
	m.CacheAge.Set(ageSeconds)
}

// Describe implements prometheus.Collector.
func (m *LeaderboardMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.Recomputes.Desc()
	ch <- m.CacheHits.Desc()
	ch <- m.CacheAge.Desc()
}

// Collect implements prometheus.Collector.
func (m *LeaderboardMetrics) Collect(ch chan<- prometheus.Metric) {
	ch <- m.Recomputes
	ch <- m.CacheHits
	ch <- m.CacheAge
}
