package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics tracks batch processing and the identification cache.
type PipelineMetrics struct {
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	PhotoDuration  prometheus.Histogram
	PhotosDropped  prometheus.Counter
	ActiveSessions prometheus.Gauge
}

// NewPipelineMetrics creates and registers the pipeline collectors.
func NewPipelineMetrics(registry prometheus.Registerer) (*PipelineMetrics, error) {
	m := &PipelineMetrics{}
	if err := register(registry, m); err != nil {
		return nil, fmt.Errorf("failed to register pipeline metrics: %w", err)
	}
	return m, nil
}

func (m *PipelineMetrics) initMetrics() {
	m.CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "birdeye_cache_hits_total",
		Help: "Photos answered from the session identification cache.",
	})
	m.CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "birdeye_cache_misses_total",
		Help: "Photos that required a full identification run.",
	})
	m.PhotoDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "birdeye_photo_pipeline_duration_seconds",
		Help:    "Time to run one photo from bytes to identification result.",
		Buckets: durationBuckets,
	})
	m.PhotosDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "birdeye_batch_photos_dropped_total",
		Help: "Uploaded photos beyond the batch cap.",
	})
	m.ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "birdeye_active_sessions",
		Help: "Sessions currently held in memory.",
	})
}

// RecordCache counts a cache lookup. Safe on a nil receiver.
func (m *PipelineMetrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Inc()
		return
	}
	m.CacheMisses.Inc()
}

// ObservePhoto records one pipeline run. Safe on a nil receiver.
func (m *PipelineMetrics) ObservePhoto(seconds float64) {
	if m == nil {
		return
	}
	m.PhotoDuration.Observe(seconds)
}

// AddDropped counts photos cut by the batch cap. Safe on a nil receiver.
func (m *PipelineMetrics) AddDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PhotosDropped.Add(float64(n))
}

// SetActiveSessions updates the session gauge. Safe on a nil receiver.
func (m *PipelineMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

// Describe implements prometheus.Collector.
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.CacheHits.Desc()
	ch <- m.CacheMisses.Desc()
	ch <- m.PhotoDuration.Desc()
	ch <- m.PhotosDropped.Desc()
	ch <- m.ActiveSessions.Desc()
}

// Collect implements prometheus.Collector.
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	ch <- m.CacheHits
	ch <- m.CacheMisses
	ch <- m.PhotoDuration
	ch <- m.PhotosDropped
	ch <- m.ActiveSessions
}
