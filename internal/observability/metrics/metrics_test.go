package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifierMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewClassifierMetrics(registry)
	require.NoError(t, err)

	m.RecordCall(PhaseCandidates, OutcomeParsed, 1.2)
	m.RecordCall(PhaseJudgment, OutcomeMalformed, 0.8)
	m.RecordCall(PhaseJudgment, OutcomeMalformed, 0.3)
	m.RecordFallback()

	assert.InDelta(t, 1, testutil.ToFloat64(m.Calls.WithLabelValues(PhaseCandidates, OutcomeParsed)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.Calls.WithLabelValues(PhaseJudgment, OutcomeMalformed)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Fallback), 0)
}

func TestDuplicateRegistrationFails(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewGeocodeMetrics(registry)
	require.NoError(t, err)

	_, err = NewGeocodeMetrics(registry)
	assert.Error(t, err)
}

func TestRecordsMetricsOutcome(t *testing.T) {
	m, err := NewRecordsMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordOperation(OpCreate, "rest", nil, 0.1)
	m.RecordOperation(OpCreate, "rest", errors.New("boom"), 0.1)
	m.RecordOperation(OpDelete, "sqlite", nil, 0.01)

	assert.InDelta(t, 1, testutil.ToFloat64(m.Operations.WithLabelValues(OpCreate, "rest", OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Operations.WithLabelValues(OpCreate, "rest", OutcomeError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Operations.WithLabelValues(OpDelete, "sqlite", OutcomeSuccess)), 0)
}

func TestPipelineAndLeaderboardMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	p, err := NewPipelineMetrics(registry)
	require.NoError(t, err)
	l, err := NewLeaderboardMetrics(registry)
	require.NoError(t, err)

	p.RecordCache(true)
	p.RecordCache(false)
	p.RecordCache(false)
	p.AddDropped(2)
	p.AddDropped(0)
	p.SetActiveSessions(3)
	l.RecordServe(false, 0)
	l.RecordServe(true, 12)

	assert.InDelta(t, 1, testutil.ToFloat64(p.CacheHits), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(p.CacheMisses), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(p.PhotosDropped), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(p.ActiveSessions), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(l.Recomputes), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(l.CacheHits), 0)
	assert.InDelta(t, 12, testutil.ToFloat64(l.CacheAge), 0)
}

func TestNilReceiversAreNoOps(t *testing.T) {
	var (
		g *GeocodeMetrics
		c *ClassifierMetrics
		p *PipelineMetrics
		r *RecordsMetrics
		l *LeaderboardMetrics
	)
	assert.NotPanics(t, func() {
		g.RecordLookup(OutcomeSuccess, 1)
		c.RecordCall(PhaseJudgment, OutcomeParsed, 1)
		c.RecordFallback()
		p.RecordCache(true)
		p.ObservePhoto(1)
		p.AddDropped(1)
		p.SetActiveSessions(1)
		r.RecordOperation(OpList, "rest", nil, 1)
		l.RecordServe(true, 1)
	})
}
