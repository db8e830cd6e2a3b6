package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birdeye-app/birdeye/internal/observability/metrics"
)

func TestMetricsHandlerExposesComponents(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	m.Classifier.RecordCall(metrics.PhaseCandidates, metrics.OutcomeParsed, 0.5)
	m.Pipeline.RecordCache(true)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `birdeye_classifier_calls_total{outcome="parsed",phase="candidates"} 1`)
	assert.Contains(t, string(body), "birdeye_cache_hits_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
