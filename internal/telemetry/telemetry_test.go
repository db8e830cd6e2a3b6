package telemetry

import (
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/logger"
)

func newReporter(t *testing.T) (*Reporter, *MockTransport) {
	t.Helper()
	transport := NewMockTransport()
	r, err := New(Config{Enabled: true, Environment: "test", Transport: transport}, logger.NewDiscard())
	require.NoError(t, err)
	require.NotNil(t, r)
	return r, transport
}

func TestDisabledReporter(t *testing.T) {
	r, err := Install(Config{}, logger.NewDiscard())
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.False(t, r.IsEnabled())
	assert.True(t, r.Flush(time.Millisecond))
}

func TestForwardsSelectedCategories(t *testing.T) {
	r, transport := newReporter(t)

	classifierErr := errors.Newf("classifier answered 502").
		Component("identify").
		Category(errors.CategoryClassifier).
		Context("phase", "judgment").
		Build()
	time.Sleep(5 * time.Millisecond)
	r.ReportError(classifierErr)
	r.ReportError(errors.Newf("no preview").
		Component("photo").
		Category(errors.CategoryImageDecode).
		Build())
	r.ReportError(errors.Newf("missing api key").
		Component("conf").
		Category(errors.CategoryConfiguration).
		Priority(errors.PriorityCritical).
		Build())
	require.True(t, r.Flush(time.Second))

	events := transport.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "classifier answered 502", events[0].Message)
	assert.Equal(t, "identify", events[0].Tags["component"])
	assert.Equal(t, "classifier", events[0].Tags["category"])
	assert.Equal(t, []string{"identify", "classifier"}, events[0].Fingerprint)
	assert.Equal(t, "judgment", events[0].Contexts["error"]["phase"])
	assert.True(t, events[0].Timestamp.Equal(classifierErr.GetTimestamp()), "event keeps the time the error occurred")
	assert.Equal(t, sentry.LevelError, events[0].Level)
	assert.Equal(t, sentry.LevelFatal, events[1].Level)
	assert.Empty(t, events[1].ServerName)
}

func TestReportRedactsSecrets(t *testing.T) {
	r, transport := newReporter(t)

	r.ReportError(errors.Newf("GET https://db.example.com/rest/v1/records?apikey=supersecret failed").
		Component("records").
		Category(errors.CategoryNetwork).
		Context("url", "https://x.example.com/?token=abc123").
		Build())

	events := transport.Events()
	require.Len(t, events, 1)
	assert.NotContains(t, events[0].Message, "supersecret")
	assert.NotContains(t, events[0].Contexts["error"]["url"], "abc123")
}

func TestInstallRegistersWithErrors(t *testing.T) {
	transport := NewMockTransport()
	r, err := Install(Config{Enabled: true, Transport: transport}, logger.NewDiscard())
	require.NoError(t, err)
	t.Cleanup(func() { errors.SetReporter(nil) })

	err = errors.Newf("dial tcp: connection refused").
		Component("geocode").
		Category(errors.CategoryNetwork).
		Build()
	require.True(t, r.Flush(time.Second))

	var ee *errors.EnhancedError
	require.True(t, errors.As(err, &ee))
	assert.True(t, ee.IsReported())
	assert.Len(t, transport.Events(), 1)
}

func TestReportMasksPhotoPositions(t *testing.T) {
	r, transport := newReporter(t)

	r.ReportError(errors.Newf("reverse geocoding 39.9042, 116.4074 failed: GET https://nominatim.openstreetmap.org/reverse?lat=39.9042&lon=116.4074").
		Component("geocode").
		Category(errors.CategoryNetwork).
		Context("prompt", "GPS坐标：北纬39.9000°，东经116.4000°").
		Build())

	events := transport.Events()
	require.Len(t, events, 1)
	assert.NotContains(t, events[0].Message, "116.4074")
	assert.NotContains(t, events[0].Message, "nominatim")
	assert.Contains(t, events[0].Message, "[coordinates]")
	assert.Equal(t, "GPS坐标：[coordinates]，[coordinates]", events[0].Contexts["error"]["prompt"])
}
