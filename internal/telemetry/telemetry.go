// Package telemetry forwards selected enhanced errors to Sentry. It is
// opt-in; with telemetry disabled nothing leaves the process.
package telemetry

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/logger"
	"github.com/birdeye-app/birdeye/internal/privacy"
)

const componentName = "telemetry"

// forwarded lists the categories worth an operator's attention. Degraded
// per-photo steps are expected and stay local.
var forwarded = map[errors.ErrorCategory]bool{
	errors.CategoryConfiguration: true,
	errors.CategoryNetwork:       true,
	errors.CategoryClassifier:    true,
}

// Config configures the Sentry client.
type Config struct {
	Enabled     bool
	DSN         string
	Environment string
	Release     string
	// Transport replaces the HTTP transport, used by tests.
	Transport sentry.Transport
}

// Reporter implements errors.Reporter on a dedicated Sentry hub.
type Reporter struct {
	hub *sentry.Hub
	log logger.Logger
}

// New creates a Reporter. It returns nil when telemetry is disabled.
func New(cfg Config, log logger.Logger) (*Reporter, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if log == nil {
		log = logger.Global().Module(componentName)
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		Transport:        cfg.Transport,
		SampleRate:       1.0,
		AttachStacktrace: false,
		ServerName:       "",
		BeforeSend:       scrub,
	})
	if err != nil {
		return nil, errors.New(err).
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Build()
	}
	return &Reporter{hub: sentry.NewHub(client, sentry.NewScope()), log: log}, nil
}

// Install creates a Reporter and registers it with the errors package.
// Disabled telemetry installs nothing.
func Install(cfg Config, log logger.Logger) (*Reporter, error) {
	r, err := New(cfg, log)
	if err != nil || r == nil {
		return r, err
	}
	errors.SetReporter(r)
	r.log.Info("error telemetry enabled", logger.String("environment", cfg.Environment))
	return r, nil
}

// IsEnabled implements errors.Reporter.
func (r *Reporter) IsEnabled() bool {
	return r != nil && r.hub != nil
}

// ReportError implements errors.Reporter.
func (r *Reporter) ReportError(ee *errors.EnhancedError) {
	if !r.IsEnabled() || !forwarded[ee.Category] {
		return
	}
	component, category := ee.GetComponent(), ee.GetCategory()
	occurred := ee.GetTimestamp()
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level(ee))
		scope.SetTag("component", component)
		scope.SetTag("category", category)
		scope.SetFingerprint([]string{component, category})
		// events carry the time the error was built, not when it was sent
		scope.AddEventProcessor(func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			event.Timestamp = occurred
			return event
		})
		if ctx := ee.GetContext(); len(ctx) > 0 {
			details := sentry.Context{}
			for k, v := range ctx {
				if s, ok := v.(string); ok {
					v = clean(s)
				}
				details[k] = v
			}
			scope.SetContext("error", details)
		}
		r.hub.CaptureMessage(clean(ee.Error()))
	})
}

// Flush waits up to timeout for queued events to be sent.
func (r *Reporter) Flush(timeout time.Duration) bool {
	if !r.IsEnabled() {
		return true
	}
	return r.hub.Flush(timeout)
}

// clean masks credentials, URLs and photo positions.
func clean(s string) string {
	return privacy.ScrubMessage(logger.RedactSensitiveData(s))
}

func level(ee *errors.EnhancedError) sentry.Level {
	switch ee.GetPriority() {
	case errors.PriorityCritical:
		return sentry.LevelFatal
	case errors.PriorityLow:
		return sentry.LevelWarning
	}
	return sentry.LevelError
}

// scrub drops host and user identity from every event.
func scrub(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""
	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
	}
	delete(event.Tags, "server_name")
	return event
}
