// Package app assembles the birdeye components from settings.
package app

import (
	"time"

	"github.com/birdeye-app/birdeye/internal/api"
	"github.com/birdeye-app/birdeye/internal/archive"
	"github.com/birdeye-app/birdeye/internal/buildinfo"
	"github.com/birdeye-app/birdeye/internal/classifier"
	"github.com/birdeye-app/birdeye/internal/conf"
	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/geocode"
	"github.com/birdeye-app/birdeye/internal/identify"
	"github.com/birdeye-app/birdeye/internal/imaging"
	"github.com/birdeye-app/birdeye/internal/leaderboard"
	"github.com/birdeye-app/birdeye/internal/logger"
	"github.com/birdeye-app/birdeye/internal/observability"
	"github.com/birdeye-app/birdeye/internal/photo"
	"github.com/birdeye-app/birdeye/internal/records"
	"github.com/birdeye-app/birdeye/internal/session"
	"github.com/birdeye-app/birdeye/internal/telemetry"
)

const componentName = "app"

// App holds the wired components. Records, Recorder and Leaderboard are nil
// when no record store is configured.
type App struct {
	Settings    *conf.Settings
	Build       *buildinfo.Context
	Log         logger.Logger
	Metrics     *observability.Metrics
	Telemetry   *telemetry.Reporter
	Sessions    *session.Manager
	Archive     *archive.Builder
	Records     records.Store
	Recorder    *session.Recorder
	Leaderboard *leaderboard.Service

	central *logger.CentralLogger
}

type options struct {
	classifier classifier.Classifier
	geocoder   geocode.Geocoder
	log        logger.Logger
	build      *buildinfo.Context
}

// Option customizes New.
type Option func(*options)

// WithClassifier replaces the HTTP classifier, mainly for tests.
func WithClassifier(c classifier.Classifier) Option {
	return func(o *options) { o.classifier = c }
}

// WithGeocoder replaces the geocoder built from settings.
func WithGeocoder(g geocode.Geocoder) Option {
	return func(o *options) { o.geocoder = g }
}

// WithLogger uses l instead of a CentralLogger built from settings.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithBuildInfo sets the build metadata reported to telemetry.
func WithBuildInfo(b *buildinfo.Context) Option {
	return func(o *options) { o.build = b }
}

// New wires every component. A missing classifier credential fails here,
// before any photo is read.
func New(settings *conf.Settings, opts ...Option) (*App, error) {
	if settings == nil {
		return nil, errors.Newf("settings are required").
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err := settings.RequireClassifier(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.build == nil {
		o.build = buildinfo.Current()
	}

	a := &App{Settings: settings, Build: o.build}
	if err := a.initLogger(o.log); err != nil {
		return nil, err
	}

	m, err := observability.NewMetrics()
	if err != nil {
		return nil, errors.New(err).
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Build()
	}
	a.Metrics = m

	a.Telemetry, err = telemetry.Install(telemetry.Config{
		Enabled:     settings.Telemetry.Enabled,
		DSN:         settings.Telemetry.DSN,
		Environment: settings.Telemetry.Environment,
		Release:     o.build.Release(),
	}, a.Log.Module("telemetry"))
	if err != nil {
		return nil, err
	}

	if err := a.initSessions(o); err != nil {
		return nil, err
	}
	a.Archive = archive.NewBuilder(a.Log.Module("archive"))

	if err := a.initRecords(); err != nil {
		return nil, err
	}

	a.Log.Info("birdeye ready",
		logger.String("version", o.build.Version()),
		logger.Int("max_photos", a.Sessions.MaxPhotos()),
		logger.Bool("records", a.Records != nil),
		logger.Bool("telemetry", a.Telemetry.IsEnabled()))
	return a, nil
}

func (a *App) initLogger(l logger.Logger) error {
	if l != nil {
		a.Log = l
		return nil
	}
	cfg := a.Settings.Logging
	if a.Settings.Debug {
		cfg.DefaultLevel = "debug"
		if cfg.Console != nil {
			console := *cfg.Console
			console.Level = "debug"
			cfg.Console = &console
		}
	}
	cl, err := logger.NewCentralLogger(&cfg)
	if err != nil {
		return err
	}
	logger.SetGlobal(cl)
	a.central = cl
	a.Log = cl.Module("birdeye")
	return nil
}

func (a *App) initSessions(o options) error {
	s := a.Settings

	c := o.classifier
	if c == nil {
		client, err := classifier.New(classifier.Config{
			BaseURL:     s.Classifier.BaseURL,
			APIKey:      s.Classifier.APIKey,
			Model:       s.Classifier.Model,
			Temperature: s.Classifier.Temperature,
			MaxTokens:   s.Classifier.MaxTokens,
			Timeout:     s.Classifier.Timeout,
		}, classifier.WithLogger(a.Log.Module("classifier")))
		if err != nil {
			return err
		}
		c = client
	}

	g := o.geocoder
	if g == nil {
		g = newGeocoder(s.Geocode, a.Log.Module("geocode"), a.Metrics)
	}

	pipeline, err := session.NewPipeline(session.Deps{
		Metadata:     photo.NewMetadataReader(a.Log.Module("photo")),
		Geocoder:     g,
		Transcoder:   imaging.NewTranscoder(s.Transcode.MaxDimension, s.Transcode.Quality, a.Log.Module("imaging")),
		Orchestrator: identify.NewOrchestrator(c, a.Log.Module("identify"), a.Metrics.Classifier),
		Logger:       a.Log.Module("session"),
		Metrics:      a.Metrics.Pipeline,
	}, session.Config{MaxPhotos: s.Batch.MaxPhotos, Workers: s.Batch.Workers})
	if err != nil {
		return err
	}
	a.Sessions = session.NewManager(pipeline, a.Log.Module("session"), a.Metrics.Pipeline)
	return nil
}

func newGeocoder(s conf.GeocodeSettings, log logger.Logger, m *observability.Metrics) geocode.Geocoder {
	if !s.Enabled {
		log.Debug("reverse geocoding disabled")
		return geocode.Disabled{}
	}
	return geocode.New(geocode.Config{
		Endpoint:  s.Endpoint,
		Language:  s.Language,
		Zoom:      s.Zoom,
		Timeout:   s.Timeout,
		RateLimit: s.RateLimit,
		UserAgent: s.UserAgent,
	}, geocode.WithLogger(log), geocode.WithMetrics(m.Geocode))
}

func (a *App) initRecords() error {
	s := a.Settings
	log := a.Log.Module("records")

	store, err := records.Open(records.Config{
		Backend:    s.Records.Backend,
		URL:        s.Records.URL,
		APIKey:     s.Records.APIKey,
		Table:      s.Records.Table,
		Timeout:    s.Records.Timeout,
		SQLitePath: s.Records.SQLitePath,
		MySQL: records.MySQLConfig{
			Host:     s.Records.MySQL.Host,
			Port:     s.Records.MySQL.Port,
			Username: s.Records.MySQL.Username,
			Password: s.Records.MySQL.Password,
			Database: s.Records.MySQL.Database,
		},
	}, log, a.Metrics.Records)
	if errors.Is(err, records.ErrDisabled) {
		log.Info("records store not configured, persistence disabled")
		return nil
	}
	if err != nil {
		return err
	}

	a.Records = store
	a.Recorder = session.NewRecorder(store, imaging.DefaultThumbnailSize, log)
	a.Leaderboard = leaderboard.NewService(store, leaderboard.Config{
		FetchLimit: s.Leaderboard.FetchLimit,
		CacheTTL:   s.Leaderboard.CacheTTL,
	}, a.Log.Module("leaderboard"), a.Metrics.Leaderboard)
	return nil
}

// RequireRecords fails when no record store is configured.
func (a *App) RequireRecords() error {
	if a.Records != nil {
		return nil
	}
	return errors.Newf("records store not configured (set records.url or choose the sqlite backend)").
		Component(componentName).
		Category(errors.CategoryConfiguration).
		Build()
}

// Server builds the HTTP API over the wired components.
func (a *App) Server() (*api.Server, error) {
	return api.New(api.Config{
		Listen:          a.Settings.Server.Listen,
		MaxUploadMB:     a.Settings.Server.MaxUploadMB,
		RecordListLimit: a.Settings.Records.ListLimit,
		SessionSecret:   a.Settings.Server.SessionSecret,
	}, api.Deps{
		Sessions:    a.Sessions,
		Archive:     a.Archive,
		Records:     a.Records,
		Recorder:    a.Recorder,
		Leaderboard: a.Leaderboard,
		Metrics:     a.Metrics,
	}, a.Log.Module("api"))
}

// Close releases the record store, flushes telemetry and closes log files.
func (a *App) Close() error {
	var errs []error
	if a.Records != nil {
		if err := a.Records.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.Telemetry.Flush(2 * time.Second)
	if a.central != nil {
		if err := a.central.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
