package records

import (
	"time"

	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/logger"
	"github.com/birdeye-app/birdeye/internal/observability/metrics"
)

// Backend names.
const (
	BackendREST   = "rest"
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
)

// ErrDisabled is returned by Open when the REST backend has no URL.
var ErrDisabled = errors.NewStd("records store not configured")

// Config selects and configures a backend.
type Config struct {
	Backend    string
	URL        string
	APIKey     string
	Table      string
	Timeout    time.Duration
	SQLitePath string
	MySQL      MySQLConfig
}

// Open creates the configured store, instrumented with m when non-nil.
func Open(cfg Config, log logger.Logger, m *metrics.RecordsMetrics) (Store, error) {
	if log == nil {
		log = logger.Global().Module(componentName)
	}

	var (
		store Store
		err   error
	)
	switch cfg.Backend {
	case BackendREST, "":
		if cfg.URL == "" {
			return nil, ErrDisabled
		}
		store, err = NewRESTStore(RESTConfig{
			BaseURL: cfg.URL,
			APIKey:  cfg.APIKey,
			Table:   cfg.Table,
			Timeout: cfg.Timeout,
		}, log)
	case BackendSQLite:
		store, err = OpenSQLite(cfg.SQLitePath, cfg.Table, cfg.Timeout, log)
	case BackendMySQL:
		store, err = OpenMySQL(cfg.MySQL, cfg.Table, cfg.Timeout, log)
	default:
		return nil, errors.Newf("unknown records backend %q", cfg.Backend).
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err != nil {
		return nil, err
	}

	backend := cfg.Backend
	if backend == "" {
		backend = BackendREST
	}
	log.Info("records store ready", logger.String("backend", backend))
	return Instrument(store, backend, m), nil
}
