// Package api serves the identification pipeline, records and leaderboard
// over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/birdeye-app/birdeye/internal/archive"
	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/leaderboard"
	"github.com/birdeye-app/birdeye/internal/logger"
	"github.com/birdeye-app/birdeye/internal/observability"
	"github.com/birdeye-app/birdeye/internal/records"
	"github.com/birdeye-app/birdeye/internal/session"
)

const componentName = "api"

// Default constants for the HTTP server.
const (
	DefaultListen          = ":8080"
	DefaultMaxUploadMB     = 200
	DefaultShutdownTimeout = 10 * time.Second
	DefaultReadTimeout     = 30 * time.Second
	// batches wait on two model calls per photo
	DefaultWriteTimeout = 10 * time.Minute
)

// Config holds the HTTP server configuration.
type Config struct {
	Listen          string
	MaxUploadMB     int
	RecordListLimit int    // cap on GET /records
	SessionSecret   string // signs the session cookie
	ShutdownTimeout time.Duration
}

// Deps are the components the handlers serve. Records and Leaderboard may
// be nil when no record store is configured.
type Deps struct {
	Sessions    *session.Manager
	Archive     *archive.Builder
	Records     records.Store
	Recorder    *session.Recorder
	Leaderboard *leaderboard.Service
	Metrics     *observability.Metrics
}

// Server is the HTTP front end.
type Server struct {
	echo      *echo.Echo
	cfg       Config
	deps      Deps
	log       logger.Logger
	cookies   *sessions.CookieStore
	startTime time.Time
}

// New builds a Server with its middleware and routes.
func New(cfg Config, deps Deps, log logger.Logger) (*Server, error) {
	if deps.Sessions == nil {
		return nil, errors.Newf("api requires a session manager").
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Build()
	}
	if log == nil {
		log = logger.Global().Module(componentName)
	}
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = DefaultMaxUploadMB
	}
	if cfg.RecordListLimit <= 0 {
		cfg.RecordListLimit = 100
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if deps.Archive == nil {
		deps.Archive = archive.NewBuilder(log.Module("archive"))
	}
	if deps.Recorder == nil && deps.Records != nil {
		deps.Recorder = session.NewRecorder(deps.Records, 0, log.Module("records"))
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger = logger.NewEchoAdapter(log.Module("echo"))
	e.Server.ReadTimeout = DefaultReadTimeout
	e.Server.WriteTimeout = DefaultWriteTimeout

	s := &Server{
		echo:      e,
		cfg:       cfg,
		deps:      deps,
		log:       log,
		cookies:   newCookieStore(cfg.SessionSecret, log),
		startTime: time.Now(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	s.echo.Use(echomw.Recover())
	s.echo.Use(s.requestLogger())
	s.echo.Use(echomw.BodyLimit(fmt.Sprintf("%dM", s.cfg.MaxUploadMB)))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/healthz", s.healthCheck)
	if s.deps.Metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))
	}

	v1 := s.echo.Group("/api/v1")
	v1.POST("/sessions", s.createSession)
	v1.POST("/sessions/:id/photos", s.uploadPhotos)
	v1.GET("/sessions/:id/archive", s.downloadArchive)
	v1.DELETE("/sessions/:id", s.resetSession)

	// the same operations on the session remembered by the cookie
	v1.POST("/session/photos", s.uploadToCookieSession)
	v1.GET("/session/archive", s.downloadCookieArchive)
	v1.DELETE("/session", s.resetCookieSession)

	v1.GET("/records", s.listRecords)
	v1.DELETE("/records/:id", s.deleteRecord)
	v1.GET("/leaderboard", s.getLeaderboard)
}

func (s *Server) healthCheck(c echo.Context) error {
	uptime := time.Since(s.startTime)
	return c.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"sessions":       s.deps.Sessions.Len(),
		"records":        s.deps.Records != nil,
		"uptime_seconds": uptime.Seconds(),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Run serves until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting HTTP server", logger.String("address", s.cfg.Listen))
		if err := s.echo.Start(s.cfg.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return errors.New(err).
				Component(componentName).
				Category(errors.CategoryNetwork).
				Context("listen", s.cfg.Listen).
				Build()
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		s.log.Error("error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.log.Info("server shutdown complete")
	return nil
}
