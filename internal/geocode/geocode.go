// Package geocode turns photo GPS positions into human readable place labels
// using a Nominatim compatible reverse geocoding service.
package geocode

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/antonholmquist/jason"
	"golang.org/x/time/rate"

	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/httpclient"
	"github.com/birdeye-app/birdeye/internal/logger"
	"github.com/birdeye-app/birdeye/internal/observability/metrics"
)

const (
	componentName = "geocode"

	// DefaultEndpoint is the public OpenStreetMap Nominatim reverse API.
	DefaultEndpoint = "https://nominatim.openstreetmap.org/reverse"
	// DefaultTimeout bounds a single lookup.
	DefaultTimeout = 10 * time.Second
)

// Geocoder resolves a position to a place label. An empty label means the
// place is unknown; lookups never fail.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) string
}

// Config configures a Client.
type Config struct {
	Endpoint  string
	Language  string
	Zoom      int
	Timeout   time.Duration
	RateLimit float64 // requests per second, <= 0 disables limiting
	UserAgent string
}

// Client queries a reverse geocoding endpoint. Safe for concurrent use.
type Client struct {
	cfg     Config
	http    *httpclient.Client
	limiter *rate.Limiter
	log     logger.Logger
	metrics *metrics.GeocodeMetrics
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetrics attaches lookup metrics.
func WithMetrics(m *metrics.GeocodeMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithHTTPClient replaces the HTTP client, mainly for tests.
func WithHTTPClient(h *httpclient.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a Client.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Zoom <= 0 {
		cfg.Zoom = 14
	}

	c := &Client{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.New(&httpclient.Config{
			DefaultTimeout: cfg.Timeout,
			UserAgent:      cfg.UserAgent,
		})
	}
	if c.log == nil {
		c.log = logger.Global().Module(componentName)
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return c
}

// Reverse returns the best place label for the position, or "" when the
// service is unreachable, slow, or answers with nothing usable. It issues
// at most one request and never retries.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) string {
	start := time.Now()
	label, err := c.lookup(ctx, lat, lon)

	outcome := metrics.OutcomeSuccess
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
		c.log.WithContext(ctx).Warn("reverse geocoding failed",
			logger.Float64("lat", lat),
			logger.Float64("lon", lon),
			logger.Error(err))
	case label == "":
		outcome = metrics.OutcomeEmpty
		c.log.WithContext(ctx).Debug("reverse geocoding returned no usable address",
			logger.Float64("lat", lat),
			logger.Float64("lon", lon))
	}
	c.metrics.RecordLookup(outcome, time.Since(start).Seconds())
	return label
}

func (c *Client) lookup(ctx context.Context, lat, lon float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", errors.New(err).
				Component(componentName).
				Category(errors.CategoryLimit).
				Context("operation", "rate_limit_wait").
				Build()
		}
	}

	reqURL, err := c.buildURL(lat, lon)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Get(ctx, reqURL)
	if err != nil {
		return "", errors.NetworkError(err, reqURL, c.cfg.Timeout)
	}
	if err := httpclient.CheckResponse(resp, componentName); err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	doc, err := jason.NewObjectFromReader(resp.Body)
	if err != nil {
		return "", errors.New(err).
			Component(componentName).
			Category(errors.CategoryFileParsing).
			Context("operation", "decode_response").
			Build()
	}
	return PlaceLabel(doc), nil
}

func (c *Client) buildURL(lat, lon float64) (string, error) {
	u, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return "", errors.New(err).
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Context("endpoint", c.cfg.Endpoint).
			Build()
	}
	q := u.Query()
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("format", "json")
	if c.cfg.Language != "" {
		q.Set("accept-language", c.cfg.Language)
	}
	q.Set("zoom", strconv.Itoa(c.cfg.Zoom))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// PlaceLabel picks a label from a reverse geocoding document in priority
// order: city with POI name, city with district, city, then state.
func PlaceLabel(doc *jason.Object) string {
	if doc == nil {
		return ""
	}
	address, err := doc.GetObject("address")
	if err != nil {
		return ""
	}

	city := firstString(address, "city", "town", "county")
	district := firstString(address, "suburb", "district", "village")
	state := firstString(address, "state", "province")
	poi, _ := doc.GetString("name")

	switch {
	case city != "" && poi != "":
		return city + poi
	case city != "" && district != "":
		return city + district
	case city != "":
		return city
	default:
		return state
	}
}

func firstString(obj *jason.Object, keys ...string) string {
	for _, k := range keys {
		if v, err := obj.GetString(k); err == nil && v != "" {
			return v
		}
	}
	return ""
}

// Disabled is a Geocoder that never resolves anything.
type Disabled struct{}

// Reverse implements Geocoder.
func (Disabled) Reverse(context.Context, float64, float64) string { return "" }
