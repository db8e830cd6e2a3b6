package records

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/httpclient"
	"github.com/birdeye-app/birdeye/internal/logger"
)

// RESTConfig points the REST backend at a PostgREST compatible endpoint.
type RESTConfig struct {
	BaseURL   string // e.g. https://project.supabase.co/rest/v1
	APIKey    string // sent as apikey and bearer credential
	Table     string
	Timeout   time.Duration
	Transport http.RoundTripper // nil uses the default transport
}

// RESTStore talks to a `records` collection over HTTP. It never retries.
type RESTStore struct {
	endpoint string
	http     *httpclient.Client
	log      logger.Logger
}

// NewRESTStore validates cfg and creates a RESTStore.
func NewRESTStore(cfg RESTConfig, log logger.Logger) (*RESTStore, error) {
	if log == nil {
		log = logger.Global().Module(componentName)
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Host == "" || (base.Scheme != "http" && base.Scheme != "https") {
		return nil, errors.Newf("records URL %q is not an absolute http(s) URL", cfg.BaseURL).
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Build()
	}

	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["apikey"] = cfg.APIKey
	}
	client := httpclient.New(&httpclient.Config{
		DefaultTimeout: cfg.Timeout,
		UserAgent:      "birdeye/records",
		BearerToken:    cfg.APIKey,
		Headers:        headers,
		Transport:      cfg.Transport,
	})

	return &RESTStore{
		endpoint: base.JoinPath(url.PathEscape(cfg.Table)).String(),
		http:     client,
		log:      log,
	}, nil
}

// Create posts r and returns the stored representation.
func (s *RESTStore) Create(ctx context.Context, r Record) (Record, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return Record{}, errors.New(err).
			Component(componentName).
			Category(errors.CategoryValidation).
			Context("operation", "encode_record").
			Build()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return Record{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	created, err := s.do(ctx, req, "create")
	if err != nil {
		return Record{}, err
	}
	if len(created) == 0 {
		// store acknowledged without echoing the row
		return r, nil
	}
	s.log.WithContext(ctx).Debug("record created",
		logger.String("id", string(created[0].ID)),
		logger.String("nickname", r.UserNickname))
	return created[0], nil
}

// List fetches records matching q.
func (s *RESTStore) List(ctx context.Context, q Query) ([]Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+listParams(q).Encode(), http.NoBody)
	if err != nil {
		return nil, err
	}
	return s.do(ctx, req, "list")
}

// Delete removes the record with id.
func (s *RESTStore) Delete(ctx context.Context, id ID) error {
	if id == "" {
		return errors.Newf("record id is required").
			Component(componentName).
			Category(errors.CategoryValidation).
			Build()
	}
	params := url.Values{ColumnID: {"eq." + string(id)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.endpoint+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=representation")

	deleted, err := s.do(ctx, req, "delete")
	if err != nil {
		return err
	}
	if len(deleted) == 0 {
		return errors.Newf("record %s not found", id).
			Component(componentName).
			Category(errors.CategoryNotFound).
			Context("id", string(id)).
			Build()
	}
	return nil
}

// Close releases idle connections.
func (s *RESTStore) Close() error {
	s.http.Close()
	return nil
}

// do executes req and decodes a JSON array of records. An empty body
// decodes to no records.
func (s *RESTStore) do(ctx context.Context, req *http.Request, op string) ([]Record, error) {
	resp, err := s.http.Do(ctx, req)
	if err != nil {
		return nil, errors.NetworkError(err, req.URL.Redacted(), s.http.Timeout())
	}
	if err := httpclient.CheckResponse(resp, componentName); err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, errors.NetworkError(err, req.URL.Redacted(), s.http.Timeout())
	}
	if len(bytes.TrimSpace(buf.Bytes())) == 0 {
		return nil, nil
	}
	var out []Record
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		return nil, errors.New(err).
			Component(componentName).
			Category(errors.CategoryFileParsing).
			Context("operation", op).
			Build()
	}
	return out, nil
}

// listParams renders q in the PostgREST query dialect.
func listParams(q Query) url.Values {
	v := url.Values{}
	if q.Filter.Column != "" {
		v.Set(q.Filter.Column, "eq."+q.Filter.Value)
	}
	if q.Order.Column != "" {
		dir := "asc"
		if q.Order.Desc {
			dir = "desc"
		}
		v.Set("order", q.Order.Column+"."+dir)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if len(q.Columns) > 0 {
		v.Set("select", q.selectList())
	}
	return v
}
