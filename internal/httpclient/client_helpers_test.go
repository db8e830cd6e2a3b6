package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// testClient returns a Client closed at test end. A nil cfg uses defaults.
func testClient(t *testing.T, cfg *Config) *Client {
	t.Helper()
	if cfg == nil {
		d := defaultConfig()
		cfg = &d
	}
	c := New(cfg)
	t.Cleanup(c.Close)
	return c
}

func testServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func drain(t *testing.T, resp *http.Response) {
	t.Helper()
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
}
