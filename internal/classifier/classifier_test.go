package classifier

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/httpclient"
	"github.com/birdeye-app/birdeye/internal/logger"
)

const testBaseURL = "https://llm.example.test/v1"

func newTestClient(t *testing.T, cfg Config) (*Client, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	if cfg.APIKey == "" {
		cfg.APIKey = "sk-test"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = testBaseURL + "/"
	}
	h := httpclient.New(&httpclient.Config{
		DefaultTimeout: time.Second,
		BearerToken:    cfg.APIKey,
		Transport:      transport,
	})
	c, err := New(cfg, WithHTTPClient(h), WithLogger(logger.NewDiscard()))
	require.NoError(t, err)
	return c, transport
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{APIKey: "  "})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestCompleteSendsChatRequest(t *testing.T) {
	c, transport := newTestClient(t, Config{Model: "qwen-vl-max", Temperature: 0.3})

	transport.RegisterResponder(http.MethodPost, testBaseURL+"/chat/completions",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

			body, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			var got map[string]any
			require.NoError(t, json.Unmarshal(body, &got))

			assert.Equal(t, "qwen-vl-max", got["model"])
			assert.InDelta(t, 0.3, got["temperature"], 1e-9)
			assert.NotContains(t, got, "max_tokens")

			messages := got["messages"].([]any)
			require.Len(t, messages, 2)
			system := messages[0].(map[string]any)
			assert.Equal(t, "system", system["role"])
			assert.Equal(t, "persona", system["content"])

			user := messages[1].(map[string]any)
			parts := user["content"].([]any)
			require.Len(t, parts, 2)
			img := parts[0].(map[string]any)
			assert.Equal(t, "image_url", img["type"])
			assert.Equal(t, "data:image/jpeg;base64,AQID", img["image_url"].(map[string]any)["url"])
			text := parts[1].(map[string]any)
			assert.Equal(t, "text", text["type"])
			assert.Equal(t, "identify this", text["text"])

			return httpmock.NewStringResponse(http.StatusOK,
				`{"choices":[{"message":{"role":"assistant","content":"  {\"chinese_name\":\"白鹭\"}  "}}]}`), nil
		})

	text, err := c.Complete(t.Context(), Request{
		Phase:    PhaseJudgment,
		System:   "persona",
		Prompt:   "identify this",
		ImageURL: "data:image/jpeg;base64,AQID",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"chinese_name":"白鹭"}`, text)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestCompleteAcceptsContentParts(t *testing.T) {
	c, transport := newTestClient(t, Config{})
	transport.RegisterResponder(http.MethodPost, testBaseURL+"/chat/completions",
		httpmock.NewStringResponder(http.StatusOK,
			`{"choices":[{"message":{"content":[{"type":"text","text":"part one, "},{"type":"text","text":"part two"}]}}]}`))

	text, err := c.Complete(t.Context(), Request{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "part one, part two", text)
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
		category  errors.ErrorCategory
	}{
		{"unauthorized", httpmock.NewStringResponder(http.StatusUnauthorized, `{"error":"bad key"}`), errors.CategoryHTTP},
		{"no choices", httpmock.NewStringResponder(http.StatusOK, `{"choices":[]}`), errors.CategoryClassifier},
		{"not json", httpmock.NewStringResponder(http.StatusOK, `upstream timeout`), errors.CategoryClassifier},
		{"transport", httpmock.NewErrorResponder(io.ErrUnexpectedEOF), errors.CategoryNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, transport := newTestClient(t, Config{})
			transport.RegisterResponder(http.MethodPost, testBaseURL+"/chat/completions", tt.responder)

			_, err := c.Complete(t.Context(), Request{Phase: PhaseCandidates, Prompt: "x"})
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, tt.category), "got %v", err)
			assert.Equal(t, 1, transport.GetTotalCallCount(), "no retries")
		})
	}
}

func TestCompleteTimesOut(t *testing.T) {
	c, transport := newTestClient(t, Config{Timeout: 50 * time.Millisecond})
	transport.RegisterResponder(http.MethodPost, testBaseURL+"/chat/completions",
		func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		})

	start := time.Now()
	_, err := c.Complete(t.Context(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
