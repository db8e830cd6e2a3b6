// Package classifier is the transport to the multimodal vision model. It
// speaks the OpenAI compatible chat completions protocol and knows nothing
// about birds; prompts and response parsing live in package identify.
package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/antonholmquist/jason"

	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/httpclient"
	"github.com/birdeye-app/birdeye/internal/logger"
)

const (
	componentName = "classifier"

	// DefaultBaseURL is the DashScope OpenAI compatible endpoint.
	DefaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	// DefaultModel is the vision model used for both phases.
	DefaultModel = "qwen-vl-max"
	// DefaultTimeout bounds a single completion.
	DefaultTimeout = 30 * time.Second
)

// Protocol phases, used for logging and metrics.
const (
	PhaseCandidates = "candidates"
	PhaseJudgment   = "judgment"
)

// Request is one single-turn exchange: a system persona, one inline image
// and an instruction block.
type Request struct {
	Phase    string
	System   string
	Prompt   string
	ImageURL string // data URL of the image payload
}

// Classifier returns the raw text answer of the model for a request.
type Classifier interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config configures a Client.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client calls an OpenAI compatible /chat/completions endpoint.
type Client struct {
	cfg  Config
	http *httpclient.Client
	log  logger.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithHTTPClient replaces the HTTP client, mainly for tests.
func WithHTTPClient(h *httpclient.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a Client. A missing API key is a configuration error.
func New(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.Newf("classifier API key is not configured").
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Priority(errors.PriorityCritical).
			Build()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.New(&httpclient.Config{
			DefaultTimeout: cfg.Timeout,
			BearerToken:    cfg.APIKey,
		})
	}
	if c.log == nil {
		c.log = logger.Global().Module(componentName)
	}
	return c, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

func (c *Client) buildRequest(req Request) chatRequest {
	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	var parts []contentPart
	if req.ImageURL != "" {
		parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: req.ImageURL}})
	}
	parts = append(parts, contentPart{Type: "text", Text: req.Prompt})
	messages = append(messages, chatMessage{Role: "user", Content: parts})

	return chatRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		Messages:    messages,
	}
}

// Complete sends one chat completion and returns the trimmed answer text.
// There is no retry; the call is bounded by the configured timeout.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	endpoint := c.cfg.BaseURL + "/chat/completions"
	start := time.Now()
	resp, err := c.http.Post(ctx, endpoint, "application/json", c.buildRequest(req))
	if err != nil {
		return "", errors.New(err).
			Component(componentName).
			Category(errors.CategoryNetwork).
			Context("phase", req.Phase).
			Context("model", c.cfg.Model).
			Timing("chat_completion", time.Since(start)).
			Build()
	}
	if err := httpclient.CheckResponse(resp, componentName); err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	doc, err := jason.NewObjectFromReader(resp.Body)
	if err != nil {
		return "", errors.New(fmt.Errorf("decode completion: %w", err)).
			Component(componentName).
			Category(errors.CategoryClassifier).
			Context("phase", req.Phase).
			Build()
	}

	text, err := answerText(doc)
	if err != nil {
		return "", errors.New(err).
			Component(componentName).
			Category(errors.CategoryClassifier).
			Context("phase", req.Phase).
			Build()
	}

	c.log.WithContext(ctx).Debug("completion received",
		logger.String("phase", req.Phase),
		logger.String("model", c.cfg.Model),
		logger.Int("chars", len(text)),
		logger.Duration("elapsed", time.Since(start)))
	return text, nil
}

// answerText reads choices[0].message.content, which is either a string or
// a list of typed parts depending on the provider.
func answerText(doc *jason.Object) (string, error) {
	choices, err := doc.GetObjectArray("choices")
	if err != nil || len(choices) == 0 {
		return "", errors.NewStd("completion has no choices")
	}
	msg, err := choices[0].GetObject("message")
	if err != nil {
		return "", errors.NewStd("completion choice has no message")
	}
	if s, err := msg.GetString("content"); err == nil {
		return strings.TrimSpace(s), nil
	}
	parts, err := msg.GetObjectArray("content")
	if err != nil {
		return "", errors.NewStd("completion message has no content")
	}
	var sb strings.Builder
	for _, p := range parts {
		if t, err := p.GetString("text"); err == nil {
			sb.WriteString(t)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
