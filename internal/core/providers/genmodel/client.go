// Package genmodel adapts multimodal generative model APIs to a single
// synchronous call: ordered parts in, generated text out.
package genmodel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"exam-analyzer-go/internal/domain/content"
	"exam-analyzer-go/internal/platform/metrics"
	"exam-analyzer-go/internal/platform/observability"
	"exam-analyzer-go/internal/utils"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderStub   = "stub"
)

var ErrNoCredential = errors.New("model credential is required")

// Request is one generation call. Parts are sent in order as a single user
// turn.
type Request struct {
	Credential string
	Model      string
	Parts      []content.Part
}

// Client generates text from multimodal parts. Errors from the remote
// service are returned unmodified so callers can inspect their text.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
	Provider() string
}

type Config struct {
	Provider string
	// Timeout bounds one Generate call; zero means no extra deadline.
	Timeout    time.Duration
	HTTPClient *http.Client
	Gemini     GeminiConfig
	OpenAI     OpenAIConfig
	Logger     *utils.Logger
}

type GeminiConfig struct {
	// BaseURL overrides the public endpoint, mostly for tests and proxies.
	BaseURL string
}

type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	MaxTokens int
}

// New returns the client for cfg.Provider, instrumented with spans and
// Prometheus latency.
func New(cfg Config) (Client, error) {
	var inner Client
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGemini:
		inner = newGemini(cfg)
	case ProviderOpenAI:
		inner = newOpenAI(cfg)
	case ProviderStub:
		inner = NewStub()
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Provider)
	}
	return &instrumented{inner: inner, timeout: cfg.Timeout, logger: cfg.Logger}, nil
}

type instrumented struct {
	inner   Client
	timeout time.Duration
	logger  *utils.Logger
}

func (c *instrumented) Provider() string {
	return c.inner.Provider()
}

func (c *instrumented) Generate(ctx context.Context, req Request) (text string, err error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ctx, end := observability.StartSpan(ctx, "model", c.inner.Provider())
	started := time.Now()
	c.logger.DebugTag("MODEL", "generate: provider=%s model=%s parts=%d images=%d",
		c.inner.Provider(), req.Model, len(req.Parts), content.CountImages(req.Parts))

	defer func() {
		end(err)
		metrics.ObserveModelCall(c.inner.Provider(), started, err)
		if err != nil {
			c.logger.WarnTag("MODEL", "%s call failed after %s: %v", c.inner.Provider(), time.Since(started), err)
			return
		}
		c.logger.InfoTag("MODEL", "%s returned %d chars in %s", c.inner.Provider(), len(text), time.Since(started))
	}()

	return c.inner.Generate(ctx, req)
}
