package model

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/domain/docModel"
	"github.com/akolanti/smartsort/internal/metrics"
	"github.com/akolanti/smartsort/pkg/logger_i"
)

// Provider is one generative model backend.
type Provider interface {
	Name() string
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	// Generate sends a single non streaming prompt and returns the raw text answer.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Result is a parsed model classification. The caller decides the resulting status.
type Result struct {
	Category          string   `json:"category"`
	SuggestedFilename string   `json:"suggested_filename,omitempty"`
	TargetPath        string   `json:"target_path,omitempty"`
	Confidence        float64  `json:"confidence"`
	Tags              []string `json:"tags,omitempty"`
	Reasoning         string   `json:"reasoning,omitempty"`

	Provider     string `json:"-"`
	RawResponse  string `json:"-"`
	PromptLength int    `json:"-"`
}

type Classifier struct {
	provider Provider
	logger   *logger_i.Logger
	timeout  time.Duration
	cacheTTL time.Duration
	now      func() time.Time

	mu        sync.Mutex
	checkedAt time.Time
	available bool
}

// NewClassifier accepts a nil provider; such a classifier never produces a result.
func NewClassifier(provider Provider, timeout, cacheTTL time.Duration) *Classifier {
	if timeout <= 0 {
		timeout = config.ModelTimeout
	}
	if cacheTTL <= 0 {
		cacheTTL = config.AvailabilityCacheTTL
	}
	return &Classifier{
		provider: provider,
		logger:   logger_i.NewLogger("Model Classifier"),
		timeout:  timeout,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

func (c *Classifier) ProviderName() string {
	if c.provider == nil {
		return "none"
	}
	return c.provider.Name()
}

// Available pings the provider at most once per cacheTTL.
func (c *Classifier) Available(ctx context.Context) bool {
	if c.provider == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.checkedAt.IsZero() && c.now().Sub(c.checkedAt) < c.cacheTTL {
		return c.available
	}

	pingCtx, cancel := context.WithTimeout(ctx, config.ModelPingTimeout)
	defer cancel()
	err := c.provider.Ping(pingCtx)
	c.available = err == nil
	c.checkedAt = c.now()
	if err != nil {
		c.logger.Warn("model provider unavailable", "provider", c.provider.Name(), "error", err)
	}
	return c.available
}

// Classify returns ok=false whenever no usable classification exists: provider down,
// transport failure, unparseable answer or missing required fields.
func (c *Classifier) Classify(ctx context.Context, doc docModel.Document) (Result, bool) {
	if !c.Available(ctx) {
		return Result{}, false
	}

	prompt := BuildPrompt(doc)
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	raw, err := c.provider.Generate(callCtx, prompt)
	metrics.CaptureExecutionMetrics("model_"+c.provider.Name(), time.Since(start))
	if err != nil {
		c.logger.Warn("model call failed", "provider", c.provider.Name(), "documentId", doc.Id, "error", err)
		c.markUnavailable()
		return Result{}, false
	}

	res, ok := ParseResponse(raw)
	if !ok {
		c.logger.Warn("model response had no usable classification", "provider", c.provider.Name(), "documentId", doc.Id)
		return Result{}, false
	}
	res.Provider = c.provider.Name()
	res.RawResponse = truncate(raw, config.RawResponseTraceChars)
	res.PromptLength = len(prompt)
	return res, true
}

// markUnavailable makes the next call ping again instead of trusting a stale positive.
func (c *Classifier) markUnavailable() {
	c.mu.Lock()
	c.checkedAt = time.Time{}
	c.mu.Unlock()
}

// truncate keeps the first n characters of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
