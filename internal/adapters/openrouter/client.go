// Package openrouter implements the generation facade against an
// OpenRouter-compatible chat-completions endpoint, with primary/fallback
// model selection.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Wyvern137/hackathon/internal/logging"
	"github.com/Wyvern137/hackathon/internal/metrics"
	"github.com/Wyvern137/hackathon/pkg/domain"
)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 1000
)

// Client calls the chat-completions endpoint. It is stateless across calls
// and safe for concurrent use.
type Client struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	model      string
	fallbacks  []string
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds each individual model attempt. Exceeding it is a
// transport failure and triggers fallback like any other transport failure.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics wires the Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a client for the given endpoint and model chain.
func New(apiURL, apiKey, model string, fallbacks []string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		apiURL:     apiURL,
		apiKey:     apiKey,
		model:      model,
		fallbacks:  fallbacks,
		timeout:    60 * time.Second,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage domain.Usage `json:"usage"`
}

// Generate attempts the request against the selected model, then walks the
// fallback chain on failure. There is no same-model retry: errors are
// treated as non-transient at this layer. A result with Success=false is
// final for the interaction; the error return is reserved for caller
// misuse (empty prompt, canceled context).
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	if req.Prompt == "" {
		return domain.GenerationResult{}, fmt.Errorf("generation request has empty prompt")
	}
	if err := ctx.Err(); err != nil {
		return domain.GenerationResult{}, err
	}

	primary := req.Model
	if primary == "" {
		primary = c.model
	}

	candidates := []string{primary}
	if !req.DisableFallback {
		candidates = append(candidates, c.fallbacks...)
	}

	var tried []string
	lastFailure := domain.FailureTransport
	for {
		model, ok := NextCandidate(tried, candidates)
		if !ok {
			break
		}
		tried = append(tried, model)

		if len(tried) > 1 {
			c.logger.Info("trying fallback model", "model", model)
			if c.metrics != nil {
				c.metrics.FallbackEngaged.Inc()
			}
		}

		result, failure := c.attempt(ctx, model, req)
		if failure == domain.FailureNone {
			c.observe(model, "success")
			return result, nil
		}
		c.observe(model, string(failure))
		c.logger.Warn("generation attempt failed", "model", model, "class", failure)
		lastFailure = failure

		if err := ctx.Err(); err != nil {
			return domain.GenerationResult{}, err
		}
	}

	return domain.GenerationResult{Success: false, Failure: lastFailure}, nil
}

func (c *Client) observe(model, outcome string) {
	if c.metrics != nil {
		c.metrics.GenerationAttempts.WithLabelValues(model, outcome).Inc()
	}
}

// attempt performs a single bounded call against one model.
func (c *Client) attempt(ctx context.Context, model string, req domain.GenerationRequest) (domain.GenerationResult, domain.FailureClass) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	temperature := req.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	var messages []chatMessage
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return domain.GenerationResult{}, domain.FailureTransport
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return domain.GenerationResult{}, domain.FailureTransport
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.GenerationResult{}, domain.FailureTransport
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return domain.GenerationResult{}, classifyStatus(resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.GenerationResult{}, domain.FailureMalformed
	}
	if len(parsed.Choices) == 0 {
		return domain.GenerationResult{}, domain.FailureMalformed
	}

	usedModel := parsed.Model
	if usedModel == "" {
		usedModel = model
	}
	return domain.GenerationResult{
		Success: true,
		Content: parsed.Choices[0].Message.Content,
		Model:   usedModel,
		Usage:   parsed.Usage,
	}, domain.FailureNone
}

func classifyStatus(status int) domain.FailureClass {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.FailureAuth
	case http.StatusPaymentRequired, http.StatusTooManyRequests:
		return domain.FailureQuota
	default:
		return domain.FailureTransport
	}
}
