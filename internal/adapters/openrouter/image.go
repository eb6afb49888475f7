package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ImageClient implements ports.ImageGenerator against a provider-specific
// submit/poll endpoint pair: POST /generations returns a job id, GET
// /generations/{id} reports status and, once done, a file reference.
type ImageClient struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	pollBudget   time.Duration
}

// NewImageClient creates an image generation client.
func NewImageClient(baseURL, apiKey string, opts ...ImageOption) *ImageClient {
	c := &ImageClient{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseURL:      baseURL,
		apiKey:       apiKey,
		pollInterval: 2 * time.Second,
		pollBudget:   90 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ImageOption configures the image client.
type ImageOption func(*ImageClient)

// WithImageHTTPClient overrides the HTTP client, for tests.
func WithImageHTTPClient(hc *http.Client) ImageOption {
	return func(c *ImageClient) {
		c.httpClient = hc
	}
}

// WithPolling tunes the poll interval and total polling budget.
func WithPolling(interval, budget time.Duration) ImageOption {
	return func(c *ImageClient) {
		c.pollInterval = interval
		c.pollBudget = budget
	}
}

type imageSubmission struct {
	ID string `json:"id"`
}

type imageStatus struct {
	Status  string `json:"status"`
	FileRef string `json:"file_ref"`
	Error   string `json:"error"`
}

// GenerateImage submits the prompt and polls until the provider reports a
// file reference, the budget runs out, or ctx is canceled.
func (c *ImageClient) GenerateImage(ctx context.Context, prompt, style, aspectRatio string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"prompt":       prompt,
		"style":        style,
		"aspect_ratio": aspectRatio,
	})
	if err != nil {
		return "", fmt.Errorf("marshal image request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generations", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit image generation: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("image generation rejected: status %d", resp.StatusCode)
	}

	var sub imageSubmission
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return "", fmt.Errorf("decode image submission: %w", err)
	}

	deadline := time.Now().Add(c.pollBudget)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}

		status, err := c.poll(ctx, sub.ID)
		if err != nil {
			return "", err
		}
		switch status.Status {
		case "done":
			return status.FileRef, nil
		case "failed":
			return "", fmt.Errorf("image generation failed: %s", status.Error)
		}
	}
	return "", fmt.Errorf("image generation timed out after %s", c.pollBudget)
}

func (c *ImageClient) poll(ctx context.Context, id string) (*imageStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/generations/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll image generation: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poll image generation: status %d", resp.StatusCode)
	}

	var status imageStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode poll response: %w", err)
	}
	return &status, nil
}
