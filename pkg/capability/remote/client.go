// Package remote implements the HTTP clients for the external job service
// that executes language model calls, image crops, and frame extractions.
// The transport contract is a JSON POST returning {success, result|error}.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/weftlabs/weft/pkg/capability"
)

const defaultTimeoutSeconds = 120

// RetryConfig defines retry behavior for job service requests.
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

// Client posts capability payloads to the job service. The caller's bearer
// credential, when present on the context, is forwarded untouched.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryConfig
	logger     *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeoutSeconds * time.Second,
		},
		retry:  RetryConfig{Attempts: 1},
		logger: logger.With("module", "capability_client"),
	}
}

// WithRetry returns a copy of the client with the given retry behavior.
func (c *Client) WithRetry(retry RetryConfig) *Client {
	clone := *c
	if retry.Attempts < 1 {
		retry.Attempts = 1
	}

	clone.retry = retry

	return &clone
}

func (c *Client) post(ctx context.Context, path string, payload map[string]any) (*capability.Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var lastErr error

	for attempt := 1; attempt <= c.retry.Attempts; attempt++ {
		if attempt > 1 && c.retry.Delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retry.Delay):
			}
		}

		result, err := c.doPost(ctx, path, body)
		if err == nil {
			return result, nil
		}

		lastErr = err

		c.logger.Warn("Job service request failed",
			"path", path,
			"attempt", attempt,
			"error", err,
		)
	}

	return nil, fmt.Errorf("job service request failed after %d attempts: %w", c.retry.Attempts, lastErr)
}

func (c *Client) doPost(ctx context.Context, path string, body []byte) (*capability.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if token := capability.TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("job service returned status %d", resp.StatusCode)
	}

	var result capability.Result
	if err := json.Unmarshal(responseBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode job service response: %w", err)
	}

	return &result, nil
}
