// Package publisher sends finished debates to the external sharing service.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xiaot623/gogo/debatebridge/internal/domain"
)

// ErrNotConfigured is returned when no publishing endpoint is set.
var ErrNotConfigured = errors.New("publishing not configured")

// Receipt is the sharing service's answer to a publish call.
type Receipt struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Client is the sharing service client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new publishing client. An empty baseURL yields a client
// whose Publish always returns ErrNotConfigured.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Enabled reports whether a publishing endpoint is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// Publish uploads the flattened debate and returns its share location.
func (c *Client) Publish(ctx context.Context, data *domain.PublishData) (*Receipt, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal publish data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/publications", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to publish: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("publisher returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var receipt Receipt
	if err := json.Unmarshal(respBody, &receipt); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if receipt.URL == "" {
		return nil, errors.New("publisher response missing url")
	}
	return &receipt, nil
}
