// Package debateclient provides the HTTP client for the upstream deliberation
// service with SSE streaming.
package debateclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xiaot623/gogo/debatebridge/internal/domain"
)

const maxMessageSize = 4 * 1024 * 1024

// Message is one parsed SSE frame.
type Message struct {
	Event string
	Data  string
}

// MessageHandler is called once per message, in stream order.
type MessageHandler func(msg Message) error

// Client talks to the upstream deliberation service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new upstream client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		// Streams are bounded by the caller's context, not a client timeout.
		httpClient: &http.Client{},
	}
}

// Stream opens a new deliberation and delivers every message to handler until
// the stream ends, handler returns an error, or ctx is done.
func (c *Client) Stream(ctx context.Context, req *domain.StartRequest, handler MessageHandler) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/debates", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if req.RequestID != "" {
		httpReq.Header.Set("X-Request-ID", req.RequestID)
	}
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to open debate stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upstream returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	return parseSSE(resp.Body, handler)
}

// Cancel asks the upstream service to stop a run.
func (c *Client) Cancel(ctx context.Context, runID string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	endpoint := c.baseURL + "/v1/debates/" + url.PathEscape(runID) + "/cancel"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to cancel debate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upstream returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// parseSSE parses an SSE stream and calls the handler for each message.
func parseSSE(reader io.Reader, handler MessageHandler) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), maxMessageSize)
	var msg Message

	for scanner.Scan() {
		line := scanner.Text()

		// Empty line marks end of message
		if line == "" {
			if msg.Event != "" || msg.Data != "" {
				if err := handler(msg); err != nil {
					return err
				}
				msg = Message{}
			}
			continue
		}

		if strings.HasPrefix(line, "event:") {
			msg.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		} else if strings.HasPrefix(line, "data:") {
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if msg.Data != "" {
				msg.Data += "\n" + data
			} else {
				msg.Data = data
			}
		}
		// Comments (":") and id/retry fields are ignored
	}

	if msg.Event != "" || msg.Data != "" {
		if err := handler(msg); err != nil {
			return err
		}
	}

	return scanner.Err()
}
