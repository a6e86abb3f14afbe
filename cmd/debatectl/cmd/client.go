package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/xiaot623/gogo/debatebridge/internal/tools"
	"github.com/xiaot623/gogo/debatebridge/internal/transport/rpc"
)

// bridgeClient is what the commands need from a bridge connection.
type bridgeClient interface {
	Invoke(ctx context.Context, tool string, args json.RawMessage) (*tools.Result, error)
	ListTools(ctx context.Context) ([]tools.Tool, error)
}

func newBridgeClient() (bridgeClient, error) {
	switch transport {
	case "http":
		return newHTTPClient(serverURL), nil
	case "rpc":
		return rpc.NewClient(rpcAddr, 0), nil
	}
	return nil, fmt.Errorf("unknown transport %q (want http or rpc)", transport)
}

// httpClient calls the bridge's tool endpoint.
type httpClient struct {
	baseURL    string
	httpClient *http.Client
}

func newHTTPClient(baseURL string) *httpClient {
	return &httpClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

func (c *httpClient) Invoke(ctx context.Context, tool string, args json.RawMessage) (*tools.Result, error) {
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	endpoint := fmt.Sprintf("%s/v1/tools/%s/invoke", c.baseURL, url.PathEscape(tool))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(args))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var res tools.Result
	if err := c.do(req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *httpClient) ListTools(ctx context.Context) ([]tools.Tool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/tools", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var body struct {
		Tools []tools.Tool `json:"tools"`
	}
	if err := c.do(req, &body); err != nil {
		return nil, err
	}
	return body.Tools, nil
}

func (c *httpClient) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bridge request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bridge returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
