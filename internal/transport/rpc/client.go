package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/rpc/jsonrpc"
	"net/url"
	"strings"
	"time"

	"github.com/xiaot623/gogo/debatebridge/internal/tools"
)

// Client calls the bridge over JSON-RPC, one connection per call.
type Client struct {
	addr        string
	dialTimeout time.Duration
	callTimeout time.Duration
}

// NewClient creates a client for addr, which may be host:port or a URL.
// A zero callTimeout leaves the deadline to the caller's context.
func NewClient(addr string, callTimeout time.Duration) *Client {
	return &Client{
		addr:        resolveRPCAddr(addr),
		dialTimeout: 5 * time.Second,
		callTimeout: callTimeout,
	}
}

// Invoke runs one tool on the bridge.
func (c *Client) Invoke(ctx context.Context, tool string, args json.RawMessage) (*tools.Result, error) {
	req := &InvokeArgs{Tool: tool, Args: args}
	var resp tools.Result
	if err := c.call(ctx, ServiceName+".Invoke", req, &resp); err != nil {
		return nil, fmt.Errorf("invoke %s over rpc: %w", tool, err)
	}
	return &resp, nil
}

// ListTools lists the tools the bridge routes.
func (c *Client) ListTools(ctx context.Context) ([]tools.Tool, error) {
	var resp ListToolsReply
	if err := c.call(ctx, ServiceName+".ListTools", &ListToolsArgs{}, &resp); err != nil {
		return nil, fmt.Errorf("list tools over rpc: %w", err)
	}
	return resp.Tools, nil
}

func (c *Client) call(ctx context.Context, method string, args, reply interface{}) error {
	if c.addr == "" {
		return fmt.Errorf("rpc address is not configured")
	}
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	conn, err := net.DialTimeout("tcp", c.addr, c.dialTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client := jsonrpc.NewClient(conn)
	call := client.Go(method, args, reply, nil)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-call.Done:
		return call.Error
	}
}

func resolveRPCAddr(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "://") {
		parsed, err := url.Parse(raw)
		if err == nil && parsed.Host != "" {
			return parsed.Host
		}
	}
	return raw
}
