// Package rpc exposes the tool router over JSON-RPC for internal callers.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"

	"github.com/xiaot623/gogo/debatebridge/internal/tools"
)

// ServiceName is the name the handler is registered under.
const ServiceName = "Bridge"

// Invoker routes named tool calls.
type Invoker interface {
	Invoke(ctx context.Context, name string, args json.RawMessage) *tools.Result
	Tools() []tools.Tool
}

// Server exposes internal RPC endpoints.
type Server struct {
	listener  net.Listener
	rpcServer *rpc.Server
	logger    *slog.Logger
	ready     chan struct{}
	done      chan struct{}
}

// NewServer creates a new RPC server bound to the tool router.
func NewServer(router Invoker, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rpcServer := rpc.NewServer()
	handler := &Handler{router: router}
	if err := rpcServer.RegisterName(ServiceName, handler); err != nil {
		return nil, fmt.Errorf("register rpc handler: %w", err)
	}

	return &Server{
		rpcServer: rpcServer,
		logger:    logger,
		ready:     make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

// Start begins accepting RPC connections on the given address.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts RPC connections on ln until Shutdown closes it.
func (s *Server) Serve(ln net.Listener) error {
	s.listener = ln
	close(s.ready)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				close(s.done)
				return nil
			}
			s.logger.Warn("rpc accept error", "error", err)
			continue
		}

		go s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}

// Ready is closed once the server is accepting connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Shutdown stops accepting new RPC connections.
func (s *Server) Shutdown(ctx context.Context) error {
	select {
	case <-s.ready:
	default:
		return nil
	}

	if err := s.listener.Close(); err != nil {
		return err
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handler implements the bridge RPC methods.
type Handler struct {
	router Invoker
}

// InvokeArgs names a tool and carries its JSON arguments.
type InvokeArgs struct {
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args,omitempty"`
}

// ListToolsArgs is the empty argument of ListTools.
type ListToolsArgs struct{}

// ListToolsReply lists the routable tools.
type ListToolsReply struct {
	Tools []tools.Tool `json:"tools"`
}

// Invoke runs one tool. Tool failures are carried in the reply.
func (h *Handler) Invoke(req *InvokeArgs, resp *tools.Result) error {
	if req == nil {
		return errors.New("invoke request is required")
	}
	if req.Tool == "" {
		return errors.New("tool is required")
	}

	result := h.router.Invoke(context.Background(), req.Tool, req.Args)
	if resp != nil && result != nil {
		*resp = *result
	}
	return nil
}

// ListTools lists the routable tools.
func (h *Handler) ListTools(_ *ListToolsArgs, resp *ListToolsReply) error {
	if resp != nil {
		resp.Tools = h.router.Tools()
	}
	return nil
}
