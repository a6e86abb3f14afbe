package rpc

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaot623/gogo/debatebridge/internal/apperr"
	"github.com/xiaot623/gogo/debatebridge/internal/logging"
	"github.com/xiaot623/gogo/debatebridge/internal/tools"
)

func newTestRouter(t *testing.T) *tools.Router {
	t.Helper()
	reg := tools.NewRegistry()
	reg.MustRegister(tools.Tool{
		Name:        "echo",
		Description: "Echo the args",
		Exec: func(_ context.Context, args json.RawMessage) (*tools.Output, error) {
			return &tools.Output{Text: "echo " + string(args)}, nil
		},
	})
	reg.MustRegister(tools.Tool{
		Name: "missing_run",
		Exec: func(context.Context, json.RawMessage) (*tools.Output, error) {
			return nil, apperr.RunNotFound("r1")
		},
	})
	return tools.NewRouter(reg, nil, 4, nil, logging.NewForTest())
}

func startServer(t *testing.T) (*Server, string) {
	t.Helper()
	srv, err := NewServer(newTestRouter(t), logging.NewForTest())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(ln) }()
	<-srv.Ready()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, ln.Addr().String()
}

func TestClientInvoke(t *testing.T) {
	_, addr := startServer(t)
	client := NewClient("tcp://"+addr, 2*time.Second)
	ctx := context.Background()

	res, err := client.Invoke(ctx, "echo", json.RawMessage(`{"a":1}`))
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, `echo {"a":1}`, res.Text)

	res, err = client.Invoke(ctx, "missing_run", nil)
	require.NoError(t, err)
	assert.False(t, res.OK)
	require.NotNil(t, res.Error)
	assert.Equal(t, apperr.CodeNotFound, res.Error.Code)

	res, err = client.Invoke(ctx, "nope", nil)
	require.NoError(t, err)
	assert.Equal(t, apperr.CodeUnknownTool, res.Error.Code)

	_, err = client.Invoke(ctx, "", nil)
	assert.Error(t, err)

	list, err := client.ListTools(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "echo", list[0].Name)
}

func TestShutdown(t *testing.T) {
	srv, addr := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	_, err := NewClient(addr, time.Second).ListTools(context.Background())
	assert.Error(t, err)
}

func TestShutdownBeforeStart(t *testing.T) {
	srv, err := NewServer(newTestRouter(t), nil)
	require.NoError(t, err)
	assert.NoError(t, srv.Shutdown(context.Background()))
}

func TestResolveRPCAddr(t *testing.T) {
	assert.Equal(t, "", resolveRPCAddr("  "))
	assert.Equal(t, "localhost:8081", resolveRPCAddr("localhost:8081"))
	assert.Equal(t, "bridge:8081", resolveRPCAddr("http://bridge:8081/rpc"))
}
