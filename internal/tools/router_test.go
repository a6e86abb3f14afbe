package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaot623/gogo/debatebridge/internal/apperr"
	"github.com/xiaot623/gogo/debatebridge/internal/logging"
	"github.com/xiaot623/gogo/debatebridge/internal/metrics"
	"github.com/xiaot623/gogo/debatebridge/policy"
)

type stubPolicy struct {
	decision string
	reason   string
	err      error
	inputs   []map[string]interface{}
}

func (p *stubPolicy) Evaluate(_ context.Context, input interface{}) (string, string, error) {
	p.inputs = append(p.inputs, input.(map[string]interface{}))
	return p.decision, p.reason, p.err
}

func echoTool(name string) Tool {
	return Tool{
		Name: name,
		Exec: func(_ context.Context, args json.RawMessage) (*Output, error) {
			return &Output{Text: "ok", Data: string(args)}, nil
		},
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("b")))
	require.NoError(t, r.Register(echoTool("a")))

	assert.Error(t, r.Register(echoTool("a")))
	assert.Error(t, r.Register(Tool{Name: "c"}))
	assert.Error(t, r.Register(Tool{Exec: echoTool("x").Exec}))

	names := []string{}
	for _, tool := range r.List() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"b", "a"}, names)

	_, ok := r.Lookup("missing")
	assert.False(t, ok)
	assert.Panics(t, func() { r.MustRegister(echoTool("a")) })
}

func TestRouterInvoke(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown tool", func(t *testing.T) {
		router := NewRouter(NewRegistry(), nil, 8, nil, logging.NewForTest())
		res := router.Invoke(ctx, "nope", nil)
		assert.False(t, res.OK)
		require.NotNil(t, res.Error)
		assert.Equal(t, apperr.CodeUnknownTool, res.Error.Code)
		assert.Contains(t, res.Text, "Error: ")
	})

	t.Run("args must be an object", func(t *testing.T) {
		reg := NewRegistry()
		reg.MustRegister(echoTool("echo"))
		router := NewRouter(reg, nil, 8, nil, logging.NewForTest())

		res := router.Invoke(ctx, "echo", json.RawMessage(`[1,2]`))
		assert.False(t, res.OK)
		assert.Equal(t, apperr.CodeInvalidArgument, res.Error.Code)
	})

	t.Run("missing args become an empty object", func(t *testing.T) {
		reg := NewRegistry()
		reg.MustRegister(echoTool("echo"))
		router := NewRouter(reg, nil, 8, nil, logging.NewForTest())

		res := router.Invoke(ctx, "echo", nil)
		assert.True(t, res.OK)
		assert.Equal(t, "{}", res.Data)
	})

	t.Run("policy sees tool, args and limits", func(t *testing.T) {
		reg := NewRegistry()
		reg.MustRegister(echoTool("echo"))
		pe := &stubPolicy{decision: policy.DecisionAllow}
		router := NewRouter(reg, pe, 6, nil, logging.NewForTest())

		res := router.Invoke(ctx, "echo", json.RawMessage(`{"agent_count":3}`))
		assert.True(t, res.OK)
		require.Len(t, pe.inputs, 1)
		assert.Equal(t, "echo", pe.inputs[0]["tool_name"])
		assert.Equal(t, float64(3), pe.inputs[0]["args"].(map[string]interface{})["agent_count"])
		assert.Equal(t, 6, pe.inputs[0]["limits"].(map[string]interface{})["max_agents"])
	})

	t.Run("policy block", func(t *testing.T) {
		reg := NewRegistry()
		called := false
		reg.MustRegister(Tool{Name: "echo", Exec: func(context.Context, json.RawMessage) (*Output, error) {
			called = true
			return nil, nil
		}})
		pe := &stubPolicy{decision: policy.DecisionBlock, reason: "too big"}
		router := NewRouter(reg, pe, 6, nil, logging.NewForTest())

		res := router.Invoke(ctx, "echo", nil)
		assert.False(t, res.OK)
		assert.False(t, called)
		assert.Equal(t, apperr.CodePolicyBlocked, res.Error.Code)
		assert.Equal(t, "echo blocked by policy: too big", res.Error.Message)
	})

	t.Run("policy failure", func(t *testing.T) {
		reg := NewRegistry()
		reg.MustRegister(echoTool("echo"))
		router := NewRouter(reg, &stubPolicy{err: errors.New("boom")}, 6, nil, logging.NewForTest())

		res := router.Invoke(ctx, "echo", nil)
		assert.Equal(t, apperr.CodeInternal, res.Error.Code)
	})

	t.Run("executor errors", func(t *testing.T) {
		reg := NewRegistry()
		reg.MustRegister(Tool{Name: "typed", Exec: func(context.Context, json.RawMessage) (*Output, error) {
			return nil, apperr.RunNotFound("r1")
		}})
		reg.MustRegister(Tool{Name: "plain", Exec: func(context.Context, json.RawMessage) (*Output, error) {
			return nil, errors.New("disk on fire")
		}})
		m := metrics.New("test")
		router := NewRouter(reg, nil, 6, m, logging.NewForTest())

		res := router.Invoke(ctx, "typed", nil)
		assert.Equal(t, apperr.CodeNotFound, res.Error.Code)
		assert.Equal(t, "Error: run r1 not found", res.Text)

		res = router.Invoke(ctx, "plain", nil)
		assert.Equal(t, apperr.CodeInternal, res.Error.Code)

		assert.Equal(t, float64(1), testutil.ToFloat64(m.ToolCalls.WithLabelValues("typed", "error")))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.ToolCalls.WithLabelValues("plain", "error")))
	})
}

func TestRouterWithDefaultPolicy(t *testing.T) {
	ctx := context.Background()
	engine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	require.NoError(t, err)

	svc := &fakeDebateService{}
	reg := NewRegistry()
	require.NoError(t, RegisterDebateTools(reg, svc))
	router := NewRouter(reg, engine, 4, nil, logging.NewForTest())

	res := router.Invoke(ctx, ToolStartDebate, json.RawMessage(`{"topic":"t","agent_count":9}`))
	assert.False(t, res.OK)
	assert.Equal(t, apperr.CodePolicyBlocked, res.Error.Code)
	assert.Nil(t, svc.started)

	res = router.Invoke(ctx, ToolStartDebate, json.RawMessage(`{"topic":"t","agent_count":3}`))
	assert.True(t, res.OK)
	require.NotNil(t, svc.started)
	assert.Equal(t, 3, svc.started.AgentCount)
}
