// Package tools maps named tool invocations onto the debate operations and
// turns every outcome into a tool result.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xiaot623/gogo/debatebridge/internal/apperr"
	"github.com/xiaot623/gogo/debatebridge/internal/logging"
	"github.com/xiaot623/gogo/debatebridge/internal/metrics"
	"github.com/xiaot623/gogo/debatebridge/policy"
)

// PolicyEvaluator decides whether an invocation may run.
type PolicyEvaluator interface {
	Evaluate(ctx context.Context, input interface{}) (string, string, error)
}

// Result is the envelope returned for every invocation. Ordinary failures are
// reported here with OK=false rather than as Go errors.
type Result struct {
	Tool  string        `json:"tool"`
	OK    bool          `json:"ok"`
	Text  string        `json:"text"`
	Data  any           `json:"data,omitempty"`
	Error *apperr.Error `json:"error,omitempty"`
}

// Router dispatches invocations through the policy gate to the registry.
type Router struct {
	registry *Registry
	policy   PolicyEvaluator
	limits   map[string]interface{}
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewRouter creates a router. policy and m may be nil.
func NewRouter(registry *Registry, pe PolicyEvaluator, maxAgents int, m *metrics.Metrics, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		registry: registry,
		policy:   pe,
		limits:   map[string]interface{}{"max_agents": maxAgents},
		metrics:  m,
		logger:   logger,
	}
}

// Tools lists the routable tools.
func (r *Router) Tools() []Tool {
	return r.registry.List()
}

// Invoke runs the named tool with JSON args.
func (r *Router) Invoke(ctx context.Context, name string, args json.RawMessage) *Result {
	res := r.invoke(ctx, name, args)
	if r.metrics != nil {
		r.metrics.RecordToolCall(name, res.OK)
	}
	return res
}

func (r *Router) invoke(ctx context.Context, name string, args json.RawMessage) *Result {
	logger := logging.WithTool(r.logger, name)

	tool, ok := r.registry.Lookup(name)
	if !ok {
		return failure(name, apperr.Newf(apperr.CodeUnknownTool, "unknown tool %q", name))
	}

	argsMap := map[string]interface{}{}
	if len(args) > 0 && string(args) != "null" {
		if err := json.Unmarshal(args, &argsMap); err != nil {
			return failure(name, apperr.InvalidArgument("args", "must be a JSON object"))
		}
	} else {
		args = json.RawMessage(`{}`)
	}

	if r.policy != nil {
		decision, reason, err := r.policy.Evaluate(ctx, map[string]interface{}{
			"tool_name": name,
			"args":      argsMap,
			"limits":    r.limits,
		})
		if err != nil {
			logger.Error("policy evaluation failed", "error", err)
			return failure(name, apperr.Wrap(apperr.CodeInternal, "policy evaluation failed", err))
		}
		if decision == policy.DecisionBlock {
			logger.Info("tool blocked by policy", "reason", reason)
			msg := fmt.Sprintf("%s blocked by policy", name)
			if reason != "" {
				msg += ": " + reason
			}
			return failure(name, apperr.New(apperr.CodePolicyBlocked, msg).WithDetail("reason", reason))
		}
	}

	out, err := tool.Exec(ctx, args)
	if err != nil {
		appErr, ok := apperr.As(err)
		if !ok {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				appErr = apperr.Wrap(apperr.CodeInternal, "request canceled", err)
			} else {
				logger.Error("tool execution failed", "error", err)
				appErr = apperr.Wrap(apperr.CodeInternal, "tool execution failed", err)
			}
		}
		return failure(name, appErr)
	}
	if out == nil {
		out = &Output{}
	}
	return &Result{Tool: name, OK: true, Text: out.Text, Data: out.Data}
}

func failure(name string, err *apperr.Error) *Result {
	return &Result{Tool: name, OK: false, Text: "Error: " + err.Message, Error: err}
}
