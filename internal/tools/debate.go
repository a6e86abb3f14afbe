package tools

import (
	"context"
	"encoding/json"

	"github.com/xiaot623/gogo/debatebridge/internal/apperr"
	"github.com/xiaot623/gogo/debatebridge/internal/domain"
)

// Tool names.
const (
	ToolStartDebate   = "start_debate"
	ToolPollDebate    = "poll_debate"
	ToolGetResult     = "get_debate_result"
	ToolGetStatus     = "get_debate_status"
	ToolCancelDebate  = "cancel_debate"
	ToolPublishDebate = "publish_debate"
	ToolListDebates   = "list_debates"
)

// DebateService is the set of run operations the tools expose.
type DebateService interface {
	StartRun(ctx context.Context, req domain.StartRequest) (*domain.StartResponse, error)
	Poll(ctx context.Context, req domain.PollRequest) (*domain.PollResponse, error)
	GetResult(ctx context.Context, runID string) (*domain.RunResult, error)
	GetRunInfo(ctx context.Context, runID string) (*domain.RunInfo, error)
	CancelRun(ctx context.Context, runID string) (*domain.CancelResponse, error)
	Publish(ctx context.Context, runID string) (*domain.PublishResponse, error)
	ListRuns(ctx context.Context) (*domain.ListRunsResponse, error)
}

const runIDSchema = `{"type":"object","properties":{"run_id":{"type":"string"}},"required":["run_id"]}`

// RegisterDebateTools registers the debate tools backed by svc.
func RegisterDebateTools(r *Registry, svc DebateService) error {
	tools := []Tool{
		{
			Name:        ToolStartDebate,
			Description: "Start a multi-agent debate on a topic. Returns the run id once the debate service confirms it.",
			Parameters: json.RawMessage(`{"type":"object","properties":{` +
				`"topic":{"type":"string"},"agent_count":{"type":"integer","minimum":0},` +
				`"rounds":{"type":"integer","minimum":0},"topology":{"type":"string"},` +
				`"models":{"type":"array","items":{"type":"string"}}},"required":["topic"]}`),
			Exec: func(ctx context.Context, args json.RawMessage) (*Output, error) {
				var req domain.StartRequest
				if err := decodeArgs(args, &req); err != nil {
					return nil, err
				}
				resp, err := svc.StartRun(ctx, req)
				if err != nil {
					return nil, err
				}
				return &Output{Text: startText(resp), Data: resp}, nil
			},
		},
		{
			Name:        ToolPollDebate,
			Description: "Wait for new debate events and return progress plus everything new since the previous poll.",
			Parameters: json.RawMessage(`{"type":"object","properties":{` +
				`"run_id":{"type":"string"},"timeout_ms":{"type":"integer","minimum":0}},"required":["run_id"]}`),
			Exec: func(ctx context.Context, args json.RawMessage) (*Output, error) {
				var req domain.PollRequest
				if err := decodeArgs(args, &req); err != nil {
					return nil, err
				}
				resp, err := svc.Poll(ctx, req)
				if err != nil {
					return nil, err
				}
				return &Output{Text: pollText(resp), Data: resp}, nil
			},
		},
		{
			Name:        ToolGetResult,
			Description: "Fetch the final result of a completed debate.",
			Parameters:  json.RawMessage(runIDSchema),
			Exec: runTool(func(ctx context.Context, runID string) (*Output, error) {
				res, err := svc.GetResult(ctx, runID)
				if err != nil {
					return nil, err
				}
				return &Output{Text: resultText(res), Data: res}, nil
			}),
		},
		{
			Name:        ToolGetStatus,
			Description: "Show a debate's status and progress without consuming new events.",
			Parameters:  json.RawMessage(runIDSchema),
			Exec: runTool(func(ctx context.Context, runID string) (*Output, error) {
				info, err := svc.GetRunInfo(ctx, runID)
				if err != nil {
					return nil, err
				}
				return &Output{Text: statusText(info), Data: info}, nil
			}),
		},
		{
			Name:        ToolCancelDebate,
			Description: "Cancel a running debate.",
			Parameters:  json.RawMessage(runIDSchema),
			Exec: runTool(func(ctx context.Context, runID string) (*Output, error) {
				resp, err := svc.CancelRun(ctx, runID)
				if err != nil {
					return nil, err
				}
				return &Output{Text: resp.Message, Data: resp}, nil
			}),
		},
		{
			Name:        ToolPublishDebate,
			Description: "Publish a completed debate and return its share URL.",
			Parameters:  json.RawMessage(runIDSchema),
			Exec: runTool(func(ctx context.Context, runID string) (*Output, error) {
				resp, err := svc.Publish(ctx, runID)
				if err != nil {
					return nil, err
				}
				return &Output{Text: publishText(resp), Data: resp}, nil
			}),
		},
		{
			Name:        ToolListDebates,
			Description: "List every debate tracked by this bridge.",
			Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
			Exec: func(ctx context.Context, _ json.RawMessage) (*Output, error) {
				resp, err := svc.ListRuns(ctx)
				if err != nil {
					return nil, err
				}
				return &Output{Text: listText(resp), Data: resp}, nil
			},
		},
	}

	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

func runTool(fn func(ctx context.Context, runID string) (*Output, error)) ExecutorFunc {
	return func(ctx context.Context, args json.RawMessage) (*Output, error) {
		var req domain.RunRequest
		if err := decodeArgs(args, &req); err != nil {
			return nil, err
		}
		if req.RunID == "" {
			return nil, apperr.InvalidArgument("run_id", "is required")
		}
		return fn(ctx, req.RunID)
	}
}

func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		field := "args"
		if typeErr, ok := err.(*json.UnmarshalTypeError); ok && typeErr.Field != "" {
			field = typeErr.Field
		}
		return apperr.InvalidArgument(field, "has the wrong type")
	}
	return nil
}
