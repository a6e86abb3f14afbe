package service

import (
	"context"
	"time"

	"github.com/xiaot623/gogo/debatebridge/internal/apperr"
	"github.com/xiaot623/gogo/debatebridge/internal/domain"
)

// Poll waits until the run has something new, the wait bound elapses or ctx
// is done, then returns the run's progress and the interesting events after
// the read cursor. A poll abandoned by its caller does not advance the cursor.
func (s *Service) Poll(ctx context.Context, req domain.PollRequest) (*domain.PollResponse, error) {
	if req.RunID == "" {
		return nil, apperr.InvalidArgument("run_id", "is required")
	}
	timeout, err := s.pollTimeout(req.TimeoutMs)
	if err != nil {
		return nil, err
	}
	if _, err := s.runs.GetRunInfo(req.RunID); err != nil {
		return nil, apperr.RunNotFound(req.RunID)
	}

	start := s.now()
	s.metrics.WaitersActive.Inc()
	outcome := s.waiters.Wait(ctx, req.RunID, timeout, func() bool {
		return s.runs.Ready(req.RunID)
	})
	s.metrics.WaitersActive.Dec()
	waited := s.now().Sub(start)
	s.metrics.RecordPoll(string(outcome), waited)

	if outcome == domain.WaitOutcomeCanceled {
		return nil, ctx.Err()
	}

	snap, err := s.runs.GetNewEvents(req.RunID)
	if err != nil {
		return nil, apperr.RunNotFound(req.RunID)
	}
	return &domain.PollResponse{
		PollSnapshot: snap,
		WaitOutcome:  outcome,
		WaitedMs:     waited.Milliseconds(),
		Done:         snap.Status.IsTerminal(),
	}, nil
}

// pollTimeout resolves a caller-supplied wait against the configured default
// and ceiling.
func (s *Service) pollTimeout(timeoutMs *int) (time.Duration, error) {
	if timeoutMs == nil {
		return s.config.PollTimeout, nil
	}
	if *timeoutMs < 0 {
		return 0, apperr.InvalidArgument("timeout_ms", "must not be negative")
	}
	timeout := time.Duration(*timeoutMs) * time.Millisecond
	if timeout > s.config.MaxPollTimeout {
		timeout = s.config.MaxPollTimeout
	}
	return timeout, nil
}

// GetResult returns the terminal payload of a completed run.
func (s *Service) GetResult(ctx context.Context, runID string) (*domain.RunResult, error) {
	if runID == "" {
		return nil, apperr.InvalidArgument("run_id", "is required")
	}
	res, err := s.runs.GetResult(runID)
	if err != nil {
		return nil, apperr.RunNotFound(runID)
	}
	if res.Status != domain.RunStatusCompleted {
		appErr := apperr.WrongState(runID, string(res.Status), "fetch the result of")
		if res.Error != "" {
			appErr.WithDetail("error", res.Error)
		}
		return nil, appErr
	}
	return &res, nil
}

// GetRunInfo returns a summary snapshot of the run without touching its cursor.
func (s *Service) GetRunInfo(ctx context.Context, runID string) (*domain.RunInfo, error) {
	if runID == "" {
		return nil, apperr.InvalidArgument("run_id", "is required")
	}
	info, err := s.runs.GetRunInfo(runID)
	if err != nil {
		return nil, apperr.RunNotFound(runID)
	}
	return &info, nil
}

// ListRuns lists every tracked run in creation order.
func (s *Service) ListRuns(ctx context.Context) (*domain.ListRunsResponse, error) {
	return &domain.ListRunsResponse{Runs: s.runs.ListRuns()}, nil
}
