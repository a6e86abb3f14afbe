package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/gogo/debatebridge/internal/adapter/debateclient"
	"github.com/xiaot623/gogo/debatebridge/internal/apperr"
	"github.com/xiaot623/gogo/debatebridge/internal/domain"
	"github.com/xiaot623/gogo/debatebridge/internal/logging"
)

var errUnconfirmed = errors.New("upstream stream ended before the run was confirmed")

// StartRun opens a new upstream deliberation and returns once upstream has
// confirmed the run id. The stream keeps being consumed in the background.
func (s *Service) StartRun(ctx context.Context, req domain.StartRequest) (*domain.StartResponse, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return nil, apperr.InvalidArgument("topic", "is required")
	}
	if req.AgentCount < 0 {
		return nil, apperr.InvalidArgument("agent_count", "must not be negative")
	}
	if req.Rounds < 0 {
		return nil, apperr.InvalidArgument("rounds", "must not be negative")
	}
	if req.RequestID == "" {
		req.RequestID = "req_" + uuid.New().String()[:8]
	}

	streamCtx, cancel := context.WithTimeout(s.baseCtx, s.config.StreamTimeout)
	confirmed := make(chan string, 1)
	failed := make(chan error, 1)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.consumeStream(streamCtx, cancel, &req, confirmed, failed)
	}()

	timer := time.NewTimer(s.config.StartTimeout)
	defer timer.Stop()

	select {
	case runID := <-confirmed:
		info, err := s.runs.GetRunInfo(runID)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeInternal, "confirmed run disappeared", err)
		}
		topic := info.Topic
		if topic == "" {
			topic = req.Topic
		}
		return &domain.StartResponse{RunID: runID, Status: info.Status, Topic: topic}, nil
	case err := <-failed:
		return nil, apperr.Wrap(apperr.CodeUpstream, "failed to start debate", err).
			WithDetail("request_id", req.RequestID)
	case <-timer.C:
		cancel()
		return nil, apperr.Newf(apperr.CodeUpstream, "upstream did not confirm the run within %s", s.config.StartTimeout).
			WithDetail("request_id", req.RequestID)
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	}
}

// consumeStream reads one upstream stream to its end. The first message that
// carries a run id creates the run; it and every later message are appended to
// that run in arrival order.
func (s *Service) consumeStream(ctx context.Context, cancel context.CancelFunc, req *domain.StartRequest, confirmed chan<- string, failed chan<- error) {
	defer cancel()

	s.metrics.StreamsOpen.Inc()
	defer s.metrics.StreamsOpen.Dec()

	logger := s.logger.With("request_id", req.RequestID)
	var runID string
	var rejected error

	err := s.upstream.Stream(ctx, req, func(msg debateclient.Message) error {
		ev, err := domain.DecodeEvent(msg.Event, []byte(msg.Data))
		if err != nil {
			logger.Debug("skipping malformed upstream message", "event", msg.Event, "error", err)
			s.metrics.RecordDrop("malformed")
			return nil
		}

		if runID == "" {
			id := ev.RunID()
			if msg, ok := ev.ErrorMessage(); ok && id == "" {
				if msg == "" {
					msg = "unknown error"
				}
				rejected = fmt.Errorf("upstream error: %s", msg)
				return rejected
			}
			if id == "" {
				logger.Debug("dropping message before run confirmation", "type", ev.Type)
				s.metrics.RecordDrop("unconfirmed")
				return nil
			}
			runID = id
			logger = logging.WithRun(s.logger, runID)
			if s.runs.CreateRun(runID) {
				s.metrics.RunsStarted.Inc()
				logger.Info("run confirmed", "topic", req.Topic)
			}
			s.trackStream(runID, cancel)
			confirmed <- runID
		}

		s.ingest(ctx, logger, runID, ev)
		return nil
	})

	if runID == "" {
		if rejected != nil {
			err = rejected
		} else if err == nil {
			err = errUnconfirmed
		}
		logger.Warn("upstream stream ended without confirmation", "error", err)
		failed <- err
		return
	}
	s.untrackStream(runID)
	s.finishStream(logger, runID, err)
}

func (s *Service) ingest(ctx context.Context, logger *slog.Logger, runID string, ev domain.Event) {
	stored, ok := s.runs.AppendEvent(runID, ev)
	if !ok {
		s.metrics.RecordDrop("unknown_run")
		return
	}
	s.metrics.RecordEvent(string(stored.Type))
	if stored.Type.IsTerminal() {
		logger.Info("terminal event received", "type", stored.Type, "seq", stored.Seq)
	}

	mirrorCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.mirror.Publish(mirrorCtx, runID, stored); err != nil {
		logger.Warn("failed to mirror event", "seq", stored.Seq, "error", err)
	}
}

// finishStream settles a run whose stream has ended. A run still running at
// this point never got a terminal event, so it is failed.
func (s *Service) finishStream(logger *slog.Logger, runID string, streamErr error) {
	reason := "upstream stream ended before a terminal event"
	if streamErr != nil {
		reason = fmt.Sprintf("upstream stream failed: %v", streamErr)
	}
	if s.runs.MarkFailed(runID, reason) {
		logger.Warn("run failed", "reason", reason)
	}

	info, err := s.runs.GetRunInfo(runID)
	if err != nil {
		return
	}
	s.metrics.RecordRunFinished(string(info.Status))
	logger.Info("upstream stream closed", "status", info.Status, "events", info.EventCount)
}

// CancelRun moves a running run to canceled, aborts its stream and asks
// upstream to stop. The run is canceled whether or not upstream acknowledges.
func (s *Service) CancelRun(ctx context.Context, runID string) (*domain.CancelResponse, error) {
	if runID == "" {
		return nil, apperr.InvalidArgument("run_id", "is required")
	}
	info, err := s.runs.GetRunInfo(runID)
	if err != nil {
		return nil, apperr.RunNotFound(runID)
	}
	if info.Status.IsTerminal() {
		return &domain.CancelResponse{
			RunID:   runID,
			Status:  info.Status,
			Message: fmt.Sprintf("run already %s; nothing to cancel", info.Status),
		}, nil
	}

	logger := logging.WithRun(s.logger, runID)
	s.runs.SetStatus(runID, domain.RunStatusCanceled)
	s.abortStream(runID)

	resp := &domain.CancelResponse{RunID: runID, UpstreamAcknowledged: true, Message: "run canceled"}
	if err := s.upstream.Cancel(ctx, runID); err != nil {
		logger.Warn("upstream cancel failed", "error", err)
		resp.UpstreamAcknowledged = false
		resp.Message = fmt.Sprintf("run canceled locally; upstream cancel failed: %v", err)
	}

	if info, err = s.runs.GetRunInfo(runID); err == nil {
		resp.Status = info.Status
	}
	logger.Info("run cancel requested", "status", resp.Status, "upstream_acknowledged", resp.UpstreamAcknowledged)
	return resp, nil
}
