package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xiaot623/gogo/debatebridge/internal/domain"
	"github.com/xiaot623/gogo/debatebridge/internal/logging"
)

// RunIdleMonitor periodically fails running runs whose upstream has gone
// quiet for longer than the configured idle timeout.
func (s *Service) RunIdleMonitor(ctx context.Context) {
	if s.config.IdleTimeout <= 0 {
		return
	}

	interval := s.config.IdleTimeout / 10
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepIdleRuns()
		}
	}
}

func (s *Service) sweepIdleRuns() {
	cutoff := s.now().Add(-s.config.IdleTimeout)

	for _, info := range s.runs.ListRuns() {
		if info.Status != domain.RunStatusRunning || info.UpdatedAt.After(cutoff) {
			continue
		}

		reason := fmt.Sprintf("no upstream activity for %s", s.config.IdleTimeout)
		if !s.runs.MarkFailed(info.RunID, reason) {
			continue
		}
		logging.WithRun(s.logger, info.RunID).Warn("run idle, marking failed", "last_update", info.UpdatedAt)
		s.abortStream(info.RunID)
	}
}
