package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/debatebridge/internal/domain"
)

func TestIdleSweepFailsQuietRuns(t *testing.T) {
	svc := newTestService(t, "http://127.0.0.1:1", nil)
	ctx := context.Background()

	svc.runs.CreateRun("quiet")
	svc.runs.CreateRun("done")
	svc.runs.AddEvent("done", mustEvent(t, `{"type":"debate_complete","result":{}}`))

	streamCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.trackStream("quiet", cancel)

	svc.sweepIdleRuns()
	info, err := svc.GetRunInfo(ctx, "quiet")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusRunning, info.Status, "fresh runs are left alone")

	svc.now = func() time.Time { return time.Now().Add(2 * svc.config.IdleTimeout) }
	svc.sweepIdleRuns()

	info, err = svc.GetRunInfo(ctx, "quiet")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, info.Status)
	assert.Contains(t, info.Error, "no upstream activity")
	assert.Error(t, streamCtx.Err(), "stream aborted")
	assert.Zero(t, svc.OpenStreams())

	done, err := svc.GetRunInfo(ctx, "done")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, done.Status)
}

func TestRunIdleMonitorDisabled(t *testing.T) {
	svc := newTestService(t, "http://127.0.0.1:1", nil)
	svc.config.IdleTimeout = 0

	returned := make(chan struct{})
	go func() {
		svc.RunIdleMonitor(context.Background())
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("monitor should return immediately when disabled")
	}
}
