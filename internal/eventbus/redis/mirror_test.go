package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/debatebridge/internal/domain"
)

func TestStreamKey(t *testing.T) {
	assert.Equal(t, "debatebridge:events:R1", StreamKey("R1"))
}

func TestStreamValues(t *testing.T) {
	ev, err := domain.DecodeEvent("", []byte(`{"type":"agent_response","agent_id":"a1","message":"hi"}`))
	require.NoError(t, err)
	ev.Seq = 3
	ev.ReceivedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	values := streamValues("R1", ev)
	assert.Equal(t, "R1", values["run_id"])
	assert.Equal(t, 3, values["seq"])
	assert.Equal(t, "agent_response", values["type"])
	assert.Equal(t, true, values["interesting"])
	assert.Equal(t, "2026-01-01T00:00:00Z", values["received_at"])
	assert.JSONEq(t, `{"type":"agent_response","agent_id":"a1","message":"hi"}`, values["data"].(string))
}

func TestNewMirrorFromURLRejectsBadURL(t *testing.T) {
	_, err := NewMirrorFromURL("not-a-url://")
	assert.Error(t, err)
}

func TestMirrorPublishIntegration(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	m, err := NewMirrorFromURL(url)
	require.NoError(t, err)
	defer m.Close()

	ctx := context.Background()
	runID := "test-" + time.Now().Format("150405.000000")
	defer m.client.Del(ctx, StreamKey(runID))

	ev, err := domain.DecodeEvent("", []byte(`{"type":"connection","run_id":"x"}`))
	require.NoError(t, err)
	require.NoError(t, m.Publish(ctx, runID, ev))

	n, err := m.client.XLen(ctx, StreamKey(runID)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
