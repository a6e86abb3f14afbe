// Package redis mirrors events to Redis Streams.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiaot623/gogo/debatebridge/internal/domain"
)

// KeyPrefix is the stream key prefix; the run id is appended.
const KeyPrefix = "debatebridge:events:"

const defaultMaxLen = 10000

// Mirror XADDs every event to a per-run stream.
type Mirror struct {
	client *redis.Client
	maxLen int64
}

// NewMirrorFromURL connects to redisURL and verifies the connection.
func NewMirrorFromURL(redisURL string) (*Mirror, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewMirrorFromClient(client), nil
}

// NewMirrorFromClient wraps an existing client.
func NewMirrorFromClient(client *redis.Client) *Mirror {
	return &Mirror{client: client, maxLen: defaultMaxLen}
}

// StreamKey returns the stream holding runID's events.
func StreamKey(runID string) string {
	return KeyPrefix + runID
}

// Publish appends ev to the run's stream.
func (m *Mirror) Publish(ctx context.Context, runID string, ev domain.Event) error {
	args := &redis.XAddArgs{
		Stream: StreamKey(runID),
		MaxLen: m.maxLen,
		Approx: true,
		Values: streamValues(runID, ev),
	}
	return m.client.XAdd(ctx, args).Err()
}

// Close closes the underlying client.
func (m *Mirror) Close() error {
	return m.client.Close()
}

func streamValues(runID string, ev domain.Event) map[string]interface{} {
	return map[string]interface{}{
		"run_id":      runID,
		"seq":         ev.Seq,
		"type":        string(ev.Type),
		"interesting": ev.IsInteresting(),
		"received_at": ev.ReceivedAt.Format(time.RFC3339Nano),
		"data":        string(ev.Data),
	}
}
