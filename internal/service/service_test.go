package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/debatebridge/internal/adapter/debateclient"
	"github.com/xiaot623/gogo/debatebridge/internal/adapter/publisher"
	"github.com/xiaot623/gogo/debatebridge/internal/apperr"
	"github.com/xiaot623/gogo/debatebridge/internal/config"
	"github.com/xiaot623/gogo/debatebridge/internal/domain"
	"github.com/xiaot623/gogo/debatebridge/internal/logging"
	"github.com/xiaot623/gogo/debatebridge/internal/metrics"
	"github.com/xiaot623/gogo/debatebridge/tests/helpers"
)

func testConfig() *config.Config {
	return &config.Config{
		PollTimeout:    200 * time.Millisecond,
		MaxPollTimeout: 3 * time.Second,
		StartTimeout:   2 * time.Second,
		StreamTimeout:  30 * time.Second,
		IdleTimeout:    time.Minute,
		MaxAgents:      12,
	}
}

type fakePublisher struct {
	enabled bool
	err     error
	delay   time.Duration

	mu    sync.Mutex
	calls int
	last  *domain.PublishData
}

func (f *fakePublisher) Enabled() bool { return f.enabled }

func (f *fakePublisher) Publish(ctx context.Context, data *domain.PublishData) (*publisher.Receipt, error) {
	if !f.enabled {
		return nil, publisher.ErrNotConfigured
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = data
	if f.err != nil {
		return nil, f.err
	}
	return &publisher.Receipt{ID: "pub-" + data.RunID, URL: "https://share.example/" + data.RunID}, nil
}

func (f *fakePublisher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestService(t *testing.T, upstreamURL string, pub Publisher) *Service {
	t.Helper()
	if pub == nil {
		pub = &fakePublisher{enabled: true}
	}
	svc := New(testConfig(), debateclient.NewClient(upstreamURL, ""), pub,
		helpers.NewTestSQLiteStore(t), nil, metrics.New("test"), logging.NewForTest())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Shutdown(ctx)
	})
	return svc
}

func mustEvent(t *testing.T, data string) domain.Event {
	t.Helper()
	ev, err := domain.DecodeEvent("", []byte(data))
	require.NoError(t, err)
	return ev
}

func requireCode(t *testing.T, err error, code string) *apperr.Error {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %T: %v", err, err)
	require.Equal(t, code, appErr.Code, appErr.Message)
	return appErr
}

func timeoutMs(ms int) *int {
	return &ms
}
