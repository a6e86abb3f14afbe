package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xiaot623/gogo/debatebridge/internal/adapter/debateclient"
	"github.com/xiaot623/gogo/debatebridge/internal/adapter/publisher"
	"github.com/xiaot623/gogo/debatebridge/internal/config"
	"github.com/xiaot623/gogo/debatebridge/internal/domain"
	"github.com/xiaot623/gogo/debatebridge/internal/eventbus"
	"github.com/xiaot623/gogo/debatebridge/internal/metrics"
	"github.com/xiaot623/gogo/debatebridge/internal/runlog"
	"github.com/xiaot623/gogo/debatebridge/internal/waiter"
)

// Upstream opens deliberation streams and cancels runs.
type Upstream interface {
	Stream(ctx context.Context, req *domain.StartRequest, handler debateclient.MessageHandler) error
	Cancel(ctx context.Context, runID string) error
}

// Publisher uploads finished debates.
type Publisher interface {
	Enabled() bool
	Publish(ctx context.Context, data *domain.PublishData) (*publisher.Receipt, error)
}

// PublicationStore archives publications.
type PublicationStore interface {
	CreatePublication(ctx context.Context, pub *domain.Publication) error
	GetPublicationByRun(ctx context.Context, runID string) (*domain.Publication, error)
	ListPublications(ctx context.Context, limit int) ([]domain.Publication, error)
}

type Service struct {
	runs      *runlog.Registry
	waiters   *waiter.Coordinator
	upstream  Upstream
	publisher Publisher
	store     PublicationStore
	mirror    eventbus.Mirror
	metrics   *metrics.Metrics
	config    *config.Config
	logger    *slog.Logger
	now       func() time.Time

	// baseCtx parents every upstream stream; stopAll aborts them on shutdown.
	baseCtx context.Context
	stopAll context.CancelFunc

	mu      sync.Mutex
	streams map[string]context.CancelFunc
	wg      sync.WaitGroup

	// publishLocks holds one *sync.Mutex per run being published.
	publishLocks sync.Map
}

func New(cfg *config.Config, upstream Upstream, pub Publisher, store PublicationStore, mirror eventbus.Mirror, m *metrics.Metrics, logger *slog.Logger) *Service {
	if mirror == nil {
		mirror = eventbus.NoOp{}
	}
	if m == nil {
		m = metrics.New("debatebridge")
	}
	if logger == nil {
		logger = slog.Default()
	}
	waiters := waiter.NewCoordinator()
	baseCtx, stopAll := context.WithCancel(context.Background())
	return &Service{
		runs:      runlog.NewRegistry(waiters),
		waiters:   waiters,
		upstream:  upstream,
		publisher: pub,
		store:     store,
		mirror:    mirror,
		metrics:   m,
		config:    cfg,
		logger:    logger,
		now:       time.Now,
		baseCtx:   baseCtx,
		stopAll:   stopAll,
		streams:   make(map[string]context.CancelFunc),
	}
}

// Shutdown aborts every open upstream stream and waits for the stream
// goroutines to finish or ctx to expire.
func (s *Service) Shutdown(ctx context.Context) error {
	s.stopAll()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) trackStream(runID string, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams[runID] = cancel
}

func (s *Service) untrackStream(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.streams, runID)
}

// abortStream cancels the local stream for runID and reports whether one was open.
func (s *Service) abortStream(runID string) bool {
	s.mu.Lock()
	cancel, ok := s.streams[runID]
	delete(s.streams, runID)
	s.mu.Unlock()

	if ok {
		cancel()
	}
	return ok
}

// OpenStreams returns the number of upstream streams being consumed.
func (s *Service) OpenStreams() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}
