package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/xiaot623/gogo/debatebridge/internal/adapter/publisher"
	"github.com/xiaot623/gogo/debatebridge/internal/apperr"
	"github.com/xiaot623/gogo/debatebridge/internal/domain"
	"github.com/xiaot623/gogo/debatebridge/internal/logging"
	"github.com/xiaot623/gogo/debatebridge/internal/repository"
	"github.com/xiaot623/gogo/debatebridge/internal/runlog"
)

// Publish shares a completed run. A run is published at most once; later
// calls return the archived publication.
func (s *Service) Publish(ctx context.Context, runID string) (*domain.PublishResponse, error) {
	if runID == "" {
		return nil, apperr.InvalidArgument("run_id", "is required")
	}
	info, err := s.runs.GetRunInfo(runID)
	if err != nil {
		return nil, apperr.RunNotFound(runID)
	}
	if info.Status != domain.RunStatusCompleted {
		return nil, apperr.WrongState(runID, string(info.Status), "publish")
	}

	logger := logging.WithRun(s.logger, runID)

	lock := s.publishLock(runID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.store.GetPublicationByRun(ctx, runID)
	if err != nil {
		logger.Error("failed to look up publication", "error", err)
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to look up publication", err)
	}
	if existing != nil {
		s.metrics.RecordPublication("already_published")
		return publishResponse(existing, true), nil
	}

	data, err := s.runs.GetPublishData(runID)
	switch {
	case errors.Is(err, runlog.ErrRunNotFound):
		return nil, apperr.RunNotFound(runID)
	case errors.Is(err, runlog.ErrNotCompleted):
		return nil, apperr.WrongState(runID, string(info.Status), "publish")
	case errors.Is(err, runlog.ErrPublishUnavailable):
		return nil, apperr.Newf(apperr.CodeNotAvailable, "run %s has no publishable round results", runID).
			WithDetail("run_id", runID)
	case err != nil:
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to build publish data", err)
	}

	receipt, err := s.publisher.Publish(ctx, data)
	if err != nil {
		s.metrics.RecordPublication("error")
		if errors.Is(err, publisher.ErrNotConfigured) {
			return nil, apperr.New(apperr.CodeUpstream, "publishing not configured")
		}
		logger.Warn("publish failed", "error", err)
		return nil, apperr.Wrap(apperr.CodeUpstream, "failed to publish debate", err).
			WithDetail("run_id", runID)
	}

	pub := &domain.Publication{
		PublicationID: receipt.ID,
		RunID:         runID,
		URL:           receipt.URL,
		Topic:         data.Topic,
		Topology:      data.Topology,
		ResponseCount: len(data.Responses),
		PublishedAt:   s.now().UTC(),
	}
	if pub.PublicationID == "" {
		pub.PublicationID = "pub_" + uuid.New().String()[:8]
	}

	if err := s.store.CreatePublication(ctx, pub); err != nil {
		if errors.Is(err, repository.ErrDuplicatePublication) {
			if archived, getErr := s.store.GetPublicationByRun(ctx, runID); getErr == nil && archived != nil {
				s.metrics.RecordPublication("already_published")
				return publishResponse(archived, true), nil
			}
		}
		logger.Error("failed to archive publication", "publication_id", pub.PublicationID, "error", err)
	}

	s.metrics.RecordPublication("published")
	logger.Info("run published", "url", pub.URL, "responses", pub.ResponseCount)
	return publishResponse(pub, false), nil
}

// publishLock serializes publishes of one run so the publisher is called at
// most once per run.
func (s *Service) publishLock(runID string) *sync.Mutex {
	lock, _ := s.publishLocks.LoadOrStore(runID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// ListPublications returns archived publications, newest first.
func (s *Service) ListPublications(ctx context.Context, limit int) ([]domain.Publication, error) {
	pubs, err := s.store.ListPublications(ctx, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to list publications", err)
	}
	return pubs, nil
}

func publishResponse(pub *domain.Publication, already bool) *domain.PublishResponse {
	return &domain.PublishResponse{
		RunID:            pub.RunID,
		PublicationID:    pub.PublicationID,
		URL:              pub.URL,
		ResponseCount:    pub.ResponseCount,
		PublishedAt:      pub.PublishedAt,
		AlreadyPublished: already,
	}
}
