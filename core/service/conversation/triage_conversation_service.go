// Package conversation manages conversation snapshots and their triage state.
package conversation

import (
	"context"
	"time"

	"triage_server/core/domain"
	"triage_server/core/port/out"
	"triage_server/core/service/triage"
	"triage_server/pkg/apperr"
	"triage_server/pkg/logger"
)

type Service struct {
	repo     domain.ConversationRepository
	ranker   *triage.Ranker
	producer out.EvaluationProducer // nil disables async re-triage
}

func NewService(repo domain.ConversationRepository, ranker *triage.Ranker, producer out.EvaluationProducer) *Service {
	return &Service{
		repo:     repo,
		ranker:   ranker,
		producer: producer,
	}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.ConversationSnapshot, error) {
	conv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.StorageError("load conversation", err)
	}
	if conv == nil {
		return nil, apperr.NotFound("conversation")
	}
	return conv, nil
}

// Upsert stores a conversation snapshot and queues it for re-triage when a
// producer is configured; otherwise the triage runs inline.
func (s *Service) Upsert(ctx context.Context, conv *domain.ConversationSnapshot) error {
	if conv.ID == "" {
		return apperr.MissingField("id")
	}
	if err := s.repo.Save(ctx, conv); err != nil {
		return apperr.StorageError("save conversation", err)
	}

	if s.producer != nil {
		if _, err := s.producer.PublishTriage(ctx, conv.ID); err != nil {
			logger.WithError(err).Warn("triage enqueue failed, running inline: id=%s", conv.ID)
			return s.Retriage(ctx, conv.ID)
		}
		return nil
	}
	return s.Retriage(ctx, conv.ID)
}

// RankOpen returns every open conversation ordered by handling priority.
func (s *Service) RankOpen(ctx context.Context, now time.Time) ([]domain.PriorityScore, error) {
	open, err := s.repo.ListOpen(ctx)
	if err != nil {
		return nil, apperr.StorageError("list open conversations", err)
	}
	return s.ranker.Rank(now, open), nil
}

// Retriage recomputes the text signals of the latest client message and
// persists them on the conversation.
func (s *Service) Retriage(ctx context.Context, id string) error {
	conv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return apperr.StorageError("load conversation", err)
	}
	if conv == nil {
		return apperr.NotFound("conversation")
	}

	latest := conv.LatestClientMessage()
	if latest == "" {
		return nil
	}

	signals := triage.ExtractSignals(latest)
	if err := s.repo.UpdateTriage(ctx, id, &signals); err != nil {
		return apperr.StorageError("update triage", err)
	}
	return nil
}

// RetriageAll queues every open conversation for re-triage. Used after the
// classification tables change.
func (s *Service) RetriageAll(ctx context.Context) (int, error) {
	if s.producer == nil {
		return 0, apperr.Conflict("no triage queue configured")
	}

	open, err := s.repo.ListOpen(ctx)
	if err != nil {
		return 0, apperr.StorageError("list open conversations", err)
	}

	queued := 0
	for _, conv := range open {
		if _, err := s.producer.PublishTriage(ctx, conv.ID); err != nil {
			logger.WithError(err).Warn("triage enqueue failed: id=%s", conv.ID)
			continue
		}
		queued++
	}
	return queued, nil
}
