// Package metrics maintains the consolidated evaluation aggregate.
//
// All writers go through Record, which uses optimistic concurrency against
// the storage layer: read the current aggregate, fold the new evaluation in
// on a copy, and compare-and-swap on the stored version. Concurrent writers
// never lose updates; the loser retries with fresh state.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"triage_server/core/domain"
	"triage_server/core/port/out"
	"triage_server/pkg/apperr"
	"triage_server/pkg/logger"
	"triage_server/pkg/snowflake"
)

const (
	defaultMaxRetries = 5
	cacheKey          = "metrics:consolidated"
)

type Service struct {
	repo       out.MetricsRepository
	archive    out.EvaluationLog // nil disables archiving
	cache      out.Cache         // nil disables the read-side snapshot
	idGen      *snowflake.Generator
	maxRetries int
	cacheTTL   time.Duration
	now        func() time.Time
}

type Option func(*Service)

// WithArchive enables the append-only evaluation archive used by Rebuild.
func WithArchive(archive out.EvaluationLog) Option {
	return func(s *Service) { s.archive = archive }
}

// WithCache enables a read-side snapshot of the aggregate.
func WithCache(cache out.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithMaxRetries bounds the optimistic-write retry loop.
func WithMaxRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

func NewService(repo out.MetricsRepository, idGen *snowflake.Generator, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		idGen:      idGen,
		maxRetries: defaultMaxRetries,
		cacheTTL:   30 * time.Second,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record validates one evaluation and folds it into the consolidated
// aggregate. The updated aggregate is returned.
func (s *Service) Record(ctx context.Context, rec *domain.EvaluationRecord) (*domain.ConsolidatedMetrics, error) {
	if err := rec.Validate(); err != nil {
		return nil, apperr.ValidationFailed(err.Error()).WithError(err)
	}

	if rec.ID == 0 {
		rec.ID = s.idGen.MustGenerate()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now()
	}

	updated, err := s.applyWithRetry(ctx, *rec)
	if err != nil {
		return nil, err
	}

	// The archive is best effort: a failed append never rolls back an
	// accepted evaluation. Rebuild reconciles from whatever made it in.
	if s.archive != nil {
		if err := s.archive.Append(ctx, rec); err != nil {
			logger.WithError(err).Warn("evaluation archive append failed: id=%d", rec.ID)
		}
	}

	s.invalidate(ctx)
	return updated, nil
}

// Current returns the consolidated aggregate, or the empty aggregate when no
// evaluation has been recorded yet.
func (s *Service) Current(ctx context.Context) (*domain.ConsolidatedMetrics, error) {
	if s.cache != nil {
		var cached domain.ConsolidatedMetrics
		if ok, err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	m, err := s.repo.Get(ctx)
	if err != nil {
		return nil, apperr.StorageError("load metrics", err)
	}
	if m == nil {
		m = domain.NewConsolidatedMetrics()
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, m, s.cacheTTL); err != nil {
			logger.WithError(err).Warn("metrics cache set failed")
		}
	}
	return m, nil
}

// Rebuild recomputes the aggregate from the append-only archive and replaces
// the stored document. It is idempotent: rebuilding twice yields the same
// aggregate.
func (s *Service) Rebuild(ctx context.Context) (*domain.ConsolidatedMetrics, error) {
	if s.archive == nil {
		return nil, apperr.Conflict("no evaluation archive configured")
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		// List inside the retry loop: a Record that commits after a stale
		// listing would otherwise be overwritten by the rebuilt aggregate.
		records, err := s.archive.ListAll(ctx)
		if err != nil {
			return nil, apperr.StorageError("list archived evaluations", err)
		}

		rebuilt := domain.NewConsolidatedMetrics()
		for _, rec := range records {
			rebuilt.Apply(*rec, s.now())
		}

		current, err := s.repo.Get(ctx)
		if err != nil {
			return nil, apperr.StorageError("load metrics", err)
		}

		// Archive appends land after the aggregate CAS, so the listing can
		// briefly trail the stored aggregate. Never swap in a rebuild that
		// would drop accepted evaluations; re-list instead.
		if current != nil && current.TotalCount > rebuilt.TotalCount {
			continue
		}

		if current == nil {
			rebuilt.Version = 1
			err = s.repo.Create(ctx, rebuilt)
		} else {
			rebuilt.Version = current.Version + 1
			err = s.repo.CompareAndSwap(ctx, rebuilt, current.Version)
		}
		if err == nil {
			s.invalidate(ctx)
			return rebuilt, nil
		}
		if !errors.Is(err, out.ErrVersionConflict) && !errors.Is(err, out.ErrAlreadyExists) {
			return nil, apperr.StorageError("replace metrics", err)
		}
	}
	return nil, apperr.Conflict("metrics rebuild contended, retry")
}

func (s *Service) applyWithRetry(ctx context.Context, rec domain.EvaluationRecord) (*domain.ConsolidatedMetrics, error) {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("record evaluation: %w", err)
		}

		current, err := s.repo.Get(ctx)
		if err != nil {
			return nil, apperr.StorageError("load metrics", err)
		}

		if current == nil {
			// First evaluation ever. Another writer may win the create race;
			// in that case retry against the winner's document.
			fresh := domain.NewConsolidatedMetrics()
			fresh.Apply(rec, s.now())
			fresh.Version = 1
			err = s.repo.Create(ctx, fresh)
			if err == nil {
				return fresh, nil
			}
			if errors.Is(err, out.ErrAlreadyExists) {
				continue
			}
			return nil, apperr.StorageError("create metrics", err)
		}

		// Fold on a copy so a failed swap leaves nothing half-applied.
		next := current.Clone()
		next.Apply(rec, s.now())
		next.Version = current.Version + 1

		err = s.repo.CompareAndSwap(ctx, next, current.Version)
		if err == nil {
			return next, nil
		}
		if errors.Is(err, out.ErrVersionConflict) {
			continue
		}
		return nil, apperr.StorageError("update metrics", err)
	}
	return nil, apperr.Conflict("metrics update contended, retry")
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		logger.WithError(err).Warn("metrics cache invalidation failed")
	}
}
