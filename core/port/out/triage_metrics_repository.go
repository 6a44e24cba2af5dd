// Package out defines outbound ports implemented by storage and transport adapters.
package out

import (
	"context"
	"errors"

	"triage_server/core/domain"
)

var (
	// ErrVersionConflict signals that another writer updated the aggregate
	// between read and write. Callers retry with fresh state.
	ErrVersionConflict = errors.New("metrics: version conflict")

	// ErrAlreadyExists signals a lost create race: another writer created the
	// singleton first. Callers retry and read the winner's document.
	ErrAlreadyExists = errors.New("metrics: aggregate already exists")
)

// MetricsRepository persists the singleton consolidated-metrics aggregate.
//
// The store must guarantee at most one document: Create fails with
// ErrAlreadyExists on a duplicate, and CompareAndSwap only replaces the
// document whose version matches expectedVersion.
type MetricsRepository interface {
	// Get returns the aggregate, or (nil, nil) when none exists yet.
	Get(ctx context.Context) (*domain.ConsolidatedMetrics, error)

	// Create inserts the first aggregate. The stored version is 1.
	Create(ctx context.Context, m *domain.ConsolidatedMetrics) error

	// CompareAndSwap replaces the aggregate only if the stored version equals
	// expectedVersion, bumping it to expectedVersion+1.
	CompareAndSwap(ctx context.Context, m *domain.ConsolidatedMetrics, expectedVersion int64) error
}
