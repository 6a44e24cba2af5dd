package out

import (
	"context"

	"triage_server/core/domain"
)

// EvaluationLog is an append-only archive of accepted evaluations.
// It exists so the consolidated aggregate can be rebuilt by an idempotent
// aggregation pass; it is never read on the hot update path.
type EvaluationLog interface {
	Append(ctx context.Context, rec *domain.EvaluationRecord) error

	// ListAll returns every archived evaluation in insertion (ID) order.
	ListAll(ctx context.Context) ([]*domain.EvaluationRecord, error)
}
