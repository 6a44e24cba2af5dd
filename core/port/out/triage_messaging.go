package out

import (
	"context"

	"triage_server/core/domain"
)

// EvaluationProducer publishes accepted evaluations to the ingest stream.
// A single consumer group member applies them, which keeps aggregate writes
// serialized even with many API instances.
type EvaluationProducer interface {
	PublishEvaluation(ctx context.Context, rec *domain.EvaluationRecord) (string, error)
	PublishTriage(ctx context.Context, conversationID string) (string, error)
}
