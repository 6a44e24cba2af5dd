package worker

import (
	"context"
	"fmt"

	"triage_server/core/domain"
	"triage_server/core/service/metrics"
	"triage_server/pkg/logger"
)

// EvaluationProcessor handles evaluation ingest and rebuild jobs.
type EvaluationProcessor struct {
	aggregator *metrics.Service
}

// NewEvaluationProcessor creates a new evaluation processor.
func NewEvaluationProcessor(aggregator *metrics.Service) *EvaluationProcessor {
	return &EvaluationProcessor{
		aggregator: aggregator,
	}
}

// ProcessRecord folds one evaluation into the consolidated aggregate.
func (p *EvaluationProcessor) ProcessRecord(ctx context.Context, msg *Message) error {
	payload, err := ParsePayload[EvaluationPayload](msg)
	if err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	logger.Info("[EvaluationProcessor.ProcessRecord] id=%d, nps=%d", payload.ID, payload.NPS)

	rec := &domain.EvaluationRecord{
		ID:              payload.ID,
		ResponseTimeSec: payload.ResponseTimeSec,
		Satisfaction:    payload.Satisfaction,
		Efficiency:      payload.Efficiency,
		Assertiveness:   payload.Assertiveness,
		NPS:             payload.NPS,
		Category:        payload.Category,
		Timestamp:       payload.Timestamp,
	}

	_, err = p.aggregator.Record(ctx, rec)
	return err
}

// ProcessRebuild recomputes the aggregate from the evaluation archive.
func (p *EvaluationProcessor) ProcessRebuild(ctx context.Context, msg *Message) error {
	logger.Info("[EvaluationProcessor.ProcessRebuild] rebuilding consolidated metrics")

	rebuilt, err := p.aggregator.Rebuild(ctx)
	if err != nil {
		return err
	}

	logger.Info("[EvaluationProcessor.ProcessRebuild] done: total=%d, version=%d",
		rebuilt.TotalCount, rebuilt.Version)
	return nil
}
