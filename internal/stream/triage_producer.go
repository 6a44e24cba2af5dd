package stream

import (
	"context"
	"time"

	"github.com/google/uuid"

	"triage_server/core/domain"
	"triage_server/core/port/out"
)

// Producer publishes triage jobs to Redis Streams.
type Producer struct {
	stream *RedisStream
}

var _ out.EvaluationProducer = (*Producer)(nil)

func NewProducer(stream *RedisStream) *Producer {
	return &Producer{stream: stream}
}

type Job struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

// PublishEvaluation queues one accepted evaluation for the aggregate writer.
func (p *Producer) PublishEvaluation(ctx context.Context, rec *domain.EvaluationRecord) (string, error) {
	job := &Job{
		ID:   uuid.New().String(),
		Type: "evaluation.record",
		Payload: map[string]any{
			"id":                rec.ID,
			"response_time_sec": rec.ResponseTimeSec,
			"satisfaction":      rec.Satisfaction,
			"efficiency":        rec.Efficiency,
			"assertiveness":     rec.Assertiveness,
			"nps":               rec.NPS,
			"category":          rec.Category,
			"timestamp":         rec.Timestamp,
		},
		CreatedAt: time.Now(),
	}
	return p.stream.Publish(ctx, StreamEvaluations, job)
}

// PublishTriage queues one conversation for signal re-extraction.
func (p *Producer) PublishTriage(ctx context.Context, conversationID string) (string, error) {
	job := &Job{
		ID:   uuid.New().String(),
		Type: "conversation.triage",
		Payload: map[string]any{
			"conversation_id": conversationID,
		},
		CreatedAt: time.Now(),
	}
	return p.stream.Publish(ctx, StreamTriage, job)
}
