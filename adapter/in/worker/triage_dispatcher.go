package worker

import (
	"context"

	"github.com/goccy/go-json"

	"triage_server/pkg/logger"
)

type Handler struct {
	evaluationProcessor   *EvaluationProcessor
	conversationProcessor *ConversationProcessor
}

func NewHandler(
	evaluationProcessor *EvaluationProcessor,
	conversationProcessor *ConversationProcessor,
) *Handler {
	return &Handler{
		evaluationProcessor:   evaluationProcessor,
		conversationProcessor: conversationProcessor,
	}
}

func (h *Handler) Process(ctx context.Context, msg *Message) error {
	logger.Debug("Processing message: %s", msg.Type)

	switch msg.Type {
	case JobEvaluationRecord:
		return h.evaluationProcessor.ProcessRecord(ctx, msg)
	case JobMetricsRebuild:
		return h.evaluationProcessor.ProcessRebuild(ctx, msg)
	case JobConversationTriage:
		return h.conversationProcessor.ProcessTriage(ctx, msg)
	default:
		logger.Warn("Unknown job type: %s", msg.Type)
		return nil
	}
}

func ParsePayload[T any](msg *Message) (*T, error) {
	var payload T
	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
