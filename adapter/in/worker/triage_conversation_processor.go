package worker

import (
	"context"
	"fmt"

	"triage_server/core/service/conversation"
	"triage_server/pkg/logger"
)

// ConversationProcessor handles conversation re-triage jobs.
type ConversationProcessor struct {
	convService *conversation.Service
}

// NewConversationProcessor creates a new conversation processor.
func NewConversationProcessor(convService *conversation.Service) *ConversationProcessor {
	return &ConversationProcessor{
		convService: convService,
	}
}

// ProcessTriage recomputes the text signals of one conversation.
func (p *ConversationProcessor) ProcessTriage(ctx context.Context, msg *Message) error {
	payload, err := ParsePayload[TriagePayload](msg)
	if err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}
	if payload.ConversationID == "" {
		return fmt.Errorf("triage job missing conversation_id")
	}

	logger.Debug("[ConversationProcessor.ProcessTriage] conversation=%s", payload.ConversationID)

	return p.convService.Retriage(ctx, payload.ConversationID)
}
