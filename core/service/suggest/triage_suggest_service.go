// Package suggest drafts agent replies for open conversations.
package suggest

import (
	"context"
	"fmt"

	"triage_server/core/agent/llm"
	"triage_server/core/domain"
	"triage_server/core/service/triage"
	"triage_server/pkg/apperr"
)

const maxContextMessages = 10

type Service struct {
	convRepo  domain.ConversationRepository
	llmClient *llm.Client
}

func NewService(convRepo domain.ConversationRepository, llmClient *llm.Client) *Service {
	return &Service{
		convRepo:  convRepo,
		llmClient: llmClient,
	}
}

// Suggestion is a drafted reply plus the quality score it would receive.
type Suggestion struct {
	ConversationID string              `json:"conversation_id"`
	Reply          string              `json:"reply"`
	Quality        domain.QualityScore `json:"quality"`
	Signals        domain.TextSignals  `json:"signals"`
}

// SuggestReply drafts a reply to the latest client message, guided by the
// extracted signals, and scores the draft with the same quality rules applied
// to real agent responses.
func (s *Service) SuggestReply(ctx context.Context, conversationID string) (*Suggestion, error) {
	if !s.llmClient.Available() {
		return nil, apperr.ExternalError("openai", nil)
	}

	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, apperr.StorageError("load conversation", err)
	}
	if conv == nil {
		return nil, apperr.NotFound("conversation")
	}

	latest := conv.LatestClientMessage()
	if latest == "" {
		return nil, apperr.Conflict("conversation has no client message to reply to")
	}

	signals := triage.ExtractSignals(latest)

	reply, err := s.llmClient.CompleteWithSystem(ctx, systemPrompt(signals), userPrompt(conv))
	if err != nil {
		return nil, apperr.ExternalError("openai", err)
	}

	return &Suggestion{
		ConversationID: conv.ID,
		Reply:          reply,
		Quality:        triage.ScoreResponse(reply),
		Signals:        signals,
	}, nil
}

func systemPrompt(signals domain.TextSignals) string {
	tone := "cordial e profissional"
	if signals.SentimentScore < 0 {
		tone = "empático e conciliador; reconheça a frustração do cliente"
	}

	urgencyNote := ""
	if signals.UrgencyTier >= 2 {
		urgencyNote = "\nO cliente sinalizou urgência: comprometa-se com um próximo passo concreto."
	}

	return fmt.Sprintf(`Você é um atendente de suporte ao cliente escrevendo em português brasileiro.
Escreva uma resposta à última mensagem do cliente.

Tom: %s.%s

Comece com uma saudação, termine com um agradecimento ou despedida e responda apenas com o corpo da mensagem.`,
		tone, urgencyNote)
}

func userPrompt(conv *domain.ConversationSnapshot) string {
	msgs := conv.Messages
	if len(msgs) > maxContextMessages {
		msgs = msgs[len(msgs)-maxContextMessages:]
	}

	prompt := "Conversa:\n\n"
	for _, m := range msgs {
		role := "Cliente"
		if m.Role == domain.RoleAgent {
			role = "Atendente"
		}
		prompt += fmt.Sprintf("%s: %s\n", role, m.Content)
	}
	prompt += "\nEscreva a resposta do atendente:"
	return prompt
}
