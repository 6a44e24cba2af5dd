package domain

import (
	"context"
	"time"
)

// MessageRole identifies who wrote a conversation message.
type MessageRole string

const (
	RoleClient MessageRole = "client"
	RoleAgent  MessageRole = "agent"
)

// ConversationStatus is the lifecycle state kept by the external orchestrator.
// The core only reads it; open/reopen/close transitions happen elsewhere.
type ConversationStatus string

const (
	ConversationOpen   ConversationStatus = "open"
	ConversationClosed ConversationStatus = "closed"
)

// Message is one entry of a conversation transcript.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// ConversationSnapshot is a read-only view of one conversation, supplied by
// the persistence collaborator. The core never mutates it.
type ConversationSnapshot struct {
	ID              string             `json:"id"`
	Status          ConversationStatus `json:"status"`
	StartTime       time.Time          `json:"start_time"`
	RequestCategory RequestCategory    `json:"request_category"`
	ReopenCount     int                `json:"reopen_count"`
	Messages        []Message          `json:"messages"`
}

// LatestClientMessage returns the content of the most recent client message,
// or "" when the client has not written anything yet.
func (c *ConversationSnapshot) LatestClientMessage() string {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleClient {
			return c.Messages[i].Content
		}
	}
	return ""
}

// PriorityScore is the ranking result for one conversation.
type PriorityScore struct {
	ConversationID string  `json:"conversation_id"`
	Score          float64 `json:"score"`
	Rank           int     `json:"rank"` // 1 = handle first
}

// ConversationRepository provides conversation snapshots to the ranking layer.
type ConversationRepository interface {
	GetByID(ctx context.Context, id string) (*ConversationSnapshot, error)
	ListOpen(ctx context.Context) ([]*ConversationSnapshot, error)
	Save(ctx context.Context, conv *ConversationSnapshot) error
	UpdateTriage(ctx context.Context, id string, signals *TextSignals) error
}
