package worker

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of a job.
type JobType = string

// Job types
const (
	JobEvaluationRecord   JobType = "evaluation.record"
	JobConversationTriage         = "conversation.triage"
	JobMetricsRebuild             = "metrics.rebuild"
)

type Message struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
	Retries   int            `json:"retries"`
}

func NewMessage(jobType string, payload map[string]any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      jobType,
		Payload:   payload,
		CreatedAt: time.Now(),
		Retries:   0,
	}
}

// Evaluation payloads
type EvaluationPayload struct {
	ID              int64     `json:"id"`
	ResponseTimeSec int       `json:"response_time_sec"`
	Satisfaction    float64   `json:"satisfaction"`
	Efficiency      float64   `json:"efficiency"`
	Assertiveness   float64   `json:"assertiveness"`
	NPS             int       `json:"nps"`
	Category        string    `json:"category,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Triage payloads
type TriagePayload struct {
	ConversationID string `json:"conversation_id"`
}
