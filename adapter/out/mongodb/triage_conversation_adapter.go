package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"triage_server/core/domain"
)

// =============================================================================
// MongoDB Conversation Adapter
// =============================================================================

const collectionConversations = "conversations"

// ConversationAdapter implements domain.ConversationRepository using MongoDB.
type ConversationAdapter struct {
	db         *mongo.Database
	collection *mongo.Collection
}

var _ domain.ConversationRepository = (*ConversationAdapter)(nil)

// NewConversationAdapter creates a new MongoDB conversation adapter.
func NewConversationAdapter(db *mongo.Database) *ConversationAdapter {
	collection := db.Collection(collectionConversations)
	return &ConversationAdapter{
		db:         db,
		collection: collection,
	}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *ConversationAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "start_time", Value: 1},
			},
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// =============================================================================
// Document Model
// =============================================================================

// conversationDocument represents the MongoDB document structure.
type conversationDocument struct {
	ID              string            `bson:"id"`
	Status          string            `bson:"status"`
	StartTime       time.Time         `bson:"start_time"`
	RequestCategory string            `bson:"request_category,omitempty"`
	ReopenCount     int               `bson:"reopen_count"`
	Messages        []messageDocument `bson:"messages"`

	// Last triage result, written by the triage worker.
	Triage    *triageDocument `bson:"triage,omitempty"`
	TriagedAt time.Time       `bson:"triaged_at,omitempty"`

	UpdatedAt time.Time `bson:"updated_at"`
}

type messageDocument struct {
	Role      string    `bson:"role"`
	Content   string    `bson:"content"`
	Timestamp time.Time `bson:"timestamp"`
}

type triageDocument struct {
	Greeting        bool    `bson:"greeting"`
	Farewell        bool    `bson:"farewell"`
	RequestDetected bool    `bson:"request_detected"`
	RequestCategory string  `bson:"request_category"`
	UrgencyTier     int     `bson:"urgency_tier"`
	SentimentScore  float64 `bson:"sentiment_score"`
	DeadlineDays    *int    `bson:"deadline_days,omitempty"`
	DeadlineText    *string `bson:"deadline_text,omitempty"`
}

// =============================================================================
// Operations
// =============================================================================

// GetByID returns one conversation, or (nil, nil) when it does not exist.
func (a *ConversationAdapter) GetByID(ctx context.Context, id string) (*domain.ConversationSnapshot, error) {
	filter := bson.M{"id": id}

	var doc conversationDocument
	err := a.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}

	return a.toEntity(&doc), nil
}

// ListOpen returns every open conversation.
func (a *ConversationAdapter) ListOpen(ctx context.Context) ([]*domain.ConversationSnapshot, error) {
	filter := bson.M{"status": string(domain.ConversationOpen)}
	findOpts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})

	cursor, err := a.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list open conversations: %w", err)
	}
	defer cursor.Close(ctx)

	var convs []*domain.ConversationSnapshot
	for cursor.Next(ctx) {
		var doc conversationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode conversation: %w", err)
		}
		convs = append(convs, a.toEntity(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return convs, nil
}

// Save upserts a conversation snapshot.
func (a *ConversationAdapter) Save(ctx context.Context, conv *domain.ConversationSnapshot) error {
	doc := a.toDocument(conv)
	doc.UpdatedAt = time.Now()

	filter := bson.M{"id": conv.ID}
	opts := options.Replace().SetUpsert(true)

	if _, err := a.collection.ReplaceOne(ctx, filter, doc, opts); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// UpdateTriage sets the triage result on an existing conversation.
func (a *ConversationAdapter) UpdateTriage(ctx context.Context, id string, signals *domain.TextSignals) error {
	filter := bson.M{"id": id}
	update := bson.M{
		"$set": bson.M{
			"triage": &triageDocument{
				Greeting:        signals.Greeting,
				Farewell:        signals.Farewell,
				RequestDetected: signals.RequestDetected,
				RequestCategory: string(signals.RequestCategory),
				UrgencyTier:     signals.UrgencyTier,
				SentimentScore:  signals.SentimentScore,
				DeadlineDays:    signals.DeadlineDays,
				DeadlineText:    signals.DeadlineText,
			},
			"triaged_at": time.Now(),
			"updated_at": time.Now(),
		},
	}

	result, err := a.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update triage: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("conversation %s not found", id)
	}
	return nil
}

// =============================================================================
// Mapping
// =============================================================================

func (a *ConversationAdapter) toDocument(conv *domain.ConversationSnapshot) *conversationDocument {
	msgs := make([]messageDocument, len(conv.Messages))
	for i, m := range conv.Messages {
		msgs[i] = messageDocument{
			Role:      string(m.Role),
			Content:   m.Content,
			Timestamp: m.Timestamp,
		}
	}

	return &conversationDocument{
		ID:              conv.ID,
		Status:          string(conv.Status),
		StartTime:       conv.StartTime,
		RequestCategory: string(conv.RequestCategory),
		ReopenCount:     conv.ReopenCount,
		Messages:        msgs,
	}
}

func (a *ConversationAdapter) toEntity(doc *conversationDocument) *domain.ConversationSnapshot {
	msgs := make([]domain.Message, len(doc.Messages))
	for i, m := range doc.Messages {
		msgs[i] = domain.Message{
			Role:      domain.MessageRole(m.Role),
			Content:   m.Content,
			Timestamp: m.Timestamp,
		}
	}

	return &domain.ConversationSnapshot{
		ID:              doc.ID,
		Status:          domain.ConversationStatus(doc.Status),
		StartTime:       doc.StartTime,
		RequestCategory: domain.RequestCategory(doc.RequestCategory),
		ReopenCount:     doc.ReopenCount,
		Messages:        msgs,
	}
}
