package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"triage_server/core/domain"
	"triage_server/core/port/out"
)

// =============================================================================
// MongoDB Metrics Adapter
// =============================================================================

const (
	collectionMetrics = "consolidated_metrics"

	// The aggregate is a singleton; every operation addresses this key.
	metricsKey = "consolidated"
)

// MetricsAdapter implements out.MetricsRepository using MongoDB.
//
// Writes use optimistic concurrency: CompareAndSwap replaces the document
// only when the stored version matches, so concurrent writers cannot
// overwrite each other's updates.
type MetricsAdapter struct {
	db         *mongo.Database
	collection *mongo.Collection
}

var _ out.MetricsRepository = (*MetricsAdapter)(nil)

// NewMetricsAdapter creates a new MongoDB metrics adapter.
func NewMetricsAdapter(db *mongo.Database) *MetricsAdapter {
	collection := db.Collection(collectionMetrics)
	return &MetricsAdapter{
		db:         db,
		collection: collection,
	}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *MetricsAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			// The unique key makes the create race detectable: the loser
			// gets a duplicate-key error instead of a second document.
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// =============================================================================
// Document Model
// =============================================================================

// metricsDocument represents the MongoDB document structure.
type metricsDocument struct {
	Key         string               `bson:"key"`
	Version     int64                `bson:"version"`
	Evaluations []evaluationDocument `bson:"evaluations"`
	NPSHistory  []npsEntryDocument   `bson:"nps_history"`
	Averages    averagesDocument     `bson:"averages"`
	Sums        sumsDocument         `bson:"sums"`
	GlobalNPS   int                  `bson:"global_nps"`
	TotalCount  int                  `bson:"total_count"`
	LastUpdated time.Time            `bson:"last_updated"`
}

type evaluationDocument struct {
	ID              int64     `bson:"id"`
	ResponseTimeSec int       `bson:"response_time_sec"`
	Satisfaction    float64   `bson:"satisfaction"`
	Efficiency      float64   `bson:"efficiency"`
	Assertiveness   float64   `bson:"assertiveness"`
	NPS             int       `bson:"nps"`
	Category        string    `bson:"category,omitempty"`
	Timestamp       time.Time `bson:"timestamp"`
}

type npsEntryDocument struct {
	Value     int       `bson:"value"`
	Timestamp time.Time `bson:"timestamp"`
}

type averagesDocument struct {
	ResponseTimeSec float64 `bson:"response_time_sec"`
	Satisfaction    float64 `bson:"satisfaction"`
	Efficiency      float64 `bson:"efficiency"`
	Assertiveness   float64 `bson:"assertiveness"`
}

type sumsDocument struct {
	ResponseTimeSec float64 `bson:"response_time_sec"`
	Satisfaction    float64 `bson:"satisfaction"`
	Efficiency      float64 `bson:"efficiency"`
	Assertiveness   float64 `bson:"assertiveness"`
	Promoters       int     `bson:"promoters"`
	Detractors      int     `bson:"detractors"`
}

// =============================================================================
// Operations
// =============================================================================

// Get returns the aggregate, or (nil, nil) when none exists yet.
func (a *MetricsAdapter) Get(ctx context.Context) (*domain.ConsolidatedMetrics, error) {
	filter := bson.M{"key": metricsKey}

	var doc metricsDocument
	err := a.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find metrics: %w", err)
	}

	return a.toEntity(&doc), nil
}

// Create inserts the first aggregate.
func (a *MetricsAdapter) Create(ctx context.Context, m *domain.ConsolidatedMetrics) error {
	doc := a.toDocument(m)
	doc.Version = 1

	if _, err := a.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return out.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	return nil
}

// CompareAndSwap replaces the aggregate only if the stored version equals
// expectedVersion.
func (a *MetricsAdapter) CompareAndSwap(ctx context.Context, m *domain.ConsolidatedMetrics, expectedVersion int64) error {
	doc := a.toDocument(m)
	doc.Version = expectedVersion + 1

	filter := bson.M{"key": metricsKey, "version": expectedVersion}
	result, err := a.collection.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return fmt.Errorf("failed to replace metrics: %w", err)
	}
	if result.MatchedCount == 0 {
		return out.ErrVersionConflict
	}
	return nil
}

// =============================================================================
// Mapping
// =============================================================================

func (a *MetricsAdapter) toDocument(m *domain.ConsolidatedMetrics) *metricsDocument {
	evals := make([]evaluationDocument, len(m.Evaluations))
	for i, e := range m.Evaluations {
		evals[i] = evaluationDocument{
			ID:              e.ID,
			ResponseTimeSec: e.ResponseTimeSec,
			Satisfaction:    e.Satisfaction,
			Efficiency:      e.Efficiency,
			Assertiveness:   e.Assertiveness,
			NPS:             e.NPS,
			Category:        e.Category,
			Timestamp:       e.Timestamp,
		}
	}

	history := make([]npsEntryDocument, len(m.NPSHistory))
	for i, h := range m.NPSHistory {
		history[i] = npsEntryDocument{Value: h.Value, Timestamp: h.Timestamp}
	}

	return &metricsDocument{
		Key:         metricsKey,
		Version:     m.Version,
		Evaluations: evals,
		NPSHistory:  history,
		Averages:    averagesDocument(m.Averages),
		Sums:        sumsDocument(m.Sums),
		GlobalNPS:   m.GlobalNPS,
		TotalCount:  m.TotalCount,
		LastUpdated: m.LastUpdated,
	}
}

func (a *MetricsAdapter) toEntity(doc *metricsDocument) *domain.ConsolidatedMetrics {
	evals := make([]domain.EvaluationRecord, len(doc.Evaluations))
	for i, e := range doc.Evaluations {
		evals[i] = domain.EvaluationRecord{
			ID:              e.ID,
			ResponseTimeSec: e.ResponseTimeSec,
			Satisfaction:    e.Satisfaction,
			Efficiency:      e.Efficiency,
			Assertiveness:   e.Assertiveness,
			NPS:             e.NPS,
			Category:        e.Category,
			Timestamp:       e.Timestamp,
		}
	}

	history := make([]domain.NPSEntry, len(doc.NPSHistory))
	for i, h := range doc.NPSHistory {
		history[i] = domain.NPSEntry{Value: h.Value, Timestamp: h.Timestamp}
	}

	return &domain.ConsolidatedMetrics{
		Evaluations: evals,
		NPSHistory:  history,
		Averages:    domain.MetricAverages(doc.Averages),
		Sums:        domain.MetricSums(doc.Sums),
		GlobalNPS:   doc.GlobalNPS,
		TotalCount:  doc.TotalCount,
		LastUpdated: doc.LastUpdated,
		Version:     doc.Version,
	}
}
