package domain

import (
	"errors"
	"fmt"
	"time"
)

// NPS answers are restricted to three canonical values.
const (
	NPSPromoter  = 100
	NPSPassive   = 0
	NPSDetractor = -100
)

var (
	ErrInvalidNPS           = errors.New("nps must be -100, 0 or 100")
	ErrNegativeResponseTime = errors.New("response time must be >= 0")
)

// EvaluationRecord is one completed post-conversation evaluation.
// Records are append-only; they are never updated after ingestion.
type EvaluationRecord struct {
	ID              int64     `json:"id"`
	ResponseTimeSec int       `json:"response_time_sec"`
	Satisfaction    float64   `json:"satisfaction"`
	Efficiency      float64   `json:"efficiency"`
	Assertiveness   float64   `json:"assertiveness"`
	NPS             int       `json:"nps"`
	Category        string    `json:"category"`
	Timestamp       time.Time `json:"timestamp"`
}

// Validate rejects malformed evaluations before they reach any aggregate.
// An out-of-range NPS value must never be averaged in silently.
func (r *EvaluationRecord) Validate() error {
	switch r.NPS {
	case NPSPromoter, NPSPassive, NPSDetractor:
	default:
		return fmt.Errorf("%w: got %d", ErrInvalidNPS, r.NPS)
	}
	if r.ResponseTimeSec < 0 {
		return fmt.Errorf("%w: got %d", ErrNegativeResponseTime, r.ResponseTimeSec)
	}
	return nil
}

// NPSEntry is one point of the NPS history.
type NPSEntry struct {
	Value     int       `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// MetricAverages holds the four running means over the evaluation history.
type MetricAverages struct {
	ResponseTimeSec float64 `json:"response_time_sec"`
	Satisfaction    float64 `json:"satisfaction"`
	Efficiency      float64 `json:"efficiency"`
	Assertiveness   float64 `json:"assertiveness"`
}

// MetricSums is the incremental state behind MetricAverages and GlobalNPS.
// Keeping running sums makes each update O(1) instead of a full history scan.
type MetricSums struct {
	ResponseTimeSec float64 `json:"response_time_sec"`
	Satisfaction    float64 `json:"satisfaction"`
	Efficiency      float64 `json:"efficiency"`
	Assertiveness   float64 `json:"assertiveness"`
	Promoters       int     `json:"promoters"`
	Detractors      int     `json:"detractors"`
}

// ConsolidatedMetrics is the singleton running-statistics aggregate over all
// evaluation records. Exactly one instance exists; TotalCount == len(Evaluations)
// holds after every update. Version supports optimistic concurrency control.
type ConsolidatedMetrics struct {
	Evaluations []EvaluationRecord `json:"evaluations"`
	NPSHistory  []NPSEntry         `json:"nps_history"`
	Averages    MetricAverages     `json:"averages"`
	Sums        MetricSums         `json:"-"`
	GlobalNPS   int                `json:"global_nps"`
	TotalCount  int                `json:"total_count"`
	LastUpdated time.Time          `json:"last_updated"`
	Version     int64              `json:"version"`
}

// NewConsolidatedMetrics returns the empty aggregate. GlobalNPS over an empty
// history is 0 by definition.
func NewConsolidatedMetrics() *ConsolidatedMetrics {
	return &ConsolidatedMetrics{
		Evaluations: []EvaluationRecord{},
		NPSHistory:  []NPSEntry{},
	}
}

// Apply folds one validated evaluation into the aggregate.
// The caller validates first; Apply assumes a canonical NPS value.
func (m *ConsolidatedMetrics) Apply(rec EvaluationRecord, now time.Time) {
	m.Evaluations = append(m.Evaluations, rec)
	m.NPSHistory = append(m.NPSHistory, NPSEntry{Value: rec.NPS, Timestamp: rec.Timestamp})

	m.Sums.ResponseTimeSec += float64(rec.ResponseTimeSec)
	m.Sums.Satisfaction += rec.Satisfaction
	m.Sums.Efficiency += rec.Efficiency
	m.Sums.Assertiveness += rec.Assertiveness
	switch rec.NPS {
	case NPSPromoter:
		m.Sums.Promoters++
	case NPSDetractor:
		m.Sums.Detractors++
	}

	m.TotalCount = len(m.Evaluations)
	n := float64(m.TotalCount)
	m.Averages = MetricAverages{
		ResponseTimeSec: m.Sums.ResponseTimeSec / n,
		Satisfaction:    m.Sums.Satisfaction / n,
		Efficiency:      m.Sums.Efficiency / n,
		Assertiveness:   m.Sums.Assertiveness / n,
	}

	// %promoters - %detractors, each percentage floored separately.
	// Passive answers count toward the total only.
	total := len(m.NPSHistory)
	m.GlobalNPS = (100*m.Sums.Promoters)/total - (100*m.Sums.Detractors)/total

	m.LastUpdated = now
}

// Clone deep-copies the aggregate so a failed optimistic write never leaves
// a half-applied update behind.
func (m *ConsolidatedMetrics) Clone() *ConsolidatedMetrics {
	out := *m
	out.Evaluations = make([]EvaluationRecord, len(m.Evaluations))
	copy(out.Evaluations, m.Evaluations)
	out.NPSHistory = make([]NPSEntry, len(m.NPSHistory))
	copy(out.NPSHistory, m.NPSHistory)
	return &out
}
