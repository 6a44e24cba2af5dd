package triage

import (
	"sort"
	"time"

	"triage_server/core/domain"
)

// =============================================================================
// Conversation Priority Ranker
// =============================================================================

// RankerConfig holds the tunable priority weights. The defaults are a design
// choice, not a contract: recalibration is fine as long as a higher urgency,
// wait, reopen count or category weight never lowers the score.
type RankerConfig struct {
	UrgencyWeight  float64       // per urgency tier (0..3)
	WaitWeight     float64       // per waited minute, capped
	ReopenWeight   float64       // per reopen
	CategoryWeight float64       // per category weight (none=0 .. complaint=3)
	WaitCap        time.Duration // bound on the wait contribution
}

// DefaultRankerConfig returns the documented default weights.
func DefaultRankerConfig() *RankerConfig {
	return &RankerConfig{
		UrgencyWeight:  10,
		WaitWeight:     1,
		ReopenWeight:   5,
		CategoryWeight: 3,
		WaitCap:        240 * time.Minute,
	}
}

// Ranker produces a total order over open conversations.
type Ranker struct {
	config *RankerConfig
}

// NewRanker creates a ranker; nil config selects the defaults.
func NewRanker(config *RankerConfig) *Ranker {
	if config == nil {
		config = DefaultRankerConfig()
	}
	return &Ranker{config: config}
}

// Rank scores every conversation from its latest client message and returns
// the descending order. Ties break by ascending StartTime (oldest waits
// longest, goes first), then by ID, so the output is fully deterministic
// regardless of input order. Empty input returns an empty slice.
func (r *Ranker) Rank(now time.Time, conversations []*domain.ConversationSnapshot) []domain.PriorityScore {
	scores := make([]domain.PriorityScore, 0, len(conversations))
	starts := make(map[string]time.Time, len(conversations))

	for _, conv := range conversations {
		scores = append(scores, domain.PriorityScore{
			ConversationID: conv.ID,
			Score:          r.Score(now, conv),
		})
		starts[conv.ID] = conv.StartTime
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		si, sj := starts[scores[i].ConversationID], starts[scores[j].ConversationID]
		if !si.Equal(sj) {
			return si.Before(sj)
		}
		return scores[i].ConversationID < scores[j].ConversationID
	})

	for i := range scores {
		scores[i].Rank = i + 1
	}
	return scores
}

// Score computes the composite priority for one conversation.
func (r *Ranker) Score(now time.Time, conv *domain.ConversationSnapshot) float64 {
	signals := ExtractSignals(conv.LatestClientMessage())

	wait := now.Sub(conv.StartTime)
	if wait < 0 {
		wait = 0
	}
	if wait > r.config.WaitCap {
		wait = r.config.WaitCap
	}

	// The snapshot's category is authoritative when the orchestrator already
	// set one; otherwise fall back to what the latest message classifies as.
	category := conv.RequestCategory
	if category == "" || category == domain.CategoryNone {
		category = signals.RequestCategory
	}

	return r.config.UrgencyWeight*float64(signals.UrgencyTier) +
		r.config.WaitWeight*wait.Minutes() +
		r.config.ReopenWeight*float64(conv.ReopenCount) +
		r.config.CategoryWeight*domain.CategoryWeight(category)
}
