package domain

// RequestCategory classifies what a client message is asking for.
type RequestCategory string

const (
	CategoryInformation RequestCategory = "information"
	CategorySupport     RequestCategory = "support"
	CategoryComplaint   RequestCategory = "complaint"
	CategoryNone        RequestCategory = "none"
)

// CategoryWeight returns the ranking weight for a request category.
// Complaints outrank support requests, which outrank information requests.
func CategoryWeight(c RequestCategory) float64 {
	switch c {
	case CategoryComplaint:
		return 3
	case CategorySupport:
		return 2
	case CategoryInformation:
		return 1
	default:
		return 0
	}
}

// IsValidCategory checks if category string is a known RequestCategory.
func IsValidCategory(c string) bool {
	switch RequestCategory(c) {
	case CategoryInformation, CategorySupport, CategoryComplaint, CategoryNone:
		return true
	}
	return false
}

// TextSignals holds the classification signals extracted from a single text.
// Produced fresh per text; it has no identity and is never mutated.
type TextSignals struct {
	Greeting        bool            `json:"greeting"`
	Farewell        bool            `json:"farewell"`
	RequestDetected bool            `json:"request_detected"`
	RequestCategory RequestCategory `json:"request_category"`
	UrgencyTier     int             `json:"urgency_tier"` // 0 (none) .. 3 (high)
	SentimentScore  float64         `json:"sentiment_score"` // [-1, 1], 0 = neutral
	DeadlineDays    *int            `json:"deadline_days,omitempty"`
	DeadlineText    *string         `json:"deadline_text,omitempty"`
}

// QualityScore grades a single agent response text.
type QualityScore struct {
	Value          float64 `json:"value"` // [0, 1]
	WordCount      int     `json:"word_count"`
	HasGreeting    bool    `json:"has_greeting"`
	HasFarewell    bool    `json:"has_farewell"`
	FormalityLevel float64 `json:"formality_level"` // [-1, 1], negative = informal
}
