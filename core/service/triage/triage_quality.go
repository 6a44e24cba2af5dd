package triage

import (
	"strings"

	"triage_server/core/domain"
)

// =============================================================================
// Response Quality Scorer
// =============================================================================

// Base score by whitespace-delimited word count.
func baseScoreForWordCount(n int) float64 {
	switch {
	case n == 0:
		return 0.0
	case n < 5:
		return 0.3
	case n < 10:
		return 0.5
	case n < 20:
		return 0.7
	default:
		return 0.9
	}
}

// ScoreResponse grades one agent response text. Empty text yields the zero
// QualityScore, never an error.
func ScoreResponse(text string) domain.QualityScore {
	words := strings.Fields(text)
	if len(words) == 0 {
		return domain.QualityScore{}
	}

	score := baseScoreForWordCount(len(words))

	greeting := DetectGreeting(text)
	farewell := DetectFarewell(text)
	if greeting {
		score += 0.1
	}
	if farewell {
		score += 0.1
	}

	// The upper clamp is the one that binds in practice: a long response with
	// both courtesy phrases lands exactly on 1.0.
	if score > 1.0 {
		score = 1.0
	}
	if score < 0.0 {
		score = 0.0
	}

	return domain.QualityScore{
		Value:          score,
		WordCount:      len(words),
		HasGreeting:    greeting,
		HasFarewell:    farewell,
		FormalityLevel: formalityLevel(text),
	}
}

// formalityLevel scores register in [-1, 1]: (f-i)/(f+i) over formal and
// informal indicator hits, 0 when the text carries neither.
func formalityLevel(text string) float64 {
	lower := strings.ToLower(text)
	f := countMatches(lower, formalPatterns)
	i := countMatches(lower, informalPatterns)
	if f+i == 0 {
		return 0
	}
	return float64(f-i) / float64(f+i)
}
