package triage

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"triage_server/core/domain"
)

// =============================================================================
// Signal Extractor
// =============================================================================
//
// Every function here is pure: deterministic, side-effect free, never fails.
// Malformed or empty input yields the documented neutral values.

// DetectGreeting reports whether the text opens contact with a greeting phrase.
func DetectGreeting(text string) bool {
	return matchAny(strings.ToLower(text), greetingPatterns) >= 0
}

// DetectFarewell reports whether the text contains a farewell or thanks phrase.
func DetectFarewell(text string) bool {
	return matchAny(strings.ToLower(text), farewellPatterns) >= 0
}

// ClassifyRequest tests the category tables in fixed priority order
// (information, support, complaint) and returns the first match.
func ClassifyRequest(text string) (bool, domain.RequestCategory) {
	lower := strings.ToLower(text)
	for _, cat := range requestCategoryOrder {
		if matchAny(lower, requestPatterns[cat]) >= 0 {
			return true, cat
		}
	}
	return false, domain.CategoryNone
}

// DetectUrgency returns the highest urgency tier whose pattern set matches,
// or 0 when the text carries no urgency marker.
func DetectUrgency(text string) int {
	lower := strings.ToLower(text)
	for _, t := range urgencyTiers {
		if matchAny(lower, t.patterns) >= 0 {
			return t.tier
		}
	}
	return 0
}

// DetectSentiment scores the text in [-1, 1]: (p-n)/(p+n) over positive and
// negative pattern hits, 0 when neither side matches. Each pattern counts at
// most once.
func DetectSentiment(text string) float64 {
	lower := strings.ToLower(text)
	p := countMatches(lower, positivePatterns)
	n := countMatches(lower, negativePatterns)
	if p+n == 0 {
		return 0.0
	}
	return float64(p-n) / float64(p+n)
}

// ExtractDeadline scans the day buckets in ascending order and returns the
// first bucket's day value plus the matched substring as written in the
// input. No promise found returns (nil, nil).
func ExtractDeadline(text string) (*int, *string) {
	lower, offsets := foldCase(text)
	for _, b := range deadlineBuckets {
		for _, pat := range b.patterns {
			if idx := matchIndex(lower, pat); idx >= 0 {
				days := b.days
				matched := text[offsets[idx]:offsets[idx+len(pat)]]
				return &days, &matched
			}
		}
	}
	return nil, nil
}

// ExtractSignals runs every detector over one text.
func ExtractSignals(text string) domain.TextSignals {
	detected, category := ClassifyRequest(text)
	days, matched := ExtractDeadline(text)

	return domain.TextSignals{
		Greeting:        DetectGreeting(text),
		Farewell:        DetectFarewell(text),
		RequestDetected: detected,
		RequestCategory: category,
		UrgencyTier:     DetectUrgency(text),
		SentimentScore:  DetectSentiment(text),
		DeadlineDays:    days,
		DeadlineText:    matched,
	}
}

// =============================================================================
// Matching Helpers
// =============================================================================

// foldCase lowers text rune by rune while tracking, for every byte of the
// lowered string, the byte offset of the originating rune in text. Lowering
// can change a rune's encoded length, so byte indices into the lowered string
// cannot slice the original directly. offsets carries one extra entry mapping
// the end of the lowered string to len(text).
func foldCase(text string) (string, []int) {
	var sb strings.Builder
	sb.Grow(len(text))
	offsets := make([]int, 0, len(text)+1)

	for i, r := range text {
		lr := unicode.ToLower(r)
		for n := utf8.RuneLen(lr); n > 0; n-- {
			offsets = append(offsets, i)
		}
		sb.WriteRune(lr)
	}
	offsets = append(offsets, len(text))

	return sb.String(), offsets
}

// matchAny returns the byte index of the first pattern found in lower, or -1.
func matchAny(lower string, patterns []string) int {
	for _, pat := range patterns {
		if idx := matchIndex(lower, pat); idx >= 0 {
			return idx
		}
	}
	return -1
}

// countMatches counts how many patterns occur in lower (one hit per pattern).
func countMatches(lower string, patterns []string) int {
	count := 0
	for _, pat := range patterns {
		if matchIndex(lower, pat) >= 0 {
			count++
		}
	}
	return count
}

// matchIndex finds pat in lower on word boundaries. Plain substring search
// would turn "dois" into a hit for "oi", so both ends of the match must sit
// next to a non-letter, non-digit rune (or the edge of the text).
func matchIndex(lower, pat string) int {
	from := 0
	for {
		idx := strings.Index(lower[from:], pat)
		if idx < 0 {
			return -1
		}
		idx += from

		if boundaryBefore(lower, idx) && boundaryAfter(lower, idx+len(pat)) {
			return idx
		}
		from = idx + 1
		if from >= len(lower) {
			return -1
		}
	}
}

func boundaryBefore(s string, idx int) bool {
	if idx == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:idx])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(s string, idx int) bool {
	if idx >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[idx:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
