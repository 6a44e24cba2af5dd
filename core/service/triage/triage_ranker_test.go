package triage

import (
	"testing"
	"time"

	"triage_server/core/domain"
)

func clientConv(id string, start time.Time, reopen int, category domain.RequestCategory, lastMessage string) *domain.ConversationSnapshot {
	return &domain.ConversationSnapshot{
		ID:              id,
		Status:          domain.ConversationOpen,
		StartTime:       start,
		RequestCategory: category,
		ReopenCount:     reopen,
		Messages: []domain.Message{
			{Role: domain.RoleClient, Content: lastMessage, Timestamp: start},
		},
	}
}

func TestRankEmptyInput(t *testing.T) {
	ranker := NewRanker(nil)

	got := ranker.Rank(time.Now(), nil)
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestRankOrdering(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	start := now.Add(-30 * time.Minute)
	ranker := NewRanker(nil)

	convs := []*domain.ConversationSnapshot{
		clientConv("calm", start, 0, domain.CategoryInformation, "Gostaria de saber o valor do plano"),
		clientConv("urgent", start, 0, domain.CategoryInformation, "Gostaria de saber o valor do plano, é urgente"),
		clientConv("reopened", start, 2, domain.CategoryInformation, "Gostaria de saber o valor do plano"),
		clientConv("angry", start, 0, domain.CategoryComplaint, "Isso é um absurdo"),
	}

	got := ranker.Rank(now, convs)

	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	// urgency (+30) > reopen x2 (+10) > complaint (+9 vs information +3)
	wantOrder := []string{"urgent", "reopened", "angry", "calm"}
	for i, want := range wantOrder {
		if got[i].ConversationID != want {
			t.Errorf("rank %d = %s, want %s", i+1, got[i].ConversationID, want)
		}
		if got[i].Rank != i+1 {
			t.Errorf("rank field = %d, want %d", got[i].Rank, i+1)
		}
	}
}

func TestRankTieBreakByStartTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ranker := NewRanker(nil)

	// Both waits exceed the cap, so both conversations score identically and
	// only the tie-break decides: the older conversation goes first.
	older := clientConv("older", now.Add(-20*time.Hour), 0, domain.CategorySupport, "Meu aplicativo não funciona")
	newer := clientConv("newer", now.Add(-10*time.Hour), 0, domain.CategorySupport, "Meu aplicativo não funciona")

	for _, convs := range [][]*domain.ConversationSnapshot{
		{older, newer},
		{newer, older},
	} {
		got := ranker.Rank(now, convs)
		if got[0].ConversationID != "older" || got[1].ConversationID != "newer" {
			t.Errorf("order = [%s, %s], want [older, newer]", got[0].ConversationID, got[1].ConversationID)
		}
		if got[0].Score != got[1].Score {
			t.Errorf("scores differ: %v vs %v, want equal", got[0].Score, got[1].Score)
		}
	}
}

func TestRankTieBreakByID(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	start := now.Add(-10 * time.Hour)
	ranker := NewRanker(nil)

	a := clientConv("conv-a", start, 0, domain.CategoryNone, "Vou analisar seu caso")
	b := clientConv("conv-b", start, 0, domain.CategoryNone, "Vou analisar seu caso")

	got := ranker.Rank(now, []*domain.ConversationSnapshot{b, a})
	if got[0].ConversationID != "conv-a" {
		t.Errorf("first = %s, want conv-a", got[0].ConversationID)
	}
}

func TestScoreMonotonicity(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	start := now.Add(-30 * time.Minute)
	ranker := NewRanker(nil)

	base := ranker.Score(now, clientConv("base", start, 0, domain.CategoryInformation, "Gostaria de saber o valor"))

	higher := []struct {
		name string
		conv *domain.ConversationSnapshot
	}{
		{"more urgency", clientConv("u", start, 0, domain.CategoryInformation, "Gostaria de saber o valor, urgente")},
		{"more wait", clientConv("w", start.Add(-60*time.Minute), 0, domain.CategoryInformation, "Gostaria de saber o valor")},
		{"more reopens", clientConv("r", start, 3, domain.CategoryInformation, "Gostaria de saber o valor")},
		{"heavier category", clientConv("c", start, 0, domain.CategoryComplaint, "Gostaria de saber o valor")},
	}

	for _, tt := range higher {
		t.Run(tt.name, func(t *testing.T) {
			if got := ranker.Score(now, tt.conv); got <= base {
				t.Errorf("score = %v, want > base %v", got, base)
			}
		})
	}
}

func TestScoreFallsBackToExtractedCategory(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	start := now.Add(-5 * time.Minute)
	ranker := NewRanker(nil)

	unset := clientConv("unset", start, 0, domain.CategoryNone, "Quero fazer uma reclamação")
	set := clientConv("set", start, 0, domain.CategoryComplaint, "Quero fazer uma reclamação")

	if gu, gs := ranker.Score(now, unset), ranker.Score(now, set); gu != gs {
		t.Errorf("fallback score = %v, explicit = %v, want equal", gu, gs)
	}
}
