package triage

import (
	"math"
	"testing"

	"triage_server/core/domain"
)

func TestDetectGreetingAndFarewell(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantGreeting bool
		wantFarewell bool
	}{
		{"plain greeting", "bom dia, tudo bem?", true, false},
		{"uppercase greeting", "BOM DIA", true, false},
		{"accented greeting", "Olá, preciso de ajuda", true, false},
		{"farewell thanks", "obrigado pelo atendimento", false, true},
		{"farewell closing", "Atenciosamente, equipe de suporte", false, true},
		{"both", "Boa tarde! Era só isso, até logo", true, true},
		{"greeting not inside word", "preciso de dois dias", false, false},
		{"empty text", "", false, false},
		{"no match", "Vou analisar seu caso", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectGreeting(tt.text); got != tt.wantGreeting {
				t.Errorf("DetectGreeting(%q) = %v, want %v", tt.text, got, tt.wantGreeting)
			}
			if got := DetectFarewell(tt.text); got != tt.wantFarewell {
				t.Errorf("DetectFarewell(%q) = %v, want %v", tt.text, got, tt.wantFarewell)
			}
		})
	}
}

func TestClassifyRequest(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantDetected bool
		wantCategory domain.RequestCategory
	}{
		{"information", "Gostaria de saber o horário de funcionamento", true, domain.CategoryInformation},
		{"support", "Meu aplicativo não funciona desde ontem", true, domain.CategorySupport},
		{"complaint", "Isso é um absurdo, vou procurar o procon", true, domain.CategoryComplaint},
		{"information beats support", "Tenho uma dúvida sobre o problema do pedido", true, domain.CategoryInformation},
		{"support beats complaint", "O sistema travou, que coisa horrível", true, domain.CategorySupport},
		{"no match", "Vou analisar seu caso", false, domain.CategoryNone},
		{"empty text", "", false, domain.CategoryNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detected, category := ClassifyRequest(tt.text)
			if detected != tt.wantDetected {
				t.Errorf("detected = %v, want %v", detected, tt.wantDetected)
			}
			if category != tt.wantCategory {
				t.Errorf("category = %v, want %v", category, tt.wantCategory)
			}
		})
	}
}

func TestDetectUrgency(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"high", "Preciso disso urgente!", 3},
		{"high uppercase", "É URGENTE", 3},
		{"medium", "Se possível ainda hoje", 2},
		{"low", "Pode responder quando puder", 1},
		{"max tier wins", "Sem pressa, mas na verdade é urgente", 3},
		{"none", "Vou analisar seu caso", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectUrgency(tt.text); got != tt.want {
				t.Errorf("DetectUrgency(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestDetectSentiment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"all positive", "Serviço excelente, adorei o atendimento", 1.0},
		{"all negative", "Atendimento péssimo e horrível", -1.0},
		{"mixed", "O produto é ótimo mas a demora foi ruim", -1.0 / 3.0},
		{"neutral", "Vou analisar seu caso", 0.0},
		{"empty", "", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectSentiment(tt.text)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("DetectSentiment(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractDeadline(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantDays    int
		wantMatched string
		wantNil     bool
	}{
		{"two business days", "Resolverei em 2 dias úteis", 3, "2 dias", false},
		{"same day", "Resolvo ainda hoje", 1, "ainda hoje", false},
		{"tomorrow", "Te respondo amanhã sem falta", 2, "amanhã", false},
		{"this week", "Deve chegar esta semana", 5, "esta semana", false},
		{"uppercase promise", "Resolvo HOJE Mesmo", 1, "HOJE Mesmo", false},
		// lowering can change a rune's byte length; the matched substring
		// must still come out of the original text intact
		{"expanding rune before match", "Ⱥ hoje", 1, "hoje", false},
		{"shrinking rune before match", "İmportante: resolvo hoje", 1, "hoje", false},
		{"no promise", "Vou analisar seu caso", 0, "", true},
		{"empty", "", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, matched := ExtractDeadline(tt.text)
			if tt.wantNil {
				if days != nil || matched != nil {
					t.Errorf("ExtractDeadline(%q) = (%v, %v), want (nil, nil)", tt.text, days, matched)
				}
				return
			}
			if days == nil || matched == nil {
				t.Fatalf("ExtractDeadline(%q) = (%v, %v), want match", tt.text, days, matched)
			}
			if *days != tt.wantDays {
				t.Errorf("days = %d, want %d", *days, tt.wantDays)
			}
			if *matched != tt.wantMatched {
				t.Errorf("matched = %q, want %q", *matched, tt.wantMatched)
			}
		})
	}
}

func TestExtractSignalsNeutralText(t *testing.T) {
	signals := ExtractSignals("Vou analisar seu caso")

	if signals.Greeting || signals.Farewell {
		t.Errorf("greeting/farewell = %v/%v, want false/false", signals.Greeting, signals.Farewell)
	}
	if signals.RequestDetected || signals.RequestCategory != domain.CategoryNone {
		t.Errorf("request = (%v, %v), want (false, none)", signals.RequestDetected, signals.RequestCategory)
	}
	if signals.UrgencyTier != 0 {
		t.Errorf("urgency = %d, want 0", signals.UrgencyTier)
	}
	if signals.SentimentScore != 0.0 {
		t.Errorf("sentiment = %v, want 0.0", signals.SentimentScore)
	}
	if signals.DeadlineDays != nil || signals.DeadlineText != nil {
		t.Errorf("deadline = (%v, %v), want (nil, nil)", signals.DeadlineDays, signals.DeadlineText)
	}
}

func TestExtractSignalsFullMessage(t *testing.T) {
	text := "Bom dia, meu aplicativo não funciona e é urgente, resolvam em 2 dias"

	signals := ExtractSignals(text)

	if !signals.Greeting {
		t.Error("greeting = false, want true")
	}
	if !signals.RequestDetected || signals.RequestCategory != domain.CategorySupport {
		t.Errorf("request = (%v, %v), want (true, support)", signals.RequestDetected, signals.RequestCategory)
	}
	if signals.UrgencyTier != 3 {
		t.Errorf("urgency = %d, want 3", signals.UrgencyTier)
	}
	if signals.DeadlineDays == nil || *signals.DeadlineDays != 3 {
		t.Errorf("deadline days = %v, want 3", signals.DeadlineDays)
	}
}
