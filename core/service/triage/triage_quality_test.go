package triage

import (
	"math"
	"testing"
)

func TestScoreResponse(t *testing.T) {
	longCourteous := "Bom dia, tudo bem? Vou verificar o seu pedido com o setor responsável " +
		"e retorno com uma resposta completa ainda nesta conversa. Obrigado pela paciência."

	tests := []struct {
		name          string
		text          string
		wantValue     float64
		wantWordCount int
		wantGreeting  bool
		wantFarewell  bool
	}{
		{"empty text", "", 0.0, 0, false, false},
		{"single word", "Ok", 0.3, 1, false, false},
		{"short with greeting", "Bom dia, vou verificar seu pedido agora mesmo", 0.6, 8, true, false},
		{"medium plain", "Vou verificar o caso e retorno para você em seguida", 0.7, 10, false, false},
		{"long courteous clamps to one", longCourteous, 1.0, 25, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreResponse(tt.text)

			if math.Abs(got.Value-tt.wantValue) > 1e-9 {
				t.Errorf("value = %v, want %v", got.Value, tt.wantValue)
			}
			if got.WordCount != tt.wantWordCount {
				t.Errorf("word count = %d, want %d", got.WordCount, tt.wantWordCount)
			}
			if got.HasGreeting != tt.wantGreeting {
				t.Errorf("has greeting = %v, want %v", got.HasGreeting, tt.wantGreeting)
			}
			if got.HasFarewell != tt.wantFarewell {
				t.Errorf("has farewell = %v, want %v", got.HasFarewell, tt.wantFarewell)
			}
			if got.Value > 1.0 || got.Value < 0.0 {
				t.Errorf("value %v outside [0, 1]", got.Value)
			}
		})
	}
}

func TestFormalityLevel(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"formal", "Prezado cliente, por gentileza aguarde o retorno", 1.0},
		{"informal", "Oi mano, beleza?", -1.0},
		{"mixed", "Oi, senhor, por gentileza aguarde", 1.0 / 3.0},
		{"neither", "Vou analisar seu caso", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreResponse(tt.text).FormalityLevel
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("formality(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
