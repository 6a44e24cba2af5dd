// Package triage implements the pure text-classification core: signal
// extraction, response quality scoring and conversation priority ranking.
package triage

import "triage_server/core/domain"

// =============================================================================
// Pattern Tables
// =============================================================================
//
// All tables are fixed and ORDERED. Classification walks each slice top to
// bottom and takes the first hit, so reordering a table changes behavior.
// Matching is case-insensitive on word boundaries; accented phrases carry an
// unaccented twin because clients routinely type without diacritics.

var greetingPatterns = []string{
	"bom dia",
	"boa tarde",
	"boa noite",
	"olá",
	"ola",
	"oi",
	"prezado",
	"prezada",
	"caro cliente",
	"saudações",
	"saudacoes",
}

var farewellPatterns = []string{
	"obrigado",
	"obrigada",
	"agradeço",
	"agradeco",
	"grato",
	"grata",
	"tchau",
	"até logo",
	"ate logo",
	"até mais",
	"ate mais",
	"abraço",
	"abraco",
	"abraços",
	"abracos",
	"atenciosamente",
	"tenha um ótimo dia",
	"tenha um otimo dia",
}

// requestCategoryOrder fixes the classification priority. The first category
// whose table matches wins, so a message that is both a question and a
// complaint classifies as information.
var requestCategoryOrder = []domain.RequestCategory{
	domain.CategoryInformation,
	domain.CategorySupport,
	domain.CategoryComplaint,
}

var requestPatterns = map[domain.RequestCategory][]string{
	domain.CategoryInformation: {
		"como faço",
		"como faco",
		"como funciona",
		"gostaria de saber",
		"queria saber",
		"qual o valor",
		"quanto custa",
		"informação",
		"informacao",
		"informações",
		"informacoes",
		"dúvida",
		"duvida",
		"onde fica",
		"horário de funcionamento",
		"horario de funcionamento",
	},
	domain.CategorySupport: {
		"não funciona",
		"nao funciona",
		"não consigo",
		"nao consigo",
		"não está funcionando",
		"nao esta funcionando",
		"parou de funcionar",
		"problema",
		"erro",
		"defeito",
		"travou",
		"ajuda",
		"suporte",
	},
	domain.CategoryComplaint: {
		"reclamação",
		"reclamacao",
		"reclamar",
		"absurdo",
		"inaceitável",
		"inaceitavel",
		"péssimo",
		"pessimo",
		"horrível",
		"horrivel",
		"decepcionado",
		"decepcionada",
		"insatisfeito",
		"insatisfeita",
		"procon",
		"quero meu dinheiro",
		"cancelar o contrato",
	},
}

// Urgency tiers. The result is the MAXIMUM matching tier, so the slice is
// scanned from high to low and the first hit wins.
var urgencyTiers = []struct {
	tier     int
	patterns []string
}{
	{3, []string{
		"urgente",
		"urgência",
		"urgencia",
		"emergência",
		"emergencia",
		"imediatamente",
		"agora mesmo",
		"o mais rápido possível",
		"o mais rapido possivel",
		"crítico",
		"critico",
	}},
	{2, []string{
		"o quanto antes",
		"assim que possível",
		"assim que possivel",
		"rápido",
		"rapido",
		"ainda hoje",
		"prioridade",
		"com pressa",
	}},
	{1, []string{
		"quando puder",
		"quando possível",
		"quando possivel",
		"sem pressa",
		"qualquer momento",
		"sem urgência",
		"sem urgencia",
	}},
}

var positivePatterns = []string{
	"obrigado",
	"obrigada",
	"ótimo",
	"otimo",
	"excelente",
	"maravilhoso",
	"perfeito",
	"adorei",
	"gostei",
	"muito bom",
	"satisfeito",
	"satisfeita",
	"parabéns",
	"parabens",
	"feliz",
}

var negativePatterns = []string{
	"péssimo",
	"pessimo",
	"horrível",
	"horrivel",
	"terrível",
	"terrivel",
	"ruim",
	"odiei",
	"decepcionado",
	"decepcionada",
	"insatisfeito",
	"insatisfeita",
	"absurdo",
	"demora",
	"nunca mais",
	"raiva",
}

var formalPatterns = []string{
	"prezado",
	"prezada",
	"cordialmente",
	"atenciosamente",
	"senhor",
	"senhora",
	"solicito",
	"por gentileza",
	"gostaríamos",
	"gostariamos",
}

var informalPatterns = []string{
	"oi",
	"opa",
	"beleza",
	"blz",
	"vc",
	"vcs",
	"valeu",
	"mano",
	"kkk",
	"falou",
	"tranquilo",
}

// Deadline buckets in ascending day order. Each bucket owns its pattern set;
// the first matching bucket wins. "2 dias" and "3 dias" share the 3-day
// bucket because promised business days round up.
var deadlineBuckets = []struct {
	days     int
	patterns []string
}{
	{1, []string{
		"hoje mesmo",
		"ainda hoje",
		"hoje",
		"24 horas",
	}},
	{2, []string{
		"amanhã",
		"amanha",
		"48 horas",
		"1 dia útil",
		"1 dia util",
		"um dia útil",
		"um dia util",
	}},
	{3, []string{
		"2 dias",
		"dois dias",
		"3 dias",
		"três dias",
		"tres dias",
		"72 horas",
	}},
	{5, []string{
		"esta semana",
		"essa semana",
		"5 dias",
		"cinco dias",
		"até sexta",
		"ate sexta",
		"próximos dias",
		"proximos dias",
	}},
}
