// Package dialog — readiness.go decide se o perfil já sustenta uma
// recomendação ou se ainda vale perguntar.
package dialog

import "github.com/garagem/seminovos-assistant-go/internal/domain"

// Campos obrigatórios e opcionais da prontidão. Os opcionais entram na
// query quando existem, mas não seguram a recomendação.
var (
	requiredFields = []string{"budget", "usage"}
	optionalFields = []string{"bodyType", "minYear", "transmission"}
)

// readiness é o veredito do assessor.
type readiness struct {
	CanRecommend bool
	Missing      []string
}

// assessReadiness aplica as regras, NESTA ordem:
//
//	(a) todos os obrigatórios presentes            → recomenda
//	(b) falta exatamente 1 e já são ≥5 mensagens   → recomenda parcial
//	(c) ≥8 mensagens, qualquer completude          → recomenda (anti-stall)
//	(d) caso contrário                             → continua perguntando
//
// userMessages conta mensagens DO USUÁRIO na conversa inteira.
func assessReadiness(p *domain.CustomerProfile, userMessages int) readiness {
	missing := missingRequired(p)

	switch {
	case len(missing) == 0:
		return readiness{CanRecommend: true}
	case len(missing) == 1 && userMessages >= 5:
		return readiness{CanRecommend: true, Missing: missing}
	case userMessages >= 8:
		return readiness{CanRecommend: true, Missing: missing}
	default:
		return readiness{CanRecommend: false, Missing: missing}
	}
}

// missingRequired lista os obrigatórios ausentes, na ordem canônica.
func missingRequired(p *domain.CustomerProfile) []string {
	var missing []string
	if p.Budget <= 0 && p.BudgetMax <= 0 {
		missing = append(missing, "budget")
	}
	if p.Usage == "" {
		missing = append(missing, "usage")
	}
	return missing
}
