// Package dialog — statemachine.go mapeia o resultado do turno na
// próxima fase conversacional.
//
// O avanço acontece exatamente uma vez por turno. Handlers da cascata
// escolhem a própria fase de destino; aqui fica a regra do caminho
// genérico (slot-filling → recomendação) e a proteção das fases
// absorventes.
package dialog

import "github.com/garagem/seminovos-assistant-go/internal/domain"

// nextAskingState decide a fase quando o turno termina perguntando
// (caminho genérico, nada interceptado, perfil incompleto).
func nextAskingState(current domain.GraphState, questionsAsked int) domain.GraphState {
	switch current {
	case domain.StateStart, domain.StateGreeting:
		return domain.StateDiscovery
	case domain.StateDiscovery:
		// depois de algumas perguntas a conversa vira lapidação
		if questionsAsked >= 2 {
			return domain.StateClarification
		}
		return domain.StateDiscovery
	case domain.StateRecommendation, domain.StateNegotiation, domain.StateFollowUp:
		// voltamos a perguntar depois de recomendar: estamos refinando
		return domain.StateClarification
	default:
		return current
	}
}

// nextRecommendedState é a fase após uma recomendação genérica.
func nextRecommendedState() domain.GraphState {
	return domain.StateRecommendation
}
