// Package dialog — handler_pending.go resolve os dois sub-fluxos de
// sugestão pendente: aprovação de similares e resposta sim/não a uma
// sugestão (anos alternativos, categoria relaxada de 5 lugares).
package dialog

import (
	"context"

	"github.com/garagem/seminovos-assistant-go/internal/domain"
)

// ============================================================
// 4. similarApproval — "quer ver parecidos?" → sim/não
// ============================================================

type similarApproval struct {
	svc *Service
}

func (h *similarApproval) name() string { return "similar_approval" }

func (h *similarApproval) intercept(_ context.Context, t *turnState) (*domain.ConversationResponse, error) {
	if t.profile.PendingFlow() != domain.FlowSimilarApproval {
		return nil, nil
	}

	// Negativa ou pergunta nova: limpa e deixa a cascata seguir normal.
	if isNegative(t.lower) || isQuestion(t.lower) || !isAffirmative(t.lower) {
		t.setFlag(func(p *domain.CustomerProfile, d *domain.ProfileDelta) {
			p.AwaitingSimilarApproval = false
			d.AwaitingSimilarApproval = ptr(false)
			p.PendingSimilarVehicles = nil
			d.PendingSimilarVehicles = &[]domain.ShownVehicle{}
		})
		return nil, nil
	}

	// Afirmativa: mostra a lista guardada — os candidatos nunca são
	// re-buscados, o snapshot vale.
	recs := make([]domain.Recommendation, 0, len(t.profile.PendingSimilarVehicles))
	for _, v := range t.profile.PendingSimilarVehicles {
		recs = append(recs, domain.Recommendation{Vehicle: vehicleFromSnapshot(v)})
	}
	t.setFlag(func(p *domain.CustomerProfile, d *domain.ProfileDelta) {
		p.AwaitingSimilarApproval = false
		d.AwaitingSimilarApproval = ptr(false)
		p.PendingSimilarVehicles = nil
		d.PendingSimilarVehicles = &[]domain.ShownVehicle{}
	})
	if len(recs) == 0 {
		return &domain.ConversationResponse{
			Text:      msgNothingFound,
			NextState: domain.StateClarification,
		}, nil
	}

	t.markShown(recs, "similar")
	return &domain.ConversationResponse{
		Text:            msgRecommendations(recs),
		CanRecommend:    true,
		Recommendations: recs,
		NextState:       domain.StateRecommendation,
	}, nil
}

// vehicleFromSnapshot reidrata um Vehicle parcial a partir do snapshot.
// Km/assentos não foram congelados — ficam zerados mesmo.
func vehicleFromSnapshot(s domain.ShownVehicle) domain.Vehicle {
	return domain.Vehicle{
		ID:       s.ID,
		Brand:    s.Brand,
		Model:    s.Model,
		Year:     s.Year,
		Price:    s.Price,
		BodyType: s.BodyType,
	}
}

// ============================================================
// 8. suggestionAnswer — sim/não à sugestão pendente
// ============================================================

// suggestionAnswer resolve o flag de sugestão quando a mensagem não é
// nem pergunta nem preferência nova. Afirmativa age sobre a sugestão
// (anos alternativos → mostra o modelo nos anos que existem; 7 lugares
// → substitui pela categoria relaxada); negativa limpa e volta ao
// slot-filling.
type suggestionAnswer struct {
	svc *Service
}

func (h *suggestionAnswer) name() string { return "suggestion_answer" }

func (h *suggestionAnswer) intercept(ctx context.Context, t *turnState) (*domain.ConversationResponse, error) {
	if t.profile.PendingFlow() != domain.FlowSuggestionAnswer {
		return nil, nil
	}

	// Pergunta nova ou preferência nova: limpa o flag e declina — os
	// handlers seguintes (menção, pergunta) ou o caminho genérico
	// processam a mensagem pelo conteúdo dela.
	if isQuestion(t.lower) || detectModel(t.lower) != "" || detectBodyType(t.lower) != "" {
		t.clearPendingSuggestion()
		return nil, nil
	}

	if isNegative(t.lower) {
		t.clearPendingSuggestion()
		missing := missingRequired(&t.profile)
		return &domain.ConversationResponse{
			Text:          "Sem problemas! " + askNextQuestion(missing, t.conv.QuestionsAsked),
			MissingFields: missing,
			NextState:     nextAskingState(t.conv.State, t.conv.QuestionsAsked),
		}, nil
	}

	if !isAffirmative(t.lower) {
		return nil, nil
	}

	// Afirmativa a anos alternativos: mostra o modelo nos anos que
	// existem (o cliente topou qualquer um deles).
	if len(t.profile.AlternativeYears) > 0 {
		model := detectModel(t.profile.SearchedItem)
		if model == "" {
			model = t.profile.Model
		}
		query := &domain.SearchQuery{
			Text:    model,
			Filters: domain.SearchFilters{Model: model, Limit: h.svc.cfg.SearchLimit},
		}
		results, ok := h.svc.runSearch(ctx, query)
		t.clearPendingSuggestion()
		if !ok || len(results) == 0 {
			return &domain.ConversationResponse{
				Text:      msgNothingFound,
				NextState: domain.StateClarification,
			}, nil
		}
		recs := toRecommendations(results, 3)
		t.markShown(recs, "specific")
		return &domain.ConversationResponse{
			Text:            msgRecommendations(recs),
			CanRecommend:    true,
			Recommendations: recs,
			NextState:       domain.StateRecommendation,
		}, nil
	}

	// Afirmativa à categoria relaxada (veio do fail-fast de 7 lugares):
	// substitui a restrição por SUV espaçoso de 5 lugares.
	t.setFlag(func(p *domain.CustomerProfile, d *domain.ProfileDelta) {
		p.MinSeats = 0
		d.MinSeats = ptr(0)
		p.BodyType = domain.BodySUV
		d.BodyType = ptr(domain.BodySUV)
	})
	t.clearPendingSuggestion()

	query := buildSearchQuery(&t.profile, h.svc.cfg.SearchLimit)
	results, ok := h.svc.runSearch(ctx, query)
	if !ok || len(results) == 0 {
		return &domain.ConversationResponse{
			Text:      msgNothingFound,
			NextState: domain.StateClarification,
		}, nil
	}
	recs := toRecommendations(results, 3)
	t.markShown(recs, "recommendation")
	return &domain.ConversationResponse{
		Text:            msgRecommendations(recs),
		CanRecommend:    true,
		Recommendations: recs,
		NextState:       domain.StateRecommendation,
	}, nil
}
