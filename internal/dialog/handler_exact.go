// Package dialog — handler_exact.go implementa a busca exata
// modelo+ano e a escolha de ano alternativo.
package dialog

import (
	"context"
	"fmt"
	"sort"

	"github.com/garagem/seminovos-assistant-go/internal/domain"
)

// ============================================================
// 2. exactSearch — "Onix 2019"
// ============================================================

// exactSearch reivindica quando a mensagem (ou a extração do turno)
// carrega modelo E ano específicos e nenhum sub-fluxo especial está em
// andamento. Hit exato vira resposta "specific"; ano inexistente vira
// oferta dos anos que EXISTEM em estoque.
type exactSearch struct {
	svc *Service
}

func (h *exactSearch) name() string { return "exact_search" }

func (h *exactSearch) intercept(ctx context.Context, t *turnState) (*domain.ConversationResponse, error) {
	if t.profile.PendingFlow() != domain.FlowNone ||
		t.profile.RecommendationShown ||
		hasTradeInLanguage(t.lower) {
		return nil, nil
	}

	model, year, ok := detectModelYear(t.lower)
	if !ok {
		// a extração pode ter capturado o par mesmo sem casar nossa
		// tabela de modelos (modelo fora do catálogo conhecido)
		if t.extraction != nil && t.extraction.Delta.Model != nil && t.extraction.Delta.MinYear != nil {
			model, year = *t.extraction.Delta.Model, *t.extraction.Delta.MinYear
		}
		if model == "" || year == 0 {
			return nil, nil
		}
	}

	// Re-menção do carro de troca já registrado ("é um civic 2010",
	// respondendo uma pergunta) continua sendo papo de troca mesmo sem
	// linguagem de troca na mensagem — não é busca nova.
	if t.profile.TradeInMentioned && model == t.profile.TradeInModel && year == t.profile.TradeInYear {
		return nil, nil
	}

	// Uma busca só, sem travar o ano: o hit exato sai da partição do
	// resultado, e o miss já traz os anos alternativos de graça.
	query := &domain.SearchQuery{
		Text: fmt.Sprintf("%s %d", model, year),
		Filters: domain.SearchFilters{
			Model:      model,
			Brand:      inferBrand(model),
			BudgetMax:  budgetCeiling(&t.profile),
			ExcludeIDs: t.profile.ExcludeVehicleIDs,
			Limit:      h.svc.cfg.SearchLimit,
		},
	}
	results, searchOK := h.svc.runSearch(ctx, query)
	if !searchOK {
		return &domain.ConversationResponse{
			Text:      msgNothingFound,
			NextState: domain.StateClarification,
		}, nil
	}

	var exact []domain.SearchResult
	yearSet := map[int]bool{}
	for _, r := range results {
		if r.Vehicle.Year == year {
			exact = append(exact, r)
		} else {
			yearSet[r.Vehicle.Year] = true
		}
	}

	t.setFlag(func(p *domain.CustomerProfile, d *domain.ProfileDelta) {
		p.Model = model
		d.Model = ptr(model)
		if brand := inferBrand(model); brand != "" {
			p.Brand = brand
			d.Brand = ptr(brand)
		}
	})

	// Hit exato: o ano pedido existe.
	if len(exact) > 0 {
		recs := toRecommendations(exact, 3)
		t.markShown(recs, "specific")
		return &domain.ConversationResponse{
			Text:            msgExactHit(recs),
			CanRecommend:    true,
			Recommendations: recs,
			NextState:       domain.StateRecommendation,
		}, nil
	}

	// Modelo existe, ano não: oferece os anos disponíveis e espera a
	// escolha — ainda não é recomendação.
	if len(yearSet) > 0 {
		years := make([]int, 0, len(yearSet))
		for y := range yearSet {
			years = append(years, y)
		}
		sort.Ints(years)

		searched := fmt.Sprintf("%s %d", model, year)
		t.setFlag(func(p *domain.CustomerProfile, d *domain.ProfileDelta) {
			p.AwaitingSuggestionAnswer = true
			d.AwaitingSuggestionAnswer = ptr(true)
			p.SearchedItem = searched
			d.SearchedItem = ptr(searched)
			p.AlternativeYears = years
			d.AlternativeYears = &years
		})
		return &domain.ConversationResponse{
			Text:      msgAlternativeYears(model, year, years),
			NextState: domain.StateClarification,
		}, nil
	}

	// Nem o modelo existe: fallback pela carroceria típica, guardando
	// os candidatos para aprovação (quer ver parecidos?).
	if body := inferBodyType(model); body != "" {
		fallback := &domain.SearchQuery{
			Text: body,
			Filters: domain.SearchFilters{
				BodyType:  body,
				BudgetMax: budgetCeiling(&t.profile),
				Limit:     h.svc.cfg.SearchLimit,
			},
		}
		if similar, ok := h.svc.runSearch(ctx, fallback); ok && len(similar) > 0 {
			candidates := snapshots(toRecommendations(similar, 3))
			searched := fmt.Sprintf("%s %d", model, year)
			t.setFlag(func(p *domain.CustomerProfile, d *domain.ProfileDelta) {
				p.AwaitingSimilarApproval = true
				d.AwaitingSimilarApproval = ptr(true)
				p.PendingSimilarVehicles = candidates
				d.PendingSimilarVehicles = &candidates
				p.SearchedItem = searched
				d.SearchedItem = ptr(searched)
			})
			return &domain.ConversationResponse{
				Text:      msgSimilarOffer(searched, len(candidates)),
				NextState: domain.StateClarification,
			}, nil
		}
	}

	return &domain.ConversationResponse{
		Text:      msgNothingFound,
		NextState: domain.StateClarification,
	}, nil
}

// ============================================================
// 7. alternativeYear — o cliente escolheu um dos anos oferecidos
// ============================================================

type alternativeYear struct {
	svc *Service
}

func (h *alternativeYear) name() string { return "alternative_year" }

func (h *alternativeYear) intercept(ctx context.Context, t *turnState) (*domain.ConversationResponse, error) {
	if len(t.profile.AlternativeYears) == 0 {
		return nil, nil
	}
	year, picked := yearFromList(t.lower, t.profile.AlternativeYears)
	if !picked {
		return nil, nil
	}

	model := detectModel(t.profile.SearchedItem)
	if model == "" {
		model = t.profile.Model
	}

	query := &domain.SearchQuery{
		Text: fmt.Sprintf("%s %d", model, year),
		Filters: domain.SearchFilters{
			Model: model,
			Year:  year,
			Limit: h.svc.cfg.SearchLimit,
		},
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
		Text:            msgExactHit(recs),
		CanRecommend:    true,
		Recommendations: recs,
		NextState:       domain.StateRecommendation,
	}, nil
}
