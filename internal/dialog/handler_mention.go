// Package dialog — handler_mention.go trata a menção genérica de
// marca/modelo: "tem algum Fiat?", "queria um Corolla". Prioridade
// menor que a busca exata porque cobre os casos fuzzy (sem ano,
// marca isolada).
package dialog

import (
	"context"
	"strings"

	"github.com/garagem/seminovos-assistant-go/internal/domain"
)

type brandModelMention struct {
	svc *Service
}

func (h *brandModelMention) name() string { return "brand_model_mention" }

func (h *brandModelMention) intercept(ctx context.Context, t *turnState) (*domain.ConversationResponse, error) {
	if t.profile.PendingFlow() != domain.FlowNone || hasTradeInLanguage(t.lower) {
		return nil, nil
	}

	model := detectModel(t.lower)
	brand := detectBrand(t.lower)
	if model == "" && brand == "" {
		// carroceria sozinha ("quero um suv") não reivindica: a
		// extração já capturou bodyType e o slot-filling segue.
		return nil, nil
	}
	year := detectYear(t.lower)

	// Eco do carro de troca registrado: mencionar o modelo da troca
	// sem um ano novo não é pedido de busca.
	if t.profile.TradeInMentioned && model != "" && model == t.profile.TradeInModel &&
		(year == 0 || year == t.profile.TradeInYear) {
		return nil, nil
	}
	if model != "" && brand == "" {
		brand = inferBrand(model)
	}

	t.setFlag(func(p *domain.CustomerProfile, d *domain.ProfileDelta) {
		if model != "" {
			p.Model = model
			d.Model = ptr(model)
		}
		if brand != "" {
			p.Brand = brand
			d.Brand = ptr(brand)
		}
	})

	query := &domain.SearchQuery{
		Text: strings.TrimSpace(brand + " " + model),
		Filters: domain.SearchFilters{
			Brand:      brand,
			Model:      model,
			MinYear:    year,
			BudgetMax:  budgetCeiling(&t.profile),
			ExcludeIDs: t.profile.ExcludeVehicleIDs,
			Limit:      h.svc.cfg.SearchLimit,
		},
	}
	results, ok := h.svc.runSearch(ctx, query)
	if !ok {
		return &domain.ConversationResponse{
			Text:      msgNothingFound,
			NextState: domain.StateClarification,
		}, nil
	}

	// Pós-filtro local por igualdade/substring: a capability ranqueia,
	// mas não garante que devolveu só o que foi pedido.
	filtered := filterByMention(results, brand, model, year)

	if len(filtered) > 0 {
		recs := toRecommendations(filtered, 3)
		t.markShown(recs, "brand_model")
		return &domain.ConversationResponse{
			Text:            msgRecommendations(recs),
			CanRecommend:    true,
			Recommendations: recs,
			NextState:       domain.StateRecommendation,
		}, nil
	}

	// Nada do que foi pedido: fallback pela carroceria típica do modelo
	// antes de desistir para o slot-filling genérico.
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
			searched := strings.TrimSpace(brand + " " + model)
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

	// Desiste e deixa o caminho genérico perguntar.
	return nil, nil
}

// filterByMention mantém só os resultados que batem com o que o
// cliente pediu: marca por igualdade, modelo por substring, ano por
// igualdade quando informado.
func filterByMention(results []domain.SearchResult, brand, model string, year int) []domain.SearchResult {
	var out []domain.SearchResult
	for _, r := range results {
		if brand != "" && normalize(r.Vehicle.Brand) != brand {
			continue
		}
		if model != "" && !strings.Contains(normalize(r.Vehicle.Model), model) {
			continue
		}
		if year > 0 && r.Vehicle.Year != year {
			continue
		}
		out = append(out, r)
	}
	return out
}
