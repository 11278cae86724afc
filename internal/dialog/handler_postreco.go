// Package dialog — handler_postreco.go classifica a reação do cliente
// depois que uma recomendação foi mostrada: troca, financiamento,
// outras opções (com deslocamento de faixa de preço), agendamento,
// agradecimento — ou nada disso, caso em que o flag é limpo e a
// mensagem segue para o resto da cascata.
package dialog

import (
	"context"
	"sort"
	"strings"

	"github.com/garagem/seminovos-assistant-go/internal/domain"
)

type postRecommendation struct {
	svc *Service
}

func (h *postRecommendation) name() string { return "post_recommendation" }

func (h *postRecommendation) intercept(ctx context.Context, t *turnState) (*domain.ConversationResponse, error) {
	if !t.profile.RecommendationShown || len(t.profile.LastShownVehicles) == 0 {
		return nil, nil
	}

	switch {
	case hasTradeInLanguage(t.lower):
		return h.tradeInMention(t)
	case mentionsFinancing(t.lower):
		return h.financing(t)
	case wantsOtherOptions(t.lower) || wantsCheaper(t.lower) || wantsPricier(t.lower):
		return h.otherOptions(ctx, t)
	case wantsSchedule(t.lower):
		return &domain.ConversationResponse{
			Text:      msgHandoffSummary(&t.profile),
			NextState: domain.StateHandoff,
		}, nil
	case isAcknowledgment(t.lower) && !isQuestion(t.lower):
		return &domain.ConversationResponse{
			Text:      msgAckReply,
			NextState: domain.StateFollowUp,
		}, nil
	}

	// Modelo mencionado que é um dos mostrados: o cliente está falando
	// DELE — pergunta sobre o carro segue para o respondedor (handler
	// 10), que carrega o contexto dos veículos mostrados.
	if model := detectModel(t.lower); model != "" && h.matchesShown(t, model) {
		return nil, nil
	}

	// Nenhuma reação reconhecida: a conversa seguiu em frente. Limpa o
	// flag (na cópia de trabalho E no delta) e declina — a menção
	// genérica ou o caminho normal tratam a mensagem neste mesmo turno.
	t.setFlag(func(p *domain.CustomerProfile, d *domain.ProfileDelta) {
		p.RecommendationShown = false
		d.RecommendationShown = ptr(false)
	})
	return nil, nil
}

// matchesShown compara por substring contra os modelos mostrados.
// Heurística best-effort — "civic" casa com "civic touring".
func (h *postRecommendation) matchesShown(t *turnState, model string) bool {
	for _, v := range t.profile.LastShownVehicles {
		if strings.Contains(normalize(v.Model), model) {
			return true
		}
	}
	return false
}

func (h *postRecommendation) tradeInMention(t *turnState) (*domain.ConversationResponse, error) {
	t.setFlag(func(p *domain.CustomerProfile, d *domain.ProfileDelta) {
		p.HasTradeIn = true
		d.HasTradeIn = ptr(true)
		p.TradeInMentioned = true
		d.TradeInMentioned = ptr(true)
		p.AwaitingTradeInDetails = true
		d.AwaitingTradeInDetails = ptr(true)
	})
	return &domain.ConversationResponse{
		Text:      msgAskTradeInDetails,
		NextState: domain.StateNegotiation,
	}, nil
}

func (h *postRecommendation) financing(t *turnState) (*domain.ConversationResponse, error) {
	t.setFlag(func(p *domain.CustomerProfile, d *domain.ProfileDelta) {
		p.WantsFinancing = true
		d.WantsFinancing = ptr(true)
	})

	// Entrada já na mensagem ("financio com 20 mil de entrada").
	if amount, ok := parseMoney(t.lower); ok {
		t.setFlag(func(p *domain.CustomerProfile, d *domain.ProfileDelta) {
			p.FinancingDownPayment = amount
			d.FinancingDownPayment = ptr(amount)
		})
		return &domain.ConversationResponse{
			Text:      msgHandoffSummary(&t.profile),
			NextState: domain.StateHandoff,
		}, nil
	}

	// Troca já conhecida: o vendedor fecha os números — direto pro
	// handoff, sem pedir entrada.
	if t.profile.HasTradeIn && t.profile.TradeInModel != "" {
		return &domain.ConversationResponse{
			Text:      msgHandoffSummary(&t.profile),
			NextState: domain.StateHandoff,
		}, nil
	}

	t.setFlag(func(p *domain.CustomerProfile, d *domain.ProfileDelta) {
		p.AwaitingFinancingDetails = true
		d.AwaitingFinancingDetails = ptr(true)
	})
	return &domain.ConversationResponse{
		Text:      msgAskDownPayment,
		NextState: domain.StateNegotiation,
	}, nil
}

// otherOptions re-busca perto da faixa do veículo de referência (o
// primeiro mostrado). "Mais barato"/"mais caro" desloca a faixa; é o
// ÚNICO lugar do core que reordena resultado de busca.
func (h *postRecommendation) otherOptions(ctx context.Context, t *turnState) (*domain.ConversationResponse, error) {
	ref := t.profile.LastShownVehicles[0]

	f := domain.SearchFilters{
		BodyType:   ref.BodyType,
		ExcludeIDs: t.profile.ExcludeVehicleIDs,
		Limit:      h.svc.cfg.SearchLimit,
	}
	cheaper := wantsCheaper(t.lower)
	pricier := wantsPricier(t.lower)
	switch {
	case cheaper:
		f.BudgetMax = ref.Price
	case pricier:
		f.BudgetMin = ref.Price
		f.BudgetMax = ref.Price * 1.8
	default:
		f.BudgetMin = ref.Price * 0.8
		f.BudgetMax = ref.Price * 1.2
	}

	results, ok := h.svc.runSearch(ctx, &domain.SearchQuery{Text: ref.BodyType, Filters: f})
	if !ok || len(results) == 0 {
		return &domain.ConversationResponse{
			Text:      msgNothingFound,
			NextState: domain.StateClarification,
		}, nil
	}

	if cheaper {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Vehicle.Price < results[j].Vehicle.Price
		})
	}
	if pricier {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Vehicle.Price > results[j].Vehicle.Price
		})
	}

	recs := toRecommendations(results, 3)
	t.markShown(recs, "similar")
	return &domain.ConversationResponse{
		Text:            msgRecommendations(recs),
		CanRecommend:    true,
		Recommendations: recs,
		NextState:       domain.StateRecommendation,
	}, nil
}
