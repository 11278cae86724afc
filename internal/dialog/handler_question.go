// Package dialog — handler_question.go responde perguntas do cliente.
// Pergunta de disponibilidade vira listagem direta da categoria;
// qualquer outra vai para a capability de conhecimento, com cache de
// resposta por pergunta normalizada.
package dialog

import (
	"context"

	"github.com/garagem/seminovos-assistant-go/internal/domain"
	"github.com/garagem/seminovos-assistant-go/internal/port"

	"go.uber.org/zap"
)

type userQuestion struct {
	svc *Service
}

func (h *userQuestion) name() string { return "user_question" }

func (h *userQuestion) intercept(ctx context.Context, t *turnState) (*domain.ConversationResponse, error) {
	if !isQuestion(t.lower) {
		return nil, nil
	}

	if isAvailabilityQuestion(t.lower) {
		return h.availabilityListing(ctx, t)
	}
	return h.knowledgeAnswer(ctx, t)
}

// availabilityListing responde "vocês têm X?" com a listagem da
// categoria em vez de explicação em texto livre.
func (h *userQuestion) availabilityListing(ctx context.Context, t *turnState) (*domain.ConversationResponse, error) {
	category := detectBodyType(t.lower)
	f := domain.SearchFilters{
		BudgetMax: budgetCeiling(&t.profile),
		Limit:     h.svc.cfg.SearchLimit,
	}
	switch {
	case category != "":
		f.BodyType = category
	case detectBrand(t.lower) != "":
		category = detectBrand(t.lower)
		f.Brand = category
	default:
		category = "carros"
	}

	results, ok := h.svc.runSearch(ctx, &domain.SearchQuery{Text: category, Filters: f})
	if !ok || len(results) == 0 {
		return &domain.ConversationResponse{
			Text:      msgAvailabilityListing(category, nil),
			NextState: nextAskingState(t.conv.State, t.conv.QuestionsAsked),
		}, nil
	}

	recs := toRecommendations(results, 3)
	t.markShown(recs, "recommendation")
	return &domain.ConversationResponse{
		Text:            msgAvailabilityListing(category, recs),
		CanRecommend:    true,
		Recommendations: recs,
		NextState:       domain.StateRecommendation,
	}, nil
}

// knowledgeAnswer consulta a capability de conhecimento, levando os
// veículos mostrados como contexto. Falha degrada para o fallback — a
// pergunta nunca fica sem resposta.
func (h *userQuestion) knowledgeAnswer(ctx context.Context, t *turnState) (*domain.ConversationResponse, error) {
	if cached, ok := h.svc.answerCache.Get(t.lower); ok {
		h.svc.metrics.IncrCacheHit("answers")
		return &domain.ConversationResponse{
			Text:      cached,
			NextState: questionNextState(t.conv.State),
		}, nil
	}
	h.svc.metrics.IncrCacheMiss("answers")

	vehicles := make([]domain.Vehicle, 0, len(t.profile.LastShownVehicles))
	for _, v := range t.profile.LastShownVehicles {
		vehicles = append(vehicles, vehicleFromSnapshot(v))
	}

	answer, err := h.svc.knowledge.Answer(ctx, &port.KnowledgeRequest{
		Question: t.msg,
		Vehicles: vehicles,
		Summary:  profileSummary(&t.profile),
	})
	if err != nil || answer == "" {
		h.svc.logger.Warn("knowledge answer failed, using fallback",
			zap.String("conversation_id", t.conv.ConversationID),
			zap.Error(err),
		)
		h.svc.metrics.IncrExternalError("knowledge")
		return &domain.ConversationResponse{
			Text:      msgKnowledgeFallback,
			NextState: questionNextState(t.conv.State),
		}, nil
	}

	h.svc.answerCache.Set(t.lower, answer)
	return &domain.ConversationResponse{
		Text:      answer,
		NextState: questionNextState(t.conv.State),
	}, nil
}

// questionNextState: responder pergunta não avança o funil — mantém a
// fase, exceto no comecinho da conversa.
func questionNextState(current domain.GraphState) domain.GraphState {
	if current == domain.StateStart || current == domain.StateGreeting {
		return domain.StateDiscovery
	}
	return current
}

// profileSummary monta um resumo curto do perfil para dar contexto à
// capability de conhecimento.
func profileSummary(p *domain.CustomerProfile) string {
	var parts []string
	if p.Budget > 0 {
		parts = append(parts, "orçamento R$ "+formatPrice(p.Budget))
	}
	if p.BodyType != "" {
		parts = append(parts, "carroceria "+p.BodyType)
	}
	if p.Usage != "" {
		parts = append(parts, "uso "+p.Usage)
	}
	if len(parts) == 0 {
		return ""
	}
	out := parts[0]
	for _, s := range parts[1:] {
		out += "; " + s
	}
	return out
}
