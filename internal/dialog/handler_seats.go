// Package dialog — handler_seats.go implementa o fail-fast da
// restrição dura de 7 lugares.
//
// A busca genérica não garante contagem de assentos; prometer um 7
// lugares e entregar um sedan é o pior resultado possível. Antes do
// caminho de recomendação, verificamos contra o allow-list de modelos
// que DE FATO têm 7 lugares — se o estoque não atende, avisamos na hora
// e oferecemos a categoria de 5 lugares, sem rodar a recomendação.
package dialog

import (
	"context"

	"github.com/garagem/seminovos-assistant-go/internal/domain"
)

type seatConstraint struct {
	svc *Service
}

func (h *seatConstraint) name() string { return "seat_constraint" }

func (h *seatConstraint) intercept(ctx context.Context, t *turnState) (*domain.ConversationResponse, error) {
	if t.profile.MinSeats < 7 ||
		t.profile.PendingFlow() != domain.FlowNone ||
		t.profile.RecommendationShown {
		return nil, nil
	}

	// Busca larga (sem filtro de assentos — o estoque raramente anota
	// isso direito) e filtro local pelo allow-list.
	query := &domain.SearchQuery{
		Text: "7 lugares",
		Filters: domain.SearchFilters{
			BudgetMax: budgetCeiling(&t.profile),
			Limit:     h.svc.cfg.SearchLimit,
		},
	}
	results, ok := h.svc.runSearch(ctx, query)
	if !ok {
		return nil, nil
	}

	for _, r := range results {
		if isSevenSeater(normalize(r.Vehicle.Model)) {
			// Tem 7 lugares em estoque: o caminho genérico resolve com
			// o filtro de assentos normal.
			return nil, nil
		}
	}

	t.setFlag(func(p *domain.CustomerProfile, d *domain.ProfileDelta) {
		p.AwaitingSuggestionAnswer = true
		d.AwaitingSuggestionAnswer = ptr(true)
		p.SearchedItem = "7 lugares"
		d.SearchedItem = ptr("7 lugares")
	})

	return &domain.ConversationResponse{
		Text:      msgSevenSeatsUnavailable(),
		NextState: domain.StateClarification,
	}, nil
}
