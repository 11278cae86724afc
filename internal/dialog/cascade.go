// Package dialog — cascade.go define a cascata de interceptação de
// intenção: uma lista ORDENADA de checks independentes avaliada de
// cima para baixo a cada turno.
//
// ============================================================
// A ORDEM CARREGA O COMPORTAMENTO
// ============================================================
//
// Cada check pode (a) declinar — devolve nil e a cascata continua —
// ou (b) reivindicar o turno, devolvendo a resposta completa e
// pulando todo o resto. Reordenar a lista MUDA o comportamento:
// "aguardando detalhes de financiamento" precisa vir antes da detecção
// genérica de modelo, senão um modelo citado como carro de troca vira
// busca de compra. A ordem é dado explícito em newCascade, testável
// handler a handler.
package dialog

import (
	"context"

	"github.com/garagem/seminovos-assistant-go/internal/domain"
	"github.com/garagem/seminovos-assistant-go/internal/port"

	"go.uber.org/zap"
)

// interceptor é um check da cascata. Devolve (nil, nil) para declinar.
type interceptor interface {
	// name identifica o handler em logs e métricas.
	name() string

	// intercept examina o turno e reivindica ou declina.
	intercept(ctx context.Context, t *turnState) (*domain.ConversationResponse, error)
}

// newCascade monta a lista na ordem de prioridade do fluxo de vendas.
// A ordem é load-bearing — ver o comentário do topo do arquivo.
func newCascade(s *Service) []interceptor {
	return []interceptor{
		&tradeInDisambiguation{svc: s}, // 1. troca vs desejado
		&exactSearch{svc: s},           // 2. modelo+ano exatos
		&seatConstraint{svc: s},        // 3. fail-fast de 7 lugares
		&similarApproval{svc: s},       // 4. aprovação de similares pendente
		&awaitingDetails{svc: s},       // 5. detalhes de troca/financiamento pendentes
		&postRecommendation{svc: s},    // 6. reação pós-recomendação
		&alternativeYear{svc: s},       // 7. escolha de ano alternativo
		&suggestionAnswer{svc: s},      // 8. resposta à sugestão pendente
		&brandModelMention{svc: s},     // 9. menção genérica de marca/modelo
		&userQuestion{svc: s},          // 10. pergunta do usuário
	}
}

// ============================================================
// turnState — estado mutável de UM turno
// ============================================================

// turnState carrega tudo que os handlers precisam. Vive só durante o
// turno; o delta acumulado é o que volta para o chamador persistir.
type turnState struct {
	conv *domain.ConversationContext

	// profile é a cópia de trabalho já com o delta de extração
	// aplicado — é o que os handlers leem.
	profile domain.CustomerProfile

	// delta acumula tudo que o turno mudou (extração + handlers).
	delta *domain.ProfileDelta

	msg   string
	lower string

	extraction *port.ExtractionResult
}

// setFlag registra a mudança de um control flag no delta E na cópia de
// trabalho, para que handlers seguintes no mesmo turno vejam o valor
// novo (ex: pós-recomendação limpa o flag e declina para a menção).
func (t *turnState) setFlag(apply func(p *domain.CustomerProfile, d *domain.ProfileDelta)) {
	apply(&t.profile, t.delta)
}

// ============================================================
// Helpers compartilhados pelos handlers
// ============================================================

// ptr devolve um ponteiro para o valor — atalho para montar deltas.
func ptr[T any](v T) *T {
	return &v
}

// runSearch chama a capability de busca com métrica e log. Erro de
// busca degrada para lista vazia mais um flag de erro — quem chamou
// decide o texto ("nada disponível, quer ajustar?").
func (s *Service) runSearch(ctx context.Context, query *domain.SearchQuery) ([]domain.SearchResult, bool) {
	results, err := s.searcher.Search(ctx, query)
	if err != nil {
		s.logger.Error("vehicle search failed",
			zap.String("text", query.Text),
			zap.Error(err),
		)
		s.metrics.IncrExternalError("search")
		return nil, false
	}
	return results, true
}

// toRecommendations converte resultados de busca em recomendações,
// respeitando a ordem (melhor primeiro) e o limite dado.
func toRecommendations(results []domain.SearchResult, limit int) []domain.Recommendation {
	if limit <= 0 || limit > len(results) {
		limit = len(results)
	}
	recs := make([]domain.Recommendation, 0, limit)
	for _, r := range results[:limit] {
		recs = append(recs, domain.Recommendation{Vehicle: r.Vehicle, MatchScore: r.MatchScore})
	}
	return recs
}

// snapshots congela as recomendações para o flag de "últimos mostrados".
func snapshots(recs []domain.Recommendation) []domain.ShownVehicle {
	out := make([]domain.ShownVehicle, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Vehicle.Snapshot())
	}
	return out
}

// markShown grava no turno os flags de recomendação exibida: snapshot
// dos veículos, tipo da busca e ids para exclusão em buscas futuras.
func (t *turnState) markShown(recs []domain.Recommendation, searchType string) {
	shown := snapshots(recs)
	excluded := t.profile.ExcludeVehicleIDs
	for _, v := range shown {
		excluded = appendUnique(excluded, v.ID)
	}
	t.setFlag(func(p *domain.CustomerProfile, d *domain.ProfileDelta) {
		p.RecommendationShown = true
		d.RecommendationShown = ptr(true)
		p.LastShownVehicles = shown
		d.LastShownVehicles = &shown
		p.LastSearchType = searchType
		d.LastSearchType = &searchType
		p.ExcludeVehicleIDs = excluded
		d.ExcludeVehicleIDs = &excluded
	})
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

// clearPendingSuggestion limpa os flags do fluxo de sugestão.
func (t *turnState) clearPendingSuggestion() {
	t.setFlag(func(p *domain.CustomerProfile, d *domain.ProfileDelta) {
		p.AwaitingSuggestionAnswer = false
		d.AwaitingSuggestionAnswer = ptr(false)
		p.AlternativeYears = nil
		d.AlternativeYears = &[]int{}
		p.SearchedItem = ""
		d.SearchedItem = ptr("")
	})
}
