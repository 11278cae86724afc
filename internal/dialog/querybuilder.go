// Package dialog — querybuilder.go é o mapeamento determinístico e
// puro de perfil → query estruturada de busca.
package dialog

import (
	"fmt"
	"strings"

	"github.com/garagem/seminovos-assistant-go/internal/domain"
)

// buildSearchQuery monta a query a partir do perfil acumulado.
//
// Texto livre (usado pelo ranking): concatenação por espaço de
// (model, year, bodyType, usage, priorities), NESTA ordem — campos
// ausentes são pulados.
//
// Elegibilidades derivadas:
//   - aptoUberX:     usoPrincipal=uber com tipoUber x/comfort (ou sem tipo)
//   - aptoUberBlack: usoPrincipal=uber com tipoUber black
//   - familySuitable: usoPrincipal=family ou prioridade "family"/"familia"
//
// Adequação familiar e intenção de picape/comercial são mutuamente
// exclusivas por construção: picape no perfil desliga familySuitable.
func buildSearchQuery(p *domain.CustomerProfile, limit int) *domain.SearchQuery {
	var parts []string
	if p.Model != "" {
		parts = append(parts, p.Model)
	}
	if p.MinYear > 0 {
		parts = append(parts, fmt.Sprintf("%d", p.MinYear))
	}
	if p.BodyType != "" {
		parts = append(parts, p.BodyType)
	}
	if p.Usage != "" {
		parts = append(parts, p.Usage)
	}
	parts = append(parts, p.Priorities...)

	f := domain.SearchFilters{
		BudgetMax:    budgetCeiling(p),
		BudgetMin:    p.BudgetMin,
		MinYear:      p.MinYear,
		MaxKm:        p.MaxKm,
		MinSeats:     p.MinSeats,
		BodyType:     p.BodyType,
		Transmission: p.Transmission,
		Brand:        p.Brand,
		Model:        p.Model,
		ExcludeIDs:   p.ExcludeVehicleIDs,
		Limit:        limit,
	}

	pickupIntent := p.BodyType == "pickup" || hasTag(p.Priorities, "pickup")

	if p.UsoPrincipal == "uber" {
		switch p.TipoUber {
		case "black":
			f.AptoUberBlack = true
		default: // x, comfort ou não informado
			f.AptoUberX = true
		}
	}
	if !pickupIntent &&
		(p.UsoPrincipal == "family" || hasTag(p.Priorities, "family") || hasTag(p.Priorities, "familia")) {
		f.FamilySuitable = true
	}

	return &domain.SearchQuery{
		Text:    strings.Join(parts, " "),
		Filters: f,
	}
}

// budgetCeiling devolve o teto de orçamento: BudgetMax quando há faixa,
// senão o Budget simples.
func budgetCeiling(p *domain.CustomerProfile) float64 {
	if p.BudgetMax > 0 {
		return p.BudgetMax
	}
	return p.Budget
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
