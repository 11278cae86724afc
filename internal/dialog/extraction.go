// Package dialog — extraction.go implementa a camada de Extração &
// Merge: chama a capability externa de NLU uma vez por turno, sanitiza
// o que voltou e entrega um delta seguro para aplicar no perfil.
//
// ============================================================
// FALHA DE EXTRAÇÃO NUNCA É FATAL
// ============================================================
//
// Se a capability falhar ou devolver lixo, o turno segue com extração
// vazia e confidence 0. O cliente não pode ficar sem resposta porque o
// extrator engasgou.
package dialog

import (
	"context"
	"strings"

	"github.com/garagem/seminovos-assistant-go/internal/domain"
	"github.com/garagem/seminovos-assistant-go/internal/port"

	"go.uber.org/zap"
)

// allow-lists de enums. Valor fora da lista é descartado (ponteiro
// vira nil — "não mexa"), nunca propagado.
var (
	validUsage    = map[string]bool{"city": true, "trip": true, "work": true, "mixed": true}
	validUso      = map[string]bool{"uber": true, "family": true, "work": true, "trip": true, "other": true}
	validTipoUber = map[string]bool{"x": true, "comfort": true, "black": true}
	validBody     = map[string]bool{"sedan": true, "suv": true, "hatch": true, "pickup": true, "minivan": true}
)

// runExtraction chama o extrator com a janela de histórico configurada
// e devolve o resultado sanitizado. Nunca devolve nil e nunca propaga
// erro — fail closed.
func (s *Service) runExtraction(ctx context.Context, msg string, conv *domain.ConversationContext) *port.ExtractionResult {
	history := conv.History
	if w := s.cfg.HistoryWindow; w > 0 && len(history) > w {
		history = history[len(history)-w:]
	}

	result, err := s.extractor.Extract(ctx, &port.ExtractionRequest{
		Message: msg,
		Profile: conv.Profile,
		History: history,
	})
	if err != nil || result == nil {
		s.logger.Warn("extraction failed, continuing with empty delta",
			zap.String("conversation_id", conv.ConversationID),
			zap.Error(err),
		)
		s.metrics.IncrExternalError("nlu")
		return &port.ExtractionResult{}
	}

	if result.Confidence < s.cfg.MinConfidence {
		s.logger.Debug("extraction below confidence threshold, discarded",
			zap.Float64("confidence", result.Confidence),
			zap.Float64("min_confidence", s.cfg.MinConfidence),
		)
		return &port.ExtractionResult{Confidence: result.Confidence}
	}

	sanitizeDelta(&result.Delta)
	return result
}

// sanitizeDelta aplica clamp de faixas, allow-list de enums,
// normalização de strings e a tabela de picapes. Muta o delta in-place.
func sanitizeDelta(d *domain.ProfileDelta) {
	// --- Strings: minúscula + trim ---
	normStr(&d.Usage)
	normStr(&d.UsoPrincipal)
	normStr(&d.TipoUber)
	normStr(&d.BodyType)
	normStr(&d.Transmission)
	normStr(&d.FuelType)
	normStr(&d.Color)
	normStr(&d.Brand)
	normStr(&d.Model)
	normStr(&d.TradeInBrand)
	normStr(&d.TradeInModel)
	for i, t := range d.Priorities {
		d.Priorities[i] = strings.ToLower(strings.TrimSpace(t))
	}
	for i, t := range d.DealBreakers {
		d.DealBreakers[i] = strings.ToLower(strings.TrimSpace(t))
	}

	// --- Enums fora do allow-list: descarta ---
	dropUnless(&d.Usage, validUsage)
	dropUnless(&d.UsoPrincipal, validUso)
	dropUnless(&d.TipoUber, validTipoUber)
	dropUnless(&d.BodyType, validBody)

	// --- Clamp numérico para as faixas documentadas ---
	clampInt(d.People, domain.MinPeople, domain.MaxPeople)
	clampInt(d.MinSeats, domain.MinSeatsLo, domain.MinSeatsHi)
	clampInt(d.MinYear, domain.YearFloor, domain.YearCeil)
	clampInt(d.TradeInYear, domain.YearFloor, domain.YearCeil)
	clampInt(d.MaxKm, 0, domain.MaxKmCeil)
	clampInt(d.TradeInKm, 0, domain.MaxKmCeil)
	dropNegative(d.Budget)
	dropNegative(d.BudgetMin)
	dropNegative(d.BudgetMax)
	dropNegative(d.FinancingDownPayment)

	// --- Tabela de picapes: modelo conhecido de picape força a
	// carroceria e a prioridade, mesmo que o NLU não tenha dito ---
	if d.Model != nil && pickupModels[*d.Model] {
		body := "pickup"
		d.BodyType = &body
		d.Priorities = domain.UnionTags(d.Priorities, []string{"pickup"})
		if d.Brand == nil || *d.Brand == "" {
			if brand := inferBrand(*d.Model); brand != "" {
				d.Brand = &brand
			}
		}
	}
	// Inferência de marca vale para qualquer modelo conhecido
	if d.Model != nil && (d.Brand == nil || *d.Brand == "") {
		if brand := inferBrand(*d.Model); brand != "" {
			d.Brand = &brand
		}
	}
}

func normStr(p **string) {
	if *p != nil {
		v := strings.ToLower(strings.TrimSpace(**p))
		*p = &v
	}
}

// dropUnless zera o ponteiro quando o valor não está no allow-list.
// String vazia também é descartada (extração sem conteúdo).
func dropUnless(p **string, allowed map[string]bool) {
	if *p != nil && !allowed[**p] {
		*p = nil
	}
}

func clampInt(p *int, lo, hi int) {
	if p == nil {
		return
	}
	if *p < lo {
		*p = lo
	}
	if *p > hi {
		*p = hi
	}
}

func dropNegative(p *float64) {
	if p != nil && *p < 0 {
		*p = 0
	}
}
