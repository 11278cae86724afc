// Package dialog — handler_tradein.go implementa os interceptors de
// carro na troca.
//
// ============================================================
// TROCA vs DESEJADO — a desambiguação mais delicada da cascata
// ============================================================
//
// "Tenho um Civic 2010, quero uma picape" menciona modelo+ano, mas o
// Civic é o carro ATUAL do cliente, não o alvo. Se essa mensagem
// chegasse na busca exata, sairíamos oferecendo Civics 2010. Por isso
// este check é o PRIMEIRO da cascata: linguagem de troca + padrão
// modelo+ano, antes de qualquer recomendação, vira captura de troca e
// desfaz o que o extrator tiver posto em model/minYear.
package dialog

import (
	"context"

	"github.com/garagem/seminovos-assistant-go/internal/domain"
)

// ============================================================
// 1. tradeInDisambiguation
// ============================================================

type tradeInDisambiguation struct {
	svc *Service
}

func (h *tradeInDisambiguation) name() string { return "trade_in_disambiguation" }

func (h *tradeInDisambiguation) intercept(_ context.Context, t *turnState) (*domain.ConversationResponse, error) {
	model, year, ok := detectModelYear(t.lower)
	if !ok || !hasTradeInLanguage(t.lower) {
		return nil, nil
	}

	brand := inferBrand(model)
	t.setFlag(func(p *domain.CustomerProfile, d *domain.ProfileDelta) {
		p.HasTradeIn = true
		d.HasTradeIn = ptr(true)
		p.TradeInModel = model
		d.TradeInModel = ptr(model)
		p.TradeInYear = year
		d.TradeInYear = ptr(year)
		if brand != "" {
			p.TradeInBrand = brand
			d.TradeInBrand = ptr(brand)
		}
		p.TradeInMentioned = true
		d.TradeInMentioned = ptr(true)
	})

	// Variante pós-seleção: já mostramos um carro — ele continua sendo
	// a âncora da negociação; só falta a quilometragem da troca.
	if t.profile.RecommendationShown && len(t.profile.LastShownVehicles) > 0 {
		anchor := t.profile.LastShownVehicles[0]
		t.setFlag(func(p *domain.CustomerProfile, d *domain.ProfileDelta) {
			p.AwaitingTradeInDetails = true
			d.AwaitingTradeInDetails = ptr(true)
		})
		return &domain.ConversationResponse{
			Text:      msgTradeInAfterSelection(anchor, model, year),
			NextState: domain.StateNegotiation,
		}, nil
	}

	// Antes de qualquer recomendação: o modelo/ano do carro de troca
	// NÃO são o carro desejado — desfaz o que o extrator tiver posto
	// neles. Um SEGUNDO modelo na mesma mensagem ("tenho um civic na
	// troca, quero um onix") é desejo genuíno e fica de pé.
	t.setFlag(func(p *domain.CustomerProfile, d *domain.ProfileDelta) {
		if p.Model == model || (d.Model != nil && *d.Model == model) {
			p.Model = ""
			d.Model = ptr("")
		}
		if p.MinYear == year || (d.MinYear != nil && *d.MinYear == year) {
			p.MinYear = 0
			d.MinYear = ptr(0)
		}
		if p.Brand == brand && brand != "" {
			p.Brand = ""
			d.Brand = ptr("")
		}
	})

	return &domain.ConversationResponse{
		Text:      msgTradeInCaptured(model, year),
		NextState: domain.StateDiscovery,
	}, nil
}

// ============================================================
// 5. awaitingDetails — detalhes de troca/financiamento pendentes
// ============================================================

// awaitingDetails roda ANTES da detecção genérica de modelo/marca: um
// modelo citado enquanto esperamos detalhes do carro de troca é o
// carro de troca, nunca uma busca nova. O marcador de unidade separa
// "150 mil km" (odômetro) de "150 mil" (entrada).
type awaitingDetails struct {
	svc *Service
}

func (h *awaitingDetails) name() string { return "awaiting_details" }

func (h *awaitingDetails) intercept(_ context.Context, t *turnState) (*domain.ConversationResponse, error) {
	switch t.profile.PendingFlow() {
	case domain.FlowTradeInDetails:
		return h.captureTradeIn(t)
	case domain.FlowFinancingDetails:
		return h.captureFinancing(t)
	default:
		return nil, nil
	}
}

func (h *awaitingDetails) captureTradeIn(t *turnState) (*domain.ConversationResponse, error) {
	model := detectModel(t.lower)
	year := detectYear(t.lower)
	km, hasKm := parseKm(t.lower)

	t.setFlag(func(p *domain.CustomerProfile, d *domain.ProfileDelta) {
		p.HasTradeIn = true
		d.HasTradeIn = ptr(true)
		if model != "" {
			p.TradeInModel = model
			d.TradeInModel = ptr(model)
			if brand := inferBrand(model); brand != "" {
				p.TradeInBrand = brand
				d.TradeInBrand = ptr(brand)
			}
		}
		if year > 0 {
			p.TradeInYear = year
			d.TradeInYear = ptr(year)
		}
		if hasKm {
			p.TradeInKm = km
			d.TradeInKm = ptr(km)
		}
		p.AwaitingTradeInDetails = false
		d.AwaitingTradeInDetails = ptr(false)
	})

	return &domain.ConversationResponse{
		Text:      msgHandoffSummary(&t.profile),
		NextState: domain.StateHandoff,
	}, nil
}

func (h *awaitingDetails) captureFinancing(t *turnState) (*domain.ConversationResponse, error) {
	amount, ok := parseMoney(t.lower)

	t.setFlag(func(p *domain.CustomerProfile, d *domain.ProfileDelta) {
		p.WantsFinancing = true
		d.WantsFinancing = ptr(true)
		if ok {
			p.FinancingDownPayment = amount
			d.FinancingDownPayment = ptr(amount)
		}
		p.AwaitingFinancingDetails = false
		d.AwaitingFinancingDetails = ptr(false)
	})

	return &domain.ConversationResponse{
		Text:      msgHandoffSummary(&t.profile),
		NextState: domain.StateHandoff,
	}, nil
}
