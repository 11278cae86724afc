// Package dialog — messages.go concentra os textos de resposta em
// pt-BR. A qualidade de redação fica num lugar só; a cascata monta
// dados e chama daqui.
package dialog

import (
	"fmt"
	"strings"

	"github.com/garagem/seminovos-assistant-go/internal/domain"
)

const (
	msgApology = "Desculpa, não consegui processar sua mensagem. Pode reformular, por favor?"

	msgNothingFound = "Poxa, não encontrei nenhum veículo com esses critérios no momento. " +
		"Quer ajustar alguma coisa — orçamento, ano ou tipo de carro?"

	msgAskDownPayment = "Boa! Financiamento a gente resolve fácil. " +
		"Quanto você está pensando em dar de entrada?"

	msgAskTradeInDetails = "Perfeito, seu carro pode entrar na negociação! " +
		"Me fala o modelo, o ano e a quilometragem dele, por favor."

	msgHandoffClosing = "Vou te conectar com um de nossos vendedores para fechar os detalhes. " +
		"Ele já recebe esse resumo e fala com você em instantes!"

	msgPoliteEnd = "Sem problemas! Qualquer coisa é só chamar. Obrigado pelo contato! 🚗"

	msgTerminal = "Essa conversa já foi encaminhada para um vendedor. " +
		"Se quiser começar uma nova busca, é só iniciar outra conversa."

	msgAckReply = "Fico feliz que tenha gostado! Quer agendar uma visita para ver o carro " +
		"de perto, ou prefere ver outras opções?"

	msgKnowledgeFallback = "Boa pergunta! Não tenho essa informação agora, " +
		"mas um de nossos vendedores pode te responder certinho. Quer que eu te conecte?"
)

// askNextQuestion devolve a pergunta contextual para o primeiro campo
// obrigatório faltante.
func askNextQuestion(missing []string, questionsAsked int) string {
	if len(missing) == 0 {
		return "Me conta mais sobre o que você procura num carro?"
	}
	switch missing[0] {
	case "budget":
		if questionsAsked == 0 {
			return "Legal! Pra começar: quanto você pretende investir no carro?"
		}
		return "E de orçamento, até quanto você pensa em investir?"
	case "usage":
		return "Como você vai usar o carro no dia a dia — cidade, viagem, trabalho ou um pouco de tudo?"
	default:
		return "Me conta mais sobre o que você procura num carro?"
	}
}

// titleCase capitaliza a primeira letra de cada palavra (marcas e
// modelos chegam minúsculos do perfil normalizado).
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 && r[0] >= 'a' && r[0] <= 'z' {
			r[0] = r[0] - 'a' + 'A'
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// formatVehicleLine formata um veículo para listagem.
func formatVehicleLine(v domain.Vehicle) string {
	return fmt.Sprintf("%s %s %d — R$ %s, %s km",
		titleCase(v.Brand), titleCase(v.Model), v.Year,
		formatPrice(v.Price), formatThousands(v.Km))
}

// formatPrice formata um valor em reais com separador de milhar pt-BR.
func formatPrice(p float64) string {
	return formatThousands(int(p))
}

func formatThousands(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(".")
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// msgRecommendations monta o texto de uma lista de recomendações.
func msgRecommendations(recs []domain.Recommendation) string {
	var b strings.Builder
	if len(recs) == 1 {
		b.WriteString("Encontrei uma ótima opção pra você:\n\n")
	} else {
		b.WriteString("Separei essas opções pra você:\n\n")
	}
	for i, r := range recs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, formatVehicleLine(r.Vehicle))
	}
	b.WriteString("\nAlguma delas te interessou?")
	return b.String()
}

// msgExactHit monta o texto da busca exata bem-sucedida.
func msgExactHit(recs []domain.Recommendation) string {
	var b strings.Builder
	v := recs[0].Vehicle
	fmt.Fprintf(&b, "Temos sim! %s disponível:\n\n", formatVehicleLine(v))
	for _, r := range recs[1:] {
		fmt.Fprintf(&b, "Também temos: %s\n", formatVehicleLine(r.Vehicle))
	}
	b.WriteString("\nQuer saber mais detalhes ou agendar uma visita?")
	return b.String()
}

// msgAlternativeYears oferece os anos que existem em estoque.
func msgAlternativeYears(model string, wantedYear int, years []int) string {
	ys := make([]string, len(years))
	for i, y := range years {
		ys[i] = fmt.Sprintf("%d", y)
	}
	return fmt.Sprintf(
		"Não tenho %s %d no estoque agora, mas tenho %s nos anos %s. Algum deles te atende?",
		titleCase(model), wantedYear, titleCase(model), strings.Join(ys, ", "))
}

// msgSevenSeatsUnavailable oferece a alternativa de 5 lugares.
func msgSevenSeatsUnavailable() string {
	return "No momento não tenho nenhum 7 lugares em estoque. 😕 " +
		"Tenho SUVs e sedans espaçosos de 5 lugares que costumam atender bem famílias. " +
		"Quer dar uma olhada?"
}

// msgTradeInCaptured confirma o carro na troca e pergunta o desejado.
func msgTradeInCaptured(model string, year int) string {
	return fmt.Sprintf(
		"Entendi, você tem um %s %d pra colocar na troca — ótimo, ele entra como parte do pagamento! "+
			"E o carro que você procura: que tipo (SUV, sedan, hatch, picape) e qual faixa de preço?",
		titleCase(model), year)
}

// msgTradeInAfterSelection confirma a troca mantendo o veículo já
// escolhido como âncora da negociação.
func msgTradeInAfterSelection(anchor domain.ShownVehicle, model string, year int) string {
	return fmt.Sprintf(
		"Perfeito! Seu %s %d entra na negociação do %s %s %d. "+
			"Me confirma a quilometragem dele pra eu fechar a avaliação?",
		titleCase(model), year,
		titleCase(anchor.Brand), titleCase(anchor.Model), anchor.Year)
}

// msgHandoffSummary monta o resumo para o vendedor humano.
func msgHandoffSummary(p *domain.CustomerProfile) string {
	var parts []string
	if len(p.LastShownVehicles) > 0 {
		v := p.LastShownVehicles[0]
		parts = append(parts, fmt.Sprintf("veículo de interesse: %s %s %d (R$ %s)",
			titleCase(v.Brand), titleCase(v.Model), v.Year, formatPrice(v.Price)))
	}
	if p.HasTradeIn && p.TradeInModel != "" {
		t := fmt.Sprintf("carro na troca: %s", titleCase(p.TradeInModel))
		if p.TradeInYear > 0 {
			t += fmt.Sprintf(" %d", p.TradeInYear)
		}
		if p.TradeInKm > 0 {
			t += fmt.Sprintf(" com %s km", formatThousands(p.TradeInKm))
		}
		parts = append(parts, t)
	}
	if p.WantsFinancing {
		f := "financiamento"
		if p.FinancingDownPayment > 0 {
			f += fmt.Sprintf(" com entrada de R$ %s", formatPrice(p.FinancingDownPayment))
		}
		parts = append(parts, f)
	}
	summary := ""
	if len(parts) > 0 {
		summary = "Resumo: " + strings.Join(parts, "; ") + ".\n\n"
	}
	return summary + msgHandoffClosing
}

// msgSimilarOffer pergunta se o cliente quer ver os similares achados
// no fallback por carroceria.
func msgSimilarOffer(searched string, n int) string {
	return fmt.Sprintf(
		"Não encontrei exatamente %q no estoque, mas tenho %d opções parecidas na mesma categoria. Quer ver?",
		searched, n)
}

// msgAvailabilityListing responde pergunta de disponibilidade com a
// listagem direta da categoria.
func msgAvailabilityListing(category string, recs []domain.Recommendation) string {
	if len(recs) == 0 {
		return fmt.Sprintf("No momento estou sem %s em estoque, mas chega novidade toda semana. "+
			"Quer que eu te avise ou prefere ver outra categoria?", category)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Temos sim! Olha o que tenho de %s hoje:\n\n", category)
	for i, r := range recs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, formatVehicleLine(r.Vehicle))
	}
	b.WriteString("\nAlgum te interessou?")
	return b.String()
}
