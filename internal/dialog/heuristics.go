// Package dialog — heuristics.go isola os classificadores heurísticos
// de regex/keyword num conjunto de funções puras.
//
// ============================================================
// POR QUE FUNÇÕES PURAS
// ============================================================
//
// Essas heurísticas são a parte mais sensível a comportamento de toda
// a cascata: "150 mil km" vs "150 mil de entrada" muda o destino do
// turno inteiro. Mantê-las puras (string → resultado, sem estado)
// permite testá-las isoladamente, no mesmo espírito do detectIntent
// por keywords que roteia o restante do assistente.
//
// Todas recebem a mensagem JÁ normalizada (minúscula, trim) — o
// chamador normaliza uma vez por turno.
package dialog

import (
	"regexp"
	"strconv"
	"strings"
)

// yearRe captura anos plausíveis de veículo (1950–2029; o clamp fino
// fica na sanitização).
var yearRe = regexp.MustCompile(`\b(19[5-9]\d|20[0-2]\d)\b`)

// kmRe exige marcador de unidade: é o que separa "150 mil km" (odômetro)
// de "150 mil" (entrada de financiamento).
var kmRe = regexp.MustCompile(`\b(\d+(?:[.,]\d+)?)\s*(mil\s*)?(km|quilometros|quilômetros|rodados)\b`)

// moneyRe captura valores em reais: "r$ 30.000", "30 mil", "30k", "30000".
var moneyRe = regexp.MustCompile(`(?:r\$\s*)?\b(\d+(?:[.,]\d+)?)\s*(mil|k)?\b`)

// normalize rebaixa e apara a mensagem. Chamado uma vez por turno.
func normalize(msg string) string {
	return strings.ToLower(strings.TrimSpace(msg))
}

// containsAny diz se alguma das keywords aparece na mensagem.
func containsAny(lower string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// containsWord procura a palavra com fronteira (evita "ka" casar com
// "kadett" ou "up" com "supra").
func containsWord(lower, word string) bool {
	return wordIndex(lower, word) >= 0
}

// wordIndex devolve a posição da primeira ocorrência da palavra com
// fronteira, ou -1. A posição importa: quando a mensagem cita dois
// carros ("tenho um civic, quero um onix"), quem aparece primeiro
// decide a detecção.
func wordIndex(lower, word string) int {
	idx := 0
	for {
		i := strings.Index(lower[idx:], word)
		if i < 0 {
			return -1
		}
		start := idx + i
		end := start + len(word)
		leftOK := start == 0 || !isWordRune(rune(lower[start-1]))
		rightOK := end == len(lower) || !isWordRune(rune(lower[end]))
		if leftOK && rightOK {
			return start
		}
		idx = start + 1
	}
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-'
}

// ============================================================
// Detecção de modelo + ano
// ============================================================

// detectModel devolve o modelo conhecido que aparece mais cedo na
// mensagem (empate: nome mais longo), ou "". Varrer o map e devolver
// qualquer match tornaria a resposta aleatória quando a mensagem cita
// dois modelos — e "tenho um civic, quero um onix" cita dois.
func detectModel(lower string) string {
	best, bestIdx := "", -1
	for model := range knownModels {
		idx := wordIndex(lower, model)
		if idx < 0 {
			continue
		}
		if bestIdx < 0 || idx < bestIdx || (idx == bestIdx && len(model) > len(best)) {
			best, bestIdx = model, idx
		}
	}
	return best
}

// detectBrand devolve a marca conhecida que aparece mais cedo na
// mensagem, ou "". Mesmo critério posicional do detectModel.
func detectBrand(lower string) string {
	best, bestIdx := "", -1
	for brand := range knownBrands {
		idx := wordIndex(lower, brand)
		if idx < 0 {
			continue
		}
		if bestIdx < 0 || idx < bestIdx || (idx == bestIdx && len(brand) > len(best)) {
			best, bestIdx = brand, idx
		}
	}
	return best
}

// detectBodyType devolve a carroceria mencionada, ou "".
func detectBodyType(lower string) string {
	switch {
	case containsAny(lower, "picape", "pickup", "caminhonete"):
		return "pickup"
	case containsWord(lower, "suv"):
		return "suv"
	case containsAny(lower, "sedan", "sedã"):
		return "sedan"
	case containsWord(lower, "hatch"):
		return "hatch"
	case containsWord(lower, "minivan"):
		return "minivan"
	}
	return ""
}

// detectModelYear detecta o padrão "modelo + ano" ("onix 2019",
// "tenho um civic 2010"). Modelo e ano não precisam ser adjacentes —
// basta ambos aparecerem na mensagem.
func detectModelYear(lower string) (model string, year int, ok bool) {
	model = detectModel(lower)
	if model == "" {
		return "", 0, false
	}
	m := yearRe.FindString(lower)
	if m == "" {
		return "", 0, false
	}
	year, _ = strconv.Atoi(m)
	return model, year, true
}

// detectYear devolve o primeiro ano plausível da mensagem, ou 0.
func detectYear(lower string) int {
	m := yearRe.FindString(lower)
	if m == "" {
		return 0
	}
	y, _ := strconv.Atoi(m)
	return y
}

// ============================================================
// Intenções por keyword
// ============================================================

// hasTradeInLanguage detecta linguagem de "carro na troca": o cliente
// está falando do carro ATUAL dele, não do que quer comprar.
func hasTradeInLanguage(lower string) bool {
	return containsAny(lower,
		"tenho um", "tenho uma", "meu carro", "meu atual",
		"na troca", "dar na troca", "de entrada o meu", "trocar o meu",
		"possuo um", "possuo uma",
		// clientes escrevem em inglês com frequência suficiente
		"trade-in", "trade in", "i have a", "my car",
	)
}

// mentionsFinancing detecta intenção de financiamento.
func mentionsFinancing(lower string) bool {
	return containsAny(lower,
		"financi", "parcel", "prestaç", "prestac", "a prazo",
		"entrada de", "de entrada", "finance", "financing",
	)
}

// isQuestion detecta frase interrogativa.
func isQuestion(lower string) bool {
	if strings.Contains(lower, "?") {
		return true
	}
	for _, w := range []string{
		"qual", "quais", "quanto", "quantos", "quantas",
		"como", "onde", "quando", "por que", "porque", "o que",
	} {
		if strings.HasPrefix(lower, w+" ") {
			return true
		}
	}
	return false
}

// isAvailabilityQuestion detecta pergunta de disponibilidade: precisa
// de uma palavra de disponibilidade E uma palavra de categoria de
// veículo. "Vocês têm SUV automático?" → sim. "Como funciona a
// garantia?" → não.
func isAvailabilityQuestion(lower string) bool {
	availability := containsAny(lower,
		"tem ", "têm", "vocês tem", "voces tem", "disponível",
		"disponivel", "estoque", "vende", "trabalham com", "chegou",
	)
	if !availability {
		return false
	}
	return detectBodyType(lower) != "" || detectBrand(lower) != "" ||
		containsAny(lower, "7 lugares", "sete lugares", "automático", "automatico", "carro")
}

// isNegative detecta resposta negativa. Avaliar SEMPRE antes de
// isAffirmative: "não quero" contém "quero".
func isNegative(lower string) bool {
	for _, w := range []string{"nao", "nope", "negativo"} {
		if containsWord(lower, w) {
			return true
		}
	}
	return containsAny(lower,
		"não", "dispenso", "deixa pra", "deixa para",
		"prefiro outro", "melhor não", "melhor nao",
	)
}

// isAffirmative detecta resposta afirmativa. Tokens curtos ("sim",
// "ok") exigem fronteira de palavra para não casar dentro de outras.
func isAffirmative(lower string) bool {
	for _, w := range []string{"sim", "ok", "isso", "quero", "claro", "yes", "bora", "manda", "aceito", "beleza"} {
		if containsWord(lower, w) {
			return true
		}
	}
	return containsAny(lower,
		"pode ser", "pode mostrar", "com certeza", "por favor", "gostaria",
	)
}

// isAcknowledgment detecta agradecimento/validação sem pergunta nova.
func isAcknowledgment(lower string) bool {
	return containsAny(lower,
		"obrigado", "obrigada", "valeu", "legal", "show", "top",
		"perfeito", "gostei", "massa", "bacana", "adorei", "ótimo", "otimo",
	)
}

// wantsOtherOptions detecta "quero ver outras opções".
func wantsOtherOptions(lower string) bool {
	return containsAny(lower,
		"outras opções", "outras opcoes", "outra opção", "outra opcao",
		"mais opções", "mais opcoes", "outros carros", "outro carro",
		"que mais", "mostrar mais", "ver mais", "mostra outros",
	)
}

// wantsCheaper / wantsPricier deslocam a faixa de preço da re-busca.
func wantsCheaper(lower string) bool {
	return containsAny(lower,
		"mais barato", "mais barata", "mais em conta", "menor valor",
		"mais acessível", "mais acessivel", "abaixo disso",
	)
}

func wantsPricier(lower string) bool {
	return containsAny(lower,
		"mais caro", "mais cara", "mais completo", "mais top", "acima disso",
	)
}

// wantsSchedule detecta pedido de visita/vendedor/test drive.
func wantsSchedule(lower string) bool {
	return containsAny(lower,
		"agendar", "agenda", "visita", "test drive", "test-drive",
		"ver o carro", "ver pessoalmente", "falar com", "vendedor",
		"atendente", "whatsapp", "telefone", "fechar negócio", "fechar negocio",
	)
}

// ============================================================
// Parsers numéricos
// ============================================================

// parseKm extrai quilometragem. EXIGE marcador de unidade (km,
// rodados): sem isso, um número solto pode ser valor de entrada.
func parseKm(lower string) (int, bool) {
	m := kmRe.FindStringSubmatch(lower)
	if m == nil {
		return 0, false
	}
	val := parseNumber(m[1])
	if m[2] != "" { // "150 mil km"
		val *= 1000
	}
	if val <= 0 {
		return 0, false
	}
	return int(val), true
}

// parseMoney extrai um valor em reais ("30 mil", "r$ 30.000", "30k").
// Recusa números seguidos de marcador de km — esses são odômetro.
func parseMoney(lower string) (float64, bool) {
	if _, isKm := parseKm(lower); isKm {
		// a mensagem fala de quilometragem; só aceitamos dinheiro se
		// houver um segundo número claramente monetário
		if !containsAny(lower, "r$", "reais", "entrada") {
			return 0, false
		}
	}
	for _, m := range moneyRe.FindAllStringSubmatch(lower, -1) {
		val := parseNumber(m[1])
		if m[2] != "" { // "30 mil" / "30k"
			val *= 1000
		}
		// descarta anos e números pequenos demais para serem dinheiro
		if val >= 1000 && !(val >= 1950 && val <= 2029 && m[2] == "") {
			return val, true
		}
	}
	return 0, false
}

// parseNumber lê "30", "30.000", "30,5".
func parseNumber(s string) float64 {
	// "30.000" é separador de milhar pt-BR; "30,5" é decimal
	if strings.Count(s, ".") > 0 && len(s)-strings.LastIndex(s, ".") == 4 {
		s = strings.ReplaceAll(s, ".", "")
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// yearFromList devolve o ano da mensagem que esteja na lista oferecida.
func yearFromList(lower string, offered []int) (int, bool) {
	for _, m := range yearRe.FindAllString(lower, -1) {
		y, _ := strconv.Atoi(m)
		for _, o := range offered {
			if y == o {
				return y, true
			}
		}
	}
	return 0, false
}
