// Package domain — profile.go define o CustomerProfile, o registro
// cumulativo de tudo que aprendemos sobre o cliente durante a conversa.
//
// ============================================================
// MODELO DE MERGE — escalar sobrescreve, array acumula
// ============================================================
//
// O perfil nunca é substituído inteiro: cada turno produz um
// ProfileDelta (campos parciais) que é aplicado sobre o acumulado.
//
// Regras:
//   - Campos escalares: last-write-wins. Um ponteiro não-nil no delta
//     sobrescreve o valor atual — inclusive com zero, que serve para
//     LIMPAR um campo (ex: desfazer um model capturado errado).
//   - Priorities e DealBreakers: união com deduplicação, preservando
//     a ordem de inserção. Nunca são substituídos.
//   - Control flags (prefixo "_" no JSON): estado transiente da
//     conversa. A camada de extração NUNCA escreve neles — só a
//     cascata de interceptação.
package domain

// Enums aceitos nos campos de perfil. Valores fora dessas listas são
// rejeitados pela camada de sanitização.
const (
	UsageCity  = "city"
	UsageTrip  = "trip"
	UsageWork  = "work"
	UsageMixed = "mixed"

	UsoUber    = "uber"
	UsoFamilia = "family"
	UsoWork    = "work"
	UsoTrip    = "trip"
	UsoOther   = "other"

	UberX       = "x"
	UberComfort = "comfort"
	UberBlack   = "black"

	BodySedan   = "sedan"
	BodySUV     = "suv"
	BodyHatch   = "hatch"
	BodyPickup  = "pickup"
	BodyMinivan = "minivan"
)

// Limites numéricos documentados — a sanitização faz clamp para dentro.
const (
	MinPeople  = 1
	MaxPeople  = 10
	MinSeatsLo = 2
	MinSeatsHi = 9
	YearFloor  = 1950
	YearCeil   = 2025
	MaxKmCeil  = 500000
)

// ============================================================
// CustomerProfile — o acumulado
// ============================================================

// CustomerProfile é o registro parcial e cumulativo do cliente.
// Campos zero significam "ainda não sabemos".
type CustomerProfile struct {
	// Orçamento em reais. Budget é o teto "simples"; BudgetMin/Max
	// formam a faixa quando o cliente dá as duas pontas.
	Budget    float64 `json:"budget,omitempty"`
	BudgetMin float64 `json:"budgetMin,omitempty"`
	BudgetMax float64 `json:"budgetMax,omitempty"`

	// Quantas pessoas andam no carro (1–10) e assentos mínimos (2–9).
	People   int `json:"people,omitempty"`
	MinSeats int `json:"minSeats,omitempty"`

	// Uso: city/trip/work/mixed. UsoPrincipal: uber/family/work/trip/other.
	Usage        string `json:"usage,omitempty"`
	UsoPrincipal string `json:"usoPrincipal,omitempty"`
	TipoUber     string `json:"tipoUber,omitempty"` // x/comfort/black

	BodyType     string `json:"bodyType,omitempty"` // sedan/suv/hatch/pickup/minivan
	MinYear      int    `json:"minYear,omitempty"`  // 1950–2025
	MaxKm        int    `json:"maxKm,omitempty"`    // 0–500000
	Transmission string `json:"transmission,omitempty"`
	FuelType     string `json:"fuelType,omitempty"`
	Color        string `json:"color,omitempty"`
	Brand        string `json:"brand,omitempty"`
	Model        string `json:"model,omitempty"`

	// Conjuntos de tags. Ordem de inserção preservada, sem duplicatas.
	Priorities   []string `json:"priorities,omitempty"`
	DealBreakers []string `json:"dealBreakers,omitempty"`

	// Financiamento
	WantsFinancing       bool    `json:"wantsFinancing,omitempty"`
	FinancingDownPayment float64 `json:"financingDownPayment,omitempty"`

	// Carro na troca
	HasTradeIn   bool   `json:"hasTradeIn,omitempty"`
	TradeInBrand string `json:"tradeInBrand,omitempty"`
	TradeInModel string `json:"tradeInModel,omitempty"`
	TradeInYear  int    `json:"tradeInYear,omitempty"`
	TradeInKm    int    `json:"tradeInKm,omitempty"`

	// ============================================================
	// Control flags — estado transiente da conversa
	// ============================================================

	// AwaitingTradeInDetails: pedimos detalhes do carro na troca
	// (modelo/ano/km) e a próxima mensagem deve ser lida como tal.
	AwaitingTradeInDetails bool `json:"_awaitingTradeInDetails,omitempty"`

	// AwaitingFinancingDetails: pedimos o valor de entrada do
	// financiamento.
	AwaitingFinancingDetails bool `json:"_awaitingFinancingDetails,omitempty"`

	// RecommendationShown: já mostramos pelo menos uma recomendação
	// nesta conversa.
	RecommendationShown bool `json:"_recommendationShown,omitempty"`

	// AwaitingSuggestionAnswer: oferecemos uma alternativa (anos que
	// existem em estoque, categoria de 5 lugares) e esperamos sim/não.
	AwaitingSuggestionAnswer bool `json:"_awaitingSuggestionAnswer,omitempty"`

	// AwaitingSimilarApproval: perguntamos "quer ver similares?" e
	// guardamos a lista candidata em PendingSimilarVehicles.
	AwaitingSimilarApproval bool `json:"_awaitingSimilarApproval,omitempty"`

	// TradeInMentioned: o cliente mencionou carro na troca em algum
	// turno (usado para não reler a menção como busca de compra).
	TradeInMentioned bool `json:"_tradeInMentioned,omitempty"`

	// LastShownVehicles: snapshot imutável dos veículos mostrados na
	// última recomendação. Nunca é re-buscado — só comparado.
	LastShownVehicles []ShownVehicle `json:"_lastShownVehicles,omitempty"`

	// PendingSimilarVehicles: candidatos guardados aguardando o "sim"
	// do cliente (fluxo de aprovação de similares).
	PendingSimilarVehicles []ShownVehicle `json:"_pendingSimilarVehicles,omitempty"`

	// LastSearchType: "specific", "recommendation", "similar",
	// "seven_seats", "brand_model".
	LastSearchType string `json:"_lastSearchType,omitempty"`

	// SearchedItem: texto do item buscado (ex: "onix 2025") quando
	// oferecemos anos alternativos.
	SearchedItem string `json:"_searchedItem,omitempty"`

	// AlternativeYears: anos que existem em estoque para o modelo
	// pedido, oferecidos ao cliente.
	AlternativeYears []int `json:"_alternativeYears,omitempty"`

	// ExcludeVehicleIDs: ids a excluir da próxima busca ("quero ver
	// outras opções" não deve repetir o que já foi mostrado).
	ExcludeVehicleIDs []string `json:"_excludeVehicleIds,omitempty"`
}

// ============================================================
// PendingFlow — os booleans "_awaiting*" colapsados num único valor
// ============================================================

// PendingFlow identifica qual sub-fluxo especial está em andamento.
// Os flags continuam como booleans no perfil (compatibilidade de wire
// com o session store), mas a cascata só os lê por aqui, então a
// exclusão mútua é verificada num lugar só.
type PendingFlow int

const (
	FlowNone PendingFlow = iota
	FlowTradeInDetails
	FlowFinancingDetails
	FlowSimilarApproval
	FlowSuggestionAnswer
)

// PendingFlow retorna o sub-fluxo pendente. Se mais de um flag estiver
// setado (estado inválido que só acontece por bug ou store corrompido),
// vale a mesma precedência da cascata: troca > financiamento >
// similares > sugestão.
func (p *CustomerProfile) PendingFlow() PendingFlow {
	switch {
	case p.AwaitingTradeInDetails:
		return FlowTradeInDetails
	case p.AwaitingFinancingDetails:
		return FlowFinancingDetails
	case p.AwaitingSimilarApproval:
		return FlowSimilarApproval
	case p.AwaitingSuggestionAnswer:
		return FlowSuggestionAnswer
	default:
		return FlowNone
	}
}

// ============================================================
// ProfileDelta — atualização parcial de um turno
// ============================================================

// ProfileDelta é o que cada turno devolve para o chamador persistir.
// Ponteiro nil = "não mexa nesse campo". Ponteiro para zero = "limpe".
// Arrays de tags são SEMPRE união — nunca substituição.
type ProfileDelta struct {
	Budget    *float64 `json:"budget,omitempty"`
	BudgetMin *float64 `json:"budgetMin,omitempty"`
	BudgetMax *float64 `json:"budgetMax,omitempty"`

	People   *int `json:"people,omitempty"`
	MinSeats *int `json:"minSeats,omitempty"`

	Usage        *string `json:"usage,omitempty"`
	UsoPrincipal *string `json:"usoPrincipal,omitempty"`
	TipoUber     *string `json:"tipoUber,omitempty"`

	BodyType     *string `json:"bodyType,omitempty"`
	MinYear      *int    `json:"minYear,omitempty"`
	MaxKm        *int    `json:"maxKm,omitempty"`
	Transmission *string `json:"transmission,omitempty"`
	FuelType     *string `json:"fuelType,omitempty"`
	Color        *string `json:"color,omitempty"`
	Brand        *string `json:"brand,omitempty"`
	Model        *string `json:"model,omitempty"`

	Priorities   []string `json:"priorities,omitempty"`
	DealBreakers []string `json:"dealBreakers,omitempty"`

	WantsFinancing       *bool    `json:"wantsFinancing,omitempty"`
	FinancingDownPayment *float64 `json:"financingDownPayment,omitempty"`

	HasTradeIn   *bool   `json:"hasTradeIn,omitempty"`
	TradeInBrand *string `json:"tradeInBrand,omitempty"`
	TradeInModel *string `json:"tradeInModel,omitempty"`
	TradeInYear  *int    `json:"tradeInYear,omitempty"`
	TradeInKm    *int    `json:"tradeInKm,omitempty"`

	AwaitingTradeInDetails   *bool `json:"_awaitingTradeInDetails,omitempty"`
	AwaitingFinancingDetails *bool `json:"_awaitingFinancingDetails,omitempty"`
	RecommendationShown      *bool `json:"_recommendationShown,omitempty"`
	AwaitingSuggestionAnswer *bool `json:"_awaitingSuggestionAnswer,omitempty"`
	AwaitingSimilarApproval  *bool `json:"_awaitingSimilarApproval,omitempty"`
	TradeInMentioned         *bool `json:"_tradeInMentioned,omitempty"`

	// Listas de controle: substituição atômica (snapshot semantics).
	// Usamos um ponteiro para slice para distinguir "não mexa" (nil)
	// de "substitua por vazio" (&[]).
	LastShownVehicles      *[]ShownVehicle `json:"_lastShownVehicles,omitempty"`
	PendingSimilarVehicles *[]ShownVehicle `json:"_pendingSimilarVehicles,omitempty"`
	LastSearchType         *string         `json:"_lastSearchType,omitempty"`
	SearchedItem           *string         `json:"_searchedItem,omitempty"`
	AlternativeYears       *[]int          `json:"_alternativeYears,omitempty"`
	ExcludeVehicleIDs      *[]string       `json:"_excludeVehicleIds,omitempty"`
}

// IsEmpty diz se o delta não toca em nada.
func (d *ProfileDelta) IsEmpty() bool {
	if d == nil {
		return true
	}
	return d.Budget == nil && d.BudgetMin == nil && d.BudgetMax == nil &&
		d.People == nil && d.MinSeats == nil &&
		d.Usage == nil && d.UsoPrincipal == nil && d.TipoUber == nil &&
		d.BodyType == nil && d.MinYear == nil && d.MaxKm == nil &&
		d.Transmission == nil && d.FuelType == nil && d.Color == nil &&
		d.Brand == nil && d.Model == nil &&
		len(d.Priorities) == 0 && len(d.DealBreakers) == 0 &&
		d.WantsFinancing == nil && d.FinancingDownPayment == nil &&
		d.HasTradeIn == nil && d.TradeInBrand == nil && d.TradeInModel == nil &&
		d.TradeInYear == nil && d.TradeInKm == nil &&
		d.AwaitingTradeInDetails == nil && d.AwaitingFinancingDetails == nil &&
		d.RecommendationShown == nil && d.AwaitingSuggestionAnswer == nil &&
		d.AwaitingSimilarApproval == nil && d.TradeInMentioned == nil &&
		d.LastShownVehicles == nil && d.PendingSimilarVehicles == nil &&
		d.LastSearchType == nil && d.SearchedItem == nil &&
		d.AlternativeYears == nil && d.ExcludeVehicleIDs == nil
}

// Apply aplica o delta sobre o perfil acumulado, seguindo as regras de
// merge do topo do arquivo. É a ÚNICA porta de escrita no perfil.
func (p *CustomerProfile) Apply(d *ProfileDelta) {
	if d == nil {
		return
	}

	// --- Escalares: last-write-wins ---
	if d.Budget != nil {
		p.Budget = *d.Budget
	}
	if d.BudgetMin != nil {
		p.BudgetMin = *d.BudgetMin
	}
	if d.BudgetMax != nil {
		p.BudgetMax = *d.BudgetMax
	}
	if d.People != nil {
		p.People = *d.People
	}
	if d.MinSeats != nil {
		p.MinSeats = *d.MinSeats
	}
	if d.Usage != nil {
		p.Usage = *d.Usage
	}
	if d.UsoPrincipal != nil {
		p.UsoPrincipal = *d.UsoPrincipal
	}
	if d.TipoUber != nil {
		p.TipoUber = *d.TipoUber
	}
	if d.BodyType != nil {
		p.BodyType = *d.BodyType
	}
	if d.MinYear != nil {
		p.MinYear = *d.MinYear
	}
	if d.MaxKm != nil {
		p.MaxKm = *d.MaxKm
	}
	if d.Transmission != nil {
		p.Transmission = *d.Transmission
	}
	if d.FuelType != nil {
		p.FuelType = *d.FuelType
	}
	if d.Color != nil {
		p.Color = *d.Color
	}
	if d.Brand != nil {
		p.Brand = *d.Brand
	}
	if d.Model != nil {
		p.Model = *d.Model
	}
	if d.WantsFinancing != nil {
		p.WantsFinancing = *d.WantsFinancing
	}
	if d.FinancingDownPayment != nil {
		p.FinancingDownPayment = *d.FinancingDownPayment
	}
	if d.HasTradeIn != nil {
		p.HasTradeIn = *d.HasTradeIn
	}
	if d.TradeInBrand != nil {
		p.TradeInBrand = *d.TradeInBrand
	}
	if d.TradeInModel != nil {
		p.TradeInModel = *d.TradeInModel
	}
	if d.TradeInYear != nil {
		p.TradeInYear = *d.TradeInYear
	}
	if d.TradeInKm != nil {
		p.TradeInKm = *d.TradeInKm
	}

	// --- Arrays de tags: união com dedup, ordem de inserção ---
	p.Priorities = UnionTags(p.Priorities, d.Priorities)
	p.DealBreakers = UnionTags(p.DealBreakers, d.DealBreakers)

	// --- Control flags ---
	if d.AwaitingTradeInDetails != nil {
		p.AwaitingTradeInDetails = *d.AwaitingTradeInDetails
	}
	if d.AwaitingFinancingDetails != nil {
		p.AwaitingFinancingDetails = *d.AwaitingFinancingDetails
	}
	if d.RecommendationShown != nil {
		p.RecommendationShown = *d.RecommendationShown
	}
	if d.AwaitingSuggestionAnswer != nil {
		p.AwaitingSuggestionAnswer = *d.AwaitingSuggestionAnswer
	}
	if d.AwaitingSimilarApproval != nil {
		p.AwaitingSimilarApproval = *d.AwaitingSimilarApproval
	}
	if d.TradeInMentioned != nil {
		p.TradeInMentioned = *d.TradeInMentioned
	}
	if d.LastShownVehicles != nil {
		p.LastShownVehicles = *d.LastShownVehicles
	}
	if d.PendingSimilarVehicles != nil {
		p.PendingSimilarVehicles = *d.PendingSimilarVehicles
	}
	if d.LastSearchType != nil {
		p.LastSearchType = *d.LastSearchType
	}
	if d.SearchedItem != nil {
		p.SearchedItem = *d.SearchedItem
	}
	if d.AlternativeYears != nil {
		p.AlternativeYears = *d.AlternativeYears
	}
	if d.ExcludeVehicleIDs != nil {
		p.ExcludeVehicleIDs = *d.ExcludeVehicleIDs
	}
}

// UnionTags une duas listas de tags sem duplicar, preservando a ordem
// de inserção (primeiro os existentes, depois os novos inéditos).
func UnionTags(existing, incoming []string) []string {
	if len(incoming) == 0 {
		return existing
	}
	seen := make(map[string]bool, len(existing)+len(incoming))
	out := make([]string, 0, len(existing)+len(incoming))
	for _, t := range existing {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	for _, t := range incoming {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
