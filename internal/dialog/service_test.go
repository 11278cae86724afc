package dialog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/garagem/seminovos-assistant-go/internal/domain"
	"github.com/garagem/seminovos-assistant-go/internal/infra/observability"
	"github.com/garagem/seminovos-assistant-go/internal/port"

	"go.uber.org/zap"
)

var errBoom = errors.New("boom")

func testCtx() context.Context { return context.Background() }

// ============================================================
// Stubs das capabilities
// ============================================================

type stubExtractor struct {
	result    *port.ExtractionResult
	err       error
	fn        func(*port.ExtractionRequest) (*port.ExtractionResult, error)
	explosive bool
}

func (s *stubExtractor) Extract(_ context.Context, req *port.ExtractionRequest) (*port.ExtractionResult, error) {
	if s.explosive {
		panic("extractor exploded")
	}
	if s.fn != nil {
		return s.fn(req)
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &port.ExtractionResult{Confidence: 0.9}, nil
}

type stubSearcher struct {
	results []domain.SearchResult
	err     error
	fn      func(*domain.SearchQuery) ([]domain.SearchResult, error)
	calls   int
	queries []*domain.SearchQuery
}

func (s *stubSearcher) Search(_ context.Context, q *domain.SearchQuery) ([]domain.SearchResult, error) {
	s.calls++
	s.queries = append(s.queries, q)
	if s.fn != nil {
		return s.fn(q)
	}
	return s.results, s.err
}

type stubKnowledge struct {
	answer string
	err    error
	calls  int
}

func (s *stubKnowledge) Answer(_ context.Context, _ *port.KnowledgeRequest) (string, error) {
	s.calls++
	return s.answer, s.err
}

type mapCache struct {
	m map[string]string
}

func newMapCache() *mapCache { return &mapCache{m: map[string]string{}} }

func (c *mapCache) Get(key string) (string, bool) {
	v, ok := c.m[key]
	return v, ok
}
func (c *mapCache) Set(key, value string) { c.m[key] = value }
func (c *mapCache) Delete(key string)     { delete(c.m, key) }

// ============================================================
// Fixtures
// ============================================================

func newTestService(t *testing.T, ext port.Extractor, search port.VehicleSearcher, know port.KnowledgeAnswerer) *Service {
	t.Helper()
	return NewService(ext, search, know, newMapCache(), observability.NewMetrics(), zap.NewNop(), Config{
		MinConfidence: 0.5,
		HistoryWindow: 6,
		SearchLimit:   5,
	})
}

func newConv(id string) *domain.ConversationContext {
	return &domain.ConversationContext{
		ConversationID: id,
		State:          domain.StateStart,
	}
}

func car(id, brand, model string, year int, price float64, body string) domain.SearchResult {
	return domain.SearchResult{
		ID:         id,
		MatchScore: 0.9,
		Vehicle: domain.Vehicle{
			ID: id, Brand: brand, Model: model, Year: year,
			Price: price, BodyType: body, Km: 40000, Seats: 5,
		},
	}
}

func extractionWith(delta domain.ProfileDelta) *stubExtractor {
	return &stubExtractor{result: &port.ExtractionResult{Delta: delta, Confidence: 0.9}}
}

// ============================================================
// Totalidade: terminal, pânico, falha de capability
// ============================================================

func TestProcessTurnTerminalState(t *testing.T) {
	search := &stubSearcher{}
	svc := newTestService(t, &stubExtractor{}, search, &stubKnowledge{})

	conv := newConv("c1")
	conv.State = domain.StateHandoff

	resp := svc.ProcessTurn(testCtx(), "e aí?", conv)
	if resp.Text != msgTerminal {
		t.Errorf("terminal state should answer the fixed terminal message, got %q", resp.Text)
	}
	if resp.NextState != domain.StateHandoff {
		t.Errorf("terminal state must not advance, got %v", resp.NextState)
	}
	if resp.Meta.Source != "terminal" {
		t.Errorf("Meta.Source = %q, want terminal", resp.Meta.Source)
	}
	if resp.Delta != nil {
		t.Error("terminal turn should carry no delta")
	}
	if search.calls != 0 {
		t.Error("terminal turn must not hit the search capability")
	}
}

func TestProcessTurnPanicRecovery(t *testing.T) {
	svc := newTestService(t, &stubExtractor{explosive: true}, &stubSearcher{}, &stubKnowledge{})

	conv := newConv("c1")
	conv.State = domain.StateDiscovery

	resp := svc.ProcessTurn(testCtx(), "quero um carro", conv)
	if resp == nil {
		t.Fatal("ProcessTurn must always return a response")
	}
	if resp.Text != msgApology {
		t.Errorf("panic should degrade to the apology message, got %q", resp.Text)
	}
	if resp.NextState != domain.StateDiscovery {
		t.Errorf("panic must leave the phase unchanged, got %v", resp.NextState)
	}
	if resp.Meta.Source != "fallback" {
		t.Errorf("Meta.Source = %q, want fallback", resp.Meta.Source)
	}
}

func TestProcessTurnExtractionFailureStillAnswers(t *testing.T) {
	svc := newTestService(t, &stubExtractor{err: errBoom}, &stubSearcher{}, &stubKnowledge{})

	resp := svc.ProcessTurn(testCtx(), "oi, boa tarde", newConv("c1"))
	if resp.Meta.Source != "ask_question" {
		t.Errorf("failed extraction should fall through to slot-filling, got source %q", resp.Meta.Source)
	}
	if resp.Meta.Confidence != 0 {
		t.Errorf("confidence should be 0 on extraction failure, got %v", resp.Meta.Confidence)
	}
}

func TestProcessTurnSearchFailureDegrades(t *testing.T) {
	ext := extractionWith(domain.ProfileDelta{Budget: ptr(50000.0), Usage: ptr("city")})
	svc := newTestService(t, ext, &stubSearcher{err: errBoom}, &stubKnowledge{})

	conv := newConv("c1")
	conv.MessageCount = 2

	resp := svc.ProcessTurn(testCtx(), "uso mais na cidade mesmo", conv)
	if resp.Text != msgNothingFound {
		t.Errorf("search failure should degrade to the nothing-found message, got %q", resp.Text)
	}
	if resp.NextState != domain.StateClarification {
		t.Errorf("NextState = %v, want CLARIFICATION", resp.NextState)
	}
}

// ============================================================
// Caminho genérico: perguntar vs recomendar
// ============================================================

func TestProcessTurnAsksWhenProfileIncomplete(t *testing.T) {
	search := &stubSearcher{}
	svc := newTestService(t, &stubExtractor{}, search, &stubKnowledge{})

	conv := newConv("c1")
	conv.MessageCount = 1

	resp := svc.ProcessTurn(testCtx(), "oi, boa tarde", conv)
	if resp.Meta.Source != "ask_question" {
		t.Fatalf("Meta.Source = %q, want ask_question", resp.Meta.Source)
	}
	if len(resp.MissingFields) != 2 || resp.MissingFields[0] != "budget" || resp.MissingFields[1] != "usage" {
		t.Errorf("MissingFields = %v, want [budget usage]", resp.MissingFields)
	}
	if resp.CanRecommend {
		t.Error("incomplete profile must not recommend")
	}
	if resp.NextState != domain.StateDiscovery {
		t.Errorf("NextState = %v, want DISCOVERY", resp.NextState)
	}
	if search.calls != 0 {
		t.Error("asking turn must not hit the search capability")
	}
}

func TestProcessTurnRecommendsWhenReady(t *testing.T) {
	ext := extractionWith(domain.ProfileDelta{Budget: ptr(50000.0), Usage: ptr("city")})
	search := &stubSearcher{results: []domain.SearchResult{
		car("v1", "chevrolet", "onix", 2020, 52000, "hatch"),
		car("v2", "hyundai", "hb20", 2019, 48000, "hatch"),
	}}
	svc := newTestService(t, ext, search, &stubKnowledge{})

	conv := newConv("c1")
	conv.MessageCount = 2

	resp := svc.ProcessTurn(testCtx(), "uns 50 mil, uso na cidade", conv)
	if !resp.CanRecommend || len(resp.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got canRecommend=%v recs=%d", resp.CanRecommend, len(resp.Recommendations))
	}
	if resp.NextState != domain.StateRecommendation {
		t.Errorf("NextState = %v, want RECOMMENDATION", resp.NextState)
	}
	if resp.Meta.Source != "recommendation" {
		t.Errorf("Meta.Source = %q, want recommendation", resp.Meta.Source)
	}

	d := resp.Delta
	if d == nil {
		t.Fatal("recommendation turn must carry a delta")
	}
	if d.RecommendationShown == nil || !*d.RecommendationShown {
		t.Error("delta should flag the recommendation as shown")
	}
	if d.LastSearchType == nil || *d.LastSearchType != "recommendation" {
		t.Error("delta should record the search type")
	}
	if d.LastShownVehicles == nil || len(*d.LastShownVehicles) != 2 {
		t.Error("delta should snapshot the shown vehicles")
	}
	if d.ExcludeVehicleIDs == nil || len(*d.ExcludeVehicleIDs) != 2 {
		t.Error("shown vehicle ids should enter the exclusion list")
	}
}

// ============================================================
// Cascata: troca vs desejado
// ============================================================

func TestProcessTurnTradeInDisambiguation(t *testing.T) {
	// o extrator leu "civic 2010" como carro desejado — o interceptor
	// precisa desfazer isso
	ext := extractionWith(domain.ProfileDelta{Model: ptr("civic"), MinYear: ptr(2010)})
	search := &stubSearcher{results: []domain.SearchResult{
		car("v1", "honda", "civic", 2010, 60000, "sedan"),
	}}
	svc := newTestService(t, ext, search, &stubKnowledge{})

	resp := svc.ProcessTurn(testCtx(), "tenho um civic 2010 e quero uma picape", newConv("c1"))
	if resp.Meta.Source != "trade_in_disambiguation" {
		t.Fatalf("Meta.Source = %q, want trade_in_disambiguation", resp.Meta.Source)
	}
	if search.calls != 0 {
		t.Error("trade-in capture must not trigger a vehicle search")
	}
	if resp.NextState != domain.StateDiscovery {
		t.Errorf("NextState = %v, want DISCOVERY", resp.NextState)
	}

	d := resp.Delta
	if d == nil {
		t.Fatal("expected a delta")
	}
	if d.TradeInModel == nil || *d.TradeInModel != "civic" {
		t.Error("trade-in model should be civic")
	}
	if d.TradeInYear == nil || *d.TradeInYear != 2010 {
		t.Error("trade-in year should be 2010")
	}
	if d.HasTradeIn == nil || !*d.HasTradeIn {
		t.Error("hasTradeIn should be set")
	}
	if d.TradeInMentioned == nil || !*d.TradeInMentioned {
		t.Error("tradeInMentioned should be set")
	}
	// o que o extrator pôs em model/minYear é desfeito com ponteiro-para-zero
	if d.Model == nil || *d.Model != "" {
		t.Error("wanted-car model must be cleared, not left as civic")
	}
	if d.MinYear == nil || *d.MinYear != 0 {
		t.Error("wanted-car minYear must be cleared")
	}
}

func TestProcessTurnTradeInAfterSelection(t *testing.T) {
	svc := newTestService(t, &stubExtractor{}, &stubSearcher{}, &stubKnowledge{})

	conv := newConv("c1")
	conv.State = domain.StateRecommendation
	conv.Profile.RecommendationShown = true
	conv.Profile.LastShownVehicles = []domain.ShownVehicle{
		{ID: "v1", Brand: "chevrolet", Model: "onix", Year: 2020, Price: 52000, BodyType: "hatch"},
	}

	resp := svc.ProcessTurn(testCtx(), "tenho um gol 2015 pra dar na troca", conv)
	if resp.Meta.Source != "trade_in_disambiguation" {
		t.Fatalf("Meta.Source = %q, want trade_in_disambiguation", resp.Meta.Source)
	}
	if resp.NextState != domain.StateNegotiation {
		t.Errorf("NextState = %v, want NEGOTIATION", resp.NextState)
	}
	d := resp.Delta
	if d.AwaitingTradeInDetails == nil || !*d.AwaitingTradeInDetails {
		t.Error("should await the trade-in km")
	}
	// o veículo escolhido continua sendo a âncora
	if d.Model != nil {
		t.Error("post-selection trade-in must not clear the wanted model")
	}
	if !strings.Contains(resp.Text, "Onix") {
		t.Errorf("answer should keep the anchor vehicle, got %q", resp.Text)
	}
}

func TestProcessTurnTradeInKeepsDesiredModel(t *testing.T) {
	// a mesma mensagem cita o carro da troca E o desejado: a captura de
	// troca fica com o primeiro, o desejo do extrator fica de pé
	ext := extractionWith(domain.ProfileDelta{Model: ptr("onix")})
	search := &stubSearcher{}
	svc := newTestService(t, ext, search, &stubKnowledge{})

	resp := svc.ProcessTurn(testCtx(), "tenho um civic 2010 na troca, quero um onix", newConv("c1"))
	if resp.Meta.Source != "trade_in_disambiguation" {
		t.Fatalf("Meta.Source = %q, want trade_in_disambiguation", resp.Meta.Source)
	}
	if search.calls != 0 {
		t.Error("trade-in capture must not trigger a vehicle search")
	}

	d := resp.Delta
	if d.TradeInModel == nil || *d.TradeInModel != "civic" {
		t.Errorf("trade-in model should be the earliest mention civic, got %v", d.TradeInModel)
	}
	if d.TradeInYear == nil || *d.TradeInYear != 2010 {
		t.Error("trade-in year should be 2010")
	}
	if d.Model == nil || *d.Model != "onix" {
		t.Errorf("the wanted onix must survive the trade-in undo, got %v", d.Model)
	}
}

func TestProcessTurnTradeInEchoDoesNotSearch(t *testing.T) {
	// o carro da troca já está registrado; repetir "civic 2010" sem
	// linguagem de troca não pode virar busca exata nem por menção
	search := &stubSearcher{results: []domain.SearchResult{
		car("v1", "honda", "civic", 2010, 60000, "sedan"),
	}}
	svc := newTestService(t, &stubExtractor{}, search, &stubKnowledge{})

	conv := newConv("c1")
	conv.Profile.HasTradeIn = true
	conv.Profile.TradeInMentioned = true
	conv.Profile.TradeInModel = "civic"
	conv.Profile.TradeInYear = 2010
	conv.MessageCount = 1

	resp := svc.ProcessTurn(testCtx(), "é um civic 2010", conv)
	if search.calls != 0 {
		t.Errorf("re-mentioning the trade-in car must not search, got %d calls", search.calls)
	}
	if resp.Meta.Source != "ask_question" {
		t.Errorf("Meta.Source = %q, want the slot-filling path", resp.Meta.Source)
	}
}

// ============================================================
// Cascata: busca exata e anos alternativos
// ============================================================

func TestProcessTurnExactHit(t *testing.T) {
	search := &stubSearcher{results: []domain.SearchResult{
		car("v1", "chevrolet", "onix", 2019, 55000, "hatch"),
		car("v2", "chevrolet", "onix", 2020, 60000, "hatch"),
	}}
	svc := newTestService(t, &stubExtractor{}, search, &stubKnowledge{})

	resp := svc.ProcessTurn(testCtx(), "tem onix 2019?", newConv("c1"))
	if resp.Meta.Source != "exact_search" {
		t.Fatalf("Meta.Source = %q, want exact_search", resp.Meta.Source)
	}
	if !resp.CanRecommend || len(resp.Recommendations) != 1 {
		t.Fatalf("expected exactly the 2019 hit, got %d recs", len(resp.Recommendations))
	}
	if resp.Recommendations[0].Vehicle.Year != 2019 {
		t.Error("exact hit should be the requested year")
	}
	d := resp.Delta
	if d.LastSearchType == nil || *d.LastSearchType != "specific" {
		t.Error("search type should be 'specific'")
	}
	if d.Model == nil || *d.Model != "onix" {
		t.Error("model should be persisted in the profile")
	}
	if resp.NextState != domain.StateRecommendation {
		t.Errorf("NextState = %v, want RECOMMENDATION", resp.NextState)
	}
}

func TestProcessTurnOffersAlternativeYears(t *testing.T) {
	search := &stubSearcher{results: []domain.SearchResult{
		car("v1", "chevrolet", "onix", 2020, 60000, "hatch"),
		car("v2", "chevrolet", "onix", 2018, 48000, "hatch"),
	}}
	svc := newTestService(t, &stubExtractor{}, search, &stubKnowledge{})

	resp := svc.ProcessTurn(testCtx(), "tem onix 2019?", newConv("c1"))
	if resp.Meta.Source != "exact_search" {
		t.Fatalf("Meta.Source = %q, want exact_search", resp.Meta.Source)
	}
	if resp.CanRecommend {
		t.Error("year miss is an offer, not a recommendation")
	}
	if resp.NextState != domain.StateClarification {
		t.Errorf("NextState = %v, want CLARIFICATION", resp.NextState)
	}

	d := resp.Delta
	if d.AwaitingSuggestionAnswer == nil || !*d.AwaitingSuggestionAnswer {
		t.Error("should await the suggestion answer")
	}
	if d.SearchedItem == nil || *d.SearchedItem != "onix 2019" {
		t.Errorf("searchedItem should record the miss, got %v", d.SearchedItem)
	}
	if d.AlternativeYears == nil || len(*d.AlternativeYears) != 2 ||
		(*d.AlternativeYears)[0] != 2018 || (*d.AlternativeYears)[1] != 2020 {
		t.Errorf("alternative years should be sorted [2018 2020], got %v", d.AlternativeYears)
	}
	if !strings.Contains(resp.Text, "2018") || !strings.Contains(resp.Text, "2020") {
		t.Errorf("answer should list the available years, got %q", resp.Text)
	}
}

func TestProcessTurnAlternativeYearPicked(t *testing.T) {
	search := &stubSearcher{results: []domain.SearchResult{
		car("v2", "chevrolet", "onix", 2018, 48000, "hatch"),
	}}
	svc := newTestService(t, &stubExtractor{}, search, &stubKnowledge{})

	conv := newConv("c1")
	conv.State = domain.StateClarification
	conv.Profile.AwaitingSuggestionAnswer = true
	conv.Profile.SearchedItem = "onix 2019"
	conv.Profile.AlternativeYears = []int{2018, 2020}

	resp := svc.ProcessTurn(testCtx(), "pode ser o 2018", conv)
	if resp.Meta.Source != "alternative_year" {
		t.Fatalf("Meta.Source = %q, want alternative_year", resp.Meta.Source)
	}
	if !resp.CanRecommend || len(resp.Recommendations) != 1 {
		t.Fatal("picking an offered year should recommend it")
	}
	d := resp.Delta
	if d.AwaitingSuggestionAnswer == nil || *d.AwaitingSuggestionAnswer {
		t.Error("suggestion flag should be cleared")
	}
	if d.AlternativeYears == nil || len(*d.AlternativeYears) != 0 {
		t.Error("alternative years should be cleared")
	}
	if d.LastSearchType == nil || *d.LastSearchType != "specific" {
		t.Error("search type should be 'specific'")
	}
}

// ============================================================
// Cascata: 7 lugares e sugestão relaxada
// ============================================================

func TestProcessTurnSevenSeatsFailFast(t *testing.T) {
	ext := extractionWith(domain.ProfileDelta{MinSeats: ptr(7)})
	search := &stubSearcher{results: []domain.SearchResult{
		car("v1", "honda", "civic", 2019, 90000, "sedan"),
	}}
	svc := newTestService(t, ext, search, &stubKnowledge{})

	resp := svc.ProcessTurn(testCtx(), "preciso de um carro de 7 lugares", newConv("c1"))
	if resp.Meta.Source != "seat_constraint" {
		t.Fatalf("Meta.Source = %q, want seat_constraint", resp.Meta.Source)
	}
	if resp.CanRecommend {
		t.Error("unmet hard constraint must not recommend")
	}
	d := resp.Delta
	if d.AwaitingSuggestionAnswer == nil || !*d.AwaitingSuggestionAnswer {
		t.Error("should await the relaxation answer")
	}
	if d.SearchedItem == nil || *d.SearchedItem != "7 lugares" {
		t.Errorf("searchedItem = %v, want '7 lugares'", d.SearchedItem)
	}
}

func TestProcessTurnSevenSeatsInStockDeclines(t *testing.T) {
	ext := extractionWith(domain.ProfileDelta{MinSeats: ptr(7)})
	search := &stubSearcher{results: []domain.SearchResult{
		car("v1", "chevrolet", "spin", 2019, 70000, "minivan"),
	}}
	svc := newTestService(t, ext, search, &stubKnowledge{})

	resp := svc.ProcessTurn(testCtx(), "preciso de um carro de 7 lugares", newConv("c1"))
	// tem 7 lugares de verdade: o fail-fast declina e o caminho genérico
	// segue perguntando (perfil ainda sem orçamento/uso)
	if resp.Meta.Source != "ask_question" {
		t.Errorf("Meta.Source = %q, want ask_question", resp.Meta.Source)
	}
}

func TestProcessTurnSuggestionRelaxationAccepted(t *testing.T) {
	search := &stubSearcher{results: []domain.SearchResult{
		car("v1", "jeep", "compass", 2020, 95000, "suv"),
	}}
	svc := newTestService(t, &stubExtractor{}, search, &stubKnowledge{})

	conv := newConv("c1")
	conv.State = domain.StateClarification
	conv.Profile.MinSeats = 7
	conv.Profile.Budget = 100000
	conv.Profile.Usage = "mixed"
	conv.Profile.AwaitingSuggestionAnswer = true
	conv.Profile.SearchedItem = "7 lugares"

	resp := svc.ProcessTurn(testCtx(), "pode ser, bora ver", conv)
	if resp.Meta.Source != "suggestion_answer" {
		t.Fatalf("Meta.Source = %q, want suggestion_answer", resp.Meta.Source)
	}
	if !resp.CanRecommend {
		t.Error("accepting the relaxation should recommend")
	}
	d := resp.Delta
	if d.MinSeats == nil || *d.MinSeats != 0 {
		t.Error("seat constraint should be relaxed to 0")
	}
	if d.BodyType == nil || *d.BodyType != domain.BodySUV {
		t.Error("relaxation should substitute the suv category")
	}
	if d.AwaitingSuggestionAnswer == nil || *d.AwaitingSuggestionAnswer {
		t.Error("suggestion flag should be cleared")
	}
}

func TestProcessTurnSuggestionDeclined(t *testing.T) {
	svc := newTestService(t, &stubExtractor{}, &stubSearcher{}, &stubKnowledge{})

	conv := newConv("c1")
	conv.State = domain.StateClarification
	conv.Profile.AwaitingSuggestionAnswer = true
	conv.Profile.SearchedItem = "7 lugares"
	conv.Profile.MinSeats = 7

	resp := svc.ProcessTurn(testCtx(), "não, deixa pra lá", conv)
	if resp.Meta.Source != "suggestion_answer" {
		t.Fatalf("Meta.Source = %q, want suggestion_answer", resp.Meta.Source)
	}
	if !strings.HasPrefix(resp.Text, "Sem problemas!") {
		t.Errorf("declined suggestion should go back to slot-filling, got %q", resp.Text)
	}
	d := resp.Delta
	if d.AwaitingSuggestionAnswer == nil || *d.AwaitingSuggestionAnswer {
		t.Error("suggestion flag should be cleared")
	}
}

// ============================================================
// Cascata: aprovação de similares
// ============================================================

func TestProcessTurnSimilarApprovalAccepted(t *testing.T) {
	search := &stubSearcher{}
	svc := newTestService(t, &stubExtractor{}, search, &stubKnowledge{})

	conv := newConv("c1")
	conv.State = domain.StateClarification
	conv.Profile.AwaitingSimilarApproval = true
	conv.Profile.PendingSimilarVehicles = []domain.ShownVehicle{
		{ID: "v1", Brand: "fiat", Model: "cronos", Year: 2020, Price: 65000, BodyType: "sedan"},
		{ID: "v2", Brand: "chevrolet", Model: "prisma", Year: 2019, Price: 58000, BodyType: "sedan"},
	}

	resp := svc.ProcessTurn(testCtx(), "sim, quero ver", conv)
	if resp.Meta.Source != "similar_approval" {
		t.Fatalf("Meta.Source = %q, want similar_approval", resp.Meta.Source)
	}
	if !resp.CanRecommend || len(resp.Recommendations) != 2 {
		t.Fatalf("expected the 2 pending candidates, got %d", len(resp.Recommendations))
	}
	// o snapshot vale: os candidatos nunca são re-buscados
	if search.calls != 0 {
		t.Error("approved similars must come from the snapshot, not a new search")
	}
	d := resp.Delta
	if d.AwaitingSimilarApproval == nil || *d.AwaitingSimilarApproval {
		t.Error("approval flag should be cleared")
	}
	if d.LastSearchType == nil || *d.LastSearchType != "similar" {
		t.Error("search type should be 'similar'")
	}
}

func TestProcessTurnSimilarApprovalRejected(t *testing.T) {
	svc := newTestService(t, &stubExtractor{}, &stubSearcher{}, &stubKnowledge{})

	conv := newConv("c1")
	conv.State = domain.StateClarification
	conv.Profile.AwaitingSimilarApproval = true
	conv.Profile.PendingSimilarVehicles = []domain.ShownVehicle{
		{ID: "v1", Brand: "fiat", Model: "cronos", Year: 2020, Price: 65000, BodyType: "sedan"},
	}

	resp := svc.ProcessTurn(testCtx(), "não, valeu", conv)
	// negativa limpa o flag e o turno segue o caminho genérico
	if resp.Meta.Source != "ask_question" {
		t.Errorf("Meta.Source = %q, want ask_question", resp.Meta.Source)
	}
	d := resp.Delta
	if d == nil || d.AwaitingSimilarApproval == nil || *d.AwaitingSimilarApproval {
		t.Error("approval flag should be cleared even when declining the turn")
	}
	if d.PendingSimilarVehicles == nil || len(*d.PendingSimilarVehicles) != 0 {
		t.Error("pending candidates should be discarded")
	}
}

// ============================================================
// Cascata: pós-recomendação
// ============================================================

func postRecoConv() *domain.ConversationContext {
	conv := newConv("c1")
	conv.State = domain.StateRecommendation
	conv.MessageCount = 5
	conv.Profile.Budget = 60000
	conv.Profile.Usage = "city"
	conv.Profile.RecommendationShown = true
	conv.Profile.LastShownVehicles = []domain.ShownVehicle{
		{ID: "v1", Brand: "chevrolet", Model: "onix", Year: 2020, Price: 52000, BodyType: "hatch"},
	}
	conv.Profile.ExcludeVehicleIDs = []string{"v1"}
	return conv
}

func TestProcessTurnFinancingWithKnownTradeInGoesToHandoff(t *testing.T) {
	svc := newTestService(t, &stubExtractor{}, &stubSearcher{}, &stubKnowledge{})

	conv := postRecoConv()
	conv.Profile.HasTradeIn = true
	conv.Profile.TradeInModel = "gol"
	conv.Profile.TradeInYear = 2015

	resp := svc.ProcessTurn(testCtx(), "quero financiar o resto", conv)
	if resp.Meta.Source != "post_recommendation" {
		t.Fatalf("Meta.Source = %q, want post_recommendation", resp.Meta.Source)
	}
	if resp.NextState != domain.StateHandoff {
		t.Errorf("financing with a known trade-in should hand off, got %v", resp.NextState)
	}
	if !strings.Contains(resp.Text, "Resumo") {
		t.Errorf("handoff should carry the summary, got %q", resp.Text)
	}
	d := resp.Delta
	if d.WantsFinancing == nil || !*d.WantsFinancing {
		t.Error("wantsFinancing should be set")
	}
}

func TestProcessTurnFinancingAsksDownPayment(t *testing.T) {
	svc := newTestService(t, &stubExtractor{}, &stubSearcher{}, &stubKnowledge{})

	resp := svc.ProcessTurn(testCtx(), "dá pra financiar?", postRecoConv())
	if resp.Meta.Source != "post_recommendation" {
		t.Fatalf("Meta.Source = %q, want post_recommendation", resp.Meta.Source)
	}
	if resp.Text != msgAskDownPayment {
		t.Errorf("should ask for the down payment, got %q", resp.Text)
	}
	if resp.NextState != domain.StateNegotiation {
		t.Errorf("NextState = %v, want NEGOTIATION", resp.NextState)
	}
	d := resp.Delta
	if d.AwaitingFinancingDetails == nil || !*d.AwaitingFinancingDetails {
		t.Error("should await the down payment")
	}
}

func TestProcessTurnOtherOptionsCheaper(t *testing.T) {
	search := &stubSearcher{results: []domain.SearchResult{
		car("v3", "hyundai", "hb20", 2019, 48000, "hatch"),
		car("v2", "renault", "sandero", 2018, 42000, "hatch"),
	}}
	svc := newTestService(t, &stubExtractor{}, search, &stubKnowledge{})

	resp := svc.ProcessTurn(testCtx(), "tem algo mais barato?", postRecoConv())
	if resp.Meta.Source != "post_recommendation" {
		t.Fatalf("Meta.Source = %q, want post_recommendation", resp.Meta.Source)
	}
	if len(resp.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(resp.Recommendations))
	}
	// "mais barato" reordena ascendente por preço
	if resp.Recommendations[0].Vehicle.Price > resp.Recommendations[1].Vehicle.Price {
		t.Error("cheaper re-search should be sorted ascending by price")
	}

	q := search.queries[0]
	if q.Filters.BudgetMax != 52000 {
		t.Errorf("cheaper re-search should cap at the reference price, got %v", q.Filters.BudgetMax)
	}
	if len(q.Filters.ExcludeIDs) == 0 {
		t.Error("already-shown vehicles should be excluded")
	}
	d := resp.Delta
	if d.LastSearchType == nil || *d.LastSearchType != "similar" {
		t.Error("search type should be 'similar'")
	}
}

func TestProcessTurnScheduleGoesToHandoff(t *testing.T) {
	svc := newTestService(t, &stubExtractor{}, &stubSearcher{}, &stubKnowledge{})

	resp := svc.ProcessTurn(testCtx(), "quero agendar uma visita", postRecoConv())
	if resp.NextState != domain.StateHandoff {
		t.Errorf("schedule request should hand off, got %v", resp.NextState)
	}
}

func TestProcessTurnAcknowledgment(t *testing.T) {
	svc := newTestService(t, &stubExtractor{}, &stubSearcher{}, &stubKnowledge{})

	resp := svc.ProcessTurn(testCtx(), "show, gostei", postRecoConv())
	if resp.Text != msgAckReply {
		t.Errorf("acknowledgment should get the ack reply, got %q", resp.Text)
	}
	if resp.NextState != domain.StateFollowUp {
		t.Errorf("NextState = %v, want FOLLOW_UP", resp.NextState)
	}
}

func TestProcessTurnPostRecoUnrecognizedClearsFlagAndMovesOn(t *testing.T) {
	search := &stubSearcher{results: []domain.SearchResult{
		car("v5", "fiat", "argo", 2021, 58000, "hatch"),
	}}
	svc := newTestService(t, &stubExtractor{}, search, &stubKnowledge{})

	// reação não reconhecida: o flag é limpo e o MESMO turno segue para
	// o caminho genérico (perfil completo → nova recomendação)
	resp := svc.ProcessTurn(testCtx(), "na verdade mudei de ideia", postRecoConv())
	if resp.Meta.Source != "recommendation" {
		t.Errorf("Meta.Source = %q, want recommendation", resp.Meta.Source)
	}
	if !resp.CanRecommend {
		t.Error("generic path should run in the same turn")
	}
}

// ============================================================
// Cascata: detalhes pendentes (troca / financiamento)
// ============================================================

func TestProcessTurnCapturesTradeInDetails(t *testing.T) {
	svc := newTestService(t, &stubExtractor{}, &stubSearcher{}, &stubKnowledge{})

	conv := postRecoConv()
	conv.State = domain.StateNegotiation
	conv.Profile.AwaitingTradeInDetails = true

	resp := svc.ProcessTurn(testCtx(), "é um gol 2015 com 80 mil km", conv)
	if resp.Meta.Source != "awaiting_details" {
		t.Fatalf("Meta.Source = %q, want awaiting_details", resp.Meta.Source)
	}
	if resp.NextState != domain.StateHandoff {
		t.Errorf("captured trade-in should hand off, got %v", resp.NextState)
	}
	d := resp.Delta
	if d.TradeInModel == nil || *d.TradeInModel != "gol" {
		t.Error("trade-in model should be gol")
	}
	if d.TradeInYear == nil || *d.TradeInYear != 2015 {
		t.Error("trade-in year should be 2015")
	}
	if d.TradeInKm == nil || *d.TradeInKm != 80000 {
		t.Errorf("trade-in km should be 80000, got %v", d.TradeInKm)
	}
	if d.AwaitingTradeInDetails == nil || *d.AwaitingTradeInDetails {
		t.Error("awaiting flag should be cleared")
	}
}

func TestProcessTurnCapturesDownPayment(t *testing.T) {
	svc := newTestService(t, &stubExtractor{}, &stubSearcher{}, &stubKnowledge{})

	conv := postRecoConv()
	conv.State = domain.StateNegotiation
	conv.Profile.AwaitingFinancingDetails = true

	resp := svc.ProcessTurn(testCtx(), "posso dar 20 mil de entrada", conv)
	if resp.Meta.Source != "awaiting_details" {
		t.Fatalf("Meta.Source = %q, want awaiting_details", resp.Meta.Source)
	}
	if resp.NextState != domain.StateHandoff {
		t.Errorf("captured down payment should hand off, got %v", resp.NextState)
	}
	d := resp.Delta
	if d.FinancingDownPayment == nil || *d.FinancingDownPayment != 20000 {
		t.Errorf("down payment should be 20000, got %v", d.FinancingDownPayment)
	}
	if d.AwaitingFinancingDetails == nil || *d.AwaitingFinancingDetails {
		t.Error("awaiting flag should be cleared")
	}
}

// ============================================================
// Cascata: menção de marca/modelo e perguntas
// ============================================================

func TestProcessTurnBrandModelMention(t *testing.T) {
	search := &stubSearcher{results: []domain.SearchResult{
		car("v1", "toyota", "corolla", 2020, 110000, "sedan"),
		car("v2", "honda", "civic", 2020, 105000, "sedan"), // fora da menção
	}}
	svc := newTestService(t, &stubExtractor{}, search, &stubKnowledge{})

	resp := svc.ProcessTurn(testCtx(), "queria um corolla", newConv("c1"))
	if resp.Meta.Source != "brand_model_mention" {
		t.Fatalf("Meta.Source = %q, want brand_model_mention", resp.Meta.Source)
	}
	if len(resp.Recommendations) != 1 || resp.Recommendations[0].Vehicle.Model != "corolla" {
		t.Error("post-filter should keep only the mentioned model")
	}
	d := resp.Delta
	if d.Model == nil || *d.Model != "corolla" {
		t.Error("model should be persisted")
	}
	if d.Brand == nil || *d.Brand != "toyota" {
		t.Error("brand should be inferred from the model")
	}
	if d.LastSearchType == nil || *d.LastSearchType != "brand_model" {
		t.Error("search type should be 'brand_model'")
	}
}

func TestProcessTurnKnowledgeQuestionUsesCache(t *testing.T) {
	know := &stubKnowledge{answer: "A garantia é de 90 dias para motor e câmbio."}
	svc := newTestService(t, &stubExtractor{}, &stubSearcher{}, know)

	conv := newConv("c1")
	conv.State = domain.StateDiscovery

	resp := svc.ProcessTurn(testCtx(), "como funciona a garantia?", conv)
	if resp.Meta.Source != "user_question" {
		t.Fatalf("Meta.Source = %q, want user_question", resp.Meta.Source)
	}
	if resp.Text != know.answer {
		t.Errorf("answer should come from the capability, got %q", resp.Text)
	}
	if resp.NextState != domain.StateDiscovery {
		t.Errorf("answering must not advance the funnel, got %v", resp.NextState)
	}

	// segunda vez: mesma pergunta sai do cache
	svc.ProcessTurn(testCtx(), "como funciona a garantia?", conv)
	if know.calls != 1 {
		t.Errorf("second ask should hit the cache, capability called %d times", know.calls)
	}
}

func TestProcessTurnKnowledgeFailureFallsBack(t *testing.T) {
	svc := newTestService(t, &stubExtractor{}, &stubSearcher{}, &stubKnowledge{err: errBoom})

	resp := svc.ProcessTurn(testCtx(), "vocês entregam em outra cidade?", newConv("c1"))
	if resp.Text != msgKnowledgeFallback {
		t.Errorf("knowledge failure should degrade to the fallback, got %q", resp.Text)
	}
}

func TestProcessTurnAvailabilityQuestionListsStock(t *testing.T) {
	search := &stubSearcher{results: []domain.SearchResult{
		car("v1", "jeep", "renegade", 2020, 95000, "suv"),
	}}
	svc := newTestService(t, &stubExtractor{}, search, &stubKnowledge{})

	resp := svc.ProcessTurn(testCtx(), "vocês têm suv disponível?", newConv("c1"))
	if resp.Meta.Source != "user_question" {
		t.Fatalf("Meta.Source = %q, want user_question", resp.Meta.Source)
	}
	if !resp.CanRecommend || len(resp.Recommendations) != 1 {
		t.Error("availability question should answer with the listing")
	}
	if search.queries[0].Filters.BodyType != "suv" {
		t.Errorf("listing should filter by the asked category, got %q", search.queries[0].Filters.BodyType)
	}
}
