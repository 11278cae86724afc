// Package dialog — service.go é o orquestrador do turno: extração,
// cascata, prontidão, recomendação ou pergunta. ProcessTurn é a ÚNICA
// porta de entrada do core e é TOTAL: nunca propaga erro, sempre
// devolve uma resposta bem-formada.
package dialog

import (
	"context"
	"time"

	"github.com/garagem/seminovos-assistant-go/internal/domain"
	"github.com/garagem/seminovos-assistant-go/internal/infra/observability"
	"github.com/garagem/seminovos-assistant-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("dialog/service")

// Config são os parâmetros de comportamento do core.
type Config struct {
	// MinConfidence descarta extrações abaixo deste limiar.
	MinConfidence float64
	// HistoryWindow limita o histórico enviado ao extrator.
	HistoryWindow int
	// SearchLimit é o limite pedido à capability de busca.
	SearchLimit int
}

// Service é o core de orquestração de diálogo. Dono do estado mutável
// só DURANTE o turno; o que muda volta como delta para o chamador
// persistir.
type Service struct {
	extractor   port.Extractor
	searcher    port.VehicleSearcher
	knowledge   port.KnowledgeAnswerer
	answerCache port.Cache[string]
	metrics     *observability.Metrics
	logger      *zap.Logger
	cfg         Config

	cascade []interceptor
}

// NewService monta o core com todas as dependências injetadas.
func NewService(
	extractor port.Extractor,
	searcher port.VehicleSearcher,
	knowledge port.KnowledgeAnswerer,
	answerCache port.Cache[string],
	metrics *observability.Metrics,
	logger *zap.Logger,
	cfg Config,
) *Service {
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 5
	}
	s := &Service{
		extractor:   extractor,
		searcher:    searcher,
		knowledge:   knowledge,
		answerCache: answerCache,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
	}
	s.cascade = newCascade(s)
	return s
}

// ProcessTurn processa uma mensagem e devolve a resposta do turno.
//
// Total por contrato: pânico em qualquer ponto da cascata vira resposta
// de desculpas com a fase INALTERADA; falha de capability já degrada
// localmente antes de chegar aqui.
func (s *Service) ProcessTurn(ctx context.Context, message string, conv *domain.ConversationContext) (resp *domain.ConversationResponse) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in turn processing, recovered",
				zap.String("conversation_id", conv.ConversationID),
				zap.Any("panic", r),
			)
			s.metrics.IncrRequest("error")
			resp = &domain.ConversationResponse{
				Text:      msgApology,
				NextState: conv.State,
				Meta:      domain.ResponseMeta{Source: "fallback"},
			}
		}
		resp.Meta.LatencyMs = time.Since(start).Milliseconds()
	}()

	ctx, span := tracer.Start(ctx, "Dialog.ProcessTurn")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", conv.ConversationID))

	defer func() {
		s.metrics.RecordRequestDuration("turn", time.Since(start))
	}()

	// Fase absorvente: HANDOFF/END não processam mais nada.
	if conv.State.Terminal() {
		return &domain.ConversationResponse{
			Text:      msgTerminal,
			NextState: conv.State,
			Meta:      domain.ResponseMeta{Source: "terminal"},
		}
	}

	// --- Extração & merge ---
	extraction := s.runExtraction(ctx, message, conv)

	t := &turnState{
		conv:       conv,
		profile:    conv.Profile,
		delta:      &extraction.Delta,
		msg:        message,
		lower:      normalize(message),
		extraction: extraction,
	}
	t.profile.Apply(t.delta)

	// --- Cascata de interceptação: o primeiro que reivindicar, leva ---
	for _, h := range s.cascade {
		hctx, hspan := tracer.Start(ctx, "cascade."+h.name())
		claimed, err := h.intercept(hctx, t)
		hspan.End()
		if err != nil {
			// handlers degradam internamente; erro aqui é bug — loga e
			// segue a cascata em vez de derrubar o turno
			s.logger.Error("cascade handler error",
				zap.String("handler", h.name()),
				zap.Error(err),
			)
			continue
		}
		if claimed != nil {
			s.logger.Debug("turn claimed",
				zap.String("conversation_id", conv.ConversationID),
				zap.String("handler", h.name()),
			)
			s.metrics.IncrCascadeClaim(h.name())
			s.metrics.IncrRequest("success")
			return s.finish(claimed, t, h.name())
		}
	}

	// --- Prontidão: recomendar ou perguntar ---
	verdict := assessReadiness(&t.profile, conv.MessageCount)
	if verdict.CanRecommend {
		return s.recommend(ctx, t, verdict)
	}

	s.metrics.IncrRequest("success")
	return s.finish(&domain.ConversationResponse{
		Text:          askNextQuestion(verdict.Missing, conv.QuestionsAsked),
		MissingFields: verdict.Missing,
		NextState:     nextAskingState(conv.State, conv.QuestionsAsked),
	}, t, "ask_question")
}

// recommend roda o caminho genérico de recomendação.
func (s *Service) recommend(ctx context.Context, t *turnState, verdict readiness) *domain.ConversationResponse {
	query := buildSearchQuery(&t.profile, s.cfg.SearchLimit)
	results, ok := s.runSearch(ctx, query)
	if !ok || len(results) == 0 {
		s.metrics.IncrRequest("success")
		return s.finish(&domain.ConversationResponse{
			Text:          msgNothingFound,
			MissingFields: verdict.Missing,
			NextState:     domain.StateClarification,
		}, t, "recommendation")
	}

	recs := toRecommendations(results, 3)
	t.markShown(recs, "recommendation")
	s.metrics.IncrRequest("success")
	return s.finish(&domain.ConversationResponse{
		Text:            msgRecommendations(recs),
		MissingFields:   verdict.Missing,
		CanRecommend:    true,
		Recommendations: recs,
		NextState:       nextRecommendedState(),
	}, t, "recommendation")
}

// finish anexa o delta acumulado e a metadata a uma resposta.
func (s *Service) finish(resp *domain.ConversationResponse, t *turnState, source string) *domain.ConversationResponse {
	if !t.delta.IsEmpty() {
		resp.Delta = t.delta
	}
	resp.Meta.Source = source
	if t.extraction != nil {
		resp.Meta.Confidence = t.extraction.Confidence
	}
	return resp
}
