// Package nlu implements the extraction and knowledge capabilities on
// top of an LLM, as an alternative to the dedicated HTTP services
// (NLU_PROVIDER=openai). The dialog core sees the same ports either way.
package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/garagem/seminovos-assistant-go/internal/port"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

const extractionSystemPrompt = `Você extrai preferências de compra de carro de mensagens em português.
Responda SOMENTE com JSON válido no formato:
{"extracted": {...campos do perfil...}, "confidence": 0.0-1.0, "reasoning": "...", "fieldsExtracted": ["..."]}
Campos possíveis: budget, budgetMin, budgetMax, people, minSeats, usage (city/trip/work/mixed),
usoPrincipal (uber/family/work/trip/other), tipoUber (x/comfort/black),
bodyType (sedan/suv/hatch/pickup/minivan), minYear, maxKm, transmission, fuelType, color,
brand, model, priorities, dealBreakers, wantsFinancing, financingDownPayment,
hasTradeIn, tradeInBrand, tradeInModel, tradeInYear, tradeInKm.
Inclua apenas campos que a mensagem realmente informa. Nunca invente valores.`

const knowledgeSystemPrompt = `Você é um vendedor experiente de carros seminovos no Brasil.
Responda a pergunta do cliente de forma curta, honesta e simpática, em português.
Se não souber, diga que o vendedor humano pode confirmar.`

// LLM is the subset of the langchaingo model interface we use.
// Narrowed for test fakes.
type LLM interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Client implements port.Extractor and port.KnowledgeAnswerer over an LLM.
type Client struct {
	llm    LLM
	logger *zap.Logger
}

// New creates the LLM-backed NLU client with an OpenAI-compatible model.
func New(apiKey, model string, logger *zap.Logger) (*Client, error) {
	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("init llm: %w", err)
	}
	return &Client{llm: llm, logger: logger}, nil
}

// NewWithLLM injects a ready model (used by tests).
func NewWithLLM(llm LLM, logger *zap.Logger) *Client {
	return &Client{llm: llm, logger: logger}
}

// Extract asks the LLM for a candidate partial profile. Malformed
// output fails closed: empty delta, confidence 0, nil error — the core
// must never see an extraction crash.
func (c *Client) Extract(ctx context.Context, req *port.ExtractionRequest) (*port.ExtractionResult, error) {
	var b strings.Builder
	for _, m := range req.History {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	profileJSON, _ := json.Marshal(req.Profile)
	user := fmt.Sprintf("Perfil atual: %s\nHistórico:\n%sMensagem: %s",
		profileJSON, b.String(), req.Message)

	resp, err := c.llm.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, extractionSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}, llms.WithTemperature(0), llms.WithJSONMode())
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return &port.ExtractionResult{}, nil
	}

	var result port.ExtractionResult
	raw := stripFences(resp.Choices[0].Content)
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		c.logger.Warn("llm extraction returned malformed json, failing closed",
			zap.Error(err),
		)
		return &port.ExtractionResult{}, nil
	}
	return &result, nil
}

// Answer asks the LLM the customer's question with vehicle context.
func (c *Client) Answer(ctx context.Context, req *port.KnowledgeRequest) (string, error) {
	vehiclesJSON, _ := json.Marshal(req.Vehicles)
	user := fmt.Sprintf("Contexto do cliente: %s\nVeículos em pauta: %s\nPergunta: %s",
		req.Summary, vehiclesJSON, req.Question)

	resp, err := c.llm.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, knowledgeSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}, llms.WithTemperature(0.4))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

// stripFences removes markdown code fences some models insist on.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
