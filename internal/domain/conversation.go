// Package domain — conversation.go define o contrato de um turno:
// o contexto que entra (ConversationContext), a resposta que sai
// (ConversationResponse) e a fase conversacional (GraphState).
//
// O core é dono do estado mutável só DURANTE o turno. No fim, devolve
// um delta e o chamador persiste. No máximo um turno em voo por
// conversa — a serialização é responsabilidade da camada de entrada.
package domain

import "time"

// ============================================================
// GraphState — fase conversacional do turno
// ============================================================

// GraphState é a fase da conversa. Avança exatamente uma vez por turno.
// HANDOFF e END são absorventes: chegou lá, não há mais processamento
// automático (só reset explícito).
type GraphState string

const (
	StateStart          GraphState = "START"
	StateGreeting       GraphState = "GREETING"
	StateDiscovery      GraphState = "DISCOVERY"
	StateClarification  GraphState = "CLARIFICATION"
	StateSearch         GraphState = "SEARCH"
	StateRecommendation GraphState = "RECOMMENDATION"
	StateNegotiation    GraphState = "NEGOTIATION"
	StateFollowUp       GraphState = "FOLLOW_UP"
	StateHandoff        GraphState = "HANDOFF"
	StateEnd            GraphState = "END"
)

// Terminal diz se a fase é absorvente.
func (s GraphState) Terminal() bool {
	return s == StateHandoff || s == StateEnd
}

// ============================================================
// Mensagens e contexto do turno
// ============================================================

// Message é uma mensagem do histórico da conversa.
type Message struct {
	Role      string    `json:"role"` // "user" ou "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationContext é o pacote read-mostly que o chamador entrega a
// cada turno. O core não guarda referência além do turno.
type ConversationContext struct {
	ConversationID string          `json:"conversation_id"`
	State          GraphState      `json:"state"`
	Profile        CustomerProfile `json:"profile"`
	History        []Message       `json:"history,omitempty"`

	// MessageCount conta mensagens DO USUÁRIO (não do assistente).
	// É a base das regras de prontidão (≥5 parcial, ≥8 anti-stall).
	MessageCount   int `json:"message_count"`
	QuestionsAsked int `json:"questions_asked"`
}

// ============================================================
// ConversationResponse — contrato de saída de TODO caminho
// ============================================================

// Recommendation é um item ranqueado devolvido ao cliente.
type Recommendation struct {
	Vehicle    Vehicle `json:"vehicle"`
	MatchScore float64 `json:"matchScore"`
	Reason     string  `json:"reason,omitempty"`
}

// ResponseMeta é a metadata de processamento do turno.
type ResponseMeta struct {
	Confidence float64 `json:"confidence"`
	LatencyMs  int64   `json:"latencyMs"`
	// Source identifica quem produziu o texto: nome do handler da
	// cascata, "recommendation", "question", "fallback"...
	Source string `json:"source"`
}

// ConversationResponse é o que TODO caminho do core devolve.
type ConversationResponse struct {
	Text            string           `json:"text"`
	Delta           *ProfileDelta    `json:"delta,omitempty"`
	MissingFields   []string         `json:"missingFields,omitempty"`
	CanRecommend    bool             `json:"canRecommend"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	NextState       GraphState       `json:"nextState"`
	Meta            ResponseMeta     `json:"meta"`
}
