// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the dialog core
// from concrete implementations: the NLU capability, the vehicle search
// capability, the knowledge answerer and the session store are all
// external collaborators — the core only sees these contracts.
package port

import (
	"context"

	"github.com/garagem/seminovos-assistant-go/internal/domain"
)

// ExtractionRequest is the input to the NLU extraction capability.
type ExtractionRequest struct {
	Message string                 `json:"message"`
	Profile domain.CustomerProfile `json:"profile"`
	// History is a short window of recent messages, optional context
	// for the extractor. The recency window size is configuration.
	History []domain.Message `json:"history,omitempty"`
}

// ExtractionResult is what the NLU capability returns. On parse error
// the capability must fail closed: empty delta, confidence 0.
type ExtractionResult struct {
	Delta           domain.ProfileDelta `json:"extracted"`
	Confidence      float64             `json:"confidence"`
	Reasoning       string              `json:"reasoning,omitempty"`
	FieldsExtracted []string            `json:"fieldsExtracted,omitempty"`
}

// Extractor turns free text into a candidate partial profile.
type Extractor interface {
	Extract(ctx context.Context, req *ExtractionRequest) (*ExtractionResult, error)
}

// VehicleSearcher runs a structured query against the inventory and
// returns a ranked list, best first.
type VehicleSearcher interface {
	Search(ctx context.Context, query *domain.SearchQuery) ([]domain.SearchResult, error)
}

// KnowledgeRequest is the input to the knowledge-answering capability.
type KnowledgeRequest struct {
	Question string           `json:"question"`
	Vehicles []domain.Vehicle `json:"vehicles,omitempty"`
	Summary  string           `json:"summary,omitempty"`
}

// KnowledgeAnswerer answers free-form customer questions.
type KnowledgeAnswerer interface {
	Answer(ctx context.Context, req *KnowledgeRequest) (string, error)
}

// SessionStore persists conversation state between turns. The core
// itself never calls it — the entry points (HTTP handler, NATS
// transport) load before and save after each turn. At-most-one turn in
// flight per conversation id is the caller's responsibility.
type SessionStore interface {
	Load(ctx context.Context, conversationID string) (*domain.ConversationContext, error)
	Save(ctx context.Context, conv *domain.ConversationContext) error
	Delete(ctx context.Context, conversationID string) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
