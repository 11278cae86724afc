package session

import (
	"context"
	"sync"
	"time"

	"github.com/garagem/seminovos-assistant-go/internal/domain"
)

// MemoryStore is the in-memory session store used when REDIS_URL is
// unset (dev, tests). Same TTL semantics as the Redis store.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryEntry
	ttl   time.Duration
}

type memoryEntry struct {
	conv      *domain.ConversationContext
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory store with the given TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryEntry),
		ttl:   ttl,
	}
}

// Load returns the stored context or a fresh one for unknown ids.
func (s *MemoryStore) Load(_ context.Context, conversationID string) (*domain.ConversationContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.items[conversationID]
	if !ok || time.Now().After(e.expiresAt) {
		return newContext(conversationID), nil
	}
	// copy so the caller's turn mutations don't leak into the store
	conv := *e.conv
	return &conv, nil
}

// Save stores a copy of the context, refreshing the TTL.
func (s *MemoryStore) Save(_ context.Context, conv *domain.ConversationContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *conv
	s.items[conv.ConversationID] = memoryEntry{
		conv:      &cp,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

// Delete removes the conversation.
func (s *MemoryStore) Delete(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, conversationID)
	return nil
}
