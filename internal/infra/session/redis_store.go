// Package session implements the conversation session store: Redis in
// production, in-memory for dev/tests. One JSON document per
// conversation, TTL-bounded. The caller serializes turns per
// conversation id — the store does no locking.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/garagem/seminovos-assistant-go/internal/domain"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "conversation:"

// RedisStore persists conversation contexts in Redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

// Load fetches the conversation context, or a fresh one when the id is
// unknown (new conversations start at START with an empty profile).
func (s *RedisStore) Load(ctx context.Context, conversationID string) (*domain.ConversationContext, error) {
	data, err := s.client.Get(ctx, keyPrefix+conversationID).Bytes()
	if errors.Is(err, redis.Nil) {
		return newContext(conversationID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var conv domain.ConversationContext
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("unmarshal conversation: %w", err)
	}
	return &conv, nil
}

// Save persists the conversation context, refreshing the TTL.
func (s *RedisStore) Save(ctx context.Context, conv *domain.ConversationContext) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+conv.ConversationID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes the conversation (explicit reset / data deletion).
func (s *RedisStore) Delete(ctx context.Context, conversationID string) error {
	if err := s.client.Del(ctx, keyPrefix+conversationID).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func newContext(conversationID string) *domain.ConversationContext {
	return &domain.ConversationContext{
		ConversationID: conversationID,
		State:          domain.StateStart,
	}
}
