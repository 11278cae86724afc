// Package cache implements the in-process TTL cache the dialog core
// uses for knowledge answers. Keys are normalized customer questions;
// the entries are global, not per conversation, so a popular question
// ("qual a garantia?") costs one capability call per TTL window.
package cache

import (
	"sync"
	"time"
)

type item[T any] struct {
	val T
	exp time.Time
}

// Store is a concurrency-safe TTL cache. Expired entries are invisible
// to Get immediately and reclaimed by a background sweep.
type Store[T any] struct {
	mu    sync.RWMutex
	items map[string]item[T]
	ttl   time.Duration
}

// New builds a Store and starts its sweep goroutine.
func New[T any](ttl time.Duration) *Store[T] {
	s := &Store[T]{
		items: make(map[string]item[T]),
		ttl:   ttl,
	}
	go s.sweep()
	return s
}

// Get returns the cached value, or false when absent or expired.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[key]
	if !ok || time.Now().After(it.exp) {
		var zero T
		return zero, false
	}
	return it.val, true
}

// Set stores value under key for the configured TTL.
func (s *Store[T]) Set(key string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = item[T]{val: value, exp: time.Now().Add(s.ttl)}
}

// Delete drops key if present.
func (s *Store[T]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
}

// sweep reclaims expired entries once per TTL so the map does not grow
// with questions nobody asks twice.
func (s *Store[T]) sweep() {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		s.mu.Lock()
		for k, it := range s.items {
			if now.After(it.exp) {
				delete(s.items, k)
			}
		}
		s.mu.Unlock()
	}
}
