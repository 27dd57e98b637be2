package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bimakw/wallet-proxy/internal/infrastructure/clock"
)

// CacheEntry is a stored value with its expiry
type CacheEntry struct {
	Data      []byte
	ExpiresAt time.Time
}

// MemoryStore is an in-process Store. Expired entries are never proactively removed:
// they are overwritten on the next Set or evicted least-recently-used once capacity is reached.
type MemoryStore struct {
	entries *lru.Cache[string, CacheEntry]
	clock   clock.Clock
}

// NewMemoryStore creates a memory store holding at most capacity entries
func NewMemoryStore(capacity int, clk clock.Clock) (*MemoryStore, error) {
	entries, err := lru.New[string, CacheEntry](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory store: %w", err)
	}

	return &MemoryStore{
		entries: entries,
		clock:   clk,
	}, nil
}

// Get retrieves a value if it exists and expires strictly after now
func (s *MemoryStore) Get(ctx context.Context, key string, dest interface{}) error {
	entry, ok := s.entries.Get(key)
	if !ok || !entry.ExpiresAt.After(s.clock.Now()) {
		return ErrCacheMiss
	}

	if err := json.Unmarshal(entry.Data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached value: %w", err)
	}

	return nil
}

// Set stores a value, replacing any previous entry
func (s *MemoryStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	s.entries.Add(key, CacheEntry{
		Data:      data,
		ExpiresAt: s.clock.Now().Add(ttl),
	})

	return nil
}

// Len returns the number of stored entries, expired ones included
func (s *MemoryStore) Len() int {
	return s.entries.Len()
}

// HealthCheck always succeeds for the in-process store
func (s *MemoryStore) HealthCheck(ctx context.Context) error {
	return nil
}
