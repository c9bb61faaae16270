package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	txID      uuid.UUID
	expiresAt time.Time
}

// InMemoryIdempotencyStore keeps idempotency keys in process memory.
// Suitable for single-instance deployments and tests; multi-instance
// deployments should use the redis store so retries hitting another
// instance still deduplicate.
type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

// NewInMemoryIdempotencyStore creates a store with the given key TTL
func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

// Get returns the transaction ID recorded for the key, if any
func (s *InMemoryIdempotencyStore) Get(_ context.Context, tenantID uuid.UUID, key string) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[s.compositeKey(tenantID, key)]
	if !ok {
		return uuid.Nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.entries, s.compositeKey(tenantID, key))
		return uuid.Nil, false, nil
	}
	return entry.txID, true, nil
}

// Put records the transaction ID for the key
func (s *InMemoryIdempotencyStore) Put(_ context.Context, tenantID uuid.UUID, key string, txID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Opportunistically drop expired entries so the map doesn't grow
	// without bound between restarts.
	now := time.Now()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}

	s.entries[s.compositeKey(tenantID, key)] = memoryEntry{
		txID:      txID,
		expiresAt: now.Add(s.ttl),
	}
	return nil
}

func (s *InMemoryIdempotencyStore) compositeKey(tenantID uuid.UUID, key string) string {
	return tenantID.String() + ":" + key
}
