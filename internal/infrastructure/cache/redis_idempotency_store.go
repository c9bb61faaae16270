package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisIdempotencyStore keeps idempotency keys in Redis so retried
// appends deduplicate across application instances. Keys expire via
// Redis TTL.
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisIdempotencyStore creates a store backed by the given client
func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: ttl}
}

// Get returns the transaction ID recorded for the key, if any
func (s *RedisIdempotencyStore) Get(ctx context.Context, tenantID uuid.UUID, key string) (uuid.UUID, bool, error) {
	val, err := s.client.Get(ctx, s.redisKey(tenantID, key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}

	txID, err := uuid.Parse(val)
	if err != nil {
		// A corrupt value behaves like a miss rather than blocking the append.
		return uuid.Nil, false, nil
	}
	return txID, true, nil
}

// Put records the transaction ID for the key
func (s *RedisIdempotencyStore) Put(ctx context.Context, tenantID uuid.UUID, key string, txID uuid.UUID) error {
	return s.client.Set(ctx, s.redisKey(tenantID, key), txID.String(), s.ttl).Err()
}

func (s *RedisIdempotencyStore) redisKey(tenantID uuid.UUID, key string) string {
	return fmt.Sprintf("ledger:idempotency:%s:%s", tenantID, key)
}
