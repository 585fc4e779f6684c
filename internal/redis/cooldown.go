// Package redis holds the Redis-backed stores: the recharge cooldown
// window and the fare config cache.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// CooldownStore rate-limits actions across instances with SET NX keys
// that expire on their own.
type CooldownStore struct {
	client *redis.Client
}

// NewCooldownStore creates a new CooldownStore.
func NewCooldownStore(client *redis.Client) *CooldownStore {
	return &CooldownStore{client: client}
}

// Acquire claims the key for ttl. Returns false while a previous claim
// is still live.
func (s *CooldownStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, "cooldown:"+key, "1", ttl).Result()
}
