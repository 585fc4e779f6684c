package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"starkride/internal/domain"
	"starkride/internal/repository"
)

// FareCacheTTL bounds how stale a cached fare config can get.
const FareCacheTTL = 5 * time.Minute

const fareCachePrefix = "cache:fare:"

// CachedFareRepository wraps a FareRepository with a read-through Redis
// cache. Fare rows are read on every ride quote and change rarely, so
// they cache well; writes invalidate the affected key.
type CachedFareRepository struct {
	inner  repository.FareRepository
	client *redis.Client
}

// NewCachedFareRepository creates a caching wrapper around inner.
func NewCachedFareRepository(inner repository.FareRepository, client *redis.Client) *CachedFareRepository {
	return &CachedFareRepository{inner: inner, client: client}
}

func fareCacheKey(vehicleType domain.VehicleType, district string) string {
	return fareCachePrefix + string(vehicleType) + ":" + district
}

// Get serves the fare from cache when possible. Cache failures fall
// through to the inner repository.
func (r *CachedFareRepository) Get(ctx context.Context, vehicleType domain.VehicleType, district string) (*domain.Fare, error) {
	key := fareCacheKey(vehicleType, district)

	// Cache misses and Redis failures both fall through to the database.
	if data, err := r.client.Get(ctx, key).Bytes(); err == nil {
		var fare domain.Fare
		if err := json.Unmarshal(data, &fare); err == nil {
			return &fare, nil
		}
	}

	fare, err := r.inner.Get(ctx, vehicleType, district)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(fare); err == nil {
		_ = r.client.Set(ctx, key, data, FareCacheTTL).Err()
	}

	return fare, nil
}

// Create writes through and leaves the cache cold for the new row.
func (r *CachedFareRepository) Create(ctx context.Context, fare *domain.Fare) error {
	return r.inner.Create(ctx, fare)
}

// Update writes through and invalidates the cached row.
func (r *CachedFareRepository) Update(ctx context.Context, fare *domain.Fare) error {
	if err := r.inner.Update(ctx, fare); err != nil {
		return err
	}
	_ = r.client.Del(ctx, fareCacheKey(fare.VehicleType, fare.District)).Err()
	return nil
}

// GetAll always reads the database; the listing is an admin surface.
func (r *CachedFareRepository) GetAll(ctx context.Context) ([]*domain.Fare, error) {
	return r.inner.GetAll(ctx)
}
