package repository

import (
	"context"
	"time"

	"starkride/internal/domain"
)

// RideRequestRepository defines the persistence operations for ride
// request claims. Claim, Finalize and Release are conditional updates;
// at most one concurrent Claim call per request observes a matched row.
type RideRequestRepository interface {
	// Create persists a new request. A unique_ride_key collision returns
	// ErrDuplicateKey.
	Create(ctx context.Context, req *domain.RideRequest) error

	// GetByID retrieves a request by id.
	GetByID(ctx context.Context, id string) (*domain.RideRequest, error)

	// GetByKey retrieves a request by its unique ride key.
	GetByKey(ctx context.Context, uniqueRideKey string) (*domain.RideRequest, error)

	// FindActiveByUser returns the rider's pending or locked request whose
	// claim window is still open, or ErrNotFound.
	FindActiveByUser(ctx context.Context, userID string, now time.Time) (*domain.RideRequest, error)

	// Claim atomically moves pending→locked and stamps the driver, only
	// while the request is unexpired. Exactly one concurrent caller gets
	// the updated request back; all others get ErrNotFound.
	Claim(ctx context.Context, uniqueRideKey, driverID string, now time.Time) (*domain.RideRequest, error)

	// Finalize moves locked→assigned. ErrNotFound when the request is not
	// locked.
	Finalize(ctx context.Context, id string) error

	// Release moves locked→pending and clears the accepted driver, making
	// the request claimable again within its window.
	Release(ctx context.Context, id string) error

	// Expire moves the rider's pending request to expired. A request that
	// is already locked or assigned is left untouched; that is not an
	// error.
	Expire(ctx context.Context, uniqueRideKey, userID string) error
}
