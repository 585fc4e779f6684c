package repository

import (
	"context"

	"starkride/internal/domain"
)

// DriverRepository defines the persistence operations for drivers. All
// aggregate mutations are single conditional statements so concurrent
// duplicate calls stay safe (pending_rides floors at zero).
type DriverRepository interface {
	// Create adds a new driver.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// UpdateStatus updates the driver's availability status.
	UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error

	// IncrementPendingRides bumps pending_rides by one.
	IncrementPendingRides(ctx context.Context, id string) error

	// ApplyCompletionStats settles a completed ride: totalEarning and
	// totalShare grow by the ride amounts, totalRides by one, and
	// pending_rides decrements floored at zero.
	ApplyCompletionStats(ctx context.Context, id string, totalFare, platformShare int64) error

	// ApplyCancellationStats settles a cancelled ride with the fare
	// recomputed at cancel time: cancel_rides grows by one, pending_rides
	// decrements floored at zero.
	ApplyCancellationStats(ctx context.Context, id string, totalFare, platformShare int64) error

	// ApplyDeferredSuspension flips is_approved off and clears the
	// pending_suspension flag in one statement. It reports whether a
	// suspension was actually applied.
	ApplyDeferredSuspension(ctx context.Context, id string) (bool, error)

	// ApplyRating folds one new rating into the driver's running average
	// and bumps the rating count, in one statement.
	ApplyRating(ctx context.Context, id string, rating float64) error
}
