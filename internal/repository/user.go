package repository

import (
	"context"

	"starkride/internal/domain"
)

// UserRepository defines the persistence operations for riders.
type UserRepository interface {
	// Create adds a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// IncrementPendingRides bumps pending_rides by one.
	IncrementPendingRides(ctx context.Context, id string) error

	// ApplyCompletionStats bumps total_rides and decrements pending_rides
	// floored at zero.
	ApplyCompletionStats(ctx context.Context, id string) error

	// ApplyCancellationStats bumps cancel_rides and decrements
	// pending_rides floored at zero.
	ApplyCancellationStats(ctx context.Context, id string) error

	// ApplyRating folds one new rating into the user's running average
	// and bumps the rating count, in one statement.
	ApplyRating(ctx context.Context, id string, rating float64) error
}
