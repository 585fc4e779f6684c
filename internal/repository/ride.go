package repository

import (
	"context"

	"starkride/internal/domain"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// GetAllByUserID retrieves a rider's rides, newest first.
	GetAllByUserID(ctx context.Context, userID string) ([]*domain.Ride, error)

	// GetActiveByUserID returns the rider's non-terminal ride, or
	// ErrNotFound.
	GetActiveByUserID(ctx context.Context, userID string) (*domain.Ride, error)

	// GetActiveByDriverID returns the driver's non-terminal ride, or
	// ErrNotFound.
	GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Ride, error)

	// SetStatus moves the ride from one status to another. The previous
	// status is part of the predicate, so a concurrent duplicate call
	// matches no row and returns ErrNotFound.
	SetStatus(ctx context.Context, id string, from, to domain.RideStatus) error

	// MarkCancelled writes the terminal cancel status and the cancel
	// snapshot, only while the ride is still cancellable. ErrNotFound when
	// the ride is already terminal.
	MarkCancelled(ctx context.Context, id string, status domain.RideStatus, details *domain.CancelDetails) error

	// SetUserRating records the rider's rating of the driver for this
	// ride. It applies only while unset; ErrNotFound otherwise.
	SetUserRating(ctx context.Context, id string, rating float64) error

	// SetDriverRating records the driver's rating of the rider for this
	// ride. It applies only while unset; ErrNotFound otherwise.
	SetDriverRating(ctx context.Context, id string, rating float64) error

	// SetCombinedRating stores the ride's combined rating.
	SetCombinedRating(ctx context.Context, id string, rating float64) error
}
