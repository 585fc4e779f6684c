package repository

import (
	"context"

	"starkride/internal/domain"
)

// FareRepository defines the persistence operations for fare
// configuration rows. The core reads them; admin CRUD writes them.
type FareRepository interface {
	// Get retrieves the fare row for an exact (vehicle type, district)
	// pair, or ErrNotFound.
	Get(ctx context.Context, vehicleType domain.VehicleType, district string) (*domain.Fare, error)

	// Create persists a new fare row. A (vehicle_type, district) collision
	// returns ErrDuplicateKey.
	Create(ctx context.Context, fare *domain.Fare) error

	// Update overwrites the pricing fields of an existing row.
	Update(ctx context.Context, fare *domain.Fare) error

	// GetAll retrieves all fare rows.
	GetAll(ctx context.Context) ([]*domain.Fare, error)
}
