package postgres

import (
	"context"
	"database/sql"
	"errors"

	"starkride/internal/domain"
	"starkride/internal/repository"
)

// FareRepository is a PostgreSQL implementation of repository.FareRepository.
type FareRepository struct {
	q Querier
}

// NewFareRepository creates a new PostgreSQL fare repository.
func NewFareRepository(db *sql.DB) *FareRepository {
	return &FareRepository{q: db}
}

const fareColumns = `id, vehicle_type, district, base_fare, base_fare_upto_km, per_km_rate, per_min_rate, min_fare, surge_multiplier`

func scanFare(scan func(dest ...any) error) (*domain.Fare, error) {
	var fare domain.Fare
	if err := scan(
		&fare.ID,
		&fare.VehicleType,
		&fare.District,
		&fare.BaseFare,
		&fare.BaseFareUptoKm,
		&fare.PerKmRate,
		&fare.PerMinRate,
		&fare.MinFare,
		&fare.SurgeMultiplier,
	); err != nil {
		return nil, err
	}
	return &fare, nil
}

// Get retrieves the fare row for an exact (vehicle type, district) pair.
func (r *FareRepository) Get(ctx context.Context, vehicleType domain.VehicleType, district string) (*domain.Fare, error) {
	query := `SELECT ` + fareColumns + ` FROM fares WHERE vehicle_type = $1 AND district = $2`

	fare, err := scanFare(r.q.QueryRowContext(ctx, query, vehicleType, district).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return fare, nil
}

// Create persists a new fare row.
func (r *FareRepository) Create(ctx context.Context, fare *domain.Fare) error {
	query := `
		INSERT INTO fares (id, vehicle_type, district, base_fare, base_fare_upto_km, per_km_rate, per_min_rate, min_fare, surge_multiplier)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.ExecContext(ctx, query,
		fare.ID,
		fare.VehicleType,
		fare.District,
		fare.BaseFare,
		fare.BaseFareUptoKm,
		fare.PerKmRate,
		fare.PerMinRate,
		fare.MinFare,
		fare.SurgeMultiplier,
	)

	return mapInsertError(err)
}

// Update overwrites the pricing fields of an existing row.
func (r *FareRepository) Update(ctx context.Context, fare *domain.Fare) error {
	query := `
		UPDATE fares SET base_fare = $1, base_fare_upto_km = $2, per_km_rate = $3, per_min_rate = $4, min_fare = $5, surge_multiplier = $6
		WHERE vehicle_type = $7 AND district = $8
	`

	result, err := r.q.ExecContext(ctx, query,
		fare.BaseFare,
		fare.BaseFareUptoKm,
		fare.PerKmRate,
		fare.PerMinRate,
		fare.MinFare,
		fare.SurgeMultiplier,
		fare.VehicleType,
		fare.District,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// GetAll retrieves all fare rows.
func (r *FareRepository) GetAll(ctx context.Context) ([]*domain.Fare, error) {
	query := `SELECT ` + fareColumns + ` FROM fares ORDER BY vehicle_type, district`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fares []*domain.Fare
	for rows.Next() {
		fare, err := scanFare(rows.Scan)
		if err != nil {
			return nil, err
		}
		fares = append(fares, fare)
	}
	return fares, rows.Err()
}
