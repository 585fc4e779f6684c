package postgres

import (
	"context"
	"database/sql"
	"errors"

	"starkride/internal/domain"
	"starkride/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of
// repository.DriverRepository. Aggregate mutations are single statements
// with in-database arithmetic so concurrent duplicate calls stay safe.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

// Create adds a new driver.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `
		INSERT INTO drivers (
			id, name, vehicle_type, status, is_approved, pending_suspension,
			ratings, total_ratings, total_earning, total_share, total_rides, pending_rides, cancel_rides
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.q.ExecContext(ctx, query,
		driver.ID,
		driver.Name,
		driver.VehicleType,
		driver.Status,
		driver.IsApproved,
		driver.PendingSuspension,
		driver.Ratings,
		driver.TotalRatings,
		driver.TotalEarning,
		driver.TotalShare,
		driver.TotalRides,
		driver.PendingRides,
		driver.CancelRides,
	)

	return mapInsertError(err)
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `
		SELECT id, COALESCE(name, ''), vehicle_type, status, is_approved, pending_suspension,
			ratings, total_ratings, total_earning, total_share, total_rides, pending_rides, cancel_rides
		FROM drivers WHERE id = $1
	`

	var driver domain.Driver
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&driver.ID,
		&driver.Name,
		&driver.VehicleType,
		&driver.Status,
		&driver.IsApproved,
		&driver.PendingSuspension,
		&driver.Ratings,
		&driver.TotalRatings,
		&driver.TotalEarning,
		&driver.TotalShare,
		&driver.TotalRides,
		&driver.PendingRides,
		&driver.CancelRides,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &driver, nil
}

// UpdateStatus updates the driver's availability status.
func (r *DriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	query := `UPDATE drivers SET status = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, status, id)
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

// IncrementPendingRides bumps pending_rides by one.
func (r *DriverRepository) IncrementPendingRides(ctx context.Context, id string) error {
	query := `UPDATE drivers SET pending_rides = pending_rides + 1 WHERE id = $1`
	return r.execExpectingRow(ctx, query, id)
}

// ApplyCompletionStats settles a completed ride into the aggregates.
func (r *DriverRepository) ApplyCompletionStats(ctx context.Context, id string, totalFare, platformShare int64) error {
	query := `
		UPDATE drivers SET
			pending_rides = GREATEST(pending_rides - 1, 0),
			total_earning = total_earning + $1,
			total_rides = total_rides + 1,
			total_share = total_share + $2
		WHERE id = $3
	`
	return r.execExpectingRow(ctx, query, totalFare, platformShare, id)
}

// ApplyCancellationStats settles a cancelled ride into the aggregates
// with the fare recomputed at cancel time.
func (r *DriverRepository) ApplyCancellationStats(ctx context.Context, id string, totalFare, platformShare int64) error {
	query := `
		UPDATE drivers SET
			pending_rides = GREATEST(pending_rides - 1, 0),
			cancel_rides = cancel_rides + 1,
			total_earning = total_earning + $1,
			total_share = total_share + $2
		WHERE id = $3
	`
	return r.execExpectingRow(ctx, query, totalFare, platformShare, id)
}

// ApplyDeferredSuspension applies a queued suspension exactly once. The
// pending_suspension predicate makes a second call a no-op.
func (r *DriverRepository) ApplyDeferredSuspension(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE drivers SET is_approved = FALSE, pending_suspension = FALSE
		WHERE id = $1 AND pending_suspension = TRUE
	`

	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// ApplyRating folds one rating into the running average in-database.
func (r *DriverRepository) ApplyRating(ctx context.Context, id string, rating float64) error {
	query := `
		UPDATE drivers SET
			ratings = (ratings * total_ratings + $1) / (total_ratings + 1),
			total_ratings = total_ratings + 1
		WHERE id = $2
	`
	return r.execExpectingRow(ctx, query, rating, id)
}

func (r *DriverRepository) execExpectingRow(ctx context.Context, query string, args ...any) error {
	result, err := r.q.ExecContext(ctx, query, args...)
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
