package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"starkride/internal/domain"
	"starkride/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

const rideColumns = `
	id, user_id, driver_id, total_fare, driver_earnings, platform_share, status, otp,
	pickup_name, pickup_lat, pickup_lng, destination_name, destination_lat, destination_lng,
	distance_km, user_rating, driver_rating, rating,
	cancelled_by, cancel_reason, cancel_total_fare, cancel_driver_earnings, cancel_platform_share,
	cancel_refunded_amount, cancel_travelled_km, cancel_location_name, cancel_lat, cancel_lng, cancelled_at,
	created_at, updated_at`

func scanRide(scan func(dest ...any) error) (*domain.Ride, error) {
	var ride domain.Ride
	var userRating, driverRating, combined sql.NullFloat64
	var cancelledBy, cancelReason, cancelLocName sql.NullString
	var cancelTotal, cancelEarnings, cancelShare, cancelRefund sql.NullInt64
	var cancelTravelled, cancelLat, cancelLng sql.NullFloat64
	var cancelledAt sql.NullTime

	if err := scan(
		&ride.ID,
		&ride.UserID,
		&ride.DriverID,
		&ride.TotalFare,
		&ride.DriverEarnings,
		&ride.PlatformShare,
		&ride.Status,
		&ride.OTP,
		&ride.Pickup.Name,
		&ride.Pickup.Latitude,
		&ride.Pickup.Longitude,
		&ride.Destination.Name,
		&ride.Destination.Latitude,
		&ride.Destination.Longitude,
		&ride.DistanceKm,
		&userRating,
		&driverRating,
		&combined,
		&cancelledBy,
		&cancelReason,
		&cancelTotal,
		&cancelEarnings,
		&cancelShare,
		&cancelRefund,
		&cancelTravelled,
		&cancelLocName,
		&cancelLat,
		&cancelLng,
		&cancelledAt,
		&ride.CreatedAt,
		&ride.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if userRating.Valid {
		ride.UserRating = userRating.Float64
	}
	if driverRating.Valid {
		ride.DriverRating = driverRating.Float64
	}
	if combined.Valid {
		ride.Rating = combined.Float64
	}

	if cancelledBy.Valid {
		ride.Cancel = &domain.CancelDetails{
			CancelledBy:       cancelledBy.String,
			Reason:            cancelReason.String,
			TotalFare:         cancelTotal.Int64,
			DriverEarnings:    cancelEarnings.Int64,
			PlatformShare:     cancelShare.Int64,
			RefundedAmount:    cancelRefund.Int64,
			TravelledDistance: cancelTravelled.Float64,
			Location: domain.Location{
				Name:      cancelLocName.String,
				Latitude:  cancelLat.Float64,
				Longitude: cancelLng.Float64,
			},
			CancelledAt: cancelledAt.Time,
		}
	}

	return &ride, nil
}

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (
			id, user_id, driver_id, total_fare, driver_earnings, platform_share, status, otp,
			pickup_name, pickup_lat, pickup_lng, destination_name, destination_lat, destination_lng,
			distance_km, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.UserID,
		ride.DriverID,
		ride.TotalFare,
		ride.DriverEarnings,
		ride.PlatformShare,
		ride.Status,
		ride.OTP,
		ride.Pickup.Name,
		ride.Pickup.Latitude,
		ride.Pickup.Longitude,
		ride.Destination.Name,
		ride.Destination.Latitude,
		ride.Destination.Longitude,
		ride.DistanceKm,
		ride.CreatedAt,
		ride.UpdatedAt,
	)

	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

// GetAllByUserID retrieves a rider's rides, newest first.
func (r *RideRepository) GetAllByUserID(ctx context.Context, userID string) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows.Scan)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

const nonTerminalStatuses = `('Booked', 'Processing', 'Arrived', 'Ongoing', 'Reached')`

// GetActiveByUserID returns the rider's non-terminal ride.
func (r *RideRepository) GetActiveByUserID(ctx context.Context, userID string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides
		WHERE user_id = $1 AND status IN ` + nonTerminalStatuses + `
		ORDER BY created_at DESC LIMIT 1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, userID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

// GetActiveByDriverID returns the driver's non-terminal ride.
func (r *RideRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides
		WHERE driver_id = $1 AND status IN ` + nonTerminalStatuses + `
		ORDER BY created_at DESC LIMIT 1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, driverID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

// SetStatus moves the ride between two statuses conditionally.
func (r *RideRepository) SetStatus(ctx context.Context, id string, from, to domain.RideStatus) error {
	query := `UPDATE rides SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

	result, err := r.q.ExecContext(ctx, query, to, time.Now(), id, from)
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

// MarkCancelled writes the cancel status and snapshot while the ride is
// still cancellable.
func (r *RideRepository) MarkCancelled(ctx context.Context, id string, status domain.RideStatus, details *domain.CancelDetails) error {
	query := `
		UPDATE rides SET
			status = $1, updated_at = $2,
			cancelled_by = $3, cancel_reason = $4,
			cancel_total_fare = $5, cancel_driver_earnings = $6, cancel_platform_share = $7,
			cancel_refunded_amount = $8, cancel_travelled_km = $9,
			cancel_location_name = $10, cancel_lat = $11, cancel_lng = $12, cancelled_at = $13
		WHERE id = $14 AND status IN ` + nonTerminalStatuses

	result, err := r.q.ExecContext(ctx, query,
		status,
		time.Now(),
		details.CancelledBy,
		details.Reason,
		details.TotalFare,
		details.DriverEarnings,
		details.PlatformShare,
		details.RefundedAmount,
		details.TravelledDistance,
		details.Location.Name,
		details.Location.Latitude,
		details.Location.Longitude,
		details.CancelledAt,
		id,
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

// SetUserRating records the rider's rating once.
func (r *RideRepository) SetUserRating(ctx context.Context, id string, rating float64) error {
	return r.setRatingOnce(ctx, `UPDATE rides SET user_rating = $1, updated_at = $2 WHERE id = $3 AND user_rating IS NULL`, id, rating)
}

// SetDriverRating records the driver's rating once.
func (r *RideRepository) SetDriverRating(ctx context.Context, id string, rating float64) error {
	return r.setRatingOnce(ctx, `UPDATE rides SET driver_rating = $1, updated_at = $2 WHERE id = $3 AND driver_rating IS NULL`, id, rating)
}

func (r *RideRepository) setRatingOnce(ctx context.Context, query, id string, rating float64) error {
	result, err := r.q.ExecContext(ctx, query, rating, time.Now(), id)
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

// SetCombinedRating stores the ride's combined rating.
func (r *RideRepository) SetCombinedRating(ctx context.Context, id string, rating float64) error {
	query := `UPDATE rides SET rating = $1, updated_at = $2 WHERE id = $3`
	_, err := r.q.ExecContext(ctx, query, rating, time.Now(), id)
	return err
}
