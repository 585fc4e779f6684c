package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"starkride/internal/domain"
	"starkride/internal/repository"
)

// RideRequestRepository is a PostgreSQL implementation of
// repository.RideRequestRepository. The claim transitions are single
// conditional UPDATEs; the database serializes racing drivers.
type RideRequestRepository struct {
	q Querier
}

// NewRideRequestRepository creates a new PostgreSQL ride request repository.
func NewRideRequestRepository(db *sql.DB) *RideRequestRepository {
	return &RideRequestRepository{q: db}
}

// NewRideRequestRepositoryWithTx creates a ride request repository using a transaction.
func NewRideRequestRepositoryWithTx(tx *sql.Tx) *RideRequestRepository {
	return &RideRequestRepository{q: tx}
}

const rideRequestColumns = `id, unique_ride_key, user_id, status, accepted_by, expires_at, created_at`

func scanRideRequest(scan func(dest ...any) error) (*domain.RideRequest, error) {
	var req domain.RideRequest
	var acceptedBy sql.NullString
	if err := scan(
		&req.ID,
		&req.UniqueRideKey,
		&req.UserID,
		&req.Status,
		&acceptedBy,
		&req.ExpiresAt,
		&req.CreatedAt,
	); err != nil {
		return nil, err
	}
	if acceptedBy.Valid {
		req.AcceptedBy = acceptedBy.String
	}
	return &req, nil
}

// Create persists a new request.
func (r *RideRequestRepository) Create(ctx context.Context, req *domain.RideRequest) error {
	query := `
		INSERT INTO ride_requests (id, unique_ride_key, user_id, status, accepted_by, expires_at, created_at)
		VALUES ($1, $2, $3, $4, NULL, $5, $6)
	`

	_, err := r.q.ExecContext(ctx, query,
		req.ID,
		req.UniqueRideKey,
		req.UserID,
		req.Status,
		req.ExpiresAt,
		req.CreatedAt,
	)

	return mapInsertError(err)
}

// GetByID retrieves a request by id.
func (r *RideRequestRepository) GetByID(ctx context.Context, id string) (*domain.RideRequest, error) {
	query := `SELECT ` + rideRequestColumns + ` FROM ride_requests WHERE id = $1`

	req, err := scanRideRequest(r.q.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// GetByKey retrieves a request by its unique ride key.
func (r *RideRequestRepository) GetByKey(ctx context.Context, uniqueRideKey string) (*domain.RideRequest, error) {
	query := `SELECT ` + rideRequestColumns + ` FROM ride_requests WHERE unique_ride_key = $1`

	req, err := scanRideRequest(r.q.QueryRowContext(ctx, query, uniqueRideKey).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// FindActiveByUser returns the rider's open request, if any.
func (r *RideRequestRepository) FindActiveByUser(ctx context.Context, userID string, now time.Time) (*domain.RideRequest, error) {
	query := `
		SELECT ` + rideRequestColumns + ` FROM ride_requests
		WHERE user_id = $1 AND status IN ($2, $3) AND expires_at > $4
		ORDER BY created_at DESC LIMIT 1
	`

	req, err := scanRideRequest(r.q.QueryRowContext(ctx, query,
		userID, domain.RequestStatusPending, domain.RequestStatusLocked, now).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// Claim is the mutual-exclusion primitive: a single conditional update
// that exactly one concurrent caller observes as a matched row.
func (r *RideRequestRepository) Claim(ctx context.Context, uniqueRideKey, driverID string, now time.Time) (*domain.RideRequest, error) {
	query := `
		UPDATE ride_requests SET status = $1, accepted_by = $2
		WHERE unique_ride_key = $3 AND status = $4 AND expires_at > $5
		RETURNING ` + rideRequestColumns

	req, err := scanRideRequest(r.q.QueryRowContext(ctx, query,
		domain.RequestStatusLocked, driverID, uniqueRideKey, domain.RequestStatusPending, now).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// Finalize moves locked→assigned once the ride row exists.
func (r *RideRequestRepository) Finalize(ctx context.Context, id string) error {
	query := `UPDATE ride_requests SET status = $1 WHERE id = $2 AND status = $3`

	result, err := r.q.ExecContext(ctx, query, domain.RequestStatusAssigned, id, domain.RequestStatusLocked)
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

// Release is the compensating transition for a failed claim follow-up:
// locked→pending with the driver cleared.
func (r *RideRequestRepository) Release(ctx context.Context, id string) error {
	query := `UPDATE ride_requests SET status = $1, accepted_by = NULL WHERE id = $2 AND status = $3`

	result, err := r.q.ExecContext(ctx, query, domain.RequestStatusPending, id, domain.RequestStatusLocked)
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

// Expire moves the rider's pending request to expired. Losing the race to
// a driver's claim is fine; zero matched rows is not an error.
func (r *RideRequestRepository) Expire(ctx context.Context, uniqueRideKey, userID string) error {
	query := `UPDATE ride_requests SET status = $1 WHERE unique_ride_key = $2 AND user_id = $3 AND status = $4`

	_, err := r.q.ExecContext(ctx, query, domain.RequestStatusExpired, uniqueRideKey, userID, domain.RequestStatusPending)
	return err
}
