package postgres

import (
	"context"
	"database/sql"
	"errors"

	"starkride/internal/domain"
	"starkride/internal/repository"
)

// UserRepository is a PostgreSQL implementation of repository.UserRepository.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// NewUserRepositoryWithTx creates a user repository using a transaction.
func NewUserRepositoryWithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{q: tx}
}

// Create adds a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, ratings, total_ratings, total_rides, pending_rides, cancel_rides)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Ratings,
		user.TotalRatings,
		user.TotalRides,
		user.PendingRides,
		user.CancelRides,
	)

	return mapInsertError(err)
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, COALESCE(name, ''), ratings, total_ratings, total_rides, pending_rides, cancel_rides
		FROM users WHERE id = $1
	`

	var user domain.User
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Ratings,
		&user.TotalRatings,
		&user.TotalRides,
		&user.PendingRides,
		&user.CancelRides,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}

// IncrementPendingRides bumps pending_rides by one.
func (r *UserRepository) IncrementPendingRides(ctx context.Context, id string) error {
	query := `UPDATE users SET pending_rides = pending_rides + 1 WHERE id = $1`
	return r.execExpectingRow(ctx, query, id)
}

// ApplyCompletionStats bumps total_rides and floors pending_rides at zero.
func (r *UserRepository) ApplyCompletionStats(ctx context.Context, id string) error {
	query := `
		UPDATE users SET
			pending_rides = GREATEST(pending_rides - 1, 0),
			total_rides = total_rides + 1
		WHERE id = $1
	`
	return r.execExpectingRow(ctx, query, id)
}

// ApplyCancellationStats bumps cancel_rides and floors pending_rides at zero.
func (r *UserRepository) ApplyCancellationStats(ctx context.Context, id string) error {
	query := `
		UPDATE users SET
			pending_rides = GREATEST(pending_rides - 1, 0),
			cancel_rides = cancel_rides + 1
		WHERE id = $1
	`
	return r.execExpectingRow(ctx, query, id)
}

// ApplyRating folds one rating into the running average in-database.
func (r *UserRepository) ApplyRating(ctx context.Context, id string, rating float64) error {
	query := `
		UPDATE users SET
			ratings = (ratings * total_ratings + $1) / (total_ratings + 1),
			total_ratings = total_ratings + 1
		WHERE id = $2
	`
	return r.execExpectingRow(ctx, query, rating, id)
}

func (r *UserRepository) execExpectingRow(ctx context.Context, query string, args ...any) error {
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
