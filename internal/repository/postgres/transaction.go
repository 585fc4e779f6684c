package postgres

import (
	"context"
	"database/sql"
	"errors"

	"starkride/internal/domain"
)

// TransactionRepository is a PostgreSQL implementation of
// repository.TransactionRepository. The unique index on payment_id is the
// reconciliation idempotency marker.
type TransactionRepository struct {
	q Querier
}

// NewTransactionRepository creates a new PostgreSQL transaction repository.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{q: db}
}

// NewTransactionRepositoryWithTx creates a transaction repository using a transaction.
func NewTransactionRepositoryWithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

// Create persists a new transaction record.
func (r *TransactionRepository) Create(ctx context.Context, txn *domain.WalletTransaction) error {
	query := `
		INSERT INTO wallet_transactions (id, driver_id, gross_amount, net_amount, payment_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		txn.ID,
		txn.DriverID,
		txn.GrossAmount,
		txn.NetAmount,
		txn.PaymentID,
		txn.Status,
		txn.CreatedAt,
	)

	return mapInsertError(err)
}

// GetByPaymentID retrieves a transaction by the gateway's payment id.
// Returns nil if no transaction exists for the id.
func (r *TransactionRepository) GetByPaymentID(ctx context.Context, paymentID string) (*domain.WalletTransaction, error) {
	query := `
		SELECT id, driver_id, gross_amount, net_amount, payment_id, status, created_at
		FROM wallet_transactions WHERE payment_id = $1
	`

	var txn domain.WalletTransaction
	err := r.q.QueryRowContext(ctx, query, paymentID).Scan(
		&txn.ID,
		&txn.DriverID,
		&txn.GrossAmount,
		&txn.NetAmount,
		&txn.PaymentID,
		&txn.Status,
		&txn.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &txn, nil
}

// GetAllByDriverID retrieves a driver's transactions, newest first.
func (r *TransactionRepository) GetAllByDriverID(ctx context.Context, driverID string) ([]*domain.WalletTransaction, error) {
	query := `
		SELECT id, driver_id, gross_amount, net_amount, payment_id, status, created_at
		FROM wallet_transactions WHERE driver_id = $1 ORDER BY created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.WalletTransaction
	for rows.Next() {
		var txn domain.WalletTransaction
		if err := rows.Scan(
			&txn.ID,
			&txn.DriverID,
			&txn.GrossAmount,
			&txn.NetAmount,
			&txn.PaymentID,
			&txn.Status,
			&txn.CreatedAt,
		); err != nil {
			return nil, err
		}
		txns = append(txns, &txn)
	}
	return txns, rows.Err()
}
