package repository

import (
	"context"

	"starkride/internal/domain"
)

// TransactionRepository defines the persistence operations for payment
// gateway audit records. The payment_id uniqueness constraint is the
// durable idempotency marker for reconciliation.
type TransactionRepository interface {
	// Create persists a new transaction. A payment_id collision returns
	// ErrDuplicateKey.
	Create(ctx context.Context, txn *domain.WalletTransaction) error

	// GetByPaymentID retrieves a transaction by the gateway's payment id.
	// Returns nil (no error) if none exists.
	GetByPaymentID(ctx context.Context, paymentID string) (*domain.WalletTransaction, error)

	// GetAllByDriverID retrieves a driver's transactions, newest first.
	GetAllByDriverID(ctx context.Context, driverID string) ([]*domain.WalletTransaction, error)
}
