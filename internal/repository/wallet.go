package repository

import (
	"context"

	"starkride/internal/domain"
)

// WalletRepository defines the persistence operations for driver wallets
// and their append-only ledgers.
//
// Debit and Credit are single guarded statements; callers that need the
// balance change and the ledger append to be atomic run both through a
// transaction-scoped repository.
type WalletRepository interface {
	// GetByDriverID retrieves a wallet by its owner.
	GetByDriverID(ctx context.Context, driverID string) (*domain.Wallet, error)

	// Create inserts an empty wallet for the driver. Inserting an already
	// existing wallet is a no-op.
	Create(ctx context.Context, driverID string) error

	// Debit subtracts amount where the balance covers it, returning the
	// new balance. Returns ErrInsufficientBalance when the guard fails and
	// ErrNotFound when no wallet exists.
	Debit(ctx context.Context, driverID string, amount int64) (int64, error)

	// Credit adds amount to the wallet, creating it first if absent, and
	// returns the new balance.
	Credit(ctx context.Context, driverID string, amount int64) (int64, error)

	// AppendEntry appends one immutable ledger entry.
	AppendEntry(ctx context.Context, entry *domain.LedgerEntry) error

	// PatchEntryReference backfills an entry's reference id. It applies
	// only while the reference is still unset; a second patch matches no
	// row and returns ErrNotFound.
	PatchEntryReference(ctx context.Context, entryID, referenceID string) error

	// ListEntries returns the wallet's history, oldest first.
	ListEntries(ctx context.Context, driverID string) ([]*domain.LedgerEntry, error)

	// HasEntryWithAction reports whether the wallet history contains at
	// least one entry with the given action.
	HasEntryWithAction(ctx context.Context, driverID string, action domain.EntryAction) (bool, error)
}
