package postgres

import (
	"context"
	"database/sql"
	"errors"

	"starkride/internal/domain"
	"starkride/internal/repository"
)

// WalletRepository is a PostgreSQL implementation of
// repository.WalletRepository. Balance mutations are single guarded
// UPDATE statements; run Debit/Credit and AppendEntry through a
// transaction-scoped repository when they must be atomic together.
type WalletRepository struct {
	q Querier
}

// NewWalletRepository creates a new PostgreSQL wallet repository.
func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{q: db}
}

// NewWalletRepositoryWithTx creates a wallet repository using a transaction.
func NewWalletRepositoryWithTx(tx *sql.Tx) *WalletRepository {
	return &WalletRepository{q: tx}
}

// GetByDriverID retrieves a wallet by its owner.
func (r *WalletRepository) GetByDriverID(ctx context.Context, driverID string) (*domain.Wallet, error) {
	query := `SELECT driver_id, balance FROM wallets WHERE driver_id = $1`

	var wallet domain.Wallet
	err := r.q.QueryRowContext(ctx, query, driverID).Scan(&wallet.DriverID, &wallet.Balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &wallet, nil
}

// Create inserts an empty wallet; creating an existing wallet is a no-op.
func (r *WalletRepository) Create(ctx context.Context, driverID string) error {
	query := `INSERT INTO wallets (driver_id, balance) VALUES ($1, 0) ON CONFLICT (driver_id) DO NOTHING`
	_, err := r.q.ExecContext(ctx, query, driverID)
	return err
}

// Debit subtracts amount where the balance covers it. The WHERE clause is
// the concurrency guard: two racing debits can both succeed only if the
// balance covers both.
func (r *WalletRepository) Debit(ctx context.Context, driverID string, amount int64) (int64, error) {
	query := `
		UPDATE wallets SET balance = balance - $1
		WHERE driver_id = $2 AND balance >= $1
		RETURNING balance
	`

	var balance int64
	err := r.q.QueryRowContext(ctx, query, amount, driverID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Zero rows: either no wallet or the guard failed.
			if _, getErr := r.GetByDriverID(ctx, driverID); getErr != nil {
				return 0, getErr
			}
			return 0, repository.ErrInsufficientBalance
		}
		return 0, err
	}

	return balance, nil
}

// Credit adds amount to the wallet, creating the row on first use.
func (r *WalletRepository) Credit(ctx context.Context, driverID string, amount int64) (int64, error) {
	query := `
		INSERT INTO wallets (driver_id, balance) VALUES ($1, $2)
		ON CONFLICT (driver_id) DO UPDATE SET balance = wallets.balance + $2
		RETURNING balance
	`

	var balance int64
	if err := r.q.QueryRowContext(ctx, query, driverID, amount).Scan(&balance); err != nil {
		return 0, err
	}

	return balance, nil
}

// AppendEntry appends one immutable ledger entry.
func (r *WalletRepository) AppendEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	query := `
		INSERT INTO wallet_entries (id, driver_id, entry_type, action, amount, reference_id, balance_after, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var referenceID sql.NullString
	if entry.ReferenceID != "" {
		referenceID = sql.NullString{String: entry.ReferenceID, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		entry.ID,
		entry.DriverID,
		entry.Type,
		entry.Action,
		entry.Amount,
		referenceID,
		entry.BalanceAfter,
		entry.OccurredAt,
	)

	return err
}

// PatchEntryReference backfills an entry's reference id exactly once.
func (r *WalletRepository) PatchEntryReference(ctx context.Context, entryID, referenceID string) error {
	query := `UPDATE wallet_entries SET reference_id = $1 WHERE id = $2 AND reference_id IS NULL`

	result, err := r.q.ExecContext(ctx, query, referenceID, entryID)
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

// ListEntries returns the wallet's history, oldest first.
func (r *WalletRepository) ListEntries(ctx context.Context, driverID string) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT id, driver_id, entry_type, action, amount, reference_id, balance_after, occurred_at
		FROM wallet_entries WHERE driver_id = $1 ORDER BY occurred_at, id
	`

	rows, err := r.q.QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		var entry domain.LedgerEntry
		var referenceID sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.DriverID,
			&entry.Type,
			&entry.Action,
			&entry.Amount,
			&referenceID,
			&entry.BalanceAfter,
			&entry.OccurredAt,
		); err != nil {
			return nil, err
		}
		if referenceID.Valid {
			entry.ReferenceID = referenceID.String
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// HasEntryWithAction reports whether any history entry has the action.
func (r *WalletRepository) HasEntryWithAction(ctx context.Context, driverID string, action domain.EntryAction) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM wallet_entries WHERE driver_id = $1 AND action = $2)`

	var exists bool
	if err := r.q.QueryRowContext(ctx, query, driverID, action).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}
