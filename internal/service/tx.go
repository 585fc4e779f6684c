package service

import (
	"context"
	"database/sql"

	"starkride/internal/repository"
	"starkride/internal/repository/postgres"
)

// repos bundles the repositories a single transaction may touch.
type repos struct {
	wallets  repository.WalletRepository
	requests repository.RideRequestRepository
	rides    repository.RideRepository
	txns     repository.TransactionRepository
	drivers  repository.DriverRepository
	users    repository.UserRepository
}

// runTx executes fn against transaction-scoped repositories and commits
// when fn succeeds. With a nil database handle the fallback repositories
// are used directly and no transaction is opened; that path carries the
// in-memory repositories in tests.
func runTx(ctx context.Context, db *sql.DB, fallback repos, fn func(r repos) error) error {
	if db == nil {
		return fn(fallback)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Create transaction-scoped repositories.
	r := repos{
		wallets:  postgres.NewWalletRepositoryWithTx(tx),
		requests: postgres.NewRideRequestRepositoryWithTx(tx),
		rides:    postgres.NewRideRepositoryWithTx(tx),
		txns:     postgres.NewTransactionRepositoryWithTx(tx),
		drivers:  postgres.NewDriverRepositoryWithTx(tx),
		users:    postgres.NewUserRepositoryWithTx(tx),
	}

	if err = fn(r); err != nil {
		return err
	}

	err = tx.Commit()
	return err
}
