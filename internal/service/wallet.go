package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"starkride/internal/domain"
	"starkride/internal/repository"
)

// WalletService handles driver wallet operations. Every balance change
// goes through debitWithEntry or creditWithEntry so the ledger and the
// balance always move together.
type WalletService struct {
	db         *sql.DB
	walletRepo repository.WalletRepository
}

// NewWalletService creates a new WalletService.
func NewWalletService(db *sql.DB, walletRepo repository.WalletRepository) *WalletService {
	return &WalletService{
		db:         db,
		walletRepo: walletRepo,
	}
}

func (s *WalletService) fallbackRepos() repos {
	return repos{wallets: s.walletRepo}
}

// GetWallet retrieves a driver's wallet, creating an empty one on first
// access.
func (s *WalletService) GetWallet(ctx context.Context, driverID string) (*domain.Wallet, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	wallet, err := s.walletRepo.GetByDriverID(ctx, driverID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if err := s.walletRepo.Create(ctx, driverID); err != nil {
		return nil, err
	}

	return &domain.Wallet{DriverID: driverID}, nil
}

// Debit atomically takes amount out of the wallet and appends the
// matching ledger entry. Returns ErrInsufficientFunds when the balance
// does not cover the amount; the wallet never goes negative.
func (s *WalletService) Debit(ctx context.Context, driverID string, amount int64, action domain.EntryAction, referenceID string) (*domain.LedgerEntry, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var entry *domain.LedgerEntry
	err := runTx(ctx, s.db, s.fallbackRepos(), func(r repos) error {
		var txErr error
		entry, txErr = debitWithEntry(ctx, r.wallets, driverID, amount, action, referenceID)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// Credit atomically adds amount to the wallet and appends the matching
// ledger entry. The wallet row is created on first credit.
func (s *WalletService) Credit(ctx context.Context, driverID string, amount int64, action domain.EntryAction, referenceID string) (*domain.LedgerEntry, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var entry *domain.LedgerEntry
	err := runTx(ctx, s.db, s.fallbackRepos(), func(r repos) error {
		var txErr error
		entry, txErr = creditWithEntry(ctx, r.wallets, driverID, amount, action, referenceID)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// History returns the wallet's ledger, oldest first.
func (s *WalletService) History(ctx context.Context, driverID string) ([]*domain.LedgerEntry, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	return s.walletRepo.ListEntries(ctx, driverID)
}

// debitWithEntry performs a guarded debit plus its ledger append against
// one repository. Callers that need the pair to be atomic with other
// writes pass a transaction-scoped repository.
func debitWithEntry(ctx context.Context, wallets repository.WalletRepository, driverID string, amount int64, action domain.EntryAction, referenceID string) (*domain.LedgerEntry, error) {
	balance, err := wallets.Debit(ctx, driverID, amount)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) || errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInsufficientFunds
		}
		return nil, err
	}

	entry := &domain.LedgerEntry{
		ID:           uuid.New().String(),
		DriverID:     driverID,
		Type:         domain.EntryTypeDebit,
		Action:       action,
		Amount:       amount,
		ReferenceID:  referenceID,
		BalanceAfter: balance,
		OccurredAt:   time.Now(),
	}
	if err := wallets.AppendEntry(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// creditWithEntry performs a credit plus its ledger append against one
// repository, creating the wallet row on first use.
func creditWithEntry(ctx context.Context, wallets repository.WalletRepository, driverID string, amount int64, action domain.EntryAction, referenceID string) (*domain.LedgerEntry, error) {
	balance, err := wallets.Credit(ctx, driverID, amount)
	if err != nil {
		return nil, err
	}

	entry := &domain.LedgerEntry{
		ID:           uuid.New().String(),
		DriverID:     driverID,
		Type:         domain.EntryTypeCredit,
		Action:       action,
		Amount:       amount,
		ReferenceID:  referenceID,
		BalanceAfter: balance,
		OccurredAt:   time.Now(),
	}
	if err := wallets.AppendEntry(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}
