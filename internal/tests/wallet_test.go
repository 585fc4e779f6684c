package tests

import (
	"context"
	"errors"
	"sync"
	"testing"

	"starkride/internal/domain"
	"starkride/internal/repository"
	"starkride/internal/service"
)

func TestWallet_GetCreatesEmptyWallet(t *testing.T) {
	ctx := context.Background()

	walletRepo := NewMockWalletRepository()
	walletService := service.NewWalletService(nil, walletRepo)

	wallet, err := walletService.GetWallet(ctx, "driver-1")
	if err != nil {
		t.Fatalf("get wallet failed: %v", err)
	}
	if wallet.Balance != 0 {
		t.Errorf("expected zero balance, got %d", wallet.Balance)
	}

	// The row now exists; a second read returns it instead of creating.
	if _, err := walletService.GetWallet(ctx, "driver-1"); err != nil {
		t.Fatalf("second get failed: %v", err)
	}
}

func TestWallet_DebitInsufficientFunds(t *testing.T) {
	ctx := context.Background()

	walletRepo := NewMockWalletRepository()
	walletRepo.SetBalance("driver-1", 100)
	walletService := service.NewWalletService(nil, walletRepo)

	_, err := walletService.Debit(ctx, "driver-1", 150, domain.ActionPlatformFee, "ride-1")
	if !errors.Is(err, service.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// The failed debit must not touch the balance or the ledger.
	if got := walletRepo.Balance("driver-1"); got != 100 {
		t.Errorf("expected balance 100, got %d", got)
	}
	entries, _ := walletService.History(ctx, "driver-1")
	if len(entries) != 0 {
		t.Errorf("expected no ledger entries, got %d", len(entries))
	}
}

func TestWallet_BalanceEqualsSignedLedgerSum(t *testing.T) {
	ctx := context.Background()

	walletRepo := NewMockWalletRepository()
	walletService := service.NewWalletService(nil, walletRepo)

	if _, err := walletService.Credit(ctx, "driver-1", 500, domain.ActionRecharge, "pay-1"); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if _, err := walletService.Debit(ctx, "driver-1", 120, domain.ActionPlatformFee, "ride-1"); err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if _, err := walletService.Credit(ctx, "driver-1", 40, domain.ActionRefund, "ride-1"); err != nil {
		t.Fatalf("refund credit failed: %v", err)
	}

	entries, err := walletService.History(ctx, "driver-1")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}

	var sum int64
	for _, e := range entries {
		sum += e.Signed()
	}

	wallet, err := walletService.GetWallet(ctx, "driver-1")
	if err != nil {
		t.Fatalf("get wallet failed: %v", err)
	}

	if wallet.Balance != sum {
		t.Errorf("balance %d does not equal signed ledger sum %d", wallet.Balance, sum)
	}
	if wallet.Balance != 420 {
		t.Errorf("expected balance 420, got %d", wallet.Balance)
	}
}

func TestWallet_EntriesCarryBalanceAfter(t *testing.T) {
	ctx := context.Background()

	walletRepo := NewMockWalletRepository()
	walletService := service.NewWalletService(nil, walletRepo)

	entry, err := walletService.Credit(ctx, "driver-1", 300, domain.ActionRecharge, "pay-1")
	if err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if entry.BalanceAfter != 300 {
		t.Errorf("expected balance after 300, got %d", entry.BalanceAfter)
	}

	entry, err = walletService.Debit(ctx, "driver-1", 100, domain.ActionPlatformFee, "ride-1")
	if err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if entry.BalanceAfter != 200 {
		t.Errorf("expected balance after 200, got %d", entry.BalanceAfter)
	}
	if entry.Type != domain.EntryTypeDebit {
		t.Errorf("expected debit entry, got %s", entry.Type)
	}
}

func TestWallet_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	ctx := context.Background()

	walletRepo := NewMockWalletRepository()
	walletRepo.SetBalance("driver-1", 100)
	walletService := service.NewWalletService(nil, walletRepo)

	// 20 drivers' worth of concurrent 30-unit debits against 100: only
	// three can succeed.
	const attempts = 20
	var wg sync.WaitGroup
	var successes int32

	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := walletService.Debit(ctx, "driver-1", 30, domain.ActionPlatformFee, "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	for err := range results {
		if err == nil {
			successes++
		} else if !errors.Is(err, service.ErrInsufficientFunds) {
			t.Fatalf("unexpected debit error: %v", err)
		}
	}

	if successes != 3 {
		t.Errorf("expected exactly 3 successful debits, got %d", successes)
	}
	if got := walletRepo.Balance("driver-1"); got != 10 {
		t.Errorf("expected final balance 10, got %d", got)
	}
}

func TestWallet_RejectsNonPositiveAmounts(t *testing.T) {
	ctx := context.Background()

	walletService := service.NewWalletService(nil, NewMockWalletRepository())

	if _, err := walletService.Credit(ctx, "driver-1", 0, domain.ActionRecharge, ""); !errors.Is(err, service.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for zero credit, got %v", err)
	}
	if _, err := walletService.Debit(ctx, "driver-1", -5, domain.ActionPlatformFee, ""); !errors.Is(err, service.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for negative debit, got %v", err)
	}
}

func TestWallet_EntryReferenceBackfillIsOneTime(t *testing.T) {
	ctx := context.Background()

	walletRepo := NewMockWalletRepository()
	entry := &domain.LedgerEntry{
		ID:       "entry-1",
		DriverID: "driver-1",
		Type:     domain.EntryTypeDebit,
		Action:   domain.ActionPlatformFee,
		Amount:   26,
	}
	if err := walletRepo.AppendEntry(ctx, entry); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	if err := walletRepo.PatchEntryReference(ctx, "entry-1", "ride-1"); err != nil {
		t.Fatalf("first patch failed: %v", err)
	}

	// Once set, the reference is immutable; a retry matches no row.
	if err := walletRepo.PatchEntryReference(ctx, "entry-1", "ride-2"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second patch, got %v", err)
	}

	entries, err := walletRepo.ListEntries(ctx, "driver-1")
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one entry, got %d (%v)", len(entries), err)
	}
	if entries[0].ReferenceID != "ride-1" {
		t.Errorf("expected reference ride-1 to survive, got %q", entries[0].ReferenceID)
	}
}
