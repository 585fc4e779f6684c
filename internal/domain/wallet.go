package domain

import "time"

// EntryType represents the direction of a ledger entry.
type EntryType string

const (
	EntryTypeCredit EntryType = "credit"
	EntryTypeDebit  EntryType = "debit"
)

// EntryAction represents the business reason for a ledger entry.
type EntryAction string

const (
	ActionRecharge    EntryAction = "recharge"
	ActionBonus       EntryAction = "bonus"
	ActionPlatformFee EntryAction = "platform_fee"
	ActionRefund      EntryAction = "refund"
	ActionAdjustment  EntryAction = "adjustment"
)

// Wallet is a driver's prepaid balance. Amounts are whole currency units.
// The balance is only ever changed through guarded conditional updates;
// it always equals the signed sum of the wallet's ledger entries.
type Wallet struct {
	DriverID string
	Balance  int64
}

// LedgerEntry is one immutable, balance-affecting record in a wallet's
// history. ReferenceID may be patched exactly once after creation to
// backfill a ride id that did not exist when the entry was written.
type LedgerEntry struct {
	ID           string
	DriverID     string
	Type         EntryType
	Action       EntryAction
	Amount       int64 // always positive; Type carries the sign
	ReferenceID  string
	BalanceAfter int64
	OccurredAt   time.Time
}

// Signed returns the entry amount signed by its type.
func (e *LedgerEntry) Signed() int64 {
	if e.Type == EntryTypeDebit {
		return -e.Amount
	}
	return e.Amount
}
