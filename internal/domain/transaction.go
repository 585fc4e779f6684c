package domain

import "time"

// TransactionStatus represents the state of a gateway payment record.
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailed  TransactionStatus = "failed"
)

// WalletTransaction is the audit record for one payment-gateway event.
// PaymentID is the gateway's idempotency key: at most one transaction
// exists per PaymentID, and its presence is the sole source of truth for
// "this payment has already been credited".
type WalletTransaction struct {
	ID          string
	DriverID    string
	GrossAmount int64 // what was actually paid to the gateway
	NetAmount   int64 // what lands in the wallet after gateway fees
	PaymentID   string
	Status      TransactionStatus
	CreatedAt   time.Time
}
