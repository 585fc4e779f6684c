package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist, or
	// when a conditional update matched no row.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateKey is returned when an insert violates a uniqueness
	// constraint (unique ride key, gateway payment id, fare row).
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInsufficientBalance is returned when a guarded debit finds the
	// wallet balance below the requested amount.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
)
