// Package store provides the balance storage of the payment service.
package store

import (
	"context"

	"github.com/shopspring/decimal"
)

// Balance is the money a user can spend.
type Balance struct {
	UserID int64
	Amount decimal.Decimal
}

// BalanceStore defines the storage operations on balances.
type BalanceStore interface {
	// Get returns the user's balance or ErrBalanceNotFound.
	Get(ctx context.Context, userID int64) (*Balance, error)

	// Create opens a balance with the given amount. It is a no-op if the user already has one.
	// Reports whether a balance was created.
	Create(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error)

	// Debit takes amount from the balance atomically.
	// Returns ErrInsufficientFunds if the balance is lower than amount and ErrBalanceNotFound for unknown users.
	Debit(ctx context.Context, userID int64, amount decimal.Decimal) (*Balance, error)
}
