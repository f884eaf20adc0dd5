package db

import (
	"context"

	"github.com/shopspring/decimal"
)

const getBalance = `
SELECT user_id, balance, updated_at
FROM balances
WHERE user_id = $1
`

func (q *Queries) GetBalance(ctx context.Context, userID int64) (Balance, error) {
	row := q.db.QueryRow(ctx, getBalance, userID)
	var b Balance
	err := row.Scan(&b.UserID, &b.Balance, &b.UpdatedAt)
	return b, err
}

type CreateBalanceParams struct {
	UserID  int64
	Balance decimal.Decimal
}

const createBalance = `
INSERT INTO balances (user_id, balance)
VALUES ($1, $2)
ON CONFLICT (user_id) DO NOTHING
`

// CreateBalance returns the number of inserted rows, zero when the user already has a balance.
func (q *Queries) CreateBalance(ctx context.Context, arg CreateBalanceParams) (int64, error) {
	result, err := q.db.Exec(ctx, createBalance, arg.UserID, arg.Balance)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

type DebitBalanceParams struct {
	UserID int64
	Amount decimal.Decimal
}

// The row lock taken by the UPDATE serializes concurrent debits of one user,
// and the WHERE clause is evaluated again after the lock is granted.
const debitBalance = `
UPDATE balances
SET balance    = balance - $2,
    updated_at = now()
WHERE user_id = $1 AND balance >= $2
RETURNING user_id, balance, updated_at
`

func (q *Queries) DebitBalance(ctx context.Context, arg DebitBalanceParams) (Balance, error) {
	row := q.db.QueryRow(ctx, debitBalance, arg.UserID, arg.Amount)
	var b Balance
	err := row.Scan(&b.UserID, &b.Balance, &b.UpdatedAt)
	return b, err
}
