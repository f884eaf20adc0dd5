package store

import (
	"context"
	"errors"
	"fmt"

	paymenterrors "github.com/abgdnv/gomarket/payment_service/internal/errors"
	"github.com/abgdnv/gomarket/payment_service/internal/store/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var _ BalanceStore = (*PgStore)(nil)

// PgStore keeps balances in PostgreSQL.
type PgStore struct {
	q *db.Queries
}

func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{q: db.New(dbp)}
}

func (p *PgStore) Get(ctx context.Context, userID int64) (*Balance, error) {
	b, err := p.q.GetBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, paymenterrors.ErrBalanceNotFound
		}
		return nil, fmt.Errorf("%w: %w", paymenterrors.ErrFailedToGetBalance, err)
	}
	return toBalance(b), nil
}

func (p *PgStore) Create(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error) {
	n, err := p.q.CreateBalance(ctx, db.CreateBalanceParams{UserID: userID, Balance: amount})
	if err != nil {
		return false, fmt.Errorf("%w: %w", paymenterrors.ErrFailedToCreateBalance, err)
	}
	return n > 0, nil
}

func (p *PgStore) Debit(ctx context.Context, userID int64, amount decimal.Decimal) (*Balance, error) {
	b, err := p.q.DebitBalance(ctx, db.DebitBalanceParams{UserID: userID, Amount: amount})
	if err == nil {
		return toBalance(b), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %w", paymenterrors.ErrFailedToDebit, err)
	}
	// No row matched: the user is either unknown or short of money. Balances are never deleted,
	// so a row seen now also existed during the UPDATE.
	if _, getErr := p.Get(ctx, userID); getErr != nil {
		return nil, getErr
	}
	return nil, paymenterrors.ErrInsufficientFunds
}

func toBalance(b db.Balance) *Balance {
	return &Balance{UserID: b.UserID, Amount: b.Balance}
}
