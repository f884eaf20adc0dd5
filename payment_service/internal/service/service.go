// Package service provides the balance operations of the payment service.
package service

import (
	"context"
	"errors"
	"log/slog"

	paymenterrors "github.com/abgdnv/gomarket/payment_service/internal/errors"
	"github.com/abgdnv/gomarket/payment_service/internal/metrics"
	"github.com/abgdnv/gomarket/payment_service/internal/store"
	"github.com/shopspring/decimal"
)

// PaymentService reads and debits user balances.
type PaymentService interface {
	// GetBalance returns the user's balance.
	// Returns ErrBalanceNotFound for unknown users unless auto-provisioning is on.
	GetBalance(ctx context.Context, userID int64) (*BalanceDto, error)

	// Debit takes amount from the user's balance and returns the new balance.
	// Returns ErrInvalidAmount, ErrInsufficientFunds or ErrBalanceNotFound as business outcomes.
	Debit(ctx context.Context, userID int64, amount decimal.Decimal) (*BalanceDto, error)
}

// BalanceDto is the balance as exposed over HTTP. ID is the user ID.
type BalanceDto struct {
	ID      int64           `json:"id"`
	Balance decimal.Decimal `json:"balance"`
}

// Provisioning decides what an unknown user starts with.
type Provisioning struct {
	Enabled bool
	Initial decimal.Decimal
}

type Service struct {
	store     store.BalanceStore
	provision Provisioning
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(s store.BalanceStore, p Provisioning, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:     s,
		provision: p,
		metrics:   m,
		logger:    logger.With("component", "payment-service"),
	}
}

func (s *Service) GetBalance(ctx context.Context, userID int64) (*BalanceDto, error) {
	if err := s.ensure(ctx, userID); err != nil {
		return nil, err
	}
	b, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toDto(b), nil
}

func (s *Service) Debit(ctx context.Context, userID int64, amount decimal.Decimal) (*BalanceDto, error) {
	if !amount.IsPositive() {
		s.metrics.Debits.WithLabelValues(metrics.ResultInvalidAmount).Inc()
		return nil, paymenterrors.ErrInvalidAmount
	}
	if err := s.ensure(ctx, userID); err != nil {
		s.metrics.Debits.WithLabelValues(metrics.ResultError).Inc()
		return nil, err
	}

	b, err := s.store.Debit(ctx, userID, amount)
	if err != nil {
		s.metrics.Debits.WithLabelValues(debitResult(err)).Inc()
		if errors.Is(err, paymenterrors.ErrInsufficientFunds) || errors.Is(err, paymenterrors.ErrBalanceNotFound) {
			s.logger.InfoContext(ctx, "Debit rejected", "user_id", userID, "amount", amount, "reason", err)
		}
		return nil, err
	}

	s.metrics.Debits.WithLabelValues(metrics.ResultSuccess).Inc()
	s.metrics.DebitedAmount.Add(amount.InexactFloat64())
	s.logger.InfoContext(ctx, "Processed payment", "user_id", userID, "amount", amount, "new_balance", b.Amount)
	return toDto(b), nil
}

// ensure opens the starting balance for a user seen for the first time.
func (s *Service) ensure(ctx context.Context, userID int64) error {
	if !s.provision.Enabled {
		return nil
	}
	created, err := s.store.Create(ctx, userID, s.provision.Initial)
	if err != nil {
		return err
	}
	if created {
		s.metrics.ProvisionedUser.Inc()
		s.logger.InfoContext(ctx, "Balance provisioned", "user_id", userID, "balance", s.provision.Initial)
	}
	return nil
}

func debitResult(err error) string {
	switch {
	case errors.Is(err, paymenterrors.ErrInsufficientFunds):
		return metrics.ResultInsufficientFunds
	case errors.Is(err, paymenterrors.ErrBalanceNotFound):
		return metrics.ResultNotFound
	default:
		return metrics.ResultError
	}
}

func toDto(b *store.Balance) *BalanceDto {
	return &BalanceDto{ID: b.UserID, Balance: b.Amount}
}
