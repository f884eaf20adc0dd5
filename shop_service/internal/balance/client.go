// Package balance is the HTTP client of the payment service.
package balance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/abgdnv/gomarket/pkg/config"
	"github.com/abgdnv/gomarket/pkg/resilience"
	"github.com/abgdnv/gomarket/pkg/web"
	shoperrors "github.com/abgdnv/gomarket/shop_service/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	balancePath = "/api/v1/balance"
	paymentPath = "/api/v1/payment"
)

// Client talks to the payment service. Calls are never retried.
// Business rejections are ErrInsufficientFunds and ErrBalanceNotFound; everything else is ErrPaymentUnavailable.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[BalanceResponse]
	logger  *slog.Logger
}

// BalanceResponse is the payment service's balance representation.
type BalanceResponse struct {
	ID      int64           `json:"id"`
	Balance decimal.Decimal `json:"balance"`
}

type paymentRequest struct {
	UserID int64           `json:"userId"`
	Amount decimal.Decimal `json:"amount"`
}

// errServer marks failures that count against the circuit breaker.
var errServer = errors.New("payment service failure")

func NewClient(cfg config.HTTPClientConfig, cbCfg config.CircuitBreakerConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		timeout: cfg.Timeout,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cb:     resilience.NewCircuitBreaker[BalanceResponse]("payment-service-cb", cbCfg, isSuccessful),
		logger: logger.With("component", "balance-client"),
	}
}

// isSuccessful keeps business rejections from tripping the breaker.
func isSuccessful(err error) bool {
	return err == nil || !errors.Is(err, errServer)
}

// GetBalance returns the user's current balance.
func (c *Client) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	u := c.baseURL + balancePath + "?" + url.Values{"userId": {strconv.FormatInt(userID, 10)}}.Encode()
	resp, err := c.execute(ctx, http.MethodGet, u, nil)
	if err != nil {
		return decimal.Zero, err
	}
	return resp.Balance, nil
}

// Debit takes amount from the user's balance and returns the new balance.
func (c *Client) Debit(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	body, err := json.Marshal(paymentRequest{UserID: userID, Amount: amount})
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: encode request: %w", shoperrors.ErrPaymentUnavailable, err)
	}
	resp, err := c.execute(ctx, http.MethodPost, c.baseURL+paymentPath, body)
	if err != nil {
		return decimal.Zero, err
	}
	return resp.Balance, nil
}

func (c *Client) execute(ctx context.Context, method, u string, body []byte) (BalanceResponse, error) {
	resp, err := c.cb.Execute(func() (BalanceResponse, error) {
		return c.do(ctx, method, u, body)
	})
	if err == nil {
		return resp, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.WarnContext(ctx, "Payment service circuit breaker rejected call", "error", err)
		return BalanceResponse{}, fmt.Errorf("%w: %w", shoperrors.ErrPaymentUnavailable, err)
	}
	return BalanceResponse{}, err
}

func (c *Client) do(ctx context.Context, method, u string, body []byte) (BalanceResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return BalanceResponse{}, fmt.Errorf("%w: build request: %w", shoperrors.ErrPaymentUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return BalanceResponse{}, fmt.Errorf("%w: %w: %w", shoperrors.ErrPaymentUnavailable, errServer, err)
	}
	defer func() { _ = res.Body.Close() }()

	switch {
	case res.StatusCode == http.StatusOK:
		var out BalanceResponse
		if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
			return BalanceResponse{}, fmt.Errorf("%w: %w: decode response: %w", shoperrors.ErrPaymentUnavailable, errServer, err)
		}
		return out, nil
	case res.StatusCode == http.StatusBadRequest:
		return BalanceResponse{}, fmt.Errorf("%w: %s", shoperrors.ErrInsufficientFunds, errorMessage(res.Body))
	case res.StatusCode == http.StatusNotFound:
		return BalanceResponse{}, fmt.Errorf("%w: %s", shoperrors.ErrBalanceNotFound, errorMessage(res.Body))
	case res.StatusCode >= http.StatusInternalServerError:
		return BalanceResponse{}, fmt.Errorf("%w: %w: status %d: %s", shoperrors.ErrPaymentUnavailable, errServer, res.StatusCode, errorMessage(res.Body))
	default:
		// Auth and other client errors are configuration problems, not a user outcome.
		return BalanceResponse{}, fmt.Errorf("%w: status %d: %s", shoperrors.ErrPaymentUnavailable, res.StatusCode, errorMessage(res.Body))
	}
}

func errorMessage(r io.Reader) string {
	var payload web.ErrorPayload
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&payload); err != nil || payload.Error == "" {
		return "no error message"
	}
	return payload.Error
}
