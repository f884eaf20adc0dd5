package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/abgdnv/gomarket/payment_service/internal/metrics"
	"github.com/abgdnv/gomarket/payment_service/internal/service"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/health"
)

type stubService struct{}

func (stubService) GetBalance(_ context.Context, userID int64) (*service.BalanceDto, error) {
	return &service.BalanceDto{ID: userID, Balance: decimal.NewFromInt(500)}, nil
}

func (stubService) Debit(_ context.Context, userID int64, amount decimal.Decimal) (*service.BalanceDto, error) {
	return &service.BalanceDto{ID: userID, Balance: decimal.NewFromInt(500).Sub(amount)}, nil
}

// scopedVerifier accepts any token and grants the given scope claim.
type scopedVerifier struct{ scope string }

func (v scopedVerifier) Verify(context.Context, string) (jwt.Token, error) {
	tok := jwt.New()
	if err := tok.Set("scope", v.scope); err != nil {
		return nil, err
	}
	return tok, nil
}

func newDeps(verifier *scopedVerifier) *Dependencies {
	deps := &Dependencies{
		PaymentService: stubService{},
		Scope:          DefaultScope,
		Registry:       prometheus.NewRegistry(),
		Health:         health.NewServer(),
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if verifier != nil {
		deps.Verifier = *verifier
	}
	_ = metrics.New(deps.Registry)
	return deps
}

func TestSetupHttpHandler(t *testing.T) {
	testCases := []struct {
		name         string
		verifier     *scopedVerifier
		method       string
		path         string
		body         string
		authHeader   string
		expectedCode int
	}{
		{name: "balance without idp", method: http.MethodGet, path: "/api/v1/balance?userId=1", expectedCode: http.StatusOK},
		{name: "payment without idp", method: http.MethodPost, path: "/api/v1/payment", body: `{"userId":1,"amount":"5"}`, expectedCode: http.StatusOK},
		{name: "missing token", verifier: &scopedVerifier{scope: "PAYMENT"}, method: http.MethodGet, path: "/api/v1/balance?userId=1", expectedCode: http.StatusUnauthorized},
		{name: "wrong scope", verifier: &scopedVerifier{scope: "profile"}, method: http.MethodGet, path: "/api/v1/balance?userId=1", authHeader: "Bearer t", expectedCode: http.StatusForbidden},
		{name: "granted scope", verifier: &scopedVerifier{scope: "openid PAYMENT"}, method: http.MethodGet, path: "/api/v1/balance?userId=1", authHeader: "Bearer t", expectedCode: http.StatusOK},
		{name: "health is public", verifier: &scopedVerifier{scope: "PAYMENT"}, method: http.MethodGet, path: "/healthz", expectedCode: http.StatusOK},
		{name: "metrics are public", verifier: &scopedVerifier{scope: "PAYMENT"}, method: http.MethodGet, path: "/metrics", expectedCode: http.StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			handler := SetupHttpHandler(newDeps(tc.verifier))
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rr := httptest.NewRecorder()

			// when
			handler.ServeHTTP(rr, req)

			// then
			require.Equal(t, tc.expectedCode, rr.Code, rr.Body.String())
		})
	}
}

func TestSetupHttpHandler_ExposesBusinessMetrics(t *testing.T) {
	// given
	handler := SetupHttpHandler(newDeps(nil))

	// when
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	// then
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "gomarket_payment_debited_amount_total")
}
