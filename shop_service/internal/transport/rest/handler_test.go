package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abgdnv/gomarket/pkg/web"
	"github.com/abgdnv/gomarket/shop_service/internal/checkout"
	"github.com/abgdnv/gomarket/shop_service/internal/domain"
	shoperrors "github.com/abgdnv/gomarket/shop_service/internal/errors"
	"github.com/abgdnv/gomarket/shop_service/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCartService struct {
	view    *service.CartView
	err     error
	applied []service.Action
}

func (m *mockCartService) Apply(_ context.Context, _, _ int64, action service.Action) error {
	if m.err != nil {
		return m.err
	}
	m.applied = append(m.applied, action)
	return nil
}

func (m *mockCartService) List(context.Context, int64) ([]domain.PricedLine, error) {
	return nil, m.err
}

func (m *mockCartService) View(context.Context, int64) (*service.CartView, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.view, nil
}

func (m *mockCartService) Clear(context.Context, int64) error {
	return m.err
}

type mockItemService struct {
	item *service.ItemView
	err  error
}

func (m *mockItemService) GetItem(context.Context, int64, int64) (*service.ItemView, error) {
	return m.item, m.err
}

type mockOrderService struct {
	order  *domain.Order
	orders []domain.Order
	err    error
}

func (m *mockOrderService) FindOrdersByUserID(context.Context, int64) ([]domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.orders, nil
}

func (m *mockOrderService) FindByID(context.Context, int64, int64) (*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

type mockCheckouter struct {
	order *domain.Order
	err   error
}

func (m *mockCheckouter) Checkout(context.Context, int64) (*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

type mockBalance struct {
	balance decimal.Decimal
	err     error
}

func (m mockBalance) GetBalance(context.Context, int64) (decimal.Decimal, error) {
	return m.balance, m.err
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ValidationErrorResponse struct {
	ValidationErrors map[string]string `json:"validation_errors"`
}

// toJSON is a helper function to convert a struct to JSON string
func toJSON(t *testing.T, v any) string {
	t.Helper()
	bytes, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal to JSON: %v", err)
	}
	return string(bytes)
}

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

func newRouter(s Services) *chi.Mux {
	r := chi.NewRouter()
	NewHandler(s, testLogger).RegisterRoutes(r)
	return r
}

func withUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(web.WithUserID(req.Context(), userID))
}

func Test_ShopAPI_Checkout(t *testing.T) {
	createdAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	order := &domain.Order{
		ID:        9,
		UserID:    1,
		TotalSum:  decimal.NewFromInt(35),
		CreatedAt: createdAt,
		Lines: []domain.OrderLine{
			{ID: 1, OrderID: 9, Title: "ball", UnitPrice: decimal.NewFromInt(10), Quantity: 2},
			{ID: 2, OrderID: 9, Title: "shoes", UnitPrice: decimal.NewFromInt(15), Quantity: 1},
		},
	}
	testCases := []struct {
		name         string
		checkouter   *mockCheckouter
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success - order created",
			checkouter:   &mockCheckouter{order: order},
			expectedCode: http.StatusCreated,
			expectedBody: toJSON(t, order),
		},
		{
			name:         "Error - empty cart",
			checkouter:   &mockCheckouter{err: &checkout.Error{State: checkout.StateDrainingCart, Err: shoperrors.ErrEmptyCart}},
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Cart is empty"}),
		},
		{
			name:         "Error - insufficient funds",
			checkouter:   &mockCheckouter{err: &checkout.Error{State: checkout.StateDebiting, Err: shoperrors.ErrInsufficientFunds}},
			expectedCode: http.StatusPaymentRequired,
			expectedBody: toJSON(t, ErrorResponse{Error: "Insufficient funds"}),
		},
		{
			name:         "Error - checkout in progress",
			checkouter:   &mockCheckouter{err: &checkout.Error{State: checkout.StateDrainingCart, Err: shoperrors.ErrCheckoutInProgress}},
			expectedCode: http.StatusConflict,
			expectedBody: toJSON(t, ErrorResponse{Error: "Checkout in progress, try again later"}),
		},
		{
			name:         "Error - payment unavailable",
			checkouter:   &mockCheckouter{err: &checkout.Error{State: checkout.StateDebiting, Err: shoperrors.ErrPaymentUnavailable}},
			expectedCode: http.StatusServiceUnavailable,
			expectedBody: toJSON(t, ErrorResponse{Error: "Payment service unavailable, try again later"}),
		},
		{
			name: "Error - order lost after debit",
			checkouter: &mockCheckouter{err: &checkout.Error{
				State: checkout.StatePersistingOrder,
				Err:   fmt.Errorf("%w: %w", shoperrors.ErrOrderPersistFailedAfterDebit, errors.New("connection reset")),
			}},
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Failed to place order"}),
		},
		{
			name:         "Error - unexpected",
			checkouter:   &mockCheckouter{err: errors.New("boom")},
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Failed to place order"}),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			api := NewHandler(Services{Checkout: tc.checkouter}, testLogger)
			req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/cart/checkout", nil), "1")
			rr := httptest.NewRecorder()

			// when
			api.Checkout(rr, req)

			// then
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Equal(t, tc.expectedCode, rr.Code, "status code should match")
			assert.JSONEq(t, tc.expectedBody, rr.Body.String(), "response body should match")
		})
	}
}

func Test_ShopAPI_UpdateCartItem(t *testing.T) {
	testCases := []struct {
		name          string
		body          string
		cartErr       error
		expectedCode  int
		expectedBody  string
		expectApplied []service.Action
	}{
		{
			name:          "Success - plus",
			body:          `{"item_id": 1, "action": "PLUS"}`,
			expectedCode:  http.StatusNoContent,
			expectApplied: []service.Action{service.ActionPlus},
		},
		{
			name:          "Success - delete",
			body:          `{"item_id": 1, "action": "DELETE"}`,
			expectedCode:  http.StatusNoContent,
			expectApplied: []service.Action{service.ActionDelete},
		},
		{
			name:         "Error - unknown action",
			body:         `{"item_id": 1, "action": "TWICE"}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ValidationErrorResponse{ValidationErrors: map[string]string{"Action": "failed on rule: oneof"}}),
		},
		{
			name:         "Error - missing item",
			body:         `{"action": "PLUS"}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ValidationErrorResponse{ValidationErrors: map[string]string{"ItemID": "failed on rule: required"}}),
		},
		{
			name:         "Error - invalid json",
			body:         `{"item_id": `,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid request body"}),
		},
		{
			name:         "Error - item not found",
			body:         `{"item_id": 99, "action": "PLUS"}`,
			cartErr:      shoperrors.ErrItemNotFound,
			expectedCode: http.StatusNotFound,
			expectedBody: toJSON(t, ErrorResponse{Error: "Item not found"}),
		},
		{
			name:         "Error - cart busy",
			body:         `{"item_id": 1, "action": "MINUS"}`,
			cartErr:      shoperrors.ErrCheckoutInProgress,
			expectedCode: http.StatusConflict,
			expectedBody: toJSON(t, ErrorResponse{Error: "Checkout in progress, try again later"}),
		},
		{
			name:         "Error - cache invalidation",
			body:         `{"item_id": 1, "action": "PLUS"}`,
			cartErr:      shoperrors.ErrCacheInvalidation,
			expectedCode: http.StatusServiceUnavailable,
			expectedBody: toJSON(t, ErrorResponse{Error: "Cart temporarily unavailable, try again later"}),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			carts := &mockCartService{err: tc.cartErr}
			api := NewHandler(Services{Carts: carts}, testLogger)
			req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(tc.body)), "1")
			rr := httptest.NewRecorder()

			// when
			api.UpdateCartItem(rr, req)

			// then
			assert.Equal(t, tc.expectedCode, rr.Code, "status code should match")
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String(), "response body should match")
			}
			assert.Equal(t, tc.expectApplied, carts.applied)
		})
	}
}

func Test_ShopAPI_GetCart(t *testing.T) {
	enough := false
	view := &service.CartView{
		Items:       []domain.PricedLine{{ItemID: 1, Title: "ball", UnitPrice: decimal.NewFromInt(10), Quantity: 1}},
		Total:       decimal.NewFromInt(10),
		MoneyEnough: &enough,
	}
	testCases := []struct {
		name         string
		carts        *mockCartService
		userID       string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success",
			carts:        &mockCartService{view: view},
			userID:       "1",
			expectedCode: http.StatusOK,
			expectedBody: `{"items":[{"item_id":1,"title":"ball","description":"","img_path":"","unit_price":"10","quantity":1}],"total":"10","money_enough":false}`,
		},
		{
			name:         "Error - missing user",
			carts:        &mockCartService{view: view},
			expectedCode: http.StatusUnauthorized,
			expectedBody: toJSON(t, ErrorResponse{Error: "Unauthorized: Missing or invalid user ID"}),
		},
		{
			name:         "Error - invalid user",
			carts:        &mockCartService{view: view},
			userID:       "abc",
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid user ID: abc"}),
		},
		{
			name:         "Error - store failure",
			carts:        &mockCartService{err: shoperrors.ErrFailedToListCart},
			userID:       "1",
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Failed to fetch cart"}),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			api := NewHandler(Services{Carts: tc.carts}, testLogger)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
			if tc.userID != "" {
				req = withUser(req, tc.userID)
			}
			rr := httptest.NewRecorder()

			// when
			api.GetCart(rr, req)

			// then
			assert.Equal(t, tc.expectedCode, rr.Code, "status code should match")
			assert.JSONEq(t, tc.expectedBody, rr.Body.String(), "response body should match")
		})
	}
}

func Test_ShopAPI_GetItem(t *testing.T) {
	item := &service.ItemView{Item: domain.Item{ID: 1, Title: "ball", Price: decimal.NewFromInt(10)}, Count: 2}
	testCases := []struct {
		name         string
		items        *mockItemService
		itemID       string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success",
			items:        &mockItemService{item: item},
			itemID:       "1",
			expectedCode: http.StatusOK,
			expectedBody: toJSON(t, item),
		},
		{
			name:         "Error - invalid id",
			items:        &mockItemService{item: item},
			itemID:       "x1",
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid ID: x1"}),
		},
		{
			name:         "Error - not found",
			items:        &mockItemService{err: shoperrors.ErrItemNotFound},
			itemID:       "5",
			expectedCode: http.StatusNotFound,
			expectedBody: toJSON(t, ErrorResponse{Error: "Item not found"}),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			api := NewHandler(Services{Items: tc.items}, testLogger)
			req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/items/"+tc.itemID, nil), "1")
			req.SetPathValue("id", tc.itemID)
			rr := httptest.NewRecorder()

			// when
			api.GetItem(rr, req)

			// then
			assert.Equal(t, tc.expectedCode, rr.Code, "status code should match")
			assert.JSONEq(t, tc.expectedBody, rr.Body.String(), "response body should match")
		})
	}
}

func Test_ShopAPI_Orders(t *testing.T) {
	order := domain.Order{ID: 3, UserID: 1, TotalSum: decimal.NewFromInt(10), Lines: []domain.OrderLine{}}
	testCases := []struct {
		name         string
		orders       *mockOrderService
		path         string
		id           string
		handler      func(h *Handler) http.HandlerFunc
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success - list",
			orders:       &mockOrderService{orders: []domain.Order{order}},
			path:         "/api/v1/orders",
			handler:      func(h *Handler) http.HandlerFunc { return h.FindOrdersByUserID },
			expectedCode: http.StatusOK,
			expectedBody: toJSON(t, []domain.Order{order}),
		},
		{
			name:         "Success - empty list",
			orders:       &mockOrderService{orders: []domain.Order{}},
			path:         "/api/v1/orders",
			handler:      func(h *Handler) http.HandlerFunc { return h.FindOrdersByUserID },
			expectedCode: http.StatusOK,
			expectedBody: `[]`,
		},
		{
			name:         "Success - by id",
			orders:       &mockOrderService{order: &order},
			path:         "/api/v1/orders/3",
			id:           "3",
			handler:      func(h *Handler) http.HandlerFunc { return h.FindOrderByID },
			expectedCode: http.StatusOK,
			expectedBody: toJSON(t, order),
		},
		{
			name:         "Error - order of another user",
			orders:       &mockOrderService{err: shoperrors.ErrOrderNotFound},
			path:         "/api/v1/orders/4",
			id:           "4",
			handler:      func(h *Handler) http.HandlerFunc { return h.FindOrderByID },
			expectedCode: http.StatusNotFound,
			expectedBody: toJSON(t, ErrorResponse{Error: "Order not found"}),
		},
		{
			name:         "Error - store failure",
			orders:       &mockOrderService{err: shoperrors.ErrFailedToFindUserOrders},
			path:         "/api/v1/orders",
			handler:      func(h *Handler) http.HandlerFunc { return h.FindOrdersByUserID },
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Failed to fetch orders"}),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			api := NewHandler(Services{Orders: tc.orders}, testLogger)
			req := withUser(httptest.NewRequest(http.MethodGet, tc.path, nil), "1")
			if tc.id != "" {
				req.SetPathValue("id", tc.id)
			}
			rr := httptest.NewRecorder()

			// when
			tc.handler(api)(rr, req)

			// then
			assert.Equal(t, tc.expectedCode, rr.Code, "status code should match")
			assert.JSONEq(t, tc.expectedBody, rr.Body.String(), "response body should match")
		})
	}
}

func Test_ShopAPI_GetBalance(t *testing.T) {
	testCases := []struct {
		name         string
		balance      mockBalance
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success",
			balance:      mockBalance{balance: decimal.RequireFromString("499.50")},
			expectedCode: http.StatusOK,
			expectedBody: `{"balance":"499.5"}`,
		},
		{
			name:         "Error - payment service down",
			balance:      mockBalance{err: shoperrors.ErrPaymentUnavailable},
			expectedCode: http.StatusServiceUnavailable,
			expectedBody: toJSON(t, ErrorResponse{Error: "Payment service unavailable, try again later"}),
		},
		{
			name:         "Error - unknown user",
			balance:      mockBalance{err: shoperrors.ErrBalanceNotFound},
			expectedCode: http.StatusNotFound,
			expectedBody: toJSON(t, ErrorResponse{Error: "Balance not found"}),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			api := NewHandler(Services{Balance: tc.balance}, testLogger)
			req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil), "1")
			rr := httptest.NewRecorder()

			// when
			api.GetBalance(rr, req)

			// then
			assert.Equal(t, tc.expectedCode, rr.Code, "status code should match")
			assert.JSONEq(t, tc.expectedBody, rr.Body.String(), "response body should match")
		})
	}
}

func Test_ShopAPI_Routes(t *testing.T) {
	router := newRouter(Services{
		Carts:    &mockCartService{view: &service.CartView{Items: []domain.PricedLine{}}},
		Items:    &mockItemService{item: &service.ItemView{Item: domain.Item{ID: 7}}},
		Orders:   &mockOrderService{orders: []domain.Order{}, order: &domain.Order{ID: 2}},
		Checkout: &mockCheckouter{order: &domain.Order{ID: 2}},
		Balance:  mockBalance{balance: decimal.NewFromInt(1)},
	})
	testCases := []struct {
		method       string
		path         string
		body         string
		userHeader   bool
		expectedCode int
	}{
		{method: http.MethodGet, path: "/healthz", expectedCode: http.StatusOK},
		{method: http.MethodGet, path: "/api/v1/cart", expectedCode: http.StatusUnauthorized},
		{method: http.MethodGet, path: "/api/v1/cart", userHeader: true, expectedCode: http.StatusOK},
		{method: http.MethodPost, path: "/api/v1/cart/items", body: `{"item_id":7,"action":"PLUS"}`, userHeader: true, expectedCode: http.StatusNoContent},
		{method: http.MethodPost, path: "/api/v1/cart/checkout", userHeader: true, expectedCode: http.StatusCreated},
		{method: http.MethodGet, path: "/api/v1/items/7", userHeader: true, expectedCode: http.StatusOK},
		{method: http.MethodGet, path: "/api/v1/orders", userHeader: true, expectedCode: http.StatusOK},
		{method: http.MethodGet, path: "/api/v1/orders/2", userHeader: true, expectedCode: http.StatusOK},
		{method: http.MethodGet, path: "/api/v1/balance", userHeader: true, expectedCode: http.StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			// given
			var body io.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}
			req := httptest.NewRequest(tc.method, tc.path, body)
			if tc.userHeader {
				req.Header.Set(web.XUserId, "1")
			}
			rr := httptest.NewRecorder()

			// when
			router.ServeHTTP(rr, req)

			// then
			require.Equal(t, tc.expectedCode, rr.Code, rr.Body.String())
		})
	}
}
