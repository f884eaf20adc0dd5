// Package rest provides the shop's HTTP API.
package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/gomarket/pkg/web"
	"github.com/abgdnv/gomarket/shop_service/internal/checkout"
	shoperrors "github.com/abgdnv/gomarket/shop_service/internal/errors"
	"github.com/abgdnv/gomarket/shop_service/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type Handler struct {
	carts    service.CartService
	items    service.ItemService
	orders   service.OrderService
	checkout checkout.Checkouter
	balance  service.BalanceReader
	validate *validator.Validate
	logger   *slog.Logger
}

// Services groups the use cases served over HTTP.
type Services struct {
	Carts    service.CartService
	Items    service.ItemService
	Orders   service.OrderService
	Checkout checkout.Checkouter
	Balance  service.BalanceReader
}

func NewHandler(s Services, logger *slog.Logger) *Handler {
	return &Handler{
		carts:    s.Carts,
		items:    s.Items,
		orders:   s.Orders,
		checkout: s.Checkout,
		balance:  s.Balance,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// CartItemRequest changes the quantity of one item in the cart.
type CartItemRequest struct {
	ItemID int64  `json:"item_id" validate:"required,gt=0"`
	Action string `json:"action" validate:"required,oneof=PLUS MINUS DELETE"`
}

type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

// RegisterRoutes registers the shop's HTTP routes.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(web.AuthMiddleware)
		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/items", h.UpdateCartItem)
			r.Post("/checkout", h.Checkout)
		})
		r.Get("/api/v1/items/{id}", h.GetItem)
		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Get("/", h.FindOrdersByUserID)
			r.Get("/{id}", h.FindOrderByID)
		})
		r.Get("/api/v1/balance", h.GetBalance)
	})
	r.Get("/healthz", h.HealthCheck)
}

// GetCart returns the cart lines, the total and whether the balance covers it.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}
	view, err := h.carts.View(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, mLogger, err, "Failed to fetch cart")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, view)
}

// UpdateCartItem applies PLUS, MINUS or DELETE to one cart line.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}
	var req CartItemRequest
	if !web.DecodeAndValidate(w, r, mLogger, h.validate, &req) {
		return
	}
	mLogger.DebugContext(r.Context(), "Received cart update", "item_id", req.ItemID, "action", req.Action)
	if err := h.carts.Apply(r.Context(), userID, req.ItemID, service.Action(req.Action)); err != nil {
		h.respondError(w, r, mLogger, err, "Failed to update cart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout pays for the cart and returns the new order.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}
	order, err := h.checkout.Checkout(r.Context(), userID)
	if err != nil {
		var checkoutErr *checkout.Error
		if errors.As(err, &checkoutErr) {
			mLogger = mLogger.With("checkout_state", checkoutErr.State)
		}
		h.respondError(w, r, mLogger, err, "Failed to place order")
		return
	}
	mLogger.InfoContext(r.Context(), "Order created successfully", "ID", order.ID)
	web.RespondJSON(w, mLogger, http.StatusCreated, order)
}

// GetItem returns an item with its quantity in the caller's cart.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}
	item, err := h.items.GetItem(r.Context(), userID, id)
	if err != nil {
		h.respondError(w, r, mLogger, err, fmt.Sprintf("Failed to retrieve item with ID %d", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, item)
}

// FindOrdersByUserID lists the caller's orders.
func (h *Handler) FindOrdersByUserID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}
	list, err := h.orders.FindOrdersByUserID(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, mLogger, err, "Failed to fetch orders")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved order list", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// FindOrderByID returns one of the caller's orders.
func (h *Handler) FindOrderByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}
	order, err := h.orders.FindByID(r.Context(), userID, id)
	if err != nil {
		h.respondError(w, r, mLogger, err, fmt.Sprintf("Failed to retrieve order with ID %d", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, order)
}

// GetBalance returns the caller's balance as reported by the payment service.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}
	balance, err := h.balance.GetBalance(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, mLogger, err, "Failed to fetch balance")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, BalanceResponse{Balance: balance})
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// respondError maps service errors to HTTP statuses. Unknown errors get fallback as the message.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback string) {
	ctx := r.Context()
	switch {
	case errors.Is(err, shoperrors.ErrEmptyCart):
		logger.InfoContext(ctx, "Checkout of empty cart")
		web.RespondError(w, logger, http.StatusBadRequest, "Cart is empty")
	case errors.Is(err, service.ErrUnknownAction):
		web.RespondError(w, logger, http.StatusBadRequest, "Unknown cart action")
	case errors.Is(err, shoperrors.ErrInsufficientFunds):
		logger.InfoContext(ctx, "Insufficient funds", "error", err)
		web.RespondError(w, logger, http.StatusPaymentRequired, "Insufficient funds")
	case errors.Is(err, shoperrors.ErrItemNotFound):
		logger.WarnContext(ctx, "Item not found", "error", err)
		web.RespondError(w, logger, http.StatusNotFound, "Item not found")
	case errors.Is(err, shoperrors.ErrOrderNotFound):
		logger.WarnContext(ctx, "Order not found", "error", err)
		web.RespondError(w, logger, http.StatusNotFound, "Order not found")
	case errors.Is(err, shoperrors.ErrBalanceNotFound):
		web.RespondError(w, logger, http.StatusNotFound, "Balance not found")
	case errors.Is(err, shoperrors.ErrCheckoutInProgress):
		logger.WarnContext(ctx, "Checkout in progress", "error", err)
		web.RespondError(w, logger, http.StatusConflict, "Checkout in progress, try again later")
	case errors.Is(err, shoperrors.ErrPaymentUnavailable):
		logger.WarnContext(ctx, "Payment service unavailable", "error", err)
		web.RespondError(w, logger, http.StatusServiceUnavailable, "Payment service unavailable, try again later")
	case errors.Is(err, shoperrors.ErrCacheInvalidation):
		logger.ErrorContext(ctx, "Cart cache invalidation failed", "error", err)
		web.RespondError(w, logger, http.StatusServiceUnavailable, "Cart temporarily unavailable, try again later")
	case errors.Is(err, shoperrors.ErrOrderPersistFailedAfterDebit):
		// Already logged for reconciliation; the caller only gets a generic message.
		web.RespondError(w, logger, http.StatusInternalServerError, "Failed to place order")
	default:
		logger.ErrorContext(ctx, fallback, "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, fallback)
	}
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, _ := web.GetRequestID(r.Context())
	return h.logger.With("request_id", reqID)
}
