// Package rest provides the payment service's HTTP API.
package rest

import (
	"errors"
	"log/slog"
	"net/http"

	paymenterrors "github.com/abgdnv/gomarket/payment_service/internal/errors"
	"github.com/abgdnv/gomarket/payment_service/internal/service"
	"github.com/abgdnv/gomarket/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type Handler struct {
	service  service.PaymentService
	auth     func(http.Handler) http.Handler
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates the payment handler. auth guards the API routes and may be nil.
func NewHandler(s service.PaymentService, auth func(http.Handler) http.Handler, logger *slog.Logger) *Handler {
	return &Handler{
		service:  s,
		auth:     auth,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// PaymentRequest debits Amount from the balance of UserID.
type PaymentRequest struct {
	UserID int64           `json:"userId" validate:"required,gt=0"`
	Amount decimal.Decimal `json:"amount"`
}

// RegisterRoutes registers the payment routes.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		if h.auth != nil {
			r.Use(h.auth)
		}
		r.Get("/api/v1/balance", h.GetBalance)
		r.Post("/api/v1/payment", h.Debit)
	})
	r.Get("/healthz", h.HealthCheck)
}

// GetBalance returns the balance of the user named by the userId query parameter.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.ParseQueryID(w, r, mLogger, "userId")
	if !ok {
		return
	}
	b, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, mLogger, err, "Failed to get balance")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, b)
}

// Debit takes the requested amount from the user's balance.
func (h *Handler) Debit(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req PaymentRequest
	if !web.DecodeAndValidate(w, r, mLogger, h.validate, &req) {
		return
	}
	b, err := h.service.Debit(r.Context(), req.UserID, req.Amount)
	if err != nil {
		h.respondError(w, r, mLogger, err, "Failed to process payment")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, b)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, paymenterrors.ErrInsufficientFunds):
		web.RespondErrorCode(w, logger, http.StatusBadRequest, "Insufficient funds")
	case errors.Is(err, paymenterrors.ErrInvalidAmount):
		web.RespondErrorCode(w, logger, http.StatusBadRequest, "Amount must be greater than zero")
	case errors.Is(err, paymenterrors.ErrBalanceNotFound):
		web.RespondErrorCode(w, logger, http.StatusNotFound, "Balance not found")
	default:
		logger.ErrorContext(r.Context(), fallback, "error", err)
		web.RespondErrorCode(w, logger, http.StatusInternalServerError, fallback)
	}
}

func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	if reqID, ok := web.GetRequestID(r.Context()); ok {
		return h.logger.With("request_id", reqID)
	}
	return h.logger
}
