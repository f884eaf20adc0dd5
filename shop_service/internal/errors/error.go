// Package errors provides the error kinds of the shop service.
package errors

import "errors"

// Catalog and cart.
var ErrItemNotFound = errors.New("item not found")
var ErrFailedToFindItem = errors.New("failed to find item")
var ErrCartUpdate = errors.New("failed to update cart")
var ErrFailedToListCart = errors.New("failed to list cart")
var ErrCacheInvalidation = errors.New("failed to invalidate cart cache")

// Orders.
var ErrOrderNotFound = errors.New("order not found")
var ErrFailedToFindOrder = errors.New("failed to find order")
var ErrFailedToFindUserOrders = errors.New("failed to find user orders")
var ErrCreateOrder = errors.New("failed to create order")
var ErrCreateOrderLine = errors.New("failed to create order line")

// Checkout.
var ErrEmptyCart = errors.New("cart is empty, nothing to checkout")
var ErrInsufficientFunds = errors.New("insufficient funds")
var ErrBalanceNotFound = errors.New("balance not found")
var ErrPaymentUnavailable = errors.New("payment service unavailable")
var ErrOrderPersistFailedAfterDebit = errors.New("order could not be saved after the payment was taken")
var ErrCheckoutInProgress = errors.New("another checkout or cart update is in progress for this user")

var ErrTransactionBegin = errors.New("failed to begin transaction")
var ErrTransactionCommit = errors.New("failed to commit transaction")
var ErrTransactionRollback = errors.New("failed to rollback transaction")
