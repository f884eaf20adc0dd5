// Package errors provides the error kinds of the payment service.
package errors

import "errors"

var ErrBalanceNotFound = errors.New("balance not found")
var ErrInsufficientFunds = errors.New("insufficient funds")
var ErrInvalidAmount = errors.New("amount must be greater than zero")

var ErrFailedToGetBalance = errors.New("failed to get balance")
var ErrFailedToCreateBalance = errors.New("failed to create balance")
var ErrFailedToDebit = errors.New("failed to debit balance")
