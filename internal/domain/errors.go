package domain

import "errors"

var (
	// ErrInvalidOrder rejects a malformed submission before it touches the book.
	ErrInvalidOrder = errors.New("invalid order")
	// ErrInvalidFill means the engine asked an order to fill an impossible amount.
	ErrInvalidFill = errors.New("invalid fill")
	// ErrInvalidState means a lifecycle transition was attempted on a terminal order.
	ErrInvalidState = errors.New("invalid order state")
	// ErrOrderNotFound means the cancel target is absent from every queue or already terminal.
	ErrOrderNotFound = errors.New("order not found")
	// ErrMarketResolved rejects trading on a market whose outcome is already decided.
	ErrMarketResolved = errors.New("market already resolved")
)
