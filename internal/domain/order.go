package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Option string
type Side string
type OrderType string
type OrderStatus string

const (
	Yes Option = "YES"
	No  Option = "NO"

	Buy  Side = "BUY"
	Sell Side = "SELL"

	Limit  OrderType = "LIMIT"
	Market OrderType = "MARKET"

	Open            OrderStatus = "OPEN"
	PartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	Filled          OrderStatus = "FILLED"
	Cancelled       OrderStatus = "CANCELLED"
)

// Order is a single resting or incoming order on one of the two outcome
// books. The matching engine mutates Remaining and Status in place; all
// other fields are fixed at submission time.
type Order struct {
	ID        string
	UserID    string
	Option    Option
	Side      Side
	Type      OrderType
	Price     decimal.Decimal // in (0,1) for limit orders, zero for market orders
	Quantity  decimal.Decimal
	Remaining decimal.Decimal
	Status    OrderStatus
	CreatedAt time.Time
	Sequence  int64 // tiebreak for orders created within one clock tick
}

// Fill reduces the remaining size after an execution and advances the
// status. The amount must be positive and must not exceed Remaining.
func (o *Order) Fill(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: fill amount %s is not positive", ErrInvalidFill, amount)
	}
	if amount.GreaterThan(o.Remaining) {
		return fmt.Errorf("%w: fill amount %s exceeds remaining %s", ErrInvalidFill, amount, o.Remaining)
	}
	o.Remaining = o.Remaining.Sub(amount)
	if o.Remaining.IsZero() {
		o.Status = Filled
	} else {
		o.Status = PartiallyFilled
	}
	return nil
}

// Cancel marks the order cancelled. Filled or already cancelled orders
// cannot be cancelled again; the caller is expected to check first.
func (o *Order) Cancel() error {
	if o.Status != Open && o.Status != PartiallyFilled {
		return fmt.Errorf("%w: cannot cancel order in status %s", ErrInvalidState, o.Status)
	}
	o.Status = Cancelled
	return nil
}

// Active reports whether the order still carries size on the book.
func (o *Order) Active() bool {
	return o.Status == Open || o.Status == PartiallyFilled
}

// Opposite returns the matching counterparty side.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}
