package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type Option string

const (
	Yes Option = "YES"
	No  Option = "NO"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

type SubmitLimitOrderRequest struct {
	UserID string          `json:"user_id" binding:"required"`
	Option Option          `json:"option" binding:"required"`
	Side   Side            `json:"side" binding:"required"`
	Price  decimal.Decimal `json:"price" binding:"required"`
	Size   decimal.Decimal `json:"size" binding:"required"`
}

type SubmitMarketOrderRequest struct {
	UserID string          `json:"user_id" binding:"required"`
	Option Option          `json:"option" binding:"required"`
	Side   Side            `json:"side" binding:"required"`
	Size   decimal.Decimal `json:"size" binding:"required"`
}

type SubmitOrderResponse struct {
	OrderID   string          `json:"order_id"`
	Status    string          `json:"status"`
	Remaining decimal.Decimal `json:"remaining"`
	Unfilled  decimal.Decimal `json:"unfilled"`
	Trades    []Trade         `json:"trades"`
	Warning   string          `json:"warning,omitempty"`
}

type CancelOrderRequest struct {
	OrderID string `json:"order_id" binding:"required"`
}

type CancelOrderResponse struct {
	OrderID   string `json:"order_id"`
	Cancelled bool   `json:"cancelled"`
}

type ResolveRequest struct {
	Outcome Option `json:"outcome" binding:"required"`
}

type ResolveResponse struct {
	Outcome  Option `json:"outcome"`
	Resolved bool   `json:"resolved"`
}

type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Option    Option          `json:"option"`
	Side      Side            `json:"side"`
	Type      string          `json:"type"`
	Price     decimal.Decimal `json:"price"`
	Size      decimal.Decimal `json:"size"`
	Remaining decimal.Decimal `json:"remaining"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

type Trade struct {
	ID         string          `json:"id"`
	Option     Option          `json:"option"`
	TakerOrder string          `json:"taker_order"`
	MakerOrder string          `json:"maker_order"`
	TakerSide  Side            `json:"taker_side"`
	Price      decimal.Decimal `json:"price"`
	Size       decimal.Decimal `json:"size"`
	Timestamp  time.Time       `json:"timestamp"`
}

type MarketStatusResponse struct {
	Question    string          `json:"question"`
	Expiry      time.Time       `json:"expiry"`
	Resolved    bool            `json:"resolved"`
	Outcome     Option          `json:"outcome,omitempty"`
	Probability decimal.Decimal `json:"probability"`
	Yes         Quote           `json:"yes"`
	No          Quote           `json:"no"`
}

type Quote struct {
	BestBid *decimal.Decimal `json:"best_bid"`
	BestAsk *decimal.Decimal `json:"best_ask"`
	Spread  *decimal.Decimal `json:"spread"`
	Mid     decimal.Decimal  `json:"mid"`
}
