package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Level aggregates resting orders at one price.
type Level struct {
	Price  decimal.Decimal `json:"price"`
	Size   decimal.Decimal `json:"size"`
	Orders int             `json:"orders"`
}

// BookSnapshot is a point-in-time copy of one outcome's book, bids and
// asks ordered by queue priority.
type BookSnapshot struct {
	Option    Option    `json:"option"`
	Bids      []Level   `json:"bids"`
	Asks      []Level   `json:"asks"`
	Timestamp time.Time `json:"timestamp"`
}

// DeepCopy returns an independent copy of the snapshot.
func (s *BookSnapshot) DeepCopy() *BookSnapshot {
	out := &BookSnapshot{Option: s.Option, Timestamp: s.Timestamp}
	out.Bids = append([]Level(nil), s.Bids...)
	out.Asks = append([]Level(nil), s.Asks...)
	return out
}

// Quote carries best bid/ask derived values for one outcome. Spread is
// only meaningful when both sides of the book are populated.
type Quote struct {
	Option    Option          `json:"option"`
	BestBid   decimal.Decimal `json:"best_bid"`
	HasBid    bool            `json:"has_bid"`
	BestAsk   decimal.Decimal `json:"best_ask"`
	HasAsk    bool            `json:"has_ask"`
	Spread    decimal.Decimal `json:"spread"`
	HasSpread bool            `json:"has_spread"`
	Mid       decimal.Decimal `json:"mid"`
}
