package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade records one execution between an incoming taker order and a
// resting maker order. The price is always the maker's price.
type Trade struct {
	ID          string
	Option      Option
	TakerOrder  string
	MakerOrder  string
	TakerUserID string
	MakerUserID string
	TakerSide   Side
	Price       decimal.Decimal
	Size        decimal.Decimal
	Timestamp   time.Time
}
