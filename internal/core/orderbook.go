package core

import (
	"github.com/google/btree"
	"github.com/shopspring/decimal"

	"github.com/predictive-exchange/binary-market/internal/domain"
)

// level is one price level: a FIFO queue of resting orders sharing a price
// plus the running total of their remaining size.
type level struct {
	price  decimal.Decimal
	orders []*domain.Order
	size   decimal.Decimal
}

// sideBook holds the price levels for one side of one outcome's book. The
// tree is ordered so that Min() is always the best level: highest price
// for bids, lowest for asks.
type sideBook struct {
	levels *btree.BTreeG[*level]
}

func newSideBook(side domain.Side) *sideBook {
	less := func(a, b *level) bool { return a.price.LessThan(b.price) }
	if side == domain.Buy {
		less = func(a, b *level) bool { return a.price.GreaterThan(b.price) }
	}
	return &sideBook{levels: btree.NewG(8, less)}
}

func (sb *sideBook) add(o *domain.Order) {
	lvl, ok := sb.levels.Get(&level{price: o.Price})
	if !ok {
		lvl = &level{price: o.Price}
		sb.levels.ReplaceOrInsert(lvl)
	}
	lvl.orders = append(lvl.orders, o)
	lvl.size = lvl.size.Add(o.Remaining)
}

// best returns the front price level, if any.
func (sb *sideBook) best() (*level, bool) {
	return sb.levels.Min()
}

// popFront drops the first order of a level, deleting the level once empty.
func (sb *sideBook) popFront(lvl *level) {
	lvl.orders = lvl.orders[1:]
	if len(lvl.orders) == 0 {
		sb.levels.Delete(lvl)
	}
}

// remove deletes a specific resting order. It reports false when the order
// is not on this side of the book.
func (sb *sideBook) remove(o *domain.Order) bool {
	lvl, ok := sb.levels.Get(&level{price: o.Price})
	if !ok {
		return false
	}
	for i, resting := range lvl.orders {
		if resting.ID != o.ID {
			continue
		}
		lvl.orders = append(lvl.orders[:i], lvl.orders[i+1:]...)
		lvl.size = lvl.size.Sub(o.Remaining)
		if len(lvl.orders) == 0 {
			sb.levels.Delete(lvl)
		}
		return true
	}
	return false
}

// snapshot walks the levels best-first and aggregates them.
func (sb *sideBook) snapshot() []domain.Level {
	out := make([]domain.Level, 0, sb.levels.Len())
	sb.levels.Ascend(func(lvl *level) bool {
		out = append(out, domain.Level{Price: lvl.price, Size: lvl.size, Orders: len(lvl.orders)})
		return true
	})
	return out
}

func (sb *sideBook) totalRemaining() decimal.Decimal {
	total := decimal.Zero
	sb.levels.Ascend(func(lvl *level) bool {
		total = total.Add(lvl.size)
		return true
	})
	return total
}

// book is the pair of queues for a single outcome. The YES and NO books
// never cross each other; each is an independent CLOB.
type book struct {
	option domain.Option
	bids   *sideBook
	asks   *sideBook
}

func newBook(option domain.Option) *book {
	return &book{
		option: option,
		bids:   newSideBook(domain.Buy),
		asks:   newSideBook(domain.Sell),
	}
}

func (b *book) side(s domain.Side) *sideBook {
	if s == domain.Buy {
		return b.bids
	}
	return b.asks
}
