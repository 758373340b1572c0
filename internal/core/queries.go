package core

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/predictive-exchange/binary-market/internal/domain"
)

// BestBid returns the highest resting BUY price for an outcome. The
// second return is false when no bids rest.
func (m *Market) BestBid(option domain.Option) (decimal.Decimal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return bestPrice(m.books[option].bids)
}

// BestAsk returns the lowest resting SELL price for an outcome.
func (m *Market) BestAsk(option domain.Option) (decimal.Decimal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return bestPrice(m.books[option].asks)
}

// Spread is best ask minus best bid; undefined (false) when either side
// of the book is empty.
func (m *Market) Spread(option domain.Option) (decimal.Decimal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bid, okBid := bestPrice(m.books[option].bids)
	ask, okAsk := bestPrice(m.books[option].asks)
	if !okBid || !okAsk {
		return decimal.Zero, false
	}
	return ask.Sub(bid), true
}

// MidPrice averages best bid and ask, substituting 0 and 1 for missing
// sides. An entirely empty book reads as 0.5.
func (m *Market) MidPrice(option domain.Option) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.midLocked(option)
}

func (m *Market) midLocked(option domain.Option) decimal.Decimal {
	bid, okBid := bestPrice(m.books[option].bids)
	ask, okAsk := bestPrice(m.books[option].asks)
	if !okBid && !okAsk {
		return decimal.NewFromFloat(0.5)
	}
	if !okBid {
		bid = decimal.Zero
	}
	if !okAsk {
		ask = one
	}
	return bid.Add(ask).DivRound(decimal.NewFromInt(2), 8)
}

// Quote bundles the derived top-of-book values for one outcome.
func (m *Market) Quote(option domain.Option) domain.Quote {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := domain.Quote{Option: option, Mid: m.midLocked(option)}
	q.BestBid, q.HasBid = bestPrice(m.books[option].bids)
	q.BestAsk, q.HasAsk = bestPrice(m.books[option].asks)
	if q.HasBid && q.HasAsk {
		q.Spread = q.BestAsk.Sub(q.BestBid)
		q.HasSpread = true
	}
	return q
}

// Levels aggregates one queue into (price, total size, order count)
// entries ordered by queue priority. The slice is computed fresh from
// current state on every call.
func (m *Market) Levels(option domain.Option, side domain.Side) []domain.Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.books[option].side(side).snapshot()
}

// Snapshot copies both sides of one outcome's book.
func (m *Market) Snapshot(option domain.Option) *domain.BookSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(option)
}

func (m *Market) snapshotLocked(option domain.Option) *domain.BookSnapshot {
	b := m.books[option]
	return &domain.BookSnapshot{
		Option:    option,
		Bids:      b.bids.snapshot(),
		Asks:      b.asks.snapshot(),
		Timestamp: m.now(),
	}
}

// Order returns a copy of an order in its current state, whether resting,
// filled or cancelled; all accepted orders are retained for audit.
func (m *Market) Order(orderID string) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
	}
	return *o, nil
}

// Trades copies the full execution log in emission order.
func (m *Market) Trades() []domain.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Trade, len(m.trades))
	for i, t := range m.trades {
		out[i] = *t
	}
	return out
}

// OpenInterest sums remaining size across one queue, used by tests and
// the simulator's status display.
func (m *Market) OpenInterest(option domain.Option, side domain.Side) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.books[option].side(side).totalRemaining()
}

func bestPrice(sb *sideBook) (decimal.Decimal, bool) {
	lvl, ok := sb.best()
	if !ok {
		return decimal.Zero, false
	}
	return lvl.price, true
}
