package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/predictive-exchange/binary-market/internal/domain"
	"github.com/predictive-exchange/binary-market/internal/port"
)

var one = decimal.NewFromInt(1)

// Submission is the outcome of one order submission: the order in its
// final state plus every trade it produced. Unfilled is nonzero only for
// market orders that ran out of liquidity; that remainder is reported,
// never rested and never an error.
type Submission struct {
	Order    domain.Order
	Trades   []*domain.Trade
	Unfilled decimal.Decimal
}

// Market is a binary (YES/NO) prediction market: one independent
// price-time-priority book per outcome, a trade log, and the resolution
// state. All operations are serialized through one mutex; a single
// submission can touch arbitrarily many resting orders, so the lock is
// not decomposable.
type Market struct {
	repo  port.Repository
	cache port.Cache

	mu          sync.Mutex
	question    string
	expiry      time.Time
	books       map[domain.Option]*book
	orders      map[string]*domain.Order // every order ever accepted, kept for audit
	trades      []*domain.Trade
	seq         int64
	resolved    bool
	outcome     domain.Option
	probability decimal.Decimal

	now func() time.Time
}

// NewMarket builds a market for one question. Repository and cache may be
// nil; the market then lives purely in memory for the session.
func NewMarket(question string, expiry time.Time, repo port.Repository, cache port.Cache) *Market {
	return &Market{
		repo:     repo,
		cache:    cache,
		question: question,
		expiry:   expiry,
		books: map[domain.Option]*book{
			domain.Yes: newBook(domain.Yes),
			domain.No:  newBook(domain.No),
		},
		orders:      make(map[string]*domain.Order),
		probability: decimal.NewFromFloat(0.5),
		now:         time.Now,
	}
}

// LoadOpenOrders restores resting orders from the repository, used on
// startup. Orders arrive ordered by creation time so FIFO within each
// price level is preserved.
func (m *Market) LoadOpenOrders(ctx context.Context) error {
	if m.repo == nil {
		return nil
	}
	orders, err := m.repo.LoadOpenOrders(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range orders {
		m.seq++
		o.Sequence = m.seq
		m.orders[o.ID] = o
		m.books[o.Option].side(o.Side).add(o)
	}
	return nil
}

// SubmitLimitOrder validates, matches and rests a limit order. The price
// must lie strictly between 0 and 1.
func (m *Market) SubmitLimitOrder(ctx context.Context, option domain.Option, side domain.Side, price, size decimal.Decimal, userID string) (*Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validateLocked(option, side); err != nil {
		return nil, err
	}
	if !price.GreaterThan(decimal.Zero) || !price.LessThan(one) {
		return nil, fmt.Errorf("%w: price %s must be strictly between 0 and 1", domain.ErrInvalidOrder, price)
	}
	if !size.IsPositive() {
		return nil, fmt.Errorf("%w: size %s must be positive", domain.ErrInvalidOrder, size)
	}

	order := m.newOrderLocked(option, side, domain.Limit, price, size, userID)
	trades := m.matchLocked(order)
	if order.Remaining.IsPositive() {
		m.books[option].side(side).add(order)
	}
	m.finishLocked(ctx, order, trades)

	return &Submission{Order: *order, Trades: trades}, nil
}

// SubmitMarketOrder matches an order with no price of its own against the
// opposing queue until the size is exhausted or the book is empty. The
// unfilled remainder is reported back; an empty book is not an error.
func (m *Market) SubmitMarketOrder(ctx context.Context, option domain.Option, side domain.Side, size decimal.Decimal, userID string) (*Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validateLocked(option, side); err != nil {
		return nil, err
	}
	if !size.IsPositive() {
		return nil, fmt.Errorf("%w: size %s must be positive", domain.ErrInvalidOrder, size)
	}

	order := m.newOrderLocked(option, side, domain.Market, decimal.Zero, size, userID)
	trades := m.matchLocked(order)
	m.finishLocked(ctx, order, trades)

	return &Submission{Order: *order, Trades: trades, Unfilled: order.Remaining}, nil
}

// CancelOrder removes a resting order from its queue and marks it
// cancelled. Orders that are unknown, already terminal, or not resting
// (market-order remainders never rest) report ErrOrderNotFound.
func (m *Market) CancelOrder(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	if !ok || !o.Active() {
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
	}
	if !m.books[o.Option].side(o.Side).remove(o) {
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
	}
	if err := o.Cancel(); err != nil {
		return err
	}
	if m.repo != nil {
		_ = m.repo.CancelOrder(ctx, orderID)
	}
	m.refreshCacheLocked(ctx, o.Option)
	return nil
}

// matchLocked is the core algorithm, applied identically to limit and
// market submissions. Each iteration fills the incoming order against the
// front of the best opposing level; both sides fill atomically and the
// trade is emitted at the maker's price.
func (m *Market) matchLocked(taker *domain.Order) []*domain.Trade {
	opp := m.books[taker.Option].side(taker.Side.Opposite())

	var trades []*domain.Trade
	for taker.Remaining.IsPositive() {
		lvl, ok := opp.best()
		if !ok {
			break
		}
		if taker.Type == domain.Limit && !crosses(taker.Side, taker.Price, lvl.price) {
			break
		}

		maker := lvl.orders[0]
		qty := decimal.Min(taker.Remaining, maker.Remaining)
		mustFill(maker, qty)
		mustFill(taker, qty)
		lvl.size = lvl.size.Sub(qty)

		trade := &domain.Trade{
			ID:          uuid.NewString(),
			Option:      taker.Option,
			TakerOrder:  taker.ID,
			MakerOrder:  maker.ID,
			TakerUserID: taker.UserID,
			MakerUserID: maker.UserID,
			TakerSide:   taker.Side,
			Price:       maker.Price,
			Size:        qty,
			Timestamp:   m.now(),
		}
		trades = append(trades, trade)

		if maker.Status == domain.Filled {
			opp.popFront(lvl)
		}
	}
	return trades
}

// crosses reports whether a limit taker's price is compatible with the
// opposing best price.
func crosses(side domain.Side, takerPrice, makerPrice decimal.Decimal) bool {
	if side == domain.Buy {
		return takerPrice.GreaterThanOrEqual(makerPrice)
	}
	return takerPrice.LessThanOrEqual(makerPrice)
}

// mustFill applies a fill that is valid by construction (the amount is
// min of both remainders); a failure here means the book is corrupt.
func mustFill(o *domain.Order, amount decimal.Decimal) {
	if err := o.Fill(amount); err != nil {
		panic(err)
	}
}

func (m *Market) validateLocked(option domain.Option, side domain.Side) error {
	if m.resolved {
		return domain.ErrMarketResolved
	}
	switch option {
	case domain.Yes, domain.No:
	default:
		return fmt.Errorf("%w: option must be YES or NO, got %q", domain.ErrInvalidOrder, option)
	}
	switch side {
	case domain.Buy, domain.Sell:
	default:
		return fmt.Errorf("%w: side must be BUY or SELL, got %q", domain.ErrInvalidOrder, side)
	}
	return nil
}

func (m *Market) newOrderLocked(option domain.Option, side domain.Side, typ domain.OrderType, price, size decimal.Decimal, userID string) *domain.Order {
	m.seq++
	o := &domain.Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Option:    option,
		Side:      side,
		Type:      typ,
		Price:     price,
		Quantity:  size,
		Remaining: size,
		Status:    domain.Open,
		CreatedAt: m.now(),
		Sequence:  m.seq,
	}
	m.orders[o.ID] = o
	return o
}

// finishLocked appends to the trade log and pushes best-effort writes to
// the repository and cache, the same way after every mutation.
func (m *Market) finishLocked(ctx context.Context, taker *domain.Order, trades []*domain.Trade) {
	m.trades = append(m.trades, trades...)
	m.persistLocked(ctx, taker, trades)
	m.refreshCacheLocked(ctx, taker.Option)
}

func (m *Market) persistLocked(ctx context.Context, taker *domain.Order, trades []*domain.Trade) {
	if m.repo == nil {
		return
	}
	_ = withTx(ctx, m.repo, func(tx port.Tx) error {
		if err := tx.SaveOrder(ctx, taker); err != nil {
			return err
		}
		for _, t := range trades {
			if maker, ok := m.orders[t.MakerOrder]; ok {
				if err := tx.SaveOrder(ctx, maker); err != nil {
					return err
				}
			}
			if err := tx.SaveTrade(ctx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func (m *Market) refreshCacheLocked(ctx context.Context, option domain.Option) {
	if m.cache == nil {
		return
	}
	_ = m.cache.SetBook(ctx, option, m.snapshotLocked(option))
}
