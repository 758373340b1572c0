package port

import (
	"context"
	"time"

	"github.com/predictive-exchange/binary-market/internal/domain"
)

// Repository persists orders, trades and the market resolution. The engine
// treats it as best-effort: a nil Repository disables persistence entirely.
type Repository interface {
	SaveOrder(ctx context.Context, o *domain.Order) error
	SaveTrade(ctx context.Context, t *domain.Trade) error
	LoadOpenOrders(ctx context.Context) ([]*domain.Order, error)
	CancelOrder(ctx context.Context, orderID string) error
	SaveResolution(ctx context.Context, outcome domain.Option, resolvedAt time.Time) error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx groups the writes produced by a single submission so an order and the
// trades it generated land together.
type Tx interface {
	SaveOrder(ctx context.Context, o *domain.Order) error
	SaveTrade(ctx context.Context, t *domain.Trade) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
