package in_memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/predictive-exchange/binary-market/internal/domain"
	"github.com/predictive-exchange/binary-market/internal/port"
)

var _ port.Repository = (*MemoryRepo)(nil)

// MemoryRepo is a map-backed Repository used by tests and the simulator.
type MemoryRepo struct {
	mu         sync.Mutex
	orders     map[string]*domain.Order
	trades     []*domain.Trade
	resolution *domain.Option
	resolvedAt time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{orders: make(map[string]*domain.Order)}
}

func (r *MemoryRepo) SaveOrder(ctx context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *MemoryRepo) SaveTrade(ctx context.Context, t *domain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.trades = append(r.trades, &cp)
	return nil
}

func (r *MemoryRepo) LoadOpenOrders(ctx context.Context) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*domain.Order
	for _, o := range r.orders {
		if o.Active() && o.Remaining.IsPositive() {
			cp := *o
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].Sequence < res[j].Sequence
		}
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

func (r *MemoryRepo) CancelOrder(ctx context.Context, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || !o.Active() {
		return errors.New("order not found")
	}
	o.Status = domain.Cancelled
	return nil
}

func (r *MemoryRepo) SaveResolution(ctx context.Context, outcome domain.Option, resolvedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolution = &outcome
	r.resolvedAt = resolvedAt
	return nil
}

// Resolution exposes the stored outcome for test assertions.
func (r *MemoryRepo) Resolution() (domain.Option, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolution == nil {
		return "", false
	}
	return *r.resolution, true
}

// Trades returns the stored trade log for test assertions.
func (r *MemoryRepo) Trades() []*domain.Trade {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.Trade(nil), r.trades...)
}

// Order returns the stored copy of one order for test assertions.
func (r *MemoryRepo) Order(orderID string) (*domain.Order, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	return o, ok
}

func (r *MemoryRepo) BeginTx(ctx context.Context) (port.Tx, error) {
	return &memoryTx{repo: r}, nil
}

// memoryTx buffers writes until commit so a failed submission leaves no
// partial state behind.
type memoryTx struct {
	repo   *MemoryRepo
	orders []*domain.Order
	trades []*domain.Trade
}

func (t *memoryTx) SaveOrder(ctx context.Context, o *domain.Order) error {
	cp := *o
	t.orders = append(t.orders, &cp)
	return nil
}

func (t *memoryTx) SaveTrade(ctx context.Context, tr *domain.Trade) error {
	cp := *tr
	t.trades = append(t.trades, &cp)
	return nil
}

func (t *memoryTx) Commit(ctx context.Context) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	for _, o := range t.orders {
		t.repo.orders[o.ID] = o
	}
	t.repo.trades = append(t.repo.trades, t.trades...)
	return nil
}

func (t *memoryTx) Rollback(ctx context.Context) error {
	t.orders = nil
	t.trades = nil
	return nil
}
