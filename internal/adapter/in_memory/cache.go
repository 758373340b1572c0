package in_memory

import (
	"context"
	"sync"

	"github.com/predictive-exchange/binary-market/internal/domain"
	"github.com/predictive-exchange/binary-market/internal/port"
)

var _ port.Cache = (*Cache)(nil)

type Cache struct {
	mu    sync.Mutex
	store map[domain.Option]*domain.BookSnapshot
}

func NewCache() *Cache {
	return &Cache{store: make(map[domain.Option]*domain.BookSnapshot)}
}

func (c *Cache) SetBook(ctx context.Context, option domain.Option, snap *domain.BookSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[option] = snap.DeepCopy()
	return nil
}

func (c *Cache) GetBook(ctx context.Context, option domain.Option) (*domain.BookSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.store[option]
	if !ok {
		return nil, nil
	}
	return snap.DeepCopy(), nil
}

func (c *Cache) Invalidate(ctx context.Context, option domain.Option) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, option)
	return nil
}
