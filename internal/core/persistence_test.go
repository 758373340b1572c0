package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predictive-exchange/binary-market/internal/adapter/in_memory"
	"github.com/predictive-exchange/binary-market/internal/domain"
)

func TestSubmissionsReachRepository(t *testing.T) {
	repo := in_memory.NewMemoryRepo()
	m := NewMarket("q", time.Now().Add(time.Hour), repo, in_memory.NewCache())

	buy := limit(t, m, domain.Yes, domain.Buy, 0.70, 10)
	sell := limit(t, m, domain.Yes, domain.Sell, 0.70, 4)

	stored, ok := repo.Order(buy.Order.ID)
	require.True(t, ok)
	assert.Equal(t, domain.PartiallyFilled, stored.Status)
	assert.True(t, stored.Remaining.Equal(d(6)))

	stored, ok = repo.Order(sell.Order.ID)
	require.True(t, ok)
	assert.Equal(t, domain.Filled, stored.Status)

	require.Len(t, repo.Trades(), 1)
}

func TestCancelReachesRepository(t *testing.T) {
	repo := in_memory.NewMemoryRepo()
	m := NewMarket("q", time.Now().Add(time.Hour), repo, nil)

	sub := limit(t, m, domain.Yes, domain.Buy, 0.55, 5)
	require.NoError(t, m.CancelOrder(context.Background(), sub.Order.ID))

	stored, ok := repo.Order(sub.Order.ID)
	require.True(t, ok)
	assert.Equal(t, domain.Cancelled, stored.Status)
}

func TestResolutionReachesRepository(t *testing.T) {
	repo := in_memory.NewMemoryRepo()
	m := NewMarket("q", time.Now().Add(time.Hour), repo, nil)

	require.NoError(t, m.Resolve(context.Background(), domain.No))
	outcome, ok := repo.Resolution()
	require.True(t, ok)
	assert.Equal(t, domain.No, outcome)
}

func TestLoadOpenOrdersRebuildsBook(t *testing.T) {
	repo := in_memory.NewMemoryRepo()
	m := NewMarket("q", time.Now().Add(time.Hour), repo, nil)
	first := limit(t, m, domain.Yes, domain.Sell, 0.60, 3)
	second := limit(t, m, domain.Yes, domain.Sell, 0.60, 2)
	limit(t, m, domain.No, domain.Buy, 0.40, 1)

	restored := NewMarket("q", time.Now().Add(time.Hour), repo, nil)
	require.NoError(t, restored.LoadOpenOrders(context.Background()))

	asks := restored.Levels(domain.Yes, domain.Sell)
	require.Len(t, asks, 1)
	assert.True(t, asks[0].Size.Equal(d(5)))
	assert.Equal(t, 2, asks[0].Orders)
	require.Len(t, restored.Levels(domain.No, domain.Buy), 1)

	// FIFO survives the round trip
	buy := limit(t, restored, domain.Yes, domain.Buy, 0.60, 3)
	require.Len(t, buy.Trades, 1)
	assert.Equal(t, first.Order.ID, buy.Trades[0].MakerOrder)

	untouched, err := restored.Order(second.Order.ID)
	require.NoError(t, err)
	assert.True(t, untouched.Remaining.Equal(d(2)))
}

func TestCacheSeesLatestBook(t *testing.T) {
	bookCache := in_memory.NewCache()
	m := NewMarket("q", time.Now().Add(time.Hour), nil, bookCache)

	limit(t, m, domain.Yes, domain.Buy, 0.52, 4)

	snap, err := bookCache.GetBook(context.Background(), domain.Yes)
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Len(t, snap.Bids, 1)
	assert.True(t, snap.Bids[0].Price.Equal(d(0.52)))
}
