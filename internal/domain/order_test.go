package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(size int64) *Order {
	qty := decimal.NewFromInt(size)
	return &Order{
		ID:        "o1",
		Option:    Yes,
		Side:      Buy,
		Type:      Limit,
		Price:     decimal.NewFromFloat(0.6),
		Quantity:  qty,
		Remaining: qty,
		Status:    Open,
	}
}

func TestFillPartialThenFull(t *testing.T) {
	o := newTestOrder(10)

	require.NoError(t, o.Fill(decimal.NewFromInt(4)))
	assert.Equal(t, PartiallyFilled, o.Status)
	assert.True(t, o.Remaining.Equal(decimal.NewFromInt(6)))

	require.NoError(t, o.Fill(decimal.NewFromInt(6)))
	assert.Equal(t, Filled, o.Status)
	assert.True(t, o.Remaining.IsZero())
}

func TestFillRejectsInvalidAmounts(t *testing.T) {
	o := newTestOrder(5)

	err := o.Fill(decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidFill)

	err = o.Fill(decimal.NewFromInt(-1))
	require.ErrorIs(t, err, ErrInvalidFill)

	err = o.Fill(decimal.NewFromInt(6))
	require.ErrorIs(t, err, ErrInvalidFill)

	// a rejected fill must not mutate the order
	assert.Equal(t, Open, o.Status)
	assert.True(t, o.Remaining.Equal(decimal.NewFromInt(5)))
}

func TestCancelLifecycle(t *testing.T) {
	o := newTestOrder(5)
	require.NoError(t, o.Cancel())
	assert.Equal(t, Cancelled, o.Status)

	err := o.Cancel()
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestCancelFilledOrderRejected(t *testing.T) {
	o := newTestOrder(5)
	require.NoError(t, o.Fill(decimal.NewFromInt(5)))

	err := o.Cancel()
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, Filled, o.Status)
}

func TestPartiallyFilledOrderCanCancel(t *testing.T) {
	o := newTestOrder(5)
	require.NoError(t, o.Fill(decimal.NewFromInt(2)))
	require.NoError(t, o.Cancel())
	assert.Equal(t, Cancelled, o.Status)
	assert.True(t, o.Remaining.Equal(decimal.NewFromInt(3)))
}

func TestSideOpposite(t *testing.T) {
	assert.Equal(t, Sell, Buy.Opposite())
	assert.Equal(t, Buy, Sell.Opposite())
}
