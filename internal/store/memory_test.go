package store

import (
	"context"
	"testing"
	"time"

	"paperbroker/internal/apperr"
	"paperbroker/internal/model"
	"paperbroker/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMemoryOrdersForUserAscending(t *testing.T) {
	mem := NewMemory()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
		_, err := mem.SaveOrder(context.Background(), model.Order{
			UserID:    "u1",
			Side:      types.OrderSideCashIn,
			Type:      types.OrderTypeMarket,
			Status:    types.OrderStatusFilled,
			Size:      decimal.NewFromInt(int64(i + 1)),
			CreatedAt: base.Add(offset),
		})
		require.NoError(t, err)
	}

	orders, err := mem.OrdersForUser(context.Background(), "u1", OrderFilter{})
	require.NoError(t, err)
	require.Len(t, orders, 3)
	for i := 1; i < len(orders); i++ {
		require.False(t, orders[i].CreatedAt.Before(orders[i-1].CreatedAt))
	}
}

func TestMemoryOrderFilter(t *testing.T) {
	mem := NewMemory()
	save := func(instrument string, status types.OrderStatus) {
		_, err := mem.SaveOrder(context.Background(), model.Order{
			UserID:       "u1",
			InstrumentID: instrument,
			Side:         types.OrderSideBuy,
			Type:         types.OrderTypeMarket,
			Status:       status,
			Size:         decimal.NewFromInt(1),
			CreatedAt:    time.Now(),
		})
		require.NoError(t, err)
	}
	save("aapl", types.OrderStatusFilled)
	save("aapl", types.OrderStatusRejected)
	save("msft", types.OrderStatusNew)

	live, err := mem.OrdersForUser(context.Background(), "u1", Live())
	require.NoError(t, err)
	require.Len(t, live, 2)

	aapl, err := mem.OrdersForUser(context.Background(), "u1", OrderFilter{InstrumentID: "aapl"})
	require.NoError(t, err)
	require.Len(t, aapl, 2)
}

func TestMemoryPendingOrders(t *testing.T) {
	mem := NewMemory()
	for _, st := range []types.OrderStatus{types.OrderStatusNew, types.OrderStatusFilled, types.OrderStatusNew} {
		_, err := mem.SaveOrder(context.Background(), model.Order{
			UserID:    "u1",
			Side:      types.OrderSideBuy,
			Type:      types.OrderTypeLimit,
			Status:    st,
			Size:      decimal.NewFromInt(1),
			CreatedAt: time.Now(),
		})
		require.NoError(t, err)
	}
	pending, err := mem.PendingOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 2)
}

func TestMemoryOrderNotFound(t *testing.T) {
	mem := NewMemory()
	_, err := mem.Order(context.Background(), "missing")
	require.ErrorIs(t, err, apperr.ErrOrderNotFound)
}

func TestMemorySaveAssignsIDOnce(t *testing.T) {
	mem := NewMemory()
	o, err := mem.SaveOrder(context.Background(), model.Order{
		UserID:    "u1",
		Side:      types.OrderSideCashIn,
		Type:      types.OrderTypeMarket,
		Status:    types.OrderStatusFilled,
		Size:      decimal.NewFromInt(5),
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, o.ID)

	o.Status = types.OrderStatusCancelled
	updated, err := mem.SaveOrder(context.Background(), o)
	require.NoError(t, err)
	require.Equal(t, o.ID, updated.ID)

	got, err := mem.Order(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusCancelled, got.Status)
}

func TestMemorySearchInstruments(t *testing.T) {
	mem := NewMemory()
	mem.AddInstrument(model.Instrument{ID: "aapl", Ticker: "AAPL", Name: "Apple Inc."})
	mem.AddInstrument(model.Instrument{ID: "msft", Ticker: "MSFT", Name: "Microsoft Corporation"})

	got, err := mem.SearchInstruments(context.Background(), "micro")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "MSFT", got[0].Ticker)

	all, err := mem.SearchInstruments(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 2)
}
