package orders

import (
	"context"
	"io"
	"testing"
	"time"

	"paperbroker/internal/apperr"
	"paperbroker/internal/model"
	"paperbroker/internal/store"
	"paperbroker/internal/types"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type stubPrices map[string]decimal.Decimal

func (s stubPrices) CurrentPrice(ctx context.Context, instrumentID string) (decimal.Decimal, error) {
	p, ok := s[instrumentID]
	if !ok {
		return decimal.Zero, apperr.ErrInstrumentNotFound
	}
	return p, nil
}

func newTestService(t *testing.T) (*Service, *store.Memory, stubPrices) {
	t.Helper()
	mem := store.NewMemory()
	mem.AddUser(model.User{ID: "u1", Name: "Alice"})
	mem.AddUser(model.User{ID: "u2", Name: "Bob"})
	mem.AddInstrument(model.Instrument{ID: "aapl", Ticker: "AAPL", Name: "Apple Inc."})
	mem.AddInstrument(model.Instrument{ID: "msft", Ticker: "MSFT", Name: "Microsoft Corporation"})
	prices := stubPrices{"aapl": d("50"), "msft": d("300")}
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewService(mem, prices, log), mem, prices
}

func deposit(t *testing.T, svc *Service, userID, amount string) {
	t.Helper()
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID: userID,
		Side:   types.OrderSideCashIn,
		Type:   types.OrderTypeMarket,
		Amount: dp(amount),
	})
	require.NoError(t, err)
}

func marketBuy(t *testing.T, svc *Service, userID, instrument, size string) model.Order {
	t.Helper()
	o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:       userID,
		InstrumentID: instrument,
		Side:         types.OrderSideBuy,
		Type:         types.OrderTypeMarket,
		Size:         dp(size),
	})
	require.NoError(t, err)
	return o
}

func TestMarketBuyWithoutFundsIsRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	o := marketBuy(t, svc, "u1", "aapl", "10")
	require.Equal(t, types.OrderStatusRejected, o.Status)
	require.NotEmpty(t, o.ID, "rejected orders are persisted for audit")
}

func TestMarketBuyFillsAndDebitsCash(t *testing.T) {
	svc, _, _ := newTestService(t)
	deposit(t, svc, "u1", "10000")

	o := marketBuy(t, svc, "u1", "aapl", "10")
	require.Equal(t, types.OrderStatusFilled, o.Status)
	require.Equal(t, "50", o.Price.String())
	require.Equal(t, "10", o.Size.String())

	p, err := svc.Portfolio(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "9500", p.Cash.Available.String())
	require.Equal(t, "9500", p.Cash.Total.String())
}

func TestLimitSellWithoutSharesIsRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	deposit(t, svc, "u1", "10000")
	o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:       "u1",
		InstrumentID: "aapl",
		Side:         types.OrderSideSell,
		Type:         types.OrderTypeLimit,
		Size:         dp("5"),
		LimitPrice:   dp("100"),
	})
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusRejected, o.Status)
}

func TestLimitBuyReservesCash(t *testing.T) {
	svc, _, _ := newTestService(t)
	deposit(t, svc, "u1", "1000")

	o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:       "u1",
		InstrumentID: "aapl",
		Side:         types.OrderSideBuy,
		Type:         types.OrderTypeLimit,
		Size:         dp("10"),
		LimitPrice:   dp("50"),
	})
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusNew, o.Status)

	p, err := svc.Portfolio(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "1000", p.Cash.Total.String())
	require.Equal(t, "500", p.Cash.Reserved.String())
	require.Equal(t, "500", p.Cash.Available.String())

	// A second order needing more than the remaining 500 is rejected.
	second, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:       "u1",
		InstrumentID: "aapl",
		Side:         types.OrderSideBuy,
		Type:         types.OrderTypeLimit,
		Size:         dp("11"),
		LimitPrice:   dp("50"),
	})
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusRejected, second.Status)
}

func TestProcessOrderExcludesOwnReservation(t *testing.T) {
	svc, _, _ := newTestService(t)
	deposit(t, svc, "u1", "500")

	o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:       "u1",
		InstrumentID: "aapl",
		Side:         types.OrderSideBuy,
		Type:         types.OrderTypeLimit,
		Size:         dp("10"),
		LimitPrice:   dp("50"),
	})
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusNew, o.Status)

	// The order reserves every cent the user has. Without excluding its
	// own reservation it could never execute.
	processed, err := svc.ProcessOrder(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusFilled, processed.Status)

	p, err := svc.Portfolio(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "0", p.Cash.Total.String())
	require.Equal(t, "0", p.Cash.Reserved.String())
}

func TestProcessOrderRejectsWhenFundsGone(t *testing.T) {
	svc, mem, _ := newTestService(t)
	deposit(t, svc, "u1", "500")

	o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:       "u1",
		InstrumentID: "aapl",
		Side:         types.OrderSideBuy,
		Type:         types.OrderTypeLimit,
		Size:         dp("10"),
		LimitPrice:   dp("50"),
	})
	require.NoError(t, err)

	// Simulate funds disappearing underneath the pending order (e.g. a
	// correction applied straight to the store).
	_, err = mem.SaveOrder(context.Background(), model.Order{
		UserID:    "u1",
		Side:      types.OrderSideCashOut,
		Type:      types.OrderTypeMarket,
		Status:    types.OrderStatusFilled,
		Size:      d("400"),
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	processed, err := svc.ProcessOrder(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusRejected, processed.Status)
}

func TestProcessOrderTerminalFails(t *testing.T) {
	svc, _, _ := newTestService(t)
	deposit(t, svc, "u1", "10000")
	o := marketBuy(t, svc, "u1", "aapl", "10")

	_, err := svc.ProcessOrder(context.Background(), o.ID)
	require.ErrorIs(t, err, apperr.ErrInvalidStateTransition)
}

func TestCancelReleasesReservation(t *testing.T) {
	svc, _, _ := newTestService(t)
	deposit(t, svc, "u1", "500")

	o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:       "u1",
		InstrumentID: "aapl",
		Side:         types.OrderSideBuy,
		Type:         types.OrderTypeLimit,
		Size:         dp("10"),
		LimitPrice:   dp("50"),
	})
	require.NoError(t, err)

	cancelled, err := svc.CancelOrder(context.Background(), o.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusCancelled, cancelled.Status)

	// The reservation is gone: the full balance is spendable again.
	next := marketBuy(t, svc, "u1", "aapl", "10")
	require.Equal(t, types.OrderStatusFilled, next.Status)
}

func TestCancelByNonOwnerFails(t *testing.T) {
	svc, _, _ := newTestService(t)
	deposit(t, svc, "u1", "500")
	o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:       "u1",
		InstrumentID: "aapl",
		Side:         types.OrderSideBuy,
		Type:         types.OrderTypeLimit,
		Size:         dp("5"),
		LimitPrice:   dp("50"),
	})
	require.NoError(t, err)

	_, err = svc.CancelOrder(context.Background(), o.ID, "u2")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestCancelTerminalFails(t *testing.T) {
	svc, _, _ := newTestService(t)
	deposit(t, svc, "u1", "500")
	o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:       "u1",
		InstrumentID: "aapl",
		Side:         types.OrderSideBuy,
		Type:         types.OrderTypeLimit,
		Size:         dp("5"),
		LimitPrice:   dp("50"),
	})
	require.NoError(t, err)

	_, err = svc.CancelOrder(context.Background(), o.ID, "u1")
	require.NoError(t, err)
	_, err = svc.CancelOrder(context.Background(), o.ID, "u1")
	require.ErrorIs(t, err, apperr.ErrInvalidStateTransition)
}

func TestWithdrawalFailureLeavesNoOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	deposit(t, svc, "u1", "100")

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID: "u1",
		Side:   types.OrderSideCashOut,
		Type:   types.OrderTypeMarket,
		Amount: dp("200"),
	})
	require.ErrorIs(t, err, apperr.ErrInsufficientFunds)

	history, err := svc.History(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, history, 1, "only the deposit should be persisted")
}

func TestWithdrawalDebitsCash(t *testing.T) {
	svc, _, _ := newTestService(t)
	deposit(t, svc, "u1", "100")

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID: "u1",
		Side:   types.OrderSideCashOut,
		Type:   types.OrderTypeMarket,
		Amount: dp("40"),
	})
	require.NoError(t, err)

	p, err := svc.Portfolio(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "60", p.Cash.Total.String())
}

func TestCreateOrderUnknownUserAndInstrument(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:       "ghost",
		InstrumentID: "aapl",
		Side:         types.OrderSideBuy,
		Type:         types.OrderTypeMarket,
		Size:         dp("1"),
	})
	require.ErrorIs(t, err, apperr.ErrUserNotFound)

	_, err = svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:       "u1",
		InstrumentID: "nope",
		Side:         types.OrderSideBuy,
		Type:         types.OrderTypeMarket,
		Size:         dp("1"),
	})
	require.ErrorIs(t, err, apperr.ErrInstrumentNotFound)
}

func TestProcessPendingWalksAllNewOrders(t *testing.T) {
	svc, _, _ := newTestService(t)
	deposit(t, svc, "u1", "1000")

	for i := 0; i < 2; i++ {
		o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
			UserID:       "u1",
			InstrumentID: "aapl",
			Side:         types.OrderSideBuy,
			Type:         types.OrderTypeLimit,
			Size:         dp("10"),
			LimitPrice:   dp("50"),
		})
		require.NoError(t, err)
		require.Equal(t, types.OrderStatusNew, o.Status)
	}

	res, err := svc.ProcessPending(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
	require.Equal(t, 2, res.Filled+res.Rejected)
	require.Zero(t, res.Failed)

	// Everything pending is now terminal.
	again, err := svc.ProcessPending(context.Background())
	require.NoError(t, err)
	require.Zero(t, again.Total)
}

func TestPortfolioPositions(t *testing.T) {
	svc, _, prices := newTestService(t)
	deposit(t, svc, "u1", "10000")
	marketBuy(t, svc, "u1", "aapl", "10")

	prices["aapl"] = d("70")
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:       "u1",
		InstrumentID: "aapl",
		Side:         types.OrderSideSell,
		Type:         types.OrderTypeMarket,
		Size:         dp("4"),
	})
	require.NoError(t, err)

	p, err := svc.Portfolio(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, p.Positions, 1)
	pos := p.Positions[0]
	require.Equal(t, "aapl", pos.InstrumentID)
	require.Equal(t, "6", pos.Quantity.Total.String())
	require.Equal(t, "50", pos.AverageCost.String())
	require.Equal(t, "80", pos.RealizedGains.String())
	require.Equal(t, "420", pos.MarketValue.String())
	// 10000 - 500 + 280
	require.Equal(t, "9780", p.Cash.Total.String())
}
