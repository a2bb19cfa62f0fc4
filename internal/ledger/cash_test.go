package ledger

import (
	"testing"
	"time"

	"paperbroker/internal/model"
	"paperbroker/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func order(side types.OrderSide, status types.OrderStatus, size string, price *decimal.Decimal) model.Order {
	return model.Order{
		Side:      side,
		Status:    status,
		Size:      d(size),
		Price:     price,
		CreatedAt: time.Now(),
	}
}

func TestCashFoldsFilledOrders(t *testing.T) {
	orders := []model.Order{
		order(types.OrderSideCashIn, types.OrderStatusFilled, "10000", nil),
		order(types.OrderSideCashOut, types.OrderStatusFilled, "2000", nil),
		order(types.OrderSideBuy, types.OrderStatusFilled, "10", dp("50")),
		order(types.OrderSideSell, types.OrderStatusFilled, "5", dp("60")),
	}
	cash := Cash(orders)
	require.Equal(t, "7800", cash.Total.String())
	require.Equal(t, "0", cash.Reserved.String())
	require.Equal(t, "7800", cash.Available.String())
}

func TestCashReservesPendingBuys(t *testing.T) {
	orders := []model.Order{
		order(types.OrderSideCashIn, types.OrderStatusFilled, "1000", nil),
		order(types.OrderSideBuy, types.OrderStatusNew, "4", dp("25")),
		// Pending sells reserve shares, not cash.
		order(types.OrderSideSell, types.OrderStatusNew, "10", dp("99")),
	}
	cash := Cash(orders)
	require.Equal(t, "1000", cash.Total.String())
	require.Equal(t, "100", cash.Reserved.String())
	require.Equal(t, "900", cash.Available.String())
	require.True(t, cash.Available.Equal(cash.Total.Sub(cash.Reserved)))
}

func TestCashIgnoresTerminalNonFilled(t *testing.T) {
	orders := []model.Order{
		order(types.OrderSideCashIn, types.OrderStatusFilled, "500", nil),
		order(types.OrderSideBuy, types.OrderStatusRejected, "10", dp("50")),
		order(types.OrderSideBuy, types.OrderStatusCancelled, "10", dp("50")),
	}
	cash := Cash(orders)
	require.Equal(t, "500", cash.Total.String())
	require.Equal(t, "0", cash.Reserved.String())
}

func TestCashTreatsMissingPriceAsGift(t *testing.T) {
	orders := []model.Order{
		order(types.OrderSideCashIn, types.OrderStatusFilled, "500", nil),
		order(types.OrderSideBuy, types.OrderStatusFilled, "10", nil),
	}
	cash := Cash(orders)
	require.Equal(t, "500", cash.Total.String())
}
