// Package ledger derives cash balances and instrument positions from a
// user's order history. Nothing here is persisted: every call recomputes
// from the live order set, so the orders table stays the single source of
// truth and there is no reservation state to reconcile.
package ledger

import (
	"paperbroker/internal/model"
	"paperbroker/internal/types"
)

// Cash folds a user's orders into {total, available, reserved}.
// Only FILLED orders move the total; NEW BUY orders hold a reservation.
// Input order does not matter for cash. Orders with a missing price are
// treated as zero-notional gifts and do not move cash.
func Cash(orders []model.Order) model.CashBalance {
	var b model.CashBalance
	for _, o := range orders {
		switch o.Status {
		case types.OrderStatusFilled:
			switch o.Side {
			case types.OrderSideCashIn:
				b.Total = b.Total.Add(o.Size)
			case types.OrderSideCashOut:
				b.Total = b.Total.Sub(o.Size)
			case types.OrderSideBuy:
				b.Total = b.Total.Sub(o.Notional())
			case types.OrderSideSell:
				b.Total = b.Total.Add(o.Notional())
			}
		case types.OrderStatusNew:
			if o.Side == types.OrderSideBuy {
				b.Reserved = b.Reserved.Add(o.Notional())
			}
		}
	}
	b.Available = b.Total.Sub(b.Reserved)
	return b
}
