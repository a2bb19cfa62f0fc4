// Package store is the persistence collaborator for orders, users and
// instruments. Two implementations exist: Postgres for real deployments
// and Memory for development mode and tests.
package store

import "paperbroker/internal/types"

// OrderFilter narrows OrdersForUser. Zero value means all orders.
type OrderFilter struct {
	Statuses     []types.OrderStatus
	InstrumentID string
}

func (f OrderFilter) matchStatus(st types.OrderStatus) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if s == st {
			return true
		}
	}
	return false
}

// Live selects the statuses the ledger calculators consume: FILLED orders
// move balances, NEW orders hold reservations.
func Live() OrderFilter {
	return OrderFilter{Statuses: []types.OrderStatus{types.OrderStatusNew, types.OrderStatusFilled}}
}
