package model

import (
	"time"

	"paperbroker/internal/types"

	"github.com/shopspring/decimal"
)

// Order is the persisted source of truth. Cash balances and positions are
// always derived from the order set, never stored.
type Order struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	InstrumentID string            `json:"instrument_id"`
	Side         types.OrderSide   `json:"side"`
	Type         types.OrderType   `json:"type"`
	Status       types.OrderStatus `json:"status"`
	Size         decimal.Decimal   `json:"size"`
	Price        *decimal.Decimal  `json:"price"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Notional is size times price. A missing or zero price yields zero:
// such orders do not move cash (a share gift).
func (o Order) Notional() decimal.Decimal {
	if o.Price == nil {
		return decimal.Zero
	}
	return o.Size.Mul(*o.Price)
}
