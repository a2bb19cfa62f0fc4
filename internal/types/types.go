package types

type OrderSide string

type OrderType string

type OrderStatus string

const (
	OrderSideBuy     OrderSide = "buy"
	OrderSideSell    OrderSide = "sell"
	OrderSideCashIn  OrderSide = "cash_in"
	OrderSideCashOut OrderSide = "cash_out"
)

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusRejected  OrderStatus = "rejected"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderSide) Valid() bool {
	switch s {
	case OrderSideBuy, OrderSideSell, OrderSideCashIn, OrderSideCashOut:
		return true
	}
	return false
}

// Trading reports whether the side moves shares rather than plain cash.
func (s OrderSide) Trading() bool {
	return s == OrderSideBuy || s == OrderSideSell
}

func (s OrderSide) Cash() bool {
	return s == OrderSideCashIn || s == OrderSideCashOut
}

func (t OrderType) Valid() bool {
	return t == OrderTypeMarket || t == OrderTypeLimit
}

// Terminal reports whether no further status transition is allowed.
// Only a NEW order may still change state.
func (st OrderStatus) Terminal() bool {
	switch st {
	case OrderStatusFilled, OrderStatusRejected, OrderStatusCancelled:
		return true
	}
	return false
}
