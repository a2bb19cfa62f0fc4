package orders

import (
	"paperbroker/internal/apperr"
	"paperbroker/internal/types"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// PriceRequest carries everything needed to resolve what a trading order
// would execute at. Exactly one of Size and Amount must be set.
type PriceRequest struct {
	Type        types.OrderType
	MarketPrice decimal.Decimal
	LimitPrice  *decimal.Decimal
	Size        *decimal.Decimal
	Amount      *decimal.Decimal
}

// Execution is the resolved price and whole-share count for an order.
type Execution struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// ResolveExecution determines the execution price and share count.
// MARKET orders execute at the current market price, LIMIT orders at the
// caller's limit price. When a notional amount is given instead of a size,
// the share count is the amount divided by the price, truncated to whole
// shares.
func ResolveExecution(req PriceRequest) (Execution, error) {
	if (req.Size == nil) == (req.Amount == nil) {
		return Execution{}, errors.Wrap(apperr.ErrInvalidOrder, "exactly one of size or amount is required")
	}

	var price decimal.Decimal
	switch req.Type {
	case types.OrderTypeMarket:
		price = req.MarketPrice
	case types.OrderTypeLimit:
		if req.LimitPrice == nil || req.LimitPrice.LessThanOrEqual(decimal.Zero) {
			return Execution{}, errors.Wrap(apperr.ErrInvalidOrder, "limit order requires a positive limit price")
		}
		price = *req.LimitPrice
	default:
		return Execution{}, errors.Wrapf(apperr.ErrInvalidOrder, "unknown order type %q", req.Type)
	}

	var size decimal.Decimal
	if req.Size != nil {
		if !req.Size.IsInteger() {
			return Execution{}, errors.Wrap(apperr.ErrInvalidOrder, "size must be a whole share count")
		}
		size = *req.Size
	} else {
		if price.LessThanOrEqual(decimal.Zero) {
			return Execution{}, errors.Wrap(apperr.ErrInvalidOrder, "no price available to size order by amount")
		}
		size = req.Amount.Div(price).Floor()
	}
	if size.LessThanOrEqual(decimal.Zero) {
		return Execution{}, errors.Wrap(apperr.ErrInvalidOrder, "order size must be positive")
	}
	return Execution{Price: price, Size: size}, nil
}
