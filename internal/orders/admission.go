package orders

import (
	"context"

	"paperbroker/internal/ledger"
	"paperbroker/internal/model"
	"paperbroker/internal/store"
	"paperbroker/internal/types"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// admit decides whether an order for exec.Size shares at exec.Price can be
// accepted given the user's current resources. It recomputes balances from
// the live order set on every call; there is no cached reservation state.
//
// excludeOrderID, when non-empty, drops that order from the computation.
// Re-validation at execution time passes the order's own ID here so a
// pending order does not block on its own reservation.
func (s *Service) admit(ctx context.Context, userID, instrumentID string, side types.OrderSide, exec Execution, excludeOrderID string) (bool, error) {
	live, err := s.store.OrdersForUser(ctx, userID, store.Live())
	if err != nil {
		return false, errors.Wrap(err, "load live orders")
	}
	live = without(live, excludeOrderID)

	switch side {
	case types.OrderSideBuy:
		cash := ledger.Cash(live)
		return exec.Size.Mul(exec.Price).LessThanOrEqual(cash.Available), nil
	case types.OrderSideSell:
		pos := ledger.Position(instrumentID, forInstrument(live, instrumentID), decimal.Zero)
		return exec.Size.LessThanOrEqual(pos.Quantity.Available), nil
	case types.OrderSideCashIn:
		return true, nil
	case types.OrderSideCashOut:
		cash := ledger.Cash(live)
		return exec.Size.LessThanOrEqual(cash.Available), nil
	}
	return false, nil
}

func without(orders []model.Order, id string) []model.Order {
	if id == "" {
		return orders
	}
	out := orders[:0]
	for _, o := range orders {
		if o.ID != id {
			out = append(out, o)
		}
	}
	return out
}

func forInstrument(orders []model.Order, instrumentID string) []model.Order {
	var out []model.Order
	for _, o := range orders {
		if o.InstrumentID == instrumentID && o.Side.Trading() {
			out = append(out, o)
		}
	}
	return out
}
