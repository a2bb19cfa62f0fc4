package ledger

import (
	"paperbroker/internal/model"
	"paperbroker/internal/types"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Position replays a user's BUY/SELL orders for one instrument and values
// the result at currentPrice. The caller must pass orders in ascending
// chronological order; replaying fills out of order corrupts the
// weighted-average cost.
//
// Cost basis follows the weighted-average method: each BUY re-averages the
// per-share cost, each SELL books (price - averageCost) x size as realized
// gain and leaves the average cost of the remaining shares untouched.
// A SELL that would drive the quantity negative is skipped; the order set
// is taken as-is rather than failing the whole valuation.
func Position(instrumentID string, orders []model.Order, currentPrice decimal.Decimal) model.Position {
	var qty, avgCost, totalInvestment, realized, reserved decimal.Decimal
	for _, o := range orders {
		switch o.Status {
		case types.OrderStatusFilled:
			price := decimal.Zero
			if o.Price != nil {
				price = *o.Price
			}
			switch o.Side {
			case types.OrderSideBuy:
				cost := o.Size.Mul(price)
				avgCost = qty.Mul(avgCost).Add(cost).Div(qty.Add(o.Size))
				qty = qty.Add(o.Size)
				totalInvestment = totalInvestment.Add(cost)
			case types.OrderSideSell:
				if qty.LessThanOrEqual(decimal.Zero) {
					continue
				}
				realized = realized.Add(price.Sub(avgCost).Mul(o.Size))
				qty = qty.Sub(o.Size)
			}
		case types.OrderStatusNew:
			if o.Side == types.OrderSideSell {
				reserved = reserved.Add(o.Size)
			}
		}
	}

	marketValue := qty.Mul(currentPrice)
	totalReturn := decimal.Zero
	if totalInvestment.GreaterThan(decimal.Zero) {
		totalReturn = realized.Add(marketValue).Div(totalInvestment).Mul(hundred)
	}
	return model.Position{
		InstrumentID: instrumentID,
		Quantity: model.Quantity{
			Total:     qty,
			Reserved:  reserved,
			Available: qty.Sub(reserved),
		},
		AverageCost:        avgCost,
		CurrentPrice:       currentPrice,
		MarketValue:        marketValue,
		RealizedGains:      realized,
		TotalReturnPercent: totalReturn,
	}
}
