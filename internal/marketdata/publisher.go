package marketdata

import (
	"context"
	"math/rand"
	"time"

	"paperbroker/internal/model"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// StartPublisher seeds a price for every instrument and then drifts each
// one on a random walk, publishing every tick to the bus for websocket
// subscribers. It returns after spawning the background goroutine and
// stops when ctx is cancelled.
func StartPublisher(ctx context.Context, svc *Service, bus *Bus, instruments []model.Instrument, interval time.Duration, log *logrus.Logger) {
	if interval <= 0 {
		interval = time.Second
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	prices := make(map[string]float64, len(instruments))
	for _, in := range instruments {
		// Seed in a plausible band so fresh environments have tradable
		// prices immediately.
		prices[in.ID] = 20 + rng.Float64()*480
		svc.SetPrice(in.ID, decimal.NewFromFloat(prices[in.ID]).Round(2))
	}
	log.WithField("instruments", len(instruments)).Info("market data publisher started")

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			for _, in := range instruments {
				p := prices[in.ID]
				// +/-0.5% per tick, floored away from zero.
				p *= 1 + (rng.Float64()-0.5)/100
				if p < 0.01 {
					p = 0.01
				}
				prices[in.ID] = p
				price := decimal.NewFromFloat(p).Round(2)
				svc.SetPrice(in.ID, price)
				bus.Publish(Quote{
					InstrumentID: in.ID,
					Ticker:       in.Ticker,
					Price:        price.String(),
					Timestamp:    time.Now().UnixMilli(),
				})
			}
		}
	}()
}
