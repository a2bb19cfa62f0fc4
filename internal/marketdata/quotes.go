// Package marketdata is the market-price collaborator. Prices live in an
// in-process snapshot fed by the publisher; the order service reads them
// through CurrentPrice.
package marketdata

import (
	"context"
	"sync"

	"paperbroker/internal/apperr"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type Service struct {
	mu     sync.RWMutex
	quotes map[string]decimal.Decimal
}

func NewService() *Service {
	return &Service{quotes: make(map[string]decimal.Decimal)}
}

func (s *Service) SetPrice(instrumentID string, price decimal.Decimal) {
	if instrumentID == "" || price.LessThan(decimal.Zero) {
		return
	}
	s.mu.Lock()
	s.quotes[instrumentID] = price
	s.mu.Unlock()
}

// CurrentPrice returns the last published price for the instrument.
// Unknown instruments are an error; a stored zero price is returned as-is
// and means "no tradable price".
func (s *Service) CurrentPrice(ctx context.Context, instrumentID string) (decimal.Decimal, error) {
	s.mu.RLock()
	price, ok := s.quotes[instrumentID]
	s.mu.RUnlock()
	if !ok {
		return decimal.Zero, errors.Wrapf(apperr.ErrInstrumentNotFound, "no quote for %s", instrumentID)
	}
	return price, nil
}
