package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"paperbroker/internal/apperr"
	"paperbroker/internal/model"
	"paperbroker/internal/types"
)

// Memory keeps all records in process. It backs development mode and the
// test suites; the semantics (timestamp-ascending order listings in
// particular) must match the Postgres implementation.
type Memory struct {
	mu          sync.RWMutex
	seq         int
	orders      map[string]model.Order
	users       map[string]model.User
	instruments map[string]model.Instrument
}

func NewMemory() *Memory {
	return &Memory{
		orders:      make(map[string]model.Order),
		users:       make(map[string]model.User),
		instruments: make(map[string]model.Instrument),
	}
}

func (m *Memory) AddUser(u model.User) {
	m.mu.Lock()
	m.users[u.ID] = u
	m.mu.Unlock()
}

func (m *Memory) AddInstrument(in model.Instrument) {
	m.mu.Lock()
	m.instruments[in.ID] = in
	m.mu.Unlock()
}

func (m *Memory) SaveOrder(ctx context.Context, o model.Order) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == "" {
		m.seq++
		o.ID = fmt.Sprintf("ord-%06d", m.seq)
	}
	m.orders[o.ID] = o
	return o, nil
}

func (m *Memory) Order(ctx context.Context, id string) (model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return model.Order{}, apperr.ErrOrderNotFound
	}
	return o, nil
}

func (m *Memory) OrdersForUser(ctx context.Context, userID string, f OrderFilter) ([]model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Order
	for _, o := range m.orders {
		if o.UserID != userID {
			continue
		}
		if f.InstrumentID != "" && o.InstrumentID != f.InstrumentID {
			continue
		}
		if !f.matchStatus(o.Status) {
			continue
		}
		out = append(out, o)
	}
	sortOrders(out)
	return out, nil
}

func (m *Memory) PendingOrders(ctx context.Context) ([]model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Order
	for _, o := range m.orders {
		if o.Status == types.OrderStatusNew {
			out = append(out, o)
		}
	}
	sortOrders(out)
	return out, nil
}

func (m *Memory) UserExists(ctx context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.users[id]
	return ok, nil
}

func (m *Memory) InstrumentExists(ctx context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.instruments[id]
	return ok, nil
}

func (m *Memory) Instruments(ctx context.Context) ([]model.Instrument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Instrument, 0, len(m.instruments))
	for _, in := range m.instruments {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

func (m *Memory) SearchInstruments(ctx context.Context, query string) ([]model.Instrument, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	all, _ := m.Instruments(ctx)
	if q == "" {
		return all, nil
	}
	var out []model.Instrument
	for _, in := range all {
		if strings.Contains(strings.ToLower(in.Ticker), q) || strings.Contains(strings.ToLower(in.Name), q) {
			out = append(out, in)
		}
	}
	return out, nil
}

// sortOrders puts orders in ascending chronological order. The ledger
// calculators depend on this ordering; ties fall back to the ID sequence.
func sortOrders(orders []model.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID < orders[j].ID
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
}
