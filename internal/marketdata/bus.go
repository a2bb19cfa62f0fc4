package marketdata

import "sync"

// Quote is the event payload streamed to websocket subscribers.
type Quote struct {
	InstrumentID string `json:"instrument_id"`
	Ticker       string `json:"ticker"`
	Price        string `json:"price"`
	Timestamp    int64  `json:"timestamp"`
}

// Bus fans quotes out to subscribers. Slow subscribers drop events rather
// than blocking the publisher.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Quote]struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[chan Quote]struct{})}
}

func (b *Bus) Subscribe() chan Quote {
	ch := make(chan Quote, 100)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Bus) Unsubscribe(ch chan Quote) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

func (b *Bus) Publish(q Quote) {
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- q:
		default:
		}
	}
	b.mu.RUnlock()
}
