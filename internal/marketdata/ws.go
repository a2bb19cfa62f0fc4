package marketdata

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// QuoteWS streams published quotes to websocket clients.
type QuoteWS struct {
	bus      *Bus
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewQuoteWS(bus *Bus, origin string, log *logrus.Logger) *QuoteWS {
	return &QuoteWS{
		bus: bus,
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return allowOrigin(r, origin) },
		},
	}
}

func (h *QuoteWS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := h.bus.Subscribe()
	defer h.bus.Unsubscribe(sub)

	// Drain client frames so close messages are noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case q, ok := <-sub:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(q); err != nil {
				h.log.WithError(err).Debug("quote ws write")
				return
			}
		}
	}
}

func allowOrigin(r *http.Request, allowed string) bool {
	if allowed == "" || allowed == "*" {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return strings.EqualFold(origin, allowed)
}
