package httpserver

import (
	"net/http"

	"paperbroker/internal/health"
	"paperbroker/internal/instruments"
	"paperbroker/internal/marketdata"
	"paperbroker/internal/orders"

	"github.com/go-chi/chi/v5"
)

type RouterDeps struct {
	OrderHandler      *orders.Handler
	InstrumentHandler *instruments.Handler
	MarketHandler     *marketdata.Handler
	HealthHandler     *health.Handler
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS middleware for development
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				origin = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Use(SecurityHeaders)

	r.Get("/health", d.HealthHandler.Live)
	r.Get("/health/ready", d.HealthHandler.Ready)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/orders", d.OrderHandler.Create)
		r.Get("/orders", d.OrderHandler.List)
		r.Post("/orders/process", d.OrderHandler.ProcessAll)
		r.Post("/orders/{id}/process", func(w http.ResponseWriter, r *http.Request) {
			d.OrderHandler.Process(w, r, chi.URLParam(r, "id"))
		})
		r.Delete("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
			d.OrderHandler.Cancel(w, r, chi.URLParam(r, "id"))
		})
		r.Get("/portfolio", d.OrderHandler.Portfolio)
		r.Get("/instruments", d.InstrumentHandler.Search)
		r.Get("/market/quotes/{instrument}", d.MarketHandler.Quote)
		r.Get("/market/ws", d.MarketHandler.WS.ServeHTTP)
	})
	return r
}
