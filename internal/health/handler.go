package health

import (
	"context"
	"net/http"

	"paperbroker/internal/httputil"
	"paperbroker/internal/marketdata"
	"paperbroker/internal/model"
)

type Catalog interface {
	Instruments(ctx context.Context) ([]model.Instrument, error)
}

type Handler struct {
	catalog Catalog
	quotes  *marketdata.Service
}

func NewHandler(catalog Catalog, quotes *marketdata.Service) *Handler {
	return &Handler{catalog: catalog, quotes: quotes}
}

func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Ready reports whether the store answers and quotes are flowing for the
// instrument catalog.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	instruments, err := h.catalog.Instruments(r.Context())
	if err != nil {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.ErrorResponse{Error: "store unavailable"})
		return
	}
	quoted := 0
	for _, in := range instruments {
		if _, err := h.quotes.CurrentPrice(r.Context(), in.ID); err == nil {
			quoted++
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{
		"instruments": len(instruments),
		"quoted":      quoted,
	})
}
