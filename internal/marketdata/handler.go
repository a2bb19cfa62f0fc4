package marketdata

import (
	"net/http"
	"time"

	"paperbroker/internal/httputil"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc *Service
	WS  *QuoteWS
}

func NewHandler(svc *Service, ws *QuoteWS) *Handler {
	return &Handler{svc: svc, WS: ws}
}

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	instrumentID := chi.URLParam(r, "instrument")
	price, err := h.svc.CurrentPrice(r.Context(), instrumentID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "no quote for instrument"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, Quote{
		InstrumentID: instrumentID,
		Price:        price.String(),
		Timestamp:    time.Now().UnixMilli(),
	})
}
