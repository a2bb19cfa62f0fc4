// Package instruments exposes plain string search over the instrument
// catalog by ticker or name.
package instruments

import (
	"context"
	"net/http"

	"paperbroker/internal/httputil"
	"paperbroker/internal/model"
)

type Searcher interface {
	SearchInstruments(ctx context.Context, query string) ([]model.Instrument, error)
}

type Handler struct {
	store Searcher
}

func NewHandler(store Searcher) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.SearchInstruments(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: "search failed"})
		return
	}
	if results == nil {
		results = []model.Instrument{}
	}
	httputil.WriteJSON(w, http.StatusOK, results)
}
