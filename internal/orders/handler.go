package orders

import (
	"errors"
	"net/http"
	"strings"

	"paperbroker/internal/apperr"
	"paperbroker/internal/httputil"
	"paperbroker/internal/types"

	"github.com/shopspring/decimal"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type createOrderRequest struct {
	UserID       string `json:"user_id"`
	InstrumentID string `json:"instrument_id"`
	Side         string `json:"side"`
	Type         string `json:"type"`
	Size         string `json:"size"`
	Amount       string `json:"amount"`
	LimitPrice   string `json:"limit_price"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "user_id is required"})
		return
	}
	size, err := parseOptionalDecimal(req.Size)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "invalid size"})
		return
	}
	amount, err := parseOptionalDecimal(req.Amount)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "invalid amount"})
		return
	}
	limitPrice, err := parseOptionalDecimal(req.LimitPrice)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "invalid limit_price"})
		return
	}
	orderType := types.OrderType(req.Type)
	if req.Type == "" {
		orderType = types.OrderTypeMarket
	}
	order, err := h.svc.CreateOrder(r.Context(), CreateOrderRequest{
		UserID:       req.UserID,
		InstrumentID: req.InstrumentID,
		Side:         types.OrderSide(req.Side),
		Type:         orderType,
		Size:         size,
		Amount:       amount,
		LimitPrice:   limitPrice,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, order)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request, orderID string) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "user_id is required"})
		return
	}
	order, err := h.svc.CancelOrder(r.Context(), orderID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, order)
}

func (h *Handler) Process(w http.ResponseWriter, r *http.Request, orderID string) {
	order, err := h.svc.ProcessOrder(r.Context(), orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, order)
}

func (h *Handler) ProcessAll(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ProcessPending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "user_id is required"})
		return
	}
	orders, err := h.svc.History(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) Portfolio(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "user_id is required"})
		return
	}
	p, err := h.svc.Portfolio(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteJSON(w, statusFor(err), httputil.ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrOrderNotFound),
		errors.Is(err, apperr.ErrUserNotFound),
		errors.Is(err, apperr.ErrInstrumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrInvalidStateTransition):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrInvalidOrder),
		errors.Is(err, apperr.ErrInsufficientFunds),
		errors.Is(err, apperr.ErrInsufficientShares):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func parseOptionalDecimal(raw string) (*decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
