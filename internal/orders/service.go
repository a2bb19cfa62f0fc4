package orders

import (
	"context"
	"sync"
	"time"

	"paperbroker/internal/apperr"
	"paperbroker/internal/ledger"
	"paperbroker/internal/model"
	"paperbroker/internal/store"
	"paperbroker/internal/types"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Store is the persistence collaborator the order service needs.
// OrdersForUser must return orders in ascending chronological order.
type Store interface {
	SaveOrder(ctx context.Context, o model.Order) (model.Order, error)
	Order(ctx context.Context, id string) (model.Order, error)
	OrdersForUser(ctx context.Context, userID string, f store.OrderFilter) ([]model.Order, error)
	PendingOrders(ctx context.Context) ([]model.Order, error)
	UserExists(ctx context.Context, id string) (bool, error)
	InstrumentExists(ctx context.Context, id string) (bool, error)
}

// PriceSource supplies current market prices. A zero price means the
// instrument has no tradable price right now.
type PriceSource interface {
	CurrentPrice(ctx context.Context, instrumentID string) (decimal.Decimal, error)
}

// Service drives orders through their lifecycle: NEW on admission, FILLED
// synchronously for market orders, FILLED or REJECTED at process time for
// pending limit orders, CANCELLED on request. Admission and persist run
// under a per-user lock so two concurrent orders cannot both pass against
// the same balance snapshot.
type Service struct {
	store  Store
	prices PriceSource
	log    *logrus.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(st Store, prices PriceSource, log *logrus.Logger) *Service {
	return &Service{store: st, prices: prices, log: log, locks: make(map[string]*sync.Mutex)}
}

type CreateOrderRequest struct {
	UserID       string
	InstrumentID string
	Side         types.OrderSide
	Type         types.OrderType
	Size         *decimal.Decimal
	Amount       *decimal.Decimal
	LimitPrice   *decimal.Decimal
}

// CreateOrder admits and persists a new order. Trading orders that fail
// admission are persisted as REJECTED and returned without error; a
// failing cash withdrawal is an error and leaves no order behind.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (model.Order, error) {
	if !req.Side.Valid() {
		return model.Order{}, errors.Wrapf(apperr.ErrInvalidOrder, "unknown side %q", req.Side)
	}
	if !req.Type.Valid() {
		return model.Order{}, errors.Wrapf(apperr.ErrInvalidOrder, "unknown type %q", req.Type)
	}
	ok, err := s.store.UserExists(ctx, req.UserID)
	if err != nil {
		return model.Order{}, err
	}
	if !ok {
		return model.Order{}, apperr.ErrUserNotFound
	}

	unlock := s.lockUser(req.UserID)
	defer unlock()

	if req.Side.Cash() {
		return s.createCashOrder(ctx, req)
	}

	ok, err = s.store.InstrumentExists(ctx, req.InstrumentID)
	if err != nil {
		return model.Order{}, err
	}
	if !ok {
		return model.Order{}, apperr.ErrInstrumentNotFound
	}

	marketPrice, err := s.prices.CurrentPrice(ctx, req.InstrumentID)
	if err != nil {
		return model.Order{}, errors.Wrap(err, "current price")
	}
	if req.Type == types.OrderTypeMarket && marketPrice.LessThanOrEqual(decimal.Zero) {
		return model.Order{}, errors.Wrap(apperr.ErrInvalidOrder, "no tradable price for instrument")
	}

	exec, err := ResolveExecution(PriceRequest{
		Type:        req.Type,
		MarketPrice: marketPrice,
		LimitPrice:  req.LimitPrice,
		Size:        req.Size,
		Amount:      req.Amount,
	})
	if err != nil {
		return model.Order{}, err
	}

	accepted, err := s.admit(ctx, req.UserID, req.InstrumentID, req.Side, exec, "")
	if err != nil {
		return model.Order{}, err
	}

	order := model.Order{
		UserID:       req.UserID,
		InstrumentID: req.InstrumentID,
		Side:         req.Side,
		Type:         req.Type,
		Size:         exec.Size,
		Price:        &exec.Price,
		CreatedAt:    time.Now().UTC(),
	}
	switch {
	case !accepted:
		order.Status = types.OrderStatusRejected
	case req.Type == types.OrderTypeMarket:
		// Market orders fill in the same call; admission was checked
		// immediately above, so no re-validation.
		order.Status = types.OrderStatusFilled
	default:
		order.Status = types.OrderStatusNew
	}

	order, err = s.store.SaveOrder(ctx, order)
	if err != nil {
		return model.Order{}, errors.Wrap(err, "save order")
	}
	s.log.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"user_id":    order.UserID,
		"instrument": order.InstrumentID,
		"side":       order.Side,
		"status":     order.Status,
	}).Info("order created")
	return order, nil
}

func (s *Service) createCashOrder(ctx context.Context, req CreateOrderRequest) (model.Order, error) {
	amount := req.Amount
	if amount == nil {
		amount = req.Size
	}
	if amount == nil || amount.LessThanOrEqual(decimal.Zero) {
		return model.Order{}, errors.Wrap(apperr.ErrInvalidOrder, "cash order requires a positive amount")
	}

	accepted, err := s.admit(ctx, req.UserID, "", req.Side, Execution{Size: *amount}, "")
	if err != nil {
		return model.Order{}, err
	}
	if !accepted {
		// Deliberate asymmetry with trading orders: a failing withdrawal
		// is surfaced to the caller and never persisted.
		return model.Order{}, apperr.ErrInsufficientFunds
	}

	order, err := s.store.SaveOrder(ctx, model.Order{
		UserID:    req.UserID,
		Side:      req.Side,
		Type:      types.OrderTypeMarket,
		Status:    types.OrderStatusFilled,
		Size:      *amount,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return model.Order{}, errors.Wrap(err, "save cash order")
	}
	s.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"side":     order.Side,
		"amount":   amount.String(),
	}).Info("cash order filled")
	return order, nil
}

// ProcessOrder executes one pending order. Admission is re-run against the
// current ledger state, excluding the order's own reservation so it cannot
// block on resources it holds itself. The order always leaves in a
// terminal state: FILLED on success, REJECTED otherwise.
func (s *Service) ProcessOrder(ctx context.Context, orderID string) (model.Order, error) {
	order, err := s.store.Order(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}

	unlock := s.lockUser(order.UserID)
	defer unlock()

	order, err = s.store.Order(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if order.Status.Terminal() {
		return model.Order{}, errors.Wrapf(apperr.ErrInvalidStateTransition, "order %s is %s", order.ID, order.Status)
	}

	exec := Execution{Size: order.Size}
	if order.Price != nil {
		exec.Price = *order.Price
	}
	accepted, err := s.admit(ctx, order.UserID, order.InstrumentID, order.Side, exec, order.ID)
	if err != nil {
		return model.Order{}, err
	}
	if accepted {
		order.Status = types.OrderStatusFilled
	} else {
		order.Status = types.OrderStatusRejected
	}
	order, err = s.store.SaveOrder(ctx, order)
	if err != nil {
		return model.Order{}, errors.Wrap(err, "save order")
	}
	s.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
	}).Info("order processed")
	return order, nil
}

type ProcessResult struct {
	Total    int `json:"total"`
	Filled   int `json:"filled"`
	Rejected int `json:"rejected"`
	Failed   int `json:"failed"`
}

// ProcessPending walks all NEW orders in sequence. There is no internal
// scheduler; this is the batch entry point a cron or an admin call drives.
func (s *Service) ProcessPending(ctx context.Context) (ProcessResult, error) {
	pending, err := s.store.PendingOrders(ctx)
	if err != nil {
		return ProcessResult{}, errors.Wrap(err, "list pending orders")
	}
	res := ProcessResult{Total: len(pending)}
	for _, o := range pending {
		processed, err := s.ProcessOrder(ctx, o.ID)
		if err != nil {
			s.log.WithError(err).WithField("order_id", o.ID).Warn("process pending order")
			res.Failed++
			continue
		}
		if processed.Status == types.OrderStatusFilled {
			res.Filled++
		} else {
			res.Rejected++
		}
	}
	return res, nil
}

// CancelOrder moves a NEW order to CANCELLED. Only the owner may cancel,
// and terminal orders are refused. Releasing the reservation is implicit:
// the calculators simply stop counting a cancelled order.
func (s *Service) CancelOrder(ctx context.Context, orderID, userID string) (model.Order, error) {
	order, err := s.store.Order(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if order.UserID != userID {
		return model.Order{}, errors.Wrap(apperr.ErrUnauthorized, "order belongs to another user")
	}

	unlock := s.lockUser(order.UserID)
	defer unlock()

	order, err = s.store.Order(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if order.Status.Terminal() {
		return model.Order{}, errors.Wrapf(apperr.ErrInvalidStateTransition, "order %s is %s", order.ID, order.Status)
	}
	order.Status = types.OrderStatusCancelled
	order, err = s.store.SaveOrder(ctx, order)
	if err != nil {
		return model.Order{}, errors.Wrap(err, "save order")
	}
	s.log.WithFields(logrus.Fields{"order_id": order.ID, "user_id": order.UserID}).Info("order cancelled")
	return order, nil
}

// Portfolio values the user's holdings by recomputing both ledgers over
// the current order set. There is no running balance to read.
func (s *Service) Portfolio(ctx context.Context, userID string) (model.Portfolio, error) {
	ok, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return model.Portfolio{}, err
	}
	if !ok {
		return model.Portfolio{}, apperr.ErrUserNotFound
	}

	live, err := s.store.OrdersForUser(ctx, userID, store.Live())
	if err != nil {
		return model.Portfolio{}, errors.Wrap(err, "load live orders")
	}

	p := model.Portfolio{
		UserID:    userID,
		Cash:      ledger.Cash(live),
		Positions: []model.Position{},
	}

	// Group trading orders per instrument, preserving chronological order
	// within each group.
	var instruments []string
	byInstrument := make(map[string][]model.Order)
	for _, o := range live {
		if !o.Side.Trading() {
			continue
		}
		if _, seen := byInstrument[o.InstrumentID]; !seen {
			instruments = append(instruments, o.InstrumentID)
		}
		byInstrument[o.InstrumentID] = append(byInstrument[o.InstrumentID], o)
	}
	for _, id := range instruments {
		price, err := s.prices.CurrentPrice(ctx, id)
		if err != nil {
			// No tradable price: value the position at zero rather than
			// failing the whole portfolio read.
			price = decimal.Zero
		}
		p.Positions = append(p.Positions, ledger.Position(id, byInstrument[id], price))
	}
	return p, nil
}

// History returns the user's full order history, oldest first.
func (s *Service) History(ctx context.Context, userID string) ([]model.Order, error) {
	ok, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrUserNotFound
	}
	return s.store.OrdersForUser(ctx, userID, store.OrderFilter{})
}

// lockUser serializes admission+persist for one user. Without it two
// concurrent orders could both read the same available-balance snapshot,
// both pass admission and over-commit the account.
func (s *Service) lockUser(userID string) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}
