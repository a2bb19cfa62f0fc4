package store

import (
	"context"
	"strconv"
	"strings"
	"time"

	"paperbroker/internal/apperr"
	"paperbroker/internal/model"
	"paperbroker/internal/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const orderColumns = "id, user_id, instrument_id, side, type, status, size, price, created_at"

func scanOrder(row pgx.Row) (model.Order, error) {
	var o model.Order
	var side, typ, status string
	var instrumentID *string
	var price *decimal.Decimal
	if err := row.Scan(&o.ID, &o.UserID, &instrumentID, &side, &typ, &status, &o.Size, &price, &o.CreatedAt); err != nil {
		return o, err
	}
	if instrumentID != nil {
		o.InstrumentID = *instrumentID
	}
	o.Side = types.OrderSide(side)
	o.Type = types.OrderType(typ)
	o.Status = types.OrderStatus(status)
	o.Price = price
	return o, nil
}

// nullIfEmpty maps the empty instrument of cash orders to SQL NULL.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *Postgres) SaveOrder(ctx context.Context, o model.Order) (model.Order, error) {
	if o.ID == "" {
		err := s.pool.QueryRow(ctx,
			"insert into orders (user_id, instrument_id, side, type, status, size, price, created_at) values ($1,$2,$3,$4,$5,$6,$7,$8) returning id",
			o.UserID, nullIfEmpty(o.InstrumentID), string(o.Side), string(o.Type), string(o.Status), o.Size, o.Price, o.CreatedAt,
		).Scan(&o.ID)
		if err != nil {
			return o, errors.Wrap(err, "insert order")
		}
		return o, nil
	}
	tag, err := s.pool.Exec(ctx,
		"update orders set status = $1, price = $2, size = $3, updated_at = $4 where id = $5",
		string(o.Status), o.Price, o.Size, time.Now().UTC(), o.ID,
	)
	if err != nil {
		return o, errors.Wrap(err, "update order")
	}
	if tag.RowsAffected() == 0 {
		return o, apperr.ErrOrderNotFound
	}
	return o, nil
}

func (s *Postgres) Order(ctx context.Context, id string) (model.Order, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx, "select "+orderColumns+" from orders where id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return o, apperr.ErrOrderNotFound
		}
		return o, errors.Wrap(err, "get order")
	}
	return o, nil
}

func (s *Postgres) OrdersForUser(ctx context.Context, userID string, f OrderFilter) ([]model.Order, error) {
	query := "select " + orderColumns + " from orders where user_id = $1"
	args := []any{userID}
	if f.InstrumentID != "" {
		args = append(args, f.InstrumentID)
		query += " and instrument_id = $2"
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, st := range f.Statuses {
			statuses = append(statuses, string(st))
		}
		args = append(args, statuses)
		query += " and status = any($" + strconv.Itoa(len(args)) + ")"
	}
	// Ascending order is load-bearing: average cost and realized gains
	// depend on replaying fills chronologically.
	query += " order by created_at asc, id asc"
	return s.queryOrders(ctx, query, args...)
}

func (s *Postgres) PendingOrders(ctx context.Context) ([]model.Order, error) {
	return s.queryOrders(ctx, "select "+orderColumns+" from orders where status = 'new' order by created_at asc, id asc")
}

func (s *Postgres) queryOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	defer rows.Close()
	var out []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Postgres) UserExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, "select exists(select 1 from users where id = $1)", id).Scan(&exists)
	return exists, errors.Wrap(err, "user exists")
}

func (s *Postgres) InstrumentExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, "select exists(select 1 from instruments where id = $1)", id).Scan(&exists)
	return exists, errors.Wrap(err, "instrument exists")
}

func (s *Postgres) Instruments(ctx context.Context) ([]model.Instrument, error) {
	return s.queryInstruments(ctx, "select id, ticker, name from instruments order by ticker")
}

func (s *Postgres) SearchInstruments(ctx context.Context, query string) ([]model.Instrument, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return s.Instruments(ctx)
	}
	pattern := "%" + q + "%"
	return s.queryInstruments(ctx,
		"select id, ticker, name from instruments where ticker ilike $1 or name ilike $1 order by ticker", pattern)
}

func (s *Postgres) queryInstruments(ctx context.Context, query string, args ...any) ([]model.Instrument, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list instruments")
	}
	defer rows.Close()
	var out []model.Instrument
	for rows.Next() {
		var in model.Instrument
		if err := rows.Scan(&in.ID, &in.Ticker, &in.Name); err != nil {
			return nil, errors.Wrap(err, "scan instrument")
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
