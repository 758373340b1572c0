package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/predictive-exchange/binary-market/internal/domain"
	"github.com/predictive-exchange/binary-market/internal/port"
)

var _ port.Repository = (*PgRepo)(nil)

// PgRepo persists orders, trades and the market resolution in Postgres.
type PgRepo struct {
	pool *pgxpool.Pool
}

// NewPgRepo connects a pool; call Close when finished with the database.
func NewPgRepo(ctx context.Context, dsn string) (*PgRepo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	return &PgRepo{pool: pool}, nil
}

func (p *PgRepo) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

const upsertOrder = `
INSERT INTO orders(id, user_id, option, side, type, price, quantity, remaining, status, created_at, sequence)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  remaining = EXCLUDED.remaining,
  status = EXCLUDED.status
`

const insertTrade = `
INSERT INTO trades(id, option, taker_order, maker_order, taker_user_id, maker_user_id, taker_side, price, size, executed_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO NOTHING
`

func (p *PgRepo) SaveOrder(ctx context.Context, o *domain.Order) error {
	if o == nil {
		return errors.New("nil order")
	}
	_, err := p.pool.Exec(ctx, upsertOrder,
		o.ID, o.UserID, string(o.Option), string(o.Side), string(o.Type),
		o.Price, o.Quantity, o.Remaining, string(o.Status), o.CreatedAt, o.Sequence)
	return err
}

func (p *PgRepo) SaveTrade(ctx context.Context, t *domain.Trade) error {
	if t == nil {
		return errors.New("nil trade")
	}
	_, err := p.pool.Exec(ctx, insertTrade,
		t.ID, string(t.Option), t.TakerOrder, t.MakerOrder, t.TakerUserID, t.MakerUserID,
		string(t.TakerSide), t.Price, t.Size, t.Timestamp)
	return err
}

// LoadOpenOrders returns resting orders ordered by created_at, sequence
// ASC so the book rebuilds with FIFO intact.
func (p *PgRepo) LoadOpenOrders(ctx context.Context) ([]*domain.Order, error) {
	rows, err := p.pool.Query(ctx, `
SELECT id, user_id, option, side, type, price, quantity, remaining, status, created_at, sequence
FROM orders
WHERE status IN ('OPEN', 'PARTIALLY_FILLED') AND remaining > 0
ORDER BY created_at ASC, sequence ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Order
	for rows.Next() {
		var o domain.Order
		var option, side, typ, status string
		if err := rows.Scan(&o.ID, &o.UserID, &option, &side, &typ,
			&o.Price, &o.Quantity, &o.Remaining, &status, &o.CreatedAt, &o.Sequence); err != nil {
			return nil, err
		}
		o.Option = domain.Option(option)
		o.Side = domain.Side(side)
		o.Type = domain.OrderType(typ)
		o.Status = domain.OrderStatus(status)
		res = append(res, &o)
	}
	return res, rows.Err()
}

// CancelOrder marks an order cancelled if it still rests.
func (p *PgRepo) CancelOrder(ctx context.Context, orderID string) error {
	res, err := p.pool.Exec(ctx, `
UPDATE orders
SET status = 'CANCELLED'
WHERE id = $1 AND status IN ('OPEN', 'PARTIALLY_FILLED')
`, orderID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return errors.New("order not found or already closed")
	}
	return nil
}

func (p *PgRepo) SaveResolution(ctx context.Context, outcome domain.Option, resolvedAt time.Time) error {
	_, err := p.pool.Exec(ctx, `
INSERT INTO resolutions(outcome, resolved_at)
VALUES($1,$2)
`, string(outcome), resolvedAt)
	return err
}

func (p *PgRepo) BeginTx(ctx context.Context) (port.Tx, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) SaveOrder(ctx context.Context, o *domain.Order) error {
	_, err := t.tx.Exec(ctx, upsertOrder,
		o.ID, o.UserID, string(o.Option), string(o.Side), string(o.Type),
		o.Price, o.Quantity, o.Remaining, string(o.Status), o.CreatedAt, o.Sequence)
	return err
}

func (t *pgTx) SaveTrade(ctx context.Context, tr *domain.Trade) error {
	_, err := t.tx.Exec(ctx, insertTrade,
		tr.ID, string(tr.Option), tr.TakerOrder, tr.MakerOrder, tr.TakerUserID, tr.MakerUserID,
		string(tr.TakerSide), tr.Price, tr.Size, tr.Timestamp)
	return err
}

func (t *pgTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
