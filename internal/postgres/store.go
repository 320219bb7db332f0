package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-retail-orders/internal/apperr"
	"github.com/ariefcatur/go-retail-orders/internal/orders"
	"github.com/ariefcatur/go-retail-orders/internal/sales"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is what pgxpool.Pool and pgx.Tx have in common.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct{ DB *pgxpool.Pool }

var _ sales.Store = (*Store)(nil)

func NewStore(db *pgxpool.Pool) *Store { return &Store{DB: db} }

// InTx: satu transaksi per call, rollback di semua jalur selain commit.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx sales.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (*orders.Order, error) {
	return loadOrder(ctx, s.DB, "o.id = $1", orderID, false)
}

func (s *Store) GetOrderByExternalID(ctx context.Context, externalID string) (*orders.Order, error) {
	return loadOrder(ctx, s.DB, "o.external_id = $1", externalID, false)
}

const orderColumns = `o.id, o.code, COALESCE(o.external_id, ''), o.customer_id, o.employee_id, o.branch_id,
       o.order_type, o.payment_method, o.status, COALESCE(o.shipping_address, ''), o.shipping_cost,
       o.subtotal, o.discount_total, o.tax_total, o.total, COALESCE(o.notes, ''), o.paid_at,
       o.created_at, o.updated_at`

func loadOrder(ctx context.Context, q querier, where string, arg any, forUpdate bool) (*orders.Order, error) {
	sql := `SELECT ` + orderColumns + ` FROM orders o WHERE ` + where
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	var o orders.Order
	err := q.QueryRow(ctx, sql, arg).Scan(
		&o.ID, &o.Code, &o.ExternalID, &o.CustomerID, &o.EmployeeID, &o.BranchID,
		&o.Type, &o.PaymentMethod, &o.Status, &o.ShippingAddress, &o.ShippingCost,
		&o.Subtotal, &o.DiscountTotal, &o.TaxTotal, &o.Total, &o.Notes, &o.PaidAt,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", apperr.ErrOrderNotFound, arg)
	}
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, order_id, variant_id, quantity, unit_price, unit_discount, unit_tax,
		       tax_rate, line_subtotal, line_discount, line_tax
		  FROM order_lines
		 WHERE order_id = $1
		 ORDER BY position`, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l orders.Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.VariantID, &l.Quantity, &l.UnitPrice, &l.UnitDiscount,
			&l.UnitTax, &l.TaxRate, &l.Subtotal, &l.Discount, &l.Tax); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}
