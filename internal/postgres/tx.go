package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-retail-orders/internal/apperr"
	"github.com/ariefcatur/go-retail-orders/internal/customers"
	"github.com/ariefcatur/go-retail-orders/internal/inventory"
	"github.com/ariefcatur/go-retail-orders/internal/orders"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type pgTx struct {
	tx pgx.Tx
}

// LockVariant takes the row lock that serialises concurrent reservations.
func (t *pgTx) LockVariant(ctx context.Context, variantID string) (*inventory.Variant, error) {
	var (
		v    inventory.Variant
		rate decimal.NullDecimal
	)
	err := t.tx.QueryRow(ctx, `
		SELECT v.id, v.product_id, v.sku, v.stock_actual, v.stock_reserved, p.tax_rate, v.active, v.updated_at
		  FROM variants v
		  JOIN products p ON p.id = v.product_id
		 WHERE v.id = $1
		   FOR UPDATE OF v`, variantID).
		Scan(&v.ID, &v.ProductID, &v.SKU, &v.Level.Actual, &v.Level.Reserved, &rate, &v.Active, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrVariantNotFound, variantID)
	}
	if err != nil {
		return nil, err
	}
	if rate.Valid {
		v.TaxRate = &rate.Decimal
	}
	return &v, nil
}

func (t *pgTx) SetVariantLevel(ctx context.Context, variantID string, level inventory.Level) error {
	if err := level.Validate(); err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `
		UPDATE variants SET stock_actual = $2, stock_reserved = $3, updated_at = now()
		 WHERE id = $1`, variantID, level.Actual, level.Reserved)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", apperr.ErrVariantNotFound, variantID)
	}
	return nil
}

func (t *pgTx) InsertMovement(ctx context.Context, m *inventory.Movement) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO inventory_movements
		       (id, variant_id, warehouse_id, kind, quantity, reference_id, reference_type, actor_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, m.VariantID, m.WarehouseID, string(m.Kind), m.Quantity, m.ReferenceID, m.ReferenceType,
		m.ActorID, m.Reason, m.CreatedAt)
	return mapError(err)
}

func (t *pgTx) LockCustomer(ctx context.Context, customerID string) (*customers.Customer, error) {
	var c customers.Customer
	err := t.tx.QueryRow(ctx, `
		SELECT id, total_purchases, last_purchase_date FROM customers WHERE id = $1 FOR UPDATE`, customerID).
		Scan(&c.ID, &c.TotalPurchases, &c.LastPurchaseDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrCustomerNotFound, customerID)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (t *pgTx) SetCustomerPurchases(ctx context.Context, customerID string, total decimal.Decimal, last *time.Time) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE customers SET total_purchases = $2, last_purchase_date = $3, updated_at = now()
		 WHERE id = $1`, customerID, total, last)
	return mapError(err)
}

func (t *pgTx) LatestSettledPurchase(ctx context.Context, customerID, excludeOrderID string) (*time.Time, error) {
	var last *time.Time
	err := t.tx.QueryRow(ctx, `
		SELECT max(paid_at) FROM orders
		 WHERE customer_id = $1 AND id <> $2 AND status = ANY($3)`,
		customerID, excludeOrderID, settledStatuses()).Scan(&last)
	if err != nil {
		return nil, err
	}
	return last, nil
}

func settledStatuses() []string {
	out := make([]string, 0, len(orders.SettledStatuses))
	for _, s := range orders.SettledStatuses {
		out = append(out, string(s))
	}
	return out
}

func (t *pgTx) InsertOrder(ctx context.Context, o *orders.Order) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders
		       (id, code, external_id, customer_id, employee_id, branch_id, order_type, payment_method, status,
		        shipping_address, shipping_cost, subtotal, discount_total, tax_total, total, notes, paid_at,
		        created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12, $13, $14, $15,
		        NULLIF($16, ''), $17, $18, $19)`,
		o.ID, o.Code, o.ExternalID, o.CustomerID, o.EmployeeID, o.BranchID, string(o.Type),
		string(o.PaymentMethod), string(o.Status), o.ShippingAddress, o.ShippingCost, o.Subtotal,
		o.DiscountTotal, o.TaxTotal, o.Total, o.Notes, o.PaidAt, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return mapError(err)
	}

	batch := &pgx.Batch{}
	for i, l := range o.Lines {
		batch.Queue(`
			INSERT INTO order_lines
			       (id, order_id, position, variant_id, quantity, unit_price, unit_discount, unit_tax, tax_rate,
			        line_subtotal, line_discount, line_tax)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			l.ID, o.ID, i+1, l.VariantID, l.Quantity, l.UnitPrice, l.UnitDiscount, l.UnitTax, l.TaxRate,
			l.Subtotal, l.Discount, l.Tax)
	}
	if batch.Len() == 0 {
		return nil
	}
	return mapError(t.tx.SendBatch(ctx, batch).Close())
}

func (t *pgTx) LockOrder(ctx context.Context, orderID string) (*orders.Order, error) {
	return loadOrder(ctx, t.tx, "o.id = $1", orderID, true)
}

func (t *pgTx) UpdateOrderStatus(ctx context.Context, o *orders.Order) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE orders SET status = $2, paid_at = COALESCE($3, paid_at), updated_at = $4
		 WHERE id = $1`, o.ID, string(o.Status), o.PaidAt, o.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", apperr.ErrOrderNotFound, o.ID)
	}
	return nil
}

func (t *pgTx) InsertAudit(ctx context.Context, e *orders.AuditEntry) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO audit_log (id, table_name, action, record_id, before, after, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)`,
		e.ID, e.Table, e.Action, e.RecordID, []byte(e.Before), []byte(e.After), e.ActorID, e.CreatedAt)
	return mapError(err)
}
