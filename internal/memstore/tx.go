package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/ariefcatur/go-retail-orders/internal/apperr"
	"github.com/ariefcatur/go-retail-orders/internal/customers"
	"github.com/ariefcatur/go-retail-orders/internal/inventory"
	"github.com/ariefcatur/go-retail-orders/internal/orders"
	"github.com/shopspring/decimal"
)

// tx needs no row locks: the store mutex is held for its whole life.
type tx struct {
	d *data
}

func (t *tx) LockVariant(_ context.Context, variantID string) (*inventory.Variant, error) {
	v, ok := t.d.variants[variantID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperr.ErrVariantNotFound, variantID)
	}
	return &v, nil
}

func (t *tx) SetVariantLevel(_ context.Context, variantID string, level inventory.Level) error {
	v, ok := t.d.variants[variantID]
	if !ok {
		return fmt.Errorf("%w: %s", apperr.ErrVariantNotFound, variantID)
	}
	// sama seperti CHECK constraint di tabel variants
	if err := level.Validate(); err != nil {
		return err
	}
	v.Level = level
	t.d.variants[variantID] = v
	return nil
}

func (t *tx) InsertMovement(_ context.Context, m *inventory.Movement) error {
	t.d.movements = append(t.d.movements, *m)
	return nil
}

func (t *tx) LockCustomer(_ context.Context, customerID string) (*customers.Customer, error) {
	c, ok := t.d.customers[customerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperr.ErrCustomerNotFound, customerID)
	}
	return &c, nil
}

func (t *tx) SetCustomerPurchases(_ context.Context, customerID string, total decimal.Decimal, last *time.Time) error {
	c, ok := t.d.customers[customerID]
	if !ok {
		return fmt.Errorf("%w: %s", apperr.ErrCustomerNotFound, customerID)
	}
	c.TotalPurchases = total
	c.LastPurchaseDate = last
	t.d.customers[customerID] = c
	return nil
}

func (t *tx) LatestSettledPurchase(_ context.Context, customerID, excludeOrderID string) (*time.Time, error) {
	var latest *time.Time
	for id, o := range t.d.orders {
		if id == excludeOrderID || !o.Status.Settled() || o.PaidAt == nil {
			continue
		}
		if o.CustomerID == nil || *o.CustomerID != customerID {
			continue
		}
		if latest == nil || o.PaidAt.After(*latest) {
			at := *o.PaidAt
			latest = &at
		}
	}
	return latest, nil
}

func (t *tx) InsertOrder(_ context.Context, o *orders.Order) error {
	if _, ok := t.d.orders[o.ID]; ok {
		return fmt.Errorf("memstore: order %s already exists", o.ID)
	}
	if o.ExternalID != "" {
		if _, ok := t.d.byExternal[o.ExternalID]; ok {
			return fmt.Errorf("%w: %s", apperr.ErrDuplicateOrder, o.ExternalID)
		}
	}
	if o.CustomerID != nil {
		if _, ok := t.d.customers[*o.CustomerID]; !ok {
			return fmt.Errorf("%w: %s", apperr.ErrCustomerNotFound, *o.CustomerID)
		}
	}
	t.d.orders[o.ID] = copyOrder(o)
	if o.ExternalID != "" {
		t.d.byExternal[o.ExternalID] = o.ID
	}
	return nil
}

func (t *tx) LockOrder(_ context.Context, orderID string) (*orders.Order, error) {
	o, ok := t.d.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperr.ErrOrderNotFound, orderID)
	}
	return copyOrder(o), nil
}

func (t *tx) UpdateOrderStatus(_ context.Context, o *orders.Order) error {
	cur, ok := t.d.orders[o.ID]
	if !ok {
		return fmt.Errorf("%w: %s", apperr.ErrOrderNotFound, o.ID)
	}
	cur.Status = o.Status
	cur.UpdatedAt = o.UpdatedAt
	if o.PaidAt != nil {
		at := *o.PaidAt
		cur.PaidAt = &at
	}
	return nil
}

func (t *tx) InsertAudit(_ context.Context, e *orders.AuditEntry) error {
	t.d.audit = append(t.d.audit, *e)
	return nil
}
