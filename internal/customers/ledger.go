// Package customers keeps the cumulative purchase fields of a customer in step
// with the orders that settle or get reversed.
package customers

import (
	"context"
	"time"

	"github.com/ariefcatur/go-retail-orders/internal/apperr"
	"github.com/shopspring/decimal"
)

type Customer struct {
	ID               string
	TotalPurchases   decimal.Decimal
	LastPurchaseDate *time.Time
}

// Store runs on the caller's transaction. LockCustomer returns
// apperr.ErrCustomerNotFound for an unknown id.
type Store interface {
	LockCustomer(ctx context.Context, customerID string) (*Customer, error)
	SetCustomerPurchases(ctx context.Context, customerID string, total decimal.Decimal, last *time.Time) error
	// LatestSettledPurchase is the paid time of the newest settled order of the
	// customer other than excludeOrderID, or nil.
	LatestSettledPurchase(ctx context.Context, customerID, excludeOrderID string) (*time.Time, error)
}

type Ledger struct {
	st Store
}

func NewLedger(st Store) *Ledger { return &Ledger{st: st} }

// ApplyPurchase adds amount to the customer's spend. Guest orders (nil id) are skipped.
func (l *Ledger) ApplyPurchase(ctx context.Context, customerID *string, amount decimal.Decimal, at time.Time) error {
	if customerID == nil {
		return nil
	}
	if amount.IsNegative() {
		return apperr.InvalidArgumentf("purchase amount %s is negative", amount)
	}
	c, err := l.st.LockCustomer(ctx, *customerID)
	if err != nil {
		return err
	}
	last := at
	if c.LastPurchaseDate != nil && c.LastPurchaseDate.After(at) {
		last = *c.LastPurchaseDate
	}
	return l.st.SetCustomerPurchases(ctx, c.ID, c.TotalPurchases.Add(amount), &last)
}

// ReversePurchase takes amount back off the customer's spend and points
// lastPurchaseDate at the newest settled order that remains.
func (l *Ledger) ReversePurchase(ctx context.Context, customerID *string, orderID string, amount decimal.Decimal) error {
	if customerID == nil {
		return nil
	}
	if amount.IsNegative() {
		return apperr.InvalidArgumentf("purchase amount %s is negative", amount)
	}
	c, err := l.st.LockCustomer(ctx, *customerID)
	if err != nil {
		return err
	}
	total := c.TotalPurchases.Sub(amount)
	if total.IsNegative() {
		// data lama bisa lebih kecil dari order yang di-reverse
		total = decimal.Zero
	}
	last, err := l.st.LatestSettledPurchase(ctx, c.ID, orderID)
	if err != nil {
		return err
	}
	return l.st.SetCustomerPurchases(ctx, c.ID, total, last)
}
