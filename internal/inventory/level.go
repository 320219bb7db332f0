package inventory

import (
	"fmt"

	"github.com/ariefcatur/go-retail-orders/internal/apperr"
)

// Level holds the two stored counters of a variant. Availability is always
// derived from them and never stored on its own.
type Level struct {
	Actual   int `json:"stock_actual"`
	Reserved int `json:"stock_reserved"`
}

func (l Level) Available() int { return l.Actual - l.Reserved }

func (l Level) Validate() error {
	switch {
	case l.Actual < 0:
		return fmt.Errorf("%w: actual %d < 0", apperr.ErrStockInvariant, l.Actual)
	case l.Reserved < 0:
		return fmt.Errorf("%w: reserved %d < 0", apperr.ErrStockInvariant, l.Reserved)
	case l.Reserved > l.Actual:
		return fmt.Errorf("%w: reserved %d > actual %d", apperr.ErrStockInvariant, l.Reserved, l.Actual)
	}
	return nil
}

// Reserve puts a soft hold of qty units. Fails with a *apperr.StockError when
// fewer than qty units are available.
func (l Level) Reserve(variantID string, qty int) (Level, error) {
	if err := checkQty(qty); err != nil {
		return l, err
	}
	if l.Available() < qty {
		return l, &apperr.StockError{VariantID: variantID, Requested: qty, Available: l.Available()}
	}
	next := Level{Actual: l.Actual, Reserved: l.Reserved + qty}
	return next, next.Validate()
}

// CommitReservation turns a hold into a physical decrement.
func (l Level) CommitReservation(qty int) (Level, error) {
	if err := checkQty(qty); err != nil {
		return l, err
	}
	next := Level{Actual: l.Actual - qty, Reserved: l.Reserved - qty}
	return next, next.Validate()
}

func (l Level) ReleaseReservation(qty int) (Level, error) {
	if err := checkQty(qty); err != nil {
		return l, err
	}
	next := Level{Actual: l.Actual, Reserved: l.Reserved - qty}
	return next, next.Validate()
}

// Restock puts qty units back on hand (return or cancel after fulfilment).
func (l Level) Restock(qty int) (Level, error) {
	if err := checkQty(qty); err != nil {
		return l, err
	}
	next := Level{Actual: l.Actual + qty, Reserved: l.Reserved}
	return next, next.Validate()
}

func checkQty(qty int) error {
	if qty <= 0 {
		return apperr.InvalidArgumentf("quantity must be positive, got %d", qty)
	}
	return nil
}
