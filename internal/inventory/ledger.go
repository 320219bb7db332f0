package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/ariefcatur/go-retail-orders/internal/apperr"
	"github.com/google/uuid"
)

// Store is the slice of the caller's transaction the ledger works on.
// LockVariant must hold a row lock until the transaction ends.
type Store interface {
	LockVariant(ctx context.Context, variantID string) (*Variant, error)
	SetVariantLevel(ctx context.Context, variantID string, level Level) error
	InsertMovement(ctx context.Context, m *Movement) error
}

// Ledger is the only writer of variant stock. It never commits: every call
// runs inside the transaction that owns st.
type Ledger struct {
	st  Store
	now func() time.Time
}

func NewLedger(st Store, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{st: st, now: now}
}

// Reserve holds qty units of an active variant for a pending order.
func (l *Ledger) Reserve(ctx context.Context, variantID string, qty int) (*Variant, error) {
	v, err := l.lock(ctx, variantID, qty)
	if err != nil {
		return nil, err
	}
	if !v.Active {
		return nil, fmt.Errorf("%w: %s is inactive", apperr.ErrVariantNotFound, variantID)
	}
	next, err := v.Level.Reserve(variantID, qty)
	if err != nil {
		return nil, err
	}
	if err := l.st.SetVariantLevel(ctx, variantID, next); err != nil {
		return nil, err
	}
	v.Level = next
	return v, nil
}

// CommitReservation decrements on-hand stock for a held quantity and records
// one outbound movement.
func (l *Ledger) CommitReservation(ctx context.Context, variantID string, qty int, ref Ref) error {
	v, err := l.lock(ctx, variantID, qty)
	if err != nil {
		return err
	}
	next, err := v.Level.CommitReservation(qty)
	if err != nil {
		return fmt.Errorf("commit reservation %s: %w", variantID, err)
	}
	if err := l.st.SetVariantLevel(ctx, variantID, next); err != nil {
		return err
	}
	return l.record(ctx, variantID, MovementOutbound, RefSale, qty, ref, "Venta procesada")
}

// ReleaseReservation drops a hold. Nothing moved physically, so no movement.
func (l *Ledger) ReleaseReservation(ctx context.Context, variantID string, qty int) error {
	v, err := l.lock(ctx, variantID, qty)
	if err != nil {
		return err
	}
	next, err := v.Level.ReleaseReservation(qty)
	if err != nil {
		return fmt.Errorf("release reservation %s: %w", variantID, err)
	}
	return l.st.SetVariantLevel(ctx, variantID, next)
}

// Reverse returns qty units to on-hand stock and records an inbound
// "Devolución" movement.
func (l *Ledger) Reverse(ctx context.Context, variantID string, qty int, ref Ref) error {
	v, err := l.lock(ctx, variantID, qty)
	if err != nil {
		return err
	}
	next, err := v.Level.Restock(qty)
	if err != nil {
		return fmt.Errorf("reverse %s: %w", variantID, err)
	}
	if err := l.st.SetVariantLevel(ctx, variantID, next); err != nil {
		return err
	}
	return l.record(ctx, variantID, MovementInbound, RefReturn, qty, ref, "Venta cancelada")
}

func (l *Ledger) lock(ctx context.Context, variantID string, qty int) (*Variant, error) {
	if variantID == "" {
		return nil, apperr.InvalidArgument("variant id is required")
	}
	if err := checkQty(qty); err != nil {
		return nil, err
	}
	return l.st.LockVariant(ctx, variantID)
}

func (l *Ledger) record(ctx context.Context, variantID string, kind MovementKind, refType string, qty int, ref Ref, defaultReason string) error {
	reason := ref.Reason
	if reason == "" {
		reason = defaultReason
	}
	return l.st.InsertMovement(ctx, &Movement{
		ID:            uuid.NewString(),
		VariantID:     variantID,
		WarehouseID:   ref.WarehouseID,
		Kind:          kind,
		Quantity:      qty,
		ReferenceID:   ref.OrderID,
		ReferenceType: refType,
		ActorID:       ref.ActorID,
		Reason:        reason,
		CreatedAt:     l.now(),
	})
}
