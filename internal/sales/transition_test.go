package sales_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ariefcatur/go-retail-orders/internal/apperr"
	"github.com/ariefcatur/go-retail-orders/internal/inventory"
	"github.com/ariefcatur/go-retail-orders/internal/orders"
	"github.com/ariefcatur/go-retail-orders/internal/sales"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingThenCancel_ReleasesReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, _, err := f.svc.CreateOrder(ctx, input(orders.PaymentTransfer, line("V", 3, "100")))
	require.NoError(t, err)
	require.Equal(t, inventory.Level{Actual: 10, Reserved: 3}, f.level(t, "V"))

	cancelled, err := f.svc.CancelOrder(ctx, sales.CancelInput{OrderID: o.ID, Reason: "cliente desistió", ActorID: "E2"})

	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, cancelled.Status)
	assert.Equal(t, inventory.Level{Actual: 10, Reserved: 0}, f.level(t, "V"))
	assert.Empty(t, f.store.Movements())

	audit := f.store.AuditEntries()
	require.Len(t, audit, 1)
	assert.Equal(t, o.ID, audit[0].RecordID)
	assert.Equal(t, "E2", audit[0].ActorID)
	assert.Equal(t, orders.AuditActionCancel, audit[0].Action)

	assert.Equal(t, []string{orders.EventOrderCreated, orders.EventOrderStatusChanged}, f.pub.types())
}

func TestPaidThenCancel_ReversesExactly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := f.level(t, "V")
	spendBefore := f.customer(t, "C1")

	o, _, err := f.svc.CreateOrder(ctx, input(orders.PaymentTransfer, line("V", 3, "100"), line("W", 1, "20")))
	require.NoError(t, err)

	paid, err := f.svc.TransitionStatus(ctx, sales.TransitionInput{OrderID: o.ID, Target: orders.StatusPaid, ActorID: "E1"})
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPaid, paid.Status)
	assert.Equal(t, inventory.Level{Actual: 7}, f.level(t, "V"))
	assert.Equal(t, inventory.Level{Actual: 4}, f.level(t, "W"))
	assert.True(t, f.customer(t, "C1").TotalPurchases.Equal(spendBefore.TotalPurchases.Add(o.Total)))
	assert.NotNil(t, f.customer(t, "C1").LastPurchaseDate)

	_, err = f.svc.CancelOrder(ctx, sales.CancelInput{OrderID: o.ID, Reason: "defectuoso", ActorID: "E1"})
	require.NoError(t, err)

	assert.Equal(t, before, f.level(t, "V"))
	assert.Equal(t, inventory.Level{Actual: 5}, f.level(t, "W"))
	after := f.customer(t, "C1")
	assert.True(t, after.TotalPurchases.Equal(spendBefore.TotalPurchases), after.TotalPurchases.String())
	assert.Nil(t, after.LastPurchaseDate)

	var kinds []inventory.MovementKind
	for _, m := range f.store.Movements() {
		kinds = append(kinds, m.Kind)
		if m.Kind == inventory.MovementInbound {
			assert.Equal(t, inventory.RefReturn, m.ReferenceType)
			assert.Equal(t, "defectuoso", m.Reason)
		}
	}
	assert.Equal(t, []inventory.MovementKind{
		inventory.MovementOutbound, inventory.MovementOutbound,
		inventory.MovementInbound, inventory.MovementInbound,
	}, kinds)
}

func TestReversalRestoresPreviousPurchaseDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, _, err := f.svc.CreateOrder(ctx, input(orders.PaymentCash, line("V", 1, "10")))
	require.NoError(t, err)
	second, _, err := f.svc.CreateOrder(ctx, input(orders.PaymentCash, line("V", 1, "10")))
	require.NoError(t, err)
	require.True(t, second.PaidAt.After(*first.PaidAt))

	_, err = f.svc.TransitionStatus(ctx, sales.TransitionInput{OrderID: second.ID, Target: orders.StatusRefunded})
	require.NoError(t, err)

	c := f.customer(t, "C1")
	require.NotNil(t, c.LastPurchaseDate)
	assert.True(t, c.LastPurchaseDate.Equal(*first.PaidAt))
	assert.True(t, c.TotalPurchases.Equal(d("100").Add(first.Total)))
	assert.Equal(t, inventory.Level{Actual: 9}, f.level(t, "V"))
}

func TestShippingEdgesDoNotTouchStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, _, err := f.svc.CreateOrder(ctx, input(orders.PaymentCreditCard, line("V", 2, "100")))
	require.NoError(t, err)
	spend := f.customer(t, "C1").TotalPurchases

	for _, to := range []orders.Status{orders.StatusShipped, orders.StatusDelivered} {
		got, err := f.svc.TransitionStatus(ctx, sales.TransitionInput{OrderID: o.ID, Target: to})
		require.NoError(t, err)
		assert.Equal(t, to, got.Status)
	}

	assert.Equal(t, inventory.Level{Actual: 8}, f.level(t, "V"))
	assert.Len(t, f.store.Movements(), 1)
	assert.True(t, f.customer(t, "C1").TotalPurchases.Equal(spend))

	_, err = f.svc.CancelOrder(ctx, sales.CancelInput{OrderID: o.ID})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.NotErrorIs(t, err, apperr.ErrAlreadyTerminal)
}

func TestTerminalOrdersAreImmutable(t *testing.T) {
	for _, terminal := range []orders.Status{orders.StatusCancelled, orders.StatusRefunded} {
		t.Run(string(terminal), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			o, _, err := f.svc.CreateOrder(ctx, input(orders.PaymentCash, line("V", 2, "100")))
			require.NoError(t, err)
			_, err = f.svc.TransitionStatus(ctx, sales.TransitionInput{OrderID: o.ID, Target: terminal})
			require.NoError(t, err)

			before, err := f.svc.GetOrder(ctx, o.ID)
			require.NoError(t, err)
			level := f.level(t, "V")
			cust := f.customer(t, "C1")
			moves := len(f.store.Movements())
			events := len(f.pub.types())

			for _, to := range []orders.Status{orders.StatusPending, orders.StatusPaid, orders.StatusShipped, orders.StatusCancelled, orders.StatusRefunded} {
				_, err := f.svc.TransitionStatus(ctx, sales.TransitionInput{OrderID: o.ID, Target: to})
				assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
				assert.ErrorIs(t, err, apperr.ErrAlreadyTerminal)
			}
			_, err = f.svc.CancelOrder(ctx, sales.CancelInput{OrderID: o.ID})
			assert.ErrorIs(t, err, apperr.ErrAlreadyTerminal)

			after, err := f.svc.GetOrder(ctx, o.ID)
			require.NoError(t, err)
			assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
			assert.Equal(t, terminal, after.Status)
			assert.Equal(t, level, f.level(t, "V"))
			assert.Equal(t, cust, f.customer(t, "C1"))
			assert.Len(t, f.store.Movements(), moves)
			assert.Len(t, f.pub.types(), events)
		})
	}
}

func TestTransitionStatus_InputErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.TransitionStatus(ctx, sales.TransitionInput{OrderID: "missing", Target: orders.StatusPaid})
	assert.ErrorIs(t, err, apperr.ErrOrderNotFound)

	_, err = f.svc.TransitionStatus(ctx, sales.TransitionInput{Target: orders.StatusPaid})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	o, _, err := f.svc.CreateOrder(ctx, input(orders.PaymentTransfer, line("V", 1, "10")))
	require.NoError(t, err)

	_, err = f.svc.TransitionStatus(ctx, sales.TransitionInput{OrderID: o.ID, Target: "LOST"})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = f.svc.TransitionStatus(ctx, sales.TransitionInput{OrderID: o.ID, Target: orders.StatusShipped})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = f.svc.TransitionStatus(ctx, sales.TransitionInput{OrderID: o.ID, Target: orders.StatusPending})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Equal(t, inventory.Level{Actual: 10, Reserved: 1}, f.level(t, "V"))
}

// failingAuditStore wraps a store so that every audit write fails.
type failingAuditStore struct {
	sales.Store
}

type failingAuditTx struct {
	sales.Tx
}

var errAuditDown = errors.New("audit sink down")

func (failingAuditTx) InsertAudit(context.Context, *orders.AuditEntry) error { return errAuditDown }

func (s failingAuditStore) InTx(ctx context.Context, fn func(context.Context, sales.Tx) error) error {
	return s.Store.InTx(ctx, func(ctx context.Context, tx sales.Tx) error {
		return fn(ctx, failingAuditTx{tx})
	})
}

func TestCancelOrder_AuditFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, _, err := f.svc.CreateOrder(ctx, input(orders.PaymentTransfer, line("V", 3, "100")))
	require.NoError(t, err)

	svc := sales.NewService(failingAuditStore{f.store}, nil)
	_, err = svc.CancelOrder(ctx, sales.CancelInput{OrderID: o.ID})

	assert.ErrorIs(t, err, errAuditDown)
	got, err := f.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPending, got.Status)
	assert.Equal(t, inventory.Level{Actual: 10, Reserved: 3}, f.level(t, "V"))
}

func TestGuestOrderLifecycleLeavesCustomersAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := input(orders.PaymentTransfer, line("V", 2, "100"))
	in.CustomerID = nil

	o, _, err := f.svc.CreateOrder(ctx, in)
	require.NoError(t, err)
	_, err = f.svc.TransitionStatus(ctx, sales.TransitionInput{OrderID: o.ID, Target: orders.StatusPaid, ActorID: "E1"})
	require.NoError(t, err)
	assert.True(t, f.customer(t, "C1").TotalPurchases.Equal(d("100")))

	refunded, err := f.svc.TransitionStatus(ctx, sales.TransitionInput{OrderID: o.ID, Target: orders.StatusRefunded, ActorID: "E1"})
	require.NoError(t, err)
	assert.Equal(t, orders.StatusRefunded, refunded.Status)
	assert.Equal(t, inventory.Level{Actual: 10}, f.level(t, "V"))
	c := f.customer(t, "C1")
	assert.True(t, c.TotalPurchases.Equal(d("100")))
	assert.Nil(t, c.LastPurchaseDate)
}
