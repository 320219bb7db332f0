package orders

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/ariefcatur/go-retail-orders/internal/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newOrder(t *testing.T, shipping string) *Order {
	t.Helper()
	o, err := New(NewParams{
		EmployeeID:    "emp-1",
		BranchID:      "br-1",
		PaymentMethod: PaymentTransfer,
		ShippingCost:  d(shipping),
	}, now)
	require.NoError(t, err)
	return o
}

func TestNew_Defaults(t *testing.T) {
	empty := ""
	o, err := New(NewParams{EmployeeID: "emp-1", BranchID: "br-1", CustomerID: &empty}, now)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, OrderTypeInStore, o.Type)
	assert.Equal(t, PaymentCash, o.PaymentMethod)
	assert.Nil(t, o.CustomerID)
	assert.Regexp(t, regexp.MustCompile(`^VTA-20240305-[0-9A-F]{8}$`), o.Code)
	assert.True(t, o.Total.IsZero())
}

func TestNew_Rejects(t *testing.T) {
	_, err := New(NewParams{BranchID: "br-1"}, now)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = New(NewParams{EmployeeID: "emp-1"}, now)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = New(NewParams{EmployeeID: "emp-1", BranchID: "br-1", ShippingCost: d("-1")}, now)
	assert.ErrorIs(t, err, apperr.ErrInvalidPricing)
}

func TestAddLine_RecomputesTotals(t *testing.T) {
	o := newOrder(t, "25")

	_, err := o.AddLine("v-1", 3, d("100"), d("0"), d("16"))
	require.NoError(t, err)
	_, err = o.AddLine("v-2", 2, d("59.90"), d("9.90"), d("8"))
	require.NoError(t, err)

	assert.Equal(t, "400", o.Subtotal.String())
	assert.Equal(t, "19.8", o.DiscountTotal.String())
	assert.Equal(t, "56", o.TaxTotal.String()) // 48 + 8
	assert.Equal(t, "481", o.Total.String())
	assert.True(t, o.Reconciled())
	assert.Len(t, o.Lines, 2)
	assert.Equal(t, o.ID, o.Lines[0].OrderID)
}

func TestAddLine_TotalReconcilesWithOddPrices(t *testing.T) {
	o := newOrder(t, "9.99")
	prices := []string{"33.33", "0.01", "19.995", "7.49", "1234.5678"}
	for i, p := range prices {
		_, err := o.AddLine("v", i+1, d(p), d("0"), d("16"))
		require.NoError(t, err)
		assert.True(t, o.Reconciled(), "after line %d", i+1)
	}
}

func TestAddLine_FailureLeavesTotalsUntouched(t *testing.T) {
	o := newOrder(t, "0")
	_, err := o.AddLine("v-1", 1, d("10"), d("0"), d("16"))
	require.NoError(t, err)
	before := o.Total

	_, err = o.AddLine("v-2", 1, d("10"), d("11"), d("16"))
	assert.ErrorIs(t, err, apperr.ErrInvalidPricing)
	_, err = o.AddLine("v-3", 0, d("10"), d("0"), d("16"))
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	assert.Len(t, o.Lines, 1)
	assert.True(t, before.Equal(o.Total))
}

func TestAddLine_FrozenOutsidePending(t *testing.T) {
	o := newOrder(t, "0")
	_, err := o.TransitionTo(StatusPaid, now)
	require.NoError(t, err)

	_, err = o.AddLine("v-1", 1, d("10"), d("0"), d("16"))
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestTransitionTo(t *testing.T) {
	o := newOrder(t, "0")
	later := now.Add(time.Hour)

	from, err := o.TransitionTo(StatusPaid, later)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, from)
	assert.Equal(t, StatusPaid, o.Status)
	require.NotNil(t, o.PaidAt)
	assert.Equal(t, later, *o.PaidAt)
	assert.Equal(t, later, o.UpdatedAt)

	_, err = o.TransitionTo(StatusDelivered, later)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.NotErrorIs(t, err, apperr.ErrAlreadyTerminal)
	assert.Equal(t, StatusPaid, o.Status)
}

func TestTransitionTo_TerminalIsImmutable(t *testing.T) {
	for _, terminal := range []Status{StatusCancelled, StatusRefunded} {
		o := newOrder(t, "0")
		o.Status = terminal
		stamp := o.UpdatedAt

		for _, to := range []Status{StatusPending, StatusPaid, StatusCancelled, StatusRefunded} {
			_, err := o.TransitionTo(to, now.Add(time.Hour))
			assert.ErrorIs(t, err, apperr.ErrAlreadyTerminal)
			assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
		}
		assert.Equal(t, terminal, o.Status)
		assert.Equal(t, stamp, o.UpdatedAt)
	}
}

func TestTransitionTo_UnknownStatus(t *testing.T) {
	o := newOrder(t, "0")
	_, err := o.TransitionTo(Status("LOST"), now)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestNewCancelAudit(t *testing.T) {
	o := newOrder(t, "0")
	_, err := o.TransitionTo(StatusCancelled, now)
	require.NoError(t, err)

	e, err := NewCancelAudit(o, StatusPending, "cliente desistió", "emp-9", now)
	require.NoError(t, err)
	assert.Equal(t, AuditTableOrders, e.Table)
	assert.Equal(t, o.ID, e.RecordID)

	var after map[string]string
	require.NoError(t, json.Unmarshal(e.After, &after))
	assert.Equal(t, "CANCELLED", after["status"])
	assert.Equal(t, "cliente desistió", after["reason"])
}

func TestNewEnvelope(t *testing.T) {
	o := newOrder(t, "0")
	_, err := o.AddLine("v-1", 2, d("10"), d("0"), d("16"))
	require.NoError(t, err)

	env, err := NewEnvelope(EventOrderCreated, "sales-api", o.ID, CreatedPayload(o), now)
	require.NoError(t, err)
	assert.Equal(t, 1, env.EventVersion)
	assert.NotEmpty(t, env.EventID)

	var p OrderCreatedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, o.Code, p.Code)
	assert.Equal(t, "23.2", p.Total)
	require.Len(t, p.Lines, 1)
	assert.Equal(t, 2, p.Lines[0].Qty)
}

func TestNewInvoice(t *testing.T) {
	o := newOrder(t, "0")
	_, err := o.AddLine("v-1", 1, d("10"), d("0"), d("16"))
	require.NoError(t, err)

	inv := NewInvoice(o, DefaultIssuer, now)
	assert.Equal(t, "FAC-"+o.Code, inv.Folio)
	assert.Equal(t, "MXN", inv.Currency)
	assert.Equal(t, PaymentFormSingle, inv.PaymentForm)
	assert.Equal(t, o.PaymentMethod, inv.PaymentMethod)
	assert.Equal(t, "MEX123456ABC", inv.Issuer.TaxID)
	assert.Same(t, o, inv.Order)
}
