package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/ariefcatur/go-retail-orders/internal/apperr"
	"github.com/ariefcatur/go-retail-orders/internal/customers"
	"github.com/ariefcatur/go-retail-orders/internal/inventory"
	"github.com/ariefcatur/go-retail-orders/internal/memstore"
	"github.com/ariefcatur/go-retail-orders/internal/orders"
	"github.com/ariefcatur/go-retail-orders/internal/reporting"
	"github.com/ariefcatur/go-retail-orders/internal/sales"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var today = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type seeded struct {
	store *memstore.Store
	svc   *sales.Service
	now   time.Time
}

func newSeeded(t *testing.T) *seeded {
	t.Helper()
	rate := d("16")
	st := memstore.New()
	st.PutVariant(inventory.Variant{ID: "V", ProductID: "P1", SKU: "JEANS-32", Level: inventory.Level{Actual: 50}, TaxRate: &rate, Active: true})
	st.PutVariant(inventory.Variant{ID: "W", ProductID: "P2", SKU: "SOCKS", Level: inventory.Level{Actual: 50}, TaxRate: &rate, Active: true})
	st.PutCustomer(customers.Customer{ID: "C1"})
	st.PutCustomer(customers.Customer{ID: "C2"})

	s := &seeded{store: st, now: today}
	s.svc = sales.NewService(st, zap.NewNop(), sales.WithClock(func() time.Time { return s.now }))
	return s
}

func (s *seeded) order(t *testing.T, at time.Time, method orders.PaymentMethod, customer, employee, variant string, qty int, price string) {
	t.Helper()
	s.now = at
	in := sales.CreateOrderInput{
		EmployeeID:    employee,
		BranchID:      "B1",
		Type:          orders.OrderTypeInStore,
		PaymentMethod: method,
		Lines:         []sales.LineInput{{VariantID: variant, Quantity: qty, UnitPrice: d(price)}},
	}
	if customer != "" {
		in.CustomerID = &customer
	}
	_, _, err := s.svc.CreateOrder(context.Background(), in)
	require.NoError(t, err)
}

func seedSales(t *testing.T) *seeded {
	s := newSeeded(t)
	s.order(t, today.AddDate(0, 0, -10), orders.PaymentCash, "C1", "E1", "V", 1, "100") // 116.00
	s.order(t, today.AddDate(0, 0, -1), orders.PaymentCash, "C2", "E2", "W", 3, "10")   // 34.80
	s.order(t, today, orders.PaymentCash, "C1", "E1", "V", 2, "100")                    // 232.00
	s.order(t, today, orders.PaymentCash, "", "E2", "W", 1, "10")                       // 11.60, tamu
	s.order(t, today, orders.PaymentTransfer, "C2", "E3", "V", 5, "100")                // PENDING
	return s
}

func TestSummary_Breakdowns(t *testing.T) {
	s := seedSales(t)

	sum, err := s.store.Summary(context.Background(), reporting.SummaryFilter{DailySince: reporting.DailySince(today)})
	require.NoError(t, err)

	assert.Equal(t, 4, sum.Orders)
	assert.True(t, sum.Revenue.Equal(d("394.40")), sum.Revenue.String())
	assert.True(t, sum.Min.Equal(d("11.60")))
	assert.True(t, sum.Max.Equal(d("232")))

	require.Len(t, sum.Daily, 2)
	assert.Equal(t, "2024-03-10", sum.Daily[0].Date)
	assert.Equal(t, 2, sum.Daily[0].Orders)
	assert.True(t, sum.Daily[0].Revenue.Equal(d("243.60")))
	assert.True(t, sum.Daily[0].Average.Equal(d("121.80")))
	assert.Equal(t, "2024-03-09", sum.Daily[1].Date)

	require.Len(t, sum.TopEmployees, 2)
	assert.Equal(t, "E1", sum.TopEmployees[0].EmployeeID)
	assert.True(t, sum.TopEmployees[0].Revenue.Equal(d("348")))
	assert.True(t, sum.TopEmployees[0].Average.Equal(d("174")))
	assert.Equal(t, 2, sum.TopEmployees[1].Orders)

	require.Len(t, sum.TopProducts, 2)
	assert.Equal(t, reporting.ProductTotal{ProductID: "P2", Units: 4, Revenue: sum.TopProducts[0].Revenue}, sum.TopProducts[0])
	assert.True(t, sum.TopProducts[0].Revenue.Equal(d("40")))
	assert.Equal(t, "P1", sum.TopProducts[1].ProductID)
	assert.Equal(t, 3, sum.TopProducts[1].Units)

	require.Len(t, sum.TopCustomers, 2, "guest orders are not ranked")
	assert.Equal(t, "C1", sum.TopCustomers[0].CustomerID)
	assert.Equal(t, 2, sum.TopCustomers[0].Orders)
	assert.True(t, sum.TopCustomers[0].Spent.Equal(d("348")))
	assert.Equal(t, today, sum.TopCustomers[0].LastPurchase)
}

func TestSummary_DateRangeDoesNotNarrowDailyWindow(t *testing.T) {
	s := seedSales(t)
	from := today.AddDate(0, 0, -2)

	sum, err := s.store.Summary(context.Background(), reporting.SummaryFilter{From: &from, DailySince: reporting.DailySince(today)})
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Orders)
	assert.Len(t, sum.Daily, 2)

	sum, err = s.store.Summary(context.Background(), reporting.SummaryFilter{BranchID: "B9"})
	require.NoError(t, err)
	assert.Zero(t, sum.Orders)
	assert.Empty(t, sum.Daily)
	assert.NotNil(t, sum.TopProducts)
}

func TestListOrders_PageOutOfRange(t *testing.T) {
	s := seedSales(t)

	_, err := s.store.ListOrders(context.Background(), reporting.ListFilter{Page: 461168601842738792, Limit: 20})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	page, err := s.store.ListOrders(context.Background(), reporting.ListFilter{Page: reporting.MaxPage})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 5, page.Total)
}
