package sales_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-retail-orders/internal/customers"
	"github.com/ariefcatur/go-retail-orders/internal/inventory"
	"github.com/ariefcatur/go-retail-orders/internal/memstore"
	"github.com/ariefcatur/go-retail-orders/internal/orders"
	"github.com/ariefcatur/go-retail-orders/internal/sales"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

type published struct {
	Topic string
	Env   orders.Envelope
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, env orders.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Topic: topic, Env: env})
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Env.EventType)
	}
	return out
}

type fixture struct {
	store *memstore.Store
	svc   *sales.Service
	pub   *recordingPublisher
	clock *clock
}

func newFixture(t *testing.T, opts ...sales.Option) *fixture {
	t.Helper()
	st := memstore.New()
	st.PutVariant(inventory.Variant{ID: "V", ProductID: "P", SKU: "TSHIRT-M-RED", Level: inventory.Level{Actual: 10}, TaxRate: ptr(d("16")), Active: true})
	st.PutVariant(inventory.Variant{ID: "W", ProductID: "P", SKU: "TSHIRT-L-RED", Level: inventory.Level{Actual: 5}, Active: true}) // pakai default rate
	st.PutVariant(inventory.Variant{ID: "OLD", ProductID: "P", SKU: "TSHIRT-XS", Level: inventory.Level{Actual: 3}, Active: false})
	st.PutCustomer(customers.Customer{ID: "C1", TotalPurchases: d("100")})

	f := &fixture{
		store: st,
		pub:   &recordingPublisher{},
		clock: &clock{t: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)},
	}
	all := append([]sales.Option{
		sales.WithPublisher(f.pub),
		sales.WithClock(f.clock.Now),
	}, opts...)
	f.svc = sales.NewService(st, zap.NewNop(), all...)
	return f
}

func (f *fixture) level(t *testing.T, id string) inventory.Level {
	t.Helper()
	v, ok := f.store.Variant(id)
	require.True(t, ok)
	return v.Level
}

func (f *fixture) customer(t *testing.T, id string) customers.Customer {
	t.Helper()
	c, ok := f.store.Customer(id)
	require.True(t, ok)
	return c
}

func input(method orders.PaymentMethod, lines ...sales.LineInput) sales.CreateOrderInput {
	return sales.CreateOrderInput{
		CustomerID:    ptr("C1"),
		EmployeeID:    "E1",
		BranchID:      "B1",
		Type:          orders.OrderTypeInStore,
		PaymentMethod: method,
		ShippingCost:  decimal.Zero,
		Lines:         lines,
	}
}

func line(variant string, qty int, price string) sales.LineInput {
	return sales.LineInput{VariantID: variant, Quantity: qty, UnitPrice: d(price), UnitDiscount: decimal.Zero}
}
