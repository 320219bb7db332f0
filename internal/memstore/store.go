// Package memstore is an in-process implementation of the sales store for
// local runs and tests. One mutex serialises whole transactions; work happens
// on a copy that replaces the live data only on commit.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/ariefcatur/go-retail-orders/internal/apperr"
	"github.com/ariefcatur/go-retail-orders/internal/customers"
	"github.com/ariefcatur/go-retail-orders/internal/inventory"
	"github.com/ariefcatur/go-retail-orders/internal/orders"
	"github.com/ariefcatur/go-retail-orders/internal/sales"
)

type data struct {
	variants   map[string]inventory.Variant
	customers  map[string]customers.Customer
	orders     map[string]*orders.Order
	byExternal map[string]string
	movements  []inventory.Movement
	audit      []orders.AuditEntry
}

func newData() *data {
	return &data{
		variants:   map[string]inventory.Variant{},
		customers:  map[string]customers.Customer{},
		orders:     map[string]*orders.Order{},
		byExternal: map[string]string{},
	}
}

func (d *data) clone() *data {
	c := &data{
		variants:   make(map[string]inventory.Variant, len(d.variants)),
		customers:  make(map[string]customers.Customer, len(d.customers)),
		orders:     make(map[string]*orders.Order, len(d.orders)),
		byExternal: make(map[string]string, len(d.byExternal)),
		movements:  append([]inventory.Movement(nil), d.movements...),
		audit:      append([]orders.AuditEntry(nil), d.audit...),
	}
	for k, v := range d.variants {
		c.variants[k] = v
	}
	for k, v := range d.customers {
		c.customers[k] = v
	}
	for k, v := range d.orders {
		c.orders[k] = copyOrder(v)
	}
	for k, v := range d.byExternal {
		c.byExternal[k] = v
	}
	return c
}

func copyOrder(o *orders.Order) *orders.Order {
	c := *o
	c.Lines = append([]orders.Line(nil), o.Lines...)
	if o.CustomerID != nil {
		id := *o.CustomerID
		c.CustomerID = &id
	}
	if o.PaidAt != nil {
		at := *o.PaidAt
		c.PaidAt = &at
	}
	return &c
}

type Store struct {
	mu sync.Mutex
	d  *data
}

var _ sales.Store = (*Store)(nil)

func New() *Store { return &Store{d: newData()} }

// InTx runs fn against a private copy and swaps it in when fn succeeds and
// ctx is still live.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx sales.Tx) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.d.clone()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("memstore: transaction panicked: %v", p)
		}
	}()
	if err := fn(ctx, &tx{d: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.d = work
	return nil
}

func (s *Store) GetOrder(_ context.Context, orderID string) (*orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.d.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperr.ErrOrderNotFound, orderID)
	}
	return copyOrder(o), nil
}

func (s *Store) GetOrderByExternalID(ctx context.Context, externalID string) (*orders.Order, error) {
	s.mu.Lock()
	id, ok := s.d.byExternal[externalID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: external id %s", apperr.ErrOrderNotFound, externalID)
	}
	return s.GetOrder(ctx, id)
}

// ---- seeding & inspection ----

func (s *Store) PutVariant(v inventory.Variant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.variants[v.ID] = v
}

func (s *Store) PutCustomer(c customers.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.customers[c.ID] = c
}

func (s *Store) Variant(id string) (inventory.Variant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.d.variants[id]
	return v, ok
}

func (s *Store) Customer(id string) (customers.Customer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.d.customers[id]
	return c, ok
}

func (s *Store) Movements() []inventory.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]inventory.Movement(nil), s.d.movements...)
}

func (s *Store) AuditEntries() []orders.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]orders.AuditEntry(nil), s.d.audit...)
}
