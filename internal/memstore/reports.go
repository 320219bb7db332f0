package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ariefcatur/go-retail-orders/internal/orders"
	"github.com/ariefcatur/go-retail-orders/internal/reporting"
	"github.com/shopspring/decimal"
)

func (s *Store) ListOrders(_ context.Context, f reporting.ListFilter) (reporting.Page, error) {
	if err := f.Normalize(); err != nil {
		return reporting.Page{}, err
	}
	s.mu.Lock()
	rows := make([]reporting.OrderRow, 0, len(s.d.orders))
	for _, o := range s.d.orders {
		if matches(o, f) {
			rows = append(rows, toRow(o))
		}
	}
	s.mu.Unlock()

	desc := f.SortOrder == "DESC"
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		var c int
		switch f.SortBy {
		case "total":
			c = a.Total.Cmp(b.Total)
		case "code":
			c = strings.Compare(a.Code, b.Code)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if c == 0 {
			return a.ID < b.ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})

	total := len(rows)
	start := min(f.Offset(), total)
	end := min(start+f.Limit, total)
	return reporting.NewPage(rows[start:end], f, total), nil
}

func matches(o *orders.Order, f reporting.ListFilter) bool {
	switch {
	case f.Status != "" && o.Status != f.Status,
		f.OrderType != "" && o.Type != f.OrderType,
		f.CustomerID != "" && (o.CustomerID == nil || *o.CustomerID != f.CustomerID),
		f.EmployeeID != "" && o.EmployeeID != f.EmployeeID,
		f.BranchID != "" && o.BranchID != f.BranchID,
		f.From != nil && o.CreatedAt.Before(*f.From),
		f.To != nil && o.CreatedAt.After(*f.To):
		return false
	}
	return true
}

func toRow(o *orders.Order) reporting.OrderRow {
	return reporting.OrderRow{
		ID:            o.ID,
		Code:          o.Code,
		CustomerID:    o.CustomerID,
		EmployeeID:    o.EmployeeID,
		BranchID:      o.BranchID,
		Type:          o.Type,
		PaymentMethod: o.PaymentMethod,
		Status:        o.Status,
		Total:         o.Total,
		CreatedAt:     o.CreatedAt,
	}
}

func (s *Store) Summary(_ context.Context, f reporting.SummaryFilter) (reporting.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := reporting.Summary{}
	var (
		byMethod   = map[orders.PaymentMethod]*reporting.MethodTotal{}
		byDay      = map[string]*reporting.DayTotal{}
		byEmployee = map[string]*reporting.EmployeeTotal{}
		byProduct  = map[string]*reporting.ProductTotal{}
		byCustomer = map[string]*reporting.CustomerTotal{}
	)
	for _, o := range s.d.orders {
		if !o.Status.Settled() || (f.BranchID != "" && o.BranchID != f.BranchID) {
			continue
		}
		// jendela harian tidak ikut filter from/to
		if !o.CreatedAt.Before(f.DailySince) {
			day := o.CreatedAt.UTC().Format(time.DateOnly)
			d := byDay[day]
			if d == nil {
				d = &reporting.DayTotal{Date: day}
				byDay[day] = d
			}
			d.Orders++
			d.Revenue = d.Revenue.Add(o.Total)
		}
		if (f.From != nil && o.CreatedAt.Before(*f.From)) || (f.To != nil && o.CreatedAt.After(*f.To)) {
			continue
		}

		if sum.Orders == 0 || o.Total.LessThan(sum.Min) {
			sum.Min = o.Total
		}
		if sum.Orders == 0 || o.Total.GreaterThan(sum.Max) {
			sum.Max = o.Total
		}
		sum.Orders++
		sum.Revenue = sum.Revenue.Add(o.Total)

		m := byMethod[o.PaymentMethod]
		if m == nil {
			m = &reporting.MethodTotal{PaymentMethod: o.PaymentMethod}
			byMethod[o.PaymentMethod] = m
		}
		m.Orders++
		m.Revenue = m.Revenue.Add(o.Total)

		e := byEmployee[o.EmployeeID]
		if e == nil {
			e = &reporting.EmployeeTotal{EmployeeID: o.EmployeeID}
			byEmployee[o.EmployeeID] = e
		}
		e.Orders++
		e.Revenue = e.Revenue.Add(o.Total)

		for _, l := range o.Lines {
			productID := s.d.variants[l.VariantID].ProductID
			p := byProduct[productID]
			if p == nil {
				p = &reporting.ProductTotal{ProductID: productID}
				byProduct[productID] = p
			}
			p.Units += l.Quantity
			p.Revenue = p.Revenue.Add(l.Subtotal)
		}

		if o.CustomerID != nil {
			c := byCustomer[*o.CustomerID]
			if c == nil {
				c = &reporting.CustomerTotal{CustomerID: *o.CustomerID}
				byCustomer[*o.CustomerID] = c
			}
			c.Orders++
			c.Spent = c.Spent.Add(o.Total)
			if o.CreatedAt.After(c.LastPurchase) {
				c.LastPurchase = o.CreatedAt
			}
		}
	}
	sum.Average = average(sum.Revenue, sum.Orders)

	sum.ByPaymentMethod = values(byMethod, func(a, b *reporting.MethodTotal) bool {
		if c := a.Revenue.Cmp(b.Revenue); c != 0 {
			return c > 0
		}
		return a.PaymentMethod < b.PaymentMethod
	}, 0)
	sum.Daily = values(byDay, func(a, b *reporting.DayTotal) bool { return a.Date > b.Date }, 0)
	for i := range sum.Daily {
		sum.Daily[i].Average = average(sum.Daily[i].Revenue, sum.Daily[i].Orders)
	}
	sum.TopEmployees = values(byEmployee, func(a, b *reporting.EmployeeTotal) bool {
		if c := a.Revenue.Cmp(b.Revenue); c != 0 {
			return c > 0
		}
		return a.EmployeeID < b.EmployeeID
	}, reporting.TopN)
	for i := range sum.TopEmployees {
		sum.TopEmployees[i].Average = average(sum.TopEmployees[i].Revenue, sum.TopEmployees[i].Orders)
	}
	sum.TopProducts = values(byProduct, func(a, b *reporting.ProductTotal) bool {
		if a.Units != b.Units {
			return a.Units > b.Units
		}
		return a.ProductID < b.ProductID
	}, reporting.TopN)
	sum.TopCustomers = values(byCustomer, func(a, b *reporting.CustomerTotal) bool {
		if c := a.Spent.Cmp(b.Spent); c != 0 {
			return c > 0
		}
		return a.CustomerID < b.CustomerID
	}, reporting.TopN)
	return sum, nil
}

func average(total decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(n))).Round(2)
}

// values sorts the map values with less and keeps at most limit (0 = all).
func values[K comparable, V any](m map[K]*V, less func(a, b *V) bool, limit int) []V {
	ptrs := make([]*V, 0, len(m))
	for _, v := range m {
		ptrs = append(ptrs, v)
	}
	sort.Slice(ptrs, func(i, j int) bool { return less(ptrs[i], ptrs[j]) })
	if limit > 0 && len(ptrs) > limit {
		ptrs = ptrs[:limit]
	}
	out := make([]V, 0, len(ptrs))
	for _, v := range ptrs {
		out = append(out, *v)
	}
	return out
}
