// Package reporting is the read side of orders: paged listing and the sales
// summary. It never writes.
package reporting

import (
	"math"
	"strings"
	"time"

	"github.com/ariefcatur/go-retail-orders/internal/apperr"
	"github.com/ariefcatur/go-retail-orders/internal/orders"
	"github.com/shopspring/decimal"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// MaxPage keeps (Page-1)*Limit inside an int.
const MaxPage = math.MaxInt / MaxLimit

// sortColumns is the allow-list of sortable columns.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"total":      "total",
	"code":       "code",
}

type ListFilter struct {
	Status     orders.Status
	OrderType  orders.OrderType
	CustomerID string
	EmployeeID string
	BranchID   string
	From       *time.Time
	To         *time.Time
	SortBy     string
	SortOrder  string
	Page       int
	Limit      int
}

// Normalize fills defaults and rejects values outside the allow-lists.
func (f *ListFilter) Normalize() error {
	if f.SortBy == "" {
		f.SortBy = "created_at"
	}
	if _, ok := sortColumns[f.SortBy]; !ok {
		return apperr.InvalidArgumentf("cannot sort by %q", f.SortBy)
	}
	switch strings.ToLower(f.SortOrder) {
	case "", "desc":
		f.SortOrder = "DESC"
	case "asc":
		f.SortOrder = "ASC"
	default:
		return apperr.InvalidArgumentf("sort order must be asc or desc, got %q", f.SortOrder)
	}
	if f.Status != "" && !f.Status.Valid() {
		return apperr.InvalidArgumentf("unknown order status %q", f.Status)
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Page > MaxPage {
		return apperr.InvalidArgumentf("page %d is out of range", f.Page)
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return apperr.InvalidArgument("date range is reversed")
	}
	return nil
}

func (f ListFilter) Offset() int { return (f.Page - 1) * f.Limit }

type OrderRow struct {
	ID            string               `db:"id" json:"id"`
	Code          string               `db:"code" json:"code"`
	CustomerID    *string              `db:"customer_id" json:"customer_id"`
	EmployeeID    string               `db:"employee_id" json:"employee_id"`
	BranchID      string               `db:"branch_id" json:"branch_id"`
	Type          orders.OrderType     `db:"order_type" json:"order_type"`
	PaymentMethod orders.PaymentMethod `db:"payment_method" json:"payment_method"`
	Status        orders.Status        `db:"status" json:"status"`
	Total         decimal.Decimal      `db:"total" json:"total"`
	CreatedAt     time.Time            `db:"created_at" json:"created_at"`
}

type Page struct {
	Items      []OrderRow `json:"items"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	Total      int        `json:"total"`
	TotalPages int        `json:"total_pages"`
}

func NewPage(items []OrderRow, f ListFilter, total int) Page {
	if items == nil {
		items = []OrderRow{}
	}
	pages := 0
	if f.Limit > 0 {
		pages = (total + f.Limit - 1) / f.Limit
	}
	return Page{Items: items, Page: f.Page, Limit: f.Limit, Total: total, TotalPages: pages}
}

// Summary breakdown sizes.
const (
	DailyWindowDays = 7
	TopN            = 10
)

type SummaryFilter struct {
	BranchID string
	From     *time.Time
	To       *time.Time
	// DailySince starts the daily breakdown. It ignores From/To.
	DailySince time.Time
}

// DailySince is UTC midnight DailyWindowDays before now.
func DailySince(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -DailyWindowDays)
}

type MethodTotal struct {
	PaymentMethod orders.PaymentMethod `db:"payment_method" json:"payment_method"`
	Orders        int                  `db:"orders" json:"orders"`
	Revenue       decimal.Decimal      `db:"revenue" json:"revenue"`
}

type DayTotal struct {
	Date    string          `db:"day" json:"date"` // YYYY-MM-DD, UTC
	Orders  int             `db:"orders" json:"orders"`
	Revenue decimal.Decimal `db:"revenue" json:"revenue"`
	Average decimal.Decimal `db:"average" json:"average"`
}

type EmployeeTotal struct {
	EmployeeID string          `db:"employee_id" json:"employee_id"`
	Orders     int             `db:"orders" json:"orders"`
	Revenue    decimal.Decimal `db:"revenue" json:"revenue"`
	Average    decimal.Decimal `db:"average" json:"average"`
}

type ProductTotal struct {
	ProductID string          `db:"product_id" json:"product_id"`
	Units     int             `db:"units" json:"units"`
	Revenue   decimal.Decimal `db:"revenue" json:"revenue"` // net of discount, before tax
}

type CustomerTotal struct {
	CustomerID   string          `db:"customer_id" json:"customer_id"`
	Orders       int             `db:"orders" json:"orders"`
	Spent        decimal.Decimal `db:"spent" json:"spent"`
	LastPurchase time.Time       `db:"last_purchase" json:"last_purchase"`
}

// Summary covers settled orders only (PAID, SHIPPED, DELIVERED). Top lists
// hold at most TopN entries; Daily is newest first.
type Summary struct {
	Orders          int             `json:"orders"`
	Revenue         decimal.Decimal `json:"revenue"`
	Average         decimal.Decimal `json:"average"`
	Min             decimal.Decimal `json:"min"`
	Max             decimal.Decimal `json:"max"`
	ByPaymentMethod []MethodTotal   `json:"by_payment_method"`
	Daily           []DayTotal      `json:"daily"`
	TopEmployees    []EmployeeTotal `json:"top_employees"`
	TopProducts     []ProductTotal  `json:"top_products"`
	TopCustomers    []CustomerTotal `json:"top_customers"`
}
