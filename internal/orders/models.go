package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-retail-orders/internal/apperr"
	"github.com/ariefcatur/go-retail-orders/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID              string          `json:"id"`
	Code            string          `json:"code"`
	ExternalID      string          `json:"external_id,omitempty"`
	CustomerID      *string         `json:"customer_id"` // nil = guest
	EmployeeID      string          `json:"employee_id"`
	BranchID        string          `json:"branch_id"`
	Type            OrderType       `json:"order_type"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	Status          Status          `json:"status"` // lihat status.go
	ShippingAddress string          `json:"shipping_address,omitempty"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	Subtotal        decimal.Decimal `json:"subtotal"` // sudah net of discount
	DiscountTotal   decimal.Decimal `json:"discount_total"`
	TaxTotal        decimal.Decimal `json:"tax_total"`
	Total           decimal.Decimal `json:"total"`
	Notes           string          `json:"notes,omitempty"`
	Lines           []Line          `json:"lines"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type Line struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"order_id"`
	VariantID    string          `json:"variant_id"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	UnitDiscount decimal.Decimal `json:"unit_discount"`
	UnitTax      decimal.Decimal `json:"unit_tax"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discount     decimal.Decimal `json:"discount"`
	Tax          decimal.Decimal `json:"tax"`
}

type NewParams struct {
	ExternalID      string
	CustomerID      *string
	EmployeeID      string
	BranchID        string
	Type            OrderType
	PaymentMethod   PaymentMethod
	ShippingAddress string
	ShippingCost    decimal.Decimal
	Notes           string
}

// New builds an empty PENDING order. Lines are added with AddLine.
func New(p NewParams, now time.Time) (*Order, error) {
	if p.EmployeeID == "" {
		return nil, apperr.InvalidArgument("employee id is required")
	}
	if p.BranchID == "" {
		return nil, apperr.InvalidArgument("branch id is required")
	}
	if p.ShippingCost.IsNegative() {
		return nil, apperr.InvalidPricingf("shipping cost %s is negative", p.ShippingCost)
	}
	if p.CustomerID != nil && *p.CustomerID == "" {
		p.CustomerID = nil
	}
	if p.Type == "" {
		p.Type = DefaultOrderType
	}
	if p.PaymentMethod == "" {
		p.PaymentMethod = DefaultPaymentMethod
	}

	id := uuid.NewString()
	o := &Order{
		ID:              id,
		Code:            NewCode(id, now),
		ExternalID:      p.ExternalID,
		CustomerID:      p.CustomerID,
		EmployeeID:      p.EmployeeID,
		BranchID:        p.BranchID,
		Type:            p.Type,
		PaymentMethod:   p.PaymentMethod,
		Status:          StatusPending,
		ShippingAddress: p.ShippingAddress,
		ShippingCost:    p.ShippingCost.Round(2),
		Notes:           p.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	o.recompute()
	return o, nil
}

// NewCode formats the human-readable order code, e.g. VTA-20240131-1A2B3C4D.
func NewCode(id string, at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("VTA-%s-%s", at.Format("20060102"), suffix)
}

// AddLine prices a line and recomputes every total of the order.
func (o *Order) AddLine(variantID string, qty int, unitPrice, unitDiscount, taxRate decimal.Decimal) (*Line, error) {
	if o.Status != StatusPending {
		return nil, apperr.InvalidArgumentf("order %s is %s, lines are frozen", o.Code, o.Status)
	}
	if variantID == "" {
		return nil, apperr.InvalidArgument("variant id is required")
	}
	res, err := pricing.Calculate(pricing.Input{
		UnitPrice:      unitPrice,
		UnitDiscount:   unitDiscount,
		TaxRatePercent: taxRate,
		Quantity:       qty,
	})
	if err != nil {
		return nil, fmt.Errorf("line %d (%s): %w", len(o.Lines)+1, variantID, err)
	}
	o.Lines = append(o.Lines, Line{
		ID:           uuid.NewString(),
		OrderID:      o.ID,
		VariantID:    variantID,
		Quantity:     qty,
		UnitPrice:    unitPrice,
		UnitDiscount: unitDiscount,
		UnitTax:      res.UnitTax,
		TaxRate:      taxRate,
		Subtotal:     res.LineSubtotal,
		Discount:     res.LineDiscount,
		Tax:          res.LineTax,
	})
	o.recompute()
	return &o.Lines[len(o.Lines)-1], nil
}

func (o *Order) recompute() {
	subtotal, discount, tax := decimal.Zero, decimal.Zero, decimal.Zero
	for _, l := range o.Lines {
		subtotal = subtotal.Add(l.Subtotal)
		discount = discount.Add(l.Discount)
		tax = tax.Add(l.Tax)
	}
	o.Subtotal = subtotal
	o.DiscountTotal = discount
	o.TaxTotal = tax
	o.Total = subtotal.Add(tax).Add(o.ShippingCost)
}

// Reconciled reports whether total == subtotal + tax + shipping.
func (o *Order) Reconciled() bool {
	return o.Total.Equal(o.Subtotal.Add(o.TaxTotal).Add(o.ShippingCost))
}

// CheckTransition validates the edge without touching the order.
func (o *Order) CheckTransition(to Status) error {
	if !to.Valid() {
		return apperr.InvalidArgumentf("unknown order status %q", to)
	}
	if o.Status.Terminal() {
		return fmt.Errorf("%w: %s is %s", apperr.ErrAlreadyTerminal, o.Code, o.Status)
	}
	if !CanTransition(o.Status, to) {
		return apperr.InvalidTransitionf("%s -> %s", o.Status, to)
	}
	return nil
}

// TransitionTo moves the order to a new status and returns the previous one.
func (o *Order) TransitionTo(to Status, at time.Time) (Status, error) {
	if err := o.CheckTransition(to); err != nil {
		return o.Status, err
	}
	from := o.Status
	o.Status = to
	o.UpdatedAt = at
	if to == StatusPaid {
		paid := at
		o.PaidAt = &paid
	}
	return from, nil
}

func (o *Order) HasCustomer() bool { return o.CustomerID != nil }
