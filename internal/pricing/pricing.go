// Package pricing derives net line price, discount and tax for an order line.
// It does no I/O.
package pricing

import (
	"github.com/ariefcatur/go-retail-orders/internal/apperr"
	"github.com/shopspring/decimal"
)

// DefaultTaxRate (percent) applies when a product carries no rate of its own.
var DefaultTaxRate = decimal.RequireFromString("16.00")

const (
	moneyPlaces   = 2
	unitTaxPlaces = 4
)

var hundred = decimal.NewFromInt(100)

type Input struct {
	UnitPrice      decimal.Decimal
	UnitDiscount   decimal.Decimal
	TaxRatePercent decimal.Decimal
	Quantity       int
}

type Result struct {
	NetUnit      decimal.Decimal
	UnitTax      decimal.Decimal
	LineSubtotal decimal.Decimal // net of discount
	LineDiscount decimal.Decimal
	LineTax      decimal.Decimal
}

// RateOrDefault returns rate, or DefaultTaxRate when the product has none.
func RateOrDefault(rate *decimal.Decimal) decimal.Decimal {
	if rate == nil {
		return DefaultTaxRate
	}
	return *rate
}

// Calculate prices one line. Line amounts are rounded to cents so that order
// totals built from them reconcile exactly.
func Calculate(in Input) (Result, error) {
	if in.Quantity <= 0 {
		return Result{}, apperr.InvalidArgumentf("quantity must be positive, got %d", in.Quantity)
	}
	if in.UnitPrice.IsNegative() {
		return Result{}, apperr.InvalidPricingf("unit price %s is negative", in.UnitPrice)
	}
	if in.UnitDiscount.IsNegative() {
		return Result{}, apperr.InvalidPricingf("unit discount %s is negative", in.UnitDiscount)
	}
	if in.UnitDiscount.GreaterThan(in.UnitPrice) {
		return Result{}, apperr.InvalidPricingf("unit discount %s exceeds unit price %s", in.UnitDiscount, in.UnitPrice)
	}
	if in.TaxRatePercent.IsNegative() {
		return Result{}, apperr.InvalidPricingf("tax rate %s is negative", in.TaxRatePercent)
	}

	qty := decimal.NewFromInt(int64(in.Quantity))
	net := in.UnitPrice.Sub(in.UnitDiscount)
	rate := in.TaxRatePercent.Div(hundred)

	return Result{
		NetUnit:      net,
		UnitTax:      net.Mul(rate).Round(unitTaxPlaces),
		LineSubtotal: net.Mul(qty).Round(moneyPlaces),
		LineDiscount: in.UnitDiscount.Mul(qty).Round(moneyPlaces),
		LineTax:      net.Mul(rate).Mul(qty).Round(moneyPlaces),
	}, nil
}
