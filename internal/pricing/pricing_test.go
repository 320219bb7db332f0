package pricing

import (
	"testing"

	"github.com/ariefcatur/go-retail-orders/internal/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCalculate_HappyPath(t *testing.T) {
	res, err := Calculate(Input{UnitPrice: d("100"), UnitDiscount: d("0"), TaxRatePercent: d("16"), Quantity: 3})
	require.NoError(t, err)

	assert.True(t, res.NetUnit.Equal(d("100")))
	assert.True(t, res.LineSubtotal.Equal(d("300")), res.LineSubtotal.String())
	assert.True(t, res.LineTax.Equal(d("48")), res.LineTax.String())
	assert.True(t, res.UnitTax.Equal(d("16")))
	assert.True(t, res.LineDiscount.IsZero())
}

func TestCalculate_WithDiscount(t *testing.T) {
	res, err := Calculate(Input{UnitPrice: d("59.90"), UnitDiscount: d("9.90"), TaxRatePercent: d("16"), Quantity: 2})
	require.NoError(t, err)

	assert.True(t, res.NetUnit.Equal(d("50")))
	assert.True(t, res.LineSubtotal.Equal(d("100")))
	assert.True(t, res.LineDiscount.Equal(d("19.80")))
	assert.True(t, res.LineTax.Equal(d("16")))
}

func TestCalculate_RoundsLineTaxToCents(t *testing.T) {
	// 33.33 * 0.16 * 3 = 15.9984
	res, err := Calculate(Input{UnitPrice: d("33.33"), TaxRatePercent: d("16"), Quantity: 3})
	require.NoError(t, err)

	assert.Equal(t, "16", res.LineTax.String())
	assert.Equal(t, "5.3328", res.UnitTax.String())
}

func TestCalculate_ZeroTaxRate(t *testing.T) {
	res, err := Calculate(Input{UnitPrice: d("10"), TaxRatePercent: decimal.Zero, Quantity: 1})
	require.NoError(t, err)
	assert.True(t, res.LineTax.IsZero())
}

func TestCalculate_Rejects(t *testing.T) {
	cases := []struct {
		name string
		in   Input
		want error
	}{
		{"negative price", Input{UnitPrice: d("-1"), TaxRatePercent: d("16"), Quantity: 1}, apperr.ErrInvalidPricing},
		{"negative discount", Input{UnitPrice: d("10"), UnitDiscount: d("-1"), TaxRatePercent: d("16"), Quantity: 1}, apperr.ErrInvalidPricing},
		{"discount above price", Input{UnitPrice: d("10"), UnitDiscount: d("10.01"), TaxRatePercent: d("16"), Quantity: 1}, apperr.ErrInvalidPricing},
		{"negative tax rate", Input{UnitPrice: d("10"), TaxRatePercent: d("-16"), Quantity: 1}, apperr.ErrInvalidPricing},
		{"zero quantity", Input{UnitPrice: d("10"), TaxRatePercent: d("16"), Quantity: 0}, apperr.ErrInvalidArgument},
		{"negative quantity", Input{UnitPrice: d("10"), TaxRatePercent: d("16"), Quantity: -2}, apperr.ErrInvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Calculate(tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRateOrDefault(t *testing.T) {
	assert.True(t, RateOrDefault(nil).Equal(d("16")))
	r := d("8")
	assert.True(t, RateOrDefault(&r).Equal(d("8")))
}
