package shop

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestLineSubtotal(t *testing.T) {
	assert.True(t, LineSubtotal(2, dec("10"), dec("0")).Equal(dec("20")))
	assert.True(t, LineSubtotal(1, dec("5"), dec("50")).Equal(dec("2.5")))
	assert.True(t, LineSubtotal(3, dec("19.99"), dec("0")).Equal(dec("59.97")))
}

func TestLineDiscountAmount(t *testing.T) {
	assert.True(t, LineDiscountAmount(2, dec("10"), dec("0")).Equal(dec("0")))
	assert.True(t, LineDiscountAmount(1, dec("5"), dec("50")).Equal(dec("2.5")))
}

func TestFullDiscountZeroesSubtotal(t *testing.T) {
	gross := dec("10").Mul(decimal.NewFromInt(4))
	assert.True(t, LineSubtotal(4, dec("10"), dec("100")).IsZero())
	assert.True(t, LineDiscountAmount(4, dec("10"), dec("100")).Equal(gross))
}

func TestSubtotalPlusDiscountEqualsGross(t *testing.T) {
	for _, discount := range []string{"0", "12.5", "33.33", "50", "99.99", "100"} {
		sub := LineSubtotal(7, dec("19.99"), dec(discount))
		dis := LineDiscountAmount(7, dec("19.99"), dec(discount))
		gross := dec("19.99").Mul(decimal.NewFromInt(7))
		assert.True(t, sub.Add(dis).Equal(gross), "discount %s", discount)
	}
}

func TestOrderTotals(t *testing.T) {
	lines := []LineFigures{
		{Quantity: 2, UnitPrice: dec("10"), Discount: dec("0")},
		{Quantity: 1, UnitPrice: dec("5"), Discount: dec("50")},
	}
	total, discount := OrderTotals(lines)
	require.True(t, total.Equal(dec("22.5")), "total = %s", total)
	require.True(t, discount.Equal(dec("2.5")), "discount = %s", discount)
}

func TestOrderTotalsDeterministic(t *testing.T) {
	lines := []LineFigures{
		{Quantity: 3, UnitPrice: dec("7.77"), Discount: dec("15")},
		{Quantity: 9, UnitPrice: dec("0.99"), Discount: dec("33.33")},
	}
	t1, d1 := OrderTotals(lines)
	t2, d2 := OrderTotals(lines)
	assert.True(t, t1.Equal(t2))
	assert.True(t, d1.Equal(d2))
}

func TestOrderTotalsEmpty(t *testing.T) {
	total, discount := OrderTotals(nil)
	assert.True(t, total.IsZero())
	assert.True(t, discount.IsZero())
}
