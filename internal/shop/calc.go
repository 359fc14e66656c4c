package shop

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// LineFigures is the input to the order-total calculation: one entry per line,
// with the unit price captured from the product at build time.
type LineFigures struct {
	Quantity  int
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal // percent, 0..100
}

// LineDiscountAmount = quantity * unitPrice * (discount/100).
// The discount range is not clamped here; the builder validates it.
func LineDiscountAmount(quantity int, unitPrice, discount decimal.Decimal) decimal.Decimal {
	gross := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	return gross.Mul(discount).Div(hundred)
}

// LineSubtotal = quantity * unitPrice * (1 - discount/100).
// Computed as gross minus the discount amount so that
// subtotal + discountAmount == gross exactly.
func LineSubtotal(quantity int, unitPrice, discount decimal.Decimal) decimal.Decimal {
	gross := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	return gross.Sub(gross.Mul(discount).Div(hundred))
}

// OrderTotals sums line subtotals and discount amounts.
func OrderTotals(lines []LineFigures) (totalAmount, totalDiscount decimal.Decimal) {
	for _, l := range lines {
		totalAmount = totalAmount.Add(LineSubtotal(l.Quantity, l.UnitPrice, l.Discount))
		totalDiscount = totalDiscount.Add(LineDiscountAmount(l.Quantity, l.UnitPrice, l.Discount))
	}
	return totalAmount, totalDiscount
}
