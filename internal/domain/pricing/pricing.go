// Package pricing computes cart totals: subtotal, tax, shipping, bulk
// discount and the grand total. Amounts are never rounded here; callers
// round to two places when rendering.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/surplus-storefront/internal/domain/cart"
)

// Rules are the threshold rules applied to a cart.
type Rules struct {
	// TaxRate is applied to the subtotal (0.18 for 18% GST).
	TaxRate decimal.Decimal
	// ShippingFee is charged when the subtotal is positive and not above
	// FreeShippingOver.
	ShippingFee      decimal.Decimal
	FreeShippingOver decimal.Decimal
	// BulkDiscountRate is applied when the subtotal exceeds
	// BulkDiscountOver. A zero rate disables the discount.
	BulkDiscountRate decimal.Decimal
	BulkDiscountOver decimal.Decimal
}

// DefaultRules returns the storefront rules: 18% tax, 200 shipping waived
// above 5000, 10% off above 10000.
func DefaultRules() Rules {
	return Rules{
		TaxRate:          decimal.RequireFromString("0.18"),
		ShippingFee:      decimal.NewFromInt(200),
		FreeShippingOver: decimal.NewFromInt(5000),
		BulkDiscountRate: decimal.RequireFromString("0.10"),
		BulkDiscountOver: decimal.NewFromInt(10000),
	}
}

// Totals is the priced summary of a cart.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
	// TaxRate is the rate Tax was computed with.
	TaxRate decimal.Decimal
}

// Rounded returns the amounts rounded to two decimal places for display.
// The rate is kept as is.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal: t.Subtotal.Round(2),
		Tax:      t.Tax.Round(2),
		Shipping: t.Shipping.Round(2),
		Discount: t.Discount.Round(2),
		Total:    t.Total.Round(2),
		TaxRate:  t.TaxRate,
	}
}

// Subtotal sums price times quantity. A line without a quantity counts once.
func Subtotal(items []cart.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(qty))))
	}
	return sum
}

// Calculate prices items under r.
func (r Rules) Calculate(items []cart.LineItem) Totals {
	subtotal := Subtotal(items)

	shipping := r.ShippingFee
	if subtotal.IsZero() || subtotal.GreaterThan(r.FreeShippingOver) {
		shipping = decimal.Zero
	}

	discount := decimal.Zero
	if !r.BulkDiscountRate.IsZero() && subtotal.GreaterThan(r.BulkDiscountOver) {
		discount = subtotal.Mul(r.BulkDiscountRate)
	}

	tax := subtotal.Mul(r.TaxRate)

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Discount: discount,
		Total:    subtotal.Add(tax).Add(shipping).Sub(discount),
		TaxRate:  r.TaxRate,
	}
}

// Calculate prices items under DefaultRules.
func Calculate(items []cart.LineItem) Totals {
	return DefaultRules().Calculate(items)
}
