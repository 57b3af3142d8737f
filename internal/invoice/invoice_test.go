package invoice

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/surplus-storefront/internal/domain/cart"
	"github.com/xenking/surplus-storefront/internal/domain/order"
	"github.com/xenking/surplus-storefront/internal/domain/payment"
	"github.com/xenking/surplus-storefront/internal/domain/pricing"
)

func snapshot(method payment.Method, hint string, date time.Time, customer order.Customer, items ...cart.LineItem) *order.Snapshot {
	return &order.Snapshot{
		InvoiceNumber: "INV-1709251200000",
		Date:          date,
		Customer:      customer,
		Items:         items,
		PaymentMethod: method,
		PaymentHint:   hint,
		Totals:        pricing.DefaultRules().Calculate(items),
	}
}

func lineItem(name, price string, qty int) cart.LineItem {
	return cart.LineItem{Name: name, Price: decimal.RequireFromString(price), Quantity: qty}
}

func TestRender(t *testing.T) {
	march := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		snap *order.Snapshot
	}{
		{
			name: "card_small_order",
			snap: snapshot(payment.MethodCard, "•••• 1234", march,
				order.Customer{FullName: "Asha Rao", Email: "N/A", Phone: "N/A", Address: "12 MG Road, Bengaluru, KA, 560001"},
				lineItem("Denim Jacket", "1000", 2),
				lineItem("Classic Cotton Baseball Cap With Embroidered Logo", "500", 1),
			),
		},
		{
			name: "upi_bulk_discount",
			snap: snapshot(payment.MethodUPI, "upi://pay?am=12960.00", march,
				order.Customer{FullName: "Vikram Shah", Email: "vikram@example.com", Phone: "9876543210", Address: "4 Park Street, Kolkata"},
				lineItem("Wool Overcoat", "6000", 2),
			),
		},
		{
			name: "cod_undated",
			snap: snapshot(payment.MethodCOD, "", time.Time{},
				order.Customer{FullName: "Meera", Email: "N/A", Phone: "N/A", Address: "Flat 2, Lake View, Pune"},
				lineItem("Socks", "99.99", 1),
			),
		},
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, tt.snap))
			g.Assert(t, tt.name, buf.Bytes())
		})
	}
}

func TestRender_TaxLabel(t *testing.T) {
	items := []cart.LineItem{lineItem("Scarf", "500", 1)}
	reduced := pricing.DefaultRules()
	reduced.TaxRate = decimal.RequireFromString("0.05")

	legacy := pricing.DefaultRules().Calculate(items)
	legacy.TaxRate = decimal.Zero

	tests := []struct {
		name   string
		totals pricing.Totals
		want   string
	}{
		{name: "configured rate", totals: reduced.Calculate(items), want: "Tax (GST 5%)"},
		{name: "fractional rate", totals: pricing.Rules{TaxRate: decimal.RequireFromString("0.125")}.Calculate(items), want: "Tax (GST 12.5%)"},
		{name: "stored without rate", totals: legacy, want: "Tax (GST 18%)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshot(payment.MethodCOD, "", time.Time{}, order.Customer{FullName: "Meera"}, items...)
			snap.Totals = tt.totals

			var buf bytes.Buffer
			require.NoError(t, Render(&buf, snap))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestMoney(t *testing.T) {
	for in, want := range map[string]string{
		"0":           "Rs 0.00",
		"5":           "Rs 5.00",
		"999.999":     "Rs 1,000.00",
		"12345.6":     "Rs 12,345.60",
		"1234567.891": "Rs 1,234,567.89",
		"-1200":       "-Rs 1,200.00",
	} {
		assert.Equal(t, want, Money(decimal.RequireFromString(in)), in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmn", 10))
	assert.Equal(t, "ééé", truncate("ééé", 3))
}
