// Package invoice renders the plain-text receipt of a pending order.
package invoice

import (
	_ "embed"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/surplus-storefront/internal/domain/order"
	"github.com/xenking/surplus-storefront/internal/domain/payment"
	"github.com/xenking/surplus-storefront/internal/domain/pricing"
)

//go:embed receipt.tmpl
var receiptTemplate string

var receipt = template.Must(template.New("receipt").Parse(receiptTemplate))

const nameWidth = 28

type line struct {
	Name      string
	UnitPrice string
	Quantity  int
	Total     string
}

type view struct {
	InvoiceNumber string
	Date          string
	Customer      order.Customer
	Lines         []line
	Subtotal      string
	TaxLabel      string
	Tax           string
	Shipping      string
	Discount      string
	Total         string
	Payment       string
}

// Render writes the receipt of snap to w. Amounts are rounded to two places
// here and nowhere else.
func Render(w io.Writer, snap *order.Snapshot) error {
	t := snap.Totals.Rounded()
	v := view{
		InvoiceNumber: snap.InvoiceNumber,
		Date:          formatDate(snap.Date),
		Customer:      snap.Customer,
		Subtotal:      Money(t.Subtotal),
		TaxLabel:      "Tax (GST " + taxPercent(t) + "%)",
		Tax:           Money(t.Tax),
		Shipping:      "FREE",
		Total:         Money(t.Total),
		Payment:       describePayment(snap.PaymentMethod, snap.PaymentHint),
	}
	if !t.Shipping.IsZero() {
		v.Shipping = Money(t.Shipping)
	}
	if t.Discount.IsPositive() {
		v.Discount = "-" + Money(t.Discount)
	}
	for _, it := range snap.Items {
		qty := max(it.Quantity, 1)
		v.Lines = append(v.Lines, line{
			Name:      truncate(it.Name, nameWidth),
			UnitPrice: Money(it.Price),
			Quantity:  qty,
			Total:     Money(it.Price.Mul(decimal.NewFromInt(int64(qty)))),
		})
	}

	if err := receipt.Execute(w, v); err != nil {
		return errors.Wrap(err, "render receipt")
	}
	return nil
}

// Money formats an amount as rupees with two decimals and thousands
// separators, e.g. "Rs 12,345.60".
func Money(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := "Rs " + b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

// taxPercent prints the rate of t as a percentage. Orders stored without a
// rate fall back to the ratio of tax to subtotal.
func taxPercent(t pricing.Totals) string {
	rate := t.TaxRate
	if rate.IsZero() && t.Subtotal.IsPositive() {
		rate = t.Tax.Div(t.Subtotal)
	}
	return rate.Mul(decimal.NewFromInt(100)).Round(2).String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}

func describePayment(m payment.Method, hint string) string {
	switch m {
	case payment.MethodCard:
		if hint != "" {
			return "Card " + hint
		}
		return "Card"
	case payment.MethodUPI:
		return "UPI"
	case payment.MethodCOD:
		return "Cash on delivery"
	default:
		return "-"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
