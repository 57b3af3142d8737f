// Package payment holds the decorative payment options of checkout. Nothing
// here talks to a processor: card details are formatted and masked, UPI is
// rendered as a QR code URL.
package payment

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Method is how the shopper says they will pay.
type Method string

const (
	MethodCard Method = "card"
	MethodUPI  Method = "upi"
	MethodCOD  Method = "cod"
)

// ErrInvalidMethod is returned for payment methods other than card, upi, cod.
var ErrInvalidMethod = errors.New("invalid payment method")

// ParseMethod parses a payment method. An empty value selects card, the
// default of the checkout form.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MethodCard, nil
	case MethodCard, MethodUPI, MethodCOD:
		return m, nil
	default:
		return "", errors.Wrapf(ErrInvalidMethod, "%q", s)
	}
}

// UPI describes the payee shown in the UPI QR code.
type UPI struct {
	Handle    string // e.g. "surplus@okaxis"
	PayeeName string
	// QRBaseURL is the QR image generator endpoint.
	QRBaseURL string
}

// Intent builds the upi://pay URI for amount.
func (u UPI) Intent(amount decimal.Decimal) string {
	q := url.Values{}
	q.Set("pa", u.Handle)
	q.Set("pn", u.PayeeName)
	q.Set("am", amount.StringFixed(2))
	q.Set("cu", "INR")
	return "upi://pay?" + q.Encode()
}

// QRImageURL returns the URL of a 200x200 QR image encoding the intent.
func (u UPI) QRImageURL(amount decimal.Decimal) string {
	q := url.Values{}
	q.Set("size", "200x200")
	q.Set("data", u.Intent(amount))
	return u.QRBaseURL + "?" + q.Encode()
}

// Card holds the card fields exactly as typed.
type Card struct {
	Number string
	Expiry string
	CVC    string
}

// FormatCardNumber keeps up to 16 digits and groups them by four.
func FormatCardNumber(s string) string {
	d := digits(s, 16)
	var b strings.Builder
	for i := 0; i < len(d); i += 4 {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(d[i:min(i+4, len(d))])
	}
	return b.String()
}

// FormatExpiry keeps up to four digits and renders them as MM/YY.
func FormatExpiry(s string) string {
	d := digits(s, 4)
	if len(d) < 2 {
		return d
	}
	return d[:2] + "/" + d[2:]
}

// FormatCVC keeps up to three digits.
func FormatCVC(s string) string {
	return digits(s, 3)
}

// Mask renders the card as its last four digits, or "" without a number.
func (c Card) Mask() string {
	d := digits(c.Number, 16)
	if len(d) < 4 {
		return ""
	}
	return fmt.Sprintf("•••• %s", d[len(d)-4:])
}

func digits(s string, limit int) string {
	var b strings.Builder
	for _, r := range s {
		if b.Len() == limit {
			break
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
