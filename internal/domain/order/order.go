package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/surplus-storefront/internal/domain/cart"
	"github.com/xenking/surplus-storefront/internal/domain/payment"
	"github.com/xenking/surplus-storefront/internal/domain/pricing"
)

// ErrNoPendingOrder is returned when the session has no order to show.
var ErrNoPendingOrder = errors.New("no pending order")

// Customer holds the shipping details captured at checkout. Address is the
// single line shown on the receipt.
type Customer struct {
	FullName  string
	Email     string
	Phone     string
	Address   string
	Street    string
	Apartment string
	City      string
	State     string
	PinCode   string
}

// Snapshot is the frozen record of a completed checkout. A session holds at
// most one; it lives until the shopper acknowledges the receipt.
type Snapshot struct {
	InvoiceNumber string
	Date          time.Time
	Customer      Customer
	Items         []cart.LineItem
	PaymentMethod payment.Method
	// PaymentHint is the masked card for card payments and the UPI intent
	// for UPI payments.
	PaymentHint string
	Totals      pricing.Totals
}

// Repository stores the pending order of a session. Pending reports
// priced=false for orders stored without totals.
type Repository interface {
	Pending(ctx context.Context, session string) (snap *Snapshot, priced bool, err error)
	SavePending(ctx context.Context, session string, s *Snapshot) error
	DeletePending(ctx context.Context, session string) error
}
