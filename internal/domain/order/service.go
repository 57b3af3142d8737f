package order

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/surplus-storefront/internal/domain/cart"
	"github.com/xenking/surplus-storefront/internal/domain/payment"
	"github.com/xenking/surplus-storefront/internal/domain/pricing"
)

// ErrEmptyCart is returned when checking out a session with nothing in the cart.
var ErrEmptyCart = errors.New("cart is empty")

// notProvided fills optional contact fields left blank at checkout.
const notProvided = "N/A"

// ValidationError reports a required checkout field that was left blank.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// CheckoutRequest is the submitted checkout form.
type CheckoutRequest struct {
	Customer      Customer
	PaymentMethod string
	Card          payment.Card
}

// Summary is the priced cart shown before the shopper places the order.
type Summary struct {
	Items  []cart.LineItem
	Totals pricing.Totals
	// UPIQR is the QR image URL for the current total.
	UPIQR string
}

// Service implements checkout and the receipt screen.
type Service struct {
	carts  cart.Repository
	orders Repository
	rules  pricing.Rules
	upi    payment.UPI
	now    func() time.Time
}

// NewService creates an order Service.
func NewService(carts cart.Repository, orders Repository, rules pricing.Rules, upi payment.UPI) *Service {
	return &Service{
		carts:  carts,
		orders: orders,
		rules:  rules,
		upi:    upi,
		now:    time.Now,
	}
}

// Summary prices the session cart.
func (s *Service) Summary(ctx context.Context, session string) (*Summary, error) {
	items, err := s.carts.Items(ctx, session)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	totals := s.rules.Calculate(items)
	return &Summary{
		Items:  items,
		Totals: totals,
		UPIQR:  s.upi.QRImageURL(totals.Total.Round(2)),
	}, nil
}

// Price computes totals for items under the service's rules.
func (s *Service) Price(items []cart.LineItem) pricing.Totals {
	return s.rules.Calculate(items)
}

// Checkout turns the session cart into the pending order and clears the
// cart. On validation failure nothing is stored; if the order cannot be
// saved the taken lines are merged back into the cart.
func (s *Service) Checkout(ctx context.Context, session string, req CheckoutRequest) (*Snapshot, error) {
	customer, err := normalizeCustomer(req.Customer)
	if err != nil {
		return nil, err
	}
	method, err := payment.ParseMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	// Take the cart and empty it in one update so a line added meanwhile is
	// either ordered or left in the cart.
	var items []cart.LineItem
	if _, err := s.carts.Update(ctx, session, func(current []cart.LineItem) ([]cart.LineItem, error) {
		if len(current) == 0 {
			return nil, ErrEmptyCart
		}
		items = current
		return nil, nil
	}); err != nil {
		if errors.Is(err, ErrEmptyCart) {
			return nil, ErrEmptyCart
		}
		return nil, errors.Wrap(err, "take cart")
	}

	now := s.now()
	snap := &Snapshot{
		InvoiceNumber: fmt.Sprintf("INV-%d", now.UnixMilli()),
		Date:          now,
		Customer:      customer,
		Items:         items,
		PaymentMethod: method,
		Totals:        s.rules.Calculate(items),
	}
	switch method {
	case payment.MethodCard:
		snap.PaymentHint = req.Card.Mask()
	case payment.MethodUPI:
		snap.PaymentHint = s.upi.Intent(snap.Totals.Total.Round(2))
	}

	if err := s.orders.SavePending(ctx, session, snap); err != nil {
		if _, rerr := s.carts.Update(context.WithoutCancel(ctx), session, func(current []cart.LineItem) ([]cart.LineItem, error) {
			return append(slices.Clone(current), items...), nil
		}); rerr != nil {
			return nil, errors.Wrapf(err, "save order (cart not restored: %v)", rerr)
		}
		return nil, errors.Wrap(err, "save order")
	}

	return snap, nil
}

// Pending returns the order awaiting acknowledgement. Orders stored without
// totals are priced under the current rules.
func (s *Service) Pending(ctx context.Context, session string) (*Snapshot, error) {
	snap, priced, err := s.orders.Pending(ctx, session)
	if err != nil {
		return nil, err
	}
	if !priced {
		snap.Totals = s.rules.Calculate(snap.Items)
	}
	return snap, nil
}

// Acknowledge discards the pending order. It is a no-op without one.
func (s *Service) Acknowledge(ctx context.Context, session string) error {
	if err := s.orders.DeletePending(ctx, session); err != nil {
		return errors.Wrap(err, "delete order")
	}
	return nil
}

func normalizeCustomer(c Customer) (Customer, error) {
	trim := func(v *string) { *v = strings.TrimSpace(*v) }
	for _, f := range []*string{
		&c.FullName, &c.Email, &c.Phone, &c.Address,
		&c.Street, &c.Apartment, &c.City, &c.State, &c.PinCode,
	} {
		trim(f)
	}

	if c.FullName == "" {
		return Customer{}, &ValidationError{Field: "fullName"}
	}
	if c.Street == "" && c.Address == "" {
		return Customer{}, &ValidationError{Field: "address"}
	}

	if c.Email == "" {
		c.Email = notProvided
	}
	if c.Phone == "" {
		c.Phone = notProvided
	}
	if c.Address == "" {
		c.Address = joinAddress(c.Street, c.Apartment, c.City, c.State, c.PinCode)
	}
	return c, nil
}

func joinAddress(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
