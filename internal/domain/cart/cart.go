package cart

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrLineNotFound is returned when no line carries the requested cart id.
	ErrLineNotFound = errors.New("cart line not found")
	// ErrConfirmationRequired is returned when a cart clear was not confirmed.
	ErrConfirmationRequired = errors.New("clearing the cart requires confirmation")
	// ErrZeroDelta is returned when a quantity change would not change anything.
	ErrZeroDelta = errors.New("quantity delta must not be zero")
)

// LineItem is one row of the cart: a product/size/color combination and its
// quantity. CartID is unique within a cart.
type LineItem struct {
	CartID      string
	ProductID   string
	Name        string
	Description string
	Price       decimal.Decimal
	Size        string
	Color       string
	Image       string
	Quantity    int
}

// Key derives the stable line identity from product, size and color. Missing
// parts are left empty, so "p1__" is a valid key.
func Key(productID, size, color string) string {
	return productID + "_" + size + "_" + color
}

// Repository persists a session's cart. Implementations must normalize on
// both read and write and apply Update atomically.
type Repository interface {
	Items(ctx context.Context, session string) ([]LineItem, error)
	Update(ctx context.Context, session string, fn func(items []LineItem) ([]LineItem, error)) ([]LineItem, error)
}

// ChangeQuantity adds delta to the line identified by cartID and drops every
// line whose quantity falls to zero or below. The input is not modified.
func ChangeQuantity(items []LineItem, cartID string, delta int) ([]LineItem, error) {
	if delta == 0 {
		return nil, ErrZeroDelta
	}
	idx := slices.IndexFunc(items, func(it LineItem) bool { return it.CartID == cartID })
	if idx < 0 {
		return nil, ErrLineNotFound
	}

	out := make([]LineItem, 0, len(items))
	for i, it := range items {
		if i == idx {
			it.Quantity += delta
		}
		if it.Quantity > 0 {
			out = append(out, it)
		}
	}
	return out, nil
}

// Remove deletes the line identified by cartID regardless of its quantity.
// Removing an absent line is a no-op.
func Remove(items []LineItem, cartID string) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		if it.CartID != cartID {
			out = append(out, it)
		}
	}
	return out
}

// Add merges candidate into items: an existing line with the same cart id
// gains one unit, otherwise candidate is appended with quantity 1.
func Add(items []LineItem, candidate LineItem) []LineItem {
	candidate = candidate.Normalize()
	out := slices.Clone(items)
	for i := range out {
		if out[i].CartID == candidate.CartID {
			out[i].Quantity++
			return out
		}
	}
	candidate.Quantity = 1
	return append(out, candidate)
}

// Count returns the total number of units in the cart.
func Count(items []LineItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}
