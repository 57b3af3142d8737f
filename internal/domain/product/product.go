package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Variants    []Variant
	Sizes       []Size
}

// Variant is a color-specific version of a product with its own images.
type Variant struct {
	Color     string
	ColorCode string
	Images    []string
}

// Size is an orderable size. Stock is nil when the catalog does not track
// stock for the size.
type Size struct {
	Name  string
	Stock *int
}

// Available reports whether the size can be selected.
func (s Size) Available() bool {
	return s.Stock == nil || *s.Stock > 0
}

// TracksStock reports whether any size of the product records stock.
func (p Product) TracksStock() bool {
	for _, s := range p.Sizes {
		if s.Stock != nil {
			return true
		}
	}
	return false
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
}
