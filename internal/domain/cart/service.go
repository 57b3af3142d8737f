package cart

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/surplus-storefront/internal/domain/product"
)

// AddItemRequest holds the detail screen selection to add to the cart.
type AddItemRequest struct {
	ProductID  string
	ColorIndex int
	Size       string
}

// Service encapsulates the cart screen and add-to-cart operations.
type Service struct {
	carts    Repository
	products product.Repository
}

// NewService creates a cart Service.
func NewService(carts Repository, products product.Repository) *Service {
	return &Service{
		carts:    carts,
		products: products,
	}
}

// Items returns the current cart of the session.
func (s *Service) Items(ctx context.Context, session string) ([]LineItem, error) {
	return s.carts.Items(ctx, session)
}

// AddItem resolves the selected variant and size of a product and merges a
// new line into the cart, incrementing the line that shares its cart id.
func (s *Service) AddItem(ctx context.Context, session string, req AddItemRequest) ([]LineItem, error) {
	p, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}

	sel := product.Resolve(*p, product.SelectionRequest{
		ColorIndex: req.ColorIndex,
		Size:       req.Size,
	})
	if err := sel.Orderable(*p); err != nil {
		return nil, err
	}

	candidate := LineItem{
		CartID:      Key(p.ID, sel.Size, sel.Color()),
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Size:        sel.Size,
		Color:       sel.Color(),
		Image:       sel.CartImage(),
		Quantity:    1,
	}

	return s.carts.Update(ctx, session, func(items []LineItem) ([]LineItem, error) {
		return Add(items, candidate), nil
	})
}

// ChangeQuantity adds delta to a line; a line reaching zero is removed.
func (s *Service) ChangeQuantity(ctx context.Context, session, cartID string, delta int) ([]LineItem, error) {
	return s.carts.Update(ctx, session, func(items []LineItem) ([]LineItem, error) {
		return ChangeQuantity(items, cartID, delta)
	})
}

// RemoveItem deletes a line regardless of its quantity.
func (s *Service) RemoveItem(ctx context.Context, session, cartID string) ([]LineItem, error) {
	return s.carts.Update(ctx, session, func(items []LineItem) ([]LineItem, error) {
		return Remove(items, cartID), nil
	})
}

// Clear empties the cart. The caller must pass the shopper's explicit
// confirmation; without it nothing is changed.
func (s *Service) Clear(ctx context.Context, session string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	_, err := s.carts.Update(ctx, session, func([]LineItem) ([]LineItem, error) {
		return nil, nil
	})
	return err
}
