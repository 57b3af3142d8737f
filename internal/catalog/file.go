package catalog

import (
	"context"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/surplus-storefront/internal/domain/product"
)

var _ product.Repository = (*Repository)(nil)

// LoadFile reads a catalog file. Files ending in ".gz" are decompressed.
func LoadFile(path string) ([]product.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	products, err := Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return products, nil
}

// Repository serves a fixed catalog from memory in file order.
type Repository struct {
	products []product.Product
	byID     map[string]int
}

// NewRepository indexes products. Later duplicates of an id replace
// earlier ones in place.
func NewRepository(products []product.Product) *Repository {
	r := &Repository{byID: make(map[string]int, len(products))}
	for _, p := range products {
		if i, ok := r.byID[p.ID]; ok {
			r.products[i] = p
			continue
		}
		r.byID[p.ID] = len(r.products)
		r.products = append(r.products, p)
	}
	return r
}

// List returns every product.
func (r *Repository) List(_ context.Context) ([]product.Product, error) {
	return slices.Clone(r.products), nil
}

// GetByID returns a product or product.ErrNotFound.
func (r *Repository) GetByID(_ context.Context, id string) (*product.Product, error) {
	i, ok := r.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	p := r.products[i]
	return &p, nil
}
