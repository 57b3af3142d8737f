package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/surplus-storefront/internal/catalog"
	"github.com/xenking/surplus-storefront/internal/domain/product"
)

const (
	listProductsSQL = `SELECT id, name, description, category, price, variants, sizes
		FROM products ORDER BY id`

	getProductByIDSQL = `SELECT id, name, description, category, price, variants, sizes
		FROM products WHERE id = $1`

	upsertProductSQL = `INSERT INTO products (id, name, description, category, price, variants, sizes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			price = EXCLUDED.price,
			variants = EXCLUDED.variants,
			sizes = EXCLUDED.sizes,
			updated_at = now()`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products from the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// Upsert inserts or replaces products in one batch.
func (r *ProductRepository) Upsert(ctx context.Context, products []product.Product) error {
	if len(products) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range products {
		var variants, sizes jx.Encoder
		catalog.EncodeVariants(&variants, p.Variants)
		catalog.EncodeSizes(&sizes, p.Sizes)
		batch.Queue(upsertProductSQL,
			p.ID, p.Name, p.Description, p.Category, p.Price,
			string(variants.Bytes()), string(sizes.Bytes()),
		)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting %d products: %w", len(products), err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p              product.Product
		price          decimal.Decimal
		variants, size []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &price, &variants, &size); err != nil {
		return p, err
	}
	p.Price = price

	var err error
	if p.Variants, err = catalog.DecodeVariants(jx.DecodeBytes(variants)); err != nil {
		return p, fmt.Errorf("decoding variants of %q: %w", p.ID, err)
	}
	if p.Sizes, err = catalog.DecodeSizes(jx.DecodeBytes(size)); err != nil {
		return p, fmt.Errorf("decoding sizes of %q: %w", p.ID, err)
	}
	return p, nil
}
