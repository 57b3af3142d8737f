//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/surplus-storefront/internal/domain/product"
	"github.com/xenking/surplus-storefront/internal/kv"
	"github.com/xenking/surplus-storefront/internal/kv/kvtest"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "storefront",
				"POSTGRES_PASSWORD": "storefront",
				"POSTGRES_DB":       "storefront",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	url := fmt.Sprintf("postgres://storefront:storefront@%s:%s/storefront?sslmode=disable", host, port.Port())
	pool, err := NewPool(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))
	return pool
}

func TestPostgres(t *testing.T) {
	pool := startPostgres(t)

	t.Run("kv", func(t *testing.T) {
		kvtest.Run(t, func(t *testing.T) kv.Store {
			_, err := pool.Exec(context.Background(), `TRUNCATE kv`)
			require.NoError(t, err)
			return NewKVStore(pool)
		})
	})

	t.Run("products", func(t *testing.T) {
		ctx := context.Background()
		repo := NewProductRepository(pool)
		stock := 2

		require.NoError(t, repo.Upsert(ctx, []product.Product{
			{
				ID: "p2", Name: "Tee", Category: "Tops", Price: decimal.RequireFromString("899.50"),
				Variants: []product.Variant{{Color: "Black", ColorCode: "#000", Images: []string{"a.jpg"}}},
				Sizes:    []product.Size{{Name: "M", Stock: &stock}, {Name: "L"}},
			},
			{ID: "p1", Name: "Cap", Price: decimal.NewFromInt(300)},
		}))
		require.NoError(t, repo.Upsert(ctx, []product.Product{
			{ID: "p1", Name: "Cap v2", Price: decimal.NewFromInt(350)},
		}))

		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Cap v2", list[0].Name)

		p, err := repo.GetByID(ctx, "p2")
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("899.5").Equal(p.Price))
		require.Len(t, p.Variants, 1)
		assert.Equal(t, []string{"a.jpg"}, p.Variants[0].Images)
		require.Len(t, p.Sizes, 2)
		require.NotNil(t, p.Sizes[0].Stock)
		assert.Equal(t, 2, *p.Sizes[0].Stock)
		assert.Nil(t, p.Sizes[1].Stock)

		_, err = repo.GetByID(ctx, "missing")
		require.ErrorIs(t, err, product.ErrNotFound)
	})
}
