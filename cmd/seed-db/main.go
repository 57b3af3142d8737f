// Command seed-db loads catalog files into the products table.
//
//	seed-db --database-url postgres://... catalog.json extra.json.gz
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/surplus-storefront/internal/catalog"
	"github.com/xenking/surplus-storefront/internal/domain/product"
	"github.com/xenking/surplus-storefront/internal/storage/postgres"
)

func main() {
	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Usage = func() {
		_, _ = os.Stderr.WriteString("usage: seed-db [--database-url URL] catalog.json [catalog.json.gz ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	files := flag.Args()
	if len(files) == 0 {
		files = []string{"db/seed/catalog.json"}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, files); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string) error {
	products, err := loadCatalogs(ctx, files)
	if err != nil {
		return err
	}

	slog.Info("connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))
	if err := postgres.NewProductRepository(pool).Upsert(ctx, products); err != nil {
		return errors.Wrap(err, "upsert products")
	}
	return nil
}

// loadCatalogs reads files concurrently. When two files define the same
// product id, the later file on the command line wins.
func loadCatalogs(ctx context.Context, files []string) ([]product.Product, error) {
	loaded := make([][]product.Product, len(files))

	g, _ := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			products, err := catalog.LoadFile(path)
			if err != nil {
				return errors.Wrapf(err, "load %s", path)
			}
			slog.Info("read catalog", slog.String("path", path), slog.Int("products", len(products)))
			loaded[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []product.Product
	for _, products := range loaded {
		all = append(all, products...)
	}
	return catalog.NewRepository(all).List(ctx)
}
