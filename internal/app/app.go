package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/surplus-storefront/internal/catalog"
	"github.com/xenking/surplus-storefront/internal/domain/auth"
	"github.com/xenking/surplus-storefront/internal/domain/cart"
	"github.com/xenking/surplus-storefront/internal/domain/order"
	"github.com/xenking/surplus-storefront/internal/domain/payment"
	"github.com/xenking/surplus-storefront/internal/domain/product"
	"github.com/xenking/surplus-storefront/internal/geocode"
	"github.com/xenking/surplus-storefront/internal/handler"
	"github.com/xenking/surplus-storefront/internal/kv"
	"github.com/xenking/surplus-storefront/internal/storage/postgres"
	"github.com/xenking/surplus-storefront/internal/storage/session"
	"github.com/xenking/surplus-storefront/internal/storage/sqlite"
	"github.com/xenking/surplus-storefront/pkg/health"
	"github.com/xenking/surplus-storefront/pkg/httpmiddleware"
)

// storage is the opened backend: the session key-value store, the product
// catalog and an optional connectivity check.
type storage struct {
	kv       kv.Store
	products product.Repository
	pinger   health.Pinger
	close    func()
}

func openStorage(ctx context.Context, lg *zap.Logger, cfg *Config) (*storage, error) {
	s := &storage{close: func() {}}

	switch cfg.Storage.Driver {
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		s.kv = postgres.NewKVStore(pool)
		s.products = postgres.NewProductRepository(pool)
		s.pinger = pool
		s.close = pool.Close
	case DriverSQLite:
		db, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, errors.Wrap(err, "open sqlite")
		}
		s.kv = db
		s.pinger = db
		s.close = func() {
			if err := db.Close(); err != nil {
				lg.Warn("Close sqlite", zap.Error(err))
			}
		}
	case DriverMemory:
		s.kv = kv.NewMemory()
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Catalog.File != "" {
		products, err := catalog.LoadFile(cfg.Catalog.File)
		if err != nil {
			s.close()
			return nil, errors.Wrap(err, "load catalog")
		}
		lg.Info("Catalog loaded",
			zap.String("file", cfg.Catalog.File),
			zap.Int("products", len(products)),
		)
		s.products = catalog.NewRepository(products)
	}
	return s, nil
}

func catalogSource(cfg *Config) string {
	if cfg.Catalog.File != "" {
		return "file " + cfg.Catalog.File
	}
	return "database"
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage.Driver),
	)

	store, err := openStorage(ctx, lg, cfg)
	if err != nil {
		return err
	}
	defer store.close()

	rules, err := cfg.Pricing.Rules()
	if err != nil {
		return errors.Wrap(err, "pricing rules")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.Describe("storage", cfg.Storage.Driver)
	healthSvc.Describe("catalog", catalogSource(cfg))
	if store.pinger != nil {
		healthSvc.Add(health.Readiness, cfg.Storage.Driver, 5*time.Second, health.PingCheck(store.pinger))
	}
	healthSvc.Add(health.Readiness, "catalog", 5*time.Second, health.CatalogCheck(func(ctx context.Context) (int, error) {
		products, err := store.products.List(ctx)
		return len(products), err
	}))
	healthSvc.Add(health.Liveness, "goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)

	// Sessions.
	sessionStore := session.New(store.kv)
	sessions := auth.NewManager([]byte(cfg.Session.Secret), cfg.Session.TTL, cfg.Session.RevocationRefresh, sessionStore)
	if err := sessions.Warm(ctx); err != nil {
		return errors.Wrap(err, "warm revocations")
	}

	// Domain services.
	upi := payment.UPI{
		Handle:    cfg.Payment.UPIHandle,
		PayeeName: cfg.Payment.PayeeName,
		QRBaseURL: cfg.Payment.QRBaseURL,
	}
	cartService := cart.NewService(sessionStore, store.products)
	orderService := order.NewService(sessionStore, sessionStore, rules, upi)

	geocoder := geocode.New(geocode.Options{
		BaseURL:   cfg.Geocode.BaseURL,
		UserAgent: cfg.Geocode.UserAgent,
		HTTPClient: &http.Client{
			Timeout: cfg.Geocode.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
		},
	})

	// HTTP handlers.
	h, err := handler.New(
		handler.Config{
			ImageBaseURL:  cfg.ImageBaseURL,
			MeterProvider: m.MeterProvider(),
		},
		store.products,
		cartService,
		orderService,
		sessions,
		sessionStore,
		geocoder,
	)
	if err != nil {
		return errors.Wrap(err, "create handler")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)
	routeFinder := httpmiddleware.MakeRouteFinder(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				Origins:          cfg.CORS.Origins,
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           24 * time.Hour,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
				Key: httpmiddleware.SessionOrIP(func(ctx context.Context, token string) (string, error) {
					s, err := sessions.Verify(ctx, token)
					if err != nil {
						return "", err
					}
					return s.ID, nil
				}),
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("storefront-api", routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	}
	healthSvc.SetReady(true)

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
