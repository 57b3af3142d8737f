// Package handler exposes the storefront over HTTP. Routes are registered on
// a net/http ServeMux; bodies are JSON encoded with jx.
package handler

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/xenking/surplus-storefront/internal/domain/auth"
	"github.com/xenking/surplus-storefront/internal/domain/cart"
	"github.com/xenking/surplus-storefront/internal/domain/order"
	"github.com/xenking/surplus-storefront/internal/domain/product"
	"github.com/xenking/surplus-storefront/internal/geocode"
)

// Geocoder resolves coordinates to an address.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (*geocode.Address, error)
}

// Sessions issues, verifies and revokes session tokens.
type Sessions interface {
	Issue() (string, auth.Session, error)
	Verify(ctx context.Context, token string) (*auth.Session, error)
	Revoke(ctx context.Context, s auth.Session) error
}

// SessionStore records the token and user of open sessions.
type SessionStore interface {
	Open(ctx context.Context, s auth.Session, token string) error
	Close(ctx context.Context, sessionID string) error
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in responses.
	// When empty, image paths are returned as stored.
	ImageBaseURL  string
	MeterProvider metric.MeterProvider
}

// Handler serves the storefront API.
type Handler struct {
	products     product.Repository
	carts        *cart.Service
	orders       *order.Service
	sessions     Sessions
	sessionStore SessionStore
	geocoder     Geocoder
	imageBaseURL string
	metrics      *metrics
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	products product.Repository,
	carts *cart.Service,
	orders *order.Service,
	sessions Sessions,
	sessionStore SessionStore,
	geocoder Geocoder,
) (*Handler, error) {
	mp := cfg.MeterProvider
	if mp == nil {
		mp = noop.NewMeterProvider()
	}
	m, err := newMetrics(mp.Meter("github.com/xenking/surplus-storefront/internal/handler"))
	if err != nil {
		return nil, err
	}
	return &Handler{
		products:     products,
		carts:        carts,
		orders:       orders,
		sessions:     sessions,
		sessionStore: sessionStore,
		geocoder:     geocoder,
		imageBaseURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
		metrics:      m,
	}, nil
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/session", h.OpenSession)
	mux.Handle("DELETE /api/session", h.requireSession(h.CloseSession))

	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("GET /api/products/{id}/selection", h.GetSelection)

	mux.Handle("GET /api/cart", h.requireSession(h.GetCart))
	mux.Handle("DELETE /api/cart", h.requireSession(h.ClearCart))
	mux.Handle("POST /api/cart/items", h.requireSession(h.AddCartItem))
	mux.Handle("PATCH /api/cart/items/{cartId}", h.requireSession(h.ChangeQuantity))
	mux.Handle("DELETE /api/cart/items/{cartId}", h.requireSession(h.RemoveCartItem))

	mux.Handle("GET /api/checkout/preview", h.requireSession(h.PreviewCheckout))
	mux.Handle("POST /api/checkout", h.requireSession(h.Checkout))

	mux.Handle("GET /api/orders/last", h.requireSession(h.GetLastOrder))
	mux.Handle("GET /api/orders/last/receipt", h.requireSession(h.GetReceipt))
	mux.Handle("DELETE /api/orders/last", h.requireSession(h.AcknowledgeOrder))

	mux.HandleFunc("GET /api/geocode/reverse", h.ReverseGeocode)
}

// resolveImage prefixes relative image paths with the image base URL.
func (h *Handler) resolveImage(path string) string {
	if h.imageBaseURL == "" || path == "" ||
		strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return h.imageBaseURL + "/" + strings.TrimLeft(path, "/")
}
