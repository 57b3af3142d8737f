package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/surplus-storefront/internal/catalog"
	"github.com/xenking/surplus-storefront/internal/domain/auth"
	"github.com/xenking/surplus-storefront/internal/domain/cart"
	"github.com/xenking/surplus-storefront/internal/domain/order"
	"github.com/xenking/surplus-storefront/internal/domain/payment"
	"github.com/xenking/surplus-storefront/internal/domain/pricing"
	"github.com/xenking/surplus-storefront/internal/geocode"
	"github.com/xenking/surplus-storefront/internal/kv"
	"github.com/xenking/surplus-storefront/internal/storage/session"
)

// --- Mock implementations ---

type mockGeocoder struct {
	addr *geocode.Address
	err  error
}

func (m *mockGeocoder) Reverse(_ context.Context, _, _ float64) (*geocode.Address, error) {
	return m.addr, m.err
}

// --- Helpers ---

const overshirt = "665f1c2a9b1e"

type testServer struct {
	t        *testing.T
	mux      *http.ServeMux
	geocoder *mockGeocoder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	products, err := catalog.LoadFile("../catalog/testdata/catalog.json")
	require.NoError(t, err)
	catalogRepo := catalog.NewRepository(products)

	store := session.New(kv.NewMemory())
	sessions := auth.NewManager([]byte("test-secret"), time.Hour, 0, store)
	upi := payment.UPI{Handle: "surplus@okaxis", PayeeName: "SURPLUS", QRBaseURL: "https://qr.example/create"}
	geo := &mockGeocoder{}

	h, err := New(
		Config{ImageBaseURL: "https://img.example/"},
		catalogRepo,
		cart.NewService(store, catalogRepo),
		order.NewService(store, store, pricing.DefaultRules(), upi),
		sessions,
		store,
		geo,
	)
	require.NoError(t, err)

	mux := http.NewServeMux()
	h.Register(mux)
	return &testServer{t: t, mux: mux, geocoder: geo}
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) openSession() string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/session", "", "")
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(s.t, rec)
	token, _ := body["token"].(string)
	require.NotEmpty(s.t, token)
	assert.NotEmpty(s.t, body["sessionId"])
	return token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	d := json.NewDecoder(bytes.NewReader(rec.Body.Bytes()))
	d.UseNumber()
	var out map[string]any
	require.NoError(t, d.Decode(&out), rec.Body.String())
	return out
}

func totalOf(t *testing.T, body map[string]any) string {
	t.Helper()
	totals, ok := body["totals"].(map[string]any)
	require.True(t, ok, "totals missing")
	return totals["total"].(json.Number).String()
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	msg, _ := decode(t, rec)["message"].(string)
	return msg
}

// --- Tests ---

func TestStorefrontFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.openSession()

	rec := s.do(http.MethodGet, "/api/cart", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "0", body["count"].(json.Number).String())
	assert.Equal(t, "0.00", totalOf(t, body))

	// Sizes are untracked, so the first size is chosen.
	for range 2 {
		rec = s.do(http.MethodPost, "/api/cart/items", token, `{"productId": "`+overshirt+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec = s.do(http.MethodPost, "/api/cart/items", token, `{"productId": "`+overshirt+`", "colorIndex": 1, "size": "M"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body = decode(t, rec)
	items := body["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, overshirt+"_S_Sand", first["cartId"])
	assert.Equal(t, "2", first["qty"].(json.Number).String())
	assert.Equal(t, "4998.00", first["lineTotal"].(json.Number).String())
	second := items[1].(map[string]any)
	assert.Equal(t, overshirt+"_M_Olive", second["cartId"])
	assert.Equal(t, "https://img.example/img/overshirt-olive-1.jpg", second["image"])
	assert.Equal(t, "3", body["count"].(json.Number).String())
	assert.Equal(t, "8846.46", totalOf(t, body))

	rec = s.do(http.MethodPatch, "/api/cart/items/"+overshirt+"_S_Sand", token, `{"delta": -1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "6097.64", totalOf(t, decode(t, rec)))

	rec = s.do(http.MethodDelete, "/api/cart", token, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodGet, "/api/checkout/preview", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "6097.64", totalOf(t, body))
	assert.Contains(t, body["upiQr"], "https://qr.example/create?data=")

	rec = s.do(http.MethodPost, "/api/checkout", token, `{"customer": {"street": "12 MG Road"}, "paymentMethod": "upi"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "fullName is required", errorMessage(t, rec))

	rec = s.do(http.MethodPost, "/api/checkout", token, `{
		"customer": {"fullName": "Asha Rao", "street": "12 MG Road", "city": "Pune", "pinCode": 411001},
		"paymentMethod": "upi"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body = decode(t, rec)
	invoiceNumber, _ := body["invoiceNumber"].(string)
	assert.True(t, strings.HasPrefix(invoiceNumber, "INV-"), invoiceNumber)
	assert.Equal(t, "6097.64", totalOf(t, body))
	assert.Contains(t, body["paymentHint"], "upi://pay?am=6097.64")
	customer := body["customer"].(map[string]any)
	assert.Equal(t, "12 MG Road, Pune, 411001", customer["address"])
	assert.Equal(t, "N/A", customer["email"])

	rec = s.do(http.MethodGet, "/api/cart", token, "")
	assert.Equal(t, "0", decode(t, rec)["count"].(json.Number).String())

	rec = s.do(http.MethodGet, "/api/orders/last", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, invoiceNumber, decode(t, rec)["invoiceNumber"])

	rec = s.do(http.MethodGet, "/api/orders/last/receipt", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), invoiceNumber)
	assert.Contains(t, rec.Body.String(), "Rs 6,097.64")

	rec = s.do(http.MethodDelete, "/api/orders/last", token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, "/api/orders/last", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckout_EmptyCart(t *testing.T) {
	s := newTestServer(t)
	token := s.openSession()

	rec := s.do(http.MethodPost, "/api/checkout", token, `{"customer": {"fullName": "A", "address": "B"}, "paymentMethod": "cod"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/checkout", token, `{"customer": {"fullName": "A", "address": "B"}, "paymentMethod": "cheque"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCart_Errors(t *testing.T) {
	s := newTestServer(t)
	token := s.openSession()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"unknown product", http.MethodPost, "/api/cart/items", `{"productId": "nope"}`, http.StatusNotFound},
		{"missing product id", http.MethodPost, "/api/cart/items", `{}`, http.StatusBadRequest},
		{"size required", http.MethodPost, "/api/cart/items", `{"productId": "tee-01"}`, http.StatusUnprocessableEntity},
		{"size out of stock", http.MethodPost, "/api/cart/items", `{"productId": "tee-01", "size": "M"}`, http.StatusConflict},
		{"unknown size", http.MethodPost, "/api/cart/items", `{"productId": "tee-01", "size": "XS"}`, http.StatusUnprocessableEntity},
		{"malformed body", http.MethodPost, "/api/cart/items", `[1, 2]`, http.StatusBadRequest},
		{"unknown line", http.MethodPatch, "/api/cart/items/zz", `{"delta": 1}`, http.StatusNotFound},
		{"zero delta", http.MethodPatch, "/api/cart/items/zz", `{"delta": 0}`, http.StatusBadRequest},
		{"missing delta", http.MethodPatch, "/api/cart/items/zz", `{}`, http.StatusBadRequest},
		{"remove missing line", http.MethodDelete, "/api/cart/items/zz", ``, http.StatusOK},
		{"confirmed clear", http.MethodDelete, "/api/cart?confirm=true", ``, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.path, token, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestSession_Required(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/cart", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/cart", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := s.openSession()
	rec = s.do(http.MethodDelete, "/api/session", token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/api/cart", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSession_Isolation(t *testing.T) {
	s := newTestServer(t)
	a, b := s.openSession(), s.openSession()

	rec := s.do(http.MethodPost, "/api/cart/items", a, `{"productId": "`+overshirt+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/cart", b, "")
	assert.Equal(t, "0", decode(t, rec)["count"].(json.Number).String())
}

func TestProducts(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/products", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	products := decode(t, rec)["products"].([]any)
	require.Len(t, products, 2)

	rec = s.do(http.MethodGet, "/api/products/tee-01", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	variants := decode(t, rec)["variants"].([]any)
	images := variants[0].(map[string]any)["images"].([]any)
	assert.Equal(t, "https://cdn.example.com/tee-black.jpg", images[0], "absolute URLs are kept")

	rec = s.do(http.MethodGet, "/api/products/missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product not found", errorMessage(t, rec))
}

func TestSelection(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/products/"+overshirt+"/selection?color=0&image=1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Sand", body["color"])
	assert.Equal(t, "https://img.example/img/overshirt-sand-2.jpg", body["mainImage"])
	assert.Equal(t, "S", body["size"])
	assert.Equal(t, true, body["orderable"])

	rec = s.do(http.MethodGet, "/api/products/"+overshirt+"/selection?color=9", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sand", decode(t, rec)["color"], "out of range color falls back to the first")

	rec = s.do(http.MethodGet, "/api/products/tee-01/selection?size=M", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, false, body["orderable"])
	assert.Equal(t, "size M is out of stock", body["reason"])
	sizes := body["sizes"].([]any)
	require.Len(t, sizes, 2)
	m := sizes[0].(map[string]any)
	assert.Equal(t, "0", m["stock"].(json.Number).String())
	assert.Equal(t, false, m["available"])
	assert.Equal(t, true, m["selected"])

	rec = s.do(http.MethodGet, "/api/products/tee-01/selection?color=x", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReverseGeocode(t *testing.T) {
	s := newTestServer(t)

	s.geocoder.addr = &geocode.Address{DisplayName: "MG Road, Pune", Street: "MG Road", City: "Pune", State: "MH", PostalCode: "411001"}
	rec := s.do(http.MethodGet, "/api/geocode/reverse?lat=18.5&lon=73.8", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Pune", body["city"])
	assert.Equal(t, "411001", body["pinCode"])

	rec = s.do(http.MethodGet, "/api/geocode/reverse?lat=abc&lon=73.8", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.geocoder.err = geocode.ErrInvalidCoordinates
	rec = s.do(http.MethodGet, "/api/geocode/reverse?lat=100&lon=73.8", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.geocoder.err = errors.New("connection refused")
	rec = s.do(http.MethodGet, "/api/geocode/reverse?lat=18.5&lon=73.8", "", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
