package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/surplus-storefront/internal/domain/cart"
	"github.com/xenking/surplus-storefront/internal/domain/order"
	"github.com/xenking/surplus-storefront/internal/domain/payment"
	"github.com/xenking/surplus-storefront/internal/invoice"
)

// PreviewCheckout handles GET /api/checkout/preview.
func (h *Handler) PreviewCheckout(w http.ResponseWriter, r *http.Request) {
	sum, err := h.orders.Summary(r.Context(), sessionFrom(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("count", func(e *jx.Encoder) { e.Int(cart.Count(sum.Items)) })
			e.Field("totals", func(e *jx.Encoder) { encodeTotals(e, sum.Totals) })
			e.Field("upiQr", func(e *jx.Encoder) { e.Str(sum.UPIQR) })
		})
	})
}

// Checkout handles POST /api/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	req, err := readCheckout(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := h.orders.Checkout(r.Context(), sessionFrom(r.Context()).ID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.metrics.orderPlaced(r.Context(), string(snap.PaymentMethod))
	h.writeOrder(w, http.StatusCreated, snap)
}

// GetLastOrder handles GET /api/orders/last.
func (h *Handler) GetLastOrder(w http.ResponseWriter, r *http.Request) {
	snap, err := h.orders.Pending(r.Context(), sessionFrom(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeOrder(w, http.StatusOK, snap)
}

// GetReceipt handles GET /api/orders/last/receipt.
func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	snap, err := h.orders.Pending(r.Context(), sessionFrom(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := invoice.Render(&buf, snap); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="`+snap.InvoiceNumber+`.txt"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// AcknowledgeOrder handles DELETE /api/orders/last.
func (h *Handler) AcknowledgeOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Acknowledge(r.Context(), sessionFrom(r.Context()).ID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func readCheckout(r *http.Request) (order.CheckoutRequest, error) {
	var req order.CheckoutRequest
	err := readObject(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "customer":
			return readCustomer(d, &req.Customer)
		case "paymentMethod":
			v, err := readString(d)
			req.PaymentMethod = v
			return err
		case "card":
			return readCard(d, &req.Card)
		default:
			return d.Skip()
		}
	})
	return req, err
}

func readCustomer(d *jx.Decoder, c *order.Customer) error {
	if d.Next() != jx.Object {
		return badRequest("customer must be an object")
	}
	return d.Obj(func(d *jx.Decoder, key string) error {
		var dst *string
		switch key {
		case "fullName":
			dst = &c.FullName
		case "email":
			dst = &c.Email
		case "phone":
			dst = &c.Phone
		case "address":
			dst = &c.Address
		case "street":
			dst = &c.Street
		case "apartment":
			dst = &c.Apartment
		case "city":
			dst = &c.City
		case "state":
			dst = &c.State
		case "pinCode":
			dst = &c.PinCode
		default:
			return d.Skip()
		}
		v, err := readString(d)
		*dst = v
		return err
	})
}

func readCard(d *jx.Decoder, c *payment.Card) error {
	if d.Next() != jx.Object {
		return badRequest("card must be an object")
	}
	return d.Obj(func(d *jx.Decoder, key string) error {
		var dst *string
		switch key {
		case "number":
			dst = &c.Number
		case "expiry":
			dst = &c.Expiry
		case "cvc":
			dst = &c.CVC
		default:
			return d.Skip()
		}
		v, err := readString(d)
		*dst = v
		return err
	})
}

func (h *Handler) writeOrder(w http.ResponseWriter, status int, s *order.Snapshot) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("invoiceNumber", func(e *jx.Encoder) { e.Str(s.InvoiceNumber) })
			if !s.Date.IsZero() {
				e.Field("date", func(e *jx.Encoder) { e.Str(s.Date.UTC().Format(time.RFC3339)) })
			}
			e.Field("customer", func(e *jx.Encoder) {
				c := s.Customer
				e.Obj(func(e *jx.Encoder) {
					e.Field("fullName", func(e *jx.Encoder) { e.Str(c.FullName) })
					e.Field("email", func(e *jx.Encoder) { e.Str(c.Email) })
					e.Field("phone", func(e *jx.Encoder) { e.Str(c.Phone) })
					e.Field("address", func(e *jx.Encoder) { e.Str(c.Address) })
				})
			})
			e.Field("items", func(e *jx.Encoder) { h.encodeItems(e, s.Items) })
			e.Field("paymentMethod", func(e *jx.Encoder) { e.Str(string(s.PaymentMethod)) })
			if s.PaymentHint != "" {
				e.Field("paymentHint", func(e *jx.Encoder) { e.Str(s.PaymentHint) })
			}
			e.Field("totals", func(e *jx.Encoder) { encodeTotals(e, s.Totals) })
		})
	})
}
