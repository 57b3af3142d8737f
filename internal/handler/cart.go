package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/surplus-storefront/internal/domain/cart"
	"github.com/xenking/surplus-storefront/internal/domain/pricing"
)

// GetCart handles GET /api/cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	sum, err := h.orders.Summary(r.Context(), sessionFrom(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeCart(w, http.StatusOK, sum.Items, sum.Totals)
}

// AddCartItem handles POST /api/cart/items.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req cart.AddItemRequest
	if err := readObject(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			req.ProductID, err = readString(d)
		case "colorIndex":
			req.ColorIndex, err = readInt(d)
		case "size":
			req.Size, err = readString(d)
		default:
			return d.Skip()
		}
		return err
	}); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ProductID == "" {
		writeError(w, r, badRequest("productId is required"))
		return
	}

	items, err := h.carts.AddItem(r.Context(), sessionFrom(r.Context()).ID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.metrics.cartMutation(r.Context(), "add")
	h.writeCart(w, http.StatusOK, items, h.orders.Price(items))
}

// ChangeQuantity handles PATCH /api/cart/items/{cartId}.
func (h *Handler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	var (
		delta    int
		hasDelta bool
	)
	if err := readObject(r, func(d *jx.Decoder, key string) error {
		if key != "delta" {
			return d.Skip()
		}
		hasDelta = true
		var err error
		delta, err = readInt(d)
		return err
	}); err != nil {
		writeError(w, r, err)
		return
	}
	if !hasDelta {
		writeError(w, r, badRequest("delta is required"))
		return
	}

	items, err := h.carts.ChangeQuantity(r.Context(), sessionFrom(r.Context()).ID, r.PathValue("cartId"), delta)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.metrics.cartMutation(r.Context(), "quantity")
	h.writeCart(w, http.StatusOK, items, h.orders.Price(items))
}

// RemoveCartItem handles DELETE /api/cart/items/{cartId}. Removing a line
// that is not in the cart is not an error.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	items, err := h.carts.RemoveItem(r.Context(), sessionFrom(r.Context()).ID, r.PathValue("cartId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.metrics.cartMutation(r.Context(), "remove")
	h.writeCart(w, http.StatusOK, items, h.orders.Price(items))
}

// ClearCart handles DELETE /api/cart?confirm=true.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	confirmed := r.URL.Query().Get("confirm") == "true"
	if err := h.carts.Clear(r.Context(), sessionFrom(r.Context()).ID, confirmed); err != nil {
		writeError(w, r, err)
		return
	}
	h.metrics.cartMutation(r.Context(), "clear")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeCart(w http.ResponseWriter, status int, items []cart.LineItem, totals pricing.Totals) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("items", func(e *jx.Encoder) { h.encodeItems(e, items) })
			e.Field("count", func(e *jx.Encoder) { e.Int(cart.Count(items)) })
			e.Field("totals", func(e *jx.Encoder) { encodeTotals(e, totals) })
		})
	})
}

func (h *Handler) encodeItems(e *jx.Encoder, items []cart.LineItem) {
	e.Arr(func(e *jx.Encoder) {
		for _, it := range items {
			e.Obj(func(e *jx.Encoder) {
				e.Field("cartId", func(e *jx.Encoder) { e.Str(it.CartID) })
				e.Field("productId", func(e *jx.Encoder) { e.Str(it.ProductID) })
				e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
				if it.Description != "" {
					e.Field("description", func(e *jx.Encoder) { e.Str(it.Description) })
				}
				e.Field("price", func(e *jx.Encoder) { encodeMoney(e, it.Price) })
				e.Field("size", func(e *jx.Encoder) { e.Str(it.Size) })
				e.Field("color", func(e *jx.Encoder) { e.Str(it.Color) })
				e.Field("image", func(e *jx.Encoder) { e.Str(h.resolveImage(it.Image)) })
				e.Field("qty", func(e *jx.Encoder) { e.Int(it.Quantity) })
				e.Field("lineTotal", func(e *jx.Encoder) {
					encodeMoney(e, pricing.Subtotal([]cart.LineItem{it}).Round(2))
				})
			})
		}
	})
}

// encodeTotals writes totals rounded to two places.
func encodeTotals(e *jx.Encoder, t pricing.Totals) {
	t = t.Rounded()
	e.Obj(func(e *jx.Encoder) {
		e.Field("subtotal", func(e *jx.Encoder) { encodeMoney(e, t.Subtotal) })
		e.Field("tax", func(e *jx.Encoder) { encodeMoney(e, t.Tax) })
		e.Field("shipping", func(e *jx.Encoder) { encodeMoney(e, t.Shipping) })
		e.Field("discount", func(e *jx.Encoder) { encodeMoney(e, t.Discount) })
		e.Field("total", func(e *jx.Encoder) { encodeMoney(e, t.Total) })
	})
}
