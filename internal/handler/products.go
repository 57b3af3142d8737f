package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/surplus-storefront/internal/catalog"
	"github.com/xenking/surplus-storefront/internal/domain/product"
)

// ListProducts handles GET /api/products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("products", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, p := range products {
						catalog.EncodeProduct(e, h.withImageURLs(p))
					}
				})
			})
		})
	})
}

// GetProduct handles GET /api/products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		catalog.EncodeProduct(e, h.withImageURLs(*p))
	})
}

// GetSelection handles GET /api/products/{id}/selection. The color and image
// query parameters are indexes; size is a size name.
func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	colorIndex, err := queryInt(r, "color")
	if err != nil {
		writeError(w, r, err)
		return
	}
	imageIndex, err := queryInt(r, "image")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resolved := h.withImageURLs(*p)
	sel := product.Resolve(resolved, product.SelectionRequest{
		ColorIndex: colorIndex,
		ImageIndex: imageIndex,
		Size:       r.URL.Query().Get("size"),
	})
	orderErr := sel.Orderable(resolved)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("colorIndex", func(e *jx.Encoder) { e.Int(sel.ColorIndex) })
			e.Field("color", func(e *jx.Encoder) { e.Str(sel.Color()) })
			e.Field("images", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, img := range sel.Images {
						e.Str(img)
					}
				})
			})
			e.Field("imageIndex", func(e *jx.Encoder) { e.Int(sel.ImageIndex) })
			e.Field("mainImage", func(e *jx.Encoder) { e.Str(sel.MainImage) })
			e.Field("size", func(e *jx.Encoder) { e.Str(sel.Size) })
			e.Field("sizes", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, opt := range sel.Sizes {
						e.Obj(func(e *jx.Encoder) {
							e.Field("name", func(e *jx.Encoder) { e.Str(opt.Name) })
							if opt.Stock != nil {
								e.Field("stock", func(e *jx.Encoder) { e.Int(*opt.Stock) })
							}
							e.Field("available", func(e *jx.Encoder) { e.Bool(opt.Available) })
							e.Field("selected", func(e *jx.Encoder) { e.Bool(opt.Selected) })
						})
					}
				})
			})
			e.Field("orderable", func(e *jx.Encoder) { e.Bool(orderErr == nil) })
			if orderErr != nil {
				e.Field("reason", func(e *jx.Encoder) { e.Str(orderErr.Error()) })
			}
		})
	})
}

// withImageURLs returns a copy of p with image paths made absolute.
func (h *Handler) withImageURLs(p product.Product) product.Product {
	if h.imageBaseURL == "" || len(p.Variants) == 0 {
		return p
	}
	variants := make([]product.Variant, len(p.Variants))
	for i, v := range p.Variants {
		images := make([]string, len(v.Images))
		for j, img := range v.Images {
			images[j] = h.resolveImage(img)
		}
		v.Images = images
		variants[i] = v
	}
	p.Variants = variants
	return p
}
