package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/surplus-storefront/internal/geocode"
)

// errUpstream marks failures of an outbound dependency.
var errUpstream = errors.New("upstream unavailable")

// ReverseGeocode handles GET /api/geocode/reverse?lat=..&lon=..
func (h *Handler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		writeError(w, r, badRequest("lat must be a number"))
		return
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		writeError(w, r, badRequest("lon must be a number"))
		return
	}

	addr, err := h.geocoder.Reverse(r.Context(), lat, lon)
	if err != nil {
		if !errors.Is(err, geocode.ErrInvalidCoordinates) {
			err = fmt.Errorf("reverse geocode: %w: %w", errUpstream, err)
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("displayName", func(e *jx.Encoder) { e.Str(addr.DisplayName) })
			e.Field("street", func(e *jx.Encoder) { e.Str(addr.Street) })
			e.Field("city", func(e *jx.Encoder) { e.Str(addr.City) })
			e.Field("state", func(e *jx.Encoder) { e.Str(addr.State) })
			e.Field("pinCode", func(e *jx.Encoder) { e.Str(addr.PostalCode) })
		})
	})
}
