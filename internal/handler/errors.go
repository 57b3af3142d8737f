package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/surplus-storefront/internal/domain/auth"
	"github.com/xenking/surplus-storefront/internal/domain/cart"
	"github.com/xenking/surplus-storefront/internal/domain/order"
	"github.com/xenking/surplus-storefront/internal/domain/payment"
	"github.com/xenking/surplus-storefront/internal/domain/product"
	"github.com/xenking/surplus-storefront/internal/geocode"
	"github.com/xenking/surplus-storefront/pkg/httpmiddleware"
)

// writeError maps domain errors to status codes. Unknown errors are logged
// and reported as 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	}
	httpmiddleware.WriteError(w, r, status, msg)
}

func classify(err error) (int, string) {
	var (
		sizeUnavailable *product.SizeUnavailableError
		unknownSize     *product.UnknownSizeError
		validation      *order.ValidationError
	)
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrRevoked):
		return http.StatusUnauthorized, "invalid or expired session"
	case errors.Is(err, product.ErrNotFound):
		return http.StatusNotFound, "product not found"
	case errors.Is(err, cart.ErrLineNotFound):
		return http.StatusNotFound, "cart line not found"
	case errors.Is(err, order.ErrNoPendingOrder):
		return http.StatusNotFound, "no pending order"
	case errors.Is(err, cart.ErrZeroDelta):
		return http.StatusBadRequest, cart.ErrZeroDelta.Error()
	case errors.Is(err, geocode.ErrInvalidCoordinates):
		return http.StatusBadRequest, geocode.ErrInvalidCoordinates.Error()
	case errors.Is(err, cart.ErrConfirmationRequired):
		return http.StatusConflict, cart.ErrConfirmationRequired.Error()
	case errors.Is(err, order.ErrEmptyCart):
		return http.StatusConflict, order.ErrEmptyCart.Error()
	case errors.As(err, &sizeUnavailable):
		return http.StatusConflict, sizeUnavailable.Error()
	case errors.Is(err, product.ErrSizeRequired):
		return http.StatusUnprocessableEntity, product.ErrSizeRequired.Error()
	case errors.As(err, &unknownSize):
		return http.StatusUnprocessableEntity, unknownSize.Error()
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity, validation.Error()
	case errors.Is(err, payment.ErrInvalidMethod):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, errUpstream):
		return http.StatusBadGateway, "geocoding service unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
