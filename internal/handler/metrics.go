package handler

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type metrics struct {
	cartMutations metric.Int64Counter
	ordersPlaced  metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	cartMutations, err := meter.Int64Counter("storefront.cart.mutations",
		metric.WithDescription("Cart mutations by operation"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "cart mutations counter")
	}
	ordersPlaced, err := meter.Int64Counter("storefront.orders.placed",
		metric.WithDescription("Completed checkouts by payment method"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders placed counter")
	}
	return &metrics{cartMutations: cartMutations, ordersPlaced: ordersPlaced}, nil
}

func (m *metrics) cartMutation(ctx context.Context, op string) {
	m.cartMutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func (m *metrics) orderPlaced(ctx context.Context, method string) {
	m.ordersPlaced.Add(ctx, 1, metric.WithAttributes(attribute.String("payment_method", method)))
}
