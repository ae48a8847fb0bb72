// internal/domain/checkout/metrics.go
package checkout

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/your-org/tailor-marketplace/checkout"

// Metrics holds the checkout counters exported on /metrics
type Metrics struct {
	groups  metric.Int64Counter
	capped  metric.Int64Counter
	flagged metric.Int64Counter
}

// NewMetrics registers the checkout instruments on the global meter provider
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	groups, err := meter.Int64Counter("checkout_groups_total",
		metric.WithDescription("Seller groups that reached a terminal checkout state"))
	if err != nil {
		return nil, err
	}
	capped, err := meter.Int64Counter("checkout_discount_capped_total",
		metric.WithDescription("Orders whose combined discount was clamped to the cap"))
	if err != nil {
		return nil, err
	}
	flagged, err := meter.Int64Counter("orders_flagged_for_review_total",
		metric.WithDescription("Orders whose total was clamped to zero and held for seller review"))
	if err != nil {
		return nil, err
	}

	return &Metrics{groups: groups, capped: capped, flagged: flagged}, nil
}

func (m *Metrics) groupFinished(ctx context.Context, state State) {
	m.groups.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", state.String())))
}

func (m *Metrics) discountCapped(ctx context.Context) {
	m.capped.Add(ctx, 1)
}

func (m *Metrics) flaggedForReview(ctx context.Context) {
	m.flagged.Add(ctx, 1)
}
