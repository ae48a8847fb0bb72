// internal/infrastructure/messaging/events.go
package messaging

import (
	"encoding/json"
	"time"

	"github.com/your-org/tailor-marketplace/internal/domain/order"
	"github.com/your-org/tailor-marketplace/internal/pkg/money"
)

const (
	EventOrderConfirmed = "OrderConfirmed"
	eventVersion        = 1
)

// Envelope wraps every published event
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // checkout id
	Payload       json.RawMessage `json:"payload"`
}

type LinePayload struct {
	ProductID   *uint        `json:"product_id,omitempty"`
	PackageID   *uint        `json:"package_id,omitempty"`
	GarmentType string       `json:"garment_type,omitempty"`
	Quantity    int          `json:"quantity"`
	LineTotal   money.Amount `json:"line_total"`
}

type OrderConfirmedPayload struct {
	OrderID        uint          `json:"order_id"`
	OrderNumber    string        `json:"order_number"`
	CheckoutID     string        `json:"checkout_id"`
	CustomerID     uint          `json:"customer_id"`
	SellerID       uint          `json:"seller_id"`
	Currency       string        `json:"currency"`
	DiscountAmount money.Amount  `json:"discount_amount"`
	GrandTotal     money.Amount  `json:"grand_total"`
	NeedsReview    bool          `json:"needs_review"`
	Lines          []LinePayload `json:"lines"`
}

func newOrderConfirmedPayload(snap *order.OrderSnapshot) OrderConfirmedPayload {
	p := OrderConfirmedPayload{
		OrderID:        snap.ID,
		OrderNumber:    snap.OrderNumber,
		CheckoutID:     snap.CheckoutID,
		CustomerID:     snap.CustomerID,
		SellerID:       snap.SellerID,
		Currency:       snap.Currency,
		DiscountAmount: snap.DiscountAmount,
		GrandTotal:     snap.GrandTotal,
		NeedsReview:    snap.NeedsReview,
		Lines:          make([]LinePayload, 0, len(snap.Lines)),
	}
	for _, l := range snap.Lines {
		p.Lines = append(p.Lines, LinePayload{
			ProductID:   l.ProductID,
			PackageID:   l.PackageID,
			GarmentType: l.GarmentType,
			Quantity:    l.Quantity,
			LineTotal:   l.LineTotal,
		})
	}
	return p
}
