// internal/domain/order/entity.go
package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/tailor-marketplace/internal/pkg/money"
	"gorm.io/gorm"
)

// ErrSnapshotImmutable is returned by gorm hooks on any attempt to change a
// persisted order snapshot.
var ErrSnapshotImmutable = errors.New("order snapshots are immutable")

// FulfillmentStatus tracks what happens to an order after checkout
type FulfillmentStatus string

const (
	FulfillmentPending    FulfillmentStatus = "pending"
	FulfillmentProcessing FulfillmentStatus = "processing"
	FulfillmentCompleted  FulfillmentStatus = "completed"
	FulfillmentCancelled  FulfillmentStatus = "cancelled"
)

// OrderSnapshot is the priced result of checking out one seller group.
// It is written once and never updated.
type OrderSnapshot struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderNumber string `gorm:"uniqueIndex;not null;size:60" json:"order_number"`
	CheckoutID  string `gorm:"not null;index;size:36" json:"checkout_id"`
	CustomerID  uint   `gorm:"not null;index" json:"customer_id"`
	SellerID    uint   `gorm:"not null;index" json:"seller_id"`
	Currency    string `gorm:"size:3;not null" json:"currency"`

	// Financial Information (minor units)
	LinesSubtotal      money.Amount    `gorm:"not null" json:"lines_subtotal"`
	ChargesTotal       money.Amount    `gorm:"not null" json:"charges_total"`
	Subtotal           money.Amount    `gorm:"not null" json:"subtotal"`
	DiscountBase       money.Amount    `gorm:"not null" json:"discount_base"`
	DiscountPercentage decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"discount_percentage"`
	DiscountAmount     money.Amount    `gorm:"not null" json:"discount_amount"`
	ShippingCost       money.Amount    `gorm:"not null;default:0" json:"shipping_cost"`
	GrandTotal         money.Amount    `gorm:"not null" json:"grand_total"`

	NeedsReview  bool   `gorm:"default:false;index" json:"needs_review"`
	ReviewReason string `gorm:"size:255" json:"review_reason,omitempty"`

	PricedAt  time.Time `gorm:"not null" json:"priced_at"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	Lines       []OrderLine       `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"lines"`
	Charges     []OrderCharge     `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"charges"`
	Discounts   []AppliedDiscount `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"discounts"`
	Fulfillment *Fulfillment      `gorm:"foreignKey:OrderID" json:"fulfillment,omitempty"`
}

// OrderLine is one priced line of a snapshot
type OrderLine struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	OrderID      uint         `gorm:"not null;index" json:"order_id"`
	ProductID    *uint        `gorm:"index" json:"product_id,omitempty"`
	PackageID    *uint        `gorm:"index" json:"package_id,omitempty"`
	ProductType  string       `gorm:"size:20;not null" json:"product_type"`
	GarmentType  string       `gorm:"size:30" json:"garment_type,omitempty"`
	PricedAs     string       `gorm:"size:30;not null" json:"priced_as"`
	UnitPrice    money.Amount `gorm:"not null" json:"unit_price"`
	Quantity     int          `gorm:"not null" json:"quantity"`
	LineTotal    money.Amount `gorm:"not null" json:"line_total"`
	GarmentCount int          `gorm:"default:0" json:"garment_count"`
	Discountable bool         `gorm:"not null" json:"discountable"`
	Unit         string       `gorm:"size:20" json:"unit"`
}

// OrderCharge is a selected additional charge
type OrderCharge struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	OrderID    uint         `gorm:"not null;index" json:"order_id"`
	ChargeType string       `gorm:"size:50;not null" json:"charge_type"`
	Amount     money.Amount `gorm:"not null" json:"amount"`
}

// AppliedDiscount is one entry of the discount audit
type AppliedDiscount struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderID         uint            `gorm:"not null;index" json:"order_id"`
	Source          string          `gorm:"size:30;not null" json:"source"`
	Percentage      decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"percentage_applied"`
	Amount          money.Amount    `gorm:"not null" json:"amount_applied"`
	IncludedInPrice bool            `gorm:"default:false" json:"included_in_price"`
}

// Fulfillment is the mutable status record kept next to a snapshot
type Fulfillment struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	OrderID   uint              `gorm:"not null;uniqueIndex" json:"order_id"`
	Status    FulfillmentStatus `gorm:"not null;size:20;default:'pending';index" json:"status"`
	Comment   string            `gorm:"type:text" json:"comment,omitempty"`
	UpdatedBy *uint             `json:"updated_by,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// TableName overrides
func (OrderSnapshot) TableName() string   { return "order_snapshots" }
func (OrderLine) TableName() string       { return "order_lines" }
func (OrderCharge) TableName() string     { return "order_charges" }
func (AppliedDiscount) TableName() string { return "applied_discounts" }
func (Fulfillment) TableName() string     { return "fulfillments" }

func (*OrderSnapshot) BeforeUpdate(*gorm.DB) error   { return ErrSnapshotImmutable }
func (*OrderSnapshot) BeforeDelete(*gorm.DB) error   { return ErrSnapshotImmutable }
func (*OrderLine) BeforeUpdate(*gorm.DB) error       { return ErrSnapshotImmutable }
func (*OrderCharge) BeforeUpdate(*gorm.DB) error     { return ErrSnapshotImmutable }
func (*AppliedDiscount) BeforeUpdate(*gorm.DB) error { return ErrSnapshotImmutable }

// GenerateOrderNumber builds a readable order number unique per checkout
// attempt and seller. Format: ORD-YYYYMMDD-<checkout prefix>-S<seller>
func GenerateOrderNumber(at time.Time, checkoutID string, sellerID uint) string {
	prefix := checkoutID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("ORD-%s-%s-S%d", at.UTC().Format("20060102"), prefix, sellerID)
}

// DiscountTotal sums the audit amounts that were deducted at checkout
func (o *OrderSnapshot) DiscountTotal() money.Amount {
	var total money.Amount
	for _, d := range o.Discounts {
		if !d.IncludedInPrice {
			total += d.Amount
		}
	}
	return total
}

// CanTransitionTo reports whether a fulfillment may move to next
func (s FulfillmentStatus) CanTransitionTo(next FulfillmentStatus) bool {
	validTransitions := map[FulfillmentStatus][]FulfillmentStatus{
		FulfillmentPending:    {FulfillmentProcessing, FulfillmentCancelled},
		FulfillmentProcessing: {FulfillmentCompleted, FulfillmentCancelled},
	}
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
