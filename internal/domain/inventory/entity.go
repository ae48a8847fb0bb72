// internal/domain/inventory/entity.go
package inventory

import (
	"time"
)

// MovementType represents the direction of a stock movement
type MovementType string

const (
	MovementTypeInbound  MovementType = "inbound"  // restock, adjustment increase
	MovementTypeOutbound MovementType = "outbound" // sale, adjustment decrease
)

// MovementReason represents the reason for a stock movement
type MovementReason string

const (
	ReasonSale       MovementReason = "sale"
	ReasonAdjustment MovementReason = "adjustment"
)

// StockMovement is an append-only record of one change to a product's
// stock level
type StockMovement struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	ProductID        uint           `gorm:"not null;index" json:"product_id"`
	MovementType     MovementType   `gorm:"not null" json:"movement_type"`
	Reason           MovementReason `gorm:"not null" json:"reason"`
	Quantity         int            `gorm:"not null" json:"quantity"`
	PreviousQuantity int            `json:"previous_quantity"`
	NewQuantity      int            `json:"new_quantity"`
	ReferenceType    string         `gorm:"size:50" json:"reference_type,omitempty"` // "order"
	ReferenceID      *uint          `json:"reference_id,omitempty"`
	CreatedBy        *uint          `json:"created_by,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

func (StockMovement) TableName() string { return "stock_movements" }

// StockLevel is a product's stock before and after a change
type StockLevel struct {
	ProductID uint
	Previous  int
	Current   int
}

// LowStock reports whether the level dropped to or below threshold
func (l StockLevel) LowStock(threshold int) bool {
	return l.Current <= threshold && l.Previous > threshold
}
