// internal/domain/inventory/service.go
package inventory

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Service reads the stock movement ledger
type Service struct {
	db *gorm.DB
}

// NewService creates a new inventory service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// RecordSale appends the outbound movement for units sold on an order.
// Callers pass the transaction that decremented the stock.
func RecordSale(tx *gorm.DB, level StockLevel, orderID uint) error {
	movement := &StockMovement{
		ProductID:        level.ProductID,
		MovementType:     MovementTypeOutbound,
		Reason:           ReasonSale,
		Quantity:         level.Previous - level.Current,
		PreviousQuantity: level.Previous,
		NewQuantity:      level.Current,
		ReferenceType:    "order",
		ReferenceID:      &orderID,
	}
	if err := tx.Create(movement).Error; err != nil {
		return fmt.Errorf("failed to record sale movement: %w", err)
	}
	return nil
}

// RecordAdjustment appends a manual stock correction. No row is written
// when the level did not change.
func RecordAdjustment(tx *gorm.DB, level StockLevel, userID *uint) error {
	delta := level.Current - level.Previous
	if delta == 0 {
		return nil
	}

	movement := &StockMovement{
		ProductID:        level.ProductID,
		MovementType:     MovementTypeInbound,
		Reason:           ReasonAdjustment,
		Quantity:         delta,
		PreviousQuantity: level.Previous,
		NewQuantity:      level.Current,
		CreatedBy:        userID,
	}
	if delta < 0 {
		movement.MovementType = MovementTypeOutbound
		movement.Quantity = -delta
	}

	if err := tx.Create(movement).Error; err != nil {
		return fmt.Errorf("failed to record adjustment movement: %w", err)
	}
	return nil
}

// ListMovements returns a product's most recent movements first
func (s *Service) ListMovements(ctx context.Context, productID uint, limit int) ([]StockMovement, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var movements []StockMovement
	if err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}
	return movements, nil
}
