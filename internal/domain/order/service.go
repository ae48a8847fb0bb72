// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/tailor-marketplace/internal/pkg/apperror"
	"gorm.io/gorm"
)

// Service handles order snapshot reads and fulfillment status
type Service struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewService creates a new order service
func NewService(db *gorm.DB, logger *logrus.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// OrderListRequest represents order list query parameters
type OrderListRequest struct {
	Page       int               `form:"page,default=1"`
	Limit      int               `form:"limit,default=20"`
	CustomerID uint              `form:"-"`
	SellerID   uint              `form:"seller_id"`
	Status     FulfillmentStatus `form:"status"`
	SortBy     string            `form:"sort_by,default=created_at"`
	SortOrder  string            `form:"sort_order,default=desc"`
}

// OrderResponse represents order response with pagination
type OrderResponse struct {
	Orders     []OrderSnapshot `json:"orders"`
	Pagination Pagination      `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// UpdateFulfillmentRequest represents a seller's status update
type UpdateFulfillmentRequest struct {
	Status  FulfillmentStatus `json:"status" binding:"required,oneof=processing completed cancelled"`
	Comment string            `json:"comment"`
}

// CreateSnapshot persists a snapshot with its lines, charges, discount
// audit and a pending fulfillment record. Callers pass their transaction.
func CreateSnapshot(tx *gorm.DB, snap *OrderSnapshot) error {
	if err := tx.Omit("Fulfillment").Create(snap).Error; err != nil {
		return fmt.Errorf("failed to create order snapshot: %w", err)
	}

	fulfillment := Fulfillment{OrderID: snap.ID, Status: FulfillmentPending}
	if err := tx.Create(&fulfillment).Error; err != nil {
		return fmt.Errorf("failed to create fulfillment record: %w", err)
	}
	snap.Fulfillment = &fulfillment

	return nil
}

// GetOrder retrieves a snapshot owned by customerID. A zero customerID
// skips the ownership check (seller/admin views).
func (s *Service) GetOrder(ctx context.Context, id, customerID uint) (*OrderSnapshot, error) {
	query := s.withRelations(s.db.WithContext(ctx)).Where("id = ?", id)
	if customerID != 0 {
		query = query.Where("customer_id = ?", customerID)
	}

	var snap OrderSnapshot
	if err := query.First(&snap).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %d: %w", id, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}

	return &snap, nil
}

// ListOrders retrieves snapshots with filtering and pagination
func (s *Service) ListOrders(ctx context.Context, req *OrderListRequest) (*OrderResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&OrderSnapshot{})
	if req.CustomerID > 0 {
		query = query.Where("order_snapshots.customer_id = ?", req.CustomerID)
	}
	if req.SellerID > 0 {
		query = query.Where("order_snapshots.seller_id = ?", req.SellerID)
	}
	if req.Status != "" {
		query = query.Joins("JOIN fulfillments ON fulfillments.order_id = order_snapshots.id").
			Where("fulfillments.status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []OrderSnapshot
	offset := (req.Page - 1) * req.Limit
	if err := s.withRelations(query).
		Order(buildOrderClause(req.SortBy, req.SortOrder)).
		Offset(offset).Limit(req.Limit).
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &OrderResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// GetCompletedOrderCount counts a customer's completed orders with a
// seller. Used for corporate discount eligibility.
func (s *Service) GetCompletedOrderCount(ctx context.Context, customerID, sellerID uint) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&OrderSnapshot{}).
		Joins("JOIN fulfillments ON fulfillments.order_id = order_snapshots.id").
		Where("order_snapshots.customer_id = ? AND order_snapshots.seller_id = ?", customerID, sellerID).
		Where("fulfillments.status = ?", FulfillmentCompleted).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count completed orders: %w", err)
	}
	return int(count), nil
}

// UpdateFulfillmentStatus moves an order's fulfillment record forward.
// The snapshot row itself is never touched.
func (s *Service) UpdateFulfillmentStatus(ctx context.Context, orderID, sellerID uint, req UpdateFulfillmentRequest, updatedBy uint) (*Fulfillment, error) {
	var fulfillment Fulfillment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var snap OrderSnapshot
		if err := tx.Select("id", "seller_id").Where("id = ? AND seller_id = ?", orderID, sellerID).First(&snap).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("order %d: %w", orderID, apperror.ErrNotFound)
			}
			return err
		}

		if err := tx.Where("order_id = ?", orderID).First(&fulfillment).Error; err != nil {
			return fmt.Errorf("failed to load fulfillment: %w", err)
		}

		if !fulfillment.Status.CanTransitionTo(req.Status) {
			return apperror.NewValidation("status", "invalid status transition from %s to %s", fulfillment.Status, req.Status)
		}

		return tx.Model(&fulfillment).Updates(map[string]interface{}{
			"status":     req.Status,
			"comment":    req.Comment,
			"updated_by": updatedBy,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"status":   req.Status,
	}).Info("Fulfillment status updated")

	return &fulfillment, nil
}

func (s *Service) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines").Preload("Charges").Preload("Discounts").Preload("Fulfillment")
}

func buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"created_at":   true,
		"grand_total":  true,
		"order_number": true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("order_snapshots.%s %s", sortBy, sortOrder)
}
