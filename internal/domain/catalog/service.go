// internal/domain/catalog/service.go
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/tailor-marketplace/internal/domain/inventory"
	"github.com/your-org/tailor-marketplace/internal/domain/seller"
	"github.com/your-org/tailor-marketplace/internal/pkg/apperror"
	"github.com/your-org/tailor-marketplace/internal/pkg/money"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service handles seller and product catalog operations
type Service struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewService creates a new catalog service
func NewService(db *gorm.DB, logger *logrus.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// CreateSellerRequest represents a seller onboarding request
type CreateSellerRequest struct {
	Name string     `json:"name" binding:"required,min=2,max=255"`
	Kind SellerKind `json:"kind" binding:"required,oneof=goods tailor"`
}

// CreateProductRequest represents a create product request
type CreateProductRequest struct {
	SellerID             uint               `json:"seller_id" binding:"required"`
	SKU                  string             `json:"sku" binding:"required,max=100"`
	Name                 string             `json:"name" binding:"required,max=255"`
	Type                 ProductType        `json:"type" binding:"required,oneof=goods service"`
	GarmentType          seller.GarmentType `json:"garment_type"`
	UnitPrice            money.Amount       `json:"unit_price" binding:"min=0"`
	StockQuantity        int                `json:"stock_quantity" binding:"min=0"`
	MinimumOrderQuantity int                `json:"minimum_order_quantity"`
	TrackQuantity        *bool              `json:"track_quantity"`
	Unit                 string             `json:"unit"`
}

// GetPrice returns the live price and stock view of a product
func (s *Service) GetPrice(ctx context.Context, productID uint) (*PriceQuote, error) {
	product, err := s.getProduct(s.db.WithContext(ctx), productID)
	if err != nil {
		return nil, err
	}
	return product.Quote(), nil
}

// GetSeller returns a seller by ID
func (s *Service) GetSeller(ctx context.Context, sellerID uint) (*Seller, error) {
	var sel Seller
	if err := s.db.WithContext(ctx).First(&sel, sellerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("seller %d: %w", sellerID, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get seller: %w", err)
	}
	return &sel, nil
}

// CreateSeller onboards a seller
func (s *Service) CreateSeller(ctx context.Context, req CreateSellerRequest) (*Seller, error) {
	sel := Seller{Name: req.Name, Kind: req.Kind, IsActive: true}
	if err := s.db.WithContext(ctx).Create(&sel).Error; err != nil {
		return nil, fmt.Errorf("failed to create seller: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"seller_id": sel.ID, "kind": sel.Kind}).Info("Seller created")
	return &sel, nil
}

// CreateProduct adds a product to a seller's catalog
func (s *Service) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	if req.Type == ProductTypeService && !req.GarmentType.Valid() {
		return nil, apperror.NewValidation("garment_type", "service products need a known garment type")
	}
	if req.MinimumOrderQuantity < 1 {
		req.MinimumOrderQuantity = 1
	}
	if req.Unit == "" {
		req.Unit = "piece"
	}
	track := req.Type == ProductTypeGoods
	if req.TrackQuantity != nil {
		track = *req.TrackQuantity
	}

	sel, err := s.GetSeller(ctx, req.SellerID)
	if err != nil {
		return nil, err
	}
	if req.Type == ProductTypeService && sel.Kind != SellerKindTailor {
		return nil, apperror.NewValidation("type", "only tailors can list service products")
	}

	product := Product{
		SellerID:             req.SellerID,
		SKU:                  req.SKU,
		Name:                 req.Name,
		Type:                 req.Type,
		GarmentType:          req.GarmentType,
		UnitPrice:            req.UnitPrice,
		StockQuantity:        req.StockQuantity,
		MinimumOrderQuantity: req.MinimumOrderQuantity,
		TrackQuantity:        track,
		Unit:                 req.Unit,
		IsActive:             true,
	}
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return &product, nil
}

// UpdatePrice changes a product's live unit price. Carts holding the old
// price are rejected at checkout until the customer re-confirms.
func (s *Service) UpdatePrice(ctx context.Context, productID uint, price money.Amount) (*Product, error) {
	if price < 0 {
		return nil, apperror.NewValidation("unit_price", "must not be negative")
	}

	result := s.db.WithContext(ctx).Model(&Product{}).Where("id = ?", productID).Update("unit_price", price)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update price: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("product %d: %w", productID, apperror.ErrNotFound)
	}

	return s.getProduct(s.db.WithContext(ctx), productID)
}

// SetStock overwrites a product's stock level (restock / stocktake) and
// records the change in the stock movement ledger
func (s *Service) SetStock(ctx context.Context, productID uint, quantity int, updatedBy uint) (*Product, error) {
	if quantity < 0 {
		return nil, apperror.NewValidation("stock_quantity", "must not be negative")
	}

	var product Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.getProduct(tx.Clauses(clause.Locking{Strength: "UPDATE"}), productID)
		if err != nil {
			return err
		}

		level := inventory.StockLevel{ProductID: productID, Previous: current.StockQuantity, Current: quantity}
		if err := tx.Model(current).Update("stock_quantity", quantity).Error; err != nil {
			return fmt.Errorf("failed to set stock: %w", err)
		}

		var by *uint
		if updatedBy != 0 {
			by = &updatedBy
		}
		if err := inventory.RecordAdjustment(tx, level, by); err != nil {
			return err
		}

		current.StockQuantity = quantity
		product = *current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (s *Service) getProduct(db *gorm.DB, productID uint) (*Product, error) {
	var product Product
	if err := db.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", productID, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// DecrementStock takes qty units of a tracked product inside tx. The
// update only applies while enough stock remains, so two transactions
// racing for the last units cannot both succeed. Untracked products
// return a nil level.
func DecrementStock(tx *gorm.DB, productID uint, qty int) (*inventory.StockLevel, error) {
	var updated Product
	result := tx.Model(&updated).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "stock_quantity"}}}).
		Where("id = ? AND track_quantity = ? AND stock_quantity >= ?", productID, true, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to decrement stock for product %d: %w", productID, result.Error)
	}
	if result.RowsAffected == 1 {
		return &inventory.StockLevel{
			ProductID: productID,
			Previous:  updated.StockQuantity + qty,
			Current:   updated.StockQuantity,
		}, nil
	}

	var current Product
	if err := tx.Select("id", "stock_quantity", "track_quantity").First(&current, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", productID, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read stock for product %d: %w", productID, err)
	}
	if !current.TrackQuantity {
		return nil, nil
	}

	return nil, &apperror.StockConflictError{
		ProductID: productID,
		Requested: qty,
		Available: current.StockQuantity,
	}
}
