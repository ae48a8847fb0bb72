// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/tailor-marketplace/internal/config"
	"github.com/your-org/tailor-marketplace/internal/domain/catalog"
	"github.com/your-org/tailor-marketplace/internal/domain/pricing"
	"github.com/your-org/tailor-marketplace/internal/domain/seller"
	"github.com/your-org/tailor-marketplace/internal/pkg/apperror"
	"github.com/your-org/tailor-marketplace/internal/pkg/clock"
	"gorm.io/gorm"
)

// Service handles cart business logic. Line items are only changed
// through these methods and the checkout committer.
type Service struct {
	db      *gorm.DB
	catalog ProductCatalog
	sellers SellerConfig
	clock   clock.Clock
	config  *config.Config
	logger  *logrus.Logger
}

// NewService creates a new cart service
func NewService(db *gorm.DB, catalog ProductCatalog, sellers SellerConfig, clk clock.Clock, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		db:      db,
		catalog: catalog,
		sellers: sellers,
		clock:   clk,
		config:  cfg,
		logger:  logger,
	}
}

// AddToCartRequest represents add to cart request. Exactly one of
// ProductID and PackageID must be set.
type AddToCartRequest struct {
	ProductID *uint `json:"product_id"`
	PackageID *uint `json:"package_id"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest represents update cart item request.
// A zero quantity removes the line.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// Items returns a customer's cart lines in the order they were added
func (s *Service) Items(ctx context.Context, customerID uint) ([]CartLineItem, error) {
	var items []CartLineItem
	if err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}
	return items, nil
}

// GetCart retrieves the customer's cart grouped by seller
func (s *Service) GetCart(ctx context.Context, customerID uint) (*CartResponse, error) {
	items, err := s.Items(ctx, customerID)
	if err != nil {
		return nil, err
	}

	agg := GroupBySeller(items, nil)
	resp := &CartResponse{
		CustomerID: customerID,
		Groups:     make([]GroupView, 0, len(agg.Groups)),
	}
	for _, g := range agg.Groups {
		resp.Groups = append(resp.Groups, GroupView{SellerID: g.SellerID, Items: g.Items, Subtotal: g.Subtotal()})
		resp.Totals.TotalQuantity += g.Quantity()
	}
	resp.Totals.ItemCount = len(items)
	resp.Totals.GrandTotal = agg.GrandTotal()
	resp.Totals.Formatted = resp.Totals.GrandTotal.Format(s.config.Pricing.Currency)

	return resp, nil
}

// AddItem adds a product or package to the cart at its current price.
// Adding something already in the cart merges the quantities and
// refreshes the price snapshot.
func (s *Service) AddItem(ctx context.Context, customerID uint, req *AddToCartRequest) (*CartResponse, error) {
	if (req.ProductID == nil) == (req.PackageID == nil) {
		return nil, apperror.NewValidation("product_id", "exactly one of product_id and package_id is required")
	}

	line, err := s.buildLine(ctx, req)
	if err != nil {
		return nil, err
	}
	line.CustomerID = customerID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing CartLineItem
		query := tx.Where("customer_id = ?", customerID)
		if req.ProductID != nil {
			query = query.Where("product_id = ?", *req.ProductID)
		} else {
			query = query.Where("package_id = ?", *req.PackageID)
		}

		err := query.First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(line).Error
		}
		if err != nil {
			return err
		}

		newQuantity := existing.Quantity + req.Quantity
		if req.ProductID != nil {
			if err := s.checkProductQuantity(ctx, *req.ProductID, newQuantity); err != nil {
				return err
			}
		}
		existing.Quantity = newQuantity
		existing.UnitPrice = line.UnitPrice
		return tx.Save(&existing).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add item: %w", err)
	}

	return s.GetCart(ctx, customerID)
}

// UpdateQuantity sets a line's quantity
func (s *Service) UpdateQuantity(ctx context.Context, customerID, itemID uint, req *UpdateCartItemRequest) (*CartResponse, error) {
	if req.Quantity < 0 {
		return nil, apperror.NewValidation("quantity", "quantity cannot be negative")
	}
	if req.Quantity == 0 {
		return s.RemoveItem(ctx, customerID, itemID)
	}

	item, err := s.getItem(ctx, customerID, itemID)
	if err != nil {
		return nil, err
	}
	if item.ProductID != nil {
		if err := s.checkProductQuantity(ctx, *item.ProductID, req.Quantity); err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Model(item).Update("quantity", req.Quantity).Error; err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	return s.GetCart(ctx, customerID)
}

// RemoveItem deletes one line from the cart
func (s *Service) RemoveItem(ctx context.Context, customerID, itemID uint) (*CartResponse, error) {
	if err := DeleteItems(s.db.WithContext(ctx), customerID, []uint{itemID}); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, customerID)
}

// Clear empties the customer's cart
func (s *Service) Clear(ctx context.Context, customerID uint) error {
	if err := s.db.WithContext(ctx).Where("customer_id = ?", customerID).Delete(&CartLineItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// DeleteItems removes the given lines of one customer inside tx. It fails
// if any of them is already gone, so a checkout cannot commit against a
// cart that changed underneath it.
func DeleteItems(tx *gorm.DB, customerID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	result := tx.Where("customer_id = ? AND id IN ?", customerID, ids).Delete(&CartLineItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete cart items: %w", result.Error)
	}
	if result.RowsAffected != int64(len(ids)) {
		return fmt.Errorf("cart items %v: %w", ids, apperror.ErrNotFound)
	}
	return nil
}

func (s *Service) getItem(ctx context.Context, customerID, itemID uint) (*CartLineItem, error) {
	var item CartLineItem
	if err := s.db.WithContext(ctx).Where("id = ? AND customer_id = ?", itemID, customerID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart item %d: %w", itemID, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve cart item: %w", err)
	}
	return &item, nil
}

// buildLine validates the referenced product or package and snapshots its
// live resolved unit price.
func (s *Service) buildLine(ctx context.Context, req *AddToCartRequest) (*CartLineItem, error) {
	if req.PackageID != nil {
		return s.buildPackageLine(ctx, *req.PackageID, req.Quantity)
	}

	quote, err := s.catalog.GetPrice(ctx, *req.ProductID)
	if err != nil {
		return nil, err
	}
	if !quote.IsActive {
		return nil, apperror.NewValidation("product_id", "product %d is not active", quote.ProductID)
	}
	sel, err := s.activeSeller(ctx, quote.SellerID)
	if err != nil {
		return nil, err
	}
	if err := checkQuantity(quote, req.Quantity); err != nil {
		return nil, err
	}

	var tier *seller.PricingTier
	if quote.Type == catalog.ProductTypeService {
		tier, err = pricing.ServiceTier(ctx, s.sellers, sel)
		if err != nil {
			return nil, err
		}
	}
	unitPrice, _ := pricing.ResolvedUnitPrice(quote.Type, quote.GarmentType, quote.UnitPrice, tier)

	return &CartLineItem{
		ProductID:   req.ProductID,
		ProductType: quote.Type,
		SellerID:    quote.SellerID,
		GarmentType: quote.GarmentType,
		UnitPrice:   unitPrice,
		Quantity:    req.Quantity,
		Unit:        quote.Unit,
	}, nil
}

func (s *Service) buildPackageLine(ctx context.Context, packageID uint, quantity int) (*CartLineItem, error) {
	pkg, err := s.sellers.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if !pkg.IsActive {
		return nil, apperror.NewValidation("package_id", "package %d is not active", pkg.ID)
	}
	sel, err := s.activeSeller(ctx, pkg.SellerID)
	if err != nil {
		return nil, err
	}

	tier, err := pricing.ServiceTier(ctx, s.sellers, sel)
	if err != nil {
		return nil, err
	}
	unitPrice, _, err := pricing.PackageUnitPrice(pkg, tier, s.clock.Now())
	if err != nil {
		return nil, err
	}

	id := pkg.ID
	return &CartLineItem{
		PackageID:   &id,
		ProductType: catalog.ProductTypeService,
		SellerID:    pkg.SellerID,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		Unit:        "package",
	}, nil
}

func (s *Service) activeSeller(ctx context.Context, sellerID uint) (*catalog.Seller, error) {
	sel, err := s.catalog.GetSeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if !sel.IsActive {
		return nil, apperror.NewValidation("seller_id", "seller %d is not active", sellerID)
	}
	return sel, nil
}

func (s *Service) checkProductQuantity(ctx context.Context, productID uint, quantity int) error {
	quote, err := s.catalog.GetPrice(ctx, productID)
	if err != nil {
		return err
	}
	return checkQuantity(quote, quantity)
}

func checkQuantity(quote *catalog.PriceQuote, quantity int) error {
	if quantity < quote.MinimumOrderQuantity {
		return apperror.NewValidation("quantity", "product %d has a minimum order of %d", quote.ProductID, quote.MinimumOrderQuantity)
	}
	if !quote.HasStock(quantity) {
		return &apperror.StockConflictError{ProductID: quote.ProductID, Requested: quantity, Available: quote.StockQuantity}
	}
	return nil
}
