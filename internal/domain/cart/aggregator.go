// internal/domain/cart/aggregator.go
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/tailor-marketplace/internal/domain/catalog"
	"github.com/your-org/tailor-marketplace/internal/domain/seller"
	"github.com/your-org/tailor-marketplace/internal/pkg/apperror"
)

// ProductCatalog is the part of the catalog the cart reads
type ProductCatalog interface {
	GetPrice(ctx context.Context, productID uint) (*catalog.PriceQuote, error)
	GetSeller(ctx context.Context, sellerID uint) (*catalog.Seller, error)
}

// SellerConfig is the part of seller configuration the cart reads
type SellerConfig interface {
	GetPricingTier(ctx context.Context, sellerID uint) (*seller.PricingTier, error)
	GetPackage(ctx context.Context, packageID uint) (*seller.Package, error)
}

// GroupBySeller partitions items by seller, preserving first-seen seller
// order and item order within each group. A non-nil filter keeps only that
// seller's items.
func GroupBySeller(items []CartLineItem, sellerFilter *uint) *Aggregation {
	agg := &Aggregation{index: make(map[uint]int)}
	for _, item := range items {
		if sellerFilter != nil && item.SellerID != *sellerFilter {
			continue
		}
		i, ok := agg.index[item.SellerID]
		if !ok {
			i = len(agg.Groups)
			agg.index[item.SellerID] = i
			agg.Groups = append(agg.Groups, &SupplierCartGroup{SellerID: item.SellerID})
		}
		agg.Groups[i].Items = append(agg.Groups[i].Items, item)
	}
	return agg
}

// Aggregator groups cart items after checking that everything they
// reference still exists and is active.
type Aggregator struct {
	catalog ProductCatalog
	sellers SellerConfig
}

// NewAggregator creates a new aggregator
func NewAggregator(catalog ProductCatalog, sellers SellerConfig) *Aggregator {
	return &Aggregator{catalog: catalog, sellers: sellers}
}

// Group validates the in-scope items and partitions them by seller. Any
// invalid item fails the whole call; no partial aggregation is returned.
func (a *Aggregator) Group(ctx context.Context, items []CartLineItem, sellerFilter *uint) (*Aggregation, error) {
	agg := GroupBySeller(items, sellerFilter)
	if len(agg.Groups) == 0 {
		if sellerFilter != nil {
			return nil, apperror.NewValidation("seller_id", "cart has no items from seller %d", *sellerFilter)
		}
		return nil, apperror.NewValidation("cart", "cart is empty")
	}

	for _, group := range agg.Groups {
		if err := a.checkSeller(ctx, group.SellerID); err != nil {
			return nil, err
		}
		for i := range group.Items {
			if err := a.checkItem(ctx, &group.Items[i]); err != nil {
				return nil, err
			}
		}
	}

	return agg, nil
}

func (a *Aggregator) checkSeller(ctx context.Context, sellerID uint) error {
	sel, err := a.catalog.GetSeller(ctx, sellerID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NewValidation("seller_id", "seller %d does not exist", sellerID)
		}
		return fmt.Errorf("failed to load seller %d: %w", sellerID, err)
	}
	if !sel.IsActive {
		return apperror.NewValidation("seller_id", "seller %d is not active", sellerID)
	}
	return nil
}

func (a *Aggregator) checkItem(ctx context.Context, item *CartLineItem) error {
	if item.Quantity < 1 {
		return apperror.NewValidation("quantity", "cart item %d has quantity %d", item.ID, item.Quantity)
	}

	switch {
	case item.PackageID != nil:
		pkg, err := a.sellers.GetPackage(ctx, *item.PackageID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return apperror.NewValidation("package_id", "package %d does not exist", *item.PackageID)
			}
			return fmt.Errorf("failed to load package %d: %w", *item.PackageID, err)
		}
		if !pkg.IsActive {
			return apperror.NewValidation("package_id", "package %d is not active", pkg.ID)
		}
		if pkg.SellerID != item.SellerID {
			return apperror.NewValidation("package_id", "package %d does not belong to seller %d", pkg.ID, item.SellerID)
		}
	case item.ProductID != nil:
		quote, err := a.catalog.GetPrice(ctx, *item.ProductID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return apperror.NewValidation("product_id", "product %d does not exist", *item.ProductID)
			}
			return fmt.Errorf("failed to load product %d: %w", *item.ProductID, err)
		}
		if !quote.IsActive {
			return apperror.NewValidation("product_id", "product %d is not active", quote.ProductID)
		}
		if quote.SellerID != item.SellerID {
			return apperror.NewValidation("product_id", "product %d does not belong to seller %d", quote.ProductID, item.SellerID)
		}
	default:
		return apperror.NewValidation("cart_item", "cart item %d references neither a product nor a package", item.ID)
	}

	return nil
}
