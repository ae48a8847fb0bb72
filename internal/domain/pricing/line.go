// internal/domain/pricing/line.go
package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/your-org/tailor-marketplace/internal/domain/catalog"
	"github.com/your-org/tailor-marketplace/internal/domain/seller"
	"github.com/your-org/tailor-marketplace/internal/pkg/apperror"
	"github.com/your-org/tailor-marketplace/internal/pkg/money"
)

// PricedAs records which rule produced a line's unit price
type PricedAs string

const (
	PricedAsCatalog         PricedAs = "catalog"
	PricedAsGarmentOverride PricedAs = "garment_override"
	PricedAsTierBase        PricedAs = "tier_base"
	PricedAsPackage         PricedAs = "package"
	PricedAsPackageALaCarte PricedAs = "package_a_la_carte"
)

// LineInput is one line to price with its live catalog data. Package
// lines carry the live package instead of a catalog price.
type LineInput struct {
	CartItemID   uint
	ProductID    *uint
	PackageID    *uint
	ProductType  catalog.ProductType
	GarmentType  seller.GarmentType
	CatalogPrice money.Amount
	Package      *seller.Package
	Quantity     int
	Unit         string
}

// PricedLine is a line with its resolved price
type PricedLine struct {
	CartItemID   uint                `json:"cart_item_id"`
	ProductID    *uint               `json:"product_id,omitempty"`
	PackageID    *uint               `json:"package_id,omitempty"`
	ProductType  catalog.ProductType `json:"product_type"`
	GarmentType  seller.GarmentType  `json:"garment_type,omitempty"`
	Quantity     int                 `json:"quantity"`
	Unit         string              `json:"unit"`
	UnitPrice    money.Amount        `json:"unit_price"`
	LineTotal    money.Amount        `json:"line_total"`
	PricedAs     PricedAs            `json:"priced_as"`
	Discountable bool                `json:"discountable"`
	GarmentCount int                 `json:"garment_count"`

	// OriginalUnitPrice is the pre-bundle price of a valid package.
	OriginalUnitPrice money.Amount `json:"original_unit_price,omitempty"`
}

// PackageSaving is the discount baked into a valid package line
func (l *PricedLine) PackageSaving() money.Amount {
	if l.PricedAs != PricedAsPackage {
		return 0
	}
	return (l.OriginalUnitPrice - l.UnitPrice).Times(l.Quantity)
}

// ResolvedUnitPrice picks the unit price of a product line: the tier's
// garment override, else the tier base price for services, else the
// catalog price. Services of a tailor without a tier use the catalog price.
func ResolvedUnitPrice(productType catalog.ProductType, garment seller.GarmentType, catalogPrice money.Amount, tier *seller.PricingTier) (money.Amount, PricedAs) {
	if productType != catalog.ProductTypeService || tier == nil {
		return catalogPrice, PricedAsCatalog
	}
	if override, ok := tier.GarmentPricing.PriceFor(garment); ok {
		return override, PricedAsGarmentOverride
	}
	return tier.BasePrice, PricedAsTierBase
}

// TierSource loads a seller's pricing tier
type TierSource interface {
	GetPricingTier(ctx context.Context, sellerID uint) (*seller.PricingTier, error)
}

// ServiceTier loads the tier that prices a seller's service and package
// lines. Only tailors carry one: goods sellers and tailors without a
// configured tier get nil. Cart snapshots and checkout both go through
// here so they price the same seller the same way.
func ServiceTier(ctx context.Context, tiers TierSource, sel *catalog.Seller) (*seller.PricingTier, error) {
	if sel.Kind != catalog.SellerKindTailor {
		return nil, nil
	}
	tier, err := tiers.GetPricingTier(ctx, sel.ID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pricing tier: %w", err)
	}
	return tier, nil
}

// PackageUnitPrice prices one unit of a package at now. A valid package
// sells at its package price; an expired one is the sum of its garments
// priced through the tier.
func PackageUnitPrice(pkg *seller.Package, tier *seller.PricingTier, now time.Time) (money.Amount, PricedAs, error) {
	if pkg.IsValidAt(now) {
		return pkg.PackagePrice, PricedAsPackage, nil
	}
	if tier == nil {
		return 0, "", apperror.NewValidation("package_id",
			"package %d has expired and seller %d has no pricing tier to price it a la carte", pkg.ID, pkg.SellerID)
	}

	var sum money.Amount
	for _, g := range pkg.Garments {
		unit, _ := ResolvedUnitPrice(catalog.ProductTypeService, g.GarmentType, 0, tier)
		sum += unit.Times(g.Quantity)
	}
	return sum, PricedAsPackageALaCarte, nil
}

func priceLine(in LineInput, tier *seller.PricingTier, now time.Time) (PricedLine, error) {
	line := PricedLine{
		CartItemID:  in.CartItemID,
		ProductID:   in.ProductID,
		PackageID:   in.PackageID,
		ProductType: in.ProductType,
		GarmentType: in.GarmentType,
		Quantity:    in.Quantity,
		Unit:        in.Unit,
	}

	if in.Quantity < 1 {
		return line, apperror.NewValidation("quantity", "line quantity must be at least 1, got %d", in.Quantity)
	}

	if in.Package != nil {
		unit, pricedAs, err := PackageUnitPrice(in.Package, tier, now)
		if err != nil {
			return line, err
		}
		line.UnitPrice = unit
		line.PricedAs = pricedAs
		line.Discountable = pricedAs != PricedAsPackage
		line.GarmentCount = in.Package.GarmentCount() * in.Quantity
		if pricedAs == PricedAsPackage {
			line.OriginalUnitPrice = in.Package.OriginalPrice
		}
	} else {
		line.UnitPrice, line.PricedAs = ResolvedUnitPrice(in.ProductType, in.GarmentType, in.CatalogPrice, tier)
		line.Discountable = true
		if in.ProductType == catalog.ProductTypeService {
			line.GarmentCount = in.Quantity
		}
	}

	line.LineTotal = line.UnitPrice.Times(in.Quantity)
	return line, nil
}
