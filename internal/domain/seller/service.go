// internal/domain/seller/service.go
package seller

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/tailor-marketplace/internal/pkg/apperror"
	"github.com/your-org/tailor-marketplace/internal/pkg/money"
	"gorm.io/gorm"
)

// TailorKind is the sellers.kind value of sellers that own pricing
// tiers and packages.
const TailorKind = "tailor"

// Service owns seller discount configuration. Reads always hit the
// database so sellers' edits apply to the next checkout.
type Service struct {
	db  *gorm.DB
	loc *time.Location
}

// NewService creates a new seller config service. loc is the timezone
// whole-day seasonal end dates are interpreted in; nil means UTC.
func NewService(db *gorm.DB, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{db: db, loc: loc}
}

// BulkTierInput is one tier in a replace request
type BulkTierInput struct {
	MinQuantity        int             `json:"min_quantity" binding:"required"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}

// ReplaceBulkTiersRequest replaces a seller's full tier set
type ReplaceBulkTiersRequest struct {
	Tiers []BulkTierInput `json:"tiers"`
}

// SavePricingTierRequest creates or replaces a seller's pricing tier
type SavePricingTierRequest struct {
	TierType          string                  `json:"tier_type"`
	BasePrice         money.Amount            `json:"base_price"`
	GarmentPricing    GarmentPrices           `json:"garment_pricing"`
	AdditionalCharges map[string]money.Amount `json:"additional_charges"`
	MinimumOrder      int                     `json:"minimum_order"`
	MultipleGarments  MultipleGarmentsRule    `json:"multiple_garments"`
	Seasonal          SeasonalRule            `json:"seasonal"`
	Corporate         CorporateRule           `json:"corporate"`
}

// CreatePackageRequest publishes a new package
type CreatePackageRequest struct {
	Name          string           `json:"name" binding:"required"`
	Garments      []PackageGarment `json:"garments" binding:"required"`
	FabricSpec    *string          `json:"fabric_spec"`
	OriginalPrice money.Amount     `json:"original_price"`
	PackagePrice  money.Amount     `json:"package_price"`
	ValidUntil    *time.Time       `json:"valid_until"`
}

// GetBulkDiscountTiers returns a seller's tiers sorted by min quantity, highest first
func (s *Service) GetBulkDiscountTiers(ctx context.Context, sellerID uint) ([]BulkDiscountTier, error) {
	var tiers []BulkDiscountTier
	if err := s.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("min_quantity DESC").
		Find(&tiers).Error; err != nil {
		return nil, fmt.Errorf("failed to get bulk discount tiers: %w", err)
	}
	return tiers, nil
}

// GetPricingTier returns a seller's pricing tier
func (s *Service) GetPricingTier(ctx context.Context, sellerID uint) (*PricingTier, error) {
	var tier PricingTier
	if err := s.db.WithContext(ctx).Where("seller_id = ?", sellerID).First(&tier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("pricing tier for seller %d: %w", sellerID, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get pricing tier: %w", err)
	}
	return &tier, nil
}

// GetPackage returns a package by ID
func (s *Service) GetPackage(ctx context.Context, packageID uint) (*Package, error) {
	var pkg Package
	if err := s.db.WithContext(ctx).First(&pkg, packageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("package %d: %w", packageID, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	return &pkg, nil
}

// ReplaceBulkDiscountTiers swaps a seller's whole tier set in one transaction
func (s *Service) ReplaceBulkDiscountTiers(ctx context.Context, sellerID uint, req ReplaceBulkTiersRequest) ([]BulkDiscountTier, error) {
	if err := ValidateBulkTiers(req.Tiers); err != nil {
		return nil, err
	}

	tiers := make([]BulkDiscountTier, 0, len(req.Tiers))
	for _, in := range req.Tiers {
		tiers = append(tiers, BulkDiscountTier{
			SellerID:           sellerID,
			MinQuantity:        in.MinQuantity,
			DiscountPercentage: in.DiscountPercentage,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("seller_id = ?", sellerID).Delete(&BulkDiscountTier{}).Error; err != nil {
			return fmt.Errorf("failed to clear bulk tiers: %w", err)
		}
		if len(tiers) == 0 {
			return nil
		}
		if err := tx.Create(&tiers).Error; err != nil {
			return fmt.Errorf("failed to create bulk tiers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinQuantity > tiers[j].MinQuantity })
	return tiers, nil
}

// SavePricingTier upserts a seller's pricing tier. Rules may be saved
// enabled with missing fields; resolution treats them as ineligible.
func (s *Service) SavePricingTier(ctx context.Context, sellerID uint, req SavePricingTierRequest) (*PricingTier, error) {
	if err := ValidatePricingTier(req); err != nil {
		return nil, err
	}
	if err := s.requireTailor(ctx, sellerID); err != nil {
		return nil, err
	}

	tier := PricingTier{
		SellerID:          sellerID,
		TierType:          req.TierType,
		BasePrice:         req.BasePrice,
		GarmentPricing:    req.GarmentPricing,
		AdditionalCharges: req.AdditionalCharges,
		MinimumOrder:      req.MinimumOrder,
		MultipleGarments:  req.MultipleGarments,
		Seasonal:          NormalizeSeasonalWindow(req.Seasonal, s.loc),
		Corporate:         req.Corporate,
	}
	if tier.TierType == "" {
		tier.TierType = "standard"
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing PricingTier
		err := tx.Where("seller_id = ?", sellerID).First(&existing).Error
		switch {
		case err == nil:
			tier.ID = existing.ID
			tier.CreatedAt = existing.CreatedAt
			return tx.Save(&tier).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&tier).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save pricing tier: %w", err)
	}

	return &tier, nil
}

// CreatePackage publishes a package for a seller
func (s *Service) CreatePackage(ctx context.Context, sellerID uint, req CreatePackageRequest) (*Package, error) {
	if err := ValidatePackage(req); err != nil {
		return nil, err
	}
	if err := s.requireTailor(ctx, sellerID); err != nil {
		return nil, err
	}

	pkg := Package{
		SellerID:      sellerID,
		Name:          req.Name,
		Garments:      req.Garments,
		FabricSpec:    req.FabricSpec,
		OriginalPrice: req.OriginalPrice,
		PackagePrice:  req.PackagePrice,
		ValidUntil:    req.ValidUntil,
		IsActive:      true,
	}
	if err := s.db.WithContext(ctx).Create(&pkg).Error; err != nil {
		return nil, fmt.Errorf("failed to create package: %w", err)
	}

	return &pkg, nil
}

// requireTailor rejects configuration for sellers that do not exist or
// are not tailors. Checkout never reads tiers or packages of goods sellers.
func (s *Service) requireTailor(ctx context.Context, sellerID uint) error {
	var row struct{ Kind string }
	err := s.db.WithContext(ctx).
		Table("sellers").
		Select("kind").
		Where("id = ? AND deleted_at IS NULL", sellerID).
		Take(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("seller %d: %w", sellerID, apperror.ErrNotFound)
	case err != nil:
		return fmt.Errorf("failed to load seller: %w", err)
	case row.Kind != TailorKind:
		return apperror.NewValidation("seller_id", "seller %d is a %s seller; only tailors carry pricing tiers and packages", sellerID, row.Kind)
	}
	return nil
}

// NormalizeSeasonalWindow widens an end date given as midnight in loc to
// the last microsecond of that day, so a window ending on "Dec 31" covers
// all of Dec 31 in loc. Microseconds are the finest unit timestamptz keeps.
// Bounds with a time of day are kept as given. Both bounds are returned in
// UTC, which is how they come back from storage.
func NormalizeSeasonalWindow(rule SeasonalRule, loc *time.Location) SeasonalRule {
	if rule.StartDate != nil {
		start := rule.StartDate.UTC()
		rule.StartDate = &start
	}
	if rule.EndDate != nil {
		end := rule.EndDate.In(loc)
		if h, m, sec := end.Clock(); h == 0 && m == 0 && sec == 0 && end.Nanosecond() == 0 {
			end = end.AddDate(0, 0, 1).Add(-time.Microsecond)
		}
		end = end.UTC()
		rule.EndDate = &end
	}
	return rule
}

var hundred = decimal.NewFromInt(100)

func validPercentage(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}

// ValidateBulkTiers rejects tier sets that would make resolution
// non-monotonic: a higher threshold must never carry a lower percentage.
func ValidateBulkTiers(tiers []BulkTierInput) error {
	sorted := make([]BulkTierInput, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinQuantity < sorted[j].MinQuantity })

	for i, t := range sorted {
		if t.MinQuantity <= 0 {
			return apperror.NewValidation("tiers.min_quantity", "must be greater than 0, got %d", t.MinQuantity)
		}
		if !validPercentage(t.DiscountPercentage) {
			return apperror.NewValidation("tiers.discount_percentage", "must be within [0,100], got %s", t.DiscountPercentage)
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if prev.MinQuantity == t.MinQuantity {
			return apperror.NewValidation("tiers.min_quantity", "duplicate threshold %d", t.MinQuantity)
		}
		if t.DiscountPercentage.LessThan(prev.DiscountPercentage) {
			return apperror.NewValidation("tiers.discount_percentage",
				"tier %d (%s%%) is lower than tier %d (%s%%)",
				t.MinQuantity, t.DiscountPercentage, prev.MinQuantity, prev.DiscountPercentage)
		}
	}
	return nil
}

// ValidatePricingTier checks ranges only; presence of rule fields is
// checked at resolution time.
func ValidatePricingTier(req SavePricingTierRequest) error {
	if req.BasePrice < 0 {
		return apperror.NewValidation("base_price", "must not be negative")
	}
	if req.MinimumOrder < 0 {
		return apperror.NewValidation("minimum_order", "must not be negative")
	}
	for g, price := range req.GarmentPricing {
		if !g.Valid() {
			return apperror.NewValidation("garment_pricing", "unknown garment type %q", g)
		}
		if price < 0 {
			return apperror.NewValidation("garment_pricing", "price for %s must not be negative", g)
		}
	}
	for charge, amount := range req.AdditionalCharges {
		if charge == "" {
			return apperror.NewValidation("additional_charges", "charge type must not be empty")
		}
		if amount < 0 {
			return apperror.NewValidation("additional_charges", "amount for %s must not be negative", charge)
		}
	}

	percentages := map[string]decimal.NullDecimal{
		"multiple_garments.percentage": req.MultipleGarments.Percentage,
		"seasonal.percentage":          req.Seasonal.Percentage,
		"corporate.percentage":         req.Corporate.Percentage,
	}
	for field, p := range percentages {
		if p.Valid && !validPercentage(p.Decimal) {
			return apperror.NewValidation(field, "must be within [0,100], got %s", p.Decimal)
		}
	}

	if s, e := req.Seasonal.StartDate, req.Seasonal.EndDate; s != nil && e != nil && e.Before(*s) {
		return apperror.NewValidation("seasonal.end_date", "must not be before start_date")
	}
	return nil
}

// ValidatePackage checks a package before it is published
func ValidatePackage(req CreatePackageRequest) error {
	if len(req.Garments) == 0 {
		return apperror.NewValidation("garments", "package must contain at least one garment")
	}
	for _, g := range req.Garments {
		if !g.GarmentType.Valid() {
			return apperror.NewValidation("garments", "unknown garment type %q", g.GarmentType)
		}
		if g.Quantity < 1 {
			return apperror.NewValidation("garments", "quantity for %s must be at least 1", g.GarmentType)
		}
	}
	if req.PackagePrice < 0 || req.OriginalPrice < 0 {
		return apperror.NewValidation("package_price", "prices must not be negative")
	}
	if req.PackagePrice > req.OriginalPrice {
		return apperror.NewValidation("package_price", "must not exceed original_price")
	}
	return nil
}
