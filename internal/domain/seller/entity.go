// internal/domain/seller/entity.go
package seller

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/tailor-marketplace/internal/pkg/money"
)

// BulkDiscountTier is a quantity threshold discount for goods sellers
type BulkDiscountTier struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	SellerID           uint            `gorm:"not null;index;uniqueIndex:idx_bulk_tier_seller_min" json:"seller_id"`
	MinQuantity        int             `gorm:"not null;uniqueIndex:idx_bulk_tier_seller_min" json:"min_quantity"`
	DiscountPercentage decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"discount_percentage"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// MultipleGarmentsRule discounts orders with many garments.
// Threshold and Percentage are nullable so a half-configured rule can be
// stored and flagged instead of defaulting to zero.
type MultipleGarmentsRule struct {
	Enabled    bool                `gorm:"default:false" json:"enabled"`
	Threshold  *int                `json:"threshold"`
	Percentage decimal.NullDecimal `gorm:"type:numeric(5,2)" json:"percentage"`
}

// SeasonalRule discounts orders placed within a date window
type SeasonalRule struct {
	Enabled    bool                `gorm:"default:false" json:"enabled"`
	Percentage decimal.NullDecimal `gorm:"type:numeric(5,2)" json:"percentage"`
	StartDate  *time.Time          `json:"start_date"`
	EndDate    *time.Time          `json:"end_date"`
}

// CorporateRule rewards repeat customers of a seller
type CorporateRule struct {
	Enabled       bool                `gorm:"default:false" json:"enabled"`
	Percentage    decimal.NullDecimal `gorm:"type:numeric(5,2)" json:"percentage"`
	MinimumOrders *int                `json:"minimum_orders"`
}

// PricingTier is a tailor's service price structure. One per seller.
type PricingTier struct {
	ID                uint                    `gorm:"primaryKey" json:"id"`
	SellerID          uint                    `gorm:"not null;uniqueIndex" json:"seller_id"`
	TierType          string                  `gorm:"size:50;not null;default:'standard'" json:"tier_type"`
	BasePrice         money.Amount            `gorm:"not null" json:"base_price"`
	GarmentPricing    GarmentPrices           `gorm:"type:jsonb;serializer:json" json:"garment_pricing"`
	AdditionalCharges map[string]money.Amount `gorm:"type:jsonb;serializer:json" json:"additional_charges"`
	MinimumOrder      int                     `gorm:"default:0" json:"minimum_order"`

	MultipleGarments MultipleGarmentsRule `gorm:"embedded;embeddedPrefix:multiple_garments_" json:"multiple_garments"`
	Seasonal         SeasonalRule         `gorm:"embedded;embeddedPrefix:seasonal_" json:"seasonal"`
	Corporate        CorporateRule        `gorm:"embedded;embeddedPrefix:corporate_" json:"corporate"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PackageGarment is one entry of a package's fixed garment set
type PackageGarment struct {
	GarmentType GarmentType `json:"garment_type"`
	Quantity    int         `json:"quantity"`
}

// Package is a precomputed bundle price for a fixed garment set
type Package struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	SellerID      uint             `gorm:"not null;index" json:"seller_id"`
	Name          string           `gorm:"not null;size:255" json:"name"`
	Garments      []PackageGarment `gorm:"type:jsonb;serializer:json;not null" json:"garments"`
	FabricSpec    *string          `gorm:"size:500" json:"fabric_spec,omitempty"`
	OriginalPrice money.Amount     `gorm:"not null" json:"original_price"`
	PackagePrice  money.Amount     `gorm:"not null" json:"package_price"`
	ValidUntil    *time.Time       `json:"valid_until,omitempty"`
	IsActive      bool             `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Discount is the saving baked into the package price
func (p *Package) Discount() money.Amount {
	return p.OriginalPrice - p.PackagePrice
}

// IsValidAt reports whether package pricing applies at now.
// A package with no ValidUntil never expires.
func (p *Package) IsValidAt(now time.Time) bool {
	return p.ValidUntil == nil || !now.After(*p.ValidUntil)
}

// GarmentCount is the number of garments in one package
func (p *Package) GarmentCount() int {
	n := 0
	for _, g := range p.Garments {
		n += g.Quantity
	}
	return n
}
