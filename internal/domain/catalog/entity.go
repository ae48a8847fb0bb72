// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"github.com/your-org/tailor-marketplace/internal/domain/seller"
	"github.com/your-org/tailor-marketplace/internal/pkg/money"
	"gorm.io/gorm"
)

// SellerKind selects the discount path for a seller's orders
type SellerKind string

const (
	SellerKindGoods  SellerKind = "goods"
	SellerKindTailor SellerKind = seller.TailorKind
)

// ProductType distinguishes physical goods from tailoring services
type ProductType string

const (
	ProductTypeGoods   ProductType = "goods"
	ProductTypeService ProductType = "service"
)

// Seller is a goods supplier or a tailor
type Seller struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null;size:255" json:"name"`
	Kind      SellerKind     `gorm:"not null;size:20;default:'goods'" json:"kind"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Product is a priced item a seller exposes to the cart
type Product struct {
	ID                   uint               `gorm:"primaryKey" json:"id"`
	SellerID             uint               `gorm:"not null;index" json:"seller_id"`
	SKU                  string             `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name                 string             `gorm:"not null;size:255" json:"name"`
	Type                 ProductType        `gorm:"not null;size:20;default:'goods'" json:"type"`
	GarmentType          seller.GarmentType `gorm:"size:30" json:"garment_type,omitempty"`
	UnitPrice            money.Amount       `gorm:"not null" json:"unit_price"` // minor units
	StockQuantity        int                `gorm:"default:0" json:"stock_quantity"`
	MinimumOrderQuantity int                `gorm:"default:1" json:"minimum_order_quantity"`
	TrackQuantity        bool               `gorm:"default:true" json:"track_quantity"`
	Unit                 string             `gorm:"size:20;default:'piece'" json:"unit"`
	IsActive             bool               `gorm:"default:true" json:"is_active"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
	DeletedAt            gorm.DeletedAt     `gorm:"index" json:"-"`

	Seller Seller `gorm:"foreignKey:SellerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
}

// PriceQuote is the live view of a product used for revalidation
type PriceQuote struct {
	ProductID            uint               `json:"product_id"`
	SellerID             uint               `json:"seller_id"`
	Type                 ProductType        `json:"type"`
	GarmentType          seller.GarmentType `json:"garment_type,omitempty"`
	UnitPrice            money.Amount       `json:"unit_price"`
	StockQuantity        int                `json:"stock_quantity"`
	MinimumOrderQuantity int                `json:"minimum_order_quantity"`
	TrackQuantity        bool               `json:"track_quantity"`
	Unit                 string             `json:"unit"`
	IsActive             bool               `json:"is_active"`
}

// HasStock reports whether qty units can be sold
func (q *PriceQuote) HasStock(qty int) bool {
	return !q.TrackQuantity || q.StockQuantity >= qty
}

// Quote projects a product into its live price view
func (p *Product) Quote() *PriceQuote {
	return &PriceQuote{
		ProductID:            p.ID,
		SellerID:             p.SellerID,
		Type:                 p.Type,
		GarmentType:          p.GarmentType,
		UnitPrice:            p.UnitPrice,
		StockQuantity:        p.StockQuantity,
		MinimumOrderQuantity: p.MinimumOrderQuantity,
		TrackQuantity:        p.TrackQuantity,
		Unit:                 p.Unit,
		IsActive:             p.IsActive,
	}
}
