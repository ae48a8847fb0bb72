// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/your-org/tailor-marketplace/internal/domain/catalog"
	"github.com/your-org/tailor-marketplace/internal/domain/seller"
	"github.com/your-org/tailor-marketplace/internal/pkg/money"
)

// CartLineItem is one line of a customer's server-owned cart. Exactly one
// of ProductID and PackageID is set.
type CartLineItem struct {
	ID          uint                `gorm:"primaryKey" json:"id"`
	CustomerID  uint                `gorm:"not null;index" json:"customer_id"`
	ProductID   *uint               `gorm:"index" json:"product_id,omitempty"`
	PackageID   *uint               `gorm:"index" json:"package_id,omitempty"`
	ProductType catalog.ProductType `gorm:"not null;size:20" json:"product_type"`
	SellerID    uint                `gorm:"not null;index" json:"seller_id"`
	GarmentType seller.GarmentType  `gorm:"size:30" json:"garment_type,omitempty"`
	UnitPrice   money.Amount        `gorm:"not null" json:"unit_price"` // snapshot at add time
	Quantity    int                 `gorm:"not null;default:1" json:"quantity"`
	Unit        string              `gorm:"size:20" json:"unit"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// TableName overrides the table name
func (CartLineItem) TableName() string {
	return "cart_line_items"
}

// IsPackage reports whether the line references a package
func (i *CartLineItem) IsPackage() bool {
	return i.PackageID != nil
}

// LineTotal is unit price times quantity at the snapshotted price
func (i *CartLineItem) LineTotal() money.Amount {
	return i.UnitPrice.Times(i.Quantity)
}

// SupplierCartGroup holds one seller's items in cart order
type SupplierCartGroup struct {
	SellerID uint           `json:"seller_id"`
	Items    []CartLineItem `json:"items"`
}

// Subtotal is derived from the items on every call
func (g *SupplierCartGroup) Subtotal() money.Amount {
	var total money.Amount
	for i := range g.Items {
		total += g.Items[i].LineTotal()
	}
	return total
}

// Quantity is the aggregate unit count of the group
func (g *SupplierCartGroup) Quantity() int {
	n := 0
	for _, item := range g.Items {
		n += item.Quantity
	}
	return n
}

// ItemIDs returns the cart line IDs of the group
func (g *SupplierCartGroup) ItemIDs() []uint {
	ids := make([]uint, 0, len(g.Items))
	for _, item := range g.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// Aggregation is an ordered map of seller ID to group. Groups appear in the
// order their seller was first seen in the cart.
type Aggregation struct {
	Groups []*SupplierCartGroup
	index  map[uint]int
}

// Group looks up a seller's group
func (a *Aggregation) Group(sellerID uint) (*SupplierCartGroup, bool) {
	i, ok := a.index[sellerID]
	if !ok {
		return nil, false
	}
	return a.Groups[i], true
}

// GrandTotal sums the subtotals of all included groups
func (a *Aggregation) GrandTotal() money.Amount {
	var total money.Amount
	for _, g := range a.Groups {
		total += g.Subtotal()
	}
	return total
}

// SellerIDs lists sellers in group order
func (a *Aggregation) SellerIDs() []uint {
	ids := make([]uint, 0, len(a.Groups))
	for _, g := range a.Groups {
		ids = append(ids, g.SellerID)
	}
	return ids
}

// Flatten concatenates the groups' items back into one slice
func (a *Aggregation) Flatten() []CartLineItem {
	var items []CartLineItem
	for _, g := range a.Groups {
		items = append(items, g.Items...)
	}
	return items
}

// CartTotals represents calculated cart totals at snapshotted prices
type CartTotals struct {
	ItemCount     int          `json:"item_count"`
	TotalQuantity int          `json:"total_quantity"`
	GrandTotal    money.Amount `json:"grand_total"`
	Formatted     string       `json:"grand_total_formatted"`
}

// GroupView is the response shape of one seller group
type GroupView struct {
	SellerID uint           `json:"seller_id"`
	Items    []CartLineItem `json:"items"`
	Subtotal money.Amount   `json:"subtotal"`
}

// CartResponse represents a customer's cart grouped by seller
type CartResponse struct {
	CustomerID uint        `json:"customer_id"`
	Groups     []GroupView `json:"groups"`
	Totals     CartTotals  `json:"totals"`
}
