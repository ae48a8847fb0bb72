package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/your-org/tailor-marketplace/internal/domain/seller"
)

func TestProductQuote(t *testing.T) {
	p := &Product{
		ID:                   4,
		SellerID:             2,
		Type:                 ProductTypeService,
		GarmentType:          seller.GarmentKurta,
		UnitPrice:            2500,
		StockQuantity:        0,
		MinimumOrderQuantity: 1,
		TrackQuantity:        false,
		IsActive:             true,
	}

	q := p.Quote()
	assert.Equal(t, uint(4), q.ProductID)
	assert.Equal(t, seller.GarmentKurta, q.GarmentType)
	assert.True(t, q.HasStock(10), "untracked products are never out of stock")
}

func TestPriceQuote_HasStock(t *testing.T) {
	q := &PriceQuote{TrackQuantity: true, StockQuantity: 3}
	assert.True(t, q.HasStock(3))
	assert.False(t, q.HasStock(4))
}
