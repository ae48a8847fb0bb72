package pricing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/tailor-marketplace/internal/domain/catalog"
	"github.com/your-org/tailor-marketplace/internal/domain/seller"
	"github.com/your-org/tailor-marketplace/internal/pkg/apperror"
)

type fakeTiers struct {
	tiers map[uint]*seller.PricingTier
	err   error
	calls int
}

func (f *fakeTiers) GetPricingTier(_ context.Context, sellerID uint) (*seller.PricingTier, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if tier, ok := f.tiers[sellerID]; ok {
		return tier, nil
	}
	return nil, fmt.Errorf("pricing tier for seller %d: %w", sellerID, apperror.ErrNotFound)
}

func TestServiceTier_OnlyTailorsCarryATier(t *testing.T) {
	// A stray tier stored for a goods seller must never price its lines.
	tiers := &fakeTiers{tiers: map[uint]*seller.PricingTier{1: tailorTier(), 2: tailorTier()}}
	ctx := context.Background()

	tier, err := ServiceTier(ctx, tiers, &catalog.Seller{ID: 1, Kind: catalog.SellerKindGoods})
	require.NoError(t, err)
	assert.Nil(t, tier)
	assert.Zero(t, tiers.calls)

	tier, err = ServiceTier(ctx, tiers, &catalog.Seller{ID: 2, Kind: catalog.SellerKindTailor})
	require.NoError(t, err)
	assert.EqualValues(t, 2000, tier.BasePrice)

	tier, err = ServiceTier(ctx, tiers, &catalog.Seller{ID: 3, Kind: catalog.SellerKindTailor})
	require.NoError(t, err)
	assert.Nil(t, tier, "tailor without a tier")
}

func TestServiceTier_StorageError(t *testing.T) {
	tiers := &fakeTiers{err: errors.New("connection reset")}

	_, err := ServiceTier(context.Background(), tiers, &catalog.Seller{ID: 2, Kind: catalog.SellerKindTailor})
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection reset")
	assert.NotErrorIs(t, err, apperror.ErrNotFound)
}

func TestServiceTier_GoodsSellerPackageNeedsTier(t *testing.T) {
	tiers := &fakeTiers{tiers: map[uint]*seller.PricingTier{1: tailorTier()}}
	pkg := &seller.Package{
		ID:            5,
		SellerID:      1,
		Garments:      []seller.PackageGarment{{GarmentType: seller.GarmentKurta, Quantity: 1}},
		OriginalPrice: 6000,
		PackagePrice:  5000,
		ValidUntil:    &now,
	}

	tier, err := ServiceTier(context.Background(), tiers, &catalog.Seller{ID: 1, Kind: catalog.SellerKindGoods})
	require.NoError(t, err)

	_, _, err = PackageUnitPrice(pkg, tier, now.Add(1))
	assert.Equal(t, "validation_error", apperror.Code(err))
}
