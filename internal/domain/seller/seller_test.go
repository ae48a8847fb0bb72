package seller

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/tailor-marketplace/internal/pkg/apperror"
	"github.com/your-org/tailor-marketplace/internal/pkg/money"
)

func pct(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestGarmentPrices_RejectsUnknownKeys(t *testing.T) {
	var prices GarmentPrices
	err := json.Unmarshal([]byte(`{"shirt": 1500, "kilt": 9000}`), &prices)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kilt")

	require.NoError(t, json.Unmarshal([]byte(`{"shirt": 1500, "saree_blouse": 1200}`), &prices))
	price, ok := prices.PriceFor(GarmentSareeBlouse)
	assert.True(t, ok)
	assert.EqualValues(t, 1200, price)

	_, ok = prices.PriceFor(GarmentCoat)
	assert.False(t, ok)
}

func TestPackageGarment_RejectsUnknownGarmentValue(t *testing.T) {
	var g PackageGarment
	err := json.Unmarshal([]byte(`{"garment_type": "poncho", "quantity": 1}`), &g)
	assert.Error(t, err)
}

func TestPackage_IsValidAt(t *testing.T) {
	until := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pkg := &Package{ValidUntil: &until, OriginalPrice: 18000, PackagePrice: 15000}

	assert.True(t, pkg.IsValidAt(until.Add(-time.Hour)))
	assert.True(t, pkg.IsValidAt(until))
	assert.False(t, pkg.IsValidAt(until.Add(time.Second)))
	assert.True(t, (&Package{}).IsValidAt(time.Now()))
	assert.EqualValues(t, 3000, pkg.Discount())
}

func TestValidateBulkTiers(t *testing.T) {
	tests := []struct {
		name    string
		tiers   []BulkTierInput
		wantErr bool
	}{
		{"valid unsorted", []BulkTierInput{{50, pct("15")}, {10, pct("5")}}, false},
		{"empty set", nil, false},
		{"zero threshold", []BulkTierInput{{0, pct("5")}}, true},
		{"percentage over 100", []BulkTierInput{{10, pct("100.01")}}, true},
		{"negative percentage", []BulkTierInput{{10, pct("-1")}}, true},
		{"duplicate threshold", []BulkTierInput{{10, pct("5")}, {10, pct("6")}}, true},
		{"inverted tiers", []BulkTierInput{{10, pct("15")}, {50, pct("5")}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBulkTiers(tt.tiers)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var ve *apperror.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestValidatePricingTier(t *testing.T) {
	start := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	base := func() SavePricingTierRequest {
		return SavePricingTierRequest{
			BasePrice:         2000,
			GarmentPricing:    GarmentPrices{GarmentSuit: 6000},
			AdditionalCharges: map[string]money.Amount{"express": 500},
			Seasonal: SeasonalRule{
				Enabled:    true,
				Percentage: decimal.NewNullDecimal(pct("5")),
				StartDate:  &start,
				EndDate:    &end,
			},
		}
	}

	assert.NoError(t, ValidatePricingTier(base()))

	// Enabled with missing fields is accepted here and flagged at resolution.
	halfConfigured := base()
	halfConfigured.Corporate = CorporateRule{Enabled: true}
	assert.NoError(t, ValidatePricingTier(halfConfigured))

	tests := []struct {
		name   string
		mutate func(r *SavePricingTierRequest)
		field  string
	}{
		{"negative base", func(r *SavePricingTierRequest) { r.BasePrice = -1 }, "base_price"},
		{"negative charge", func(r *SavePricingTierRequest) { r.AdditionalCharges["express"] = -5 }, "additional_charges"},
		{"percentage over 100", func(r *SavePricingTierRequest) {
			r.MultipleGarments.Percentage = decimal.NewNullDecimal(pct("101"))
		}, "multiple_garments.percentage"},
		{"window ends before start", func(r *SavePricingTierRequest) { r.Seasonal.EndDate = &time.Time{} }, "seasonal.end_date"},
		{"unknown garment key", func(r *SavePricingTierRequest) { r.GarmentPricing["kilt"] = 100 }, "garment_pricing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.mutate(&req)

			var ve *apperror.ValidationError
			require.ErrorAs(t, ValidatePricingTier(req), &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestNormalizeSeasonalWindow(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	start := time.Date(2026, 12, 1, 0, 0, 0, 0, ist)
	wholeDay := time.Date(2026, 12, 31, 0, 0, 0, 0, ist)
	rule := NormalizeSeasonalWindow(SeasonalRule{StartDate: &start, EndDate: &wholeDay}, ist)

	assert.Equal(t, time.UTC, rule.StartDate.Location())
	assert.True(t, rule.StartDate.Equal(start), "start is never moved")
	assert.Equal(t, time.UTC, rule.EndDate.Location())
	assert.Equal(t, time.Date(2026, 12, 31, 23, 59, 59, 999999000, ist).UTC(), *rule.EndDate)
	assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, ist), wholeDay, "caller's value is untouched")

	// Midnight UTC is 05:30 in IST, a time of day, and is kept.
	utcMidnight := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	rule = NormalizeSeasonalWindow(SeasonalRule{EndDate: &utcMidnight}, ist)
	assert.True(t, rule.EndDate.Equal(utcMidnight))
	assert.Nil(t, rule.StartDate)

	timed := time.Date(2026, 12, 31, 18, 0, 0, 0, time.UTC)
	rule = NormalizeSeasonalWindow(SeasonalRule{EndDate: &timed}, time.UTC)
	assert.True(t, rule.EndDate.Equal(timed))
}

func TestValidatePackage(t *testing.T) {
	valid := CreatePackageRequest{
		Name:          "Wedding set",
		Garments:      []PackageGarment{{GarmentSherwani, 1}, {GarmentKurta, 2}},
		OriginalPrice: 18000,
		PackagePrice:  15000,
	}
	assert.NoError(t, ValidatePackage(valid))

	overpriced := valid
	overpriced.PackagePrice = 19000
	assert.Error(t, ValidatePackage(overpriced))

	empty := valid
	empty.Garments = nil
	assert.Error(t, ValidatePackage(empty))

	zeroQty := valid
	zeroQty.Garments = []PackageGarment{{GarmentKurta, 0}}
	assert.Error(t, ValidatePackage(zeroQty))
}
