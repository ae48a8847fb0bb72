package discount

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/tailor-marketplace/internal/domain/seller"
	"github.com/your-org/tailor-marketplace/internal/pkg/clock"
)

type fakeHistory struct {
	count int
	err   error
	calls int
}

func (f *fakeHistory) GetCompletedOrderCount(context.Context, uint, uint) (int, error) {
	f.calls++
	return f.count, f.err
}

var decemberSale = clock.Fixed(time.Date(2026, 12, 15, 10, 0, 0, 0, time.UTC))

func pct(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nullPct(s string) decimal.NullDecimal { return decimal.NewNullDecimal(pct(s)) }

func intPtr(n int) *int { return &n }

func timePtr(t time.Time) *time.Time { return &t }

func newResolver(history CustomerHistory, clk clock.Clock) (*Resolver, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return NewResolver(history, clk, logger, decimal.NewFromInt(DefaultCapPercent)), hook
}

func bulkTiers(pairs ...any) []seller.BulkDiscountTier {
	var tiers []seller.BulkDiscountTier
	for i := 0; i < len(pairs); i += 2 {
		tiers = append(tiers, seller.BulkDiscountTier{
			ID:                 uint(i/2 + 1),
			MinQuantity:        pairs[i].(int),
			DiscountPercentage: pct(pairs[i+1].(string)),
		})
	}
	return tiers
}

func TestResolveBulk_SingleBestMatch(t *testing.T) {
	r, _ := newResolver(&fakeHistory{}, decemberSale)
	tiers := bulkTiers(10, "5", 50, "15")

	res := r.ResolveBulk(1, tiers, 60)

	require.NotNil(t, res.MatchedTier)
	assert.Equal(t, 50, res.MatchedTier.MinQuantity)
	assert.True(t, pct("15").Equal(res.Percentage), "crossing two thresholds must not add 5%% + 15%%")
	require.Len(t, res.Sources, 1)
	assert.Equal(t, SourceBulkTier, res.Sources[0].Source)
}

func TestResolveBulk_Boundaries(t *testing.T) {
	r, _ := newResolver(&fakeHistory{}, decemberSale)
	tiers := bulkTiers(10, "5", 50, "15")

	tests := []struct {
		quantity int
		want     string
	}{
		{0, "0"},
		{9, "0"},
		{10, "5"},
		{49, "5"},
		{50, "15"},
		{1000, "15"},
	}

	for _, tt := range tests {
		res := r.ResolveBulk(1, tiers, tt.quantity)
		assert.True(t, pct(tt.want).Equal(res.Percentage), "quantity %d: got %s", tt.quantity, res.Percentage)
	}
}

func TestResolveBulk_NoTiers(t *testing.T) {
	r, _ := newResolver(&fakeHistory{}, decemberSale)

	res := r.ResolveBulk(1, nil, 500)
	assert.True(t, res.IsZero())
	assert.Nil(t, res.MatchedTier)
}

func TestResolveBulk_Monotonic(t *testing.T) {
	r, _ := newResolver(&fakeHistory{}, decemberSale)
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		// Random valid tier set: thresholds rise, percentages never fall.
		var tiers []seller.BulkDiscountTier
		minQty, percent := 0, 0
		for i := 0; i < 1+rng.Intn(5); i++ {
			minQty += 1 + rng.Intn(40)
			percent += rng.Intn(10)
			tiers = append(tiers, seller.BulkDiscountTier{MinQuantity: minQty, DiscountPercentage: decimal.NewFromInt(int64(percent))})
		}
		rng.Shuffle(len(tiers), func(i, j int) { tiers[i], tiers[j] = tiers[j], tiers[i] })

		prev := decimal.Zero
		for qty := 0; qty <= minQty+10; qty++ {
			got := r.ResolveBulk(1, tiers, qty).Percentage
			require.False(t, got.LessThan(prev), "round %d: quantity %d resolved %s after %s", round, qty, got, prev)
			prev = got
		}
	}
}

func TestResolveBulk_SkipsMalformedTiers(t *testing.T) {
	r, hook := newResolver(&fakeHistory{}, decemberSale)
	tiers := bulkTiers(0, "30", 10, "120", 5, "5")

	res := r.ResolveBulk(7, tiers, 20)

	assert.True(t, pct("5").Equal(res.Percentage))
	assert.Len(t, res.Problems, 2)
	for _, entry := range hook.AllEntries() {
		assert.Equal(t, logrus.WarnLevel, entry.Level)
		assert.EqualValues(t, 7, entry.Data["seller_id"])
	}
}

func TestResolveServiceTier_AdditiveStacking(t *testing.T) {
	history := &fakeHistory{count: 2}
	r, _ := newResolver(history, decemberSale)

	tier := &seller.PricingTier{
		SellerID:  3,
		BasePrice: 2000,
		MultipleGarments: seller.MultipleGarmentsRule{
			Enabled: true, Threshold: intPtr(3), Percentage: nullPct("10"),
		},
		Seasonal: seller.SeasonalRule{
			Enabled:    true,
			Percentage: nullPct("5"),
			StartDate:  timePtr(time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)),
			EndDate:    timePtr(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)),
		},
		Corporate: seller.CorporateRule{
			Enabled: true, Percentage: nullPct("20"), MinimumOrders: intPtr(5),
		},
	}

	res, err := r.ResolveServiceTier(context.Background(), tier, OrderContext{CustomerID: 9, SellerID: 3, GarmentCount: 4})
	require.NoError(t, err)

	assert.True(t, pct("15").Equal(res.Percentage), "got %s", res.Percentage)
	assert.False(t, res.Capped)
	assert.Equal(t, []Source{SourceMultipleGarments, SourceSeasonal}, sources(res))
	assert.Equal(t, 1, history.calls)
}

func TestResolveServiceTier_ThresholdNotReached(t *testing.T) {
	r, _ := newResolver(&fakeHistory{}, decemberSale)
	tier := &seller.PricingTier{MultipleGarments: seller.MultipleGarmentsRule{
		Enabled: true, Threshold: intPtr(3), Percentage: nullPct("10"),
	}}

	res, err := r.ResolveServiceTier(context.Background(), tier, OrderContext{GarmentCount: 2})
	require.NoError(t, err)
	assert.True(t, res.IsZero())
}

func TestResolveServiceTier_CapsCombinedPercentage(t *testing.T) {
	r, hook := newResolver(&fakeHistory{count: 10}, decemberSale)
	tier := &seller.PricingTier{
		SellerID:         3,
		MultipleGarments: seller.MultipleGarmentsRule{Enabled: true, Threshold: intPtr(1), Percentage: nullPct("50")},
		Seasonal: seller.SeasonalRule{
			Enabled:    true,
			Percentage: nullPct("40"),
			StartDate:  timePtr(time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)),
			EndDate:    timePtr(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)),
		},
		Corporate: seller.CorporateRule{Enabled: true, Percentage: nullPct("30"), MinimumOrders: intPtr(1)},
	}

	res, err := r.ResolveServiceTier(context.Background(), tier, OrderContext{SellerID: 3, GarmentCount: 5})
	require.NoError(t, err)

	assert.True(t, pct("95").Equal(res.Percentage))
	assert.True(t, pct("120").Equal(res.Uncapped))
	assert.True(t, res.Capped)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "120", entry.Data["uncapped_percentage"])
	assert.Equal(t, "95", entry.Data["capped_percentage"])
}

func TestResolveServiceTier_NeverExceedsCap(t *testing.T) {
	r, _ := newResolver(&fakeHistory{count: 100}, decemberSale)
	window := seller.SeasonalRule{
		StartDate: timePtr(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		EndDate:   timePtr(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)),
	}

	for a := 0; a <= 100; a += 25 {
		for b := 0; b <= 100; b += 25 {
			for c := 0; c <= 100; c += 25 {
				seasonal := window
				seasonal.Enabled = true
				seasonal.Percentage = decimal.NewNullDecimal(decimal.NewFromInt(int64(b)))
				tier := &seller.PricingTier{
					MultipleGarments: seller.MultipleGarmentsRule{Enabled: true, Threshold: intPtr(1), Percentage: decimal.NewNullDecimal(decimal.NewFromInt(int64(a)))},
					Seasonal:         seasonal,
					Corporate:        seller.CorporateRule{Enabled: true, MinimumOrders: intPtr(0), Percentage: decimal.NewNullDecimal(decimal.NewFromInt(int64(c)))},
				}

				res, err := r.ResolveServiceTier(context.Background(), tier, OrderContext{GarmentCount: 3})
				require.NoError(t, err)
				assert.False(t, res.Percentage.GreaterThan(r.Cap()), "%d+%d+%d resolved %s", a, b, c, res.Percentage)
				assert.False(t, res.Percentage.IsNegative())
			}
		}
	}
}

func TestResolveServiceTier_MalformedRulesAreIneligible(t *testing.T) {
	history := &fakeHistory{count: 50}
	r, hook := newResolver(history, decemberSale)

	tier := &seller.PricingTier{
		SellerID: 4,
		// Enabled but no threshold: must not default to "always eligible".
		MultipleGarments: seller.MultipleGarmentsRule{Enabled: true, Percentage: nullPct("10")},
		// Enabled with no dates.
		Seasonal: seller.SeasonalRule{Enabled: true, Percentage: nullPct("5")},
		// Enabled with no percentage.
		Corporate: seller.CorporateRule{Enabled: true, MinimumOrders: intPtr(1)},
	}

	res, err := r.ResolveServiceTier(context.Background(), tier, OrderContext{SellerID: 4, GarmentCount: 99})
	require.NoError(t, err)

	assert.True(t, res.IsZero())
	assert.Empty(t, res.Sources)
	require.Len(t, res.Problems, 3)
	assert.Equal(t, "multiple_garments", res.Problems[0].Rule)
	assert.Equal(t, "seasonal", res.Problems[1].Rule)
	assert.Equal(t, "corporate", res.Problems[2].Rule)
	assert.Zero(t, history.calls, "history is not consulted for a malformed corporate rule")
	assert.Len(t, hook.AllEntries(), 3)
}

func TestResolveServiceTier_MalformedRuleDoesNotBlockOthers(t *testing.T) {
	r, _ := newResolver(&fakeHistory{}, decemberSale)
	tier := &seller.PricingTier{
		MultipleGarments: seller.MultipleGarmentsRule{Enabled: true, Threshold: intPtr(2), Percentage: nullPct("10")},
		Seasonal:         seller.SeasonalRule{Enabled: true, Percentage: nullPct("150"), StartDate: timePtr(time.Now()), EndDate: timePtr(time.Now())},
	}

	res, err := r.ResolveServiceTier(context.Background(), tier, OrderContext{GarmentCount: 2})
	require.NoError(t, err)
	assert.True(t, pct("10").Equal(res.Percentage))
	assert.Len(t, res.Problems, 1)
}

func TestResolveServiceTier_HistoryFailure(t *testing.T) {
	r, _ := newResolver(&fakeHistory{err: errors.New("connection reset")}, decemberSale)
	tier := &seller.PricingTier{Corporate: seller.CorporateRule{Enabled: true, Percentage: nullPct("10"), MinimumOrders: intPtr(3)}}

	_, err := r.ResolveServiceTier(context.Background(), tier, OrderContext{CustomerID: 1, SellerID: 2})
	assert.ErrorContains(t, err, "customer history")
}

func TestResolveServiceTier_DisabledCorporateSkipsHistory(t *testing.T) {
	history := &fakeHistory{err: errors.New("should not be called")}
	r, _ := newResolver(history, decemberSale)

	res, err := r.ResolveServiceTier(context.Background(), &seller.PricingTier{}, OrderContext{})
	require.NoError(t, err)
	assert.True(t, res.IsZero())
	assert.Zero(t, history.calls)
}

func TestInWindow_InclusiveBounds(t *testing.T) {
	start := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 12, 31, 23, 59, 59, 999999000, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"at start", start, true},
		{"just before start", start.Add(-time.Second), false},
		{"middle", time.Date(2026, 12, 15, 12, 0, 0, 0, time.UTC), true},
		{"at end", end, true},
		{"just after end", end.Add(time.Microsecond), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InWindow(tt.now, start, end))
		})
	}
}

func TestInWindow_MidDayStartIsNotWidened(t *testing.T) {
	start := time.Date(2026, 12, 1, 18, 0, 0, 0, time.UTC)
	end := time.Date(2026, 12, 31, 18, 0, 0, 0, time.UTC)

	assert.False(t, InWindow(time.Date(2026, 12, 1, 8, 0, 0, 0, time.UTC), start, end))
	assert.True(t, InWindow(start, start, end))
	assert.False(t, InWindow(end.Add(time.Second), start, end))
}

func TestInWindow_ComparesInstantsAcrossZones(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// Dec 1 00:00 IST read back from storage as Nov 30 18:30 UTC.
	start := time.Date(2026, 12, 1, 0, 0, 0, 0, ist).UTC()
	end := time.Date(2026, 12, 31, 23, 59, 59, 999999000, ist).UTC()

	assert.True(t, InWindow(time.Date(2026, 11, 30, 19, 0, 0, 0, time.UTC), start, end))
	assert.False(t, InWindow(time.Date(2026, 11, 30, 18, 0, 0, 0, time.UTC), start, end))
	assert.True(t, InWindow(time.Date(2026, 12, 31, 18, 0, 0, 0, time.UTC), start, end))
	assert.False(t, InWindow(time.Date(2026, 12, 31, 18, 30, 0, 0, time.UTC), start, end))
}

func sources(res *Resolution) []Source {
	out := make([]Source, 0, len(res.Sources))
	for _, s := range res.Sources {
		out = append(out, s.Source)
	}
	return out
}
