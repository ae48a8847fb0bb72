// internal/domain/pricing/calculator.go
package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/your-org/tailor-marketplace/internal/domain/discount"
	"github.com/your-org/tailor-marketplace/internal/domain/seller"
	"github.com/your-org/tailor-marketplace/internal/pkg/apperror"
	"github.com/your-org/tailor-marketplace/internal/pkg/clock"
	"github.com/your-org/tailor-marketplace/internal/pkg/money"
)

// Charge is a selected additional charge
type Charge struct {
	Type   string       `json:"charge_type"`
	Amount money.Amount `json:"amount"`
}

// AppliedDiscount is one entry of the discount audit
type AppliedDiscount struct {
	Source          discount.Source `json:"source"`
	Percentage      decimal.Decimal `json:"percentage_applied"`
	Amount          money.Amount    `json:"amount_applied"`
	IncludedInPrice bool            `json:"included_in_price"`
}

// OrderInput is everything Calculate needs for one seller group
type OrderInput struct {
	Lines           []PricedLine
	Tier            *seller.PricingTier
	SelectedCharges []string
	Discount        *discount.Resolution
	ShippingCost    money.Amount
}

// Quote is the priced candidate for an order snapshot
type Quote struct {
	Lines              []PricedLine      `json:"lines"`
	Charges            []Charge          `json:"charges"`
	GarmentCount       int               `json:"garment_count"`
	TotalQuantity      int               `json:"total_quantity"`
	LinesSubtotal      money.Amount      `json:"lines_subtotal"`
	ChargesTotal       money.Amount      `json:"charges_total"`
	Subtotal           money.Amount      `json:"subtotal"`
	DiscountBase       money.Amount      `json:"discount_base"`
	DiscountPercentage decimal.Decimal   `json:"discount_percentage"`
	DiscountAmount     money.Amount      `json:"discount_amount"`
	ShippingCost       money.Amount      `json:"shipping_cost"`
	FinalTotal         money.Amount      `json:"final_total"`
	Discounts          []AppliedDiscount `json:"discounts"`
	NeedsReview        bool              `json:"needs_review"`
	ReviewReason       string            `json:"review_reason,omitempty"`
}

// Calculator turns live lines, tier rules and a resolved discount into
// totals.
type Calculator struct {
	clock clock.Clock
}

// NewCalculator creates a new calculator
func NewCalculator(clk clock.Clock) *Calculator {
	return &Calculator{clock: clk}
}

// PriceLines resolves the unit price of every line against the tier.
// Package validity is judged at the calculator clock's current time.
func (c *Calculator) PriceLines(lines []LineInput, tier *seller.PricingTier) ([]PricedLine, error) {
	now := c.clock.Now()
	priced := make([]PricedLine, 0, len(lines))
	for _, in := range lines {
		line, err := priceLine(in, tier, now)
		if err != nil {
			return nil, err
		}
		priced = append(priced, line)
	}
	return priced, nil
}

// GarmentCount totals garments across priced lines
func GarmentCount(lines []PricedLine) int {
	n := 0
	for _, l := range lines {
		n += l.GarmentCount
	}
	return n
}

// Calculate composes an order total. It is a pure function of its input.
//
// The discount is applied once to the discount base (discountable lines
// plus selected charges), never per line. Valid package lines are outside
// the base; their saving is already in the package price.
func (c *Calculator) Calculate(in OrderInput) (*Quote, error) {
	if in.ShippingCost < 0 {
		return nil, apperror.NewValidation("shipping_cost", "must not be negative")
	}

	q := &Quote{
		Lines:              in.Lines,
		ShippingCost:       in.ShippingCost,
		DiscountPercentage: decimal.Zero,
	}

	for _, l := range in.Lines {
		q.LinesSubtotal += l.LineTotal
		q.TotalQuantity += l.Quantity
		q.GarmentCount += l.GarmentCount
		if l.Discountable {
			q.DiscountBase += l.LineTotal
		}
	}

	if in.Tier != nil && in.Tier.MinimumOrder > 0 && q.GarmentCount < in.Tier.MinimumOrder {
		return nil, apperror.NewValidation("minimum_order",
			"seller %d requires at least %d garments, order has %d", in.Tier.SellerID, in.Tier.MinimumOrder, q.GarmentCount)
	}

	charges, err := selectCharges(in.Tier, in.SelectedCharges)
	if err != nil {
		return nil, err
	}
	q.Charges = charges
	for _, ch := range charges {
		q.ChargesTotal += ch.Amount
	}

	q.Subtotal = q.LinesSubtotal + q.ChargesTotal
	q.DiscountBase += q.ChargesTotal

	if in.Discount != nil {
		q.DiscountPercentage = in.Discount.Percentage
		q.DiscountAmount = money.ApplyPercent(q.DiscountBase, in.Discount.Percentage)
		q.Discounts = allocate(q.DiscountAmount, in.Discount)
	}
	q.Discounts = append(q.Discounts, packageSavings(in.Lines)...)

	unclamped := q.Subtotal - q.DiscountAmount
	if unclamped < 0 {
		q.NeedsReview = true
		q.ReviewReason = "order total before shipping was negative and has been clamped to zero"
	}
	q.FinalTotal = money.Max(0, unclamped) + q.ShippingCost

	return q, nil
}

func selectCharges(tier *seller.PricingTier, selected []string) ([]Charge, error) {
	if len(selected) == 0 {
		return nil, nil
	}
	if tier == nil {
		return nil, apperror.NewValidation("charges", "seller has no additional charges")
	}

	seen := make(map[string]bool, len(selected))
	charges := make([]Charge, 0, len(selected))
	for _, chargeType := range selected {
		if seen[chargeType] {
			continue
		}
		seen[chargeType] = true

		amount, ok := tier.AdditionalCharges[chargeType]
		if !ok {
			return nil, apperror.NewValidation("charges", "unknown charge type %q for seller %d", chargeType, tier.SellerID)
		}
		charges = append(charges, Charge{Type: chargeType, Amount: amount})
	}
	return charges, nil
}

// allocate splits one rounded discount amount across the eligible sources
// in proportion to their percentages. Entries always sum to the total.
func allocate(total money.Amount, res *discount.Resolution) []AppliedDiscount {
	if len(res.Sources) == 0 {
		return nil
	}

	weights := make([]decimal.Decimal, len(res.Sources))
	for i, s := range res.Sources {
		weights[i] = s.Percentage
	}

	amounts := apportion(int64(total), weights)
	// Percentages are apportioned in hundredths so they sum to the
	// effective (possibly capped) percentage.
	hundredths := apportion(res.Percentage.Shift(2).Round(0).IntPart(), weights)

	out := make([]AppliedDiscount, len(res.Sources))
	for i, s := range res.Sources {
		out[i] = AppliedDiscount{
			Source:     s.Source,
			Percentage: decimal.New(hundredths[i], -2),
			Amount:     money.Amount(amounts[i]),
		}
	}
	return out
}

// apportion distributes total over weights with the largest remainder
// method. Results are non-negative and sum exactly to total.
func apportion(total int64, weights []decimal.Decimal) []int64 {
	out := make([]int64, len(weights))
	sum := decimal.Zero
	for _, w := range weights {
		sum = sum.Add(w)
	}
	if total <= 0 || sum.IsZero() {
		return out
	}

	type remainder struct {
		index int
		frac  decimal.Decimal
	}
	rems := make([]remainder, len(weights))
	allotted := int64(0)
	for i, w := range weights {
		exact := decimal.NewFromInt(total).Mul(w).Div(sum)
		floor := exact.Floor()
		out[i] = floor.IntPart()
		allotted += out[i]
		rems[i] = remainder{index: i, frac: exact.Sub(floor)}
	}

	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac.GreaterThan(rems[b].frac) })
	for i := 0; allotted < total; i++ {
		out[rems[i%len(rems)].index]++
		allotted++
	}
	return out
}

func packageSavings(lines []PricedLine) []AppliedDiscount {
	var out []AppliedDiscount
	for _, l := range lines {
		if l.PricedAs != PricedAsPackage || l.OriginalUnitPrice <= 0 {
			continue
		}
		perUnit := l.OriginalUnitPrice - l.UnitPrice
		out = append(out, AppliedDiscount{
			Source:          discount.SourcePackage,
			Percentage:      perUnit.Decimal().Shift(2).Div(l.OriginalUnitPrice.Decimal()).Round(2),
			Amount:          l.PackageSaving(),
			IncludedInPrice: true,
		})
	}
	return out
}
