// internal/domain/discount/resolution.go
package discount

import (
	"github.com/shopspring/decimal"
	"github.com/your-org/tailor-marketplace/internal/domain/seller"
	"github.com/your-org/tailor-marketplace/internal/pkg/apperror"
)

// Source names a discount rule in the audit trail
type Source string

const (
	SourceBulkTier         Source = "bulk_tier"
	SourceMultipleGarments Source = "multiple_garments"
	SourceSeasonal         Source = "seasonal"
	SourceCorporate        Source = "corporate"
	SourcePackage          Source = "package"
)

// SourcePercentage is one eligible source and its configured percentage
type SourcePercentage struct {
	Source     Source          `json:"source"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Resolution is the outcome of discount resolution for one order.
// Sources lists the eligible sources in evaluation order, Uncapped is their
// plain sum and Percentage the effective value after the cap. MatchedTier
// is only set on the bulk path.
type Resolution struct {
	Sources     []SourcePercentage             `json:"sources"`
	MatchedTier *seller.BulkDiscountTier       `json:"matched_tier,omitempty"`
	Uncapped    decimal.Decimal                `json:"uncapped_percentage"`
	Percentage  decimal.Decimal                `json:"percentage"`
	Capped      bool                           `json:"capped"`
	Problems    []*apperror.ConfigurationError `json:"-"`
}

// None is the zero-discount resolution
func None() *Resolution {
	return &Resolution{Uncapped: decimal.Zero, Percentage: decimal.Zero}
}

// IsZero reports whether nothing is discounted
func (r *Resolution) IsZero() bool {
	return r == nil || r.Percentage.IsZero()
}
