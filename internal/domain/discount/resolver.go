// internal/domain/discount/resolver.go
package discount

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/tailor-marketplace/internal/domain/seller"
	"github.com/your-org/tailor-marketplace/internal/pkg/apperror"
	"github.com/your-org/tailor-marketplace/internal/pkg/clock"
)

// DefaultCapPercent keeps a 5% settlement floor on every service order.
const DefaultCapPercent = 95

var hundred = decimal.NewFromInt(100)

// CustomerHistory supplies completed-order counts for corporate eligibility
type CustomerHistory interface {
	GetCompletedOrderCount(ctx context.Context, customerID, sellerID uint) (int, error)
}

// OrderContext is what service-tier rules are evaluated against
type OrderContext struct {
	CustomerID   uint
	SellerID     uint
	GarmentCount int
}

// Resolver decides which discount rules apply to an order. It holds no
// state between calls; rules are passed in fresh each time.
type Resolver struct {
	history CustomerHistory
	clock   clock.Clock
	logger  *logrus.Logger
	cap     decimal.Decimal
}

// NewResolver creates a resolver with the given combined-discount cap.
func NewResolver(history CustomerHistory, clk clock.Clock, logger *logrus.Logger, capPercent decimal.Decimal) *Resolver {
	return &Resolver{history: history, clock: clk, logger: logger, cap: capPercent}
}

// Cap returns the configured cap on combined service-tier discounts
func (r *Resolver) Cap() decimal.Decimal {
	return r.cap
}

// ResolveBulk selects the single best-matching bulk tier: the one with the
// highest minimum quantity not above quantity. Percentages of lower tiers
// are never added on top.
func (r *Resolver) ResolveBulk(sellerID uint, tiers []seller.BulkDiscountTier, quantity int) *Resolution {
	res := None()

	valid := make([]seller.BulkDiscountTier, 0, len(tiers))
	for _, t := range tiers {
		if problem := checkBulkTier(sellerID, t); problem != nil {
			r.reportProblem(res, problem)
			continue
		}
		valid = append(valid, t)
	}

	sort.SliceStable(valid, func(i, j int) bool { return valid[i].MinQuantity > valid[j].MinQuantity })

	for i := 1; i < len(valid); i++ {
		if valid[i].DiscountPercentage.GreaterThan(valid[i-1].DiscountPercentage) {
			r.reportProblem(res, &apperror.ConfigurationError{
				SellerID: sellerID,
				Rule:     string(SourceBulkTier),
				Reason: fmt.Sprintf("tier %d (%s%%) gives more than tier %d (%s%%)",
					valid[i].MinQuantity, valid[i].DiscountPercentage,
					valid[i-1].MinQuantity, valid[i-1].DiscountPercentage),
			})
		}
	}

	for i := range valid {
		if valid[i].MinQuantity <= quantity {
			matched := valid[i]
			res.MatchedTier = &matched
			res.Sources = []SourcePercentage{{Source: SourceBulkTier, Percentage: matched.DiscountPercentage}}
			res.Uncapped = matched.DiscountPercentage
			res.Percentage = matched.DiscountPercentage
			break
		}
	}

	return res
}

// ResolveServiceTier evaluates the three service-tier sources
// independently, sums the eligible ones and clamps the sum to [0, cap].
// A rule that is enabled but incomplete is reported and skipped.
// A history lookup failure is returned so the order is held rather than
// priced without knowing corporate eligibility.
func (r *Resolver) ResolveServiceTier(ctx context.Context, tier *seller.PricingTier, oc OrderContext) (*Resolution, error) {
	res := None()
	if tier == nil {
		return res, nil
	}

	if pct, ok := r.multipleGarments(res, oc.SellerID, tier.MultipleGarments, oc.GarmentCount); ok {
		res.Sources = append(res.Sources, SourcePercentage{Source: SourceMultipleGarments, Percentage: pct})
	}

	if pct, ok := r.seasonal(res, oc.SellerID, tier.Seasonal, r.clock.Now()); ok {
		res.Sources = append(res.Sources, SourcePercentage{Source: SourceSeasonal, Percentage: pct})
	}

	pct, ok, err := r.corporate(ctx, res, oc, tier.Corporate)
	if err != nil {
		return nil, err
	}
	if ok {
		res.Sources = append(res.Sources, SourcePercentage{Source: SourceCorporate, Percentage: pct})
	}

	total := decimal.Zero
	for _, s := range res.Sources {
		total = total.Add(s.Percentage)
	}
	res.Uncapped = total
	res.Percentage = decimal.Max(decimal.Zero, decimal.Min(total, r.cap))
	res.Capped = !res.Percentage.Equal(total)

	if res.Capped {
		r.logger.WithFields(logrus.Fields{
			"seller_id":           oc.SellerID,
			"customer_id":         oc.CustomerID,
			"uncapped_percentage": total.String(),
			"capped_percentage":   res.Percentage.String(),
		}).Info("Combined discount capped")
	}

	return res, nil
}

func (r *Resolver) multipleGarments(res *Resolution, sellerID uint, rule seller.MultipleGarmentsRule, garments int) (decimal.Decimal, bool) {
	if !rule.Enabled {
		return decimal.Zero, false
	}

	var reason string
	switch {
	case rule.Threshold == nil:
		reason = "threshold is missing"
	case *rule.Threshold <= 0:
		reason = fmt.Sprintf("threshold must be positive, got %d", *rule.Threshold)
	case !rule.Percentage.Valid:
		reason = "percentage is missing"
	case !inRange(rule.Percentage.Decimal):
		reason = fmt.Sprintf("percentage %s is outside [0,100]", rule.Percentage.Decimal)
	}
	if reason != "" {
		r.reportProblem(res, &apperror.ConfigurationError{SellerID: sellerID, Rule: string(SourceMultipleGarments), Reason: reason})
		return decimal.Zero, false
	}

	return rule.Percentage.Decimal, garments >= *rule.Threshold
}

func (r *Resolver) seasonal(res *Resolution, sellerID uint, rule seller.SeasonalRule, now time.Time) (decimal.Decimal, bool) {
	if !rule.Enabled {
		return decimal.Zero, false
	}

	var reason string
	switch {
	case !rule.Percentage.Valid:
		reason = "percentage is missing"
	case !inRange(rule.Percentage.Decimal):
		reason = fmt.Sprintf("percentage %s is outside [0,100]", rule.Percentage.Decimal)
	case rule.StartDate == nil:
		reason = "start date is missing"
	case rule.EndDate == nil:
		reason = "end date is missing"
	case rule.EndDate.Before(*rule.StartDate):
		reason = "end date is before start date"
	}
	if reason != "" {
		r.reportProblem(res, &apperror.ConfigurationError{SellerID: sellerID, Rule: string(SourceSeasonal), Reason: reason})
		return decimal.Zero, false
	}

	return rule.Percentage.Decimal, InWindow(now, *rule.StartDate, *rule.EndDate)
}

func (r *Resolver) corporate(ctx context.Context, res *Resolution, oc OrderContext, rule seller.CorporateRule) (decimal.Decimal, bool, error) {
	if !rule.Enabled {
		return decimal.Zero, false, nil
	}

	var reason string
	switch {
	case !rule.Percentage.Valid:
		reason = "percentage is missing"
	case !inRange(rule.Percentage.Decimal):
		reason = fmt.Sprintf("percentage %s is outside [0,100]", rule.Percentage.Decimal)
	case rule.MinimumOrders == nil:
		reason = "minimum orders is missing"
	case *rule.MinimumOrders < 0:
		reason = fmt.Sprintf("minimum orders must not be negative, got %d", *rule.MinimumOrders)
	}
	if reason != "" {
		r.reportProblem(res, &apperror.ConfigurationError{SellerID: oc.SellerID, Rule: string(SourceCorporate), Reason: reason})
		return decimal.Zero, false, nil
	}

	completed, err := r.history.GetCompletedOrderCount(ctx, oc.CustomerID, oc.SellerID)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to load customer history: %w", err)
	}

	return rule.Percentage.Decimal, completed >= *rule.MinimumOrders, nil
}

func (r *Resolver) reportProblem(res *Resolution, problem *apperror.ConfigurationError) {
	res.Problems = append(res.Problems, problem)
	r.logger.WithFields(logrus.Fields{
		"seller_id": problem.SellerID,
		"rule":      problem.Rule,
		"reason":    problem.Reason,
	}).Warn("Ignoring malformed discount rule")
}

// InWindow reports whether now lies between start and end, both
// inclusive. Bounds are compared as instants; whole-day end dates are
// widened to the end of the day when the tier is saved.
func InWindow(now, start, end time.Time) bool {
	return !now.Before(start) && !now.After(end)
}

func inRange(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}

func checkBulkTier(sellerID uint, t seller.BulkDiscountTier) *apperror.ConfigurationError {
	var reason string
	switch {
	case t.MinQuantity <= 0:
		reason = fmt.Sprintf("tier %d has non-positive min quantity", t.ID)
	case !inRange(t.DiscountPercentage):
		reason = fmt.Sprintf("tier %d percentage %s is outside [0,100]", t.ID, t.DiscountPercentage)
	default:
		return nil
	}
	return &apperror.ConfigurationError{SellerID: sellerID, Rule: string(SourceBulkTier), Reason: reason}
}
