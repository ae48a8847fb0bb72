// internal/domain/checkout/orchestrator.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/tailor-marketplace/internal/config"
	"github.com/your-org/tailor-marketplace/internal/domain/cart"
	"github.com/your-org/tailor-marketplace/internal/domain/catalog"
	"github.com/your-org/tailor-marketplace/internal/domain/discount"
	"github.com/your-org/tailor-marketplace/internal/domain/order"
	"github.com/your-org/tailor-marketplace/internal/domain/pricing"
	"github.com/your-org/tailor-marketplace/internal/domain/seller"
	"github.com/your-org/tailor-marketplace/internal/pkg/apperror"
	"github.com/your-org/tailor-marketplace/internal/pkg/clock"
	"github.com/your-org/tailor-marketplace/internal/pkg/money"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/your-org/tailor-marketplace/checkout")

// Catalog is the live product and seller view checkout validates against
type Catalog interface {
	GetPrice(ctx context.Context, productID uint) (*catalog.PriceQuote, error)
	GetSeller(ctx context.Context, sellerID uint) (*catalog.Seller, error)
}

// SellerConfig supplies fresh discount and pricing configuration
type SellerConfig interface {
	GetBulkDiscountTiers(ctx context.Context, sellerID uint) ([]seller.BulkDiscountTier, error)
	GetPricingTier(ctx context.Context, sellerID uint) (*seller.PricingTier, error)
	GetPackage(ctx context.Context, packageID uint) (*seller.Package, error)
}

// CartStore reads a customer's cart lines
type CartStore interface {
	Items(ctx context.Context, customerID uint) ([]cart.CartLineItem, error)
}

// Committer persists a confirmed group atomically
type Committer interface {
	Commit(ctx context.Context, cm *Commit) error
}

// EventPublisher announces confirmed orders to downstream consumers
type EventPublisher interface {
	PublishOrderConfirmed(ctx context.Context, snap *order.OrderSnapshot) error
}

// Dependencies wires the orchestrator's collaborators
type Dependencies struct {
	Catalog   Catalog
	Sellers   SellerConfig
	Carts     CartStore
	History   discount.CustomerHistory
	Committer Committer
	Publisher EventPublisher
	Metrics   *Metrics
	Clock     clock.Clock
	Config    *config.Config
	Logger    *logrus.Logger
}

// Orchestrator runs each seller group of a cart through
// CREATED -> VALIDATING -> PRICED -> CONFIRMED | REJECTED.
type Orchestrator struct {
	aggregator  *cart.Aggregator
	catalog     Catalog
	sellers     SellerConfig
	carts       CartStore
	resolver    *discount.Resolver
	calculator  *pricing.Calculator
	committer   Committer
	publisher   EventPublisher
	locks       *productLocks
	metrics     *Metrics
	clock       clock.Clock
	currency    string
	concurrency int
	logger      *logrus.Logger
}

// NewOrchestrator creates a new checkout orchestrator
func NewOrchestrator(deps Dependencies) *Orchestrator {
	capPercent := decimal.NewFromFloat(deps.Config.Pricing.DiscountCapPercent)
	return &Orchestrator{
		aggregator:  cart.NewAggregator(deps.Catalog, deps.Sellers),
		catalog:     deps.Catalog,
		sellers:     deps.Sellers,
		carts:       deps.Carts,
		resolver:    discount.NewResolver(deps.History, deps.Clock, deps.Logger, capPercent),
		calculator:  pricing.NewCalculator(deps.Clock),
		committer:   deps.Committer,
		publisher:   deps.Publisher,
		locks:       newProductLocks(),
		metrics:     deps.Metrics,
		clock:       deps.Clock,
		currency:    deps.Config.Pricing.Currency,
		concurrency: deps.Config.Pricing.CheckoutGroupConcurrency,
		logger:      deps.Logger,
	}
}

// Request is one checkout attempt. A nil SellerID checks out every
// seller group; otherwise only that seller's group is touched.
type Request struct {
	CustomerID      uint
	SellerID        *uint
	ShippingCosts   map[uint]money.Amount
	SelectedCharges map[uint][]string
}

// ConfirmedGroup is a group that committed an order snapshot
type ConfirmedGroup struct {
	SellerID    uint         `json:"seller_id"`
	OrderID     uint         `json:"order_id"`
	OrderNumber string       `json:"order_number"`
	GrandTotal  money.Amount `json:"grand_total"`
	NeedsReview bool         `json:"needs_review"`
	Trail       []State      `json:"state_trail"`
}

// RejectedGroup is a group that left the cart untouched
type RejectedGroup struct {
	SellerID uint           `json:"seller_id"`
	Reason   string         `json:"reason"`
	Code     string         `json:"code"`
	Details  map[string]any `json:"details,omitempty"`
	Trail    []State        `json:"state_trail"`

	err error
}

// Err returns the typed error behind the rejection. It is not kept when a
// report is replayed from the idempotency store.
func (r *RejectedGroup) Err() error {
	return r.err
}

// Report is the partial-success outcome of a checkout
type Report struct {
	CheckoutID string           `json:"checkout_id"`
	Confirmed  []ConfirmedGroup `json:"confirmed"`
	Rejected   []RejectedGroup  `json:"rejected"`
}

// ConfirmedSellers lists the sellers whose groups committed
func (r *Report) ConfirmedSellers() []uint {
	ids := make([]uint, 0, len(r.Confirmed))
	for _, c := range r.Confirmed {
		ids = append(ids, c.SellerID)
	}
	return ids
}

// GroupQuote is the preview of one seller group
type GroupQuote struct {
	SellerID   uint                 `json:"seller_id"`
	Quote      *pricing.Quote       `json:"quote,omitempty"`
	Resolution *discount.Resolution `json:"discount,omitempty"`
	Rejection  *RejectedGroup       `json:"rejection,omitempty"`
}

// Preview is a checkout summary computed without mutating anything
type Preview struct {
	Groups     []GroupQuote `json:"groups"`
	GrandTotal money.Amount `json:"grand_total"`
	Currency   string       `json:"currency"`
}

type groupResult struct {
	confirmed *ConfirmedGroup
	rejected  *RejectedGroup
}

// validatedGroup holds the live data a group was validated against
type validatedGroup struct {
	group      *cart.SupplierCartGroup
	seller     *catalog.Seller
	tier       *seller.PricingTier
	bulkTiers  []seller.BulkDiscountTier
	lines      []pricing.LineInput
	decrements []StockDecrement
}

type pricedGroup struct {
	quote      *pricing.Quote
	resolution *discount.Resolution
	pricedAt   time.Time
}

// Checkout validates, prices and commits every in-scope seller group.
// Groups run concurrently and independently: a rejected group never undoes
// a confirmed sibling. Only input that fails before any group starts, such
// as an empty cart, is returned as an error.
func (o *Orchestrator) Checkout(ctx context.Context, req Request) (*Report, error) {
	agg, err := o.aggregate(ctx, req)
	if err != nil {
		return nil, err
	}

	checkoutID := uuid.NewString()
	results := make([]groupResult, len(agg.Groups))

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, group := range agg.Groups {
		g.Go(func() error {
			results[i] = o.runGroup(ctx, checkoutID, req, group)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{
		CheckoutID: checkoutID,
		Confirmed:  []ConfirmedGroup{},
		Rejected:   []RejectedGroup{},
	}
	for _, r := range results {
		if r.confirmed != nil {
			report.Confirmed = append(report.Confirmed, *r.confirmed)
		} else {
			report.Rejected = append(report.Rejected, *r.rejected)
		}
	}

	o.logger.WithFields(logrus.Fields{
		"checkout_id": checkoutID,
		"customer_id": req.CustomerID,
		"confirmed":   len(report.Confirmed),
		"rejected":    len(report.Rejected),
	}).Info("Checkout completed")

	return report, nil
}

// Quote runs validation and pricing for every in-scope group without
// persisting, decrementing or publishing anything.
func (o *Orchestrator) Quote(ctx context.Context, req Request) (*Preview, error) {
	agg, err := o.aggregate(ctx, req)
	if err != nil {
		return nil, err
	}

	preview := &Preview{Currency: o.currency}
	for _, group := range agg.Groups {
		gq := GroupQuote{SellerID: group.SellerID}

		priced, err := o.validateAndPrice(ctx, req, group)
		if err != nil {
			if !isGroupRejection(err) {
				return nil, err
			}
			gq.Rejection = newRejection(group.SellerID, err, nil)
		} else {
			gq.Quote = priced.quote
			gq.Resolution = priced.resolution
			preview.GrandTotal += priced.quote.FinalTotal
		}
		preview.Groups = append(preview.Groups, gq)
	}
	return preview, nil
}

func (o *Orchestrator) aggregate(ctx context.Context, req Request) (*cart.Aggregation, error) {
	items, err := o.carts.Items(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return o.aggregator.Group(ctx, items, req.SellerID)
}

func (o *Orchestrator) runGroup(ctx context.Context, checkoutID string, req Request, group *cart.SupplierCartGroup) groupResult {
	ctx, span := tracer.Start(ctx, "checkout.group", trace.WithAttributes(
		attribute.String("checkout.id", checkoutID),
		attribute.Int64("seller.id", int64(group.SellerID)),
		attribute.Int("cart.lines", len(group.Items)),
	))
	defer span.End()

	m := newGroupMachine(group.SellerID)
	logger := o.logger.WithFields(logrus.Fields{
		"checkout_id": checkoutID,
		"customer_id": req.CustomerID,
		"seller_id":   group.SellerID,
	})

	reject := func(err error) groupResult {
		if terr := m.transition(StateRejected); terr != nil {
			logger.WithError(terr).Error("Illegal checkout transition")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, apperror.Code(err))
		o.metrics.groupFinished(ctx, StateRejected)

		logger.WithError(err).WithField("code", apperror.Code(err)).Warn("Checkout group rejected")
		return groupResult{rejected: newRejection(group.SellerID, err, m.history)}
	}

	if err := m.transition(StateValidating); err != nil {
		return reject(err)
	}
	validated, err := o.validate(ctx, group)
	if err != nil {
		return reject(err)
	}

	if err := m.transition(StatePriced); err != nil {
		return reject(err)
	}
	priced, err := o.price(ctx, req, validated)
	if err != nil {
		return reject(err)
	}

	snap := buildSnapshot(checkoutID, req.CustomerID, group.SellerID, o.currency, priced.pricedAt, priced.quote)
	commit := &Commit{
		CustomerID:  req.CustomerID,
		Snapshot:    snap,
		Decrements:  validated.decrements,
		CartItemIDs: group.ItemIDs(),
	}
	if err := o.commit(ctx, commit); err != nil {
		return reject(err)
	}

	if err := m.transition(StateConfirmed); err != nil {
		return reject(err)
	}
	o.metrics.groupFinished(ctx, StateConfirmed)
	span.SetAttributes(attribute.String("order.number", snap.OrderNumber))

	if err := o.publisher.PublishOrderConfirmed(ctx, snap); err != nil {
		logger.WithError(err).WithField("order_number", snap.OrderNumber).Error("Failed to publish order confirmed event")
	}

	logger.WithFields(logrus.Fields{
		"order_number": snap.OrderNumber,
		"grand_total":  snap.GrandTotal.Format(o.currency),
	}).Info("Checkout group confirmed")

	return groupResult{confirmed: &ConfirmedGroup{
		SellerID:    group.SellerID,
		OrderID:     snap.ID,
		OrderNumber: snap.OrderNumber,
		GrandTotal:  snap.GrandTotal,
		NeedsReview: snap.NeedsReview,
		Trail:       m.history,
	}}
}

func (o *Orchestrator) validateAndPrice(ctx context.Context, req Request, group *cart.SupplierCartGroup) (*pricedGroup, error) {
	validated, err := o.validate(ctx, group)
	if err != nil {
		return nil, err
	}
	return o.price(ctx, req, validated)
}

// validate re-reads everything a group depends on. The cart's price
// snapshot must match the live price exactly; a difference is reported,
// never absorbed.
func (o *Orchestrator) validate(ctx context.Context, group *cart.SupplierCartGroup) (*validatedGroup, error) {
	sel, err := o.catalog.GetSeller(ctx, group.SellerID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NewValidation("seller_id", "seller %d does not exist", group.SellerID)
		}
		return nil, fmt.Errorf("failed to load seller %d: %w", group.SellerID, err)
	}
	if !sel.IsActive {
		return nil, apperror.NewValidation("seller_id", "seller %d is not active", group.SellerID)
	}

	v := &validatedGroup{group: group, seller: sel}

	switch sel.Kind {
	case catalog.SellerKindTailor:
		tier, err := pricing.ServiceTier(ctx, o.sellers, sel)
		if err != nil {
			return nil, err
		}
		v.tier = tier
	default:
		tiers, err := o.sellers.GetBulkDiscountTiers(ctx, sel.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load bulk discount tiers: %w", err)
		}
		v.bulkTiers = tiers
	}

	now := o.clock.Now()
	requested := make(map[uint]int)
	quotes := make(map[uint]*catalog.PriceQuote)
	var productIDs []uint

	for _, item := range group.Items {
		if item.IsPackage() {
			line, err := o.validatePackage(ctx, item, v.tier, now)
			if err != nil {
				return nil, err
			}
			v.lines = append(v.lines, line)
			continue
		}

		quote, err := o.catalog.GetPrice(ctx, *item.ProductID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return nil, apperror.NewValidation("product_id", "product %d does not exist", *item.ProductID)
			}
			return nil, fmt.Errorf("failed to load product %d: %w", *item.ProductID, err)
		}
		if !quote.IsActive {
			return nil, apperror.NewValidation("product_id", "product %d is not active", quote.ProductID)
		}

		live, _ := pricing.ResolvedUnitPrice(quote.Type, quote.GarmentType, quote.UnitPrice, v.tier)
		if live != item.UnitPrice {
			return nil, &apperror.PriceChangedError{
				ProductID: quote.ProductID,
				CartPrice: item.UnitPrice,
				LivePrice: live,
			}
		}
		if quote.MinimumOrderQuantity > 0 && item.Quantity < quote.MinimumOrderQuantity {
			return nil, apperror.NewValidation("quantity",
				"product %d requires at least %d units, cart has %d", quote.ProductID, quote.MinimumOrderQuantity, item.Quantity)
		}

		if _, seen := quotes[quote.ProductID]; !seen {
			productIDs = append(productIDs, quote.ProductID)
		}
		quotes[quote.ProductID] = quote
		requested[quote.ProductID] += item.Quantity

		v.lines = append(v.lines, pricing.LineInput{
			CartItemID:   item.ID,
			ProductID:    item.ProductID,
			ProductType:  quote.Type,
			GarmentType:  quote.GarmentType,
			CatalogPrice: quote.UnitPrice,
			Quantity:     item.Quantity,
			Unit:         quote.Unit,
		})
	}

	for _, id := range productIDs {
		quote, qty := quotes[id], requested[id]
		if !quote.HasStock(qty) {
			return nil, &apperror.StockConflictError{ProductID: id, Requested: qty, Available: quote.StockQuantity}
		}
		if quote.TrackQuantity {
			v.decrements = append(v.decrements, StockDecrement{ProductID: id, Quantity: qty})
		}
	}

	return v, nil
}

func (o *Orchestrator) validatePackage(ctx context.Context, item cart.CartLineItem, tier *seller.PricingTier, now time.Time) (pricing.LineInput, error) {
	pkg, err := o.sellers.GetPackage(ctx, *item.PackageID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return pricing.LineInput{}, apperror.NewValidation("package_id", "package %d does not exist", *item.PackageID)
		}
		return pricing.LineInput{}, fmt.Errorf("failed to load package %d: %w", *item.PackageID, err)
	}
	if !pkg.IsActive {
		return pricing.LineInput{}, apperror.NewValidation("package_id", "package %d is not active", pkg.ID)
	}

	live, _, err := pricing.PackageUnitPrice(pkg, tier, now)
	if err != nil {
		return pricing.LineInput{}, err
	}
	if live != item.UnitPrice {
		return pricing.LineInput{}, &apperror.PriceChangedError{
			PackageID: item.PackageID,
			CartPrice: item.UnitPrice,
			LivePrice: live,
		}
	}

	return pricing.LineInput{
		CartItemID:  item.ID,
		PackageID:   item.PackageID,
		ProductType: catalog.ProductTypeService,
		Package:     pkg,
		Quantity:    item.Quantity,
		Unit:        "package",
	}, nil
}

// price resolves the group's discount and composes its totals
func (o *Orchestrator) price(ctx context.Context, req Request, v *validatedGroup) (*pricedGroup, error) {
	sellerID := v.seller.ID

	lines, err := o.calculator.PriceLines(v.lines, v.tier)
	if err != nil {
		return nil, err
	}

	var res *discount.Resolution
	if v.seller.Kind == catalog.SellerKindTailor {
		res, err = o.resolver.ResolveServiceTier(ctx, v.tier, discount.OrderContext{
			CustomerID:   req.CustomerID,
			SellerID:     sellerID,
			GarmentCount: pricing.GarmentCount(lines),
		})
		if err != nil {
			return nil, err
		}
	} else {
		res = o.resolver.ResolveBulk(sellerID, v.bulkTiers, goodsQuantity(lines))
	}

	quote, err := o.calculator.Calculate(pricing.OrderInput{
		Lines:           lines,
		Tier:            v.tier,
		SelectedCharges: req.SelectedCharges[sellerID],
		Discount:        res,
		ShippingCost:    req.ShippingCosts[sellerID],
	})
	if err != nil {
		return nil, err
	}

	if res.Capped {
		o.metrics.discountCapped(ctx)
	}
	if quote.NeedsReview {
		o.metrics.flaggedForReview(ctx)
		o.logger.WithFields(logrus.Fields{
			"customer_id": req.CustomerID,
			"seller_id":   sellerID,
			"subtotal":    quote.Subtotal,
			"discount":    quote.DiscountAmount,
		}).Error("Order total clamped to zero, flagged for seller review")
	}

	return &pricedGroup{quote: quote, resolution: res, pricedAt: o.clock.Now()}, nil
}

// commit holds the product locks for the duration of the store commit
func (o *Orchestrator) commit(ctx context.Context, cm *Commit) error {
	release := o.locks.acquire(cm.ProductIDs())
	defer release()
	return o.committer.Commit(ctx, cm)
}

func goodsQuantity(lines []pricing.PricedLine) int {
	n := 0
	for _, l := range lines {
		if l.ProductType == catalog.ProductTypeGoods {
			n += l.Quantity
		}
	}
	return n
}

func newRejection(sellerID uint, err error, trail []State) *RejectedGroup {
	return &RejectedGroup{
		SellerID: sellerID,
		Reason:   err.Error(),
		Code:     apperror.Code(err),
		Details:  apperror.Details(err),
		Trail:    trail,
		err:      err,
	}
}

// isGroupRejection reports whether err belongs to one group rather than
// the whole request.
func isGroupRejection(err error) bool {
	return apperror.Code(err) != "internal_error"
}
