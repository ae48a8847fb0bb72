// internal/domain/checkout/snapshot.go
package checkout

import (
	"time"

	"github.com/your-org/tailor-marketplace/internal/domain/order"
	"github.com/your-org/tailor-marketplace/internal/domain/pricing"
)

// buildSnapshot turns a priced quote into the order snapshot a confirmed
// group persists. The snapshot carries copies of every value it shows.
func buildSnapshot(checkoutID string, customerID, sellerID uint, currency string, pricedAt time.Time, q *pricing.Quote) *order.OrderSnapshot {
	snap := &order.OrderSnapshot{
		OrderNumber:        order.GenerateOrderNumber(pricedAt, checkoutID, sellerID),
		CheckoutID:         checkoutID,
		CustomerID:         customerID,
		SellerID:           sellerID,
		Currency:           currency,
		LinesSubtotal:      q.LinesSubtotal,
		ChargesTotal:       q.ChargesTotal,
		Subtotal:           q.Subtotal,
		DiscountBase:       q.DiscountBase,
		DiscountPercentage: q.DiscountPercentage,
		DiscountAmount:     q.DiscountAmount,
		ShippingCost:       q.ShippingCost,
		GrandTotal:         q.FinalTotal,
		NeedsReview:        q.NeedsReview,
		ReviewReason:       q.ReviewReason,
		PricedAt:           pricedAt,
	}

	for _, l := range q.Lines {
		snap.Lines = append(snap.Lines, order.OrderLine{
			ProductID:    l.ProductID,
			PackageID:    l.PackageID,
			ProductType:  string(l.ProductType),
			GarmentType:  string(l.GarmentType),
			PricedAs:     string(l.PricedAs),
			UnitPrice:    l.UnitPrice,
			Quantity:     l.Quantity,
			LineTotal:    l.LineTotal,
			GarmentCount: l.GarmentCount,
			Discountable: l.Discountable,
			Unit:         l.Unit,
		})
	}

	for _, ch := range q.Charges {
		snap.Charges = append(snap.Charges, order.OrderCharge{ChargeType: ch.Type, Amount: ch.Amount})
	}

	for _, d := range q.Discounts {
		snap.Discounts = append(snap.Discounts, order.AppliedDiscount{
			Source:          string(d.Source),
			Percentage:      d.Percentage,
			Amount:          d.Amount,
			IncludedInPrice: d.IncludedInPrice,
		})
	}

	return snap
}
