// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/tailor-marketplace/internal/domain/checkout"
	"github.com/your-org/tailor-marketplace/internal/pkg/money"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	saveAttempts         = 3
)

// CheckoutService runs and previews checkouts
type CheckoutService interface {
	Checkout(ctx context.Context, req checkout.Request) (*checkout.Report, error)
	Quote(ctx context.Context, req checkout.Request) (*checkout.Preview, error)
}

// IdempotencyStore deduplicates retried checkout submissions
type IdempotencyStore interface {
	Begin(ctx context.Context, customerID uint, key string) (*checkout.Report, error)
	Save(ctx context.Context, customerID uint, key string, report *checkout.Report) error
	Release(ctx context.Context, customerID uint, key string) error
}

// CheckoutRequest is the checkout body. Map keys are seller IDs.
type CheckoutRequest struct {
	SellerID *uint                 `json:"seller_id"`
	Shipping map[uint]money.Amount `json:"shipping"`
	Charges  map[uint][]string     `json:"charges"`
}

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct {
	checkout CheckoutService
	idem     IdempotencyStore
	logger   *logrus.Logger
}

// NewCheckoutHandler creates a new checkout handler. idem may be nil, in
// which case Idempotency-Key headers are ignored.
func NewCheckoutHandler(svc CheckoutService, idem IdempotencyStore, logger *logrus.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: svc, idem: idem, logger: logger}
}

// GetQuote handles GET /checkout/quote
func (h *CheckoutHandler) GetQuote(c *gin.Context) {
	userID, ok := customerID(c)
	if !ok {
		return
	}

	req := checkout.Request{CustomerID: userID}
	if raw := c.Query("seller_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid seller_id", "code": "validation_error"})
			return
		}
		sellerID := uint(id)
		req.SellerID = &sellerID
	}

	preview, err := h.checkout.Quote(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout quote calculated successfully",
		"data":    preview,
	})
}

// Checkout handles POST /checkout
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	userID, ok := customerID(c)
	if !ok {
		return
	}

	var body CheckoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err)
			return
		}
	}
	for sellerID, cost := range body.Shipping {
		if cost < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Shipping cost must not be negative",
				"code":    "validation_error",
				"details": gin.H{"seller_id": sellerID},
			})
			return
		}
	}

	ctx := c.Request.Context()
	key := c.GetHeader(headerIdempotencyKey)
	if key != "" && h.idem != nil {
		prior, err := h.idem.Begin(ctx, userID, key)
		switch {
		case errors.Is(err, checkout.ErrCheckoutInProgress):
			c.JSON(http.StatusConflict, gin.H{
				"error": "A checkout with this idempotency key is already in progress",
				"code":  "checkout_in_progress",
			})
			return
		case err != nil:
			respondError(c, h.logger, err)
			return
		case prior != nil:
			c.Header("Idempotency-Replayed", "true")
			h.writeReport(c, prior)
			return
		}
	}

	report, err := h.checkout.Checkout(ctx, checkout.Request{
		CustomerID:      userID,
		SellerID:        body.SellerID,
		ShippingCosts:   body.Shipping,
		SelectedCharges: body.Charges,
	})
	if err != nil {
		if key != "" && h.idem != nil {
			if rerr := h.idem.Release(context.WithoutCancel(ctx), userID, key); rerr != nil {
				h.logger.WithError(rerr).Warn("Failed to release idempotency key")
			}
		}
		respondError(c, h.logger, err)
		return
	}

	if key != "" && h.idem != nil {
		h.storeReport(context.WithoutCancel(ctx), userID, key, report)
	}

	h.writeReport(c, report)
}

// storeReport saves the report under the claimed key. If the store keeps
// failing the claim is released rather than left pending. A retry then runs
// a fresh checkout, which finds the committed cart lines gone.
func (h *CheckoutHandler) storeReport(ctx context.Context, userID uint, key string, report *checkout.Report) {
	var err error
	for attempt := 0; attempt < saveAttempts; attempt++ {
		if err = h.idem.Save(ctx, userID, key, report); err == nil {
			return
		}
	}

	entry := h.logger.WithError(err).WithField("checkout_id", report.CheckoutID)
	if rerr := h.idem.Release(ctx, userID, key); rerr != nil {
		entry.WithField("release_error", rerr.Error()).Error("Failed to store checkout result; idempotency key stays claimed until it expires")
		return
	}
	entry.Error("Failed to store checkout result; released idempotency key")
}

// writeReport answers 201 when any group confirmed, otherwise 409 with
// every group's rejection.
func (h *CheckoutHandler) writeReport(c *gin.Context, report *checkout.Report) {
	if len(report.Confirmed) == 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error": "No seller group could be confirmed",
			"code":  "checkout_rejected",
			"data":  report,
		})
		return
	}

	message := "Checkout completed successfully"
	if len(report.Rejected) > 0 {
		message = "Checkout partially completed"
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": message,
		"data":    report,
	})
}
