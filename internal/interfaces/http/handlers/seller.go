// internal/interfaces/http/handlers/seller.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/tailor-marketplace/internal/domain/seller"
)

// SellerService manages seller discount configuration
type SellerService interface {
	GetBulkDiscountTiers(ctx context.Context, sellerID uint) ([]seller.BulkDiscountTier, error)
	GetPricingTier(ctx context.Context, sellerID uint) (*seller.PricingTier, error)
	ReplaceBulkDiscountTiers(ctx context.Context, sellerID uint, req seller.ReplaceBulkTiersRequest) ([]seller.BulkDiscountTier, error)
	SavePricingTier(ctx context.Context, sellerID uint, req seller.SavePricingTierRequest) (*seller.PricingTier, error)
	CreatePackage(ctx context.Context, sellerID uint, req seller.CreatePackageRequest) (*seller.Package, error)
}

// SellerHandler handles seller pricing administration
type SellerHandler struct {
	sellerService SellerService
	logger        *logrus.Logger
}

// NewSellerHandler creates a new seller handler
func NewSellerHandler(sellerService SellerService, logger *logrus.Logger) *SellerHandler {
	return &SellerHandler{sellerService: sellerService, logger: logger}
}

// GetBulkTiers handles GET /admin/sellers/:id/bulk-tiers
func (h *SellerHandler) GetBulkTiers(c *gin.Context) {
	sellerID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	tiers, err := h.sellerService.GetBulkDiscountTiers(c.Request.Context(), sellerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Bulk discount tiers retrieved successfully",
		"data":    tiers,
	})
}

// ReplaceBulkTiers handles PUT /admin/sellers/:id/bulk-tiers
func (h *SellerHandler) ReplaceBulkTiers(c *gin.Context) {
	sellerID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req seller.ReplaceBulkTiersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	tiers, err := h.sellerService.ReplaceBulkDiscountTiers(c.Request.Context(), sellerID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Bulk discount tiers updated successfully",
		"data":    tiers,
	})
}

// GetPricingTier handles GET /admin/sellers/:id/pricing-tier
func (h *SellerHandler) GetPricingTier(c *gin.Context) {
	sellerID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	tier, err := h.sellerService.GetPricingTier(c.Request.Context(), sellerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Pricing tier retrieved successfully",
		"data":    tier,
	})
}

// SavePricingTier handles PUT /admin/sellers/:id/pricing-tier
func (h *SellerHandler) SavePricingTier(c *gin.Context) {
	sellerID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req seller.SavePricingTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	tier, err := h.sellerService.SavePricingTier(c.Request.Context(), sellerID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Pricing tier saved successfully",
		"data":    tier,
	})
}

// CreatePackage handles POST /admin/sellers/:id/packages
func (h *SellerHandler) CreatePackage(c *gin.Context) {
	sellerID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req seller.CreatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	pkg, err := h.sellerService.CreatePackage(c.Request.Context(), sellerID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Package created successfully",
		"data":    pkg,
	})
}
