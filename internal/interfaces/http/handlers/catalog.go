// internal/interfaces/http/handlers/catalog.go
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/tailor-marketplace/internal/domain/catalog"
	"github.com/your-org/tailor-marketplace/internal/domain/inventory"
	"github.com/your-org/tailor-marketplace/internal/interfaces/http/middleware"
	"github.com/your-org/tailor-marketplace/internal/pkg/money"
)

// CatalogService manages sellers and products
type CatalogService interface {
	GetPrice(ctx context.Context, productID uint) (*catalog.PriceQuote, error)
	CreateSeller(ctx context.Context, req catalog.CreateSellerRequest) (*catalog.Seller, error)
	CreateProduct(ctx context.Context, req catalog.CreateProductRequest) (*catalog.Product, error)
	UpdatePrice(ctx context.Context, productID uint, price money.Amount) (*catalog.Product, error)
	SetStock(ctx context.Context, productID uint, quantity int, updatedBy uint) (*catalog.Product, error)
}

// StockLedger reads the stock movement history
type StockLedger interface {
	ListMovements(ctx context.Context, productID uint, limit int) ([]inventory.StockMovement, error)
}

// UpdatePriceRequest sets a product's live unit price
type UpdatePriceRequest struct {
	UnitPrice *money.Amount `json:"unit_price" binding:"required"`
}

// SetStockRequest sets a product's stock level
type SetStockRequest struct {
	StockQuantity *int `json:"stock_quantity" binding:"required"`
}

// CatalogHandler handles catalog endpoints
type CatalogHandler struct {
	catalogService CatalogService
	ledger         StockLedger
	logger         *logrus.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService CatalogService, ledger StockLedger, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, ledger: ledger, logger: logger}
}

// GetProductPrice handles GET /products/:id/price
func (h *CatalogHandler) GetProductPrice(c *gin.Context) {
	productID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	quote, err := h.catalogService.GetPrice(c.Request.Context(), productID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product price retrieved successfully",
		"data":    quote,
	})
}

// CreateSeller handles POST /admin/sellers
func (h *CatalogHandler) CreateSeller(c *gin.Context) {
	var req catalog.CreateSellerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	s, err := h.catalogService.CreateSeller(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Seller created successfully",
		"data":    s,
	})
}

// CreateProduct handles POST /admin/products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req catalog.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"data":    product,
	})
}

// UpdatePrice handles PUT /admin/products/:id/price
func (h *CatalogHandler) UpdatePrice(c *gin.Context) {
	productID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req UpdatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.catalogService.UpdatePrice(c.Request.Context(), productID, *req.UnitPrice)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product price updated successfully",
		"data":    product,
	})
}

// SetStock handles PUT /admin/products/:id/stock
func (h *CatalogHandler) SetStock(c *gin.Context) {
	productID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req SetStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	adminID, _ := middleware.GetUserIDFromContext(c)
	product, err := h.catalogService.SetStock(c.Request.Context(), productID, *req.StockQuantity, adminID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product stock updated successfully",
		"data":    product,
	})
}

// GetStockMovements handles GET /admin/products/:id/movements
func (h *CatalogHandler) GetStockMovements(c *gin.Context) {
	productID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	movements, err := h.ledger.ListMovements(c.Request.Context(), productID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stock movements retrieved successfully",
		"data":    movements,
	})
}
