// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/tailor-marketplace/internal/config"
	"github.com/your-org/tailor-marketplace/internal/interfaces/http/handlers"
	"github.com/your-org/tailor-marketplace/internal/interfaces/http/middleware"
)

// Handlers groups every handler the API routes to
type Handlers struct {
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Orders   *handlers.OrderHandler
	Sellers  *handlers.SellerHandler
	Catalog  *handlers.CatalogHandler
}

// SetupRoutes registers the versioned API on rg
func SetupRoutes(rg *gin.RouterGroup, h Handlers, cfg *config.Config) {
	SetupCatalogRoutes(rg, h)
	SetupCartRoutes(rg, h, cfg)
	SetupCheckoutRoutes(rg, h, cfg)
	SetupOrderRoutes(rg, h, cfg)
	SetupAdminRoutes(rg, h, cfg)
}

// SetupCatalogRoutes sets up public catalog routes
func SetupCatalogRoutes(rg *gin.RouterGroup, h Handlers) {
	products := rg.Group("/products")
	{
		products.GET("/:id/price", h.Catalog.GetProductPrice)
	}
}

// SetupCartRoutes sets up cart related routes
func SetupCartRoutes(rg *gin.RouterGroup, h Handlers, cfg *config.Config) {
	cart := rg.Group("/cart")
	cart.Use(middleware.AuthMiddleware(cfg))
	{
		cart.GET("", h.Cart.GetCart)
		cart.POST("/items", h.Cart.AddToCart)
		cart.PUT("/items/:id", h.Cart.UpdateCartItem)
		cart.DELETE("/items/:id", h.Cart.RemoveFromCart)
		cart.DELETE("", h.Cart.ClearCart)
	}
}

// SetupCheckoutRoutes sets up checkout routes
func SetupCheckoutRoutes(rg *gin.RouterGroup, h Handlers, cfg *config.Config) {
	checkout := rg.Group("/checkout")
	checkout.Use(middleware.AuthMiddleware(cfg))
	{
		checkout.GET("/quote", h.Checkout.GetQuote)
		checkout.POST("", h.Checkout.Checkout)
	}
}

// SetupOrderRoutes sets up customer order routes
func SetupOrderRoutes(rg *gin.RouterGroup, h Handlers, cfg *config.Config) {
	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.GET("", h.Orders.GetOrders)
		orders.GET("/:id", h.Orders.GetOrder)
	}
}

// SetupAdminRoutes sets up seller and catalog administration routes
func SetupAdminRoutes(rg *gin.RouterGroup, h Handlers, cfg *config.Config) {
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware())
	{
		admin.POST("/sellers", h.Catalog.CreateSeller)
		admin.POST("/products", h.Catalog.CreateProduct)
		admin.PUT("/products/:id/price", h.Catalog.UpdatePrice)
		admin.PUT("/products/:id/stock", h.Catalog.SetStock)
		admin.GET("/products/:id/movements", h.Catalog.GetStockMovements)

		sellers := admin.Group("/sellers/:id")
		{
			sellers.GET("/bulk-tiers", h.Sellers.GetBulkTiers)
			sellers.PUT("/bulk-tiers", h.Sellers.ReplaceBulkTiers)
			sellers.GET("/pricing-tier", h.Sellers.GetPricingTier)
			sellers.PUT("/pricing-tier", h.Sellers.SavePricingTier)
			sellers.POST("/packages", h.Sellers.CreatePackage)
			sellers.PUT("/orders/:orderId/fulfillment", h.Orders.UpdateFulfillment)
		}
	}
}
