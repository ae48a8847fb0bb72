// internal/interfaces/http/handlers/order.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/tailor-marketplace/internal/domain/order"
	"github.com/your-org/tailor-marketplace/internal/interfaces/http/middleware"
)

// OrderService reads order snapshots and drives fulfillment
type OrderService interface {
	GetOrder(ctx context.Context, id, customerID uint) (*order.OrderSnapshot, error)
	ListOrders(ctx context.Context, req *order.OrderListRequest) (*order.OrderResponse, error)
	UpdateFulfillmentStatus(ctx context.Context, orderID, sellerID uint, req order.UpdateFulfillmentRequest, updatedBy uint) (*order.Fulfillment, error)
}

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService OrderService
	logger       *logrus.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService OrderService, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{orderService: orderService, logger: logger}
}

// GetOrders handles GET /orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, ok := customerID(c)
	if !ok {
		return
	}

	var req order.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.CustomerID = userID

	orders, err := h.orderService.ListOrders(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    orders,
	})
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := customerID(c)
	if !ok {
		return
	}
	orderID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	snap, err := h.orderService.GetOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    snap,
	})
}

// UpdateFulfillment handles PUT /admin/sellers/:id/orders/:orderId/fulfillment
func (h *OrderHandler) UpdateFulfillment(c *gin.Context) {
	sellerID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	orderID, ok := uintParam(c, "orderId")
	if !ok {
		return
	}

	var req order.UpdateFulfillmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	adminID, _ := middleware.GetUserIDFromContext(c)
	fulfillment, err := h.orderService.UpdateFulfillmentStatus(c.Request.Context(), orderID, sellerID, req, adminID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Fulfillment status updated successfully",
		"data":    fulfillment,
	})
}
