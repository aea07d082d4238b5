package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dhir4j/skillnation/internal/models"
	"github.com/dhir4j/skillnation/internal/util"
)

type createOrderRequest struct {
	CourseIDs []int64 `json:"course_ids" binding:"required,min=1"`
}

// createOrder handles POST /api/orders/create
func (h *Handler) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	items := make([]models.CartItem, 0, len(req.CourseIDs))
	total := decimal.Zero
	for _, id := range req.CourseIDs {
		course, err := h.catalog.ByID(id)
		if err != nil {
			util.OrdersFailedTotal.WithLabelValues("unknown_course").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown course", "course_id": id})
			return
		}
		items = append(items, course.Snapshot())
		total = total.Add(course.Price)
	}

	user := mustUser(c)
	order, err := h.orders.CreateCourseOrder(c.Request.Context(), user.ID, items, total, "")
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create order",
			"details": err.Error(),
		})
		return
	}

	util.OrdersCreatedTotal.Inc()

	eventItems := make([]models.OrderItemData, 0, len(items))
	for _, item := range items {
		eventItems = append(eventItems, models.OrderItemData{
			CourseID:  item.ID,
			Title:     item.Title,
			UnitPrice: item.Price,
		})
	}
	event := &models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCreated,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Items:       eventItems,
	}
	if err := h.events.PublishOrderCreated(c.Request.Context(), event); err != nil {
		util.NamedLogger("api").Warn("failed to publish OrderCreated event")
	}

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// completeOrder handles POST /api/orders/complete/:order_id
func (h *Handler) completeOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, ok := h.ownedOrder(c, orderID)
	if !ok {
		return
	}

	if err := h.orders.CompleteOrder(c.Request.Context(), orderID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to complete order",
			"details": err.Error(),
		})
		return
	}

	util.OrdersCompletedTotal.Inc()

	event := &models.OrderCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCompleted,
			Timestamp: time.Now(),
		},
		OrderID: order.ID,
		UserID:  order.UserID,
	}
	if err := h.events.PublishOrderCompleted(c.Request.Context(), event); err != nil {
		util.NamedLogger("api").Warn("failed to publish OrderCompleted event")
	}

	order.Status = models.OrderStatusCompleted
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// myOrders handles GET /api/orders/my-orders
func (h *Handler) myOrders(c *gin.Context) {
	orders, err := h.orders.GetOrdersByUserID(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list orders",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// getOrder handles GET /api/orders/:id
func (h *Handler) getOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, ok := h.ownedOrder(c, orderID)
	if !ok {
		return
	}

	items, err := h.orders.GetOrderItemsByOrderID(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load order items",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order, "items": items})
}

// ownedOrder loads an order and hides other users' orders behind 404
func (h *Handler) ownedOrder(c *gin.Context, orderID int64) (*models.Order, bool) {
	order, err := h.orders.GetOrderByID(c.Request.Context(), orderID)
	if err != nil || order.UserID != mustUser(c).ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return nil, false
	}
	return order, true
}
