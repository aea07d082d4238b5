package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/dhir4j/skillnation/internal/catalog"
	"github.com/dhir4j/skillnation/internal/checkout"
	"github.com/dhir4j/skillnation/internal/kvstore"
	"github.com/dhir4j/skillnation/internal/models"
	"github.com/dhir4j/skillnation/internal/session"
	"github.com/dhir4j/skillnation/internal/util"
)

// OrdersStore is the durable order surface the handlers need. *store.Store
// implements it.
type OrdersStore interface {
	CreateCourseOrder(ctx context.Context, userID int64, items []models.CartItem, total decimal.Decimal, reference string) (*models.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	CompleteOrder(ctx context.Context, orderID int64) error
}

// EventPublisher is the outgoing event surface. *broker.EventPublisher
// implements it.
type EventPublisher interface {
	checkout.Publisher
	PublishOrderCompleted(ctx context.Context, event *models.OrderCompletedEvent) error
}

// Handler contains HTTP handlers
type Handler struct {
	kv        kvstore.Store
	issuer    session.IdentityIssuer
	catalog   *catalog.Catalog
	orders    OrdersStore
	events    EventPublisher
	gateway   checkout.SettlementGateway
	checkouts *checkout.Registry
}

// NewHandler creates a new HTTP handler
func NewHandler(
	kv kvstore.Store,
	issuer session.IdentityIssuer,
	cat *catalog.Catalog,
	orders OrdersStore,
	events EventPublisher,
	gateway checkout.SettlementGateway,
) *Handler {
	return &Handler{
		kv:        kv,
		issuer:    issuer,
		catalog:   cat,
		orders:    orders,
		events:    events,
		gateway:   gateway,
		checkouts: checkout.NewRegistry(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/auth/register", h.register)
		apiGroup.POST("/auth/login", h.login)

		apiGroup.GET("/courses", h.listCourses)
		apiGroup.GET("/courses/:id", h.getCourse)

		authed := apiGroup.Group("")
		authed.Use(h.authRequired())
		{
			authed.GET("/auth/me", h.currentUser)
			authed.POST("/auth/logout", h.logout)

			authed.GET("/cart", h.getCart)
			authed.POST("/cart/items", h.addCartItem)
			authed.DELETE("/cart/items/:id", h.removeCartItem)
			authed.DELETE("/cart", h.clearCart)

			authed.POST("/checkout", h.startCheckout)
			authed.GET("/checkout", h.getCheckout)
			authed.POST("/checkout/proceed", h.proceedToPayment)
			authed.POST("/checkout/back", h.backToOverview)
			authed.POST("/checkout/pay", h.submitPayment)
			authed.DELETE("/checkout", h.cancelCheckout)

			authed.POST("/orders/create", h.createOrder)
			authed.POST("/orders/complete/:order_id", h.completeOrder)
			authed.GET("/orders/my-orders", h.myOrders)
			authed.GET("/orders/:id", h.getOrder)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// listCourses returns the full catalog
func (h *Handler) listCourses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"courses": h.catalog.All()})
}

// getCourse returns one catalog entry
func (h *Handler) getCourse(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course ID"})
		return
	}

	course, err := h.catalog.ByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"course": course})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
