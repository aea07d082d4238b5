package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dhir4j/skillnation/internal/cart"
)

type addCartItemRequest struct {
	CourseID int64 `json:"course_id" binding:"required"`
}

func cartState(m *cart.Manager) gin.H {
	return gin.H{
		"items":        m.Items(),
		"total_amount": m.TotalAmount(),
		"count":        m.Count(),
	}
}

// getCart handles GET /api/cart
func (h *Handler) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, cartState(h.cartFor(c)))
}

// addCartItem handles POST /api/cart/items. The item stored is a snapshot of
// the catalog entry; adding a course already in the cart is a no-op.
func (h *Handler) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	course, err := h.catalog.ByID(req.CourseID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}

	m := h.cartFor(c)
	m.Add(c.Request.Context(), course.Snapshot())

	c.JSON(http.StatusCreated, cartState(m))
}

// removeCartItem handles DELETE /api/cart/items/:id
func (h *Handler) removeCartItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course ID"})
		return
	}

	m := h.cartFor(c)
	m.Remove(c.Request.Context(), id)

	c.JSON(http.StatusOK, cartState(m))
}

// clearCart handles DELETE /api/cart
func (h *Handler) clearCart(c *gin.Context) {
	m := h.cartFor(c)
	m.Clear(c.Request.Context())
	c.Status(http.StatusNoContent)
}
