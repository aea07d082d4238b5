package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dhir4j/skillnation/internal/checkout"
	"github.com/dhir4j/skillnation/internal/session"
)

type payRequest struct {
	Reference string `json:"reference" binding:"required"`
}

func checkoutState(f *checkout.Flow) gin.H {
	state := gin.H{
		"step":  f.Step(),
		"error": f.Err(),
	}
	if order := f.Order(); order != nil {
		state["order_id"] = order.ID
	}
	return state
}

// guardResponse maps entry-guard violations to the prerequisite screen. Guard
// violations are redirects, not hard errors.
func guardResponse(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, checkout.ErrLoginRequired):
		c.JSON(http.StatusConflict, gin.H{"error": "Login required", "redirect": "/login"})
		return true
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusConflict, gin.H{"error": "Cart is empty", "redirect": "/courses"})
		return true
	}
	return false
}

// startCheckout handles POST /api/checkout. A live, non-terminal flow is
// resumed; a terminal one is replaced.
func (h *Handler) startCheckout(c *gin.Context) {
	user := mustUser(c)

	if flow, ok := h.checkouts.Get(user.ID); ok && !flow.Step().IsTerminal() {
		c.JSON(http.StatusOK, checkoutState(flow))
		return
	}

	sess := c.MustGet(ctxSession).(*session.Manager)
	flow, err := checkout.New(c.Request.Context(), sess, h.cartFor(c), h.orders, h.events, h.gateway)
	if err != nil {
		h.checkouts.Remove(user.ID)
		if guardResponse(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to start checkout",
			"details": err.Error(),
		})
		return
	}

	h.checkouts.Put(user.ID, flow)
	c.JSON(http.StatusCreated, checkoutState(flow))
}

// getCheckout handles GET /api/checkout
func (h *Handler) getCheckout(c *gin.Context) {
	flow, ok := h.checkouts.Get(mustUser(c).ID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No checkout in progress"})
		return
	}
	c.JSON(http.StatusOK, checkoutState(flow))
}

// liveFlow fetches the caller's flow or responds 404
func (h *Handler) liveFlow(c *gin.Context) (*checkout.Flow, bool) {
	flow, ok := h.checkouts.Get(mustUser(c).ID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No checkout in progress"})
		return nil, false
	}
	return flow, true
}

// transitionError handles the outcome of a step transition. Guard failures
// evict the flow: its prerequisites vanished out-of-band.
func (h *Handler) transitionError(c *gin.Context, err error) {
	if errors.Is(err, checkout.ErrLoginRequired) || errors.Is(err, checkout.ErrEmptyCart) {
		h.checkouts.Remove(mustUser(c).ID)
		guardResponse(c, err)
		return
	}
	c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
}

// proceedToPayment handles POST /api/checkout/proceed
func (h *Handler) proceedToPayment(c *gin.Context) {
	flow, ok := h.liveFlow(c)
	if !ok {
		return
	}
	if err := flow.ProceedToPayment(c.Request.Context()); err != nil {
		h.transitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkoutState(flow))
}

// backToOverview handles POST /api/checkout/back
func (h *Handler) backToOverview(c *gin.Context) {
	flow, ok := h.liveFlow(c)
	if !ok {
		return
	}
	if err := flow.Back(c.Request.Context()); err != nil {
		h.transitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkoutState(flow))
}

// submitPayment handles POST /api/checkout/pay. A malformed reference leaves
// the flow in PAYMENT with an inline error; a valid one starts settlement.
func (h *Handler) submitPayment(c *gin.Context) {
	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	flow, ok := h.liveFlow(c)
	if !ok {
		return
	}

	if err := flow.SubmitReference(c.Request.Context(), req.Reference); err != nil {
		if errors.Is(err, checkout.ErrInvalidReference) {
			c.JSON(http.StatusUnprocessableEntity, checkoutState(flow))
			return
		}
		h.transitionError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, checkoutState(flow))
}

// cancelCheckout handles DELETE /api/checkout: navigation away aborts any
// in-flight settlement.
func (h *Handler) cancelCheckout(c *gin.Context) {
	h.checkouts.Remove(mustUser(c).ID)
	c.Status(http.StatusNoContent)
}
