package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dhir4j/skillnation/internal/cart"
	"github.com/dhir4j/skillnation/internal/models"
	"github.com/dhir4j/skillnation/internal/session"
)

const (
	ctxSession = "session"
	ctxUser    = "user"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// register handles POST /api/auth/register
func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	sess := session.NewManager(h.kv, h.issuer, "")
	user, err := sess.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.authError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user, "token": sess.Token()})
}

// login handles POST /api/auth/login
func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	sess := session.NewManager(h.kv, h.issuer, "")
	user, err := sess.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.authError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "token": sess.Token()})
}

func (h *Handler) authError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, session.ErrServiceUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Auth service unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Authentication failed",
			"details": err.Error(),
		})
	}
}

// currentUser handles GET /api/auth/me
func (h *Handler) currentUser(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": mustUser(c)})
}

// logout handles POST /api/auth/logout
func (h *Handler) logout(c *gin.Context) {
	sess := c.MustGet(ctxSession).(*session.Manager)
	h.checkouts.Remove(mustUser(c).ID)
	sess.Logout(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// authRequired resolves the bearer token into a session manager and restores
// the persisted user; requests without a valid session get 401.
func (h *Handler) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		sess := session.NewManager(h.kv, h.issuer, token)
		sess.Restore(c.Request.Context())

		user := sess.User()
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		c.Set(ctxSession, sess)
		c.Set(ctxUser, user)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

func mustUser(c *gin.Context) *models.User {
	return c.MustGet(ctxUser).(*models.User)
}

// cartFor builds the restored cart manager for the authenticated user
func (h *Handler) cartFor(c *gin.Context) *cart.Manager {
	m := cart.NewManager(h.kv, mustUser(c).ID)
	m.Restore(c.Request.Context())
	return m
}
