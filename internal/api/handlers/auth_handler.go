package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/formguard/internal/api/middleware"
	"github.com/Wikid82/formguard/internal/services"
)

type AuthHandler struct {
	authService *services.AuthService
	secure      bool
}

// NewAuthHandler returns an AuthHandler. secure marks the auth cookie
// HTTPS-only and should be set in production.
func NewAuthHandler(authService *services.AuthService, secure bool) *AuthHandler {
	return &AuthHandler{authService: authService, secure: secure}
}

// setAuthCookie sets an HttpOnly, SameSite=Strict auth cookie.
func (h *AuthHandler) setAuthCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AuthCookieName, value, maxAge, "/", "", h.secure, true)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, services.ErrAccountLocked) || errors.Is(err, services.ErrAccountDisabled) {
			status = http.StatusForbidden
		}
		middleware.GetRequestLogger(c).WithError(err).Warn("admin login failed")
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	h.setAuthCookie(c, token, 3600*24)
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.setAuthCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.authService.GetUserByID(c.GetUint("userID"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": u.ID,
		"role":    u.Role,
		"name":    u.Name,
		"email":   u.Email,
	})
}
