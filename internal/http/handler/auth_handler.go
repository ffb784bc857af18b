package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shoutbase/shoutbase-auth/internal/config"
	"github.com/shoutbase/shoutbase-auth/internal/http/middleware"
	"github.com/shoutbase/shoutbase-auth/internal/service"
)

// AuthHandler exposes the authentication endpoints.
type AuthHandler struct {
	Auth *service.AuthService
	cfg  config.Config
}

// NewAuthHandler creates the handler set.
func NewAuthHandler(auth *service.AuthService, cfg config.Config) *AuthHandler {
	return &AuthHandler{Auth: auth, cfg: cfg}
}

// Register creates a new account. Tokens are issued only when auto-login is
// configured; the refresh token then travels solely via the cookie.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid payload."})
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Email and password are required."})
		return
	}

	result, err := h.Auth.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if result.Session != nil {
		h.setRefreshCookie(c, result.Session.RefreshToken)
		c.JSON(http.StatusCreated, result.Session)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": result.User})
}

// Login exchanges credentials for a token pair. The access token is returned
// in the body; the refresh token is set as an HTTP-only cookie and stripped
// from the body.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid payload."})
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Email and password are required."})
		return
	}

	session, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.setRefreshCookie(c, session.RefreshToken)
	c.JSON(http.StatusOK, session)
}

// Refresh rotates the refresh token presented via cookie. The guard has
// already bound the ledger row to the identity.
func (h *AuthHandler) Refresh(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		respondServiceError(c, service.ErrUnauthorized)
		return
	}

	session, err := h.Auth.Refresh(c.Request.Context(), ident)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.setRefreshCookie(c, session.RefreshToken)
	c.JSON(http.StatusOK, session)
}

// Logout revokes all of the caller's refresh tokens and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		respondServiceError(c, service.ErrUnauthorized)
		return
	}

	if err := h.Auth.Logout(c.Request.Context(), ident); err != nil {
		respondServiceError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

// Me returns the authenticated user with profile and memberships.
func (h *AuthHandler) Me(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		respondServiceError(c, service.ErrUnauthorized)
		return
	}

	user, profile, memberships, err := h.Auth.Me(c.Request.Context(), ident)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":              user,
		"profile":           profile,
		"tenantMemberships": memberships,
	})
}

// UpdateProfile patches the caller's profile fields.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		respondServiceError(c, service.ErrUnauthorized)
		return
	}

	var req struct {
		AvatarURL *string           `json:"avatarUrl"`
		Bio       *string           `json:"bio"`
		Metadata  map[string]string `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid payload."})
		return
	}

	profile, err := h.Auth.UpdateProfile(c.Request.Context(), ident, req.AvatarURL, req.Bio, req.Metadata)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, refreshToken string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		middleware.RefreshCookieName,
		refreshToken,
		int(h.cfg.RefreshTokenTTL.Seconds()),
		"/",
		h.cfg.CookieDomain,
		h.cfg.Production(),
		true,
	)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.RefreshCookieName, "", -1, "/", h.cfg.CookieDomain, h.cfg.Production(), true)
}

func respondServiceError(c *gin.Context, err error) {
	var authErr *service.AuthError
	if errors.As(err, &authErr) {
		c.JSON(authErr.Status, gin.H{"error": authErr.Code, "error_description": authErr.Description})
		return
	}
	zap.L().Error("auth service failure", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": "Internal server error."})
}
