package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shoutbase/shoutbase-auth/internal/identity"
	"github.com/shoutbase/shoutbase-auth/internal/service"
)

const identityKey = "authIdentity"

// RefreshCookieName is the transport for refresh tokens. Access tokens travel
// in the Authorization header, never in a cookie.
const RefreshCookieName = "refresh-token"

// Auth guards requests by resolving a verified identity before handlers run.
type Auth struct {
	AuthService *service.AuthService
}

// Authenticate requires a valid bearer access token and attaches the
// resolved identity to the request context.
func (m *Auth) Authenticate(c *gin.Context) {
	raw, ok := bearerToken(c)
	if !ok {
		abortUnauthorized(c)
		return
	}

	ident, err := m.AuthService.AuthenticateAccess(c.Request.Context(), raw)
	if err != nil {
		abortUnauthorized(c)
		return
	}

	c.Set(identityKey, ident)
	c.Next()
}

// Public attaches an identity when a valid bearer token is present but never
// rejects the request; routes marked public proceed anonymously.
func (m *Auth) Public(c *gin.Context) {
	if raw, ok := bearerToken(c); ok {
		if ident, err := m.AuthService.AuthenticateAccess(c.Request.Context(), raw); err == nil {
			c.Set(identityKey, ident)
		}
	}
	c.Next()
}

// AuthenticateRefresh requires the refresh-token cookie and runs the full
// ledger validation: signature, revocation state, and stored-hash compare.
// All failure modes return the same client-visible error.
func (m *Auth) AuthenticateRefresh(c *gin.Context) {
	raw, err := c.Cookie(RefreshCookieName)
	if err != nil || strings.TrimSpace(raw) == "" {
		abortUnauthorized(c)
		return
	}

	ident, authErr := m.AuthService.AuthenticateRefresh(c.Request.Context(), raw)
	if authErr != nil {
		abortUnauthorized(c)
		return
	}

	c.Set(identityKey, ident)
	c.Next()
}

// GetIdentity extracts the resolved identity from the gin context.
func GetIdentity(c *gin.Context) (identity.Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return identity.Identity{}, false
	}
	ident, ok := value.(identity.Identity)
	return ident, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":             service.ErrUnauthorized.Code,
		"error_description": service.ErrUnauthorized.Description,
	})
}
