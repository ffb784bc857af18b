package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shoutbase/shoutbase-auth/internal/domain"
	"github.com/shoutbase/shoutbase-auth/internal/tenant"
)

const tenantKey = "request.tenant"

// ResolveTenant loads the tenant named by the path parameter and rejects
// requests against unknown or deactivated tenants before any handler runs.
func ResolveTenant(resolver *tenant.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := TenantID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":             "not_found",
				"error_description": "Tenant not found.",
			})
			return
		}

		t, err := resolver.ByID(c.Request.Context(), tenantID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				zap.L().Error("tenant resolution failed", zap.Int64("tenant_id", tenantID), zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":             "server_error",
					"error_description": "Internal server error.",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":             "not_found",
				"error_description": "Tenant not found.",
			})
			return
		}
		if !t.Active {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":             "not_found",
				"error_description": "Tenant not found.",
			})
			return
		}

		c.Set(tenantKey, t)
		c.Next()
	}
}

// GetTenant returns the tenant resolved for this request.
func GetTenant(c *gin.Context) (domain.Tenant, bool) {
	value, ok := c.Get(tenantKey)
	if !ok {
		return domain.Tenant{}, false
	}
	t, ok := value.(domain.Tenant)
	return t, ok
}
