package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shoutbase/shoutbase-auth/internal/domain"
	"github.com/shoutbase/shoutbase-auth/internal/service"
)

// TenantParam is the path parameter carrying the tenant scope.
const TenantParam = "tenantID"

// RequireRoles denies the request unless the caller's membership in the
// tenant named by the path holds one of the given roles. An empty role set
// allows any request through. Forbidden is distinct from Unauthorized: the
// identity is known but lacks privilege.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(roles) == 0 {
			c.Next()
			return
		}

		ident, ok := GetIdentity(c)
		if !ok {
			abortUnauthorized(c)
			return
		}

		tenantID, err := strconv.ParseInt(c.Param(TenantParam), 10, 64)
		if err != nil || tenantID <= 0 {
			abortForbidden(c)
			return
		}

		if !ident.HasRole(tenantID, roles...) {
			abortForbidden(c)
			return
		}

		c.Next()
	}
}

// TenantID parses the tenant scope from the request path.
func TenantID(c *gin.Context) (int64, bool) {
	tenantID, err := strconv.ParseInt(c.Param(TenantParam), 10, 64)
	if err != nil || tenantID <= 0 {
		return 0, false
	}
	return tenantID, true
}

func abortForbidden(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"error":             service.ErrForbidden.Code,
		"error_description": service.ErrForbidden.Description,
	})
}
