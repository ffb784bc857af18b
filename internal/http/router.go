package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/shoutbase/shoutbase-auth/internal/config"
	"github.com/shoutbase/shoutbase-auth/internal/domain"
	"github.com/shoutbase/shoutbase-auth/internal/http/handler"
	"github.com/shoutbase/shoutbase-auth/internal/http/middleware"
	"github.com/shoutbase/shoutbase-auth/internal/tenant"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(
	cfg config.Config,
	authHandler *handler.AuthHandler,
	testimonialHandler *handler.TestimonialHandler,
	auth *middleware.Auth,
	resolver *tenant.Resolver,
	logger *zap.Logger,
) *gin.Engine {
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", auth.AuthenticateRefresh, authHandler.Refresh)

		authGroup.POST("/logout", auth.Authenticate, authHandler.Logout)
		authGroup.GET("/me", auth.Authenticate, authHandler.Me)
		authGroup.PATCH("/profile", auth.Authenticate, authHandler.UpdateProfile)
	}

	tenants := r.Group("/tenants/:tenantID", middleware.ResolveTenant(resolver))
	{
		tenants.GET("/testimonials", auth.Public, testimonialHandler.List)
		tenants.POST("/testimonials",
			auth.Authenticate,
			middleware.RequireRoles(domain.RoleEditor, domain.RoleAdmin, domain.RoleSuperAdmin),
			testimonialHandler.Create,
		)
		tenants.PATCH("/testimonials/:id/status",
			auth.Authenticate,
			middleware.RequireRoles(domain.RoleAdmin, domain.RoleSuperAdmin),
			testimonialHandler.Moderate,
		)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
