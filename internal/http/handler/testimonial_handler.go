package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shoutbase/shoutbase-auth/internal/domain"
	"github.com/shoutbase/shoutbase-auth/internal/http/middleware"
	"github.com/shoutbase/shoutbase-auth/internal/service"
)

// TestimonialHandler exposes the tenant testimonial endpoints.
type TestimonialHandler struct {
	Testimonials *service.TestimonialService
}

func NewTestimonialHandler(testimonials *service.TestimonialService) *TestimonialHandler {
	return &TestimonialHandler{Testimonials: testimonials}
}

// List returns approved testimonials for anonymous callers. Members with a
// moderation role on the tenant see every entry.
func (h *TestimonialHandler) List(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid tenant id."})
		return
	}

	var (
		items []domain.Testimonial
		err   error
	)
	if ident, authed := middleware.GetIdentity(c); authed && ident.HasRole(tenantID, domain.RoleAdmin, domain.RoleSuperAdmin) {
		items, err = h.Testimonials.ListAll(c.Request.Context(), tenantID)
	} else {
		items, err = h.Testimonials.ListApproved(c.Request.Context(), tenantID)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"testimonials": items})
}

// Create submits a testimonial for moderation.
func (h *TestimonialHandler) Create(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid tenant id."})
		return
	}
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		respondServiceError(c, service.ErrUnauthorized)
		return
	}

	var req struct {
		AuthorName string `json:"authorName"`
		Body       string `json:"body"`
		Rating     int    `json:"rating"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid payload."})
		return
	}

	item, err := h.Testimonials.Create(c.Request.Context(), ident, tenantID, req.AuthorName, req.Body, req.Rating)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"testimonial": item})
}

// Moderate approves or rejects a pending testimonial.
func (h *TestimonialHandler) Moderate(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid tenant id."})
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid testimonial id."})
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid payload."})
		return
	}

	item, err := h.Testimonials.Moderate(c.Request.Context(), tenantID, id, domain.TestimonialStatus(req.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"testimonial": item})
}
