package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/shoutbase/shoutbase-auth/internal/domain"
	"github.com/shoutbase/shoutbase-auth/internal/identity"
	"github.com/shoutbase/shoutbase-auth/internal/repository"
)

// TestimonialService handles the tenant-scoped testimonial workflow the
// guards protect: submission by editors, moderation by admins, and the
// public approved feed served to embeds.
type TestimonialService struct {
	testimonials repository.TestimonialRepository
	node         *snowflake.Node
	logger       *zap.Logger
}

// NewTestimonialService wires dependencies.
func NewTestimonialService(testimonials repository.TestimonialRepository, node *snowflake.Node, logger *zap.Logger) *TestimonialService {
	return &TestimonialService{testimonials: testimonials, node: node, logger: logger}
}

// ListApproved returns the publicly embeddable testimonials for a tenant.
func (s *TestimonialService) ListApproved(ctx context.Context, tenantID int64) ([]domain.Testimonial, error) {
	out, err := s.testimonials.ListByTenant(ctx, tenantID, domain.TestimonialApproved)
	if err != nil {
		return nil, fmt.Errorf("list approved testimonials: %w", err)
	}
	return out, nil
}

// ListAll returns every testimonial for moderation views.
func (s *TestimonialService) ListAll(ctx context.Context, tenantID int64) ([]domain.Testimonial, error) {
	out, err := s.testimonials.ListByTenant(ctx, tenantID, "")
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	return out, nil
}

// Create records a new testimonial in pending state.
func (s *TestimonialService) Create(ctx context.Context, ident identity.Identity, tenantID int64, authorName, body string, rating int) (domain.Testimonial, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.Testimonial{}, newAuthError("invalid_request", "Testimonial body is required.", 400)
	}
	if rating < 1 || rating > 5 {
		return domain.Testimonial{}, newAuthError("invalid_request", "Rating must be between 1 and 5.", 400)
	}

	created, err := s.testimonials.Create(ctx, domain.Testimonial{
		ID:         s.node.Generate().Int64(),
		TenantID:   tenantID,
		AuthorID:   ident.UserID,
		AuthorName: strings.TrimSpace(authorName),
		Body:       body,
		Rating:     rating,
		Status:     domain.TestimonialPending,
	})
	if err != nil {
		return domain.Testimonial{}, fmt.Errorf("create testimonial: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("testimonial submitted",
			zap.Int64("tenant_id", tenantID),
			zap.Int64("testimonial_id", created.ID),
			zap.Int64("author_id", ident.UserID),
		)
	}
	return created, nil
}

// Moderate transitions a testimonial to approved or rejected.
func (s *TestimonialService) Moderate(ctx context.Context, tenantID, id int64, status domain.TestimonialStatus) (domain.Testimonial, error) {
	if !status.Valid() || status == domain.TestimonialPending {
		return domain.Testimonial{}, newAuthError("invalid_request", "Status must be approved or rejected.", 400)
	}

	updated, err := s.testimonials.UpdateStatus(ctx, tenantID, id, status)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Testimonial{}, ErrNotFound
		}
		return domain.Testimonial{}, fmt.Errorf("moderate testimonial: %w", err)
	}
	return updated, nil
}
