package service_test

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shoutbase/shoutbase-auth/internal/domain"
	"github.com/shoutbase/shoutbase-auth/internal/identity"
	"github.com/shoutbase/shoutbase-auth/internal/service"
)

func newTestimonialService(t *testing.T) (*service.TestimonialService, *memoryTestimonialRepo) {
	t.Helper()
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	repo := &memoryTestimonialRepo{}
	return service.NewTestimonialService(repo, node, zap.NewNop()), repo
}

func TestTestimonialStartsPending(t *testing.T) {
	svc, _ := newTestimonialService(t)
	ident := identity.Identity{UserID: 7}

	created, err := svc.Create(context.Background(), ident, 100, "Alice", "Great product!", 5)
	require.NoError(t, err)
	require.Equal(t, domain.TestimonialPending, created.Status)
	require.Equal(t, int64(7), created.AuthorID)
	require.Equal(t, int64(100), created.TenantID)
}

func TestTestimonialValidation(t *testing.T) {
	svc, _ := newTestimonialService(t)
	ident := identity.Identity{UserID: 7}
	ctx := context.Background()

	_, err := svc.Create(ctx, ident, 100, "Alice", "   ", 5)
	require.Error(t, err)

	_, err = svc.Create(ctx, ident, 100, "Alice", "Fine", 0)
	require.Error(t, err)
	_, err = svc.Create(ctx, ident, 100, "Alice", "Fine", 6)
	require.Error(t, err)
}

func TestModerateTransitions(t *testing.T) {
	svc, _ := newTestimonialService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, identity.Identity{UserID: 7}, 100, "Alice", "Great!", 5)
	require.NoError(t, err)

	approved, err := svc.Moderate(ctx, 100, created.ID, domain.TestimonialApproved)
	require.NoError(t, err)
	require.Equal(t, domain.TestimonialApproved, approved.Status)

	// Moderation cannot move a testimonial back to pending.
	_, err = svc.Moderate(ctx, 100, created.ID, domain.TestimonialPending)
	require.Error(t, err)
	_, err = svc.Moderate(ctx, 100, created.ID, domain.TestimonialStatus("bogus"))
	require.Error(t, err)
}

func TestModerateIsTenantScoped(t *testing.T) {
	svc, _ := newTestimonialService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, identity.Identity{UserID: 7}, 100, "Alice", "Great!", 5)
	require.NoError(t, err)

	_, err = svc.Moderate(ctx, 200, created.ID, domain.TestimonialApproved)
	require.Same(t, service.ErrNotFound, err)
}

func TestListApprovedFiltersStatus(t *testing.T) {
	svc, repo := newTestimonialService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, identity.Identity{UserID: 7}, 100, "Alice", "Great!", 5)
	require.NoError(t, err)
	_, err = svc.Create(ctx, identity.Identity{UserID: 8}, 100, "Bob", "Meh.", 2)
	require.NoError(t, err)

	_, err = svc.Moderate(ctx, 100, first.ID, domain.TestimonialApproved)
	require.NoError(t, err)

	approved, err := svc.ListApproved(ctx, 100)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	require.Equal(t, first.ID, approved[0].ID)

	all, err := svc.ListAll(ctx, 100)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Len(t, repo.items, 2)
}

type memoryTestimonialRepo struct {
	items []domain.Testimonial
}

func (m *memoryTestimonialRepo) Create(ctx context.Context, t domain.Testimonial) (domain.Testimonial, error) {
	m.items = append(m.items, t)
	return t, nil
}

func (m *memoryTestimonialRepo) GetByID(ctx context.Context, tenantID, id int64) (domain.Testimonial, error) {
	for _, item := range m.items {
		if item.TenantID == tenantID && item.ID == id {
			return item, nil
		}
	}
	return domain.Testimonial{}, domain.ErrNotFound
}

func (m *memoryTestimonialRepo) ListByTenant(ctx context.Context, tenantID int64, status domain.TestimonialStatus) ([]domain.Testimonial, error) {
	var out []domain.Testimonial
	for _, item := range m.items {
		if item.TenantID != tenantID {
			continue
		}
		if status != "" && item.Status != status {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (m *memoryTestimonialRepo) UpdateStatus(ctx context.Context, tenantID, id int64, status domain.TestimonialStatus) (domain.Testimonial, error) {
	for i, item := range m.items {
		if item.TenantID == tenantID && item.ID == id {
			m.items[i].Status = status
			return m.items[i], nil
		}
	}
	return domain.Testimonial{}, domain.ErrNotFound
}
