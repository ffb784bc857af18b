// Package tenant resolves tenant records for request handling, with an
// optional cache in front of the directory.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shoutbase/shoutbase-auth/internal/domain"
	"github.com/shoutbase/shoutbase-auth/internal/repository"
)

const cacheTTL = 5 * time.Minute

// Cache is the lookup cache in front of the tenant directory. A nil Cache
// disables caching.
type Cache interface {
	Get(ctx context.Context, key string) (*domain.Tenant, error)
	Set(ctx context.Context, key string, tenant domain.Tenant, ttl time.Duration) error
}

// Resolver loads tenants by id or slug.
type Resolver struct {
	repo  repository.TenantRepository
	cache Cache
}

// NewResolver creates a tenant resolver.
func NewResolver(repo repository.TenantRepository, cache Cache) *Resolver {
	return &Resolver{repo: repo, cache: cache}
}

// ByID resolves a tenant by numeric id.
func (r *Resolver) ByID(ctx context.Context, tenantID int64) (domain.Tenant, error) {
	key := "tenant:id:" + strconv.FormatInt(tenantID, 10)
	if cached := r.fromCache(ctx, key); cached != nil {
		return *cached, nil
	}

	tenant, err := r.repo.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Tenant{}, err
		}
		return domain.Tenant{}, fmt.Errorf("resolve tenant: %w", err)
	}

	r.toCache(ctx, key, tenant)
	return tenant, nil
}

// BySlug resolves a tenant by its URL slug.
func (r *Resolver) BySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	cleaned := strings.ToLower(strings.TrimSpace(slug))
	if cleaned == "" {
		return domain.Tenant{}, domain.ErrNotFound
	}

	key := "tenant:slug:" + cleaned
	if cached := r.fromCache(ctx, key); cached != nil {
		return *cached, nil
	}

	tenant, err := r.repo.GetBySlug(ctx, cleaned)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Tenant{}, err
		}
		return domain.Tenant{}, fmt.Errorf("resolve tenant by slug: %w", err)
	}

	r.toCache(ctx, key, tenant)
	return tenant, nil
}

func (r *Resolver) fromCache(ctx context.Context, key string) *domain.Tenant {
	if r.cache == nil {
		return nil
	}
	cached, err := r.cache.Get(ctx, key)
	if err != nil {
		zap.L().Warn("tenant cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	return cached
}

func (r *Resolver) toCache(ctx context.Context, key string, tenant domain.Tenant) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, key, tenant, cacheTTL); err != nil {
		zap.L().Warn("tenant cache write failed", zap.String("key", key), zap.Error(err))
	}
}
