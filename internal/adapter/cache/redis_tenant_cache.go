package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shoutbase/shoutbase-auth/internal/domain"
	"github.com/shoutbase/shoutbase-auth/internal/tenant"
)

// RedisTenantCache implements tenant.Cache backed by Redis.
type RedisTenantCache struct {
	client redis.UniversalClient
}

var _ tenant.Cache = (*RedisTenantCache)(nil)

// NewRedisTenantCache constructs a Redis-backed tenant cache.
func NewRedisTenantCache(client redis.UniversalClient) *RedisTenantCache {
	return &RedisTenantCache{client: client}
}

// Get loads and decodes a cached tenant. A miss returns (nil, nil).
func (c *RedisTenantCache) Get(ctx context.Context, key string) (*domain.Tenant, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("load tenant: %w", err)
	}
	var t domain.Tenant
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, fmt.Errorf("decode tenant: %w", err)
	}
	return &t, nil
}

// Set stores the encoded tenant with a TTL.
func (c *RedisTenantCache) Set(ctx context.Context, key string, t domain.Tenant, ttl time.Duration) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode tenant: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("persist tenant: %w", err)
	}
	return nil
}
