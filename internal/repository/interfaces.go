package repository

import (
	"context"

	"github.com/shoutbase/shoutbase-auth/internal/domain"
)

// UserRepository exposes persistence for platform users.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, userID int64) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
	Update(ctx context.Context, user domain.User) (domain.User, error)
}

// ProfileRepository handles the one-to-one user profile rows.
type ProfileRepository interface {
	Create(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error)
	GetByUserID(ctx context.Context, userID int64) (domain.UserProfile, error)
	Update(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error)
}

// MembershipRepository exposes tenant-membership lookups.
type MembershipRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]domain.Membership, error)
	GetByUserAndTenant(ctx context.Context, userID, tenantID int64) (domain.Membership, error)
	Create(ctx context.Context, membership domain.Membership) (domain.Membership, error)
}

// TenantRepository exposes tenant directory lookups.
type TenantRepository interface {
	GetByID(ctx context.Context, tenantID int64) (domain.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (domain.Tenant, error)
	Create(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error)
}

// RefreshTokenRepository is the revocation ledger for signed refresh tokens.
// Create persists a placeholder row first so the row id can be embedded in
// the token claims; StoreHash completes the two-phase creation.
type RefreshTokenRepository interface {
	Create(ctx context.Context, record domain.RefreshToken) (domain.RefreshToken, error)
	StoreHash(ctx context.Context, tokenID int64, hash string) error
	GetByID(ctx context.Context, tokenID int64) (domain.RefreshToken, error)
	Revoke(ctx context.Context, tokenID int64) error
	RevokeAllActive(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context, userID int64) error
}

// TestimonialRepository persists tenant-scoped testimonials.
type TestimonialRepository interface {
	Create(ctx context.Context, t domain.Testimonial) (domain.Testimonial, error)
	GetByID(ctx context.Context, tenantID, id int64) (domain.Testimonial, error)
	ListByTenant(ctx context.Context, tenantID int64, status domain.TestimonialStatus) ([]domain.Testimonial, error)
	UpdateStatus(ctx context.Context, tenantID, id int64, status domain.TestimonialStatus) (domain.Testimonial, error)
}

// TxManager runs a function inside a single database transaction. Repository
// calls made with the context it passes join that transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
