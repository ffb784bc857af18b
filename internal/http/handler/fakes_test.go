package handler_test

import (
	"context"
	"time"

	"github.com/shoutbase/shoutbase-auth/internal/domain"
)

type noTx struct{}

func (noTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeUserRepo struct {
	byID    map[int64]domain.User
	byEmail map[string]int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[int64]domain.User{}, byEmail: map[string]int64{}}
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	id, ok := f.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return f.byID[id], nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, userID int64) (domain.User, error) {
	user, ok := f.byID[userID]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	if _, exists := f.byEmail[user.Email]; exists {
		return domain.User{}, domain.ErrDuplicateEmail
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.byID[user.ID] = user
	f.byEmail[user.Email] = user.ID
	return user, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user domain.User) (domain.User, error) {
	if _, ok := f.byID[user.ID]; !ok {
		return domain.User{}, domain.ErrNotFound
	}
	f.byID[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) idByEmail(email string) int64 {
	return f.byEmail[email]
}

type fakeProfileRepo struct {
	byUser map[int64]domain.UserProfile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{byUser: map[int64]domain.UserProfile{}}
}

func (f *fakeProfileRepo) Create(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error) {
	f.byUser[profile.UserID] = profile
	return profile, nil
}

func (f *fakeProfileRepo) GetByUserID(ctx context.Context, userID int64) (domain.UserProfile, error) {
	profile, ok := f.byUser[userID]
	if !ok {
		return domain.UserProfile{}, domain.ErrNotFound
	}
	return profile, nil
}

func (f *fakeProfileRepo) Update(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error) {
	if _, ok := f.byUser[profile.UserID]; !ok {
		return domain.UserProfile{}, domain.ErrNotFound
	}
	f.byUser[profile.UserID] = profile
	return profile, nil
}

type fakeMembershipRepo struct {
	items []domain.Membership
}

func (f *fakeMembershipRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Membership, error) {
	var out []domain.Membership
	for _, item := range f.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeMembershipRepo) GetByUserAndTenant(ctx context.Context, userID, tenantID int64) (domain.Membership, error) {
	for _, item := range f.items {
		if item.UserID == userID && item.TenantID == tenantID {
			return item, nil
		}
	}
	return domain.Membership{}, domain.ErrNotFound
}

func (f *fakeMembershipRepo) Create(ctx context.Context, membership domain.Membership) (domain.Membership, error) {
	f.items = append(f.items, membership)
	return membership, nil
}

type fakeTokenRepo struct {
	records map[int64]domain.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{records: map[int64]domain.RefreshToken{}}
}

func (f *fakeTokenRepo) Create(ctx context.Context, record domain.RefreshToken) (domain.RefreshToken, error) {
	record.IssuedAt = time.Now()
	f.records[record.ID] = record
	return record, nil
}

func (f *fakeTokenRepo) StoreHash(ctx context.Context, tokenID int64, hash string) error {
	record, ok := f.records[tokenID]
	if !ok {
		return domain.ErrNotFound
	}
	record.TokenHash = hash
	f.records[tokenID] = record
	return nil
}

func (f *fakeTokenRepo) GetByID(ctx context.Context, tokenID int64) (domain.RefreshToken, error) {
	record, ok := f.records[tokenID]
	if !ok {
		return domain.RefreshToken{}, domain.ErrNotFound
	}
	return record, nil
}

func (f *fakeTokenRepo) Revoke(ctx context.Context, tokenID int64) error {
	record, ok := f.records[tokenID]
	if !ok {
		return domain.ErrNotFound
	}
	record.Revoked = true
	f.records[tokenID] = record
	return nil
}

func (f *fakeTokenRepo) RevokeAllActive(ctx context.Context, userID int64) error {
	for id, record := range f.records {
		if record.UserID == userID && !record.Revoked {
			record.Revoked = true
			f.records[id] = record
		}
	}
	return nil
}

func (f *fakeTokenRepo) DeleteExpired(ctx context.Context, userID int64) error {
	now := time.Now()
	for id, record := range f.records {
		if record.UserID == userID && record.Expired(now) {
			delete(f.records, id)
		}
	}
	return nil
}

type fakeTenantRepo struct {
	byID map[int64]domain.Tenant
}

func (f *fakeTenantRepo) GetByID(ctx context.Context, tenantID int64) (domain.Tenant, error) {
	tenant, ok := f.byID[tenantID]
	if !ok {
		return domain.Tenant{}, domain.ErrNotFound
	}
	return tenant, nil
}

func (f *fakeTenantRepo) GetBySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	for _, tenant := range f.byID {
		if tenant.Slug == slug {
			return tenant, nil
		}
	}
	return domain.Tenant{}, domain.ErrNotFound
}

func (f *fakeTenantRepo) Create(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	f.byID[tenant.ID] = tenant
	return tenant, nil
}

type fakeTestimonialRepo struct {
	items []domain.Testimonial
}

func (f *fakeTestimonialRepo) Create(ctx context.Context, t domain.Testimonial) (domain.Testimonial, error) {
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	f.items = append(f.items, t)
	return t, nil
}

func (f *fakeTestimonialRepo) GetByID(ctx context.Context, tenantID, id int64) (domain.Testimonial, error) {
	for _, item := range f.items {
		if item.TenantID == tenantID && item.ID == id {
			return item, nil
		}
	}
	return domain.Testimonial{}, domain.ErrNotFound
}

func (f *fakeTestimonialRepo) ListByTenant(ctx context.Context, tenantID int64, status domain.TestimonialStatus) ([]domain.Testimonial, error) {
	out := []domain.Testimonial{}
	for _, item := range f.items {
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

func (f *fakeTestimonialRepo) UpdateStatus(ctx context.Context, tenantID, id int64, status domain.TestimonialStatus) (domain.Testimonial, error) {
	for i, item := range f.items {
		if item.TenantID == tenantID && item.ID == id {
			f.items[i].Status = status
			f.items[i].UpdatedAt = time.Now()
			return f.items[i], nil
		}
	}
	return domain.Testimonial{}, domain.ErrNotFound
}
