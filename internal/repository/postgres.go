package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shoutbase/shoutbase-auth/internal/domain"
)

// Compile-time interface assertions.
var (
	_ UserRepository         = (*PostgresUserRepo)(nil)
	_ ProfileRepository      = (*PostgresProfileRepo)(nil)
	_ MembershipRepository   = (*PostgresMembershipRepo)(nil)
	_ TenantRepository       = (*PostgresTenantRepo)(nil)
	_ RefreshTokenRepository = (*PostgresRefreshTokenRepo)(nil)
	_ TestimonialRepository  = (*PostgresTestimonialRepo)(nil)
)

const uniqueViolation = "23505"

func translateUnique(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "users_email"):
		return domain.ErrDuplicateEmail
	case strings.Contains(pgErr.ConstraintName, "memberships_user_tenant"):
		return domain.ErrDuplicateMembership
	}
	return err
}

// PostgresUserRepo implements UserRepository.
type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

const userColumns = `id, email, password_hash, name, active, created_at, updated_at, deactivated_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Active,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.DeactivatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := queryTarget(ctx, r.pool).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, err
		}
		return domain.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, userID int64) (domain.User, error) {
	row := queryTarget(ctx, r.pool).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, err
		}
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	row := queryTarget(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO users (id, email, password_hash, name, active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Active,
	)
	created, err := scanUser(row)
	if err != nil {
		if translated := translateUnique(err); errors.Is(translated, domain.ErrDuplicateEmail) {
			return domain.User{}, translated
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func (r *PostgresUserRepo) Update(ctx context.Context, user domain.User) (domain.User, error) {
	row := queryTarget(ctx, r.pool).QueryRow(ctx,
		`UPDATE users
		 SET name = $2, active = $3, deactivated_at = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		user.ID, user.Name, user.Active, user.DeactivatedAt,
	)
	updated, err := scanUser(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, err
		}
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

// PostgresProfileRepo implements ProfileRepository.
type PostgresProfileRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresProfileRepo(pool *pgxpool.Pool) *PostgresProfileRepo {
	return &PostgresProfileRepo{pool: pool}
}

const profileColumns = `user_id, avatar_url, bio, metadata, created_at, updated_at`

func scanProfile(row pgx.Row) (domain.UserProfile, error) {
	var (
		p   domain.UserProfile
		raw []byte
	)
	if err := row.Scan(&p.UserID, &p.AvatarURL, &p.Bio, &raw, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserProfile{}, domain.ErrNotFound
		}
		return domain.UserProfile{}, err
	}
	p.Metadata = map[string]string{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &p.Metadata)
	}
	return p, nil
}

func (r *PostgresProfileRepo) Create(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error) {
	meta, err := json.Marshal(profile.Metadata)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("encode profile metadata: %w", err)
	}
	row := queryTarget(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO user_profiles (user_id, avatar_url, bio, metadata)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+profileColumns,
		profile.UserID, profile.AvatarURL, profile.Bio, meta,
	)
	created, err := scanProfile(row)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("create profile: %w", err)
	}
	return created, nil
}

func (r *PostgresProfileRepo) GetByUserID(ctx context.Context, userID int64) (domain.UserProfile, error) {
	row := queryTarget(ctx, r.pool).QueryRow(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1`, userID)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.UserProfile{}, err
		}
		return domain.UserProfile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (r *PostgresProfileRepo) Update(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error) {
	meta, err := json.Marshal(profile.Metadata)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("encode profile metadata: %w", err)
	}
	row := queryTarget(ctx, r.pool).QueryRow(ctx,
		`UPDATE user_profiles
		 SET avatar_url = $2, bio = $3, metadata = $4, updated_at = now()
		 WHERE user_id = $1
		 RETURNING `+profileColumns,
		profile.UserID, profile.AvatarURL, profile.Bio, meta,
	)
	updated, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.UserProfile{}, err
		}
		return domain.UserProfile{}, fmt.Errorf("update profile: %w", err)
	}
	return updated, nil
}

// PostgresMembershipRepo implements MembershipRepository.
type PostgresMembershipRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresMembershipRepo(pool *pgxpool.Pool) *PostgresMembershipRepo {
	return &PostgresMembershipRepo{pool: pool}
}

func (r *PostgresMembershipRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Membership, error) {
	rows, err := queryTarget(ctx, r.pool).Query(ctx,
		`SELECT m.id, m.user_id, m.tenant_id, t.name, m.role, m.active, m.created_at
		 FROM memberships m
		 JOIN tenants t ON t.id = m.tenant_id
		 WHERE m.user_id = $1
		 ORDER BY m.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.ID, &m.UserID, &m.TenantID, &m.TenantName, &m.Role, &m.Active, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

func (r *PostgresMembershipRepo) GetByUserAndTenant(ctx context.Context, userID, tenantID int64) (domain.Membership, error) {
	var m domain.Membership
	err := queryTarget(ctx, r.pool).QueryRow(ctx,
		`SELECT m.id, m.user_id, m.tenant_id, t.name, m.role, m.active, m.created_at
		 FROM memberships m
		 JOIN tenants t ON t.id = m.tenant_id
		 WHERE m.user_id = $1 AND m.tenant_id = $2`,
		userID, tenantID,
	).Scan(&m.ID, &m.UserID, &m.TenantID, &m.TenantName, &m.Role, &m.Active, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Membership{}, domain.ErrNotFound
		}
		return domain.Membership{}, fmt.Errorf("get membership: %w", err)
	}
	return m, nil
}

func (r *PostgresMembershipRepo) Create(ctx context.Context, membership domain.Membership) (domain.Membership, error) {
	var m domain.Membership
	err := queryTarget(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO memberships (id, user_id, tenant_id, role, active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, user_id, tenant_id, role, active, created_at`,
		membership.ID, membership.UserID, membership.TenantID, membership.Role, membership.Active,
	).Scan(&m.ID, &m.UserID, &m.TenantID, &m.Role, &m.Active, &m.CreatedAt)
	if err != nil {
		if translated := translateUnique(err); errors.Is(translated, domain.ErrDuplicateMembership) {
			return domain.Membership{}, translated
		}
		return domain.Membership{}, fmt.Errorf("create membership: %w", err)
	}
	m.TenantName = membership.TenantName
	return m, nil
}

// PostgresTenantRepo implements TenantRepository.
type PostgresTenantRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresTenantRepo(pool *pgxpool.Pool) *PostgresTenantRepo {
	return &PostgresTenantRepo{pool: pool}
}

const tenantColumns = `id, name, slug, active, created_at, updated_at`

func scanTenant(row pgx.Row) (domain.Tenant, error) {
	var t domain.Tenant
	if err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Tenant{}, domain.ErrNotFound
		}
		return domain.Tenant{}, err
	}
	return t, nil
}

func (r *PostgresTenantRepo) GetByID(ctx context.Context, tenantID int64) (domain.Tenant, error) {
	row := queryTarget(ctx, r.pool).QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, tenantID)
	t, err := scanTenant(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Tenant{}, err
		}
		return domain.Tenant{}, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}

func (r *PostgresTenantRepo) GetBySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	row := queryTarget(ctx, r.pool).QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug)
	t, err := scanTenant(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Tenant{}, err
		}
		return domain.Tenant{}, fmt.Errorf("get tenant by slug: %w", err)
	}
	return t, nil
}

func (r *PostgresTenantRepo) Create(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	row := queryTarget(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO tenants (id, name, slug, active)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+tenantColumns,
		tenant.ID, tenant.Name, tenant.Slug, tenant.Active,
	)
	created, err := scanTenant(row)
	if err != nil {
		return domain.Tenant{}, fmt.Errorf("create tenant: %w", err)
	}
	return created, nil
}

// PostgresRefreshTokenRepo implements RefreshTokenRepository.
type PostgresRefreshTokenRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRefreshTokenRepo(pool *pgxpool.Pool) *PostgresRefreshTokenRepo {
	return &PostgresRefreshTokenRepo{pool: pool}
}

const refreshTokenColumns = `id, user_id, token_hash, issued_at, expires_at, revoked`

func scanRefreshToken(row pgx.Row) (domain.RefreshToken, error) {
	var t domain.RefreshToken
	if err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.IssuedAt, &t.ExpiresAt, &t.Revoked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RefreshToken{}, domain.ErrNotFound
		}
		return domain.RefreshToken{}, err
	}
	return t, nil
}

func (r *PostgresRefreshTokenRepo) Create(ctx context.Context, record domain.RefreshToken) (domain.RefreshToken, error) {
	row := queryTarget(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+refreshTokenColumns,
		record.ID, record.UserID, record.TokenHash, record.ExpiresAt,
	)
	created, err := scanRefreshToken(row)
	if err != nil {
		return domain.RefreshToken{}, fmt.Errorf("create refresh token: %w", err)
	}
	return created, nil
}

func (r *PostgresRefreshTokenRepo) StoreHash(ctx context.Context, tokenID int64, hash string) error {
	tag, err := queryTarget(ctx, r.pool).Exec(ctx,
		`UPDATE refresh_tokens SET token_hash = $2 WHERE id = $1`, tokenID, hash)
	if err != nil {
		return fmt.Errorf("store token hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresRefreshTokenRepo) GetByID(ctx context.Context, tokenID int64) (domain.RefreshToken, error) {
	row := queryTarget(ctx, r.pool).QueryRow(ctx,
		`SELECT `+refreshTokenColumns+` FROM refresh_tokens WHERE id = $1`, tokenID)
	t, err := scanRefreshToken(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.RefreshToken{}, err
		}
		return domain.RefreshToken{}, fmt.Errorf("get refresh token: %w", err)
	}
	return t, nil
}

func (r *PostgresRefreshTokenRepo) Revoke(ctx context.Context, tokenID int64) error {
	if _, err := queryTarget(ctx, r.pool).Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true WHERE id = $1`, tokenID); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (r *PostgresRefreshTokenRepo) RevokeAllActive(ctx context.Context, userID int64) error {
	if _, err := queryTarget(ctx, r.pool).Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true WHERE user_id = $1 AND revoked = false`, userID); err != nil {
		return fmt.Errorf("revoke active refresh tokens: %w", err)
	}
	return nil
}

func (r *PostgresRefreshTokenRepo) DeleteExpired(ctx context.Context, userID int64) error {
	if _, err := queryTarget(ctx, r.pool).Exec(ctx,
		`DELETE FROM refresh_tokens WHERE user_id = $1 AND expires_at < now()`, userID); err != nil {
		return fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return nil
}

// PostgresTestimonialRepo implements TestimonialRepository.
type PostgresTestimonialRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresTestimonialRepo(pool *pgxpool.Pool) *PostgresTestimonialRepo {
	return &PostgresTestimonialRepo{pool: pool}
}

const testimonialColumns = `id, tenant_id, author_id, author_name, body, rating, status, created_at, updated_at`

func scanTestimonial(row pgx.Row) (domain.Testimonial, error) {
	var t domain.Testimonial
	if err := row.Scan(&t.ID, &t.TenantID, &t.AuthorID, &t.AuthorName, &t.Body, &t.Rating, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Testimonial{}, domain.ErrNotFound
		}
		return domain.Testimonial{}, err
	}
	return t, nil
}

func (r *PostgresTestimonialRepo) Create(ctx context.Context, t domain.Testimonial) (domain.Testimonial, error) {
	row := queryTarget(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO testimonials (id, tenant_id, author_id, author_name, body, rating, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+testimonialColumns,
		t.ID, t.TenantID, t.AuthorID, t.AuthorName, t.Body, t.Rating, t.Status,
	)
	created, err := scanTestimonial(row)
	if err != nil {
		return domain.Testimonial{}, fmt.Errorf("create testimonial: %w", err)
	}
	return created, nil
}

func (r *PostgresTestimonialRepo) GetByID(ctx context.Context, tenantID, id int64) (domain.Testimonial, error) {
	row := queryTarget(ctx, r.pool).QueryRow(ctx,
		`SELECT `+testimonialColumns+` FROM testimonials WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	t, err := scanTestimonial(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Testimonial{}, err
		}
		return domain.Testimonial{}, fmt.Errorf("get testimonial: %w", err)
	}
	return t, nil
}

func (r *PostgresTestimonialRepo) ListByTenant(ctx context.Context, tenantID int64, status domain.TestimonialStatus) ([]domain.Testimonial, error) {
	query := `SELECT ` + testimonialColumns + ` FROM testimonials WHERE tenant_id = $1`
	args := []any{tenantID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := queryTarget(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	defer rows.Close()

	var out []domain.Testimonial
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan testimonial: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresTestimonialRepo) UpdateStatus(ctx context.Context, tenantID, id int64, status domain.TestimonialStatus) (domain.Testimonial, error) {
	row := queryTarget(ctx, r.pool).QueryRow(ctx,
		`UPDATE testimonials SET status = $3, updated_at = now()
		 WHERE tenant_id = $1 AND id = $2
		 RETURNING `+testimonialColumns,
		tenantID, id, status,
	)
	t, err := scanTestimonial(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Testimonial{}, err
		}
		return domain.Testimonial{}, fmt.Errorf("update testimonial status: %w", err)
	}
	return t, nil
}
